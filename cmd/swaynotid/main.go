// Package main is the entry point for the swaynotid notification daemon:
// it claims org.freedesktop.Notifications on the session bus, drives the
// lifecycle coordinator, and renders notifications as layer-shell popups.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/diamondburned/gotk4-adwaita/pkg/adw"
	"github.com/diamondburned/gotk4/pkg/glib/v2"
	"github.com/diamondburned/gotk4/pkg/gtk/v4"
	"golang.org/x/sync/errgroup"

	"github.com/jmylchreest/swaynoti/internal/busadapter"
	"github.com/jmylchreest/swaynoti/internal/config"
	"github.com/jmylchreest/swaynoti/internal/controlsocket"
	"github.com/jmylchreest/swaynoti/internal/coordinator"
	"github.com/jmylchreest/swaynoti/internal/dndgate"
	"github.com/jmylchreest/swaynoti/internal/focussink"
	"github.com/jmylchreest/swaynoti/internal/history"
	"github.com/jmylchreest/swaynoti/internal/model"
	"github.com/jmylchreest/swaynoti/internal/presenter/popup"
	"github.com/jmylchreest/swaynoti/internal/soundsink"
)

const appID = "org.swaynoti.Daemon"

var version = "dev"

func main() {
	showVersion := flag.Bool("version", false, "Show version and exit")
	configPath := flag.String("config", "", "Path to the config file (default: XDG config dir)")
	monitorMode := flag.Bool("monitor", false, "Passively observe another daemon's notification traffic and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println("swaynotid version", version)
		return
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, cfgPath, err := loadConfig(*configPath, logger)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	historyPath := cfg.History.Path
	if historyPath == "" {
		stateDir, err := os.UserCacheDir()
		if err != nil {
			logger.Error("failed to resolve history directory", "error", err)
			os.Exit(1)
		}
		historyPath = filepath.Join(stateDir, "swaynoti", "history.db")
	}
	if err := os.MkdirAll(filepath.Dir(historyPath), 0700); err != nil {
		logger.Error("failed to create history directory", "error", err)
		os.Exit(1)
	}

	hist, err := history.Open(historyPath, cfg.History.MaxEntries)
	if err != nil {
		logger.Error("failed to open history store", "error", err)
		os.Exit(1)
	}
	defer hist.Close()

	if *monitorMode {
		runMonitorMode(hist, logger)
		return
	}

	gate := dndgate.New(cfg.DnD.Enabled)
	focus := focussink.New(logger)
	sound := soundsink.New(cfg, logger)
	defer sound.Close()

	coord := coordinator.New(cfg, gate, hist, nil, logger,
		coordinator.WithSoundSink(sound),
		coordinator.WithFocusSink(focus),
	)

	bus := busadapter.New(coord, logger)
	coord.SetBus(bus)

	socket := controlsocket.New(cfg.Socket.Path, coord, nil, logger)

	var cfgWatcher *config.Watcher
	if cfgPath != "" {
		cfgWatcher, err = config.NewWatcher(cfgPath, logger, func(snap *config.Snapshot) {
			coord.ReloadConfig(snap)
			sound.Reload(snap)
		})
		if err != nil {
			logger.Warn("failed to build config watcher; hot-reload disabled", "error", err)
			cfgWatcher = nil
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	group, gctx := errgroup.WithContext(ctx)

	group.Go(func() error { return coord.Run(gctx) })
	group.Go(func() error { scheduler := dndgate.NewScheduler(gate, cfg.DnD.Schedule, logger); return scheduler.Run(gctx) })
	group.Go(func() error { sound.Watch(gctx); return nil })

	if err := bus.Start(); err != nil {
		logger.Error("failed to start bus adapter", "error", err)
		os.Exit(1)
	}
	defer bus.Stop()

	if err := socket.Start(); err != nil {
		logger.Error("failed to start control socket", "error", err)
		os.Exit(1)
	}
	defer socket.Stop()

	if cfgWatcher != nil {
		if err := cfgWatcher.Start(); err != nil {
			logger.Warn("failed to start config watcher", "error", err)
		} else {
			defer cfgWatcher.Stop()
		}
	}

	app := adw.NewApplication(appID, 0)
	pres := popup.New(&app.Application, cfg, logger)

	var running atomic.Bool

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received signal, shutting down", "signal", sig)
		cancel()
		glib.IdleAdd(func() {
			if running.Load() {
				app.Quit()
			}
		})
	}()

	app.ConnectActivate(func() {
		if running.Load() {
			logger.Warn("application already running")
			return
		}
		running.Store(true)

		group.Go(func() error { return pres.Run(gctx, coord.DisplayEvents(), coord.IntentSink()) })

		// A hidden 1x1 window keeps the GTK application alive even when no
		// notification popup is currently showing (GTK quits once every
		// window closes).
		keepAlive := gtk.NewWindow()
		keepAlive.SetApplication(&app.Application)
		keepAlive.SetDefaultSize(1, 1)
		keepAlive.SetDecorated(false)
		keepAlive.SetVisible(false)

		logger.Info("swaynotid ready", "version", version, "bus_name", "org.freedesktop.Notifications")
	})

	app.ConnectShutdown(func() {
		logger.Info("application shutting down")
		running.Store(false)
		cancel()
	})

	status := app.Run(os.Args)
	cancel()

	if err := group.Wait(); err != nil && err != context.Canceled {
		logger.Warn("a background component exited with an error", "error", err)
	}

	if status != 0 {
		os.Exit(status)
	}
	logger.Info("swaynotid stopped")
}

func loadConfig(explicitPath string, logger *slog.Logger) (*config.Snapshot, string, error) {
	if explicitPath != "" {
		snap, err := config.LoadFrom(explicitPath)
		return snap, explicitPath, err
	}
	path, err := config.Path()
	if err != nil {
		return nil, "", err
	}
	snap, err := config.LoadFrom(path)
	if err != nil {
		return nil, "", err
	}
	return snap, path, nil
}

// runMonitorMode observes another daemon's Notify traffic without claiming
// org.freedesktop.Notifications, logging and persisting each observed
// notification to history. It runs until interrupted. This is a
// supplementary debugging mode, not part of the notification lifecycle
// contract: there is no presenter, sound, or DND evaluation here, and the
// observed notification never gets a locally-meaningful id.
func runMonitorMode(hist *history.Store, logger *slog.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	mon := busadapter.NewMonitor(func(n *model.Notification) {
		n.CreatedAt = time.Now()
		logger.Info("observed notification", "app", n.AppName, "summary", n.Summary)
		entry, err := model.NewHistoryEntry(n)
		if err != nil {
			logger.Warn("skipping malformed observed notification", "error", err)
			return
		}
		if _, err := hist.Add(entry); err != nil {
			logger.Warn("failed to persist observed notification", "error", err)
		}
	}, logger)

	if err := mon.Start(); err != nil {
		logger.Error("failed to start monitor", "error", err)
		os.Exit(1)
	}
	defer mon.Stop()

	logger.Info("swaynotid monitor mode running; press Ctrl+C to stop")
	<-sigCh
	logger.Info("swaynotid monitor stopped")
}
