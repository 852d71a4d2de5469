package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jmylchreest/swaynoti/internal/config"
	"github.com/jmylchreest/swaynoti/internal/controlsocket"
	"github.com/jmylchreest/swaynoti/internal/history"
)

func main() {
	historyPath := flag.String("history", "", "Path to the history database (default: XDG cache dir)")
	socketPath := flag.String("socket", "", "Path to the control socket (default: XDG runtime dir)")
	format := flag.String("format", "", `Print history non-interactively using a named CLI output template ("plain", "dmenu", or a custom name from cli.toml) instead of launching the TUI`)
	flag.Parse()

	path := *historyPath
	if path == "" {
		cfg, err := config.Path()
		if err == nil {
			if snap, err := config.LoadFrom(cfg); err == nil && snap.History.Path != "" {
				path = snap.History.Path
			}
		}
	}
	if path == "" {
		stateDir, err := os.UserCacheDir()
		if err != nil {
			fmt.Fprintln(os.Stderr, "swaynoti-history:", err)
			os.Exit(1)
		}
		path = filepath.Join(stateDir, "swaynoti", "history.db")
	}

	hist, err := history.Open(path, 0)
	if err != nil {
		fmt.Fprintln(os.Stderr, "swaynoti-history: open history store:", err)
		os.Exit(1)
	}
	defer hist.Close()

	if *format != "" {
		if err := printHistory(hist, *format); err != nil {
			fmt.Fprintln(os.Stderr, "swaynoti-history:", err)
			os.Exit(1)
		}
		return
	}

	socket := *socketPath
	if socket == "" {
		socket = controlsocket.DefaultSocketPath()
	}

	p := tea.NewProgram(New(hist, socket), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintln(os.Stderr, "swaynoti-history:", err)
		os.Exit(1)
	}
}

// printHistory renders every history entry with the named CLI output
// template and writes it to stdout, for scripting use (e.g. piping into
// dmenu/rofi) rather than the interactive browser.
func printHistory(hist *history.Store, format string) error {
	entries, err := hist.GetAll()
	if err != nil {
		return fmt.Errorf("load history: %w", err)
	}

	cliCfg, err := config.LoadCLIConfig("")
	if err != nil {
		return fmt.Errorf("load CLI output config: %w", err)
	}

	for _, e := range entries {
		line, err := cliCfg.Render(format, config.TemplateData{
			ID:        e.NotificationID,
			AppName:   e.AppName,
			Summary:   e.Summary,
			Body:      e.Body,
			Urgency:   e.Urgency,
			Timestamp: e.Timestamp,
		})
		if err != nil {
			return err
		}
		fmt.Println(line)
	}
	return nil
}
