// Package soundsink is the default sound-sink collaborator: it resolves a
// notification's urgency (or an explicit sound-file/sound-name hint) to a
// file on disk and plays it through the system speaker via gopxl/beep.
// Sound is an external collaborator per spec.md §1 — the coordinator only
// ever calls the narrow Play method this package exposes.
package soundsink

import (
	"context"
	"log/slog"
	"maps"
	"os"
	"sync"
	"time"

	"github.com/jmylchreest/swaynoti/internal/config"
)

// Sink plays per-urgency notification sounds, with an on-disk file watcher
// invalidating the decode cache when a sound file is replaced.
type Sink struct {
	mu     sync.RWMutex
	logger *slog.Logger
	player *player
	cfg    *config.Snapshot

	sounds map[int]string // urgency -> resolved file path

	watchMu      sync.Mutex
	watched      map[string]time.Time
	pollInterval time.Duration
}

// New builds a Sink from the given configuration snapshot.
func New(cfg *config.Snapshot, logger *slog.Logger) *Sink {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Sink{
		logger:       logger,
		player:       newPlayer(logger),
		cfg:          cfg,
		sounds:       make(map[int]string),
		watched:      make(map[string]time.Time),
		pollInterval: 2 * time.Second,
	}
	s.loadFromConfig(cfg)
	return s
}

func (s *Sink) loadFromConfig(cfg *config.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.player.setVolume(float64(cfg.Audio.Volume) / 100.0)

	s.sounds = map[int]string{
		0: cfg.GetSoundForUrgency(0),
		1: cfg.GetSoundForUrgency(1),
		2: cfg.GetSoundForUrgency(2),
	}
	for urgency, path := range s.sounds {
		if path == "" {
			continue
		}
		if _, err := os.Stat(path); err != nil {
			s.logger.Warn("sound file not found", "urgency", urgency, "path", path)
		}
	}
}

// Reload swaps the configuration the Sink resolves sounds against,
// clearing the decode cache so changed paths are picked up immediately.
func (s *Sink) Reload(cfg *config.Snapshot) {
	s.player.clearCache()
	s.loadFromConfig(cfg)
}

// Watch starts polling every sound file currently resolved from config for
// modification-time changes, invalidating the player's decode cache when
// one is replaced. Returns once ctx is cancelled.
func (s *Sink) Watch(ctx context.Context) {
	s.mu.RLock()
	for _, path := range s.sounds {
		if path != "" {
			s.track(path)
		}
	}
	s.mu.RUnlock()

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.checkForChanges()
		}
	}
}

func (s *Sink) track(path string) {
	s.watchMu.Lock()
	defer s.watchMu.Unlock()
	if info, err := os.Stat(path); err == nil {
		s.watched[path] = info.ModTime()
	} else {
		s.watched[path] = time.Time{}
	}
}

func (s *Sink) checkForChanges() {
	s.watchMu.Lock()
	paths := make(map[string]time.Time, len(s.watched))
	maps.Copy(paths, s.watched)
	s.watchMu.Unlock()

	for path, lastMod := range paths {
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		if info.ModTime().After(lastMod) {
			s.watchMu.Lock()
			s.watched[path] = info.ModTime()
			s.watchMu.Unlock()
			s.player.invalidate(path)
			s.logger.Debug("sound file changed, cache invalidated", "path", path)
		}
	}
}

// Play implements coordinator.SoundSink. An explicit soundFile hint wins
// over soundName, which wins over the urgency-level default. Disabled audio,
// or no resolvable path at all, returns nil; a path that cannot be opened
// or decoded returns an error, which the coordinator only logs, so sound
// failures never affect notification delivery.
func (s *Sink) Play(urgency int, soundFile, soundName string) error {
	s.mu.RLock()
	enabled := s.cfg.Audio.Enabled
	fallback := s.sounds[urgency]
	s.mu.RUnlock()

	if !enabled {
		return nil
	}

	path := soundFile
	if path == "" && soundName != "" {
		path = resolveThemeSound(soundName)
	}
	if path == "" {
		path = fallback
	}
	if path == "" {
		return nil
	}
	return s.player.play(path)
}

// resolveThemeSound maps a freedesktop sound-name hint (e.g.
// "message-new-instant") to a file under the user's sound theme. Full
// XDG sound theme resolution is out of scope; this covers the common
// case of a direct path already baked into the name.
func resolveThemeSound(name string) string {
	if _, err := os.Stat(name); err == nil {
		return name
	}
	return ""
}

// Close releases the underlying speaker.
func (s *Sink) Close() {
	s.player.close()
}
