package soundsink

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/speaker"
	"github.com/gopxl/beep/v2/vorbis"
	"github.com/gopxl/beep/v2/wav"
)

// player decodes and plays WAV, OGG and MP3 files through the system
// speaker, caching decoded buffers so a repeated sound never re-decodes.
type player struct {
	mu     sync.Mutex
	logger *slog.Logger

	volume      float64
	initialized bool
	sampleRate  beep.SampleRate

	cacheMu sync.RWMutex
	cache   map[string]*beep.Buffer
}

func newPlayer(logger *slog.Logger) *player {
	return &player{
		logger:     logger,
		volume:     1.0,
		sampleRate: beep.SampleRate(44100),
		cache:      make(map[string]*beep.Buffer),
	}
}

func (p *player) setVolume(volume float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	switch {
	case volume < 0:
		volume = 0
	case volume > 1:
		volume = 1
	}
	p.volume = volume
}

// play decodes (or reuses a cached decode of) path and plays it at the
// player's current volume. An empty path is a no-op.
func (p *player) play(path string) error {
	if path == "" {
		return nil
	}
	path = expandPath(path)

	p.cacheMu.RLock()
	buf, ok := p.cache[path]
	p.cacheMu.RUnlock()

	if !ok {
		var err error
		buf, err = p.load(path)
		if err != nil {
			return err
		}
		p.cacheMu.Lock()
		p.cache[path] = buf
		p.cacheMu.Unlock()
	}
	return p.playBuffer(buf)
}

func (p *player) load(path string) (*beep.Buffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open sound file: %w", err)
	}
	defer f.Close()

	var streamer beep.StreamSeekCloser
	var format beep.Format
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav":
		streamer, format, err = wav.Decode(f)
	case ".ogg":
		streamer, format, err = vorbis.Decode(f)
	case ".mp3":
		streamer, format, err = mp3.Decode(f)
	default:
		return nil, fmt.Errorf("unsupported sound format: %s", filepath.Ext(path))
	}
	if err != nil {
		return nil, fmt.Errorf("decode sound: %w", err)
	}
	defer streamer.Close()

	if err := p.ensureInitialized(format.SampleRate); err != nil {
		return nil, err
	}

	buffer := beep.NewBuffer(format)
	buffer.Append(streamer)
	return buffer, nil
}

func (p *player) ensureInitialized(sampleRate beep.SampleRate) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.initialized {
		return nil
	}
	if err := speaker.Init(sampleRate, sampleRate.N(100*time.Millisecond)); err != nil {
		return fmt.Errorf("init speaker: %w", err)
	}
	p.sampleRate = sampleRate
	p.initialized = true
	return nil
}

func (p *player) playBuffer(buffer *beep.Buffer) error {
	p.mu.Lock()
	volume := p.volume
	rate := p.sampleRate
	p.mu.Unlock()

	var streamer beep.Streamer = buffer.Streamer(0, buffer.Len())
	if buffer.Format().SampleRate != rate {
		streamer = beep.Resample(4, buffer.Format().SampleRate, rate, streamer)
	}
	if volume < 1.0 {
		streamer = &effects.Volume{
			Streamer: streamer,
			Base:     2,
			Volume:   volumeToDecibels(volume),
			Silent:   volume == 0,
		}
	}
	speaker.Play(streamer)
	return nil
}

// invalidate drops path from the decode cache, used when the watcher sees
// the underlying file change on disk.
func (p *player) invalidate(path string) {
	p.cacheMu.Lock()
	delete(p.cache, path)
	p.cacheMu.Unlock()
}

// clearCache drops every decoded buffer, used on a full config reload.
func (p *player) clearCache() {
	p.cacheMu.Lock()
	p.cache = make(map[string]*beep.Buffer)
	p.cacheMu.Unlock()
}

func (p *player) close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.initialized {
		speaker.Close()
		p.initialized = false
	}
	p.cacheMu.Lock()
	p.cache = make(map[string]*beep.Buffer)
	p.cacheMu.Unlock()
}

func expandPath(path string) string {
	if strings.HasPrefix(path, "~") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}

// volumeToDecibels converts a linear 0-1 volume to the decibel scale
// effects.Volume expects, in the same hand-rolled way as the rest of this
// tree avoids pulling in math for a single log10 call.
func volumeToDecibels(volume float64) float64 {
	if volume <= 0 {
		return -100
	}
	return 20 * log10(volume)
}

func log10(x float64) float64 {
	if x <= 0 {
		return -100
	}
	return ln(x) / ln(10)
}

func ln(x float64) float64 {
	if x <= 0 {
		return -100
	}
	result := 0.0
	y := (x - 1) / (x + 1)
	y2 := y * y
	term := y
	for i := 1; i < 50; i += 2 {
		result += term / float64(i)
		term *= y2
	}
	return 2 * result
}
