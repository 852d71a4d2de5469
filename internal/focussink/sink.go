// Package focussink is the default focus-sink collaborator: it asks the
// running Wayland compositor to raise and focus the window belonging to a
// notification's application. It is best-effort — a compositor we don't
// recognize, or one with no window matching the app, is a silent no-op,
// never an error the coordinator needs to react to.
package focussink

import (
	"bufio"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/exec"
	"strings"
	"time"
)

// Sink forwards an application-focus request to whichever compositor
// backend is detected at construction time.
type Sink struct {
	logger  *slog.Logger
	backend backend
}

type backend interface {
	focus(appName string) error
}

// New probes the environment for a supported compositor and returns a
// Sink wired to it. If none is detected, Focus is a no-op.
func New(logger *slog.Logger) *Sink {
	if logger == nil {
		logger = slog.Default()
	}
	var b backend
	switch {
	case hyprlandSocketPath() != "":
		b = hyprlandBackend{socketPath: hyprlandSocketPath()}
	case swaySocketPath() != "":
		b = swayBackend{}
	default:
		b = noopBackend{}
	}
	return &Sink{logger: logger, backend: b}
}

// Focus implements coordinator.FocusSink.
func (s *Sink) Focus(appName string) error {
	if appName == "" {
		return nil
	}
	if err := s.backend.focus(appName); err != nil {
		s.logger.Debug("focus request failed", "app", appName, "error", err)
	}
	return nil
}

type noopBackend struct{}

func (noopBackend) focus(string) error { return nil }

// hyprlandBackend dials Hyprland's control socket directly, mirroring the
// IPC protocol: write a command line, read the plaintext reply. Several
// matching strategies are tried in turn since a window's class, title and
// initial class frequently disagree with the app name D-Bus sees.
type hyprlandBackend struct {
	socketPath string
}

func hyprlandSocketPath() string {
	sig := os.Getenv("HYPRLAND_INSTANCE_SIGNATURE")
	runtimeDir := os.Getenv("XDG_RUNTIME_DIR")
	if sig == "" || runtimeDir == "" {
		return ""
	}
	return fmt.Sprintf("%s/hypr/%s/.socket.sock", runtimeDir, sig)
}

func (h hyprlandBackend) focus(appName string) error {
	strategies := []string{
		fmt.Sprintf("dispatch focuswindow class:%s", appName),
		fmt.Sprintf("dispatch focuswindow title:%s", appName),
		fmt.Sprintf("dispatch focuswindow class:^%s$", strings.ToLower(appName)),
		fmt.Sprintf("dispatch focuswindow initialclass:%s", appName),
	}
	var lastErr error
	for _, cmd := range strategies {
		resp, err := h.send(cmd)
		if err != nil {
			lastErr = err
			continue
		}
		if resp == "" || resp == "ok" {
			return nil
		}
	}
	if lastErr != nil {
		return fmt.Errorf("hyprland focus %q: %w", appName, lastErr)
	}
	return fmt.Errorf("hyprland focus %q: no strategy matched a window", appName)
}

func (h hyprlandBackend) send(command string) (string, error) {
	conn, err := net.DialTimeout("unix", h.socketPath, 500*time.Millisecond)
	if err != nil {
		return "", fmt.Errorf("dial hyprland socket: %w", err)
	}
	defer conn.Close()

	if _, err := conn.Write([]byte(command)); err != nil {
		return "", fmt.Errorf("write hyprland command: %w", err)
	}
	conn.SetReadDeadline(time.Now().Add(500 * time.Millisecond))

	var sb strings.Builder
	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		sb.WriteString(scanner.Text())
	}
	return strings.TrimSpace(sb.String()), nil
}

// swayBackend shells out to swaymsg, since sway's IPC wire protocol is a
// binary framing best left to its own client rather than reimplemented
// here for a single best-effort dispatch.
type swayBackend struct{}

func swaySocketPath() string {
	return os.Getenv("SWAYSOCK")
}

func (swayBackend) focus(appName string) error {
	criteria := fmt.Sprintf(`[app_id="%s"]`, appName)
	cmd := exec.Command("swaymsg", criteria, "focus")
	if err := cmd.Run(); err == nil {
		return nil
	}
	criteria = fmt.Sprintf(`[class="%s"]`, appName)
	cmd = exec.Command("swaymsg", criteria, "focus")
	return cmd.Run()
}
