package controlsocket

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"sync"

	"github.com/oklog/ulid/v2"
	"golang.org/x/sys/unix"
)

// Dispatcher executes a decoded Command and returns the Response to write
// back. Implementations run on whatever goroutine the server calls them
// from; a Dispatcher backed by the coordinator must make its own
// arrangements (e.g. a reply channel) to get back onto the single-writer
// goroutine.
type Dispatcher interface {
	Dispatch(cmd Command) Response
}

// TrustPolicy decides whether a connecting peer's credentials are allowed
// to use the socket at all. The default policy used by Server trusts only
// the process's own effective uid, since the socket lives under the
// user's own XDG runtime directory.
type TrustPolicy func(uid uint32) bool

// SameUIDPolicy returns a TrustPolicy that accepts only connections from
// the given uid.
func SameUIDPolicy(uid uint32) TrustPolicy {
	return func(peerUID uint32) bool { return peerUID == uid }
}

// Server listens on a Unix domain socket and serves one goroutine per
// connection.
type Server struct {
	path       string
	dispatcher Dispatcher
	trust      TrustPolicy
	logger     *slog.Logger

	mu       sync.Mutex
	listener net.Listener
	wg       sync.WaitGroup
}

// DefaultSocketPath returns $XDG_RUNTIME_DIR/swaynoti.sock, falling back
// to /tmp/swaynoti.sock when XDG_RUNTIME_DIR isn't set.
func DefaultSocketPath() string {
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return filepath.Join(dir, "swaynoti.sock")
	}
	return filepath.Join(os.TempDir(), "swaynoti.sock")
}

// New builds a Server bound to path (DefaultSocketPath() if empty).
func New(path string, dispatcher Dispatcher, trust TrustPolicy, logger *slog.Logger) *Server {
	if path == "" {
		path = DefaultSocketPath()
	}
	if trust == nil {
		trust = SameUIDPolicy(uint32(os.Geteuid()))
	}
	return &Server{path: path, dispatcher: dispatcher, trust: trust, logger: logger}
}

// Start removes any stale socket file, binds, and begins accepting
// connections in the background. It returns once the listener is bound.
func (s *Server) Start() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove stale socket: %w", err)
	}

	ln, err := net.Listen("unix", s.path)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.path, err)
	}
	if err := os.Chmod(s.path, 0600); err != nil {
		ln.Close()
		return fmt.Errorf("chmod socket: %w", err)
	}

	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	s.wg.Add(1)
	go s.acceptLoop(ln)
	return nil
}

// Stop closes the listener and waits for in-flight connections to drain.
func (s *Server) Stop() error {
	s.mu.Lock()
	ln := s.listener
	s.listener = nil
	s.mu.Unlock()

	if ln == nil {
		return nil
	}
	err := ln.Close()
	s.wg.Wait()
	os.Remove(s.path)
	return err
}

func (s *Server) acceptLoop(ln net.Listener) {
	defer s.wg.Done()
	for {
		conn, err := ln.Accept()
		if err != nil {
			return // listener closed
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.serveConn(conn)
		}()
	}
}

func (s *Server) serveConn(conn net.Conn) {
	defer conn.Close()

	if unixConn, ok := conn.(*net.UnixConn); ok {
		uid, err := peerUID(unixConn)
		if err != nil {
			s.logger.Warn("control socket: failed to read peer credentials", "error", err)
			return
		}
		if !s.trust(uid) {
			s.logger.Warn("control socket: rejected untrusted peer", "uid", uid)
			return
		}
	}

	reader := bufio.NewReader(conn)
	writer := bufio.NewWriter(conn)
	defer writer.Flush()

	for {
		line, err := reader.ReadBytes('\n')
		if len(line) > 0 {
			s.handleLine(writer, line)
			writer.Flush()
		}
		if err != nil {
			return
		}
	}
}

// handleLine decodes and dispatches one request. Each request gets a ULID
// purely for correlating this goroutine's log lines with whatever the
// dispatcher logs handling it on the coordinator goroutine; the id is
// never part of the wire protocol or the response.
func (s *Server) handleLine(w *bufio.Writer, line []byte) {
	reqID := ulid.Make()

	var cmd Command
	if err := json.Unmarshal(line, &cmd); err != nil {
		s.logger.Debug("control socket: invalid request", "request_id", reqID, "error", err)
		writeResponse(w, Err(fmt.Sprintf("invalid command: %v", err)))
		return
	}
	s.logger.Debug("control socket: dispatching request", "request_id", reqID, "command", cmd.Command)
	resp := s.dispatcher.Dispatch(cmd)
	writeResponse(w, resp)
}

func writeResponse(w *bufio.Writer, resp Response) {
	data, err := json.Marshal(resp)
	if err != nil {
		return
	}
	w.Write(data)
	w.WriteByte('\n')
}

func peerUID(conn *net.UnixConn) (uint32, error) {
	raw, err := conn.SyscallConn()
	if err != nil {
		return 0, err
	}
	var ucred *unix.Ucred
	var opErr error
	err = raw.Control(func(fd uintptr) {
		ucred, opErr = unix.GetsockoptUcred(int(fd), unix.SOL_SOCKET, unix.SO_PEERCRED)
	})
	if err != nil {
		return 0, err
	}
	if opErr != nil {
		return 0, opErr
	}
	return ucred.Uid, nil
}
