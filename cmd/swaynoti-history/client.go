package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"

	"github.com/jmylchreest/swaynoti/internal/controlsocket"
)

// sendDismiss asks the running daemon to dismiss id over the control
// socket. This browser never writes the history row itself: the daemon
// marks it, together with the live registry and NotificationClosed signal,
// when id is still live (a dismiss of an id that is no longer live is a
// no-op on the daemon side).
func sendDismiss(socketPath string, id uint32) error {
	if socketPath == "" {
		socketPath = controlsocket.DefaultSocketPath()
	}
	conn, err := net.Dial("unix", socketPath)
	if err != nil {
		return fmt.Errorf("connect to %s: %w", socketPath, err)
	}
	defer conn.Close()

	data, err := json.Marshal(controlsocket.Command{Command: controlsocket.CmdDismiss, ID: id})
	if err != nil {
		return err
	}
	data = append(data, '\n')
	if _, err := conn.Write(data); err != nil {
		return err
	}

	line, err := bufio.NewReader(conn).ReadBytes('\n')
	if err != nil {
		return err
	}
	var resp controlsocket.Response
	if err := json.Unmarshal(line, &resp); err != nil {
		return err
	}
	if !resp.Success {
		return fmt.Errorf("%s", resp.Error)
	}
	return nil
}
