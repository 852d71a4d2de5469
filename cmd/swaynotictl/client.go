// Package main implements swaynotictl, a thin cobra-based client for
// swaynotid's control socket.
package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"

	"github.com/jmylchreest/swaynoti/internal/controlsocket"
)

// client holds a single request/response round-trip over the control
// socket; one connection per invocation, matching swaynotictl's
// one-shot-command usage pattern.
type client struct {
	path string
}

func newClient(path string) *client {
	if path == "" {
		path = controlsocket.DefaultSocketPath()
	}
	return &client{path: path}
}

func (c *client) send(cmd controlsocket.Command) (controlsocket.Response, error) {
	conn, err := net.Dial("unix", c.path)
	if err != nil {
		return controlsocket.Response{}, fmt.Errorf("connect to %s: %w", c.path, err)
	}
	defer conn.Close()

	data, err := json.Marshal(cmd)
	if err != nil {
		return controlsocket.Response{}, fmt.Errorf("encode command: %w", err)
	}
	data = append(data, '\n')
	if _, err := conn.Write(data); err != nil {
		return controlsocket.Response{}, fmt.Errorf("write command: %w", err)
	}

	line, err := bufio.NewReader(conn).ReadBytes('\n')
	if err != nil {
		return controlsocket.Response{}, fmt.Errorf("read response: %w", err)
	}
	var resp controlsocket.Response
	if err := json.Unmarshal(line, &resp); err != nil {
		return controlsocket.Response{}, fmt.Errorf("decode response: %w", err)
	}
	if !resp.Success {
		return resp, fmt.Errorf("%s", resp.Error)
	}
	return resp, nil
}
