// Package controlsocket implements the newline-delimited JSON protocol
// exposed over a Unix domain socket for swaynotictl and other local
// clients: dismiss, toggle DnD, query the live notification count, and so on.
package controlsocket

import "encoding/json"

// Command is one request read from the socket. Tag selects which optional
// field(s) are meaningful, mirroring a JSON discriminated union.
type Command struct {
	Command string `json:"command"`
	ID      uint32 `json:"id,omitempty"`
	Action  string `json:"action,omitempty"`
}

// Known command names.
const (
	CmdDismiss          = "dismiss"
	CmdDismissAll       = "dismiss_all"
	CmdToggleDnD        = "toggle_dnd"
	CmdEnableDnD        = "enable_dnd"
	CmdDisableDnD       = "disable_dnd"
	CmdGetDnDStatus     = "get_dnd_status"
	CmdShowHistory      = "show_history"
	CmdHideHistory      = "hide_history"
	CmdGetCount         = "get_count"
	CmdReloadConfig     = "reload_config"
	CmdGetNotifications = "get_notifications"
	CmdInvokeAction     = "invoke_action"
)

// Response is written back as one JSON line per request.
type Response struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// Ok builds a successful response, optionally carrying data.
func Ok(data any) Response {
	resp := Response{Success: true}
	if data != nil {
		if raw, err := json.Marshal(data); err == nil {
			resp.Data = raw
		}
	}
	return resp
}

// Err builds a failure response.
func Err(msg string) Response {
	return Response{Success: false, Error: msg}
}
