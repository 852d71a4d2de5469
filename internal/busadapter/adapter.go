// Package busadapter exports org.freedesktop.Notifications on the session
// bus and translates incoming D-Bus calls into model.Notification values
// for the lifecycle coordinator, and coordinator decisions back into the
// signals the spec requires.
package busadapter

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"

	"github.com/jmylchreest/swaynoti/internal/model"
)

const (
	busName       = "org.freedesktop.Notifications"
	objectPath    = "/org/freedesktop/Notifications"
	interfaceName = "org.freedesktop.Notifications"
)

// ServerInfo answers GetServerInformation.
type ServerInfo struct {
	Name        string
	Vendor      string
	Version     string
	SpecVersion string
}

// DefaultServerInfo returns the identity swaynotid advertises.
func DefaultServerInfo() ServerInfo {
	return ServerInfo{
		Name:        "swaynotid",
		Vendor:      "swaynoti",
		Version:     "0.1.0",
		SpecVersion: "1.2",
	}
}

// Capabilities lists the capabilities swaynotid advertises via
// GetCapabilities.
var Capabilities = []string{
	"actions",
	"action-icons",
	"body",
	"body-hyperlinks",
	"body-markup",
	"icon-static",
	"persistence",
	"inline-reply",
}

// Handler receives notifications translated from the wire and action
// callbacks from the adapter. The coordinator implements this interface;
// the adapter never decides lifecycle policy itself.
type Handler interface {
	// HandleNotify is called for every incoming Notify; it returns the id
	// to report back to the caller (new id, or the replaced id).
	HandleNotify(n *model.Notification) uint32
	// HandleCloseRequest is called for an explicit CloseNotification call.
	HandleCloseRequest(id uint32)
}

// Adapter owns the exported D-Bus object and connection.
type Adapter struct {
	conn    *dbus.Conn
	logger  *slog.Logger
	handler Handler
	info    ServerInfo

	mu      sync.Mutex
	running bool
}

// New builds an Adapter bound to handler. Call Start to connect and
// export the object.
func New(handler Handler, logger *slog.Logger) *Adapter {
	return &Adapter{handler: handler, logger: logger, info: DefaultServerInfo()}
}

// Start connects to the session bus, exports the notification object, and
// requests the well-known bus name.
func (a *Adapter) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.running {
		return nil
	}

	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return fmt.Errorf("connect to session bus: %w", err)
	}

	if err := conn.Export(notifierShim{a}, objectPath, interfaceName); err != nil {
		conn.Close()
		return fmt.Errorf("export notification object: %w", err)
	}

	node := &introspect.Node{
		Name: objectPath,
		Interfaces: []introspect.Interface{
			introspect.IntrospectData,
			{
				Name:    interfaceName,
				Methods: notificationMethods(),
				Signals: notificationSignals(),
			},
		},
	}
	if err := conn.Export(introspect.NewIntrospectable(node), objectPath, "org.freedesktop.DBus.Introspectable"); err != nil {
		conn.Close()
		return fmt.Errorf("export introspection: %w", err)
	}

	reply, err := conn.RequestName(busName, dbus.NameFlagDoNotQueue|dbus.NameFlagReplaceExisting)
	if err != nil {
		conn.Close()
		return fmt.Errorf("request bus name: %w", err)
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		conn.Close()
		return fmt.Errorf("bus name %s already owned by another notification daemon", busName)
	}

	a.conn = conn
	a.running = true
	a.logger.Info("busadapter started", "bus_name", busName)
	return nil
}

// Stop releases the bus name and closes the connection.
func (a *Adapter) Stop() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.running {
		return nil
	}
	a.running = false
	if a.conn == nil {
		return nil
	}
	_, _ = a.conn.ReleaseName(busName)
	return a.conn.Close()
}

// EmitNotificationClosed emits the NotificationClosed signal required
// whenever a notification leaves the live set, for any reason.
func (a *Adapter) EmitNotificationClosed(id uint32, reason CloseReason) error {
	return a.conn.Emit(objectPath, interfaceName+".NotificationClosed", id, uint32(reason))
}

// EmitActionInvoked emits the ActionInvoked signal.
func (a *Adapter) EmitActionInvoked(id uint32, actionKey string) error {
	return a.conn.Emit(objectPath, interfaceName+".ActionInvoked", id, actionKey)
}

// EmitNotificationReplied emits a non-standard NotificationReplied signal
// carrying an inline-reply payload. This extends beyond the freedesktop
// spec's two signals, resolving spec.md §9's open question in favor of a
// distinct signal rather than multiplexing the payload onto ActionInvoked.
func (a *Adapter) EmitNotificationReplied(id uint32, text string) error {
	return a.conn.Emit(objectPath, interfaceName+".NotificationReplied", id, text)
}

// CloseReason mirrors the freedesktop NotificationClosed reason codes.
type CloseReason uint32

const (
	CloseReasonExpired   CloseReason = 1
	CloseReasonDismissed CloseReason = 2
	CloseReasonClosed    CloseReason = 3
	CloseReasonUndefined CloseReason = 4
)

func (r CloseReason) String() string {
	switch r {
	case CloseReasonExpired:
		return "expired"
	case CloseReasonDismissed:
		return "dismissed"
	case CloseReasonClosed:
		return "closed"
	default:
		return "undefined"
	}
}

// notifierShim is the type actually exported on the bus; it exists so the
// exported method set matches exactly what godbus expects (value receiver,
// *dbus.Error return) without polluting Adapter's own API.
type notifierShim struct {
	a *Adapter
}

func (s notifierShim) Notify(appName string, replacesID uint32, appIcon, summary, body string,
	actions []string, hints map[string]dbus.Variant, expireTimeout int32) (uint32, *dbus.Error) {

	n := &model.Notification{
		AppName:       appName,
		ReplacesID:    replacesID,
		AppIcon:       appIcon,
		Summary:       summary,
		Body:          body,
		Actions:       model.ParseActions(actions),
		Hints:         parseHints(hints),
		ExpireTimeout: expireTimeout,
	}

	id := s.a.handler.HandleNotify(n)
	return id, nil
}

func (s notifierShim) CloseNotification(id uint32) *dbus.Error {
	s.a.handler.HandleCloseRequest(id)
	return nil
}

func (s notifierShim) GetCapabilities() ([]string, *dbus.Error) {
	return Capabilities, nil
}

func (s notifierShim) GetServerInformation() (string, string, string, string, *dbus.Error) {
	info := s.a.info
	return info.Name, info.Vendor, info.Version, info.SpecVersion, nil
}

func notificationMethods() []introspect.Method {
	return []introspect.Method{
		{
			Name: "Notify",
			Args: []introspect.Arg{
				{Name: "app_name", Type: "s", Direction: "in"},
				{Name: "replaces_id", Type: "u", Direction: "in"},
				{Name: "app_icon", Type: "s", Direction: "in"},
				{Name: "summary", Type: "s", Direction: "in"},
				{Name: "body", Type: "s", Direction: "in"},
				{Name: "actions", Type: "as", Direction: "in"},
				{Name: "hints", Type: "a{sv}", Direction: "in"},
				{Name: "expire_timeout", Type: "i", Direction: "in"},
				{Name: "id", Type: "u", Direction: "out"},
			},
		},
		{
			Name: "CloseNotification",
			Args: []introspect.Arg{
				{Name: "id", Type: "u", Direction: "in"},
			},
		},
		{
			Name: "GetCapabilities",
			Args: []introspect.Arg{
				{Name: "capabilities", Type: "as", Direction: "out"},
			},
		},
		{
			Name: "GetServerInformation",
			Args: []introspect.Arg{
				{Name: "name", Type: "s", Direction: "out"},
				{Name: "vendor", Type: "s", Direction: "out"},
				{Name: "version", Type: "s", Direction: "out"},
				{Name: "spec_version", Type: "s", Direction: "out"},
			},
		},
	}
}

func notificationSignals() []introspect.Signal {
	return []introspect.Signal{
		{
			Name: "NotificationClosed",
			Args: []introspect.Arg{
				{Name: "id", Type: "u", Direction: "out"},
				{Name: "reason", Type: "u", Direction: "out"},
			},
		},
		{
			Name: "ActionInvoked",
			Args: []introspect.Arg{
				{Name: "id", Type: "u", Direction: "out"},
				{Name: "action_key", Type: "s", Direction: "out"},
			},
		},
		{
			Name: "NotificationReplied",
			Args: []introspect.Arg{
				{Name: "id", Type: "u", Direction: "out"},
				{Name: "text", Type: "s", Direction: "out"},
			},
		},
	}
}
