package busadapter

import (
	"fmt"
	"log/slog"

	"github.com/godbus/dbus/v5"

	"github.com/jmylchreest/swaynoti/internal/model"
)

// NotifyObserver is called for every Notify call seen by a Monitor.
type NotifyObserver func(n *model.Notification)

// Monitor passively observes org.freedesktop.Notifications traffic on the
// session bus without claiming the well-known name, so it can run
// alongside another notification daemon. It reuses the same hint-parsing
// code (parseHints) as the owning Adapter, so a notification observed
// this way carries exactly the same model.Notification shape.
type Monitor struct {
	logger   *slog.Logger
	observer NotifyObserver
	conn     *dbus.Conn
}

// NewMonitor builds a Monitor that invokes observer for every observed
// Notify call.
func NewMonitor(observer NotifyObserver, logger *slog.Logger) *Monitor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Monitor{observer: observer, logger: logger}
}

// Start connects to the session bus and begins eavesdropping on Notify
// calls. It first tries org.freedesktop.DBus.Monitoring.BecomeMonitor
// (modern dbus-daemon/dbus-broker), falling back to the older AddMatch
// eavesdrop='true' rule when that call is unavailable.
func (m *Monitor) Start() error {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return fmt.Errorf("connect to session bus: %w", err)
	}
	m.conn = conn

	rules := []string{"type='method_call',interface='" + interfaceName + "',member='Notify'"}
	err = conn.BusObject().Call("org.freedesktop.DBus.Monitoring.BecomeMonitor", 0, rules, uint32(0)).Err
	if err != nil {
		m.logger.Warn("BecomeMonitor unavailable, falling back to eavesdrop AddMatch", "error", err)
		matchRule := "type='method_call',interface='" + interfaceName + "',member='Notify',eavesdrop='true'"
		if err := conn.BusObject().Call("org.freedesktop.DBus.AddMatch", 0, matchRule).Err; err != nil {
			conn.Close()
			return fmt.Errorf("add eavesdrop match rule: %w", err)
		}
	}

	ch := make(chan *dbus.Message, 64)
	conn.Eavesdrop(ch)
	go m.process(ch)

	m.logger.Info("busadapter monitor started")
	return nil
}

// Stop closes the monitor's bus connection.
func (m *Monitor) Stop() error {
	if m.conn == nil {
		return nil
	}
	return m.conn.Close()
}

func (m *Monitor) process(ch <-chan *dbus.Message) {
	for msg := range ch {
		if msg.Type != dbus.TypeMethodCall {
			continue
		}
		if iface, _ := msg.Headers[dbus.FieldInterface].Value().(string); iface != interfaceName {
			continue
		}
		if member, _ := msg.Headers[dbus.FieldMember].Value().(string); member != "Notify" {
			continue
		}
		n, err := decodeNotifyBody(msg.Body)
		if err != nil {
			m.logger.Warn("discarding malformed Notify call", "error", err)
			continue
		}
		m.observer(n)
	}
}

func decodeNotifyBody(body []interface{}) (*model.Notification, error) {
	if len(body) < 8 {
		return nil, fmt.Errorf("expected 8 Notify arguments, got %d", len(body))
	}
	appName, ok := body[0].(string)
	if !ok {
		return nil, fmt.Errorf("app_name: unexpected type")
	}
	replacesID, ok := body[1].(uint32)
	if !ok {
		return nil, fmt.Errorf("replaces_id: unexpected type")
	}
	appIcon, ok := body[2].(string)
	if !ok {
		return nil, fmt.Errorf("app_icon: unexpected type")
	}
	summary, ok := body[3].(string)
	if !ok {
		return nil, fmt.Errorf("summary: unexpected type")
	}
	msgBody, ok := body[4].(string)
	if !ok {
		return nil, fmt.Errorf("body: unexpected type")
	}
	actions, ok := body[5].([]string)
	if !ok {
		return nil, fmt.Errorf("actions: unexpected type")
	}
	hints, ok := body[6].(map[string]dbus.Variant)
	if !ok {
		return nil, fmt.Errorf("hints: unexpected type")
	}
	expireTimeout, ok := body[7].(int32)
	if !ok {
		return nil, fmt.Errorf("expire_timeout: unexpected type")
	}

	return &model.Notification{
		AppName:       appName,
		ReplacesID:    replacesID,
		AppIcon:       appIcon,
		Summary:       summary,
		Body:          msgBody,
		Actions:       model.ParseActions(actions),
		Hints:         parseHints(hints),
		ExpireTimeout: expireTimeout,
	}, nil
}
