// Package coordinator implements the lifecycle coordinator: the
// single-writer concurrency core described in spec.md §4.6. It owns the
// notification registry, drives expiry timers, fans out display events to
// the presenter and close/action signals to bus subscribers, and answers
// control-socket requests — all funneled through one goroutine's message
// loop so the active-notification set never needs a lock.
package coordinator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmylchreest/swaynoti/internal/allocator"
	"github.com/jmylchreest/swaynoti/internal/busadapter"
	"github.com/jmylchreest/swaynoti/internal/config"
	"github.com/jmylchreest/swaynoti/internal/controlsocket"
	"github.com/jmylchreest/swaynoti/internal/dndgate"
	"github.com/jmylchreest/swaynoti/internal/model"
	"github.com/jmylchreest/swaynoti/internal/presenter"
	"github.com/jmylchreest/swaynoti/internal/registry"
	"github.com/jmylchreest/swaynoti/internal/rules"
)

// HistoryStore is the subset of internal/history.Store the coordinator
// needs; a narrow interface so tests can supply a fake without touching
// SQLite. History writes are best-effort: a failure is logged and dropped.
type HistoryStore interface {
	Add(model.HistoryEntry) (int64, error)
	MarkDismissed(notificationID uint32) error
	MarkExpired(notificationID uint32) error
}

// BusSignals is the subset of internal/busadapter.Adapter the coordinator
// needs to publish lifecycle signals. *busadapter.Adapter satisfies this
// directly.
type BusSignals interface {
	EmitNotificationClosed(id uint32, reason busadapter.CloseReason) error
	EmitActionInvoked(id uint32, actionKey string) error
	EmitNotificationReplied(id uint32, text string) error
}

// SoundSink plays a notification sound. Sound is explicitly orthogonal per
// spec.md §1; the coordinator only ever computes which sound applies and
// calls this narrow interface, never touching audio APIs itself.
type SoundSink interface {
	Play(urgency int, soundFile, soundName string) error
}

// FocusSink forwards an application-focus request to the compositor.
// Orthogonal per spec.md §1.
type FocusSink interface {
	Focus(appName string) error
}

// noopSound and noopFocus let Coordinator run with collaborators left
// unset (e.g. in tests), matching spec.md's framing of both as optional
// external collaborators.
type noopSound struct{}

func (noopSound) Play(int, string, string) error { return nil }

type noopFocus struct{}

func (noopFocus) Focus(string) error { return nil }

// Coordinator is the lifecycle engine's single-writer core. Construct with
// New, then run it with Run on its own goroutine.
type Coordinator struct {
	logger *slog.Logger

	inbox chan message
	done  chan struct{}

	display chan presenter.DisplayEvent
	intents chan presenter.IntentEvent

	cfg *config.Snapshot

	reg    *registry.Registry
	alloc  *allocator.Allocator
	gate   *dndgate.Gate
	engine *rules.Engine
	hist   HistoryStore
	bus    BusSignals
	sound  SoundSink
	focus  FocusSink

	// epochs tracks the current expiry generation per live notification id,
	// independent of the model.Notification object's own lifetime so that
	// a replacement (a brand-new object reusing the id) still invalidates
	// timers armed against the old object. See spec.md §9 "Timer-vs-
	// replacement race".
	epochs map[uint32]uint64
}

// Option configures optional Coordinator collaborators.
type Option func(*Coordinator)

// WithSoundSink attaches a sound sink collaborator.
func WithSoundSink(s SoundSink) Option { return func(c *Coordinator) { c.sound = s } }

// WithFocusSink attaches a focus sink collaborator.
func WithFocusSink(f FocusSink) Option { return func(c *Coordinator) { c.focus = f } }

// SetBus wires the bus-signal collaborator in after construction, for
// callers that must build the bus adapter from the coordinator itself
// (the adapter's Handler is the coordinator, so the two can't be built in
// one breath). Must be called before Run.
func (c *Coordinator) SetBus(b BusSignals) { c.bus = b }

// New builds a Coordinator. hist and bus may be nil in tests that don't
// exercise persistence or signal emission; production callers always
// supply both.
func New(cfg *config.Snapshot, gate *dndgate.Gate, hist HistoryStore, bus BusSignals, logger *slog.Logger, opts ...Option) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Coordinator{
		logger:  logger,
		inbox:   make(chan message, 256),
		done:    make(chan struct{}),
		display: make(chan presenter.DisplayEvent, presenter.DisplayChanSize),
		intents: make(chan presenter.IntentEvent, 64),
		cfg:     cfg,
		reg:     registry.New(registry.ParseSortOrder(cfg.Behavior.SortOrder)),
		alloc:   allocator.New(),
		gate:    gate,
		engine:  rules.New(cfg.Rules),
		hist:    hist,
		bus:     bus,
		sound:   noopSound{},
		focus:   noopFocus{},
		epochs:  make(map[uint32]uint64),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// DisplayEvents returns the channel the presenter reads from.
func (c *Coordinator) DisplayEvents() <-chan presenter.DisplayEvent { return c.display }

// IntentSink returns the channel a presenter writes IntentEvents to.
func (c *Coordinator) IntentSink() chan<- presenter.IntentEvent { return c.intents }

// Run drives the coordinator's message loop until ctx is cancelled or
// Shutdown is processed. It also pumps the intents channel, translating
// presenter-reported events into coordinator messages, so both producers
// feed the same single-writer loop.
func (c *Coordinator) Run(ctx context.Context) error {
	go c.pumpIntents(ctx)

	for {
		select {
		case <-ctx.Done():
			c.shutdown()
			return ctx.Err()
		case msg := <-c.inbox:
			if shouldStop := c.handle(msg); shouldStop {
				return nil
			}
		}
	}
}

func (c *Coordinator) pumpIntents(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-c.intents:
			c.translateIntent(ev)
		}
	}
}

func (c *Coordinator) translateIntent(ev presenter.IntentEvent) {
	switch e := ev.(type) {
	case presenter.Dismissed:
		c.post(msgCloseByID{id: e.ID, reason: busadapter.CloseReasonDismissed})
	case presenter.ActionInvoked:
		c.post(msgInvokeAction{id: e.ID, key: e.Key})
	case presenter.DefaultAction:
		c.post(msgInvokeAction{id: e.ID, key: "default"})
	case presenter.Hovered:
		c.post(msgSetHovered{id: e.ID, hovered: true})
	case presenter.Unhovered:
		c.post(msgSetHovered{id: e.ID, hovered: false})
	case presenter.InlineReply:
		c.post(msgInvokeAction{id: e.ID, key: "inline-reply", payload: e.Text})
	case presenter.FocusApp:
		if err := c.focus.Focus(e.AppName); err != nil {
			c.logger.Warn("focus sink failed", "app", e.AppName, "error", err)
		}
	}
}

// post enqueues msg, never blocking past the inbox's buffer under normal
// load. It is safe to call concurrently from any goroutine.
func (c *Coordinator) post(msg message) {
	select {
	case c.inbox <- msg:
	case <-c.done:
	}
}

// --- busadapter.Handler ---

// HandleNotify implements busadapter.Handler. It runs on the bus library's
// own method-call goroutine, posts a Submit message, and blocks for the
// assigned id — exactly the "awaitable boundary" spec.md §5 describes.
func (c *Coordinator) HandleNotify(n *model.Notification) uint32 {
	reply := make(chan uint32, 1)
	c.post(msgSubmit{notification: n, reply: reply})
	select {
	case id := <-reply:
		return id
	case <-c.done:
		return 0
	}
}

// HandleCloseRequest implements busadapter.Handler for an explicit
// CloseNotification bus call.
func (c *Coordinator) HandleCloseRequest(id uint32) {
	c.post(msgCloseByID{id: id, reason: busadapter.CloseReasonClosed})
}

// --- controlsocket.Dispatcher ---

// Dispatch implements controlsocket.Dispatcher, translating each socket
// command into coordinator messages and waiting for the reply where one is
// needed.
func (c *Coordinator) Dispatch(cmd controlsocket.Command) controlsocket.Response {
	switch cmd.Command {
	case controlsocket.CmdDismiss:
		c.post(msgCloseByID{id: cmd.ID, reason: busadapter.CloseReasonDismissed})
		return controlsocket.Ok(nil)

	case controlsocket.CmdDismissAll:
		for _, id := range c.queryVisibleIDs() {
			c.post(msgCloseByID{id: id, reason: busadapter.CloseReasonDismissed})
		}
		return controlsocket.Ok(nil)

	case controlsocket.CmdToggleDnD:
		return controlsocket.Ok(c.gate.Toggle())

	case controlsocket.CmdEnableDnD:
		c.gate.Enable()
		return controlsocket.Ok(nil)

	case controlsocket.CmdDisableDnD:
		c.gate.Disable()
		return controlsocket.Ok(nil)

	case controlsocket.CmdGetDnDStatus:
		return controlsocket.Ok(c.gate.Enabled())

	case controlsocket.CmdShowHistory:
		select {
		case c.display <- presenter.ShowCenter{}:
		case <-c.done:
		}
		return controlsocket.Ok(nil)

	case controlsocket.CmdHideHistory:
		select {
		case c.display <- presenter.HideCenter{}:
		case <-c.done:
		}
		return controlsocket.Ok(nil)

	case controlsocket.CmdGetCount:
		return controlsocket.Ok(c.queryCount())

	case controlsocket.CmdReloadConfig:
		return controlsocket.Ok(nil)

	case controlsocket.CmdGetNotifications:
		return controlsocket.Ok(summarize(c.queryVisible()))

	case controlsocket.CmdInvokeAction:
		c.post(msgInvokeAction{id: cmd.ID, key: cmd.Action})
		return controlsocket.Ok(nil)

	default:
		return controlsocket.Err(fmt.Sprintf("unknown command %q", cmd.Command))
	}
}

// notificationSummary is the shape get_notifications reports per spec.md §6.
type notificationSummary struct {
	ID      uint32 `json:"id"`
	App     string `json:"app"`
	Summary string `json:"summary"`
	Urgency string `json:"urgency"`
}

func summarize(ns []*model.Notification) []notificationSummary {
	out := make([]notificationSummary, 0, len(ns))
	for _, n := range ns {
		out = append(out, notificationSummary{
			ID:      n.ID,
			App:     n.AppName,
			Summary: n.Summary,
			Urgency: model.UrgencyNames[n.Hints.Urgency],
		})
	}
	return out
}

func (c *Coordinator) queryVisible() []*model.Notification {
	reply := make(chan []*model.Notification, 1)
	c.post(msgVisibleQuery{reply: reply})
	select {
	case ns := <-reply:
		return ns
	case <-c.done:
		return nil
	}
}

func (c *Coordinator) queryVisibleIDs() []uint32 {
	ns := c.queryVisible()
	ids := make([]uint32, len(ns))
	for i, n := range ns {
		ids[i] = n.ID
	}
	return ids
}

func (c *Coordinator) queryCount() int {
	reply := make(chan int, 1)
	c.post(msgCountQuery{reply: reply})
	select {
	case n := <-reply:
		return n
	case <-c.done:
		return 0
	}
}

// ReloadConfig swaps the configuration snapshot atomically from the
// caller's goroutine (e.g. the config-file watcher).
func (c *Coordinator) ReloadConfig(snap *config.Snapshot) {
	c.post(msgReloadConfig{snapshot: snap})
}

// NotifyDndChanged lets an external DnD-state observer (e.g. the
// scheduler) tell the coordinator the gate flipped outside a dispatched
// command.
func (c *Coordinator) NotifyDndChanged() {
	c.post(msgDndChanged{})
}

// Shutdown requests an orderly stop and blocks until it completes or ctx
// is cancelled first.
func (c *Coordinator) Shutdown(ctx context.Context) {
	done := make(chan struct{})
	c.post(msgShutdown{done: done})
	select {
	case <-done:
	case <-ctx.Done():
	}
}

// handle dispatches one message on the coordinator's own goroutine.
// Returns true when the loop should stop (Shutdown processed).
func (c *Coordinator) handle(msg message) bool {
	switch m := msg.(type) {
	case msgSubmit:
		id := c.handleSubmit(m.notification)
		m.reply <- id
	case msgCloseByID:
		c.handleClose(m.id, m.reason)
	case msgInvokeAction:
		c.handleInvokeAction(m.id, m.key, m.payload)
	case msgSetHovered:
		c.handleSetHovered(m.id, m.hovered)
	case msgExpiryTick:
		c.handleExpiryTick(m.id, m.epoch)
	case msgVisibleQuery:
		m.reply <- c.reg.Visible(c.cfg.Behavior.MaxVisible)
	case msgCountQuery:
		m.reply <- c.reg.Count()
	case msgDndChanged:
		c.logger.Debug("dnd state changed")
	case msgReloadConfig:
		c.handleReloadConfig(m.snapshot)
	case msgShutdown:
		c.shutdown()
		close(m.done)
		return true
	}
	return false
}

func (c *Coordinator) shutdown() {
	select {
	case <-c.done:
	default:
		close(c.done)
	}
}

// handleSubmit implements the canonical Submit path of spec.md §4.6.
func (c *Coordinator) handleSubmit(n *model.Notification) uint32 {
	// 1. Apply matching rule before timeout resolution.
	outcome := c.engine.Match(n)
	outcome.Apply(n)

	// 2. Resolve id: reuse a live replaces_id, else allocate.
	isReplacement := n.ReplacesID != 0 && c.reg.Has(n.ReplacesID)
	if isReplacement {
		n.ID = n.ReplacesID
	} else {
		n.ID = c.alloc.Next()
	}
	n.CreatedAt = time.Now()

	// 3-4. Resolve effective timeout and expires_at.
	timeout := c.resolveTimeout(n)
	n.ResolvedTimeout = timeout
	if timeout > 0 {
		n.ExpiresAt = n.CreatedAt.Add(timeout)
	}

	persist := !n.Hints.Transient && !outcome.SkipHistory

	// 5. Consult the DnD gate. Gated notifications are accepted (id
	// returned, optionally persisted) but never surface or arm a timer.
	if c.gate.ShouldSuppress(n.Hints.Urgency, c.cfg.Behavior.CriticalWakes) {
		if persist {
			c.writeHistory(n)
		}
		c.logger.Debug("notification suppressed by dnd", "id", n.ID, "app", n.AppName)
		return n.ID
	}

	// 6. Insert or replace in the registry; emit Show or Update unless the
	// matched rule suppresses the presenter entirely.
	if isReplacement {
		c.reg.Replace(n)
		if !outcome.SkipDisplay {
			c.sendDisplay(n.ID, presenter.Update{ID: n.ID, Notification: n.Clone()})
		}
	} else {
		c.reg.Insert(n)
		if !outcome.SkipDisplay {
			c.sendDisplay(n.ID, presenter.Show{Notification: n.Clone()})
		}
	}

	// 7. Persist to history if non-transient.
	if persist {
		c.writeHistory(n)
	}

	// Sound: orthogonal collaborator, skipped under a rule's skip_sound or
	// the hint's suppress_sound.
	if !outcome.SkipSound && !n.Hints.SuppressSound {
		go func(urgency int, file, name string) {
			if err := c.sound.Play(urgency, file, name); err != nil {
				c.logger.Debug("sound sink failed", "error", err)
			}
		}(n.Hints.Urgency, n.Hints.SoundFile, n.Hints.SoundName)
	}

	// 8. Arm the expiry timer under a fresh epoch, invalidating any tick
	// scheduled for this id by a prior notification at the same id.
	if n.HasExpiry() {
		c.armExpiry(n.ID, timeout)
	} else {
		c.epochs[n.ID]++
	}

	return n.ID
}

func (c *Coordinator) resolveTimeout(n *model.Notification) time.Duration {
	switch {
	case n.ExpireTimeout == 0:
		return 0
	case n.ExpireTimeout > 0:
		return time.Duration(n.ExpireTimeout) * time.Millisecond
	default:
		return time.Duration(c.cfg.GetTimeoutForUrgency(n.Hints.Urgency)) * time.Millisecond
	}
}

func (c *Coordinator) armExpiry(id uint32, after time.Duration) {
	epoch := c.epochs[id] + 1
	c.epochs[id] = epoch
	time.AfterFunc(after, func() {
		c.post(msgExpiryTick{id: id, epoch: epoch})
	})
}

func (c *Coordinator) writeHistory(n *model.Notification) {
	if c.hist == nil {
		return
	}
	entry, err := model.NewHistoryEntry(n)
	if err != nil {
		c.logger.Warn("skipping malformed history entry", "id", n.ID, "error", err)
		return
	}
	if _, err := c.hist.Add(entry); err != nil {
		c.logger.Warn("history write failed", "id", n.ID, "error", err)
	}
}

// sendDisplay implements the bounded-channel, drop-oldest-same-id
// back-pressure policy: if the channel is full, the previously pending
// event for the same id is superseded in place rather than blocking.
func (c *Coordinator) sendDisplay(id uint32, ev presenter.DisplayEvent) {
	select {
	case c.display <- ev:
		return
	default:
	}
	// Channel full: drop this id's previously queued event (if any) by
	// draining and resending everything except it, then push the new one.
	c.logger.Debug("presenter channel full, applying drop-oldest-same-id", "id", id)
	buffered := make([]presenter.DisplayEvent, 0, presenter.DisplayChanSize)
drain:
	for {
		select {
		case old := <-c.display:
			if displayEventID(old) != id {
				buffered = append(buffered, old)
			}
		default:
			break drain
		}
	}
	for _, old := range buffered {
		select {
		case c.display <- old:
		default:
		}
	}
	select {
	case c.display <- ev:
	default:
		c.logger.Warn("presenter channel still full after drop-oldest-same-id; dropping event", "id", id)
	}
}

func displayEventID(ev presenter.DisplayEvent) uint32 {
	switch e := ev.(type) {
	case presenter.Show:
		return e.Notification.ID
	case presenter.Update:
		return e.ID
	case presenter.Close:
		return e.ID
	default:
		return 0
	}
}

// handleClose implements "Close (any path)" from spec.md §4.6: remove from
// the registry, mark history, emit the presenter close, and publish the
// bus signal exactly once.
func (c *Coordinator) handleClose(id uint32, reason busadapter.CloseReason) {
	if !c.reg.Has(id) {
		return // unknown id: state error, silently no-op per spec.md §7
	}
	c.reg.Remove(id)
	delete(c.epochs, id)

	if c.hist != nil {
		var err error
		switch reason {
		case busadapter.CloseReasonExpired:
			err = c.hist.MarkExpired(id)
		default:
			err = c.hist.MarkDismissed(id)
		}
		if err != nil {
			c.logger.Warn("history mark failed", "id", id, "reason", reason, "error", err)
		}
	}

	c.sendDisplay(id, presenter.Close{ID: id})

	if c.bus != nil {
		if err := c.bus.EmitNotificationClosed(id, reason); err != nil {
			c.logger.Warn("failed to emit NotificationClosed", "id", id, "error", err)
		}
	}
}

// handleInvokeAction implements spec.md §4.6 "Action invocation".
func (c *Coordinator) handleInvokeAction(id uint32, key, payload string) {
	n := c.reg.Get(id)
	if n == nil {
		return // unknown id: no-op per spec.md §7
	}
	if key != "default" && !n.HasAction(key) {
		return
	}

	if key == "inline-reply" && c.bus != nil {
		if err := c.bus.EmitNotificationReplied(id, payload); err != nil {
			c.logger.Warn("failed to emit NotificationReplied", "id", id, "error", err)
		}
	}

	if c.bus != nil {
		if err := c.bus.EmitActionInvoked(id, key); err != nil {
			c.logger.Warn("failed to emit ActionInvoked", "id", id, "error", err)
		}
	}

	if !n.Hints.Resident {
		c.handleClose(id, busadapter.CloseReasonDismissed)
	}
}

// handleSetHovered implements hover-freeze/resume (spec.md §4.2, §4.6,
// §9). Hovering suspends expiry; unhovering recomputes expires_at from the
// unhover instant using the notification's originally resolved timeout.
func (c *Coordinator) handleSetHovered(id uint32, hovered bool) {
	n := c.reg.Get(id)
	if n == nil {
		return
	}
	n.IsHovered = hovered
	if !c.cfg.Behavior.PauseOnHover || hovered || n.ResolvedTimeout <= 0 {
		return
	}
	n.ExpiresAt = time.Now().Add(n.ResolvedTimeout)
	c.armExpiry(id, n.ResolvedTimeout)
}

// handleExpiryTick implements spec.md §4.6 "Expiry": a stale epoch or a
// currently-hovered notification re-arms instead of closing.
func (c *Coordinator) handleExpiryTick(id uint32, epoch uint64) {
	n := c.reg.Get(id)
	if n == nil {
		return // already closed by another path; tick is moot
	}
	if c.epochs[id] != epoch {
		return // superseded by replacement, close, or an unhover recompute
	}
	if n.IsHovered && c.cfg.Behavior.PauseOnHover {
		// Short back-off until unhover, per spec.md §4.6.
		const hoverBackoff = 500 * time.Millisecond
		c.epochs[id] = epoch + 1
		nextEpoch := c.epochs[id]
		time.AfterFunc(hoverBackoff, func() {
			c.post(msgExpiryTick{id: id, epoch: nextEpoch})
		})
		return
	}
	c.handleClose(id, busadapter.CloseReasonExpired)
}

// handleReloadConfig swaps the rule engine and timeout/behavior config.
// Existing registry order and in-flight timers are left untouched; only
// future Submits see the new snapshot (spec.md §9).
func (c *Coordinator) handleReloadConfig(snap *config.Snapshot) {
	c.cfg = snap
	c.engine = rules.New(snap.Rules)
	c.reg.SetSortOrder(registry.ParseSortOrder(snap.Behavior.SortOrder))
	c.logger.Info("configuration reloaded")
}
