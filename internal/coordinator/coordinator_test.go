package coordinator

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/swaynoti/internal/busadapter"
	"github.com/jmylchreest/swaynoti/internal/config"
	"github.com/jmylchreest/swaynoti/internal/controlsocket"
	"github.com/jmylchreest/swaynoti/internal/dndgate"
	"github.com/jmylchreest/swaynoti/internal/model"
	"github.com/jmylchreest/swaynoti/internal/presenter"
)

// fakeHistory is an in-memory HistoryStore recording every call, so tests
// can assert persistence decisions without touching SQLite.
type fakeHistory struct {
	mu        sync.Mutex
	added     []model.HistoryEntry
	dismissed []uint32
	expired   []uint32
}

func (f *fakeHistory) Add(e model.HistoryEntry) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.added = append(f.added, e)
	return int64(len(f.added)), nil
}

func (f *fakeHistory) MarkDismissed(id uint32) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dismissed = append(f.dismissed, id)
	return nil
}

func (f *fakeHistory) MarkExpired(id uint32) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.expired = append(f.expired, id)
	return nil
}

// fakeBus records every signal emission in order.
type fakeBus struct {
	mu      sync.Mutex
	closed  []uint32
	reasons []busadapter.CloseReason
	actions []string
	replies []string
}

func (f *fakeBus) EmitNotificationClosed(id uint32, reason busadapter.CloseReason) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = append(f.closed, id)
	f.reasons = append(f.reasons, reason)
	return nil
}

func (f *fakeBus) EmitActionInvoked(id uint32, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.actions = append(f.actions, key)
	return nil
}

func (f *fakeBus) EmitNotificationReplied(id uint32, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replies = append(f.replies, text)
	return nil
}

// fakeSound records play requests and always succeeds.
type fakeSound struct {
	mu     sync.Mutex
	played []int
}

func (f *fakeSound) Play(urgency int, _, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.played = append(f.played, urgency)
	return nil
}

func newTestCoordinator(t *testing.T, cfg *config.Snapshot) (*Coordinator, *fakeHistory, *fakeBus, context.CancelFunc) {
	t.Helper()
	if cfg == nil {
		cfg = config.DefaultSnapshot()
	}
	hist := &fakeHistory{}
	bus := &fakeBus{}
	gate := dndgate.New(cfg.DnD.Enabled)
	c := New(cfg, gate, hist, bus, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		c.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("coordinator did not shut down")
		}
	})
	return c, hist, bus, cancel
}

func basicNotification(app, summary string) *model.Notification {
	return &model.Notification{
		AppName:       app,
		Summary:       summary,
		ExpireTimeout: -1,
	}
}

func drainShow(t *testing.T, c *Coordinator) presenter.DisplayEvent {
	t.Helper()
	select {
	case ev := <-c.DisplayEvents():
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for display event")
		return nil
	}
}

func TestHandleNotify_AssignsNonZeroID(t *testing.T) {
	c, _, _, _ := newTestCoordinator(t, nil)
	id := c.HandleNotify(basicNotification("firefox", "hello"))
	assert.NotZero(t, id)

	ev := drainShow(t, c)
	show, ok := ev.(presenter.Show)
	require.True(t, ok)
	assert.Equal(t, id, show.Notification.ID)
}

func TestHandleNotify_ReplacementReusesID(t *testing.T) {
	c, _, _, _ := newTestCoordinator(t, nil)
	id := c.HandleNotify(basicNotification("firefox", "first"))
	drainShow(t, c)

	replacement := basicNotification("firefox", "second")
	replacement.ReplacesID = id
	newID := c.HandleNotify(replacement)
	assert.Equal(t, id, newID)

	ev := drainShow(t, c)
	upd, ok := ev.(presenter.Update)
	require.True(t, ok)
	assert.Equal(t, id, upd.ID)
	assert.Equal(t, "second", upd.Notification.Summary)
}

func TestHandleNotify_PersistsNonTransientToHistory(t *testing.T) {
	c, hist, _, _ := newTestCoordinator(t, nil)
	c.HandleNotify(basicNotification("firefox", "hello"))
	drainShow(t, c)

	hist.mu.Lock()
	defer hist.mu.Unlock()
	require.Len(t, hist.added, 1)
	assert.Equal(t, "firefox", hist.added[0].AppName)
}

func TestHandleNotify_TransientSkipsHistory(t *testing.T) {
	c, hist, _, _ := newTestCoordinator(t, nil)
	n := basicNotification("firefox", "hello")
	n.Hints.Transient = true
	c.HandleNotify(n)
	drainShow(t, c)

	hist.mu.Lock()
	defer hist.mu.Unlock()
	assert.Empty(t, hist.added)
}

func TestHandleNotify_DndSuppressesDisplayButStillPersists(t *testing.T) {
	cfg := config.DefaultSnapshot()
	cfg.DnD.Enabled = true
	c, hist, _, _ := newTestCoordinator(t, cfg)

	id := c.HandleNotify(basicNotification("firefox", "hello"))
	assert.NotZero(t, id)

	select {
	case ev := <-c.DisplayEvents():
		t.Fatalf("expected no display event while DnD suppresses, got %#v", ev)
	case <-time.After(100 * time.Millisecond):
	}

	hist.mu.Lock()
	defer hist.mu.Unlock()
	require.Len(t, hist.added, 1)
}

func TestHandleNotify_CriticalBypassesDndWhenConfigured(t *testing.T) {
	cfg := config.DefaultSnapshot()
	cfg.DnD.Enabled = true
	cfg.Behavior.CriticalWakes = true
	c, _, _, _ := newTestCoordinator(t, cfg)

	n := basicNotification("firefox", "urgent")
	n.Hints.Urgency = model.UrgencyCritical
	c.HandleNotify(n)

	ev := drainShow(t, c)
	_, ok := ev.(presenter.Show)
	assert.True(t, ok, "critical notification should surface despite dnd")
}

func TestDispatch_DismissClosesAndEmitsSignal(t *testing.T) {
	c, hist, bus, _ := newTestCoordinator(t, nil)
	id := c.HandleNotify(basicNotification("firefox", "hello"))
	drainShow(t, c)

	resp := c.Dispatch(controlsocket.Command{Command: controlsocket.CmdDismiss, ID: id})
	assert.True(t, resp.Success)

	ev := drainShow(t, c)
	closeEv, ok := ev.(presenter.Close)
	require.True(t, ok)
	assert.Equal(t, id, closeEv.ID)

	require.Eventually(t, func() bool {
		bus.mu.Lock()
		defer bus.mu.Unlock()
		return len(bus.closed) == 1
	}, time.Second, 10*time.Millisecond)

	bus.mu.Lock()
	assert.Equal(t, id, bus.closed[0])
	assert.Equal(t, busadapter.CloseReasonDismissed, bus.reasons[0])
	bus.mu.Unlock()

	require.Eventually(t, func() bool {
		hist.mu.Lock()
		defer hist.mu.Unlock()
		return len(hist.dismissed) == 1
	}, time.Second, 10*time.Millisecond)
}

func TestDispatch_UnknownIDIsNoop(t *testing.T) {
	c, _, bus, _ := newTestCoordinator(t, nil)
	resp := c.Dispatch(controlsocket.Command{Command: controlsocket.CmdDismiss, ID: 9999})
	assert.True(t, resp.Success)

	time.Sleep(50 * time.Millisecond)
	bus.mu.Lock()
	defer bus.mu.Unlock()
	assert.Empty(t, bus.closed)
}

func TestDispatch_DismissAllClosesEveryVisible(t *testing.T) {
	c, _, _, _ := newTestCoordinator(t, nil)
	id1 := c.HandleNotify(basicNotification("firefox", "one"))
	drainShow(t, c)
	id2 := c.HandleNotify(basicNotification("slack", "two"))
	drainShow(t, c)

	c.Dispatch(controlsocket.Command{Command: controlsocket.CmdDismissAll})

	seen := map[uint32]bool{}
	for i := 0; i < 2; i++ {
		ev := drainShow(t, c)
		if closeEv, ok := ev.(presenter.Close); ok {
			seen[closeEv.ID] = true
		}
	}
	assert.True(t, seen[id1])
	assert.True(t, seen[id2])
}

func TestDispatch_ToggleAndGetDnDStatus(t *testing.T) {
	c, _, _, _ := newTestCoordinator(t, nil)

	resp := c.Dispatch(controlsocket.Command{Command: controlsocket.CmdToggleDnD})
	assert.True(t, resp.Success)

	resp = c.Dispatch(controlsocket.Command{Command: controlsocket.CmdGetDnDStatus})
	assert.True(t, resp.Success)
	assert.JSONEq(t, "true", string(resp.Data))
}

func TestDispatch_GetCount(t *testing.T) {
	c, _, _, _ := newTestCoordinator(t, nil)
	c.HandleNotify(basicNotification("firefox", "one"))
	drainShow(t, c)

	resp := c.Dispatch(controlsocket.Command{Command: controlsocket.CmdGetCount})
	assert.True(t, resp.Success)
	assert.JSONEq(t, "1", string(resp.Data))
}

func TestHandleInvokeAction_ClosesUnlessResident(t *testing.T) {
	c, _, bus, _ := newTestCoordinator(t, nil)
	n := basicNotification("firefox", "hello")
	n.Actions = []model.Action{{Key: "open", Label: "Open"}}
	id := c.HandleNotify(n)
	drainShow(t, c)

	c.Dispatch(controlsocket.Command{Command: controlsocket.CmdInvokeAction, ID: id, Action: "open"})

	ev := drainShow(t, c)
	_, ok := ev.(presenter.Close)
	assert.True(t, ok)

	require.Eventually(t, func() bool {
		bus.mu.Lock()
		defer bus.mu.Unlock()
		return len(bus.actions) == 1
	}, time.Second, 10*time.Millisecond)
}

func TestHandleInvokeAction_ResidentStaysOpen(t *testing.T) {
	c, _, _, _ := newTestCoordinator(t, nil)
	n := basicNotification("firefox", "hello")
	n.Actions = []model.Action{{Key: "open", Label: "Open"}}
	n.Hints.Resident = true
	id := c.HandleNotify(n)
	drainShow(t, c)

	c.Dispatch(controlsocket.Command{Command: controlsocket.CmdInvokeAction, ID: id, Action: "open"})

	select {
	case ev := <-c.DisplayEvents():
		t.Fatalf("resident notification should not close, got %#v", ev)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestHandleInvokeAction_UnknownKeyIsNoop(t *testing.T) {
	c, _, bus, _ := newTestCoordinator(t, nil)
	id := c.HandleNotify(basicNotification("firefox", "hello"))
	drainShow(t, c)

	c.Dispatch(controlsocket.Command{Command: controlsocket.CmdInvokeAction, ID: id, Action: "does-not-exist"})

	time.Sleep(50 * time.Millisecond)
	bus.mu.Lock()
	defer bus.mu.Unlock()
	assert.Empty(t, bus.actions)
}

func TestHandleInvokeAction_InlineReplyEmitsRepliedSignal(t *testing.T) {
	c, _, bus, _ := newTestCoordinator(t, nil)
	n := basicNotification("firefox", "hello")
	n.Hints.InlineReply = true
	n.Actions = []model.Action{{Key: "inline-reply", Label: "Reply"}}
	id := c.HandleNotify(n)
	drainShow(t, c)

	c.post(msgInvokeAction{id: id, key: "inline-reply", payload: "sounds good"})

	require.Eventually(t, func() bool {
		bus.mu.Lock()
		defer bus.mu.Unlock()
		return len(bus.replies) == 1
	}, time.Second, 10*time.Millisecond)

	bus.mu.Lock()
	assert.Equal(t, "sounds good", bus.replies[0])
	bus.mu.Unlock()
}

func TestExpiry_ClosesAfterTimeout(t *testing.T) {
	cfg := config.DefaultSnapshot()
	cfg.Timeouts.Normal = config.Duration(30 * time.Millisecond)
	c, hist, bus, _ := newTestCoordinator(t, cfg)

	id := c.HandleNotify(basicNotification("firefox", "hello"))
	drainShow(t, c)

	ev := drainShow(t, c)
	closeEv, ok := ev.(presenter.Close)
	require.True(t, ok)
	assert.Equal(t, id, closeEv.ID)

	require.Eventually(t, func() bool {
		bus.mu.Lock()
		defer bus.mu.Unlock()
		return len(bus.reasons) == 1
	}, time.Second, 10*time.Millisecond)
	bus.mu.Lock()
	assert.Equal(t, busadapter.CloseReasonExpired, bus.reasons[0])
	bus.mu.Unlock()

	require.Eventually(t, func() bool {
		hist.mu.Lock()
		defer hist.mu.Unlock()
		return len(hist.expired) == 1
	}, time.Second, 10*time.Millisecond)
}

func TestExpiry_ZeroTimeoutNeverExpires(t *testing.T) {
	cfg := config.DefaultSnapshot()
	cfg.Timeouts.Normal = config.Duration(20 * time.Millisecond)
	c, _, _, _ := newTestCoordinator(t, cfg)

	n := basicNotification("firefox", "hello")
	n.ExpireTimeout = 0
	c.HandleNotify(n)
	drainShow(t, c)

	select {
	case ev := <-c.DisplayEvents():
		t.Fatalf("expire_timeout=0 must never expire, got %#v", ev)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestExpiry_ReplacementInvalidatesOldTimer(t *testing.T) {
	cfg := config.DefaultSnapshot()
	cfg.Timeouts.Normal = config.Duration(30 * time.Millisecond)
	c, _, _, _ := newTestCoordinator(t, cfg)

	id := c.HandleNotify(basicNotification("firefox", "first"))
	drainShow(t, c)

	replacement := basicNotification("firefox", "second")
	replacement.ReplacesID = id
	replacement.ExpireTimeout = 0 // never expires
	c.HandleNotify(replacement)
	drainShow(t, c)

	// The old 30ms timer must not close the replaced (never-expiring) entry.
	select {
	case ev := <-c.DisplayEvents():
		t.Fatalf("stale timer fired against replacement, got %#v", ev)
	case <-time.After(80 * time.Millisecond):
	}
}

func TestHover_PausesExpiryWhenConfigured(t *testing.T) {
	cfg := config.DefaultSnapshot()
	cfg.Timeouts.Normal = config.Duration(40 * time.Millisecond)
	cfg.Behavior.PauseOnHover = true
	c, _, _, _ := newTestCoordinator(t, cfg)

	id := c.HandleNotify(basicNotification("firefox", "hello"))
	drainShow(t, c)

	c.IntentSink() <- presenter.Hovered{ID: id}
	time.Sleep(10 * time.Millisecond)

	// Expiry should not have fired while hovered, well past the 40ms window.
	select {
	case ev := <-c.DisplayEvents():
		t.Fatalf("hovered notification expired, got %#v", ev)
	case <-time.After(80 * time.Millisecond):
	}

	c.IntentSink() <- presenter.Unhovered{ID: id}
	ev := drainShow(t, c)
	closeEv, ok := ev.(presenter.Close)
	require.True(t, ok)
	assert.Equal(t, id, closeEv.ID)
}

func TestHover_IgnoredWhenPauseOnHoverDisabled(t *testing.T) {
	cfg := config.DefaultSnapshot()
	cfg.Timeouts.Normal = config.Duration(30 * time.Millisecond)
	cfg.Behavior.PauseOnHover = false
	c, _, _, _ := newTestCoordinator(t, cfg)

	id := c.HandleNotify(basicNotification("firefox", "hello"))
	drainShow(t, c)

	c.IntentSink() <- presenter.Hovered{ID: id}

	ev := drainShow(t, c)
	closeEv, ok := ev.(presenter.Close)
	require.True(t, ok)
	assert.Equal(t, id, closeEv.ID)
}

func TestRuleEngine_SkipHistoryAndSkipSound(t *testing.T) {
	cfg := config.DefaultSnapshot()
	cfg.Rules = []config.AppRule{
		{Name: "quiet-slack", MatchAppName: "slack", SkipHistory: true, SkipSound: true},
	}
	c, hist, _, _ := newTestCoordinator(t, cfg)
	sound := &fakeSound{}
	c.sound = sound

	c.HandleNotify(basicNotification("slack", "ping"))
	drainShow(t, c)

	time.Sleep(30 * time.Millisecond)
	hist.mu.Lock()
	assert.Empty(t, hist.added)
	hist.mu.Unlock()

	sound.mu.Lock()
	assert.Empty(t, sound.played)
	sound.mu.Unlock()
}

func TestRuleEngine_SkipDisplaySuppressesPresenterOnly(t *testing.T) {
	cfg := config.DefaultSnapshot()
	cfg.Rules = []config.AppRule{
		{Name: "silent-badge", MatchAppName: "backup-tool", SkipDisplay: true},
	}
	c, hist, _, _ := newTestCoordinator(t, cfg)

	id := c.HandleNotify(basicNotification("backup-tool", "done"))
	assert.NotZero(t, id)

	select {
	case ev := <-c.DisplayEvents():
		t.Fatalf("skip_display rule should suppress the presenter, got %#v", ev)
	case <-time.After(80 * time.Millisecond):
	}

	require.Eventually(t, func() bool {
		hist.mu.Lock()
		defer hist.mu.Unlock()
		return len(hist.added) == 1
	}, time.Second, 10*time.Millisecond)
}

func TestRuleEngine_SetUrgencyOverridesTimeoutResolution(t *testing.T) {
	cfg := config.DefaultSnapshot()
	cfg.Timeouts.Critical = config.Duration(0) // critical never expires
	cfg.Timeouts.Normal = config.Duration(20 * time.Millisecond)
	cfg.Rules = []config.AppRule{
		{Name: "escalate", MatchAppName: "pager", SetUrgency: "critical"},
	}
	c, _, _, _ := newTestCoordinator(t, cfg)

	c.HandleNotify(basicNotification("pager", "incident"))
	drainShow(t, c)

	select {
	case ev := <-c.DisplayEvents():
		t.Fatalf("escalated-to-critical notification should not expire, got %#v", ev)
	case <-time.After(60 * time.Millisecond):
	}
}

func TestReloadConfig_AppliesNewRulesToFutureSubmits(t *testing.T) {
	c, _, _, _ := newTestCoordinator(t, nil)

	c.HandleNotify(basicNotification("slack", "before reload"))
	drainShow(t, c)

	newCfg := config.DefaultSnapshot()
	newCfg.Rules = []config.AppRule{
		{Name: "mute-slack", MatchAppName: "slack", SkipDisplay: true},
	}
	c.ReloadConfig(newCfg)
	time.Sleep(20 * time.Millisecond)

	c.HandleNotify(basicNotification("slack", "after reload"))

	select {
	case ev := <-c.DisplayEvents():
		t.Fatalf("post-reload rule should suppress display, got %#v", ev)
	case <-time.After(80 * time.Millisecond):
	}
}

func TestShutdown_StopsRunLoop(t *testing.T) {
	cfg := config.DefaultSnapshot()
	hist := &fakeHistory{}
	bus := &fakeBus{}
	gate := dndgate.New(false)
	c := New(cfg, gate, hist, bus, nil)

	ctx := context.Background()
	done := make(chan struct{})
	go func() {
		c.Run(ctx)
		close(done)
	}()

	c.Shutdown(context.Background())
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after Shutdown")
	}
}
