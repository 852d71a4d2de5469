package coordinator

import (
	"github.com/jmylchreest/swaynoti/internal/busadapter"
	"github.com/jmylchreest/swaynoti/internal/config"
	"github.com/jmylchreest/swaynoti/internal/model"
)

// message is the closed set of inbound requests the coordinator's single
// goroutine processes, one implementation struct per kind in spec.md §4.6's
// table. External producers (the bus adapter, the control socket, timers,
// the scheduler, the presenter) never mutate coordinator state directly:
// they build one of these and post it to the inbox.
type message interface {
	isMessage()
}

// msgSubmit is a new or replacement Notify call. reply carries the id to
// hand back to the caller — always sent exactly once.
type msgSubmit struct {
	notification *model.Notification
	reply        chan uint32
}

// msgCloseByID is a programmatic close: a bus CloseNotification call, a
// socket dismiss/dismiss_all, or a presenter-reported dismissal.
type msgCloseByID struct {
	id     uint32
	reason busadapter.CloseReason
}

// msgInvokeAction is a user- or socket-driven action pick. payload is only
// meaningful when key is "inline-reply".
type msgInvokeAction struct {
	id      uint32
	key     string
	payload string
}

// msgSetHovered is a presenter-reported hover transition.
type msgSetHovered struct {
	id      uint32
	hovered bool
}

// msgExpiryTick is a timer wakeup for notification id's epoch-th armed
// expiry. A tick whose epoch no longer matches the live epoch for id is
// stale and is silently dropped.
type msgExpiryTick struct {
	id    uint32
	epoch uint64
}

// msgVisibleQuery answers with the currently visible notifications, in
// display order.
type msgVisibleQuery struct {
	reply chan []*model.Notification
}

// msgCountQuery answers with the number of live notifications.
type msgCountQuery struct {
	reply chan int
}

// msgDndChanged notes that the DnD gate's state changed outside the
// coordinator's own dnd command handling (e.g. a schedule tick). Reserved
// for deferred-notification flushing; today it is logged only, since
// spec.md does not define a replay queue for gated notifications.
type msgDndChanged struct{}

// msgReloadConfig atomically swaps the configuration snapshot. In-flight
// expiry timers keep their already-resolved duration; only future
// submissions see the new rules/timeouts (spec.md §9).
type msgReloadConfig struct {
	snapshot *config.Snapshot
}

// msgShutdown stops the coordinator loop. Messages still queued in the
// inbox are not processed; callers waiting on a reply are released by the
// closed done channel instead. done is closed once shutdown finishes.
type msgShutdown struct {
	done chan struct{}
}

func (msgSubmit) isMessage()       {}
func (msgCloseByID) isMessage()    {}
func (msgInvokeAction) isMessage() {}
func (msgSetHovered) isMessage()   {}
func (msgExpiryTick) isMessage()   {}
func (msgVisibleQuery) isMessage() {}
func (msgCountQuery) isMessage()   {}
func (msgDndChanged) isMessage()   {}
func (msgReloadConfig) isMessage() {}
func (msgShutdown) isMessage()     {}
