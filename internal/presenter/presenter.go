// Package presenter defines the contract between the lifecycle coordinator
// and whatever draws notifications on screen. The core never imports a
// concrete presenter implementation (see internal/presenter/popup); it only
// ever sees this package's event types and the narrow Presenter interface,
// keeping "how notifications look" entirely outside the lifecycle engine.
package presenter

import (
	"context"

	"github.com/jmylchreest/swaynoti/internal/model"
)

// DisplayEvent is one entry in the totally ordered stream of events the
// coordinator emits toward the presenter.
type DisplayEvent interface {
	isDisplayEvent()
}

// Show asks the presenter to draw a brand-new notification.
type Show struct {
	Notification *model.Notification
}

// Update asks the presenter to refresh an already-visible notification in
// place (a replacement never emits Close).
type Update struct {
	ID           uint32
	Notification *model.Notification
}

// Close asks the presenter to remove a notification's display, for any
// closure reason.
type Close struct {
	ID uint32
}

// ShowCenter, HideCenter and ToggleCenter control the optional history
// panel / notification center surface some presenters offer.
type ShowCenter struct{}
type HideCenter struct{}
type ToggleCenter struct{}

func (Show) isDisplayEvent()         {}
func (Update) isDisplayEvent()       {}
func (Close) isDisplayEvent()        {}
func (ShowCenter) isDisplayEvent()   {}
func (HideCenter) isDisplayEvent()   {}
func (ToggleCenter) isDisplayEvent() {}

// IntentEvent is one entry in the stream of user-intent events the
// presenter reports back to the coordinator.
type IntentEvent interface {
	isIntentEvent()
}

// Dismissed reports the user explicitly closed a notification (e.g.
// clicking its close button).
type Dismissed struct{ ID uint32 }

// ActionInvoked reports the user picked one of a notification's actions,
// including the reserved "default" (primary click) key.
type ActionInvoked struct {
	ID  uint32
	Key string
}

// Hovered and Unhovered report the pointer entering/leaving a notification,
// which the coordinator uses to freeze/resume its expiry timer.
type Hovered struct{ ID uint32 }
type Unhovered struct{ ID uint32 }

// InlineReply reports free-text submitted against a notification that
// advertised inline-reply capability.
type InlineReply struct {
	ID   uint32
	Text string
}

// FocusApp reports the user asked to raise/focus the application window
// behind a notification (forwarded to the focus sink collaborator).
type FocusApp struct {
	ID      uint32
	AppName string
}

// DefaultAction reports the user invoked a notification's default
// (primary-click) action without naming an action key explicitly.
type DefaultAction struct{ ID uint32 }

func (Dismissed) isIntentEvent()     {}
func (ActionInvoked) isIntentEvent() {}
func (Hovered) isIntentEvent()       {}
func (Unhovered) isIntentEvent()     {}
func (InlineReply) isIntentEvent()   {}
func (FocusApp) isIntentEvent()      {}
func (DefaultAction) isIntentEvent() {}

// DisplayChanSize is the capacity of the coordinator's outbound display
// channel (spec.md §5: "bounded (e.g., 64) with drop-oldest-same-id
// policy").
const DisplayChanSize = 64

// Presenter consumes the coordinator's display-event stream and produces
// intent events in return. A concrete implementation (e.g.
// internal/presenter/popup) owns however it chooses to render
// Show/Update/Close; the core has no visibility into it.
type Presenter interface {
	// Run drives the presenter until display is closed or ctx is
	// cancelled, sending IntentEvents to intents as the user interacts.
	Run(ctx context.Context, display <-chan DisplayEvent, intents chan<- IntentEvent) error
}
