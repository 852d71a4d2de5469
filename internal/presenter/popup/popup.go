// Package popup is the default Presenter: GTK4/libadwaita windows anchored
// to the screen edge via gtk4-layer-shell, one per visible notification.
// It is grounded on the teacher's internal/display/{manager,popup}.go, but
// trimmed to the Show/Update/Close/ShowCenter/HideCenter contract only —
// no layout templating, no theme/CSS hot-reload, no configurable mouse
// remapping beyond left-click dismiss and right-click focus-app, since
// those are presenter styling concerns the coordinator never needs to
// know about (SPEC_FULL.md §4.9).
package popup

import (
	"context"
	"log/slog"
	"time"

	"github.com/diamondburned/gotk4-adwaita/pkg/adw"
	layershell "github.com/diamondburned/gotk4-layer-shell/pkg/gtk4layershell"
	"github.com/diamondburned/gotk4/pkg/glib/v2"
	"github.com/diamondburned/gotk4/pkg/gtk/v4"

	"github.com/jmylchreest/swaynoti/internal/config"
	"github.com/jmylchreest/swaynoti/internal/model"
	"github.com/jmylchreest/swaynoti/internal/presenter"
)

// Presenter renders the coordinator's display-event stream as stacked
// layer-shell windows. Run may be called from any goroutine; every window
// operation it triggers runs on the GTK main loop via glib.IdleAdd.
type Presenter struct {
	app    *gtk.Application
	cfg    *config.Snapshot
	logger *slog.Logger

	windows map[uint32]*window
	order   []uint32
}

// New builds a popup Presenter. app must already be running its main loop
// (see cmd/swaynotid, which drives gtk.Application.Run on the main
// goroutine while Run below is invoked from a worker via glib.IdleAdd).
func New(app *gtk.Application, cfg *config.Snapshot, logger *slog.Logger) *Presenter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Presenter{
		app:     app,
		cfg:     cfg,
		logger:  logger,
		windows: make(map[uint32]*window),
	}
}

// Run implements presenter.Presenter. Every display event is marshaled
// onto the GTK main loop via glib.IdleAdd, since gotk4 widgets are not
// safe to touch from any other goroutine.
func (p *Presenter) Run(ctx context.Context, display <-chan presenter.DisplayEvent, intents chan<- presenter.IntentEvent) error {
	for {
		select {
		case <-ctx.Done():
			p.closeAllOnMainLoop()
			return ctx.Err()
		case ev, ok := <-display:
			if !ok {
				return nil
			}
			ev := ev
			glib.IdleAdd(func() {
				p.handle(ev, intents)
			})
		}
	}
}

func (p *Presenter) closeAllOnMainLoop() {
	done := make(chan struct{})
	glib.IdleAdd(func() {
		for id, w := range p.windows {
			w.close()
			delete(p.windows, id)
		}
		close(done)
	})
	select {
	case <-done:
	case <-time.After(time.Second):
	}
}

func (p *Presenter) handle(ev presenter.DisplayEvent, intents chan<- presenter.IntentEvent) {
	switch e := ev.(type) {
	case presenter.Show:
		p.show(e.Notification, intents)
	case presenter.Update:
		p.update(e.ID, e.Notification, intents)
	case presenter.Close:
		if w, ok := p.windows[e.ID]; ok {
			w.close()
			delete(p.windows, e.ID)
			p.removeFromOrder(e.ID)
			p.reflow()
		}
	case presenter.ShowCenter, presenter.HideCenter, presenter.ToggleCenter:
		// The popup presenter has no history-panel surface; the history
		// browser (cmd/swaynoti-history) covers this instead.
	}
}

func (p *Presenter) show(n *model.Notification, intents chan<- presenter.IntentEvent) {
	w := newWindow(p.app, n, p.cfg, p.logger, intents)
	p.windows[n.ID] = w
	p.order = append(p.order, n.ID)
	p.reflow()
	w.present()
}

func (p *Presenter) update(id uint32, n *model.Notification, intents chan<- presenter.IntentEvent) {
	if w, ok := p.windows[id]; ok {
		w.update(n)
		return
	}
	p.show(n, intents)
}

func (p *Presenter) removeFromOrder(id uint32) {
	for i, existing := range p.order {
		if existing == id {
			p.order = append(p.order[:i], p.order[i+1:]...)
			return
		}
	}
}

// reflow reassigns each window's stack position, in the order each
// notification first appeared.
func (p *Presenter) reflow() {
	for i, id := range p.order {
		if w, ok := p.windows[id]; ok {
			w.setPosition(i)
		}
	}
}

// window wraps a single notification's layer-shell popup.
type window struct {
	win    *gtk.Window
	cfg    *config.Snapshot
	logger *slog.Logger

	summaryLbl *gtk.Label
	bodyLbl    *gtk.Label
	progress   *gtk.ProgressBar

	id       uint32
	position int
	closed   bool
}

func newWindow(app *gtk.Application, n *model.Notification, cfg *config.Snapshot, logger *slog.Logger, intents chan<- presenter.IntentEvent) *window {
	w := &window{cfg: cfg, logger: logger, id: n.ID}

	win := gtk.NewWindow()
	win.SetApplication(app)
	win.SetDecorated(false)
	win.SetResizable(false)
	win.SetDefaultSize(cfg.Display.Width, -1)

	layershell.InitForWindow(win)
	layershell.SetLayer(win, layershell.LayerShellLayerTop)
	layershell.SetExclusiveZone(win, 0)
	layershell.SetKeyboardMode(win, layershell.LayerShellKeyboardModeNone)
	layershell.SetNamespace(win, "swaynoti")

	box := gtk.NewBox(gtk.OrientationVertical, 6)
	box.AddCSSClass("notification-popup")
	box.AddCSSClass(urgencyClass(n.Hints.Urgency))
	if systemIsDark() {
		box.AddCSSClass("dark")
	} else {
		box.AddCSSClass("light")
	}
	box.SetMarginTop(8)
	box.SetMarginBottom(8)
	box.SetMarginStart(12)
	box.SetMarginEnd(12)

	header := gtk.NewBox(gtk.OrientationHorizontal, 8)
	icon := gtk.NewImage()
	icon.SetPixelSize(32)
	if n.AppIcon != "" {
		icon.SetFromIconName(n.AppIcon)
	} else {
		icon.SetFromIconName("dialog-information")
	}
	header.Append(icon)

	w.summaryLbl = gtk.NewLabel(n.Summary)
	w.summaryLbl.SetXAlign(0)
	w.summaryLbl.SetHExpand(true)
	w.summaryLbl.SetEllipsize(3)
	header.Append(w.summaryLbl)
	box.Append(header)

	if n.Body != "" {
		w.bodyLbl = gtk.NewLabel(n.Body)
		w.bodyLbl.SetXAlign(0)
		w.bodyLbl.SetWrap(true)
		box.Append(w.bodyLbl)
	}

	if p := n.Hints.ClampedProgress(); p >= 0 {
		w.progress = gtk.NewProgressBar()
		w.progress.SetFraction(float64(p) / 100.0)
		box.Append(w.progress)
	}

	if len(n.Actions) > 0 {
		actionBox := gtk.NewBox(gtk.OrientationHorizontal, 6)
		for _, a := range n.Actions {
			key := a.Key
			btn := gtk.NewButtonWithLabel(a.Label)
			btn.ConnectClicked(func() {
				intents <- presenter.ActionInvoked{ID: n.ID, Key: key}
			})
			actionBox.Append(btn)
		}
		box.Append(actionBox)
	}

	win.SetChild(box)

	motion := gtk.NewEventControllerMotion()
	motion.ConnectEnter(func(x, y float64) { intents <- presenter.Hovered{ID: n.ID} })
	motion.ConnectLeave(func() { intents <- presenter.Unhovered{ID: n.ID} })
	win.AddController(motion)

	click := gtk.NewGestureClick()
	click.SetButton(0)
	click.ConnectReleased(func(nPress int, x, y float64) {
		switch click.CurrentButton() {
		case 1:
			intents <- presenter.Dismissed{ID: n.ID}
		case 3:
			intents <- presenter.FocusApp{ID: n.ID, AppName: n.AppName}
		}
	})
	win.AddController(click)

	w.win = win
	return w
}

func (w *window) present() { w.win.Present() }

func (w *window) update(n *model.Notification) {
	w.summaryLbl.SetText(n.Summary)
	if w.bodyLbl != nil {
		w.bodyLbl.SetText(n.Body)
	}
	if w.progress != nil {
		if p := n.Hints.ClampedProgress(); p >= 0 {
			w.progress.SetFraction(float64(p) / 100.0)
		}
	}
}

func (w *window) close() {
	if w.closed {
		return
	}
	w.closed = true
	w.win.Close()
}

func (w *window) setPosition(position int) {
	if w.position == position {
		return
	}
	w.position = position
	pos := w.cfg.Display.Position
	offsetX := w.cfg.Display.OffsetX
	offsetY := w.cfg.Display.OffsetY + position*(w.cfg.Display.MaxHeight+w.cfg.Display.Gap)

	layershell.SetAnchor(w.win, layershell.LayerShellEdgeTop, false)
	layershell.SetAnchor(w.win, layershell.LayerShellEdgeBottom, false)
	layershell.SetAnchor(w.win, layershell.LayerShellEdgeLeft, false)
	layershell.SetAnchor(w.win, layershell.LayerShellEdgeRight, false)

	switch pos {
	case config.PositionTopLeft:
		layershell.SetAnchor(w.win, layershell.LayerShellEdgeTop, true)
		layershell.SetAnchor(w.win, layershell.LayerShellEdgeLeft, true)
		layershell.SetMargin(w.win, layershell.LayerShellEdgeTop, offsetY)
		layershell.SetMargin(w.win, layershell.LayerShellEdgeLeft, offsetX)
	case config.PositionTopCenter:
		layershell.SetAnchor(w.win, layershell.LayerShellEdgeTop, true)
		layershell.SetMargin(w.win, layershell.LayerShellEdgeTop, offsetY)
	case config.PositionBottomRight:
		layershell.SetAnchor(w.win, layershell.LayerShellEdgeBottom, true)
		layershell.SetAnchor(w.win, layershell.LayerShellEdgeRight, true)
		layershell.SetMargin(w.win, layershell.LayerShellEdgeBottom, offsetY)
		layershell.SetMargin(w.win, layershell.LayerShellEdgeRight, offsetX)
	case config.PositionBottomLeft:
		layershell.SetAnchor(w.win, layershell.LayerShellEdgeBottom, true)
		layershell.SetAnchor(w.win, layershell.LayerShellEdgeLeft, true)
		layershell.SetMargin(w.win, layershell.LayerShellEdgeBottom, offsetY)
		layershell.SetMargin(w.win, layershell.LayerShellEdgeLeft, offsetX)
	case config.PositionBottomCenter:
		layershell.SetAnchor(w.win, layershell.LayerShellEdgeBottom, true)
		layershell.SetMargin(w.win, layershell.LayerShellEdgeBottom, offsetY)
	default: // PositionTopRight
		layershell.SetAnchor(w.win, layershell.LayerShellEdgeTop, true)
		layershell.SetAnchor(w.win, layershell.LayerShellEdgeRight, true)
		layershell.SetMargin(w.win, layershell.LayerShellEdgeTop, offsetY)
		layershell.SetMargin(w.win, layershell.LayerShellEdgeRight, offsetX)
	}
}

func urgencyClass(urgency int) string {
	switch urgency {
	case model.UrgencyLow:
		return "urgency-low"
	case model.UrgencyCritical:
		return "urgency-critical"
	default:
		return "urgency-normal"
	}
}

// systemIsDark reports libadwaita's current color-scheme preference, used
// only to pick the "light"/"dark" CSS class automatically.
func systemIsDark() bool {
	return adw.StyleManagerGetDefault().Dark()
}
