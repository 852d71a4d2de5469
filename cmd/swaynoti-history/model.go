// Package main implements swaynoti-history, a terminal browser over the
// swaynotid history store: a list view with a "/" filter and "x" to
// dismiss the selected entry via the control socket.
package main

import (
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/jmylchreest/swaynoti/internal/history"
	"github.com/jmylchreest/swaynoti/internal/model"
)

type mode int

const (
	modeList mode = iota
	modeFilter
)

// keyMap mirrors the teacher's internal/tui key binding layout, trimmed
// to the operations this browser actually supports.
type keyMap struct {
	Filter  key.Binding
	Quit    key.Binding
	Back    key.Binding
	Dismiss key.Binding
	Help    key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Filter:  key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "filter by app")),
		Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		Back:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		Dismiss: key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "dismiss selected")),
		Help:    key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "toggle help")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Filter, k.Dismiss, k.Back, k.Quit, k.Help}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

// entryItem adapts a model.HistoryEntry to list.Item.
type entryItem struct {
	entry model.HistoryEntry
}

func (i entryItem) Title() string {
	status := ""
	switch {
	case i.entry.Dismissed:
		status = " (dismissed)"
	case i.entry.Expired:
		status = " (expired)"
	}
	return fmt.Sprintf("[%s] %s%s", i.entry.AppName, i.entry.Summary, status)
}

func (i entryItem) Description() string {
	body := i.entry.Body
	if len(body) > 60 {
		body = body[:57] + "..."
	}
	return fmt.Sprintf("%s · %s", humanize.Time(i.entry.Timestamp), body)
}

func (i entryItem) FilterValue() string {
	return i.entry.AppName + " " + i.entry.Summary + " " + i.entry.Body
}

var (
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Padding(0, 1)
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Padding(0, 1)
)

type Model struct {
	hist   *history.Store
	socket string

	list   list.Model
	filter textinput.Model
	help   help.Model
	keys   keyMap

	mode      mode
	statusMsg string
	statusErr bool

	width, height int
}

// New builds the TUI model. hist is read directly (no daemon round trip
// needed for browsing); socket is used only for the "x" dismiss action,
// which must go through the live coordinator so the in-memory registry
// and the bus's NotificationClosed signal stay consistent with history.
func New(hist *history.Store, socket string) Model {
	delegate := list.NewDefaultDelegate()
	l := list.New(nil, delegate, 0, 0)
	l.Title = "swaynoti history"
	l.SetShowHelp(false)

	fi := textinput.New()
	fi.Placeholder = "filter by app name"
	fi.CharLimit = 64

	m := Model{
		hist:   hist,
		socket: socket,
		list:   l,
		filter: fi,
		help:   help.New(),
		keys:   defaultKeyMap(),
		mode:   modeList,
	}
	return m
}

func (m Model) Init() tea.Cmd {
	return m.reload("")
}

type entriesLoadedMsg struct {
	entries []model.HistoryEntry
	err     error
}

func (m Model) reload(appFilter string) tea.Cmd {
	return func() tea.Msg {
		var (
			entries []model.HistoryEntry
			err     error
		)
		if appFilter == "" {
			entries, err = m.hist.GetAll()
		} else {
			entries, err = m.hist.GetByApp(appFilter)
		}
		return entriesLoadedMsg{entries: entries, err: err}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.list.SetSize(msg.Width, msg.Height-3)
		return m, nil

	case entriesLoadedMsg:
		if msg.err != nil {
			m.statusErr = true
			m.statusMsg = msg.err.Error()
			return m, nil
		}
		m.statusErr = false
		items := make([]list.Item, len(msg.entries))
		for i, e := range msg.entries {
			items[i] = entryItem{entry: e}
		}
		m.list.SetItems(items)
		return m, nil

	case dismissResultMsg:
		if msg.err != nil {
			m.statusErr = true
			m.statusMsg = msg.err.Error()
		} else {
			m.statusErr = false
			m.statusMsg = fmt.Sprintf("dismissed notification %d", msg.id)
		}
		return m, m.reload(m.filter.Value())

	case tea.KeyMsg:
		if m.mode == modeFilter {
			switch {
			case key.Matches(msg, m.keys.Back):
				m.mode = modeList
				m.filter.Blur()
				return m, m.reload("")
			case msg.Type == tea.KeyEnter:
				m.mode = modeList
				m.filter.Blur()
				return m, m.reload(m.filter.Value())
			}
			var cmd tea.Cmd
			m.filter, cmd = m.filter.Update(msg)
			return m, cmd
		}

		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Filter):
			m.mode = modeFilter
			m.filter.Focus()
			return m, textinput.Blink
		case key.Matches(msg, m.keys.Dismiss):
			return m, m.dismissSelected()
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) dismissSelected() tea.Cmd {
	item, ok := m.list.SelectedItem().(entryItem)
	if !ok {
		return nil
	}
	id := item.entry.NotificationID
	return func() tea.Msg {
		err := sendDismiss(m.socket, id)
		return dismissResultMsg{id: id, err: err}
	}
}

type dismissResultMsg struct {
	id  uint32
	err error
}

func (m Model) View() string {
	var status string
	if m.statusMsg != "" {
		style := statusStyle
		if m.statusErr {
			style = errorStyle
		}
		status = style.Render(m.statusMsg)
	}

	if m.mode == modeFilter {
		return m.list.View() + "\n" + m.filter.View() + "\n" + status
	}
	helpView := m.help.View(m.keys)
	return m.list.View() + "\n" + helpView + " " + status
}
