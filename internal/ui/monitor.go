package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/ChrisT3B/beats-repeats-test/internal/playback"
	"github.com/ChrisT3B/beats-repeats-test/internal/session"
	"github.com/ChrisT3B/beats-repeats-test/internal/trace"
)

type entryMsg trace.Entry

type commandDoneMsg struct {
	name string
	err  error
}

// Model represents the monitor application state.
type Model struct {
	ctx         context.Context
	coordinator *session.Coordinator
	controller  *playback.Controller
	trace       *trace.Log
	entries     <-chan trace.Entry

	tail     viewport.Model
	lines    []string
	status   string
	width    int
	height   int
	tailInit bool

	help help.Model
	keys keyMap
}

// NewModel creates a monitor over the given session. The trace subscription
// is taken here so entries appended before the program starts are not lost
// twice over.
func NewModel(ctx context.Context, coordinator *session.Coordinator, controller *playback.Controller, tl *trace.Log) *Model {
	m := &Model{
		ctx:         ctx,
		coordinator: coordinator,
		controller:  controller,
		trace:       tl,
		entries:     tl.Subscribe(),
		help:        help.New(),
		keys:        newKeyMap(),
	}
	for _, e := range tl.Entries() {
		m.lines = append(m.lines, renderEntry(e))
	}
	return m
}

// Init starts the trace tail.
func (m *Model) Init() tea.Cmd {
	return m.waitForEntry()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resizeTail()
		return m, nil

	case tea.KeyMsg:
		return m.handleKeys(msg)

	case entryMsg:
		m.lines = append(m.lines, renderEntry(trace.Entry(msg)))
		m.refreshTail()
		return m, m.waitForEntry()

	case commandDoneMsg:
		if msg.err != nil {
			m.status = styles.err.Render(fmt.Sprintf("%s failed: %v", msg.name, msg.err))
		} else {
			m.status = styles.help.Render(fmt.Sprintf("%s submitted", msg.name))
		}
		return m, nil
	}

	return m, nil
}

func (m *Model) handleKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.toggle):
		return m, m.runCommand("toggle", m.controller.Toggle)
	case key.Matches(msg, m.keys.transfer):
		return m, m.runCommand("transfer", m.controller.Transfer)
	}

	var cmd tea.Cmd
	m.tail, cmd = m.tail.Update(msg)
	return m, cmd
}

// View renders the snapshot header, the trace tail, and help.
func (m *Model) View() string {
	var b strings.Builder
	b.WriteString(styles.title.Render("Beats & Repeats session monitor"))
	b.WriteString("\n")
	b.WriteString(m.renderSnapshot())
	b.WriteString("\n\n")
	b.WriteString(m.tail.View())
	b.WriteString("\n")
	if m.status != "" {
		b.WriteString(m.status)
		b.WriteString("\n")
	}
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m *Model) renderSnapshot() string {
	snap := m.coordinator.Snapshot()

	state := styles.warn.Render(snap.State.String())
	switch snap.State {
	case session.Ready:
		state = styles.ok.Render(snap.State.String())
	case session.Errored:
		state = styles.err.Render(snap.State.String())
	}

	device := snap.DeviceID
	if device == "" {
		device = "—"
	}
	track := "nothing playing"
	if snap.Track != nil {
		track = snap.Track.String()
	}
	playing := "paused"
	if !snap.Paused {
		playing = "playing"
	}

	return fmt.Sprintf("state: %s  device: %s\ntrack: %s (%s)", state, device, track, playing)
}

// waitForEntry blocks on the trace subscription as a tea command.
func (m *Model) waitForEntry() tea.Cmd {
	return func() tea.Msg {
		select {
		case e, ok := <-m.entries:
			if !ok {
				return nil
			}
			return entryMsg(e)
		case <-m.ctx.Done():
			return tea.Quit()
		}
	}
}

func (m *Model) runCommand(name string, run func(context.Context) error) tea.Cmd {
	return func() tea.Msg {
		return commandDoneMsg{name: name, err: run(m.ctx)}
	}
}

func (m *Model) resizeTail() {
	w, h := m.width-2, m.height-8
	if w < 10 {
		w = 10
	}
	if h < 3 {
		h = 3
	}
	if !m.tailInit {
		m.tail = viewport.New(w, h)
		m.tailInit = true
	} else {
		m.tail.Width = w
		m.tail.Height = h
	}
	m.refreshTail()
}

func (m *Model) refreshTail() {
	if !m.tailInit {
		return
	}
	m.tail.SetContent(strings.Join(m.lines, "\n"))
	m.tail.GotoBottom()
}

func renderEntry(e trace.Entry) string {
	sev := styles.Severity(e.Severity).Render(strings.ToUpper(string(e.Severity)))
	return fmt.Sprintf("%s %s %s", e.At.Format("15:04:05"), sev, e.Message)
}
