package tui

import (
	"fmt"
	"image"
	"path/filepath"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/kartoza/kartoza-webcam-viewer/internal/config"
	"github.com/kartoza/kartoza-webcam-viewer/internal/logging"
	"github.com/kartoza/kartoza-webcam-viewer/internal/media"
	"github.com/kartoza/kartoza-webcam-viewer/internal/models"
	"github.com/kartoza/kartoza-webcam-viewer/internal/notify"
	"github.com/kartoza/kartoza-webcam-viewer/internal/session"
	"github.com/rs/zerolog"
)

const (
	frameInterval = 100 * time.Millisecond
	blinkInterval = 500 * time.Millisecond
)

// Key bindings
type keyMap struct {
	Snapshot key.Binding
	Record   key.Binding
	Cancel   key.Binding
	Dismiss  key.Binding
	Quit     key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Snapshot, k.Record, k.Cancel, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

var keys = keyMap{
	Snapshot: key.NewBinding(
		key.WithKeys("s", " "),
		key.WithHelp("s/space", "snapshot"),
	),
	Record: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "record"),
	),
	Cancel: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("esc", "cancel"),
	),
	Dismiss: key.NewBinding(
		key.WithKeys("enter", "esc", " "),
		key.WithHelp("enter", "dismiss"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

// Messages

// NoticeMsg carries a session notice into the program
type NoticeMsg session.Notice

type frameTickMsg struct{}
type blinkMsg struct{}

// Options wires the model to a running session
type Options struct {
	// Send dispatches a command to the session; false means it has stopped
	Send func(session.Command) bool
	// Surface is the preview surface, may be nil before the graph exists
	Surface media.Surface
	// Settings returns the current settings for the header
	Settings func() config.Settings
	Device   string
	// Notify enables desktop notifications
	Notify bool
}

type modal struct {
	title string
	text  string
	color lipgloss.Color
	fatal bool
}

// Model is the main TUI model
type Model struct {
	opts    Options
	preview *Preview
	help    help.Model

	width   int
	height  int
	blinkOn bool
	frame   image.Image

	countdown      int
	snapshotActive bool
	recordActive   bool
	recording      models.RecordingStatus
	lastSaved      string

	modals   []modal
	quitting bool
	fatal    bool

	now    func() time.Time
	logger zerolog.Logger
}

// NewModel creates a new TUI model
func NewModel(opts Options) Model {
	if opts.Settings == nil {
		opts.Settings = config.Default
	}
	return Model{
		opts:    opts,
		preview: NewPreview(),
		help:    help.New(),
		blinkOn: true,
		now:     time.Now,
		logger:  logging.WithComponent("tui"),
	}
}

// Init starts the camera and the redraw timers
func (m Model) Init() tea.Cmd {
	send := m.opts.Send
	return tea.Batch(
		func() tea.Msg {
			send(session.Command{Action: session.ActionStart})
			return nil
		},
		frameTickCmd(),
		blinkCmd(),
	)
}

func frameTickCmd() tea.Cmd {
	return tea.Tick(frameInterval, func(time.Time) tea.Msg { return frameTickMsg{} })
}

func blinkCmd() tea.Cmd {
	return tea.Tick(blinkInterval, func(time.Time) tea.Msg { return blinkMsg{} })
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case NoticeMsg:
		return m.handleNotice(session.Notice(msg))

	case frameTickMsg:
		if m.opts.Surface != nil {
			if img, ok := m.opts.Surface.Frame(); ok {
				m.frame = img
			}
		}
		return m, frameTickCmd()

	case blinkMsg:
		m.blinkOn = !m.blinkOn
		return m, blinkCmd()
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// A modal box swallows keys until dismissed
	if len(m.modals) > 0 {
		if !key.Matches(msg, keys.Dismiss) && !key.Matches(msg, keys.Quit) {
			return m, nil
		}
		top := m.modals[0]
		m.modals = m.modals[1:]
		if top.fatal {
			return m.beginQuit()
		}
		return m, nil
	}

	if m.quitting {
		// second ctrl+c forces the issue
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, keys.Quit):
		return m.beginQuit()

	case key.Matches(msg, keys.Cancel):
		if m.snapshotActive {
			m.snapshotActive = false
			m.send(session.Command{Action: session.ActionSnapshot, Active: false})
		}

	case key.Matches(msg, keys.Snapshot):
		m.snapshotActive = !m.snapshotActive
		m.send(session.Command{Action: session.ActionSnapshot, Active: m.snapshotActive})

	case key.Matches(msg, keys.Record):
		m.recordActive = !m.recordActive
		m.send(session.Command{Action: session.ActionRecord, Active: m.recordActive})
	}
	return m, nil
}

func (m Model) send(cmd session.Command) bool {
	if m.opts.Send == nil {
		return false
	}
	return m.opts.Send(cmd)
}

// beginQuit asks the session to shut down; the program exits on the
// stopped notice so a running recording is finished first.
func (m Model) beginQuit() (tea.Model, tea.Cmd) {
	if m.quitting {
		return m, nil
	}
	m.quitting = true
	if !m.send(session.Command{Action: session.ActionShutdown}) {
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) handleNotice(n session.Notice) (tea.Model, tea.Cmd) {
	switch n.Kind {
	case session.NoticeFatal:
		m.fatal = true
		m.modals = append(m.modals, modal{title: "Error", text: n.Text, color: ColorRed, fatal: true})

	case session.NoticeError:
		m.modals = append(m.modals, modal{title: "Error", text: n.Text, color: ColorRed})

	case session.NoticeWarning:
		m.modals = append(m.modals, modal{title: "Warning", text: n.Text, color: ColorOrange})

	case session.NoticeCountdown:
		m.countdown = n.Remaining

	case session.NoticeSnapshotToggleReset:
		m.snapshotActive = false
		m.countdown = 0

	case session.NoticeRecordToggleReset:
		m.recordActive = n.Recording.IsRecording()

	case session.NoticeSnapshotSaved:
		m.lastSaved = "Saved " + filepath.Base(n.Path)
		return m, m.desktop(func() error { return notify.SnapshotSaved(n.Path) })

	case session.NoticeRecordingStarted:
		m.recording = n.Recording
		m.recordActive = true
		return m, m.desktop(func() error { return notify.RecordingStarted(n.Path) })

	case session.NoticeRecordingStopping:
		m.recording = n.Recording
		m.recordActive = false

	case session.NoticeRecordingFinished:
		m.recording = models.RecordingStatus{State: models.StateIdle}
		m.recordActive = false
		m.lastSaved = "Saved " + filepath.Base(n.Path)
		return m, m.desktop(func() error { return notify.RecordingComplete(n.Path) })

	case session.NoticeStopped:
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) desktop(fn func() error) tea.Cmd {
	if !m.opts.Notify {
		return nil
	}
	logger := m.logger
	return func() tea.Msg {
		if err := fn(); err != nil {
			logger.Debug().Err(err).Msg("desktop notification failed")
		}
		return nil
	}
}

// View renders the UI using the standard layout
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}

	header := RenderHeader("Live", m.headerState())
	footer := m.renderFooter()
	avail := m.height - lipgloss.Height(header) - lipgloss.Height(footer)
	if avail < 1 {
		avail = 1
	}

	if len(m.modals) > 0 {
		top := m.modals[0]
		hint := "Press enter to dismiss"
		if top.fatal {
			hint = "Press enter to quit"
		}
		box := RenderMessageBox(top.title, top.text, hint, top.color, m.width)
		content := lipgloss.Place(m.width, avail, lipgloss.Center, lipgloss.Center, box)
		return LayoutWithHeaderFooter(header, content, footer, m.width, m.height)
	}

	if m.countdown > 0 {
		content := RenderCountdown(m.countdown, m.width, avail)
		return LayoutWithHeaderFooter(header, content, footer, m.width, m.height)
	}

	if m.frame == nil {
		content := RenderNoSignal(m.width, avail)
		return LayoutWithHeaderFooter(header, content, footer, m.width, m.height)
	}

	cols, rows := fitCells(m.frame.Bounds(), m.width, avail)
	top := lipgloss.Height(header)
	left := (m.width - cols) / 2
	block, overlay := m.preview.Render(m.frame, m.width, avail, top, left)
	return LayoutWithHeaderFooter(header, lipgloss.Place(m.width, rows, lipgloss.Center, lipgloss.Top, block), footer, m.width, m.height) + overlay
}

func (m Model) headerState() *HeaderState {
	s := m.opts.Settings()
	state := &HeaderState{
		IsRecording: m.recording.IsRecording(),
		IsDraining:  m.recording.State == models.StateDraining,
		Device:      m.opts.Device,
		Snapshot:    fmt.Sprintf("%s, %ds", s.SnapshotFormat.Label(), s.Timer),
		Record:      s.RecordFormat.Label(),
		BlinkOn:     m.blinkOn,
	}
	if m.recording.Active() {
		state.Duration = FormatDuration(int(m.recording.Elapsed(m.now()).Seconds()))
	}
	return state
}

func (m Model) renderFooter() string {
	status := ""
	switch {
	case m.quitting:
		status = InactiveStyle.Render("Shutting down...")
	case m.lastSaved != "":
		status = SuccessStyle.Render(m.lastSaved)
	}
	helpLine := RenderHelpFooter(m.help.View(keys), m.width)
	if status == "" {
		return helpLine
	}
	return lipgloss.JoinVertical(lipgloss.Left, lipgloss.PlaceHorizontal(m.width, lipgloss.Center, status), helpLine)
}

// Fatal reports whether the session ended with a fatal error
func (m Model) Fatal() bool {
	return m.fatal
}
