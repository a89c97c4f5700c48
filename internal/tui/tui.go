package tui

import (
	"fmt"
	"strings"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/kartoza/kartoza-webcam-viewer/internal/deps"
	"github.com/kartoza/kartoza-webcam-viewer/internal/session"
)

// Bridge forwards session notices into a program, in the order they were
// raised. Notices raised before the program is attached are held until it is.
type Bridge struct {
	mu       sync.Mutex
	send     func(tea.Msg)
	pending  []tea.Msg
	draining bool
}

// Sink is the session notice sink. It runs on the event loop and never
// waits for the program.
func (b *Bridge) Sink(n session.Notice) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pending = append(b.pending, NoticeMsg(n))
	b.kickLocked()
}

// Attach starts forwarding to send. It may be called before the program
// runs.
func (b *Bridge) Attach(send func(tea.Msg)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.send = send
	b.kickLocked()
}

// kickLocked starts the single forwarding goroutine if there is work and
// none is running.
func (b *Bridge) kickLocked() {
	if b.send == nil || b.draining || len(b.pending) == 0 {
		return
	}
	b.draining = true
	go b.drain(b.send)
}

func (b *Bridge) drain(send func(tea.Msg)) {
	for {
		b.mu.Lock()
		if len(b.pending) == 0 {
			b.draining = false
			b.mu.Unlock()
			return
		}
		msg := b.pending[0]
		b.pending[0] = nil
		b.pending = b.pending[1:]
		b.mu.Unlock()

		send(msg)
	}
}

// Run shows the TUI until the session stops. The returned model reports
// whether it ended on a fatal error.
func Run(opts Options, bridge *Bridge) (Model, error) {
	p := tea.NewProgram(NewModel(opts), tea.WithAltScreen())
	bridge.Attach(p.Send)

	final, err := p.Run()
	m, _ := final.(Model)
	return m, err
}

// ShowDependencyError prints the missing dependencies and install hints
func ShowDependencyError(missing []deps.CheckResult) error {
	var sb strings.Builder
	sb.WriteString("\n")
	sb.WriteString(lipgloss.NewStyle().
		Bold(true).
		Foreground(ColorRed).
		Render("Missing Required Dependencies"))
	sb.WriteString("\n\n")
	sb.WriteString("The following GStreamer elements are not installed:\n\n")

	for _, m := range missing {
		sb.WriteString(fmt.Sprintf("  %s %s\n",
			lipgloss.NewStyle().Foreground(ColorRed).Render("✗"),
			lipgloss.NewStyle().Bold(true).Render(m.Dependency.Name)))
		sb.WriteString(fmt.Sprintf("    %s\n\n",
			lipgloss.NewStyle().Foreground(ColorGray).Render(m.Dependency.Description)))
	}

	sb.WriteString(lipgloss.NewStyle().Foreground(ColorGray).Render("Please install the missing plugins and try again."))
	sb.WriteString("\n\n")

	sb.WriteString(lipgloss.NewStyle().Bold(true).Render("Installation hints:"))
	sb.WriteString("\n")
	seen := map[string]bool{}
	for _, m := range missing {
		hint := getInstallHint(m.Dependency.Name)
		if hint != "" && !seen[hint] {
			seen[hint] = true
			sb.WriteString(fmt.Sprintf("  %s\n", hint))
		}
	}
	sb.WriteString("\n")

	fmt.Println(sb.String())
	return fmt.Errorf("missing required dependencies")
}

// getInstallHint returns installation hints for common package managers
func getInstallHint(name string) string {
	switch name {
	case "tee", "queue", "appsink", "filesink", "fakesink":
		return "apt install gstreamer1.0-tools / pacman -S gstreamer / nix-shell -p gst_all_1.gstreamer"
	case "videoconvert", "videoscale", "audiotestsrc", "audioconvert":
		return "apt install gstreamer1.0-plugins-base / pacman -S gst-plugins-base / nix-shell -p gst_all_1.gst-plugins-base"
	case "autovideosrc", "autoaudiosink", "v4l2src", "vp8enc", "webmmux", "mp4mux":
		return "apt install gstreamer1.0-plugins-good / pacman -S gst-plugins-good / nix-shell -p gst_all_1.gst-plugins-good"
	case "x264enc":
		return "apt install gstreamer1.0-plugins-ugly / pacman -S gst-plugins-ugly / nix-shell -p gst_all_1.gst-plugins-ugly"
	}
	return ""
}
