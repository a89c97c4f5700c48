package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// ========================================
// Brand Colors - Kartoza standard palette
// ========================================

var (
	ColorOrange   = lipgloss.Color("#DDA036") // Primary/Active
	ColorBlue     = lipgloss.Color("#569FC6") // Secondary/Links
	ColorGray     = lipgloss.Color("#9A9EA0") // Inactive/Subtle
	ColorWhite    = lipgloss.Color("#FFFFFF") // Text
	ColorDarkGray = lipgloss.Color("#3A3A3A") // Background
	ColorRed      = lipgloss.Color("#E95420") // Error/Recording
	ColorGreen    = lipgloss.Color("#4CAF50") // Success
)

// HeaderWidth is the standard width for the header
const HeaderWidth = 60

// HeaderState contains the dynamic state for the header
type HeaderState struct {
	IsRecording bool
	IsDraining  bool
	Device      string
	Duration    string
	Snapshot    string // snapshot format and timer, e.g. "JPEG, 3s"
	Record      string // recording format label
	BlinkOn     bool   // For blinking status indicator
}

// RenderHeader renders the standard application header
func RenderHeader(screenTitle string, state *HeaderState) string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(ColorOrange).
		Align(lipgloss.Center).
		Width(HeaderWidth)

	mottoStyle := lipgloss.NewStyle().
		Italic(true).
		Foreground(ColorGray).
		Align(lipgloss.Center).
		Width(HeaderWidth)

	dividerStyle := lipgloss.NewStyle().
		Foreground(ColorGray).
		Width(HeaderWidth)

	statusStyle := lipgloss.NewStyle().
		Foreground(ColorWhite).
		Align(lipgloss.Center).
		Width(HeaderWidth)

	title := titleStyle.Render("Kartoza Webcam Viewer - " + screenTitle)
	motto := mottoStyle.Render("see yourself")
	divider := dividerStyle.Render(strings.Repeat("─", HeaderWidth))

	if state == nil {
		return lipgloss.JoinVertical(lipgloss.Center, title, motto, divider)
	}

	recorderState := "Live"
	stateColor := ColorGreen
	switch {
	case state.IsDraining:
		recorderState = "◌ SAVING"
		stateColor = ColorOrange
	case state.IsRecording:
		// Blink the dot when recording is active
		if state.BlinkOn {
			recorderState = "● REC"
		} else {
			recorderState = "○ REC"
		}
		stateColor = ColorRed
	}

	recorderStateStyled := lipgloss.NewStyle().
		Foreground(stateColor).
		Bold(true).
		Render(recorderState)

	device := state.Device
	if device == "" {
		device = "Auto"
	}

	duration := state.Duration
	if duration == "" {
		duration = "00:00:00"
	}

	statusLine := fmt.Sprintf("Status: %s  |  Camera: %s  |  %s",
		recorderStateStyled,
		device,
		duration,
	)
	formats := LabelStyle.Render(fmt.Sprintf("Snapshot: %s  |  Record: %s", state.Snapshot, state.Record))

	return lipgloss.JoinVertical(
		lipgloss.Center,
		title,
		motto,
		divider,
		statusStyle.Render(statusLine),
		statusStyle.Render(formats),
		divider,
	)
}

// RenderHelpFooter renders the standard help footer at the bottom of the screen
func RenderHelpFooter(helpText string, width int) string {
	helpStyle := lipgloss.NewStyle().
		Foreground(ColorGray).
		Italic(true)

	footerStyle := lipgloss.NewStyle().
		Width(width).
		Align(lipgloss.Center)

	return footerStyle.Render(helpStyle.Render(helpText))
}

// LayoutWithHeaderFooter creates a standard layout with header at top and footer at bottom
func LayoutWithHeaderFooter(header, content, footer string, width, height int) string {
	mainSection := lipgloss.JoinVertical(
		lipgloss.Center,
		header,
		content,
	)

	centeredMain := lipgloss.Place(
		width,
		height-lipgloss.Height(footer),
		lipgloss.Center,
		lipgloss.Top,
		mainSection,
	)

	return lipgloss.JoinVertical(
		lipgloss.Left,
		centeredMain,
		footer,
	)
}

// RenderMessageBox renders a modal box for an error or warning
func RenderMessageBox(title, text, hint string, color lipgloss.Color, width int) string {
	boxWidth := width - 8
	if boxWidth > HeaderWidth {
		boxWidth = HeaderWidth
	}
	if boxWidth < 20 {
		boxWidth = 20
	}

	box := BoxStyle.
		BorderForeground(color).
		Width(boxWidth)

	content := lipgloss.JoinVertical(
		lipgloss.Left,
		lipgloss.NewStyle().Bold(true).Foreground(color).Render(title),
		"",
		ValueStyle.Render(text),
		"",
		InactiveStyle.Render(hint),
	)
	return box.Render(content)
}

// FormatDuration renders a number of seconds as HH:MM:SS
func FormatDuration(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d:%02d", seconds/3600, (seconds/60)%60, seconds%60)
}

// ========================================
// Common Styles
// ========================================

// Box style for content areas
var BoxStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(ColorOrange).
	Padding(1, 2)

// Title style for section headings
var TitleStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorOrange)

// Label style for form labels
var LabelStyle = lipgloss.NewStyle().
	Foreground(ColorGray)

// Value style for displaying values
var ValueStyle = lipgloss.NewStyle().
	Foreground(ColorWhite)

// Inactive style for inactive items
var InactiveStyle = lipgloss.NewStyle().
	Foreground(ColorGray)

// Error style for error messages
var ErrorStyle = lipgloss.NewStyle().
	Foreground(ColorRed).
	Bold(true)

// Success style for success messages
var SuccessStyle = lipgloss.NewStyle().
	Foreground(ColorGreen).
	Bold(true)
