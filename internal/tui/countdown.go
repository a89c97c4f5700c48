package tui

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Big segment-style digit patterns (7-segment style)
// Each digit is 7 lines tall
var bigDigits = map[rune][]string{
	'0': {
		" ███████ ",
		" █     █ ",
		" █     █ ",
		" █     █ ",
		" █     █ ",
		" █     █ ",
		" ███████ ",
	},
	'1': {
		"    █    ",
		"   ██    ",
		"    █    ",
		"    █    ",
		"    █    ",
		"    █    ",
		"   ███   ",
	},
	'2': {
		" ███████ ",
		"       █ ",
		"       █ ",
		" ███████ ",
		" █       ",
		" █       ",
		" ███████ ",
	},
	'3': {
		" ███████ ",
		"       █ ",
		"       █ ",
		" ███████ ",
		"       █ ",
		"       █ ",
		" ███████ ",
	},
	'4': {
		" █     █ ",
		" █     █ ",
		" █     █ ",
		" ███████ ",
		"       █ ",
		"       █ ",
		"       █ ",
	},
	'5': {
		" ███████ ",
		" █       ",
		" █       ",
		" ███████ ",
		"       █ ",
		"       █ ",
		" ███████ ",
	},
	'6': {
		" ███████ ",
		" █       ",
		" █       ",
		" ███████ ",
		" █     █ ",
		" █     █ ",
		" ███████ ",
	},
	'7': {
		" ███████ ",
		"       █ ",
		"       █ ",
		"       █ ",
		"       █ ",
		"       █ ",
		"       █ ",
	},
	'8': {
		" ███████ ",
		" █     █ ",
		" █     █ ",
		" ███████ ",
		" █     █ ",
		" █     █ ",
		" ███████ ",
	},
	'9': {
		" ███████ ",
		" █     █ ",
		" █     █ ",
		" ███████ ",
		"       █ ",
		"       █ ",
		" ███████ ",
	},
}

// bigNumber returns the big-digit rows for n, or nil when n is negative
func bigNumber(n int) []string {
	if n < 0 {
		return nil
	}
	digits := strconv.Itoa(n)
	rows := make([]string, len(bigDigits['0']))
	for _, d := range digits {
		for i, line := range bigDigits[d] {
			rows[i] += line
		}
	}
	return rows
}

// countdownColor fades from orange to red as the countdown runs out
func countdownColor(n int) lipgloss.Color {
	switch {
	case n >= 4:
		return ColorOrange
	case n >= 2:
		return lipgloss.Color("#FF8C00") // Dark orange
	default:
		return ColorRed
	}
}

// RenderCountdown renders the snapshot countdown overlay for n seconds
// remaining
func RenderCountdown(n, width, height int) string {
	digitStyle := lipgloss.NewStyle().
		Foreground(countdownColor(n)).
		Bold(true)

	var lines []string
	for _, line := range bigNumber(n) {
		lines = append(lines, digitStyle.Render(line))
	}

	subtitle := lipgloss.NewStyle().
		Foreground(ColorGray).
		Italic(true).
		Render("Get ready... Snapshot in a moment!")
	hint := InactiveStyle.Render("Press ESC to cancel")

	content := lipgloss.JoinVertical(
		lipgloss.Center,
		"",
		strings.Join(lines, "\n"),
		"",
		subtitle,
		"",
		hint,
	)

	return lipgloss.Place(
		width,
		height,
		lipgloss.Center,
		lipgloss.Center,
		content,
	)
}
