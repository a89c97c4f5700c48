package tui

import (
	"image"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
)

func TestBigNumber(t *testing.T) {
	for n := 0; n <= 15; n++ {
		rows := bigNumber(n)
		if len(rows) != 7 {
			t.Fatalf("%d: expected 7 rows, got %d", n, len(rows))
		}
		want := 9
		if n >= 10 {
			want = 18
		}
		if w := len([]rune(rows[0])); w != want {
			t.Errorf("%d: expected rows %d cells wide, got %d", n, want, w)
		}
	}
	if bigNumber(-1) != nil {
		t.Error("negative numbers have no digits")
	}
}

func TestCountdownColor(t *testing.T) {
	if countdownColor(15) != ColorOrange || countdownColor(4) != ColorOrange {
		t.Error("expected orange for long countdowns")
	}
	if countdownColor(1) != ColorRed {
		t.Error("expected red for the last second")
	}
}

func TestRenderCountdown(t *testing.T) {
	out := RenderCountdown(3, 80, 20)
	if lipgloss.Height(out) != 20 {
		t.Errorf("expected overlay to fill 20 rows, got %d", lipgloss.Height(out))
	}
	if !strings.Contains(out, "Snapshot in a moment") {
		t.Error("expected the subtitle")
	}
}

func TestFitCells(t *testing.T) {
	tests := []struct {
		w, h, cols, rows int
		wantC, wantR     int
	}{
		{640, 360, 100, 40, 100, 28},
		{640, 360, 100, 10, 35, 10},
		{0, 0, 100, 40, 0, 0},
		{640, 360, 0, 40, 0, 0},
	}
	for _, tt := range tests {
		c, r := fitCells(image.Rect(0, 0, tt.w, tt.h), tt.cols, tt.rows)
		if c != tt.wantC || r != tt.wantR {
			t.Errorf("fitCells(%dx%d in %dx%d) = %dx%d, want %dx%d", tt.w, tt.h, tt.cols, tt.rows, c, r, tt.wantC, tt.wantR)
		}
	}
}

func TestHalfBlocks(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	out := halfBlocks(img, 4, 2)
	lines := strings.Split(out, "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(lines))
	}
	for _, line := range lines {
		if lipgloss.Width(line) != 4 {
			t.Errorf("expected 4 cells per row, got %d", lipgloss.Width(line))
		}
	}
}

func TestFormatDuration(t *testing.T) {
	if got := FormatDuration(3725); got != "01:02:05" {
		t.Errorf("expected 01:02:05, got %s", got)
	}
	if got := FormatDuration(-4); got != "00:00:00" {
		t.Errorf("expected zero, got %s", got)
	}
}
