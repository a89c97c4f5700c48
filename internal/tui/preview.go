package tui

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"strings"

	"github.com/blacktop/go-termimg"
	"github.com/charmbracelet/lipgloss"
	"github.com/nfnt/resize"
)

// approximate pixel size of a terminal cell for the Kitty protocol
const (
	cellPixelWidth  = 8
	cellPixelHeight = 16
)

// Preview turns camera frames into terminal output. Terminals speaking the
// Kitty graphics protocol get the real image; everything else gets coloured
// half blocks, two pixels per cell.
type Preview struct {
	kitty       bool
	lastImageID int
}

// NewPreview creates a preview for the current terminal
func NewPreview() *Preview {
	return &Preview{
		kitty:       detectKittySupport(),
		lastImageID: 2000,
	}
}

// detectKittySupport checks if the terminal supports Kitty graphics protocol
func detectKittySupport() bool {
	if os.Getenv("KITTY_WINDOW_ID") != "" {
		return true
	}
	if strings.Contains(os.Getenv("TERM"), "kitty") {
		return true
	}
	if os.Getenv("TERM_PROGRAM") == "kitty" {
		return true
	}
	return termimg.DetectProtocol() == termimg.Kitty
}

// fitCells returns the largest cols x rows cell box with the image's aspect
// ratio inside maxCols x maxRows. Cells are taken to be twice as tall as
// they are wide.
func fitCells(bounds image.Rectangle, maxCols, maxRows int) (int, int) {
	if bounds.Dx() <= 0 || bounds.Dy() <= 0 || maxCols <= 0 || maxRows <= 0 {
		return 0, 0
	}
	aspect := float64(bounds.Dx()) / float64(bounds.Dy())
	cols := maxCols
	rows := int(float64(cols) / aspect / 2)
	if rows > maxRows {
		rows = maxRows
		cols = int(float64(rows) * aspect * 2)
	}
	if cols < 1 {
		cols = 1
	}
	if rows < 1 {
		rows = 1
	}
	return cols, rows
}

// Render draws img into at most cols x rows cells. It returns the block to
// place in the layout and, for Kitty terminals, an image escape sequence
// that the caller emits at the block's top-left cell (top and left are
// zero-based screen coordinates).
func (p *Preview) Render(img image.Image, cols, rows, top, left int) (block string, overlay string) {
	fitCols, fitRows := fitCells(img.Bounds(), cols, rows)
	if fitCols == 0 {
		return "", ""
	}

	if p.kitty {
		if seq, err := p.kittyImage(img, fitCols, fitRows); err == nil {
			blank := strings.Repeat(strings.Repeat(" ", fitCols)+"\n", fitRows-1) + strings.Repeat(" ", fitCols)
			// Delete previous images, then draw at the block origin
			overlay = fmt.Sprintf("\033_Ga=d\033\\\033[%d;%dH%s", top+1, left+1, seq)
			return blank, overlay
		}
	}
	return halfBlocks(img, fitCols, fitRows), ""
}

func (p *Preview) kittyImage(img image.Image, cols, rows int) (string, error) {
	scaled := resize.Resize(uint(cols*cellPixelWidth), uint(rows*cellPixelHeight), img, resize.Bilinear)

	var buf bytes.Buffer
	if err := png.Encode(&buf, scaled); err != nil {
		return "", err
	}

	ti, err := termimg.From(bytes.NewReader(buf.Bytes()))
	if err != nil {
		return "", err
	}

	// Use unique image ID for each frame to force re-render
	p.lastImageID++
	ti.Protocol(termimg.Kitty).
		Width(cols).
		Height(rows).
		Scale(termimg.ScaleFit).
		ImageNum(p.lastImageID)

	return ti.Render()
}

// halfBlocks renders img as cols x rows cells of "▀", the foreground
// colouring the upper pixel and the background the lower one.
func halfBlocks(img image.Image, cols, rows int) string {
	scaled := resize.Resize(uint(cols), uint(rows*2), img, resize.Bilinear)
	b := scaled.Bounds()

	lines := make([]string, 0, rows)
	var sb strings.Builder
	for y := 0; y < rows; y++ {
		sb.Reset()
		for x := 0; x < cols; x++ {
			upper := scaled.At(b.Min.X+x, b.Min.Y+2*y)
			lower := scaled.At(b.Min.X+x, b.Min.Y+2*y+1)
			sb.WriteString(lipgloss.NewStyle().
				Foreground(hexColor(upper)).
				Background(hexColor(lower)).
				Render("▀"))
		}
		lines = append(lines, sb.String())
	}
	return strings.Join(lines, "\n")
}

func hexColor(c color.Color) lipgloss.Color {
	r, g, b, _ := c.RGBA()
	return lipgloss.Color(fmt.Sprintf("#%02X%02X%02X", r>>8, g>>8, b>>8))
}

// RenderNoSignal renders the placeholder shown before the first frame
func RenderNoSignal(cols, rows int) string {
	return lipgloss.Place(
		cols,
		rows,
		lipgloss.Center,
		lipgloss.Center,
		InactiveStyle.Render("Waiting for the camera..."),
	)
}
