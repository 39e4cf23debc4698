// Package preview simulates thermal printer output by interpreting the
// same ESC/POS command stream the printer would receive and rasterizing it
// into a bitmap for user review.
package preview

import (
	"bytes"
	"errors"
	"image"
	"image/draw"
	"unicode/utf8"

	"github.com/ichi0g0y/print-hole/internal/escpos"
	"github.com/ichi0g0y/print-hole/internal/markdown"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// ErrInvalidWidth reports a non-positive preview width.
var ErrInvalidWidth = errors.New("preview: width must be positive")

const (
	marginX       = 10
	marginTop     = 10
	marginBottom  = 20
	heightPadding = 50
	minHeight     = 100
)

// interpState tracks the style toggles the renderer understands. It must
// mirror the converter's font/line-height table so previewed length matches
// physical length within rounding.
type interpState struct {
	baseScaleW int
	baseScaleH int

	scaleW int
	scaleH int
	bold   bool
	code   bool
}

func newInterpState(size markdown.FontSize) interpState {
	s := interpState{baseScaleW: 1, baseScaleH: 1}
	switch size {
	case markdown.FontSizeLarge:
		s.baseScaleW, s.baseScaleH = 2, 2
	case markdown.FontSizeMedium:
		s.baseScaleH = 2
	}
	s.scaleW, s.scaleH = s.baseScaleW, s.baseScaleH
	return s
}

// apply consumes one raw style toggle.
func (s *interpState) apply(raw []byte) {
	switch {
	case bytes.Equal(raw, escpos.CmdBoldOn):
		s.bold = true
	case bytes.Equal(raw, escpos.CmdBoldOff):
		s.bold = false
	case bytes.Equal(raw, escpos.CmdFontB):
		s.code = true
	case bytes.Equal(raw, escpos.CmdFontA):
		s.code = false
	case bytes.Equal(raw, escpos.CmdDoubleWH):
		s.scaleW, s.scaleH = 2, 2
	case bytes.Equal(raw, escpos.CmdDoubleHeight):
		s.scaleW, s.scaleH = 1, 2
	case bytes.Equal(raw, escpos.CmdNormal):
		s.scaleW, s.scaleH = s.baseScaleW, s.baseScaleH
	}
}

// cell is the glyph box in printer dots for the active style.
func (s interpState) cell() (w, h int) {
	if s.code {
		return escpos.FontBWidth, escpos.FontBHeight
	}
	return escpos.FontAWidth * s.scaleW, escpos.FontAHeight * s.scaleH
}

// lineHeight matches the parser's per-line dot accounting.
func (s interpState) lineHeight() int {
	_, h := s.cell()
	return h
}

// Render interprets a command stream into a bitmap approximating physical
// output plus the authoritative print length in inches. The canvas is
// pre-sized from the stream's own height accounting and cropped to the
// drawn extent afterwards.
func Render(commands []escpos.Command, size markdown.FontSize, width int) (image.Image, float64, error) {
	if width <= 0 {
		return nil, 0, ErrInvalidWidth
	}

	// First pass: size the canvas from the style-aware line heights.
	state := newInterpState(size)
	totalDots := 0
	for _, cmd := range commands {
		switch c := cmd.(type) {
		case escpos.Raw:
			state.apply(c)
		case escpos.Text:
			if len(c) > 0 && c[len(c)-1] == '\n' {
				totalDots += state.lineHeight() + escpos.DefaultLineSpacing
			}
		}
	}

	height := totalDots + heightPadding
	if height < minHeight {
		height = minHeight
	}

	canvas := image.NewGray(image.Rect(0, 0, width, height))
	draw.Draw(canvas, canvas.Bounds(), image.White, image.Point{}, draw.Src)

	// Second pass: draw.
	state = newInterpState(size)
	y := marginTop
	for _, cmd := range commands {
		switch c := cmd.(type) {
		case escpos.Raw:
			state.apply(c)
		case escpos.Text:
			line := string(c)
			terminated := len(line) > 0 && line[len(line)-1] == '\n'
			if terminated {
				line = line[:len(line)-1]
			}
			if line != "" {
				cellW, cellH := state.cell()
				drawString(canvas, line, marginX, y, cellW, cellH, state.bold && !state.code)
			}
			if terminated {
				y += state.lineHeight() + escpos.DefaultLineSpacing
			}
		}
	}

	finalHeight := y + marginBottom
	if finalHeight > height {
		finalHeight = height
	}
	cropped := canvas.SubImage(image.Rect(0, 0, width, finalHeight))

	return cropped, float64(finalHeight) / escpos.DPI, nil
}

// Generate parses markup and renders its preview in one step.
func Generate(text string, size markdown.FontSize, width int) (image.Image, float64, error) {
	commands, _ := markdown.Parse(text, size)
	return Render(commands, size, width)
}

// drawString renders line with the monospace bitmap face, then scales it
// onto dst so each glyph occupies a cellW x cellH box, approximating the
// printer's fixed-cell fonts. Nearest neighbour keeps the blocky thermal
// look. Bold is simulated by double-striking one pixel to the right.
func drawString(dst *image.Gray, line string, x, y, cellW, cellH int, bold bool) {
	face := basicfont.Face7x13
	// Cell math counts runes; Latin-1 glyphs are 2 bytes but one cell.
	runeCount := utf8.RuneCountInString(line)
	srcW := face.Advance * runeCount
	if srcW == 0 {
		return
	}

	src := image.NewGray(image.Rect(0, 0, srcW, face.Height))
	draw.Draw(src, src.Bounds(), image.White, image.Point{}, draw.Src)

	d := font.Drawer{
		Dst:  src,
		Src:  image.Black,
		Face: face,
		Dot:  fixed.P(0, face.Ascent),
	}
	d.DrawString(line)
	if bold {
		d.Dot = fixed.P(1, face.Ascent)
		d.DrawString(line)
	}

	dstRect := image.Rect(x, y, x+cellW*runeCount, y+cellH)
	if dstRect.Max.X > dst.Bounds().Max.X {
		dstRect.Max.X = dst.Bounds().Max.X
	}
	if dstRect.Max.Y > dst.Bounds().Max.Y {
		dstRect.Max.Y = dst.Bounds().Max.Y
	}
	xdraw.NearestNeighbor.Scale(dst, dstRect, src, src.Bounds(), xdraw.Over, nil)
}
