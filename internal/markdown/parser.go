// Package markdown converts lightweight markup into an ordered ESC/POS
// command stream for an 80mm thermal printer, tracking the physical output
// length as it goes. The parser is deliberately line-oriented: anything
// that does not match a markup rule prints as plain paragraph text, so
// malformed input never fails.
package markdown

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/ichi0g0y/print-hole/internal/escpos"
)

// FontSize selects the base style for a whole document.
type FontSize string

const (
	FontSizeSmall  FontSize = "small"  // normal
	FontSizeMedium FontSize = "medium" // double height
	FontSizeLarge  FontSize = "large"  // double width + height
)

// ErrUnknownFontSize reports a font size outside the closed enum. Untrusted
// boundaries must validate with ParseFontSize before calling the core.
var ErrUnknownFontSize = errors.New("markdown: unknown font size")

// ParseFontSize validates a font size string from an untrusted boundary.
func ParseFontSize(s string) (FontSize, error) {
	switch FontSize(strings.ToLower(s)) {
	case FontSizeSmall, FontSizeMedium, FontSizeLarge:
		return FontSize(strings.ToLower(s)), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFontSize, s)
}

// FontSettings returns the base style command, glyph height multiplier and
// characters-per-line budget for a font size.
func FontSettings(size FontSize) (style []byte, heightMult, charsPerLine int) {
	switch size {
	case FontSizeLarge:
		return escpos.CmdDoubleWH, 2, 24
	case FontSizeMedium:
		return escpos.CmdDoubleHeight, 2, escpos.CharsPerLineFontA
	default:
		return escpos.CmdNormal, 1, escpos.CharsPerLineFontA
	}
}

var (
	hrRe          = regexp.MustCompile(`^-{3,}$|^\*{3,}$|^_{3,}$`)
	headingRe     = regexp.MustCompile(`^(#{1,6})\s+(.+)$`)
	headingTailRe = regexp.MustCompile(`\s*#+\s*$`)
	boldRe        = regexp.MustCompile(`\*\*(.+?)\*\*`)
	boldAltRe     = regexp.MustCompile(`__(.+?)__`)
	inlineCodeRe  = regexp.MustCompile("`(.+?)`")
	fenceRe       = regexp.MustCompile("^`{3,}$")
)

// converter accumulates the command stream and the running dot count for
// one document.
type converter struct {
	baseStyle    []byte
	heightMult   int
	charsPerLine int

	commands  []escpos.Command
	totalDots int
}

func newConverter(size FontSize) *converter {
	style, mult, chars := FontSettings(size)
	return &converter{baseStyle: style, heightMult: mult, charsPerLine: chars}
}

func (c *converter) raw(cmd []byte) { c.commands = append(c.commands, escpos.Raw(cmd)) }
func (c *converter) text(s string)  { c.commands = append(c.commands, escpos.Text(s)) }

func (c *converter) addLine(dots int) { c.totalDots += dots }

func (c *converter) lengthInches() float64 {
	return float64(c.totalDots) / escpos.DPI
}

// emitLines pushes wrapped lines with a uniform per-line height.
func (c *converter) emitLines(lines []string, lineHeight int) {
	for _, line := range lines {
		c.text(line + "\n")
		c.addLine(lineHeight + escpos.DefaultLineSpacing)
	}
}

func (c *converter) heading(text string, level int) {
	switch {
	case level == 1:
		c.raw(escpos.CmdDoubleWH)
		c.emitLines(mustWrap(text, 24), escpos.FontAHeight*2)
		c.raw(c.baseStyle)
	case level == 2:
		c.raw(escpos.CmdDoubleHeight)
		c.emitLines(mustWrap(text, escpos.CharsPerLineFontA), escpos.FontAHeight*2)
		c.raw(c.baseStyle)
	default:
		c.raw(escpos.CmdBoldOn)
		c.emitLines(mustWrap(text, c.charsPerLine), escpos.FontAHeight*c.heightMult)
		c.raw(escpos.CmdBoldOff)
	}
}

func (c *converter) paragraph(text string) {
	c.emitLines(mustWrap(text, c.charsPerLine), escpos.FontAHeight*c.heightMult)
}

// code emits a buffered code unit in font B at its 64-character budget and
// restores font A afterwards.
func (c *converter) code(text string) {
	c.raw(escpos.CmdFontB)
	c.emitLines(mustWrap(text, escpos.CharsPerLineFontB), escpos.FontBHeight)
	c.raw(escpos.CmdFontA)
}

func (c *converter) horizontalRule() {
	c.text(strings.Repeat("-", c.charsPerLine) + "\n")
	c.addLine(escpos.FontAHeight*c.heightMult + escpos.DefaultLineSpacing)
}

func (c *converter) paragraphBreak() {
	c.text("\n")
	c.addLine(escpos.DefaultLineSpacing)
}

// Parse converts markup into an ordered command sequence plus the estimated
// print length in inches.
//
// Supported syntax: # .. ###### headings, ``` code fences, --- / *** / ___
// horizontal rules, **bold** / __bold__ and `inline code` (markers
// stripped, inner text kept). Blank lines become paragraph breaks. An
// unclosed fence is implicitly closed at end of input.
func Parse(text string, size FontSize) ([]escpos.Command, float64) {
	text = Normalize(text)

	c := newConverter(size)
	c.raw(c.baseStyle)

	inCodeBlock := false
	var codeBuffer []string

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)

		// A line of nothing but 3+ backticks toggles the code block.
		if fenceRe.MatchString(trimmed) {
			if inCodeBlock {
				if len(codeBuffer) > 0 {
					c.code(strings.Join(codeBuffer, "\n"))
				}
				codeBuffer = nil
				inCodeBlock = false
			} else {
				inCodeBlock = true
			}
			continue
		}

		if inCodeBlock {
			codeBuffer = append(codeBuffer, line)
			continue
		}

		if trimmed == "" {
			c.paragraphBreak()
			continue
		}

		if hrRe.MatchString(trimmed) {
			c.horizontalRule()
			continue
		}

		if m := headingRe.FindStringSubmatch(line); m != nil {
			level := len(m[1])
			headingText := headingTailRe.ReplaceAllString(strings.TrimSpace(m[2]), "")
			c.heading(headingText, level)
			continue
		}

		// Plain paragraph line: strip inline style markers, keep the text.
		lineText := boldRe.ReplaceAllString(trimmed, "$1")
		lineText = boldAltRe.ReplaceAllString(lineText, "$1")
		lineText = inlineCodeRe.ReplaceAllString(lineText, "$1")
		c.paragraph(lineText)
	}

	// Unclosed code block: treat as implicitly closed.
	if len(codeBuffer) > 0 {
		c.code(strings.Join(codeBuffer, "\n"))
	}

	return c.commands, c.lengthInches()
}
