// Package escpos holds the ESC/POS protocol pieces shared by the markdown
// converter, the preview renderer and the printer backends: control byte
// sequences, printer metrics and the GS v 0 raster codec.
package escpos

// Printer specifications (80mm thermal printer, values from the vendor
// programmer manual).
const (
	PrintWidthDots  = 576
	PrintWidthBytes = 72 // 576 / 8
	DPI             = 203

	FontAWidth  = 12
	FontAHeight = 24
	FontBWidth  = 9
	FontBHeight = 17

	CharsPerLineFontA = 48
	CharsPerLineFontB = 64

	DefaultLineSpacing = 30

	// MaxLengthInches is advisory: longer output gets a warning flag in the
	// API response, never a rejection.
	MaxLengthInches = 12.0
)

// ESC/POS control sequences.
var (
	CmdInit           = []byte{0x1b, 0x40}       // ESC @ - initialize printer
	CmdFontA          = []byte{0x1b, 0x4d, 0x00} // ESC M 0 - font A (12x24)
	CmdFontB          = []byte{0x1b, 0x4d, 0x01} // ESC M 1 - font B (9x17)
	CmdBoldOn         = []byte{0x1b, 0x45, 0x01} // ESC E 1
	CmdBoldOff        = []byte{0x1b, 0x45, 0x00} // ESC E 0
	CmdDoubleHeight   = []byte{0x1b, 0x21, 0x10} // ESC ! 0x10
	CmdDoubleWidth    = []byte{0x1b, 0x21, 0x20} // ESC ! 0x20
	CmdDoubleWH       = []byte{0x1b, 0x21, 0x30} // ESC ! 0x30
	CmdNormal         = []byte{0x1b, 0x21, 0x00} // ESC ! 0x00
	CmdUnderlineOn    = []byte{0x1b, 0x2d, 0x01} // ESC - 1
	CmdUnderlineOff   = []byte{0x1b, 0x2d, 0x00} // ESC - 0
	CmdDefaultSpacing = []byte{0x1b, 0x32}       // ESC 2 - line pitch 30 dots
	CmdCut            = []byte{0x1d, 0x56, 0x00} // GS V 0 - full cut
	CmdPartialCut     = []byte{0x1d, 0x56, 0x01} // GS V 1 - partial cut
	CmdFeed           = []byte{0x1b, 0x4a}       // ESC J n - feed n dots
)

// Command is one element of a print job: either opaque protocol bytes
// (style toggles) or literal text. The sequence order is the print order.
type Command interface {
	command()
}

// Raw is an opaque ESC/POS byte sequence.
type Raw []byte

// Text is literal content; a trailing '\n' terminates the printed line.
type Text string

func (Raw) command()  {}
func (Text) command() {}
