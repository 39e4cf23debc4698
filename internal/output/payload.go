package output

import (
	"bytes"
	"image"

	"github.com/disintegration/imaging"
	"github.com/ichi0g0y/print-hole/internal/escpos"
)

// feedBeforeCut leaves ~20mm of margin so the cut does not clip content.
var feedBeforeCut = []byte("\n\n\n\n")

// buildImagePayload builds the full ESC/POS job for one bitmap: init,
// raster frame, feed and partial cut.
func buildImagePayload(img image.Image, cut bool) []byte {
	var buf bytes.Buffer
	buf.Write(escpos.CmdInit)
	buf.Write(escpos.EncodeRaster(img))
	buf.Write(feedBeforeCut)
	if cut {
		buf.Write(escpos.CmdPartialCut)
	}
	return buf.Bytes()
}

// buildCommandPayload serializes a command stream into one ESC/POS job.
func buildCommandPayload(commands []escpos.Command, cut bool) []byte {
	var buf bytes.Buffer
	buf.Write(escpos.CmdInit)
	buf.Write(escpos.CmdDefaultSpacing)
	for _, cmd := range commands {
		switch c := cmd.(type) {
		case escpos.Raw:
			buf.Write(c)
		case escpos.Text:
			buf.WriteString(string(c))
		}
	}
	buf.Write(feedBeforeCut)
	if cut {
		buf.Write(escpos.CmdPartialCut)
	}
	return buf.Bytes()
}

// fitToPrintWidth downscales bitmaps wider than the print head. Narrower
// images pass through unchanged.
func fitToPrintWidth(img image.Image) image.Image {
	if img.Bounds().Dx() <= escpos.PrintWidthDots {
		return img
	}
	return imaging.Resize(img, escpos.PrintWidthDots, 0, imaging.Lanczos)
}

func rotateImage180(img image.Image) image.Image {
	return imaging.Rotate180(img)
}
