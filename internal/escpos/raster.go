package escpos

import (
	"errors"
	"fmt"
	"image"
	"image/color"
)

var (
	// ErrShortFrame reports a raster frame shorter than its 8-byte header.
	ErrShortFrame = errors.New("escpos: raster frame too short")
	// ErrBadFrame reports a frame whose prefix is not GS v 0 or whose data
	// does not match the header dimensions.
	ErrBadFrame = errors.New("escpos: malformed raster frame")
)

// rasterPrefix is GS v 0 followed by mode 0 (normal density).
var rasterPrefix = []byte{0x1d, 0x76, 0x30, 0x00}

// RasterHeader is the decoded fixed part of a GS v 0 frame.
type RasterHeader struct {
	Mode       byte
	WidthBytes int
	Height     int
}

// lowHigh encodes n as a little-endian 16-bit pair.
func lowHigh(n int) (byte, byte) {
	return byte(n & 0xff), byte((n >> 8) & 0xff)
}

// EncodeRaster serializes an image into a GS v 0 raster frame. Pixels are
// packed 8 per byte, MSB first; a dark source pixel sets its bit to 1
// ("print"). Non-1-bit input is thresholded at mid gray; callers that need
// dithering run the image through imageproc first.
func EncodeRaster(img image.Image) []byte {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	widthBytes := (width + 7) / 8

	frame := make([]byte, 0, 8+widthBytes*height)
	frame = append(frame, rasterPrefix...)
	xL, xH := lowHigh(widthBytes)
	yL, yH := lowHigh(height)
	frame = append(frame, xL, xH, yL, yH)

	for y := 0; y < height; y++ {
		for xByte := 0; xByte < widthBytes; xByte++ {
			var b byte
			for bit := 0; bit < 8; bit++ {
				x := xByte*8 + bit
				if x >= width {
					break
				}
				if isDark(img.At(bounds.Min.X+x, bounds.Min.Y+y)) {
					b |= 0x80 >> bit
				}
			}
			frame = append(frame, b)
		}
	}

	return frame
}

// DecodeRaster parses a GS v 0 frame back into its header and a 1-bit
// bitmap (black where the bit is set). The recovered width is the padded
// WidthBytes*8; the original unpadded width is not present in the frame.
func DecodeRaster(frame []byte) (RasterHeader, *image.Gray, error) {
	hdr, err := DecodeRasterHeader(frame)
	if err != nil {
		return RasterHeader{}, nil, err
	}

	data := frame[8:]
	if len(data) != hdr.WidthBytes*hdr.Height {
		return RasterHeader{}, nil, fmt.Errorf("%w: want %d data bytes, have %d",
			ErrBadFrame, hdr.WidthBytes*hdr.Height, len(data))
	}

	img := image.NewGray(image.Rect(0, 0, hdr.WidthBytes*8, hdr.Height))
	for y := 0; y < hdr.Height; y++ {
		row := data[y*hdr.WidthBytes : (y+1)*hdr.WidthBytes]
		for xByte, b := range row {
			for bit := 0; bit < 8; bit++ {
				v := uint8(0xff)
				if b&(0x80>>bit) != 0 {
					v = 0
				}
				img.SetGray(xByte*8+bit, y, color.Gray{Y: v})
			}
		}
	}

	return hdr, img, nil
}

// DecodeRasterHeader validates and decodes the fixed 8-byte frame header.
func DecodeRasterHeader(frame []byte) (RasterHeader, error) {
	if len(frame) < 8 {
		return RasterHeader{}, ErrShortFrame
	}
	if frame[0] != 0x1d || frame[1] != 0x76 || frame[2] != 0x30 {
		return RasterHeader{}, fmt.Errorf("%w: bad prefix % x", ErrBadFrame, frame[:3])
	}
	return RasterHeader{
		Mode:       frame[3],
		WidthBytes: int(frame[4]) | int(frame[5])<<8,
		Height:     int(frame[6]) | int(frame[7])<<8,
	}, nil
}

// isDark reports whether a pixel prints. The 1-bit convention is 0=black,
// 255=white; anything below mid gray marks.
func isDark(c color.Color) bool {
	return color.GrayModel.Convert(c).(color.Gray).Y < 0x80
}
