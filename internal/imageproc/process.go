// Package imageproc normalizes arbitrary input images into the printer's
// fixed-width 1-bit raster format: orientation policy, Lanczos resize,
// grayscale and Floyd-Steinberg dithering.
package imageproc

import (
	"errors"
	"fmt"
	"image"
	"image/draw"
	"strings"

	"github.com/MaxHalford/halfgone"
	"github.com/disintegration/imaging"
	"github.com/ichi0g0y/print-hole/internal/escpos"
)

// RotationMode is the orientation policy applied before scaling.
type RotationMode string

const (
	// RotationAuto rotates landscape sources 90 degrees so the longer
	// dimension runs along the paper length.
	RotationAuto RotationMode = "auto"
	// RotationOriginal applies no transform.
	RotationOriginal RotationMode = "original"
	// RotationSquare center-crops to the largest centered square.
	RotationSquare RotationMode = "square"
)

var (
	// ErrUnknownRotation reports a rotation mode outside the closed enum.
	ErrUnknownRotation = errors.New("imageproc: unknown rotation mode")
	// ErrEmptyImage reports a zero-sized input image.
	ErrEmptyImage = errors.New("imageproc: empty image")
	// ErrInvalidTargetWidth reports a non-positive target width.
	ErrInvalidTargetWidth = errors.New("imageproc: target width must be positive")
)

// ParseRotationMode validates a rotation string from an untrusted boundary.
func ParseRotationMode(s string) (RotationMode, error) {
	switch RotationMode(strings.ToLower(s)) {
	case RotationAuto, RotationOriginal, RotationSquare:
		return RotationMode(strings.ToLower(s)), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownRotation, s)
}

// Process converts an input image into the printer's 1-bit raster format
// and reports the resulting print length in inches.
func Process(img image.Image, rotation RotationMode, targetWidth int) (*image.Gray, float64, error) {
	if targetWidth <= 0 {
		return nil, 0, ErrInvalidTargetWidth
	}
	if img == nil || img.Bounds().Dx() == 0 || img.Bounds().Dy() == 0 {
		return nil, 0, ErrEmptyImage
	}

	// Transparency prints as black on thermal paper, so composite any
	// alpha channel onto an opaque white background first.
	flat := flattenOnWhite(img)

	switch rotation {
	case RotationSquare:
		side := flat.Bounds().Dx()
		if h := flat.Bounds().Dy(); h < side {
			side = h
		}
		flat = imaging.CropCenter(flat, side, side)
	case RotationAuto:
		if flat.Bounds().Dx() > flat.Bounds().Dy() {
			flat = imaging.Rotate90(flat)
		}
	case RotationOriginal:
		// no transform
	default:
		return nil, 0, fmt.Errorf("%w: %q", ErrUnknownRotation, rotation)
	}

	if flat.Bounds().Dx() != targetWidth {
		flat = imaging.Resize(flat, targetWidth, 0, imaging.Lanczos)
	}

	gray := halfgone.ImageToGray(imaging.Grayscale(flat))
	mono := halfgone.FloydSteinbergDitherer{}.Apply(gray)

	length := float64(mono.Bounds().Dy()) / escpos.DPI
	return mono, length, nil
}

// flattenOnWhite composites img onto an opaque white background, converting
// paletted and alpha-carrying modes to full color in the process.
func flattenOnWhite(img image.Image) *image.NRGBA {
	bounds := img.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(dst, dst.Bounds(), image.White, image.Point{}, draw.Src)
	draw.Draw(dst, dst.Bounds(), img, bounds.Min, draw.Over)
	return dst
}
