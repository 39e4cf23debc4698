package imageproc

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/png"
	"strings"

	// Register the containers accepted over the API.
	_ "image/gif"
	_ "image/jpeg"
)

// ErrInvalidImageData reports base64 payloads that do not decode into a
// supported image container.
var ErrInvalidImageData = errors.New("imageproc: invalid image data")

// DecodeBase64Image decodes a base64-encoded image, stripping a leading
// "data:...;base64," prefix when present.
func DecodeBase64Image(encoded string) (image.Image, error) {
	if idx := strings.Index(encoded, ","); idx >= 0 && strings.HasPrefix(encoded, "data:") {
		encoded = encoded[idx+1:]
	}

	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(encoded))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImageData, err)
	}

	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImageData, err)
	}
	return img, nil
}

// EncodeBase64PNG encodes an image as a base64 PNG string (no data URL
// prefix), the transfer format used across the HTTP boundary.
func EncodeBase64PNG(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("failed to encode png: %w", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
