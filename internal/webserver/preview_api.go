package webserver

import (
	"encoding/json"
	"math"
	"net/http"

	"github.com/ichi0g0y/print-hole/internal/escpos"
	"github.com/ichi0g0y/print-hole/internal/imageproc"
	"github.com/ichi0g0y/print-hole/internal/markdown"
	"github.com/ichi0g0y/print-hole/internal/preview"
	"github.com/ichi0g0y/print-hole/internal/shared/logger"
	"go.uber.org/zap"
)

// previewRequest is the shared request shape for preview and print.
type previewRequest struct {
	Mode     string `json:"mode"`     // "text" | "image" | "ai" | "draw"
	Content  string `json:"content"`  // markdown text or base64 image
	FontSize string `json:"fontSize"` // text mode
	Rotation string `json:"rotation"` // image mode
	Printer  string `json:"printer"`  // print only; overrides configured type
}

type previewResponse struct {
	Preview      string  `json:"preview"`
	LengthInches float64 `json:"lengthInches"`
	Warning      bool    `json:"warning"`
	Message      string  `json:"message,omitempty"`
}

// fontSizeOrDefault resolves the fontSize field: absent/blank falls back
// to small, an explicit unknown value is a client error.
func fontSizeOrDefault(s string) (markdown.FontSize, error) {
	if s == "" {
		return markdown.FontSizeSmall, nil
	}
	return markdown.ParseFontSize(s)
}

func rotationOrDefault(s string) (imageproc.RotationMode, error) {
	if s == "" {
		return imageproc.RotationAuto, nil
	}
	return imageproc.ParseRotationMode(s)
}

func roundLength(inches float64) float64 {
	return math.Round(inches*100) / 100
}

// handlePreview renders text or image content into a preview bitmap
// without touching the printer.
func handlePreview(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}

	var req previewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Mode == "" {
		req.Mode = "text"
	}

	if req.Content == "" {
		writeJSON(w, http.StatusOK, previewResponse{})
		return
	}

	switch req.Mode {
	case "text":
		size, err := fontSizeOrDefault(req.FontSize)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		img, length, err := preview.Generate(req.Content, size, escpos.PrintWidthDots)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		encoded, err := imageproc.EncodeBase64PNG(img)
		if err != nil {
			logger.Error("Failed to encode preview", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to encode preview")
			return
		}

		writeJSON(w, http.StatusOK, previewResponse{
			Preview:      encoded,
			LengthInches: roundLength(length),
			Warning:      length > escpos.MaxLengthInches,
		})

	case "image", "draw":
		rotation, err := rotationOrDefault(req.Rotation)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if req.Mode == "draw" {
			// Canvas drawings keep their orientation.
			rotation = imageproc.RotationOriginal
		}

		src, err := imageproc.DecodeBase64Image(req.Content)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		processed, length, err := imageproc.Process(src, rotation, escpos.PrintWidthDots)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		encoded, err := imageproc.EncodeBase64PNG(processed)
		if err != nil {
			logger.Error("Failed to encode preview", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to encode preview")
			return
		}

		writeJSON(w, http.StatusOK, previewResponse{
			Preview:      encoded,
			LengthInches: roundLength(length),
			Warning:      length > escpos.MaxLengthInches,
		})

	case "ai":
		// AI images are previewed after generation via /api/generate.
		writeJSON(w, http.StatusOK, previewResponse{
			Message: "Click Generate to create an image from your prompt",
		})

	default:
		writeError(w, http.StatusBadRequest, "unknown mode: "+req.Mode)
	}
}
