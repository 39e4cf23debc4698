package webserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/ichi0g0y/print-hole/internal/aigen"
	"github.com/ichi0g0y/print-hole/internal/env"
	"github.com/ichi0g0y/print-hole/internal/escpos"
	"github.com/ichi0g0y/print-hole/internal/imageproc"
	"github.com/ichi0g0y/print-hole/internal/shared/logger"
	"go.uber.org/zap"
)

type generateRequest struct {
	Prompt   string `json:"prompt"`
	Rotation string `json:"rotation"`
}

type generateResponse struct {
	Image        string  `json:"image"`   // raw generated image
	Preview      string  `json:"preview"` // processed for printing
	LengthInches float64 `json:"lengthInches"`
	Warning      bool    `json:"warning"`
}

// handleGenerate creates an image from a text prompt and returns both the
// raw result and the print-processed preview.
func handleGenerate(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}

	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	if strings.TrimSpace(req.Prompt) == "" {
		writeError(w, http.StatusBadRequest, "prompt cannot be empty")
		return
	}

	rotation, err := rotationOrDefault(req.Rotation)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	img, err := aigen.GenerateImage(env.Value.GeminiAPIKey, req.Prompt)
	if err != nil {
		if errors.Is(err, aigen.ErrEmptyPrompt) || errors.Is(err, aigen.ErrMissingAPIKey) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		logger.Error("Image generation failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	rawEncoded, err := imageproc.EncodeBase64PNG(img)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to encode generated image")
		return
	}

	processed, length, err := imageproc.Process(img, rotation, escpos.PrintWidthDots)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	previewEncoded, err := imageproc.EncodeBase64PNG(processed)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to encode preview")
		return
	}

	writeJSON(w, http.StatusOK, generateResponse{
		Image:        rawEncoded,
		Preview:      previewEncoded,
		LengthInches: roundLength(length),
		Warning:      length > escpos.MaxLengthInches,
	})
}
