package webserver

import (
	"encoding/json"
	"net/http"

	"github.com/ichi0g0y/print-hole/internal/escpos"
	"github.com/ichi0g0y/print-hole/internal/imageproc"
	"github.com/ichi0g0y/print-hole/internal/markdown"
	"github.com/ichi0g0y/print-hole/internal/output"
	"github.com/ichi0g0y/print-hole/internal/preview"
	"github.com/ichi0g0y/print-hole/internal/shared/logger"
	"go.uber.org/zap"
)

type printResponse struct {
	Success bool   `json:"success"`
	JobID   string `json:"jobId,omitempty"`
	Error   string `json:"error,omitempty"`
}

// handlePrint converts the request content into a print job and queues it.
// Text goes out as an ESC/POS command stream; images (and AI/draw content,
// which arrives as base64 image data) run through the raster pipeline.
func handlePrint(w http.ResponseWriter, r *http.Request) {
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
		writeJSON(w, http.StatusOK, printResponse{Success: false, Error: "no content to print"})
		return
	}

	var jobID string
	var err error

	switch req.Mode {
	case "text":
		size, perr := fontSizeOrDefault(req.FontSize)
		if perr != nil {
			writeError(w, http.StatusBadRequest, perr.Error())
			return
		}

		if req.Printer == string(output.PrinterTypeCUPS) {
			// Spooled queues take images only; rasterize the document.
			img, _, rerr := preview.Generate(req.Content, size, escpos.PrintWidthDots)
			if rerr != nil {
				writeError(w, http.StatusBadRequest, rerr.Error())
				return
			}
			jobID, err = output.EnqueueImage(img)
		} else {
			commands, _ := markdown.Parse(req.Content, size)
			jobID, err = output.EnqueueCommands(commands)
		}

	case "image", "ai", "draw":
		rotation, perr := rotationOrDefault(req.Rotation)
		if perr != nil {
			writeError(w, http.StatusBadRequest, perr.Error())
			return
		}
		if req.Mode == "draw" {
			rotation = imageproc.RotationOriginal
		}

		src, derr := imageproc.DecodeBase64Image(req.Content)
		if derr != nil {
			writeError(w, http.StatusBadRequest, derr.Error())
			return
		}

		processed, _, perr2 := imageproc.Process(src, rotation, escpos.PrintWidthDots)
		if perr2 != nil {
			writeError(w, http.StatusBadRequest, perr2.Error())
			return
		}

		jobID, err = output.EnqueueImage(processed)

	default:
		writeError(w, http.StatusBadRequest, "unknown mode: "+req.Mode)
		return
	}

	if err != nil {
		logger.Error("Failed to queue print job", zap.Error(err))
		writeJSON(w, http.StatusOK, printResponse{Success: false, Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, printResponse{Success: true, JobID: jobID})
}
