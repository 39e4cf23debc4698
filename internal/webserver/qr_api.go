package webserver

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/ichi0g0y/print-hole/internal/escpos"
	"github.com/ichi0g0y/print-hole/internal/imageproc"
	"github.com/ichi0g0y/print-hole/internal/output"
	qrcode "github.com/skip2/go-qrcode"
)

type qrRequest struct {
	Content string `json:"content"`
	Size    int    `json:"size"`  // QR module size in pixels, default 384
	Print   bool   `json:"print"` // queue a print in addition to the preview
}

type qrResponse struct {
	Preview      string  `json:"preview"`
	LengthInches float64 `json:"lengthInches"`
	JobID        string  `json:"jobId,omitempty"`
}

// handleQR renders a QR code, runs it through the print pipeline and
// optionally queues it for printing.
func handleQR(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}

	var req qrRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	if strings.TrimSpace(req.Content) == "" {
		writeError(w, http.StatusBadRequest, "content cannot be empty")
		return
	}

	size := req.Size
	if size <= 0 {
		size = 384
	}
	if size > escpos.PrintWidthDots {
		size = escpos.PrintWidthDots
	}

	qr, err := qrcode.New(req.Content, qrcode.Medium)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to build QR code: "+err.Error())
		return
	}

	// Keep the code at its native size; scaling up to print width would
	// just fatten the modules.
	processed, length, err := imageproc.Process(qr.Image(size), imageproc.RotationOriginal, size)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	encoded, err := imageproc.EncodeBase64PNG(processed)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to encode preview")
		return
	}

	resp := qrResponse{Preview: encoded, LengthInches: roundLength(length)}

	if req.Print {
		jobID, err := output.EnqueueImage(processed)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		resp.JobID = jobID
	}

	writeJSON(w, http.StatusOK, resp)
}
