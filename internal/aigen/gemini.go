// Package aigen generates clip-art style images from text prompts using
// the Gemini REST API, for direct feeding into the print pipeline.
package aigen

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	_ "image/png" // generated images arrive as PNG
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/ichi0g0y/print-hole/internal/shared/logger"
	"go.uber.org/zap"
)

const (
	geminiEndpoint = "https://generativelanguage.googleapis.com/v1beta/models/%s:generateContent"
	defaultModel   = "gemini-2.5-flash-image"
	requestTimeout = 60 * time.Second
)

var (
	// ErrEmptyPrompt reports a blank prompt; surfaced as 400 by the API.
	ErrEmptyPrompt = errors.New("aigen: prompt cannot be empty")
	// ErrMissingAPIKey reports an unconfigured Gemini key.
	ErrMissingAPIKey = errors.New("aigen: Gemini API key not configured")
)

// promptTemplate steers output towards bold line art; gradients band badly
// on thermal paper.
const promptTemplate = "Create a simple black and white clip-art style illustration: %s. " +
	"Use bold black lines on white background, high contrast, no gradients, " +
	"simple shapes, suitable for thermal printing."

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []requestPart `json:"parts"`
}

type requestPart struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text       string `json:"text,omitempty"`
				InlineData *struct {
					MimeType string `json:"mimeType"`
					Data     string `json:"data"`
				} `json:"inlineData,omitempty"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// GenerateImage produces a grayscale image from a text prompt.
func GenerateImage(apiKey, prompt string) (image.Image, error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, ErrEmptyPrompt
	}
	if strings.TrimSpace(apiKey) == "" {
		return nil, ErrMissingAPIKey
	}

	payload, err := json.Marshal(generateRequest{
		Contents: []content{{Parts: []requestPart{{
			Text: fmt.Sprintf(promptTemplate, strings.TrimSpace(prompt)),
		}}}},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf(geminiEndpoint, defaultModel)
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", apiKey)

	client := &http.Client{Timeout: requestTimeout}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("image generation request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
		// fall through to parsing
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, fmt.Errorf("invalid Gemini API key")
	case http.StatusTooManyRequests:
		return nil, fmt.Errorf("Gemini API quota exceeded, try again later")
	default:
		logger.Error("Gemini API error",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", body))
		return nil, fmt.Errorf("image generation failed: HTTP %d", resp.StatusCode)
	}

	var parsed generateResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if parsed.Error != nil {
		return nil, fmt.Errorf("image generation failed: %s", parsed.Error.Message)
	}

	for _, cand := range parsed.Candidates {
		for _, part := range cand.Content.Parts {
			if part.Text != "" {
				logger.Debug("Gemini text part", zap.String("text", part.Text))
			}
			if part.InlineData == nil {
				continue
			}
			raw, err := base64.StdEncoding.DecodeString(part.InlineData.Data)
			if err != nil {
				return nil, fmt.Errorf("failed to decode inline image data: %w", err)
			}
			img, _, err := image.Decode(bytes.NewReader(raw))
			if err != nil {
				return nil, fmt.Errorf("failed to decode generated image: %w", err)
			}
			// Grayscale now; the print pipeline handles the 1-bit step.
			return imaging.Grayscale(img), nil
		}
	}

	return nil, fmt.Errorf("no image was generated")
}
