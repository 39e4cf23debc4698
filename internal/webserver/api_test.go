package webserver

import (
	"bytes"
	"encoding/json"
	"image"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/ichi0g0y/print-hole/internal/imageproc"
)

func postJSON(t *testing.T, handler http.HandlerFunc, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func testImageBase64(t *testing.T, w, h int) string {
	t.Helper()
	encoded, err := imageproc.EncodeBase64PNG(image.NewGray(image.Rect(0, 0, w, h)))
	if err != nil {
		t.Fatalf("encode test image: %v", err)
	}
	return encoded
}

func TestHandlePreviewText(t *testing.T) {
	rec := postJSON(t, handlePreview, map[string]string{
		"mode":     "text",
		"content":  "# Hello\n\nWorld",
		"fontSize": "small",
	})

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp previewResponse
	decodeBody(t, rec, &resp)
	if resp.Preview == "" {
		t.Fatal("preview image missing")
	}
	if resp.LengthInches <= 0 {
		t.Fatalf("lengthInches = %v, want > 0", resp.LengthInches)
	}
	if resp.Warning {
		t.Fatal("short document must not warn")
	}
	if _, err := imageproc.DecodeBase64Image(resp.Preview); err != nil {
		t.Fatalf("preview is not a decodable image: %v", err)
	}
}

func TestHandlePreviewDefaultsToText(t *testing.T) {
	rec := postJSON(t, handlePreview, map[string]string{"content": "plain line"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp previewResponse
	decodeBody(t, rec, &resp)
	if resp.Preview == "" {
		t.Fatal("preview image missing")
	}
}

func TestHandlePreviewEmptyContent(t *testing.T) {
	rec := postJSON(t, handlePreview, map[string]string{"mode": "text", "content": ""})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp previewResponse
	decodeBody(t, rec, &resp)
	if resp.Preview != "" || resp.LengthInches != 0 {
		t.Fatalf("empty content must produce the zero response, got %+v", resp)
	}
}

func TestHandlePreviewLongDocumentWarns(t *testing.T) {
	// 12in at 54 dots per line is ~45 lines; 120 paragraphs clears it.
	content := strings.Repeat("line of text\n\n", 120)
	rec := postJSON(t, handlePreview, map[string]string{"mode": "text", "content": content})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp previewResponse
	decodeBody(t, rec, &resp)
	if !resp.Warning {
		t.Fatalf("length %v inches must set the warning flag", resp.LengthInches)
	}
}

func TestHandlePreviewImage(t *testing.T) {
	rec := postJSON(t, handlePreview, map[string]string{
		"mode":     "image",
		"content":  testImageBase64(t, 64, 64),
		"rotation": "original",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp previewResponse
	decodeBody(t, rec, &resp)
	if resp.Preview == "" {
		t.Fatal("preview image missing")
	}

	processed, err := imageproc.DecodeBase64Image(resp.Preview)
	if err != nil {
		t.Fatalf("preview is not a decodable image: %v", err)
	}
	if got := processed.Bounds().Dx(); got != 576 {
		t.Fatalf("processed width = %d, want 576", got)
	}
}

func TestHandlePreviewAIMode(t *testing.T) {
	rec := postJSON(t, handlePreview, map[string]string{"mode": "ai", "content": "a cat"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp previewResponse
	decodeBody(t, rec, &resp)
	if resp.Message == "" {
		t.Fatal("ai mode must return a guidance message")
	}
}

func TestHandlePreviewValidation(t *testing.T) {
	tests := []struct {
		name string
		body map[string]string
	}{
		{name: "unknown mode", body: map[string]string{"mode": "video", "content": "x"}},
		{name: "unknown font size", body: map[string]string{"mode": "text", "content": "x", "fontSize": "huge"}},
		{name: "unknown rotation", body: map[string]string{"mode": "image", "content": "x", "rotation": "diagonal"}},
		{name: "bad image data", body: map[string]string{"mode": "image", "content": "!!!"}},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			rec := postJSON(t, handlePreview, tc.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}
		})
	}
}

func TestHandlePreviewRejectsGet(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	handlePreview(rec, req)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", rec.Code)
	}
}

func TestHandlePreviewBadJSON(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	handlePreview(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestHandlePrintEmptyContent(t *testing.T) {
	rec := postJSON(t, handlePrint, map[string]string{"mode": "text", "content": ""})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp printResponse
	decodeBody(t, rec, &resp)
	if resp.Success {
		t.Fatal("empty content must not report success")
	}
	if resp.Error == "" {
		t.Fatal("empty content must carry an error message")
	}
}

func TestHandlePrintValidation(t *testing.T) {
	tests := []struct {
		name string
		body map[string]string
	}{
		{name: "unknown mode", body: map[string]string{"mode": "video", "content": "x"}},
		{name: "unknown font size", body: map[string]string{"mode": "text", "content": "x", "fontSize": "giant"}},
		{name: "bad image data", body: map[string]string{"mode": "image", "content": "!!!"}},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			rec := postJSON(t, handlePrint, tc.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}
		})
	}
}

func TestHandlePrintQueueNotInitialized(t *testing.T) {
	// The queue worker is only started by main; enqueueing without it must
	// fail cleanly rather than block.
	rec := postJSON(t, handlePrint, map[string]string{"mode": "text", "content": "hello"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp printResponse
	decodeBody(t, rec, &resp)
	if resp.Success {
		t.Fatal("print without an initialized queue must not report success")
	}
}

func TestHandleQRPreview(t *testing.T) {
	rec := postJSON(t, handleQR, map[string]interface{}{
		"content": "https://example.com",
		"size":    200,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp qrResponse
	decodeBody(t, rec, &resp)
	if resp.Preview == "" {
		t.Fatal("preview image missing")
	}
	if resp.JobID != "" {
		t.Fatal("preview-only request must not queue a job")
	}

	img, err := imageproc.DecodeBase64Image(resp.Preview)
	if err != nil {
		t.Fatalf("preview is not a decodable image: %v", err)
	}
	if got := img.Bounds().Dx(); got != 200 {
		t.Fatalf("QR width = %d, want 200", got)
	}
}

func TestHandleQREmptyContent(t *testing.T) {
	rec := postJSON(t, handleQR, map[string]string{"content": "   "})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestHandleStatus(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	handleStatus(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var resp map[string]interface{}
	decodeBody(t, rec, &resp)
	for _, key := range []string{"version", "printerConnected", "lastPrintError", "queueSize"} {
		if _, ok := resp[key]; !ok {
			t.Fatalf("response missing %q", key)
		}
	}
}

func TestHandlePrinterTestPost(t *testing.T) {
	// No printer is configured in tests, so the synchronous path must
	// report the failure in the JSON body, not hang or 500.
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	rec := httptest.NewRecorder()
	handlePrinterTest(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	decodeBody(t, rec, &resp)
	if resp.Success {
		t.Fatal("test print without a configured printer must not report success")
	}
	if resp.Message == "" {
		t.Fatal("failure must carry a message")
	}
}

func TestHandlePrinterTestWebSocket(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(handlePrinterTest))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("WebSocket handshake failed: %v", err)
	}
	defer conn.Close()
	if resp.StatusCode != http.StatusSwitchingProtocols {
		t.Fatalf("handshake status = %d, want 101", resp.StatusCode)
	}

	var frames []struct {
		Step   string `json:"step"`
		Status string `json:"status"`
		Detail string `json:"detail"`
	}
	for i := 0; i < 3; i++ {
		var frame struct {
			Step   string `json:"step"`
			Status string `json:"status"`
			Detail string `json:"detail"`
		}
		if err := conn.ReadJSON(&frame); err != nil {
			t.Fatalf("reading frame %d: %v", i, err)
		}
		frames = append(frames, frame)
	}

	if frames[0].Step != "prepare" || frames[0].Status != "starting" {
		t.Fatalf("first frame = %+v", frames[0])
	}
	if frames[1].Step != "print" || frames[1].Status != "running" {
		t.Fatalf("second frame = %+v", frames[1])
	}
	// No printer is configured, so the final frame reports the failure.
	if frames[2].Step != "print" || frames[2].Status != "error" {
		t.Fatalf("final frame = %+v", frames[2])
	}
	if frames[2].Detail == "" {
		t.Fatal("error frame must carry a detail message")
	}
}

func TestCORSPreflight(t *testing.T) {
	called := false
	handler := corsMiddleware(func(w http.ResponseWriter, r *http.Request) { called = true })

	req := httptest.NewRequest(http.MethodOptions, "/", nil)
	rec := httptest.NewRecorder()
	handler(rec, req)

	if called {
		t.Fatal("OPTIONS must short-circuit before the handler")
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("Allow-Origin = %q, want *", got)
	}
}
