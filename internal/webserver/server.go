package webserver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/ichi0g0y/print-hole/internal/shared/logger"
	"go.uber.org/zap"
)

var httpServer *http.Server

// corsMiddleware adds CORS headers to HTTP handlers
func corsMiddleware(handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		handler(w, r)
	}
}

// StartWebServer registers routes and starts listening. Non-blocking; the
// listener runs on its own goroutine.
func StartWebServer(port int) error {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/preview", corsMiddleware(handlePreview))
	mux.HandleFunc("/api/print", corsMiddleware(handlePrint))
	mux.HandleFunc("/api/generate", corsMiddleware(handleGenerate))
	mux.HandleFunc("/api/qr", corsMiddleware(handleQR))
	mux.HandleFunc("/api/printers", corsMiddleware(handlePrinters))
	mux.HandleFunc("/api/printer/scan", corsMiddleware(handlePrinterScan))
	mux.HandleFunc("/api/printer/test", corsMiddleware(handlePrinterTest))
	mux.HandleFunc("/api/settings", corsMiddleware(handleSettings))
	mux.HandleFunc("/api/status", corsMiddleware(handleStatus))

	httpServer = &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: mux,
	}

	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Web server terminated", zap.Error(err))
		}
	}()

	logger.Info("Web server started", zap.Int("port", port))
	return nil
}

// Shutdown stops the listener gracefully.
func Shutdown() {
	if httpServer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Warn("Web server shutdown error", zap.Error(err))
	}
	httpServer = nil
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Failed to encode JSON response", zap.Error(err))
	}
}

// writeError writes the error JSON shape shared by all endpoints.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// requirePost rejects anything but POST.
func requirePost(w http.ResponseWriter, r *http.Request) bool {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	return true
}
