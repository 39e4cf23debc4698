package webserver

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/ichi0g0y/print-hole/internal/markdown"
	"github.com/ichi0g0y/print-hole/internal/output"
	"github.com/ichi0g0y/print-hole/internal/shared/logger"
	"github.com/ichi0g0y/print-hole/internal/status"
	"github.com/ichi0g0y/print-hole/internal/version"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type bluetoothDevice struct {
	MACAddress string    `json:"mac_address"`
	Name       string    `json:"name,omitempty"`
	LastSeen   time.Time `json:"last_seen"`
}

type scanResponse struct {
	Devices []bluetoothDevice `json:"devices"`
	Status  string            `json:"status"`
	Message string            `json:"message,omitempty"`
}

// handlePrinters lists the system (CUPS) printer queues.
func handlePrinters(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	printers, err := output.GetSystemPrinters()
	if err != nil {
		logger.Error("Failed to list system printers", zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if printers == nil {
		printers = []output.SystemPrinter{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"printers": printers})
}

// handlePrinterScan scans for Bluetooth printer devices.
func handlePrinterScan(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}

	logger.Info("Starting printer scan")

	resp := scanResponse{Devices: []bluetoothDevice{}, Status: "success"}

	devices, err := output.ScanBluetoothDevices(10 * time.Second)
	if err != nil {
		logger.Error("Device scan failed", zap.Error(err))
		resp.Status = "error"
		resp.Message = err.Error()
	} else {
		logger.Info("Device scan completed", zap.Int("device_count", len(devices)))
		for mac, name := range devices {
			resp.Devices = append(resp.Devices, bluetoothDevice{
				MACAddress: mac,
				Name:       name,
				LastSeen:   time.Now(),
			})
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

// testDocument is the short page printed by the connection test.
const testDocument = "# Print Hole\n\nPrinter connection test.\n\n---\n"

// handlePrinterTest prints a small test page. A plain POST runs it
// synchronously and replies with one JSON result; a WebSocket handshake
// (GET with upgrade headers, the only request shape gorilla accepts)
// streams per-step progress frames instead.
func handlePrinterTest(w http.ResponseWriter, r *http.Request) {
	commands, _ := markdown.Parse(testDocument, markdown.FontSizeSmall)
	job := output.PrintJob{Commands: commands, Force: true}

	if websocket.IsWebSocketUpgrade(r) {
		streamPrinterTest(w, r, job)
		return
	}

	if !requirePost(w, r) {
		return
	}

	if err := output.PrintDirect(job); err != nil {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"success": false,
			"message": err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "test page printed",
	})
}

func streamPrinterTest(w http.ResponseWriter, r *http.Request, job output.PrintJob) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("Failed to upgrade to WebSocket", zap.Error(err))
		return
	}
	defer conn.Close()

	sendProgress := func(step, state, detail string) {
		_ = conn.WriteJSON(map[string]interface{}{
			"step":      step,
			"status":    state,
			"detail":    detail,
			"timestamp": time.Now(),
		})
	}

	sendProgress("prepare", "starting", "Building test document")
	sendProgress("print", "running", "Sending test page to printer")

	if err := output.PrintDirect(job); err != nil {
		sendProgress("print", "error", err.Error())
		return
	}

	sendProgress("print", "done", "Test page printed")
}

// handleStatus reports printer connectivity and queue depth.
func handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"version":          version.Version,
		"printerConnected": status.IsPrinterConnected(),
		"lastPrintError":   status.LastPrintError(),
		"queueSize":        output.GetPrintQueueSize(),
	})
}
