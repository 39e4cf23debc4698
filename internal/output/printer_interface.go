package output

import (
	"image"

	"github.com/ichi0g0y/print-hole/internal/escpos"
)

// PrinterType identifies a transport variant.
type PrinterType string

const (
	// PrinterTypeUSB writes ESC/POS bytes straight to a character device.
	PrinterTypeUSB PrinterType = "usb"
	// PrinterTypeCUPS spools rendered images through an lpr queue.
	PrinterTypeCUPS PrinterType = "cups"
	// PrinterTypeBluetooth drives a BLE cat printer via its vendor driver.
	PrinterTypeBluetooth PrinterType = "bluetooth"
)

// PrinterBackend is the capability interface every transport implements.
// The pipeline produces a finished command stream or bitmap synchronously
// and hands it off here; retry policy lives with the caller (the queue
// worker), never inside the core.
type PrinterBackend interface {
	// Connect prepares the transport.
	Connect() error

	// PrintImage prints a processed bitmap via the raster protocol.
	PrintImage(img image.Image) error

	// PrintCommands prints an ordered ESC/POS command stream. Backends
	// without a raw byte path rasterize the stream instead.
	PrintCommands(commands []escpos.Command) error

	// Disconnect releases the transport.
	Disconnect() error

	// Type returns the transport variant.
	Type() PrinterType

	// IsConnected reports transport readiness.
	IsConnected() bool
}

// PrinterConfig carries everything a backend needs to construct itself.
type PrinterConfig struct {
	Type PrinterType

	// USB (direct device)
	DevicePath string
	VendorID   uint16
	ProductID  uint16

	// CUPS
	CUPSPrinterName string

	// Bluetooth
	BluetoothAddress string
	BestQuality      bool
	Dither           bool
	AutoRotate       bool
	BlackPoint       float32

	// Common
	RotatePrint bool
}
