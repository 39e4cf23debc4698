package output

import (
	"fmt"
	"image"
	"time"

	"git.massivebox.net/massivebox/go-catprinter"
	"github.com/ichi0g0y/print-hole/internal/escpos"
	"github.com/ichi0g0y/print-hole/internal/markdown"
	"github.com/ichi0g0y/print-hole/internal/preview"
	"github.com/ichi0g0y/print-hole/internal/shared/logger"
	"go.uber.org/zap"
)

// BluetoothPrinter drives a BLE cat printer through its vendor driver.
// The driver takes whole images; command streams are rasterized first.
type BluetoothPrinter struct {
	client    *catprinter.Client
	opts      *catprinter.PrinterOptions
	address   string
	connected bool
	config    PrinterConfig
}

// NewBluetoothPrinter validates the config and returns an unconnected
// backend.
func NewBluetoothPrinter(config PrinterConfig) (*BluetoothPrinter, error) {
	if config.BluetoothAddress == "" {
		return nil, fmt.Errorf("bluetooth address is required")
	}
	return &BluetoothPrinter{address: config.BluetoothAddress, config: config}, nil
}

// Connect resets any stale client and establishes a fresh BLE session.
func (p *BluetoothPrinter) Connect() error {
	if p.client != nil {
		logger.Info("Resetting printer client for new connection")
		if p.connected {
			p.client.Disconnect()
			p.connected = false
		}
		p.client.Stop()
		p.client = nil

		// Wait for the BLE stack to release the device.
		time.Sleep(2000 * time.Millisecond)
	}

	instance, err := catprinter.NewClient()
	if err != nil {
		return fmt.Errorf("failed to create catprinter client: %w", err)
	}
	p.client = instance

	p.opts = catprinter.NewOptions().
		SetBestQuality(p.config.BestQuality).
		SetDither(p.config.Dither).
		SetAutoRotate(p.config.AutoRotate).
		SetBlackPoint(p.config.BlackPoint)

	logger.Info("Connecting to Bluetooth printer", zap.String("address", p.address))
	if err := p.client.Connect(p.address); err != nil {
		return fmt.Errorf("failed to connect to printer: %w", err)
	}

	// Let MTU / connection-interval negotiation settle before printing.
	time.Sleep(1000 * time.Millisecond)

	p.connected = true
	logger.Info("Successfully connected to Bluetooth printer")
	return nil
}

// PrintImage prints a bitmap through the vendor driver.
func (p *BluetoothPrinter) PrintImage(img image.Image) error {
	if !p.connected || p.client == nil {
		return fmt.Errorf("printer not connected")
	}

	finalImg := img
	if p.config.RotatePrint {
		logger.Info("Rotating image 180 degrees")
		finalImg = rotateImage180(img)
	}

	logger.Info("Printing to Bluetooth printer")
	if err := p.client.Print(finalImg, p.opts, false); err != nil {
		return fmt.Errorf("failed to print: %w", err)
	}

	// Cat printers are slow (~10mm/s); wait for the paper to actually
	// come out before tearing the session down.
	height := finalImg.Bounds().Dy()
	waitSec := 2 + height/60
	if waitSec < 3 {
		waitSec = 3
	}
	logger.Info("Print finished, waiting for stabilization",
		zap.Int("height_px", height),
		zap.Int("wait_seconds", waitSec))
	time.Sleep(time.Duration(waitSec) * time.Second)

	return nil
}

// PrintCommands rasterizes the stream; the BLE driver has no raw ESC/POS
// path.
func (p *BluetoothPrinter) PrintCommands(commands []escpos.Command) error {
	img, _, err := preview.Render(commands, markdown.FontSizeSmall, escpos.PrintWidthDots)
	if err != nil {
		return fmt.Errorf("failed to rasterize command stream: %w", err)
	}
	return p.PrintImage(img)
}

// Disconnect tears down the BLE session and releases the device.
func (p *BluetoothPrinter) Disconnect() error {
	if p.client != nil {
		if p.connected {
			logger.Info("Disconnecting Bluetooth printer")
			p.client.Disconnect()
			p.connected = false
		}
		p.client.Stop()
		p.client = nil
	}
	return nil
}

func (p *BluetoothPrinter) Type() PrinterType {
	return PrinterTypeBluetooth
}

func (p *BluetoothPrinter) IsConnected() bool {
	return p.connected
}

// ScanBluetoothDevices runs a standalone scan with an independent client,
// leaving any active print session untouched.
func ScanBluetoothDevices(timeout time.Duration) (map[string]string, error) {
	c, err := catprinter.NewClient()
	if err != nil {
		return nil, fmt.Errorf("failed to create scanner client: %w", err)
	}
	defer c.Stop()

	c.Timeout = timeout
	devices, err := c.ScanDevices("")
	if err != nil {
		return nil, fmt.Errorf("device scan failed: %w", err)
	}

	found := make(map[string]string, len(devices))
	for mac, name := range devices {
		found[mac] = string(name)
	}
	return found, nil
}
