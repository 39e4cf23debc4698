package output

import (
	"fmt"
	"image"
	"os"
	"time"

	"github.com/ichi0g0y/print-hole/internal/escpos"
	"github.com/ichi0g0y/print-hole/internal/shared/logger"
	"go.uber.org/zap"
)

// writeChunkSize and interChunkDelay pace bulk writes; flooding the device
// endpoint causes banding on long raster jobs.
const (
	writeChunkSize  = 20000
	interChunkDelay = 10 * time.Millisecond
)

// USBPrinter writes ESC/POS bytes directly to the printer's character
// device (usblp), avoiding any driver-side image reprocessing.
type USBPrinter struct {
	devicePath string
	config     PrinterConfig
	device     *os.File
}

// NewUSBPrinter validates the config and returns an unconnected backend.
func NewUSBPrinter(config PrinterConfig) (*USBPrinter, error) {
	if config.DevicePath == "" {
		return nil, fmt.Errorf("USB device path is required")
	}
	return &USBPrinter{devicePath: config.DevicePath, config: config}, nil
}

// Connect opens the device node for writing.
func (p *USBPrinter) Connect() error {
	if p.device != nil {
		return nil
	}

	f, err := os.OpenFile(p.devicePath, os.O_WRONLY, 0)
	if err != nil {
		return fmt.Errorf("failed to open printer device %s: %w (check USB connection and permissions, or configure vendor/product id 0x%04x:0x%04x)",
			p.devicePath, err, p.config.VendorID, p.config.ProductID)
	}

	p.device = f
	logger.Info("USB printer device opened", zap.String("device", p.devicePath))
	return nil
}

// PrintImage prints a bitmap via the GS v 0 raster command.
func (p *USBPrinter) PrintImage(img image.Image) error {
	if p.device == nil {
		return fmt.Errorf("printer not connected")
	}

	finalImg := fitToPrintWidth(img)
	if p.config.RotatePrint {
		logger.Info("Rotating image 180 degrees for USB printer")
		finalImg = rotateImage180(finalImg)
	}

	logger.Info("Printing raster image via USB",
		zap.Int("width", finalImg.Bounds().Dx()),
		zap.Int("height", finalImg.Bounds().Dy()))

	return p.write(buildImagePayload(finalImg, true))
}

// PrintCommands sends a styled text job as raw ESC/POS bytes.
func (p *USBPrinter) PrintCommands(commands []escpos.Command) error {
	if p.device == nil {
		return fmt.Errorf("printer not connected")
	}

	logger.Info("Printing command stream via USB", zap.Int("commands", len(commands)))
	return p.write(buildCommandPayload(commands, true))
}

// write sends data in paced chunks.
func (p *USBPrinter) write(data []byte) error {
	for off := 0; off < len(data); off += writeChunkSize {
		end := off + writeChunkSize
		if end > len(data) {
			end = len(data)
		}
		if _, err := p.device.Write(data[off:end]); err != nil {
			return fmt.Errorf("failed to write to printer: %w", err)
		}
		if end < len(data) {
			time.Sleep(interChunkDelay)
		}
	}
	return nil
}

// Disconnect closes the device node.
func (p *USBPrinter) Disconnect() error {
	if p.device == nil {
		return nil
	}
	err := p.device.Close()
	p.device = nil
	return err
}

func (p *USBPrinter) Type() PrinterType {
	return PrinterTypeUSB
}

func (p *USBPrinter) IsConnected() bool {
	return p.device != nil
}
