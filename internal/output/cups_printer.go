package output

import (
	"fmt"
	"image"
	"image/png"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/ichi0g0y/print-hole/internal/escpos"
	"github.com/ichi0g0y/print-hole/internal/markdown"
	"github.com/ichi0g0y/print-hole/internal/preview"
	"github.com/ichi0g0y/print-hole/internal/shared/logger"
	"go.uber.org/zap"
)

// printWidthMM is the printable width used to derive custom media sizes.
const printWidthMM = 72

// CUPSPrinter spools jobs through a named CUPS queue with lpr. The queue's
// driver only accepts images, so command streams are rasterized first.
type CUPSPrinter struct {
	printerName string
	config      PrinterConfig
	tempDir     string
}

// SystemPrinter describes one queue reported by lpstat.
type SystemPrinter struct {
	Name   string `json:"name"`
	Status string `json:"status"`
}

// NewCUPSPrinter validates the queue and prepares a temp directory.
func NewCUPSPrinter(config PrinterConfig) (*CUPSPrinter, error) {
	if config.CUPSPrinterName == "" {
		return nil, fmt.Errorf("CUPS printer name is required")
	}

	if !isSystemPrinterAvailable(config.CUPSPrinterName) {
		return nil, fmt.Errorf("printer %s not found in system", config.CUPSPrinterName)
	}

	tempDir := filepath.Join(os.TempDir(), "print-hole")
	if err := os.MkdirAll(tempDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %w", err)
	}

	logger.Info("CUPS printer initialized",
		zap.String("printer", config.CUPSPrinterName),
		zap.String("temp_dir", tempDir))

	return &CUPSPrinter{
		printerName: config.CUPSPrinterName,
		config:      config,
		tempDir:     tempDir,
	}, nil
}

// Connect only verifies the queue exists; lpr jobs need no session.
func (p *CUPSPrinter) Connect() error {
	if !isSystemPrinterAvailable(p.printerName) {
		return fmt.Errorf("printer %s is not available", p.printerName)
	}
	return nil
}

// PrintImage spools a bitmap through lpr with a media size matching the
// image aspect ratio.
func (p *CUPSPrinter) PrintImage(img image.Image) error {
	if !isSystemPrinterAvailable(p.printerName) {
		return fmt.Errorf("printer %s is not available", p.printerName)
	}

	finalImg := fitToPrintWidth(img)
	if p.config.RotatePrint {
		logger.Info("Rotating image 180 degrees for CUPS printer")
		finalImg = rotateImage180(finalImg)
	}

	tempFile := filepath.Join(p.tempDir, fmt.Sprintf("print_%d.png", time.Now().UnixNano()))
	f, err := os.Create(tempFile)
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tempFile)

	if err := png.Encode(f, finalImg); err != nil {
		f.Close()
		return fmt.Errorf("failed to encode image: %w", err)
	}
	f.Close()

	widthMM := printWidthMM
	heightMM := int(math.Ceil(float64(finalImg.Bounds().Dy()) * float64(printWidthMM) / float64(finalImg.Bounds().Dx())))

	cmd := exec.Command("lpr", "-P", p.printerName,
		"-o", fmt.Sprintf("media=Custom.%dx%dmm", widthMM, heightMM),
		tempFile)
	out, err := cmd.CombinedOutput()
	if err != nil {
		logger.Error("lpr command failed",
			zap.String("printer", p.printerName),
			zap.String("output", string(out)),
			zap.Error(err))
		return fmt.Errorf("lpr failed: %w (output: %s)", err, string(out))
	}

	logger.Info("CUPS print job sent",
		zap.String("printer", p.printerName),
		zap.Int("height_mm", heightMM))
	return nil
}

// PrintCommands rasterizes the stream and prints it as an image; CUPS
// queues cannot accept raw ESC/POS bytes. The stream carries its own style
// bytes, so rendering with the small base is faithful for any document.
func (p *CUPSPrinter) PrintCommands(commands []escpos.Command) error {
	img, _, err := preview.Render(commands, markdown.FontSizeSmall, escpos.PrintWidthDots)
	if err != nil {
		return fmt.Errorf("failed to rasterize command stream: %w", err)
	}
	return p.PrintImage(img)
}

// Disconnect is a no-op for spooled printing.
func (p *CUPSPrinter) Disconnect() error {
	return nil
}

func (p *CUPSPrinter) Type() PrinterType {
	return PrinterTypeCUPS
}

func (p *CUPSPrinter) IsConnected() bool {
	return isSystemPrinterAvailable(p.printerName)
}

func isSystemPrinterAvailable(name string) bool {
	return exec.Command("lpstat", "-p", name).Run() == nil
}

// GetSystemPrinters lists the queues CUPS knows about.
func GetSystemPrinters() ([]SystemPrinter, error) {
	out, err := exec.Command("lpstat", "-p").Output()
	if err != nil {
		return nil, fmt.Errorf("lpstat failed: %w", err)
	}

	// Lines look like "printer NAME is idle. ...".
	var printers []SystemPrinter
	for _, line := range strings.Split(string(out), "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "printer ") {
			continue
		}
		parts := strings.Fields(line)
		if len(parts) < 2 {
			continue
		}
		sp := SystemPrinter{Name: parts[1], Status: "unknown"}
		if len(parts) >= 4 {
			sp.Status = strings.Join(parts[2:], " ")
		}
		printers = append(printers, sp)
	}

	return printers, nil
}
