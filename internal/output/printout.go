package output

import (
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/ichi0g0y/print-hole/internal/env"
	"github.com/ichi0g0y/print-hole/internal/escpos"
	"github.com/ichi0g0y/print-hole/internal/shared/logger"
	"github.com/ichi0g0y/print-hole/internal/status"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"go.uber.org/zap"
)

// PrintJob carries either a processed bitmap or a command stream; exactly
// one of Image/Commands is set.
type PrintJob struct {
	ID       string
	Image    image.Image
	Commands []escpos.Command
	Force    bool // print even in dry-run mode
}

const (
	printQueueSize = 100
	retryDelay     = 5 * time.Second
	maxJobRetries  = 3
)

var (
	printQueue    chan PrintJob
	queueOnce     sync.Once
	printerMutex  sync.Mutex
	lastPrintTime time.Time
	lastPrintMu   sync.Mutex
)

// InitializePrinter starts the print queue worker. Call from main() after
// env.Value is loaded.
func InitializePrinter() {
	queueOnce.Do(func() {
		printQueue = make(chan PrintJob, printQueueSize)
		lastPrintTime = time.Now()
		go printWorker()

		logger.Info("Printer subsystem initialized",
			zap.String("printer_type", env.Value.PrinterType),
			zap.Bool("dry_run", env.Value.DryRunMode))
	})
}

// createPrinterBackend builds a backend from the current configuration.
func createPrinterBackend() (PrinterBackend, error) {
	config := PrinterConfig{
		Type:             PrinterType(env.Value.PrinterType),
		DevicePath:       env.Value.USBDevicePath,
		VendorID:         env.Value.VendorID,
		ProductID:        env.Value.ProductID,
		CUPSPrinterName:  env.Value.CUPSPrinterName,
		BluetoothAddress: stringValue(env.Value.PrinterAddress),
		BestQuality:      env.Value.BestQuality,
		Dither:           env.Value.Dither,
		AutoRotate:       env.Value.AutoRotate,
		BlackPoint:       env.Value.BlackPoint,
		RotatePrint:      env.Value.RotatePrint,
	}

	switch config.Type {
	case PrinterTypeUSB:
		return NewUSBPrinter(config)
	case PrinterTypeCUPS:
		return NewCUPSPrinter(config)
	case PrinterTypeBluetooth:
		if config.BluetoothAddress == "" {
			return nil, fmt.Errorf("bluetooth address not configured")
		}
		return NewBluetoothPrinter(config)
	default:
		return nil, fmt.Errorf("unknown printer type: %s", config.Type)
	}
}

func stringValue(ptr *string) string {
	if ptr == nil {
		return ""
	}
	return *ptr
}

// printWorker drains the queue. Every job gets a fresh
// connect-print-disconnect cycle so no stale transport state leaks between
// jobs.
func printWorker() {
	for job := range printQueue {
		processJob(job)
	}
}

func processJob(job PrintJob) {
	for attempt := 1; attempt <= maxJobRetries; attempt++ {
		if err := runJob(job); err != nil {
			logger.Error("Print job failed",
				zap.String("job_id", job.ID),
				zap.Int("attempt", attempt),
				zap.Error(err))
			status.SetLastPrintError(err.Error())
			if attempt < maxJobRetries {
				time.Sleep(retryDelay)
			}
			continue
		}

		lastPrintMu.Lock()
		lastPrintTime = time.Now()
		lastPrintMu.Unlock()
		return
	}

	logger.Error("Print job dropped after retries", zap.String("job_id", job.ID))
}

func runJob(job PrintJob) error {
	printerMutex.Lock()
	defer printerMutex.Unlock()

	if !job.Force && env.Value.DryRunMode {
		logger.Info("Dry-run mode: skipping actual printing", zap.String("job_id", job.ID))
		return nil
	}

	backend, err := createPrinterBackend()
	if err != nil {
		return fmt.Errorf("failed to create printer backend: %w", err)
	}

	if err := backend.Connect(); err != nil {
		status.SetPrinterConnected(false)
		backend.Disconnect()
		return fmt.Errorf("failed to connect printer: %w", err)
	}
	status.SetPrinterConnected(true)
	defer backend.Disconnect()

	if job.Image != nil {
		err = backend.PrintImage(job.Image)
	} else {
		err = backend.PrintCommands(job.Commands)
	}
	if err != nil {
		return fmt.Errorf("failed to print: %w", err)
	}

	logger.Info("Print job completed",
		zap.String("job_id", job.ID),
		zap.String("type", string(backend.Type())))
	return nil
}

// EnqueueImage queues a processed bitmap for printing and returns the job
// id. Non-blocking; a full queue is an error, not a stall.
func EnqueueImage(img image.Image) (string, error) {
	return enqueue(PrintJob{Image: img})
}

// EnqueueCommands queues an ESC/POS command stream for printing.
func EnqueueCommands(commands []escpos.Command) (string, error) {
	return enqueue(PrintJob{Commands: commands})
}

func enqueue(job PrintJob) (string, error) {
	if printQueue == nil {
		return "", fmt.Errorf("printer subsystem not initialized")
	}

	id, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("failed to generate job id: %w", err)
	}
	job.ID = id

	select {
	case printQueue <- job:
		logger.Info("Print job queued", zap.String("job_id", job.ID))
		return job.ID, nil
	default:
		logger.Error("Print queue is full, dropping job", zap.String("job_id", job.ID))
		return "", fmt.Errorf("print queue is full")
	}
}

// PrintDirect runs one job synchronously, bypassing the queue. Used by the
// connection test API so failures surface to the HTTP caller.
func PrintDirect(job PrintJob) error {
	return runJob(job)
}

// GetPrintQueueSize returns the number of queued jobs.
func GetPrintQueueSize() int {
	if printQueue == nil {
		return 0
	}
	return len(printQueue)
}
