// Package env exposes the process configuration as a typed value. Values
// come from the environment (a .env file is honored) and are overridden by
// the sqlite settings store when one is open, so LoadEnv must run after
// localdb.SetupDB.
package env

import (
	"os"
	"strconv"
	"strings"

	"github.com/ichi0g0y/print-hole/internal/localdb"
	"github.com/ichi0g0y/print-hole/internal/settings"
	"github.com/ichi0g0y/print-hole/internal/shared/logger"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

type Environment struct {
	ServerPort int
	DebugMode  bool

	// Printer identity
	PrinterType     string // usb, cups or bluetooth
	USBDevicePath   string
	CUPSPrinterName string
	PrinterAddress  *string // bluetooth MAC
	VendorID        uint16
	ProductID       uint16

	// Pipeline options
	DryRunMode  bool
	BestQuality bool
	Dither      bool
	AutoRotate  bool
	BlackPoint  float32
	RotatePrint bool

	GeminiAPIKey string
}

var Value Environment

// LoadEnv populates Value. Call after the settings store is opened; DB
// values win over environment variables, which win over defaults.
func LoadEnv() {
	if err := godotenv.Load(); err == nil {
		logger.Debug("Loaded .env file")
	}

	get := makeGetter()

	Value = Environment{
		ServerPort:      parseInt(get("SERVER_PORT"), 5000),
		DebugMode:       parseBool(get("DEBUG_MODE")),
		PrinterType:     strings.ToLower(defaultString(get("PRINTER_TYPE"), "usb")),
		USBDevicePath:   defaultString(get("USB_DEVICE_PATH"), "/dev/usb/lp0"),
		CUPSPrinterName: get("CUPS_PRINTER_NAME"),
		VendorID:        parseID(get("VENDOR_ID")),
		ProductID:       parseID(get("PRODUCT_ID")),
		DryRunMode:      parseBool(get("DRY_RUN_MODE")),
		BestQuality:     parseBoolDefault(get("BEST_QUALITY"), true),
		Dither:          parseBoolDefault(get("DITHER"), true),
		AutoRotate:      parseBool(get("AUTO_ROTATE")),
		BlackPoint:      parseFloat32(get("BLACK_POINT"), 0),
		RotatePrint:     parseBool(get("ROTATE_PRINT")),
		GeminiAPIKey:    get("GEMINI_API_KEY"),
	}

	if addr := get("PRINTER_ADDRESS"); addr != "" {
		Value.PrinterAddress = &addr
	}

	logger.Info("Configuration loaded",
		zap.Int("server_port", Value.ServerPort),
		zap.String("printer_type", Value.PrinterType),
		zap.Bool("dry_run", Value.DryRunMode))
}

// makeGetter prefers the settings DB, then the process environment, then
// the catalogue default.
func makeGetter() func(string) string {
	db := localdb.GetDB()
	var manager *settings.SettingsManager
	if db != nil {
		manager = settings.NewSettingsManager(db)
	}

	return func(key string) string {
		if manager != nil {
			if v, err := manager.GetRealValue(key); err == nil && v != "" {
				return v
			}
		}
		if v := os.Getenv(key); v != "" {
			return v
		}
		if def, ok := settings.DefaultSettings[key]; ok {
			return def.Value
		}
		return ""
	}
}

func defaultString(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func parseBool(v string) bool {
	return strings.EqualFold(v, "true") || v == "1"
}

func parseBoolDefault(v string, def bool) bool {
	if v == "" {
		return def
	}
	return parseBool(v)
}

func parseInt(v string, def int) int {
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func parseFloat32(v string, def float32) float32 {
	f, err := strconv.ParseFloat(v, 32)
	if err != nil {
		return def
	}
	return float32(f)
}

// parseID accepts hex ("0x0483") or decimal USB ids.
func parseID(v string) uint16 {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0
	}
	base := 10
	if strings.HasPrefix(strings.ToLower(v), "0x") {
		v = v[2:]
		base = 16
	}
	n, err := strconv.ParseUint(v, base, 16)
	if err != nil {
		logger.Warn("Invalid USB id in configuration", zap.String("value", v))
		return 0
	}
	return uint16(n)
}
