package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/ichi0g0y/print-hole/internal/env"
	"github.com/ichi0g0y/print-hole/internal/localdb"
	"github.com/ichi0g0y/print-hole/internal/output"
	"github.com/ichi0g0y/print-hole/internal/shared/logger"
	"github.com/ichi0g0y/print-hole/internal/version"
	"github.com/ichi0g0y/print-hole/internal/webserver"
	"go.uber.org/zap"
)

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	dbPath := flag.String("db", defaultDBPath(), "path to the settings database")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.Version)
		return
	}

	logger.Init(false)
	defer logger.Sync()

	if err := os.MkdirAll(filepath.Dir(*dbPath), 0o755); err != nil {
		logger.Fatal("Failed to create data directory", zap.Error(err))
	}
	if _, err := localdb.SetupDB(*dbPath); err != nil {
		logger.Fatal("Failed to open settings database", zap.Error(err))
	}
	defer localdb.Close()

	// env.LoadEnv must run after DB initialization.
	env.LoadEnv()
	if env.Value.DebugMode {
		logger.Init(true)
		logger.Info("Debug mode enabled")
	}

	output.InitializePrinter()

	if err := webserver.StartWebServer(env.Value.ServerPort); err != nil {
		logger.Fatal("Failed to start web server", zap.Error(err))
	}

	logger.Info("Server started",
		zap.String("version", version.Version),
		zap.String("printer_type", env.Value.PrinterType),
		zap.String("webui", fmt.Sprintf("http://localhost:%d/", env.Value.ServerPort)))

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")

	webserver.Shutdown()

	logger.Info("Shutdown complete")
}

func defaultDBPath() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "print-hole", "settings.db")
	}
	return "settings.db"
}
