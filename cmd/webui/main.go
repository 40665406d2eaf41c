package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/invoice-scanner/internal/config"
	"github.com/invoice-scanner/internal/decode"
	"github.com/invoice-scanner/internal/document"
	"github.com/invoice-scanner/internal/export"
	"github.com/invoice-scanner/internal/ledger"
	"github.com/invoice-scanner/internal/logger"
	"github.com/invoice-scanner/internal/naming"
	"github.com/invoice-scanner/internal/processing"
	"github.com/invoice-scanner/internal/resolver"
	"github.com/invoice-scanner/internal/uploads"
	"github.com/invoice-scanner/internal/webui"
	"github.com/invoice-scanner/internal/webui/handler"
)

// noopScheduler satisfies the processing service's total scheduler. The
// upload directory is transient storage swept on retention; embedding a
// total in its name would be meaningless.
type noopScheduler struct{}

func (noopScheduler) Schedule(string) {}

func main() {
	// Create base context with cancellation
	appCtx, cancelAppCtx := context.WithCancel(context.Background())
	defer cancelAppCtx()

	// Initialize configuration
	cfg, err := config.LoadConfig("webui")
	if err != nil {
		// logger is not initialized yet, so we use fmt
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.NewLogger(cfg)

	for _, dir := range []string{cfg.Processing.TempDir, cfg.Uploads.Dir, cfg.Uploads.DownloadDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Error("Failed to create directory", "dir", dir, "error", err)
			os.Exit(1)
		}
	}

	// Initialize the idempotency ledger
	led, err := ledger.Open(cfg.Ledger.Path, log)
	if err != nil {
		log.Error("Failed to open processing ledger", "error", err)
		os.Exit(1)
	}

	// Container adapters and the symbol decoder
	runner := document.ExecRunner{Logger: log}
	registry := document.NewRegistry()
	registry.Register(".pdf", document.NewPDF(document.PDFConfig{
		Pdftoppm:  cfg.Processing.PdftoppmPath,
		Pdftotext: cfg.Processing.PdftotextPath,
		DPI:       cfg.Processing.RenderDPI,
		TempDir:   cfg.Processing.TempDir,
	}, runner, log))
	registry.Register(".ofd", document.NewOFD(cfg.Processing.TempDir, log))

	res := resolver.New(registry, decode.NewQRDecoder(), log, cfg.Processing.KeepTempFiles)
	policy := naming.NewPolicy(log)

	// The web surface owns the runtime naming toggle
	settings := handler.NewSettings(cfg.Processing.RenameWithAmount)

	svc := processing.NewService(led, res, policy, noopScheduler{}, settings.RenameWithAmount, log)
	pool, err := processing.NewBatch(svc, cfg.WorkerPool.Size, log)
	if err != nil {
		log.Error("Failed to create worker pool", "error", err)
		os.Exit(1)
	}

	// Pending uploads and their retention sweep
	pending := uploads.NewStore(cfg.Uploads.Retention, cfg.Uploads.SweepInterval, log)
	go pending.Run(appCtx)

	// Handlers and server
	invoiceHandler := handler.NewInvoiceHandler(log, pool, pending, cfg.Uploads.Dir, cfg.Uploads.DownloadDir)
	settingsHandler := handler.NewSettingsHandler(log, settings)
	exportHandler := handler.NewExportHandler(log, export.NewService(led, log))

	server := webui.NewServer(log, cfg, invoiceHandler, settingsHandler, exportHandler)
	log.Info("Upload surface initialized")

	// Create error channel for server errors
	errChan := make(chan error, 1)

	// Start server in goroutine
	go func() {
		log.Info("Starting HTTP server", "port", cfg.Server.Port)
		if err := server.Start(); err != nil {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// Set up signal handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	// Wait for a shutdown signal or error
	select {
	case <-quit:
		log.Info("Shutdown signal received")
	case err := <-errChan:
		log.Error("Server error occurred", "error", err)
	}

	// Cancel the application context (stops the retention sweep)
	cancelAppCtx()

	// Create a shutdown context with timeout
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()

	// Graceful shutdown sequence
	log.Info("Starting graceful shutdown...")

	if err := server.Stop(shutdownCtx); err != nil {
		log.Error("Error during server shutdown", "error", err)
	}
	pool.Shutdown(cfg.Server.ShutdownTimeout)

	log.Info("Server shutdown completed")
}
