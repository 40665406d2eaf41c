package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"

	"github.com/invoice-scanner/internal/aggregate"
	"github.com/invoice-scanner/internal/config"
	"github.com/invoice-scanner/internal/decode"
	"github.com/invoice-scanner/internal/document"
	"github.com/invoice-scanner/internal/ledger"
	"github.com/invoice-scanner/internal/logger"
	"github.com/invoice-scanner/internal/naming"
	"github.com/invoice-scanner/internal/processing"
	"github.com/invoice-scanner/internal/resolver"
	"github.com/invoice-scanner/internal/watch"
)

func main() {
	// Create base context with cancellation
	appCtx, cancelAppCtx := context.WithCancel(context.Background())
	defer cancelAppCtx()

	// Initialize configuration
	cfg, err := config.LoadConfig("watcher")
	if err != nil {
		// logger is not initialized yet, so we use fmt
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.NewLogger(cfg)

	if err := os.MkdirAll(cfg.Processing.TempDir, 0o755); err != nil {
		log.Error("Failed to create temp directory", "dir", cfg.Processing.TempDir, "error", err)
		os.Exit(1)
	}
	if _, err := os.Stat(cfg.Watch.Dir); err != nil {
		log.Error("Watch directory does not exist", "dir", cfg.Watch.Dir, "error", err)
		os.Exit(1)
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
	agg := aggregate.New(registry, cfg.Watch.AggregateDebounce, log)

	svc := processing.NewService(led, res, policy, agg,
		func() bool { return cfg.Processing.RenameWithAmount }, log)

	pool, err := processing.NewBatch(svc, cfg.WorkerPool.Size, log)
	if err != nil {
		log.Error("Failed to create worker pool", "error", err)
		os.Exit(1)
	}

	// Start the filesystem watcher
	watcher, err := watch.Start(watch.Config{
		Root:      cfg.Watch.Dir,
		Recursive: cfg.Watch.Recursive,
		Settle:    cfg.Watch.SettleDelay,
		Buffer:    cfg.Watch.EventBuffer,
	}, registry.Supports, log)
	if err != nil {
		log.Error("Failed to start filesystem watcher", "error", err)
		os.Exit(1)
	}

	// The aggregator renames directories to carry their totals; when it
	// renames the active watch root the watch must follow.
	var rootMu sync.Mutex
	watchRoot := cfg.Watch.Dir
	agg.OnDirRenamed = func(oldPath, newPath string) {
		if err := watcher.Rewatch(oldPath, newPath); err != nil {
			log.Error("Failed to rewatch renamed directory", "dir", newPath, "error", err)
		}
		rootMu.Lock()
		if watchRoot == oldPath {
			watchRoot = newPath
			log.Info("Watch root renamed", "old", oldPath, "new", newPath)
		}
		rootMu.Unlock()
	}

	log.Info("Watching for invoices",
		"dir", cfg.Watch.Dir,
		"recursive", cfg.Watch.Recursive,
		"formats", registry.Extensions(),
	)

	// Dispatcher: the single consumer of the event channel
	go func() {
		for {
			select {
			case <-appCtx.Done():
				return
			case ev := <-watcher.Events():
				switch ev.Op {
				case watch.Created:
					if err := pool.Submit(appCtx, ev.Path); err != nil {
						log.Error("Failed to submit document", "path", ev.Path, "error", err)
					}
				case watch.Removed:
					// nothing to process, but the directory total changed
				}
				agg.Schedule(filepath.Dir(ev.Path))
			}
		}
	}()

	// Wait for a shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	<-quit
	log.Info("Shutdown signal received")

	// Graceful shutdown: stop accepting events, let in-flight resolutions
	// finish or time out, then release everything.
	if err := watcher.Close(); err != nil {
		log.Error("Error closing watcher", "error", err)
	}
	cancelAppCtx()
	pool.Shutdown(cfg.Server.ShutdownTimeout)
	agg.Close()

	log.Info("Watcher shutdown completed")
}
