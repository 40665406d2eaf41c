package webui

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/invoice-scanner/internal/config"
	"github.com/invoice-scanner/internal/webui/handler"
	"github.com/invoice-scanner/internal/webui/middleware"
)

// setupRouter configures API routes and middleware for the application
func setupRouter(
	logger *slog.Logger,
	cfg *config.Config,
	r *gin.Engine,
	invoiceHandler *handler.InvoiceHandler,
	settingsHandler *handler.SettingsHandler,
	exportHandler *handler.ExportHandler,
) {
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logger(logger))

	// API v1 endpoints
	v1 := r.Group("/api/v1")
	{
		// Batch upload and result archive download
		invoices := v1.Group("/invoices")
		{
			invoices.POST("", invoiceHandler.Upload)
		}
		v1.GET("/downloads/:name", invoiceHandler.Download)

		// Runtime naming policy
		settings := v1.Group("/settings")
		{
			settings.GET("", settingsHandler.Get)
			settings.PUT("", settingsHandler.Update)
		}

		// Administrative endpoints, basic-auth guarded
		admin := v1.Group("/admin")
		admin.Use(middleware.BasicAuth(cfg.Uploads.AdminUsername, cfg.Uploads.AdminPasswordHash, logger))
		{
			admin.GET("/ledger/export", exportHandler.LedgerXLSX)
		}
	}

	// Health check endpoint for monitoring
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now().UTC()})
	})
}
