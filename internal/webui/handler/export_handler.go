package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// LedgerExporter renders the processing ledger as a workbook.
type LedgerExporter interface {
	LedgerXLSX() ([]byte, error)
}

// ExportHandler serves administrative exports.
type ExportHandler struct {
	exporter LedgerExporter
	logger   *slog.Logger
}

func NewExportHandler(logger *slog.Logger, exporter LedgerExporter) *ExportHandler {
	return &ExportHandler{exporter: exporter, logger: logger}
}

// LedgerXLSX streams the full processing ledger as an XLSX attachment
func (h *ExportHandler) LedgerXLSX(c *gin.Context) {
	data, err := h.exporter.LedgerXLSX()
	if err != nil {
		h.logger.Error("ledger export failed", "error", err)
		RespondInternalError(c)
		return
	}

	name := fmt.Sprintf("ledger_%s.xlsx", time.Now().Format("20060102_150405"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
	c.Data(http.StatusOK, xlsxContentType, data)
}
