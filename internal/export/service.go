// Package export renders administrative reports. The ledger never expires
// entries on its own, so the XLSX export is what an administrator reviews
// before a manual purge.
package export

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/invoice-scanner/internal/ledger"
)

// LedgerSource lists processed-document records.
type LedgerSource interface {
	Records() []ledger.Record
}

// Service produces XLSX bytes for exports.
type Service struct {
	source LedgerSource
	logger *slog.Logger
}

func NewService(source LedgerSource, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{source: source, logger: logger}
}

// LedgerXLSX returns a workbook with one row per processed document,
// ordered by processing time.
func (s *Service) LedgerXLSX() ([]byte, error) {
	start := time.Now()
	recs := s.source.Records()

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Ledger"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	headers := []string{"Content Hash", "Original Path", "Assigned Name", "Processed At"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return nil, fmt.Errorf("write header: %w", err)
		}
	}

	for row, rec := range recs {
		values := []interface{}{
			rec.ContentHash,
			rec.OriginalPath,
			rec.AssignedName,
			rec.ProcessedAt.Format(time.RFC3339),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return nil, fmt.Errorf("write row %d: %w", row+2, err)
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("serialize workbook: %w", err)
	}

	s.logger.Info("ledger exported", "records", len(recs), "duration", time.Since(start))
	return buf.Bytes(), nil
}
