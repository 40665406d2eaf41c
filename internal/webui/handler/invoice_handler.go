package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/invoice-scanner/internal/archive"
	"github.com/invoice-scanner/internal/processing"
	"github.com/invoice-scanner/internal/uploads"
)

// BatchProcessor fans a batch of documents out over the worker pool.
type BatchProcessor interface {
	Process(ctx context.Context, paths []string) []processing.Result
}

// InvoiceHandler handles batch uploads and result archive downloads.
type InvoiceHandler struct {
	batch       BatchProcessor
	pending     *uploads.Store
	uploadDir   string
	downloadDir string
	logger      *slog.Logger
}

func NewInvoiceHandler(logger *slog.Logger, batch BatchProcessor, pending *uploads.Store, uploadDir, downloadDir string) *InvoiceHandler {
	return &InvoiceHandler{
		batch:       batch,
		pending:     pending,
		uploadDir:   uploadDir,
		downloadDir: downloadDir,
		logger:      logger,
	}
}

// Upload accepts a multipart batch of documents, processes every file
// through the pipeline, and responds with one result per file plus a
// download link for the archive of renamed documents. Per-file failures
// never abort the batch.
func (h *InvoiceHandler) Upload(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		h.logger.Error("invalid multipart form", "error", err)
		RespondBadRequest(c, "Invalid multipart form: "+err.Error())
		return
	}
	files := form.File["files"]
	if len(files) == 0 {
		RespondBadRequest(c, "No files provided")
		return
	}

	if err := os.MkdirAll(h.uploadDir, 0o755); err != nil {
		h.logger.Error("cannot create upload dir", "dir", h.uploadDir, "error", err)
		RespondInternalError(c)
		return
	}

	// Save every part first; a part that cannot be saved becomes a failed
	// result without touching its siblings.
	response := UploadResponse{Results: make([]FileResult, 0, len(files))}
	var saved, originals []string
	for _, fh := range files {
		original := filepath.Base(fh.Filename)
		// uuid prefix keeps same-named uploads from clobbering each other
		dst := filepath.Join(h.uploadDir, fmt.Sprintf("%s_%s", uuid.NewString(), original))
		if err := c.SaveUploadedFile(fh, dst); err != nil {
			h.logger.Error("failed to save upload", "filename", original, "error", err)
			response.Results = append(response.Results, failedResult(original, err))
			continue
		}
		h.pending.Add(dst)
		saved = append(saved, dst)
		originals = append(originals, original)
	}

	results := h.batch.Process(c.Request.Context(), saved)

	var renamed []string
	for i, res := range results {
		fr := toFileResult(originals[i], res)
		response.Results = append(response.Results, fr)
		if res.Success && res.NewPath != "" {
			renamed = append(renamed, res.NewPath)
			// The saved path no longer exists; track the renamed file so
			// the retention sweep eventually reclaims it.
			h.pending.Remove(saved[i])
			h.pending.Add(res.NewPath)
		}
	}

	if len(renamed) > 0 {
		zipPath, err := archive.Create(renamed, h.downloadDir)
		if err != nil {
			h.logger.Error("failed to build result archive", "error", err)
		} else {
			url := "/api/v1/downloads/" + filepath.Base(zipPath)
			response.DownloadURL = &url
		}
	}

	RespondOK(c, response)
}

// Download serves a previously built result archive.
func (h *InvoiceHandler) Download(c *gin.Context) {
	name := c.Param("name")
	if !archive.ValidName(name) {
		RespondNotFound(c, "No such archive")
		return
	}

	path := filepath.Join(h.downloadDir, name)
	if _, err := os.Stat(path); err != nil {
		RespondNotFound(c, "No such archive")
		return
	}
	c.FileAttachment(path, name)
}

func toFileResult(original string, res processing.Result) FileResult {
	fr := FileResult{Filename: original, Success: res.Success}
	if res.Skipped {
		msg := "already processed"
		fr.Error = &msg
		return fr
	}
	if res.NewName != "" {
		name := res.NewName
		fr.NewName = &name
	}
	if res.Amount != "" {
		amount := res.Amount
		fr.Amount = &amount
	}
	if res.Err != nil {
		fr.Error = errorMessage(res.Err)
	}
	return fr
}

func failedResult(original string, err error) FileResult {
	return FileResult{Filename: original, Error: errorMessage(err)}
}

func errorMessage(err error) *string {
	var msg string
	if errors.Is(err, processing.ErrUnresolved) {
		msg = processing.ErrUnresolved.Error()
	} else {
		msg = err.Error()
	}
	return &msg
}
