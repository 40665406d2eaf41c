package handler

import (
	"log/slog"
	"sync"

	"github.com/gin-gonic/gin"
)

// Settings is the mutable runtime policy owned by the web surface. Only
// the naming flag lives here; everything else is immutable startup
// configuration. Not persisted across restarts.
type Settings struct {
	mu               sync.RWMutex
	renameWithAmount bool
}

func NewSettings(renameWithAmount bool) *Settings {
	return &Settings{renameWithAmount: renameWithAmount}
}

// RenameWithAmount reports whether canonical filenames embed the amount.
func (s *Settings) RenameWithAmount() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.renameWithAmount
}

func (s *Settings) SetRenameWithAmount(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.renameWithAmount = v
}

// SettingsHandler exposes the runtime policy over HTTP.
type SettingsHandler struct {
	settings *Settings
	logger   *slog.Logger
}

func NewSettingsHandler(logger *slog.Logger, settings *Settings) *SettingsHandler {
	return &SettingsHandler{settings: settings, logger: logger}
}

// Get returns the current runtime settings
func (h *SettingsHandler) Get(c *gin.Context) {
	RespondOK(c, SettingsResponse{RenameWithAmount: h.settings.RenameWithAmount()})
}

// Update changes the runtime settings
func (h *SettingsHandler) Update(c *gin.Context) {
	var req UpdateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("invalid settings request", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	h.settings.SetRenameWithAmount(*req.RenameWithAmount)
	h.logger.Info("settings updated", "rename_with_amount", *req.RenameWithAmount)
	RespondOK(c, SettingsResponse{RenameWithAmount: h.settings.RenameWithAmount()})
}
