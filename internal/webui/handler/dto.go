package handler

// FileResult is the per-document outcome of a batch upload.
type FileResult struct {
	Filename string  `json:"filename"`
	Success  bool    `json:"success"`
	NewName  *string `json:"new_name"`
	Amount   *string `json:"amount"`
	Error    *string `json:"error"`
}

// UploadResponse is the full batch outcome: one entry per uploaded file,
// plus an archive link when at least one document was renamed.
type UploadResponse struct {
	Results     []FileResult `json:"results"`
	DownloadURL *string      `json:"download_url"`
}

// SettingsResponse mirrors the runtime naming policy.
type SettingsResponse struct {
	RenameWithAmount bool `json:"rename_with_amount"`
}

// UpdateSettingsRequest toggles the runtime naming policy.
type UpdateSettingsRequest struct {
	RenameWithAmount *bool `json:"rename_with_amount" binding:"required"`
}
