package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/templui/goalstash/internal/ctxkeys"
	"github.com/templui/goalstash/internal/service"
	"github.com/templui/goalstash/internal/storage"
)

type ExportHandler struct {
	exportService *service.ExportService
}

func NewExportHandler(exportService *service.ExportService) *ExportHandler {
	return &ExportHandler{
		exportService: exportService,
	}
}

// Download streams the caller's goals and stats as a JSON attachment.
func (h *ExportHandler) Download(w http.ResponseWriter, r *http.Request) {
	userID := ctxkeys.UserID(r.Context())

	export, err := h.exportService.Export(r.Context(), userID)
	if err != nil {
		writeGoalError(w, r, err, "Failed to export goals")
		return
	}

	filename := fmt.Sprintf("goalstash-%s.json", export.ExportedAt.Format("2006-01-02"))
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	writeJSON(w, http.StatusOK, export)
}

// Archive stores the export in object storage and returns a download link.
func (h *ExportHandler) Archive(w http.ResponseWriter, r *http.Request) {
	userID := ctxkeys.UserID(r.Context())

	archive, err := h.exportService.Archive(r.Context(), userID)
	if errors.Is(err, storage.ErrNotConfigured) {
		writeError(w, http.StatusServiceUnavailable, "Export storage is not configured")
		return
	}
	if err != nil {
		writeGoalError(w, r, err, "Failed to archive export")
		return
	}

	writeJSON(w, http.StatusCreated, archive)
}
