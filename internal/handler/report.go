package handler

import (
	"net/http"

	"github.com/templui/goalstash/internal/ctxkeys"
	"github.com/templui/goalstash/internal/service"
)

type ReportHandler struct {
	reportService *service.ReportService
}

func NewReportHandler(reportService *service.ReportService) *ReportHandler {
	return &ReportHandler{
		reportService: reportService,
	}
}

func (h *ReportHandler) GoalReport(w http.ResponseWriter, r *http.Request) {
	userID := ctxkeys.UserID(r.Context())

	report, err := h.reportService.GoalReport(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		writeGoalError(w, r, err, "Failed to load report")
		return
	}

	writeJSON(w, http.StatusOK, report)
}

func (h *ReportHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	userID := ctxkeys.UserID(r.Context())

	dashboard, err := h.reportService.Dashboard(r.Context(), userID)
	if err != nil {
		writeGoalError(w, r, err, "Failed to load dashboard")
		return
	}

	writeJSON(w, http.StatusOK, dashboard)
}
