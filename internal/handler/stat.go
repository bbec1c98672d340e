package handler

import (
	"net/http"

	"github.com/templui/goalstash/internal/ctxkeys"
	"github.com/templui/goalstash/internal/model"
	"github.com/templui/goalstash/internal/service"
)

type StatHandler struct {
	ledgerService *service.LedgerService
}

func NewStatHandler(ledgerService *service.LedgerService) *StatHandler {
	return &StatHandler{
		ledgerService: ledgerService,
	}
}

type appendResponse struct {
	Stat *model.GoalStat `json:"stat"`
	Goal *model.Goal     `json:"goal"`
}

func (h *StatHandler) Append(w http.ResponseWriter, r *http.Request) {
	userID := ctxkeys.UserID(r.Context())

	err := h.ledgerService.Authorize(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		writeGoalError(w, r, err, "Failed to add stat")
		return
	}

	var in model.StatInput
	err = decodeJSON(w, r, &in)
	if err != nil {
		writeGoalError(w, r, err, "Failed to add stat")
		return
	}

	stat, goal, err := h.ledgerService.Append(r.Context(), userID, r.PathValue("id"), in)
	if err != nil {
		writeGoalError(w, r, err, "Failed to add stat")
		return
	}

	writeJSON(w, http.StatusCreated, appendResponse{Stat: stat, Goal: goal})
}

func (h *StatHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := ctxkeys.UserID(r.Context())

	stats, err := h.ledgerService.Stats(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		writeGoalError(w, r, err, "Failed to load stats")
		return
	}

	writeJSON(w, http.StatusOK, stats)
}
