package handler

import (
	"net/http"

	"github.com/templui/goalstash/internal/ctxkeys"
	"github.com/templui/goalstash/internal/model"
	"github.com/templui/goalstash/internal/service"
)

type GoalHandler struct {
	goalService *service.GoalService
}

func NewGoalHandler(goalService *service.GoalService) *GoalHandler {
	return &GoalHandler{
		goalService: goalService,
	}
}

func (h *GoalHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := ctxkeys.UserID(r.Context())

	goals, err := h.goalService.Goals(r.Context(), userID)
	if err != nil {
		writeGoalError(w, r, err, "Failed to load goals")
		return
	}

	writeJSON(w, http.StatusOK, goals)
}

func (h *GoalHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := ctxkeys.UserID(r.Context())

	var in model.GoalInput
	err := decodeJSON(w, r, &in)
	if err != nil {
		writeGoalError(w, r, err, "Failed to create goal")
		return
	}

	goal, err := h.goalService.Create(r.Context(), userID, in)
	if err != nil {
		writeGoalError(w, r, err, "Failed to create goal")
		return
	}

	writeJSON(w, http.StatusCreated, goal)
}

func (h *GoalHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := ctxkeys.UserID(r.Context())

	goal, err := h.goalService.ByID(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		writeGoalError(w, r, err, "Failed to load goal")
		return
	}

	writeJSON(w, http.StatusOK, goal)
}

// Update serves both PUT and PATCH; only fields present in the body change.
// The goal is checked before the body so a missing or foreign goal never
// reports a payload error.
func (h *GoalHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID := ctxkeys.UserID(r.Context())

	err := h.goalService.Authorize(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		writeGoalError(w, r, err, "Failed to update goal")
		return
	}

	var in model.GoalUpdate
	err = decodeJSON(w, r, &in)
	if err != nil {
		writeGoalError(w, r, err, "Failed to update goal")
		return
	}

	goal, err := h.goalService.Update(r.Context(), userID, r.PathValue("id"), in)
	if err != nil {
		writeGoalError(w, r, err, "Failed to update goal")
		return
	}

	writeJSON(w, http.StatusOK, goal)
}

func (h *GoalHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := ctxkeys.UserID(r.Context())

	err := h.goalService.Delete(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		writeGoalError(w, r, err, "Failed to delete goal")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
