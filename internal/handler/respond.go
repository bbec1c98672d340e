package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"reflect"
	"strings"

	"github.com/templui/goalstash/internal/ctxkeys"
	"github.com/templui/goalstash/internal/model"
	"github.com/templui/goalstash/internal/repository"
	"github.com/templui/goalstash/internal/service"
	"github.com/templui/goalstash/internal/validation"
)

const maxBodyBytes = 1 << 20 // 1MB

type errorResponse struct {
	Error string `json:"error"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// decodeJSON reads a JSON body into v. Malformed input comes back as a
// *validation.Error so callers answer 400.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return &validation.Error{Message: "request body too large"}
	}
	if err != nil {
		return &validation.Error{Message: "failed to read request body"}
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return &validation.Error{Message: "request body is required"}
	}

	err = json.Unmarshal(body, v)
	if err == nil {
		return nil
	}
	if errors.Is(err, model.ErrInvalidAmount) || errors.Is(err, model.ErrAmountOutOfRange) {
		return amountError(body, v, err)
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return &validation.Error{Field: typeErr.Field, Message: typeErr.Field + " has the wrong type"}
	}

	return &validation.Error{Message: "invalid JSON body"}
}

var amountType = reflect.TypeOf(model.Amount{})

func isAmount(t reflect.Type) bool {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t == amountType
}

// amountError names the amount field of v that rejected body. Amount errors
// carry no field context from encoding/json, so the fields are re-parsed one by one.
func amountError(body []byte, v any, cause error) error {
	field := "amount"

	var raw map[string]json.RawMessage
	if json.Unmarshal(body, &raw) == nil {
		t := reflect.TypeOf(v).Elem()
		for i := range t.NumField() {
			f := t.Field(i)
			if !isAmount(f.Type) {
				continue
			}
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			data, ok := raw[name]
			if !ok || bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
				continue
			}
			var a model.Amount
			if err := a.UnmarshalJSON(data); err != nil {
				field, cause = name, err
				break
			}
		}
	}

	switch {
	case errors.Is(cause, model.ErrAmountOutOfRange):
		return &validation.Error{Field: field, Message: field + " is out of range"}
	case field == "amount":
		return &validation.Error{Field: field, Message: model.ErrInvalidAmount.Error()}
	default:
		return &validation.Error{Field: field, Message: field + " must be a number"}
	}
}

// writeGoalError maps goal, ledger and validation errors to responses.
// Anything unrecognised is logged and answered with the generic failure message.
func writeGoalError(w http.ResponseWriter, r *http.Request, err error, failure string) {
	var verr *validation.Error
	switch {
	case errors.Is(err, repository.ErrGoalNotFound):
		writeError(w, http.StatusNotFound, "Goal not found")
	case errors.Is(err, service.ErrForbidden):
		writeError(w, http.StatusForbidden, "Forbidden")
	case errors.As(err, &verr):
		writeError(w, http.StatusBadRequest, verr.Error())
	case errors.Is(err, model.ErrAmountOutOfRange):
		writeError(w, http.StatusBadRequest, model.ErrAmountOutOfRange.Error())
	default:
		slog.Error(strings.ToLower(failure),
			"error", err,
			"user_id", ctxkeys.UserID(r.Context()),
			"goal_id", r.PathValue("id"),
		)
		writeError(w, http.StatusInternalServerError, failure)
	}
}
