package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/templui/goalstash/internal/ctxkeys"
	"github.com/templui/goalstash/internal/model"
	"github.com/templui/goalstash/internal/service"
	"github.com/templui/goalstash/internal/validation"
)

type AuthHandler struct {
	authService *service.AuthService
}

func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userResponse struct {
	Message string      `json:"message"`
	User    *model.User `json:"user"`
}

type loginResponse struct {
	Message string      `json:"message"`
	Token   string      `json:"token"`
	User    *model.User `json:"user"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var in credentials
	err := decodeJSON(w, r, &in)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.authService.Register(r.Context(), in.Email, in.Password)
	var verr *validation.Error
	switch {
	case errors.Is(err, service.ErrEmailAlreadyExists):
		writeError(w, http.StatusConflict, "User already exists")
		return
	case errors.As(err, &verr):
		writeError(w, http.StatusBadRequest, verr.Error())
		return
	case err != nil:
		slog.Error("failed to register user", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to register user")
		return
	}

	writeJSON(w, http.StatusCreated, userResponse{Message: "User registered successfully", User: user})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var in credentials
	err := decodeJSON(w, r, &in)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.authService.Login(r.Context(), in.Email, in.Password)
	switch {
	case errors.Is(err, service.ErrUserNotFound):
		writeError(w, http.StatusNotFound, "User not found")
		return
	case errors.Is(err, service.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	case err != nil:
		slog.Error("failed to login", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to log in")
		return
	}

	token, expiresAt, err := h.authService.StartSession(r.Context(), user)
	if err != nil {
		slog.Error("failed to start session", "error", err, "user_id", user.ID)
		writeError(w, http.StatusInternalServerError, "Failed to log in")
		return
	}

	h.authService.SetSessionCookie(w, token, expiresAt)
	slog.Info("user logged in", "user_id", user.ID)

	writeJSON(w, http.StatusOK, loginResponse{Message: "Logged in successfully", Token: token, User: user})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	session := ctxkeys.Session(r.Context())
	if session != nil {
		err := h.authService.Logout(r.Context(), session.ID)
		if err != nil {
			slog.Error("failed to logout", "error", err, "session_id", session.ID)
			writeError(w, http.StatusInternalServerError, "Failed to log out")
			return
		}
	}

	h.authService.ClearSessionCookie(w)
	writeJSON(w, http.StatusOK, messageResponse{Message: "Logged out successfully"})
}

// Me returns the authenticated user. Requires RequireAuth.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	if user := ctxkeys.User(r.Context()); user != nil {
		writeJSON(w, http.StatusOK, user)
		return
	}

	// Session without a loadable user: answer with the id alone
	writeJSON(w, http.StatusOK, &model.User{ID: ctxkeys.UserID(r.Context())})
}
