package middleware

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/templui/goalstash/internal/ctxkeys"
	"github.com/templui/goalstash/internal/service"
)

// AuthMiddleware resolves the session token (cookie or Bearer header) and
// adds the session + user to context if valid. Requests without a valid
// session continue anonymously; RequireAuth decides whether that is allowed.
func AuthMiddleware(authService *service.AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, fromCookie := sessionToken(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			session, err := authService.Session(r.Context(), token)
			if err != nil {
				// Invalid or revoked session, drop the stale cookie and continue
				if fromCookie {
					authService.ClearSessionCookie(w)
				}
				next.ServeHTTP(w, r)
				return
			}

			ctx := ctxkeys.WithSession(r.Context(), session)
			if session.User != nil {
				ctx = ctxkeys.WithUser(ctx, session.User)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// sessionToken prefers the Authorization header over the cookie.
func sessionToken(r *http.Request) (string, bool) {
	if token, ok := bearerToken(r); ok {
		return token, false
	}

	cookie, err := r.Cookie(service.SessionCookieName)
	if err != nil || cookie.Value == "" {
		return "", false
	}
	return cookie.Value, true
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// ResolveUserID returns the caller's id from, in order: the attached
// principal, the session's user id, the user nested in the session.
func ResolveUserID(r *http.Request) (string, bool) {
	ctx := r.Context()

	if user := ctxkeys.User(ctx); user != nil && user.ID != "" {
		return user.ID, true
	}

	session := ctxkeys.Session(ctx)
	if session == nil {
		return "", false
	}
	if session.UserID != "" {
		return session.UserID, true
	}
	if session.User != nil && session.User.ID != "" {
		return session.User.ID, true
	}

	return "", false
}

// RequireAuth rejects unauthenticated requests with 401 and attaches the
// resolved user id for downstream handlers.
func RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := ResolveUserID(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "Authentication required")
			return
		}

		ctx := ctxkeys.WithUserID(r.Context(), userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
