package routes

import (
	"io/fs"
	"net/http"

	"github.com/templui/goalstash/internal/app"
	"github.com/templui/goalstash/internal/handler"
	"github.com/templui/goalstash/internal/middleware"
	"github.com/templui/goalstash/web"
)

func SetupRoutes(app *app.App) http.Handler {
	// Handlers
	auth := handler.NewAuthHandler(app.AuthService)
	goal := handler.NewGoalHandler(app.GoalService)
	stat := handler.NewStatHandler(app.LedgerService)
	report := handler.NewReportHandler(app.ReportService)
	export := handler.NewExportHandler(app.ExportService)

	mux := http.NewServeMux()

	// ============================================================================
	// PUBLIC ROUTES
	// ============================================================================

	// Web client
	sub, _ := fs.Sub(web.StaticFS, "static")
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.FS(sub))))
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFileFS(w, r, web.StaticFS, "static/index.html")
	})
	mux.HandleFunc("GET /healthz", handler.Health(app.DB))

	// Auth (rate limited)
	rateLimiter := middleware.RateLimitAuth(app.Cfg.AuthRateLimit, app.Cfg.AuthRateWindow)

	mux.HandleFunc("POST /auth/register", rateLimiter(auth.Register))
	mux.HandleFunc("POST /auth/login", rateLimiter(auth.Login))
	mux.HandleFunc("POST /auth/logout", auth.Logout)
	mux.HandleFunc("GET /auth/me", middleware.RequireAuth(auth.Me))

	// ============================================================================
	// PROTECTED ROUTES (/api/*)
	// ============================================================================

	// Goals
	mux.HandleFunc("GET /api/goals", middleware.RequireAuth(goal.List))
	mux.HandleFunc("POST /api/goals", middleware.RequireAuth(goal.Create))
	mux.HandleFunc("GET /api/goals/{id}", middleware.RequireAuth(goal.Get))
	mux.HandleFunc("PUT /api/goals/{id}", middleware.RequireAuth(goal.Update))
	mux.HandleFunc("PATCH /api/goals/{id}", middleware.RequireAuth(goal.Update))
	mux.HandleFunc("DELETE /api/goals/{id}", middleware.RequireAuth(goal.Delete))

	// Stats
	mux.HandleFunc("POST /api/goals/{id}/stats", middleware.RequireAuth(stat.Append))
	mux.HandleFunc("GET /api/goals/{id}/stats", middleware.RequireAuth(stat.List))

	// Reporting
	mux.HandleFunc("GET /api/goals/{id}/report", middleware.RequireAuth(report.GoalReport))
	mux.HandleFunc("GET /api/dashboard", middleware.RequireAuth(report.Dashboard))

	// Export
	mux.HandleFunc("GET /api/export", middleware.RequireAuth(export.Download))
	mux.HandleFunc("POST /api/export", middleware.RequireAuth(export.Archive))

	// ============================================================================
	// FALLBACK
	// ============================================================================

	// 404
	mux.HandleFunc("/{path...}", handler.NotFound)

	// Global middleware - executed in order (top to bottom)
	handler := middleware.Chain(
		mux,
		middleware.Config(app.Cfg), // Config must be first (read by SecurityHeaders and CSRF cookie flags)
		middleware.SecurityHeaders,
		middleware.RequestLogging,
		middleware.CSRFProtection, // CSRF protection for cookie-authenticated state changes
		middleware.AuthMiddleware(app.AuthService),
	)

	return handler
}
