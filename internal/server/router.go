package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bibforms/forms-api/internal/handlers"
	"github.com/bibforms/forms-api/internal/middleware"
)

// Handlers groups everything the router mounts.
type Handlers struct {
	Auth      *handlers.AuthHandler
	Forms     *handlers.FormsHandler
	Responses *handlers.ResponsesHandler
	Notify    *handlers.NotifyHandler
	Admin     *handlers.AdminHandler
	Files     *handlers.FilesHandler
	Health    *handlers.HealthHandler
}

// NewRouter constructs the API ServeMux with all routes registered.
func NewRouter(h Handlers, auth *middleware.AuthMiddleware, cors middleware.CORSConfig) http.Handler {
	mux := http.NewServeMux()

	// Auth
	mux.HandleFunc("POST /api/auth/register", h.Auth.Register)
	mux.HandleFunc("POST /api/auth/login", h.Auth.Login)
	mux.HandleFunc("POST /api/auth/logout", auth.RequireAuth(h.Auth.Logout))
	mux.HandleFunc("GET /api/auth/me", auth.RequireAuth(h.Auth.Me))
	mux.HandleFunc("POST /api/auth/change-password", auth.RequireAuth(h.Auth.ChangePassword))
	mux.HandleFunc("POST /api/auth/users/{id}/reset-password", auth.RequireAdmin(h.Auth.ResetPassword))

	// Forms
	mux.HandleFunc("GET /api/forms", auth.OptionalAuth(h.Forms.List))
	mux.HandleFunc("GET /api/forms/{id}", auth.OptionalAuth(h.Forms.Get))
	mux.HandleFunc("POST /api/forms", auth.RequireAdmin(h.Forms.Create))
	mux.HandleFunc("PUT /api/forms/{id}", auth.RequireAdmin(h.Forms.Update))
	mux.HandleFunc("DELETE /api/forms/{id}", auth.RequireAdmin(h.Forms.Delete))
	mux.HandleFunc("GET /api/forms/{id}/responses", auth.RequireAdmin(h.Responses.ListByForm))

	// Responses
	mux.HandleFunc("POST /api/responses", auth.RequireAuth(h.Responses.Submit))
	mux.HandleFunc("GET /api/responses", auth.RequireAuth(h.Responses.List))
	mux.HandleFunc("GET /api/responses/{id}", auth.RequireAuth(h.Responses.Get))
	mux.HandleFunc("DELETE /api/responses/{id}", auth.RequireAuth(h.Responses.Delete))
	mux.HandleFunc("POST /api/responses/files", auth.RequireAuth(h.Responses.AttachFileMetadata))
	mux.HandleFunc("POST /api/responses/notify", h.Notify.Notify)

	// Files
	mux.HandleFunc("POST /api/files/upload", auth.RequireAuth(h.Files.Upload))
	mux.HandleFunc("GET /api/files/{path...}", auth.RequireAuth(h.Files.Download))

	// Admin
	mux.HandleFunc("GET /api/admin/stats", auth.RequireAdmin(h.Admin.Stats))
	mux.HandleFunc("GET /api/admin/forms/{id}/export", auth.RequireAdmin(h.Admin.ExportCSV))

	// Operational
	mux.HandleFunc("GET /health", h.Health.Health)
	mux.Handle("GET /metrics", promhttp.Handler())

	return middleware.RequestID(middleware.CORS(cors)(mux))
}
