package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bibforms/forms-api/internal/handlers"
	"github.com/bibforms/forms-api/internal/middleware"
	"github.com/bibforms/forms-api/internal/models"
	"github.com/bibforms/forms-api/internal/notification"
)

type fakeVerifier struct {
	user *models.AuthenticatedUser
}

func (f *fakeVerifier) Verify(ctx context.Context, token string) (*models.AuthenticatedUser, error) {
	if f.user == nil {
		return nil, errors.New("invalid token")
	}
	return f.user, nil
}

func newTestRouter(user *models.AuthenticatedUser) http.Handler {
	auth := middleware.NewAuthMiddleware(&fakeVerifier{user: user})
	h := Handlers{
		Auth:      &handlers.AuthHandler{},
		Forms:     &handlers.FormsHandler{},
		Responses: &handlers.ResponsesHandler{},
		Notify:    handlers.NewNotifyHandler(&notification.Dispatcher{}),
		Admin:     &handlers.AdminHandler{},
		Files:     &handlers.FilesHandler{},
		Health:    handlers.NewHealthHandler(nil),
	}
	return NewRouter(h, auth, middleware.CORSConfig{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST"},
		AllowedHeaders: []string{"Content-Type"},
	})
}

func TestRouterRejectsUnauthenticated(t *testing.T) {
	router := newTestRouter(nil)

	paths := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/api/responses"},
		{http.MethodGet, "/api/responses"},
		{http.MethodPost, "/api/forms"},
		{http.MethodGet, "/api/admin/stats"},
		{http.MethodPost, "/api/files/upload"},
	}

	for _, p := range paths {
		req := httptest.NewRequest(p.method, p.path, nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code, "%s %s", p.method, p.path)
	}
}

func TestRouterRejectsNonAdmin(t *testing.T) {
	client := &models.AuthenticatedUser{UserID: "u1", Role: models.RoleClient}
	router := newTestRouter(client)

	paths := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/api/forms"},
		{http.MethodDelete, "/api/forms/abc"},
		{http.MethodGet, "/api/forms/abc/responses"},
		{http.MethodGet, "/api/admin/stats"},
	}

	for _, p := range paths {
		req := httptest.NewRequest(p.method, p.path, nil)
		req.Header.Set("Authorization", "Bearer token")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusForbidden, w.Code, "%s %s", p.method, p.path)
	}
}

func TestRouterHealthAndMetricsArePublic(t *testing.T) {
	router := newTestRouter(nil)

	for _, path := range []string{"/health", "/metrics"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code, path)
	}
}

func TestRouterSetsRequestID(t *testing.T) {
	router := newTestRouter(nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "fixed-id")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, "fixed-id", w.Header().Get("X-Request-ID"))
}

func TestRouterCORSPreflight(t *testing.T) {
	router := newTestRouter(nil)

	req := httptest.NewRequest(http.MethodOptions, "/api/forms", nil)
	req.Header.Set("Origin", "https://app.example.com")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://app.example.com", w.Header().Get("Access-Control-Allow-Origin"))
}
