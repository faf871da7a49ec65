package handlers

import (
	"net/http"

	"github.com/bibforms/forms-api/internal/middleware"
	"github.com/bibforms/forms-api/internal/models"
	"github.com/bibforms/forms-api/internal/service"
)

type FormsHandler struct {
	service *service.FormService
}

func NewFormsHandler(service *service.FormService) *FormsHandler {
	return &FormsHandler{service: service}
}

// List returns forms, optionally filtered by ?status=. Unauthenticated and
// client callers only see published forms.
func (h *FormsHandler) List(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")

	user, ok := middleware.UserFromContext(r.Context())
	if !ok || !user.IsAdmin() {
		status = models.FormStatusPublished
	}

	forms, err := h.service.List(r.Context(), status)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, forms)
}

func (h *FormsHandler) Get(w http.ResponseWriter, r *http.Request) {
	form, err := h.service.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	// Drafts and archived forms are only visible to admins.
	if form.Status != models.FormStatusPublished {
		user, ok := middleware.UserFromContext(r.Context())
		if !ok || !user.IsAdmin() {
			writeError(w, http.StatusNotFound, "form not found")
			return
		}
	}

	writeJSON(w, http.StatusOK, form)
}

func (h *FormsHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r.Context())

	var req models.CreateFormRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	form, err := h.service.Create(r.Context(), &req, user.UserID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, form)
}

func (h *FormsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateFormRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	form, err := h.service.Update(r.Context(), r.PathValue("id"), &req)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, form)
}

func (h *FormsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
