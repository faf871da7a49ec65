package handlers

import (
	"net/http"
	"strconv"

	"github.com/bibforms/forms-api/internal/middleware"
	"github.com/bibforms/forms-api/internal/models"
	"github.com/bibforms/forms-api/internal/service"
)

type ResponsesHandler struct {
	service *service.ResponseService
}

func NewResponsesHandler(service *service.ResponseService) *ResponsesHandler {
	return &ResponsesHandler{service: service}
}

// Submit accepts a response and confirms it as soon as the row is persisted.
// The webhook notification is scheduled in the background; its outcome does
// not influence this reply.
func (h *ResponsesHandler) Submit(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req models.SubmitResponseRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := h.service.Submit(r.Context(), &req, user)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, models.SubmitResponseResult{
		Message:  "Response submitted successfully",
		Response: resp,
	})
}

func (h *ResponsesHandler) List(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	responses, err := h.service.List(r.Context(), user, r.URL.Query().Get("form_id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, responses)
}

func (h *ResponsesHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	resp, err := h.service.Get(r.Context(), user, r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *ResponsesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	if err := h.service.Delete(r.Context(), user, r.PathValue("id")); err != nil {
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListByForm returns one page of a form's responses for the admin listing.
func (h *ResponsesHandler) ListByForm(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	result, err := h.service.ListByForm(r.Context(), r.PathValue("id"), page, limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// AttachFileMetadata records an uploaded file against a response.
func (h *ResponsesHandler) AttachFileMetadata(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req models.FileMetadataRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	upload, err := h.service.AttachFileMetadata(r.Context(), user, &req)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, upload)
}
