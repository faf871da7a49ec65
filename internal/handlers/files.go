package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"time"

	"github.com/google/uuid"

	"github.com/bibforms/forms-api/internal/middleware"
	"github.com/bibforms/forms-api/internal/storage"
)

const maxUploadBytes = 10 << 20 // 10 MiB

// FilesHandler moves file content in and out of the blob store. Metadata rows
// are attached separately via the responses endpoint.
type FilesHandler struct {
	store *storage.LocalStore
}

func NewFilesHandler(store *storage.LocalStore) *FilesHandler {
	return &FilesHandler{store: store}
}

// Upload accepts one multipart file under the "file" field and stores it
// under a generated key scoped to the uploading user.
func (h *FilesHandler) Upload(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart body")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file field is required")
		return
	}
	defer file.Close()

	fileID, _ := uuid.NewV7()
	key := path.Join(user.UserID,
		fmt.Sprintf("%s%s", fileID.String(), path.Ext(header.Filename)))

	size, err := h.store.Save(key, file)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to store file")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"file_path":   key,
		"file_name":   header.Filename,
		"file_size":   size,
		"uploaded_at": time.Now().UTC().Format(time.RFC3339),
	})
}

// Download streams a stored file back to the caller.
func (h *FilesHandler) Download(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("path")

	f, err := h.store.Open(key)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrNotFound):
			writeError(w, http.StatusNotFound, "file not found")
		case errors.Is(err, storage.ErrInvalidPath):
			writeError(w, http.StatusBadRequest, "invalid file path")
		default:
			writeError(w, http.StatusInternalServerError, "failed to read file")
		}
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", path.Base(key)))
	io.Copy(w, f)
}
