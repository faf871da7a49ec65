package repository

import (
	"context"
	"errors"

	"github.com/bibforms/forms-api/internal/models"
)

var (
	ErrUserNotFound     = errors.New("user not found")
	ErrUserExists       = errors.New("user already exists")
	ErrSessionNotFound  = errors.New("session not found")
	ErrFormNotFound     = errors.New("form not found")
	ErrResponseNotFound = errors.New("response not found")
)

type ProfileStore interface {
	CreateProfile(ctx context.Context, p *models.Profile) error
	GetProfileByEmail(ctx context.Context, email string) (*models.Profile, error)
	GetProfileByID(ctx context.Context, id string) (*models.Profile, error)
	UpdatePasswordHash(ctx context.Context, userID, hash string) error
	ProfileRoleCounts(ctx context.Context) (map[string]int, error)
}

type SessionStore interface {
	CreateSession(ctx context.Context, s *models.Session) error
	GetSessionByToken(ctx context.Context, token string) (*models.Session, error)
	DeleteSession(ctx context.Context, token string) error
	DeleteSessionsForUser(ctx context.Context, userID string) error
	DeleteExpiredSessions(ctx context.Context) (int64, error)
}

type FormStore interface {
	CreateForm(ctx context.Context, f *models.Form) error
	GetFormByID(ctx context.Context, id string) (*models.Form, error)
	ListForms(ctx context.Context, status string) ([]*models.Form, error)
	UpdateForm(ctx context.Context, id string, req *models.UpdateFormRequest) (*models.Form, error)
	DeleteForm(ctx context.Context, id string) error
	FormStatusCounts(ctx context.Context) (map[string]int, error)
}

// ResponseStore is the Response Store accessor. InsertResponse and
// GetResponseWithForm are intentionally independent operations with no
// transactional coupling; a read immediately after an acknowledged insert may
// not see the row yet.
type ResponseStore interface {
	InsertResponse(ctx context.Context, r *models.FormResponse) error
	GetResponseByID(ctx context.Context, id string) (*models.FormResponse, error)
	GetResponseWithForm(ctx context.Context, id string) (*models.ResponseWithForm, error)
	ListResponses(ctx context.Context, formID, userID string) ([]*models.ResponseWithForm, error)
	ListResponsesByForm(ctx context.Context, formID string, page, limit int) ([]*models.ResponseWithForm, int, error)
	DeleteResponse(ctx context.Context, id string) error
	CountResponses(ctx context.Context) (int, error)
	CreateFileUpload(ctx context.Context, u *models.FileUpload) error
}

// Store is the full persistence surface implemented by the postgres
// repository. Consumers should depend on the narrower interfaces above.
type Store interface {
	ProfileStore
	SessionStore
	FormStore
	ResponseStore

	Ping(ctx context.Context) error
	Close()
}
