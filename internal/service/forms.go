package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bibforms/forms-api/internal/logging"
	"github.com/bibforms/forms-api/internal/models"
	"github.com/bibforms/forms-api/internal/repository"
)

// FormService handles the form authoring lifecycle.
type FormService struct {
	store  repository.FormStore
	logger *logging.Logger
}

func NewFormService(store repository.FormStore, logger *logging.Logger) *FormService {
	return &FormService{store: store, logger: logger}
}

func (s *FormService) List(ctx context.Context, status string) ([]*models.Form, error) {
	if status != "" && !models.ValidFormStatus(status) {
		return nil, ErrInvalidStatus
	}
	return s.store.ListForms(ctx, status)
}

func (s *FormService) Get(ctx context.Context, id string) (*models.Form, error) {
	return s.store.GetFormByID(ctx, id)
}

func (s *FormService) Create(ctx context.Context, req *models.CreateFormRequest, createdBy string) (*models.Form, error) {
	if strings.TrimSpace(req.Title) == "" {
		return nil, ErrInvalidTitle
	}
	if req.JSONSchema == nil {
		return nil, ErrInvalidSchema
	}

	status := req.Status
	if status == "" {
		status = models.FormStatusDraft
	}
	if !models.ValidFormStatus(status) {
		return nil, ErrInvalidStatus
	}

	formID, _ := uuid.NewV7()
	form := &models.Form{
		ID:          formID.String(),
		Title:       req.Title,
		Description: req.Description,
		JSONSchema:  req.JSONSchema,
		Status:      status,
		CreatedAt:   time.Now(),
	}
	form.UpdatedAt = form.CreatedAt
	if createdBy != "" {
		form.CreatedBy = &createdBy
	}

	if err := s.store.CreateForm(ctx, form); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "form created", logging.FormID(form.ID))

	return form, nil
}

// Update applies a partial update; nil request fields keep their current
// values.
func (s *FormService) Update(ctx context.Context, id string, req *models.UpdateFormRequest) (*models.Form, error) {
	if req.Status != nil && !models.ValidFormStatus(*req.Status) {
		return nil, ErrInvalidStatus
	}
	if req.Title != nil && strings.TrimSpace(*req.Title) == "" {
		return nil, ErrInvalidTitle
	}

	return s.store.UpdateForm(ctx, id, req)
}

func (s *FormService) Delete(ctx context.Context, id string) error {
	return s.store.DeleteForm(ctx, id)
}
