package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bibforms/forms-api/internal/models"
)

func TestFormCreateValidation(t *testing.T) {
	tests := []struct {
		name    string
		req     *models.CreateFormRequest
		wantErr error
	}{
		{
			name:    "empty title",
			req:     &models.CreateFormRequest{Title: "   ", JSONSchema: map[string]any{}},
			wantErr: ErrInvalidTitle,
		},
		{
			name:    "missing schema",
			req:     &models.CreateFormRequest{Title: "Survey"},
			wantErr: ErrInvalidSchema,
		},
		{
			name:    "bad status",
			req:     &models.CreateFormRequest{Title: "Survey", JSONSchema: map[string]any{}, Status: "live"},
			wantErr: ErrInvalidStatus,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewFormService(&fakeStore{}, testLogger())

			_, err := svc.Create(context.Background(), tt.req, "admin-1")

			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestFormCreateDefaults(t *testing.T) {
	svc := NewFormService(&fakeStore{}, testLogger())

	form, err := svc.Create(context.Background(), &models.CreateFormRequest{
		Title:      "Survey",
		JSONSchema: map[string]any{"questions": []any{}},
	}, "admin-1")

	require.NoError(t, err)
	assert.NotEmpty(t, form.ID)
	assert.Equal(t, models.FormStatusDraft, form.Status, "status defaults to draft")
	require.NotNil(t, form.CreatedBy)
	assert.Equal(t, "admin-1", *form.CreatedBy)
	assert.False(t, form.CreatedAt.IsZero())
}

func TestFormListRejectsUnknownStatus(t *testing.T) {
	svc := NewFormService(&fakeStore{}, testLogger())

	_, err := svc.List(context.Background(), "live")
	assert.ErrorIs(t, err, ErrInvalidStatus)

	_, err = svc.List(context.Background(), models.FormStatusPublished)
	assert.NoError(t, err)

	_, err = svc.List(context.Background(), "")
	assert.NoError(t, err)
}

func TestFormUpdateValidation(t *testing.T) {
	svc := NewFormService(&fakeStore{}, testLogger())

	bad := "live"
	_, err := svc.Update(context.Background(), "form-1", &models.UpdateFormRequest{Status: &bad})
	assert.ErrorIs(t, err, ErrInvalidStatus)

	empty := "  "
	_, err = svc.Update(context.Background(), "form-1", &models.UpdateFormRequest{Title: &empty})
	assert.ErrorIs(t, err, ErrInvalidTitle)
}
