package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bibforms/forms-api/internal/logging"
	"github.com/bibforms/forms-api/internal/models"
	"github.com/bibforms/forms-api/internal/notification"
	"github.com/bibforms/forms-api/internal/repository"
)

// fakeStore implements ResponseStore with overridable func fields. Methods
// without an override return zero values.
type fakeStore struct {
	getFormFunc             func(ctx context.Context, id string) (*models.Form, error)
	insertResponseFunc      func(ctx context.Context, r *models.FormResponse) error
	getResponseFunc         func(ctx context.Context, id string) (*models.FormResponse, error)
	getResponseWithFormFunc func(ctx context.Context, id string) (*models.ResponseWithForm, error)
	listResponsesFunc       func(ctx context.Context, formID, userID string) ([]*models.ResponseWithForm, error)
	listByFormFunc          func(ctx context.Context, formID string, page, limit int) ([]*models.ResponseWithForm, int, error)
	deleteResponseFunc      func(ctx context.Context, id string) error
	countResponsesFunc      func(ctx context.Context) (int, error)
	createFileUploadFunc    func(ctx context.Context, u *models.FileUpload) error
	formStatusCountsFunc    func(ctx context.Context) (map[string]int, error)
	profileRoleCountsFunc   func(ctx context.Context) (map[string]int, error)
}

func (f *fakeStore) CreateForm(ctx context.Context, form *models.Form) error { return nil }

func (f *fakeStore) GetFormByID(ctx context.Context, id string) (*models.Form, error) {
	if f.getFormFunc != nil {
		return f.getFormFunc(ctx, id)
	}
	return nil, repository.ErrFormNotFound
}

func (f *fakeStore) ListForms(ctx context.Context, status string) ([]*models.Form, error) {
	return nil, nil
}

func (f *fakeStore) UpdateForm(ctx context.Context, id string, req *models.UpdateFormRequest) (*models.Form, error) {
	return nil, nil
}

func (f *fakeStore) DeleteForm(ctx context.Context, id string) error { return nil }

func (f *fakeStore) FormStatusCounts(ctx context.Context) (map[string]int, error) {
	if f.formStatusCountsFunc != nil {
		return f.formStatusCountsFunc(ctx)
	}
	return map[string]int{}, nil
}

func (f *fakeStore) InsertResponse(ctx context.Context, r *models.FormResponse) error {
	if f.insertResponseFunc != nil {
		return f.insertResponseFunc(ctx, r)
	}
	return nil
}

func (f *fakeStore) GetResponseByID(ctx context.Context, id string) (*models.FormResponse, error) {
	if f.getResponseFunc != nil {
		return f.getResponseFunc(ctx, id)
	}
	return nil, repository.ErrResponseNotFound
}

func (f *fakeStore) GetResponseWithForm(ctx context.Context, id string) (*models.ResponseWithForm, error) {
	if f.getResponseWithFormFunc != nil {
		return f.getResponseWithFormFunc(ctx, id)
	}
	return nil, repository.ErrResponseNotFound
}

func (f *fakeStore) ListResponses(ctx context.Context, formID, userID string) ([]*models.ResponseWithForm, error) {
	if f.listResponsesFunc != nil {
		return f.listResponsesFunc(ctx, formID, userID)
	}
	return nil, nil
}

func (f *fakeStore) ListResponsesByForm(ctx context.Context, formID string, page, limit int) ([]*models.ResponseWithForm, int, error) {
	if f.listByFormFunc != nil {
		return f.listByFormFunc(ctx, formID, page, limit)
	}
	return nil, 0, nil
}

func (f *fakeStore) DeleteResponse(ctx context.Context, id string) error {
	if f.deleteResponseFunc != nil {
		return f.deleteResponseFunc(ctx, id)
	}
	return nil
}

func (f *fakeStore) CountResponses(ctx context.Context) (int, error) {
	if f.countResponsesFunc != nil {
		return f.countResponsesFunc(ctx)
	}
	return 0, nil
}

func (f *fakeStore) CreateFileUpload(ctx context.Context, u *models.FileUpload) error {
	if f.createFileUploadFunc != nil {
		return f.createFileUploadFunc(ctx, u)
	}
	return nil
}

func (f *fakeStore) ProfileRoleCounts(ctx context.Context) (map[string]int, error) {
	if f.profileRoleCountsFunc != nil {
		return f.profileRoleCountsFunc(ctx)
	}
	return map[string]int{}, nil
}

func testLogger() *logging.Logger {
	return logging.New(slog.LevelError, "text")
}

func disabledDispatcher(store notification.ResponseReader) *notification.Dispatcher {
	return notification.NewDispatcher(notification.Settings{}, store, testLogger())
}

func adminCaller() models.AuthenticatedUser {
	return models.AuthenticatedUser{UserID: "admin-1", Email: "admin@example.com", Role: models.RoleAdmin}
}

func clientCaller() models.AuthenticatedUser {
	return models.AuthenticatedUser{UserID: "client-1", Email: "client@example.com", Role: models.RoleClient}
}

func publishedForm() *models.Form {
	return &models.Form{
		ID:         "form-1",
		Title:      "Survey",
		JSONSchema: map[string]any{"questions": []any{}},
		Status:     models.FormStatusPublished,
	}
}

func TestSubmitValidation(t *testing.T) {
	tests := []struct {
		name    string
		req     *models.SubmitResponseRequest
		wantErr error
	}{
		{
			name:    "missing form id",
			req:     &models.SubmitResponseRequest{ResponseData: map[string]any{"q1": "a"}},
			wantErr: ErrMissingFormID,
		},
		{
			name:    "missing response data",
			req:     &models.SubmitResponseRequest{FormID: "form-1"},
			wantErr: ErrInvalidResponseData,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeStore{}
			svc := NewResponseService(store, disabledDispatcher(store), testLogger())

			_, err := svc.Submit(context.Background(), tt.req, clientCaller())

			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestSubmitFormNotFound(t *testing.T) {
	store := &fakeStore{}
	svc := NewResponseService(store, disabledDispatcher(store), testLogger())

	_, err := svc.Submit(context.Background(), &models.SubmitResponseRequest{
		FormID:       "missing",
		ResponseData: map[string]any{"q1": "a"},
	}, clientCaller())

	assert.ErrorIs(t, err, repository.ErrFormNotFound)
}

func TestSubmitUnpublishedForm(t *testing.T) {
	draft := publishedForm()
	draft.Status = models.FormStatusDraft

	store := &fakeStore{
		getFormFunc: func(ctx context.Context, id string) (*models.Form, error) {
			return draft, nil
		},
	}
	svc := NewResponseService(store, disabledDispatcher(store), testLogger())

	req := &models.SubmitResponseRequest{
		FormID:       draft.ID,
		ResponseData: map[string]any{"q1": "a"},
	}

	_, err := svc.Submit(context.Background(), req, clientCaller())
	assert.ErrorIs(t, err, ErrFormNotPublished, "clients cannot submit to drafts")

	resp, err := svc.Submit(context.Background(), req, adminCaller())
	require.NoError(t, err, "admins may submit to any form")
	assert.NotEmpty(t, resp.ID)
}

func TestSubmitPersistsResponse(t *testing.T) {
	var inserted *models.FormResponse
	store := &fakeStore{
		getFormFunc: func(ctx context.Context, id string) (*models.Form, error) {
			return publishedForm(), nil
		},
		insertResponseFunc: func(ctx context.Context, r *models.FormResponse) error {
			r.SubmittedAt = time.Now()
			inserted = r
			return nil
		},
	}
	svc := NewResponseService(store, disabledDispatcher(store), testLogger())

	resp, err := svc.Submit(context.Background(), &models.SubmitResponseRequest{
		FormID:       "form-1",
		ResponseData: map[string]any{"q1": "hello"},
	}, clientCaller())

	require.NoError(t, err)
	require.NotNil(t, inserted)
	assert.Equal(t, resp.ID, inserted.ID)
	assert.Equal(t, "form-1", inserted.FormID)
	require.NotNil(t, inserted.UserID)
	assert.Equal(t, "client-1", *inserted.UserID)
	assert.Equal(t, "hello", inserted.ResponseData["q1"])
	assert.False(t, resp.SubmittedAt.IsZero())
}

func TestSubmitSchedulesWebhookDispatch(t *testing.T) {
	delivered := make(chan notification.Payload, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var p notification.Payload
		if err := json.NewDecoder(r.Body).Decode(&p); err == nil {
			delivered <- p
		}
	}))
	defer srv.Close()

	store := &fakeStore{
		getFormFunc: func(ctx context.Context, id string) (*models.Form, error) {
			return publishedForm(), nil
		},
		getResponseWithFormFunc: func(ctx context.Context, id string) (*models.ResponseWithForm, error) {
			title := "Survey"
			return &models.ResponseWithForm{
				FormResponse: models.FormResponse{
					ID:           id,
					FormID:       "form-1",
					ResponseData: map[string]any{"q1": "hello"},
					SubmittedAt:  time.Now(),
				},
				FormTitle: &title,
			}, nil
		},
	}
	dispatcher := notification.NewDispatcher(notification.Settings{
		WebhookURL:      srv.URL,
		MaxAttempts:     5,
		RetryBackoff:    time.Millisecond,
		DeliveryTimeout: time.Second,
	}, store, testLogger())
	svc := NewResponseService(store, dispatcher, testLogger())

	resp, err := svc.Submit(context.Background(), &models.SubmitResponseRequest{
		FormID:       "form-1",
		ResponseData: map[string]any{"q1": "hello"},
	}, clientCaller())
	require.NoError(t, err)

	select {
	case p := <-delivered:
		assert.Equal(t, notification.EventFormSubmitted, p.Event)
		assert.Equal(t, resp.ID, p.Data.ResponseID)
		assert.Equal(t, "client@example.com", p.Data.UserEmail)
	case <-time.After(2 * time.Second):
		t.Fatal("webhook was never called")
	}
}

func TestListScopesClientToOwnResponses(t *testing.T) {
	var gotUserID string
	store := &fakeStore{
		listResponsesFunc: func(ctx context.Context, formID, userID string) ([]*models.ResponseWithForm, error) {
			gotUserID = userID
			return []*models.ResponseWithForm{}, nil
		},
	}
	svc := NewResponseService(store, disabledDispatcher(store), testLogger())

	_, err := svc.List(context.Background(), clientCaller(), "")
	require.NoError(t, err)
	assert.Equal(t, "client-1", gotUserID)

	_, err = svc.List(context.Background(), adminCaller(), "")
	require.NoError(t, err)
	assert.Empty(t, gotUserID, "admins list all responses")
}

func TestGetEnforcesOwnership(t *testing.T) {
	owner := "client-1"
	store := &fakeStore{
		getResponseWithFormFunc: func(ctx context.Context, id string) (*models.ResponseWithForm, error) {
			return &models.ResponseWithForm{
				FormResponse: models.FormResponse{ID: id, UserID: &owner},
			}, nil
		},
	}
	svc := NewResponseService(store, disabledDispatcher(store), testLogger())

	_, err := svc.Get(context.Background(), clientCaller(), "resp-1")
	assert.NoError(t, err, "owner can read their response")

	other := clientCaller()
	other.UserID = "client-2"
	_, err = svc.Get(context.Background(), other, "resp-1")
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = svc.Get(context.Background(), adminCaller(), "resp-1")
	assert.NoError(t, err, "admin can read any response")
}

func TestDeleteEnforcesOwnership(t *testing.T) {
	owner := "client-1"
	deleted := false
	store := &fakeStore{
		getResponseFunc: func(ctx context.Context, id string) (*models.FormResponse, error) {
			return &models.FormResponse{ID: id, UserID: &owner}, nil
		},
		deleteResponseFunc: func(ctx context.Context, id string) error {
			deleted = true
			return nil
		},
	}
	svc := NewResponseService(store, disabledDispatcher(store), testLogger())

	other := clientCaller()
	other.UserID = "client-2"
	err := svc.Delete(context.Background(), other, "resp-1")
	assert.ErrorIs(t, err, ErrForbidden)
	assert.False(t, deleted)

	err = svc.Delete(context.Background(), clientCaller(), "resp-1")
	require.NoError(t, err)
	assert.True(t, deleted)
}

func TestListByFormPagination(t *testing.T) {
	var gotPage, gotLimit int
	store := &fakeStore{
		listByFormFunc: func(ctx context.Context, formID string, page, limit int) ([]*models.ResponseWithForm, int, error) {
			gotPage, gotLimit = page, limit
			return []*models.ResponseWithForm{}, 120, nil
		},
	}
	svc := NewResponseService(store, disabledDispatcher(store), testLogger())

	result, err := svc.ListByForm(context.Background(), "form-1", 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, gotPage, "page defaults to 1")
	assert.Equal(t, 50, gotLimit, "limit defaults to 50")
	assert.Equal(t, 120, result.Pagination.Total)
	assert.Equal(t, 3, result.Pagination.TotalPages)

	_, err = svc.ListByForm(context.Background(), "form-1", 2, 500)
	require.NoError(t, err)
	assert.Equal(t, 2, gotPage)
	assert.Equal(t, 50, gotLimit, "limit is capped")
}

func TestAttachFileMetadata(t *testing.T) {
	owner := "client-1"
	var created *models.FileUpload
	store := &fakeStore{
		getResponseFunc: func(ctx context.Context, id string) (*models.FormResponse, error) {
			return &models.FormResponse{ID: id, UserID: &owner}, nil
		},
		createFileUploadFunc: func(ctx context.Context, u *models.FileUpload) error {
			created = u
			return nil
		},
	}
	svc := NewResponseService(store, disabledDispatcher(store), testLogger())

	_, err := svc.AttachFileMetadata(context.Background(), clientCaller(), &models.FileMetadataRequest{
		FormResponseID: "resp-1",
	})
	assert.ErrorIs(t, err, ErrMissingFileFields)

	upload, err := svc.AttachFileMetadata(context.Background(), clientCaller(), &models.FileMetadataRequest{
		FormResponseID: "resp-1",
		QuestionName:   "attachment",
		FileName:       "doc.pdf",
		FilePath:       "client-1/doc.pdf",
		FileSize:       42,
	})
	require.NoError(t, err)
	require.NotNil(t, created)
	assert.Equal(t, upload.ID, created.ID)
	assert.Equal(t, "application/octet-stream", created.FileType, "file type defaults")
	assert.Equal(t, "client-1", created.UploadedBy)
}

func TestStatsAggregation(t *testing.T) {
	store := &fakeStore{
		formStatusCountsFunc: func(ctx context.Context) (map[string]int, error) {
			return map[string]int{
				models.FormStatusPublished: 3,
				models.FormStatusDraft:     2,
				models.FormStatusArchived:  1,
			}, nil
		},
		countResponsesFunc: func(ctx context.Context) (int, error) { return 17, nil },
		profileRoleCountsFunc: func(ctx context.Context) (map[string]int, error) {
			return map[string]int{models.RoleAdmin: 1, models.RoleClient: 9}, nil
		},
	}
	svc := NewResponseService(store, disabledDispatcher(store), testLogger())

	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 6, stats.TotalForms)
	assert.Equal(t, 3, stats.PublishedForms)
	assert.Equal(t, 2, stats.DraftForms)
	assert.Equal(t, 1, stats.ArchivedForms)
	assert.Equal(t, 17, stats.TotalResponses)
	assert.Equal(t, 10, stats.TotalUsers)
	assert.Equal(t, 1, stats.AdminUsers)
	assert.Equal(t, 9, stats.ClientUsers)
}
