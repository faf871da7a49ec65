package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/bibforms/forms-api/internal/logging"
	"github.com/bibforms/forms-api/internal/metrics"
	"github.com/bibforms/forms-api/internal/models"
	"github.com/bibforms/forms-api/internal/notification"
	"github.com/bibforms/forms-api/internal/repository"
)

// ResponseStore is the persistence surface the submission pipeline depends on.
type ResponseStore interface {
	repository.FormStore
	repository.ResponseStore
	ProfileRoleCounts(ctx context.Context) (map[string]int, error)
}

// ResponseService is the submission handler. It validates the request,
// persists the response, and schedules a detached notification dispatch whose
// outcome never reaches the submitting client.
type ResponseService struct {
	store      ResponseStore
	dispatcher *notification.Dispatcher
	logger     *logging.Logger
}

func NewResponseService(store ResponseStore, dispatcher *notification.Dispatcher, logger *logging.Logger) *ResponseService {
	return &ResponseService{
		store:      store,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// Submit validates and persists a response, then fires the notification
// dispatch in the background. Dispatch errors must never surface here.
func (s *ResponseService) Submit(ctx context.Context, req *models.SubmitResponseRequest, caller models.AuthenticatedUser) (*models.FormResponse, error) {
	if req.FormID == "" {
		metrics.SubmissionsTotal.WithLabelValues("rejected").Inc()
		return nil, ErrMissingFormID
	}
	if req.ResponseData == nil {
		metrics.SubmissionsTotal.WithLabelValues("rejected").Inc()
		return nil, ErrInvalidResponseData
	}

	form, err := s.store.GetFormByID(ctx, req.FormID)
	if err != nil {
		metrics.SubmissionsTotal.WithLabelValues("rejected").Inc()
		return nil, err
	}

	// Admins may also submit to unpublished forms.
	if form.Status != models.FormStatusPublished && !caller.IsAdmin() {
		metrics.SubmissionsTotal.WithLabelValues("rejected").Inc()
		return nil, ErrFormNotPublished
	}

	responseID, _ := uuid.NewV7()
	resp := &models.FormResponse{
		ID:           responseID.String(),
		FormID:       req.FormID,
		ResponseData: req.ResponseData,
	}
	if caller.UserID != "" {
		resp.UserID = &caller.UserID
	}

	if err := s.store.InsertResponse(ctx, resp); err != nil {
		metrics.SubmissionsTotal.WithLabelValues("failed").Inc()
		return nil, err
	}

	metrics.SubmissionsTotal.WithLabelValues("accepted").Inc()
	s.logger.InfoContext(ctx, "response submitted",
		logging.ResponseID(resp.ID), logging.FormID(resp.FormID))

	go s.dispatchDetached(notification.Event{
		ResponseID: resp.ID,
		FormID:     resp.FormID,
		UserEmail:  caller.Email,
	})

	return resp, nil
}

// dispatchDetached runs after the submission confirmation is already on its
// way to the client. It uses a fresh context: a client disconnect must not
// cancel a dispatch in flight, and a dispatch runs to a terminal outcome
// unconditionally.
func (s *ResponseService) dispatchDetached(ev notification.Event) {
	if _, err := s.dispatcher.Dispatch(context.Background(), ev); err != nil {
		s.logger.Error("notification dispatch failed",
			logging.ResponseID(ev.ResponseID), logging.Error(err))
	}
}

// List returns responses visible to the caller: admins see everything,
// clients only their own rows. formID optionally narrows the listing.
func (s *ResponseService) List(ctx context.Context, caller models.AuthenticatedUser, formID string) ([]*models.ResponseWithForm, error) {
	userID := ""
	if !caller.IsAdmin() {
		userID = caller.UserID
	}
	return s.store.ListResponses(ctx, formID, userID)
}

// ListByForm returns one page of a form's responses for the admin listing.
func (s *ResponseService) ListByForm(ctx context.Context, formID string, page, limit int) (*models.ListResponsesResponse, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 50
	}

	responses, total, err := s.store.ListResponsesByForm(ctx, formID, page, limit)
	if err != nil {
		return nil, err
	}

	totalPages := (total + limit - 1) / limit

	return &models.ListResponsesResponse{
		Responses: responses,
		Pagination: models.Pagination{
			Page:       page,
			Limit:      limit,
			Total:      total,
			TotalPages: totalPages,
		},
	}, nil
}

func (s *ResponseService) Get(ctx context.Context, caller models.AuthenticatedUser, id string) (*models.ResponseWithForm, error) {
	resp, err := s.store.GetResponseWithForm(ctx, id)
	if err != nil {
		return nil, err
	}

	if !caller.IsAdmin() && (resp.UserID == nil || *resp.UserID != caller.UserID) {
		return nil, ErrForbidden
	}

	return resp, nil
}

func (s *ResponseService) Delete(ctx context.Context, caller models.AuthenticatedUser, id string) error {
	resp, err := s.store.GetResponseByID(ctx, id)
	if err != nil {
		return err
	}

	if !caller.IsAdmin() && (resp.UserID == nil || *resp.UserID != caller.UserID) {
		return ErrForbidden
	}

	return s.store.DeleteResponse(ctx, id)
}

// AttachFileMetadata records an uploaded file against a response.
func (s *ResponseService) AttachFileMetadata(ctx context.Context, caller models.AuthenticatedUser, req *models.FileMetadataRequest) (*models.FileUpload, error) {
	if req.FormResponseID == "" || req.QuestionName == "" || req.FileName == "" || req.FilePath == "" {
		return nil, ErrMissingFileFields
	}

	resp, err := s.store.GetResponseByID(ctx, req.FormResponseID)
	if err != nil {
		return nil, err
	}
	if !caller.IsAdmin() && (resp.UserID == nil || *resp.UserID != caller.UserID) {
		return nil, ErrForbidden
	}

	fileType := req.FileType
	if fileType == "" {
		fileType = "application/octet-stream"
	}

	uploadID, _ := uuid.NewV7()
	upload := &models.FileUpload{
		ID:             uploadID.String(),
		FormResponseID: req.FormResponseID,
		QuestionName:   req.QuestionName,
		FileName:       req.FileName,
		FilePath:       req.FilePath,
		FileSize:       req.FileSize,
		FileType:       fileType,
		UploadedBy:     caller.UserID,
	}

	if err := s.store.CreateFileUpload(ctx, upload); err != nil {
		return nil, err
	}

	return upload, nil
}

// Stats aggregates platform-wide counts for the admin dashboard.
func (s *ResponseService) Stats(ctx context.Context) (*models.AdminStats, error) {
	formCounts, err := s.store.FormStatusCounts(ctx)
	if err != nil {
		return nil, err
	}

	responseCount, err := s.store.CountResponses(ctx)
	if err != nil {
		return nil, err
	}

	roleCounts, err := s.store.ProfileRoleCounts(ctx)
	if err != nil {
		return nil, err
	}

	totalForms := 0
	for _, n := range formCounts {
		totalForms += n
	}
	totalUsers := 0
	for _, n := range roleCounts {
		totalUsers += n
	}

	return &models.AdminStats{
		TotalForms:     totalForms,
		PublishedForms: formCounts[models.FormStatusPublished],
		DraftForms:     formCounts[models.FormStatusDraft],
		ArchivedForms:  formCounts[models.FormStatusArchived],
		TotalResponses: responseCount,
		TotalUsers:     totalUsers,
		AdminUsers:     roleCounts[models.RoleAdmin],
		ClientUsers:    roleCounts[models.RoleClient],
	}, nil
}

// Export returns all of a form's responses for CSV export, newest first.
func (s *ResponseService) Export(ctx context.Context, formID string) ([]*models.ResponseWithForm, error) {
	return s.store.ListResponses(ctx, formID, "")
}
