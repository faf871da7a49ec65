package models

import "time"

// FormResponse is one submitter's completed answer set against a form.
// ResponseData is an arbitrary JSON mapping of question name to answer value;
// it is stored serialized and deserialized on read.
type FormResponse struct {
	ID           string         `json:"id"`
	FormID       string         `json:"form_id"`
	UserID       *string        `json:"user_id,omitempty"`
	ResponseData map[string]any `json:"response_data"`
	SubmittedAt  time.Time      `json:"submitted_at"`
}

// ResponseWithForm is a response row joined with its parent form's title and
// the submitter's email. The joins are LEFT joins, so both may be absent.
type ResponseWithForm struct {
	FormResponse
	FormTitle *string `json:"form_title,omitempty"`
	UserEmail *string `json:"user_email,omitempty"`
}

// FileUpload records metadata for a file attached to a response. The file
// content itself lives in the blob store under FilePath.
type FileUpload struct {
	ID             string    `json:"id"`
	FormResponseID string    `json:"form_response_id"`
	QuestionName   string    `json:"question_name"`
	FileName       string    `json:"file_name"`
	FilePath       string    `json:"file_path"`
	FileSize       int64     `json:"file_size"`
	FileType       string    `json:"file_type"`
	UploadedBy     string    `json:"uploaded_by"`
	UploadedAt     time.Time `json:"uploaded_at"`
}

// Pagination describes one page of a listing.
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}
