package service

import "errors"

var (
	// Submission errors
	ErrMissingFormID       = errors.New("form_id is required")
	ErrInvalidResponseData = errors.New("response_data must be an object")
	ErrFormNotPublished    = errors.New("this form is not published yet")

	// Form authoring errors
	ErrInvalidTitle  = errors.New("title is required and must be a non-empty string")
	ErrInvalidSchema = errors.New("json_schema is required and must be an object")
	ErrInvalidStatus = errors.New("status must be draft, published or archived")

	// Auth errors
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailRequired      = errors.New("email and password are required")
	ErrPasswordMismatch   = errors.New("old password is incorrect")

	// Access control
	ErrForbidden = errors.New("access denied")

	// File metadata
	ErrMissingFileFields = errors.New("form_response_id, question_name, file_name and file_path are required")
)
