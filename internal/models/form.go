package models

import "time"

// Form statuses follow the draft -> published -> archived lifecycle.
const (
	FormStatusDraft     = "draft"
	FormStatusPublished = "published"
	FormStatusArchived  = "archived"
)

// ValidFormStatus reports whether s is one of the known lifecycle statuses.
func ValidFormStatus(s string) bool {
	switch s {
	case FormStatusDraft, FormStatusPublished, FormStatusArchived:
		return true
	}
	return false
}

// Form is an admin-authored schema describing a sequence of questions.
// JSONSchema is stored serialized and returned deserialized.
type Form struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	JSONSchema  map[string]any `json:"json_schema"`
	Status      string         `json:"status"`
	CreatedBy   *string        `json:"created_by,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}
