package models

type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role,omitempty"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthResponse struct {
	User  Profile `json:"user"`
	Token string  `json:"token"`
}

type ChangePasswordRequest struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

type CreateFormRequest struct {
	Title       string         `json:"title"`
	Description string         `json:"description"`
	JSONSchema  map[string]any `json:"json_schema"`
	Status      string         `json:"status"`
}

// UpdateFormRequest carries a partial update; nil fields keep their current
// values.
type UpdateFormRequest struct {
	Title       *string         `json:"title"`
	Description *string         `json:"description"`
	JSONSchema  *map[string]any `json:"json_schema"`
	Status      *string         `json:"status"`
}

type SubmitResponseRequest struct {
	FormID       string         `json:"form_id"`
	ResponseData map[string]any `json:"response_data"`
}

type SubmitResponseResult struct {
	Message  string        `json:"message"`
	Response *FormResponse `json:"response"`
}

type FileMetadataRequest struct {
	FormResponseID string `json:"form_response_id"`
	QuestionName   string `json:"question_name"`
	FileName       string `json:"file_name"`
	FilePath       string `json:"file_path"`
	FileSize       int64  `json:"file_size"`
	FileType       string `json:"file_type"`
}

type ListResponsesResponse struct {
	Responses  []*ResponseWithForm `json:"responses"`
	Pagination Pagination          `json:"pagination"`
}

// AdminStats aggregates platform-wide counts for the admin dashboard.
type AdminStats struct {
	TotalForms     int `json:"totalForms"`
	PublishedForms int `json:"publishedForms"`
	DraftForms     int `json:"draftForms"`
	ArchivedForms  int `json:"archivedForms"`
	TotalResponses int `json:"totalResponses"`
	TotalUsers     int `json:"totalUsers"`
	AdminUsers     int `json:"adminUsers"`
	ClientUsers    int `json:"clientUsers"`
}
