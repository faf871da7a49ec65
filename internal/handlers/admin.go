package handlers

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/bibforms/forms-api/internal/service"
)

// AdminHandler serves the admin dashboard endpoints: platform stats and CSV
// export of a form's responses.
type AdminHandler struct {
	responses *service.ResponseService
	forms     *service.FormService
}

func NewAdminHandler(responses *service.ResponseService, forms *service.FormService) *AdminHandler {
	return &AdminHandler{responses: responses, forms: forms}
}

func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.responses.Stats(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, stats)
}

// ExportCSV streams a form's responses as CSV. Columns are the union of all
// question names seen across the responses, sorted, preceded by fixed
// metadata columns.
func (h *AdminHandler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	formID := r.PathValue("id")

	form, err := h.forms.Get(r.Context(), formID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	responses, err := h.responses.Export(r.Context(), formID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	questions := map[string]struct{}{}
	for _, resp := range responses {
		for name := range resp.ResponseData {
			questions[name] = struct{}{}
		}
	}
	columns := make([]string, 0, len(questions))
	for name := range questions {
		columns = append(columns, name)
	}
	sort.Strings(columns)

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", form.Title+"-responses.csv"))

	cw := csv.NewWriter(w)
	defer cw.Flush()

	header := append([]string{"response_id", "submitted_at", "user_email"}, columns...)
	cw.Write(header)

	for _, resp := range responses {
		email := ""
		if resp.UserEmail != nil {
			email = *resp.UserEmail
		}
		row := []string{resp.ID, resp.SubmittedAt.Format(time.RFC3339), email}
		for _, name := range columns {
			row = append(row, csvCell(resp.ResponseData[name]))
		}
		cw.Write(row)
	}
}

// csvCell renders an answer value as a flat string. Nested values fall back
// to their JSON encoding.
func csvCell(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return fmt.Sprintf("%v", val)
	case bool:
		return fmt.Sprintf("%t", val)
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprintf("%v", val)
		}
		return string(b)
	}
}
