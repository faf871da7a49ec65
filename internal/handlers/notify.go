package handlers

import (
	"errors"
	"net/http"

	"github.com/bibforms/forms-api/internal/notification"
)

// NotifyHandler exposes the dispatch sequence synchronously. It exists for
// internal callers that need the dispatch outcome in the reply; form
// submissions use the detached path instead.
type NotifyHandler struct {
	dispatcher *notification.Dispatcher
}

func NewNotifyHandler(dispatcher *notification.Dispatcher) *NotifyHandler {
	return &NotifyHandler{dispatcher: dispatcher}
}

// Notify runs one dispatch and reports its terminal outcome. Soft warnings
// still answer 200: the submission behind the event is already durable, so
// nothing past this point is the caller's failure.
func (h *NotifyHandler) Notify(w http.ResponseWriter, r *http.Request) {
	var ev notification.Event
	if err := decodeJSON(r, &ev); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	outcome, err := h.dispatcher.Dispatch(r.Context(), ev)
	if err != nil {
		if errors.Is(err, notification.ErrInvalidEvent) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to process notification")
		return
	}

	writeJSON(w, http.StatusOK, outcome)
}
