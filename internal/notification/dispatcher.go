package notification

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bibforms/forms-api/internal/logging"
	"github.com/bibforms/forms-api/internal/metrics"
	"github.com/bibforms/forms-api/internal/models"
	"github.com/bibforms/forms-api/internal/repository"
)

// EventFormSubmitted tags the payload sent on each form submission.
const EventFormSubmitted = "form_submitted"

// fallbackFormTitle is used when the form join produced no title.
const fallbackFormTitle = "Untitled form"

// ErrInvalidEvent is returned when an event is missing a required field. It
// only surfaces to a caller when dispatch is invoked synchronously.
var ErrInvalidEvent = errors.New("responseId, formId and userEmail are required")

// Settings holds the dispatcher's tunables. They are injected rather than
// hard-coded so tests can run with a near-zero backoff.
type Settings struct {
	WebhookURL      string
	MaxAttempts     int
	RetryBackoff    time.Duration
	DeliveryTimeout time.Duration
}

// ResponseReader is the slice of the response store the dispatcher needs: a
// point lookup joined with the parent form's title.
type ResponseReader interface {
	GetResponseWithForm(ctx context.Context, id string) (*models.ResponseWithForm, error)
}

// Event identifies a freshly persisted response to notify about. It is
// ephemeral; it lives for exactly one dispatch attempt sequence.
type Event struct {
	ResponseID string `json:"responseId"`
	FormID     string `json:"formId"`
	UserEmail  string `json:"userEmail"`
}

// Validate checks that all required event fields are present.
func (e Event) Validate() error {
	if e.ResponseID == "" || e.FormID == "" || e.UserEmail == "" {
		return ErrInvalidEvent
	}
	return nil
}

// Payload is the wire format delivered to the webhook endpoint.
type Payload struct {
	Event     string      `json:"event"`
	Timestamp string      `json:"timestamp"`
	Data      PayloadData `json:"data"`
}

type PayloadData struct {
	ResponseID   string         `json:"responseId"`
	FormID       string         `json:"formId"`
	FormTitle    string         `json:"formTitle"`
	UserEmail    string         `json:"userEmail"`
	ResponseData map[string]any `json:"responseData"`
	SubmittedAt  time.Time      `json:"submittedAt"`
}

// Outcome is the terminal result of a dispatch. Warnings are soft: the
// underlying submission is considered successful regardless, so an Outcome is
// never escalated to an error past the dispatch boundary.
type Outcome struct {
	Success       bool   `json:"success"`
	Disabled      bool   `json:"-"`
	Message       string `json:"message,omitempty"`
	Warning       string `json:"warning,omitempty"`
	WebhookStatus int    `json:"webhookStatus,omitempty"`
	Attempts      int    `json:"-"`
}

// Dispatcher performs the read-back/notify sequence for submitted responses.
// It is safe for concurrent use; concurrent dispatches share no mutable state.
type Dispatcher struct {
	settings Settings
	store    ResponseReader
	channel  Channel
	logger   *logging.Logger
}

// NewDispatcher wires a dispatcher against the response store. The webhook
// channel is created from the settings; a dispatcher with no webhook URL is
// valid and reports every dispatch as disabled.
func NewDispatcher(settings Settings, store ResponseReader, logger *logging.Logger) *Dispatcher {
	d := &Dispatcher{
		settings: settings,
		store:    store,
		logger:   logger,
	}
	if settings.WebhookURL != "" {
		d.channel = NewWebhookChannel(settings.WebhookURL, settings.DeliveryTimeout)
	}
	return d
}

// Dispatch runs the linear dispatch state machine: configured-check,
// bounded retry-read, payload assembly, single delivery. The returned error is
// non-nil only for an invalid event or a store failure; everything downstream
// of a successful read-back degrades to a soft warning in the Outcome.
func (d *Dispatcher) Dispatch(ctx context.Context, ev Event) (Outcome, error) {
	// The configured-check comes first: with no webhook URL there is nothing
	// to deliver, so even a malformed event resolves to the disabled outcome.
	if d.settings.WebhookURL == "" {
		d.logger.InfoContext(ctx, "webhook disabled, skipping notification",
			logging.ResponseID(ev.ResponseID))
		metrics.DispatchOutcomes.WithLabelValues(metrics.OutcomeDisabled).Inc()
		return Outcome{
			Success:  true,
			Disabled: true,
			Message:  "response saved (webhook disabled)",
		}, nil
	}

	if err := ev.Validate(); err != nil {
		metrics.DispatchOutcomes.WithLabelValues(metrics.OutcomeInvalidEvent).Inc()
		return Outcome{}, err
	}

	row, attempts, err := d.readBack(ctx, ev.ResponseID)
	if err != nil {
		return Outcome{}, err
	}
	if row == nil {
		warning := fmt.Sprintf("response not available after %d attempts", attempts)
		d.logger.WarnContext(ctx, "read-back exhausted",
			logging.ResponseID(ev.ResponseID), logging.Attempt(attempts))
		metrics.DispatchOutcomes.WithLabelValues(metrics.OutcomeResponseMissing).Inc()
		return Outcome{Success: false, Warning: warning, Attempts: attempts}, nil
	}

	payload := buildPayload(ev, row)

	start := time.Now()
	status, err := d.channel.Send(ctx, payload)
	metrics.WebhookDeliveryDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		d.logger.WarnContext(ctx, "webhook delivery failed",
			logging.ResponseID(ev.ResponseID), logging.Error(err))
		metrics.DispatchOutcomes.WithLabelValues(metrics.OutcomeDeliveryFailed).Inc()
		out := Outcome{
			Success:  true,
			Warning:  "response saved but webhook notification failed",
			Attempts: attempts,
		}
		if status > 0 {
			out.WebhookStatus = status
		}
		return out, nil
	}

	d.logger.InfoContext(ctx, "webhook notification delivered",
		logging.ResponseID(ev.ResponseID), logging.Status(status))
	metrics.DispatchOutcomes.WithLabelValues(metrics.OutcomeDelivered).Inc()
	return Outcome{
		Success:       true,
		Message:       "notification delivered",
		WebhookStatus: status,
		Attempts:      attempts,
	}, nil
}

// readBack polls for the response row, tolerating read-after-write lag. It
// stops as soon as the row is visible and never exceeds MaxAttempts. A nil
// row with a nil error means the retry budget was exhausted.
func (d *Dispatcher) readBack(ctx context.Context, responseID string) (*models.ResponseWithForm, int, error) {
	attempts := 0
	for attempts < d.settings.MaxAttempts {
		attempts++
		metrics.DispatchReadAttempts.Inc()

		row, err := d.store.GetResponseWithForm(ctx, responseID)
		if err == nil {
			return row, attempts, nil
		}
		if !errors.Is(err, repository.ErrResponseNotFound) {
			return nil, attempts, fmt.Errorf("read back response: %w", err)
		}

		d.logger.DebugContext(ctx, "response not yet visible",
			logging.ResponseID(responseID), logging.Attempt(attempts))

		if attempts < d.settings.MaxAttempts {
			time.Sleep(d.settings.RetryBackoff)
		}
	}
	return nil, attempts, nil
}

func buildPayload(ev Event, row *models.ResponseWithForm) *Payload {
	formTitle := fallbackFormTitle
	if row.FormTitle != nil && *row.FormTitle != "" {
		formTitle = *row.FormTitle
	}

	return &Payload{
		Event:     EventFormSubmitted,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Data: PayloadData{
			ResponseID:   ev.ResponseID,
			FormID:       ev.FormID,
			FormTitle:    formTitle,
			UserEmail:    ev.UserEmail,
			ResponseData: row.ResponseData,
			SubmittedAt:  row.SubmittedAt,
		},
	}
}
