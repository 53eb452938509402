// Package audit emits reservation lifecycle events to the audit topic.
// Emission is best-effort: a broker outage must never fail a booking, so
// publish errors are logged and swallowed.
package audit

import (
	"context"
	"time"

	"maitred/pkg/kafka"
	"maitred/pkg/logger"
)

const (
	EventReservationCreated   = "reservation.created"
	EventReservationCancelled = "reservation.cancelled"
	EventReservationCompleted = "reservation.completed"
	EventTableReleased        = "table.released"
)

// Publisher is the slice of the Kafka producer the recorder needs.
type Publisher interface {
	Publish(ctx context.Context, msg kafka.Message) error
}

type ReservationEvent struct {
	TenantID        string `json:"tenant_id"`
	ReservationID   string `json:"reservation_id"`
	TableID         string `json:"table_id,omitempty"`
	Date            string `json:"date,omitempty"`
	Time            string `json:"time,omitempty"`
	PartySize       int    `json:"party_size,omitempty"`
	CustomerPhone   string `json:"customer_phone,omitempty"`
	PreviousStatus  string `json:"previous_status,omitempty"`
	OccurredAt      string `json:"occurred_at"`
	ElapsedMinutes  int    `json:"elapsed_minutes,omitempty"`
	ReleasedBy      string `json:"released_by,omitempty"`
	ConfirmationRef string `json:"confirmation_code,omitempty"`
}

type Recorder struct {
	publisher Publisher
	source    string
	log       *logger.Logger
}

// NewRecorder builds an event recorder. A nil publisher disables emission;
// events are then logged locally and dropped, which keeps single-binary
// deployments working without a broker.
func NewRecorder(publisher Publisher, source string, log *logger.Logger) *Recorder {
	return &Recorder{
		publisher: publisher,
		source:    source,
		log:       log.With("component", "audit"),
	}
}

func (r *Recorder) Record(ctx context.Context, eventType string, event ReservationEvent) {
	if event.OccurredAt == "" {
		event.OccurredAt = time.Now().UTC().Format(time.RFC3339)
	}

	if r.publisher == nil {
		r.log.Debug("Audit event (no broker configured)",
			"event_type", eventType,
			"tenant_id", event.TenantID,
			"reservation_id", event.ReservationID,
		)
		return
	}

	msg := kafka.NewMessage().
		WithKey(event.TenantID).
		WithValue(event).
		WithEventType(eventType).
		WithSource(r.source).
		Build()

	if err := r.publisher.Publish(ctx, msg); err != nil {
		r.log.Warn("Failed to publish audit event",
			"event_type", eventType,
			"tenant_id", event.TenantID,
			"reservation_id", event.ReservationID,
			"error", err,
		)
	}
}
