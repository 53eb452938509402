package model

import "time"

// Reservation is one ledger entry. Date and Time keep the minute-granular
// string forms the ledger is keyed by ("2006-01-02" and "15:04");
// pkg/timeslot owns the arithmetic over them. Cancellation is a status
// change, never a deletion, so the ledger stays append-only.
type Reservation struct {
	ID            string `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	TenantID      string `json:"tenant_id" bson:"tenant_id" validate:"required,mongodb"`
	Date          string `json:"date" bson:"date" validate:"required,datetime=2006-01-02"`
	Time          string `json:"time" bson:"time" validate:"required,datetime=15:04"`
	PartySize     int    `json:"party_size" bson:"party_size" validate:"required,min=1,max=50"`
	CustomerName  string `json:"customer_name" bson:"customer_name" validate:"required,min=2,max=100"`
	CustomerPhone string `json:"customer_phone" bson:"customer_phone" validate:"required,e164"`
	Zone          string `json:"zone,omitempty" bson:"zone,omitempty" validate:"omitempty,min=2,max=50"`
	TableID       string `json:"table_id" bson:"table_id" validate:"required,mongodb"`
	Status        string `json:"status" bson:"status" validate:"required,oneof=pending confirmed completed cancelled"`
	Notes         string `json:"notes,omitempty" bson:"notes,omitempty" validate:"omitempty,max=500"`

	// Short code read back to the caller by the voice agent.
	ConfirmationCode string `json:"confirmation_code,omitempty" bson:"confirmation_code,omitempty"`

	CreatedAt time.Time `json:"created_at" bson:"created_at" validate:"omitempty"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at" validate:"omitempty"`
}

// Active reports whether the reservation still claims its table slot.
// Completed and cancelled entries stay in the ledger for audit but no
// longer block bookings.
func (r *Reservation) Active() bool {
	return r.Status == "pending" || r.Status == "confirmed"
}

// ReservationFilter narrows ledger queries. Zero values mean "any".
type ReservationFilter struct {
	TenantID      string
	Date          string
	Status        string
	CustomerPhone string
	TableID       string
}
