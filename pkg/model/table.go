package model

import "time"

type TableState string

const (
	TableFree     TableState = "free"
	TableOccupied TableState = "occupied"
	TableReserved TableState = "reserved"
)

// UpdatedBySystem marks transitions performed by the platform itself
// (auto-release sweeps, booking-time projections) as opposed to a named
// operator.
const UpdatedBySystem = "system"

// Table is one physical table in a tenant's dining room. State is a
// projection of the reservation ledger plus wall-clock time; it only
// changes through occupancy transitions, never by direct writes.
type Table struct {
	ID       string   `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	TenantID string   `json:"tenant_id" bson:"tenant_id" validate:"required,mongodb"`
	Label    string   `json:"label" bson:"label" validate:"required,min=1,max=20"`
	Zone     string   `json:"zone,omitempty" bson:"zone,omitempty" validate:"omitempty,min=2,max=50"`
	Capacity int      `json:"capacity" bson:"capacity" validate:"required,min=1,max=50"`
	Shifts   []string `json:"shifts,omitempty" bson:"shifts,omitempty" validate:"omitempty,dive,oneof=lunch dinner"`

	State                TableState `json:"state" bson:"state" validate:"required,oneof=free occupied reserved"`
	CurrentReservationID string     `json:"current_reservation_id,omitempty" bson:"current_reservation_id,omitempty"`
	LastUpdated          time.Time  `json:"last_updated" bson:"last_updated"`
	UpdatedBy            string     `json:"updated_by,omitempty" bson:"updated_by,omitempty"`

	CreatedAt time.Time `json:"created_at" bson:"created_at" validate:"omitempty"`
}

// TableUpdate carries a partial edit of the registry fields. Occupancy
// state is not editable here; it only moves through transitions.
type TableUpdate struct {
	Label    string   `json:"label,omitempty" validate:"omitempty,min=1,max=20"`
	Zone     string   `json:"zone,omitempty" validate:"omitempty,min=2,max=50"`
	Capacity *int     `json:"capacity,omitempty" validate:"omitempty,min=1,max=50"`
	Shifts   []string `json:"shifts,omitempty" validate:"omitempty,dive,oneof=lunch dinner"`
}
