package model

import "time"

// Tenant is one restaurant account on the platform. Per-restaurant booking
// behavior lives here: how long a party holds a table, which canonical
// turns exist, and whether opening hours are enforced at booking time.
type Tenant struct {
	ID                  string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	Name                string    `json:"name" bson:"name" validate:"required,min=2,max=100"`
	AdminPhone          string    `json:"admin_phone" bson:"admin_phone" validate:"required,e164"`
	TimeZone            string    `json:"time_zone,omitempty" bson:"time_zone,omitempty" validate:"omitempty,timezone"`
	ServiceDurationMin  int       `json:"service_duration_min,omitempty" bson:"service_duration_min,omitempty" validate:"omitempty,min=15,max=480"`
	TurnTimes           []string  `json:"turn_times,omitempty" bson:"turn_times,omitempty" validate:"omitempty,max=12,dive,datetime=15:04"`
	OpenDays            []string  `json:"open_days,omitempty" bson:"open_days,omitempty" validate:"omitempty,dive,oneof=Monday Tuesday Wednesday Thursday Friday Saturday Sunday"`
	OpenTime            string    `json:"open_time,omitempty" bson:"open_time,omitempty" validate:"omitempty,datetime=15:04"`
	CloseTime           string    `json:"close_time,omitempty" bson:"close_time,omitempty" validate:"omitempty,datetime=15:04"`
	EnforceOpeningHours bool      `json:"enforce_opening_hours" bson:"enforce_opening_hours"`
	CreatedAt           time.Time `json:"created_at" bson:"created_at" validate:"omitempty"`
}

type TenantUpdate struct {
	Name                string   `json:"name,omitempty" validate:"omitempty,min=2,max=100"`
	AdminPhone          string   `json:"admin_phone,omitempty" validate:"omitempty,e164"`
	TimeZone            string   `json:"time_zone,omitempty" validate:"omitempty,timezone"`
	ServiceDurationMin  *int     `json:"service_duration_min,omitempty" validate:"omitempty,min=15,max=480"`
	TurnTimes           []string `json:"turn_times,omitempty" validate:"omitempty,max=12,dive,datetime=15:04"`
	OpenDays            []string `json:"open_days,omitempty" validate:"omitempty,dive,oneof=Monday Tuesday Wednesday Thursday Friday Saturday Sunday"`
	OpenTime            string   `json:"open_time,omitempty" validate:"omitempty,datetime=15:04"`
	CloseTime           string   `json:"close_time,omitempty" validate:"omitempty,datetime=15:04"`
	EnforceOpeningHours *bool    `json:"enforce_opening_hours,omitempty"`
}
