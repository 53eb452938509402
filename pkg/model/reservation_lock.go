package model

import "time"

// ReservationLock is an advisory lock serializing concurrent booking
// attempts for one (tenant, table, date, time) slot. The unique _id insert
// is the atomicity point preventing race-induced double booking.
type ReservationLock struct {
	ID        string    `bson:"_id" json:"id"`
	ExpiresAt time.Time `bson:"expires_at" json:"expires_at"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
