package config

import "time"

const (
	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "maitred"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultPort = "8080"

	DefaultRateLimitRequests = 10
	DefaultRateLimitWindow   = 1 * time.Minute

	DefaultRequestTimeout = 30 * time.Second
	DefaultIdempotencyTTL = 24 * time.Hour
	DefaultMaxRequestSize = 1 * 1024 * 1024 // 1MB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	// A party holds its table for two hours unless the tenant overrides it.
	DefaultServiceDurationMin = 120

	// Canonical lunch and dinner turns offered as alternatives when the
	// requested time has no free table.
	DefaultTurnTimesCSV = "12:00,13:30,19:00,21:00"

	DefaultSweepInterval  = 5 * time.Minute
	DefaultBookingLockTTL = 10 * time.Second

	DefaultPaginationLimit = 100
)

// Reservation lifecycle statuses.
const (
	Pending   = "pending"
	Confirmed = "confirmed"
	Completed = "completed"
	Cancelled = "cancelled"
)
