package service

import (
	"context"
	"sort"

	"maitred/pkg/config"
	apperrors "maitred/pkg/errors"
	"maitred/pkg/model"
	"maitred/pkg/sanitizer"
	"maitred/pkg/timeslot"
)

// maxTablesPerTenant bounds the registry scan. No dining room in the
// corpus comes close; the resolver is not paginated on purpose.
const maxTablesPerTenant = 500

type TenantSource interface {
	GetByID(ctx context.Context, id string) (*model.Tenant, error)
}

type TableSource interface {
	FindByTenant(ctx context.Context, tenantID, zone string, limit int, offset int64) ([]*model.Table, error)
}

type ReservationSource interface {
	FindActiveByTenantAndDate(ctx context.Context, tenantID, date string) ([]*model.Reservation, error)
}

// Slot is one bookable alternative offered when the requested time fails.
type Slot struct {
	Time  string       `json:"time"`
	Table *model.Table `json:"table"`
}

type Result struct {
	Available    bool         `json:"available"`
	Table        *model.Table `json:"table,omitempty"`
	Alternatives []Slot       `json:"alternatives,omitempty"`
}

type Query struct {
	TenantID  string
	Date      string
	Time      string
	PartySize int
	Zone      string
}

type AvailabilityService interface {
	Check(ctx context.Context, q Query) (*Result, error)
}

type availabilityService struct {
	tenants      TenantSource
	tables       TableSource
	reservations ReservationSource
	cfg          *config.Config
}

func NewAvailabilityService(
	tenants TenantSource,
	tables TableSource,
	reservations ReservationSource,
	cfg *config.Config,
) AvailabilityService {
	return &availabilityService{
		tenants:      tenants,
		tables:       tables,
		reservations: reservations,
		cfg:          cfg,
	}
}

// Check resolves the smallest free table that fits the party at the
// requested slot. When nothing fits, it offers the tenant's canonical turn
// times that still have a feasible table, nearest to the requested time
// first.
func (s *availabilityService) Check(ctx context.Context, q Query) (*Result, error) {
	if q.PartySize <= 0 {
		return nil, apperrors.InvalidInput("Party size must be at least 1")
	}

	date, err := timeslot.ParseDate(q.Date)
	if err != nil {
		return nil, apperrors.InvalidInput(err.Error())
	}
	requested, err := timeslot.ParseClock(q.Time)
	if err != nil {
		return nil, apperrors.InvalidInput(err.Error())
	}

	tenant, err := s.tenants.GetByID(ctx, q.TenantID)
	if err != nil {
		return nil, err
	}

	zone := sanitizer.SanitizeLabel(q.Zone)
	tables, err := s.tables.FindByTenant(ctx, q.TenantID, zone, maxTablesPerTenant, 0)
	if err != nil {
		s.cfg.Log.Error("Failed to load tables for availability check",
			"tenant_id", q.TenantID,
			"zone", zone,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to load tables", err)
	}

	// Candidates come back capacity-ascending, label-ascending from the
	// registry, so the first fit is the tightest fit.
	candidates := make([]*model.Table, 0, len(tables))
	for _, t := range tables {
		if t.Capacity >= q.PartySize {
			candidates = append(candidates, t)
		}
	}
	if len(candidates) == 0 {
		return &Result{Available: false}, nil
	}

	reservations, err := s.reservations.FindActiveByTenantAndDate(ctx, q.TenantID, date)
	if err != nil {
		s.cfg.Log.Error("Failed to load reservations for availability check",
			"tenant_id", q.TenantID,
			"date", date,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to load reservations", err)
	}

	duration := int(s.cfg.ServiceDuration(tenant.ServiceDurationMin).Minutes())
	booked := windowsByTable(reservations, duration, s.cfg)

	window := timeslot.NewWindow(requested, duration)
	if table := firstFree(candidates, booked, window); table != nil {
		return &Result{Available: true, Table: table}, nil
	}

	return &Result{
		Available:    false,
		Alternatives: s.alternatives(tenant, candidates, booked, requested, duration),
	}, nil
}

func windowsByTable(reservations []*model.Reservation, duration int, cfg *config.Config) map[string][]timeslot.Window {
	booked := make(map[string][]timeslot.Window)
	for _, r := range reservations {
		start, err := timeslot.ParseClock(r.Time)
		if err != nil {
			cfg.Log.Warn("Skipping reservation with malformed time",
				"id", r.ID,
				"time", r.Time,
			)
			continue
		}
		booked[r.TableID] = append(booked[r.TableID], timeslot.NewWindow(start, duration))
	}
	return booked
}

func firstFree(candidates []*model.Table, booked map[string][]timeslot.Window, window timeslot.Window) *model.Table {
	for _, t := range candidates {
		if !anyOverlap(booked[t.ID], window) {
			return t
		}
	}
	return nil
}

func anyOverlap(windows []timeslot.Window, w timeslot.Window) bool {
	for _, other := range windows {
		if w.Overlaps(other) {
			return true
		}
	}
	return false
}

func (s *availabilityService) alternatives(
	tenant *model.Tenant,
	candidates []*model.Table,
	booked map[string][]timeslot.Window,
	requested int,
	duration int,
) []Slot {
	turnTimes := tenant.TurnTimes
	if len(turnTimes) == 0 {
		turnTimes = s.cfg.DefaultTurnTimes
	}

	var slots []Slot
	for _, turn := range turnTimes {
		start, err := timeslot.ParseClock(turn)
		if err != nil || start == requested {
			continue
		}
		if table := firstFree(candidates, booked, timeslot.NewWindow(start, duration)); table != nil {
			slots = append(slots, Slot{Time: timeslot.FormatClock(start), Table: table})
		}
	}

	sort.SliceStable(slots, func(i, j int) bool {
		a, _ := timeslot.ParseClock(slots[i].Time)
		b, _ := timeslot.ParseClock(slots[j].Time)
		return timeslot.Distance(a, requested) < timeslot.Distance(b, requested)
	})

	return slots
}
