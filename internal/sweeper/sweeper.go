package sweeper

import (
	"context"
	"sync"
	"time"

	"maitred/internal/audit"
	"maitred/pkg/config"
	apperrors "maitred/pkg/errors"
	"maitred/pkg/model"
)

// tenantPageSize is the page size used when walking every tenant. Sweeps
// run off the request path, so small pages are fine.
const tenantPageSize = 50

type TenantLister interface {
	GetByID(ctx context.Context, id string) (*model.Tenant, error)
	GetAll(ctx context.Context, limit int, offset int64) ([]*model.Tenant, int64, error)
}

type TableReleaser interface {
	GetByState(ctx context.Context, tenantID string, state model.TableState) ([]*model.Table, error)
	Release(ctx context.Context, tableID, updatedBy string) (*model.Table, error)
}

type ReservationCompleter interface {
	UpdateStatus(ctx context.Context, id, status string) error
}

// Report summarizes one sweep run.
type Report struct {
	TenantsSwept   int `json:"tenants_swept"`
	TablesChecked  int `json:"tables_checked"`
	TablesReleased int `json:"tables_released"`
	Failures       int `json:"failures"`
}

type SweepService interface {
	Sweep(ctx context.Context, tenantID string) (*Report, error)
}

type sweepService struct {
	tenants      TenantLister
	tables       TableReleaser
	reservations ReservationCompleter
	recorder     *audit.Recorder
	cfg          *config.Config

	// mu keeps sweeps from overlapping. The ticker loop and the on-demand
	// endpoint share one service instance.
	mu  sync.Mutex
	now func() time.Time
}

func NewSweepService(
	tenants TenantLister,
	tables TableReleaser,
	reservations ReservationCompleter,
	recorder *audit.Recorder,
	cfg *config.Config,
) SweepService {
	return &sweepService{
		tenants:      tenants,
		tables:       tables,
		reservations: reservations,
		recorder:     recorder,
		cfg:          cfg,
		now:          time.Now,
	}
}

// Sweep releases tables that have been occupied for at least the tenant's
// service duration and completes the reservations holding them. An empty
// tenantID sweeps every tenant. Per-table failures are counted and logged
// but never abort the run; a second Sweep over already-released tables is
// a no-op, so the operation is safe to retry.
func (s *sweepService) Sweep(ctx context.Context, tenantID string) (*Report, error) {
	if !s.mu.TryLock() {
		return nil, apperrors.Conflict("A sweep is already in progress")
	}
	defer s.mu.Unlock()

	report := &Report{}

	if tenantID != "" {
		tenant, err := s.tenants.GetByID(ctx, tenantID)
		if err != nil {
			return nil, err
		}
		s.sweepTenant(ctx, tenant, report)
		return report, nil
	}

	var offset int64
	for {
		tenants, total, err := s.tenants.GetAll(ctx, tenantPageSize, offset)
		if err != nil {
			return nil, err
		}
		for _, tenant := range tenants {
			s.sweepTenant(ctx, tenant, report)
		}
		offset += int64(len(tenants))
		if len(tenants) == 0 || offset >= total {
			break
		}
	}

	return report, nil
}

func (s *sweepService) sweepTenant(ctx context.Context, tenant *model.Tenant, report *Report) {
	report.TenantsSwept++

	tables, err := s.tables.GetByState(ctx, tenant.ID, model.TableOccupied)
	if err != nil {
		s.cfg.Log.Error("Failed to load occupied tables for sweep",
			"tenant_id", tenant.ID,
			"error", err,
		)
		report.Failures++
		return
	}

	duration := s.cfg.ServiceDuration(tenant.ServiceDurationMin)

	for _, table := range tables {
		report.TablesChecked++

		elapsed := s.now().Sub(table.LastUpdated)
		if elapsed < duration {
			continue
		}

		if s.releaseTable(ctx, tenant, table, elapsed) {
			report.TablesReleased++
		} else {
			report.Failures++
		}
	}
}

func (s *sweepService) releaseTable(ctx context.Context, tenant *model.Tenant, table *model.Table, elapsed time.Duration) bool {
	reservationID := table.CurrentReservationID

	if _, err := s.tables.Release(ctx, table.ID, model.UpdatedBySystem); err != nil {
		s.cfg.Log.Warn("Failed to release table during sweep",
			"tenant_id", tenant.ID,
			"table_id", table.ID,
			"error", err,
		)
		return false
	}

	// The reservation may already be cancelled or completed through another
	// path; a rejected transition here is not a sweep failure.
	if reservationID != "" {
		if err := s.reservations.UpdateStatus(ctx, reservationID, config.Completed); err != nil {
			s.cfg.Log.Warn("Failed to complete reservation during sweep",
				"tenant_id", tenant.ID,
				"table_id", table.ID,
				"reservation_id", reservationID,
				"error", err,
			)
		}
	}

	s.recorder.Record(ctx, audit.EventTableReleased, audit.ReservationEvent{
		TenantID:       tenant.ID,
		ReservationID:  reservationID,
		TableID:        table.ID,
		PreviousStatus: string(model.TableOccupied),
		ElapsedMinutes: int(elapsed.Minutes()),
		ReleasedBy:     model.UpdatedBySystem,
	})

	s.cfg.Log.Info("Table auto-released",
		"tenant_id", tenant.ID,
		"table_id", table.ID,
		"reservation_id", reservationID,
		"elapsed_minutes", int(elapsed.Minutes()),
	)
	return true
}
