package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"maitred/internal/occupancy"
	tableserrors "maitred/internal/tables/errors"
	"maitred/internal/tables/repository"
	"maitred/internal/tables/validator"
	"maitred/pkg/config"
	apperrors "maitred/pkg/errors"
	"maitred/pkg/model"
	"maitred/pkg/sanitizer"
)

// TenantChecker is the slice of the tenant service the registry needs:
// proof that a tenant exists before tables are attached to it.
type TenantChecker interface {
	GetByID(ctx context.Context, id string) (*model.Tenant, error)
}

type TableService interface {
	Create(ctx context.Context, table *model.Table) error
	GetByID(ctx context.Context, id string) (*model.Table, error)
	GetByTenant(ctx context.Context, tenantID, zone string, limit int, offset int64) ([]*model.Table, int64, error)
	GetByState(ctx context.Context, tenantID string, state model.TableState) ([]*model.Table, error)
	Update(ctx context.Context, id string, updates *model.TableUpdate) error
	Delete(ctx context.Context, id string) error

	Seat(ctx context.Context, tableID, reservationID, updatedBy string) (*model.Table, error)
	Reserve(ctx context.Context, tableID, reservationID, updatedBy string) (*model.Table, error)
	Release(ctx context.Context, tableID, updatedBy string) (*model.Table, error)
}

type tableService struct {
	repo      repository.TableRepository
	tenants   TenantChecker
	validator *validator.TableValidator
	cfg       *config.Config
}

func NewTableService(
	repo repository.TableRepository,
	tenants TenantChecker,
	validator *validator.TableValidator,
	cfg *config.Config,
) TableService {
	return &tableService{
		repo:      repo,
		tenants:   tenants,
		validator: validator,
		cfg:       cfg,
	}
}

func (s *tableService) Create(ctx context.Context, table *model.Table) error {
	s.sanitize(table)

	if table.State == "" {
		table.State = model.TableFree
	}
	if table.State != model.TableFree {
		return apperrors.InvalidInput("New tables must start in the free state")
	}

	if err := s.validator.Validate(table); err != nil {
		s.cfg.Log.Warn("Table validation failed",
			"tenant_id", table.TenantID,
			"label", table.Label,
			"error", err,
		)
		return apperrors.Validation("Table validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	if _, err := s.tenants.GetByID(ctx, table.TenantID); err != nil {
		return err
	}

	existing, err := s.repo.FindByTenantAndLabel(ctx, table.TenantID, table.Label)
	if err != nil && !errors.Is(err, tableserrors.ErrNotFound) {
		s.cfg.Log.Error("Failed to check for duplicate table label",
			"tenant_id", table.TenantID,
			"label", table.Label,
			"error", err,
		)
		return apperrors.Internal("Failed to check for duplicate table label", err)
	}
	if existing != nil {
		return apperrors.Conflict(fmt.Sprintf(
			"Table with label %q already exists for this tenant (id: %s)",
			table.Label, existing.ID,
		))
	}

	if err := s.repo.Create(ctx, table); err != nil {
		s.cfg.Log.Error("Failed to create table",
			"tenant_id", table.TenantID,
			"label", table.Label,
			"error", err,
		)
		return apperrors.Internal("Failed to create table", err)
	}

	s.cfg.Log.Info("Table created successfully",
		"id", table.ID,
		"tenant_id", table.TenantID,
		"label", table.Label,
		"capacity", table.Capacity,
		"zone", table.Zone,
	)

	return nil
}

func (s *tableService) GetByID(ctx context.Context, id string) (*model.Table, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Table ID cannot be empty")
	}

	table, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, tableserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Table", id)
		}
		if errors.Is(err, tableserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid table ID format")
		}
		s.cfg.Log.Error("Failed to get table by ID",
			"id", id,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to retrieve table", err)
	}

	return table, nil
}

func (s *tableService) GetByTenant(ctx context.Context, tenantID, zone string, limit int, offset int64) ([]*model.Table, int64, error) {
	if tenantID == "" {
		return nil, 0, apperrors.InvalidInput("Tenant ID cannot be empty")
	}

	zone = sanitizer.SanitizeLabel(zone)
	limit = config.NormalizePaginationLimit(limit)
	offset = config.NormalizeOffset(offset)

	var count int64
	var tables []*model.Table
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		var err error
		ctx, cancel := context.WithTimeout(ctx, s.cfg.ReadTimeout)
		defer cancel()
		count, err = s.repo.CountByTenant(ctx, tenantID, zone)
		if err != nil {
			s.cfg.Log.Error("Failed to count tables", "tenant_id", tenantID, "error", err)
			errCount = apperrors.Internal("Failed to count tables", err)
		}
	}()

	go func() {
		defer wg.Done()
		var err error
		ctx, cancel := context.WithTimeout(ctx, s.cfg.ReadTimeout)
		defer cancel()
		tables, err = s.repo.FindByTenant(ctx, tenantID, zone, limit, offset)
		if err != nil {
			s.cfg.Log.Error("Failed to get tables for tenant",
				"tenant_id", tenantID,
				"zone", zone,
				"error", err,
			)
			errFind = apperrors.Internal("Failed to retrieve tables", err)
		}
	}()
	wg.Wait()

	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return tables, count, nil
}

func (s *tableService) GetByState(ctx context.Context, tenantID string, state model.TableState) ([]*model.Table, error) {
	if tenantID == "" {
		return nil, apperrors.InvalidInput("Tenant ID cannot be empty")
	}

	tables, err := s.repo.FindByState(ctx, tenantID, state)
	if err != nil {
		s.cfg.Log.Error("Failed to get tables by state",
			"tenant_id", tenantID,
			"state", state,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to retrieve tables by state", err)
	}

	return tables, nil
}

func (s *tableService) Update(ctx context.Context, id string, updates *model.TableUpdate) error {
	if id == "" {
		return apperrors.InvalidInput("Table ID cannot be empty")
	}

	s.sanitizeUpdate(updates)
	if err := s.validator.ValidateUpdate(updates); err != nil {
		return apperrors.Validation("Table validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	existing, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}

	merged := *existing
	if updates.Label != "" {
		merged.Label = updates.Label
	}
	if updates.Zone != "" {
		merged.Zone = updates.Zone
	}
	if updates.Capacity != nil {
		merged.Capacity = *updates.Capacity
	}
	if updates.Shifts != nil {
		merged.Shifts = updates.Shifts
	}

	if updates.Label != "" && updates.Label != existing.Label {
		other, err := s.repo.FindByTenantAndLabel(ctx, existing.TenantID, updates.Label)
		if err != nil && !errors.Is(err, tableserrors.ErrNotFound) {
			return apperrors.Internal("Failed to check for duplicate table label", err)
		}
		if other != nil && other.ID != id {
			return apperrors.Conflict(fmt.Sprintf(
				"Table with label %q already exists for this tenant (id: %s)",
				updates.Label, other.ID,
			))
		}
	}

	if _, err := s.repo.Update(ctx, id, &merged); err != nil {
		s.cfg.Log.Error("Failed to update table",
			"id", id,
			"error", err,
		)
		return apperrors.Internal("Failed to update table", err)
	}

	s.cfg.Log.Info("Table updated successfully",
		"id", id,
		"label", merged.Label,
	)

	return nil
}

func (s *tableService) Delete(ctx context.Context, id string) error {
	table, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if table.State != model.TableFree {
		return apperrors.Conflict(fmt.Sprintf(
			"Cannot delete table %s while it is %s", id, table.State,
		))
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, tableserrors.ErrNotFound) {
			return apperrors.NotFoundWithID("Table", id)
		}
		s.cfg.Log.Error("Failed to delete table",
			"id", id,
			"error", err,
		)
		return apperrors.Internal("Failed to delete table", err)
	}

	s.cfg.Log.Info("Table deleted successfully", "id", id)

	return nil
}

func (s *tableService) Seat(ctx context.Context, tableID, reservationID, updatedBy string) (*model.Table, error) {
	return s.transition(ctx, tableID, occupancy.EventSeat, reservationID, updatedBy)
}

func (s *tableService) Reserve(ctx context.Context, tableID, reservationID, updatedBy string) (*model.Table, error) {
	return s.transition(ctx, tableID, occupancy.EventReserve, reservationID, updatedBy)
}

// Release returns the table to the free pool. Releasing a table that is
// already free is a no-op; the returned table keeps the reservation
// reference so callers can see which reservation held it.
func (s *tableService) Release(ctx context.Context, tableID, updatedBy string) (*model.Table, error) {
	table, err := s.GetByID(ctx, tableID)
	if err != nil {
		return nil, err
	}

	if table.State == model.TableFree {
		return table, nil
	}

	return s.applyTransition(ctx, table, occupancy.EventRelease, "", updatedBy)
}

func (s *tableService) transition(ctx context.Context, tableID string, event occupancy.Event, reservationID, updatedBy string) (*model.Table, error) {
	table, err := s.GetByID(ctx, tableID)
	if err != nil {
		return nil, err
	}

	return s.applyTransition(ctx, table, event, reservationID, updatedBy)
}

func (s *tableService) applyTransition(ctx context.Context, table *model.Table, event occupancy.Event, reservationID, updatedBy string) (*model.Table, error) {
	next, err := occupancy.Transition(table.State, event)
	if err != nil {
		s.cfg.Log.Warn("Rejected occupancy transition",
			"table_id", table.ID,
			"state", table.State,
			"event", event,
		)
		return nil, err
	}

	if updatedBy == "" {
		updatedBy = model.UpdatedBySystem
	}

	// Seating a reserved table without resending the reservation ID must
	// not sever the occupant link; only a release clears it.
	if event != occupancy.EventRelease && reservationID == "" {
		reservationID = table.CurrentReservationID
	}

	if err := s.repo.SwapState(ctx, table.ID, table.State, next, reservationID, updatedBy); err != nil {
		if errors.Is(err, tableserrors.ErrStateConflict) {
			return nil, apperrors.Conflict(fmt.Sprintf(
				"Table %s changed state concurrently, retry the operation", table.ID,
			))
		}
		if errors.Is(err, tableserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Table", table.ID)
		}
		s.cfg.Log.Error("Failed to apply occupancy transition",
			"table_id", table.ID,
			"event", event,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to apply occupancy transition", err)
	}

	s.cfg.Log.Info("Occupancy transition applied",
		"table_id", table.ID,
		"tenant_id", table.TenantID,
		"from", table.State,
		"to", next,
		"event", event,
		"reservation_id", reservationID,
		"updated_by", updatedBy,
	)

	updated := *table
	updated.State = next
	updated.LastUpdated = time.Now()
	updated.UpdatedBy = updatedBy
	if reservationID != "" {
		updated.CurrentReservationID = reservationID
	}
	return &updated, nil
}

func (s *tableService) sanitize(table *model.Table) {
	table.Label = sanitizer.SanitizeLabel(table.Label)
	table.Zone = sanitizer.SanitizeLabel(table.Zone)
	table.CurrentReservationID = ""
	table.UpdatedBy = model.UpdatedBySystem
}

func (s *tableService) sanitizeUpdate(updates *model.TableUpdate) {
	if updates.Label != "" {
		updates.Label = sanitizer.SanitizeLabel(updates.Label)
	}
	if updates.Zone != "" {
		updates.Zone = sanitizer.SanitizeLabel(updates.Zone)
	}
}
