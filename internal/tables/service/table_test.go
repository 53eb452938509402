package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	tableserrors "maitred/internal/tables/errors"
	"maitred/internal/tables/validator"
	"maitred/pkg/config"
	apperrors "maitred/pkg/errors"
	"maitred/pkg/logger"
	"maitred/pkg/model"

	"go.mongodb.org/mongo-driver/mongo"
)

// ────────────────────────────────────────────────
// Mock repository for testing
// ────────────────────────────────────────────────

type mockTableRepository struct {
	createFunc               func(ctx context.Context, table *model.Table) error
	findByIDFunc             func(ctx context.Context, id string) (*model.Table, error)
	findByTenantFunc         func(ctx context.Context, tenantID, zone string, limit int, offset int64) ([]*model.Table, error)
	countByTenantFunc        func(ctx context.Context, tenantID, zone string) (int64, error)
	findByStateFunc          func(ctx context.Context, tenantID string, state model.TableState) ([]*model.Table, error)
	findByTenantAndLabelFunc func(ctx context.Context, tenantID, label string) (*model.Table, error)
	swapStateFunc            func(ctx context.Context, id string, from, to model.TableState, reservationID, updatedBy string) error
	deleteFunc               func(ctx context.Context, id string) error
}

func (m *mockTableRepository) Create(ctx context.Context, table *model.Table) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, table)
	}
	table.ID = "64a1f77bcf86cd7994390000"
	return nil
}

func (m *mockTableRepository) FindByID(ctx context.Context, id string) (*model.Table, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, fmt.Errorf("%w: %s", tableserrors.ErrNotFound, id)
}

func (m *mockTableRepository) FindByTenant(ctx context.Context, tenantID, zone string, limit int, offset int64) ([]*model.Table, error) {
	if m.findByTenantFunc != nil {
		return m.findByTenantFunc(ctx, tenantID, zone, limit, offset)
	}
	return []*model.Table{}, nil
}

func (m *mockTableRepository) CountByTenant(ctx context.Context, tenantID, zone string) (int64, error) {
	if m.countByTenantFunc != nil {
		return m.countByTenantFunc(ctx, tenantID, zone)
	}
	return 0, nil
}

func (m *mockTableRepository) FindByState(ctx context.Context, tenantID string, state model.TableState) ([]*model.Table, error) {
	if m.findByStateFunc != nil {
		return m.findByStateFunc(ctx, tenantID, state)
	}
	return []*model.Table{}, nil
}

func (m *mockTableRepository) FindByTenantAndLabel(ctx context.Context, tenantID, label string) (*model.Table, error) {
	if m.findByTenantAndLabelFunc != nil {
		return m.findByTenantAndLabelFunc(ctx, tenantID, label)
	}
	return nil, fmt.Errorf("%w: %s/%s", tableserrors.ErrNotFound, tenantID, label)
}

func (m *mockTableRepository) Update(ctx context.Context, id string, table *model.Table) (*mongo.UpdateResult, error) {
	return &mongo.UpdateResult{MatchedCount: 1}, nil
}

func (m *mockTableRepository) SwapState(ctx context.Context, id string, from, to model.TableState, reservationID, updatedBy string) error {
	if m.swapStateFunc != nil {
		return m.swapStateFunc(ctx, id, from, to, reservationID, updatedBy)
	}
	return nil
}

func (m *mockTableRepository) Delete(ctx context.Context, id string) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, id)
	}
	return nil
}

type mockTenantChecker struct {
	getByIDFunc func(ctx context.Context, id string) (*model.Tenant, error)
}

func (m *mockTenantChecker) GetByID(ctx context.Context, id string) (*model.Tenant, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return &model.Tenant{ID: id}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		Log:         logger.New(logger.Config{Level: logger.ERROR, Service: "test"}),
		ReadTimeout: 5 * time.Second,
	}
}

func newService(repo *mockTableRepository, tenants *mockTenantChecker) TableService {
	if tenants == nil {
		tenants = &mockTenantChecker{}
	}
	return NewTableService(repo, tenants, validator.NewTableValidator(), testConfig())
}

const (
	testTenantID = "507f1f77bcf86cd799439011"
	testTableID  = "64a1f77bcf86cd7994390000"
)

// ────────────────────────────────────────────────
// Tests for Create()
// ────────────────────────────────────────────────

func TestCreate_DefaultsToFreeState(t *testing.T) {
	var stored *model.Table
	repo := &mockTableRepository{
		createFunc: func(ctx context.Context, table *model.Table) error {
			stored = table
			table.ID = testTableID
			return nil
		},
	}

	svc := newService(repo, nil)

	table := &model.Table{
		TenantID: testTenantID,
		Label:    "  Window 4  ",
		Zone:     "Patio",
		Capacity: 4,
	}

	if err := svc.Create(context.Background(), table); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if stored.State != model.TableFree {
		t.Errorf("expected free state, got %s", stored.State)
	}
	if stored.Label != "window_4" {
		t.Errorf("expected sanitized label, got %q", stored.Label)
	}
	if stored.Zone != "patio" {
		t.Errorf("expected sanitized zone, got %q", stored.Zone)
	}
}

func TestCreate_RejectsNonFreeInitialState(t *testing.T) {
	svc := newService(&mockTableRepository{}, nil)

	err := svc.Create(context.Background(), &model.Table{
		TenantID: testTenantID,
		Label:    "t1",
		Capacity: 2,
		State:    model.TableOccupied,
	})
	if err == nil {
		t.Fatal("expected error for occupied initial state")
	}
}

func TestCreate_RejectsDuplicateLabel(t *testing.T) {
	repo := &mockTableRepository{
		findByTenantAndLabelFunc: func(ctx context.Context, tenantID, label string) (*model.Table, error) {
			return &model.Table{ID: "64a1f77bcf86cd7994390001", Label: label}, nil
		},
	}

	svc := newService(repo, nil)

	err := svc.Create(context.Background(), &model.Table{
		TenantID: testTenantID,
		Label:    "t1",
		Capacity: 2,
	})
	if err == nil {
		t.Fatal("expected conflict error")
	}
	if appErr := apperrors.AsAppError(err); appErr.Code != apperrors.CodeConflict {
		t.Errorf("expected code %s, got %s", apperrors.CodeConflict, appErr.Code)
	}
}

func TestCreate_RejectsUnknownTenant(t *testing.T) {
	tenants := &mockTenantChecker{
		getByIDFunc: func(ctx context.Context, id string) (*model.Tenant, error) {
			return nil, apperrors.NotFoundWithID("Tenant", id)
		},
	}

	svc := newService(&mockTableRepository{}, tenants)

	err := svc.Create(context.Background(), &model.Table{
		TenantID: testTenantID,
		Label:    "t1",
		Capacity: 2,
	})
	if err == nil {
		t.Fatal("expected not found error")
	}
	if appErr := apperrors.AsAppError(err); appErr.Code != apperrors.CodeNotFound {
		t.Errorf("expected code %s, got %s", apperrors.CodeNotFound, appErr.Code)
	}
}

// ────────────────────────────────────────────────
// Tests for occupancy transitions
// ────────────────────────────────────────────────

func TestSeat_FreeTable(t *testing.T) {
	var swappedTo model.TableState
	repo := &mockTableRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Table, error) {
			return &model.Table{ID: id, TenantID: testTenantID, State: model.TableFree}, nil
		},
		swapStateFunc: func(ctx context.Context, id string, from, to model.TableState, reservationID, updatedBy string) error {
			swappedTo = to
			return nil
		},
	}

	svc := newService(repo, nil)

	table, err := svc.Seat(context.Background(), testTableID, "", "host")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if swappedTo != model.TableOccupied {
		t.Errorf("expected swap to occupied, got %s", swappedTo)
	}
	if table.State != model.TableOccupied {
		t.Errorf("expected occupied snapshot back, got %s", table.State)
	}
}

func TestSeat_ReservedTableKeepsOccupant(t *testing.T) {
	var persistedID string
	repo := &mockTableRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Table, error) {
			return &model.Table{
				ID:                   id,
				TenantID:             testTenantID,
				State:                model.TableReserved,
				CurrentReservationID: "resv-1",
			}, nil
		},
		swapStateFunc: func(ctx context.Context, id string, from, to model.TableState, reservationID, updatedBy string) error {
			persistedID = reservationID
			return nil
		},
	}

	svc := newService(repo, nil)

	// The guest arrives and the operator seats them without restating the
	// reservation; the occupant link must survive the transition.
	table, err := svc.Seat(context.Background(), testTableID, "", "host")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if persistedID != "resv-1" {
		t.Errorf("expected occupant carried through to the store, got %q", persistedID)
	}
	if table.CurrentReservationID != "resv-1" {
		t.Errorf("expected occupant on returned snapshot, got %q", table.CurrentReservationID)
	}
	if table.State != model.TableOccupied {
		t.Errorf("expected occupied snapshot, got %s", table.State)
	}
}

func TestSeat_OccupiedTableRejected(t *testing.T) {
	repo := &mockTableRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Table, error) {
			return &model.Table{ID: id, State: model.TableOccupied}, nil
		},
	}

	svc := newService(repo, nil)

	_, err := svc.Seat(context.Background(), testTableID, "", "host")
	if err == nil {
		t.Fatal("expected invalid transition error")
	}
	if appErr := apperrors.AsAppError(err); appErr.Code != apperrors.CodeInvalidTransition {
		t.Errorf("expected code %s, got %s", apperrors.CodeInvalidTransition, appErr.Code)
	}
}

func TestRelease_AlreadyFreeIsNoOp(t *testing.T) {
	swapped := false
	repo := &mockTableRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Table, error) {
			return &model.Table{ID: id, State: model.TableFree}, nil
		},
		swapStateFunc: func(ctx context.Context, id string, from, to model.TableState, reservationID, updatedBy string) error {
			swapped = true
			return nil
		},
	}

	svc := newService(repo, nil)

	table, err := svc.Release(context.Background(), testTableID, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if table.State != model.TableFree {
		t.Errorf("expected free table back, got %s", table.State)
	}
	if swapped {
		t.Error("expected no state swap for already-free table")
	}
}

func TestRelease_OccupiedTable(t *testing.T) {
	repo := &mockTableRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Table, error) {
			return &model.Table{
				ID:                   id,
				State:                model.TableOccupied,
				CurrentReservationID: "resv-1",
			}, nil
		},
	}

	svc := newService(repo, nil)

	table, err := svc.Release(context.Background(), testTableID, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Pre-release snapshot: the caller learns which reservation held it.
	if table.CurrentReservationID != "resv-1" {
		t.Errorf("expected prior reservation ID, got %q", table.CurrentReservationID)
	}
}

func TestTransition_LostCompareAndSwap(t *testing.T) {
	repo := &mockTableRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Table, error) {
			return &model.Table{ID: id, State: model.TableFree}, nil
		},
		swapStateFunc: func(ctx context.Context, id string, from, to model.TableState, reservationID, updatedBy string) error {
			return fmt.Errorf("%w: %s", tableserrors.ErrStateConflict, id)
		},
	}

	svc := newService(repo, nil)

	_, err := svc.Reserve(context.Background(), testTableID, "resv-1", "")
	if err == nil {
		t.Fatal("expected conflict error")
	}
	if appErr := apperrors.AsAppError(err); appErr.Code != apperrors.CodeConflict {
		t.Errorf("expected code %s, got %s", apperrors.CodeConflict, appErr.Code)
	}
}

// ────────────────────────────────────────────────
// Tests for Delete()
// ────────────────────────────────────────────────

func TestDelete_RejectsNonFreeTable(t *testing.T) {
	repo := &mockTableRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Table, error) {
			return &model.Table{ID: id, State: model.TableReserved}, nil
		},
	}

	svc := newService(repo, nil)

	err := svc.Delete(context.Background(), testTableID)
	if err == nil {
		t.Fatal("expected conflict error")
	}
	if appErr := apperrors.AsAppError(err); appErr.Code != apperrors.CodeConflict {
		t.Errorf("expected code %s, got %s", apperrors.CodeConflict, appErr.Code)
	}
}

func TestDelete_FreeTable(t *testing.T) {
	deleted := false
	repo := &mockTableRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Table, error) {
			return &model.Table{ID: id, State: model.TableFree}, nil
		},
		deleteFunc: func(ctx context.Context, id string) error {
			deleted = true
			return nil
		},
	}

	svc := newService(repo, nil)

	if err := svc.Delete(context.Background(), testTableID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !deleted {
		t.Error("expected delete to reach repository")
	}
}
