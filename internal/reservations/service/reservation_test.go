package service

import (
	"context"
	"fmt"
	"reflect"
	"testing"
	"time"

	"maitred/internal/audit"
	reservationserrors "maitred/internal/reservations/errors"
	"maitred/internal/reservations/validator"
	"maitred/pkg/config"
	mongotx "maitred/pkg/db/mongo"
	apperrors "maitred/pkg/errors"
	"maitred/pkg/logger"
	"maitred/pkg/model"

	"go.mongodb.org/mongo-driver/mongo"
)

const (
	testTenantID = "507f1f77bcf86cd799439011"
	testTableID  = "64a1f77bcf86cd7994390000"
	testResvID   = "64a1f77bcf86cd7994391111"
)

// ────────────────────────────────────────────────
// Mocks
// ────────────────────────────────────────────────

type mockReservationRepository struct {
	createFunc                   func(ctx context.Context, r *model.Reservation) error
	findByIDFunc                 func(ctx context.Context, id string) (*model.Reservation, error)
	findActiveByTableAndDateFunc func(ctx context.Context, tableID, date string) ([]*model.Reservation, error)
	updateStatusFunc             func(ctx context.Context, id, status string) error
}

func (m *mockReservationRepository) Create(ctx context.Context, r *model.Reservation) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, r)
	}
	r.ID = testResvID
	return nil
}

func (m *mockReservationRepository) FindByID(ctx context.Context, id string) (*model.Reservation, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, fmt.Errorf("%w: %s", reservationserrors.ErrNotFound, id)
}

func (m *mockReservationRepository) FindByFilter(ctx context.Context, filter model.ReservationFilter, limit int, offset int64) ([]*model.Reservation, error) {
	return []*model.Reservation{}, nil
}

func (m *mockReservationRepository) CountByFilter(ctx context.Context, filter model.ReservationFilter) (int64, error) {
	return 0, nil
}

func (m *mockReservationRepository) FindActiveByTableAndDate(ctx context.Context, tableID, date string) ([]*model.Reservation, error) {
	if m.findActiveByTableAndDateFunc != nil {
		return m.findActiveByTableAndDateFunc(ctx, tableID, date)
	}
	return []*model.Reservation{}, nil
}

func (m *mockReservationRepository) FindActiveByTenantAndDate(ctx context.Context, tenantID, date string) ([]*model.Reservation, error) {
	return []*model.Reservation{}, nil
}

func (m *mockReservationRepository) UpdateStatus(ctx context.Context, id, status string) error {
	if m.updateStatusFunc != nil {
		return m.updateStatusFunc(ctx, id, status)
	}
	return nil
}

func (m *mockReservationRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return fn(nil)
}

type mockLockRepository struct {
	createErr error
	created   []string
	deleted   []string
}

func (m *mockLockRepository) Create(ctx context.Context, lock *model.ReservationLock) (*model.ReservationLock, error) {
	if m.createErr != nil {
		return nil, m.createErr
	}
	m.created = append(m.created, lock.ID)
	return lock, nil
}

func (m *mockLockRepository) Delete(ctx context.Context, lockID string) error {
	m.deleted = append(m.deleted, lockID)
	return nil
}

type mockTenantDirectory struct {
	tenant *model.Tenant
}

func (m *mockTenantDirectory) GetByID(ctx context.Context, id string) (*model.Tenant, error) {
	if m.tenant != nil {
		return m.tenant, nil
	}
	return &model.Tenant{ID: id, ServiceDurationMin: 120}, nil
}

type mockTableDirectory struct {
	table        *model.Table
	reserved     []string
	released     []string
	reserveErr   error
	getByIDError error
}

func (m *mockTableDirectory) GetByID(ctx context.Context, id string) (*model.Table, error) {
	if m.getByIDError != nil {
		return nil, m.getByIDError
	}
	if m.table != nil {
		return m.table, nil
	}
	return &model.Table{ID: id, TenantID: testTenantID, Label: "main_1", Capacity: 4, State: model.TableFree}, nil
}

func (m *mockTableDirectory) Reserve(ctx context.Context, tableID, reservationID, updatedBy string) (*model.Table, error) {
	if m.reserveErr != nil {
		return nil, m.reserveErr
	}
	m.reserved = append(m.reserved, tableID)
	return m.table, nil
}

func (m *mockTableDirectory) Release(ctx context.Context, tableID, updatedBy string) (*model.Table, error) {
	m.released = append(m.released, tableID)
	return m.table, nil
}

func testConfig() *config.Config {
	return &config.Config{
		Log:                       logger.New(logger.Config{Level: logger.ERROR, Service: "test"}),
		DefaultServiceDurationMin: 120,
		BookingLockTTL:            10 * time.Second,
	}
}

func testRecorder() *audit.Recorder {
	return audit.NewRecorder(nil, "test", logger.New(logger.Config{Level: logger.ERROR, Service: "test"}))
}

type deps struct {
	repo    *mockReservationRepository
	locks   *mockLockRepository
	tenants *mockTenantDirectory
	tables  *mockTableDirectory
}

func newService(d deps) ReservationService {
	if d.repo == nil {
		d.repo = &mockReservationRepository{}
	}
	if d.locks == nil {
		d.locks = &mockLockRepository{}
	}
	if d.tenants == nil {
		d.tenants = &mockTenantDirectory{}
	}
	if d.tables == nil {
		d.tables = &mockTableDirectory{}
	}
	log := logger.New(logger.Config{Level: logger.ERROR, Service: "test"})
	return NewReservationService(
		d.repo,
		d.locks,
		validator.NewReservationValidator(log),
		d.tenants,
		d.tables,
		testRecorder(),
		testConfig(),
	)
}

func validReservation() *model.Reservation {
	return &model.Reservation{
		TenantID:      testTenantID,
		Date:          "2026-09-04",
		Time:          "19:00",
		PartySize:     3,
		CustomerName:  "Dana Reyes",
		CustomerPhone: "+14155552671",
		TableID:       testTableID,
	}
}

// ────────────────────────────────────────────────
// Tests for Create()
// ────────────────────────────────────────────────

func TestCreate_AppliesDefaultsAndBooks(t *testing.T) {
	locks := &mockLockRepository{}
	tables := &mockTableDirectory{}
	d := deps{locks: locks, tables: tables}
	svc := newService(d)

	// Party of 4 on a 4-top: exact capacity is accepted.
	reservation := validReservation()
	reservation.PartySize = 4
	if err := svc.Create(context.Background(), reservation); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if reservation.Status != config.Pending {
		t.Errorf("expected pending status, got %s", reservation.Status)
	}
	if len(reservation.ConfirmationCode) != 6 {
		t.Errorf("expected 6-char confirmation code, got %q", reservation.ConfirmationCode)
	}
	if reservation.ID != testResvID {
		t.Errorf("expected stored ID, got %q", reservation.ID)
	}

	wantLock := fmt.Sprintf("resv_%s_%s_2026-09-04_19:00", testTenantID, testTableID)
	if len(locks.created) != 1 || locks.created[0] != wantLock {
		t.Errorf("expected lock %q, got %v", wantLock, locks.created)
	}
	if len(locks.deleted) != 1 || locks.deleted[0] != wantLock {
		t.Errorf("expected lock released, got %v", locks.deleted)
	}
	if len(tables.reserved) != 1 {
		t.Errorf("expected table reserved once, got %v", tables.reserved)
	}
}

func TestCreate_OverlapRejected(t *testing.T) {
	locks := &mockLockRepository{}
	repo := &mockReservationRepository{
		findActiveByTableAndDateFunc: func(ctx context.Context, tableID, date string) ([]*model.Reservation, error) {
			return []*model.Reservation{
				{ID: "other", TableID: tableID, Date: date, Time: "18:00", Status: config.Confirmed},
			}, nil
		},
	}
	svc := newService(deps{repo: repo, locks: locks})

	// 18:00 + 120min runs to 20:00; a 19:00 request overlaps.
	err := svc.Create(context.Background(), validReservation())
	if err == nil {
		t.Fatal("expected conflict error")
	}
	if appErr := apperrors.AsAppError(err); appErr.Code != apperrors.CodeConflict {
		t.Errorf("expected code %s, got %s", apperrors.CodeConflict, appErr.Code)
	}
	if len(locks.deleted) != 1 {
		t.Error("expected slot lock released after failed create")
	}
}

func TestCreate_AdjacentBookingAllowed(t *testing.T) {
	repo := &mockReservationRepository{
		findActiveByTableAndDateFunc: func(ctx context.Context, tableID, date string) ([]*model.Reservation, error) {
			return []*model.Reservation{
				{ID: "other", TableID: tableID, Date: date, Time: "17:00", Status: config.Confirmed},
			}, nil
		},
	}
	svc := newService(deps{repo: repo})

	// 17:00-19:00 then 19:00-21:00: back to back is legal.
	if err := svc.Create(context.Background(), validReservation()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCreate_SlotLockHeld(t *testing.T) {
	locks := &mockLockRepository{
		createErr: mongo.WriteException{
			WriteErrors: []mongo.WriteError{{Code: 11000}},
		},
	}
	svc := newService(deps{locks: locks})

	err := svc.Create(context.Background(), validReservation())
	if err == nil {
		t.Fatal("expected conflict error")
	}
	if appErr := apperrors.AsAppError(err); appErr.Code != apperrors.CodeConflict {
		t.Errorf("expected code %s, got %s", apperrors.CodeConflict, appErr.Code)
	}
}

func TestCreate_PartyDoesNotFit(t *testing.T) {
	tables := &mockTableDirectory{
		table: &model.Table{ID: testTableID, TenantID: testTenantID, Label: "bar_1", Capacity: 2, State: model.TableFree},
	}
	svc := newService(deps{tables: tables})

	err := svc.Create(context.Background(), validReservation())
	if err == nil {
		t.Fatal("expected conflict error for undersized table")
	}
}

func TestCreate_TableFromOtherTenant(t *testing.T) {
	tables := &mockTableDirectory{
		table: &model.Table{ID: testTableID, TenantID: "507f1f77bcf86cd799439099", Capacity: 8, State: model.TableFree},
	}
	svc := newService(deps{tables: tables})

	err := svc.Create(context.Background(), validReservation())
	if err == nil {
		t.Fatal("expected not found error")
	}
	if appErr := apperrors.AsAppError(err); appErr.Code != apperrors.CodeNotFound {
		t.Errorf("expected code %s, got %s", apperrors.CodeNotFound, appErr.Code)
	}
}

func TestCreate_OpeningHoursEnforced(t *testing.T) {
	tenants := &mockTenantDirectory{
		tenant: &model.Tenant{
			ID:                  testTenantID,
			ServiceDurationMin:  120,
			OpenDays:            []string{"Friday", "Saturday"},
			OpenTime:            "17:00",
			CloseTime:           "23:00",
			EnforceOpeningHours: true,
		},
	}
	svc := newService(deps{tenants: tenants})

	// 2026-09-04 is a Friday; 19:00 is inside hours.
	if err := svc.Create(context.Background(), validReservation()); err != nil {
		t.Fatalf("unexpected error for in-hours booking: %v", err)
	}

	early := validReservation()
	early.Time = "09:00"
	if err := svc.Create(context.Background(), early); err == nil {
		t.Fatal("expected rejection before opening")
	}

	monday := validReservation()
	monday.Date = "2026-09-07"
	if err := svc.Create(context.Background(), monday); err == nil {
		t.Fatal("expected rejection on a closed day")
	}
}

func TestCreate_SanitizesCustomerFields(t *testing.T) {
	var stored *model.Reservation
	repo := &mockReservationRepository{
		createFunc: func(ctx context.Context, r *model.Reservation) error {
			stored = r
			r.ID = testResvID
			return nil
		},
	}
	svc := newService(deps{repo: repo})

	reservation := validReservation()
	reservation.CustomerName = "  Dana   Reyes "
	reservation.CustomerPhone = "(415) 555-2671"

	if err := svc.Create(context.Background(), reservation); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stored.CustomerName != "Dana Reyes" {
		t.Errorf("expected normalized name, got %q", stored.CustomerName)
	}
	if stored.CustomerPhone != "+14155552671" {
		t.Errorf("expected E.164 phone, got %q", stored.CustomerPhone)
	}
}

func TestCreate_ThenGetByIDRoundTrips(t *testing.T) {
	var stored model.Reservation
	repo := &mockReservationRepository{
		createFunc: func(ctx context.Context, r *model.Reservation) error {
			r.ID = testResvID
			stored = *r
			return nil
		},
		findByIDFunc: func(ctx context.Context, id string) (*model.Reservation, error) {
			if id != stored.ID {
				return nil, fmt.Errorf("%w: %s", reservationserrors.ErrNotFound, id)
			}
			found := stored
			return &found, nil
		},
	}
	svc := newService(deps{repo: repo})

	reservation := validReservation()
	reservation.Notes = "window seat please"
	if err := svc.Create(context.Background(), reservation); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	fetched, err := svc.GetByID(context.Background(), reservation.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(fetched, reservation) {
		t.Errorf("fetched reservation differs from created one:\ncreated: %+v\nfetched: %+v", reservation, fetched)
	}
}

// ────────────────────────────────────────────────
// Tests for Cancel()
// ────────────────────────────────────────────────

func TestCancel_ReleasesHeldTable(t *testing.T) {
	repo := &mockReservationRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Reservation, error) {
			return &model.Reservation{
				ID:       id,
				TenantID: testTenantID,
				TableID:  testTableID,
				Status:   config.Confirmed,
			}, nil
		},
	}
	tables := &mockTableDirectory{
		table: &model.Table{
			ID:                   testTableID,
			TenantID:             testTenantID,
			Capacity:             4,
			State:                model.TableReserved,
			CurrentReservationID: testResvID,
		},
	}
	svc := newService(deps{repo: repo, tables: tables})

	if err := svc.Cancel(context.Background(), testResvID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tables.released) != 1 || tables.released[0] != testTableID {
		t.Errorf("expected table released, got %v", tables.released)
	}
}

func TestCancel_TableHeldByOtherReservation(t *testing.T) {
	repo := &mockReservationRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Reservation, error) {
			return &model.Reservation{
				ID:       id,
				TenantID: testTenantID,
				TableID:  testTableID,
				Status:   config.Pending,
			}, nil
		},
	}
	tables := &mockTableDirectory{
		table: &model.Table{
			ID:                   testTableID,
			State:                model.TableOccupied,
			CurrentReservationID: "someone-else",
		},
	}
	svc := newService(deps{repo: repo, tables: tables})

	if err := svc.Cancel(context.Background(), testResvID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tables.released) != 0 {
		t.Errorf("expected no release when another reservation holds the table, got %v", tables.released)
	}
}

func TestCancel_AlreadyCancelled(t *testing.T) {
	repo := &mockReservationRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Reservation, error) {
			return &model.Reservation{ID: id, Status: config.Cancelled}, nil
		},
	}
	svc := newService(deps{repo: repo})

	err := svc.Cancel(context.Background(), testResvID)
	if err == nil {
		t.Fatal("expected conflict error")
	}
	if appErr := apperrors.AsAppError(err); appErr.Code != apperrors.CodeConflict {
		t.Errorf("expected code %s, got %s", apperrors.CodeConflict, appErr.Code)
	}
}

// ────────────────────────────────────────────────
// Tests for UpdateStatus()
// ────────────────────────────────────────────────

func TestUpdateStatus_PendingToConfirmed(t *testing.T) {
	var newStatus string
	repo := &mockReservationRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Reservation, error) {
			return &model.Reservation{ID: id, Status: config.Pending}, nil
		},
		updateStatusFunc: func(ctx context.Context, id, status string) error {
			newStatus = status
			return nil
		},
	}
	svc := newService(deps{repo: repo})

	if err := svc.UpdateStatus(context.Background(), testResvID, config.Confirmed); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if newStatus != config.Confirmed {
		t.Errorf("expected confirmed, got %s", newStatus)
	}
}

func TestUpdateStatus_TerminalStateRejected(t *testing.T) {
	repo := &mockReservationRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Reservation, error) {
			return &model.Reservation{ID: id, Status: config.Completed}, nil
		},
	}
	svc := newService(deps{repo: repo})

	err := svc.UpdateStatus(context.Background(), testResvID, config.Confirmed)
	if err == nil {
		t.Fatal("expected invalid transition error")
	}
	if appErr := apperrors.AsAppError(err); appErr.Code != apperrors.CodeInvalidTransition {
		t.Errorf("expected code %s, got %s", apperrors.CodeInvalidTransition, appErr.Code)
	}
}
