package service

import (
	"context"
	"testing"

	"maitred/pkg/config"
	apperrors "maitred/pkg/errors"
	"maitred/pkg/logger"
	"maitred/pkg/model"
)

const tenantID = "507f1f77bcf86cd799439011"

type mockTenantSource struct {
	tenant *model.Tenant
}

func (m *mockTenantSource) GetByID(ctx context.Context, id string) (*model.Tenant, error) {
	if m.tenant != nil {
		return m.tenant, nil
	}
	return &model.Tenant{ID: id, ServiceDurationMin: 120}, nil
}

type mockTableSource struct {
	tables []*model.Table
}

func (m *mockTableSource) FindByTenant(ctx context.Context, tenantID, zone string, limit int, offset int64) ([]*model.Table, error) {
	if zone == "" {
		return m.tables, nil
	}
	var filtered []*model.Table
	for _, t := range m.tables {
		if t.Zone == zone {
			filtered = append(filtered, t)
		}
	}
	return filtered, nil
}

type mockReservationSource struct {
	reservations []*model.Reservation
}

func (m *mockReservationSource) FindActiveByTenantAndDate(ctx context.Context, tenantID, date string) ([]*model.Reservation, error) {
	return m.reservations, nil
}

func testConfig() *config.Config {
	return &config.Config{
		Log:                       logger.New(logger.Config{Level: logger.ERROR, Service: "test"}),
		DefaultServiceDurationMin: 120,
		DefaultTurnTimes:          []string{"12:00", "19:00", "21:00"},
	}
}

// Registry order: capacity ascending, label ascending.
func testTables() []*model.Table {
	return []*model.Table{
		{ID: "t2", TenantID: tenantID, Label: "bar_1", Capacity: 2, Zone: "bar"},
		{ID: "t4a", TenantID: tenantID, Label: "main_1", Capacity: 4, Zone: "main"},
		{ID: "t4b", TenantID: tenantID, Label: "main_2", Capacity: 4, Zone: "main"},
		{ID: "t8", TenantID: tenantID, Label: "patio_1", Capacity: 8, Zone: "patio"},
	}
}

func newService(tables []*model.Table, reservations []*model.Reservation, tenant *model.Tenant) AvailabilityService {
	return NewAvailabilityService(
		&mockTenantSource{tenant: tenant},
		&mockTableSource{tables: tables},
		&mockReservationSource{reservations: reservations},
		testConfig(),
	)
}

func TestCheck_PicksSmallestFittingTable(t *testing.T) {
	svc := newService(testTables(), nil, nil)

	result, err := svc.Check(context.Background(), Query{
		TenantID:  tenantID,
		Date:      "2026-09-04",
		Time:      "19:00",
		PartySize: 3,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !result.Available {
		t.Fatal("expected availability")
	}
	if result.Table.ID != "t4a" {
		t.Errorf("expected smallest fitting table t4a, got %s", result.Table.ID)
	}
}

func TestCheck_SkipsBookedTable(t *testing.T) {
	reservations := []*model.Reservation{
		{ID: "r1", TableID: "t4a", Date: "2026-09-04", Time: "19:00", Status: "confirmed"},
	}

	svc := newService(testTables(), reservations, nil)

	result, err := svc.Check(context.Background(), Query{
		TenantID:  tenantID,
		Date:      "2026-09-04",
		Time:      "20:00", // overlaps r1's 19:00-21:00 window
		PartySize: 3,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !result.Available {
		t.Fatal("expected availability on second table")
	}
	if result.Table.ID != "t4b" {
		t.Errorf("expected t4b, got %s", result.Table.ID)
	}
}

func TestCheck_AdjacentWindowsDoNotCollide(t *testing.T) {
	reservations := []*model.Reservation{
		{ID: "r1", TableID: "t2", Date: "2026-09-04", Time: "17:00", Status: "pending"},
	}

	svc := newService(testTables(), reservations, nil)

	// 17:00 + 120min ends at 19:00 exactly; a 19:00 booking is legal.
	result, err := svc.Check(context.Background(), Query{
		TenantID:  tenantID,
		Date:      "2026-09-04",
		Time:      "19:00",
		PartySize: 2,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !result.Available || result.Table.ID != "t2" {
		t.Errorf("expected t2 free at 19:00, got available=%v table=%v", result.Available, result.Table)
	}
}

func TestCheck_NoTableFitsParty(t *testing.T) {
	svc := newService(testTables(), nil, nil)

	result, err := svc.Check(context.Background(), Query{
		TenantID:  tenantID,
		Date:      "2026-09-04",
		Time:      "19:00",
		PartySize: 12,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Available {
		t.Error("expected no availability for party of 12")
	}
	if len(result.Alternatives) != 0 {
		t.Errorf("expected no alternatives when no table ever fits, got %v", result.Alternatives)
	}
}

func TestCheck_ZoneFilter(t *testing.T) {
	svc := newService(testTables(), nil, nil)

	result, err := svc.Check(context.Background(), Query{
		TenantID:  tenantID,
		Date:      "2026-09-04",
		Time:      "19:00",
		PartySize: 2,
		Zone:      "Patio",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !result.Available {
		t.Fatal("expected availability in patio")
	}
	if result.Table.ID != "t8" {
		t.Errorf("expected patio table, got %s", result.Table.ID)
	}
}

func TestCheck_AlternativesOrderedByProximity(t *testing.T) {
	// Only one table seats the party; book it solid at the requested time.
	tables := []*model.Table{
		{ID: "t8", TenantID: tenantID, Label: "patio_1", Capacity: 8},
	}
	reservations := []*model.Reservation{
		{ID: "r1", TableID: "t8", Date: "2026-09-04", Time: "18:30", Status: "confirmed"},
	}
	tenant := &model.Tenant{
		ID:                 tenantID,
		ServiceDurationMin: 120,
		TurnTimes:          []string{"12:00", "19:00", "21:00"},
	}

	svc := newService(tables, reservations, tenant)

	result, err := svc.Check(context.Background(), Query{
		TenantID:  tenantID,
		Date:      "2026-09-04",
		Time:      "19:00",
		PartySize: 6,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Available {
		t.Fatal("expected requested slot to be taken")
	}

	// 18:30-20:30 is booked: 19:00 turn overlaps (and is the requested
	// time anyway), 21:00 and 12:00 are free. 21:00 is nearer to 19:00.
	if len(result.Alternatives) != 2 {
		t.Fatalf("expected 2 alternatives, got %d", len(result.Alternatives))
	}
	if result.Alternatives[0].Time != "21:00" {
		t.Errorf("expected nearest alternative 21:00 first, got %s", result.Alternatives[0].Time)
	}
	if result.Alternatives[1].Time != "12:00" {
		t.Errorf("expected 12:00 second, got %s", result.Alternatives[1].Time)
	}
}

func TestCheck_InvalidInput(t *testing.T) {
	svc := newService(testTables(), nil, nil)

	_, err := svc.Check(context.Background(), Query{
		TenantID:  tenantID,
		Date:      "2026-09-04",
		Time:      "19:00",
		PartySize: 0,
	})
	if err == nil {
		t.Fatal("expected error for zero party size")
	}
	if appErr := apperrors.AsAppError(err); appErr.Code != apperrors.CodeInvalidInput {
		t.Errorf("expected code %s, got %s", apperrors.CodeInvalidInput, appErr.Code)
	}

	if _, err := svc.Check(context.Background(), Query{
		TenantID:  tenantID,
		Date:      "September 4th",
		Time:      "19:00",
		PartySize: 2,
	}); err == nil {
		t.Fatal("expected error for malformed date")
	}
}

func TestCheck_NightWindowClampsAtMidnight(t *testing.T) {
	tables := []*model.Table{
		{ID: "t2", TenantID: tenantID, Label: "bar_1", Capacity: 2},
	}
	reservations := []*model.Reservation{
		{ID: "r1", TableID: "t2", Date: "2026-09-04", Time: "23:00", Status: "confirmed"},
	}

	svc := newService(tables, reservations, nil)

	// 23:30 request overlaps the clamped 23:00-24:00 window.
	result, err := svc.Check(context.Background(), Query{
		TenantID:  tenantID,
		Date:      "2026-09-04",
		Time:      "23:30",
		PartySize: 2,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Available {
		t.Error("expected 23:30 to collide with the 23:00 booking")
	}
}
