package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"maitred/internal/audit"
	reservationserrors "maitred/internal/reservations/errors"
	"maitred/internal/reservations/repository"
	"maitred/internal/reservations/validator"
	"maitred/pkg/config"
	apperrors "maitred/pkg/errors"
	"maitred/pkg/model"
	"maitred/pkg/sanitizer"
	"maitred/pkg/timeslot"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"
)

// TenantDirectory resolves tenant booking configuration.
type TenantDirectory interface {
	GetByID(ctx context.Context, id string) (*model.Tenant, error)
}

// TableDirectory is the slice of the table service the ledger needs:
// resolving the target table and projecting bookings into occupancy.
type TableDirectory interface {
	GetByID(ctx context.Context, id string) (*model.Table, error)
	Reserve(ctx context.Context, tableID, reservationID, updatedBy string) (*model.Table, error)
	Release(ctx context.Context, tableID, updatedBy string) (*model.Table, error)
}

type ReservationService interface {
	Create(ctx context.Context, reservation *model.Reservation) error
	GetByID(ctx context.Context, id string) (*model.Reservation, error)
	GetAll(ctx context.Context, filter model.ReservationFilter, limit int, offset int64) ([]*model.Reservation, int64, error)
	Cancel(ctx context.Context, id string) error
	UpdateStatus(ctx context.Context, id, status string) error
}

type reservationService struct {
	repo      repository.ReservationRepository
	lockRepo  repository.ReservationLockRepository
	validator *validator.ReservationValidator
	tenants   TenantDirectory
	tables    TableDirectory
	recorder  *audit.Recorder
	cfg       *config.Config
}

func NewReservationService(
	repo repository.ReservationRepository,
	lockRepo repository.ReservationLockRepository,
	validator *validator.ReservationValidator,
	tenants TenantDirectory,
	tables TableDirectory,
	recorder *audit.Recorder,
	cfg *config.Config,
) ReservationService {
	return &reservationService{
		repo:      repo,
		lockRepo:  lockRepo,
		validator: validator,
		tenants:   tenants,
		tables:    tables,
		recorder:  recorder,
		cfg:       cfg,
	}
}

func (s *reservationService) Create(ctx context.Context, reservation *model.Reservation) error {
	s.applyDefaults(reservation)
	s.sanitize(reservation)

	if err := s.validator.Validate(reservation); err != nil {
		s.cfg.Log.Warn("Reservation validation failed",
			"tenant_id", reservation.TenantID,
			"customer_phone", reservation.CustomerPhone,
			"error", err,
		)
		return apperrors.Validation("Reservation validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	tenant, err := s.tenants.GetByID(ctx, reservation.TenantID)
	if err != nil {
		return err
	}

	if err := s.checkOpeningHours(tenant, reservation); err != nil {
		return err
	}

	table, err := s.tables.GetByID(ctx, reservation.TableID)
	if err != nil {
		return err
	}
	if err := s.checkTableFits(table, reservation); err != nil {
		return err
	}

	duration := s.cfg.ServiceDuration(tenant.ServiceDurationMin)

	// Advisory lock on the slot coordinates keeps two concurrent requests
	// for the same table+date+time from both passing the overlap check.
	lockID, err := s.acquireSlotLock(ctx, reservation)
	if err != nil {
		return err
	}
	defer func() {
		if releaseErr := s.releaseSlotLock(ctx, lockID); releaseErr != nil {
			s.cfg.Log.Warn("Failed to release reservation lock", "lock_id", lockID, "error", releaseErr)
		}
	}()

	err = s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		if err := s.verifyNoOverlap(sessCtx, reservation, duration); err != nil {
			return err
		}
		if err := s.repo.Create(sessCtx, reservation); err != nil {
			return apperrors.Internal("Failed to create reservation", err)
		}
		return nil
	})
	if err != nil {
		s.cfg.Log.Error("Failed to create reservation",
			"tenant_id", reservation.TenantID,
			"table_id", reservation.TableID,
			"date", reservation.Date,
			"time", reservation.Time,
			"error", err,
		)
		return err
	}

	s.recorder.Record(ctx, audit.EventReservationCreated, audit.ReservationEvent{
		TenantID:        reservation.TenantID,
		ReservationID:   reservation.ID,
		TableID:         reservation.TableID,
		Date:            reservation.Date,
		Time:            reservation.Time,
		PartySize:       reservation.PartySize,
		CustomerPhone:   reservation.CustomerPhone,
		ConfirmationRef: reservation.ConfirmationCode,
	})

	// Occupancy is a projection of the ledger; a failed projection is
	// repaired by the next transition, so the booking stands either way.
	if table.State == model.TableFree {
		if _, err := s.tables.Reserve(ctx, reservation.TableID, reservation.ID, model.UpdatedBySystem); err != nil {
			s.cfg.Log.Warn("Failed to project reservation onto table state",
				"reservation_id", reservation.ID,
				"table_id", reservation.TableID,
				"error", err,
			)
		}
	}

	s.cfg.Log.Info("Reservation created successfully",
		"id", reservation.ID,
		"tenant_id", reservation.TenantID,
		"table_id", reservation.TableID,
		"date", reservation.Date,
		"time", reservation.Time,
		"party_size", reservation.PartySize,
		"confirmation_code", reservation.ConfirmationCode,
	)
	return nil
}

func (s *reservationService) GetByID(ctx context.Context, id string) (*model.Reservation, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Reservation ID cannot be empty")
	}

	reservation, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, reservationserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Reservation", id)
		}
		if errors.Is(err, reservationserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid reservation ID format")
		}
		return nil, apperrors.Internal("Failed to retrieve reservation", err)
	}

	return reservation, nil
}

func (s *reservationService) GetAll(ctx context.Context, filter model.ReservationFilter, limit int, offset int64) ([]*model.Reservation, int64, error) {
	if filter.TenantID == "" {
		return nil, 0, apperrors.InvalidInput("Tenant ID is required for listing reservations")
	}
	if filter.Date != "" {
		canonical, err := timeslot.ParseDate(filter.Date)
		if err != nil {
			return nil, 0, apperrors.InvalidInput(err.Error())
		}
		filter.Date = canonical
	}
	if filter.CustomerPhone != "" {
		filter.CustomerPhone = sanitizer.SanitizePhone(filter.CustomerPhone)
	}

	limit = config.NormalizePaginationLimit(limit)
	offset = config.NormalizeOffset(offset)

	var count int64
	var reservations []*model.Reservation
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.CountByFilter(ctx, filter)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count reservations", "error", errCount)
			errCount = apperrors.Internal("Failed to count reservations", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		reservations, errFind = s.repo.FindByFilter(ctx, filter, limit, offset)
		if errFind != nil {
			s.cfg.Log.Error("Failed to list reservations", "error", errFind)
			errFind = apperrors.Internal("Failed to retrieve reservations", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return reservations, count, nil
}

// Cancel flips the ledger entry to cancelled and frees the table if this
// reservation currently holds it. Cancellation is terminal and idempotent
// only in the sense that a second cancel reports the conflict.
func (s *reservationService) Cancel(ctx context.Context, id string) error {
	reservation, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if !reservation.Active() {
		return apperrors.Conflict(fmt.Sprintf(
			"Reservation %s is already %s", id, reservation.Status,
		))
	}

	previousStatus := reservation.Status
	if err := s.repo.UpdateStatus(ctx, id, config.Cancelled); err != nil {
		s.cfg.Log.Error("Failed to cancel reservation", "id", id, "error", err)
		return apperrors.Internal("Failed to cancel reservation", err)
	}

	s.releaseTableIfHeld(ctx, reservation)

	s.recorder.Record(ctx, audit.EventReservationCancelled, audit.ReservationEvent{
		TenantID:       reservation.TenantID,
		ReservationID:  reservation.ID,
		TableID:        reservation.TableID,
		Date:           reservation.Date,
		Time:           reservation.Time,
		PreviousStatus: previousStatus,
	})

	s.cfg.Log.Info("Reservation cancelled",
		"id", id,
		"tenant_id", reservation.TenantID,
		"table_id", reservation.TableID,
	)
	return nil
}

// statusTransitions defines the legal ledger lifecycle. Cancelled and
// completed are terminal.
var statusTransitions = map[string][]string{
	config.Pending:   {config.Confirmed, config.Completed, config.Cancelled},
	config.Confirmed: {config.Completed, config.Cancelled},
}

func (s *reservationService) UpdateStatus(ctx context.Context, id, status string) error {
	if status == config.Cancelled {
		return s.Cancel(ctx, id)
	}

	reservation, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if !legalStatusChange(reservation.Status, status) {
		return apperrors.InvalidTransition(fmt.Sprintf(
			"cannot move reservation from %s to %s", reservation.Status, status,
		))
	}

	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		s.cfg.Log.Error("Failed to update reservation status",
			"id", id,
			"status", status,
			"error", err,
		)
		return apperrors.Internal("Failed to update reservation status", err)
	}

	if status == config.Completed {
		s.recorder.Record(ctx, audit.EventReservationCompleted, audit.ReservationEvent{
			TenantID:       reservation.TenantID,
			ReservationID:  reservation.ID,
			TableID:        reservation.TableID,
			Date:           reservation.Date,
			Time:           reservation.Time,
			PreviousStatus: reservation.Status,
		})
	}

	s.cfg.Log.Info("Reservation status updated",
		"id", id,
		"from", reservation.Status,
		"to", status,
	)
	return nil
}

func legalStatusChange(from, to string) bool {
	for _, allowed := range statusTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// --- Helpers ---

func (s *reservationService) applyDefaults(r *model.Reservation) {
	if r.Status == "" {
		r.Status = config.Pending
	}
	if r.ConfirmationCode == "" {
		r.ConfirmationCode = generateConfirmationCode()
	}
}

func (s *reservationService) sanitize(r *model.Reservation) {
	r.CustomerName = sanitizer.TrimAndNormalize(r.CustomerName)
	r.CustomerPhone = sanitizer.SanitizePhone(r.CustomerPhone)
	r.Zone = sanitizer.SanitizeLabel(r.Zone)
	r.Notes = sanitizer.TrimAndNormalize(r.Notes)
	if canonical, err := timeslot.ParseDate(r.Date); err == nil {
		r.Date = canonical
	}
}

func (s *reservationService) checkOpeningHours(tenant *model.Tenant, r *model.Reservation) error {
	if !tenant.EnforceOpeningHours {
		return nil
	}

	if len(tenant.OpenDays) > 0 {
		weekday, err := timeslot.Weekday(r.Date)
		if err != nil {
			return apperrors.InvalidInput(err.Error())
		}
		open := false
		for _, day := range tenant.OpenDays {
			if day == weekday.String() {
				open = true
				break
			}
		}
		if !open {
			return apperrors.Conflict(fmt.Sprintf(
				"Restaurant is closed on %ss", weekday,
			))
		}
	}

	minute, err := timeslot.ParseClock(r.Time)
	if err != nil {
		return apperrors.InvalidInput(err.Error())
	}
	openMinute, err := timeslot.ParseClock(tenant.OpenTime)
	if err != nil {
		return apperrors.Internal("Tenant open_time is malformed", err)
	}
	closeMinute, err := timeslot.ParseClock(tenant.CloseTime)
	if err != nil {
		return apperrors.Internal("Tenant close_time is malformed", err)
	}

	hours := timeslot.Window{Start: openMinute, End: closeMinute}
	if !hours.Contains(minute) {
		return apperrors.Conflict(fmt.Sprintf(
			"Requested time %s is outside opening hours %s-%s",
			r.Time, tenant.OpenTime, tenant.CloseTime,
		))
	}

	return nil
}

func (s *reservationService) checkTableFits(table *model.Table, r *model.Reservation) error {
	if table.TenantID != r.TenantID {
		return apperrors.NotFoundWithID("Table", r.TableID)
	}
	if table.Capacity < r.PartySize {
		return apperrors.Conflict(fmt.Sprintf(
			"Table %s seats %d, party of %d does not fit",
			table.Label, table.Capacity, r.PartySize,
		))
	}
	if r.Zone != "" && table.Zone != r.Zone {
		return apperrors.Conflict(fmt.Sprintf(
			"Table %s is in zone %q, not requested zone %q",
			table.Label, table.Zone, r.Zone,
		))
	}
	return nil
}

func (s *reservationService) verifyNoOverlap(ctx context.Context, r *model.Reservation, duration time.Duration) error {
	start, err := timeslot.ParseClock(r.Time)
	if err != nil {
		return apperrors.InvalidInput(err.Error())
	}
	window := timeslot.NewWindow(start, int(duration.Minutes()))

	existing, err := s.repo.FindActiveByTableAndDate(ctx, r.TableID, r.Date)
	if err != nil {
		return apperrors.Internal("Failed to check existing reservations", err)
	}

	for _, other := range existing {
		if other.ID == r.ID {
			continue
		}
		otherStart, err := timeslot.ParseClock(other.Time)
		if err != nil {
			s.cfg.Log.Warn("Skipping reservation with malformed time during overlap check",
				"id", other.ID,
				"time", other.Time,
			)
			continue
		}
		otherWindow := timeslot.NewWindow(otherStart, int(duration.Minutes()))
		if window.Overlaps(otherWindow) {
			return apperrors.Conflict(fmt.Sprintf(
				"Table is already booked from %s to %s on %s",
				other.Time, timeslot.FormatClock(otherWindow.End), other.Date,
			))
		}
	}
	return nil
}

func (s *reservationService) releaseTableIfHeld(ctx context.Context, r *model.Reservation) {
	table, err := s.tables.GetByID(ctx, r.TableID)
	if err != nil {
		s.cfg.Log.Warn("Failed to load table during release",
			"reservation_id", r.ID,
			"table_id", r.TableID,
			"error", err,
		)
		return
	}

	if table.State == model.TableFree || table.CurrentReservationID != r.ID {
		return
	}

	if _, err := s.tables.Release(ctx, r.TableID, model.UpdatedBySystem); err != nil {
		s.cfg.Log.Warn("Failed to release table after cancellation",
			"reservation_id", r.ID,
			"table_id", r.TableID,
			"error", err,
		)
	}
}

// acquireSlotLock creates an advisory lock to prevent concurrent creation
// for the same slot. Returns the lock ID if successful, or conflict error
// if the lock already exists.
func (s *reservationService) acquireSlotLock(ctx context.Context, r *model.Reservation) (string, error) {
	lockID := fmt.Sprintf("resv_%s_%s_%s_%s", r.TenantID, r.TableID, r.Date, r.Time)

	lock := &model.ReservationLock{
		ID:        lockID,
		ExpiresAt: time.Now().Add(s.cfg.BookingLockTTL),
	}

	_, err := s.lockRepo.Create(ctx, lock)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return "", apperrors.Conflict("This time slot is currently being booked by another request. Please try again.")
		}
		return "", apperrors.Internal("Failed to acquire reservation lock", err)
	}

	return lockID, nil
}

// releaseSlotLock removes the advisory lock
func (s *reservationService) releaseSlotLock(ctx context.Context, lockID string) error {
	return s.lockRepo.Delete(ctx, lockID)
}

// generateConfirmationCode derives a short code the voice agent can read
// back to the caller. Six characters keeps it sayable; ambiguous glyphs
// stay out via the hex alphabet.
func generateConfirmationCode() string {
	raw := strings.ReplaceAll(uuid.New().String(), "-", "")
	return strings.ToUpper(raw[:6])
}
