package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	tenantserrors "maitred/internal/tenants/errors"
	"maitred/internal/tenants/repository"
	"maitred/internal/tenants/validator"
	"maitred/pkg/config"
	apperrors "maitred/pkg/errors"
	"maitred/pkg/model"
	"maitred/pkg/sanitizer"

	"go.mongodb.org/mongo-driver/mongo"
)

type TenantService interface {
	Create(ctx context.Context, tenant *model.Tenant) error
	GetByID(ctx context.Context, id string) (*model.Tenant, error)
	GetAll(ctx context.Context, limit int, offset int64) ([]*model.Tenant, int64, error)
	Update(ctx context.Context, id string, updates *model.TenantUpdate) error
	Delete(ctx context.Context, id string) error

	GetByAdminPhone(ctx context.Context, phone string) ([]*model.Tenant, error)
}

type tenantService struct {
	repo      repository.TenantRepository
	validator *validator.TenantValidator
	cfg       *config.Config
}

func NewTenantService(
	repo repository.TenantRepository,
	validator *validator.TenantValidator,
	cfg *config.Config,
) TenantService {
	return &tenantService{
		repo:      repo,
		validator: validator,
		cfg:       cfg,
	}
}

func (s *tenantService) Create(ctx context.Context, tenant *model.Tenant) error {
	s.sanitize(tenant)

	if err := s.validator.Validate(tenant); err != nil {
		s.cfg.Log.Warn("Tenant validation failed",
			"name", tenant.Name,
			"admin_phone", tenant.AdminPhone,
			"error", err,
		)
		return apperrors.Validation("Tenant validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	err := s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		existing, err := s.repo.FindByAdminPhone(sessCtx, tenant.AdminPhone)
		if err != nil {
			return fmt.Errorf("failed to check for duplicates: %w", err)
		}

		for _, other := range existing {
			if sanitizer.SanitizeLabel(other.Name) == sanitizer.SanitizeLabel(tenant.Name) {
				return apperrors.Conflict(fmt.Sprintf(
					"Tenant with the same name and admin phone already exists (id: %s)",
					other.ID,
				))
			}
		}

		if err := s.repo.Create(sessCtx, tenant); err != nil {
			return fmt.Errorf("failed to create tenant: %w", err)
		}

		return nil
	})

	if err != nil {
		s.cfg.Log.Error("Failed to create tenant",
			"name", tenant.Name,
			"admin_phone", tenant.AdminPhone,
			"error", err,
		)
		return err
	}

	s.cfg.Log.Info("Tenant created successfully",
		"id", tenant.ID,
		"name", tenant.Name,
		"admin_phone", tenant.AdminPhone,
		"enforce_opening_hours", tenant.EnforceOpeningHours,
	)

	return nil
}

func (s *tenantService) GetByID(ctx context.Context, id string) (*model.Tenant, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Tenant ID cannot be empty")
	}

	tenant, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, tenantserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Tenant", id)
		}
		if errors.Is(err, tenantserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid tenant ID format")
		}
		s.cfg.Log.Error("Failed to get tenant by ID",
			"id", id,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to retrieve tenant", err)
	}

	return tenant, nil
}

func (s *tenantService) GetAll(ctx context.Context, limit int, offset int64) ([]*model.Tenant, int64, error) {
	limit = config.NormalizePaginationLimit(limit)
	offset = config.NormalizeOffset(offset)

	var count int64
	var tenants []*model.Tenant
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		var err error
		ctx, cancel := context.WithTimeout(ctx, s.cfg.ReadTimeout)
		defer cancel()
		count, err = s.repo.Count(ctx)
		if err != nil {
			s.cfg.Log.Error("Failed to count tenants", "error", err)
			errCount = apperrors.Internal("Failed to count tenants", err)
		}
	}()

	go func() {
		defer wg.Done()
		var err error
		ctx, cancel := context.WithTimeout(ctx, s.cfg.ReadTimeout)
		defer cancel()
		tenants, err = s.repo.FindAll(ctx, limit, offset)
		if err != nil {
			s.cfg.Log.Error("Failed to get all tenants",
				"limit", limit,
				"offset", offset,
				"error", err,
			)
			errFind = apperrors.Internal("Failed to retrieve tenants", err)
		}
	}()
	wg.Wait()

	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return tenants, count, nil
}

func (s *tenantService) Update(ctx context.Context, id string, updates *model.TenantUpdate) error {
	if id == "" {
		return apperrors.InvalidInput("Tenant ID cannot be empty")
	}

	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, tenantserrors.ErrNotFound) {
			return apperrors.NotFoundWithID("Tenant", id)
		}
		if errors.Is(err, tenantserrors.ErrInvalidID) {
			return apperrors.InvalidInput("Invalid tenant ID format")
		}
		return apperrors.Internal("Failed to check tenant existence", err)
	}

	s.sanitizeUpdate(updates)
	merged := s.mergeTenantUpdates(existing, updates)
	if err := s.validator.Validate(merged); err != nil {
		s.cfg.Log.Warn("Tenant validation failed",
			"name", merged.Name,
			"id", id,
			"error", err,
		)
		return apperrors.Validation("Tenant validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	if _, err := s.repo.Update(ctx, id, merged); err != nil {
		s.cfg.Log.Error("Failed to update tenant",
			"id", id,
			"error", err,
		)
		return apperrors.Internal("Failed to update tenant", err)
	}
	s.cfg.Log.Info("Tenant updated successfully",
		"id", id,
		"name", merged.Name,
	)

	return nil
}

func (s *tenantService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return apperrors.InvalidInput("Tenant ID cannot be empty")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, tenantserrors.ErrNotFound) {
			return apperrors.NotFoundWithID("Tenant", id)
		}
		if errors.Is(err, tenantserrors.ErrInvalidID) {
			return apperrors.InvalidInput("Invalid tenant ID format")
		}
		s.cfg.Log.Error("Failed to delete tenant",
			"id", id,
			"error", err,
		)
		return apperrors.Internal("Failed to delete tenant", err)
	}

	s.cfg.Log.Info("Tenant deleted successfully", "id", id)

	return nil
}

func (s *tenantService) GetByAdminPhone(ctx context.Context, phone string) ([]*model.Tenant, error) {
	if phone == "" {
		return nil, apperrors.InvalidInput("Admin phone number cannot be empty")
	}

	phone = sanitizer.SanitizePhone(phone)
	if phone == "" {
		return nil, apperrors.InvalidInput("Admin phone number is not a valid phone number")
	}

	tenants, err := s.repo.FindByAdminPhone(ctx, phone)
	if err != nil {
		s.cfg.Log.Error("Failed to get tenants by admin phone",
			"phone", phone,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to retrieve tenants by phone", err)
	}

	return tenants, nil
}

func (s *tenantService) sanitize(tenant *model.Tenant) {
	tenant.Name = sanitizer.TrimAndNormalize(tenant.Name)
	tenant.AdminPhone = sanitizer.SanitizePhone(tenant.AdminPhone)
	tenant.TimeZone = sanitizer.TrimAndNormalize(tenant.TimeZone)
	tenant.OpenDays = normalizeDays(tenant.OpenDays)
}

func (s *tenantService) sanitizeUpdate(updates *model.TenantUpdate) {
	if updates.Name != "" {
		updates.Name = sanitizer.TrimAndNormalize(updates.Name)
	}
	if updates.AdminPhone != "" {
		updates.AdminPhone = sanitizer.SanitizePhone(updates.AdminPhone)
		if updates.AdminPhone == "" {
			updates.AdminPhone = "invalid_result"
		}
	}
	if updates.TimeZone != "" {
		updates.TimeZone = sanitizer.TrimAndNormalize(updates.TimeZone)
	}
	if updates.OpenDays != nil {
		updates.OpenDays = normalizeDays(updates.OpenDays)
	}
}

func (s *tenantService) mergeTenantUpdates(existing *model.Tenant, updates *model.TenantUpdate) *model.Tenant {
	merged := *existing

	if updates.Name != "" {
		merged.Name = updates.Name
	}
	if updates.AdminPhone != "" {
		merged.AdminPhone = updates.AdminPhone
	}
	if updates.TimeZone != "" {
		merged.TimeZone = updates.TimeZone
	}
	if updates.ServiceDurationMin != nil {
		merged.ServiceDurationMin = *updates.ServiceDurationMin
	}
	if updates.TurnTimes != nil {
		merged.TurnTimes = updates.TurnTimes
	}
	if updates.OpenDays != nil {
		merged.OpenDays = updates.OpenDays
	}
	if updates.OpenTime != "" {
		merged.OpenTime = updates.OpenTime
	}
	if updates.CloseTime != "" {
		merged.CloseTime = updates.CloseTime
	}
	if updates.EnforceOpeningHours != nil {
		merged.EnforceOpeningHours = *updates.EnforceOpeningHours
	}

	merged.ID = existing.ID
	merged.CreatedAt = existing.CreatedAt

	return &merged
}

var canonicalDays = map[string]string{
	"monday":    "Monday",
	"tuesday":   "Tuesday",
	"wednesday": "Wednesday",
	"thursday":  "Thursday",
	"friday":    "Friday",
	"saturday":  "Saturday",
	"sunday":    "Sunday",
}

func normalizeDays(days []string) []string {
	out := make([]string, 0, len(days))
	seen := make(map[string]bool)
	for _, day := range days {
		key := sanitizer.SanitizeLabel(day)
		canonical, ok := canonicalDays[key]
		if !ok {
			// Leave unknown tokens for the validator to reject.
			canonical = sanitizer.TrimAndNormalize(day)
		}
		if canonical == "" || seen[canonical] {
			continue
		}
		seen[canonical] = true
		out = append(out, canonical)
	}
	return out
}
