package validator

import (
	"errors"
	"fmt"
	"strings"

	"maitred/pkg/logger"
	"maitred/pkg/model"
	"maitred/pkg/timeslot"

	"github.com/go-playground/validator/v10"
)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return ""
	}
	var messages []string
	for _, err := range v {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %d error(s): [%s]", len(v), strings.Join(messages, "; "))
}

type TenantValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewTenantValidator(log *logger.Logger) *TenantValidator {
	return &TenantValidator{
		validate: validator.New(),
		logger:   log,
	}
}

func (v *TenantValidator) Validate(tenant *model.Tenant) error {
	if err := v.validate.Struct(tenant); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}

	return v.validateOpeningHours(tenant)
}

func (v *TenantValidator) ValidateUpdate(updates *model.TenantUpdate) error {
	if err := v.validate.Struct(updates); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}

	return nil
}

// validateOpeningHours enforces the cross-field rules the struct tags
// cannot express: open/close come as a pair, close is after open, and turn
// times fall inside the window when one is declared.
func (v *TenantValidator) validateOpeningHours(tenant *model.Tenant) error {
	if tenant.OpenTime == "" && tenant.CloseTime == "" {
		if tenant.EnforceOpeningHours {
			return ValidationErrors{
				ValidationError{
					Field:   "EnforceOpeningHours",
					Message: "enforce_opening_hours requires open_time and close_time",
				},
			}
		}
		return nil
	}

	if tenant.OpenTime == "" || tenant.CloseTime == "" {
		return ValidationErrors{
			ValidationError{
				Field:   "OpenTime",
				Message: "open_time and close_time must both be set or both be empty",
			},
		}
	}

	open, err := timeslot.ParseClock(tenant.OpenTime)
	if err != nil {
		return ValidationErrors{
			ValidationError{Field: "OpenTime", Message: "open_time must be in HH:MM format"},
		}
	}
	close, err := timeslot.ParseClock(tenant.CloseTime)
	if err != nil {
		return ValidationErrors{
			ValidationError{Field: "CloseTime", Message: "close_time must be in HH:MM format"},
		}
	}

	if close <= open {
		return ValidationErrors{
			ValidationError{
				Field:   "CloseTime",
				Message: "close_time must be after open_time",
			},
		}
	}

	for _, turn := range tenant.TurnTimes {
		minute, err := timeslot.ParseClock(turn)
		if err != nil {
			return ValidationErrors{
				ValidationError{Field: "TurnTimes", Message: fmt.Sprintf("turn time %q must be in HH:MM format", turn)},
			}
		}
		if minute < open || minute >= close {
			return ValidationErrors{
				ValidationError{
					Field:   "TurnTimes",
					Message: fmt.Sprintf("turn time %s falls outside opening hours %s-%s", turn, tenant.OpenTime, tenant.CloseTime),
				},
			}
		}
	}

	return nil
}

func (v *TenantValidator) translateValidationErrors(errs validator.ValidationErrors) ValidationErrors {
	var validationErrors ValidationErrors

	for _, err := range errs {
		message := err.Error()

		switch err.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", err.Field())
		case "min":
			message = fmt.Sprintf("%s must be at least %s", err.Field(), err.Param())
		case "max":
			message = fmt.Sprintf("%s must be at most %s", err.Field(), err.Param())
		case "mongodb":
			message = fmt.Sprintf("%s must be a valid MongoDB ObjectID", err.Field())
		case "e164":
			message = fmt.Sprintf("%s must be in E.164 format (e.g., +14155552671)", err.Field())
		case "oneof":
			message = fmt.Sprintf("%s must be one of: %s", err.Field(), err.Param())
		case "datetime":
			message = fmt.Sprintf("%s must match format %s", err.Field(), err.Param())
		case "timezone":
			message = fmt.Sprintf("%s must be a valid IANA time zone", err.Field())
		}

		validationErrors = append(validationErrors, ValidationError{
			Field:   err.Field(),
			Message: message,
		})
	}

	return validationErrors
}
