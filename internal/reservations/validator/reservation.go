package validator

import (
	"errors"
	"fmt"
	"strings"

	"maitred/pkg/logger"
	"maitred/pkg/model"

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

type ReservationValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewReservationValidator(log *logger.Logger) *ReservationValidator {
	return &ReservationValidator{
		validate: validator.New(),
		logger:   log,
	}
}

// Validate checks the struct tags. Past dates pass on purpose: the ledger
// accepts backdated entries so operators can record walk-ins after the
// fact.
func (v *ReservationValidator) Validate(reservation *model.Reservation) error {
	if err := v.validate.Struct(reservation); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}

	return nil
}

func (v *ReservationValidator) translateValidationErrors(errs validator.ValidationErrors) ValidationErrors {
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
		}

		validationErrors = append(validationErrors, ValidationError{
			Field:   err.Field(),
			Message: message,
		})
	}

	return validationErrors
}
