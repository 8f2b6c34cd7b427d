package validation

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// validate is a singleton validator instance
var validate *validator.Validate

func init() {
	validate = validator.New()
	// community_cap accepts -1 (unlimited) or any positive bound.
	_ = validate.RegisterValidation("community_cap", func(fl validator.FieldLevel) bool {
		v := fl.Field().Int()
		return v == -1 || v >= 1
	})
}

// Struct validates v against its `validate` struct tags and returns the
// first failure as a *FieldError.
func Struct(v any) error {
	if v == nil {
		return errors.New("value cannot be nil")
	}
	if err := validate.Struct(v); err != nil {
		return formatValidationError(err)
	}
	return nil
}

// formatValidationError converts validator errors to a more user-friendly format
func formatValidationError(err error) error {
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}

	// Return the first validation error in a user-friendly format
	for _, e := range validationErrs {
		field := e.Field()
		param := e.Param()

		var msg string
		switch e.Tag() {
		case "required":
			msg = "field is required"
		case "min", "gte":
			msg = fmt.Sprintf("must be at least %s, got %v", param, e.Value())
		case "max", "lte":
			msg = fmt.Sprintf("must not exceed %s, got %v", param, e.Value())
		case "oneof":
			msg = fmt.Sprintf("must be one of [%s], got %v", param, e.Value())
		case "community_cap":
			msg = fmt.Sprintf("must be -1 (unlimited) or at least 1, got %v", e.Value())
		default:
			msg = fmt.Sprintf("validation failed (%s)", e.Tag())
		}
		return &FieldError{Field: field, Message: msg}
	}

	return err
}
