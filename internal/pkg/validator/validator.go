// Package validator wraps go-playground/validator for declarative struct
// validation with uniform error formatting.
package validator

import (
	"errors"
	"fmt"

	gvalidator "github.com/go-playground/validator/v10"
)

// ErrValidationFailed heads the error chain returned when any field fails
// validation, so callers can detect validation failures with errors.Is.
var ErrValidationFailed = errors.New("struct validation failed")

var validator *gvalidator.Validate

const errStringFormat = "'%s': value '%v' does not meet the requirements for the '%s' validation"

func init() {
	validator = gvalidator.New(gvalidator.WithRequiredStructEnabled())
}

// formatError converts raw field errors into a joined chain rooted at
// ErrValidationFailed. Non-validation errors pass through unchanged.
func formatError(err error) error {
	var validationErrors gvalidator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err
	}

	errs := []error{ErrValidationFailed}
	for _, validationErr := range validationErrors {
		err := fmt.Errorf(errStringFormat,
			validationErr.Field(),
			validationErr.Value(),
			validationErr.Tag(),
		)

		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// Validate checks the struct against its `validate` tags. It returns nil when
// every field passes, otherwise an error chain rooted at ErrValidationFailed
// with one formatted entry per failing field.
func Validate(v any) error {
	if err := validator.Struct(v); err != nil {
		return formatError(err)
	}

	return nil
}
