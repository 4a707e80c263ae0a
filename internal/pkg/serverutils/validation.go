package serverutils

import (
	"errors"
	"fmt"
	"strings"

	"noteguard-be/internal/pkg/apperror"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// FieldError is one failed validation rule, reported back to the client.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError carries per-field details alongside the validation kind.
type ValidationError struct {
	*apperror.AppError
	Fields []FieldError
}

func (e *ValidationError) Unwrap() error {
	return e.AppError
}

// ValidateRequest runs the struct's validate tags.
func ValidateRequest(req interface{}) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return apperror.Validation(err.Error())
	}

	fields := make([]FieldError, 0, len(validationErrors))
	messages := make([]string, 0, len(validationErrors))
	for _, fe := range validationErrors {
		f := FieldError{Field: strings.ToLower(fe.Field()), Message: formatFieldError(fe)}
		fields = append(fields, f)
		messages = append(messages, f.Message)
	}
	return &ValidationError{
		AppError: apperror.Validation(strings.Join(messages, "; ")),
		Fields:   fields,
	}
}

func formatFieldError(fe validator.FieldError) string {
	field := strings.ToLower(fe.Field())

	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "email":
		return fmt.Sprintf("%s must be a valid email", field)
	case "alphanum":
		return fmt.Sprintf("%s must contain only letters and digits", field)
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}
