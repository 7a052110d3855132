// Package validation checks request structs against their `validate` tags and
// renders failures as human-readable messages.
//
// Messages name fields by their `label` tag, falling back to the json or
// schema name of the field.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/mkrupp/bookswap/internal/domain"
)

// Validator validates request structs.
type Validator struct {
	validate *validator.Validate
}

// New creates a Validator.
func New() *Validator {
	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(fieldLabel)

	return &Validator{validate: validate}
}

func fieldLabel(field reflect.StructField) string {
	if label := field.Tag.Get("label"); label != "" {
		return label
	}

	for _, tag := range []string{"json", "schema"} {
		name, _, _ := strings.Cut(field.Tag.Get(tag), ",")
		if name != "" && name != "-" {
			return name
		}
	}

	return field.Name
}

// Struct validates s. It returns a *domain.ValidationError listing one message
// per failed field, or nil if s is valid.
func (v *Validator) Struct(s any) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("validate: %w", err)
	}

	messages := make([]string, 0, len(fieldErrs))
	for _, fieldErr := range fieldErrs {
		messages = append(messages, message(fieldErr))
	}

	return domain.NewValidationError(messages...)
}

func message(fe validator.FieldError) string {
	field := fe.Field()
	isString := fe.Kind() == reflect.String

	switch fe.Tag() {
	case "required":
		return field + " is required."
	case "email":
		return "Invalid email address."
	case "url", "http_url":
		return field + " must be a valid URL."
	case "oneof":
		return field + " must be one of: " + strings.Join(strings.Fields(fe.Param()), ", ") + "."
	case "min":
		if isString {
			return field + " must be at least " + fe.Param() + " characters long."
		}

		return field + " must be at least " + fe.Param() + "."
	case "max":
		if isString {
			return field + " must be at most " + fe.Param() + " characters long."
		}

		return field + " must be at most " + fe.Param() + "."
	case "gt":
		return field + " must be greater than " + fe.Param() + "."
	default:
		return field + " is invalid."
	}
}
