package handler

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var defaultValidator = NewValidator() //nolint:gochecknoglobals

// FieldErrors maps a form field name to its message.
type FieldErrors map[string]string

// NewValidator returns a validator that reports fields by their form name.
func NewValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("form"), ",")
		if name == "" || name == "-" {
			return f.Name
		}

		return name
	})

	return v
}

// Validate checks data against its validate tags. It returns nil when data is valid.
func (e *Env) Validate(data any) FieldErrors {
	v := e.Validator
	if v == nil {
		v = defaultValidator
	}

	err := v.Struct(data)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return FieldErrors{"": err.Error()}
	}

	out := make(FieldErrors, len(verrs))
	for _, fe := range verrs {
		out[fe.Field()] = message(fe)
	}

	return out
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "email":
		return "Is this a valid email address?"
	case "min":
		return fmt.Sprintf("Please use at least %s characters.", fe.Param())
	case "max":
		return fmt.Sprintf("Please use at most %s characters.", fe.Param())
	case "eqfield":
		return "The values do not match."
	case "oneof":
		return fmt.Sprintf("Must be one of: %s.", fe.Param())
	default:
		return fmt.Sprintf("Failed the %q check.", fe.Tag())
	}
}
