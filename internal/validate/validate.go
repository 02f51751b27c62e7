// Package validate checks request DTOs with struct tags.
package validate

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"barstock-backend/internal/apperror"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

var (
	once sync.Once
	v    *validator.Validate
)

func instance() *validator.Validate {
	once.Do(func() {
		v = validator.New(validator.WithRequiredStructEnabled())
		// report json names so details match the request body
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				return f.Name
			}
			return name
		})
	})
	return v
}

// Struct validates s and returns an apperror validation error whose details
// map each failing field to the rule it broke.
func Struct(s any) error {
	err := instance().Struct(s)
	if err == nil {
		return nil
	}

	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		return apperror.NewInternal(err)
	}

	appErr := apperror.NewValidation(message(ves[0]))
	for _, fe := range ves {
		appErr.WithDetail(fe.Field(), fe.Tag())
	}
	return appErr
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "email":
		return fe.Field() + " must be a valid email address"
	case "eqfield":
		if fe.Field() == "confirm_password" {
			return "Passwords do not match"
		}
		return fe.Field() + " must match " + fe.Param()
	case "oneof":
		return fe.Field() + " must be one of: " + fe.Param()
	case "min":
		return fe.Field() + " must be at least " + fe.Param()
	case "max":
		return fe.Field() + " must be at most " + fe.Param()
	case "uuid":
		return fe.Field() + " must be a valid id"
	case "datetime":
		return fe.Field() + " must be a date in the form " + fe.Param()
	default:
		return fe.Field() + " is invalid"
	}
}

// ID checks a path id and returns it in canonical form. Anything that is
// not a uuid cannot name a stored row, so it is reported as not found
// rather than sent to the store.
func ID(raw, entity string) (string, error) {
	u, err := uuid.Parse(raw)
	if err != nil {
		return "", apperror.NewNotFound(entity, raw)
	}
	return u.String(), nil
}
