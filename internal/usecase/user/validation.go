package user

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	domain "user-crud-service/internal/domain/user"
	pkgerrors "user-crud-service/pkg/errors"
)

// Mode selects which fields a payload must carry.
type Mode int

const (
	// ModeFull requires name, email and age. Used on create.
	ModeFull Mode = iota
	// ModePartial accepts any subset of fields. Used on update.
	ModePartial
)

// Field limits.
const (
	MaxNameLength  = 255
	MaxEmailLength = 255
	MinAge         = 0
	MaxAge         = 150
)

var (
	nameRule  = fmt.Sprintf("required,max=%d", MaxNameLength)
	emailRule = fmt.Sprintf("required,email,max=%d", MaxEmailLength)
	ageRule   = fmt.Sprintf("min=%d,max=%d", MinAge, MaxAge)
)

// Validator checks user payloads. It is safe for concurrent use.
type Validator struct {
	validate *validator.Validate
}

// NewValidator creates a Validator.
func NewValidator() *Validator {
	return &Validator{validate: validator.New()}
}

// NormalizeEmail trims and lower-cases an email address. Uniqueness is
// compared on the normalized form, so it is case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Validate normalizes in and checks it against mode. It returns either the
// normalized fields or the field errors in name, email, age order.
func (v *Validator) Validate(in UserInput, mode Mode) (domain.UserChanges, pkgerrors.FieldErrors) {
	var (
		out  domain.UserChanges
		errs pkgerrors.FieldErrors
	)

	if in.Name == nil {
		if mode == ModeFull {
			errs.Add("name", "name is required")
		}
	} else {
		name := strings.TrimSpace(*in.Name)
		if msg := v.check("name", name, nameRule); msg != "" {
			errs.Add("name", msg)
		} else {
			out.Name = &name
		}
	}

	if in.Email == nil {
		if mode == ModeFull {
			errs.Add("email", "email is required")
		}
	} else {
		email := NormalizeEmail(*in.Email)
		if msg := v.check("email", email, emailRule); msg != "" {
			errs.Add("email", msg)
		} else {
			out.Email = &email
		}
	}

	if in.Age == nil {
		if mode == ModeFull {
			errs.Add("age", "age is required")
		}
	} else {
		age := *in.Age
		if msg := v.check("age", age, ageRule); msg != "" {
			errs.Add("age", msg)
		} else {
			out.Age = &age
		}
	}

	if len(errs) > 0 {
		return domain.UserChanges{}, errs
	}
	return out, nil
}

// check runs tag against value and returns a message for the first failing rule.
func (v *Validator) check(field string, value any, tag string) string {
	err := v.validate.Var(value, tag)
	if err == nil {
		return ""
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) || len(validationErrors) == 0 {
		return fmt.Sprintf("%s is invalid", field)
	}
	return fieldMessage(field, validationErrors[0])
}

// fieldMessage converts a validator.FieldError into a human-readable message.
func fieldMessage(field string, e validator.FieldError) string {
	unit := ""
	if e.Kind() == reflect.String {
		unit = " characters"
	}

	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s must not be empty", field)
	case "email":
		return fmt.Sprintf("%s must be a valid email", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s%s", field, e.Param(), unit)
	case "max":
		return fmt.Sprintf("%s must be at most %s%s", field, e.Param(), unit)
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}
