// Package validate wraps go-playground/validator so Echo can call
// c.Validate(req) and services can check single values.
package validate

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/advait5300/jivana-health-platform/internal/platform/apperr"
)

// Validator satisfies echo.Validator.
type Validator struct {
	v *validator.Validate
}

func New() *Validator {
	return &Validator{v: validator.New()}
}

var shared = New()

// Validate checks struct tags and returns an apperr validation error with
// one message per failing field.
func (ev *Validator) Validate(i interface{}) error {
	if err := ev.v.Struct(i); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			msgs := make([]string, 0, len(ve))
			for _, fe := range ve {
				msgs = append(msgs, fieldError(fe))
			}
			return apperr.Invalid("%s", strings.Join(msgs, "; "))
		}
		return err
	}
	return nil
}

// Email reports whether s is a syntactically valid email address.
func Email(s string) bool {
	return shared.v.Var(s, "required,email") == nil
}

func fieldError(fe validator.FieldError) string {
	field := fe.Field()
	if field != "" {
		field = strings.ToLower(field[:1]) + field[1:]
	}
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return field + " must be a valid email"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "uuid":
		return field + " must be a valid id"
	default:
		return fmt.Sprintf("%s failed validation (%s)", field, fe.Tag())
	}
}
