package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/99minutos/tasklist/internal/core/domain"
)

// registerInput mirrors the registration rules: id 3–8 characters with no
// surrounding whitespace, password at least 8.
type registerInput struct {
	ID       string `validate:"required,trimmed,min=3,max=8"`
	Password string `validate:"required,min=8"`
}

type contentInput struct {
	Content string `validate:"required"`
}

// inputValidator wraps go-playground/validator and turns its errors into
// domain.ErrInvalidInput failures.
type inputValidator struct {
	v *validator.Validate
}

func newInputValidator() *inputValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.RegisterValidation("trimmed", trimmed); err != nil {
		panic(err)
	}
	return &inputValidator{v: v}
}

// trimmed rejects blank strings and strings with leading or trailing
// whitespace.
func trimmed(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	return s != "" && s == strings.TrimSpace(s)
}

func (iv *inputValidator) check(op string, i any) error {
	err := iv.v.Struct(i)
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		msgs := make([]string, 0, len(ve))
		for _, fe := range ve {
			msgs = append(msgs, fieldError(fe))
		}
		return domain.Fail(op, domain.ErrInvalidInput, strings.Join(msgs, "; "))
	}
	return domain.Wrap(op, domain.ErrInvalidInput, err)
}

// fieldError converts a single validation failure into a readable message.
// Values are never echoed back: one of the fields is a password.
func fieldError(fe validator.FieldError) string {
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "trimmed":
		return field + " must not be blank or padded with whitespace"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed validation (%s)", field, fe.Tag())
	}
}
