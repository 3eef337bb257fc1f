package api

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validator adapts go-playground/validator to echo.Validator.
type Validator struct {
	validate *validator.Validate
}

func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report json names so messages match the request body.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, tag := range []string{"json", "query"} {
			name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return f.Name
	})
	return &Validator{validate: v}
}

func (v *Validator) Validate(i any) error {
	if err := v.validate.Struct(i); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return newValidationError(verrs)
		}
		return err
	}
	return nil
}

// ValidationError lists one message per invalid field.
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Messages, "; ")
}

func newValidationError(errs validator.ValidationErrors) *ValidationError {
	out := &ValidationError{}
	for _, fe := range errs {
		out.Messages = append(out.Messages, fieldMessage(fe))
	}
	return out
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return "Please provide a valid email address"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be longer than or equal to %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must not be less than %s", field, fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must not exceed %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must not be greater than %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	}
	return fmt.Sprintf("%s is invalid", field)
}
