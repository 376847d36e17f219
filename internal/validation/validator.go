package validation

import (
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
)

// Validator wraps go-playground/validator with the date and clock formats
// used by visit and appointment forms.
type Validator struct {
	v *validator.Validate
}

// New registers the custom tags:
//   - date:  YYYY-MM-DD
//   - clock: HH:MM (24h)
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	_ = v.RegisterValidation("date", func(fl validator.FieldLevel) bool {
		value, ok := fl.Field().Interface().(string)
		if !ok {
			return false
		}
		_, err := time.Parse(time.DateOnly, value)
		return err == nil
	})

	_ = v.RegisterValidation("clock", func(fl validator.FieldLevel) bool {
		value, ok := fl.Field().Interface().(string)
		if !ok {
			return false
		}
		_, err := time.Parse("15:04", value)
		return err == nil
	})

	return &Validator{v: v}
}

// Struct validates s against its `validate` tags.
func (v *Validator) Struct(s any) error {
	return v.v.Struct(s)
}

// FailedFields lists the struct fields that failed validation, for logging.
func FailedFields(err error) []string {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return nil
	}
	fields := make([]string, 0, len(ve))
	for _, fe := range ve {
		fields = append(fields, fe.Field()+":"+fe.Tag())
	}
	return fields
}
