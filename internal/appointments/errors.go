package appointments

import "errors"

var (
	// ErrInvalidForm is returned when a creation payload fails validation.
	ErrInvalidForm = errors.New("appointments: invalid form")
)
