package visits

import "errors"

var (
	// ErrNotFound is returned when no visit matches the id.
	ErrNotFound = errors.New("visits: not found")
	// ErrInvalidForm wraps payload validation failures.
	ErrInvalidForm = errors.New("visits: invalid form")
	// ErrInvalidStatus is returned for unknown status values.
	ErrInvalidStatus = errors.New("visits: invalid status")
	// ErrForbidden is returned when the caller may not touch the visit.
	ErrForbidden = errors.New("visits: forbidden")
)
