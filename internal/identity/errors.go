package identity

import "errors"

var (
	// ErrUnauthenticated means no valid session accompanies the request.
	ErrUnauthenticated = errors.New("identity: not authenticated")
	// ErrForbidden means the session is valid but the role is insufficient.
	ErrForbidden = errors.New("identity: forbidden")
	// ErrInvalidCredentials is returned by SignIn for a rejected email/password.
	ErrInvalidCredentials = errors.New("identity: invalid credentials")
)
