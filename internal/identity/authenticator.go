package identity

import (
	"context"
	"fmt"

	"github.com/wolfman30/salestracker/pkg/logging"
)

// RoleResolver looks up the stored role of a user id.
type RoleResolver interface {
	RoleOf(ctx context.Context, userID string) (Role, error)
}

// Authenticator turns an access token into a fully resolved caller.
type Authenticator struct {
	verifier *TokenVerifier
	roles    RoleResolver
	logger   *logging.Logger
}

// NewAuthenticator wires the token verifier with the profile role lookup.
func NewAuthenticator(verifier *TokenVerifier, roles RoleResolver, logger *logging.Logger) *Authenticator {
	if logger == nil {
		logger = logging.Default()
	}
	return &Authenticator{verifier: verifier, roles: roles, logger: logger}
}

// Authenticate verifies the token and attaches the caller's role. A caller
// without a profile row keeps an empty role and sees only their own data.
func (a *Authenticator) Authenticate(ctx context.Context, accessToken string) (*User, error) {
	if a == nil || a.verifier == nil {
		return nil, ErrUnauthenticated
	}
	user, err := a.verifier.Verify(accessToken)
	if err != nil {
		return nil, err
	}
	if a.roles == nil {
		return user, nil
	}
	role, err := a.roles.RoleOf(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("identity: resolve role: %w", err)
	}
	user.Role = role
	return user, nil
}
