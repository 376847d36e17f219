package identity

import "context"

type ctxKey string

const userKey ctxKey = "salestracker.user"

// WithUser stores the authenticated caller in context.
func WithUser(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, userKey, u)
}

// UserFromContext extracts the caller if present.
func UserFromContext(ctx context.Context) (*User, bool) {
	u, ok := ctx.Value(userKey).(*User)
	return u, ok && u != nil && u.ID != ""
}
