package identity

import (
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// Claims mirrors the access tokens minted by the hosted auth service.
type Claims struct {
	Email        string       `json:"email"`
	Role         string       `json:"role,omitempty"`
	UserMetadata UserMetadata `json:"user_metadata"`
	jwt.RegisteredClaims
}

// UserMetadata is the free-form profile attached at sign-up.
type UserMetadata struct {
	Prenom string `json:"prenom,omitempty"`
	Nom    string `json:"nom,omitempty"`
	Role   string `json:"role,omitempty"`
}

// TokenVerifier validates HS256 access tokens with the project's JWT secret.
type TokenVerifier struct {
	secret []byte
}

// NewTokenVerifier returns a verifier; an empty secret rejects every token.
func NewTokenVerifier(secret string) *TokenVerifier {
	return &TokenVerifier{secret: []byte(secret)}
}

// Verify parses the token and returns the user it identifies. The role is
// left empty; it comes from the profile store.
func (v *TokenVerifier) Verify(token string) (*User, error) {
	token = strings.TrimSpace(token)
	if token == "" || len(v.secret) == 0 {
		return nil, ErrUnauthenticated
	}
	claims := Claims{}
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return v.secret, nil
	})
	if err != nil || !parsed.Valid {
		if err == nil {
			err = errors.New("token not valid")
		}
		return nil, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrUnauthenticated)
	}
	return &User{
		ID:        claims.Subject,
		Email:     claims.Email,
		FirstName: claims.UserMetadata.Prenom,
		LastName:  claims.UserMetadata.Nom,
	}, nil
}
