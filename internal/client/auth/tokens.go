package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Tokens is the credential pair issued by login and refresh.
type Tokens struct {
	AuthToken    string
	RefreshToken string
}

// IsZero reports whether no token is held.
func (t Tokens) IsZero() bool {
	return t.AuthToken == "" && t.RefreshToken == ""
}

// AuthExpiry returns the "exp" claim of the access token when the token is a
// JWT that carries one. The signature is not verified: the client only uses
// the value for display and logging, the server remains the authority.
func (t Tokens) AuthExpiry() (time.Time, bool) {
	if t.AuthToken == "" {
		return time.Time{}, false
	}
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(t.AuthToken, claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}
