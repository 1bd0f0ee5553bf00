// Package authtest issues signed access tokens shaped like the ones the
// planning API hands out, for tests that exercise token expiry.
package authtest

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims carries the registered claims plus the user the token was issued to.
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"userId,omitempty"`
}

var secretKey = []byte("authtest-secret")

// IssueToken returns an HS256 token for userID that expires after validity.
// Every call yields a distinct token.
func IssueToken(userID string, validity time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(validity)),
		},
		UserID: userID,
	})

	return token.SignedString(secretKey)
}

// MustIssueToken is IssueToken failing t on error.
func MustIssueToken(t testing.TB, userID string, validity time.Duration) string {
	t.Helper()
	tok, err := IssueToken(userID, validity)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return tok
}

// UserID verifies tokenString and returns the user it was issued to.
func UserID(tokenString string) (string, error) {
	claims := &Claims{}
	if _, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return secretKey, nil
	}); err != nil {
		return "", err
	}
	return claims.UserID, nil
}
