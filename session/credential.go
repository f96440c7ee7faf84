package session

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// CredentialExpiry reads the expiry claim out of a bearer credential
// without verifying it; verification is the backend's job. The second
// return is false when the credential is not a JWT or carries no expiry.
func CredentialExpiry(token string) (time.Time, bool) {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}

// CredentialExpired reports whether the credential carries an expiry claim
// that has already passed.
func CredentialExpired(token string, now time.Time) bool {
	expiry, ok := CredentialExpiry(token)
	return ok && expiry.Before(now)
}
