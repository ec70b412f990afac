package cliconfig

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrTokenExpired is returned when a JWT bearer token is past its expiry.
var ErrTokenExpired = errors.New("token expired")

// TokenExpiry reads the exp claim of a JWT bearer token without verifying
// its signature. ok is false for opaque (non-JWT) tokens and for JWTs
// without an exp claim.
func TokenExpiry(token string) (exp time.Time, ok bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	t, err := claims.GetExpirationTime()
	if err != nil || t == nil {
		return time.Time{}, false
	}
	return t.Time, true
}

// CheckToken fails with ErrTokenExpired when token is a JWT that expired
// before now.
func CheckToken(token string, now time.Time) error {
	exp, ok := TokenExpiry(token)
	if !ok || now.Before(exp) {
		return nil
	}
	return fmt.Errorf("%w at %s", ErrTokenExpired, exp.UTC().Format(time.RFC3339))
}
