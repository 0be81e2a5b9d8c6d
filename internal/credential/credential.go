// Package credential acquires bearer tokens for the remote agent service
// from an ordered chain of ambient identity sources.
package credential

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultResource is the audience tokens are requested for.
const DefaultResource = "https://cognitiveservices.azure.com"

// Token is a bearer token plus its expiry, when known.
type Token struct {
	Value     string
	ExpiresAt time.Time
}

// Valid reports whether the token is usable at the given instant, with a
// safety margin so a token is refreshed before it actually lapses.
func (t Token) Valid(now time.Time) bool {
	if t.Value == "" {
		return false
	}
	if t.ExpiresAt.IsZero() {
		return true
	}
	return now.Before(t.ExpiresAt.Add(-2 * time.Minute))
}

// Provider produces a bearer token from one identity source.
type Provider interface {
	// Name identifies the provider in logs and error messages.
	Name() string

	// Token attempts to acquire a token. A typed failure lets the chain
	// move on to the next provider.
	Token(ctx context.Context) (Token, error)
}

// AuthError indicates the credential chain was exhausted or the remote
// service rejected the credentials.
type AuthError struct {
	Reason string
	Err    error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("authentication failed: %s: %v", e.Reason, e.Err)
	}
	return "authentication failed: " + e.Reason
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// expiryFromJWT extracts the exp claim from a bearer token without
// verifying the signature. Verification is the remote service's job; the
// claim is only used for cache invalidation.
func expiryFromJWT(raw string) time.Time {
	if strings.Count(raw, ".") != 2 {
		return time.Time{}
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return time.Time{}
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}
