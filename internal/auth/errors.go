package auth

import (
	"errors"
	"strings"
)

var (
	ErrTokenExpired = errors.New("token expired")
	ErrTokenInvalid = errors.New("token invalid")
	ErrForbidden    = errors.New("access denied")
)

// TokenError is returned for every rejected credential. Kind is either
// ErrTokenExpired or ErrTokenInvalid; Reason is safe to show to the caller.
type TokenError struct {
	Kind   error
	Reason string
}

func (e *TokenError) Error() string { return e.Reason }

func (e *TokenError) Unwrap() error { return e.Kind }

func expired() error {
	return &TokenError{Kind: ErrTokenExpired, Reason: "Token has expired"}
}

func invalid(reason string) error {
	return &TokenError{Kind: ErrTokenInvalid, Reason: reason}
}

// BearerToken extracts the credentials from an Authorization header value.
func BearerToken(header string) (string, error) {
	if header == "" {
		return "", invalid("Not authenticated")
	}
	scheme, credentials, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "bearer") || strings.TrimSpace(credentials) == "" {
		return "", invalid("Invalid authentication credentials")
	}
	return strings.TrimSpace(credentials), nil
}
