// Package auth verifies externally issued bearer tokens and enforces that a
// caller only reaches resources owned by the token's subject.
package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// MinSecretLength is the shortest shared secret accepted for HMAC signing.
const MinSecretLength = 32

// SubjectClaims lists the claims checked for the user identifier, highest
// priority first. The first non-null value wins.
var SubjectClaims = []string{"sub", "user_id", "userId", "id"}

// Identity is the caller derived from a verified token.
type Identity struct {
	Subject   string
	Email     string
	ExpiresAt time.Time
	IssuedAt  *time.Time
}

// Verifier checks HMAC-signed JWTs against a shared secret.
type Verifier struct {
	secret    []byte
	algorithm string
}

// NewVerifier returns a verifier for the given secret and HMAC algorithm
// name (HS256, HS384 or HS512).
func NewVerifier(secret, algorithm string) (*Verifier, error) {
	if len(secret) < MinSecretLength {
		return nil, fmt.Errorf("auth secret must be at least %d characters", MinSecretLength)
	}
	if _, ok := jwt.GetSigningMethod(algorithm).(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unsupported signing algorithm %q", algorithm)
	}
	return &Verifier{secret: []byte(secret), algorithm: algorithm}, nil
}

// Algorithm returns the signing algorithm tokens must use.
func (v *Verifier) Algorithm() string {
	return v.algorithm
}

// Verify checks the token against the current time.
func (v *Verifier) Verify(token string) (Identity, error) {
	return v.VerifyAt(token, time.Now())
}

// VerifyAt is like Verify but checks expiry against now. Every failure is a
// *TokenError wrapping either ErrTokenExpired or ErrTokenInvalid.
func (v *Verifier) VerifyAt(token string, now time.Time) (identity Identity, err error) {
	defer func() {
		if r := recover(); r != nil {
			identity = Identity{}
			err = invalid(fmt.Sprintf("Token verification failed: %v", r))
		}
	}()

	token = strings.TrimPrefix(token, "Bearer ")

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{v.algorithm}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return now }),
		jwt.WithJSONNumber(),
	)

	// An expired token reports as expired whether or not its signature holds.
	unverified := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(token, unverified); err != nil {
		return Identity{}, invalid("Token decode error: " + err.Error())
	}
	if exp, err := unverified.GetExpirationTime(); err == nil && exp != nil && !now.Before(exp.Time) {
		return Identity{}, expired()
	}

	claims := jwt.MapClaims{}
	if _, err := parser.ParseWithClaims(token, claims, v.keyFunc); err != nil {
		return Identity{}, classify(err)
	}
	return identityFromClaims(claims)
}

func (v *Verifier) keyFunc(t *jwt.Token) (any, error) {
	if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
	}
	return v.secret, nil
}

func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return expired()
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return invalid("Invalid token signature")
	case errors.Is(err, jwt.ErrTokenMalformed):
		return invalid("Token decode error: " + err.Error())
	default:
		return invalid("Invalid token: " + err.Error())
	}
}

func identityFromClaims(claims jwt.MapClaims) (Identity, error) {
	subject, ok := subjectFromClaims(claims)
	if !ok {
		return Identity{}, invalid(fmt.Sprintf("No user ID found in token. Expected one of: %v", SubjectClaims))
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return Identity{}, invalid("Token missing expiration claim")
	}

	identity := Identity{Subject: subject, ExpiresAt: exp.Time.UTC()}
	if email, ok := claims["email"].(string); ok {
		identity.Email = email
	}

	iat, err := claims.GetIssuedAt()
	if err != nil {
		return Identity{}, invalid("Invalid token: malformed iat claim")
	}
	if iat != nil {
		issued := iat.Time.UTC()
		identity.IssuedAt = &issued
	}
	return identity, nil
}

// subjectFromClaims walks SubjectClaims in order. Numbers are rendered in
// their decimal form.
func subjectFromClaims(claims jwt.MapClaims) (string, bool) {
	for _, name := range SubjectClaims {
		value, ok := claims[name]
		if !ok || value == nil {
			continue
		}
		switch v := value.(type) {
		case string:
			return v, true
		case json.Number:
			return v.String(), true
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64), true
		default:
			return fmt.Sprint(v), true
		}
	}
	return "", false
}
