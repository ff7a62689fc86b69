package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "test-secret-key-that-is-at-least-32-chars"

var testNow = time.Date(2026, 1, 16, 10, 0, 0, 0, time.UTC)

func testVerifier(t *testing.T) *Verifier {
	t.Helper()
	v, err := NewVerifier(testSecret, "HS256")
	if err != nil {
		t.Fatalf("NewVerifier: %v", err)
	}
	return v
}

func sign(t *testing.T, method jwt.SigningMethod, key any, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString(key)
	if err != nil {
		t.Fatalf("SignedString: %v", err)
	}
	return token
}

func validClaims() jwt.MapClaims {
	return jwt.MapClaims{
		"sub":   "user_abc123",
		"email": "test@example.com",
		"iat":   testNow.Add(-time.Minute).Unix(),
		"exp":   testNow.Add(time.Hour).Unix(),
	}
}

func requireKind(t *testing.T, err, kind error) *TokenError {
	t.Helper()
	if !errors.Is(err, kind) {
		t.Fatalf("error = %v, want %v", err, kind)
	}
	var tokenErr *TokenError
	if !errors.As(err, &tokenErr) {
		t.Fatalf("error %T is not a *TokenError", err)
	}
	return tokenErr
}

func TestVerifyValidToken(t *testing.T) {
	v := testVerifier(t)
	token := sign(t, jwt.SigningMethodHS256, []byte(testSecret), validClaims())

	identity, err := v.VerifyAt(token, testNow)
	if err != nil {
		t.Fatalf("VerifyAt: %v", err)
	}
	if identity.Subject != "user_abc123" {
		t.Errorf("Subject = %q, want user_abc123", identity.Subject)
	}
	if identity.Email != "test@example.com" {
		t.Errorf("Email = %q, want test@example.com", identity.Email)
	}
	if !identity.ExpiresAt.Equal(testNow.Add(time.Hour)) {
		t.Errorf("ExpiresAt = %v, want %v", identity.ExpiresAt, testNow.Add(time.Hour))
	}
	if identity.IssuedAt == nil || !identity.IssuedAt.Equal(testNow.Add(-time.Minute)) {
		t.Errorf("IssuedAt = %v, want %v", identity.IssuedAt, testNow.Add(-time.Minute))
	}
}

func TestVerifyStripsBearerPrefix(t *testing.T) {
	v := testVerifier(t)
	token := sign(t, jwt.SigningMethodHS256, []byte(testSecret), validClaims())

	identity, err := v.VerifyAt("Bearer "+token, testNow)
	if err != nil {
		t.Fatalf("VerifyAt: %v", err)
	}
	if identity.Subject != "user_abc123" {
		t.Errorf("Subject = %q, want user_abc123", identity.Subject)
	}
}

func TestVerifyOptionalClaims(t *testing.T) {
	v := testVerifier(t)
	token := sign(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.MapClaims{
		"sub": "user_1",
		"exp": testNow.Add(time.Hour).Unix(),
	})

	identity, err := v.VerifyAt(token, testNow)
	if err != nil {
		t.Fatalf("VerifyAt: %v", err)
	}
	if identity.Email != "" {
		t.Errorf("Email = %q, want empty", identity.Email)
	}
	if identity.IssuedAt != nil {
		t.Errorf("IssuedAt = %v, want nil", identity.IssuedAt)
	}
}

func TestVerifySubjectPriority(t *testing.T) {
	tests := []struct {
		name   string
		claims jwt.MapClaims
		want   string
	}{
		{"sub beats everything", jwt.MapClaims{"sub": "s", "user_id": "u", "userId": "c", "id": "i"}, "s"},
		{"user_id beats userId and id", jwt.MapClaims{"user_id": "u", "userId": "c", "id": "i"}, "u"},
		{"userId beats id", jwt.MapClaims{"userId": "c", "id": "i"}, "c"},
		{"id alone", jwt.MapClaims{"id": "i"}, "i"},
		{"null sub falls through", jwt.MapClaims{"sub": nil, "user_id": "u"}, "u"},
		{"numeric user_id", jwt.MapClaims{"user_id": 42}, "42"},
		{"numeric id", jwt.MapClaims{"id": 9007199254740993}, "9007199254740993"},
		{"empty sub still wins", jwt.MapClaims{"sub": "", "user_id": "u"}, ""},
	}

	v := testVerifier(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.claims["exp"] = testNow.Add(time.Hour).Unix()
			token := sign(t, jwt.SigningMethodHS256, []byte(testSecret), tt.claims)

			identity, err := v.VerifyAt(token, testNow)
			if err != nil {
				t.Fatalf("VerifyAt: %v", err)
			}
			if identity.Subject != tt.want {
				t.Errorf("Subject = %q, want %q", identity.Subject, tt.want)
			}
		})
	}
}

func TestVerifyMissingSubject(t *testing.T) {
	v := testVerifier(t)
	token := sign(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.MapClaims{
		"email": "nobody@example.com",
		"exp":   testNow.Add(time.Hour).Unix(),
	})

	_, err := v.VerifyAt(token, testNow)
	tokenErr := requireKind(t, err, ErrTokenInvalid)
	if !strings.Contains(tokenErr.Reason, "No user ID found in token") {
		t.Errorf("Reason = %q, want mention of missing user ID", tokenErr.Reason)
	}
}

func TestVerifyWrongSecret(t *testing.T) {
	v := testVerifier(t)
	token := sign(t, jwt.SigningMethodHS256, []byte("another-secret-key-that-is-also-32-chars"), validClaims())

	_, err := v.VerifyAt(token, testNow)
	tokenErr := requireKind(t, err, ErrTokenInvalid)
	if tokenErr.Reason != "Invalid token signature" {
		t.Errorf("Reason = %q, want Invalid token signature", tokenErr.Reason)
	}
}

func TestVerifyExpired(t *testing.T) {
	v := testVerifier(t)
	claims := validClaims()
	claims["exp"] = testNow.Add(-time.Second).Unix()

	t.Run("valid signature", func(t *testing.T) {
		token := sign(t, jwt.SigningMethodHS256, []byte(testSecret), claims)
		_, err := v.VerifyAt(token, testNow)
		tokenErr := requireKind(t, err, ErrTokenExpired)
		if tokenErr.Reason != "Token has expired" {
			t.Errorf("Reason = %q, want Token has expired", tokenErr.Reason)
		}
	})

	t.Run("wrong signature", func(t *testing.T) {
		token := sign(t, jwt.SigningMethodHS256, []byte("another-secret-key-that-is-also-32-chars"), claims)
		_, err := v.VerifyAt(token, testNow)
		requireKind(t, err, ErrTokenExpired)
	})

	t.Run("expiry equal to now", func(t *testing.T) {
		claims := validClaims()
		claims["exp"] = testNow.Unix()
		token := sign(t, jwt.SigningMethodHS256, []byte(testSecret), claims)
		_, err := v.VerifyAt(token, testNow)
		requireKind(t, err, ErrTokenExpired)
	})
}

func TestVerifyMissingExpiry(t *testing.T) {
	v := testVerifier(t)
	token := sign(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.MapClaims{"sub": "user_1"})

	_, err := v.VerifyAt(token, testNow)
	requireKind(t, err, ErrTokenInvalid)
}

func TestVerifyMalformed(t *testing.T) {
	v := testVerifier(t)
	for _, token := range []string{"", "not-a-token", "a.b.c", "Bearer ", "eyJhbGciOiJIUzI1NiJ9.eyJzdWIiOiJ4In0"} {
		_, err := v.VerifyAt(token, testNow)
		requireKind(t, err, ErrTokenInvalid)
	}
}

func TestVerifyRejectsOtherAlgorithms(t *testing.T) {
	v := testVerifier(t)

	t.Run("HS512", func(t *testing.T) {
		token := sign(t, jwt.SigningMethodHS512, []byte(testSecret), validClaims())
		_, err := v.VerifyAt(token, testNow)
		requireKind(t, err, ErrTokenInvalid)
	})

	t.Run("none", func(t *testing.T) {
		token := sign(t, jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType, validClaims())
		_, err := v.VerifyAt(token, testNow)
		requireKind(t, err, ErrTokenInvalid)
	})
}

func TestNewVerifier(t *testing.T) {
	if _, err := NewVerifier("too-short", "HS256"); err == nil {
		t.Error("NewVerifier accepted a short secret")
	}
	if _, err := NewVerifier(testSecret, "RS256"); err == nil {
		t.Error("NewVerifier accepted an asymmetric algorithm")
	}
	if _, err := NewVerifier(testSecret, "nope"); err == nil {
		t.Error("NewVerifier accepted an unknown algorithm")
	}
	v, err := NewVerifier(testSecret, "HS384")
	if err != nil {
		t.Fatalf("NewVerifier(HS384): %v", err)
	}
	if v.Algorithm() != "HS384" {
		t.Errorf("Algorithm = %q, want HS384", v.Algorithm())
	}
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
		ok     bool
	}{
		{"Bearer abc.def.ghi", "abc.def.ghi", true},
		{"bearer abc", "abc", true},
		{"", "", false},
		{"Basic dXNlcjpwYXNz", "", false},
		{"Bearer", "", false},
		{"Bearer   ", "", false},
	}
	for _, tt := range tests {
		got, err := BearerToken(tt.header)
		if tt.ok {
			if err != nil || got != tt.want {
				t.Errorf("BearerToken(%q) = %q, %v; want %q", tt.header, got, err, tt.want)
			}
			continue
		}
		if !errors.Is(err, ErrTokenInvalid) {
			t.Errorf("BearerToken(%q) error = %v, want ErrTokenInvalid", tt.header, err)
		}
	}
}
