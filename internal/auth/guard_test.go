package auth

import (
	"context"
	"errors"
	"testing"
)

func TestAuthorize(t *testing.T) {
	tests := []struct {
		owner   string
		subject string
		allowed bool
	}{
		{"user_1", "user_1", true},
		{"user_1", "user_2", false},
		{"User_1", "user_1", false},
		{"user_1 ", "user_1", false},
		{"", "user_1", false},
	}
	for _, tt := range tests {
		identity := Identity{Subject: tt.subject, Email: "a@example.com"}
		got, err := Authorize(tt.owner, identity)
		if tt.allowed {
			if err != nil {
				t.Errorf("Authorize(%q, %q) = %v, want nil", tt.owner, tt.subject, err)
			}
			if got != identity {
				t.Errorf("Authorize(%q, %q) returned %+v, want %+v", tt.owner, tt.subject, got, identity)
			}
			continue
		}
		if !errors.Is(err, ErrForbidden) {
			t.Errorf("Authorize(%q, %q) error = %v, want ErrForbidden", tt.owner, tt.subject, err)
		}
	}
}

func TestRequireOwner(t *testing.T) {
	check := RequireOwner("user_1")

	if _, err := check(Identity{Subject: "user_1"}); err != nil {
		t.Errorf("owner rejected: %v", err)
	}
	if _, err := check(Identity{Subject: "user_2"}); !errors.Is(err, ErrForbidden) {
		t.Errorf("non-owner error = %v, want ErrForbidden", err)
	}
}

func TestIdentityContext(t *testing.T) {
	if _, ok := FromContext(context.Background()); ok {
		t.Fatal("FromContext found an identity in an empty context")
	}

	ctx := NewContext(context.Background(), Identity{Subject: "user_1"})
	identity, ok := FromContext(ctx)
	if !ok {
		t.Fatal("FromContext found nothing")
	}
	if identity.Subject != "user_1" {
		t.Errorf("Subject = %q, want user_1", identity.Subject)
	}
}
