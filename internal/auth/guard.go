package auth

import "context"

// Authorize returns the identity unchanged when its subject owns the
// resource, and ErrForbidden otherwise. The comparison is exact.
func Authorize(ownerID string, identity Identity) (Identity, error) {
	if identity.Subject != ownerID {
		return Identity{}, ErrForbidden
	}
	return identity, nil
}

// RequireOwner binds the owner up front, for callers that learn the owner
// before they have an identity to check.
func RequireOwner(ownerID string) func(Identity) (Identity, error) {
	return func(identity Identity) (Identity, error) {
		return Authorize(ownerID, identity)
	}
}

type identityKey struct{}

// NewContext returns a copy of ctx carrying identity.
func NewContext(ctx context.Context, identity Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, identity)
}

// FromContext returns the identity stored by NewContext.
func FromContext(ctx context.Context) (Identity, bool) {
	identity, ok := ctx.Value(identityKey{}).(Identity)
	return identity, ok
}
