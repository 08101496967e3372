package auth

import "context"

// Identity is the authenticated caller resolved by the session middleware.
// It carries only public profile fields, never credentials.
type Identity struct {
	ID       string
	UserName string
	Email    string
	FullName string
}

// ctxKey is an unexported type for context keys defined in this package.
type ctxKey string

const identityKey ctxKey = "identity"

// WithIdentity stores the authenticated identity on the context.
func WithIdentity(ctx context.Context, identity Identity) context.Context {
	if ctx == nil {
		return ctx
	}
	return context.WithValue(ctx, identityKey, identity)
}

// IdentityFromContext retrieves the identity attached by the session
// middleware. The second return value is false when the request was not
// authenticated.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	if ctx == nil {
		return Identity{}, false
	}
	identity, ok := ctx.Value(identityKey).(Identity)
	return identity, ok
}
