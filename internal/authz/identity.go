package authz

import "context"

// Identity is the authenticated actor derived from a verified credential.
// It lives for a single request and is never persisted. The role is the
// claim at token issuance time; it is trusted for the token's lifetime.
type Identity struct {
	UserID    int64
	Role      Role
	CompanyID int64
}

type identityContextKey struct{}

// ContextWithIdentity stores the identity in context.
func ContextWithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityContextKey{}, id)
}

// IdentityFromContext extracts the identity from context.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityContextKey{}).(Identity)
	return id, ok
}
