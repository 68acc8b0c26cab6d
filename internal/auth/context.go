// Package auth carries the authenticated identity through request contexts.
package auth

import (
	"context"

	"github.com/bloodlink/bloodlink/internal/model"
)

// Identity is the resolved account behind a verified bearer token.
type Identity struct {
	Email  string `json:"email"`
	Role   string `json:"role"`
	Status string `json:"status"`
}

// IsAdmin returns true if the caller has the admin role.
func (id *Identity) IsAdmin() bool {
	return id.Role == model.RoleAdmin
}

// IsBlocked returns true if the caller's account has been blocked.
func (id *Identity) IsBlocked() bool {
	return id.Status == model.UserStatusBlocked
}

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

// identityKey is the context key for storing the Identity.
const identityKey contextKey = "identity"

// ContextWithIdentity adds an Identity to the context.
func ContextWithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFromContext retrieves the Identity from the context.
// Returns nil if not present.
func IdentityFromContext(ctx context.Context) *Identity {
	id, ok := ctx.Value(identityKey).(*Identity)
	if !ok {
		return nil
	}
	return id
}

// EmailFromContext is a convenience function to get the caller's email.
// Returns empty string if not authenticated.
func EmailFromContext(ctx context.Context) string {
	id := IdentityFromContext(ctx)
	if id == nil {
		return ""
	}
	return id.Email
}
