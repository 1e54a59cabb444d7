package auth

import "context"

// Roles recognised by the API.
const (
	RolePassenger = "passenger"
	RoleAdmin     = "admin"
)

// Identity is the authenticated caller of a request.
type Identity struct {
	UserID string
	Email  string
	Role   string
}

func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}

// HasRole reports whether the caller holds any of roles.
func (i Identity) HasRole(roles ...string) bool {
	for _, role := range roles {
		if i.Role == role {
			return true
		}
	}
	return false
}

// IdentityFromClaims maps verified token claims to an Identity. A token
// without a role is a passenger token.
func IdentityFromClaims(c *Claims) Identity {
	role := c.Role
	if role == "" {
		role = RolePassenger
	}
	return Identity{UserID: c.UserID, Email: c.Email, Role: role}
}

type identityKey struct{}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFrom returns the identity stored by the auth middleware.
func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}
