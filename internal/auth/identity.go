package auth

import (
	"context"
	"slices"
)

const (
	RoleModerator = "moderator"
	RoleAdmin     = "admin"
)

// ElevatedRoles may delete files they do not own.
var ElevatedRoles = []string{RoleModerator, RoleAdmin}

// Identity is the authenticated caller.
type Identity struct {
	UserID string
	Email  string
	Roles  []string
}

func (i Identity) HasAnyRole(roles ...string) bool {
	for _, r := range roles {
		if slices.Contains(i.Roles, r) {
			return true
		}
	}
	return false
}

// CanDelete reports whether userID holding roles may delete a file owned by
// ownerID.
func CanDelete(userID, ownerID string, roles []string) bool {
	if userID != "" && userID == ownerID {
		return true
	}
	return Identity{Roles: roles}.HasAnyRole(ElevatedRoles...)
}

type identityKey struct{}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// FromContext returns the identity stored by WithIdentity.
func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}
