package apikeys

import (
	"time"

	"github.com/lumen-media/lumen-server/users"
)

// Permission identifies an operation an API key may perform. PermissionAll is
// the wildcard and grants everything.
type Permission string

const (
	PermissionAll Permission = "all"

	PermissionAdminUserCreate Permission = "admin.user.create"
	PermissionAdminUserRead   Permission = "admin.user.read"
	PermissionAdminUserUpdate Permission = "admin.user.update"
	PermissionAdminUserDelete Permission = "admin.user.delete"
)

var knownPermissions = map[Permission]struct{}{
	PermissionAll:             {},
	PermissionAdminUserCreate: {},
	PermissionAdminUserRead:   {},
	PermissionAdminUserUpdate: {},
	PermissionAdminUserDelete: {},
}

func (p Permission) Valid() bool {
	_, ok := knownPermissions[p]
	return ok
}

// APIKey is a programmatic credential scoped to a permission set.
// KeyFingerprint holds the one-way digest of the secret shown to the user at
// creation time; the secret itself is never stored.
type APIKey struct {
	ID             string       `json:"id"`
	Name           string       `json:"name"`
	KeyFingerprint string       `json:"-"`
	UserID         string       `json:"userId"`
	Permissions    []Permission `json:"permissions"`
	CreatedAt      time.Time    `json:"createdAt"`
	UpdatedAt      time.Time    `json:"updatedAt"`
}

// KeyWithUser is the join returned by fingerprint lookups.
type KeyWithUser struct {
	APIKey
	User users.User
}
