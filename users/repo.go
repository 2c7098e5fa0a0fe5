package users

import (
	"context"
	"errors"
)

var UserNotFoundErr = errors.New("user not found")

// Repo is the storage boundary for user accounts. Lookups exclude soft-deleted
// users; Delete performs the soft delete.
type Repo interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)

	// GetAdmin returns the admin user, or (nil, nil) when the server has no
	// admin yet.
	GetAdmin(ctx context.Context) (*User, error)

	List(ctx context.Context) ([]*User, error)
	Update(ctx context.Context, user *User) error
	Delete(ctx context.Context, id string) error
}
