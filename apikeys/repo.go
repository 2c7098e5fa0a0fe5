package apikeys

import (
	"context"
	"errors"
)

var KeyNotFoundErr = errors.New("api key not found")

// Repo is the storage boundary for API keys.
type Repo interface {
	Create(ctx context.Context, key *APIKey) error

	// GetByKeyFingerprint looks a key up by the digest of its secret and
	// returns it together with the owning user. Keys of soft-deleted users do
	// not match.
	GetByKeyFingerprint(ctx context.Context, fingerprint string) (*KeyWithUser, error)

	ListByUser(ctx context.Context, userID string) ([]*APIKey, error)
	Delete(ctx context.Context, id string) error
}
