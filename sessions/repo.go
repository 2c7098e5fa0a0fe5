package sessions

import (
	"context"
	"errors"
)

var SessionNotFoundErr = errors.New("session not found")

// Repo is the storage boundary for login sessions.
type Repo interface {
	Create(ctx context.Context, session *Session) error

	// GetByTokenFingerprint looks a session up by the digest of its token and
	// returns it together with the owning user. Sessions of soft-deleted users
	// do not match.
	GetByTokenFingerprint(ctx context.Context, fingerprint string) (*SessionWithUser, error)

	// Update applies a partial update to a session.
	Update(ctx context.Context, id string, update Update) error

	Delete(ctx context.Context, id string) error
	ListByUser(ctx context.Context, userID string) ([]*Session, error)

	// DeleteByUser removes all of a user's sessions except the one identified
	// by exceptID. An empty exceptID removes them all.
	DeleteByUser(ctx context.Context, userID string, exceptID string) error
}
