package sessions

import (
	"time"

	"github.com/lumen-media/lumen-server/users"
)

// Session is a login session record. TokenFingerprint holds the one-way digest
// of the token handed to the client at login; the plaintext token is never
// stored. ParentID links refreshed sessions to the session they were derived
// from and is read-only to the authentication engine.
type Session struct {
	ID               string     `json:"id"`
	TokenFingerprint string     `json:"-"`
	UserID           string     `json:"userId"`
	ParentID         *string    `json:"parentId,omitempty"`
	DeviceType       string     `json:"deviceType"`
	DeviceOS         string     `json:"deviceOS"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`

	// PinExpiresAt marks the end of an elevated-privilege window. A nil value
	// means the session was never elevated.
	PinExpiresAt *time.Time `json:"-"`

	// ExpiresAt is an optional hard expiry; sessions without one live until
	// deleted.
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}

// SessionWithUser is the join returned by fingerprint lookups, carrying the
// owning user alongside the session record.
type SessionWithUser struct {
	Session
	User users.User
}

// Update is a partial session update. Nil fields are left untouched. The
// authentication engine issues only the two bookkeeping writes below; both
// move timestamps forward, so a lost update under concurrent requests is
// harmless.
type Update struct {
	UpdatedAt    *time.Time
	PinExpiresAt *time.Time
}
