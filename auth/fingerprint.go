package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"

	"github.com/pkg/errors"
)

const sessionTokenLength = 32

// TokenFingerprint returns the deterministic one-way digest used as the store
// lookup key for a token. Only fingerprints are ever stored or compared, so a
// store compromise does not expose usable tokens. There is deliberately no
// salt: the digest must be reproducible from the token alone so the store can
// be queried by equality. Password hashing is a separate concern and uses
// bcrypt in the users package.
func TokenFingerprint(token string) string {
	digest := sha256.Sum256([]byte(token))
	return base64.StdEncoding.EncodeToString(digest[:])
}

// NewSessionToken generates the opaque token handed to a client at login or
// API key creation. The caller stores TokenFingerprint(token), never the token
// itself.
func NewSessionToken() (string, error) {
	b := make([]byte, sessionTokenLength)
	if _, err := rand.Read(b); err != nil {
		return "", errors.Wrap(err, "[NewSessionToken] rand.Read")
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
