package auth_test

import (
	"strings"
	"testing"

	"github.com/lumen-media/lumen-server/auth"
	"github.com/stretchr/testify/require"
)

func TestTokenFingerprint(t *testing.T) {
	fingerprint := auth.TokenFingerprint("some-session-token")

	require.Equal(t, fingerprint, auth.TokenFingerprint("some-session-token"), "fingerprint must be deterministic")
	require.NotEqual(t, fingerprint, auth.TokenFingerprint("some-session-token2"))
	require.NotContains(t, fingerprint, "some-session-token", "fingerprint must not embed the raw token")

	// sha256 digest, base64 std encoded
	require.Len(t, fingerprint, 44)
	require.True(t, strings.HasSuffix(fingerprint, "="))
}

func TestNewSessionToken(t *testing.T) {
	seen := map[string]struct{}{}
	for range 64 {
		token, err := auth.NewSessionToken()
		require.NoError(t, err)
		require.Len(t, token, 43) // 32 bytes, base64url without padding

		_, dup := seen[token]
		require.False(t, dup, "tokens must not repeat")
		seen[token] = struct{}{}
	}
}
