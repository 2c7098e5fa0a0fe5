package auth_test

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/lumen-media/lumen-server/auth"
	"github.com/stretchr/testify/require"
)

func headersWith(pairs map[string]string) http.Header {
	headers := http.Header{}
	for k, v := range pairs {
		headers.Set(k, v)
	}
	return headers
}

func TestResolveCredentialPrecedence(t *testing.T) {
	tests := []struct {
		name       string
		headers    map[string]string
		query      url.Values
		wantToken  string
		wantSource auth.CredentialSource
	}{
		{
			name:       "user token header",
			headers:    map[string]string{auth.HeaderUserToken: "tok-user"},
			wantToken:  "tok-user",
			wantSource: auth.SourceUserTokenHeader,
		},
		{
			name:       "session token header",
			headers:    map[string]string{auth.HeaderSessionToken: "tok-session"},
			wantToken:  "tok-session",
			wantSource: auth.SourceSessionTokenHeader,
		},
		{
			name:       "session key query",
			query:      url.Values{auth.QuerySessionKey: []string{"tok-query"}},
			wantToken:  "tok-query",
			wantSource: auth.SourceSessionKeyQuery,
		},
		{
			name:       "bearer header",
			headers:    map[string]string{"Authorization": "Bearer tok-bearer"},
			wantToken:  "tok-bearer",
			wantSource: auth.SourceBearerHeader,
		},
		{
			name:       "bearer scheme is case insensitive",
			headers:    map[string]string{"Authorization": "bEaReR tok-bearer"},
			wantToken:  "tok-bearer",
			wantSource: auth.SourceBearerHeader,
		},
		{
			name:       "cookie",
			headers:    map[string]string{"Cookie": auth.CookieAccessToken + "=tok-cookie"},
			wantToken:  "tok-cookie",
			wantSource: auth.SourceAccessTokenCookie,
		},
		{
			name: "user token header beats cookie",
			headers: map[string]string{
				auth.HeaderUserToken: "tok-user",
				"Cookie":             auth.CookieAccessToken + "=tok-cookie",
			},
			wantToken:  "tok-user",
			wantSource: auth.SourceUserTokenHeader,
		},
		{
			name: "user token header beats session token header",
			headers: map[string]string{
				auth.HeaderUserToken:    "tok-user",
				auth.HeaderSessionToken: "tok-session",
			},
			wantToken:  "tok-user",
			wantSource: auth.SourceUserTokenHeader,
		},
		{
			name:       "session key query beats bearer",
			headers:    map[string]string{"Authorization": "Bearer tok-bearer"},
			query:      url.Values{auth.QuerySessionKey: []string{"tok-query"}},
			wantToken:  "tok-query",
			wantSource: auth.SourceSessionKeyQuery,
		},
		{
			name: "bearer beats cookie",
			headers: map[string]string{
				"Authorization": "Bearer tok-bearer",
				"Cookie":        auth.CookieAccessToken + "=tok-cookie",
			},
			wantToken:  "tok-bearer",
			wantSource: auth.SourceBearerHeader,
		},
		{
			name: "every source at once resolves to the user token header",
			headers: map[string]string{
				auth.HeaderUserToken:    "tok-user",
				auth.HeaderSessionToken: "tok-session",
				"Authorization":         "Bearer tok-bearer",
				"Cookie":                auth.CookieAccessToken + "=tok-cookie",
			},
			query:      url.Values{auth.QuerySessionKey: []string{"tok-query"}},
			wantToken:  "tok-user",
			wantSource: auth.SourceUserTokenHeader,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			query := tc.query
			if query == nil {
				query = url.Values{}
			}
			credential, err := auth.ResolveCredential(headersWith(tc.headers), query)
			require.NoError(t, err)
			require.Equal(t, tc.wantToken, credential.Token)
			require.Equal(t, tc.wantSource, credential.Source)
		})
	}
}

func TestResolveCredentialAbsent(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
	}{
		{name: "no credential at all"},
		{
			name:    "basic authorization scheme is treated as absent",
			headers: map[string]string{"Authorization": "Basic dXNlcjpwYXNz"},
		},
		{
			name:    "authorization header without a token",
			headers: map[string]string{"Authorization": "Bearer"},
		},
		{
			name:    "unrelated cookie",
			headers: map[string]string{"Cookie": "theme=dark"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := auth.ResolveCredential(headersWith(tc.headers), url.Values{})
			require.ErrorIs(t, err, auth.NoCredentialErr)
			require.ErrorIs(t, err, auth.AuthenticationRequiredErr)
		})
	}
}

func TestResolveCredentialDoesNotFallBack(t *testing.T) {
	// An unusable high-precedence credential must not fall through to a
	// lower-precedence one: the bearer token wins even though only the cookie
	// would resolve to a live session.
	headers := headersWith(map[string]string{
		"Authorization": "Bearer tok-dead",
		"Cookie":        auth.CookieAccessToken + "=tok-live",
	})

	credential, err := auth.ResolveCredential(headers, url.Values{})
	require.NoError(t, err)
	require.Equal(t, "tok-dead", credential.Token)
	require.Equal(t, auth.SourceBearerHeader, credential.Source)
}
