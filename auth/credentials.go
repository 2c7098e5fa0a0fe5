package auth

import (
	"net/http"
	"net/url"
	"strings"
)

// Header, query parameter, and cookie names recognized by the credential
// resolver.
const (
	HeaderUserToken    = "x-user-token"
	HeaderSessionToken = "x-session-token"
	HeaderAPIKey       = "x-api-key"

	QuerySessionKey = "sessionKey"
	QueryAPIKey     = "apiKey"

	CookieAccessToken     = "access_token"
	CookieAuthType        = "auth_type"
	CookieIsAuthenticated = "is_authenticated"
)

// CredentialSource tags where a raw token was found in the request.
type CredentialSource string

const (
	SourceUserTokenHeader    CredentialSource = "user-token-header"
	SourceSessionTokenHeader CredentialSource = "session-token-header"
	SourceSessionKeyQuery    CredentialSource = "session-key-query"
	SourceBearerHeader       CredentialSource = "bearer-header"
	SourceAccessTokenCookie  CredentialSource = "access-token-cookie"
)

// RawCredential is an opaque token plus the source it was extracted from. It
// is ephemeral and scoped to a single request.
type RawCredential struct {
	Token  string
	Source CredentialSource
}

// ResolveCredential extracts exactly one credential from the request. The
// precedence below is fixed and security relevant: a request carrying several
// credential sources always resolves to the highest-precedence one, so a
// caller can never have a weaker credential silently accepted over a stronger
// one. There is no fallback once a source matches.
//
//  1. x-user-token header
//  2. x-session-token header
//  3. sessionKey query parameter
//  4. Authorization: Bearer header (any other scheme is treated as absent)
//  5. access_token cookie
func ResolveCredential(headers http.Header, query url.Values) (RawCredential, error) {
	if token := headers.Get(HeaderUserToken); token != "" {
		return RawCredential{Token: token, Source: SourceUserTokenHeader}, nil
	}
	if token := headers.Get(HeaderSessionToken); token != "" {
		return RawCredential{Token: token, Source: SourceSessionTokenHeader}, nil
	}
	if token := query.Get(QuerySessionKey); token != "" {
		return RawCredential{Token: token, Source: SourceSessionKeyQuery}, nil
	}
	if token := bearerToken(headers); token != "" {
		return RawCredential{Token: token, Source: SourceBearerHeader}, nil
	}
	if token := cookieToken(headers); token != "" {
		return RawCredential{Token: token, Source: SourceAccessTokenCookie}, nil
	}
	return RawCredential{}, NoCredentialErr
}

// resolveAPIKey extracts an API key credential, header before query parameter.
// API keys are a sibling path to session credentials and never mix with them.
func resolveAPIKey(headers http.Header, query url.Values) (string, bool) {
	if key := headers.Get(HeaderAPIKey); key != "" {
		return key, true
	}
	if key := query.Get(QueryAPIKey); key != "" {
		return key, true
	}
	return "", false
}

func bearerToken(headers http.Header) string {
	parts := strings.SplitN(headers.Get("Authorization"), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}

func cookieToken(headers http.Header) string {
	r := http.Request{Header: headers}
	cookie, err := r.Cookie(CookieAccessToken)
	if err != nil {
		return ""
	}
	return cookie.Value
}
