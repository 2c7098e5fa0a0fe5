package auth_test

import (
	"context"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/lumen-media/lumen-server/apikeys"
	apikeyrepofake "github.com/lumen-media/lumen-server/apikeys/repofake"
	"github.com/lumen-media/lumen-server/auth"
	"github.com/lumen-media/lumen-server/sessions"
	sessionrepofakes "github.com/lumen-media/lumen-server/sessions/repofakes"
	"github.com/lumen-media/lumen-server/users"
	userrepofake "github.com/lumen-media/lumen-server/users/repofake"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

const (
	testUserID    = "user-1"
	testAdminID   = "admin-1"
	testSessionID = "session-1"
	testToken     = "raw-session-token"
)

// testFixture holds all test dependencies
type testFixture struct {
	userRepo    *userrepofake.FakeUserRepo
	sessionRepo *sessionrepofakes.FakeSessionRepo
	apiKeyRepo  *apikeyrepofake.FakeAPIKeyRepo
	service     *auth.Service
	now         time.Time
}

func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()

	ur := userrepofake.NewFakeUserRepo()
	sr := sessionrepofakes.NewFakeSessionRepo()
	kr := apikeyrepofake.NewFakeAPIKeyRepo()
	sr.ResolveOwnersWith(ur)
	kr.ResolveOwnersWith(ur)

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	service, err := auth.NewService(
		auth.Repos{Users: ur, Sessions: sr, APIKeys: kr},
		auth.WithNowTime(func() time.Time { return now }),
	)
	require.NoError(t, err)

	return &testFixture{
		userRepo:    ur,
		sessionRepo: sr,
		apiKeyRepo:  kr,
		service:     service,
		now:         now,
	}
}

func (f *testFixture) seedSession(t *testing.T, session sessions.Session, owner users.User) {
	t.Helper()
	if session.TokenFingerprint == "" {
		session.TokenFingerprint = auth.TokenFingerprint(testToken)
	}
	f.sessionRepo.Seed(session, owner)
}

func regularUser() users.User {
	return users.User{ID: testUserID, Email: "user@example.com", Name: "User"}
}

func adminUser() users.User {
	return users.User{ID: testAdminID, Email: "admin@example.com", Name: "Admin", IsAdmin: true}
}

func TestNewServiceRequiresRepos(t *testing.T) {
	_, err := auth.NewService(auth.Repos{})
	require.Error(t, err)
}

func TestAuthenticateUnknownToken(t *testing.T) {
	f := setupTestFixture(t)

	_, err := f.service.Authenticate(context.Background(), "no-such-token", f.now)
	require.ErrorIs(t, err, auth.InvalidCredentialErr)
	require.ErrorIs(t, err, auth.AuthenticationRequiredErr)
}

func TestAuthenticateExpiredSession(t *testing.T) {
	f := setupTestFixture(t)

	expired := f.now.Add(-time.Second)
	f.seedSession(t, sessions.Session{
		ID:        testSessionID,
		UserID:    testUserID,
		UpdatedAt: f.now,
		ExpiresAt: &expired,
	}, regularUser())

	_, err := f.service.Authenticate(context.Background(), testToken, f.now)
	require.ErrorIs(t, err, auth.InvalidCredentialErr)
}

func TestAuthenticateStalenessRefresh(t *testing.T) {
	t.Run("two hour old session is bumped exactly once", func(t *testing.T) {
		f := setupTestFixture(t)
		f.seedSession(t, sessions.Session{
			ID:        testSessionID,
			UserID:    testUserID,
			UpdatedAt: f.now.Add(-2 * time.Hour),
		}, regularUser())

		authCtx, err := f.service.Authenticate(context.Background(), testToken, f.now)
		require.NoError(t, err)
		require.Equal(t, testUserID, authCtx.User.ID)

		require.Equal(t, 1, f.sessionRepo.UpdateCallCount())
		id, update := f.sessionRepo.UpdateArgsForCall(0)
		require.Equal(t, testSessionID, id)
		require.NotNil(t, update.UpdatedAt)
		require.Equal(t, f.now, *update.UpdatedAt)
		require.Nil(t, update.PinExpiresAt)
	})

	t.Run("ten minute old session is left alone", func(t *testing.T) {
		f := setupTestFixture(t)
		f.seedSession(t, sessions.Session{
			ID:        testSessionID,
			UserID:    testUserID,
			UpdatedAt: f.now.Add(-10 * time.Minute),
		}, regularUser())

		_, err := f.service.Authenticate(context.Background(), testToken, f.now)
		require.NoError(t, err)
		require.Equal(t, 0, f.sessionRepo.UpdateCallCount())
	})

	t.Run("failed bump does not fail authentication", func(t *testing.T) {
		f := setupTestFixture(t)
		f.seedSession(t, sessions.Session{
			ID:        testSessionID,
			UserID:    testUserID,
			UpdatedAt: f.now.Add(-2 * time.Hour),
		}, regularUser())
		f.sessionRepo.UpdateReturns(errors.New("store unavailable"))

		authCtx, err := f.service.Authenticate(context.Background(), testToken, f.now)
		require.NoError(t, err)
		require.Equal(t, testUserID, authCtx.User.ID)
	})
}

func TestAuthenticateElevationWindow(t *testing.T) {
	t.Run("window lapsing within grace period is extended to now plus five minutes", func(t *testing.T) {
		f := setupTestFixture(t)
		pin := f.now.Add(3 * time.Minute)
		f.seedSession(t, sessions.Session{
			ID:           testSessionID,
			UserID:       testUserID,
			UpdatedAt:    f.now,
			PinExpiresAt: &pin,
		}, regularUser())

		authCtx, err := f.service.Authenticate(context.Background(), testToken, f.now)
		require.NoError(t, err)
		require.NotNil(t, authCtx.Session)
		require.True(t, authCtx.Session.HasElevatedPermission)

		require.Equal(t, 1, f.sessionRepo.UpdateCallCount())
		id, update := f.sessionRepo.UpdateArgsForCall(0)
		require.Equal(t, testSessionID, id)
		require.Nil(t, update.UpdatedAt)
		require.NotNil(t, update.PinExpiresAt)
		require.Equal(t, f.now.Add(5*time.Minute), *update.PinExpiresAt)
	})

	t.Run("window exactly at the grace bound is not extended", func(t *testing.T) {
		f := setupTestFixture(t)
		pin := f.now.Add(5 * time.Minute)
		f.seedSession(t, sessions.Session{
			ID:           testSessionID,
			UserID:       testUserID,
			UpdatedAt:    f.now,
			PinExpiresAt: &pin,
		}, regularUser())

		authCtx, err := f.service.Authenticate(context.Background(), testToken, f.now)
		require.NoError(t, err)
		require.True(t, authCtx.Session.HasElevatedPermission)
		require.Equal(t, 0, f.sessionRepo.UpdateCallCount())
	})

	t.Run("window further out than the grace period is not extended", func(t *testing.T) {
		f := setupTestFixture(t)
		pin := f.now.Add(10 * time.Minute)
		f.seedSession(t, sessions.Session{
			ID:           testSessionID,
			UserID:       testUserID,
			UpdatedAt:    f.now,
			PinExpiresAt: &pin,
		}, regularUser())

		authCtx, err := f.service.Authenticate(context.Background(), testToken, f.now)
		require.NoError(t, err)
		require.True(t, authCtx.Session.HasElevatedPermission)
		require.Equal(t, 0, f.sessionRepo.UpdateCallCount())
	})

	t.Run("lapsed window is not elevated and never extended", func(t *testing.T) {
		f := setupTestFixture(t)
		pin := f.now.Add(-time.Second)
		f.seedSession(t, sessions.Session{
			ID:           testSessionID,
			UserID:       testUserID,
			UpdatedAt:    f.now,
			PinExpiresAt: &pin,
		}, regularUser())

		authCtx, err := f.service.Authenticate(context.Background(), testToken, f.now)
		require.NoError(t, err)
		require.False(t, authCtx.Session.HasElevatedPermission)
		require.Equal(t, 0, f.sessionRepo.UpdateCallCount())
	})

	t.Run("session without a window is not elevated", func(t *testing.T) {
		f := setupTestFixture(t)
		f.seedSession(t, sessions.Session{
			ID:        testSessionID,
			UserID:    testUserID,
			UpdatedAt: f.now,
		}, regularUser())

		authCtx, err := f.service.Authenticate(context.Background(), testToken, f.now)
		require.NoError(t, err)
		require.False(t, authCtx.Session.HasElevatedPermission)
	})
}

func TestAuthorizePublicRoute(t *testing.T) {
	f := setupTestFixture(t)

	headers := http.Header{}
	headers.Set(auth.HeaderUserToken, testToken)

	authCtx, err := f.service.Authorize(context.Background(), headers, url.Values{}, nil)
	require.NoError(t, err)
	require.Nil(t, authCtx)
	require.Equal(t, 0, f.sessionRepo.GetByTokenFingerprintCallCount(), "public routes must never touch the session store")
}

func TestAuthorizeSessionCredential(t *testing.T) {
	f := setupTestFixture(t)
	f.seedSession(t, sessions.Session{
		ID:        testSessionID,
		UserID:    testUserID,
		UpdatedAt: f.now,
	}, regularUser())

	headers := http.Header{}
	headers.Set(auth.HeaderUserToken, testToken)

	authCtx, err := f.service.Authorize(context.Background(), headers, url.Values{}, &auth.RouteRequirement{})
	require.NoError(t, err)
	require.Equal(t, testUserID, authCtx.User.ID)
	require.NotNil(t, authCtx.Session)
	require.Nil(t, authCtx.APIKey)
}

func TestAuthorizeMissingCredential(t *testing.T) {
	f := setupTestFixture(t)

	_, err := f.service.Authorize(context.Background(), http.Header{}, url.Values{}, &auth.RouteRequirement{})
	require.ErrorIs(t, err, auth.AuthenticationRequiredErr)
}

func TestAuthorizeAdminRoute(t *testing.T) {
	t.Run("non-admin is forbidden even without a permission requirement", func(t *testing.T) {
		f := setupTestFixture(t)
		f.seedSession(t, sessions.Session{
			ID:        testSessionID,
			UserID:    testUserID,
			UpdatedAt: f.now,
		}, regularUser())

		headers := http.Header{}
		headers.Set(auth.HeaderUserToken, testToken)

		_, err := f.service.Authorize(context.Background(), headers, url.Values{}, &auth.RouteRequirement{AdminRequired: true})
		require.ErrorIs(t, err, auth.ForbiddenErr)
		require.NotErrorIs(t, err, auth.AuthenticationRequiredErr)
	})

	t.Run("admin passes", func(t *testing.T) {
		f := setupTestFixture(t)
		f.seedSession(t, sessions.Session{
			ID:        testSessionID,
			UserID:    testAdminID,
			UpdatedAt: f.now,
		}, adminUser())

		headers := http.Header{}
		headers.Set(auth.HeaderUserToken, testToken)

		authCtx, err := f.service.Authorize(context.Background(), headers, url.Values{}, &auth.RouteRequirement{AdminRequired: true})
		require.NoError(t, err)
		require.True(t, authCtx.User.IsAdmin)
	})
}

func TestAuthorizeAPIKey(t *testing.T) {
	permission := func(p apikeys.Permission) *apikeys.Permission { return &p }

	seedKey := func(f *testFixture, granted ...apikeys.Permission) string {
		secret := "raw-api-key"
		f.apiKeyRepo.Seed(apikeys.APIKey{
			ID:             "key-1",
			Name:           "ci",
			KeyFingerprint: auth.TokenFingerprint(secret),
			UserID:         testAdminID,
			Permissions:    granted,
		}, adminUser())
		return secret
	}

	t.Run("key with the required permission is allowed", func(t *testing.T) {
		f := setupTestFixture(t)
		secret := seedKey(f, apikeys.PermissionAdminUserRead)

		headers := http.Header{}
		headers.Set(auth.HeaderAPIKey, secret)

		authCtx, err := f.service.Authorize(context.Background(), headers, url.Values{}, &auth.RouteRequirement{
			Permission: permission(apikeys.PermissionAdminUserRead),
		})
		require.NoError(t, err)
		require.NotNil(t, authCtx.APIKey)
		require.Nil(t, authCtx.Session)
	})

	t.Run("wildcard key is allowed everywhere", func(t *testing.T) {
		f := setupTestFixture(t)
		secret := seedKey(f, apikeys.PermissionAll)

		headers := http.Header{}
		headers.Set(auth.HeaderAPIKey, secret)

		_, err := f.service.Authorize(context.Background(), headers, url.Values{}, &auth.RouteRequirement{
			Permission: permission(apikeys.PermissionAdminUserDelete),
		})
		require.NoError(t, err)
	})

	t.Run("key missing the permission is forbidden and the permission is named", func(t *testing.T) {
		f := setupTestFixture(t)
		secret := seedKey(f, apikeys.PermissionAdminUserRead)

		headers := http.Header{}
		headers.Set(auth.HeaderAPIKey, secret)

		_, err := f.service.Authorize(context.Background(), headers, url.Values{}, &auth.RouteRequirement{
			Permission: permission(apikeys.PermissionAdminUserDelete),
		})
		require.ErrorIs(t, err, auth.ForbiddenErr)
		require.Contains(t, err.Error(), string(apikeys.PermissionAdminUserDelete))
	})

	t.Run("unknown key is an authentication failure", func(t *testing.T) {
		f := setupTestFixture(t)

		headers := http.Header{}
		headers.Set(auth.HeaderAPIKey, "no-such-key")

		_, err := f.service.Authorize(context.Background(), headers, url.Values{}, &auth.RouteRequirement{})
		require.ErrorIs(t, err, auth.AuthenticationRequiredErr)
	})

	t.Run("api key query parameter works", func(t *testing.T) {
		f := setupTestFixture(t)
		secret := seedKey(f, apikeys.PermissionAdminUserRead)

		query := url.Values{auth.QueryAPIKey: []string{secret}}
		authCtx, err := f.service.Authorize(context.Background(), http.Header{}, query, &auth.RouteRequirement{})
		require.NoError(t, err)
		require.NotNil(t, authCtx.APIKey)
	})
}

func TestAuthorizeSessionSkipsPermissionCheck(t *testing.T) {
	// Interactive sessions are gated by admin status alone; a permission
	// requirement only applies to API key callers.
	f := setupTestFixture(t)
	f.seedSession(t, sessions.Session{
		ID:        testSessionID,
		UserID:    testUserID,
		UpdatedAt: f.now,
	}, regularUser())

	headers := http.Header{}
	headers.Set(auth.HeaderUserToken, testToken)

	p := apikeys.PermissionAdminUserDelete
	authCtx, err := f.service.Authorize(context.Background(), headers, url.Values{}, &auth.RouteRequirement{Permission: &p})
	require.NoError(t, err)
	require.Nil(t, authCtx.APIKey)
}

func TestAuthorizeBearerDoesNotFallBackToCookie(t *testing.T) {
	// End to end: the bearer token has no matching record while the cookie
	// does. Resolution must pick the bearer token and fail, not fall back.
	f := setupTestFixture(t)
	f.seedSession(t, sessions.Session{
		ID:               testSessionID,
		UserID:           testUserID,
		UpdatedAt:        f.now,
		TokenFingerprint: auth.TokenFingerprint("tok2"),
	}, regularUser())

	headers := http.Header{}
	headers.Set("Authorization", "Bearer tok1")
	headers.Set("Cookie", auth.CookieAccessToken+"=tok2")

	_, err := f.service.Authorize(context.Background(), headers, url.Values{}, &auth.RouteRequirement{})
	require.ErrorIs(t, err, auth.AuthenticationRequiredErr)
	require.Equal(t, 1, f.sessionRepo.GetByTokenFingerprintCallCount())
}
