package auth

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/lumen-media/lumen-server/apikeys"
	"github.com/lumen-media/lumen-server/sessions"
	"github.com/lumen-media/lumen-server/users"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

const (
	// sessionStaleAfter bounds how often the last-seen bookkeeping write is
	// issued for an active session.
	sessionStaleAfter = time.Hour

	// pinGracePeriod is both the sliding-extension trigger and the cap: an
	// elevated session about to lapse within this window is extended to
	// exactly now + pinGracePeriod, never further.
	pinGracePeriod = 5 * time.Minute
)

// Repos holds all repository dependencies for the Service.
type Repos struct {
	Users    users.Repo
	Sessions sessions.Repo
	APIKeys  apikeys.Repo
}

// SessionInfo is the session slice of an AuthContext.
type SessionInfo struct {
	ID                    string
	HasElevatedPermission bool
}

// KeyGrant is the API key slice of an AuthContext.
type KeyGrant struct {
	ID          string
	Permissions []apikeys.Permission
}

// AuthContext is the result of a successful authentication and the only
// object exposed past the authentication boundary. It never carries raw
// tokens or fingerprints. Session is set for session credentials, APIKey for
// API key credentials; never both.
type AuthContext struct {
	User    users.User
	APIKey  *KeyGrant
	Session *SessionInfo
}

// RouteRequirement is the declarative protection attached to a route at
// registration time and passed directly into Authorize. A nil requirement
// marks a public route.
type RouteRequirement struct {
	AdminRequired bool
	Permission    *apikeys.Permission
}

// Service authenticates inbound requests and authorizes them against route
// requirements. It holds no mutable state of its own: every call is a
// function of its inputs plus the stores' current state.
type Service struct {
	repos   Repos
	nowTime func() time.Time // nowTime function (injectable for testing)
	logger  zerolog.Logger
}

// ServiceOption defines a function type to modify the Service instance.
type ServiceOption func(*Service)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) ServiceOption {
	return func(s *Service) {
		s.nowTime = nowFunc
	}
}

// WithLogger sets the logger used for best-effort bookkeeping failures.
func WithLogger(logger zerolog.Logger) ServiceOption {
	return func(s *Service) {
		s.logger = logger
	}
}

// NewService initializes a new Service with required dependencies. Optional
// configuration can be provided via options (e.g., WithNowTime for testing).
func NewService(repos Repos, options ...ServiceOption) (*Service, error) {
	if repos.Users == nil {
		return nil, errors.New("[NewService] Users repo is required")
	}
	if repos.Sessions == nil {
		return nil, errors.New("[NewService] Sessions repo is required")
	}
	if repos.APIKeys == nil {
		return nil, errors.New("[NewService] APIKeys repo is required")
	}

	service := &Service{
		repos:   repos,
		nowTime: time.Now,
		logger:  zerolog.Nop(),
	}

	for _, opt := range options {
		opt(service)
	}

	return service, nil
}

// Authorize is the single entry point invoked before a protected handler
// runs. It resolves a credential, authenticates it, and checks the route
// requirement, in that order; any step's failure is terminal for the request.
// A nil requirement returns immediately without touching credentials or the
// stores.
func (s *Service) Authorize(ctx context.Context, headers http.Header, query url.Values, requirement *RouteRequirement) (*AuthContext, error) {
	if requirement == nil {
		return nil, nil
	}

	now := s.nowTime()

	authCtx, err := s.validate(ctx, headers, query, now)
	if err != nil {
		return nil, err
	}

	// The admin gate is independent of and precedes the permission check.
	if requirement.AdminRequired && !authCtx.User.IsAdmin {
		s.logger.Warn().Str("user_id", authCtx.User.ID).Msg("denied access to admin only route")
		return nil, ForbiddenErr
	}

	// Permission checks apply to API key callers only. A session context with
	// no API key is gated solely by the admin check above.
	if authCtx.APIKey != nil && requirement.Permission != nil {
		if !IsGranted([]apikeys.Permission{*requirement.Permission}, authCtx.APIKey.Permissions) {
			return nil, MissingPermissionError{Permission: *requirement.Permission}
		}
	}

	return authCtx, nil
}

// Authenticate turns a raw session token into an AuthContext, applying the
// staleness refresh and the elevation window rules. The clock is an explicit
// parameter so the decision is deterministic and testable.
func (s *Service) Authenticate(ctx context.Context, rawToken string, now time.Time) (*AuthContext, error) {
	fingerprint := TokenFingerprint(rawToken)

	session, err := s.repos.Sessions.GetByTokenFingerprint(ctx, fingerprint)
	if err != nil {
		if errors.Is(err, sessions.SessionNotFoundErr) {
			return nil, InvalidCredentialErr
		}
		return nil, errors.Wrap(err, "[Authenticate] Sessions.GetByTokenFingerprint")
	}

	if session.ExpiresAt != nil && !session.ExpiresAt.After(now) {
		return nil, InvalidCredentialErr
	}

	// Last-seen bookkeeping. Best effort: a failed or lost update must never
	// fail the authentication.
	if now.Sub(session.UpdatedAt) > sessionStaleAfter {
		update := sessions.Update{UpdatedAt: &now}
		if err := s.repos.Sessions.Update(ctx, session.ID, update); err != nil {
			s.logger.Warn().Err(err).Str("session_id", session.ID).Msg("failed to refresh session updatedAt")
		}
	}

	hasElevatedPermission := session.PinExpiresAt != nil && session.PinExpiresAt.After(now)

	// Sliding extension: only a currently elevated window is extended, and
	// only up to pinGracePeriod out, so continuous traffic cannot retain the
	// privilege indefinitely beyond the grace increment.
	if hasElevatedPermission {
		if graceEnd := now.Add(pinGracePeriod); graceEnd.After(*session.PinExpiresAt) {
			update := sessions.Update{PinExpiresAt: &graceEnd}
			if err := s.repos.Sessions.Update(ctx, session.ID, update); err != nil {
				s.logger.Warn().Err(err).Str("session_id", session.ID).Msg("failed to extend elevation window")
			}
		}
	}

	return &AuthContext{
		User: session.User,
		Session: &SessionInfo{
			ID:                    session.ID,
			HasElevatedPermission: hasElevatedPermission,
		},
	}, nil
}

// ValidateAPIKey turns a raw API key into an AuthContext carrying the key's
// permission grant.
func (s *Service) ValidateAPIKey(ctx context.Context, rawKey string) (*AuthContext, error) {
	key, err := s.repos.APIKeys.GetByKeyFingerprint(ctx, TokenFingerprint(rawKey))
	if err != nil {
		if errors.Is(err, apikeys.KeyNotFoundErr) {
			return nil, InvalidCredentialErr
		}
		return nil, errors.Wrap(err, "[ValidateAPIKey] APIKeys.GetByKeyFingerprint")
	}

	return &AuthContext{
		User: key.User,
		APIKey: &KeyGrant{
			ID:          key.ID,
			Permissions: key.Permissions,
		},
	}, nil
}

func (s *Service) validate(ctx context.Context, headers http.Header, query url.Values, now time.Time) (*AuthContext, error) {
	if rawKey, ok := resolveAPIKey(headers, query); ok {
		return s.ValidateAPIKey(ctx, rawKey)
	}

	credential, err := ResolveCredential(headers, query)
	if err != nil {
		return nil, err
	}
	return s.Authenticate(ctx, credential.Token, now)
}
