package server

import (
	"context"
	"net/http"
	"time"

	"github.com/lumen-media/lumen-server/auth"
)

// contextKey is a private type so our context values cannot collide with
// other packages.
type contextKey string

const authContextKey contextKey = "auth_context"

// Authenticated runs the authorization engine against the route requirement
// and stores the resulting AuthContext on the request. A nil requirement lets
// the request straight through without touching credentials.
func (s *Server) Authenticated(requirement *auth.RouteRequirement) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authCtx, err := s.auth.Authorize(r.Context(), r.Header, r.URL.Query(), requirement)
			if err != nil {
				s.writeServiceError(w, err)
				return
			}
			if authCtx != nil {
				r = r.WithContext(context.WithValue(r.Context(), authContextKey, authCtx))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// AuthFromRequest returns the AuthContext installed by Authenticated. It
// panics on a route that was registered without a requirement; that is a
// programming error, not a runtime condition.
func AuthFromRequest(r *http.Request) *auth.AuthContext {
	authCtx, ok := r.Context().Value(authContextKey).(*auth.AuthContext)
	if !ok {
		panic("AuthFromRequest called on an unprotected route")
	}
	return authCtx
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}

func (s *Server) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error().Interface("panic", rec).Str("path", r.URL.Path).Msg("recovered from panic")
				s.writeError(w, http.StatusInternalServerError, "Internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}
