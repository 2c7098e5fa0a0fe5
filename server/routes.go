package server

import (
	"github.com/go-chi/chi/v5"

	"github.com/lumen-media/lumen-server/apikeys"
	"github.com/lumen-media/lumen-server/auth"
)

// authenticated is the requirement for routes any logged-in caller may use.
var authenticated = &auth.RouteRequirement{}

func adminOnly(permission apikeys.Permission) *auth.RouteRequirement {
	return &auth.RouteRequirement{AdminRequired: true, Permission: &permission}
}

// initRoutes declares every route together with its protection requirement.
// The requirement is fixed at registration time; handlers never re-check
// authorization themselves.
func (s *Server) initRoutes() {
	s.router.Route("/auth", func(r chi.Router) {
		r.Post("/login", s.LoginHandler())
		r.Post("/admin-sign-up", s.AdminSignUpHandler())
		r.With(s.Authenticated(authenticated)).Post("/logout", s.LogoutHandler())
		r.With(s.Authenticated(authenticated)).Post("/change-password", s.ChangePasswordHandler())
		r.With(s.Authenticated(authenticated)).Post("/validateToken", s.ValidateTokenHandler())
	})

	s.router.Route("/sessions", func(r chi.Router) {
		r.Use(s.Authenticated(authenticated))
		r.Get("/", s.ListSessionsHandler())
		r.Delete("/", s.DeleteOtherSessionsHandler())
		r.Delete("/{id}", s.DeleteSessionHandler())
	})

	s.router.Route("/api-keys", func(r chi.Router) {
		r.Use(s.Authenticated(authenticated))
		r.Post("/", s.CreateAPIKeyHandler())
		r.Get("/", s.ListAPIKeysHandler())
		r.Delete("/{id}", s.DeleteAPIKeyHandler())
	})

	s.router.Route("/admin/users", func(r chi.Router) {
		r.With(s.Authenticated(adminOnly(apikeys.PermissionAdminUserCreate))).Post("/", s.AdminCreateUserHandler())
		r.With(s.Authenticated(adminOnly(apikeys.PermissionAdminUserRead))).Get("/", s.AdminListUsersHandler())
		r.With(s.Authenticated(adminOnly(apikeys.PermissionAdminUserRead))).Get("/{id}", s.AdminGetUserHandler())
		r.With(s.Authenticated(adminOnly(apikeys.PermissionAdminUserUpdate))).Put("/{id}", s.AdminUpdateUserHandler())
		r.With(s.Authenticated(adminOnly(apikeys.PermissionAdminUserDelete))).Delete("/{id}", s.AdminDeleteUserHandler())
	})
}
