package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/lumen-media/lumen-server/auth"
)

type createUserRequest struct {
	Email                string `json:"email" validate:"required,email"`
	Password             string `json:"password" validate:"required,min=8"`
	Name                 string `json:"name"`
	ShouldChangePassword bool   `json:"shouldChangePassword"`
}

type updateUserRequest struct {
	Email                *string `json:"email" validate:"omitempty,email"`
	Name                 *string `json:"name"`
	Password             *string `json:"password" validate:"omitempty,min=8"`
	ShouldChangePassword *bool   `json:"shouldChangePassword"`
}

func (s *Server) AdminCreateUserHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body createUserRequest
		if err := decodeJSON(r, &body); err != nil {
			s.writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		user, err := s.auth.CreateUserAccount(r.Context(), auth.CreateUser{
			Email:                body.Email,
			Password:             body.Password,
			Name:                 body.Name,
			ShouldChangePassword: body.ShouldChangePassword,
		})
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		s.writeJSON(w, http.StatusCreated, user)
	}
}

func (s *Server) AdminListUsersHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := s.repos.Users.List(r.Context())
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, list)
	}
}

func (s *Server) AdminGetUserHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, err := s.repos.Users.GetByID(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, user)
	}
}

func (s *Server) AdminUpdateUserHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body updateUserRequest
		if err := decodeJSON(r, &body); err != nil {
			s.writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		user, err := s.auth.UpdateUserAccount(r.Context(), chi.URLParam(r, "id"), auth.UpdateUser{
			Email:                body.Email,
			Name:                 body.Name,
			Password:             body.Password,
			ShouldChangePassword: body.ShouldChangePassword,
		})
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, user)
	}
}

// AdminDeleteUserHandler soft deletes an account. The admin cannot delete
// itself; the server must always keep a live admin.
func (s *Server) AdminDeleteUserHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authCtx := AuthFromRequest(r)
		id := chi.URLParam(r, "id")

		if id == authCtx.User.ID {
			s.writeError(w, http.StatusBadRequest, "cannot delete the account you are signed in with")
			return
		}

		if err := s.repos.Users.Delete(r.Context(), id); err != nil {
			s.writeServiceError(w, err)
			return
		}

		// Revoke everything the deleted user could still authenticate with.
		if err := s.repos.Sessions.DeleteByUser(r.Context(), id, ""); err != nil {
			s.writeServiceError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
