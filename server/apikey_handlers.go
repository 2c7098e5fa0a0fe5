package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/lumen-media/lumen-server/apikeys"
)

type createAPIKeyRequest struct {
	Name        string               `json:"name" validate:"required"`
	Permissions []apikeys.Permission `json:"permissions" validate:"required,min=1"`
}

type createAPIKeyResponse struct {
	Secret string         `json:"secret"`
	APIKey apikeys.APIKey `json:"apiKey"`
}

// CreateAPIKeyHandler mints a key for the caller. The secret appears in this
// response and nowhere else.
func (s *Server) CreateAPIKeyHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body createAPIKeyRequest
		if err := decodeJSON(r, &body); err != nil {
			s.writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		authCtx := AuthFromRequest(r)
		secret, key, err := s.auth.CreateAPIKey(r.Context(), authCtx.User.ID, body.Name, body.Permissions)
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		s.writeJSON(w, http.StatusCreated, createAPIKeyResponse{Secret: secret, APIKey: *key})
	}
}

func (s *Server) ListAPIKeysHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authCtx := AuthFromRequest(r)

		list, err := s.repos.APIKeys.ListByUser(r.Context(), authCtx.User.ID)
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, list)
	}
}

func (s *Server) DeleteAPIKeyHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authCtx := AuthFromRequest(r)
		id := chi.URLParam(r, "id")

		list, err := s.repos.APIKeys.ListByUser(r.Context(), authCtx.User.ID)
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		owned := false
		for _, key := range list {
			if key.ID == id {
				owned = true
				break
			}
		}
		if !owned {
			s.writeError(w, http.StatusNotFound, "api key not found")
			return
		}

		if err := s.repos.APIKeys.Delete(r.Context(), id); err != nil {
			s.writeServiceError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
