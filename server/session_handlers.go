package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (s *Server) ListSessionsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authCtx := AuthFromRequest(r)

		list, err := s.repos.Sessions.ListByUser(r.Context(), authCtx.User.ID)
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, list)
	}
}

// DeleteSessionHandler revokes one of the caller's own sessions. Sessions of
// other users read as not found rather than forbidden so session IDs are not
// probeable.
func (s *Server) DeleteSessionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authCtx := AuthFromRequest(r)
		id := chi.URLParam(r, "id")

		owned, err := s.ownsSession(r, authCtx.User.ID, id)
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		if !owned {
			s.writeError(w, http.StatusNotFound, "session not found")
			return
		}

		if err := s.repos.Sessions.Delete(r.Context(), id); err != nil {
			s.writeServiceError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// DeleteOtherSessionsHandler revokes every session of the caller except the
// one used to make this request.
func (s *Server) DeleteOtherSessionsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authCtx := AuthFromRequest(r)

		exceptID := ""
		if authCtx.Session != nil {
			exceptID = authCtx.Session.ID
		}
		if err := s.repos.Sessions.DeleteByUser(r.Context(), authCtx.User.ID, exceptID); err != nil {
			s.writeServiceError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) ownsSession(r *http.Request, userID, sessionID string) (bool, error) {
	list, err := s.repos.Sessions.ListByUser(r.Context(), userID)
	if err != nil {
		return false, err
	}
	for _, session := range list {
		if session.ID == sessionID {
			return true, nil
		}
	}
	return false, nil
}
