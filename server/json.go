package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/lumen-media/lumen-server/apikeys"
	"github.com/lumen-media/lumen-server/auth"
	"github.com/lumen-media/lumen-server/sessions"
	"github.com/lumen-media/lumen-server/users"
)

var validate = validator.New()

type apiError struct {
	Message    string `json:"message"`
	StatusCode int    `json:"statusCode"`
}

func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errors.Wrap(err, "[decodeJSON] decoding body")
	}
	if err := validate.Struct(v); err != nil {
		return errors.Wrap(err, "[decodeJSON] validating body")
	}
	return nil
}

func (s *Server) writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error().Err(err).Msg("failed to encode response body")
	}
}

func (s *Server) writeError(w http.ResponseWriter, statusCode int, message string) {
	s.writeJSON(w, statusCode, apiError{Message: message, StatusCode: statusCode})
}

// writeServiceError maps domain errors onto HTTP responses. Authentication
// failures all collapse into the same 401 body regardless of cause.
func (s *Server) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, auth.AuthenticationRequiredErr):
		s.writeError(w, http.StatusUnauthorized, "Authentication required")
	case errors.Is(err, auth.WrongCredentialsErr):
		s.writeError(w, http.StatusUnauthorized, "Incorrect email or password")
	case errors.Is(err, auth.ForbiddenErr):
		s.writeError(w, http.StatusForbidden, forbiddenMessage(err))
	case errors.Is(err, auth.AdminAlreadyExistsErr),
		errors.Is(err, auth.UserExistsErr),
		errors.Is(err, auth.FirstUserNotAdminErr),
		errors.Is(err, auth.InvalidPermissionErr):
		s.writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, users.UserNotFoundErr),
		errors.Is(err, sessions.SessionNotFoundErr),
		errors.Is(err, apikeys.KeyNotFoundErr):
		s.writeError(w, http.StatusNotFound, err.Error())
	default:
		s.logger.Error().Err(err).Msg("internal server error")
		s.writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

func forbiddenMessage(err error) string {
	var missing auth.MissingPermissionError
	if errors.As(err, &missing) {
		return missing.Error()
	}
	return "Forbidden"
}
