package server

import (
	"net/http"

	"github.com/lumen-media/lumen-server/auth"
)

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type adminSignUpRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Name     string `json:"name" validate:"required"`
}

type changePasswordRequest struct {
	Password    string `json:"password" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,min=8"`
}

type logoutResponse struct {
	Successful  bool   `json:"successful"`
	RedirectURI string `json:"redirectUri"`
}

func (s *Server) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body loginRequest
		if err := decodeJSON(r, &body); err != nil {
			s.writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		response, err := s.auth.Login(r.Context(), body.Email, body.Password, auth.LoginDetails{
			DeviceType: r.UserAgent(),
		})
		if err != nil {
			s.writeServiceError(w, err)
			return
		}

		s.setAuthCookies(w, response.AccessToken)
		s.writeJSON(w, http.StatusCreated, response)
	}
}

func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authCtx := AuthFromRequest(r)
		if err := s.auth.Logout(r.Context(), authCtx); err != nil {
			s.writeServiceError(w, err)
			return
		}

		s.clearAuthCookies(w)
		s.writeJSON(w, http.StatusOK, logoutResponse{
			Successful:  true,
			RedirectURI: "/auth/login?autoLaunch=0",
		})
	}
}

func (s *Server) AdminSignUpHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body adminSignUpRequest
		if err := decodeJSON(r, &body); err != nil {
			s.writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		admin, err := s.auth.AdminSignUp(r.Context(), body.Email, body.Password, body.Name)
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		s.writeJSON(w, http.StatusCreated, admin)
	}
}

func (s *Server) ChangePasswordHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body changePasswordRequest
		if err := decodeJSON(r, &body); err != nil {
			s.writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		authCtx := AuthFromRequest(r)
		user, err := s.auth.ChangePassword(r.Context(), authCtx.User.ID, body.Password, body.NewPassword)
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, user)
	}
}

// ValidateTokenHandler exists for clients that want to probe whether their
// stored credential still works. Reaching the handler at all means it does.
func (s *Server) ValidateTokenHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.writeJSON(w, http.StatusOK, map[string]bool{"authStatus": true})
	}
}

func (s *Server) setAuthCookies(w http.ResponseWriter, accessToken string) {
	secure := s.config.GetSecureCookies()
	maxAge := int(s.config.GetCookieMaxAge().Seconds())

	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieAccessToken,
		Value:    accessToken,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieAuthType,
		Value:    "password",
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
	// Readable by the web client so it can skip the login screen.
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieIsAuthenticated,
		Value:    "true",
		Path:     "/",
		MaxAge:   maxAge,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) clearAuthCookies(w http.ResponseWriter) {
	for _, name := range []string{auth.CookieAccessToken, auth.CookieAuthType, auth.CookieIsAuthenticated} {
		http.SetCookie(w, &http.Cookie{
			Name:   name,
			Value:  "",
			Path:   "/",
			MaxAge: -1,
		})
	}
}
