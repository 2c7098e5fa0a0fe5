package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/lumen-media/lumen-server/auth"
	"github.com/lumen-media/lumen-server/internal/config"
)

type Server struct {
	env    string
	router chi.Router
	config config.Config
	auth   *auth.Service
	repos  auth.Repos
	logger zerolog.Logger
}

func New(config config.Config, repos auth.Repos, logger zerolog.Logger) (*Server, error) {
	authService, err := auth.NewService(repos, auth.WithLogger(logger))
	if err != nil {
		return nil, errors.Wrap(err, "[Server New] creating auth service")
	}

	s := &Server{
		env:    config.GetEnv(),
		router: chi.NewRouter(),
		config: config,
		auth:   authService,
		repos:  repos,
		logger: logger,
	}

	s.router.Use(s.requestLogger)
	s.router.Use(s.recoverer)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   config.GetAllowedOrigins(),
		AllowedMethods:   config.GetAllowedMethods(),
		AllowedHeaders:   config.GetAllowedHeaders(),
		AllowCredentials: true,
	}))

	s.initRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
