package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/rs/zerolog"

	"github.com/lumen-media/lumen-server/auth"
	"github.com/lumen-media/lumen-server/internal/config"
	"github.com/lumen-media/lumen-server/server"
	"github.com/lumen-media/lumen-server/store"
	"github.com/lumen-media/lumen-server/users"
)

func main() {
	for {
		if err := run(); err != nil {
			log.Fatalf("Error running server: %s\n", err)
			time.Sleep(1 * time.Second)
		} else {
			break
		}
	}
	log.Printf("Server stopped\n")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Recovered from panic: %v\n", r)
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	c := config.New()
	displayAppname(c.GetAppName())

	logger := newLogger(c)

	db, err := store.NewSQLiteDB(c.GetDatabaseFile(), &store.SQLiteDBOption{
		Mode:        "rwc",
		Cache:       "shared",
		JournalMode: "WAL",
	})
	if err != nil {
		return fmt.Errorf("store.NewSQLiteDB: %w", err)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		return fmt.Errorf("db.Migrate: %w", err)
	}

	repos := auth.Repos{
		Users:    store.NewSQLiteUserRepo(db.DB),
		Sessions: store.NewSQLiteSessionRepo(db.DB),
		APIKeys:  store.NewSQLiteAPIKeyRepo(db.DB),
	}

	logAdminStatus(logger, repos.Users)

	handler, err := server.New(c, repos, logger)
	if err != nil {
		return fmt.Errorf("server.New: %w", err)
	}

	httpServer := &http.Server{Addr: c.GetPort(), Handler: handler}
	go listenAndServe(httpServer)
	waitForStopSignal()
	returnError = shutdown(httpServer)
	return returnError
}

func newLogger(c config.Config) zerolog.Logger {
	if c.GetEnv() == "DEV" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}

// logAdminStatus tells the operator whether the server still needs its
// initial admin sign-up.
func logAdminStatus(logger zerolog.Logger, userRepo users.Repo) {
	admin, err := userRepo.GetAdmin(context.Background())
	if err != nil {
		logger.Warn().Err(err).Msg("could not check for an admin account")
		return
	}
	if admin == nil {
		logger.Info().Msg("no admin account yet: POST /auth/admin-sign-up to create one")
		return
	}
	logger.Info().Str("email", admin.Email).Msg("admin account present")
}

func listenAndServe(server *http.Server) error {
	log.Printf("Server listening on %s\n", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

func waitForStopSignal() {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
