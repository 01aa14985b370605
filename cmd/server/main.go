package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	h "github.com/gorilla/handlers"
	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog"
	"github.com/taskhive/taskhive-api/internal/config"
	"github.com/taskhive/taskhive-api/internal/handlers"
	"github.com/taskhive/taskhive-api/internal/middleware"
	"github.com/taskhive/taskhive-api/internal/migration"
	"github.com/taskhive/taskhive-api/internal/notification"
	"github.com/taskhive/taskhive-api/internal/realtime"
	"github.com/taskhive/taskhive-api/internal/repository"
	"github.com/taskhive/taskhive-api/internal/routes"

	_ "github.com/lib/pq" // PostgreSQL driver
)

type application struct {
	config *config.Config
	db     *sql.DB
	hub    *realtime.Hub
	logger zerolog.Logger
}

func main() {
	// Set up structured, level-based logging.
	consoleWriter := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen}
	logger := zerolog.New(consoleWriter).With().Timestamp().Logger()

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	log.SetFlags(0)
	log.SetOutput(logger)

	gooseAdapter := migration.NewGooseAdapter(logger)
	goose.SetLogger(gooseAdapter)

	// Load configuration.
	cfg := config.Load()

	// Initialize database connection.
	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to the database")
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		logger.Fatal().Err(err).Msg("Failed to ping database")
	}

	// Run database migrations.
	migration.RunMigrations(cfg.DatabaseURL, logger)

	// Start the realtime hub in a separate goroutine.
	hub := realtime.NewHub(logger)
	go hub.Run()

	// Create the application instance.
	app := &application{
		config: cfg,
		db:     db,
		hub:    hub,
		logger: logger,
	}

	// Initialize the HTTP router and middleware.
	router := app.initRouter(logger)
	loggedRouter := middleware.LoggingMiddleware(app.logger)(router)
	corsHandler := h.CORS(
		h.AllowedOrigins([]string{cfg.FrontendOrigin}),
		h.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		h.AllowedHeaders([]string{"Content-Type", "Authorization"}),
		h.AllowCredentials(),
	)(loggedRouter)

	// Start the HTTP server and handle graceful shutdown.
	app.startServer(corsHandler, logger)

	logger.Info().Msg("Application terminated.")
}

// initRouter sets up all HTTP handlers and returns the router.
func (app *application) initRouter(logger zerolog.Logger) http.Handler {
	// Repositories
	projectRepo := repository.NewProjectRepository(app.db)
	inviteRepo := repository.NewInviteRepository(app.db)
	taskRepo := repository.NewTaskRepository(app.db)

	// Mailer for invites: SMTP when configured, log sink otherwise.
	var inviteMailer notification.InviteMailer
	if app.config.Email.SMTPHost != "" {
		smtpMailer, err := notification.NewSMTPInviteMailer(app.config.Email)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to configure invite mailer")
		}
		inviteMailer = smtpMailer
	} else {
		inviteMailer = notification.NewLogInviteMailer(logger)
	}

	// Handlers
	authHandler := handlers.NewAuthHandler(app.db, app.config, logger)
	projectHandler := handlers.NewProjectHandler(projectRepo, inviteRepo, app.hub, app.config.FrontendOrigin, logger)
	inviteHandler := handlers.NewInviteHandler(inviteRepo, projectRepo, inviteMailer, app.config.FrontendOrigin, logger)
	guestHandler := handlers.NewGuestHandler(inviteRepo, projectRepo, taskRepo, app.hub, logger)
	taskHandler := handlers.NewTaskHandler(taskRepo, projectRepo, app.hub, logger)
	eventsHandler := handlers.NewEventsHandler(app.hub, projectRepo, logger)

	authLimiter := middleware.NewRateLimiter(30, 10)

	return routes.NewRouter(authHandler, projectHandler, inviteHandler, guestHandler, taskHandler, eventsHandler, authLimiter)
}

// startServer launches the HTTP server and handles graceful shutdown.
func (app *application) startServer(handler http.Handler, logger zerolog.Logger) {
	server := &http.Server{
		Addr:    ":" + app.config.ServerPort,
		Handler: handler,
	}

	// Channel to listen for server errors
	serverErrCh := make(chan error, 1)
	go func() {
		logger.Info().Msgf("Server listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrCh <- err
		}
	}()

	// Wait for an interrupt signal or a server error.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-quit:
		logger.Info().Msgf("Received signal: %s. Shutting down...", sig)
	case err := <-serverErrCh:
		logger.Error().Err(err).Msg("Server error occurred")
	}

	// Gracefully shut down the HTTP server.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("HTTP server shutdown error")
	} else {
		logger.Info().Msg("HTTP server shutdown complete.")
	}
}
