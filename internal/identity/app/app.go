package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	httpapi "github.com/keyhaven/backoffice/internal/identity/http"
	"github.com/keyhaven/backoffice/internal/identity/mail"
	"github.com/keyhaven/backoffice/internal/identity/metrics"
	"github.com/keyhaven/backoffice/internal/identity/service"
	"github.com/keyhaven/backoffice/internal/identity/store"
	"github.com/keyhaven/backoffice/internal/identity/store/drivers/postgres"
	"github.com/keyhaven/backoffice/internal/identity/store/drivers/sqlite"
	"github.com/keyhaven/backoffice/pkg/cryptox"
	"github.com/keyhaven/backoffice/pkg/jwtx"
	"github.com/keyhaven/backoffice/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags. Later problem
	BuildVersion = "v0.1.0"
)

// Application encapsulates the identity service with all its dependencies
type Application struct {
	cfg    Config
	logger *slog.Logger

	// Core dependencies
	db       store.Store
	signer   *jwtx.EdDSASigner
	registry *prometheus.Registry
	mailer   mail.Mailer

	// Services
	tokenService        *service.TokenService
	identityService     *service.IdentityService
	inviteService       *service.InviteService
	bootstrapService    *service.BootstrapService
	housekeepingService *service.HousekeepingService

	// HTTP server
	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "identity-service",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	// Set pepper path for password hashing
	cryptox.SetPepperPath(app.cfg.PepperFile)

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	signer, err := InitSigningKey(app.cfg, app.logger)
	if err != nil {
		_ = app.db.Close()
		return nil, err
	}
	app.signer = signer

	app.registry = prometheus.NewRegistry()
	app.initMailer()
	app.initServices()
	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested
func (app *Application) Run() error {
	app.housekeepingService.Start()

	app.logger.Info("identity service starting", "port", app.cfg.Port, "version", BuildVersion)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts down the application
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down identity service...")

	// Give outstanding requests a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.housekeepingService.Stop()

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("identity service stopped")
	return nil
}

// initDatabase initializes the configured store and applies migrations
func (app *Application) initDatabase() error {
	switch app.cfg.DatabaseDriver {
	case "postgres":
		db, err := postgres.NewStore(app.cfg.DatabaseDSN)
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		app.db = db

		if err := db.ApplyMigrations(); err != nil {
			_ = db.Close()
			return fmt.Errorf("failed to apply database migrations: %w", err)
		}

	case "sqlite":
		db, err := sqlite.NewStore(sqlite.FileDSN(app.cfg.DatabaseDSN))
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		app.db = db

		if err := db.ApplyMigrations(); err != nil {
			_ = db.Close()
			return fmt.Errorf("failed to apply database migrations: %w", err)
		}

	default:
		return fmt.Errorf("unknown database driver %q", app.cfg.DatabaseDriver)
	}

	app.logger.Info("database migrations applied successfully", "driver", app.cfg.DatabaseDriver)
	return nil
}

func (app *Application) initMailer() {
	switch app.cfg.MailDriver {
	case "smtp":
		app.mailer = mail.NewSMTPMailer(mail.SMTPConfig{
			Host:     app.cfg.SMTPHost,
			Port:     app.cfg.SMTPPort,
			Username: app.cfg.SMTPUsername,
			Password: app.cfg.SMTPPassword,
			From:     app.cfg.SMTPFrom,
			StartTLS: app.cfg.SMTPStartTLS,
		})
		app.logger.Info("smtp mailer configured", "host", app.cfg.SMTPHost)
	default:
		app.mailer = mail.NewLogMailer()
		app.logger.Info("log mailer configured, outbound mail will only be logged")
	}
}

// initServices initializes all business logic services
func (app *Application) initServices() {
	recorder := metrics.NewCollector(app.registry)
	composer := mail.NewComposer(app.cfg.BaseURL)

	app.tokenService = &service.TokenService{}

	app.identityService = &service.IdentityService{
		Store:      app.db,
		Tokens:     app.tokenService,
		Signer:     app.signer,
		Mailer:     app.mailer,
		Composer:   composer,
		Metrics:    recorder,
		Issuer:     app.cfg.Issuer,
		SessionTTL: app.cfg.SessionTTL,
	}

	app.inviteService = &service.InviteService{
		Store:    app.db,
		Mailer:   app.mailer,
		Composer: composer,
		Metrics:  recorder,
	}

	app.bootstrapService = &service.BootstrapService{
		Store: app.db,
		Token: app.cfg.BootstrapToken,
	}

	app.housekeepingService = service.NewHousekeepingService(
		app.db,
		app.logger,
		app.cfg.HousekeepingInterval,
	)
}

// initHTTP initializes the HTTP router and server
func (app *Application) initHTTP() {
	verifier := jwtx.NewVerifierEdDSA(app.signer.PublicKey(), app.cfg.Issuer)

	router := httpapi.NewRouter(
		verifier,
		app.db,
		app.registry,
		app.logger,
	)

	// Wire services to router
	router.IdentityService = app.identityService
	router.InviteService = app.inviteService
	router.BootstrapService = app.bootstrapService
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
