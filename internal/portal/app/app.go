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

	httpapi "github.com/opsportal/portal/internal/portal/http"
	"github.com/opsportal/portal/internal/portal/service"
	"github.com/opsportal/portal/internal/portal/store"
	"github.com/opsportal/portal/internal/portal/store/drivers/sqlite"
	"github.com/opsportal/portal/pkg/httpx"
	"github.com/opsportal/portal/pkg/jwtx"
	"github.com/opsportal/portal/pkg/slogx"
)

// BuildVersion should be set at build time via ldflags.
const BuildVersion = "v0.1.0"

// Application wires the portal service together: store, token service,
// domain services and the HTTP server.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db     store.Store
	tokens *jwtx.Tokens

	sessions *service.SessionService
	users    *service.UserService
	projects *service.ProjectService
	inbox    *service.InboxService
	ledger   *service.ActivityLedger
	resolver *service.StakeholderResolver
	fanout   *service.Fanout

	server *http.Server
	router *httpapi.Router
}

func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "portal",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	tokens, err := jwtx.New([]byte(cfg.AccessSecret), []byte(cfg.RefreshSecret), cfg.Issuer)
	if err != nil {
		return nil, fmt.Errorf("initialize token service: %w", err)
	}
	tokens.AccessTTL = cfg.AccessTTL
	tokens.RefreshTTL = cfg.RefreshTTL
	app.tokens = tokens

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	if err := app.seedAdmin(context.Background()); err != nil {
		_ = app.db.Close()
		return nil, err
	}

	app.initServices()
	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	app.logger.Info("portal starting", "port", app.cfg.Port, "version", BuildVersion)

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

// Shutdown drains in-flight requests and closes the database.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down portal...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("portal stopped")
	return nil
}

func (app *Application) initDatabase() error {
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", app.cfg.DatabaseFile)
	db, err := sqlite.NewStore(dsn)
	if err != nil {
		return fmt.Errorf("initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied")
	return nil
}

func (app *Application) initServices() {
	app.resolver = service.NewStakeholderResolver(app.db)
	app.fanout = service.NewFanout(app.db, app.logger, app.cfg.FanoutWidth, app.cfg.FanoutWriteTimeout)
	app.ledger = service.NewActivityLedger(app.db)

	app.sessions = service.NewSessionService(app.db, app.tokens, app.logger)
	app.users = service.NewUserService(app.db, app.resolver, app.fanout, app.ledger, app.logger)
	app.projects = service.NewProjectService(app.db, app.resolver, app.fanout, app.ledger, app.logger)
	app.inbox = service.NewInboxService(app.db)
}

func (app *Application) initHTTP() {
	cookies := httpx.CookieTransport{
		Secure:     app.cfg.SecureCookies,
		AccessTTL:  app.cfg.AccessTTL,
		RefreshTTL: app.cfg.RefreshTTL,
	}

	router := httpapi.NewRouter(app.tokens, cookies, BuildVersion, app.db, app.logger)
	router.Sessions = app.sessions
	router.Users = app.users
	router.Projects = app.projects
	router.Inbox = app.inbox
	router.Ledger = app.ledger
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
