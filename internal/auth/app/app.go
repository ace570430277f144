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

	httpapi "github.com/lumenlabs/membergate/internal/auth/http"
	"github.com/lumenlabs/membergate/internal/auth/notify"
	"github.com/lumenlabs/membergate/internal/auth/service"
	"github.com/lumenlabs/membergate/internal/auth/store"
	"github.com/lumenlabs/membergate/internal/auth/store/drivers/sqlite"
	"github.com/lumenlabs/membergate/pkg/cryptox"
	"github.com/lumenlabs/membergate/pkg/jwtx"
	"github.com/lumenlabs/membergate/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags. Later problem
	BuildVersion = "v0.1.0"
)

// Application encapsulates the auth service with all its dependencies.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db     store.Store
	signer *jwtx.HS256

	tokenService        *service.TokenService
	registerService     *service.RegistrationService
	loginService        *service.LoginService
	otpService          *service.OTPService
	totpService         *service.TOTPService
	accountService      *service.AccountService
	rolesService        *service.RolesService
	bootstrapService    *service.BootstrapService
	housekeepingService *service.HousekeepingService

	server *http.Server
	router *httpapi.Router
}

// New creates an Application with all dependencies initialized.
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "membergate",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	cryptox.SetPepperPath(app.cfg.PepperFile)

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	signer, err := jwtx.NewHS256(app.cfg.TokenSecret, app.cfg.Issuer)
	if err != nil {
		_ = app.db.Close()
		return nil, fmt.Errorf("failed to initialize token signer: %w", err)
	}
	app.signer = signer

	app.initServices()

	if err := app.bootstrapService.Run(context.Background()); err != nil {
		_ = app.db.Close()
		return nil, fmt.Errorf("failed to seed database: %w", err)
	}

	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	app.housekeepingService.Start()

	app.logger.Info("auth service starting", "port", app.cfg.Port, "version", BuildVersion)

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

// Shutdown gracefully shuts down the application.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down auth service...")

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

	app.logger.Info("auth service stopped")
	return nil
}

func (app *Application) initDatabase() error {
	host := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", app.cfg.DatabaseFile)
	db, err := sqlite.NewStore(host)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully")
	return nil
}

func (app *Application) initServices() {
	app.tokenService = &service.TokenService{
		Signer:    app.signer,
		Issuer:    app.cfg.Issuer,
		AccessTTL: app.cfg.TokenTTL,
	}

	app.otpService = &service.OTPService{
		Store: app.db,
		Sink:  &notify.LogSink{Logger: app.logger},
		TTL:   app.cfg.OTPTTL,
	}
	app.totpService = &service.TOTPService{
		Store:  app.db,
		Issuer: app.cfg.Issuer,
	}

	app.registerService = &service.RegistrationService{
		Store:  app.db,
		Tokens: app.tokenService,
		OTP:    app.otpService,
	}
	app.loginService = &service.LoginService{
		Store:  app.db,
		Tokens: app.tokenService,
		OTP:    app.otpService,
		TOTP:   app.totpService,
	}

	policy := service.SelfBySubject
	if app.cfg.SelfActionPolicy == string(service.SelfByRole) {
		policy = service.SelfByRole
	}
	app.accountService = &service.AccountService{
		Store:      app.db,
		SelfPolicy: policy,
	}

	app.rolesService = &service.RolesService{Store: app.db}

	app.bootstrapService = &service.BootstrapService{Store: app.db}
	if app.cfg.AdminUsername != "" {
		app.bootstrapService.Admin = &service.AdminSeed{
			Username: app.cfg.AdminUsername,
			Email:    app.cfg.AdminEmail,
			Password: app.cfg.AdminPassword,
		}
	}

	app.housekeepingService = service.NewHousekeepingService(
		app.db,
		app.logger,
		app.cfg.HousekeepingInterval,
	)
}

func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		app.signer,
		BuildVersion,
		app.db,
		app.logger,
	)

	router.TokenService = app.tokenService
	router.RegisterService = app.registerService
	router.LoginService = app.loginService
	router.OTPService = app.otpService
	router.TOTPService = app.totpService
	router.AccountService = app.accountService
	router.RolesService = app.rolesService
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
