package app

import (
	"context"
	"errors"
	"fmt"
	stdhttp "net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/wiremsg-server/internal/auth"
	"github.com/vovakirdan/wiremsg-server/internal/config"
	"github.com/vovakirdan/wiremsg-server/internal/core"
	"github.com/vovakirdan/wiremsg-server/internal/metrics"
	"github.com/vovakirdan/wiremsg-server/internal/service/messages"
	"github.com/vovakirdan/wiremsg-server/internal/service/users"
	"github.com/vovakirdan/wiremsg-server/internal/store/sqlstore"
	transporthttp "github.com/vovakirdan/wiremsg-server/internal/transport/http"
)

// App wires together storage, services and transport layers.
type App struct {
	server          *stdhttp.Server
	shutdownTimeout time.Duration
	store           *sqlstore.SQLStore
	log             *zerolog.Logger

	Users *users.Service
}

// OpenStore connects to the configured database and applies pending migrations.
func OpenStore(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (*sqlstore.SQLStore, error) {
	st, err := sqlstore.New(cfg.DatabaseDriver, cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}

	applied, err := st.Migrate(ctx)
	if err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("migrate store: %w", err)
	}
	for _, name := range applied {
		logger.Info().Str("migration", name).Msg("migration applied")
	}

	logger.Info().Str("driver", cfg.DatabaseDriver).Msg("database initialized")
	return st, nil
}

// New constructs the application with provided configuration.
func New(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if cfg.JWTSecret == config.DefaultJWTSecret {
		logger.Warn().Msg("jwt_secret is the default placeholder; set WIREMSG_JWT_SECRET")
	}

	st, err := OpenStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	var m *metrics.Metrics
	if cfg.MetricsEnabled {
		m = metrics.New()
	}

	jwtConfig := &auth.JWTConfig{
		Secret:   []byte(cfg.JWTSecret),
		Issuer:   cfg.JWTIssuer,
		Audience: cfg.JWTAudience,
		TTL:      cfg.JWTTTL,
	}

	validator := core.NewValidator()
	authService := auth.NewService(st, jwtConfig, validator, m)
	userService := users.New(st, validator, m, logger)
	messageService := messages.New(st, validator, m, logger)

	server := transporthttp.NewServer(transporthttp.Services{
		Auth:     authService,
		Users:    userService,
		Messages: messageService,
		Metrics:  m,
	}, cfg, logger)

	return &App{
		server:          server,
		shutdownTimeout: cfg.ShutdownTimeout,
		store:           st,
		log:             logger,
		Users:           userService,
	}, nil
}

// Handler exposes the HTTP handler, mainly for tests.
func (a *App) Handler() stdhttp.Handler {
	return a.server.Handler
}

// Run starts the HTTP server and blocks until context cancellation or fatal error.
func (a *App) Run(ctx context.Context) error {
	serverErr := make(chan error, 1)

	go func() {
		a.log.Info().Str("addr", a.server.Addr).Msg("starting http server")
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			serverErr <- err
			return
		}
		serverErr <- nil
	}()

	select {
	case err := <-serverErr:
		a.Close()
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
		defer cancel()

		a.log.Info().Msg("shutting down http server")
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			a.Close()
			return err
		}

		a.Close()
		return <-serverErr
	}
}

// Close releases the database connection.
func (a *App) Close() {
	if a.store == nil {
		return
	}
	if err := a.store.Close(); err != nil {
		a.log.Warn().Err(err).Msg("failed to close store")
	} else {
		a.log.Info().Msg("store closed")
	}
	a.store = nil
}
