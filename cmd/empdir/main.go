// Command empdir runs the employees directory web application.
package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4/middleware"

	"github.com/adeilh/go-empdir/auth"
	cacheredis "github.com/adeilh/go-empdir/cache/redis"
	"github.com/adeilh/go-empdir/config"
	"github.com/adeilh/go-empdir/db/sql/postgres"
	"github.com/adeilh/go-empdir/httpx"
	"github.com/adeilh/go-empdir/web"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		if !errors.Is(err, context.Canceled) {
			logger.Error("server exited", "error", err)
			os.Exit(1)
		}
	}
	logger.Info("server stopped")
}

func run(logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	dbCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	db, err := postgres.Open(dbCtx, postgres.WithDSN(cfg.DatabaseURL), postgres.WithMaxOpenConns(cfg.MaxConnections))
	cancel()
	if err != nil {
		return err
	}
	defer db.Close()

	schemaCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	err = postgres.EnsureSchema(schemaCtx, db)
	cancel()
	if err != nil {
		return err
	}
	logger.Info("postgres connected")

	store := cacheredis.NewStore(cacheredis.Options{Addr: cfg.RedisAddr})
	defer store.Close()
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	err = store.Ping(pingCtx)
	cancel()
	if err != nil {
		return err
	}
	logger.Info("redis connected")

	repo := postgres.NewStaffRepository(db)

	codec, err := auth.NewTokenCodec([]byte(cfg.TokenSecret))
	if err != nil {
		return err
	}
	hasher := auth.NewArgon2idHasher()
	verifier, err := auth.NewCredentialVerifier(repo, hasher, logger)
	if err != nil {
		return err
	}
	identities := auth.NewIdentityStore(store, auth.IdentityStoreOptions{})

	tracker, err := auth.NewContinuityTracker(auth.ContinuityConfig{
		Codec:      codec,
		Identities: identities,
		Validity:   cfg.TokenValidity(),
		Logger:     logger,
	})
	if err != nil {
		return err
	}
	gate, err := auth.RequestGate(auth.GateConfig{Tracker: tracker, Logger: logger})
	if err != nil {
		return err
	}

	renderer, err := web.NewRenderer()
	if err != nil {
		return err
	}
	authHandlers, err := web.NewAuthHandlers(web.AuthHandlersConfig{
		Verifier:   verifier,
		Codec:      codec,
		Identities: identities,
		Renderer:   renderer,
		Validity:   cfg.TokenValidity(),
		Logger:     logger,
	})
	if err != nil {
		return err
	}
	employeeHandlers, err := web.NewEmployeeHandlers(repo, renderer, logger)
	if err != nil {
		return err
	}

	corsCfg := middleware.DefaultCORSConfig
	corsCfg.AllowOrigins = []string{cfg.AllowedOrigin}
	corsCfg.AllowCredentials = true
	corsCfg.MaxAge = cfg.MaxAge

	server := httpx.NewServer(
		httpx.WithAddress(cfg.Address),
		httpx.WithCORS(&corsCfg),
		httpx.AppendMiddlewares(gate),
	)
	server.RegisterRoutes(web.Router{Auth: authHandlers, Employees: employeeHandlers}.Register)

	logger.Info("listening", "address", cfg.Address)
	return server.Start(ctx)
}
