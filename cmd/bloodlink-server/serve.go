package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/bloodlink/bloodlink/internal/config"
	"github.com/bloodlink/bloodlink/internal/domain/account"
	"github.com/bloodlink/bloodlink/internal/domain/bloodtype"
	"github.com/bloodlink/bloodlink/internal/domain/event"
	"github.com/bloodlink/bloodlink/internal/domain/inventory"
	"github.com/bloodlink/bloodlink/internal/domain/procedure"
	"github.com/bloodlink/bloodlink/internal/domain/registration"
	"github.com/bloodlink/bloodlink/internal/domain/report"
	"github.com/bloodlink/bloodlink/internal/domain/screening"
	"github.com/bloodlink/bloodlink/internal/domain/volunteer"
	"github.com/bloodlink/bloodlink/internal/platform/apiresp"
	"github.com/bloodlink/bloodlink/internal/platform/auth"
	"github.com/bloodlink/bloodlink/internal/platform/cache"
	"github.com/bloodlink/bloodlink/internal/platform/db"
	"github.com/bloodlink/bloodlink/internal/platform/metrics"
	"github.com/bloodlink/bloodlink/internal/platform/middleware"
	"github.com/bloodlink/bloodlink/internal/platform/websocket"
)

const version = "0.1.0"

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func runServer() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := newLogger(cfg.IsDev())
	if err := cfg.Validate(); err != nil {
		logger.Error().Err(err).Msg("invalid configuration")
		return err
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, db.PoolOptions{
		URL:      cfg.DatabaseURL,
		MaxConns: cfg.DBMaxConns,
		MinConns: cfg.DBMinConns,
	})
	if err != nil {
		logger.Error().Err(err).Msg("failed to connect to database")
		return err
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	redisClient, err := cache.New(ctx, cfg.RedisURL)
	if err != nil {
		logger.Error().Err(err).Msg("failed to connect to redis")
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
		logger.Info().Msg("connected to redis")
	}

	e, cleanup, err := buildServer(cfg, pool, redisClient, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Str("env", cfg.Env).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server shutdown failed")
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}

// buildServer wires every component into an echo instance. The returned
// cleanup stops background workers.
func buildServer(cfg *config.Config, pool *pgxpool.Pool, redisClient *cache.Client, logger zerolog.Logger) (*echo.Echo, func(), error) {
	signingKey, err := cfg.SigningKey()
	if err != nil {
		return nil, nil, err
	}

	m := metrics.New()
	bloodtype.SetLogger(logger.With().Str("component", "bloodtype").Logger())
	bloodtype.SetFallbackObserver(m.CodecFallback)

	tokens := auth.NewTokenIssuer(signingKey, cfg.AuthIssuer, cfg.AuthTokenTTL)
	var revocations auth.RevocationList
	var statsCache report.Cache
	var deps []db.Dependency
	stopRevocations := func() {}
	if redisClient != nil {
		revocations = auth.NewRedisRevocations(redisClient.Client)
		statsCache = redisClient
		deps = append(deps, redisClient)
	} else {
		mem := auth.NewMemoryRevocations(time.Minute)
		revocations = mem
		stopRevocations = mem.Close
	}

	hub := websocket.NewHub(logger.With().Str("component", "websocket").Logger())

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = apiresp.ErrorHandler(logger)

	rateLimitCfg := middleware.DefaultRateLimitConfig()
	rateLimitCfg.RequestsPerSecond = cfg.RateLimitRPS
	rateLimitCfg.BurstSize = cfg.RateLimitBurst
	rateLimitCfg.Skipper = auth.InfraSkipper

	jwt := auth.JWTMiddleware(auth.JWTConfig{Tokens: tokens, Revocations: revocations, Logger: logger})

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.SecurityHeaders())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))
	e.Use(m.Middleware(auth.InfraSkipper))
	e.Use(middleware.BodyLimit(cfg.BodyLimit))
	e.Use(middleware.RequestTimeout(cfg.RequestTimeout))
	e.Use(middleware.RateLimit(rateLimitCfg))
	if cfg.IsDev() {
		e.Use(auth.DevAuthMiddleware(jwt))
	} else {
		e.Use(jwt)
	}
	e.Use(middleware.Audit(logger))

	// Infrastructure
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok", "version": version})
	})
	e.GET("/health/db", db.HealthHandler(pool, deps...))
	e.GET("/metrics", m.Handler())

	root := e.Group("")
	api := e.Group("/api")
	websocket.NewHandler(hub, tokens, cfg.CORSOrigins).RegisterRoutes(root)

	tx := db.NewTransactor(pool)
	screeningSvc := screening.NewService(m)

	accountSvc := account.NewService(account.NewRepo(pool), tokens, revocations, logger)
	eventSvc := event.NewService(event.NewRepo(pool), hub, logger)
	registrationSvc := registration.NewService(registration.NewRepo(pool), eventSvc, accountSvc, tx, m, logger)
	inventorySvc := inventory.NewService(inventory.NewRepo(pool), hub, logger)
	procedureSvc := procedure.NewService(procedure.Deps{
		Repo:          procedure.NewRepo(pool),
		Registrations: registrationSvc,
		Units:         inventorySvc,
		BloodTypes:    accountSvc,
		Screening:     screeningSvc,
		Tx:            tx,
		Logger:        logger,
	})
	reportSvc := report.NewService(report.NewRepo(pool), statsCache, cfg.StatsCacheTTL, logger)
	volunteerSvc := volunteer.NewService(volunteer.NewRepo(pool), hub, logger)

	account.NewHandler(accountSvc).RegisterRoutes(api, root)
	bloodtype.NewHandler().RegisterRoutes(api)
	screening.NewHandler(screeningSvc).RegisterRoutes(api)
	event.NewHandler(eventSvc).RegisterRoutes(api)
	registration.NewHandler(registrationSvc).RegisterRoutes(api)
	procedure.NewHandler(procedureSvc).RegisterRoutes(api)
	inventory.NewHandler(inventorySvc).RegisterRoutes(api)
	report.NewHandler(reportSvc).RegisterRoutes(api)
	volunteer.NewHandler(volunteerSvc).RegisterRoutes(api)

	poolCtx, stopPool := context.WithCancel(context.Background())
	go samplePool(poolCtx, pool, m)

	cleanup := func() {
		stopPool()
		stopRevocations()
	}
	return e, cleanup, nil
}

// samplePool copies pool usage into the metrics until ctx ends.
func samplePool(ctx context.Context, pool *pgxpool.Pool, m *metrics.Metrics) {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()
	for {
		stat := pool.Stat()
		m.SetDBPool(stat.AcquiredConns(), stat.IdleConns())
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
