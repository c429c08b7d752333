package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/hardwerkerz/werk/internal/api"
	"github.com/hardwerkerz/werk/internal/api/handler"
	"github.com/hardwerkerz/werk/internal/api/session"
	"github.com/hardwerkerz/werk/internal/api/view"
	"github.com/hardwerkerz/werk/internal/core/service"
	"github.com/hardwerkerz/werk/internal/infrastructure/db/redis"
	"github.com/hardwerkerz/werk/internal/infrastructure/remote"
	"github.com/hardwerkerz/werk/internal/pkg/config"
	"github.com/hardwerkerz/werk/pkg/logger"
)

const sweepInterval = 5 * time.Minute

func setupRedis(ctx context.Context, cfg *config.Config, log zerolog.Logger) *goredis.Client {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := redis.Connect(ctx, redis.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		log.Fatal().Err(err).Str("addr", cfg.Redis.Addr).Msg("failed to connect to redis")
	}
	return client
}

func setupRemote(cfg *config.Config, log zerolog.Logger) *remote.Client {
	client, err := remote.New(cfg.API.BaseURL, log.With().Str("component", "remote").Logger(),
		remote.WithHTTPTimeout(cfg.API.Timeout),
		remote.WithDebugLogging(cfg.API.Debug),
	)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create api client")
	}
	if cfg.API.Debug && cfg.Production() {
		log.Warn().Msg("api debug logging is on in production; request dumps include bearer tokens")
	}
	return client
}

func runGracefulShutdown(e *echo.Echo, stopSweeper context.CancelFunc, log zerolog.Logger) <-chan struct{} {
	done := make(chan struct{})
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Info().Msg("shutdown signal received, cleaning up")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := e.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("server shutdown error")
		}
		stopSweeper()

		close(done)
	}()

	return done
}

func main() {
	clock := clockwork.NewRealClock()
	cfg := config.Load()

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  !cfg.Production(),
		Service: "werk",
	})
	log.Info().Str("env", cfg.Env).Str("port", cfg.Port).Msg("application starting")

	rdb := setupRedis(context.Background(), cfg, log)
	defer func() { _ = rdb.Close() }()

	client := setupRemote(cfg, log)

	workspaces := service.NewWorkspaceRegistry(client, clock, cfg.Session.IdleTimeout, logger.Component("workspaces"))
	sweepCtx, stopSweeper := context.WithCancel(context.Background())
	go workspaces.Run(sweepCtx, sweepInterval)

	sessions := service.NewSessionService(
		client,
		redis.NewSessionRepository(rdb),
		workspaces,
		cfg.Session.MaxAge,
		clock,
		logger.Component("sessions"),
	)

	renderer, err := view.New()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to parse templates")
	}

	e := api.NewRouter(api.Deps{
		Log:        log,
		Sessions:   sessions,
		Workspaces: workspaces,
		Cookies:    session.NewStore(cfg.Session.Secret, cfg.Session.MaxAge, cfg.Production()),
		Renderer:   renderer,
		Checks: map[string]handler.Check{
			"redis": func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
			"api":   client.Ping,
		},
		Registerer:    prometheus.DefaultRegisterer,
		Gatherer:      prometheus.DefaultGatherer,
		SecureCookies: cfg.Production(),
	})

	done := runGracefulShutdown(e, stopSweeper, log)

	log.Info().Str("addr", ":"+cfg.Port).Msg("listening")
	if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("server error")
	}

	<-done
	log.Info().Msg("server stopped")
}
