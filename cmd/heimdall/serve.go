package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/roeintheglasses/heimdall/internal/api"
	"github.com/roeintheglasses/heimdall/internal/config"
	"github.com/roeintheglasses/heimdall/internal/downstream"
	"github.com/roeintheglasses/heimdall/internal/live"
	"github.com/roeintheglasses/heimdall/internal/metrics"
	"github.com/roeintheglasses/heimdall/internal/ratelimit"
	"github.com/roeintheglasses/heimdall/internal/relay"
	"github.com/roeintheglasses/heimdall/internal/store"
)

func runServe(ctx context.Context, port string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if port != "" {
		cfg.Port = port
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	if !cfg.SignatureVerificationEnabled() {
		logger.Warn("GITHUB_WEBHOOK_SECRET is empty, GitHub signatures will not be verified")
	}

	checks := make(map[string]api.HealthCheck)

	// Redis is optional: it backs the stats cache and the shared rate limiter.
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		rc, err := store.OpenRedis(ctx, cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("connect to redis: %w", err)
		}
		defer rc.Close()
		redisClient = rc
		checks["redis"] = store.PingCheck(rc)
		logger.Info("connected to Redis")
	}

	forwarder := relay.NewForwarder(cfg.DownstreamURL, cfg.DownstreamTimeout, logger)
	rl := relay.New(relay.NewVerifier(cfg.WebhookSecret), forwarder, logger)
	logger.Info("relay configured",
		"downstream", forwarder.Endpoint(),
		"signature_verification", cfg.SignatureVerificationEnabled(),
	)

	client := downstream.NewClient(cfg.DownstreamURL, cfg.DownstreamTimeout)
	stats := store.NewStatsCache(client, redisClient, store.DefaultStatsTTL, logger)

	hub := live.NewHub(logger)
	go hub.Run(ctx)

	poller := live.NewPoller(client, hub, cfg.PollInterval, logger)
	go poller.Start(ctx)

	var limiter ratelimit.Limiter
	if cfg.RateLimitRPS > 0 {
		if redisClient != nil {
			window := ratelimit.Window(cfg.RateLimitRPS, cfg.RateLimitBurst)
			limiter = ratelimit.NewRedisLimiter(redisClient, cfg.RateLimitBurst, window, logger)
		} else {
			ml := ratelimit.NewMemoryLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
			go ml.Run(ctx, time.Minute)
			limiter = ml
		}
		logger.Info("webhook rate limiting enabled", "rps", cfg.RateLimitRPS, "burst", cfg.RateLimitBurst)
	}

	router := api.NewRouter(api.Deps{
		Config:  cfg,
		Relay:   rl,
		Stats:   stats,
		Hub:     hub,
		Metrics: metrics.New(),
		Limiter: limiter,
		Checks:  checks,
		Logger:  logger,
	})

	// WriteTimeout stays zero: SSE and WebSocket responses are long-lived.
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", "port", cfg.Port, "env", cfg.AppEnv, "version", cfg.Version)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("server stopped")
	return nil
}
