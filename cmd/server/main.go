package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"loanflow/internal/api"
	"loanflow/internal/common/config"
	"loanflow/internal/common/database"
	"loanflow/internal/common/logger"
	"loanflow/internal/conversation"
	"loanflow/internal/eligibility"
	"loanflow/internal/llm"
	"loanflow/internal/profile"
	"loanflow/internal/sanctions"
	"loanflow/internal/session"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewStructured(cfg.Logging.Level, cfg.Logging.Format)
	log.Info("starting server", map[string]interface{}{
		"app":         cfg.App.Name,
		"version":     cfg.App.Version,
		"environment": cfg.App.Environment,
	})

	sessions, redisClient := buildSessionStore(cfg, log)
	if redisClient != nil {
		defer redisClient.Close()
	}

	profiles := profile.NewStore(cfg.Profiles, log)
	screener := sanctions.NewScreener(cfg.Sanctions, log)
	llmClient := llm.NewClient(cfg.LLM, log)
	calc := eligibility.NewCalculator(cfg.Loan)

	orch := conversation.New(sessions, profiles, screener, llmClient, calc, log)
	server := api.NewServer(orch, sessions, profiles, api.Options{
		AllowedOrigins:    cfg.Server.AllowedOrigins,
		RateLimitRequests: cfg.Server.RateLimit.Requests,
		RateLimitWindow:   cfg.Server.RateLimit.Window,
		AppName:           cfg.App.Name,
		AppVersion:        cfg.App.Version,
	}, log)

	httpServer := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      server.Router(),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", map[string]interface{}{"addr": cfg.Server.Addr})
		errCh <- httpServer.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			log.Error("server failed", map[string]interface{}{"error": err.Error()})
			os.Exit(1)
		}
	case sig := <-quit:
		log.Info("shutting down", map[string]interface{}{"signal": sig.String()})
		ctx, cancel := context.WithTimeout(context.Background(),
			time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(ctx); err != nil {
			log.Error("graceful shutdown failed", map[string]interface{}{"error": err.Error()})
		}
	}

	log.Info("server stopped", nil)
}

// buildSessionStore selects the session backend: Redis when an address is
// configured and reachable, in-memory otherwise. The Redis connection is
// retried with backoff before falling back.
func buildSessionStore(cfg *config.Config, log logger.Logger) (session.Store, *database.RedisClient) {
	ttl := time.Duration(cfg.Database.Redis.SessionTTL) * time.Second

	if cfg.Database.Redis.Address == "" {
		log.Info("using in-memory session store", nil)
		return session.NewMemoryStore(ttl), nil
	}

	client, err := database.NewRedis(cfg.Database.Redis)
	if err == nil {
		for attempt := 1; attempt <= 3; attempt++ {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			err = client.Ping(ctx)
			cancel()
			if err == nil {
				log.Info("using redis session store", map[string]interface{}{
					"address": cfg.Database.Redis.Address,
				})
				return session.NewRedisStore(client, ttl), client
			}
			backoff := time.Duration(100*(1<<(attempt-1))) * time.Millisecond
			log.Warn("redis ping failed, retrying", map[string]interface{}{
				"attempt": attempt,
				"backoff": backoff.String(),
				"error":   err.Error(),
			})
			time.Sleep(backoff)
		}
		_ = client.Close()
	}

	log.Warn("redis unavailable, falling back to in-memory session store", map[string]interface{}{
		"error": err.Error(),
	})
	return session.NewMemoryStore(ttl), nil
}
