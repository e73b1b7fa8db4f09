package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/parleychat/parley/config"
	"github.com/parleychat/parley/src/api"
	"github.com/parleychat/parley/src/auth"
	"github.com/parleychat/parley/src/cache"
	"github.com/parleychat/parley/src/hub"
	"github.com/parleychat/parley/src/service"
	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// run wires the process so that every defer executes before exit and the
// entry point stays trivially testable.
func run() error {
	// Configuration and logger. The .env load is best-effort; a missing
	// file just means the environment is already populated.
	_ = godotenv.Load()

	var cfg config.Config
	if _, err := env.UnmarshalFromEnviron(&cfg); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("config: bad LOG_LEVEL %q: %w", cfg.LogLevel, err)
	}
	logger := zerolog.New(os.Stderr).Level(level).With().Timestamp().Logger()

	// Document store.
	db, err := badger.Open(badger.DefaultOptions(cfg.BadgerPath).WithLogger(nil))
	if err != nil {
		return fmt.Errorf("open badger at %s: %w", cfg.BadgerPath, err)
	}
	defer func() {
		logger.Info().Msg("closing badger")
		_ = db.Close()
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Optional read cache. Disabled when REDIS_ADDR is unset or Redis is
	// unreachable; the store stays authoritative either way.
	var msgCache *cache.Cache
	if cfg.RedisAddr != "" {
		msgCache = cache.Connect(ctx, cfg.RedisAddr, cfg.CachePrefix, cfg.CacheTTL, logger)
		defer msgCache.Close()
	}

	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.SessionTTL)
	svc := service.New(db, msgCache, tokens, logger)

	// Socket hub. Socket identity is bound to verified session tokens
	// unless explicitly relaxed for local development.
	h := hub.New(logger)
	if cfg.BindSocketID {
		h.SetIdentityVerifier(func(token string) (string, error) {
			claims, err := svc.VerifySession(token)
			if err != nil {
				return "", err
			}
			return claims.UserID, nil
		})
	}
	go h.Run()
	defer h.Stop()

	server := api.New(svc, h, logger)

	errChan := make(chan error, 1)
	go func() {
		addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
		logger.Info().Str("addr", addr).Time("at", time.Now().UTC()).
			Msg("server listening")
		if err := server.Listen(addr); err != nil {
			errChan <- fmt.Errorf("server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info().Msg("shutting down gracefully")
	case err := <-errChan:
		return err
	}

	if err := server.Shutdown(); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info().Msg("stopped cleanly")
	return nil
}
