package main

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/kubi-stream/kubi-auth/adapters/events"
	"github.com/kubi-stream/kubi-auth/adapters/store"
	"github.com/kubi-stream/kubi-auth/adapters/tokenizer"
	"github.com/kubi-stream/kubi-auth/internal/config"
	"github.com/kubi-stream/kubi-auth/internal/logger"
	"github.com/kubi-stream/kubi-auth/service"
	transport "github.com/kubi-stream/kubi-auth/transport/http"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init("kubi-auth", cfg.Debug)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Fatal().Err(err).Msg("service exited")
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	signKey, err := loadSigningKey(cfg.SigningKeyFile)
	if err != nil {
		return fmt.Errorf("failed to load signing key: %w", err)
	}

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to create postgres pool: %w", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("failed to ping postgres: %w", err)
	}

	pgStore := store.NewPostgresStore(pool)
	if cfg.DBAutoMigrate {
		if err := pgStore.Migrate(ctx); err != nil {
			return err
		}
	}

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("failed to parse redis URL: %w", err)
	}
	redisClient := redis.NewClient(redisOpts)
	defer redisClient.Close()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to ping redis: %w", err)
	}

	publisher, err := redisstream.NewPublisher(
		redisstream.PublisherConfig{Client: redisClient},
		watermill.NewStdLogger(cfg.Debug, false),
	)
	if err != nil {
		return fmt.Errorf("failed to create event publisher: %w", err)
	}

	authService := service.NewAuthService(
		tokenizer.NewJWTTokenizer(signKey, cfg.SignInDomain),
		store.NewRedisNonceStore(redisClient),
		pgStore,
		pgStore,
		events.NewWatermillPublisher(publisher),
		service.Config{
			ChallengeTTL:  cfg.ChallengeTTL,
			SessionTTL:    cfg.SessionTTL,
			SingleSession: cfg.SingleSession,
		},
	)

	router := transport.SetupRouter(authService, transport.RouterConfig{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		SecureCookies:  cfg.SecureCookies,
	})

	server := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return server.Shutdown(shutdownCtx)
}

// loadSigningKey reads a PEM-encoded EC private key, or generates an
// ephemeral one when no path is configured.
func loadSigningKey(path string) (*ecdsa.PrivateKey, error) {
	if path == "" {
		log.Warn().Msg("no signing key configured, generating ephemeral key")
		return ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	block, _ := pem.Decode(raw)
	if block == nil {
		return nil, fmt.Errorf("no PEM block in %s", path)
	}

	return x509.ParseECPrivateKey(block.Bytes)
}
