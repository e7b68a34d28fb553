package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"pet-identity-registry/internal/adapters/auth/jwt"
	"pet-identity-registry/internal/adapters/auth/remote"
	rediscache "pet-identity-registry/internal/adapters/cache/redis"
	"pet-identity-registry/internal/adapters/notify/kafka"
	"pet-identity-registry/internal/adapters/objectstore/supabase"
	pg "pet-identity-registry/internal/adapters/storage/postgres"
	"pet-identity-registry/internal/platform/config"
	"pet-identity-registry/internal/platform/logger"
	"pet-identity-registry/internal/platform/metrics"
	"pet-identity-registry/internal/ports/auth"
	"pet-identity-registry/internal/router"

	"golang.org/x/sync/errgroup"
)

// @title       Pet Identity Registry API
// @version     1.0
// @description Registro de mascotas por huella de nariz, reportes de extravío y verificación.
// @BasePath    /
// @securityDefinitions.apikey BearerAuth
// @in   header
// @name Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	log := logger.New(logger.Options{Level: cfg.Log.Level, Format: cfg.Log.Format, App: cfg.App.Name})

	if err := run(cfg, log); err != nil {
		log.Error("server stopped with error", map[string]any{"error": err.Error()})
		os.Exit(1)
	}
}

func run(cfg *config.Config, log logger.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := router.Options{
		Logger:        log,
		Metrics:       metrics.New(),
		MaxPhotoBytes: cfg.Photos.MaxBytes,
	}

	verifier, err := newVerifier(cfg.Auth)
	if err != nil {
		return fmt.Errorf("auth verifier: %w", err)
	}
	opts.AuthVerifier = verifier
	log.Info("auth configured", map[string]any{"mode": cfg.Auth.Mode})

	if cfg.Database.DSN != "" {
		pool, err := pg.NewPool(ctx, cfg.Database)
		if err != nil {
			return err
		}
		defer pool.Close()

		if cfg.Database.AutoMigrate {
			if err := pg.Migrate(ctx, pool, log); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
		}
		opts.Pool = pool
		log.Info("storage: postgres", nil)
	} else {
		log.Warn("storage: in-memory (DATABASE_DSN not set)", nil)
	}

	rc, err := rediscache.NewClient(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	if rc != nil {
		defer rc.Close()
		opts.FingerprintCache = rediscache.NewFingerprintCache(rc, cfg.Redis.FingerprintTTL)
		log.Info("fingerprint cache: redis", map[string]any{"ttl": cfg.Redis.FingerprintTTL.String()})
	}

	if cfg.Storage.BaseURL != "" {
		up, err := supabase.NewUploader(supabase.Config{
			BaseURL: cfg.Storage.BaseURL,
			APIKey:  cfg.Storage.APIKey,
			Bucket:  cfg.Storage.Bucket,
			Timeout: cfg.Storage.Timeout,
		})
		if err != nil {
			return fmt.Errorf("object storage: %w", err)
		}
		opts.Uploader = up
	}

	if cfg.Kafka.Brokers != "" {
		n, err := kafka.NewNotifier(cfg.Kafka)
		if err != nil {
			return err
		}
		defer n.Close()
		opts.Notifier = n
		log.Info("report notifications: kafka", map[string]any{"topic": cfg.Kafka.Topic})
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router.NewRouter(opts),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting server", map[string]any{"addr": srv.Addr})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down", nil)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// newVerifier: dev = nil (X-Debug-User-ID), jwt = HS256 local, remote = servicio de auth.
func newVerifier(cfg config.AuthConfig) (auth.AuthVerifier, error) {
	switch cfg.Mode {
	case config.AuthModeJWT:
		return jwt.NewVerifier(cfg.JWTSecret, cfg.JWTIssuer)
	case config.AuthModeRemote:
		return remote.NewVerifier(remote.Config{
			BaseURL: cfg.RemoteBaseURL,
			APIKey:  cfg.RemoteAPIKey,
			Timeout: cfg.RemoteTimeout,
		})
	default:
		return nil, nil
	}
}

