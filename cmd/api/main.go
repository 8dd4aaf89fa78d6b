package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"wcu-registry/internal/adapters/auth/supabase"
	"wcu-registry/internal/adapters/email/sendgrid"
	"wcu-registry/internal/adapters/objectstore/gcs"
	"wcu-registry/internal/adapters/payments/stripe"
	pg "wcu-registry/internal/adapters/storage/postgres"
	"wcu-registry/internal/platform/config"
	"wcu-registry/internal/platform/logger"
	"wcu-registry/internal/platform/metrics"
	"wcu-registry/internal/platform/ratelimit"
	"wcu-registry/internal/router"
)

// @title WCU Dog Registry API
// @version 1.0
// @description Registro de perros, certificados, memoriales, pedidos de cambios y soporte.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	log := logger.New(logger.Options{
		Level:  logger.ParseLevel(cfg.Log.Level),
		Format: logger.ParseFormat(cfg.Log.Format),
		App:    cfg.App.Name,
	})
	defer logger.Sync(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server error", map[string]any{"error": err})
		logger.Sync(log)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log logger.Logger) error {
	opts := router.Options{
		Config:  cfg,
		Logger:  log,
		Metrics: metrics.Default(),
	}

	if cfg.DB.DSN != "" {
		db, err := pg.Open(cfg.DB.DSN)
		if err != nil {
			return fmt.Errorf("open postgres: %w", err)
		}
		defer db.Close()
		opts.DB = db
	} else {
		log.Warn("DB_DSN not set, using in-memory storage", nil)
	}

	if cfg.Auth.DevMode {
		// sin verifier para modo dev
		log.Warn("auth dev mode: X-Debug-User-ID headers are trusted", nil)
	} else {
		opts.AuthVerifier = supabase.NewVerifier(supabase.Config{
			JWTSecret: cfg.Auth.JWTSecret,
			Audience:  "authenticated",
			Leeway:    30 * time.Second,
		})
	}

	if cfg.Payments.StripeSecretKey != "" {
		g, err := stripe.New(stripe.Config{
			SecretKey:     cfg.Payments.StripeSecretKey,
			WebhookSecret: cfg.Payments.StripeWebhookSecret,
		})
		if err != nil {
			return err
		}
		opts.Gateway = g
	} else {
		log.Warn("stripe not configured, checkout disabled", nil)
	}

	if cfg.Email.SendGridAPIKey != "" {
		s, err := sendgrid.New(sendgrid.Config{
			APIKey:    cfg.Email.SendGridAPIKey,
			FromEmail: cfg.Email.FromEmail,
			FromName:  cfg.Email.FromName,
		})
		if err != nil {
			return err
		}
		opts.Mailer = s
	}

	if cfg.Storage.GCSBucket != "" {
		store, err := gcs.New(ctx, gcs.Config{
			Bucket:        cfg.Storage.GCSBucket,
			PublicBaseURL: cfg.Storage.PublicBaseURL,
			Credentials:   cfg.Storage.Credentials,
		})
		if err != nil {
			return err
		}
		defer store.Close()
		opts.Store = store
	}

	if cfg.Redis.URL != "" {
		client, err := ratelimit.Open(ctx, cfg.Redis.URL)
		if err != nil {
			// El rate limit sigue funcionando en memoria.
			log.Warn("redis unavailable, using in-memory rate limit", map[string]any{"error": err})
		} else {
			defer client.Close()
			opts.Limiter = ratelimit.NewRedis(client, time.Minute)
		}
	}

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router.NewRouter(opts),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting server", map[string]any{"addr": srv.Addr})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down", nil)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
