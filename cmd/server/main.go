package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"playerservice/internal/events"
	"playerservice/internal/jwtauth"
	"playerservice/internal/platform/config"
	"playerservice/internal/platform/httpserver"
	"playerservice/internal/platform/logger"
	"playerservice/internal/platform/metrics"
	"playerservice/internal/platform/middleware"
	"playerservice/internal/platform/redis"
	"playerservice/internal/profile/handler"
	"playerservice/internal/profile/service"
	"playerservice/internal/profile/store"
)

const shutdownTimeout = 15 * time.Second

func main() {
	if err := run(); err != nil {
		os.Exit(1)
	}
}

func run() error {
	cfg := config.FromEnv()
	log := logger.New()
	m := metrics.New()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Profile store: Postgres when configured, in-memory otherwise.
	var profileStore store.Store
	if cfg.Postgres.URL != "" {
		pg, err := store.NewPostgres(ctx, cfg.Postgres.URL)
		if err != nil {
			log.Error("failed to connect to postgres", "error", err)
			return err
		}
		defer pg.Close()

		if err := pg.RunMigrations(ctx); err != nil {
			log.Error("failed to run migrations", "error", err)
			return err
		}
		profileStore = pg
		log.Info("using postgres profile store")
	} else {
		profileStore = store.NewInMemory()
		log.Warn("POSTGRES_URL not set, using in-memory profile store")
	}

	redisClient, err := redis.New(cfg.Redis)
	if err != nil {
		log.Error("failed to connect to redis", "error", err)
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
		profileStore = store.NewCached(profileStore, redisClient, log)
		log.Info("profile cache enabled")
	}

	svcOpts := []service.Option{
		service.WithLogger(log),
		service.WithMetrics(m),
	}

	var statsProducer *events.StatsProducer
	if cfg.Kafka.Enabled {
		statsProducer, err = events.NewStatsProducer(cfg.Kafka, log)
		if err != nil {
			log.Error("failed to create stats producer", "error", err)
			return err
		}
		defer statsProducer.Close()
		svcOpts = append(svcOpts, service.WithStatsPublisher(events.NewGuardedPublisher(statsProducer, log)))
	}

	svc, err := service.New(profileStore, svcOpts...)
	if err != nil {
		log.Error("failed to create profile service", "error", err)
		return err
	}

	var consumer *events.Consumer
	if cfg.Kafka.Enabled {
		consumer, err = events.NewConsumer(cfg.Kafka, svc, log, m)
		if err != nil {
			log.Error("failed to create Kafka consumer", "error", err)
			return err
		}
		if err := consumer.Start(); err != nil {
			log.Error("failed to start Kafka consumer", "error", err)
			return err
		}
	} else {
		log.Warn("Kafka disabled, inbound events will not be consumed")
	}

	codec := jwtauth.New(cfg.JWT.SigningKey, cfg.JWT.Issuer, cfg.JWT.TTL)

	router := chi.NewRouter()
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.Authenticate(codec, log, m))

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		if redisClient != nil {
			if err := redisClient.Health(r.Context()); err != nil {
				http.Error(w, "cache unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
	})
	router.Handle("/metrics", promhttp.Handler())

	handler.New(log, svc).Register(router)

	server := httpserver.New(cfg.Addr, router)

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-errCh:
		log.Error("server failed", "error", err)
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if consumer != nil {
		if err := consumer.Stop(); err != nil {
			log.Error("consumer shutdown failed", "error", err)
		}
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown failed", "error", err)
		return err
	}

	log.Info("server stopped")
	return nil
}
