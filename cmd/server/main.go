package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"aulabook/internal/api"
	"aulabook/internal/cache"
	"aulabook/internal/config"
	"aulabook/internal/database"
	"aulabook/internal/events"
	"aulabook/internal/metrics"
	"aulabook/internal/service"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	logger := zerolog.New(output).With().Timestamp().Logger()

	cfg, err := config.Load(os.Getenv("AULABOOK_CONFIG_PATH"))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if cfg.Auth.JWTSecret == "" {
		logger.Fatal().Msg("set auth.jwt_secret in config")
	}

	loc, err := cfg.Location()
	if err != nil {
		logger.Fatal().Err(err).Str("timezone", cfg.Booking.Timezone).Msg("invalid timezone")
	}

	db, err := database.New(cfg.Database.Path)
	if err != nil {
		logger.Fatal().Err(err).Msg("open db error")
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bus := events.NewEventBus()
	bus.SubscribeAll(func(e events.Event) {
		logger.Debug().
			Str("event", e.Type).
			Int64("reservation_id", e.ReservationID).
			Int64("room_id", e.RoomID).
			Msg("event published")
	})

	var rdb *redis.Client
	var scheduleCache *cache.ScheduleCache
	if cfg.Redis.Address != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		scheduleCache = cache.New(rdb, cfg.CacheTTL(), logger)
		scheduleCache.Subscribe(bus)
	}

	metrics.Register()

	svc := service.New(db, bus, loc, logger)

	sweeper := service.NewSweeper(svc, cfg.SweepInterval(), logger)
	sweeper.Start()
	defer sweeper.Stop()

	server := api.NewServer(svc, scheduleCache, logger, api.Options{
		JWTSecret:       cfg.Auth.JWTSecret,
		SubmitPerMinute: cfg.Booking.SubmitPerMinute,
		SubmitBurst:     cfg.Booking.SubmitBurst,
		Ready: func(ctx context.Context) error {
			ctxPing, cancel := context.WithTimeout(ctx, time.Second)
			defer cancel()
			if err := db.PingContext(ctxPing); err != nil {
				return err
			}
			if rdb != nil {
				return rdb.Ping(ctxPing).Err()
			}
			return nil
		},
	})

	if cfg.Monitoring.PrometheusEnabled {
		if cfg.Monitoring.PrometheusPort == 0 {
			cfg.Monitoring.PrometheusPort = 9090
		}
		go startMetricsServer(ctx, cfg.Monitoring.PrometheusPort, &logger)
	}

	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(ctxShutdown); err != nil {
			logger.Error().Err(err).Msg("api shutdown error")
		}
	}()

	logger.Info().Str("timezone", cfg.Booking.Timezone).Msg("aulabook started")
	if err := server.Start(cfg.Server.Port); err != nil {
		logger.Fatal().Err(err).Msg("api server error")
	}
	logger.Info().Msg("aulabook stopped")
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
