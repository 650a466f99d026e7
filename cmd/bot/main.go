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

	"salonbot/internal/booking"
	"salonbot/internal/bot"
	"salonbot/internal/catalog"
	"salonbot/internal/config"
	"salonbot/internal/conversation"
	"salonbot/internal/database"
	"salonbot/internal/events"
	"salonbot/internal/floodguard"
	"salonbot/internal/metrics"
	"salonbot/internal/reminders"
)

func main() {
	_ = godotenv.Load()

	output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	logger := zerolog.New(output).With().Timestamp().Logger()

	cfg, err := config.Load(os.Getenv("SALONBOT_CONFIG_PATH"))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	if cfg.Telegram.BotToken == "" || cfg.Telegram.BotToken == "YOUR_BOT_TOKEN_HERE" {
		logger.Fatal().Msg("set telegram.bot_token in config")
	}

	db, err := database.NewDB(cfg.Database.Path, &logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("open db error")
	}
	defer db.Close()

	cat := catalog.New(db, logger)
	var rdb *redis.Client
	if cfg.Redis.Address != "" && cfg.Catalog.CacheTTLSeconds > 0 {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.Redis.Address, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		cat.UseRedisCache(rdb, cfg.CatalogCacheTTL())
	}

	bus := events.NewBus()
	engine := booking.New(db, booking.Rules{
		MaxActivePerUser: cfg.MaxActivePerUser(),
		CancelLead:       cfg.CancelLead(),
	}, bus, logger)

	guard := floodguard.New(floodguard.Config{
		PerMinuteLimit: cfg.FloodPerMinute(),
		PerHourLimit:   cfg.FloodPerHour(),
		BlockDuration:  cfg.FloodBlock(),
		SessionTimeout: cfg.SessionTimeout(),
	}, logger)

	handler := conversation.NewHandler(guard, engine, cat, cfg.SessionTimeout(), logger)

	b, err := bot.New(cfg.Telegram.BotToken, handler, engine, cat, guard, cfg.Admins, &logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("create bot error")
	}

	bus.Subscribe(events.TypeBookingCreated, b.HandleBookingEvent)
	bus.Subscribe(events.TypeBookingCancelled, b.HandleBookingEvent)
	bus.Subscribe(events.TypeBookingMoved, b.HandleBookingEvent)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	selector := reminders.New(engine, b, reminders.Config{
		Interval:  cfg.ReminderInterval(),
		SendRate:  cfg.Reminders.SendRate,
		SendBurst: cfg.Reminders.SendBurst,
	}, logger)
	go selector.Run(ctx)

	go runFloodSweep(ctx, guard, cfg.FloodSweepInterval(), &logger)

	if cfg.Monitoring.HealthCheckPort == 0 {
		cfg.Monitoring.HealthCheckPort = 8090
	}
	go startHealthServer(ctx, cfg.Monitoring.HealthCheckPort, db, rdb, &logger)

	if cfg.Monitoring.PrometheusEnabled {
		if cfg.Monitoring.PrometheusPort == 0 {
			cfg.Monitoring.PrometheusPort = 9090
		}
		metrics.Register()
		go startMetricsServer(ctx, cfg.Monitoring.PrometheusPort, &logger)
	}

	logger.Info().Msg("salon bot started")
	b.Start(ctx)
}

func runFloodSweep(ctx context.Context, guard *floodguard.Guard, interval time.Duration, logger *zerolog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := guard.Sweep(time.Now()); removed > 0 {
				logger.Debug().Int("removed", removed).Msg("flood guard sweep")
			}
		}
	}
}

func startHealthServer(ctx context.Context, port int, db *database.DB, rdb *redis.Client, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		ctxPing, cancel := context.WithTimeout(ctx, time.Second)
		defer cancel()
		if err := db.PingContext(ctxPing); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		if rdb != nil {
			if err := rdb.Ping(ctxPing).Err(); err != nil {
				http.Error(w, "redis not ready", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("health server error")
	}
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
