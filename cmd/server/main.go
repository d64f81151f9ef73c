package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"scheduling-service/internal/app"
	"scheduling-service/internal/config"
	"scheduling-service/internal/events"
	"scheduling-service/internal/logging"
	"scheduling-service/internal/server"
	"scheduling-service/internal/store"
	"scheduling-service/internal/telemetry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		boot := logging.New(logging.Config{Level: "info"}, os.Stderr)
		boot.Fatal().Err(err).Msg("invalid configuration")
	}

	log := logging.New(logging.Config{
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
		Service: cfg.ServiceName,
	}, os.Stdout)
	cfg.LogConfiguration(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(ctx, telemetry.Config{
		Enabled:      cfg.OTelEnabled,
		ServiceName:  cfg.ServiceName,
		OTLPEndpoint: cfg.OTelEndpoint,
		SampleRatio:  cfg.OTelSampling,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("telemetry setup failed")
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			log.Warn().Err(err).Msg("telemetry shutdown")
		}
	}()

	st, err := openStore(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("store unavailable")
	}
	defer st.Close()

	pub, err := openPublisher(cfg)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.EventsDriver).Msg("event publisher unavailable")
	}
	defer pub.Close()

	svc, err := app.New(st, pub, log, app.Config{
		FrontendURL: cfg.FrontendURL,
		HostID:      cfg.HostID,
		SlotStep:    cfg.SlotStep,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("app init failed")
	}

	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}
	opts := server.Options{
		CORSOrigins: cfg.CORSOrigins,
		Tracing:     cfg.OTelEnabled,
		ServiceName: cfg.ServiceName,
	}
	engine := server.NewEngine(opts, log)

	guard, closeLimiter := bookingGuard(cfg, log)
	defer closeLimiter()
	svc.Routes(engine, guard)

	if err := server.Run(ctx, ":"+cfg.Port, server.Handler(engine, opts), cfg.ShutdownTimeout, log); err != nil {
		log.Error().Err(err).Msg("server stopped with error")
	}
}

func openStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (store.Store, error) {
	if cfg.StoreKind() == "memory" {
		log.Warn().Msg("DATABASE_URL not set, using in-memory store")
		return store.NewMemory(), nil
	}
	pg, err := store.Open(ctx, cfg.DatabaseURL, log)
	if err != nil {
		return nil, err
	}
	if cfg.RunMigrations {
		if err := pg.MigrateUp(ctx); err != nil {
			pg.Close()
			return nil, err
		}
	}
	return pg, nil
}

func openPublisher(cfg *config.Config) (events.Publisher, error) {
	switch cfg.EventsDriver {
	case config.EventsKafka:
		return events.NewKafkaPublisher(events.SplitBrokers(cfg.KafkaBrokers)), nil
	case config.EventsAMQP:
		p, err := events.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			return nil, err
		}
		return p, nil
	default:
		return events.Noop{}, nil
	}
}

// bookingGuard returns the rate limit for booking creation, shared through
// Redis when REDIS_ADDR is set.
func bookingGuard(cfg *config.Config, log zerolog.Logger) (gin.HandlerFunc, func()) {
	if cfg.RateLimitRequests <= 0 {
		return nil, func() {}
	}
	if cfg.RedisAddr == "" {
		l := server.NewMemoryLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow)
		return server.RateLimit(l, log), func() {}
	}
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	l := server.NewRedisLimiter(rdb, cfg.RateLimitRequests, cfg.RateLimitWindow, "ratelimit:bookings")
	return server.RateLimit(l, log), func() { _ = rdb.Close() }
}
