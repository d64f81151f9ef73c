// Package config loads service settings from the environment.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

const (
	EventsNone  = "none"
	EventsKafka = "kafka"
	EventsAMQP  = "amqp"
)

type Config struct {
	Port            string
	DatabaseURL     string
	RunMigrations   bool
	ShutdownTimeout time.Duration

	LogLevel    string
	LogFormat   string
	ServiceName string

	FrontendURL string
	HostID      string
	SlotStep    time.Duration
	CORSOrigins []string

	EventsDriver string
	KafkaBrokers string
	AMQPURL      string
	AMQPExchange string

	RedisAddr         string
	RateLimitRequests int
	RateLimitWindow   time.Duration

	OTelEnabled  bool
	OTelEndpoint string
	OTelSampling float64
}

// Load reads an optional .env file, then the process environment, and
// validates the result.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		// Missing files are fine; real environment variables win.
		_ = godotenv.Load(f)
	}

	cfg := &Config{
		Port:            getEnvStr(EnvPort, DefaultPort),
		DatabaseURL:     getEnvStr(EnvDatabaseURL, ""),
		RunMigrations:   getEnvBool(EnvRunMigrations, true),
		ShutdownTimeout: getEnvDuration(EnvShutdownTimeout, DefaultShutdownTimeout),

		LogLevel:    getEnvStr(EnvLogLevel, DefaultLogLevel),
		LogFormat:   getEnvStr(EnvLogFormat, DefaultLogFormat),
		ServiceName: getEnvStr(EnvServiceName, DefaultServiceName),

		FrontendURL: strings.TrimRight(getEnvStr(EnvFrontendURL, DefaultFrontendURL), "/"),
		HostID:      getEnvStr(EnvHostID, DefaultHostID),
		SlotStep:    time.Duration(getEnvNum(EnvSlotStepMinutes, DefaultSlotStepMinutes)) * time.Minute,
		CORSOrigins: getEnvList(EnvCORSOrigins, DefaultCORSOrigins),

		EventsDriver: strings.ToLower(getEnvStr(EnvEventsDriver, DefaultEventsDriver)),
		KafkaBrokers: getEnvStr(EnvKafkaBrokers, ""),
		AMQPURL:      getEnvStr(EnvAMQPURL, ""),
		AMQPExchange: getEnvStr(EnvAMQPExchange, DefaultAMQPExchange),

		RedisAddr:         getEnvStr(EnvRedisAddr, ""),
		RateLimitRequests: getEnvNum(EnvRateLimitRequests, DefaultRateLimitRequests),
		RateLimitWindow:   getEnvDuration(EnvRateLimitWindow, DefaultRateLimitWindow),

		OTelEnabled:  getEnvBool(EnvOTelEnabled, false),
		OTelEndpoint: getEnvStr(EnvOTelEndpoint, DefaultOTelEndpoint),
		OTelSampling: getEnvFloat(EnvOTelSampling, DefaultOTelSampling),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports every problem at once.
func (cfg *Config) Validate() error {
	var problems []string

	if port, err := strconv.Atoi(cfg.Port); err != nil || port < 1 || port > 65535 {
		problems = append(problems, fmt.Sprintf("%s must be between 1 and 65535, got: %s", EnvPort, cfg.Port))
	}
	if _, err := zerolog.ParseLevel(cfg.LogLevel); err != nil {
		problems = append(problems, fmt.Sprintf("%s is not a valid level: %s", EnvLogLevel, cfg.LogLevel))
	}
	if cfg.LogFormat != "json" && cfg.LogFormat != "console" {
		problems = append(problems, fmt.Sprintf("%s must be json or console, got: %s", EnvLogFormat, cfg.LogFormat))
	}
	if u, err := url.Parse(cfg.FrontendURL); err != nil || u.Scheme == "" || u.Host == "" {
		problems = append(problems, fmt.Sprintf("%s must be an absolute URL, got: %s", EnvFrontendURL, cfg.FrontendURL))
	}
	if cfg.SlotStep <= 0 || cfg.SlotStep > 24*time.Hour {
		problems = append(problems, fmt.Sprintf("%s must be between 1 and 1440, got: %s", EnvSlotStepMinutes, cfg.SlotStep))
	}
	if len(cfg.CORSOrigins) == 0 {
		problems = append(problems, fmt.Sprintf("%s must list at least one origin or *", EnvCORSOrigins))
	}
	if cfg.ShutdownTimeout <= 0 {
		problems = append(problems, fmt.Sprintf("%s must be positive, got: %s", EnvShutdownTimeout, cfg.ShutdownTimeout))
	}

	switch cfg.EventsDriver {
	case EventsNone:
	case EventsKafka:
		if cfg.KafkaBrokers == "" {
			problems = append(problems, fmt.Sprintf("%s is required when %s=kafka", EnvKafkaBrokers, EnvEventsDriver))
		}
	case EventsAMQP:
		if cfg.AMQPURL == "" {
			problems = append(problems, fmt.Sprintf("%s is required when %s=amqp", EnvAMQPURL, EnvEventsDriver))
		}
	default:
		problems = append(problems, fmt.Sprintf("%s must be none, kafka or amqp, got: %s", EnvEventsDriver, cfg.EventsDriver))
	}

	if cfg.RateLimitRequests < 0 {
		problems = append(problems, fmt.Sprintf("%s cannot be negative, got: %d", EnvRateLimitRequests, cfg.RateLimitRequests))
	}
	if cfg.RateLimitWindow <= 0 {
		problems = append(problems, fmt.Sprintf("%s must be positive, got: %s", EnvRateLimitWindow, cfg.RateLimitWindow))
	}
	if cfg.OTelSampling < 0 || cfg.OTelSampling > 1 {
		problems = append(problems, fmt.Sprintf("%s must be between 0 and 1, got: %g", EnvOTelSampling, cfg.OTelSampling))
	}

	if len(problems) > 0 {
		msg := "configuration validation failed:\n"
		for i, p := range problems {
			msg += fmt.Sprintf("  %d. %s\n", i+1, p)
		}
		return errors.New(msg)
	}
	return nil
}

// LogConfiguration writes the effective settings with secrets redacted.
func (cfg *Config) LogConfiguration(log zerolog.Logger) {
	log.Info().
		Str("port", cfg.Port).
		Str("store", cfg.StoreKind()).
		Str("database_url", redactURL(cfg.DatabaseURL)).
		Bool("run_migrations", cfg.RunMigrations).
		Str("frontend_url", cfg.FrontendURL).
		Str("host_id", cfg.HostID).
		Dur("slot_step", cfg.SlotStep).
		Strs("cors_origins", cfg.CORSOrigins).
		Str("events_driver", cfg.EventsDriver).
		Str("amqp_url", redactURL(cfg.AMQPURL)).
		Bool("redis_rate_limit", cfg.RedisAddr != "").
		Int("rate_limit_requests", cfg.RateLimitRequests).
		Dur("rate_limit_window", cfg.RateLimitWindow).
		Bool("otel_enabled", cfg.OTelEnabled).
		Msg("configuration loaded")
}

func (cfg *Config) StoreKind() string {
	if cfg.DatabaseURL == "" {
		return "memory"
	}
	return "postgres"
}

func redactURL(raw string) string {
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "[unparseable]"
	}
	return u.Redacted()
}
