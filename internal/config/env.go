package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	EnvPort            = "PORT"
	EnvDatabaseURL     = "DATABASE_URL"
	EnvRunMigrations   = "RUN_MIGRATIONS"
	EnvLogLevel        = "LOG_LEVEL"
	EnvLogFormat       = "LOG_FORMAT"
	EnvServiceName     = "SERVICE_NAME"
	EnvFrontendURL     = "FRONTEND_URL"
	EnvHostID          = "HOST_ID"
	EnvSlotStepMinutes = "SLOT_STEP_MINUTES"
	EnvCORSOrigins     = "CORS_ALLOWED_ORIGINS"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"

	EnvEventsDriver = "EVENTS_DRIVER"
	EnvKafkaBrokers = "KAFKA_BROKERS"
	EnvAMQPURL      = "AMQP_URL"
	EnvAMQPExchange = "AMQP_EXCHANGE"

	EnvRedisAddr         = "REDIS_ADDR"
	EnvRateLimitRequests = "RATE_LIMIT_REQUESTS"
	EnvRateLimitWindow   = "RATE_LIMIT_WINDOW"

	EnvOTelEnabled  = "OTEL_ENABLED"
	EnvOTelEndpoint = "OTEL_EXPORTER_OTLP_ENDPOINT"
	EnvOTelSampling = "OTEL_SAMPLING_RATIO"
)

const (
	DefaultPort            = "8080"
	DefaultLogLevel        = "info"
	DefaultLogFormat       = "json"
	DefaultServiceName     = "scheduling-service"
	DefaultFrontendURL     = "http://localhost:5174"
	DefaultHostID          = "default"
	DefaultSlotStepMinutes = 30
	DefaultCORSOrigins     = "*"
	DefaultShutdownTimeout = 10 * time.Second

	DefaultEventsDriver = "none"
	DefaultAMQPExchange = "scheduling.events"

	DefaultRateLimitRequests = 20
	DefaultRateLimitWindow   = time.Minute

	DefaultOTelEndpoint = "localhost:4317"
	DefaultOTelSampling = 1.0
)

func getEnvStr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getEnvNum(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvFloat(key string, fallback float64) float64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func getEnvBool(key string, fallback bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func getEnvList(key, fallback string) []string {
	var out []string
	for _, part := range strings.Split(getEnvStr(key, fallback), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
