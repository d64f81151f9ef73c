package server

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type Options struct {
	CORSOrigins []string
	Tracing     bool
	ServiceName string
}

// NewEngine returns a gin engine with recovery, request ids and access
// logging installed. CORS is added only when origins are configured.
// Routes are registered by the caller.
func NewEngine(opts Options, log zerolog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(RequestID(log), AccessLog(log), Recovery(log))
	if len(opts.CORSOrigins) > 0 {
		r.Use(cors.New(corsConfig(opts.CORSOrigins)))
	}
	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", RequestIDHeader},
		ExposeHeaders: []string{RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	for _, o := range origins {
		if o == "*" {
			cfg.AllowAllOrigins = true
			return cfg
		}
	}
	cfg.AllowOrigins = origins
	return cfg
}

// Handler wraps the engine with OpenTelemetry instrumentation when enabled.
func Handler(engine *gin.Engine, opts Options) http.Handler {
	if !opts.Tracing {
		return engine
	}
	return otelhttp.NewHandler(engine, opts.ServiceName)
}
