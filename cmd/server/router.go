package main

import (
	"fmt"
	"net/http"

	"github.com/benvon/focus-board/internal/config"
	"github.com/benvon/focus-board/internal/handlers"
	"github.com/benvon/focus-board/internal/middleware"
	"github.com/benvon/focus-board/internal/telemetry"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// routerDeps collects what the HTTP surface needs. redis may be nil.
type routerDeps struct {
	cfg     *config.Config
	logger  *zap.Logger
	staging *handlers.StagingHandler
	boards  *handlers.BoardHandler
	rules   *handlers.RulesHandler
	health  *handlers.HealthChecker
	redis   *redis.Client
	tracing bool
}

// newRouter builds the HTTP router.
// gorilla/mux runs middleware in registration order, so the first Use is the outermost wrapper.
func newRouter(d routerDeps) (*mux.Router, error) {
	r := mux.NewRouter()

	if d.tracing {
		r.Use(telemetry.Middleware(telemetry.DefaultServiceName))
	}
	// Logging assigns the request id that the panic handler reports
	r.Use(middleware.Logging(d.logger))
	r.Use(middleware.ErrorHandler(d.logger))
	r.Use(middleware.SecurityHeaders(d.cfg.EnableHSTS))
	r.Use(middleware.CORS(middleware.ParseOrigins(d.cfg.FrontendURL)))

	r.HandleFunc("/healthz", d.health.HealthCheck).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	rateLimit, err := middleware.RateLimit(d.redis, d.cfg.RateLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to create rate limiter: %w", err)
	}

	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(rateLimit)
	api.Use(middleware.JSONBody(d.cfg.MaxRequestSize))
	api.Use(middleware.Timeout(d.cfg.RequestTimeout))

	d.staging.RegisterRoutes(api.PathPrefix("/staging").Subrouter())
	d.boards.RegisterRoutes(api)
	d.rules.RegisterRoutes(api)

	// Preflight requests need a matching route for the CORS middleware to run
	api.Methods(http.MethodOptions).HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	return r, nil
}
