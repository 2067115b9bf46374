package http

import (
	"net/http"

	"github.com/digitull/SocialWave-sub001/internal/analytics"
	"github.com/digitull/SocialWave-sub001/internal/registry"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

// RouterConfig wires the facades into one HTTP handler.
type RouterConfig struct {
	Service   string
	Events    *analytics.Service
	Registry  *registry.Service
	Lifecycle Checkpointer
	Gatherer  prometheus.Gatherer
	Logger    zerolog.Logger

	// Middleware runs outermost, before request ids are assigned.
	Middleware []func(http.Handler) http.Handler
}

// NewRouter builds the routed handler with the standard middleware chain.
func NewRouter(cfg RouterConfig) http.Handler {
	router := mux.NewRouter()
	if cfg.Events != nil {
		NewEventHandlers(cfg.Events).RegisterRoutes(router)
	}
	if cfg.Registry != nil {
		NewRegistryHandlers(cfg.Registry).RegisterRoutes(router)
	}
	if cfg.Lifecycle != nil {
		NewAdminHandlers(cfg.Service, cfg.Lifecycle, cfg.Gatherer).RegisterRoutes(router)
	}

	chain := append([]func(http.Handler) http.Handler{}, cfg.Middleware...)
	chain = append(chain,
		RecoveryMiddleware(cfg.Logger),
		RequestIDMiddleware,
		CorrelationIDMiddleware,
		AccessLogMiddleware(cfg.Logger),
	)
	return ChainMiddleware(chain...)(router)
}
