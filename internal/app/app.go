// Package app wires the SocialWave services into one process: the snapshot
// sink, the stores and their facades, the lifecycle manager, and the HTTP
// surface, with shutdown ordered so the final drain sees every write.
package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"

	httpapi "github.com/digitull/SocialWave-sub001/internal/api/http"
	"github.com/digitull/SocialWave-sub001/internal/analytics"
	"github.com/digitull/SocialWave-sub001/internal/config"
	swerrors "github.com/digitull/SocialWave-sub001/internal/errors"
	"github.com/digitull/SocialWave-sub001/internal/ident"
	"github.com/digitull/SocialWave-sub001/internal/lifecycle"
	"github.com/digitull/SocialWave-sub001/internal/logger"
	"github.com/digitull/SocialWave-sub001/internal/observability"
	"github.com/digitull/SocialWave-sub001/internal/registry"
	"github.com/digitull/SocialWave-sub001/internal/server"
	"github.com/digitull/SocialWave-sub001/internal/storage"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// ServiceName tags every log line and the health response.
const ServiceName = "socialwave"

// App owns every long-lived component of a SocialWave process.
type App struct {
	cfg    *config.Config
	logger zerolog.Logger

	sink      storage.ObjectStorage
	registry  *prometheus.Registry
	metrics   *observability.Metrics
	ids       *ident.Generator
	events    *analytics.Service
	models    *registry.Service
	lifecycle *lifecycle.Manager
	shutdown  *server.ShutdownManager
	scheduler *cron.Cron

	httpServer *http.Server
	listener   net.Listener

	mu      sync.Mutex
	running bool
	wg      sync.WaitGroup
}

// Option configures an App.
type Option func(*App)

// WithLogger replaces the logger built from the configuration.
func WithLogger(l zerolog.Logger) Option {
	return func(a *App) { a.logger = l }
}

// WithSink replaces the snapshot sink built from the configuration.
func WithSink(sink storage.ObjectStorage) Option {
	return func(a *App) { a.sink = sink }
}

// New validates cfg and builds the services. Nothing is restored or served
// until Start.
func New(cfg *config.Config, opts ...Option) (*App, error) {
	cfg.Resolve()
	if err := cfg.Validate(); err != nil {
		return nil, swerrors.Wrap(swerrors.ErrCategoryValidation, swerrors.CodeInvalidConfig,
			"invalid configuration", err)
	}

	a := &App{
		cfg:    cfg,
		logger: logger.New(ServiceName, cfg.Log.Level),
	}
	for _, opt := range opts {
		opt(a)
	}

	if a.sink == nil {
		if err := cfg.EnsureDirectories(); err != nil {
			return nil, fmt.Errorf("failed to create directories: %w", err)
		}
		sink, err := a.openSink()
		if err != nil {
			return nil, err
		}
		a.sink = sink
	}

	a.registry = prometheus.NewRegistry()
	a.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	a.metrics = observability.NewMetrics(a.registry)

	a.lifecycle = lifecycle.NewManager(lifecycle.Config{
		KeyPrefix:         cfg.Snapshot.KeyPrefix,
		Retention:         cfg.Snapshot.Retention,
		Compress:          cfg.Snapshot.Compress,
		ExportConcurrency: cfg.Snapshot.ExportConcurrency,
	}, a.sink, a.logger, a.metrics)

	a.ids = ident.NewGenerator()
	a.events = analytics.NewService(analytics.NewStores(), a.ids, a.logger, a.metrics,
		analytics.WithStateFunc(func() string { return string(a.lifecycle.State()) }))
	a.models = registry.NewService(registry.NewStores(), a.ids, a.logger, a.metrics,
		registry.WithDetector(registry.NewStaticDetector(trendSeeds(cfg.Registry.SeedTrends))))

	if err := a.lifecycle.Register(ident.ParticipantName, nil, a.ids); err != nil {
		return nil, err
	}
	if err := a.lifecycle.Register(analytics.ServiceName, a.events.Locker(), a.events.Participants()...); err != nil {
		return nil, err
	}
	if err := a.lifecycle.Register(registry.ServiceName, a.models.Locker(), a.models.Participants()...); err != nil {
		return nil, err
	}

	a.shutdown = server.NewShutdownManager(server.ShutdownConfig{
		ShutdownTimeout: cfg.HTTP.ShutdownTimeout,
	}, a.logger)

	return a, nil
}

// openSink builds the snapshot sink named by the configuration.
func (a *App) openSink() (storage.ObjectStorage, error) {
	var (
		sink storage.ObjectStorage
		err  error
	)
	switch a.cfg.Storage.Type {
	case config.StorageLocal:
		sink, err = storage.NewLocalStorage(a.cfg.Storage.Path)
	case config.StorageSQLite:
		sink, err = storage.NewSQLiteStorage(a.cfg.Storage.Path)
	case config.StorageS3:
		s3Cfg := storage.DefaultS3Config()
		if a.cfg.Storage.S3.Region != "" {
			s3Cfg.Region = a.cfg.Storage.S3.Region
		}
		if a.cfg.Storage.S3.Endpoint != "" {
			s3Cfg.Endpoint = a.cfg.Storage.S3.Endpoint
		}
		s3Cfg.UsePathStyle = a.cfg.Storage.S3.UsePathStyle
		sink, err = storage.NewS3Storage(context.Background(), a.cfg.Storage.S3.Bucket, s3Cfg)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", a.cfg.Storage.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	a.logger.Info().Str("type", a.cfg.Storage.Type).Str("path", a.cfg.Storage.Path).Msg("snapshot sink initialized")
	return sink, nil
}

func trendSeeds(seeds []config.TrendSeed) []registry.TrendCandidate {
	if len(seeds) == 0 {
		return registry.DefaultSeeds()
	}
	out := make([]registry.TrendCandidate, len(seeds))
	for i, s := range seeds {
		out[i] = registry.TrendCandidate{
			Topic:    s.Topic,
			Score:    s.Score,
			Momentum: s.Momentum,
			Category: s.Category,
			Sources:  append([]string(nil), s.Sources...),
		}
	}
	return out
}

// Start rehydrates the stores from the latest image, then starts the trend
// schedule and the HTTP server. No call is served before the stores are warm.
func (a *App) Start(ctx context.Context) error {
	a.mu.Lock()
	if a.running {
		a.mu.Unlock()
		return fmt.Errorf("app is already running")
	}
	a.running = true
	a.mu.Unlock()

	if err := a.lifecycle.Rehydrate(ctx); err != nil {
		a.sink.Close()
		return fmt.Errorf("failed to rehydrate stores: %w", err)
	}

	// Closers run in reverse, so the sink closes after the HTTP server.
	a.shutdown.RegisterCloser(a.sink)

	if spec := a.cfg.Registry.TrendSchedule; spec != "" {
		sched, err := a.models.ScheduleTrendDetection(spec)
		if err != nil {
			a.sink.Close()
			return fmt.Errorf("failed to schedule trend detection: %w", err)
		}
		a.scheduler = sched
		a.scheduler.Start()
		// Registered before the drain hook: no scheduled run may land after it.
		a.shutdown.BeforeClose(func(ctx context.Context) error {
			select {
			case <-a.scheduler.Stop().Done():
				return nil
			case <-ctx.Done():
				return fmt.Errorf("trend schedule did not stop: %w", ctx.Err())
			}
		})
		a.logger.Info().Str("schedule", spec).Msg("trend detection scheduled")
	}

	if err := a.startHTTP(); err != nil {
		a.sink.Close()
		return err
	}

	a.shutdown.BeforeClose(func(ctx context.Context) error {
		info, err := a.lifecycle.Drain(ctx)
		if err != nil {
			return fmt.Errorf("final drain failed: %w", err)
		}
		a.logger.Info().Str("image_id", info.ImageID).Str("key", info.Key).Msg("stores drained")
		return nil
	})

	a.logger.Info().Str("addr", a.Addr()).Msg("socialwave started")
	return nil
}

func (a *App) startHTTP() error {
	handler := httpapi.NewRouter(httpapi.RouterConfig{
		Service:    ServiceName,
		Events:     a.events,
		Registry:   a.models,
		Lifecycle:  a.lifecycle,
		Gatherer:   a.registry,
		Logger:     a.logger,
		Middleware: []func(http.Handler) http.Handler{a.shutdown.Middleware},
	})

	ln, err := net.Listen("tcp", a.cfg.HTTP.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", a.cfg.HTTP.Addr, err)
	}
	a.listener = ln
	a.httpServer = &http.Server{
		Handler:      handler,
		ReadTimeout:  a.cfg.HTTP.ReadTimeout,
		WriteTimeout: a.cfg.HTTP.WriteTimeout,
		IdleTimeout:  a.cfg.HTTP.IdleTimeout,
	}

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		if err := a.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error().Err(err).Msg("HTTP server error")
		}
	}()

	a.shutdown.RegisterCloser(server.CloserFunc(func() error {
		timeout := a.cfg.HTTP.ShutdownTimeout
		if timeout <= 0 {
			timeout = server.DefaultShutdownConfig().ShutdownTimeout
		}
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		err := a.httpServer.Shutdown(ctx)
		a.wg.Wait()
		return err
	}))
	return nil
}

// Addr returns the address the HTTP server is bound to.
func (a *App) Addr() string {
	if a.listener == nil {
		return a.cfg.HTTP.Addr
	}
	return a.listener.Addr().String()
}

// Lifecycle returns the snapshot lifecycle manager.
func (a *App) Lifecycle() *lifecycle.Manager { return a.lifecycle }

// Events returns the event analytics facade.
func (a *App) Events() *analytics.Service { return a.events }

// Registry returns the model, trend and brand registry facade.
func (a *App) Registry() *registry.Service { return a.models }

// Stop runs the shutdown sequence: reject new calls, wait for in-flight
// ones, drain the stores, and close the server, scheduler and sink.
func (a *App) Stop(ctx context.Context) error {
	a.mu.Lock()
	if !a.running {
		a.mu.Unlock()
		return nil
	}
	a.running = false
	a.mu.Unlock()

	return a.shutdown.Shutdown(ctx, "stop requested")
}

// WaitForShutdown blocks until a shutdown signal is received or ctx ends,
// then runs the shutdown sequence.
func (a *App) WaitForShutdown(ctx context.Context) error {
	err := a.shutdown.ListenForSignals(ctx)
	a.mu.Lock()
	a.running = false
	a.mu.Unlock()
	return err
}
