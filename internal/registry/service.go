package registry

import (
	"sync"
	"time"

	"github.com/digitull/SocialWave-sub001/internal/ident"
	"github.com/digitull/SocialWave-sub001/internal/observability"
	"github.com/digitull/SocialWave-sub001/internal/store"
	"github.com/digitull/SocialWave-sub001/pkg/types"
	"github.com/rs/zerolog"
)

// ServiceName identifies the registry service in logs and metrics.
const ServiceName = "registry"

// Stores holds the entity stores owned by the registry service.
type Stores struct {
	Models      *store.Store[string, types.ModelRecord]
	Metrics     *store.Store[string, types.ModelMetrics]
	Predictions *store.Store[string, types.PredictionRecord]
	Trends      *store.Store[string, types.TrendRecord]
	Brands      *store.Store[string, types.BrandProfile]
}

// NewStores creates empty stores with their snapshot section names.
func NewStores() Stores {
	return Stores{
		Models:      store.New[string, types.ModelRecord]("models"),
		Metrics:     store.New[string, types.ModelMetrics]("model_metrics"),
		Predictions: store.New[string, types.PredictionRecord]("predictions"),
		Trends:      store.New[string, types.TrendRecord]("trends"),
		Brands:      store.New[string, types.BrandProfile]("brand_profiles"),
	}
}

// Participants returns the stores in snapshot order.
func (s Stores) Participants() []store.Persistent {
	return []store.Persistent{s.Models, s.Metrics, s.Predictions, s.Trends, s.Brands}
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithDetector replaces the trend detector.
func WithDetector(d TrendDetector) Option {
	return func(s *Service) { s.detector = d }
}

// Service is the registry facade. Like the events service it serializes
// mutations behind one lock and shares it among queries.
type Service struct {
	mu       sync.RWMutex
	stores   Stores
	ids      *ident.Generator
	detector TrendDetector
	now      func() time.Time

	logger  zerolog.Logger
	metrics *observability.Metrics
}

// NewService creates the registry facade over stores. Without WithDetector
// trend detection uses a StaticDetector with the default seeds.
func NewService(stores Stores, ids *ident.Generator, logger zerolog.Logger, metrics *observability.Metrics, opts ...Option) *Service {
	s := &Service{
		stores:   stores,
		ids:      ids,
		detector: NewStaticDetector(DefaultSeeds()),
		now:      time.Now,
		logger:   logger.With().Str("component", ServiceName).Logger(),
		metrics:  metrics,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Locker returns the facade lock for the lifecycle manager.
func (s *Service) Locker() sync.Locker { return &s.mu }

// Participants returns the stores to register with the lifecycle manager.
func (s *Service) Participants() []store.Persistent { return s.stores.Participants() }

// GetStats summarizes the registry contents.
func (s *Service) GetStats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := Stats{
		Models:        s.stores.Models.Len(),
		Predictions:   s.stores.Predictions.Len(),
		Trends:        s.stores.Trends.Len(),
		BrandProfiles: s.stores.Brands.Len(),
	}
	s.stores.Models.Range(func(_ string, m types.ModelRecord) bool {
		if m.Active {
			stats.ActiveModels++
		}
		return true
	})
	s.stores.Metrics.Range(func(_ string, m types.ModelMetrics) bool {
		stats.TotalUsage += m.UsageCount
		stats.TotalTokens += m.TotalTokensProcessed
		return true
	})
	return stats
}

func (s *Service) nowNano() int64 { return s.now().UnixNano() }
