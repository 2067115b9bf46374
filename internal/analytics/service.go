package analytics

import (
	"sync"
	"time"

	"github.com/digitull/SocialWave-sub001/internal/ident"
	"github.com/digitull/SocialWave-sub001/internal/observability"
	"github.com/digitull/SocialWave-sub001/internal/store"
	"github.com/digitull/SocialWave-sub001/pkg/types"
	"github.com/rs/zerolog"
)

// ServiceName identifies the events service in logs, metrics and status.
const ServiceName = "analytics"

// Stores holds the entity stores owned by the events service.
type Stores struct {
	Events      *store.Store[string, types.Event]
	Engagement  *store.Store[string, types.EngagementSummary]
	Performance *store.Store[string, types.PerformanceSummary]
}

// NewStores creates empty stores with their snapshot section names.
func NewStores() Stores {
	return Stores{
		Events:      store.New[string, types.Event]("events"),
		Engagement:  store.New[string, types.EngagementSummary]("engagement"),
		Performance: store.New[string, types.PerformanceSummary]("performance"),
	}
}

// Participants returns the stores in snapshot order.
func (s Stores) Participants() []store.Persistent {
	return []store.Persistent{s.Events, s.Engagement, s.Performance}
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithStateFunc reports the lifecycle state in GetStatus.
func WithStateFunc(state func() string) Option {
	return func(s *Service) { s.state = state }
}

// Service is the events facade. Mutations hold the facade lock exclusively
// for the whole call, so an event and both of its summaries become visible
// together. Queries share the lock.
type Service struct {
	mu     sync.RWMutex
	stores Stores
	ids    *ident.Generator

	now       func() time.Time
	state     func() string
	startedAt time.Time

	logger  zerolog.Logger
	metrics *observability.Metrics
}

// NewService creates the events facade over stores.
func NewService(stores Stores, ids *ident.Generator, logger zerolog.Logger, metrics *observability.Metrics, opts ...Option) *Service {
	s := &Service{
		stores:  stores,
		ids:     ids,
		now:     time.Now,
		state:   func() string { return "warm" },
		logger:  logger.With().Str("component", ServiceName).Logger(),
		metrics: metrics,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.startedAt = s.now()
	return s
}

// Locker returns the facade lock for the lifecycle manager.
func (s *Service) Locker() sync.Locker { return &s.mu }

// Participants returns the stores to register with the lifecycle manager.
func (s *Service) Participants() []store.Persistent { return s.stores.Participants() }

// TrackEvent records one event and updates the summaries it references.
func (s *Service) TrackEvent(in EventInput) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.track(in, s.now().UnixNano())
	s.metrics.RecordOperation(ServiceName, "track_event", nil)
	return id, nil
}

// ProcessBatch records events in order and returns how many were recorded.
// Inputs without a timestamp share the time of the call.
func (s *Service) ProcessBatch(inputs []EventInput) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UnixNano()
	for _, in := range inputs {
		s.track(in, now)
	}
	s.metrics.RecordOperation(ServiceName, "process_batch", nil)
	s.logger.Debug().Int("events", len(inputs)).Msg("processed event batch")
	return len(inputs), nil
}

// track must be called with the write lock held.
func (s *Service) track(in EventInput, now int64) string {
	ts := in.Timestamp
	if ts == 0 {
		ts = now
	}

	e := types.Event{
		ID:        s.ids.Next(ident.KindEvent),
		Type:      in.Type,
		UserID:    in.UserID,
		ContentID: in.ContentID,
		Platform:  in.Platform,
		Metadata:  append([]types.KV(nil), in.Metadata...),
		Timestamp: ts,
	}
	if e.Metadata == nil {
		e.Metadata = []types.KV{}
	}
	s.stores.Events.Put(e.ID, e)

	kind := KindOf(e.Type)
	if e.HasActor() {
		prev, found := s.stores.Engagement.Get(e.UserID)
		s.stores.Engagement.Put(e.UserID, applyEngagement(prev, found, e, kind))
	}
	if e.HasSubject() {
		prev, found := s.stores.Performance.Get(e.ContentID)
		s.stores.Performance.Put(e.ContentID, applyPerformance(prev, found, e, kind))
	}

	s.metrics.RecordEvent(kind.String(), e.Platform)
	s.logger.Debug().
		Str("event_id", e.ID).
		Str("event_type", e.Type).
		Str("kind", kind.String()).
		Msg("tracked event")
	return e.ID
}
