package registry

import (
	"context"
	"fmt"

	"github.com/digitull/SocialWave-sub001/internal/ident"
	"github.com/digitull/SocialWave-sub001/internal/store"
	"github.com/digitull/SocialWave-sub001/pkg/types"
)

// TrendCandidate is a topic reported by a TrendDetector, before it is stored.
type TrendCandidate struct {
	Topic    string   `json:"topic" yaml:"topic"`
	Score    float64  `json:"score" yaml:"score"`
	Momentum float64  `json:"momentum" yaml:"momentum"`
	Category string   `json:"category" yaml:"category"`
	Sources  []string `json:"sources" yaml:"sources"`
}

// TrendDetector discovers currently trending topics.
type TrendDetector interface {
	Detect(ctx context.Context) ([]TrendCandidate, error)
}

// StaticDetector reports a fixed list of topics.
type StaticDetector struct {
	seeds []TrendCandidate
}

// NewStaticDetector creates a detector that always reports seeds.
func NewStaticDetector(seeds []TrendCandidate) *StaticDetector {
	return &StaticDetector{seeds: append([]TrendCandidate(nil), seeds...)}
}

// Detect implements TrendDetector.
func (d *StaticDetector) Detect(ctx context.Context) ([]TrendCandidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]TrendCandidate, len(d.seeds))
	for i, c := range d.seeds {
		c.Sources = append([]string{}, c.Sources...)
		out[i] = c
	}
	return out, nil
}

// DefaultSeeds returns the topics reported when no seeds are configured.
func DefaultSeeds() []TrendCandidate {
	return []TrendCandidate{
		{Topic: "AI content creation", Score: 0.95, Momentum: 0.8, Category: "technology", Sources: []string{"twitter", "linkedin"}},
		{Topic: "Short-form video", Score: 0.87, Momentum: 0.6, Category: "media", Sources: []string{"tiktok", "instagram"}},
		{Topic: "Sustainable brands", Score: 0.78, Momentum: 0.4, Category: "lifestyle", Sources: []string{"instagram", "youtube"}},
	}
}

// DetectTrends runs the detector and stores every reported topic as a new
// trend record stamped with the current time. The detector runs without the
// facade lock held.
func (s *Service) DetectTrends(ctx context.Context) ([]types.TrendRecord, error) {
	candidates, err := s.detector.Detect(ctx)
	if err != nil {
		err = fmt.Errorf("trend detection failed: %w", err)
		s.metrics.RecordOperation(ServiceName, "detect_trends", err)
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.nowNano()
	records := make([]types.TrendRecord, 0, len(candidates))
	for _, c := range candidates {
		rec := types.TrendRecord{
			ID:        s.ids.Next(ident.KindTrend),
			Topic:     c.Topic,
			Score:     c.Score,
			Momentum:  c.Momentum,
			Category:  c.Category,
			Sources:   nonNil(c.Sources),
			Timestamp: now,
		}
		s.stores.Trends.Put(rec.ID, rec)
		records = append(records, rec)
	}

	s.metrics.RecordOperation(ServiceName, "detect_trends", nil)
	s.logger.Info().Int("trends", len(records)).Msg("trends detected")
	return records, nil
}

// GetTrendingTopics returns at most limit trends by descending score. Equal
// scores are ordered by id, earliest first.
func (s *Service) GetTrendingTopics(limit int) []types.TrendRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return store.TopK(s.stores.Trends.Values(), limit,
		func(t types.TrendRecord) float64 { return t.Score },
		func(a, b types.TrendRecord) bool { return ident.Less(a.ID, b.ID) },
	)
}
