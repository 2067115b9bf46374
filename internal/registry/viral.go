package registry

import (
	"strings"
	"unicode/utf8"

	swerrors "github.com/digitull/SocialWave-sub001/internal/errors"
	"github.com/digitull/SocialWave-sub001/internal/ident"
	"github.com/digitull/SocialWave-sub001/pkg/types"
)

const (
	viralBaseScore      = 0.1
	viralBaseConfidence = 0.5
	confidencePerFactor = 0.08
	maxConfidence       = 0.95
)

// viralInput is the text under analysis plus the context rules may consult.
type viralInput struct {
	text   string
	lower  string
	topics []string // lower-cased stored trend topics
}

// viralRule contributes Weight when Match holds.
type viralRule struct {
	Name   string
	Weight float64
	Match  func(in *viralInput) bool
}

// viralRules is scanned in order; factors are reported in this order.
var viralRules = []viralRule{
	{Name: "optimal_length", Weight: 0.15, Match: func(in *viralInput) bool {
		n := utf8.RuneCountInString(in.text)
		return n >= 50 && n <= 280
	}},
	{Name: "excessive_length", Weight: -0.1, Match: func(in *viralInput) bool {
		return utf8.RuneCountInString(in.text) > 2000
	}},
	{Name: "hashtags", Weight: 0.15, Match: func(in *viralInput) bool {
		return hasPrefixedWord(in.text, '#')
	}},
	{Name: "mentions", Weight: 0.1, Match: func(in *viralInput) bool {
		return hasPrefixedWord(in.text, '@')
	}},
	{Name: "question", Weight: 0.1, Match: func(in *viralInput) bool {
		return strings.Contains(in.text, "?")
	}},
	{Name: "exclamation", Weight: 0.05, Match: func(in *viralInput) bool {
		return strings.Contains(in.text, "!")
	}},
	{Name: "link", Weight: 0.05, Match: func(in *viralInput) bool {
		return strings.Contains(in.lower, "http://") || strings.Contains(in.lower, "https://")
	}},
	{Name: "trending_topic", Weight: 0.25, Match: func(in *viralInput) bool {
		for _, topic := range in.topics {
			if topic != "" && strings.Contains(in.lower, topic) {
				return true
			}
		}
		return false
	}},
}

// hasPrefixedWord reports whether some word starts with prefix followed by
// at least one more character.
func hasPrefixedWord(text string, prefix byte) bool {
	for _, word := range strings.Fields(text) {
		if len(word) > 1 && word[0] == prefix {
			return true
		}
	}
	return false
}

// scoreViral scans the rule table and returns the clamped score, the
// confidence, and the factors that fired.
func scoreViral(in *viralInput) (float64, float64, []types.Factor) {
	score := viralBaseScore
	factors := []types.Factor{}
	for _, r := range viralRules {
		if r.Match(in) {
			score += r.Weight
			factors = append(factors, types.Factor{Name: r.Name, Weight: r.Weight})
		}
	}
	confidence := viralBaseConfidence + confidencePerFactor*float64(len(factors))
	if confidence > maxConfidence {
		confidence = maxConfidence
	}
	return clamp01(score), confidence, factors
}

// AnalyzeViralPotential scores text for contentID, stores the prediction,
// and returns its id.
func (s *Service) AnalyzeViralPotential(contentID, text string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	in := &viralInput{text: text, lower: strings.ToLower(text)}
	s.stores.Trends.Range(func(_ string, t types.TrendRecord) bool {
		in.topics = append(in.topics, strings.ToLower(t.Topic))
		return true
	})

	score, confidence, factors := scoreViral(in)
	rec := types.PredictionRecord{
		ID:             s.ids.Next(ident.KindPrediction),
		ContentID:      contentID,
		PredictedScore: score,
		Confidence:     confidence,
		Factors:        factors,
		Timestamp:      s.nowNano(),
	}
	s.stores.Predictions.Put(rec.ID, rec)

	s.metrics.RecordOperation(ServiceName, "analyze_viral_potential", nil)
	s.logger.Debug().
		Str("prediction_id", rec.ID).
		Str("content_id", contentID).
		Float64("score", score).
		Int("factors", len(factors)).
		Msg("viral potential analyzed")
	return rec.ID, nil
}

// GetViralPrediction returns the prediction with the given id.
func (s *Service) GetViralPrediction(predictionID string) (types.PredictionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.stores.Predictions.Get(predictionID)
	if !ok {
		return types.PredictionRecord{}, swerrors.NewNotFoundError(swerrors.CodePredictionNotFound,
			"prediction %s not found", predictionID)
	}
	return rec, nil
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
