package registry

import (
	"sort"
	"strings"

	swerrors "github.com/digitull/SocialWave-sub001/internal/errors"
	"github.com/digitull/SocialWave-sub001/internal/ident"
	"github.com/digitull/SocialWave-sub001/internal/store"
	"github.com/digitull/SocialWave-sub001/pkg/types"
)

const (
	alignmentBase      = 0.5
	keyPhraseBonus     = 0.1
	avoidPhrasePenalty = 0.15
)

// CreateBrandVibeProfile stores a brand profile owned by owner.
func (s *Service) CreateBrandVibeProfile(owner string, req BrandRequest) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.nowNano()
	profile := types.BrandProfile{
		ID:           s.ids.Next(ident.KindBrand),
		Name:         req.Name,
		Persona:      req.Persona,
		Tone:         req.Tone,
		Guidelines:   req.Guidelines,
		KeyPhrases:   nonNil(req.KeyPhrases),
		AvoidPhrases: nonNil(req.AvoidPhrases),
		Owner:        owner,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	s.stores.Brands.Put(profile.ID, profile)

	s.metrics.RecordOperation(ServiceName, "create_brand_profile", nil)
	s.logger.Info().Str("brand_id", profile.ID).Str("owner", owner).Msg("brand profile created")
	return profile.ID, nil
}

// AnalyzeBrandAlignment scores how well text matches a profile's voice.
// Matching is case-insensitive; the score is clamped to [0, 1].
func (s *Service) AnalyzeBrandAlignment(profileID, text string) (float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	profile, ok := s.stores.Brands.Get(profileID)
	if !ok {
		err := brandNotFound(profileID)
		s.metrics.RecordOperation(ServiceName, "analyze_brand_alignment", err)
		return 0, err
	}

	s.metrics.RecordOperation(ServiceName, "analyze_brand_alignment", nil)
	return alignmentScore(profile, text), nil
}

func alignmentScore(p types.BrandProfile, text string) float64 {
	lower := strings.ToLower(text)
	score := alignmentBase
	for _, phrase := range p.KeyPhrases {
		if phrase != "" && strings.Contains(lower, strings.ToLower(phrase)) {
			score += keyPhraseBonus
		}
	}
	for _, phrase := range p.AvoidPhrases {
		if phrase != "" && strings.Contains(lower, strings.ToLower(phrase)) {
			score -= avoidPhrasePenalty
		}
	}
	return clamp01(score)
}

// GetBrandVibeProfile returns the profile with the given id.
func (s *Service) GetBrandVibeProfile(profileID string) (types.BrandProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	profile, ok := s.stores.Brands.Get(profileID)
	if !ok {
		return types.BrandProfile{}, brandNotFound(profileID)
	}
	return profile, nil
}

// ListBrandVibeProfiles returns the profiles of owner, or every profile when
// owner is empty, ordered by creation time then id.
func (s *Service) ListBrandVibeProfiles(owner string) []types.BrandProfile {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var ownerFilter *string
	if owner != "" {
		ownerFilter = &owner
	}
	profiles := store.Filter(s.stores.Brands.Values(),
		store.Equals(ownerFilter, func(p types.BrandProfile) string { return p.Owner }),
	)
	sort.Slice(profiles, func(i, j int) bool {
		if profiles[i].CreatedAt != profiles[j].CreatedAt {
			return profiles[i].CreatedAt < profiles[j].CreatedAt
		}
		return ident.Less(profiles[i].ID, profiles[j].ID)
	})
	return profiles
}

func brandNotFound(id string) error {
	return swerrors.NewNotFoundError(swerrors.CodeBrandNotFound, "brand profile %s not found", id)
}
