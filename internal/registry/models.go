package registry

import (
	"sort"

	swerrors "github.com/digitull/SocialWave-sub001/internal/errors"
	"github.com/digitull/SocialWave-sub001/internal/ident"
	"github.com/digitull/SocialWave-sub001/internal/store"
	"github.com/digitull/SocialWave-sub001/pkg/types"
)

// StoreModel registers an active model owned by owner and creates its
// zeroed metrics record.
func (s *Service) StoreModel(owner string, req ModelRequest) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.nowNano()
	model := types.ModelRecord{
		ID:           s.ids.Next(ident.KindModel),
		Name:         req.Name,
		Version:      req.Version,
		ModelType:    req.ModelType,
		Capabilities: nonNil(req.Capabilities),
		Owner:        owner,
		CreatedAt:    now,
		UpdatedAt:    now,
		Active:       true,
		Metadata:     append([]types.KV{}, req.Metadata...),
	}
	s.stores.Models.Put(model.ID, model)
	s.stores.Metrics.Put(model.ID, types.ModelMetrics{ModelID: model.ID})

	s.metrics.RecordOperation(ServiceName, "store_model", nil)
	s.logger.Info().Str("model_id", model.ID).Str("name", model.Name).Str("owner", owner).Msg("model registered")
	return model.ID, nil
}

// RecordModelUsage folds one usage report into the model's metrics.
func (s *Service) RecordModelUsage(modelID string, responseTimeMs float64, success bool, tokens uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.stores.Models.Get(modelID); !ok {
		err := modelNotFound(modelID)
		s.metrics.RecordOperation(ServiceName, "record_model_usage", err)
		return err
	}
	prev, _ := s.stores.Metrics.Get(modelID)
	s.stores.Metrics.Put(modelID, applyUsage(prev, modelID, s.nowNano(), responseTimeMs, success, tokens))

	s.metrics.RecordOperation(ServiceName, "record_model_usage", nil)
	return nil
}

// SetModelActive flips the active flag of a model.
func (s *Service) SetModelActive(modelID string, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	model, ok := s.stores.Models.Get(modelID)
	if !ok {
		err := modelNotFound(modelID)
		s.metrics.RecordOperation(ServiceName, "set_model_active", err)
		return err
	}
	model.Active = active
	model.UpdatedAt = s.nowNano()
	s.stores.Models.Put(modelID, model)

	s.metrics.RecordOperation(ServiceName, "set_model_active", nil)
	s.logger.Info().Str("model_id", modelID).Bool("active", active).Msg("model activation changed")
	return nil
}

// GetModel returns the model with the given id.
func (s *Service) GetModel(modelID string) (types.ModelRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	model, ok := s.stores.Models.Get(modelID)
	if !ok {
		return types.ModelRecord{}, modelNotFound(modelID)
	}
	return model, nil
}

// GetModelMetrics returns the usage metrics of a model.
func (s *Service) GetModelMetrics(modelID string) (types.ModelMetrics, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.stores.Metrics.Get(modelID)
	if !ok {
		return types.ModelMetrics{}, modelNotFound(modelID)
	}
	return m, nil
}

// ListModels returns the models matching every present field of q, in
// registration order.
func (s *Service) ListModels(q ModelQuery) []types.ModelRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	models := store.Filter(s.stores.Models.Values(),
		store.Contains(q.NameContains, func(m types.ModelRecord) string { return m.Name }),
		store.Equals(q.ModelType, func(m types.ModelRecord) string { return m.ModelType }),
		store.Equals(q.Owner, func(m types.ModelRecord) string { return m.Owner }),
		store.Equals(q.Active, func(m types.ModelRecord) bool { return m.Active }),
		store.Between(q.CreatedAfter, q.CreatedBefore, func(m types.ModelRecord) int64 { return m.CreatedAt }),
	)
	sort.Slice(models, func(i, j int) bool { return ident.Less(models[i].ID, models[j].ID) })
	return models
}

func modelNotFound(id string) error {
	return swerrors.NewNotFoundError(swerrors.CodeModelNotFound, "model %s not found", id)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return append([]string{}, s...)
}
