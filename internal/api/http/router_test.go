package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/digitull/SocialWave-sub001/internal/analytics"
	"github.com/digitull/SocialWave-sub001/internal/ident"
	"github.com/digitull/SocialWave-sub001/internal/lifecycle"
	"github.com/digitull/SocialWave-sub001/internal/observability"
	"github.com/digitull/SocialWave-sub001/internal/registry"
	"github.com/digitull/SocialWave-sub001/internal/storage"
	"github.com/digitull/SocialWave-sub001/pkg/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	handler http.Handler
	manager *lifecycle.Manager
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	sink, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	promReg := prometheus.NewRegistry()
	metrics := observability.NewMetrics(promReg)
	ids := ident.NewGenerator()
	manager := lifecycle.NewManager(lifecycle.DefaultConfig(), sink, zerolog.Nop(), metrics)

	events := analytics.NewService(analytics.NewStores(), ids, zerolog.Nop(), metrics,
		analytics.WithStateFunc(func() string { return string(manager.State()) }))
	registrySvc := registry.NewService(registry.NewStores(), ids, zerolog.Nop(), metrics)

	require.NoError(t, manager.Register(ident.ParticipantName, nil, ids))
	require.NoError(t, manager.Register(analytics.ServiceName, events.Locker(), events.Participants()...))
	require.NoError(t, manager.Register(registry.ServiceName, registrySvc.Locker(), registrySvc.Participants()...))
	require.NoError(t, manager.Rehydrate(context.Background()))

	return &testServer{
		handler: NewRouter(RouterConfig{
			Service:   "socialwave",
			Events:    events,
			Registry:  registrySvc,
			Lifecycle: manager,
			Gatherer:  promReg,
			Logger:    zerolog.Nop(),
		}),
		manager: manager,
	}
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestEvents_TrackAndQuery(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/v1/events", map[string]string{
		"event_type": "content_view", "content_id": "c1", "user_id": "u1", "platform": "tiktok",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.NotEmpty(t, decode[map[string]string](t, rec)["id"])
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	rec = s.do(t, http.MethodPost, "/v1/events/batch", map[string]interface{}{
		"events": []map[string]string{
			{"event_type": "content_like", "content_id": "c1", "user_id": "u1", "platform": "tiktok"},
			{"event_type": "content_view", "content_id": "c1", "user_id": "u2", "platform": "instagram"},
		},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 2, decode[map[string]int](t, rec)["processed"])

	rec = s.do(t, http.MethodGet, "/v1/events/content/c1/performance", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	perf := decode[types.PerformanceSummary](t, rec)
	assert.Equal(t, uint64(2), perf.Views)
	assert.Equal(t, uint64(1), perf.Likes)
	assert.Equal(t, 0.5, perf.EngagementRate)

	rec = s.do(t, http.MethodGet, "/v1/events/users/u1/engagement", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, uint64(1), decode[types.EngagementSummary](t, rec).TotalLikes)

	rec = s.do(t, http.MethodGet, "/v1/events/content/top?limit=5", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]types.PerformanceSummary](t, rec), 1)

	rec = s.do(t, http.MethodGet, "/v1/events/platforms/tiktok", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, uint64(2), decode[analytics.PlatformReport](t, rec).TotalEvents)

	rec = s.do(t, http.MethodGet, "/v1/events/dashboard", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, uint64(3), decode[analytics.DashboardStats](t, rec).TotalEvents)

	rec = s.do(t, http.MethodGet, "/v1/events/status", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "warm", decode[analytics.Status](t, rec).State)
}

func TestEvents_ErrorMapping(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/v1/events/users/nobody/engagement", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	resp := decode[ErrorResponse](t, rec)
	assert.Equal(t, "USER_NOT_FOUND", resp.Code)
	assert.NotEmpty(t, resp.RequestID)

	rec = s.do(t, http.MethodGet, "/v1/events/content/top?limit=abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_REQUEST", decode[ErrorResponse](t, rec).Code)

	req := httptest.NewRequest(http.MethodPost, "/v1/events", bytes.NewBufferString("{not json"))
	rec = httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodDelete, "/v1/events/dashboard", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestRegistry_ModelLifecycle(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/v1/registry/models", map[string]interface{}{
		"owner": "alice", "name": "captioner", "version": "1.0", "model_type": "text",
		"capabilities": []string{"captions"},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	id := decode[map[string]string](t, rec)["id"]
	require.NotEmpty(t, id)

	rec = s.do(t, http.MethodPost, "/v1/registry/models/"+id+"/usage", usageRequest{ResponseTimeMs: 100, Success: true, Tokens: 50})
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodGet, "/v1/registry/models/"+id+"/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	m := decode[types.ModelMetrics](t, rec)
	assert.Equal(t, uint64(1), m.UsageCount)
	assert.Equal(t, uint64(50), m.TotalTokensProcessed)

	rec = s.do(t, http.MethodPut, "/v1/registry/models/"+id+"/active", map[string]bool{"active": false})
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodGet, "/v1/registry/models?owner=alice&active=false", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	models := decode[[]types.ModelRecord](t, rec)
	require.Len(t, models, 1)
	assert.Equal(t, id, models[0].ID)

	rec = s.do(t, http.MethodGet, "/v1/registry/models?active=true", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[[]types.ModelRecord](t, rec))

	rec = s.do(t, http.MethodGet, "/v1/registry/models?active=maybe", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPut, "/v1/registry/models/"+id+"/active", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodGet, "/v1/registry/models/model_999", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "MODEL_NOT_FOUND", decode[ErrorResponse](t, rec).Code)
}

func TestRegistry_PredictionsTrendsBrands(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/v1/registry/predictions", viralRequest{ContentID: "c1", Text: "Is this #viral? @friend"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	predID := decode[map[string]string](t, rec)["id"]

	rec = s.do(t, http.MethodGet, "/v1/registry/predictions/"+predID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	pred := decode[types.PredictionRecord](t, rec)
	assert.Equal(t, "c1", pred.ContentID)
	assert.NotEmpty(t, pred.Factors)

	rec = s.do(t, http.MethodPost, "/v1/registry/trends/detect", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Len(t, decode[[]types.TrendRecord](t, rec), len(registry.DefaultSeeds()))

	rec = s.do(t, http.MethodGet, "/v1/registry/trends?limit=1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	trends := decode[[]types.TrendRecord](t, rec)
	require.Len(t, trends, 1)
	assert.Equal(t, "AI content creation", trends[0].Topic)

	rec = s.do(t, http.MethodPost, "/v1/registry/brands", map[string]interface{}{
		"owner": "acme", "name": "Acme", "tone": "playful",
		"key_phrases": []string{"fresh"}, "avoid_phrases": []string{"cheap"},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	brandID := decode[map[string]string](t, rec)["id"]

	rec = s.do(t, http.MethodPost, "/v1/registry/brands/"+brandID+"/alignment", map[string]string{"text": "So FRESH today"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.InDelta(t, 0.6, decode[map[string]float64](t, rec)["score"], 1e-9)

	rec = s.do(t, http.MethodGet, "/v1/registry/brands?owner=acme", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]types.BrandProfile](t, rec), 1)

	rec = s.do(t, http.MethodGet, "/v1/registry/stats", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	stats := decode[registry.Stats](t, rec)
	assert.Equal(t, 1, stats.Predictions)
	assert.Equal(t, 1, stats.BrandProfiles)
}

func TestAdmin_HealthCheckpointMetrics(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "warm", decode[healthResponse](t, rec).State)

	s.do(t, http.MethodPost, "/v1/events", map[string]string{"event_type": "view", "content_id": "c1"})

	rec = s.do(t, http.MethodPost, "/admin/checkpoint", nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	info := decode[lifecycle.ImageInfo](t, rec)
	assert.Greater(t, info.Entries, 0)

	rec = s.do(t, http.MethodGet, "/admin/history", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[map[string][]string](t, rec)["images"], 1)

	rec = s.do(t, http.MethodGet, "/admin/status", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	status := decode[statusResponse](t, rec)
	require.NotNil(t, status.LastImage)
	assert.Equal(t, info.ImageID, status.LastImage.ImageID)

	rec = s.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "socialwave_")

	_, err := s.manager.Drain(context.Background())
	require.NoError(t, err)

	rec = s.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = s.do(t, http.MethodPost, "/admin/checkpoint", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRecoveryMiddleware(t *testing.T) {
	handler := ChainMiddleware(RecoveryMiddleware(zerolog.Nop()), RequestIDMiddleware)(
		http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic("boom") }))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "req-1")
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "req-1", rec.Header().Get("X-Request-ID"))
}

func TestCorrelationIDDefaultsToRequestID(t *testing.T) {
	var got string
	handler := ChainMiddleware(RequestIDMiddleware, CorrelationIDMiddleware)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { got = GetCorrelationID(r.Context()) }))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "req-7")
	handler.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, "req-7", got)
}
