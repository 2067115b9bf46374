package http

import (
	"net/http"
	"strconv"

	swerrors "github.com/digitull/SocialWave-sub001/internal/errors"
	"github.com/digitull/SocialWave-sub001/internal/registry"
	"github.com/gorilla/mux"
)

// RegistryHandlers serves the registry facade under /v1/registry.
type RegistryHandlers struct {
	svc *registry.Service
}

// NewRegistryHandlers creates handlers for svc.
func NewRegistryHandlers(svc *registry.Service) *RegistryHandlers {
	return &RegistryHandlers{svc: svc}
}

// RegisterRoutes registers registry routes on router.
func (h *RegistryHandlers) RegisterRoutes(router *mux.Router) {
	r := router.PathPrefix("/v1/registry").Subrouter()
	r.HandleFunc("/models", h.storeModel).Methods(http.MethodPost)
	r.HandleFunc("/models", h.listModels).Methods(http.MethodGet)
	r.HandleFunc("/models/{id}", h.getModel).Methods(http.MethodGet)
	r.HandleFunc("/models/{id}/metrics", h.getModelMetrics).Methods(http.MethodGet)
	r.HandleFunc("/models/{id}/usage", h.recordModelUsage).Methods(http.MethodPost)
	r.HandleFunc("/models/{id}/active", h.setModelActive).Methods(http.MethodPut)
	r.HandleFunc("/predictions", h.analyzeViralPotential).Methods(http.MethodPost)
	r.HandleFunc("/predictions/{id}", h.getViralPrediction).Methods(http.MethodGet)
	r.HandleFunc("/trends/detect", h.detectTrends).Methods(http.MethodPost)
	r.HandleFunc("/trends", h.getTrendingTopics).Methods(http.MethodGet)
	r.HandleFunc("/brands", h.createBrandProfile).Methods(http.MethodPost)
	r.HandleFunc("/brands", h.listBrandProfiles).Methods(http.MethodGet)
	r.HandleFunc("/brands/{id}", h.getBrandProfile).Methods(http.MethodGet)
	r.HandleFunc("/brands/{id}/alignment", h.analyzeBrandAlignment).Methods(http.MethodPost)
	r.HandleFunc("/stats", h.getStats).Methods(http.MethodGet)
}

type storeModelRequest struct {
	Owner string `json:"owner"`
	registry.ModelRequest
}

// storeModel handles POST /v1/registry/models
func (h *RegistryHandlers) storeModel(w http.ResponseWriter, r *http.Request) {
	var req storeModelRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, r, err)
		return
	}
	id, err := h.svc.StoreModel(req.Owner, req.ModelRequest)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

// listModels handles GET /v1/registry/models?name=&type=&owner=&active=&created_after=&created_before=
func (h *RegistryHandlers) listModels(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := registry.ModelQuery{NameContains: q.Get("name")}
	if v := q.Get("type"); v != "" {
		query.ModelType = &v
	}
	if v := q.Get("owner"); v != "" {
		query.Owner = &v
	}
	if v := q.Get("active"); v != "" {
		active, err := strconv.ParseBool(v)
		if err != nil {
			writeServiceError(w, r, invalidParam("active", v))
			return
		}
		query.Active = &active
	}
	for name, dst := range map[string]**int64{
		"created_after":  &query.CreatedAfter,
		"created_before": &query.CreatedBefore,
	} {
		if v := q.Get(name); v != "" {
			ts, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				writeServiceError(w, r, invalidParam(name, v))
				return
			}
			*dst = &ts
		}
	}
	writeJSON(w, http.StatusOK, h.svc.ListModels(query))
}

// getModel handles GET /v1/registry/models/{id}
func (h *RegistryHandlers) getModel(w http.ResponseWriter, r *http.Request) {
	model, err := h.svc.GetModel(mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, model)
}

// getModelMetrics handles GET /v1/registry/models/{id}/metrics
func (h *RegistryHandlers) getModelMetrics(w http.ResponseWriter, r *http.Request) {
	m, err := h.svc.GetModelMetrics(mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

type usageRequest struct {
	ResponseTimeMs float64 `json:"response_time_ms"`
	Success        bool    `json:"success"`
	Tokens         uint64  `json:"tokens"`
}

// recordModelUsage handles POST /v1/registry/models/{id}/usage
func (h *RegistryHandlers) recordModelUsage(w http.ResponseWriter, r *http.Request) {
	var req usageRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, r, err)
		return
	}
	if err := h.svc.RecordModelUsage(mux.Vars(r)["id"], req.ResponseTimeMs, req.Success, req.Tokens); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// setModelActive handles PUT /v1/registry/models/{id}/active
func (h *RegistryHandlers) setModelActive(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Active *bool `json:"active"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, r, err)
		return
	}
	if req.Active == nil {
		writeServiceError(w, r, swerrors.NewValidationError(swerrors.CodeInvalidRequest, "active is required"))
		return
	}
	if err := h.svc.SetModelActive(mux.Vars(r)["id"], *req.Active); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type viralRequest struct {
	ContentID string `json:"content_id"`
	Text      string `json:"text"`
}

// analyzeViralPotential handles POST /v1/registry/predictions
func (h *RegistryHandlers) analyzeViralPotential(w http.ResponseWriter, r *http.Request) {
	var req viralRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, r, err)
		return
	}
	id, err := h.svc.AnalyzeViralPotential(req.ContentID, req.Text)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

// getViralPrediction handles GET /v1/registry/predictions/{id}
func (h *RegistryHandlers) getViralPrediction(w http.ResponseWriter, r *http.Request) {
	pred, err := h.svc.GetViralPrediction(mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pred)
}

// detectTrends handles POST /v1/registry/trends/detect
func (h *RegistryHandlers) detectTrends(w http.ResponseWriter, r *http.Request) {
	trends, err := h.svc.DetectTrends(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, trends)
}

// getTrendingTopics handles GET /v1/registry/trends?limit=N
func (h *RegistryHandlers) getTrendingTopics(w http.ResponseWriter, r *http.Request) {
	limit, err := intParam(r, "limit", 10)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.svc.GetTrendingTopics(limit))
}

type brandRequest struct {
	Owner string `json:"owner"`
	registry.BrandRequest
}

// createBrandProfile handles POST /v1/registry/brands
func (h *RegistryHandlers) createBrandProfile(w http.ResponseWriter, r *http.Request) {
	var req brandRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, r, err)
		return
	}
	id, err := h.svc.CreateBrandVibeProfile(req.Owner, req.BrandRequest)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

// listBrandProfiles handles GET /v1/registry/brands?owner=
func (h *RegistryHandlers) listBrandProfiles(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.ListBrandVibeProfiles(r.URL.Query().Get("owner")))
}

// getBrandProfile handles GET /v1/registry/brands/{id}
func (h *RegistryHandlers) getBrandProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.svc.GetBrandVibeProfile(mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// analyzeBrandAlignment handles POST /v1/registry/brands/{id}/alignment
func (h *RegistryHandlers) analyzeBrandAlignment(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, r, err)
		return
	}
	score, err := h.svc.AnalyzeBrandAlignment(mux.Vars(r)["id"], req.Text)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]float64{"score": score})
}

// getStats handles GET /v1/registry/stats
func (h *RegistryHandlers) getStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.GetStats())
}
