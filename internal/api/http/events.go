package http

import (
	"net/http"
	"strconv"

	"github.com/digitull/SocialWave-sub001/internal/analytics"
	swerrors "github.com/digitull/SocialWave-sub001/internal/errors"
	"github.com/gorilla/mux"
)

// EventHandlers serves the events facade under /v1/events.
type EventHandlers struct {
	svc *analytics.Service
}

// NewEventHandlers creates handlers for svc.
func NewEventHandlers(svc *analytics.Service) *EventHandlers {
	return &EventHandlers{svc: svc}
}

// RegisterRoutes registers event routes on router.
func (h *EventHandlers) RegisterRoutes(router *mux.Router) {
	r := router.PathPrefix("/v1/events").Subrouter()
	r.HandleFunc("", h.trackEvent).Methods(http.MethodPost)
	r.HandleFunc("/batch", h.processBatch).Methods(http.MethodPost)
	r.HandleFunc("/users/{id}/engagement", h.getUserEngagement).Methods(http.MethodGet)
	r.HandleFunc("/content/top", h.getTopPerformingContent).Methods(http.MethodGet)
	r.HandleFunc("/content/viral", h.getViralContent).Methods(http.MethodGet)
	r.HandleFunc("/content/{id}/performance", h.getContentPerformance).Methods(http.MethodGet)
	r.HandleFunc("/platforms/{platform}", h.getPlatformAnalytics).Methods(http.MethodGet)
	r.HandleFunc("/timeseries", h.getTimeSeriesData).Methods(http.MethodGet)
	r.HandleFunc("/dashboard", h.getDashboardStats).Methods(http.MethodGet)
	r.HandleFunc("/trends", h.getEngagementTrends).Methods(http.MethodGet)
	r.HandleFunc("/status", h.getStatus).Methods(http.MethodGet)
}

// trackEvent handles POST /v1/events
func (h *EventHandlers) trackEvent(w http.ResponseWriter, r *http.Request) {
	var in analytics.EventInput
	if err := decodeJSON(r, &in); err != nil {
		writeServiceError(w, r, err)
		return
	}
	id, err := h.svc.TrackEvent(in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

type batchRequest struct {
	Events []analytics.EventInput `json:"events"`
}

// processBatch handles POST /v1/events/batch
func (h *EventHandlers) processBatch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, r, err)
		return
	}
	n, err := h.svc.ProcessBatch(req.Events)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"processed": n})
}

// getUserEngagement handles GET /v1/events/users/{id}/engagement
func (h *EventHandlers) getUserEngagement(w http.ResponseWriter, r *http.Request) {
	sum, err := h.svc.GetUserEngagement(mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

// getContentPerformance handles GET /v1/events/content/{id}/performance
func (h *EventHandlers) getContentPerformance(w http.ResponseWriter, r *http.Request) {
	sum, err := h.svc.GetContentPerformance(mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

// getTopPerformingContent handles GET /v1/events/content/top?limit=N
func (h *EventHandlers) getTopPerformingContent(w http.ResponseWriter, r *http.Request) {
	limit, err := intParam(r, "limit", 10)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.svc.GetTopPerformingContent(limit))
}

// getViralContent handles GET /v1/events/content/viral?threshold=X
func (h *EventHandlers) getViralContent(w http.ResponseWriter, r *http.Request) {
	threshold, err := floatParam(r, "threshold", 0.5)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.svc.GetViralContent(threshold))
}

// getPlatformAnalytics handles GET /v1/events/platforms/{platform}
func (h *EventHandlers) getPlatformAnalytics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.GetPlatformAnalytics(mux.Vars(r)["platform"]))
}

// getTimeSeriesData handles GET /v1/events/timeseries?start=&end=&platform=
func (h *EventHandlers) getTimeSeriesData(w http.ResponseWriter, r *http.Request) {
	start, err := int64Param(r, "start", 0)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	end, err := int64Param(r, "end", int64(^uint64(0)>>1))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	platform := r.URL.Query().Get("platform")
	writeJSON(w, http.StatusOK, h.svc.GetTimeSeriesData(start, end, platform))
}

// getDashboardStats handles GET /v1/events/dashboard
func (h *EventHandlers) getDashboardStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.GetDashboardStats())
}

// getEngagementTrends handles GET /v1/events/trends?hours=N
func (h *EventHandlers) getEngagementTrends(w http.ResponseWriter, r *http.Request) {
	hours, err := intParam(r, "hours", 24)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.svc.GetEngagementTrends(hours))
}

// getStatus handles GET /v1/events/status
func (h *EventHandlers) getStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.GetStatus())
}

func intParam(r *http.Request, name string, def int) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, invalidParam(name, v)
	}
	return n, nil
}

func int64Param(r *http.Request, name string, def int64) (int64, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, invalidParam(name, v)
	}
	return n, nil
}

func floatParam(r *http.Request, name string, def float64) (float64, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, invalidParam(name, v)
	}
	return f, nil
}

func invalidParam(name, value string) error {
	return swerrors.NewValidationError(swerrors.CodeInvalidRequest,
		"invalid value "+strconv.Quote(value)+" for parameter "+name)
}
