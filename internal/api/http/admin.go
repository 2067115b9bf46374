package http

import (
	"context"
	"net/http"

	"github.com/digitull/SocialWave-sub001/internal/lifecycle"
	"github.com/digitull/SocialWave-sub001/internal/observability"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
)

// Checkpointer is the part of the lifecycle manager the admin routes drive.
type Checkpointer interface {
	Checkpoint(ctx context.Context) (*lifecycle.ImageInfo, error)
	History(ctx context.Context) ([]string, error)
	State() lifecycle.State
	LastImage() *lifecycle.ImageInfo
}

// AdminHandlers serves health, lifecycle, and metrics routes.
type AdminHandlers struct {
	service   string
	lifecycle Checkpointer
	gatherer  prometheus.Gatherer
}

// NewAdminHandlers creates admin handlers. A nil gatherer disables /metrics.
func NewAdminHandlers(service string, lc Checkpointer, gatherer prometheus.Gatherer) *AdminHandlers {
	return &AdminHandlers{service: service, lifecycle: lc, gatherer: gatherer}
}

// RegisterRoutes registers admin routes on router.
func (h *AdminHandlers) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/health", h.health).Methods(http.MethodGet)
	router.HandleFunc("/admin/status", h.status).Methods(http.MethodGet)
	router.HandleFunc("/admin/checkpoint", h.checkpoint).Methods(http.MethodPost)
	router.HandleFunc("/admin/history", h.history).Methods(http.MethodGet)
	if h.gatherer != nil {
		router.Handle("/metrics", observability.Handler(h.gatherer)).Methods(http.MethodGet)
	}
}

type healthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	State   string `json:"state"`
}

// health reports 200 only while the stores are warm.
func (h *AdminHandlers) health(w http.ResponseWriter, r *http.Request) {
	state := h.lifecycle.State()
	resp := healthResponse{Status: "healthy", Service: h.service, State: string(state)}
	code := http.StatusOK
	if state != lifecycle.StateWarm {
		resp.Status = "unavailable"
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, resp)
}

type statusResponse struct {
	State     string               `json:"state"`
	LastImage *lifecycle.ImageInfo `json:"last_image,omitempty"`
}

func (h *AdminHandlers) status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, statusResponse{
		State:     string(h.lifecycle.State()),
		LastImage: h.lifecycle.LastImage(),
	})
}

// checkpoint handles POST /admin/checkpoint
func (h *AdminHandlers) checkpoint(w http.ResponseWriter, r *http.Request) {
	info, err := h.lifecycle.Checkpoint(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, info)
}

// history handles GET /admin/history
func (h *AdminHandlers) history(w http.ResponseWriter, r *http.Request) {
	keys, err := h.lifecycle.History(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if keys == nil {
		keys = []string{}
	}
	writeJSON(w, http.StatusOK, map[string][]string{"images": keys})
}
