package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	alertapp "wastetrack-cloud/internal/alerts/application"
	alerts "wastetrack-cloud/internal/alerts/domain"
	api "wastetrack-cloud/internal/api/http"
)

// ConfigStore reads and writes the alert configuration.
type ConfigStore interface {
	Load(ctx context.Context) (alerts.Configuration, error)
	Save(ctx context.Context, cfg alerts.Configuration) error
}

// InputSource supplies the metric state an evaluation pass needs.
type InputSource interface {
	AlertInput(ctx context.Context) (alertapp.Input, error)
}

// Handler provides alert configuration and evaluation endpoints.
type Handler struct {
	config  ConfigStore
	service *alertapp.Service
	input   InputSource
}

// NewHandler constructs a handler.
func NewHandler(config ConfigStore, service *alertapp.Service, input InputSource) (*Handler, error) {
	if config == nil {
		return nil, errors.New("alerts handler: nil config store")
	}
	if service == nil {
		return nil, errors.New("alerts handler: nil service")
	}
	if input == nil {
		return nil, errors.New("alerts handler: nil input source")
	}
	return &Handler{config: config, service: service, input: input}, nil
}

// ServeHTTP handles /api/v1/alerts/config and /api/v1/alerts/evaluate.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/api/v1/alerts/config":
		switch r.Method {
		case http.MethodGet:
			h.handleGetConfig(w, r)
		case http.MethodPut:
			h.handlePutConfig(w, r)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	case "/api/v1/alerts/evaluate":
		if r.Method != http.MethodGet && r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.handleEvaluate(w, r)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *Handler) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.config.Load(r.Context())
	if err != nil {
		api.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	api.WriteSuccess(w, cfg)
}

func (h *Handler) handlePutConfig(w http.ResponseWriter, r *http.Request) {
	var cfg alerts.Configuration
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		api.WriteError(w, http.StatusBadRequest, "invalid configuration body")
		return
	}
	if err := h.config.Save(r.Context(), cfg); err != nil {
		api.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	stored, err := h.config.Load(r.Context())
	if err != nil {
		api.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	api.WriteSuccess(w, stored)
}

func (h *Handler) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	input, err := h.input.AlertInput(r.Context())
	if err != nil {
		api.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	fired, err := h.service.Evaluate(r.Context(), input)
	if err != nil {
		api.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if fired == nil {
		fired = []alerts.Alert{}
	}
	api.WriteSuccess(w, fired)
}
