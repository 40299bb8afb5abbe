package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"wildtrack/ml"
	"wildtrack/monitoring"
	"wildtrack/overview"
	"wildtrack/reload"
)

var errNoArtifacts = errors.New("artifacts not loaded")

const (
	kindBadRequest     = "bad_request"
	kindInvalidInput   = "invalid_input"
	kindSchemaMismatch = "schema_mismatch"
	kindUnavailable    = "unavailable"
	kindNotFound       = "not_found"
	kindTimeout        = "timeout"
	kindInternal       = "internal"
)

type apiError struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// classify maps an error to its HTTP status and public description.
func classify(err error) (int, *apiError) {
	var (
		category *ml.InvalidCategoryError
		mismatch *ml.SchemaMismatchError
	)
	switch {
	case errors.Is(err, ml.ErrOutOfRange), errors.As(err, &category):
		return http.StatusBadRequest, &apiError{Kind: kindInvalidInput, Message: err.Error()}
	case errors.As(err, &mismatch):
		return http.StatusServiceUnavailable, &apiError{Kind: kindSchemaMismatch, Message: "prediction unavailable: " + err.Error()}
	case errors.Is(err, overview.ErrUnknownPage):
		return http.StatusNotFound, &apiError{Kind: kindNotFound, Message: err.Error()}
	case errors.Is(err, overview.ErrUnavailable), errors.Is(err, errNoArtifacts):
		return http.StatusServiceUnavailable, &apiError{Kind: kindUnavailable, Message: err.Error()}
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, &apiError{Kind: kindTimeout, Message: "request timeout"}
	default:
		return http.StatusInternalServerError, &apiError{Kind: kindInternal, Message: "internal server error"}
	}
}

// outcome labels a prediction attempt for the metrics.
func outcome(result *ml.Prediction, err error) string {
	if err == nil {
		if result.AtRisk {
			return monitoring.OutcomeAtRisk
		}
		return monitoring.OutcomeNotAtRisk
	}
	switch _, e := classify(err); e.Kind {
	case kindSchemaMismatch:
		return monitoring.OutcomeSchemaMismatch
	case kindInvalidInput:
		return monitoring.OutcomeInvalidInput
	}
	return monitoring.OutcomeError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, kind string, err error) {
	writeJSON(w, status, map[string]*apiError{"error": {Kind: kind, Message: err.Error()}})
}

func respondError(w http.ResponseWriter, err error) {
	status, e := classify(err)
	writeJSON(w, status, map[string]*apiError{"error": e})
}

// handlers 所有路由共享的依赖
type handlers struct {
	artifacts *reload.Holder
	metrics   *monitoring.Metrics
	log       *zap.Logger
	views     *views
	hub       *Hub
}

func (h *handlers) bundle() *reload.Bundle {
	if h.artifacts == nil {
		return nil
	}
	return h.artifacts.Load()
}

// predict runs one selection against the current bundle and records it.
func (h *handlers) predict(ctx context.Context, sel ml.Selection) (*ml.Prediction, error) {
	b := h.bundle()
	if b == nil {
		h.metrics.ObservePrediction(monitoring.OutcomeError, 0)
		return nil, errNoArtifacts
	}
	start := time.Now()
	result, err := b.Service.Predict(ctx, sel)
	h.metrics.ObservePrediction(outcome(result, err), time.Since(start))
	if err != nil {
		h.log.Info("prediction rejected",
			zap.String("request_id", GetRequestID(ctx)),
			zap.Error(err))
	}
	return result, err
}

func (h *handlers) register(mux *http.ServeMux) {
	route := func(pattern string, fn http.HandlerFunc) {
		mux.Handle(pattern, instrument(pattern, h.metrics, fn))
	}

	route("GET /{$}", h.handleIndex)
	route("GET /predict", h.handlePredictForm)
	route("POST /predict", h.handlePredictSubmit)

	route("GET /api/health", h.handleHealth)
	route("POST /api/predict", h.handlePredict)
	route("GET /api/tables", h.handleTables)
	route("GET /api/model", h.handleModel)
	route("GET /api/datasets", h.handleDatasets)
	route("GET /api/overview", h.handleOverviewIndex)
	route("GET /api/overview/{page}", h.handleOverview)
	if h.hub != nil {
		route("GET /api/ws/predict", h.hub.ServeHTTP)
	}
	if h.metrics != nil {
		mux.Handle("GET /metrics", h.metrics.Handler())
	}
}

type healthResponse struct {
	Status   string    `json:"status"`
	Model    string    `json:"model,omitempty"`
	Schema   ml.Schema `json:"schema,omitempty"`
	LoadedAt time.Time `json:"loaded_at"`
	Uptime   float64   `json:"uptime_seconds"`
}

func (h *handlers) handleHealth(w http.ResponseWriter, r *http.Request) {
	b := h.bundle()
	if b == nil {
		writeJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "unavailable", Uptime: h.metrics.Uptime().Seconds()})
		return
	}
	predictor := b.Service.Predictor()
	writeJSON(w, http.StatusOK, healthResponse{
		Status:   "ok",
		Model:    predictor.ModelType(),
		Schema:   predictor.Schema(),
		LoadedAt: b.LoadedAt,
		Uptime:   h.metrics.Uptime().Seconds(),
	})
}

func (h *handlers) handlePredict(w http.ResponseWriter, r *http.Request) {
	var sel ml.Selection
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&sel); err != nil {
		writeError(w, http.StatusBadRequest, kindBadRequest, fmt.Errorf("invalid JSON: %w", err))
		return
	}

	result, err := h.predict(r.Context(), sel)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type tablesResponse struct {
	Schema     ml.Schema        `json:"schema"`
	Social     []ml.CodeEntry   `json:"social"`
	Habitat    []ml.CodeEntry   `json:"habitat"`
	Regions    []ml.RegionEntry `json:"regions"`
	Traits     []ml.TraitSpec   `json:"traits"`
	TempChange *ml.TraitSpec    `json:"temp_change,omitempty"`
}

func (h *handlers) handleTables(w http.ResponseWriter, r *http.Request) {
	b := h.bundle()
	if b == nil {
		respondError(w, errNoArtifacts)
		return
	}
	encoder := b.Service.Encoder()
	tables := encoder.Tables()
	resp := tablesResponse{
		Schema:  encoder.Schema(),
		Social:  tables.Social,
		Habitat: tables.Habitat,
		Regions: tables.Regions,
		Traits:  ml.TraitSpecs(),
	}
	if encoder.Schema() == ml.SchemaBasic {
		spec := ml.TempChangeSpec()
		resp.TempChange = &spec
	}
	writeJSON(w, http.StatusOK, resp)
}

type modelResponse struct {
	Type         string    `json:"type"`
	Schema       ml.Schema `json:"schema"`
	FeatureNames []string  `json:"feature_names"`
	Probability  bool      `json:"probability"`
	LoadedAt     time.Time `json:"loaded_at"`
}

func (h *handlers) handleModel(w http.ResponseWriter, r *http.Request) {
	b := h.bundle()
	if b == nil {
		respondError(w, errNoArtifacts)
		return
	}
	p := b.Service.Predictor()
	writeJSON(w, http.StatusOK, modelResponse{
		Type:         p.ModelType(),
		Schema:       p.Schema(),
		FeatureNames: p.FeatureNames(),
		Probability:  p.SupportsProbability(),
		LoadedAt:     b.LoadedAt,
	})
}

func (h *handlers) handleDatasets(w http.ResponseWriter, r *http.Request) {
	b := h.bundle()
	if b == nil {
		respondError(w, errNoArtifacts)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"datasets": b.Overview.Datasets()})
}

func (h *handlers) handleOverviewIndex(w http.ResponseWriter, r *http.Request) {
	links := make(map[overview.Page]string)
	for _, p := range overview.Pages() {
		links[p] = "/api/overview/" + string(p)
	}
	writeJSON(w, http.StatusOK, map[string]any{"pages": links})
}

func (h *handlers) handleOverview(w http.ResponseWriter, r *http.Request) {
	page, err := overview.ParsePage(r.PathValue("page"))
	if err != nil {
		respondError(w, err)
		return
	}
	b := h.bundle()
	if b == nil {
		respondError(w, errNoArtifacts)
		return
	}
	v, err := b.Overview.Page(r.Context(), page)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}
