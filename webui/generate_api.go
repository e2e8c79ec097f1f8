package webui

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"pano_backend/enrich"
	"pano_backend/handlers"
	"pano_backend/logging"
	"pano_backend/metrics"
)

// RequestHandler is the orchestrator as the API sees it.
type RequestHandler interface {
	HandleRequest(ctx context.Context, req handlers.GenerateRequest) (*handlers.GenerateResult, error)
}

// ReadyChecker reports whether the synthesis backend is reachable.
type ReadyChecker interface {
	Ready(ctx context.Context) error
}

// API serves the REST endpoints for the generation UI.
type API struct {
	orchestrator RequestHandler
	collector    *metrics.Collector
	readiness    ReadyChecker
	modes        []enrich.Mode
	version      string
	logger       *logging.Logger
}

// NewAPI creates the API surface. readiness may be nil when no backend
// probe is wanted.
func NewAPI(orchestrator RequestHandler, collector *metrics.Collector, readiness ReadyChecker, modes []enrich.Mode, version string, logger *logging.Logger) *API {
	return &API{
		orchestrator: orchestrator,
		collector:    collector,
		readiness:    readiness,
		modes:        modes,
		version:      version,
		logger:       logger.Named("api"),
	}
}

// generateRequestBody is the POST /api/generate request.
type generateRequestBody struct {
	Prompt   string  `json:"prompt"`
	Mode     string  `json:"mode"`
	Steps    int     `json:"steps"`
	Guidance float64 `json:"guidance"`
}

// generateResponseBody is the POST /api/generate response.
type generateResponseBody struct {
	CorrelationID  string `json:"correlation_id"`
	Success        bool   `json:"success"`
	Status         string `json:"status"`
	EnrichedPrompt string `json:"enriched_prompt,omitempty"`
	ImageBase64    string `json:"image_base64,omitempty"`
	FilePath       string `json:"file_path,omitempty"`
	Seed           int64  `json:"seed,omitempty"`
	Error          string `json:"error,omitempty"`
	EnrichMillis   int64  `json:"enrich_ms"`
	SynthMillis    int64  `json:"synth_ms"`
}

// errorResponse is the envelope for request-level failures.
type errorResponse struct {
	Error string `json:"error"`
}

// HandleGenerate implements POST /api/generate. Invalid input is a 400;
// pipeline failures are reported in the body with a 200 so the UI can show
// the status line it was given.
func (a *API) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		a.writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
		return
	}

	var body generateRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		a.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}

	mode, err := enrich.ParseMode(body.Mode)
	if err != nil {
		a.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	result, err := a.orchestrator.HandleRequest(r.Context(), handlers.GenerateRequest{
		Prompt:   body.Prompt,
		Mode:     mode,
		Steps:    body.Steps,
		Guidance: body.Guidance,
	})
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, enrich.ErrEmptyPrompt) || errors.Is(err, enrich.ErrInvalidParams) {
			status = http.StatusBadRequest
		}
		a.writeJSON(w, status, errorResponse{Error: err.Error()})
		return
	}

	resp := generateResponseBody{
		CorrelationID:  result.CorrelationID,
		Success:        result.Success,
		Status:         result.Status,
		EnrichedPrompt: result.EnrichedPrompt,
		FilePath:       result.FilePath,
		Seed:           result.Seed,
		Error:          result.Error,
		EnrichMillis:   result.EnrichDuration.Milliseconds(),
		SynthMillis:    result.SynthDuration.Milliseconds(),
	}
	if len(result.PNG) > 0 {
		resp.ImageBase64 = base64.StdEncoding.EncodeToString(result.PNG)
	}

	a.writeJSON(w, http.StatusOK, resp)
}

// statusResponse is the GET /api/status response.
type statusResponse struct {
	Version      string           `json:"version"`
	Ready        bool             `json:"ready"`
	ReadyMessage string           `json:"ready_message,omitempty"`
	Metrics      metrics.Snapshot `json:"metrics"`
}

// HandleStatus implements GET /api/status.
func (a *API) HandleStatus(w http.ResponseWriter, r *http.Request) {
	resp := statusResponse{
		Version: a.version,
		Ready:   true,
	}
	if a.collector != nil {
		resp.Metrics = a.collector.Snapshot()
	}
	if a.readiness != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		if err := a.readiness.Ready(ctx); err != nil {
			resp.Ready = false
			resp.ReadyMessage = err.Error()
		}
	}
	a.writeJSON(w, http.StatusOK, resp)
}

// HandleModes implements GET /api/modes.
func (a *API) HandleModes(w http.ResponseWriter, r *http.Request) {
	names := make([]string, 0, len(a.modes)+1)
	for _, mode := range a.modes {
		names = append(names, mode.String())
	}
	names = append(names, enrich.ModeNone.String())
	a.writeJSON(w, http.StatusOK, map[string][]string{"modes": names})
}

// HandleHealth implements GET /health for load balancer probes.
func (a *API) HandleHealth(w http.ResponseWriter, r *http.Request) {
	a.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeJSON serializes v with the status code. The header is already
// written when encoding fails, so a failure can only be logged.
func (a *API) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		a.logger.Warn("response encoding failed", zap.Error(err))
	}
}
