package synth

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"pano_backend/core"
	"pano_backend/logging"
)

// Pipeline produces images from generation requests. The HTTP implementation
// talks to a Stable Diffusion inference server; tests substitute fakes.
type Pipeline interface {
	// Generate renders a single image for the request. The context bounds
	// the whole exchange.
	Generate(ctx context.Context, req GenerationRequest) (*GenerationResult, error)

	// Ping verifies the inference server is reachable and responding.
	Ping(ctx context.Context) error
}

// HTTPPipeline drives an AUTOMATIC1111-compatible Stable Diffusion server
// over its REST API.
type HTTPPipeline struct {
	baseURL string
	modelID string
	device  string
	client  *http.Client
	logger  *logging.Logger
}

var _ Pipeline = (*HTTPPipeline)(nil)

// NewHTTPPipeline creates a pipeline from the application configuration.
func NewHTTPPipeline(cfg *core.Config, logger *logging.Logger) *HTTPPipeline {
	return &HTTPPipeline{
		baseURL: strings.TrimRight(cfg.SDServerURL, "/"),
		modelID: cfg.SDModelID,
		device:  cfg.SDDevice,
		client:  core.GetHTTPClient(cfg, cfg.SDTimeout),
		logger:  logger.Named("sdapi"),
	}
}

// randnSource maps a compute device name to the server's noise-source
// setting. The server owns real model placement; where the initial noise
// is sampled is the one device choice the API exposes.
func randnSource(device string) string {
	if strings.HasPrefix(strings.ToLower(device), "cpu") {
		return "CPU"
	}
	return "GPU"
}

// txt2imgRequest is the /sdapi/v1/txt2img request body.
type txt2imgRequest struct {
	Prompt           string                 `json:"prompt"`
	NegativePrompt   string                 `json:"negative_prompt,omitempty"`
	Width            int                    `json:"width"`
	Height           int                    `json:"height"`
	Steps            int                    `json:"steps"`
	CFGScale         float64                `json:"cfg_scale"`
	Seed             int64                  `json:"seed"`
	SamplerName      string                 `json:"sampler_name,omitempty"`
	OverrideSettings map[string]interface{} `json:"override_settings,omitempty"`
}

// txt2imgResponse is the /sdapi/v1/txt2img response body. Info is a JSON
// string the server nests inside the JSON response.
type txt2imgResponse struct {
	Images []string `json:"images"`
	Info   string   `json:"info"`
}

// txt2imgInfo carries the fields we care about from the nested info blob.
type txt2imgInfo struct {
	Seed int64 `json:"seed"`
}

// Generate renders a single image via POST /sdapi/v1/txt2img.
func (p *HTTPPipeline) Generate(ctx context.Context, req GenerationRequest) (*GenerationResult, error) {
	if err := ValidateRequest(req); err != nil {
		return nil, err
	}

	body := txt2imgRequest{
		Prompt:         req.Prompt,
		NegativePrompt: req.NegativePrompt,
		Width:          req.Width,
		Height:         req.Height,
		Steps:          req.Steps,
		CFGScale:       req.GuidanceScale,
		Seed:           req.Seed,
		SamplerName:    req.SamplerName,
	}
	overrides := make(map[string]interface{})
	if p.modelID != "" {
		overrides["sd_model_checkpoint"] = p.modelID
	}
	if p.device != "" {
		overrides["randn_source"] = randnSource(p.device)
	}
	if len(overrides) > 0 {
		body.OverrideSettings = overrides
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to encode request: %v", ErrGenerationFailed, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		p.baseURL+"/sdapi/v1/txt2img", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := p.client.Do(httpReq)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, fmt.Errorf("%w: %v", ErrGenerationTimeout, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrServerUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %v", ErrGenerationFailed, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, classifyServerError(resp.StatusCode, respBody)
	}

	var genResp txt2imgResponse
	if err := json.Unmarshal(respBody, &genResp); err != nil {
		return nil, fmt.Errorf("%w: failed to decode response: %v", ErrGenerationFailed, err)
	}
	if len(genResp.Images) == 0 {
		return nil, ErrEmptyResult
	}

	imageData, err := base64.StdEncoding.DecodeString(genResp.Images[0])
	if err != nil {
		return nil, fmt.Errorf("%w: failed to decode image data: %v", ErrGenerationFailed, err)
	}

	seed := req.Seed
	if genResp.Info != "" {
		var info txt2imgInfo
		if err := json.Unmarshal([]byte(genResp.Info), &info); err == nil {
			seed = info.Seed
		}
	}

	duration := time.Since(start)
	p.logger.Debug("txt2img complete",
		zap.Int("steps", req.Steps),
		zap.Float64("cfg_scale", req.GuidanceScale),
		zap.Int("image_bytes", len(imageData)),
		zap.Int64("seed", seed),
		zap.Duration("duration", duration))

	return &GenerationResult{
		PNG:      imageData,
		Width:    req.Width,
		Height:   req.Height,
		Steps:    req.Steps,
		Seed:     seed,
		Duration: duration,
	}, nil
}

// Ping verifies the server answers on its options endpoint.
func (p *HTTPPipeline) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		p.baseURL+"/sdapi/v1/options", nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrServerUnavailable, err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrServerUnavailable, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: HTTP %d", ErrServerUnavailable, resp.StatusCode)
	}
	return nil
}

// classifyServerError maps an inference server error response to a sentinel.
func classifyServerError(statusCode int, body []byte) error {
	text := string(body)
	lower := strings.ToLower(text)

	switch {
	case strings.Contains(lower, "out of memory") || strings.Contains(lower, "outofmemoryerror"):
		return fmt.Errorf("%w: HTTP %d", ErrOutOfMemory, statusCode)
	case statusCode == http.StatusNotFound && strings.Contains(lower, "model"):
		return fmt.Errorf("%w: HTTP %d", ErrModelNotFound, statusCode)
	case statusCode == http.StatusServiceUnavailable || statusCode == http.StatusBadGateway:
		return fmt.Errorf("%w: HTTP %d", ErrServerUnavailable, statusCode)
	default:
		const maxLen = 200
		if len(text) > maxLen {
			text = text[:maxLen] + "..."
		}
		return fmt.Errorf("%w: HTTP %d: %s", ErrGenerationFailed, statusCode, text)
	}
}
