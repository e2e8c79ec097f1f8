package synth

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"pano_backend/core"
	"pano_backend/logging"
)

func newTestPipeline(serverURL string) *HTTPPipeline {
	cfg := &core.Config{
		SDServerURL: serverURL,
		SDModelID:   "runwayml/stable-diffusion-v1-5",
		SDDevice:    "cuda",
		SDTimeout:   5 * time.Second,
	}
	return NewHTTPPipeline(cfg, logging.NewNopLogger())
}

func TestHTTPPipeline_Generate(t *testing.T) {
	pngData := []byte{}
	var gotReq txt2imgRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/sdapi/v1/txt2img" {
			http.NotFound(w, r)
			return
		}
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			http.Error(w, "bad body", http.StatusBadRequest)
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"images": []string{base64.StdEncoding.EncodeToString(pngData)},
			"info":   `{"seed": 424242}`,
		})
	}))
	defer server.Close()

	pipeline := newTestPipeline(server.URL)
	pngData = append(pngData, 0x89, 0x50, 0x4e, 0x47) // raw bytes, decoded later by the engine

	req := validRequest()
	result, err := pipeline.Generate(context.Background(), req)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	if result.Seed != 424242 {
		t.Errorf("result seed = %d, want 424242 (from server info)", result.Seed)
	}
	if len(result.PNG) != 4 {
		t.Errorf("result PNG length = %d, want 4", len(result.PNG))
	}
	if gotReq.Prompt != req.Prompt {
		t.Errorf("server saw prompt %q, want %q", gotReq.Prompt, req.Prompt)
	}
	if gotReq.CFGScale != req.GuidanceScale {
		t.Errorf("server saw cfg_scale %v, want %v", gotReq.CFGScale, req.GuidanceScale)
	}
	if gotReq.OverrideSettings["sd_model_checkpoint"] != "runwayml/stable-diffusion-v1-5" {
		t.Errorf("override_settings missing checkpoint: %v", gotReq.OverrideSettings)
	}
	if gotReq.OverrideSettings["randn_source"] != "GPU" {
		t.Errorf("override_settings missing noise source for cuda device: %v", gotReq.OverrideSettings)
	}
}

func TestRandnSource(t *testing.T) {
	tests := []struct {
		device string
		want   string
	}{
		{"cuda", "GPU"},
		{"cuda:1", "GPU"},
		{"cpu", "CPU"},
		{"CPU", "CPU"},
		{"mps", "GPU"},
	}

	for _, tt := range tests {
		t.Run(tt.device, func(t *testing.T) {
			if got := randnSource(tt.device); got != tt.want {
				t.Errorf("randnSource(%q) = %q, want %q", tt.device, got, tt.want)
			}
		})
	}
}

func TestHTTPPipeline_ErrorClassification(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		body       string
		wantErr    error
	}{
		{
			name:       "CUDA out of memory",
			statusCode: http.StatusInternalServerError,
			body:       "torch.cuda.OutOfMemoryError: CUDA out of memory",
			wantErr:    ErrOutOfMemory,
		},
		{
			name:       "model not found",
			statusCode: http.StatusNotFound,
			body:       "model not found",
			wantErr:    ErrModelNotFound,
		},
		{
			name:       "service unavailable",
			statusCode: http.StatusServiceUnavailable,
			body:       "loading",
			wantErr:    ErrServerUnavailable,
		},
		{
			name:       "generic failure",
			statusCode: http.StatusInternalServerError,
			body:       "something broke",
			wantErr:    ErrGenerationFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, tt.body, tt.statusCode)
			}))
			defer server.Close()

			pipeline := newTestPipeline(server.URL)
			_, err := pipeline.Generate(context.Background(), validRequest())
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Generate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestHTTPPipeline_EmptyImages(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"images": []string{}})
	}))
	defer server.Close()

	pipeline := newTestPipeline(server.URL)
	_, err := pipeline.Generate(context.Background(), validRequest())
	if !errors.Is(err, ErrEmptyResult) {
		t.Errorf("Generate() error = %v, want ErrEmptyResult", err)
	}
}

func TestHTTPPipeline_ServerDown(t *testing.T) {
	pipeline := newTestPipeline("http://localhost:59999")

	_, err := pipeline.Generate(context.Background(), validRequest())
	if !errors.Is(err, ErrServerUnavailable) {
		t.Errorf("Generate() error = %v, want ErrServerUnavailable", err)
	}
}

func TestHTTPPipeline_InvalidRequestRejectedLocally(t *testing.T) {
	var serverHit bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		serverHit = true
	}))
	defer server.Close()

	pipeline := newTestPipeline(server.URL)

	req := validRequest()
	req.Prompt = ""
	if _, err := pipeline.Generate(context.Background(), req); !errors.Is(err, ErrInvalidPrompt) {
		t.Errorf("Generate() error = %v, want ErrInvalidPrompt", err)
	}
	if serverHit {
		t.Error("invalid request should not reach the server")
	}
}

func TestHTTPPipeline_Ping(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/sdapi/v1/options" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte("{}"))
	}))
	defer server.Close()

	pipeline := newTestPipeline(server.URL)
	if err := pipeline.Ping(context.Background()); err != nil {
		t.Errorf("Ping() error = %v", err)
	}

	down := newTestPipeline("http://localhost:59999")
	if err := down.Ping(context.Background()); !errors.Is(err, ErrServerUnavailable) {
		t.Errorf("Ping() error = %v, want ErrServerUnavailable", err)
	}
}
