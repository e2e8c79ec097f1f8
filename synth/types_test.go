package synth

import (
	"errors"
	"strings"
	"testing"
)

func validRequest() GenerationRequest {
	return GenerationRequest{
		Prompt:        "a mountain valley",
		Width:         1024,
		Height:        512,
		Steps:         50,
		GuidanceScale: 7.5,
		Seed:          -1,
		SamplerName:   "Euler a",
	}
}

func TestClampSteps(t *testing.T) {
	tests := []struct {
		name  string
		input int
		want  int
	}{
		{name: "zero clamps to minimum", input: 0, want: MinSteps},
		{name: "negative clamps to minimum", input: -10, want: MinSteps},
		{name: "excessive clamps to maximum", input: 1000, want: MaxSteps},
		{name: "just above maximum", input: 151, want: MaxSteps},
		{name: "in range unchanged", input: 50, want: 50},
		{name: "minimum unchanged", input: 1, want: 1},
		{name: "maximum unchanged", input: 150, want: 150},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClampSteps(tt.input); got != tt.want {
				t.Errorf("ClampSteps(%d) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestClampGuidance(t *testing.T) {
	tests := []struct {
		name  string
		input float64
		want  float64
	}{
		{name: "zero clamps to minimum", input: 0, want: MinGuidance},
		{name: "below range", input: 0.5, want: MinGuidance},
		{name: "excessive clamps to maximum", input: 100, want: MaxGuidance},
		{name: "in range unchanged", input: 7.5, want: 7.5},
		{name: "boundary minimum", input: 1.0, want: 1.0},
		{name: "boundary maximum", input: 30.0, want: 30.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClampGuidance(tt.input); got != tt.want {
				t.Errorf("ClampGuidance(%v) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestValidateRequest(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*GenerationRequest)
		wantErr error
	}{
		{name: "valid request", mutate: func(r *GenerationRequest) {}, wantErr: nil},
		{name: "empty prompt", mutate: func(r *GenerationRequest) { r.Prompt = "" }, wantErr: ErrInvalidPrompt},
		{name: "whitespace prompt", mutate: func(r *GenerationRequest) { r.Prompt = "   " }, wantErr: ErrInvalidPrompt},
		{
			name:    "prompt too long",
			mutate:  func(r *GenerationRequest) { r.Prompt = strings.Repeat("x", MaxPromptLength+1) },
			wantErr: ErrInvalidPrompt,
		},
		{
			name: "not 2 to 1 aspect",
			mutate: func(r *GenerationRequest) {
				r.Width = 1024
				r.Height = 1024
			},
			wantErr: ErrInvalidParams,
		},
		{
			name: "width not divisible by 8",
			mutate: func(r *GenerationRequest) {
				r.Width = 1026
				r.Height = 513
			},
			wantErr: ErrInvalidParams,
		},
		{
			name: "width too small",
			mutate: func(r *GenerationRequest) {
				r.Width = 64
				r.Height = 32
			},
			wantErr: ErrInvalidParams,
		},
		{name: "steps out of range", mutate: func(r *GenerationRequest) { r.Steps = 0 }, wantErr: ErrInvalidParams},
		{name: "guidance out of range", mutate: func(r *GenerationRequest) { r.GuidanceScale = 0.5 }, wantErr: ErrInvalidParams},
		{
			name:    "negative prompt too long",
			mutate:  func(r *GenerationRequest) { r.NegativePrompt = strings.Repeat("x", MaxPromptLength+1) },
			wantErr: ErrInvalidParams,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(&req)
			err := ValidateRequest(req)

			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateRequest() error = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateRequest() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
