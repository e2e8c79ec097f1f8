package enrich

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"pano_backend/core"
	"pano_backend/logging"
)

// OpenAIProvider generates text via any OpenAI-compatible chat completion
// endpoint. Local inference servers (Ollama, LM Studio, vLLM) expose this
// API, so this provider doubles as the offline development backend.
type OpenAIProvider struct {
	client  *openai.Client
	modelID string
	logger  *logging.Logger
}

var _ Provider = (*OpenAIProvider)(nil)

// NewOpenAIProvider creates a provider from the application configuration.
func NewOpenAIProvider(cfg *core.Config, logger *logging.Logger) *OpenAIProvider {
	clientConfig := openai.DefaultConfig(cfg.OpenAIAPIKey)
	if cfg.EnrichLLMURL != "" {
		clientConfig.BaseURL = cfg.EnrichLLMURL
	}

	return &OpenAIProvider{
		client:  openai.NewClientWithConfig(clientConfig),
		modelID: cfg.OpenAIModelID,
		logger:  logger.Named("openai"),
	}
}

// Name identifies the backend for logging.
func (p *OpenAIProvider) Name() string {
	return "openai"
}

// Generate sends the instruction as a single user message and returns the
// completion text.
func (p *OpenAIProvider) Generate(ctx context.Context, instruction string, params Params) (string, error) {
	if err := ValidateParams(params); err != nil {
		return "", err
	}

	modelID := params.ModelID
	if p.modelID != "" {
		modelID = p.modelID
	}

	req := openai.ChatCompletionRequest{
		Model: modelID,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: instruction,
			},
		},
		MaxTokens: params.MaxNewTokens,
	}
	if params.Decoding == "sample" {
		req.Temperature = float32(params.Temperature)
	}

	start := time.Now()
	resp, err := p.client.CreateChatCompletion(ctx, req)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return "", fmt.Errorf("%w: %v", ErrServiceTimeout, err)
		}
		return "", fmt.Errorf("%w: %v", ErrServiceFailed, err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}

	p.logger.Debug("chat completion complete",
		zap.String("model_id", modelID),
		zap.Int("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens),
		zap.Duration("duration", time.Since(start)))

	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}
