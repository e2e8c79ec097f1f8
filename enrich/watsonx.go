package enrich

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"pano_backend/core"
	"pano_backend/logging"
)

// IBM Cloud endpoints and API versioning.
const (
	// DefaultIAMTokenURL is the IBM Cloud identity endpoint that exchanges
	// an API key for a short-lived bearer token.
	DefaultIAMTokenURL = "https://iam.cloud.ibm.com/identity/token"

	// generationAPIVersion pins the watsonx.ai text generation API version.
	generationAPIVersion = "2023-05-29"

	// tokenExpiryLeeway refreshes the cached token this long before it
	// actually expires, so in-flight requests never race the expiry.
	tokenExpiryLeeway = 60 * time.Second
)

// WatsonXProvider generates text via the IBM watsonx.ai REST API.
//
// Authentication is two-step: the configured API key is exchanged at the IAM
// endpoint for a bearer token, which is cached and reused until shortly
// before expiry. Token refresh is transparent to callers.
type WatsonXProvider struct {
	apiKey      string
	projectID   string
	baseURL     string
	iamTokenURL string
	client      *http.Client
	logger      *logging.Logger

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

var _ Provider = (*WatsonXProvider)(nil)

// NewWatsonXProvider creates a provider from the application configuration.
func NewWatsonXProvider(cfg *core.Config, logger *logging.Logger) *WatsonXProvider {
	return &WatsonXProvider{
		apiKey:      cfg.WatsonXAPIKey,
		projectID:   cfg.WatsonXProjectID,
		baseURL:     strings.TrimRight(cfg.WatsonXURL, "/"),
		iamTokenURL: DefaultIAMTokenURL,
		client:      core.GetHTTPClient(cfg, cfg.EnrichTimeout),
		logger:      logger.Named("watsonx"),
	}
}

// WithIAMTokenURL overrides the IAM endpoint. Used by tests.
func (p *WatsonXProvider) WithIAMTokenURL(tokenURL string) *WatsonXProvider {
	p.iamTokenURL = tokenURL
	return p
}

// Name identifies the backend for logging.
func (p *WatsonXProvider) Name() string {
	return "watsonx"
}

// iamTokenResponse is the IBM Cloud identity service response.
type iamTokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

// generationRequest is the watsonx.ai text generation request body.
type generationRequest struct {
	ModelID    string               `json:"model_id"`
	Input      string               `json:"input"`
	Parameters generationParameters `json:"parameters"`
	ProjectID  string               `json:"project_id"`
}

type generationParameters struct {
	DecodingMethod string   `json:"decoding_method"`
	MaxNewTokens   int      `json:"max_new_tokens"`
	MinNewTokens   int      `json:"min_new_tokens"`
	Temperature    *float64 `json:"temperature,omitempty"`
}

// generationResponse is the watsonx.ai text generation response body.
type generationResponse struct {
	Results []struct {
		GeneratedText       string `json:"generated_text"`
		StopReason          string `json:"stop_reason"`
		GeneratedTokenCount int    `json:"generated_token_count"`
		InputTokenCount     int    `json:"input_token_count"`
	} `json:"results"`
}

// Generate sends the instruction to watsonx.ai and returns the generated
// text. The bearer token is fetched or refreshed as needed.
func (p *WatsonXProvider) Generate(ctx context.Context, instruction string, params Params) (string, error) {
	if err := ValidateParams(params); err != nil {
		return "", err
	}

	token, err := p.getAccessToken(ctx)
	if err != nil {
		return "", err
	}

	reqBody := generationRequest{
		ModelID: params.ModelID,
		Input:   instruction,
		Parameters: generationParameters{
			DecodingMethod: params.Decoding,
			MaxNewTokens:   params.MaxNewTokens,
			MinNewTokens:   params.MinNewTokens,
		},
		ProjectID: p.projectID,
	}
	// Temperature only applies to sample decoding
	if params.Decoding == "sample" {
		temp := params.Temperature
		reqBody.Parameters.Temperature = &temp
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("%w: failed to encode request: %v", ErrServiceFailed, err)
	}

	endpoint := fmt.Sprintf("%s/ml/v1/text/generation?version=%s", p.baseURL, generationAPIVersion)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrServiceFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	start := time.Now()
	resp, err := p.client.Do(req)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return "", fmt.Errorf("%w: %v", ErrServiceTimeout, err)
		}
		return "", fmt.Errorf("%w: %v", ErrServiceFailed, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: failed to read response: %v", ErrServiceFailed, err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		// Cached token was revoked upstream. Drop it so the next call
		// re-authenticates.
		p.mu.Lock()
		p.accessToken = ""
		p.mu.Unlock()
		return "", fmt.Errorf("%w: HTTP 401", ErrTokenExpired)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: HTTP %d: %s", ErrServiceFailed, resp.StatusCode, truncateBody(body))
	}

	var genResp generationResponse
	if err := json.Unmarshal(body, &genResp); err != nil {
		return "", fmt.Errorf("%w: failed to decode response: %v", ErrServiceFailed, err)
	}
	if len(genResp.Results) == 0 {
		return "", ErrEmptyResponse
	}

	result := genResp.Results[0]
	p.logger.Debug("generation complete",
		zap.String("model_id", params.ModelID),
		zap.String("stop_reason", result.StopReason),
		zap.Int("input_tokens", result.InputTokenCount),
		zap.Int("generated_tokens", result.GeneratedTokenCount),
		zap.Duration("duration", time.Since(start)))

	text := strings.TrimSpace(result.GeneratedText)
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

// getAccessToken returns a valid bearer token, exchanging the API key at the
// IAM endpoint when the cached token is missing or near expiry.
func (p *WatsonXProvider) getAccessToken(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.accessToken != "" && time.Now().Before(p.tokenExpiry.Add(-tokenExpiryLeeway)) {
		return p.accessToken, nil
	}

	form := url.Values{}
	form.Set("grant_type", "urn:ibm:params:oauth:grant-type:apikey")
	form.Set("apikey", p.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.iamTokenURL,
		strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTokenExchange, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTokenExchange, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: failed to read response: %v", ErrTokenExchange, err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: HTTP %d: %s", ErrTokenExchange, resp.StatusCode, truncateBody(body))
	}

	var tokenResp iamTokenResponse
	if err := json.Unmarshal(body, &tokenResp); err != nil {
		return "", fmt.Errorf("%w: failed to decode response: %v", ErrTokenExchange, err)
	}
	if tokenResp.AccessToken == "" {
		return "", fmt.Errorf("%w: response contained no access token", ErrTokenExchange)
	}

	p.accessToken = tokenResp.AccessToken
	p.tokenExpiry = time.Now().Add(time.Duration(tokenResp.ExpiresIn) * time.Second)
	p.logger.Debug("IAM token refreshed",
		zap.Time("expires", p.tokenExpiry))

	return p.accessToken, nil
}

// truncateBody limits error body excerpts to keep log lines readable.
func truncateBody(body []byte) string {
	const maxLen = 200
	s := string(body)
	if len(s) > maxLen {
		return s[:maxLen] + "..."
	}
	return s
}
