package vision

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/mealsignal/backend/internal/domain"
)

const (
	defaultBaseURL  = "https://api.openai.com/v1"
	defaultModel    = "gpt-4o-mini"
	maxResponseSize = 1 << 20
	temperature     = 0.2
	maxTokens       = 700
)

// OpenAIConfig holds configuration for the chat-completions estimator
type OpenAIConfig struct {
	APIKey            string
	BaseURL           string
	Model             string
	Timeout           time.Duration
	RequestsPerMinute int
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	Temperature    float64         `json:"temperature"`
	MaxTokens      int             `json:"max_tokens"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type responseFormat struct {
	Type string `json:"type"`
}

// chatMessage content is a string for system messages and a part list for the user turn
type chatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

// OpenAIEstimator asks a chat-completions compatible vision model for an estimate
type OpenAIEstimator struct {
	apiKey      string
	baseURL     string
	model       string
	client      *http.Client
	rateLimiter *rate.Limiter
	logger      *zap.Logger
}

// NewOpenAIEstimator creates a new chat-completions estimator
func NewOpenAIEstimator(cfg OpenAIConfig, logger *zap.Logger) *OpenAIEstimator {
	if logger == nil {
		logger = zap.NewNop()
	}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	model := cfg.Model
	if model == "" {
		model = defaultModel
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	perMinute := cfg.RequestsPerMinute
	if perMinute <= 0 {
		perMinute = 30
	}

	return &OpenAIEstimator{
		apiKey:      cfg.APIKey,
		baseURL:     baseURL,
		model:       model,
		client:      &http.Client{Timeout: timeout},
		rateLimiter: rate.NewLimiter(rate.Limit(float64(perMinute)/60), max(1, perMinute/10)),
		logger:      logger.Named("vision"),
	}
}

// Estimate sends the images and returns the decoded JSON object from the reply.
// A reply without a JSON object yields nil, which normalizes to the fallback estimate.
func (e *OpenAIEstimator) Estimate(ctx context.Context, req domain.VisionRequest) (any, error) {
	if err := e.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter error: %w", err)
	}

	body, err := json.Marshal(e.buildRequest(req))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+e.apiKey)

	resp, err := e.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API error %d", resp.StatusCode)
	}

	var chat chatResponse
	if err := json.Unmarshal(respBody, &chat); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(chat.Choices) == 0 {
		return nil, fmt.Errorf("no response choices returned")
	}

	e.logger.Debug("vision call complete",
		zap.String("model", e.model),
		zap.Int("prompt_tokens", chat.Usage.PromptTokens),
		zap.Int("completion_tokens", chat.Usage.CompletionTokens))

	raw := extractJSON(chat.Choices[0].Message.Content)
	if raw == nil {
		e.logger.Warn("vision reply carried no JSON object")
	}
	return raw, nil
}

func (e *OpenAIEstimator) buildRequest(req domain.VisionRequest) chatRequest {
	parts := []contentPart{{Type: "text", Text: analyzeInstruction}}
	if hint := strings.TrimSpace(req.Hint); hint != "" {
		parts = append(parts, contentPart{Type: "text", Text: "Clarification: " + hint + "."})
	}
	parts = append(parts, contentPart{Type: "image_url", ImageURL: &imageURL{URL: req.Image}})
	if req.SecondaryImage != "" {
		parts = append(parts, contentPart{Type: "image_url", ImageURL: &imageURL{URL: req.SecondaryImage}})
	}

	return chatRequest{
		Model: e.model,
		Messages: []chatMessage{
			{Role: "system", Content: analysisPrompt},
			{Role: "user", Content: parts},
		},
		Temperature:    temperature,
		MaxTokens:      maxTokens,
		ResponseFormat: &responseFormat{Type: "json_object"},
	}
}

// extractJSON decodes the text between the first '{' and the last '}'
func extractJSON(text string) any {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end <= start {
		return nil
	}
	var out map[string]any
	if err := json.Unmarshal([]byte(text[start:end+1]), &out); err != nil {
		return nil
	}
	return out
}
