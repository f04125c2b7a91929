package notify

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

	"github.com/mealsignal/backend/internal/domain"
)

// WebhookSink posts feedback as a chat message to an incoming webhook
type WebhookSink struct {
	url    string
	client *http.Client
	logger *zap.Logger
}

type webhookPayload struct {
	Content string `json:"content"`
}

// NewWebhookSink creates a sink for url
func NewWebhookSink(url string, logger *zap.Logger) *WebhookSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WebhookSink{
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
		logger: logger.Named("notify"),
	}
}

// Send delivers one feedback message
func (s *WebhookSink) Send(ctx context.Context, fb domain.Feedback) error {
	message := strings.TrimSpace(fb.Message)
	if message == "" {
		return domain.ErrInvalidRequest
	}
	if strings.TrimSpace(s.url) == "" {
		return domain.ErrFeedbackUnavailable
	}

	body, err := json.Marshal(webhookPayload{Content: formatFeedback(fb, message)})
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("webhook returned %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}

	s.logger.Info("feedback delivered", zap.String("user_id", fb.UserID))
	return nil
}

// formatFeedback renders the header, the optional sender lines, a blank line and the message
func formatFeedback(fb domain.Feedback, message string) string {
	lines := []string{"**New Feedback**"}
	if fb.Name != "" {
		lines = append(lines, "**Name:** "+fb.Name)
	}
	if fb.Email != "" {
		lines = append(lines, "**Email:** "+fb.Email)
	}
	if fb.UserID != "" {
		lines = append(lines, "**User ID:** "+fb.UserID)
	}
	lines = append(lines, "", message)
	return strings.Join(lines, "\n")
}
