package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mealsignal/backend/internal/domain"
)

func TestFormatFeedback(t *testing.T) {
	tests := []struct {
		name     string
		fb       domain.Feedback
		expected string
	}{
		{
			name:     "message only",
			fb:       domain.Feedback{},
			expected: "**New Feedback**\n\nlove it",
		},
		{
			name:     "all sender fields",
			fb:       domain.Feedback{Name: "Sam", Email: "sam@example.com", UserID: "u1"},
			expected: "**New Feedback**\n**Name:** Sam\n**Email:** sam@example.com\n**User ID:** u1\n\nlove it",
		},
		{
			name:     "user id only",
			fb:       domain.Feedback{UserID: "u1"},
			expected: "**New Feedback**\n**User ID:** u1\n\nlove it",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, formatFeedback(tt.fb, "love it"))
		})
	}
}

func TestWebhookSink_Send(t *testing.T) {
	var got webhookPayload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	sink := NewWebhookSink(server.URL, nil)
	err := sink.Send(context.Background(), domain.Feedback{Message: "  more dishes please  ", Name: "Sam"})

	require.NoError(t, err)
	assert.Equal(t, "**New Feedback**\n**Name:** Sam\n\nmore dishes please", got.Content)
}

func TestWebhookSink_Errors(t *testing.T) {
	t.Run("empty message", func(t *testing.T) {
		sink := NewWebhookSink("http://127.0.0.1:1", nil)
		err := sink.Send(context.Background(), domain.Feedback{Message: "   "})
		assert.ErrorIs(t, err, domain.ErrInvalidRequest)
	})

	t.Run("missing webhook", func(t *testing.T) {
		sink := NewWebhookSink("", nil)
		err := sink.Send(context.Background(), domain.Feedback{Message: "hi"})
		assert.ErrorIs(t, err, domain.ErrFeedbackUnavailable)
	})

	t.Run("webhook rejects", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte("bad payload"))
		}))
		defer server.Close()

		err := NewWebhookSink(server.URL, nil).Send(context.Background(), domain.Feedback{Message: "hi"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "400")
		assert.Contains(t, err.Error(), "bad payload")
	})
}
