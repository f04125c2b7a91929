package vision

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mealsignal/backend/internal/domain"
)

func replyWith(content string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": content}},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}
}

func newTestEstimator(url string) *OpenAIEstimator {
	return NewOpenAIEstimator(OpenAIConfig{
		APIKey:            "test-key",
		BaseURL:           url,
		Model:             "test-model",
		Timeout:           2 * time.Second,
		RequestsPerMinute: 600,
	}, nil)
}

func TestNewOpenAIEstimator_Defaults(t *testing.T) {
	e := NewOpenAIEstimator(OpenAIConfig{APIKey: "k"}, nil)

	assert.Equal(t, defaultBaseURL, e.baseURL)
	assert.Equal(t, defaultModel, e.model)
	assert.NotNil(t, e.rateLimiter)
}

func TestOpenAIEstimator_Request(t *testing.T) {
	var captured chatRequest
	var rawBody map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		require.NoError(t, json.NewDecoder(r.Body).Decode(&rawBody))
		replyWith(`{"detected_items": []}`)(w, r)
	}))
	defer server.Close()

	e := newTestEstimator(server.URL)
	_, err := e.Estimate(context.Background(), domain.VisionRequest{
		Image:          "data:image/jpeg;base64,AAA",
		SecondaryImage: "data:image/jpeg;base64,BBB",
		Hint:           "oat milk",
	})
	require.NoError(t, err)

	data, _ := json.Marshal(rawBody)
	require.NoError(t, json.Unmarshal(data, &captured))
	assert.Equal(t, "test-model", captured.Model)
	require.Len(t, captured.Messages, 2)
	assert.Equal(t, "system", captured.Messages[0].Role)

	parts, ok := captured.Messages[1].Content.([]any)
	require.True(t, ok)
	assert.Len(t, parts, 4)

	clarification := parts[1].(map[string]any)
	assert.Equal(t, "Clarification: oat milk.", clarification["text"])

	secondary := parts[3].(map[string]any)
	assert.Equal(t, "data:image/jpeg;base64,BBB", secondary["image_url"].(map[string]any)["url"])
}

func TestOpenAIEstimator_Replies(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantNil bool
	}{
		{"plain JSON", `{"confidence_overall_0_1": 0.8}`, false},
		{"JSON wrapped in prose", "Here you go:\n```json\n{\"confidence_overall_0_1\": 0.8}\n```", false},
		{"no JSON", "I cannot see any food in this photo.", true},
		{"broken JSON", `{"confidence_overall_0_1": }`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(replyWith(tt.content))
			defer server.Close()

			raw, err := newTestEstimator(server.URL).Estimate(context.Background(), domain.VisionRequest{Image: "img"})
			require.NoError(t, err)

			if tt.wantNil {
				assert.Nil(t, raw)
				return
			}
			obj, ok := raw.(map[string]any)
			require.True(t, ok)
			assert.Equal(t, 0.8, obj["confidence_overall_0_1"])
		})
	}
}

func TestOpenAIEstimator_Errors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"server error", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}},
		{"unauthorized", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}},
		{"no choices", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"choices": []}`))
		}},
		{"invalid body", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`not json`))
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			raw, err := newTestEstimator(server.URL).Estimate(context.Background(), domain.VisionRequest{Image: "img"})
			assert.Error(t, err)
			assert.Nil(t, raw)
		})
	}
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		input   string
		wantNil bool
	}{
		{`{"a": 1}`, false},
		{`prefix {"a": {"b": 2}} suffix`, false},
		{`}{`, true},
		{``, true},
		{`[1, 2]`, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := extractJSON(tt.input)
			if tt.wantNil {
				assert.Nil(t, got)
			} else {
				assert.NotNil(t, got)
			}
		})
	}
}

func TestStaticEstimator(t *testing.T) {
	raw, err := NewStaticEstimator().Estimate(context.Background(), domain.VisionRequest{Image: "img"})

	assert.NoError(t, err)
	assert.Nil(t, raw)
}
