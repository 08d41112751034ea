package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"resume-smart-go/internal/apperror"
	"resume-smart-go/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate_SendsJSONModeAndParams(t *testing.T) {
	var got map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"c1","object":"chat.completion","created":1,"model":"m",
			"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":" {\"SUMMARY\":\"ok\"} "}}],
			"usage":{"prompt_tokens":3,"completion_tokens":4,"total_tokens":7}}`))
	}))
	defer srv.Close()

	c := NewClient(config.LLMConfig{APIKey: "k", BaseURL: srv.URL, Model: "m"})
	out, err := c.Generate(context.Background(), "write it", GenerationParams{Temperature: 0.5, MaxTokens: 4096, JSONMode: true})
	require.NoError(t, err)

	assert.Equal(t, `{"SUMMARY":"ok"}`, out)
	assert.Equal(t, "m", got["model"])
	assert.Equal(t, 0.5, got["temperature"])
	assert.Equal(t, float64(4096), got["max_tokens"])
	assert.Equal(t, map[string]interface{}{"type": "json_object"}, got["response_format"])
}

func TestGenerate_NoChoicesIsGenerationError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"c1","object":"chat.completion","created":1,"model":"m","choices":[]}`))
	}))
	defer srv.Close()

	c := NewClient(config.LLMConfig{APIKey: "k", BaseURL: srv.URL, Model: "m"})
	_, err := c.Generate(context.Background(), "p", GenerationParams{})
	assert.ErrorIs(t, err, apperror.ErrGeneration)
}

func TestGenerate_TransportFailureIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := NewClient(config.LLMConfig{APIKey: "k", BaseURL: url, Model: "m"})
	_, err := c.Generate(context.Background(), "p", GenerationParams{})
	assert.ErrorIs(t, err, apperror.ErrUnavailable)
}
