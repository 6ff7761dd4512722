package services

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"tutorapp/internal/config"
	"tutorapp/internal/observability"
	contextutils "tutorapp/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func aiClientFixture(t *testing.T, handler http.HandlerFunc) *AIClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := &config.Config{
		Providers: []config.ProviderConfig{
			{Code: "testprov", URL: server.URL, Models: []config.AIModel{{Code: "test-model", MaxTokens: 256}}},
		},
		AI: config.AIConfig{Provider: "testprov", Model: "test-model"},
	}
	return NewAIClient(cfg, observability.NewLogger(nil))
}

func sseHandler(chunks ...string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		for _, chunk := range chunks {
			fmt.Fprintf(w, "data: {\"choices\":[{\"delta\":{\"content\":%q}}]}\n\n", chunk)
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
	}
}

func TestAIClient_NoClientTimeout(t *testing.T) {
	// A slow model holds the request open until the stream completes or the
	// caller's context is cancelled; the HTTP client must not cut it off.
	client := aiClientFixture(t, sseHandler("x"))
	assert.Zero(t, client.httpClient.Timeout)
}

func TestAIClient_InvokeConcatenatesStream(t *testing.T) {
	client := aiClientFixture(t, sseHandler("Hello", ", ", "world"))

	got, err := client.Invoke(context.Background(), "say hello")
	require.NoError(t, err)
	assert.Equal(t, "Hello, world", got)
}

func TestAIClient_StreamDeliversChunks(t *testing.T) {
	client := aiClientFixture(t, sseHandler("a", "b"))

	chunks := make(chan string, 8)
	err := client.Stream(context.Background(), "prompt", chunks)
	require.NoError(t, err)
	close(chunks)

	var got []string
	for chunk := range chunks {
		got = append(got, chunk)
	}
	assert.Equal(t, []string{"a", "b"}, got)
}

func TestAIClient_SkipsMalformedChunks(t *testing.T) {
	client := aiClientFixture(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, ": keepalive comment\n\n")
		fmt.Fprint(w, "data: this is not json\n\n")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"ok\"}}]}\n\n")
		fmt.Fprint(w, "data: [DONE]\n\n")
	})

	got, err := client.Invoke(context.Background(), "prompt")
	require.NoError(t, err)
	assert.Equal(t, "ok", got)
}

func TestAIClient_HTTPErrorSurfacesExcerpt(t *testing.T) {
	client := aiClientFixture(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, "rate limited")
	})

	_, err := client.Invoke(context.Background(), "prompt")
	require.Error(t, err)
	assert.True(t, contextutils.IsError(err, contextutils.ErrAIRequestFailed))
	assert.Contains(t, err.Error(), "rate limited")
}

func TestAIClient_StreamErrorPayload(t *testing.T) {
	client := aiClientFixture(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "data: {\"error\":{\"message\":\"model overloaded\",\"type\":\"server_error\"}}\n\n")
	})

	_, err := client.Invoke(context.Background(), "prompt")
	require.Error(t, err)
	assert.True(t, contextutils.IsError(err, contextutils.ErrAIRequestFailed))
	assert.Contains(t, err.Error(), "model overloaded")
}

func TestAIClient_ConfigValidation(t *testing.T) {
	logger := observability.NewLogger(nil)

	tests := []struct {
		name   string
		cfg    config.Config
		prompt string
	}{
		{
			name:   "missing provider",
			cfg:    config.Config{AI: config.AIConfig{Model: "m"}},
			prompt: "p",
		},
		{
			name:   "missing model",
			cfg:    config.Config{AI: config.AIConfig{Provider: "x"}},
			prompt: "p",
		},
		{
			name:   "empty prompt",
			cfg:    config.Config{AI: config.AIConfig{Provider: "x", Model: "m"}},
			prompt: "",
		},
		{
			name:   "unknown provider URL",
			cfg:    config.Config{AI: config.AIConfig{Provider: "x", Model: "m"}},
			prompt: "p",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := NewAIClient(&tt.cfg, logger)
			_, err := client.Invoke(context.Background(), tt.prompt)
			require.Error(t, err)
			assert.True(t, contextutils.IsError(err, contextutils.ErrAIConfigInvalid), "got %v", err)
		})
	}
}

func TestAIClient_SendsAuthorizationHeader(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(func() http.HandlerFunc {
		inner := sseHandler("x")
		return func(w http.ResponseWriter, r *http.Request) {
			gotAuth = r.Header.Get("Authorization")
			inner(w, r)
		}
	}())
	t.Cleanup(server.Close)

	cfg := &config.Config{
		Providers: []config.ProviderConfig{{Code: "testprov", URL: server.URL}},
		AI:        config.AIConfig{Provider: "testprov", Model: "test-model", APIKey: "sk-test"},
	}
	client := NewAIClient(cfg, observability.NewLogger(nil))

	_, err := client.Invoke(context.Background(), "prompt")
	require.NoError(t, err)
	assert.Equal(t, "Bearer sk-test", gotAuth)
}
