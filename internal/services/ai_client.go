// Package services provides business logic services for the tutoring application.
package services

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"tutorapp/internal/config"
	"tutorapp/internal/observability"
	contextutils "tutorapp/internal/utils"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
)

// AIClientInterface is the narrow surface the planner depends on: one prompt
// in, a stream of text chunks out. The model provides no structural
// guarantees; all parsing and validation happens in the caller.
type AIClientInterface interface {
	Stream(ctx context.Context, prompt string, chunks chan<- string) error
	Invoke(ctx context.Context, prompt string) (string, error)
}

// OpenAIRequest is the request body for OpenAI-compatible chat completions
type OpenAIRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens"`
	Stream      bool      `json:"stream,omitempty"`
}

// Message represents a single chat message
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// OpenAIStreamResponse is one SSE chunk of a streamed completion
type OpenAIStreamResponse struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
		FinishReason *string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// AIClient talks to an OpenAI-compatible chat completions endpoint
type AIClient struct {
	cfg        *config.Config
	logger     *observability.Logger
	httpClient *http.Client
}

// NewAIClient creates a new AI client using the configured provider. The
// client carries no timeout of its own: a planning call holds the request
// open until the full streamed response is consumed, and only the caller's
// context can cut it short.
func NewAIClient(cfg *config.Config, logger *observability.Logger) *AIClient {
	return &AIClient{
		cfg:    cfg,
		logger: logger,
		httpClient: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

// Invoke sends the prompt and concatenates the full streamed response into
// one string. The request is held open until the stream completes.
func (c *AIClient) Invoke(ctx context.Context, prompt string) (result0 string, err error) {
	ctx, span := observability.TraceAIFunction(ctx, "invoke",
		attribute.Int("prompt.length", len(prompt)),
	)
	defer observability.FinishSpan(span, &err)

	chunks := make(chan string)
	var sb strings.Builder
	done := make(chan struct{})
	go func() {
		defer close(done)
		for chunk := range chunks {
			sb.WriteString(chunk)
		}
	}()

	streamErr := c.Stream(ctx, prompt, chunks)
	close(chunks)
	<-done

	if streamErr != nil {
		return "", streamErr
	}

	span.SetAttributes(attribute.Int("response.length", sb.Len()))
	return sb.String(), nil
}

// Stream sends the prompt and writes each delta chunk to the channel. The
// channel is not closed by Stream; the caller owns it.
func (c *AIClient) Stream(ctx context.Context, prompt string, chunks chan<- string) (err error) {
	ctx, span := observability.TraceAIFunction(ctx, "stream",
		attribute.String("ai.provider", c.cfg.AI.Provider),
		attribute.String("ai.model", c.cfg.AI.Model),
		attribute.Int("prompt.length", len(prompt)),
	)
	defer observability.FinishSpan(span, &err)

	if c.cfg.AI.Provider == "" {
		return contextutils.WrapError(contextutils.ErrAIConfigInvalid, "provider is required")
	}
	if c.cfg.AI.Model == "" {
		return contextutils.WrapError(contextutils.ErrAIConfigInvalid, "model is required")
	}
	if prompt == "" {
		return contextutils.WrapError(contextutils.ErrAIConfigInvalid, "prompt cannot be empty")
	}
	if chunks == nil {
		return contextutils.WrapError(contextutils.ErrAIConfigInvalid, "chunks channel is required")
	}

	apiURL := c.cfg.ProviderURL(c.cfg.AI.Provider)
	if apiURL == "" {
		return contextutils.WrapErrorf(contextutils.ErrAIConfigInvalid, "no base URL configured for provider '%s'", c.cfg.AI.Provider)
	}

	reqBody := OpenAIRequest{
		Model:       c.cfg.AI.Model,
		Messages:    []Message{{Role: "user", Content: prompt}},
		Temperature: 0.7,
		MaxTokens:   c.cfg.ModelMaxTokens(c.cfg.AI.Provider, c.cfg.AI.Model),
		Stream:      true,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return contextutils.WrapErrorf(err, "failed to marshal streaming request body")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL+"/chat/completions", bytes.NewBuffer(jsonData))
	if err != nil {
		return contextutils.WrapErrorf(err, "failed to create streaming HTTP request")
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("User-Agent", "tutorapp/1.0")
	if c.cfg.AI.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.AI.APIKey)
	}

	startTime := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return contextutils.WrapErrorf(contextutils.ErrAIRequestFailed, "http client error: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			c.logger.Warn(ctx, "Failed to close response body", map[string]interface{}{"error": closeErr.Error()})
		}
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return contextutils.WrapErrorf(contextutils.ErrAIRequestFailed, "API request failed with status %d: %s",
			resp.StatusCode, contextutils.Truncate(string(body), config.ResponseExcerptLength))
	}

	scanner := bufio.NewScanner(resp.Body)
	var chunkCount int

	for scanner.Scan() {
		line := scanner.Text()

		if line == "" || strings.HasPrefix(line, ":") {
			continue
		}

		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		data := strings.TrimPrefix(line, "data: ")

		if data == "[DONE]" {
			break
		}

		var streamResp OpenAIStreamResponse
		if err := json.Unmarshal([]byte(data), &streamResp); err != nil {
			c.logger.Warn(ctx, "Failed to parse streaming chunk", map[string]interface{}{
				"error": err.Error(),
				"data":  data,
			})
			continue
		}

		if streamResp.Error != nil {
			return contextutils.WrapErrorf(contextutils.ErrAIRequestFailed, "API streaming error: %s", streamResp.Error.Message)
		}

		if len(streamResp.Choices) > 0 && streamResp.Choices[0].Delta.Content != "" {
			select {
			case chunks <- streamResp.Choices[0].Delta.Content:
				chunkCount++
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		if len(streamResp.Choices) > 0 && streamResp.Choices[0].FinishReason != nil {
			break
		}
	}

	if err := scanner.Err(); err != nil {
		return contextutils.WrapErrorf(contextutils.ErrAIRequestFailed, "error reading streaming response: %w", err)
	}

	c.logger.Debug(ctx, "Streaming response completed", map[string]interface{}{
		"duration":    time.Since(startTime).String(),
		"chunk_count": chunkCount,
	})
	span.SetAttributes(attribute.Int("chunk_count", chunkCount))
	return nil
}
