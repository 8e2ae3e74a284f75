// Package llm wraps the generative model service. The service speaks the
// OpenAI-compatible API (Ollama exposes it under /v1), so the client is a
// thin layer over go-openai with the base URL pointed at it.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// Client is what the chat pipeline needs from the model service.
type Client interface {
	ListModels(ctx context.Context) ([]string, error)
	Complete(ctx context.Context, model, prompt string) (string, error)
}

type Config struct {
	BaseURL string
	APIKey  string
	// Timeout bounds each call. Zero leaves it to the caller's context.
	Timeout time.Duration
}

// OpenAIClient talks to an OpenAI-compatible endpoint.
type OpenAIClient struct {
	client  *openai.Client
	timeout time.Duration
}

func NewOpenAIClient(cfg Config) *OpenAIClient {
	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = "ollama"
	}
	oc := openai.DefaultConfig(apiKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}
	oc.HTTPClient = &http.Client{}

	return &OpenAIClient{
		client:  openai.NewClientWithConfig(oc),
		timeout: cfg.Timeout,
	}
}

func (c *OpenAIClient) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.timeout)
}

// ListModels returns the ids of the models the service has loaded.
func (c *OpenAIClient) ListModels(ctx context.Context) ([]string, error) {
	if c == nil || c.client == nil {
		return nil, errors.New("llm client not initialized")
	}
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	list, err := c.client.ListModels(ctx)
	if err != nil {
		return nil, fmt.Errorf("list models: %w", err)
	}
	ids := make([]string, 0, len(list.Models))
	for _, m := range list.Models {
		ids = append(ids, m.ID)
	}
	return ids, nil
}

// Complete sends prompt as a single user message and returns the reply text.
// An empty reply is not an error.
func (c *OpenAIClient) Complete(ctx context.Context, model, prompt string) (string, error) {
	if c == nil || c.client == nil {
		return "", errors.New("llm client not initialized")
	}
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion with %s: %w", model, err)
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}

// Ping reports whether the service answers a model listing.
func (c *OpenAIClient) Ping(ctx context.Context) error {
	_, err := c.ListModels(ctx)
	return err
}
