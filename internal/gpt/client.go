// Package gpt generates recipes directly with an OpenAI-compatible chat
// model, for running the intake without the generation service.
package gpt

import (
	"context"
	"errors"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"

	"github.com/hammamikhairi/ottointake/internal/logger"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gpt-4o-mini"

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithModel overrides the default model name.
func WithModel(model string) ClientOption {
	return func(c *Client) {
		if model != "" {
			c.model = model
		}
	}
}

// WithBaseURL points the client at another OpenAI-compatible endpoint.
func WithBaseURL(url string) ClientOption {
	return func(c *Client) {
		if url != "" {
			c.opts = append(c.opts, option.WithBaseURL(url))
		}
	}
}

// WithTemperature overrides the sampling temperature.
func WithTemperature(t float64) ClientOption {
	return func(c *Client) { c.temperature = t }
}

// WithMaxTokens sets the response token limit.
func WithMaxTokens(n int) ClientOption {
	return func(c *Client) { c.maxTokens = n }
}

// WithHTTPTimeout sets the per-request timeout.
func WithHTTPTimeout(d time.Duration) ClientOption {
	return func(c *Client) { c.opts = append(c.opts, option.WithRequestTimeout(d)) }
}

// WithMaxRetries sets how often the SDK retries a failed request itself.
func WithMaxRetries(n int) ClientOption {
	return func(c *Client) { c.opts = append(c.opts, option.WithMaxRetries(n)) }
}

// Client talks to a chat-completions endpoint through the openai-go SDK.
type Client struct {
	api         openai.Client
	opts        []option.RequestOption
	model       string
	temperature float64
	maxTokens   int
	log         *logger.Logger
}

// NewClient creates a chat client authenticated with apiKey.
func NewClient(apiKey string, log *logger.Logger, opts ...ClientOption) *Client {
	c := &Client{
		opts:        []option.RequestOption{option.WithAPIKey(apiKey)},
		model:       DefaultModel,
		temperature: 0.7,
		maxTokens:   2000,
		log:         log,
	}
	for _, o := range opts {
		o(c)
	}
	c.api = openai.NewClient(c.opts...)
	return c
}

// Model returns the configured model name.
func (c *Client) Model() string { return c.model }

// ChatJSON sends a system and a user message, asks for a JSON object
// reply and returns the assistant's text.
func (c *Client) ChatJSON(ctx context.Context, system, user string) (string, error) {
	c.log.Debug("chat: model=%s, %d chars of requirements", c.model, len(user))

	resp, err := c.api.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(user),
		},
		Temperature:         openai.Float(c.temperature),
		MaxCompletionTokens: openai.Int(int64(c.maxTokens)),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		},
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("empty response (no choices)")
	}

	reply := resp.Choices[0].Message.Content
	c.log.Debug("chat: reply (%d chars): %s", len(reply), truncate(reply, 120))
	return reply, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
