package openaicompat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/ymatsuda/cardforge/internal/llm"
	"github.com/ymatsuda/cardforge/internal/metrics"
)

// Client is a text-only provider for OpenAI-compatible endpoints. It has
// no file-upload capability, so image pipelines report it unavailable.
type Client struct {
	client    openai.Client
	modelName string
}

var _ llm.Client = (*Client)(nil)

func New(apiKey string, modelName string) *Client {
	return &Client{
		client:    openai.NewClient(option.WithAPIKey(apiKey)),
		modelName: modelName,
	}
}

func (c *Client) ModelName() string { return c.modelName }

func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	start := time.Now()
	defer func() { metrics.ObserveLLMCall("generate", time.Since(start)) }()

	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.modelName),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		Temperature: openai.Float(0.1),
	})
	if err != nil {
		return "", classify(err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty response from %s", c.modelName)
	}
	text := resp.Choices[0].Message.Content
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("empty response from %s", c.modelName)
	}
	return text, nil
}

func classify(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case 401, 403:
			return fmt.Errorf("%w: %s", llm.ErrInvalidKey, apiErr.Message)
		case 429:
			return &llm.RateLimitError{Err: err}
		}
	}
	return err
}
