package gemini

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ymatsuda/cardforge/internal/llm"
	"github.com/ymatsuda/cardforge/internal/metrics"
	"github.com/ymatsuda/cardforge/pkg/logger"
	"google.golang.org/genai"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Client wraps the Gemini SDK behind the llm.FileCapable interface.
type Client struct {
	client    *genai.Client
	modelName string
	logger    *logger.Logger
}

var _ llm.FileCapable = (*Client)(nil)

func New(ctx context.Context, apiKey string, modelName string) (*Client, error) {
	c, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &Client{
		client:    c,
		modelName: modelName,
		logger:    logger.New("llm_gemini"),
	}, nil
}

func (c *Client) ModelName() string { return c.modelName }

func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	start := time.Now()
	defer func() { metrics.ObserveLLMCall("generate", time.Since(start)) }()

	result, err := c.client.Models.GenerateContent(
		ctx,
		c.modelName,
		genai.Text(prompt),
		nil,
	)
	if err != nil {
		return "", classify(err)
	}
	text := result.Text()
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("empty response from %s", c.modelName)
	}
	return text, nil
}

func (c *Client) UploadFile(ctx context.Context, data []byte, mimeType string) (llm.FileRef, error) {
	if mimeType == "" {
		mimeType = "image/png"
	}
	file, err := c.client.Files.Upload(ctx, bytes.NewReader(data), &genai.UploadFileConfig{
		MIMEType: mimeType,
	})
	if err != nil {
		return llm.FileRef{}, classify(err)
	}
	c.logger.Debug("file uploaded", "uri", file.URI, "mimeType", file.MIMEType)

	ref := llm.FileRef{URI: file.URI, MimeType: file.MIMEType}
	if ref.MimeType == "" {
		ref.MimeType = mimeType
	}
	return ref, nil
}

func (c *Client) GenerateWithFiles(ctx context.Context, prompt string, files []llm.FileRef) (string, error) {
	parts := make([]*genai.Part, 0, len(files)+1)
	parts = append(parts, &genai.Part{Text: prompt})
	for _, f := range files {
		parts = append(parts, &genai.Part{
			FileData: &genai.FileData{FileURI: f.URI, MIMEType: f.MimeType},
		})
	}

	start := time.Now()
	defer func() { metrics.ObserveLLMCall("generate_with_files", time.Since(start)) }()

	contents := []*genai.Content{{Role: genai.RoleUser, Parts: parts}}
	result, err := c.client.Models.GenerateContent(ctx, c.modelName, contents, nil)
	if err != nil {
		return "", classify(err)
	}
	text := result.Text()
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("empty response from %s", c.modelName)
	}
	return text, nil
}

// classify maps SDK errors onto the shared llm error taxonomy so the
// retry executor and orchestrators can branch without knowing Gemini.
func classify(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case 401, 403:
			return fmt.Errorf("%w: %s", llm.ErrInvalidKey, apiErr.Message)
		case 429:
			return &llm.RateLimitError{
				RetryDelay: retryDelayOf(apiErr),
				Err:        err,
			}
		}
		return err
	}

	if s, ok := status.FromError(err); ok {
		switch s.Code() {
		case codes.ResourceExhausted:
			return &llm.RateLimitError{Err: err}
		case codes.Unauthenticated, codes.PermissionDenied:
			return fmt.Errorf("%w: %s", llm.ErrInvalidKey, s.Message())
		}
	}
	return err
}

// retryDelayOf digs the RetryInfo hint out of a 429 payload.
func retryDelayOf(apiErr genai.APIError) string {
	for _, detail := range apiErr.Details {
		t, _ := detail["@type"].(string)
		if !strings.Contains(t, "RetryInfo") {
			continue
		}
		if delay, ok := detail["retryDelay"].(string); ok {
			return delay
		}
	}
	return ""
}
