package llm

import "context"

// FileRef points at an uploaded file on the provider side. It is only
// valid for the lifetime of one extraction call sequence.
type FileRef struct {
	URI      string
	MimeType string
}

// Client is the minimal text-generation capability every provider offers.
type Client interface {
	Generate(ctx context.Context, prompt string) (string, error)
	ModelName() string
}

// FileCapable is the optional file-upload capability. Callers that need
// multi-image prompts assert for it and report the provider as
// unavailable when the assertion fails.
type FileCapable interface {
	Client
	UploadFile(ctx context.Context, data []byte, mimeType string) (FileRef, error)
	GenerateWithFiles(ctx context.Context, prompt string, files []FileRef) (string, error)
}
