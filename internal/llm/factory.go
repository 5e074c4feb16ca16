package llm

import (
	"context"
	"fmt"
)

// Factory resolves a provider name to a configured client. Construction
// funcs are injected so the factory stays free of SDK imports.
type Factory struct {
	providers map[string]func(ctx context.Context) (Client, error)
}

func NewFactory() *Factory {
	return &Factory{providers: make(map[string]func(ctx context.Context) (Client, error))}
}

func (f *Factory) Register(name string, construct func(ctx context.Context) (Client, error)) {
	f.providers[name] = construct
}

// Create builds the named provider. Unknown names are a configuration
// error, not a runtime fallback.
func (f *Factory) Create(ctx context.Context, name string) (Client, error) {
	construct, ok := f.providers[name]
	if !ok {
		return nil, fmt.Errorf("unknown llm provider %q", name)
	}
	return construct(ctx)
}
