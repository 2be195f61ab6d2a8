package agent

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotConfigured is returned when a provider has no API key or endpoint.
var ErrNotConfigured = errors.New("provider not configured")

// Provider is one hosted (or local) language model that can complete a prompt.
type Provider interface {
	Name() string
	Configured() bool
	Complete(ctx context.Context, prompt string) (string, error)
}

// ProviderError wraps an upstream failure with the provider that produced it.
type ProviderError struct {
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}
