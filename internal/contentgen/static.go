package contentgen

import (
	"context"
	"fmt"
)

// StaticClient returns canned responses without calling an LLM. Used for
// dry runs where no API key is configured.
type StaticClient struct{}

// NewStaticClient builds a client that fabricates plausible output locally.
func NewStaticClient() *StaticClient {
	return &StaticClient{}
}

// GenerateText returns a short placeholder derived from the prompt.
func (c *StaticClient) GenerateText(_ context.Context, prompt string, _ ModelTier) (string, error) {
	return fmt.Sprintf("[static] %s", Truncate(prompt, 80)), nil
}

// GenerateJSON returns an empty JSON array.
func (c *StaticClient) GenerateJSON(context.Context, string, ModelTier) (string, error) {
	return "[]", nil
}

// Close is a no-op.
func (c *StaticClient) Close() error { return nil }
