// Package provider adapts external LLM text-generation APIs behind one
// interface. Generation is optional everywhere it is used: callers fall back
// to templated responses when no provider is configured or a call fails.
package provider

import (
	"context"
	"time"
)

// Provider defines the interface for LLM text generation.
type Provider interface {
	ID() string
	Name() string
	Generate(ctx context.Context, req *GenerateRequest) (string, error)
}

// GenerateRequest is a single-prompt completion request.
type GenerateRequest struct {
	Prompt      string  `json:"prompt"`
	MaxTokens   int     `json:"max_tokens,omitempty"`
	Temperature float64 `json:"temperature,omitempty"`
}

// Config holds configuration for a provider instance.
type Config struct {
	ID       string        `json:"id"`
	Type     string        `json:"type"`
	Name     string        `json:"name"`
	Endpoint string        `json:"endpoint"`
	APIKey   string        `json:"api_key"`
	Model    string        `json:"model"`
	Timeout  time.Duration `json:"timeout,omitempty"`
}
