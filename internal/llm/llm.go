// Package llm generates blog prose with hosted language models.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"autoblog/internal/config"
)

var (
	// ErrEmptyPrompt is returned for an empty prompt
	ErrEmptyPrompt = errors.New("prompt cannot be empty")
	// ErrEmptyResponse is returned when the model produced no text
	ErrEmptyResponse = errors.New("empty response from model")
)

// Generator produces HTML content for a prompt.
type Generator interface {
	Name() string
	Generate(ctx context.Context, prompt string) (string, error)
}

// NewGenerator selects a generator by the configured provider.
func NewGenerator(ctx context.Context, cfg config.AI) (Generator, error) {
	switch strings.ToLower(cfg.Provider) {
	case "", "gemini":
		return NewGeminiGenerator(ctx, GeminiOptions{
			APIKey:      cfg.Gemini.APIKey,
			Model:       cfg.Gemini.Model,
			Temperature: cfg.Gemini.Temperature,
			MaxTokens:   cfg.Gemini.MaxTokens,
		})
	case "openai":
		return NewOpenAIGenerator(OpenAIOptions{
			APIKey:  cfg.OpenAI.APIKey,
			Model:   cfg.OpenAI.Model,
			BaseURL: cfg.OpenAI.BaseURL,
		})
	default:
		return nil, fmt.Errorf("unsupported AI provider %q", cfg.Provider)
	}
}
