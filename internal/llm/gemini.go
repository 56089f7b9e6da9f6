package llm

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"

	"autoblog/internal/core"
	"autoblog/internal/logger"
)

const (
	// DefaultGeminiModel is used when no model is configured.
	DefaultGeminiModel = "gemini-2.0-flash"
	// DefaultTemperature matches the sampling used for blog prose.
	DefaultTemperature = float32(0.7)
	// DefaultMaxTokens bounds the length of a generated post.
	DefaultMaxTokens = int32(2048)
)

// ErrNoAPIKey is returned when a provider is selected without credentials.
var ErrNoAPIKey = errors.New("api key is required")

// GeminiOptions configures a GeminiGenerator.
type GeminiOptions struct {
	APIKey      string
	Model       string
	Temperature float32
	MaxTokens   int32
	BaseURL     string // Overrides the API endpoint, for tests and proxies
}

// GeminiGenerator writes posts with the Gemini API.
type GeminiGenerator struct {
	modelName   string
	temperature float32
	maxTokens   int32
	gClient     *genai.Client
}

// NewGeminiGenerator creates a Gemini backed generator.
func NewGeminiGenerator(ctx context.Context, opts GeminiOptions) (*GeminiGenerator, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("gemini %w. Set GEMINI_API_KEY or ai.gemini.api_key", ErrNoAPIKey)
	}
	if opts.Model == "" {
		opts.Model = DefaultGeminiModel
	}
	if opts.Temperature <= 0 {
		opts.Temperature = DefaultTemperature
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = DefaultMaxTokens
	}

	cfg := &genai.ClientConfig{
		APIKey:  opts.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if opts.BaseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: opts.BaseURL}
	}

	gClient, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiGenerator{
		modelName:   opts.Model,
		temperature: opts.Temperature,
		maxTokens:   opts.MaxTokens,
		gClient:     gClient,
	}, nil
}

// Name identifies the provider in logs.
func (g *GeminiGenerator) Name() string { return "gemini" }

// Generate returns the post for prompt as HTML.
func (g *GeminiGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	if prompt == "" {
		return "", &core.GenerationError{Provider: g.Name(), Err: ErrEmptyPrompt}
	}

	contents := []*genai.Content{{
		Parts: []*genai.Part{{Text: prompt}},
		Role:  "user",
	}}
	config := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(g.temperature),
		MaxOutputTokens: g.maxTokens,
	}

	resp, err := g.gClient.Models.GenerateContent(ctx, g.modelName, contents, config)
	if err != nil {
		return "", &core.GenerationError{Provider: g.Name(), Err: fmt.Errorf("failed to generate content: %w", err)}
	}

	content := FormatHTML(resp.Text())
	if content == "" {
		return "", &core.GenerationError{Provider: g.Name(), Err: ErrEmptyResponse}
	}
	logger.Debug("Generated content", "provider", g.Name(), "model", g.modelName, "bytes", len(content))
	return content, nil
}
