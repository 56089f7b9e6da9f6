package llm

import (
	"context"
	"fmt"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"autoblog/internal/core"
	"autoblog/internal/logger"
)

// DefaultOpenAIModel is used when no model is configured.
const DefaultOpenAIModel = "gpt-4o-mini"

const openAISystemPrompt = "You are a professional blog writer. Respond with the post only, in Markdown, starting with a '# ' title. No commentary."

// OpenAIOptions configures an OpenAIGenerator.
type OpenAIOptions struct {
	APIKey  string
	Model   string
	BaseURL string
}

// OpenAIGenerator writes posts with an OpenAI compatible chat completions API.
type OpenAIGenerator struct {
	model  string
	client openai.Client
}

// NewOpenAIGenerator creates an OpenAI backed generator.
func NewOpenAIGenerator(opts OpenAIOptions) (*OpenAIGenerator, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("openai %w. Set OPENAI_API_KEY or ai.openai.api_key", ErrNoAPIKey)
	}
	if opts.Model == "" {
		opts.Model = DefaultOpenAIModel
	}

	reqOpts := []option.RequestOption{option.WithAPIKey(opts.APIKey)}
	if opts.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(opts.BaseURL))
	}
	return &OpenAIGenerator{model: opts.Model, client: openai.NewClient(reqOpts...)}, nil
}

// Name identifies the provider in logs.
func (o *OpenAIGenerator) Name() string { return "openai" }

// Generate returns the post for prompt as HTML.
func (o *OpenAIGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	if prompt == "" {
		return "", &core.GenerationError{Provider: o.Name(), Err: ErrEmptyPrompt}
	}

	resp, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(o.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(openAISystemPrompt),
			openai.UserMessage(prompt),
		},
	})
	if err != nil {
		return "", &core.GenerationError{Provider: o.Name(), Err: fmt.Errorf("failed to generate content: %w", err)}
	}
	if len(resp.Choices) == 0 {
		return "", &core.GenerationError{Provider: o.Name(), Err: ErrEmptyResponse}
	}

	content := FormatHTML(resp.Choices[0].Message.Content)
	if content == "" {
		return "", &core.GenerationError{Provider: o.Name(), Err: ErrEmptyResponse}
	}
	logger.Debug("Generated content", "provider", o.Name(), "model", o.model, "bytes", len(content))
	return content, nil
}
