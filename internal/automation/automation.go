// Package automation runs the topic to published post pipeline and its scheduler.
package automation

import (
	"context"
	"errors"

	"autoblog/internal/core"
)

var (
	// ErrSchedulerRunning is returned by Start when the scheduler is already active
	ErrSchedulerRunning = errors.New("automation is already running")
	// ErrSchedulerStopped is returned by Stop when the scheduler is not active
	ErrSchedulerStopped = errors.New("automation is not running")
	// ErrInvalidSettings wraps every settings validation failure
	ErrInvalidSettings = errors.New("invalid automation settings")
)

// ContentGenerator writes HTML for a prompt.
type ContentGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// TopicSource returns candidate topics.
type TopicSource interface {
	Fetch(ctx context.Context, sources []string, count int, categories []string) ([]core.Topic, error)
}

// PromptBuilder turns a topic into a generation prompt.
type PromptBuilder interface {
	BlogPrompt(topic core.Topic) string
}

// SEOAnalyzer scores content.
type SEOAnalyzer interface {
	Analyze(content string) core.SEOReport
}

// ImageProvider returns a local path or URL for a header image.
type ImageProvider interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Publisher posts the finished article.
type Publisher interface {
	Publish(ctx context.Context, title, content, imagePath string, labels []string) (core.PublishResult, error)
}

// SocialSharer announces a published post. Results are keyed by platform.
type SocialSharer interface {
	Share(ctx context.Context, message, link string) map[string]core.ShareResult
}

// Monetizer adds ad and affiliate placements to content.
type Monetizer interface {
	Monetize(ctx context.Context, content string, topic core.Topic) (string, error)
}

// ImageCleaner removes generated images once they are published.
type ImageCleaner interface {
	Clear() (int, error)
}

// RunLog persists one entry per run.
type RunLog interface {
	Append(entry core.RunLogEntry) error
	Entries() ([]core.RunLogEntry, error)
}
