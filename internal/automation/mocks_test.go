package automation

import (
	"context"
	"math/rand"
	"sync"
	"testing"
	"time"

	"autoblog/internal/config"
	"autoblog/internal/core"
	"autoblog/internal/failures"
)

const defaultPost = `<h1>Rocket Week</h1><p>The rocket launch reached orbit.</p><p>Engineers cheered the launch.</p>`

// MockTopicSource provides a mock implementation of TopicSource
type MockTopicSource struct {
	FetchFunc func(ctx context.Context, sources []string, count int, categories []string) ([]core.Topic, error)
	calls     int
}

func (m *MockTopicSource) Fetch(ctx context.Context, sources []string, count int, categories []string) ([]core.Topic, error) {
	m.calls++
	if m.FetchFunc != nil {
		return m.FetchFunc(ctx, sources, count, categories)
	}
	return []core.Topic{{Source: "news", Text: "SpaceX launches new rocket", URL: "https://news.example/spacex"}}, nil
}

// MockPromptBuilder provides a mock implementation of PromptBuilder
type MockPromptBuilder struct{}

func (MockPromptBuilder) BlogPrompt(topic core.Topic) string {
	return "Write about " + topic.Text + "."
}

// MockGenerator provides a mock implementation of ContentGenerator
type MockGenerator struct {
	GenerateFunc func(ctx context.Context, prompt string) (string, error)

	mu      sync.Mutex
	prompts []string
}

func (m *MockGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	m.mu.Unlock()
	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, prompt)
	}
	return defaultPost, nil
}

func (m *MockGenerator) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.prompts...)
}

// MockSEOAnalyzer provides a mock implementation of SEOAnalyzer
type MockSEOAnalyzer struct {
	AnalyzeFunc func(content string) core.SEOReport
}

func (m *MockSEOAnalyzer) Analyze(content string) core.SEOReport {
	if m.AnalyzeFunc != nil {
		return m.AnalyzeFunc(content)
	}
	return core.SEOReport{
		Score:     90,
		WordCount: 650,
		Keywords: []core.KeywordCount{
			{Word: "rocket", Count: 9},
			{Word: "launch", Count: 7},
			{Word: "orbit", Count: 4},
			{Word: "crew", Count: 2},
		},
	}
}

// MockImageProvider provides a mock implementation of ImageProvider
type MockImageProvider struct {
	GenerateFunc func(ctx context.Context, prompt string) (string, error)
	prompt       string
}

func (m *MockImageProvider) Generate(ctx context.Context, prompt string) (string, error) {
	m.prompt = prompt
	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, prompt)
	}
	return "images/blog_image_1.jpg", nil
}

type publishCall struct {
	Title     string
	Content   string
	ImagePath string
	Labels    []string
}

// MockPublisher provides a mock implementation of Publisher
type MockPublisher struct {
	PublishFunc func(ctx context.Context, title, content, imagePath string, labels []string) (core.PublishResult, error)

	mu    sync.Mutex
	calls []publishCall
}

func (m *MockPublisher) Publish(ctx context.Context, title, content, imagePath string, labels []string) (core.PublishResult, error) {
	m.mu.Lock()
	m.calls = append(m.calls, publishCall{Title: title, Content: content, ImagePath: imagePath, Labels: labels})
	m.mu.Unlock()
	if m.PublishFunc != nil {
		return m.PublishFunc(ctx, title, content, imagePath, labels)
	}
	return core.PublishResult{Success: true, URL: "https://blog.example/rocket-week", PostID: "1"}, nil
}

func (m *MockPublisher) Calls() []publishCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]publishCall(nil), m.calls...)
}

// MockSharer provides a mock implementation of SocialSharer
type MockSharer struct {
	ShareFunc func(ctx context.Context, message, link string) map[string]core.ShareResult
	message   string
	link      string
}

func (m *MockSharer) Share(ctx context.Context, message, link string) map[string]core.ShareResult {
	m.message, m.link = message, link
	if m.ShareFunc != nil {
		return m.ShareFunc(ctx, message, link)
	}
	return map[string]core.ShareResult{"slack": {Success: true}, "discord": {Skipped: true}}
}

// MockMonetizer provides a mock implementation of Monetizer
type MockMonetizer struct {
	MonetizeFunc func(ctx context.Context, content string, topic core.Topic) (string, error)
}

func (m *MockMonetizer) Monetize(ctx context.Context, content string, topic core.Topic) (string, error) {
	if m.MonetizeFunc != nil {
		return m.MonetizeFunc(ctx, content, topic)
	}
	return content + "<!-- monetized -->", nil
}

// MockCleaner provides a mock implementation of ImageCleaner
type MockCleaner struct {
	ClearFunc func() (int, error)
	calls     int
}

func (m *MockCleaner) Clear() (int, error) {
	m.calls++
	if m.ClearFunc != nil {
		return m.ClearFunc()
	}
	return 2, nil
}

// memoryRunLog is an in-memory RunLog
type memoryRunLog struct {
	mu      sync.Mutex
	entries []core.RunLogEntry
}

func (l *memoryRunLog) Append(entry core.RunLogEntry) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, entry)
	return nil
}

func (l *memoryRunLog) Entries() ([]core.RunLogEntry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]core.RunLogEntry(nil), l.entries...), nil
}

// testClock is a settable clock safe for concurrent use
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock(t time.Time) *testClock { return &testClock{now: t} }

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

var testNow = time.Date(2025, 3, 4, 8, 0, 0, 0, time.UTC)

type fixture struct {
	topics    *MockTopicSource
	generator *MockGenerator
	seo       *MockSEOAnalyzer
	images    *MockImageProvider
	monetizer *MockMonetizer
	publisher *MockPublisher
	sharer    *MockSharer
	cleaner   *MockCleaner
	log       *memoryRunLog
	tracker   *failures.Tracker
	clock     *testClock
	settings  config.Automation
}

func newFixture() *fixture {
	settings := config.Default().Automation
	settings.ShareOnSocial = true
	return &fixture{
		topics:    &MockTopicSource{},
		generator: &MockGenerator{},
		seo:       &MockSEOAnalyzer{},
		images:    &MockImageProvider{},
		monetizer: &MockMonetizer{},
		publisher: &MockPublisher{},
		sharer:    &MockSharer{},
		cleaner:   &MockCleaner{},
		log:       &memoryRunLog{},
		tracker:   failures.NewTracker(),
		clock:     newTestClock(testNow),
		settings:  settings,
	}
}

func (f *fixture) orchestrator(t *testing.T) *Orchestrator {
	t.Helper()
	return NewOrchestrator(Dependencies{
		Topics:    f.topics,
		Prompts:   MockPromptBuilder{},
		Generator: f.generator,
		SEO:       f.seo,
		Images:    f.images,
		Monetizer: f.monetizer,
		Publisher: f.publisher,
		Sharer:    f.sharer,
		Cleaner:   f.cleaner,
		Log:       f.log,
		Failures:  f.tracker,
		Rand:      rand.New(rand.NewSource(1)),
		Now:       f.clock.Now,
	}, f.settings)
}
