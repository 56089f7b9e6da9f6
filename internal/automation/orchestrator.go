package automation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"

	"autoblog/internal/config"
	"autoblog/internal/core"
	"autoblog/internal/dedup"
	"autoblog/internal/failures"
	"autoblog/internal/logger"
)

const (
	topicFetchCount  = 5
	maxTitleLabels   = 3
	improvementHint  = " Include more keywords related to the topic and aim for at least 500 words."
	imagePromptStart = "A professional blog image related to "
	titlePrefix      = "Latest Trends: "
)

var errEmptyContent = errors.New("generator returned empty content")

// Dependencies are the collaborators of an Orchestrator. Images, Monetizer,
// Sharer, Cleaner and Metrics are optional.
type Dependencies struct {
	Topics    TopicSource
	Prompts   PromptBuilder
	Generator ContentGenerator
	SEO       SEOAnalyzer
	Images    ImageProvider
	Monetizer Monetizer
	Publisher Publisher
	Sharer    SocialSharer
	Cleaner   ImageCleaner
	Log       RunLog
	Failures  *failures.Tracker
	Metrics   *Metrics
	Rand      *rand.Rand
	Now       func() time.Time
}

// Orchestrator runs a single pass of the pipeline.
type Orchestrator struct {
	deps Dependencies
	log  *slog.Logger

	mu       sync.RWMutex
	settings config.Automation

	rngMu sync.Mutex
}

// NewOrchestrator creates an orchestrator with the given automation settings.
func NewOrchestrator(deps Dependencies, settings config.Automation) *Orchestrator {
	if deps.Failures == nil {
		deps.Failures = failures.NewTracker()
	}
	if deps.Rand == nil {
		deps.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &Orchestrator{deps: deps, log: logger.With("automation"), settings: cloneSettings(settings)}
}

// Settings returns a copy of the current settings.
func (o *Orchestrator) Settings() config.Automation {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return cloneSettings(o.settings)
}

// SetSettings replaces the settings used by subsequent runs.
func (o *Orchestrator) SetSettings(settings config.Automation) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.settings = cloneSettings(settings)
}

// Failures exposes the failure tracker.
func (o *Orchestrator) Failures() *failures.Tracker { return o.deps.Failures }

// RunLog exposes the run log.
func (o *Orchestrator) RunLog() RunLog { return o.deps.Log }

// Draft is generated content before images, monetization and publishing.
type Draft struct {
	Title          string         `json:"title"`
	Content        string         `json:"content"`
	SEO            core.SEOReport `json:"seo_report"`
	InitialScore   int            `json:"initial_seo_score"`
	Improved       bool           `json:"improved"`
	ImprovementErr error          `json:"-"`
}

// Draft generates content for topic and improves it once when the SEO score
// is below the configured minimum. Only the first generation can fail.
func (o *Orchestrator) Draft(ctx context.Context, topic core.Topic) (Draft, error) {
	settings := o.Settings()
	prompt := o.deps.Prompts.BlogPrompt(topic)

	content, err := o.generate(ctx, prompt)
	if err != nil {
		return Draft{}, err
	}

	report := o.deps.SEO.Analyze(content)
	draft := Draft{Content: content, SEO: report, InitialScore: report.Score}

	if report.Score < settings.MinSEOScore {
		o.log.Info("SEO score below minimum, regenerating", "topic", topic.Text, "score", report.Score, "min", settings.MinSEOScore)
		improved, err := o.generate(ctx, prompt+improvementHint)
		if err != nil {
			draft.ImprovementErr = err
			o.log.Warn("SEO regeneration failed, keeping first draft", "topic", topic.Text, "error", err.Error())
		} else {
			draft.Content = improved
			draft.SEO = o.deps.SEO.Analyze(improved)
			draft.Improved = true
		}
	}

	draft.Title = ExtractTitle(draft.Content, topic)
	return draft, nil
}

func (o *Orchestrator) generate(ctx context.Context, prompt string) (string, error) {
	content, err := o.deps.Generator.Generate(ctx, prompt)
	if err != nil {
		var genErr *core.GenerationError
		if errors.As(err, &genErr) {
			return "", err
		}
		return "", &core.GenerationError{Err: err}
	}
	if strings.TrimSpace(content) == "" {
		return "", &core.GenerationError{Err: errEmptyContent}
	}
	return content, nil
}

// GenerateAndPublish runs the full pipeline once. A nil topic lets the
// orchestrator pick one. The returned entry has already been persisted.
func (o *Orchestrator) GenerateAndPublish(ctx context.Context, specific *core.Topic) core.RunLogEntry {
	start := o.deps.Now()
	settings := o.Settings()
	entry := core.RunLogEntry{
		ID:        uuid.NewString(),
		Timestamp: start,
		Status:    core.RunStarted,
	}
	log := o.log.With("run_id", entry.ID)
	defer o.finish(&entry, start)

	// Topic
	var topic core.Topic
	if specific != nil {
		topic = *specific
	} else {
		picked, err := o.selectTopic(ctx, settings)
		if err != nil {
			entry.Status = core.RunFailed
			entry.Error = err.Error()
			log.Warn("No topic available", "error", err.Error())
			return entry
		}
		topic = picked
	}
	entry.Topic = &topic
	log = log.With("topic", topic.Text)
	log.Info("Starting run", "source", topic.Source)

	// Content and SEO
	draft, err := o.Draft(ctx, topic)
	if err != nil {
		entry.Status = core.RunFailed
		entry.ContentError = err.Error()
		entry.Error = err.Error()
		log.Error("Content generation failed", "error", err.Error())
		return entry
	}
	entry.SEOScore = draft.InitialScore
	if draft.Improved {
		entry.SEOScoreAfterImprovement = draft.SEO.Score
	}
	if draft.ImprovementErr != nil {
		entry.SEOError = draft.ImprovementErr.Error()
	}
	entry.WordCount = draft.SEO.WordCount
	entry.Title = draft.Title
	content := draft.Content

	// Image
	if o.deps.Images != nil {
		path, err := o.deps.Images.Generate(ctx, imagePromptStart+topic.Text)
		if err != nil {
			entry.ImageError = err.Error()
			log.Warn("Image unavailable, continuing without one", "error", err.Error())
		} else {
			entry.ImagePath = path
		}
	}

	// Monetization
	if o.deps.Monetizer != nil {
		monetized, err := o.deps.Monetizer.Monetize(ctx, content, topic)
		if err != nil {
			entry.MonetizeError = err.Error()
			log.Warn("Monetization failed, publishing plain content", "error", err.Error())
		} else {
			content = monetized
		}
	}

	entry.Labels = BuildLabels(topic, draft.SEO, start)

	// Publish
	result, err := o.deps.Publisher.Publish(ctx, entry.Title, content, entry.ImagePath, entry.Labels)
	if err != nil || !result.Success {
		entry.Status = core.RunPartial
		entry.PublishError = publishFailure(result, err)
		attempts := o.deps.Failures.Increment(topic.Key())
		log.Warn("Publish failed", "error", entry.PublishError, "attempts", attempts)
		return entry
	}

	entry.Status = core.RunSuccess
	entry.PublishedURL = result.URL
	o.deps.Failures.Reset(topic.Key())
	log.Info("Published post", "url", result.URL, "title", entry.Title)

	if o.deps.Cleaner != nil {
		removed, err := o.deps.Cleaner.Clear()
		if err != nil {
			log.Warn("Failed to clear images", "error", err.Error())
		} else {
			entry.ImagesCleared = true
			log.Debug("Cleared images", "count", removed)
		}
	}

	// Social
	if o.deps.Sharer != nil && settings.ShareOnSocial {
		message := fmt.Sprintf("New blog post: %s - Check it out!", entry.Title)
		entry.SocialResults = o.deps.Sharer.Share(ctx, message, result.URL)
		entry.SocialError = socialFailures(entry.SocialResults)
		if entry.SocialError != "" {
			log.Warn("Social sharing failed", "error", entry.SocialError)
		}
	}

	return entry
}

func (o *Orchestrator) finish(entry *core.RunLogEntry, start time.Time) {
	elapsed := o.deps.Now().Sub(start)
	entry.DurationMillis = elapsed.Milliseconds()
	if o.deps.Log != nil {
		if err := o.deps.Log.Append(*entry); err != nil {
			logger.Error("Failed to persist run log entry", err, "run_id", entry.ID)
		}
	}
	o.deps.Metrics.ObserveRun(entry.Status, elapsed)
}

// selectTopic picks the least failed topic that was not published recently.
func (o *Orchestrator) selectTopic(ctx context.Context, settings config.Automation) (core.Topic, error) {
	topics, err := o.deps.Topics.Fetch(ctx, settings.Sources, topicFetchCount, settings.Categories)
	if len(topics) == 0 {
		if err != nil {
			return core.Topic{}, fmt.Errorf("%w: %v", core.ErrNoTopicsAvailable, err)
		}
		return core.Topic{}, core.ErrNoTopicsAvailable
	}
	if err != nil {
		o.log.Warn("Some topic sources failed", "error", err.Error())
	}

	candidates := o.deps.Failures.Filter(topics, settings.MaxRetries)

	var history []core.RunLogEntry
	if o.deps.Log != nil {
		history, err = o.deps.Log.Entries()
		if err != nil {
			o.log.Warn("Failed to read run log for dedup", "error", err.Error())
		}
	}
	idx := dedup.BuildIndex(history, o.deps.Now(), settings.DedupWindow)

	o.shuffle(candidates)
	o.deps.Failures.SortByFailures(candidates)

	for _, candidate := range candidates {
		dup, reason := dedup.Check(candidate, idx)
		if !dup {
			return candidate, nil
		}
		o.log.Debug("Skipping duplicate topic", "topic", candidate.Text, "reason", string(reason))
	}

	o.log.Warn("Using least failed duplicate topic", "reason", core.ErrDuplicateTopicExhaustion.Error(), "topic", candidates[0].Text)
	return candidates[0], nil
}

func (o *Orchestrator) shuffle(topics []core.Topic) {
	o.rngMu.Lock()
	defer o.rngMu.Unlock()
	o.deps.Rand.Shuffle(len(topics), func(i, j int) { topics[i], topics[j] = topics[j], topics[i] })
}

// ExtractTitle returns the first h1, else the first h2, else a title built
// from the topic.
func ExtractTitle(content string, topic core.Topic) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err == nil {
		for _, tag := range []string{"h1", "h2"} {
			if title := strings.TrimSpace(doc.Find(tag).First().Text()); title != "" {
				return title
			}
		}
	}
	return titlePrefix + topic.Text
}

// BuildLabels returns the topic source, the top SEO keywords and the month.
func BuildLabels(topic core.Topic, report core.SEOReport, now time.Time) []string {
	candidates := []string{topic.Source}
	candidates = append(candidates, report.TopKeywords(maxTitleLabels)...)
	candidates = append(candidates, now.Format("January 2006"))

	labels := make([]string, 0, len(candidates))
	seen := make(map[string]bool, len(candidates))
	for _, label := range candidates {
		key := strings.ToLower(strings.TrimSpace(label))
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		labels = append(labels, strings.TrimSpace(label))
	}
	return labels
}

func publishFailure(result core.PublishResult, err error) string {
	switch {
	case err != nil:
		return err.Error()
	case result.Error != "":
		return result.Error
	default:
		return "publisher reported failure"
	}
}

func socialFailures(results map[string]core.ShareResult) string {
	platforms := make([]string, 0, len(results))
	for platform := range results {
		platforms = append(platforms, platform)
	}
	sort.Strings(platforms)

	var failed []string
	for _, platform := range platforms {
		res := results[platform]
		if res.Success || res.Skipped {
			continue
		}
		failed = append(failed, fmt.Sprintf("%s: %s", platform, res.Error))
	}
	return strings.Join(failed, "; ")
}

func cloneSettings(s config.Automation) config.Automation {
	s.Sources = append([]string(nil), s.Sources...)
	s.Categories = append([]string(nil), s.Categories...)
	return s
}
