package core

import (
	"strings"
	"time"
)

// Topic is a candidate subject for a blog post.
type Topic struct {
	Source      string   `json:"source"`                 // Origin of the topic ("news", "google", "rss")
	Text        string   `json:"topic"`                  // Headline or title text
	Description string   `json:"description,omitempty"`  // Optional teaser text
	URL         string   `json:"url,omitempty"`          // Canonical source URL, strongest identity key
	Category    string   `json:"category,omitempty"`     // News category the topic was fetched under
	NewsSource  string   `json:"news_source,omitempty"`  // Publisher name reported by the feed
	PublishedAt string   `json:"published_at,omitempty"` // Upstream publication time, verbatim
	Related     []string `json:"related,omitempty"`      // Related queries (trend sources only)
}

// Key returns the minimal identity key for the topic.
func (t Topic) Key() string {
	return t.Source + ":" + t.Text
}

// URLKey returns the URL identity key, or "" when the topic has no URL.
func (t Topic) URLKey() string {
	if strings.TrimSpace(t.URL) == "" {
		return ""
	}
	return t.Source + ":" + t.URL
}

// RunStatus is the lifecycle state of a single automation run.
type RunStatus string

const (
	RunStarted RunStatus = "started"
	RunSuccess RunStatus = "success"
	RunPartial RunStatus = "partial" // Content produced, publish failed
	RunFailed  RunStatus = "failed"
)

// ShareResult is the outcome of sharing on one social platform.
type ShareResult struct {
	Success bool   `json:"success"`
	Skipped bool   `json:"skipped,omitempty"`
	Error   string `json:"error,omitempty"`
}

// RunLogEntry is one record per automation attempt.
type RunLogEntry struct {
	ID                       string                 `json:"id"`
	Timestamp                time.Time              `json:"timestamp"`
	Status                   RunStatus              `json:"status"`
	Topic                    *Topic                 `json:"topic,omitempty"`
	Title                    string                 `json:"title,omitempty"`
	SEOScore                 int                    `json:"seo_score,omitempty"`
	SEOScoreAfterImprovement int                    `json:"seo_score_after_improvement,omitempty"`
	WordCount                int                    `json:"word_count,omitempty"`
	PublishedURL             string                 `json:"published_url,omitempty"`
	Labels                   []string               `json:"labels,omitempty"`
	ImagePath                string                 `json:"image_path,omitempty"`
	ImagesCleared            bool                   `json:"images_cleared,omitempty"`
	SocialResults            map[string]ShareResult `json:"social_results,omitempty"`
	DurationMillis           int64                  `json:"duration_ms,omitempty"`

	// Per-stage diagnostics
	Error         string `json:"error,omitempty"`
	ContentError  string `json:"content_error,omitempty"`
	SEOError      string `json:"seo_error,omitempty"`
	ImageError    string `json:"image_error,omitempty"`
	MonetizeError string `json:"monetize_error,omitempty"`
	PublishError  string `json:"publish_error,omitempty"`
	SocialError   string `json:"social_error,omitempty"`
}

// AffiliateProduct is a catalog entry that may be advertised inside a post.
type AffiliateProduct struct {
	URL         string `json:"url"`
	ProductName string `json:"product_name"`
	Description string `json:"description,omitempty"`
	ImageURL    string `json:"image_url,omitempty"`
	Category    string `json:"category,omitempty"` // Comma-separated category tokens
	Price       string `json:"price,omitempty"`
}

// AdFormat is a display ad unit shape.
type AdFormat string

const (
	AdBanner       AdFormat = "banner"       // 468x60
	AdLeaderboard  AdFormat = "leaderboard"  // 728x90
	AdSkyscraper   AdFormat = "skyscraper"   // 160x600
	AdRectangle    AdFormat = "rectangle"    // 300x250
	AdInterstitial AdFormat = "interstitial" // Full page
)

// AllAdFormats lists every known format in a fixed order.
var AllAdFormats = []AdFormat{AdBanner, AdLeaderboard, AdSkyscraper, AdRectangle, AdInterstitial}

// AdSlot is one planned ad placement, positioned after a paragraph index.
type AdSlot struct {
	Format   AdFormat `json:"format"`
	Position int      `json:"position"`
}

// Density controls how aggressively ads are placed.
type Density string

const (
	DensityLow    Density = "low"
	DensityMedium Density = "medium"
	DensityHigh   Density = "high"
)

// KeywordCount is a single keyword with its frequency.
type KeywordCount struct {
	Word  string `json:"word"`
	Count int    `json:"count"`
}

// SEOReport is the result of analyzing generated content.
type SEOReport struct {
	Score          int                `json:"score"`
	WordCount      int                `json:"word_count"`
	Keywords       []KeywordCount     `json:"keywords"` // Ordered by frequency, descending
	KeywordDensity map[string]float64 `json:"keyword_density"`
	Issues         []string           `json:"issues"`
}

// KeywordMap returns the keywords as a word -> count map.
func (r SEOReport) KeywordMap() map[string]int {
	m := make(map[string]int, len(r.Keywords))
	for _, kw := range r.Keywords {
		m[kw.Word] = kw.Count
	}
	return m
}

// TopKeywords returns up to n keywords in report order.
func (r SEOReport) TopKeywords(n int) []string {
	var out []string
	for i, kw := range r.Keywords {
		if i >= n {
			break
		}
		out = append(out, kw.Word)
	}
	return out
}

// PublishResult is what a publisher reports back.
type PublishResult struct {
	Success bool   `json:"success"`
	URL     string `json:"url,omitempty"`
	PostID  string `json:"post_id,omitempty"`
	Error   string `json:"error,omitempty"`
}
