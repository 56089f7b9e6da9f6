package trends

import (
	"context"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"autoblog/internal/clients"
	"autoblog/internal/core"
)

const headlinesJSON = `{
  "status": "ok",
  "articles": [
    {"source": {"name": "Tech Daily"}, "title": "New battery chemistry doubles range", "description": "Labs report progress", "url": "https://news.example/battery", "publishedAt": "2026-03-01T10:00:00Z"},
    {"source": {"name": "Wire"}, "title": "Musk unveils another rocket", "description": "", "url": "https://news.example/musk", "publishedAt": "2026-03-01T11:00:00Z"},
    {"source": {"name": "Wire"}, "title": "", "url": "https://news.example/empty"}
  ]
}`

const feedXML = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:ht="https://trends.google.com/trending/rss">
  <channel>
    <title>Example Feed</title>
    <item>
      <title>Solar farms expand across deserts</title>
      <link>https://feed.example/solar</link>
      <description>Capacity grows</description>
      <ht:news_item>
        <ht:news_item_title>Desert solar boom</ht:news_item_title>
      </ht:news_item>
      <ht:news_item>
        <ht:news_item_title>Grid upgrades needed</ht:news_item_title>
      </ht:news_item>
    </item>
    <item>
      <title>Ocean cleanup reaches milestone</title>
      <link>https://feed.example/ocean</link>
    </item>
  </channel>
</rss>`

func fastClient() *clients.HTTP {
	return clients.NewHTTP(nil, clients.RetryConfig{MaxRetries: 1, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond})
}

func newsServer(t *testing.T, hits *int32, status int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(hits, 1)
		if got := r.URL.Query().Get("apiKey"); got != "test-key" {
			t.Errorf("expected api key, got %q", got)
		}
		if got := r.URL.Query().Get("pageSize"); got != "20" {
			t.Errorf("expected pageSize 20, got %q", got)
		}
		if status != http.StatusOK {
			w.WriteHeader(status)
			_, _ = w.Write([]byte(`{"status":"error","message":"rate limited"}`))
			return
		}
		_, _ = w.Write([]byte(headlinesJSON))
	}))
}

func TestHeadlines(t *testing.T) {
	var hits int32
	srv := newsServer(t, &hits, http.StatusOK)
	defer srv.Close()

	src := NewNewsAPISource(NewsAPIConfig{APIKey: "test-key", BaseURL: srv.URL}, fastClient(), nil)
	topics, err := src.Headlines(context.Background(), "technology")
	if err != nil {
		t.Fatalf("Headlines failed: %v", err)
	}

	if len(topics) != 2 {
		t.Fatalf("expected 2 topics, got %+v", topics)
	}
	first := topics[0]
	if first.Source != "news" || first.Category != "technology" || first.NewsSource != "Tech Daily" || first.URL != "https://news.example/battery" {
		t.Errorf("unexpected topic: %+v", first)
	}
}

func TestHeadlinesCache(t *testing.T) {
	var hits int32
	srv := newsServer(t, &hits, http.StatusOK)
	defer srv.Close()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	cache := NewFileCache(t.TempDir())
	cache.now = func() time.Time { return now }

	src := NewNewsAPISource(NewsAPIConfig{APIKey: "test-key", BaseURL: srv.URL}, fastClient(), cache)
	for i := 0; i < 2; i++ {
		if _, err := src.Headlines(context.Background(), "science"); err != nil {
			t.Fatalf("Headlines #%d failed: %v", i, err)
		}
	}
	if got := atomic.LoadInt32(&hits); got != 1 {
		t.Errorf("expected cached second call, got %d API hits", got)
	}

	// After the fresh window the API is called again
	now = now.Add(3 * time.Hour)
	if _, err := src.Headlines(context.Background(), "science"); err != nil {
		t.Fatalf("Headlines failed: %v", err)
	}
	if got := atomic.LoadInt32(&hits); got != 2 {
		t.Errorf("expected refresh after 2h, got %d API hits", got)
	}
}

func TestHeadlinesServesStaleCacheOnError(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	cache := NewFileCache(t.TempDir())
	cache.now = func() time.Time { return now }
	stale := []core.Topic{{Source: "news", Text: "Old story", Category: "health"}}
	if err := cache.Save("news_us_health", stale); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	var hits int32
	srv := newsServer(t, &hits, http.StatusTooManyRequests)
	defer srv.Close()

	now = now.Add(5 * time.Hour)
	src := NewNewsAPISource(NewsAPIConfig{APIKey: "test-key", BaseURL: srv.URL}, fastClient(), cache)
	topics, err := src.Headlines(context.Background(), "health")
	if err != nil {
		t.Fatalf("expected stale cache, got %v", err)
	}
	if len(topics) != 1 || topics[0].Text != "Old story" {
		t.Errorf("unexpected topics: %+v", topics)
	}

	// Too old to serve
	now = now.Add(48 * time.Hour)
	if _, err := src.Headlines(context.Background(), "health"); err == nil || !strings.Contains(err.Error(), "429") {
		t.Errorf("expected status error, got %v", err)
	}
}

func TestHeadlinesWithoutKey(t *testing.T) {
	src := NewNewsAPISource(NewsAPIConfig{}, fastClient(), nil)
	if _, err := src.Headlines(context.Background(), "technology"); err == nil {
		t.Error("expected an error without an api key")
	}
}

func feedServer() *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(feedXML))
	}))
}

func TestFeedTopics(t *testing.T) {
	srv := feedServer()
	defer srv.Close()

	topics, err := NewRSSSource(nil).FeedTopics(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("FeedTopics failed: %v", err)
	}
	if len(topics) != 2 {
		t.Fatalf("expected 2 topics, got %+v", topics)
	}
	if topics[0].Source != "rss" || topics[0].URL != "https://feed.example/solar" || topics[0].NewsSource != "Example Feed" {
		t.Errorf("unexpected topic: %+v", topics[0])
	}
}

func TestTrendingSearches(t *testing.T) {
	var geo string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		geo = r.URL.Query().Get("geo")
		_, _ = w.Write([]byte(feedXML))
	}))
	defer srv.Close()

	topics, err := NewRSSSource(nil).TrendingSearches(context.Background(), srv.URL, "GB")
	if err != nil {
		t.Fatalf("TrendingSearches failed: %v", err)
	}
	if geo != "GB" {
		t.Errorf("expected geo GB, got %q", geo)
	}
	if topics[0].Source != "google" || topics[0].URL != "" {
		t.Errorf("unexpected topic: %+v", topics[0])
	}
	if len(topics[0].Related) != 2 || topics[0].Related[0] != "Desert solar boom" {
		t.Errorf("unexpected related queries: %v", topics[0].Related)
	}
}

func TestAggregatorFetch(t *testing.T) {
	var hits int32
	news := newsServer(t, &hits, http.StatusOK)
	defer news.Close()
	feed := feedServer()
	defer feed.Close()

	agg := NewAggregator(
		NewNewsAPISource(NewsAPIConfig{APIKey: "test-key", BaseURL: news.URL}, fastClient(), nil),
		NewRSSSource(nil),
		rand.New(rand.NewSource(3)),
	)
	agg.FeedURLs = []string{feed.URL}

	topics, err := agg.Fetch(context.Background(), []string{"news", "rss"}, 10, []string{"technology"})
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	// One headline is filtered as people news
	if len(topics) != 3 {
		t.Fatalf("expected 3 topics, got %+v", topics)
	}
	for _, topic := range topics {
		if strings.Contains(topic.Text, "Musk") {
			t.Errorf("people headline was not filtered: %s", topic.Text)
		}
	}

	limited, err := agg.Fetch(context.Background(), []string{"news", "rss"}, 2, []string{"technology"})
	if err != nil || len(limited) != 2 {
		t.Errorf("expected 2 topics, got %d (%v)", len(limited), err)
	}
}

func TestAggregatorDefaultCategories(t *testing.T) {
	var categories []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		categories = append(categories, r.URL.Query().Get("category"))
		_, _ = w.Write([]byte(`{"status":"ok","articles":[]}`))
	}))
	defer srv.Close()

	agg := NewAggregator(NewNewsAPISource(NewsAPIConfig{APIKey: "k", BaseURL: srv.URL}, fastClient(), nil), nil, nil)
	if _, err := agg.Fetch(context.Background(), []string{"news"}, 5, nil); err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if strings.Join(categories, ",") != "technology,business,science,health" {
		t.Errorf("unexpected categories: %v", categories)
	}
}

func TestAggregatorAllSourcesFail(t *testing.T) {
	agg := NewAggregator(nil, nil, nil)
	if _, err := agg.Fetch(context.Background(), []string{"news", "twitter"}, 5, nil); err == nil {
		t.Error("expected an error when every source fails")
	}
}

func TestIsAboutPerson(t *testing.T) {
	tests := []struct {
		title string
		want  bool
	}{
		{"Bezos buys another newspaper", true},
		{"CEO says layoffs are coming", true},
		{"Company's profits rise", true},
		{"“Unprecedented” storm hits coast", true},
		{"Quantum computer breaks record", false},
		{"Stocks rally as inflation cools", false},
	}
	for _, tt := range tests {
		if got := IsAboutPerson(tt.title, ""); got != tt.want {
			t.Errorf("IsAboutPerson(%q) = %v, want %v", tt.title, got, tt.want)
		}
	}
}

func TestBlogPrompt(t *testing.T) {
	var pb PromptBuilder

	news := pb.BlogPrompt(core.Topic{Source: "news", Text: "Chip shortage eases", Description: "Supply improves", Category: "technology", NewsSource: "Wire"})
	for _, want := range []string{"analyzing the recent news: Chip shortage eases", "Context: Supply improves", "trending in the technology category", "reported by Wire", "journalistic integrity"} {
		if !strings.Contains(news, want) {
			t.Errorf("news prompt missing %q: %s", want, news)
		}
	}

	google := pb.BlogPrompt(core.Topic{Source: "google", Text: "eclipse", Related: []string{"a", "b", "c", "d"}})
	if !strings.Contains(google, "related topics such as a, b, c.") {
		t.Errorf("unexpected google prompt: %s", google)
	}

	plain := pb.BlogPrompt(core.Topic{Source: "google", Text: "eclipse"})
	if !strings.Contains(plain, "why it's trending") {
		t.Errorf("unexpected google prompt without related queries: %s", plain)
	}

	other := pb.BlogPrompt(core.Topic{Source: "manual", Text: "gardening"})
	if !strings.HasPrefix(other, "Write a blog post about the trending topic: gardening.") {
		t.Errorf("unexpected default prompt: %s", other)
	}
}
