// Package trends discovers candidate blog topics from news and feed sources.
package trends

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"autoblog/internal/core"
	"autoblog/internal/logger"
)

// DefaultCategories are fetched when no news categories are requested.
var DefaultCategories = []string{"technology", "business", "science", "health"}

// Aggregator merges topics from every configured source.
type Aggregator struct {
	News         *NewsAPISource
	Feeds        *RSSSource
	FeedURLs     []string
	TrendsURL    string
	TrendsGeo    string
	FilterPeople bool

	mu  sync.Mutex
	rng *rand.Rand
}

// NewAggregator creates an aggregator. A nil rng is time seeded.
func NewAggregator(news *NewsAPISource, feeds *RSSSource, rng *rand.Rand) *Aggregator {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Aggregator{News: news, Feeds: feeds, FilterPeople: true, rng: rng}
}

// Fetch gathers topics from sources, shuffles them and returns at most count.
// Per source failures are logged; an error is returned only when nothing
// could be gathered at all.
func (a *Aggregator) Fetch(ctx context.Context, sources []string, count int, categories []string) ([]core.Topic, error) {
	var (
		all  []core.Topic
		errs []error
	)

	for _, source := range sources {
		topics, err := a.fetchSource(ctx, source, categories)
		if err != nil {
			logger.Warn("Topic source failed", "source", source, "error", err.Error())
			errs = append(errs, err)
		}
		all = append(all, topics...)
	}

	if a.FilterPeople {
		kept := all[:0]
		for _, t := range all {
			if t.Source == "news" && IsAboutPerson(t.Text, t.Description) {
				continue
			}
			kept = append(kept, t)
		}
		all = kept
	}

	if len(all) == 0 && len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	a.mu.Lock()
	a.rng.Shuffle(len(all), func(i, j int) { all[i], all[j] = all[j], all[i] })
	a.mu.Unlock()

	if count > 0 && len(all) > count {
		all = all[:count]
	}
	return all, nil
}

func (a *Aggregator) fetchSource(ctx context.Context, source string, categories []string) ([]core.Topic, error) {
	switch source {
	case "news":
		if a.News == nil {
			return nil, fmt.Errorf("news source is not configured")
		}
		if len(categories) == 0 {
			categories = DefaultCategories
		}
		var (
			topics []core.Topic
			errs   []error
		)
		for _, category := range categories {
			headlines, err := a.News.Headlines(ctx, category)
			if err != nil {
				errs = append(errs, fmt.Errorf("category %s: %w", category, err))
				continue
			}
			topics = append(topics, headlines...)
		}
		return topics, errors.Join(errs...)

	case "google":
		if a.Feeds == nil {
			return nil, fmt.Errorf("feed reader is not configured")
		}
		return a.Feeds.TrendingSearches(ctx, a.TrendsURL, a.TrendsGeo)

	case "rss":
		if a.Feeds == nil {
			return nil, fmt.Errorf("feed reader is not configured")
		}
		var (
			topics []core.Topic
			errs   []error
		)
		for _, feedURL := range a.FeedURLs {
			items, err := a.Feeds.FeedTopics(ctx, feedURL)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			topics = append(topics, items...)
		}
		return topics, errors.Join(errs...)

	default:
		return nil, fmt.Errorf("unknown topic source %q", source)
	}
}
