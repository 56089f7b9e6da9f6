package trends

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	ext "github.com/mmcdole/gofeed/extensions"

	"autoblog/internal/core"
	"autoblog/internal/logger"
)

// DefaultTrendsURL is the Google Trends daily trending searches feed.
const DefaultTrendsURL = "https://trends.google.com/trending/rss"

const maxRelated = 3

// RSSSource reads topics from RSS and Atom feeds.
type RSSSource struct {
	parser *gofeed.Parser
}

// NewRSSSource creates a feed reader. A nil client gets a 30 second timeout.
func NewRSSSource(client *http.Client) *RSSSource {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	parser := gofeed.NewParser()
	parser.Client = client
	return &RSSSource{parser: parser}
}

// FeedTopics returns one "rss" topic per feed item.
func (s *RSSSource) FeedTopics(ctx context.Context, feedURL string) ([]core.Topic, error) {
	feed, err := s.parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed %s: %w", feedURL, err)
	}

	topics := make([]core.Topic, 0, len(feed.Items))
	for _, item := range feed.Items {
		title := strings.TrimSpace(item.Title)
		if title == "" {
			continue
		}
		topics = append(topics, core.Topic{
			Source:      "rss",
			Text:        title,
			Description: strings.TrimSpace(item.Description),
			URL:         item.Link,
			NewsSource:  feed.Title,
			PublishedAt: item.Published,
		})
	}
	logger.Info("Fetched feed topics", "url", feedURL, "count", len(topics))
	return topics, nil
}

// TrendingSearches returns "google" topics from the Google Trends feed at
// trendsURL for the given region.
func (s *RSSSource) TrendingSearches(ctx context.Context, trendsURL, geo string) ([]core.Topic, error) {
	if trendsURL == "" {
		trendsURL = DefaultTrendsURL
	}
	if geo != "" {
		sep := "?"
		if strings.Contains(trendsURL, "?") {
			sep = "&"
		}
		trendsURL += sep + "geo=" + url.QueryEscape(geo)
	}

	feed, err := s.parser.ParseURLWithContext(trendsURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch trending searches: %w", err)
	}

	topics := make([]core.Topic, 0, len(feed.Items))
	for _, item := range feed.Items {
		query := strings.TrimSpace(item.Title)
		if query == "" {
			continue
		}
		topics = append(topics, core.Topic{
			Source:      "google",
			Text:        query,
			PublishedAt: item.Published,
			Related:     relatedQueries(item.Extensions),
		})
	}
	logger.Info("Fetched trending searches", "geo", geo, "count", len(topics))
	return topics, nil
}

// relatedQueries pulls the headline titles attached to a trend item.
func relatedQueries(extensions ext.Extensions) []string {
	var related []string
	for _, item := range extensions["ht"]["news_item"] {
		for _, title := range item.Children["news_item_title"] {
			if v := strings.TrimSpace(title.Value); v != "" {
				related = append(related, v)
			}
		}
		if len(related) >= maxRelated {
			return related[:maxRelated]
		}
	}
	return related
}
