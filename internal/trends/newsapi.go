package trends

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/sync/singleflight"

	"autoblog/internal/clients"
	"autoblog/internal/core"
	"autoblog/internal/logger"
)

const (
	DefaultNewsAPIURL = "https://newsapi.org/v2/top-headlines"
	defaultPageSize   = 20
	defaultFreshTTL   = 2 * time.Hour
	defaultStaleTTL   = 24 * time.Hour
)

// ErrNoNewsAPIKey is returned when headlines are requested without a key.
var ErrNoNewsAPIKey = errors.New("news api key is not configured")

// NewsAPIConfig configures a NewsAPISource.
type NewsAPIConfig struct {
	APIKey   string
	BaseURL  string
	Country  string
	PageSize int
	FreshTTL time.Duration // Cached headlines younger than this skip the API
	StaleTTL time.Duration // Cached headlines younger than this are served on error
}

// NewsAPISource fetches top headlines per category from NewsAPI.
type NewsAPISource struct {
	cfg    NewsAPIConfig
	http   *clients.HTTP
	cache  *FileCache
	flight singleflight.Group
}

// NewNewsAPISource creates a source. Nil httpClient and cache are allowed.
func NewNewsAPISource(cfg NewsAPIConfig, httpClient *clients.HTTP, cache *FileCache) *NewsAPISource {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultNewsAPIURL
	}
	if cfg.Country == "" {
		cfg.Country = "us"
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = defaultPageSize
	}
	if cfg.FreshTTL <= 0 {
		cfg.FreshTTL = defaultFreshTTL
	}
	if cfg.StaleTTL < cfg.FreshTTL {
		cfg.StaleTTL = max(defaultStaleTTL, cfg.FreshTTL)
	}
	if httpClient == nil {
		httpClient = clients.NewHTTP(nil, clients.DefaultRetryConfig())
	}
	return &NewsAPISource{cfg: cfg, http: httpClient, cache: cache}
}

type newsAPIResponse struct {
	Status   string `json:"status"`
	Code     string `json:"code"`
	Message  string `json:"message"`
	Articles []struct {
		Source struct {
			Name string `json:"name"`
		} `json:"source"`
		Title       string `json:"title"`
		Description string `json:"description"`
		URL         string `json:"url"`
		PublishedAt string `json:"publishedAt"`
	} `json:"articles"`
}

func (s *NewsAPISource) cacheKey(category string) string {
	if category == "" {
		category = "general"
	}
	return "news_" + s.cfg.Country + "_" + category
}

// Headlines returns the top headlines for category. Fresh cache hits skip
// the API; on failure a stale cache is served when one exists.
func (s *NewsAPISource) Headlines(ctx context.Context, category string) ([]core.Topic, error) {
	key := s.cacheKey(category)
	if topics, ok := s.cache.Load(key, s.cfg.FreshTTL); ok {
		logger.Debug("Serving cached headlines", "category", category, "count", len(topics))
		return topics, nil
	}

	v, err, _ := s.flight.Do(key, func() (interface{}, error) {
		return s.fetch(ctx, category)
	})
	if err != nil {
		if topics, ok := s.cache.Load(key, s.cfg.StaleTTL); ok {
			logger.Warn("Serving stale headlines", "category", category, "error", err.Error())
			return topics, nil
		}
		return nil, err
	}

	topics := v.([]core.Topic)
	if err := s.cache.Save(key, topics); err != nil {
		logger.Warn("Failed to cache headlines", "category", category, "error", err.Error())
	}
	return topics, nil
}

func (s *NewsAPISource) fetch(ctx context.Context, category string) ([]core.Topic, error) {
	if s.cfg.APIKey == "" {
		return nil, ErrNoNewsAPIKey
	}

	params := url.Values{}
	params.Set("country", s.cfg.Country)
	params.Set("pageSize", strconv.Itoa(s.cfg.PageSize))
	params.Set("apiKey", s.cfg.APIKey)
	if category != "" {
		params.Set("category", category)
	}
	endpoint := s.cfg.BaseURL + "?" + params.Encode()

	resp, err := s.http.Do(ctx, func(ctx context.Context) (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch headlines: %w", err)
	}

	var body newsAPIResponse
	if err := json.Unmarshal(resp.Body, &body); err != nil && resp.OK() {
		return nil, fmt.Errorf("failed to decode headlines: %w", err)
	}
	if !resp.OK() {
		return nil, fmt.Errorf("news api returned status %d: %s", resp.StatusCode, body.Message)
	}

	topics := make([]core.Topic, 0, len(body.Articles))
	for _, a := range body.Articles {
		if a.Title == "" {
			continue
		}
		topics = append(topics, core.Topic{
			Source:      "news",
			Text:        a.Title,
			Description: a.Description,
			URL:         a.URL,
			Category:    category,
			NewsSource:  a.Source.Name,
			PublishedAt: a.PublishedAt,
		})
	}
	logger.Info("Fetched headlines", "category", category, "count", len(topics))
	return topics, nil
}
