package visual

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"net/url"
	"path/filepath"
	"sync"
	"time"

	"autoblog/internal/clients"
	"autoblog/internal/core"
	"autoblog/internal/logger"
)

const DefaultUnsplashURL = "https://api.unsplash.com"

var fallbackQueries = []string{"blogging", "writing", "content", "business"}

// KeywordFunc suggests search phrases for a topic. It may return nil.
type KeywordFunc func(ctx context.Context, topic string) []string

// UnsplashOptions configures an UnsplashProvider.
type UnsplashOptions struct {
	AccessKey string
	BaseURL   string
	OutputDir string
	Keywords  KeywordFunc // Optional, the prompt alone is searched when nil
}

// UnsplashProvider picks a stock photo matching the prompt and stores it locally.
type UnsplashProvider struct {
	opts UnsplashOptions
	http *clients.HTTP
	now  func() time.Time

	mu  sync.Mutex
	rng *rand.Rand
}

// NewUnsplashProvider creates a provider. A nil rng is seeded from the clock.
func NewUnsplashProvider(opts UnsplashOptions, httpClient *clients.HTTP, rng *rand.Rand) *UnsplashProvider {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultUnsplashURL
	}
	if opts.OutputDir == "" {
		opts.OutputDir = "images"
	}
	if httpClient == nil {
		httpClient = clients.NewHTTP(nil, clients.DefaultRetryConfig())
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &UnsplashProvider{opts: opts, http: httpClient, now: time.Now, rng: rng}
}

type unsplashPhoto struct {
	URLs struct {
		Regular string `json:"regular"`
	} `json:"urls"`
	User struct {
		Name  string `json:"name"`
		Links struct {
			HTML string `json:"html"`
		} `json:"links"`
	} `json:"user"`
	Links struct {
		HTML string `json:"html"`
	} `json:"links"`
}

type unsplashSearch struct {
	Results []unsplashPhoto `json:"results"`
}

// Attribution is written next to every downloaded photo.
type Attribution struct {
	Photographer    string `json:"photographer"`
	PhotographerURL string `json:"photographer_url"`
	Source          string `json:"source"`
	SourceURL       string `json:"source_url"`
	KeywordUsed     string `json:"keyword_used"`
	OriginalTopic   string `json:"original_topic"`
	Note            string `json:"note,omitempty"`
}

// Generate searches each keyword in turn, then one generic fallback query,
// and returns the path of the first photo it could download.
func (u *UnsplashProvider) Generate(ctx context.Context, prompt string) (string, error) {
	if u.opts.AccessKey == "" {
		return "", &core.ImageError{Provider: "unsplash", Err: fmt.Errorf("unsplash access key is not configured")}
	}

	for _, keyword := range u.keywords(ctx, prompt) {
		path, err := u.fromQuery(ctx, keyword, 10, prompt, "")
		if err == nil {
			return path, nil
		}
		logger.Warn("Unsplash search failed", "keyword", keyword, "error", err.Error())
	}

	fallback := u.pick(fallbackQueries)
	path, err := u.fromQuery(ctx, fallback, 5, prompt, "Used fallback keyword")
	if err != nil {
		return "", &core.ImageError{Provider: "unsplash", Err: err}
	}
	return path, nil
}

func (u *UnsplashProvider) keywords(ctx context.Context, prompt string) []string {
	if u.opts.Keywords == nil {
		return []string{prompt}
	}
	keywords := u.opts.Keywords(ctx, prompt)
	for _, k := range keywords {
		if k == prompt {
			return keywords
		}
	}
	return append(keywords, prompt)
}

func (u *UnsplashProvider) fromQuery(ctx context.Context, query string, perPage int, prompt, note string) (string, error) {
	photos, err := u.search(ctx, query, perPage)
	if err != nil {
		return "", err
	}
	if len(photos) == 0 {
		return "", ErrNoImageFound
	}

	photo := photos[u.intn(len(photos))]
	path := filepath.Join(u.opts.OutputDir, ImageFileName(u.now(), ".jpg"))
	if err := u.download(ctx, photo.URLs.Regular, path); err != nil {
		return "", err
	}

	attribution := Attribution{
		Photographer:    photo.User.Name,
		PhotographerURL: photo.User.Links.HTML,
		Source:          "Unsplash",
		SourceURL:       photo.Links.HTML,
		KeywordUsed:     query,
		OriginalTopic:   prompt,
		Note:            note,
	}
	data, err := json.MarshalIndent(attribution, "", "  ")
	if err == nil {
		err = saveFile(path+".json", data)
	}
	if err != nil {
		logger.Warn("Failed to write image attribution", "path", path, "error", err.Error())
	}

	logger.Info("Downloaded image", "provider", "unsplash", "keyword", query, "path", path)
	return path, nil
}

func (u *UnsplashProvider) search(ctx context.Context, query string, perPage int) ([]unsplashPhoto, error) {
	params := url.Values{}
	params.Set("query", query)
	params.Set("per_page", fmt.Sprintf("%d", perPage))
	endpoint := u.opts.BaseURL + "/search/photos?" + params.Encode()

	resp, err := u.http.Do(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Client-ID "+u.opts.AccessKey)
		req.Header.Set("Accept-Version", "v1")
		return req, nil
	})
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, fmt.Errorf("unsplash API error (status %d): %s", resp.StatusCode, string(resp.Body))
	}

	var parsed unsplashSearch
	if err := json.Unmarshal(resp.Body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to decode search results: %w", err)
	}
	return parsed.Results, nil
}

func (u *UnsplashProvider) download(ctx context.Context, imageURL, path string) error {
	if imageURL == "" {
		return ErrNoImageFound
	}
	resp, err := u.http.Do(ctx, func(ctx context.Context) (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	})
	if err != nil {
		return fmt.Errorf("failed to download image: %w", err)
	}
	if !resp.OK() {
		return fmt.Errorf("failed to download image: status %d", resp.StatusCode)
	}
	return saveFile(path, resp.Body)
}

func (u *UnsplashProvider) intn(n int) int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.rng.Intn(n)
}

func (u *UnsplashProvider) pick(options []string) string {
	return options[u.intn(len(options))]
}
