package visual

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"autoblog/internal/clients"
	"autoblog/internal/core"
)

func noRetry(srv *httptest.Server) *clients.HTTP {
	return clients.NewHTTP(srv.Client(), clients.RetryConfig{MaxRetries: 0, BaseDelay: time.Millisecond})
}

func fixedTime() time.Time {
	return time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC)
}

func TestImageFileName(t *testing.T) {
	if got := ImageFileName(fixedTime(), ".jpg"); got != "blog_image_20250304-050607.jpg" {
		t.Errorf("ImageFileName() = %q", got)
	}
}

func newUnsplashServer(t *testing.T, emptyFor map[string]bool) (*httptest.Server, *[]string) {
	t.Helper()
	var (
		mu      sync.Mutex
		queries []string
	)
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/search/photos":
			if got := r.Header.Get("Authorization"); got != "Client-ID access" {
				t.Errorf("unexpected auth header %q", got)
			}
			q := r.URL.Query().Get("query")
			mu.Lock()
			queries = append(queries, q)
			mu.Unlock()
			if emptyFor[q] {
				_, _ = w.Write([]byte(`{"results":[]}`))
				return
			}
			_, _ = w.Write([]byte(`{"results":[{"urls":{"regular":"` + srv.URL + `/img/photo.jpg"},` +
				`"user":{"name":"Ada","links":{"html":"https://unsplash.com/@ada"}},` +
				`"links":{"html":"https://unsplash.com/photos/1"}}]}`))
		case r.URL.Path == "/img/photo.jpg":
			_, _ = w.Write([]byte("jpeg-bytes"))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv, &queries
}

func TestUnsplashProviderDownloadsWithAttribution(t *testing.T) {
	srv, queries := newUnsplashServer(t, nil)
	dir := t.TempDir()

	p := NewUnsplashProvider(UnsplashOptions{AccessKey: "access", BaseURL: srv.URL, OutputDir: dir}, noRetry(srv), rand.New(rand.NewSource(1)))
	p.now = fixedTime

	path, err := p.Generate(context.Background(), "mars rover")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if path != filepath.Join(dir, "blog_image_20250304-050607.jpg") {
		t.Errorf("unexpected path %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil || string(data) != "jpeg-bytes" {
		t.Fatalf("unexpected image contents %q (%v)", data, err)
	}

	raw, err := os.ReadFile(path + ".json")
	if err != nil {
		t.Fatalf("expected attribution file: %v", err)
	}
	var attr Attribution
	if err := json.Unmarshal(raw, &attr); err != nil {
		t.Fatalf("bad attribution json: %v", err)
	}
	if attr.Photographer != "Ada" || attr.KeywordUsed != "mars rover" || attr.Source != "Unsplash" {
		t.Errorf("unexpected attribution %+v", attr)
	}
	if len(*queries) != 1 {
		t.Errorf("expected a single search, got %v", *queries)
	}
}

func TestUnsplashProviderUsesSuggestedKeywordsThenFallback(t *testing.T) {
	empty := map[string]bool{"rocket": true, "launch pad": true, "space news": true}
	srv, queries := newUnsplashServer(t, empty)

	p := NewUnsplashProvider(UnsplashOptions{
		AccessKey: "access",
		BaseURL:   srv.URL,
		OutputDir: t.TempDir(),
		Keywords: func(ctx context.Context, topic string) []string {
			return []string{"rocket", "launch pad"}
		},
	}, noRetry(srv), rand.New(rand.NewSource(2)))

	path, err := p.Generate(context.Background(), "space news")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	got := *queries
	if len(got) != 4 {
		t.Fatalf("expected 3 keyword searches and 1 fallback, got %v", got)
	}
	if got[0] != "rocket" || got[1] != "launch pad" || got[2] != "space news" {
		t.Errorf("unexpected search order %v", got)
	}
	found := false
	for _, q := range fallbackQueries {
		if got[3] == q {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a fallback query, got %q", got[3])
	}

	raw, _ := os.ReadFile(path + ".json")
	if !strings.Contains(string(raw), "Used fallback keyword") {
		t.Errorf("expected fallback note in attribution, got %s", raw)
	}
}

func TestUnsplashProviderWithoutKey(t *testing.T) {
	p := NewUnsplashProvider(UnsplashOptions{}, nil, nil)
	_, err := p.Generate(context.Background(), "anything")

	var imgErr *core.ImageError
	if !errors.As(err, &imgErr) {
		t.Fatalf("expected ImageError, got %v", err)
	}
}

func TestDALLEProviderSavesImage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/images/generations" || r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		var req DALLERequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("bad request body: %v", err)
		}
		if req.Model != "gpt-image-1" || req.N != 1 || req.Prompt != "a rocket" {
			t.Errorf("unexpected request %+v", req)
		}
		b64 := base64.StdEncoding.EncodeToString([]byte("png-bytes"))
		_, _ = w.Write([]byte(`{"created":1,"data":[{"b64_json":"` + b64 + `"}]}`))
	}))
	defer srv.Close()

	dir := t.TempDir()
	p := NewDALLEProvider(DALLEOptions{APIKey: "key", BaseURL: srv.URL, OutputDir: dir}, noRetry(srv))
	p.now = fixedTime

	path, err := p.Generate(context.Background(), "a rocket")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil || string(data) != "png-bytes" {
		t.Errorf("unexpected image contents %q (%v)", data, err)
	}
	if filepath.Ext(path) != ".png" {
		t.Errorf("expected png extension, got %s", path)
	}
}

func TestDALLEProviderAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"bad prompt"}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	p := NewDALLEProvider(DALLEOptions{APIKey: "key", BaseURL: srv.URL, OutputDir: t.TempDir()}, noRetry(srv))
	_, err := p.Generate(context.Background(), "a rocket")

	var imgErr *core.ImageError
	if !errors.As(err, &imgErr) || !strings.Contains(err.Error(), "400") {
		t.Errorf("expected ImageError with status, got %v", err)
	}
}

func TestClearDirectory(t *testing.T) {
	dir := t.TempDir()
	_ = os.WriteFile(filepath.Join(dir, "a.jpg"), []byte("a"), 0644)
	_ = os.WriteFile(filepath.Join(dir, "a.jpg.json"), []byte("{}"), 0644)
	_ = os.MkdirAll(filepath.Join(dir, "nested", "deeper"), 0755)

	removed, err := ClearDirectory(dir)
	if err != nil {
		t.Fatalf("ClearDirectory failed: %v", err)
	}
	if removed != 3 {
		t.Errorf("expected 3 entries removed, got %d", removed)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("expected empty directory, got %d entries", len(entries))
	}
	if _, err := os.Stat(dir); err != nil {
		t.Errorf("directory itself should remain: %v", err)
	}

	if n, err := ClearDirectory(filepath.Join(dir, "missing")); err != nil || n != 0 {
		t.Errorf("missing directory should be a no-op, got %d, %v", n, err)
	}
}

type stubGenerator struct {
	out string
	err error
}

func (s stubGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	return s.out, s.err
}

func TestGeneratorKeywords(t *testing.T) {
	html := "<ul>\n<li>Rocket launch</li>\n<li>3D printer</li>\n<li>rocket launch</li>\n</ul>"
	got := GeneratorKeywords(stubGenerator{out: html})(context.Background(), "space")
	if len(got) != 2 || got[0] != "Rocket launch" || got[1] != "3D printer" {
		t.Errorf("unexpected keywords %v", got)
	}

	got = GeneratorKeywords(stubGenerator{out: "1. Mars\n2) \"Red planet\"\n- Rover"})(context.Background(), "space")
	if len(got) != 3 || got[0] != "Mars" || got[1] != "Red planet" || got[2] != "Rover" {
		t.Errorf("unexpected keywords from plain list %v", got)
	}

	if got := GeneratorKeywords(stubGenerator{err: errors.New("quota")})(context.Background(), "space"); got != nil {
		t.Errorf("expected nil on failure, got %v", got)
	}
}
