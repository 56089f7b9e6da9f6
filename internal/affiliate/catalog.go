package affiliate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"autoblog/internal/core"
	"autoblog/internal/logger"
)

// ErrNoSpreadsheet is returned when no spreadsheet is configured.
var ErrNoSpreadsheet = errors.New("no affiliate spreadsheet configured")

// Catalog supplies the affiliate products available for placement.
type Catalog interface {
	Fetch(ctx context.Context) ([]core.AffiliateProduct, error)
}

// SheetsCatalog reads products from a Google Sheets worksheet whose first
// row holds the column headers.
type SheetsCatalog struct {
	service       *sheets.Service
	spreadsheetID string
	worksheet     string
}

// NewSheetsCatalog creates a catalog for the given spreadsheet. Credentials
// come from opts, typically option.WithCredentialsFile.
func NewSheetsCatalog(ctx context.Context, spreadsheetID, worksheet string, opts ...option.ClientOption) (*SheetsCatalog, error) {
	if strings.TrimSpace(spreadsheetID) == "" {
		return nil, ErrNoSpreadsheet
	}
	service, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets client: %w", err)
	}
	return &SheetsCatalog{service: service, spreadsheetID: spreadsheetID, worksheet: worksheet}, nil
}

func (c *SheetsCatalog) readRange() string {
	if c.worksheet == "" {
		return "A1:Z"
	}
	return c.worksheet + "!A1:Z"
}

// Fetch reads every row that carries an affiliate link.
func (c *SheetsCatalog) Fetch(ctx context.Context) ([]core.AffiliateProduct, error) {
	resp, err := c.service.Spreadsheets.Values.Get(c.spreadsheetID, c.readRange()).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to read spreadsheet %s: %w", c.spreadsheetID, err)
	}
	products := ParseRows(resp.Values)
	logger.Info("Fetched affiliate products", "count", len(products), "rows", len(resp.Values))
	return products, nil
}

var columnAliases = map[string]string{
	"affiliate links": "url",
	"affiliate link":  "url",
	"product name":    "name",
	"description":     "description",
	"price":           "price",
	"category":        "category",
	"image":           "image",
	"image url":       "image",
}

// ParseRows maps sheet rows to products using the header row. Rows without
// a link are skipped and missing names default to "Product N".
func ParseRows(rows [][]interface{}) []core.AffiliateProduct {
	products := []core.AffiliateProduct{}
	if len(rows) < 2 {
		return products
	}

	columns := make(map[string]int)
	for i, header := range rows[0] {
		key := strings.ToLower(strings.TrimSpace(fmt.Sprint(header)))
		if field, ok := columnAliases[key]; ok {
			if _, seen := columns[field]; !seen {
				columns[field] = i
			}
		}
	}
	if _, ok := columns["url"]; !ok {
		return products
	}

	for _, row := range rows[1:] {
		cell := func(field string) string {
			i, ok := columns[field]
			if !ok || i >= len(row) {
				return ""
			}
			return strings.TrimSpace(fmt.Sprint(row[i]))
		}

		link := cell("url")
		if link == "" {
			continue
		}
		name := cell("name")
		if name == "" {
			name = fmt.Sprintf("Product %d", len(products)+1)
		}
		products = append(products, core.AffiliateProduct{
			URL:         link,
			ProductName: name,
			Description: cell("description"),
			ImageURL:    cell("image"),
			Category:    cell("category"),
			Price:       cell("price"),
		})
	}
	return products
}

type cacheFile struct {
	FetchedAt time.Time               `json:"fetched_at"`
	Products  []core.AffiliateProduct `json:"products"`
}

// CachedCatalog fronts another catalog with a JSON file cache. Concurrent
// misses share one upstream fetch. It never returns an error: upstream
// failures fall back to the stale cache, then to an empty list.
type CachedCatalog struct {
	upstream Catalog
	path     string
	ttl      time.Duration
	now      func() time.Time
	group    singleflight.Group
}

// NewCachedCatalog wraps upstream with a cache stored at path.
func NewCachedCatalog(upstream Catalog, path string, ttl time.Duration) *CachedCatalog {
	return &CachedCatalog{upstream: upstream, path: path, ttl: ttl, now: time.Now}
}

// Fetch returns cached products while fresh and refreshes them otherwise.
func (c *CachedCatalog) Fetch(ctx context.Context) ([]core.AffiliateProduct, error) {
	cached, err := c.load()
	if err == nil && c.now().Sub(cached.FetchedAt) < c.ttl {
		return cached.Products, nil
	}

	v, fetchErr, _ := c.group.Do("catalog", func() (interface{}, error) {
		if c.upstream == nil {
			return nil, ErrNoSpreadsheet
		}
		products, err := c.upstream.Fetch(ctx)
		if err != nil {
			return nil, err
		}
		if products == nil {
			products = []core.AffiliateProduct{}
		}
		if err := c.store(products); err != nil {
			logger.Warn("Failed to write affiliate cache", "path", c.path, "error", err.Error())
		}
		return products, nil
	})
	if products, ok := v.([]core.AffiliateProduct); ok && fetchErr == nil {
		return products, nil
	}

	if cached != nil {
		logger.Warn("Serving stale affiliate products", "count", len(cached.Products), "error", fetchErr.Error())
		return cached.Products, nil
	}
	logger.Warn("No affiliate products available", "error", fetchErr.Error())
	return []core.AffiliateProduct{}, nil
}

func (c *CachedCatalog) load() (*cacheFile, error) {
	if c.path == "" {
		return nil, os.ErrNotExist
	}
	data, err := os.ReadFile(c.path)
	if err != nil {
		return nil, err
	}
	var cf cacheFile
	if err := json.Unmarshal(data, &cf); err != nil {
		return nil, fmt.Errorf("failed to decode affiliate cache: %w", err)
	}
	return &cf, nil
}

func (c *CachedCatalog) store(products []core.AffiliateProduct) error {
	if c.path == "" {
		return nil
	}
	data, err := json.MarshalIndent(cacheFile{FetchedAt: c.now(), Products: products}, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(c.path, data, 0o644)
}
