// Package analytics reports blog traffic from Google Analytics 4 alongside
// the automation run history.
package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"google.golang.org/api/analyticsdata/v1beta"
	"google.golang.org/api/option"

	"autoblog/internal/core"
	"autoblog/internal/logger"
)

const (
	defaultDays     = 30
	defaultTopPosts = 5
)

// ErrNoProperty is returned when no GA4 property is configured.
var ErrNoProperty = errors.New("no analytics property configured")

// Summary holds site wide totals for the reporting period.
type Summary struct {
	TotalPageviews    int64   `json:"total_pageviews"`
	UniqueVisitors    int64   `json:"unique_visitors"`
	AvgEngagementTime float64 `json:"avg_engagement_time"`
	Period            string  `json:"period,omitempty"`
	Note              string  `json:"note,omitempty"`
	Error             string  `json:"error,omitempty"`
}

// TopPost is one page ranked by views.
type TopPost struct {
	Path           string  `json:"path"`
	Title          string  `json:"title"`
	Views          int64   `json:"views"`
	EngagementRate float64 `json:"engagement_rate"`
}

// TrafficSource is the session count for one referrer.
type TrafficSource struct {
	Source    string `json:"source"`
	Sessions  int64  `json:"sessions"`
	Pageviews int64  `json:"pageviews"`
}

// TrafficSources wraps the source breakdown so an upstream failure can be
// reported next to an empty list.
type TrafficSources struct {
	Sources []TrafficSource `json:"sources"`
	Error   string          `json:"error,omitempty"`
}

// Client queries the GA4 Data API for one property.
type Client struct {
	service  *analyticsdata.Service
	property string
}

// NewClient creates a client for propertyID. Credentials come from opts,
// typically option.WithCredentialsFile or option.WithCredentialsJSON.
func NewClient(ctx context.Context, propertyID string, opts ...option.ClientOption) (*Client, error) {
	propertyID = strings.TrimPrefix(strings.TrimSpace(propertyID), "properties/")
	if propertyID == "" {
		return nil, ErrNoProperty
	}
	service, err := analyticsdata.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create analytics client: %w", err)
	}
	return &Client{service: service, property: "properties/" + propertyID}, nil
}

func (c *Client) run(ctx context.Context, days int, dimensions, metrics []string, limit int64) (*analyticsdata.RunReportResponse, error) {
	req := &analyticsdata.RunReportRequest{
		DateRanges: []*analyticsdata.DateRange{{StartDate: fmt.Sprintf("%ddaysAgo", days), EndDate: "today"}},
		Limit:      limit,
	}
	for _, name := range dimensions {
		req.Dimensions = append(req.Dimensions, &analyticsdata.Dimension{Name: name})
	}
	for _, name := range metrics {
		req.Metrics = append(req.Metrics, &analyticsdata.Metric{Name: name})
	}

	resp, err := c.service.Properties.RunReport(c.property, req).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to run analytics report: %w", err)
	}
	return resp, nil
}

// Summary returns pageviews, users and session duration over the last days.
func (c *Client) Summary(ctx context.Context, days int) (Summary, error) {
	resp, err := c.run(ctx, days, nil, []string{"screenPageViews", "totalUsers", "averageSessionDuration"}, 0)
	if err != nil {
		return Summary{}, err
	}

	summary := Summary{Period: fmt.Sprintf("Last %d days", days)}
	if len(resp.Rows) == 0 {
		summary.Note = "No data available"
		return summary, nil
	}
	row := resp.Rows[0]
	summary.TotalPageviews = intMetric(row, 0)
	summary.UniqueVisitors = intMetric(row, 1)
	summary.AvgEngagementTime = floatMetric(row, 2)
	return summary, nil
}

// TopPosts returns the most viewed pages over the last days.
func (c *Client) TopPosts(ctx context.Context, limit, days int) ([]TopPost, error) {
	resp, err := c.run(ctx, days, []string{"pagePath", "pageTitle"}, []string{"screenPageViews", "engagementRate"}, int64(limit))
	if err != nil {
		return nil, err
	}

	posts := make([]TopPost, 0, len(resp.Rows))
	for _, row := range resp.Rows {
		if len(posts) == limit {
			break
		}
		posts = append(posts, TopPost{
			Path:           dimension(row, 0),
			Title:          dimension(row, 1),
			Views:          intMetric(row, 0),
			EngagementRate: floatMetric(row, 1),
		})
	}
	return posts, nil
}

// TrafficSources returns sessions and pageviews per session source.
func (c *Client) TrafficSources(ctx context.Context, days int) ([]TrafficSource, error) {
	resp, err := c.run(ctx, days, []string{"sessionSource"}, []string{"sessions", "screenPageViews"}, 0)
	if err != nil {
		return nil, err
	}

	sources := make([]TrafficSource, 0, len(resp.Rows))
	for _, row := range resp.Rows {
		sources = append(sources, TrafficSource{
			Source:    dimension(row, 0),
			Sessions:  intMetric(row, 0),
			Pageviews: intMetric(row, 1),
		})
	}
	return sources, nil
}

func dimension(row *analyticsdata.Row, i int) string {
	if i >= len(row.DimensionValues) || row.DimensionValues[i] == nil {
		return ""
	}
	return row.DimensionValues[i].Value
}

func metric(row *analyticsdata.Row, i int) string {
	if i >= len(row.MetricValues) || row.MetricValues[i] == nil {
		return ""
	}
	return row.MetricValues[i].Value
}

func intMetric(row *analyticsdata.Row, i int) int64 {
	v, _ := strconv.ParseInt(metric(row, i), 10, 64)
	return v
}

func floatMetric(row *analyticsdata.Row, i int) float64 {
	v, _ := strconv.ParseFloat(metric(row, i), 64)
	return v
}

// ServiceAccountJSON builds service account credentials from discrete
// values, for deployments that keep them in the environment. Escaped
// newlines in the private key are restored.
func ServiceAccountJSON(clientEmail, privateKey, projectID string) ([]byte, error) {
	if clientEmail == "" || privateKey == "" {
		return nil, errors.New("client email and private key are required")
	}
	return json.Marshal(map[string]string{
		"type":         "service_account",
		"project_id":   projectID,
		"private_key":  strings.ReplaceAll(privateKey, `\n`, "\n"),
		"client_email": clientEmail,
		"token_uri":    "https://oauth2.googleapis.com/token",
	})
}

// RunLog is the part of the run log the report reads.
type RunLog interface {
	Entries() ([]core.RunLogEntry, error)
}

// Report is the combined analytics view.
type Report struct {
	Summary        Summary        `json:"summary"`
	TopPosts       []TopPost      `json:"top_posts"`
	TrafficSources TrafficSources `json:"traffic_sources"`
	PostsCount     int            `json:"posts_count"`
	LastPost       *time.Time     `json:"last_post"`
}

// Reporter assembles reports. A nil Client yields empty traffic data with
// an explanatory error, so the run history is always available.
type Reporter struct {
	Client   *Client
	Log      RunLog
	Days     int
	TopLimit int
}

// Report gathers GA4 traffic and run history. Upstream failures are
// recorded in the report rather than returned.
func (r *Reporter) Report(ctx context.Context) Report {
	days := r.Days
	if days <= 0 {
		days = defaultDays
	}
	limit := r.TopLimit
	if limit <= 0 {
		limit = defaultTopPosts
	}

	report := Report{
		TopPosts:       []TopPost{},
		TrafficSources: TrafficSources{Sources: []TrafficSource{}},
	}
	r.addRunHistory(&report)

	if r.Client == nil {
		msg := "Property ID not configured or analytics client unavailable"
		report.Summary = Summary{Error: msg}
		report.TrafficSources.Error = msg
		return report
	}

	log := logger.With("analytics")
	if summary, err := r.Client.Summary(ctx, days); err != nil {
		log.Warn("Analytics summary unavailable", "error", err.Error())
		report.Summary = Summary{Error: err.Error()}
	} else {
		report.Summary = summary
	}

	if posts, err := r.Client.TopPosts(ctx, limit, days); err != nil {
		log.Warn("Top posts unavailable", "error", err.Error())
	} else {
		report.TopPosts = posts
	}

	if sources, err := r.Client.TrafficSources(ctx, days); err != nil {
		log.Warn("Traffic sources unavailable", "error", err.Error())
		report.TrafficSources.Error = err.Error()
	} else {
		report.TrafficSources.Sources = sources
	}
	return report
}

func (r *Reporter) addRunHistory(report *Report) {
	if r.Log == nil {
		return
	}
	entries, err := r.Log.Entries()
	if err != nil {
		logger.Warn("Run log unavailable for analytics", "error", err.Error())
		return
	}
	report.PostsCount = len(entries)
	for i := len(entries) - 1; i >= 0; i-- {
		if entries[i].Status == core.RunSuccess {
			ts := entries[i].Timestamp
			report.LastPost = &ts
			return
		}
	}
}
