// Package publisher posts finished articles to Blogger.
package publisher

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"html"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/blogger/v3"
	"google.golang.org/api/option"

	"autoblog/internal/core"
	"autoblog/internal/logger"
)

const platform = "blogger"

// ErrMissingCredentials is returned when OAuth credentials are incomplete.
var ErrMissingCredentials = errors.New("blogger credentials not configured")

// Credentials identify the blog and the OAuth client allowed to post to it.
type Credentials struct {
	BlogID       string
	ClientID     string
	ClientSecret string
	RefreshToken string
}

// Complete reports whether every field is set.
func (c Credentials) Complete() bool {
	return c.BlogID != "" && c.ClientID != "" && c.ClientSecret != "" && c.RefreshToken != ""
}

// TokenSource exchanges the refresh token for access tokens as needed.
func (c Credentials) TokenSource(ctx context.Context) oauth2.TokenSource {
	cfg := &oauth2.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		Endpoint:     google.Endpoint,
		Scopes:       []string{blogger.BloggerScope},
	}
	return cfg.TokenSource(ctx, &oauth2.Token{RefreshToken: c.RefreshToken})
}

// BloggerPublisher inserts posts through the Blogger v3 API.
type BloggerPublisher struct {
	blogID  string
	service *blogger.Service
}

// NewBloggerPublisher creates a publisher. Without extra client options the
// refresh token in creds authenticates every call.
func NewBloggerPublisher(ctx context.Context, creds Credentials, opts ...option.ClientOption) (*BloggerPublisher, error) {
	if creds.BlogID == "" {
		return nil, ErrMissingCredentials
	}
	if len(opts) == 0 {
		if !creds.Complete() {
			return nil, ErrMissingCredentials
		}
		opts = []option.ClientOption{option.WithTokenSource(creds.TokenSource(ctx))}
	}

	service, err := blogger.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Blogger service: %w", err)
	}
	return &BloggerPublisher{blogID: creds.BlogID, service: service}, nil
}

// Publish inserts a live post. A local image is embedded inline since the
// API has no media upload.
func (p *BloggerPublisher) Publish(ctx context.Context, title, content, imagePath string, labels []string) (core.PublishResult, error) {
	body := content
	if src, err := ImageSource(imagePath); err != nil {
		logger.Warn("Skipping post image", "path", imagePath, "error", err.Error())
	} else if src != "" {
		body = fmt.Sprintf("<img src=\"%s\" alt=\"%s\"/>\n%s", src, html.EscapeString(title), content)
	}

	post := &blogger.Post{
		Kind:    "blogger#post",
		Title:   title,
		Content: body,
		Labels:  labels,
	}

	created, err := p.service.Posts.Insert(p.blogID, post).Context(ctx).Do()
	if err != nil {
		pubErr := &core.PublishError{Platform: platform, Err: err}
		return core.PublishResult{Success: false, Error: pubErr.Error()}, pubErr
	}

	logger.Info("Published post", "platform", platform, "url", created.Url, "post_id", created.Id)
	return core.PublishResult{Success: true, URL: created.Url, PostID: created.Id}, nil
}

// ImageSource returns an img src for path. Remote URLs pass through and
// local files become data URIs. An empty path yields "".
func ImageSource(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read image: %w", err)
	}
	mimeType := mime.TypeByExtension(strings.ToLower(filepath.Ext(path)))
	if mimeType == "" {
		mimeType = "image/jpeg"
	}
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}
