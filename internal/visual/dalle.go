package visual

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"autoblog/internal/clients"
	"autoblog/internal/core"
	"autoblog/internal/logger"
)

const (
	DefaultDALLEModel = "gpt-image-1"
	defaultImageSize  = "1536x1024"
)

// DALLEOptions configures a DALLEProvider.
type DALLEOptions struct {
	APIKey    string
	BaseURL   string
	Model     string
	Size      string
	OutputDir string
}

// DALLEProvider generates header images with the OpenAI images API.
type DALLEProvider struct {
	opts DALLEOptions
	http *clients.HTTP
	now  func() time.Time
}

// NewDALLEProvider creates an image generator. A nil httpClient uses the
// default retrying client.
func NewDALLEProvider(opts DALLEOptions, httpClient *clients.HTTP) *DALLEProvider {
	if opts.BaseURL == "" {
		opts.BaseURL = "https://api.openai.com/v1"
	}
	if opts.Model == "" {
		opts.Model = DefaultDALLEModel
	}
	if opts.Size == "" {
		opts.Size = defaultImageSize
	}
	if opts.OutputDir == "" {
		opts.OutputDir = "images"
	}
	if httpClient == nil {
		httpClient = clients.NewHTTP(&http.Client{Timeout: 120 * time.Second}, clients.DefaultRetryConfig())
	}
	return &DALLEProvider{opts: opts, http: httpClient, now: time.Now}
}

// DALLERequest is an image generation request.
type DALLERequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	N      int    `json:"n"`
	Size   string `json:"size"`
}

// DALLEResponse is an image generation response.
type DALLEResponse struct {
	Created int64 `json:"created"`
	Data    []struct {
		B64JSON       string `json:"b64_json"`
		URL           string `json:"url,omitempty"`
		RevisedPrompt string `json:"revised_prompt,omitempty"`
	} `json:"data"`
}

// Generate creates an image for prompt and returns its local path.
func (d *DALLEProvider) Generate(ctx context.Context, prompt string) (string, error) {
	if d.opts.APIKey == "" {
		return "", &core.ImageError{Provider: "dalle", Err: fmt.Errorf("openai api key is not configured")}
	}

	body, err := json.Marshal(DALLERequest{Model: d.opts.Model, Prompt: prompt, N: 1, Size: d.opts.Size})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, err := d.http.Do(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.opts.BaseURL+"/images/generations", bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+d.opts.APIKey)
		return req, nil
	})
	if err != nil {
		return "", &core.ImageError{Provider: "dalle", Err: err}
	}
	if !resp.OK() {
		return "", &core.ImageError{Provider: "dalle", Err: fmt.Errorf("images API error (status %d): %s", resp.StatusCode, string(resp.Body))}
	}

	var parsed DALLEResponse
	if err := json.Unmarshal(resp.Body, &parsed); err != nil {
		return "", &core.ImageError{Provider: "dalle", Err: fmt.Errorf("failed to unmarshal response: %w", err)}
	}
	if len(parsed.Data) == 0 || parsed.Data[0].B64JSON == "" {
		return "", &core.ImageError{Provider: "dalle", Err: ErrNoImageFound}
	}

	data, err := base64.StdEncoding.DecodeString(parsed.Data[0].B64JSON)
	if err != nil {
		return "", &core.ImageError{Provider: "dalle", Err: fmt.Errorf("failed to decode base64 image: %w", err)}
	}

	path := filepath.Join(d.opts.OutputDir, ImageFileName(d.now(), ".png"))
	if err := saveFile(path, data); err != nil {
		return "", &core.ImageError{Provider: "dalle", Err: err}
	}
	logger.Info("Generated image", "provider", "dalle", "path", path)
	return path, nil
}
