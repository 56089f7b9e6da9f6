package server

import (
	"errors"
	"net/http"
	"strings"

	"autoblog/internal/core"
	"autoblog/internal/trends"
)

const defaultTopicCount = 5

// GenerateBlogRequest is the body of POST /api/generate-blog
type GenerateBlogRequest struct {
	Topic    string `json:"topic"`
	Category string `json:"category,omitempty"`
}

// AnalyzeSEORequest is the body of POST /api/analyze-seo
type AnalyzeSEORequest struct {
	Content string `json:"content"`
}

// GenerateImageRequest is the body of POST /api/generate-image
type GenerateImageRequest struct {
	Prompt string `json:"prompt"`
}

// PublishRequest is the body of POST /api/publish
type PublishRequest struct {
	Title         string   `json:"title"`
	Content       string   `json:"content"`
	ImagePath     string   `json:"image_path"`
	Labels        []string `json:"labels"`
	ShareOnSocial bool     `json:"share_on_social"`
}

// PublishResponse wraps a publish result and any social shares
type PublishResponse struct {
	Result      core.PublishResult          `json:"result"`
	SocialShare map[string]core.ShareResult `json:"social_share,omitempty"`
}

// handleGenerateBlog handles POST /api/generate-blog
func (s *Server) handleGenerateBlog(w http.ResponseWriter, r *http.Request) {
	if s.deps.Service == nil {
		s.unavailable(w, "Content generation")
		return
	}

	var req GenerateBlogRequest
	if !s.decodeJSON(w, r, &req, false) {
		return
	}
	req.Topic = strings.TrimSpace(req.Topic)
	if req.Topic == "" {
		s.respondError(w, http.StatusBadRequest, "topic is required")
		return
	}

	topic := core.Topic{Source: "manual", Text: req.Topic, Category: req.Category}
	draft, err := s.deps.Service.Orchestrator().Draft(r.Context(), topic)
	if err != nil {
		s.log.Error("Failed to generate blog", "topic", req.Topic, "error", err)
		var genErr *core.GenerationError
		if errors.As(err, &genErr) {
			s.respondError(w, http.StatusBadGateway, err.Error())
			return
		}
		s.respondError(w, http.StatusInternalServerError, "Failed to generate content")
		return
	}

	s.respondJSON(w, http.StatusOK, draft)
}

// handleAnalyzeSEO handles POST /api/analyze-seo
func (s *Server) handleAnalyzeSEO(w http.ResponseWriter, r *http.Request) {
	if s.deps.SEO == nil {
		s.unavailable(w, "SEO analysis")
		return
	}

	var req AnalyzeSEORequest
	if !s.decodeJSON(w, r, &req, false) {
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		s.respondError(w, http.StatusBadRequest, "content is required")
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"report": s.deps.SEO.Analyze(req.Content),
	})
}

// handleGenerateImage handles POST /api/generate-image
func (s *Server) handleGenerateImage(w http.ResponseWriter, r *http.Request) {
	if s.deps.Images == nil {
		s.unavailable(w, "Image provider")
		return
	}

	var req GenerateImageRequest
	if !s.decodeJSON(w, r, &req, false) {
		return
	}
	if strings.TrimSpace(req.Prompt) == "" {
		s.respondError(w, http.StatusBadRequest, "prompt is required")
		return
	}

	path, err := s.deps.Images.Generate(r.Context(), req.Prompt)
	if err != nil {
		s.log.Error("Failed to generate image", "error", err)
		s.respondError(w, http.StatusBadGateway, err.Error())
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]string{"image_path": path})
}

// handlePublish handles POST /api/publish
func (s *Server) handlePublish(w http.ResponseWriter, r *http.Request) {
	if s.deps.Publisher == nil {
		s.unavailable(w, "Publisher")
		return
	}

	var req PublishRequest
	if !s.decodeJSON(w, r, &req, false) {
		return
	}
	if strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.Content) == "" {
		s.respondError(w, http.StatusBadRequest, "title and content are required")
		return
	}

	result, err := s.deps.Publisher.Publish(r.Context(), req.Title, req.Content, req.ImagePath, req.Labels)
	if err != nil {
		s.log.Error("Failed to publish", "title", req.Title, "error", err)
		s.respondError(w, http.StatusBadGateway, err.Error())
		return
	}

	resp := PublishResponse{Result: result}
	if req.ShareOnSocial && s.deps.Sharer != nil && result.URL != "" {
		resp.SocialShare = s.deps.Sharer.Share(r.Context(), "New blog post: "+req.Title+" - Check it out!", result.URL)
	}
	s.respondJSON(w, http.StatusOK, resp)
}

// handleTrendingTopics handles GET /api/trending-topics
func (s *Server) handleTrendingTopics(w http.ResponseWriter, r *http.Request) {
	if s.deps.Topics == nil {
		s.unavailable(w, "Trend source")
		return
	}

	sources := queryList(r, "sources")
	categories := queryList(r, "categories")
	if s.deps.Service != nil {
		settings := s.deps.Service.Settings()
		if len(sources) == 0 {
			sources = settings.Sources
		}
		if len(categories) == 0 {
			categories = settings.Categories
		}
	}
	if len(sources) == 0 {
		sources = []string{"news"}
	}
	if len(categories) == 0 {
		categories = trends.DefaultCategories
	}
	count := queryInt(r, "count", defaultTopicCount)
	if count <= 0 {
		count = defaultTopicCount
	}

	topics, err := s.deps.Topics.Fetch(r.Context(), sources, count, categories)
	if err != nil {
		s.log.Error("Failed to fetch trending topics", "sources", sources, "error", err)
		s.respondError(w, http.StatusBadGateway, err.Error())
		return
	}
	if topics == nil {
		topics = []core.Topic{}
	}

	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"trends": topics,
		"count":  len(topics),
	})
}
