package server

import (
	"context"
	"net/http"
	"strings"

	"autoblog/internal/ads"
	"autoblog/internal/affiliate"
	"autoblog/internal/core"
)

const defaultViews = 1000

// AddAffiliateAdsRequest is the body of POST /api/add-affiliate-ads
type AddAffiliateAdsRequest struct {
	Content     string `json:"content"`
	Topic       string `json:"topic,omitempty"`
	Category    string `json:"category,omitempty"`
	MaxProducts int    `json:"max_products"`
	HooksOnly   bool   `json:"hooks_only,omitempty"`
}

// EstimateRevenueRequest is the body of POST /api/estimate-revenue
type EstimateRevenueRequest struct {
	Content string `json:"content"`
	Views   int    `json:"views"`
}

// categoryCatalog narrows a catalog to one category
type categoryCatalog struct {
	upstream affiliate.Catalog
	category string
}

func (c categoryCatalog) Fetch(ctx context.Context) ([]core.AffiliateProduct, error) {
	products, err := c.upstream.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	return affiliate.FilterByCategory(products, c.category), nil
}

// handleAffiliateProducts handles GET /api/affiliate-products
func (s *Server) handleAffiliateProducts(w http.ResponseWriter, r *http.Request) {
	if s.deps.Catalog == nil {
		s.unavailable(w, "Affiliate catalog")
		return
	}

	products, err := s.deps.Catalog.Fetch(r.Context())
	if err != nil {
		s.log.Error("Failed to fetch affiliate products", "error", err)
		s.respondError(w, http.StatusBadGateway, "Failed to fetch affiliate products")
		return
	}

	products = affiliate.FilterByCategory(products, r.URL.Query().Get("category"))
	total := len(products)
	if limit := queryInt(r, "limit", 0); limit > 0 && limit < total {
		products = products[:limit]
	}
	if products == nil {
		products = []core.AffiliateProduct{}
	}

	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"products": products,
		"total":    total,
	})
}

// handleAddAffiliateAds handles POST /api/add-affiliate-ads
func (s *Server) handleAddAffiliateAds(w http.ResponseWriter, r *http.Request) {
	if s.deps.Monetizer == nil {
		s.unavailable(w, "Monetization")
		return
	}

	var req AddAffiliateAdsRequest
	if !s.decodeJSON(w, r, &req, false) {
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		s.respondError(w, http.StatusBadRequest, "content is required")
		return
	}

	m := *s.deps.Monetizer
	m.HooksOnly = req.HooksOnly
	if m.Catalog != nil && strings.TrimSpace(req.Category) != "" {
		m.Catalog = categoryCatalog{upstream: m.Catalog, category: req.Category}
	}

	res, err := m.Apply(r.Context(), req.Content, core.Topic{Text: req.Topic, Category: req.Category}, req.MaxProducts)
	if err != nil {
		s.log.Error("Failed to monetize content", "error", err)
		s.respondError(w, http.StatusInternalServerError, "Failed to add affiliate ads")
		return
	}

	s.respondJSON(w, http.StatusOK, res)
}

// handleEstimateRevenue handles POST /api/estimate-revenue
func (s *Server) handleEstimateRevenue(w http.ResponseWriter, r *http.Request) {
	var req EstimateRevenueRequest
	if !s.decodeJSON(w, r, &req, false) {
		return
	}
	if req.Views <= 0 {
		req.Views = defaultViews
	}

	s.respondJSON(w, http.StatusOK, ads.EstimateRevenue(req.Content, req.Views))
}

// handleAnalytics handles GET /api/analytics
func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	if s.deps.Analytics == nil {
		s.unavailable(w, "Analytics")
		return
	}
	s.respondJSON(w, http.StatusOK, s.deps.Analytics.Report(r.Context()))
}
