package automation

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"autoblog/internal/ads"
	"autoblog/internal/affiliate"
	"autoblog/internal/core"
	"autoblog/internal/logger"
)

const defaultMaxProducts = 3

var densityRank = map[core.Density]int{
	core.DensityLow:    0,
	core.DensityMedium: 1,
	core.DensityHigh:   2,
}

// ContentMonetizer places display ads and affiliate products in a post.
type ContentMonetizer struct {
	Network     string            // Ad network used for rendering
	Density     core.Density      // Upper bound on the strategy's density
	Catalog     affiliate.Catalog // Optional
	Ranker      *affiliate.Ranker
	MaxProducts int
	Audience    string
	HooksOnly   bool // Leave placement comments instead of ad markup
}

// Monetization is what a monetization pass produced.
type Monetization struct {
	Content  string                  `json:"content"`
	Strategy ads.Strategy            `json:"strategy"`
	Slots    []core.AdSlot           `json:"ad_slots"`
	Products []core.AffiliateProduct `json:"products"`
}

// Monetize implements Monetizer.
func (m *ContentMonetizer) Monetize(ctx context.Context, content string, topic core.Topic) (string, error) {
	res, err := m.Apply(ctx, content, topic, m.MaxProducts)
	if err != nil {
		return "", err
	}
	return res.Content, nil
}

// Apply runs the ad strategy, ad injection and affiliate insertion.
func (m *ContentMonetizer) Apply(ctx context.Context, content string, topic core.Topic, maxProducts int) (Monetization, error) {
	paragraphs, err := ads.ParagraphTexts(content)
	if err != nil {
		return Monetization{}, fmt.Errorf("failed to read paragraphs: %w", err)
	}

	strategy := ads.GenerateStrategy(ads.ContentInfo{
		Topic:     topic.Text,
		WordCount: ads.WordCount(paragraphs),
		Audience:  m.Audience,
	})
	density := m.density(strategy.Density)

	withAds, slots, err := m.placeAds(content, density, strategy)
	if err != nil {
		return Monetization{}, fmt.Errorf("failed to inject ads: %w", err)
	}
	res := Monetization{Content: withAds, Strategy: strategy, Slots: slots, Products: []core.AffiliateProduct{}}

	if m.Catalog == nil {
		return res, nil
	}
	if maxProducts <= 0 {
		maxProducts = defaultMaxProducts
	}

	catalog, err := m.Catalog.Fetch(ctx)
	if err != nil {
		logger.Warn("Affiliate catalog unavailable", "error", err.Error())
		return res, nil
	}

	ranker := m.Ranker
	if ranker == nil {
		ranker = affiliate.NewRanker(nil)
	}
	products := ranker.RankAndSelect(plainText(content, topic), catalog, maxProducts)
	if len(products) == 0 {
		return res, nil
	}

	withProducts, err := affiliate.Insert(withAds, products)
	if err != nil {
		return res, fmt.Errorf("failed to insert affiliate products: %w", err)
	}
	res.Content = withProducts
	res.Products = products
	logger.Debug("Monetized content", "ads", len(slots), "products", len(products), "density", string(density))
	return res, nil
}

// placeAds renders existing placement comments, or plans new slots as
// comments or markup.
func (m *ContentMonetizer) placeAds(content string, density core.Density, strategy ads.Strategy) (string, []core.AdSlot, error) {
	renderer := ads.RendererFor(m.network(strategy))
	switch {
	case ads.HasHooks(content):
		return ads.ReplaceHooks(content, renderer), []core.AdSlot{}, nil
	case m.HooksOnly:
		return ads.InsertHooks(content, density)
	default:
		return ads.Inject(content, density, renderer)
	}
}

func (m *ContentMonetizer) network(strategy ads.Strategy) string {
	if m.Network != "" {
		return m.Network
	}
	return strategy.PrimaryNetwork
}

// density returns the lower of the configured and recommended densities.
func (m *ContentMonetizer) density(recommended core.Density) core.Density {
	configured, ok := densityRank[m.Density]
	if !ok {
		return recommended
	}
	if densityRank[recommended] < configured {
		return recommended
	}
	return m.Density
}

// plainText is the text affiliate products are scored against.
func plainText(content string, topic core.Topic) string {
	text := content
	if doc, err := goquery.NewDocumentFromReader(strings.NewReader(content)); err == nil {
		text = doc.Text()
	}
	return topic.Text + " " + text
}
