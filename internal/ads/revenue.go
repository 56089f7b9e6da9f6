package ads

import (
	"math"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"autoblog/internal/core"
)

// CPM rates in dollars per thousand impressions.
var cpmRates = map[core.AdFormat]float64{
	core.AdBanner:       1.50,
	core.AdLeaderboard:  2.00,
	core.AdSkyscraper:   1.75,
	core.AdRectangle:    3.50,
	core.AdInterstitial: 8.00,
}

const (
	clickThroughRate = 0.005
	averageCPC       = 0.50
)

// Revenue is an estimate of what a post could earn.
type Revenue struct {
	Views        int                   `json:"views"`
	AdPlacements map[core.AdFormat]int `json:"ad_placements"`
	CPMModel     float64               `json:"cpm_model"`
	CPCModel     float64               `json:"cpc_model"`
	Total        float64               `json:"total"`
}

// CountPlacements counts ads by format. Placement comments are counted when
// present, otherwise rendered ad containers.
func CountPlacements(content string) map[core.AdFormat]int {
	counts := make(map[core.AdFormat]int, len(core.AllAdFormats))
	hooks := 0
	for _, format := range core.AllAdFormats {
		c := strings.Count(content, Hook(format))
		counts[format] = c
		hooks += c
	}
	if hooks > 0 {
		return counts
	}

	doc, err := parseContent(content)
	if err != nil {
		return counts
	}
	doc.Find("div.ad-container").Each(func(_ int, s *goquery.Selection) {
		for _, format := range core.AllAdFormats {
			if s.HasClass(string(format)) {
				counts[format]++
				return
			}
		}
	})
	return counts
}

// EstimateRevenue estimates CPM and CPC revenue for the given view count.
func EstimateRevenue(content string, views int) Revenue {
	counts := CountPlacements(content)

	cpm := 0.0
	for format, count := range counts {
		cpm += float64(views) / 1000 * cpmRates[format] * float64(count)
	}
	cpc := float64(views) * clickThroughRate * averageCPC

	return Revenue{
		Views:        views,
		AdPlacements: counts,
		CPMModel:     roundCents(cpm),
		CPCModel:     roundCents(cpc),
		Total:        roundCents(cpm + cpc),
	}
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
