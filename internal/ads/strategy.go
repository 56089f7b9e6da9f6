package ads

import (
	"strings"

	"autoblog/internal/core"
)

// ContentInfo describes a post for strategy selection.
type ContentInfo struct {
	Topic     string `json:"topic"`
	WordCount int    `json:"word_count"`
	Audience  string `json:"audience,omitempty"`
}

// Strategy is a recommended ad setup for one post.
type Strategy struct {
	Density               core.Density    `json:"density"`
	PrimaryNetwork        string          `json:"primary_network"`
	SecondaryNetwork      string          `json:"secondary_network,omitempty"`
	RecommendedFormats    []core.AdFormat `json:"recommended_formats"`
	PlacementStrategy     string          `json:"placement_strategy"`
	EthicalConsiderations []string        `json:"ethical_considerations"`
}

const (
	healthNote   = "Health-related content should avoid misleading ads or products with unverified claims."
	childrenNote = "Content for children should comply with COPPA and avoid behavior-based targeting."
)

// GenerateStrategy picks density, networks and formats from post length,
// topic and audience.
func GenerateStrategy(info ContentInfo) Strategy {
	s := Strategy{
		Density:               core.DensityMedium,
		PrimaryNetwork:        "google",
		RecommendedFormats:    []core.AdFormat{core.AdRectangle, core.AdLeaderboard},
		PlacementStrategy:     "standard",
		EthicalConsiderations: []string{},
	}

	switch {
	case info.WordCount < 500:
		s.Density = core.DensityLow
		s.RecommendedFormats = []core.AdFormat{core.AdRectangle}
	case info.WordCount > 1500:
		s.RecommendedFormats = append(s.RecommendedFormats, core.AdSkyscraper)
		s.SecondaryNetwork = "direct"
	}

	topic := strings.ToLower(info.Topic)
	if strings.Contains(topic, "health") || strings.Contains(topic, "medical") {
		s.EthicalConsiderations = append(s.EthicalConsiderations, healthNote)
	}

	audience := strings.ToLower(info.Audience)
	if strings.Contains(audience, "children") || strings.Contains(audience, "kids") {
		s.EthicalConsiderations = append(s.EthicalConsiderations, childrenNote)
		s.Density = core.DensityLow
	}
	return s
}
