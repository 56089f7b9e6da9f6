package ads

import (
	"fmt"
	"strings"

	"autoblog/internal/core"
)

var formatNames = map[core.AdFormat]string{
	core.AdBanner:       "Banner",
	core.AdLeaderboard:  "Leaderboard",
	core.AdSkyscraper:   "Skyscraper",
	core.AdRectangle:    "Medium Rectangle",
	core.AdInterstitial: "Interstitial",
}

// FormatName returns a human readable name for the format.
func FormatName(f core.AdFormat) string {
	if name, ok := formatNames[f]; ok {
		return name
	}
	return "Ad"
}

// Renderer maps a planned slot format to network specific markup.
type Renderer interface {
	Network() string
	Render(format core.AdFormat) string
}

const fallbackStyle = `border: 1px dashed #ccc; padding: 10px; margin-top: 5px; font-size: 12px; color: #666;`

// GoogleRenderer emits AdSense units.
type GoogleRenderer struct {
	Client string // ca-pub-... publisher id
	Slot   string
}

func (GoogleRenderer) Network() string { return "google" }

func (g GoogleRenderer) Render(format core.AdFormat) string {
	client := g.Client
	if client == "" {
		client = "ca-pub-XXXXXXXXXXXXXXXX"
	}
	slot := g.Slot
	if slot == "" {
		slot = "XXXXXXXXXX"
	}
	return fmt.Sprintf(`<div class="ad-container %[1]s"><!-- Google AdSense %[2]s --><ins class="adsbygoogle" style="display:block" data-ad-client="%[3]s" data-ad-slot="%[4]s" data-ad-format="%[1]s"></ins><script>(adsbygoogle = window.adsbygoogle || []).push({})</script><div class="ad-fallback" style="%[5]s">Advertisement: %[2]s (%[1]s)</div></div>`,
		format, FormatName(format), client, slot, fallbackStyle)
}

// CarbonRenderer emits a Carbon Ads script tag.
type CarbonRenderer struct {
	Serve     string
	Placement string
}

func (CarbonRenderer) Network() string { return "carbon" }

func (c CarbonRenderer) Render(format core.AdFormat) string {
	serve := c.Serve
	if serve == "" {
		serve = "XXXXXXXX"
	}
	placement := c.Placement
	if placement == "" {
		placement = "XXXXX"
	}
	return fmt.Sprintf(`<div class="ad-container carbon %[1]s"><script async type="text/javascript" src="//cdn.carbonads.com/carbon.js?serve=%[2]s&placement=%[3]s" id="_carbonads_js"></script><div class="ad-fallback" style="%[4]s">Advertisement: Carbon %[5]s</div></div>`,
		format, serve, placement, fallbackStyle, FormatName(format))
}

// DirectRenderer emits a house ad for direct advertisers.
type DirectRenderer struct{}

func (DirectRenderer) Network() string { return "direct" }

func (DirectRenderer) Render(format core.AdFormat) string {
	return fmt.Sprintf(`<div class="ad-container %s custom-ad"><!-- Custom %s --><div class="custom-ad-content">Your Ad Here - Contact us for advertising options</div></div>`,
		format, FormatName(format))
}

// RendererFor selects a renderer by network name, falling back to direct.
func RendererFor(network string) Renderer {
	switch strings.ToLower(strings.TrimSpace(network)) {
	case "google", "adsense":
		return GoogleRenderer{}
	case "carbon":
		return CarbonRenderer{}
	default:
		return DirectRenderer{}
	}
}
