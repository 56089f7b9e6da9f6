package ads

import (
	"strings"
	"testing"

	"autoblog/internal/core"
)

// makeParagraphs builds n paragraphs holding wordsEach words apiece.
func makeParagraphs(n, wordsEach int) []string {
	paragraphs := make([]string, n)
	for i := range paragraphs {
		paragraphs[i] = strings.TrimSpace(strings.Repeat("word ", wordsEach))
	}
	return paragraphs
}

func makeHTML(n, wordsEach int) string {
	var b strings.Builder
	b.WriteString("<h1>Title</h1>")
	for _, p := range makeParagraphs(n, wordsEach) {
		b.WriteString("<p>" + p + "</p>")
	}
	return b.String()
}

func TestPlanWorkedExample(t *testing.T) {
	slots := Plan(makeParagraphs(10, 100), core.DensityMedium)

	want := []core.AdSlot{
		{Format: core.AdRectangle, Position: 2},
		{Format: core.AdRectangle, Position: 5},
		{Format: core.AdLeaderboard, Position: 9},
	}
	if len(slots) != len(want) {
		t.Fatalf("expected %d slots, got %+v", len(want), slots)
	}
	for i := range want {
		if slots[i] != want[i] {
			t.Errorf("slot %d = %+v, want %+v", i, slots[i], want[i])
		}
	}
}

func TestPlanCases(t *testing.T) {
	tests := []struct {
		name       string
		paragraphs int
		wordsEach  int
		density    core.Density
		want       []core.AdSlot
	}{
		{
			name:       "forced lead rectangle and closing leaderboard",
			paragraphs: 20,
			wordsEach:  50,
			density:    core.DensityLow,
			want: []core.AdSlot{
				{Format: core.AdRectangle, Position: 3},
				{Format: core.AdSkyscraper, Position: 6},
				{Format: core.AdRectangle, Position: 13},
				{Format: core.AdLeaderboard, Position: 19},
			},
		},
		{
			name:       "last slot moved to the end when no room",
			paragraphs: 8,
			wordsEach:  106,
			density:    core.DensityMedium,
			want: []core.AdSlot{
				{Format: core.AdRectangle, Position: 2},
				{Format: core.AdLeaderboard, Position: 7},
			},
		},
		{
			name:       "short content gets a single slot",
			paragraphs: 3,
			wordsEach:  20,
			density:    core.DensityHigh,
			want: []core.AdSlot{
				{Format: core.AdRectangle, Position: 1},
			},
		},
		{
			name:       "existing closing slot becomes the leaderboard",
			paragraphs: 4,
			wordsEach:  1000,
			density:    core.DensityMedium,
			want: []core.AdSlot{
				{Format: core.AdRectangle, Position: 0},
				{Format: core.AdLeaderboard, Position: 3},
			},
		},
		{
			name:       "unknown density behaves like medium",
			paragraphs: 10,
			wordsEach:  100,
			density:    core.Density("extreme"),
			want: []core.AdSlot{
				{Format: core.AdRectangle, Position: 2},
				{Format: core.AdRectangle, Position: 5},
				{Format: core.AdLeaderboard, Position: 9},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Plan(makeParagraphs(tt.paragraphs, tt.wordsEach), tt.density)
			if len(got) != len(tt.want) {
				t.Fatalf("Plan() = %+v, want %+v", got, tt.want)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("slot %d = %+v, want %+v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestPlanEmpty(t *testing.T) {
	slots := Plan(nil, core.DensityHigh)
	if slots == nil || len(slots) != 0 {
		t.Errorf("expected empty non-nil plan, got %#v", slots)
	}
}

func TestPlanProperties(t *testing.T) {
	densities := []core.Density{core.DensityLow, core.DensityMedium, core.DensityHigh}

	for n := 1; n <= 30; n++ {
		for _, wordsEach := range []int{5, 40, 120, 300} {
			for _, density := range densities {
				paragraphs := makeParagraphs(n, wordsEach)
				before := append([]string(nil), paragraphs...)

				slots := Plan(paragraphs, density)
				wc := n * wordsEach

				if len(slots) == 0 {
					t.Fatalf("n=%d wc=%d: expected at least one slot", n, wc)
				}
				if limit := max(1, wc/250); len(slots) > limit {
					t.Errorf("n=%d wc=%d %s: %d slots exceeds ceiling %d", n, wc, density, len(slots), limit)
				}
				for i, s := range slots {
					if s.Position < 0 || s.Position >= n {
						t.Errorf("n=%d: position %d out of range", n, s.Position)
					}
					if i > 0 && s.Position-slots[i-1].Position <= 2 {
						t.Errorf("n=%d wc=%d %s: slots %d and %d too close", n, wc, density, slots[i-1].Position, s.Position)
					}
				}
				if closing := slots[len(slots)-1]; wc > 800 && (closing.Position != n-1 || closing.Format != core.AdLeaderboard) {
					t.Errorf("n=%d wc=%d %s: expected a closing leaderboard, got %+v", n, wc, density, slots)
				}
				for i := range paragraphs {
					if paragraphs[i] != before[i] {
						t.Fatal("Plan must not modify its input")
					}
				}
			}
		}
	}
}

func TestFormatFor(t *testing.T) {
	tests := []struct {
		pos, n int
		want   core.AdFormat
	}{
		{0, 10, core.AdRectangle},
		{2, 10, core.AdRectangle},
		{8, 10, core.AdLeaderboard},
		{4, 10, core.AdSkyscraper},
		{5, 10, core.AdRectangle},
		{3, 20, core.AdBanner},
		{15, 20, core.AdBanner},
	}
	for _, tt := range tests {
		if got := formatFor(tt.pos, tt.n); got != tt.want {
			t.Errorf("formatFor(%d, %d) = %s, want %s", tt.pos, tt.n, got, tt.want)
		}
	}
}

func TestSplitParagraphs(t *testing.T) {
	got, err := SplitParagraphs(`<h1>T</h1><p>one <b>bold</b></p><ul><li>x</li></ul><p class="x">two</p>`)
	if err != nil {
		t.Fatalf("SplitParagraphs failed: %v", err)
	}
	want := []string{`<p>one <b>bold</b></p>`, `<p class="x">two</p>`}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("paragraph %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestInject(t *testing.T) {
	out, slots, err := Inject(makeHTML(10, 100), core.DensityMedium, DirectRenderer{})
	if err != nil {
		t.Fatalf("Inject failed: %v", err)
	}

	if len(slots) != 3 {
		t.Fatalf("expected 3 slots, got %+v", slots)
	}
	if !strings.HasPrefix(out, "<h1>Title</h1>") {
		t.Errorf("expected heading to stay in front, got %q", out[:40])
	}
	if got := strings.Count(out, "custom-ad-content"); got != 3 {
		t.Errorf("expected 3 rendered ads, got %d", got)
	}
	if got := strings.Count(out, "<p>"); got != 10 {
		t.Errorf("expected 10 paragraphs preserved, got %d", got)
	}

	// The closing leaderboard follows the last paragraph
	if !strings.HasSuffix(out, `<div class="ad-container leaderboard custom-ad"><!-- Custom Leaderboard --><div class="custom-ad-content">Your Ad Here - Contact us for advertising options</div></div>`) {
		t.Errorf("expected content to end with the leaderboard, got %q", out[len(out)-120:])
	}
}

func TestHooksRoundTrip(t *testing.T) {
	hooked, _, err := InsertHooks(makeHTML(10, 100), core.DensityMedium)
	if err != nil {
		t.Fatalf("InsertHooks failed: %v", err)
	}
	if got := strings.Count(hooked, Hook(core.AdRectangle)); got != 2 {
		t.Errorf("expected 2 rectangle hooks, got %d", got)
	}
	if got := strings.Count(hooked, Hook(core.AdLeaderboard)); got != 1 {
		t.Errorf("expected 1 leaderboard hook, got %d", got)
	}

	rendered := ReplaceHooks(hooked, GoogleRenderer{Client: "ca-pub-1"})
	if strings.Contains(rendered, hookPrefix) {
		t.Error("expected every hook to be replaced")
	}
	if got := strings.Count(rendered, `data-ad-client="ca-pub-1"`); got != 3 {
		t.Errorf("expected 3 AdSense units, got %d", got)
	}
}

func TestEstimateRevenue(t *testing.T) {
	hooked, _, err := InsertHooks(makeHTML(10, 100), core.DensityMedium)
	if err != nil {
		t.Fatalf("InsertHooks failed: %v", err)
	}

	rev := EstimateRevenue(hooked, 1000)
	if rev.CPMModel != 9.0 {
		t.Errorf("CPMModel = %v, want 9.0", rev.CPMModel)
	}
	if rev.CPCModel != 2.5 {
		t.Errorf("CPCModel = %v, want 2.5", rev.CPCModel)
	}
	if rev.Total != 11.5 {
		t.Errorf("Total = %v, want 11.5", rev.Total)
	}

	// Rendered containers are counted when no hooks remain
	rendered := ReplaceHooks(hooked, DirectRenderer{})
	counts := CountPlacements(rendered)
	if counts[core.AdRectangle] != 2 || counts[core.AdLeaderboard] != 1 {
		t.Errorf("unexpected rendered counts: %v", counts)
	}

	if empty := EstimateRevenue("<p>no ads</p>", 2000); empty.CPMModel != 0 || empty.CPCModel != 5 {
		t.Errorf("unexpected estimate for ad-free content: %+v", empty)
	}
}

func TestRendererFor(t *testing.T) {
	tests := map[string]string{
		"google":  "google",
		"AdSense": "google",
		"carbon":  "carbon",
		"direct":  "direct",
		"":        "direct",
		"unknown": "direct",
	}
	for in, want := range tests {
		if got := RendererFor(in).Network(); got != want {
			t.Errorf("RendererFor(%q) = %s, want %s", in, got, want)
		}
	}

	if markup := (CarbonRenderer{}).Render(core.AdBanner); !strings.Contains(markup, "carbon.js") {
		t.Errorf("unexpected carbon markup: %s", markup)
	}
}

func TestGenerateStrategy(t *testing.T) {
	def := GenerateStrategy(ContentInfo{Topic: "markets", WordCount: 900})
	if def.Density != core.DensityMedium || def.PrimaryNetwork != "google" || len(def.RecommendedFormats) != 2 {
		t.Errorf("unexpected default strategy: %+v", def)
	}

	short := GenerateStrategy(ContentInfo{WordCount: 200})
	if short.Density != core.DensityLow || len(short.RecommendedFormats) != 1 || short.RecommendedFormats[0] != core.AdRectangle {
		t.Errorf("unexpected short strategy: %+v", short)
	}

	long := GenerateStrategy(ContentInfo{Topic: "Medical breakthroughs", WordCount: 2000})
	if long.SecondaryNetwork != "direct" || long.RecommendedFormats[2] != core.AdSkyscraper {
		t.Errorf("unexpected long strategy: %+v", long)
	}
	if len(long.EthicalConsiderations) != 1 {
		t.Errorf("expected a health note, got %v", long.EthicalConsiderations)
	}

	kids := GenerateStrategy(ContentInfo{WordCount: 900, Audience: "Kids"})
	if kids.Density != core.DensityLow || len(kids.EthicalConsiderations) != 1 {
		t.Errorf("unexpected children strategy: %+v", kids)
	}
}
