package seo

import (
	"fmt"
	"strings"
	"testing"
)

func TestAnalyzeIgnoresMarkup(t *testing.T) {
	a := NewAnalyzer()
	report := a.Analyze(`<p>see <a href="https://example.com/page">docs</a></p>`)

	if report.WordCount != 2 {
		t.Errorf("expected 2 words, got %d", report.WordCount)
	}
	for _, kw := range report.Keywords {
		if kw.Word == "https" || kw.Word == "p" || kw.Word == "href" {
			t.Errorf("markup counted as keyword: %s", kw.Word)
		}
	}
}

func TestAnalyzeShortContent(t *testing.T) {
	report := NewAnalyzer().Analyze("<h1>Rockets</h1><p>rockets fly</p>")

	if report.WordCount != 3 {
		t.Fatalf("expected 3 words, got %d", report.WordCount)
	}
	// One length issue plus two overused keywords
	if len(report.Issues) != 3 {
		t.Errorf("expected 3 issues, got %v", report.Issues)
	}
	if report.Score != 50 {
		t.Errorf("expected score 50, got %d", report.Score)
	}
	if !strings.Contains(report.Issues[0], "below recommended minimum of 300") {
		t.Errorf("unexpected first issue: %s", report.Issues[0])
	}
}

func TestAnalyzeBalancedContent(t *testing.T) {
	var b strings.Builder
	b.WriteString("<p>")
	for i := 0; i < 400; i++ {
		fmt.Fprintf(&b, "w%d ", i)
	}
	b.WriteString("</p>")

	report := NewAnalyzer().Analyze(b.String())
	if report.WordCount != 400 {
		t.Errorf("expected 400 words, got %d", report.WordCount)
	}
	if report.Score != 100 || len(report.Issues) != 0 {
		t.Errorf("expected a clean report, got score %d issues %v", report.Score, report.Issues)
	}
	if len(report.Keywords) != 10 {
		t.Errorf("expected keywords capped at 10, got %d", len(report.Keywords))
	}
}

func TestAnalyzeKeywordOrder(t *testing.T) {
	report := NewAnalyzer().Analyze("the zebra apple zebra apple the the mango")

	got := report.TopKeywords(3)
	want := []string{"zebra", "apple", "mango"}
	if len(got) != len(want) {
		t.Fatalf("TopKeywords() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("keyword %d = %s, want %s", i, got[i], want[i])
		}
	}
	if report.KeywordMap()["the"] != 0 {
		t.Error("stop words must not be keywords")
	}
	if d := report.KeywordDensity["zebra"]; d != 0.25 {
		t.Errorf("zebra density = %v, want 0.25", d)
	}
}

func TestAnalyzeScoreFloor(t *testing.T) {
	report := NewAnalyzer().Analyze("a1 a2 a3 a4 a5 a6 a7 a8 a9 a10 a11")
	if report.Score != 0 {
		t.Errorf("expected score floored at 0, got %d", report.Score)
	}
}

func TestAnalyzeEmpty(t *testing.T) {
	report := NewAnalyzer().Analyze("")
	if report.WordCount != 0 || report.Score != 70 {
		t.Errorf("unexpected empty report: %+v", report)
	}
}
