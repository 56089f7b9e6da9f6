// Package seo scores generated posts on length and keyword balance.
package seo

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"

	"autoblog/internal/core"
	"autoblog/internal/logger"
)

const (
	DefaultMinWordCount = 300
	optimalDensity      = 0.02 // Keywords above twice this are flagged as overused
	maxKeywords         = 10
	penaltyShort        = 20
	penaltyIssue        = 10
)

var (
	wordPattern = regexp.MustCompile(`[\p{L}\p{N}_]+`)
	linkTargets = regexp.MustCompile(`\]\([^)]*\)`)
	stopWords   = map[string]bool{"the": true, "and": true, "is": true, "in": true, "to": true, "of": true, "a": true, "for": true, "on": true, "with": true}
)

// Analyzer produces SEO reports for HTML or plain text content.
type Analyzer struct {
	MinWordCount int
	converter    *md.Converter
}

// NewAnalyzer returns an analyzer with the default minimum word count.
func NewAnalyzer() *Analyzer {
	return &Analyzer{
		MinWordCount: DefaultMinWordCount,
		converter:    md.NewConverter("", true, nil),
	}
}

// PlainText converts HTML to readable text so markup is not counted.
func (a *Analyzer) PlainText(content string) string {
	text, err := a.converter.ConvertString(content)
	if err != nil {
		logger.Warn("Failed to convert content for SEO analysis", "error", err.Error())
		return content
	}
	return linkTargets.ReplaceAllString(text, "]")
}

// Analyze scores content. It never fails; empty content scores low.
func (a *Analyzer) Analyze(content string) core.SEOReport {
	words := wordPattern.FindAllString(strings.ToLower(a.PlainText(content)), -1)
	wc := len(words)

	counts := make(map[string]int)
	firstSeen := make(map[string]int)
	for i, w := range words {
		if _, ok := firstSeen[w]; !ok {
			firstSeen[w] = i
		}
		counts[w]++
	}

	keywords := make([]core.KeywordCount, 0, len(counts))
	for w, c := range counts {
		if stopWords[w] {
			continue
		}
		keywords = append(keywords, core.KeywordCount{Word: w, Count: c})
	}
	sort.Slice(keywords, func(i, j int) bool {
		if keywords[i].Count != keywords[j].Count {
			return keywords[i].Count > keywords[j].Count
		}
		return firstSeen[keywords[i].Word] < firstSeen[keywords[j].Word]
	})
	if len(keywords) > maxKeywords {
		keywords = keywords[:maxKeywords]
	}

	density := make(map[string]float64, len(keywords))
	issues := []string{}
	if wc < a.MinWordCount {
		issues = append(issues, fmt.Sprintf("Content length (%d words) is below recommended minimum of %d", wc, a.MinWordCount))
	}
	for _, kw := range keywords {
		d := float64(kw.Count) / float64(wc)
		density[kw.Word] = d
		if d > optimalDensity*2 {
			issues = append(issues, fmt.Sprintf("Keyword '%s' may be overused (density: %.1f%%)", kw.Word, d*100))
		}
	}

	score := 100 - penaltyIssue*len(issues)
	if wc < a.MinWordCount {
		score -= penaltyShort
	}

	return core.SEOReport{
		Score:          max(0, score),
		WordCount:      wc,
		Keywords:       keywords,
		KeywordDensity: density,
		Issues:         issues,
	}
}
