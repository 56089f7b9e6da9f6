package visual

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"autoblog/internal/logger"
)

const maxSuggestedKeywords = 5

var listMarker = regexp.MustCompile(`^(?:[-*•]|\d+[.)])\s*`)

// TextGenerator is the subset of a content generator used for keyword ideas.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// GeneratorKeywords asks gen for concrete search phrases. Any failure falls
// back to searching the topic alone.
func GeneratorKeywords(gen TextGenerator) KeywordFunc {
	return func(ctx context.Context, topic string) []string {
		prompt := fmt.Sprintf(`Based on the blog topic: "%s"

Generate 3-5 SPECIFIC image search keywords or short phrases that would produce highly relevant, visually appealing stock photos.
Focus on concrete, visual concepts rather than abstract terms.
Return only the keywords, one per line, with no numbering or additional text.`, topic)

		out, err := gen.Generate(ctx, prompt)
		if err != nil {
			logger.Warn("Keyword suggestion failed", "topic", topic, "error", err.Error())
			return nil
		}
		return parseKeywordLines(out)
	}
}

// parseKeywordLines extracts one keyword per line from generated text or HTML.
func parseKeywordLines(out string) []string {
	text := out
	if doc, err := goquery.NewDocumentFromReader(strings.NewReader(out)); err == nil {
		text = doc.Text()
	}

	var keywords []string
	seen := make(map[string]bool)
	for _, line := range strings.Split(text, "\n") {
		line = listMarker.ReplaceAllString(strings.TrimSpace(line), "")
		line = strings.TrimSpace(strings.Trim(line, `"`))
		if line == "" || seen[strings.ToLower(line)] {
			continue
		}
		seen[strings.ToLower(line)] = true
		keywords = append(keywords, line)
		if len(keywords) == maxSuggestedKeywords {
			break
		}
	}
	return keywords
}
