package trends

import (
	"fmt"
	"strings"

	"autoblog/internal/core"
)

// PromptBuilder turns a topic into a generation prompt suited to its source.
type PromptBuilder struct{}

// BlogPrompt returns the prompt used to write a post about topic.
func (PromptBuilder) BlogPrompt(topic core.Topic) string {
	switch topic.Source {
	case "google":
		related := topic.Related
		if len(related) > maxRelated {
			related = related[:maxRelated]
		}
		if len(related) > 0 {
			return fmt.Sprintf("Write an in-depth, SEO-optimized blog post about %s. Include information on related topics such as %s. The post should be informative, engaging, and include relevant facts and insights.",
				topic.Text, strings.Join(related, ", "))
		}
		return fmt.Sprintf("Write an informative, SEO-optimized blog post about %s, including recent developments and why it's trending.", topic.Text)

	case "news", "rss":
		var b strings.Builder
		fmt.Fprintf(&b, "Write a comprehensive blog post analyzing the recent news: %s", topic.Text)
		if topic.Description != "" {
			fmt.Fprintf(&b, ". Context: %s", topic.Description)
		}
		if topic.Category != "" {
			fmt.Fprintf(&b, ". This is trending in the %s category", topic.Category)
		}
		if topic.NewsSource != "" {
			fmt.Fprintf(&b, " and was reported by %s", topic.NewsSource)
		}
		b.WriteString(". Include facts, analysis, and your own insights while maintaining journalistic integrity.")
		return b.String()

	default:
		return fmt.Sprintf("Write a blog post about the trending topic: %s. Make it informative, SEO-friendly, and engaging for readers interested in this subject.", topic.Text)
	}
}
