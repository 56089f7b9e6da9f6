package ads

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"autoblog/internal/core"
)

const hookPrefix = "<!-- AD_PLACEMENT: "

// Hook returns the placement comment for a format.
func Hook(format core.AdFormat) string {
	return hookPrefix + string(format) + " -->"
}

func parseContent(content string) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("failed to parse content: %w", err)
	}
	return doc, nil
}

func renderBody(doc *goquery.Document) (string, error) {
	out, err := doc.Find("body").Html()
	if err != nil {
		return "", fmt.Errorf("failed to render content: %w", err)
	}
	return out, nil
}

// SplitParagraphs returns the outer HTML of every <p> in document order.
func SplitParagraphs(content string) ([]string, error) {
	doc, err := parseContent(content)
	if err != nil {
		return nil, err
	}

	var paragraphs []string
	doc.Find("p").Each(func(_ int, s *goquery.Selection) {
		if outer, err := goquery.OuterHtml(s); err == nil {
			paragraphs = append(paragraphs, outer)
		}
	})
	return paragraphs, nil
}

// ParagraphTexts returns the text of every <p> in document order.
func ParagraphTexts(content string) ([]string, error) {
	doc, err := parseContent(content)
	if err != nil {
		return nil, err
	}
	return texts(doc.Find("p")), nil
}

func texts(sel *goquery.Selection) []string {
	out := make([]string, 0, sel.Length())
	sel.Each(func(_ int, s *goquery.Selection) {
		out = append(out, s.Text())
	})
	return out
}

// Inject plans slots for content and places rendered ads after the planned
// paragraphs. Markup outside paragraphs is kept where it was.
func Inject(content string, density core.Density, r Renderer) (string, []core.AdSlot, error) {
	return place(content, density, r.Render)
}

// InsertHooks plans slots for content and places placement comments
// instead of markup, for a later ReplaceHooks.
func InsertHooks(content string, density core.Density) (string, []core.AdSlot, error) {
	return place(content, density, Hook)
}

func place(content string, density core.Density, markup func(core.AdFormat) string) (string, []core.AdSlot, error) {
	doc, err := parseContent(content)
	if err != nil {
		return content, nil, err
	}

	paragraphs := doc.Find("p")
	slots := Plan(texts(paragraphs), density)
	for _, slot := range slots {
		paragraphs.Eq(slot.Position).AfterHtml(markup(slot.Format))
	}

	out, err := renderBody(doc)
	if err != nil {
		return content, nil, err
	}
	return out, slots, nil
}

// HasHooks reports whether content carries placement comments.
func HasHooks(content string) bool {
	return strings.Contains(content, hookPrefix)
}

// ReplaceHooks swaps every placement comment for the renderer's markup.
func ReplaceHooks(content string, r Renderer) string {
	for _, format := range core.AllAdFormats {
		content = strings.ReplaceAll(content, Hook(format), r.Render(format))
	}
	return content
}
