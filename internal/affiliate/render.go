package affiliate

import (
	"fmt"
	"html"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"autoblog/internal/core"
)

// RenderBlock renders one product as an in-content card.
func RenderBlock(p core.AffiliateProduct) string {
	var b strings.Builder
	b.WriteString(`<div class="affiliate-product">`)
	if p.ImageURL != "" {
		fmt.Fprintf(&b, `<img src="%s" alt="%s" class="affiliate-image">`,
			html.EscapeString(p.ImageURL), html.EscapeString(p.ProductName))
	}
	fmt.Fprintf(&b, `<div class="product-name">%s</div>`, html.EscapeString(p.ProductName))
	if p.Description != "" {
		fmt.Fprintf(&b, `<div class="product-catchphrase">%s</div>`, html.EscapeString(p.Description))
	}
	if p.Price != "" {
		fmt.Fprintf(&b, `<div class="product-price">%s</div>`, html.EscapeString(p.Price))
	}
	fmt.Fprintf(&b, `<a href="%s" rel="nofollow sponsored" target="_blank" class="shop-now">Shop Now</a>`,
		html.EscapeString(p.URL))
	b.WriteString(`</div>`)
	return b.String()
}

// Insert spreads product blocks evenly after the paragraphs of content.
// Content without paragraphs gets the blocks appended.
func Insert(content string, products []core.AffiliateProduct) (string, error) {
	if len(products) == 0 {
		return content, nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return content, fmt.Errorf("failed to parse content: %w", err)
	}

	body := doc.Find("body")
	paragraphs := body.Find("p")
	n := paragraphs.Length()
	if n == 0 {
		for _, p := range products {
			body.AppendHtml(RenderBlock(p))
		}
	} else {
		// Walk backwards so blocks sharing a paragraph keep catalog order
		step := float64(n) / float64(len(products)+1)
		for i := len(products) - 1; i >= 0; i-- {
			pos := min(int(step*float64(i+1)), n-1)
			paragraphs.Eq(pos).AfterHtml(RenderBlock(products[i]))
		}
	}

	out, err := body.Html()
	if err != nil {
		return content, fmt.Errorf("failed to render content: %w", err)
	}
	return out, nil
}
