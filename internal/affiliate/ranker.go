// Package affiliate selects and renders affiliate product placements.
package affiliate

import (
	"math/rand"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode"

	"autoblog/internal/core"
)

const (
	categoryWeight = 3
	wordWeight     = 1
	minWordLen     = 4 // Scoring words must be longer than 3 characters
	minKeywordLen  = 5 // Name keywords must be longer than 4 characters
	maxSharedNames = 2 // Names sharing this many keywords are near duplicates
)

// Ranker scores catalog products against post content.
// Ties are ordered randomly using rng.
type Ranker struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRanker returns a ranker using rng for tie ordering.
// A nil rng is replaced with a time seeded source.
func NewRanker(rng *rand.Rand) *Ranker {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Ranker{rng: rng}
}

// Score returns the relevance of product p to already lowercased content.
func Score(content string, p core.AffiliateProduct) int {
	score := 0
	for _, token := range strings.Split(p.Category, ",") {
		token = strings.ToLower(strings.TrimSpace(token))
		if token != "" && strings.Contains(content, token) {
			score += categoryWeight
		}
	}
	for _, word := range strings.Fields(p.ProductName + " " + p.Description) {
		word = strings.ToLower(strings.TrimFunc(word, isPunct))
		if len(word) >= minWordLen && strings.Contains(content, word) {
			score += wordWeight
		}
	}
	return score
}

// RankAndSelect returns up to maxCount distinct products, most relevant first.
func (r *Ranker) RankAndSelect(content string, catalog []core.AffiliateProduct, maxCount int) []core.AffiliateProduct {
	selected := make([]core.AffiliateProduct, 0, max(0, min(maxCount, len(catalog))))
	if maxCount <= 0 || len(catalog) == 0 {
		return selected
	}

	content = strings.ToLower(content)
	groups := make(map[int][]core.AffiliateProduct)
	for _, p := range catalog {
		s := Score(content, p)
		groups[s] = append(groups[s], p)
	}

	scores := make([]int, 0, len(groups))
	for s := range groups {
		scores = append(scores, s)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(scores)))

	urls := make(map[string]bool)
	names := make(map[string]bool)
	var keywordSets []map[string]bool

	for _, s := range scores {
		group := groups[s]
		r.mu.Lock()
		r.rng.Shuffle(len(group), func(i, j int) { group[i], group[j] = group[j], group[i] })
		r.mu.Unlock()

		for _, p := range group {
			name := NormalizeName(p.ProductName)
			if (p.URL != "" && urls[p.URL]) || (name != "" && names[name]) {
				continue
			}
			keywords := nameKeywords(name)
			if nearDuplicate(keywords, keywordSets) {
				continue
			}

			selected = append(selected, p)
			urls[p.URL] = true
			names[name] = true
			keywordSets = append(keywordSets, keywords)

			if len(selected) >= maxCount {
				return selected
			}
		}
	}
	return selected
}

// NormalizeName lowercases the name, strips punctuation and collapses whitespace.
func NormalizeName(name string) string {
	cleaned := strings.Map(func(r rune) rune {
		if isPunct(r) && !unicode.IsSpace(r) {
			return -1
		}
		return unicode.ToLower(r)
	}, name)
	return strings.Join(strings.Fields(cleaned), " ")
}

func nameKeywords(normalized string) map[string]bool {
	out := make(map[string]bool)
	for _, w := range strings.Fields(normalized) {
		if len(w) >= minKeywordLen {
			out[w] = true
		}
	}
	return out
}

func nearDuplicate(keywords map[string]bool, selected []map[string]bool) bool {
	for _, other := range selected {
		shared := 0
		for w := range keywords {
			if other[w] {
				shared++
			}
		}
		if shared >= maxSharedNames {
			return true
		}
	}
	return false
}

func isPunct(r rune) bool {
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}

// FilterByCategory keeps products whose category mentions category.
// An empty category keeps everything.
func FilterByCategory(products []core.AffiliateProduct, category string) []core.AffiliateProduct {
	category = strings.ToLower(strings.TrimSpace(category))
	if category == "" {
		return products
	}
	out := make([]core.AffiliateProduct, 0, len(products))
	for _, p := range products {
		if strings.Contains(strings.ToLower(p.Category), category) {
			out = append(out, p)
		}
	}
	return out
}
