// Package dedup decides whether a candidate topic repeats something published recently.
package dedup

import (
	"sort"
	"strings"
	"time"
	"unicode"

	"autoblog/internal/core"
	"autoblog/internal/textmatch"
)

const (
	// DefaultWindow is how far back published runs count as recent
	DefaultWindow = 24 * time.Hour
	// SimilarityThreshold is the fuzzy match score above which topics are duplicates
	SimilarityThreshold = 0.85

	titlePrefix    = "title:"
	keywordsPrefix = "keywords:"
)

// Reason names the check that flagged a duplicate.
type Reason string

const (
	ReasonNone             Reason = ""
	ReasonURL              Reason = "url"
	ReasonTopic            Reason = "topic"
	ReasonKeywords         Reason = "keywords"
	ReasonFuzzyTitle       Reason = "fuzzy-title"
	ReasonFuzzyDescription Reason = "fuzzy-description"
)

// Index is the set of identity keys for recently published topics.
type Index struct {
	keys map[string]struct{}
}

// NewIndex returns an empty index.
func NewIndex() *Index {
	return &Index{keys: make(map[string]struct{})}
}

// BuildIndex collects keys from run log entries with status success or partial
// whose timestamp falls within window before now.
func BuildIndex(entries []core.RunLogEntry, now time.Time, window time.Duration) *Index {
	if window <= 0 {
		window = DefaultWindow
	}
	cutoff := now.Add(-window)

	idx := NewIndex()
	for _, entry := range entries {
		if entry.Status != core.RunSuccess && entry.Status != core.RunPartial {
			continue
		}
		if entry.Timestamp.Before(cutoff) {
			continue
		}
		idx.AddEntry(entry)
	}
	return idx
}

// AddEntry adds every key derived from a run log entry.
func (idx *Index) AddEntry(entry core.RunLogEntry) {
	if entry.Topic != nil {
		idx.AddTopic(*entry.Topic)
	}
	if title := strings.TrimSpace(entry.Title); title != "" {
		idx.Add(titlePrefix + title)
	}
}

// AddTopic adds the topic-text, URL and keyword keys of t.
func (idx *Index) AddTopic(t core.Topic) {
	if strings.TrimSpace(t.Text) != "" {
		idx.Add(t.Key())
		if kw := KeywordKey(t.Text); kw != "" {
			idx.Add(keywordsPrefix + kw)
		}
	}
	if key := t.URLKey(); key != "" {
		idx.Add(key)
	}
}

// Add inserts a raw key.
func (idx *Index) Add(key string) {
	idx.keys[key] = struct{}{}
}

// Has reports whether key is present.
func (idx *Index) Has(key string) bool {
	_, ok := idx.keys[key]
	return ok
}

// Len returns the number of keys.
func (idx *Index) Len() int {
	return len(idx.keys)
}

// Keys returns all keys in sorted order.
func (idx *Index) Keys() []string {
	keys := make([]string, 0, len(idx.keys))
	for k := range idx.keys {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// KeywordKey reduces text to its sorted set of significant words:
// lowercased, punctuation stripped, longer than three characters.
func KeywordKey(text string) string {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsPunct(r) || unicode.IsSymbol(r) {
			return -1
		}
		return unicode.ToLower(r)
	}, text)

	seen := make(map[string]struct{})
	var words []string
	for _, w := range strings.Fields(cleaned) {
		if len([]rune(w)) <= 3 {
			continue
		}
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		words = append(words, w)
	}
	sort.Strings(words)
	return strings.Join(words, " ")
}

// IsDuplicate reports whether t repeats a recently published topic.
func IsDuplicate(t core.Topic, idx *Index) bool {
	dup, _ := Check(t, idx)
	return dup
}

// Check runs the duplicate checks in order and returns the first that matched.
func Check(t core.Topic, idx *Index) (bool, Reason) {
	if idx == nil || idx.Len() == 0 {
		return false, ReasonNone
	}

	if key := t.URLKey(); key != "" && idx.Has(key) {
		return true, ReasonURL
	}

	if idx.Has(t.Key()) {
		return true, ReasonTopic
	}

	if t.Source == "news" {
		if kw := KeywordKey(t.Text); kw != "" && idx.Has(keywordsPrefix+kw) {
			return true, ReasonKeywords
		}
	}

	text := strings.ToLower(strings.TrimSpace(t.Text))
	desc := strings.ToLower(strings.TrimSpace(t.Description))
	for key := range idx.keys {
		trailing := strings.ToLower(trailingText(key))
		if trailing == "" {
			continue
		}
		if text != "" && textmatch.Similarity(text, trailing) > SimilarityThreshold {
			return true, ReasonFuzzyTitle
		}
		if desc != "" && textmatch.Similarity(desc, trailing) > SimilarityThreshold {
			return true, ReasonFuzzyDescription
		}
	}

	return false, ReasonNone
}

// trailingText returns the part of a key after its first colon.
func trailingText(key string) string {
	if i := strings.Index(key, ":"); i >= 0 {
		return key[i+1:]
	}
	return key
}
