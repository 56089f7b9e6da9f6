// Package failures keeps per-topic consecutive publish failure counts.
package failures

import (
	"sort"
	"sync"

	"autoblog/internal/core"
)

// Tracker maps a topic identity key to its consecutive failure count.
// Counts live in memory for the lifetime of the process.
type Tracker struct {
	mu     sync.Mutex
	counts map[string]int
}

// NewTracker returns an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{counts: make(map[string]int)}
}

// Get returns the failure count for key, 0 when never seen.
func (t *Tracker) Get(key string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.counts[key]
}

// Has reports whether key currently has a recorded failure.
func (t *Tracker) Has(key string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.counts[key]
	return ok
}

// Increment records one more failure for key and returns the new count.
func (t *Tracker) Increment(key string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.counts[key]++
	return t.counts[key]
}

// Reset removes key entirely.
func (t *Tracker) Reset(key string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.counts, key)
}

// Clear removes every counter.
func (t *Tracker) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.counts = make(map[string]int)
}

// Snapshot returns a copy of all counters.
func (t *Tracker) Snapshot() map[string]int {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[string]int, len(t.counts))
	for k, v := range t.counts {
		out[k] = v
	}
	return out
}

// Filter drops topics whose failure count has reached maxRetries.
// If that would leave nothing, all counters are cleared and the full pool is returned.
func (t *Tracker) Filter(topics []core.Topic, maxRetries int) []core.Topic {
	if len(topics) == 0 {
		return topics
	}

	kept := make([]core.Topic, 0, len(topics))
	for _, topic := range topics {
		if t.Get(topic.Key()) < maxRetries {
			kept = append(kept, topic)
		}
	}

	if len(kept) == 0 {
		t.Clear()
		return append([]core.Topic(nil), topics...)
	}
	return kept
}

// SortByFailures orders topics by ascending failure count, keeping the
// existing order among equal counts.
func (t *Tracker) SortByFailures(topics []core.Topic) {
	counts := t.Snapshot()
	sort.SliceStable(topics, func(i, j int) bool {
		return counts[topics[i].Key()] < counts[topics[j].Key()]
	})
}
