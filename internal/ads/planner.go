// Package ads plans and renders display ad placements inside generated posts.
package ads

import (
	"math"
	"regexp"
	"sort"

	"autoblog/internal/core"
)

const (
	wordsPerAd    = 300 // Base rate before the density factor
	wordsPerAdCap = 250 // Never more than one ad per this many words
	minGap        = 2   // Consecutive slots must be more than this many paragraphs apart
	longContent   = 800 // Word count above which a closing leaderboard is placed
)

var wordPattern = regexp.MustCompile(`\w+`)

var densityFactors = map[core.Density]float64{
	core.DensityLow:    0.5,
	core.DensityMedium: 1.0,
	core.DensityHigh:   1.5,
}

// WordCount counts word tokens across the paragraphs.
func WordCount(paragraphs []string) int {
	total := 0
	for _, p := range paragraphs {
		total += len(wordPattern.FindAllStringIndex(p, -1))
	}
	return total
}

// Plan decides how many ad slots the paragraphs get and where they go.
// Slots are returned in ascending position order. The input is not modified.
func Plan(paragraphs []string, density core.Density) []core.AdSlot {
	n := len(paragraphs)
	if n == 0 {
		return []core.AdSlot{}
	}

	wc := WordCount(paragraphs)
	limit := adCeiling(wc)
	count := adCount(wc, density)

	positions := candidatePositions(n, count)
	slots := make([]core.AdSlot, 0, len(positions)+2)
	for _, pos := range positions {
		slots = append(slots, core.AdSlot{Format: formatFor(pos, n), Position: pos})
	}

	slots = forceLeadRectangle(slots, n, limit)
	if wc > longContent {
		slots = forceClosingLeaderboard(slots, n, limit)
	}

	sort.Slice(slots, func(i, j int) bool { return slots[i].Position < slots[j].Position })
	return slots
}

func adCeiling(wc int) int {
	return max(1, wc/wordsPerAdCap)
}

func adCount(wc int, density core.Density) int {
	factor, ok := densityFactors[density]
	if !ok {
		factor = 1.0
	}
	base := max(1, int(math.Round(float64(wc)/wordsPerAd*factor)))
	return min(base, adCeiling(wc))
}

// candidatePositions spaces count slots evenly over n paragraphs and
// greedily drops any that crowd the previously kept one.
func candidatePositions(n, count int) []int {
	interval := float64(n) / float64(count+1)

	var kept []int
	seen := make(map[int]bool, count)
	for i := 1; i <= count; i++ {
		pos := int(math.Floor(interval * float64(i)))
		if seen[pos] {
			continue
		}
		seen[pos] = true

		if len(kept) > 0 && pos-kept[len(kept)-1] <= minGap {
			continue
		}
		kept = append(kept, pos)
	}
	return kept
}

func formatFor(pos, n int) core.AdFormat {
	r := float64(pos) / float64(n)
	switch {
	case pos <= 2:
		return core.AdRectangle
	case r >= 0.8:
		return core.AdLeaderboard
	case r >= 0.3 && r <= 0.7:
		if pos%2 == 0 {
			return core.AdSkyscraper
		}
		return core.AdRectangle
	default:
		return core.AdBanner
	}
}

// forceLeadRectangle makes sure longer content gets an early rectangle.
func forceLeadRectangle(slots []core.AdSlot, n, limit int) []core.AdSlot {
	if n < 5 || len(slots) >= limit {
		return slots
	}
	for _, s := range slots {
		if s.Position >= 2 && s.Position <= 4 {
			return slots
		}
	}
	for _, pos := range []int{3, 2, 4} {
		if pos < n && fits(slots, pos) {
			return append(slots, core.AdSlot{Format: core.AdRectangle, Position: pos})
		}
	}
	return slots
}

// forceClosingLeaderboard puts a leaderboard after the last paragraph,
// either as a new slot or by moving the last slot when no new one fits.
// A slot already on the last paragraph is turned into the leaderboard.
func forceClosingLeaderboard(slots []core.AdSlot, n, limit int) []core.AdSlot {
	last := n - 1
	for i, s := range slots {
		if s.Position == last {
			if s.Format == core.AdLeaderboard {
				return slots
			}
			out := append([]core.AdSlot(nil), slots...)
			out[i].Format = core.AdLeaderboard
			return out
		}
	}

	if len(slots) < limit && fits(slots, last) {
		return append(slots, core.AdSlot{Format: core.AdLeaderboard, Position: last})
	}
	if len(slots) == 0 {
		return slots
	}

	tail := 0
	for i, s := range slots {
		if s.Position > slots[tail].Position {
			tail = i
		}
	}
	out := append([]core.AdSlot(nil), slots...)
	out[tail] = core.AdSlot{Format: core.AdLeaderboard, Position: last}
	return out
}

func fits(slots []core.AdSlot, pos int) bool {
	for _, s := range slots {
		d := s.Position - pos
		if d < 0 {
			d = -d
		}
		if d <= minGap {
			return false
		}
	}
	return true
}
