// Package textmatch provides fuzzy string comparison used for topic deduplication.
package textmatch

// Similarity returns a score in [0, 1] describing how much of a and b is shared,
// computed as 2*LCS/(len(a)+len(b)) over runes. Identical strings score 1.0.
func Similarity(a, b string) float64 {
	if a == b {
		return 1.0
	}

	ra, rb := []rune(a), []rune(b)
	total := len(ra) + len(rb)
	if total == 0 {
		return 1.0
	}

	lcs := LCSLength(ra, rb)
	ratio := 2 * float64(lcs) / float64(total)

	// Distinct byte strings can decode to equal runes when they hold invalid UTF-8
	if ratio >= 1.0 {
		return 0.999999
	}
	return ratio
}

// LCSLength returns the length of the longest common subsequence of a and b.
func LCSLength(a, b []rune) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	// Keep the inner dimension small
	if len(b) > len(a) {
		a, b = b, a
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			switch {
			case a[i-1] == b[j-1]:
				curr[j] = prev[j-1] + 1
			case prev[j] >= curr[j-1]:
				curr[j] = prev[j]
			default:
				curr[j] = curr[j-1]
			}
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}
