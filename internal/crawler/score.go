package crawler

import (
	"math"
	"strings"
)

// contextRadius is how many bytes of surrounding markup are kept on each
// side of a keyword occurrence.
const contextRadius = 50

// contextSeparator joins the occurrence windows of one keyword on one page.
const contextSeparator = "\n...\n"

// matchIndices returns the byte offsets of the non-overlapping occurrences
// of needle in haystack.
func matchIndices(haystack, needle string) []int {
	var idxs []int
	for off := 0; ; {
		i := strings.Index(haystack[off:], needle)
		if i < 0 {
			return idxs
		}
		idxs = append(idxs, off+i)
		off += i + len(needle)
	}
}

// contextWindow slices the markup around one occurrence, clamped to the
// document bounds. The index comes from the lowercased scan but is applied
// to the original text, so both ends are clamped independently.
func contextWindow(original string, idx, needleLen int) string {
	start := idx - contextRadius
	if start < 0 {
		start = 0
	}
	if start > len(original) {
		start = len(original)
	}
	end := idx + needleLen + contextRadius
	if end > len(original) {
		end = len(original)
	}
	if start > end {
		start = end
	}
	return original[start:end]
}

// relevanceScore rates how relevant the joined context is for the keyword,
// on a 0 to 100 scale. Density of occurrences dominates; an occurrence in
// the first third of the context earns a small boost.
func relevanceScore(keyword, context string) float64 {
	if context == "" {
		return 0
	}
	needle := strings.ToLower(strings.TrimSpace(keyword))
	lower := strings.ToLower(context)
	count := strings.Count(lower, needle)
	if needle == "" || count == 0 {
		return 0
	}

	density := float64(count) * 100.0 / float64(len(context))

	boost := 0.0
	firstThird := len(context) / 3
	if firstThird > len(lower) {
		firstThird = len(lower)
	}
	if strings.Contains(lower[:firstThird], needle) {
		boost = 0.3
	}

	return math.Min((density*0.7+boost)*10.0, 100.0)
}
