package storage

import (
	"memoria_chatbot/pkg"

	"github.com/pmezard/go-difflib/difflib"
)

// DefaultFuzzyCutoff is the similarity an entry needs to count as a fuzzy hit
const DefaultFuzzyCutoff = 0.6

// closestMatch follows difflib.get_close_matches(word, keys, n=1, cutoff):
// candidates must pass the real quick, quick and full ratio filters, the
// best ratio wins and ties go to the greater key.
func closestMatch(word string, entries []pkg.Entry, cutoff float64) (int, float64, bool) {
	if cutoff < 0 || cutoff > 1 || len(entries) == 0 {
		return -1, 0, false
	}

	matcher := difflib.NewMatcher(nil, nil)
	matcher.SetSeq2(splitRunes(word))

	best := -1
	bestScore := 0.0
	for i, e := range entries {
		matcher.SetSeq1(splitRunes(e.Key))
		if matcher.RealQuickRatio() < cutoff || matcher.QuickRatio() < cutoff {
			continue
		}
		score := matcher.Ratio()
		if score < cutoff {
			continue
		}
		if best < 0 || score > bestScore || (score == bestScore && e.Key > entries[best].Key) {
			best = i
			bestScore = score
		}
	}

	if best < 0 {
		return -1, 0, false
	}
	return best, bestScore, true
}

// Similarity is the difflib ratio between two keys
func Similarity(a, b string) float64 {
	return difflib.NewMatcher(splitRunes(a), splitRunes(b)).Ratio()
}

func splitRunes(s string) []string {
	out := make([]string, 0, len(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}
