package compare

import (
	"menuparity/lib/textutil"

	"github.com/antzucaro/matchr"
)

// Hint links an anchor that only exists in A to a similar anchor that only
// exists in B, most likely the same menu entry renamed.
type Hint struct {
	From       string
	To         string
	Similarity float64
}

// DefaultHintThreshold is the minimum Jaro-Winkler similarity of a hint.
const DefaultHintThreshold = 0.85

// onlyIn returns the entries of list that are not matched by an entry of
// other, counting duplicates.
func onlyIn(list, other []string) []string {
	remaining := map[string]int{}
	for _, o := range other {
		remaining[o]++
	}
	var out []string
	for _, l := range list {
		if remaining[l] > 0 {
			remaining[l]--
			continue
		}
		out = append(out, l)
	}
	return out
}

// RenameHints pairs the entries removed from a with the entries added in b.
// Entries equal up to case and spacing are linked first with similarity 1,
// then every remaining removed entry takes its most similar added entry if
// the similarity reaches threshold.
func RenameHints(a, b []string, threshold float64) []Hint {
	removed := onlyIn(a, b)
	added := onlyIn(b, a)

	var hints []Hint
	matchedRemoved := make(map[int]struct{})
	matchedAdded := make(map[int]struct{})

	for i, from := range removed {
		for j, to := range added {
			if _, ok := matchedAdded[j]; ok {
				continue
			}
			if textutil.NormalizeName(from) == textutil.NormalizeName(to) {
				hints = append(hints, Hint{From: from, To: to, Similarity: 1})
				matchedRemoved[i] = struct{}{}
				matchedAdded[j] = struct{}{}
				break
			}
		}
	}

	for i, from := range removed {
		if _, ok := matchedRemoved[i]; ok {
			continue
		}

		var mostSimilarity float64
		mostSimilar := -1
		for j, to := range added {
			if _, ok := matchedAdded[j]; ok {
				continue
			}
			similarity := matchr.JaroWinkler(from, to, false)
			if similarity > mostSimilarity {
				mostSimilarity = similarity
				mostSimilar = j
			}
		}

		if mostSimilar >= 0 && mostSimilarity >= threshold {
			hints = append(hints, Hint{From: from, To: added[mostSimilar], Similarity: mostSimilarity})
			matchedRemoved[i] = struct{}{}
			matchedAdded[mostSimilar] = struct{}{}
		}
	}

	return hints
}
