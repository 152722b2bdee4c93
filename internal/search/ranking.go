package search

import "sort"

// Deduplicate keeps one result per occupation key, the one with the highest
// score. The survivor takes the position of the first occurrence.
func Deduplicate(results []Result) []Result {
	pos := make(map[string]int, len(results))
	out := make([]Result, 0, len(results))
	for _, r := range results {
		k := r.Key()
		if i, ok := pos[k]; ok {
			if r.Score > out[i].Score {
				out[i] = r
			}
			continue
		}
		pos[k] = len(out)
		out = append(out, r)
	}
	return out
}

// Rank orders by score, then match type weight, then ANZSCO code.
func Rank(results []Result) {
	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if wa, wb := a.MatchType.Weight(), b.MatchType.Weight(); wa != wb {
			return wa > wb
		}
		return a.AnzscoCode < b.AnzscoCode
	})
}

func groupOf(m MatchType) int {
	switch m {
	case MatchExact, MatchCode:
		return 0
	case MatchName:
		return 1
	case MatchCategory:
		return 2
	case MatchContent:
		return 3
	default:
		return 4
	}
}

// Group reorders ranked results into match-type bands, keeping the ranked
// order inside each band.
func Group(results []Result) []Result {
	var bands [5][]Result
	for _, r := range results {
		g := groupOf(r.MatchType)
		bands[g] = append(bands[g], r)
	}
	out := make([]Result, 0, len(results))
	for _, b := range bands {
		out = append(out, b...)
	}
	return out
}
