package search

import (
	"math"
	"sort"
	"strings"

	"anzsco-lookup/internal/domain/occupation"
)

const DefaultSuggestLimit = 5

type Suggestion struct {
	Code        string  `json:"code"`
	EnglishName string  `json:"englishName"`
	ChineseName string  `json:"chineseName,omitempty"`
	Similarity  float64 `json:"similarity"`
}

// Suggest returns the names closest to query, best first. Prefix matches rank
// above fuzzy ones.
func Suggest(records []occupation.Record, query string, limit int) []Suggestion {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return []Suggestion{}
	}
	if limit <= 0 {
		limit = DefaultSuggestLimit
	}

	seen := map[string]struct{}{}
	out := []Suggestion{}
	for _, r := range records {
		if _, ok := seen[r.Key()]; ok || r.EnglishName == "" {
			continue
		}
		s := nameSimilarity(r.EnglishName, q)
		if strings.HasPrefix(strings.ToLower(r.EnglishName), q) {
			s = 1
		}
		if s < FuzzyThreshold {
			continue
		}
		seen[r.Key()] = struct{}{}
		out = append(out, Suggestion{Code: r.Key(), EnglishName: r.EnglishName, ChineseName: r.ChineseName, Similarity: math.Round(s*1000) / 1000})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Similarity != out[j].Similarity {
			return out[i].Similarity > out[j].Similarity
		}
		return out[i].EnglishName < out[j].EnglishName
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
