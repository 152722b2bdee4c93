package search

import (
	"sort"
	"strings"

	"anzsco-lookup/internal/domain/occupation"
)

type CategoryCount struct {
	Category occupation.Category `json:"category"`
	Count    int                 `json:"count"`
}

// Popular returns records flagged popular, ordered by code.
func Popular(records []occupation.Record, limit int) []occupation.Record {
	out := []occupation.Record{}
	for _, r := range records {
		if r.IsPopular {
			out = append(out, r)
		}
	}
	sortByCode(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// ByCategory matches category names case-insensitively.
func ByCategory(records []occupation.Record, category string) []occupation.Record {
	category = strings.TrimSpace(category)
	out := []occupation.Record{}
	for _, r := range records {
		if strings.EqualFold(string(r.Category), category) {
			out = append(out, r)
		}
	}
	sortByCode(out)
	return out
}

// Categories counts records per category in the fixed category order. Unknown
// categories follow, sorted by name.
func Categories(records []occupation.Record) []CategoryCount {
	counts := map[occupation.Category]int{}
	for _, r := range records {
		if r.Category != "" {
			counts[r.Category]++
		}
	}
	out := []CategoryCount{}
	for _, c := range occupation.Categories {
		if n, ok := counts[c]; ok {
			out = append(out, CategoryCount{Category: c, Count: n})
			delete(counts, c)
		}
	}
	extra := make([]CategoryCount, 0, len(counts))
	for c, n := range counts {
		extra = append(extra, CategoryCount{Category: c, Count: n})
	}
	sort.Slice(extra, func(i, j int) bool { return extra[i].Category < extra[j].Category })
	return append(out, extra...)
}

// FindByCode looks a record up by ANZSCO code or code.
func FindByCode(records []occupation.Record, code string) (occupation.Record, bool) {
	code = strings.TrimSpace(code)
	for _, r := range records {
		if r.AnzscoCode == code || r.Code == code {
			return r, true
		}
	}
	return occupation.Record{}, false
}

func sortByCode(records []occupation.Record) {
	sort.SliceStable(records, func(i, j int) bool { return records[i].Key() < records[j].Key() })
}
