package search

import (
	"sort"
	"strings"

	"anzsco-lookup/internal/domain/occupation"

	"github.com/antzucaro/matchr"
)

const (
	FuzzyThreshold     = 0.85
	maxFuzzyCandidates = 10
)

// FilterCandidates selects the records that mention query in any searchable
// field. When none do, names within FuzzyThreshold Jaro-Winkler similarity
// are returned instead.
func FilterCandidates(records []occupation.Record, query string) []occupation.Record {
	raw := strings.TrimSpace(query)
	q := strings.ToLower(raw)
	if q == "" {
		return nil
	}

	var out []occupation.Record
	for _, r := range records {
		if mentions(r, q, raw) {
			out = append(out, r)
		}
	}
	if len(out) > 0 {
		return out
	}
	return fuzzyCandidates(records, q)
}

func mentions(r occupation.Record, q, raw string) bool {
	if strings.Contains(strings.ToLower(r.AnzscoCode), q) || strings.Contains(strings.ToLower(r.Code), q) {
		return true
	}
	if strings.Contains(strings.ToLower(r.EnglishName), q) {
		return true
	}
	if r.ChineseName != "" && strings.Contains(r.ChineseName, raw) {
		return true
	}
	if strings.Contains(strings.ToLower(string(r.Category)), q) {
		return true
	}
	return strings.Contains(contentText(r), q)
}

type similar struct {
	record occupation.Record
	score  float64
}

func fuzzyCandidates(records []occupation.Record, q string) []occupation.Record {
	var hits []similar
	for _, r := range records {
		if s := nameSimilarity(r.EnglishName, q); s >= FuzzyThreshold {
			hits = append(hits, similar{record: r, score: s})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].score > hits[j].score })
	if len(hits) > maxFuzzyCandidates {
		hits = hits[:maxFuzzyCandidates]
	}
	out := make([]occupation.Record, 0, len(hits))
	for _, h := range hits {
		out = append(out, h.record)
	}
	return out
}

// nameSimilarity compares q with the whole name and with each word of it, so
// a misspelt single word still finds a multi-word title.
func nameSimilarity(name, q string) float64 {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return 0
	}
	best := matchr.JaroWinkler(name, q, false)
	if strings.Contains(q, " ") {
		return best
	}
	for _, w := range strings.Fields(name) {
		w = strings.Trim(w, "()")
		if s := matchr.JaroWinkler(w, q, false); s > best {
			best = s
		}
	}
	return best
}
