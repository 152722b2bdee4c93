package search

import (
	"math"
	"strings"
	"time"

	"anzsco-lookup/internal/domain/occupation"
)

type MatchType string

const (
	MatchExact    MatchType = "EXACT_MATCH"
	MatchCode     MatchType = "CODE_MATCH"
	MatchName     MatchType = "NAME_MATCH"
	MatchCategory MatchType = "CATEGORY_MATCH"
	MatchContent  MatchType = "CONTENT_MATCH"
	MatchFuzzy    MatchType = "FUZZY_MATCH"
)

var matchWeights = map[MatchType]int{
	MatchExact:    100,
	MatchCode:     95,
	MatchName:     90,
	MatchCategory: 70,
	MatchContent:  60,
	MatchFuzzy:    50,
}

// Weight is the tie-break precedence used when scores are equal.
func (m MatchType) Weight() int {
	return matchWeights[m]
}

type QualityLevel string

const (
	QualityExcellent QualityLevel = "excellent"
	QualityGood      QualityLevel = "good"
	QualityFair      QualityLevel = "fair"
	QualityPoor      QualityLevel = "poor"
)

func QualityLevelOf(score int) QualityLevel {
	switch {
	case score >= 90:
		return QualityExcellent
	case score >= 75:
		return QualityGood
	case score >= 60:
		return QualityFair
	default:
		return QualityPoor
	}
}

var qualityWeights = map[QualityLevel]float64{
	QualityExcellent: 1.0,
	QualityGood:      0.9,
	QualityFair:      0.8,
	QualityPoor:      0.6,
}

type SourceClass string

const (
	SourceOfficial     SourceClass = "official"
	SourceGovernment   SourceClass = "government"
	SourceCommercial   SourceClass = "commercial"
	SourceThirdParty   SourceClass = "third_party"
	SourceCached       SourceClass = "cached"
	SourceLocal        SourceClass = "local"
	SourceUnattributed SourceClass = "unattributed"
)

var sourceWeights = map[SourceClass]float64{
	SourceOfficial:     1.0,
	SourceGovernment:   0.95,
	SourceCommercial:   0.9,
	SourceThirdParty:   0.8,
	SourceCached:       0.7,
	SourceLocal:        0.6,
	SourceUnattributed: 1.0,
}

// ClassifySource buckets each provenance entry by substring and returns the
// best-weighted class, so the order of a merged source list does not matter.
func ClassifySource(sources []string) SourceClass {
	best := SourceUnattributed
	found := false
	for _, src := range sources {
		if strings.TrimSpace(src) == "" {
			continue
		}
		c := classifyOne(src)
		if !found || sourceWeights[c] > sourceWeights[best] {
			best, found = c, true
		}
	}
	return best
}

func classifyOne(src string) SourceClass {
	s := strings.ToUpper(src)
	switch {
	case strings.Contains(s, "SKILLSELECT"), strings.Contains(s, "IMMIGRATION"):
		return SourceOfficial
	case strings.Contains(s, "GOV"), strings.Contains(s, "ABS"), strings.Contains(s, "BUREAU"):
		return SourceGovernment
	case strings.Contains(s, "COMMERCIAL"):
		return SourceCommercial
	case strings.Contains(s, "THIRD_PARTY"), strings.Contains(s, "ASSESSMENT"):
		return SourceThirdParty
	case strings.Contains(s, "CACHED"):
		return SourceCached
	default:
		return SourceLocal
	}
}

func freshnessWeight(updated, now time.Time) float64 {
	if updated.IsZero() {
		return 0.8
	}
	age := now.Sub(updated)
	switch {
	case age <= 24*time.Hour:
		return 1.0
	case age <= 7*24*time.Hour:
		return 0.95
	case age <= 30*24*time.Hour:
		return 0.9
	default:
		return 0.8
	}
}

// Classify returns the match type and base score of r for query. The checks
// run in fixed precedence so a code hit always wins over a name hit.
func Classify(r occupation.Record, query string) (MatchType, float64) {
	raw := strings.TrimSpace(query)
	q := strings.ToLower(raw)
	if q == "" {
		return MatchFuzzy, 50
	}
	code := strings.ToLower(r.Code)
	anzsco := strings.ToLower(r.AnzscoCode)
	name := strings.ToLower(r.EnglishName)

	switch {
	case anzsco == q || code == q:
		return MatchExact, 100
	case (anzsco != "" && strings.Contains(anzsco, q)) || (code != "" && strings.Contains(code, q)):
		return MatchCode, 95
	case name == q:
		return MatchName, 90
	case strings.Contains(name, q):
		return MatchName, 85
	case r.ChineseName != "" && strings.Contains(r.ChineseName, raw):
		return MatchName, 80
	case strings.Contains(strings.ToLower(string(r.Category)), q):
		return MatchCategory, 70
	case strings.Contains(contentText(r), q):
		return MatchContent, 60
	default:
		return MatchFuzzy, 50
	}
}

func contentText(r occupation.Record) string {
	parts := make([]string, 0, 2+len(r.Tasks)+len(r.Requirements))
	parts = append(parts, r.Description)
	parts = append(parts, r.Tasks...)
	parts = append(parts, r.Requirements...)
	parts = append(parts, r.AssessmentAuthority)
	return strings.ToLower(strings.Join(parts, " "))
}

// Score applies the quality, source and freshness multipliers to the base
// match score and rounds the result.
func Score(r occupation.Record, query string, now time.Time) (int, MatchType) {
	mt, base := Classify(r, query)
	s := base *
		qualityWeights[QualityLevelOf(r.DataQuality)] *
		sourceWeights[ClassifySource(r.DataSources)] *
		freshnessWeight(r.LastUpdated, now)
	return int(math.Round(s)), mt
}

// AssessDataQuality rates how complete a candidate is: 50 plus 15 per
// required field and 5 per optional field present, capped at 100.
func AssessDataQuality(r occupation.Record) int {
	score := 50
	for _, s := range []string{r.EnglishName, r.AnzscoCode, string(r.Category)} {
		if strings.TrimSpace(s) != "" {
			score += 15
		}
	}
	if strings.TrimSpace(r.Description) != "" {
		score += 5
	}
	for _, l := range [][]string{r.Tasks, r.Requirements, r.VisaSubclasses} {
		if len(l) > 0 {
			score += 5
		}
	}
	return min(score, 100)
}
