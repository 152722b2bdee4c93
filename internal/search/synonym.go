package search

import "strings"

// Synonyms maps common search phrases to occupation titles used in ANZSCO.
var Synonyms = map[string][]string{
	"programmer":       {"developer programmer", "analyst programmer", "software engineer"},
	"developer":        {"developer programmer", "software engineer"},
	"software dev":     {"software engineer", "developer programmer"},
	"it":               {"ict"},
	"nurse":            {"registered nurse"},
	"rn":               {"registered nurse"},
	"accountant":       {"accountant (general)", "management accountant"},
	"cpa":              {"accountant (general)"},
	"teacher":          {"secondary school teacher", "early childhood teacher"},
	"engineer":         {"civil engineer", "mechanical engineer", "software engineer"},
	"civil":            {"civil engineer"},
	"mechanical":       {"mechanical engineer"},
	"network":          {"computer network and systems engineer", "network administrator"},
	"sysadmin":         {"systems administrator", "computer network and systems engineer"},
	"security":         {"ict security specialist"},
	"cyber security":   {"ict security specialist"},
	"doctor":           {"general practitioner", "medical practitioners"},
	"gp":               {"general practitioner"},
	"social worker":    {"social worker"},
	"chef":             {"chef", "cook"},
	"forestry":         {"forester"},
	"data scientist":   {"data scientist", "data analyst"},
	"business analyst": {"ict business analyst"},
}

func GetSynonyms(query string) []string {
	query = strings.TrimSpace(strings.ToLower(query))
	if query == "" {
		return []string{}
	}
	if v, ok := Synonyms[query]; ok {
		out := make([]string, 0, len(v))
		out = append(out, v...)
		return out
	}
	return []string{}
}
