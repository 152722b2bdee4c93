package quality

import (
	"fmt"
	"sort"

	"anzsco-lookup/internal/domain/occupation"
)

const (
	maxInvalidItems    = 10
	maxInconsistencies = 5
)

type InvalidCode struct {
	Code        string `json:"code"`
	EnglishName string `json:"englishName"`
}

// CodeValidation counts records, not distinct codes: ValidCodes+InvalidCodes
// always equals TotalCodes.
type CodeValidation struct {
	TotalCodes       int           `json:"totalCodes"`
	ValidCodes       int           `json:"validCodes"`
	UniqueValidCodes int           `json:"uniqueValidCodes"`
	InvalidCodes     int           `json:"invalidCodes"`
	ValidationRate   string        `json:"validationRate"`
	InvalidItems     []InvalidCode `json:"invalidItems"`
}

type PrefixInconsistency struct {
	AnzscoPrefix string                `json:"anzscoPrefix"`
	Categories   []occupation.Category `json:"categories"`
	Count        int                   `json:"count"`
}

type CategoryConsistency struct {
	TotalGroups        int                   `json:"totalGroups"`
	ConsistentGroups   int                   `json:"consistentGroups"`
	InconsistentGroups int                   `json:"inconsistentGroups"`
	Inconsistencies    []PrefixInconsistency `json:"inconsistencies"`
}

type CategoryAuthorities struct {
	Category    occupation.Category `json:"category"`
	Authorities []string            `json:"authorities"`
	Count       int                 `json:"count"`
}

type AuthorityValidation struct {
	TotalCategories                   int                   `json:"totalCategories"`
	CategoriesWithMultipleAuthorities int                   `json:"categoriesWithMultipleAuthorities"`
	MultipleAuthorities               []CategoryAuthorities `json:"multipleAuthorities"`
}

type CrossValidation struct {
	AnzscoCodeValidation          CodeValidation      `json:"anzscoCodeValidation"`
	CategoryConsistency           CategoryConsistency `json:"categoryConsistency"`
	AssessmentAuthorityValidation AuthorityValidation `json:"assessmentAuthorityValidation"`
}

// CrossValidate checks the dataset for internal agreement between records.
// Group listings are ordered by prefix or category.
func CrossValidate(records []occupation.Record) CrossValidation {
	return CrossValidation{
		AnzscoCodeValidation:          validateCodes(records),
		CategoryConsistency:           validateCategoryConsistency(records),
		AssessmentAuthorityValidation: validateAuthorities(records),
	}
}

func validateCodes(records []occupation.Record) CodeValidation {
	valid := 0
	unique := map[string]struct{}{}
	invalid := []InvalidCode{}
	for _, r := range records {
		if r.AnzscoCode != "" && codeFormat.MatchString(r.AnzscoCode) {
			valid++
			unique[r.AnzscoCode] = struct{}{}
			continue
		}
		invalid = append(invalid, InvalidCode{Code: r.AnzscoCode, EnglishName: r.EnglishName})
	}

	out := CodeValidation{
		TotalCodes:       len(records),
		ValidCodes:       valid,
		UniqueValidCodes: len(unique),
		InvalidCodes:     len(invalid),
		ValidationRate:   "0.00%",
		InvalidItems:     invalid,
	}
	if len(records) > 0 {
		out.ValidationRate = fmt.Sprintf("%.2f%%", float64(valid)/float64(len(records))*100)
	}
	if len(out.InvalidItems) > maxInvalidItems {
		out.InvalidItems = out.InvalidItems[:maxInvalidItems]
	}
	return out
}

func validateCategoryConsistency(records []occupation.Record) CategoryConsistency {
	groups := map[string]map[occupation.Category]struct{}{}
	for _, r := range records {
		if len(r.AnzscoCode) < 2 || r.Category == "" {
			continue
		}
		prefix := r.AnzscoCode[:2]
		if groups[prefix] == nil {
			groups[prefix] = map[occupation.Category]struct{}{}
		}
		groups[prefix][r.Category] = struct{}{}
	}

	prefixes := make([]string, 0, len(groups))
	for p := range groups {
		prefixes = append(prefixes, p)
	}
	sort.Strings(prefixes)

	bad := []PrefixInconsistency{}
	for _, p := range prefixes {
		if len(groups[p]) < 2 {
			continue
		}
		cats := make([]occupation.Category, 0, len(groups[p]))
		for c := range groups[p] {
			cats = append(cats, c)
		}
		sort.Slice(cats, func(i, j int) bool { return cats[i] < cats[j] })
		bad = append(bad, PrefixInconsistency{AnzscoPrefix: p, Categories: cats, Count: len(cats)})
	}

	out := CategoryConsistency{
		TotalGroups:        len(groups),
		ConsistentGroups:   len(groups) - len(bad),
		InconsistentGroups: len(bad),
		Inconsistencies:    bad,
	}
	if len(out.Inconsistencies) > maxInconsistencies {
		out.Inconsistencies = out.Inconsistencies[:maxInconsistencies]
	}
	return out
}

func validateAuthorities(records []occupation.Record) AuthorityValidation {
	byCategory := map[occupation.Category]map[string]struct{}{}
	for _, r := range records {
		if r.Category == "" || r.AssessmentAuthority == "" {
			continue
		}
		if byCategory[r.Category] == nil {
			byCategory[r.Category] = map[string]struct{}{}
		}
		byCategory[r.Category][r.AssessmentAuthority] = struct{}{}
	}

	cats := make([]occupation.Category, 0, len(byCategory))
	for c := range byCategory {
		cats = append(cats, c)
	}
	sort.Slice(cats, func(i, j int) bool { return cats[i] < cats[j] })

	multi := []CategoryAuthorities{}
	for _, c := range cats {
		if len(byCategory[c]) < 2 {
			continue
		}
		auth := make([]string, 0, len(byCategory[c]))
		for a := range byCategory[c] {
			auth = append(auth, a)
		}
		sort.Strings(auth)
		multi = append(multi, CategoryAuthorities{Category: c, Authorities: auth, Count: len(auth)})
	}

	return AuthorityValidation{
		TotalCategories:                   len(byCategory),
		CategoriesWithMultipleAuthorities: len(multi),
		MultipleAuthorities:               multi,
	}
}
