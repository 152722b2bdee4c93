package occupation

import (
	"sort"
	"strings"
)

// Merge combines two records describing the same occupation. Every field
// resolution is symmetric, so Merge(a, b) and Merge(b, a) agree.
func Merge(a, b Record) Record {
	out := Record{
		Code:                pickLonger(a.Code, b.Code),
		AnzscoCode:          pickLonger(a.AnzscoCode, b.AnzscoCode),
		EnglishName:         pickLonger(a.EnglishName, b.EnglishName),
		ChineseName:         pickLonger(a.ChineseName, b.ChineseName),
		Category:            Category(pickLonger(string(a.Category), string(b.Category))),
		SkillLevel:          pickSkill(a.SkillLevel, b.SkillLevel),
		VisaSubclasses:      unionSorted(a.VisaSubclasses, b.VisaSubclasses),
		AssessmentAuthority: pickLonger(a.AssessmentAuthority, b.AssessmentAuthority),
		MLTSSL:              a.MLTSSL || b.MLTSSL,
		STSOL:               a.STSOL || b.STSOL,
		ROL:                 a.ROL || b.ROL,
		Description:         pickLonger(a.Description, b.Description),
		Tasks:               unionOrdered(a.Tasks, b.Tasks),
		Requirements:        unionOrdered(a.Requirements, b.Requirements),
		InvitationData:      pickInvitation(a.InvitationData, b.InvitationData),
		AverageSalary:       pickLonger(a.AverageSalary, b.AverageSalary),
		DataSources:         unionSorted(a.DataSources, b.DataSources),
		LastUpdated:         a.LastUpdated,
		DataQuality:         max(a.DataQuality, b.DataQuality),
		IsPopular:           a.IsPopular || b.IsPopular,
		RelatedOccupations:  unionSorted(a.RelatedOccupations, b.RelatedOccupations),
	}
	if b.LastUpdated.After(a.LastUpdated) {
		out.LastUpdated = b.LastUpdated
	}
	return out
}

// MergeAll folds records sharing a Key. Output keeps first-seen key order.
func MergeAll(records []Record) []Record {
	byKey := make(map[string]int, len(records))
	out := make([]Record, 0, len(records))
	for _, r := range records {
		k := r.Key()
		if k == "" {
			continue
		}
		if i, ok := byKey[k]; ok {
			out[i] = Merge(out[i], r)
			continue
		}
		byKey[k] = len(out)
		out = append(out, r.Clone())
	}
	return out
}

func pickLonger(a, b string) string {
	a = strings.TrimSpace(a)
	b = strings.TrimSpace(b)
	switch {
	case len(a) > len(b):
		return a
	case len(b) > len(a):
		return b
	case a >= b:
		return a
	default:
		return b
	}
}

func pickSkill(a, b int) int {
	switch {
	case a == 0:
		return b
	case b == 0:
		return a
	default:
		return min(a, b)
	}
}

func pickInvitation(a, b *InvitationData) *InvitationData {
	if a == nil && b == nil {
		return nil
	}
	if a == nil {
		inv := *b
		return &inv
	}
	if b == nil {
		inv := *a
		return &inv
	}
	inv := *a
	if invitationLess(*a, *b) {
		inv = *b
	}
	return &inv
}

func invitationLess(a, b InvitationData) bool {
	if a.InvitationCount != b.InvitationCount {
		return a.InvitationCount < b.InvitationCount
	}
	if a.MinPoints != b.MinPoints {
		return a.MinPoints < b.MinPoints
	}
	return a.LastRound < b.LastRound
}

func unionSorted(a, b []string) []string {
	seen := make(map[string]struct{}, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, s := range append(append([]string{}, a...), b...) {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	if len(out) == 0 {
		return nil
	}
	sort.Strings(out)
	return out
}

// unionOrdered keeps the order of the richer list and appends what the
// other list adds.
func unionOrdered(a, b []string) []string {
	first, second := a, b
	if listLess(a, b) {
		first, second = b, a
	}
	seen := make(map[string]struct{}, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, list := range [][]string{first, second} {
		for _, s := range list {
			s = strings.TrimSpace(s)
			if s == "" {
				continue
			}
			if _, ok := seen[s]; ok {
				continue
			}
			seen[s] = struct{}{}
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func listLess(a, b []string) bool {
	if len(a) != len(b) {
		return len(a) < len(b)
	}
	return strings.Join(a, "\x00") < strings.Join(b, "\x00")
}
