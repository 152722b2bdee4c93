package occupation

import "strings"

// Enrich fills the fields that can be derived from the code and category.
// Fields already set are left alone.
func Enrich(r Record, t Tables) Record {
	out := r.Clone()
	out.Code = strings.TrimSpace(out.Code)
	out.AnzscoCode = strings.TrimSpace(out.AnzscoCode)
	out.EnglishName = strings.TrimSpace(out.EnglishName)

	if out.Category == "" {
		out.Category = t.CategoryFor(out.AnzscoCode)
	}
	if out.SkillLevel == 0 {
		out.SkillLevel = t.SkillLevelFor(out.AnzscoCode)
	}
	if out.ChineseName == "" {
		out.ChineseName = t.Translate(out.EnglishName)
	}
	if len(out.VisaSubclasses) == 0 {
		out.VisaSubclasses = cloneStrings(t.DefaultVisaSubclasses)
	}
	if out.AssessmentAuthority == "" {
		out.AssessmentAuthority = t.AuthorityFor(out.Category)
	}
	if out.AverageSalary == "" {
		out.AverageSalary = t.SalaryFor(out.Category)
	}
	return out
}

// FillPlaceholders sets generic description, tasks and requirements for
// records whose source carries none.
func FillPlaceholders(r Record, t Tables) Record {
	out := r.Clone()
	if strings.TrimSpace(out.Description) == "" {
		out.Description = t.DescriptionFor(out.EnglishName)
	}
	if len(out.Tasks) == 0 {
		out.Tasks = cloneStrings(t.DefaultTasks)
	}
	if len(out.Requirements) == 0 {
		out.Requirements = cloneStrings(t.DefaultRequirements)
	}
	return out
}
