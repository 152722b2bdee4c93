package occupation

import (
	"fmt"
	"os"
	"strings"

	"dario.cat/mergo"
	"github.com/titanous/json5"
)

// Tables holds the lookup data used to infer and check record fields.
// Values are treated as read-only once constructed; use Clone before mutating.
type Tables struct {
	CategoryByPrefix      map[string]Category `json:"categoryByPrefix"`
	AuthorityByCategory   map[Category]string `json:"authorityByCategory"`
	DefaultAuthority      string              `json:"defaultAuthority"`
	ExpectedSkillLevel    map[Category]int    `json:"expectedSkillLevel"`
	Translations          map[string]string   `json:"translations"`
	SalaryByCategory      map[Category]string `json:"salaryByCategory"`
	DefaultSalary         string              `json:"defaultSalary"`
	SourceReliability     map[string]int      `json:"sourceReliability"`
	UnknownReliability    int                 `json:"unknownReliability"`
	VisaSubclasses        []string            `json:"visaSubclasses"`
	DefaultVisaSubclasses []string            `json:"defaultVisaSubclasses"`
	DefaultMinPoints      int                 `json:"defaultMinPoints"`
	DescriptionTemplate   string              `json:"descriptionTemplate"`
	DefaultTasks          []string            `json:"defaultTasks"`
	DefaultRequirements   []string            `json:"defaultRequirements"`
}

func DefaultTables() Tables {
	return Tables{
		CategoryByPrefix: map[string]Category{
			"13": CategoryManagement,
			"21": CategoryFinance,
			"22": CategoryFinance,
			"23": CategoryEngineering,
			"24": CategoryEducation,
			"25": CategoryHealthcare,
			"26": CategoryICT,
			"27": CategorySocialWork,
		},
		AuthorityByCategory: map[Category]string{
			CategoryICT:         "ACS",
			CategoryEngineering: "Engineers Australia",
			CategoryHealthcare:  "ANMAC",
			CategoryManagement:  "VETASSESS",
			CategoryFinance:     "CPA Australia",
			CategoryEducation:   "AITSL",
			CategorySocialWork:  "AASW",
		},
		DefaultAuthority: "VETASSESS",
		ExpectedSkillLevel: map[Category]int{
			CategoryManagement:  1,
			CategoryICT:         1,
			CategoryEngineering: 1,
			CategoryHealthcare:  1,
			CategoryFinance:     1,
			CategoryEducation:   1,
			CategorySocialWork:  1,
		},
		Translations: map[string]string{
			"Software Engineer":                     "软件工程师",
			"Developer Programmer":                  "开发程序员",
			"Analyst Programmer":                    "分析程序员",
			"Computer Network and Systems Engineer": "计算机网络和系统工程师",
			"ICT Security Specialist":               "ICT安全专家",
			"Civil Engineer":                        "土木工程师",
			"Mechanical Engineer":                   "机械工程师",
			"Registered Nurse":                      "注册护士",
			"Accountant (General)":                  "会计师(一般)",
			"Secondary School Teacher":              "中学教师",
		},
		SalaryByCategory: map[Category]string{
			CategoryICT:         "AU$75,000 - AU$130,000",
			CategoryEngineering: "AU$80,000 - AU$140,000",
			CategoryHealthcare:  "AU$70,000 - AU$120,000",
			CategoryManagement:  "AU$90,000 - AU$150,000",
			CategoryFinance:     "AU$70,000 - AU$120,000",
			CategoryEducation:   "AU$60,000 - AU$100,000",
			CategorySocialWork:  "AU$60,000 - AU$90,000",
		},
		DefaultSalary: "AU$60,000 - AU$100,000",
		SourceReliability: map[string]int{
			SourceImmigration: 100,
			SourceABS:         95,
			SourceDataGovAU:   90,
			SourceAuthorities: 85,
			SourceThirdParty:  75,
			SourceLocalBackup: 60,
			SourceUnknown:     30,
		},
		UnknownReliability:    30,
		VisaSubclasses:        []string{"189", "190", "191", "491", "482", "485", "494", "858", "864"},
		DefaultVisaSubclasses: []string{"189", "190", "491"},
		DefaultMinPoints:      65,
		DescriptionTemplate:   "Core duties and requirements of a {name}.",
		DefaultTasks: []string{
			"Perform the core duties of the occupation",
			"Comply with industry standards and regulations",
			"Work with team members to deliver project goals",
			"Keep professional skills current",
		},
		DefaultRequirements: []string{
			"Bachelor degree or equivalent in a related field",
			"Relevant work experience",
			"Meet English language requirements",
			"Positive skills assessment",
		},
	}
}

// LoadTables overlays the defaults with the JSON5 document at path.
// An empty path returns the defaults.
func LoadTables(path string) (Tables, error) {
	base := DefaultTables()
	path = strings.TrimSpace(path)
	if path == "" {
		return base, nil
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return Tables{}, fmt.Errorf("read tables file: %w", err)
	}
	var override Tables
	if err := json5.Unmarshal(b, &override); err != nil {
		return Tables{}, fmt.Errorf("decode tables file %s: %w", path, err)
	}
	if err := mergo.Merge(&base, override, mergo.WithOverride); err != nil {
		return Tables{}, fmt.Errorf("merge tables: %w", err)
	}
	return base, nil
}

func (t Tables) Clone() Tables {
	out := t
	out.CategoryByPrefix = make(map[string]Category, len(t.CategoryByPrefix))
	for k, v := range t.CategoryByPrefix {
		out.CategoryByPrefix[k] = v
	}
	out.AuthorityByCategory = make(map[Category]string, len(t.AuthorityByCategory))
	for k, v := range t.AuthorityByCategory {
		out.AuthorityByCategory[k] = v
	}
	out.ExpectedSkillLevel = make(map[Category]int, len(t.ExpectedSkillLevel))
	for k, v := range t.ExpectedSkillLevel {
		out.ExpectedSkillLevel[k] = v
	}
	out.Translations = make(map[string]string, len(t.Translations))
	for k, v := range t.Translations {
		out.Translations[k] = v
	}
	out.SalaryByCategory = make(map[Category]string, len(t.SalaryByCategory))
	for k, v := range t.SalaryByCategory {
		out.SalaryByCategory[k] = v
	}
	out.SourceReliability = make(map[string]int, len(t.SourceReliability))
	for k, v := range t.SourceReliability {
		out.SourceReliability[k] = v
	}
	out.VisaSubclasses = cloneStrings(t.VisaSubclasses)
	out.DefaultVisaSubclasses = cloneStrings(t.DefaultVisaSubclasses)
	out.DefaultTasks = cloneStrings(t.DefaultTasks)
	out.DefaultRequirements = cloneStrings(t.DefaultRequirements)
	return out
}

func (t Tables) CategoryFor(code string) Category {
	code = strings.TrimSpace(code)
	if len(code) < 2 {
		return CategoryOther
	}
	if c, ok := t.CategoryByPrefix[code[:2]]; ok {
		return c
	}
	return CategoryOther
}

func (t Tables) SkillLevelFor(code string) int {
	code = strings.TrimSpace(code)
	if code == "" {
		return 1
	}
	switch code[0] {
	case '1', '2':
		return 1
	case '3':
		return 2
	case '4':
		return 3
	case '5':
		return 4
	default:
		return 1
	}
}

func (t Tables) AuthorityFor(c Category) string {
	if a, ok := t.AuthorityByCategory[c]; ok {
		return a
	}
	return t.DefaultAuthority
}

func (t Tables) ExpectedAuthority(c Category) (string, bool) {
	a, ok := t.AuthorityByCategory[c]
	return a, ok
}

func (t Tables) ExpectedSkill(c Category) (int, bool) {
	v, ok := t.ExpectedSkillLevel[c]
	return v, ok
}

func (t Tables) Translate(englishName string) string {
	if v, ok := t.Translations[strings.TrimSpace(englishName)]; ok {
		return v
	}
	return englishName
}

func (t Tables) SalaryFor(c Category) string {
	if v, ok := t.SalaryByCategory[c]; ok {
		return v
	}
	return t.DefaultSalary
}

func (t Tables) Reliability(source string) int {
	if v, ok := t.SourceReliability[strings.TrimSpace(source)]; ok {
		return v
	}
	return t.UnknownReliability
}

func (t Tables) ValidVisa(v string) bool {
	v = strings.TrimSpace(v)
	for _, s := range t.VisaSubclasses {
		if s == v {
			return true
		}
	}
	return false
}

func (t Tables) DescriptionFor(englishName string) string {
	if t.DescriptionTemplate == "" {
		return ""
	}
	return strings.ReplaceAll(t.DescriptionTemplate, "{name}", strings.TrimSpace(englishName))
}
