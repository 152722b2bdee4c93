package occupation

import (
	"regexp"
	"strings"
	"time"
)

type Category string

const (
	CategoryICT         Category = "ICT"
	CategoryEngineering Category = "Engineering"
	CategoryHealthcare  Category = "Healthcare"
	CategoryManagement  Category = "Management"
	CategoryFinance     Category = "Finance"
	CategoryEducation   Category = "Education"
	CategorySocialWork  Category = "Social Work"
	CategoryAgriculture Category = "Agriculture"
	CategoryArts        Category = "Arts"
	CategoryOther       Category = "Other"
)

var Categories = []Category{
	CategoryICT,
	CategoryEngineering,
	CategoryHealthcare,
	CategoryManagement,
	CategoryFinance,
	CategoryEducation,
	CategorySocialWork,
	CategoryAgriculture,
	CategoryArts,
	CategoryOther,
}

func (c Category) Known() bool {
	for _, k := range Categories {
		if c == k {
			return true
		}
	}
	return false
}

// Source identifiers used in Record.DataSources.
const (
	SourceImmigration    = "AUSTRALIA_IMMIGRATION"
	SourceABS            = "AUSTRALIAN_BUREAU_STATISTICS"
	SourceDataGovAU      = "DATA_GOV_AU"
	SourceAuthorities    = "ASSESSMENT_AUTHORITIES"
	SourceThirdParty     = "THIRD_PARTY_SOURCES"
	SourceLocalBackup    = "LOCAL_BACKUP"
	SourceUnknown        = "UNKNOWN"
	SourceHomeAffairsLst = "HOME_AFFAIRS_LISTS"
)

var codeRe = regexp.MustCompile(`^\d{6}$`)

func ValidCode(code string) bool {
	return codeRe.MatchString(strings.TrimSpace(code))
}

type InvitationData struct {
	LastRound       string `json:"lastRound,omitempty"`
	MinPoints       int    `json:"minPoints"`
	InvitationCount int    `json:"invitationCount"`
}

type Record struct {
	Code                string          `json:"code"`
	AnzscoCode          string          `json:"anzscoCode"`
	EnglishName         string          `json:"englishName"`
	ChineseName         string          `json:"chineseName,omitempty"`
	Category            Category        `json:"category"`
	SkillLevel          int             `json:"skillLevel,omitempty"`
	VisaSubclasses      []string        `json:"visaSubclasses,omitempty"`
	AssessmentAuthority string          `json:"assessmentAuthority,omitempty"`
	MLTSSL              bool            `json:"mltssl"`
	STSOL               bool            `json:"stsol"`
	ROL                 bool            `json:"rol"`
	Description         string          `json:"description,omitempty"`
	Tasks               []string        `json:"tasks,omitempty"`
	Requirements        []string        `json:"requirements,omitempty"`
	InvitationData      *InvitationData `json:"invitationData,omitempty"`
	AverageSalary       string          `json:"averageSalary,omitempty"`
	DataSources         []string        `json:"dataSources,omitempty"`
	LastUpdated         time.Time       `json:"lastUpdated,omitzero"`
	DataQuality         int             `json:"dataQuality,omitempty"`
	IsPopular           bool            `json:"isPopular,omitempty"`
	RelatedOccupations  []string        `json:"relatedOccupations,omitempty"`
}

// Key is the identity used for merging and de-duplication.
func (r Record) Key() string {
	if k := strings.TrimSpace(r.AnzscoCode); k != "" {
		return k
	}
	return strings.TrimSpace(r.Code)
}

func (r Record) ListCount() int {
	n := 0
	for _, on := range []bool{r.MLTSSL, r.STSOL, r.ROL} {
		if on {
			n++
		}
	}
	return n
}

func (r Record) Lists() []string {
	out := make([]string, 0, 3)
	if r.MLTSSL {
		out = append(out, "MLTSSL")
	}
	if r.STSOL {
		out = append(out, "STSOL")
	}
	if r.ROL {
		out = append(out, "ROL")
	}
	return out
}

func (r Record) Clone() Record {
	out := r
	out.VisaSubclasses = cloneStrings(r.VisaSubclasses)
	out.Tasks = cloneStrings(r.Tasks)
	out.Requirements = cloneStrings(r.Requirements)
	out.DataSources = cloneStrings(r.DataSources)
	out.RelatedOccupations = cloneStrings(r.RelatedOccupations)
	if r.InvitationData != nil {
		inv := *r.InvitationData
		out.InvitationData = &inv
	}
	return out
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
