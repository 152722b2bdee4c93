package occupation

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

var ErrUnmappable = errors.New("unmappable occupation record")

// Raw is a decoded upstream item (JSON object, CSV row, table row).
type Raw map[string]any

type SourceFormat string

const (
	FormatSkillSelect SourceFormat = "skillselect"
	FormatDataGovAU   SourceFormat = "datagovau"
	FormatStatic      SourceFormat = "static"
	FormatCandidate   SourceFormat = "candidate"
)

// FieldMapping lists, per record field, the raw keys a format may carry.
// Keys are compared case-insensitively ignoring spaces, '_' and '-'.
type FieldMapping struct {
	Code                []string
	AnzscoCode          []string
	EnglishName         []string
	ChineseName         []string
	Category            []string
	SkillLevel          []string
	VisaSubclasses      []string
	AssessmentAuthority []string
	MLTSSL              []string
	STSOL               []string
	ROL                 []string
	Description         []string
	Tasks               []string
	Requirements        []string
	Invitation          []string
	LastRound           []string
	MinPoints           []string
	InvitationCount     []string
	AverageSalary       []string
	DataSources         []string
	LastUpdated         []string
	DataQuality         []string
	IsPopular           []string
	RelatedOccupations  []string
}

var mappings = map[SourceFormat]FieldMapping{
	FormatSkillSelect: {
		Code:                []string{"occupationCode", "anzscoCode", "code"},
		AnzscoCode:          []string{"anzscoCode", "occupationCode", "code"},
		EnglishName:         []string{"occupationName", "title", "englishName"},
		Category:            []string{"category"},
		SkillLevel:          []string{"skillLevel"},
		VisaSubclasses:      []string{"visaType", "visaSubclass", "visaSubclasses"},
		AssessmentAuthority: []string{"assessingAuthority", "assessmentAuthority"},
		Description:         []string{"description"},
		LastRound:           []string{"lastInvitationRound", "lastRound"},
		MinPoints:           []string{"minimumPoints", "minPoints"},
		InvitationCount:     []string{"invitationsIssued", "invitations"},
		AverageSalary:       []string{"salary", "averageSalary"},
	},
	FormatDataGovAU: {
		Code:                []string{"anzscoCode", "anzsco", "occupationCode", "code"},
		AnzscoCode:          []string{"anzscoCode", "anzsco", "occupationCode", "code"},
		EnglishName:         []string{"occupation", "occupationTitle", "occupationName", "title", "name"},
		Category:            []string{"category"},
		SkillLevel:          []string{"skillLevel"},
		VisaSubclasses:      []string{"visaSubclasses", "visas"},
		AssessmentAuthority: []string{"assessingAuthority", "assessmentAuthority"},
		MLTSSL:              []string{"mltssl"},
		STSOL:               []string{"stsol"},
		ROL:                 []string{"rol"},
		Description:         []string{"description"},
		MinPoints:           []string{"minimumPoints", "minPoints"},
		InvitationCount:     []string{"invitationsIssued", "invitations"},
		LastRound:           []string{"lastInvitationRound", "lastRound"},
		LastUpdated:         []string{"lastUpdated", "updated"},
	},
	FormatStatic: {
		Code:                []string{"code"},
		AnzscoCode:          []string{"anzscoCode", "code"},
		EnglishName:         []string{"englishName"},
		ChineseName:         []string{"chineseName"},
		Category:            []string{"category"},
		SkillLevel:          []string{"skillLevel"},
		VisaSubclasses:      []string{"visaSubclasses"},
		AssessmentAuthority: []string{"assessmentAuthority"},
		MLTSSL:              []string{"mltssl"},
		STSOL:               []string{"stsol"},
		ROL:                 []string{"rol"},
		Description:         []string{"description"},
		Tasks:               []string{"tasks"},
		Requirements:        []string{"requirements"},
		Invitation:          []string{"invitationData"},
		AverageSalary:       []string{"averageSalary"},
		IsPopular:           []string{"isPopular"},
		RelatedOccupations:  []string{"relatedOccupations"},
	},
	FormatCandidate: {
		Code:                []string{"code", "anzscoCode"},
		AnzscoCode:          []string{"anzscoCode", "code"},
		EnglishName:         []string{"englishName", "title", "name"},
		ChineseName:         []string{"chineseName"},
		Category:            []string{"category"},
		SkillLevel:          []string{"skillLevel"},
		VisaSubclasses:      []string{"visaSubclasses", "visas"},
		AssessmentAuthority: []string{"assessmentAuthority"},
		MLTSSL:              []string{"mltssl"},
		STSOL:               []string{"stsol"},
		ROL:                 []string{"rol"},
		Description:         []string{"description"},
		Tasks:               []string{"tasks"},
		Requirements:        []string{"requirements"},
		Invitation:          []string{"invitationData"},
		LastRound:           []string{"lastRound", "lastInvitationRound"},
		MinPoints:           []string{"minPoints", "minimumPoints"},
		InvitationCount:     []string{"invitations", "invitationsIssued"},
		AverageSalary:       []string{"averageSalary", "salary"},
		DataSources:         []string{"dataSources", "source"},
		LastUpdated:         []string{"lastUpdated", "updatedAt"},
		DataQuality:         []string{"dataQuality"},
		IsPopular:           []string{"isPopular"},
		RelatedOccupations:  []string{"relatedOccupations"},
	},
}

var defaultSources = map[SourceFormat]string{
	FormatSkillSelect: SourceImmigration,
	FormatDataGovAU:   SourceDataGovAU,
	FormatStatic:      SourceLocalBackup,
}

type Adapter struct {
	format        SourceFormat
	mapping       FieldMapping
	defaultSource string
	minPoints     int
}

func NewAdapter(format SourceFormat, tables Tables) (Adapter, error) {
	m, ok := mappings[format]
	if !ok {
		return Adapter{}, fmt.Errorf("unknown source format %q", format)
	}
	return Adapter{
		format:        format,
		mapping:       m,
		defaultSource: defaultSources[format],
		minPoints:     tables.DefaultMinPoints,
	}, nil
}

// MustAdapter is NewAdapter for the built-in formats.
func MustAdapter(format SourceFormat, tables Tables) Adapter {
	a, err := NewAdapter(format, tables)
	if err != nil {
		panic(err)
	}
	return a
}

func (a Adapter) Format() SourceFormat { return a.format }

// Map converts raw into a Record without inferring any defaults.
// It returns ErrUnmappable when no code or no English name can be found.
func (a Adapter) Map(raw Raw) (Record, error) {
	if len(raw) == 0 {
		return Record{}, ErrUnmappable
	}
	idx := indexRaw(raw)
	m := a.mapping

	r := Record{
		Code:                stringField(idx, m.Code),
		AnzscoCode:          stringField(idx, m.AnzscoCode),
		EnglishName:         stringField(idx, m.EnglishName),
		ChineseName:         stringField(idx, m.ChineseName),
		Category:            Category(stringField(idx, m.Category)),
		SkillLevel:          intField(idx, m.SkillLevel),
		VisaSubclasses:      listField(idx, m.VisaSubclasses),
		AssessmentAuthority: stringField(idx, m.AssessmentAuthority),
		MLTSSL:              boolField(idx, m.MLTSSL),
		STSOL:               boolField(idx, m.STSOL),
		ROL:                 boolField(idx, m.ROL),
		Description:         stringField(idx, m.Description),
		Tasks:               listField(idx, m.Tasks),
		Requirements:        listField(idx, m.Requirements),
		AverageSalary:       stringField(idx, m.AverageSalary),
		DataSources:         listField(idx, m.DataSources),
		LastUpdated:         timeField(idx, m.LastUpdated),
		DataQuality:         qualityField(idx, m.DataQuality),
		IsPopular:           boolField(idx, m.IsPopular),
		RelatedOccupations:  listField(idx, m.RelatedOccupations),
	}
	r.InvitationData = a.invitation(idx)

	if r.Code == "" {
		r.Code = r.AnzscoCode
	}
	if r.AnzscoCode == "" {
		r.AnzscoCode = r.Code
	}
	if r.AnzscoCode == "" || r.EnglishName == "" {
		return Record{}, ErrUnmappable
	}
	if len(r.DataSources) == 0 && a.defaultSource != "" {
		r.DataSources = []string{a.defaultSource}
	}
	return r, nil
}

func (a Adapter) invitation(idx map[string]any) *InvitationData {
	if nested, ok := lookup(idx, a.mapping.Invitation); ok {
		if obj, ok := nested.(map[string]any); ok {
			inner := indexRaw(obj)
			inv := &InvitationData{
				LastRound:       stringField(inner, []string{"lastRound"}),
				MinPoints:       intField(inner, []string{"minPoints"}),
				InvitationCount: intField(inner, []string{"invitationCount"}),
			}
			if _, ok := lookup(inner, []string{"minPoints"}); !ok {
				inv.MinPoints = a.minPoints
			}
			return inv
		}
	}

	_, hasRound := lookup(idx, a.mapping.LastRound)
	_, hasPoints := lookup(idx, a.mapping.MinPoints)
	_, hasCount := lookup(idx, a.mapping.InvitationCount)
	if !hasRound && !hasPoints && !hasCount {
		return nil
	}
	inv := &InvitationData{
		LastRound:       stringField(idx, a.mapping.LastRound),
		MinPoints:       intField(idx, a.mapping.MinPoints),
		InvitationCount: intField(idx, a.mapping.InvitationCount),
	}
	if !hasPoints {
		inv.MinPoints = a.minPoints
	}
	return inv
}

func normKey(k string) string {
	k = strings.ToLower(strings.TrimSpace(k))
	return strings.NewReplacer(" ", "", "_", "", "-", "").Replace(k)
}

func indexRaw(raw map[string]any) map[string]any {
	out := make(map[string]any, len(raw))
	for k, v := range raw {
		if v == nil {
			continue
		}
		out[normKey(k)] = v
	}
	return out
}

func lookup(idx map[string]any, keys []string) (any, bool) {
	for _, k := range keys {
		v, ok := idx[normKey(k)]
		if !ok {
			continue
		}
		if s, isStr := v.(string); isStr && strings.TrimSpace(s) == "" {
			continue
		}
		return v, true
	}
	return nil, false
}

func stringField(idx map[string]any, keys []string) string {
	v, ok := lookup(idx, keys)
	if !ok {
		return ""
	}
	return toString(v)
}

func toString(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		if t == math.Trunc(t) {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		return strconv.FormatBool(t)
	default:
		return strings.TrimSpace(fmt.Sprint(t))
	}
}

func intField(idx map[string]any, keys []string) int {
	v, ok := lookup(idx, keys)
	if !ok {
		return 0
	}
	switch t := v.(type) {
	case float64:
		return int(t)
	case int:
		return t
	case int64:
		return int(t)
	case string:
		n, err := strconv.Atoi(strings.ReplaceAll(strings.TrimSpace(t), ",", ""))
		if err != nil {
			return 0
		}
		return n
	default:
		return 0
	}
}

func boolField(idx map[string]any, keys []string) bool {
	v, ok := lookup(idx, keys)
	if !ok {
		return false
	}
	switch t := v.(type) {
	case bool:
		return t
	case float64:
		return t != 0
	case int:
		return t != 0
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "true", "yes", "y", "1":
			return true
		}
	}
	return false
}

func listField(idx map[string]any, keys []string) []string {
	v, ok := lookup(idx, keys)
	if !ok {
		return nil
	}
	var out []string
	switch t := v.(type) {
	case []string:
		for _, s := range t {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
	case []any:
		for _, it := range t {
			if s := toString(it); s != "" {
				out = append(out, s)
			}
		}
	case string:
		for _, s := range strings.Split(t, ",") {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
	default:
		if s := toString(t); s != "" {
			out = append(out, s)
		}
	}
	return out
}

var timeLayouts = []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"}

func timeField(idx map[string]any, keys []string) time.Time {
	v, ok := lookup(idx, keys)
	if !ok {
		return time.Time{}
	}
	switch t := v.(type) {
	case time.Time:
		return t
	case string:
		s := strings.TrimSpace(t)
		for _, layout := range timeLayouts {
			if ts, err := time.Parse(layout, s); err == nil {
				return ts
			}
		}
	case float64:
		return time.UnixMilli(int64(t))
	}
	return time.Time{}
}

func qualityField(idx map[string]any, keys []string) int {
	v, ok := lookup(idx, keys)
	if !ok {
		return 0
	}
	if obj, isObj := v.(map[string]any); isObj {
		return intField(indexRaw(obj), []string{"score"})
	}
	return intField(idx, keys)
}
