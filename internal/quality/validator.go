package quality

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"anzsco-lookup/internal/domain/occupation"

	"go.uber.org/zap"
)

type Severity string

const (
	SeverityHigh   Severity = "HIGH"
	SeverityMedium Severity = "MEDIUM"
	SeverityLow    Severity = "LOW"
)

// Issue types.
const (
	IssueMissingRequired   = "MISSING_REQUIRED_FIELDS"
	IssueInvalidFormat     = "INVALID_FORMAT"
	IssueOutOfRange        = "VALUE_OUT_OF_RANGE"
	IssueInvalidVisa       = "INVALID_VISA_SUBCLASSES"
	IssueValidationError   = "VALIDATION_ERROR"
	IssueNoList            = "NO_OCCUPATION_LIST"
	IssueMultipleLists     = "MULTIPLE_OCCUPATION_LISTS"
	IssueSkillMismatch     = "SKILL_LEVEL_MISMATCH"
	IssueAuthorityMismatch = "ASSESSMENT_AUTHORITY_MISMATCH"
	SuggestCompleteness    = "IMPROVE_COMPLETENESS"
	SuggestAccuracy        = "IMPROVE_ACCURACY"
	SuggestUpdateData      = "UPDATE_DATA"
	SuggestResolveWarnings = "RESOLVE_WARNINGS"
	RecommendOverall       = "OVERALL_QUALITY"
	RecommendDataFreshness = "DATA_FRESHNESS"
)

const (
	requiredFieldCount      = 4
	formatCheckCount        = 6
	freshWindowDays         = 30
	unknownFreshness        = 50.0
	consistencyPenalty      = 10.0
	completenessSuggestion  = 80.0
	accuracySuggestion      = 90.0
	freshnessSuggestion     = 70.0
	warningSuggestThreshold = 2
)

const (
	weightCompleteness = 0.30
	weightAccuracy     = 0.25
	weightConsistency  = 0.20
	weightFreshness    = 0.15
	weightReliability  = 0.10
)

var (
	codeFormat     = regexp.MustCompile(`^\d{6}$`)
	nameFormat     = regexp.MustCompile(`^[A-Za-z\s\(\)\-\/&,\.]{2,100}$`)
	categoryFormat = regexp.MustCompile(`^[A-Za-z\s]{2,50}$`)
	skillFormat    = regexp.MustCompile(`^[1-5]$`)
)

type FieldDetail struct {
	Field    string `json:"field"`
	Value    string `json:"value"`
	Expected string `json:"expected"`
}

type Issue struct {
	Type     string        `json:"type"`
	Message  string        `json:"message"`
	Severity Severity      `json:"severity"`
	Fields   []string      `json:"fields,omitempty"`
	Values   []string      `json:"invalidValues,omitempty"`
	Details  []FieldDetail `json:"details,omitempty"`
}

type Suggestion struct {
	Type     string   `json:"type"`
	Message  string   `json:"message"`
	Priority Severity `json:"priority"`
}

type Metrics struct {
	Completeness float64 `json:"completeness"`
	Accuracy     float64 `json:"accuracy"`
	Consistency  float64 `json:"consistency"`
	Freshness    float64 `json:"freshness"`
	Reliability  float64 `json:"reliability"`
}

type ValidationResult struct {
	IsValid     bool         `json:"isValid"`
	Score       int          `json:"score"`
	Errors      []Issue      `json:"errors"`
	Warnings    []Issue      `json:"warnings"`
	Suggestions []Suggestion `json:"suggestions"`
	Metrics     Metrics      `json:"metrics"`
}

func (r ValidationResult) HasError(issueType string) bool {
	for _, e := range r.Errors {
		if e.Type == issueType {
			return true
		}
	}
	return false
}

func (r ValidationResult) HasWarning(issueType string) bool {
	for _, w := range r.Warnings {
		if w.Type == issueType {
			return true
		}
	}
	return false
}

// Rule is an extra business check. Returned issues are recorded as warnings.
type Rule func(r occupation.Record) []Issue

type Option func(*Validator)

func WithRules(rules ...Rule) Option {
	return func(v *Validator) {
		v.rules = append(v.rules, rules...)
	}
}

func WithClock(now func() time.Time) Option {
	return func(v *Validator) {
		if now != nil {
			v.now = now
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(v *Validator) {
		if l != nil {
			v.logger = l
		}
	}
}

type Validator struct {
	tables occupation.Tables
	rules  []Rule
	now    func() time.Time
	logger *zap.Logger
}

func NewValidator(tables occupation.Tables, opts ...Option) *Validator {
	v := &Validator{
		tables: tables,
		now:    time.Now,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

func (v *Validator) Tables() occupation.Tables {
	if v == nil {
		return occupation.DefaultTables()
	}
	return v.tables
}

// ValidateItem scores a single record. It never panics; a failure inside a
// check is reported as a VALIDATION_ERROR issue.
func (v *Validator) ValidateItem(r occupation.Record) (res ValidationResult) {
	res = ValidationResult{
		IsValid:     true,
		Errors:      []Issue{},
		Warnings:    []Issue{},
		Suggestions: []Suggestion{},
	}
	if v == nil {
		res.IsValid = false
		res.Errors = append(res.Errors, Issue{Type: IssueValidationError, Message: "validator is not configured", Severity: SeverityHigh})
		return res
	}

	defer func() {
		if p := recover(); p != nil {
			v.logger.Warn("[Quality] validation panic", zap.String("code", r.Key()), zap.Any("panic", p))
			res.IsValid = false
			res.Errors = append(res.Errors, Issue{
				Type:     IssueValidationError,
				Message:  fmt.Sprintf("validation failed: %v", p),
				Severity: SeverityHigh,
			})
		}
	}()

	v.checkRequired(r, &res)
	v.checkFormats(r, &res)
	v.checkRanges(r, &res)
	v.checkBusinessRules(r, &res)
	res.Metrics.Freshness = v.freshness(r.LastUpdated)
	res.Metrics.Reliability = v.reliability(r.DataSources)
	res.Score = OverallScore(res.Metrics)
	res.Suggestions = suggestionsFor(res)
	return res
}

// OverallScore is the rounded weighted sum of the five metrics, clamped to [0,100].
func OverallScore(m Metrics) int {
	s := m.Completeness*weightCompleteness +
		m.Accuracy*weightAccuracy +
		m.Consistency*weightConsistency +
		m.Freshness*weightFreshness +
		m.Reliability*weightReliability
	return clampScore(int(math.Round(s)))
}

func clampScore(s int) int {
	if s < 0 {
		return 0
	}
	if s > 100 {
		return 100
	}
	return s
}

func (v *Validator) checkRequired(r occupation.Record, res *ValidationResult) {
	var missing []string
	for _, f := range []struct {
		name  string
		value string
	}{
		{"code", r.Code},
		{"englishName", r.EnglishName},
		{"category", string(r.Category)},
		{"anzscoCode", r.AnzscoCode},
	} {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}

	if len(missing) > 0 {
		res.IsValid = false
		res.Errors = append(res.Errors, Issue{
			Type:     IssueMissingRequired,
			Message:  "missing required fields: " + strings.Join(missing, ", "),
			Severity: SeverityHigh,
			Fields:   missing,
		})
	}
	res.Metrics.Completeness = math.Max(0, float64(requiredFieldCount-len(missing))/requiredFieldCount*100)
}

func (v *Validator) checkFormats(r occupation.Record, res *ValidationResult) {
	var details []FieldDetail
	check := func(field, value string, re *regexp.Regexp) {
		if value == "" || re.MatchString(value) {
			return
		}
		details = append(details, FieldDetail{Field: field, Value: value, Expected: re.String()})
	}

	check("anzscoCode", r.AnzscoCode, codeFormat)
	check("code", r.Code, codeFormat)
	check("englishName", r.EnglishName, nameFormat)
	check("category", string(r.Category), categoryFormat)
	if r.SkillLevel != 0 {
		check("skillLevel", strconv.Itoa(r.SkillLevel), skillFormat)
	}

	var badVisas []string
	for _, visa := range r.VisaSubclasses {
		if !v.tables.ValidVisa(visa) {
			badVisas = append(badVisas, visa)
		}
	}
	if len(badVisas) > 0 {
		details = append(details, FieldDetail{
			Field:    "visaSubclasses",
			Value:    strings.Join(badVisas, ","),
			Expected: strings.Join(v.tables.VisaSubclasses, "|"),
		})
	}

	if len(details) > 0 {
		res.Errors = append(res.Errors, Issue{
			Type:     IssueInvalidFormat,
			Message:  "invalid field format",
			Severity: SeverityMedium,
			Details:  details,
		})
		for _, d := range details {
			if d.Field == "anzscoCode" || d.Field == "code" {
				res.IsValid = false
			}
		}
	}
	if len(badVisas) > 0 {
		res.Errors = append(res.Errors, Issue{
			Type:     IssueInvalidVisa,
			Message:  "invalid visa subclasses: " + strings.Join(badVisas, ", "),
			Severity: SeverityMedium,
			Values:   badVisas,
		})
	}
	res.Metrics.Accuracy = math.Max(0, float64(formatCheckCount-len(details))/formatCheckCount*100)
}

func (v *Validator) checkRanges(r occupation.Record, res *ValidationResult) {
	var details []FieldDetail
	check := func(field string, value, lo, hi int) {
		if value < lo || value > hi {
			details = append(details, FieldDetail{
				Field:    field,
				Value:    strconv.Itoa(value),
				Expected: fmt.Sprintf("%d-%d", lo, hi),
			})
		}
	}

	if r.SkillLevel != 0 {
		check("skillLevel", r.SkillLevel, 1, 5)
	}
	if inv := r.InvitationData; inv != nil {
		check("minPoints", inv.MinPoints, 0, 200)
		check("invitationCount", inv.InvitationCount, 0, 10000)
	}

	if len(details) > 0 {
		res.Errors = append(res.Errors, Issue{
			Type:     IssueOutOfRange,
			Message:  "field value out of range",
			Severity: SeverityMedium,
			Details:  details,
		})
	}
}

func (v *Validator) checkBusinessRules(r occupation.Record, res *ValidationResult) {
	switch n := r.ListCount(); {
	case n == 0:
		res.Warnings = append(res.Warnings, Issue{
			Type:     IssueNoList,
			Message:  "occupation is not on any skilled occupation list",
			Severity: SeverityLow,
		})
	case n > 1:
		res.Warnings = append(res.Warnings, Issue{
			Type:     IssueMultipleLists,
			Message:  "occupation is on more than one list: " + strings.Join(r.Lists(), ", "),
			Severity: SeverityMedium,
		})
	}

	if r.SkillLevel != 0 && r.Category != "" {
		if expected, ok := v.tables.ExpectedSkill(r.Category); ok && abs(r.SkillLevel-expected) > 1 {
			res.Warnings = append(res.Warnings, Issue{
				Type:     IssueSkillMismatch,
				Message:  fmt.Sprintf("skill level %d does not match category %s, expected %d", r.SkillLevel, r.Category, expected),
				Severity: SeverityLow,
			})
		}
	}

	if r.AssessmentAuthority != "" && r.Category != "" {
		if expected, ok := v.tables.ExpectedAuthority(r.Category); ok && r.AssessmentAuthority != expected {
			res.Warnings = append(res.Warnings, Issue{
				Type:     IssueAuthorityMismatch,
				Message:  fmt.Sprintf("assessment authority %s does not match category %s, expected %s", r.AssessmentAuthority, r.Category, expected),
				Severity: SeverityLow,
			})
		}
	}

	for _, rule := range v.rules {
		if rule == nil {
			continue
		}
		res.Warnings = append(res.Warnings, rule(r)...)
	}

	res.Metrics.Consistency = math.Max(0, 100-consistencyPenalty*float64(len(res.Warnings)))
}

func (v *Validator) freshness(updated time.Time) float64 {
	if updated.IsZero() {
		return unknownFreshness
	}
	age := v.now().Sub(updated).Hours() / 24
	if age <= freshWindowDays {
		return 100
	}
	return math.Max(0, 100-(age-freshWindowDays)*2)
}

func (v *Validator) reliability(sources []string) float64 {
	if len(sources) == 0 {
		return float64(v.tables.UnknownReliability)
	}
	best := 0
	for i, s := range sources {
		if r := v.tables.Reliability(s); i == 0 || r > best {
			best = r
		}
	}
	return float64(best)
}

func suggestionsFor(res ValidationResult) []Suggestion {
	out := []Suggestion{}
	if res.Metrics.Completeness < completenessSuggestion {
		out = append(out, Suggestion{Type: SuggestCompleteness, Message: "fill in missing fields, especially description and requirements", Priority: SeverityHigh})
	}
	if res.Metrics.Accuracy < accuracySuggestion {
		out = append(out, Suggestion{Type: SuggestAccuracy, Message: "check field formats and value ranges", Priority: SeverityHigh})
	}
	if res.Metrics.Freshness < freshnessSuggestion {
		out = append(out, Suggestion{Type: SuggestUpdateData, Message: "data is stale, refresh it from an upstream source", Priority: SeverityMedium})
	}
	if len(res.Warnings) > warningSuggestThreshold {
		out = append(out, Suggestion{Type: SuggestResolveWarnings, Message: "resolve the consistency warnings", Priority: SeverityMedium})
	}
	return out
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
