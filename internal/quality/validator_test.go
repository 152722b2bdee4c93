package quality

import (
	"math"
	"testing"
	"time"

	"anzsco-lookup/internal/domain/occupation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestValidator(opts ...Option) *Validator {
	opts = append([]Option{WithClock(func() time.Time { return fixedNow })}, opts...)
	return NewValidator(occupation.DefaultTables(), opts...)
}

func completeRecord() occupation.Record {
	return occupation.Record{
		Code:                "261313",
		AnzscoCode:          "261313",
		EnglishName:         "Software Engineer",
		Category:            occupation.CategoryICT,
		SkillLevel:          1,
		VisaSubclasses:      []string{"189", "190"},
		AssessmentAuthority: "ACS",
		MLTSSL:              true,
		DataSources:         []string{occupation.SourceImmigration},
		LastUpdated:         fixedNow.Add(-24 * time.Hour),
	}
}

func TestValidateItem_CompleteRecordIsValid(t *testing.T) {
	res := newTestValidator().ValidateItem(completeRecord())

	require.True(t, res.IsValid)
	assert.Empty(t, res.Errors)
	assert.Empty(t, res.Warnings)
	assert.Empty(t, res.Suggestions)
	assert.Equal(t, Metrics{Completeness: 100, Accuracy: 100, Consistency: 100, Freshness: 100, Reliability: 100}, res.Metrics)
	assert.Equal(t, 100, res.Score)
}

func TestValidateItem_FiveDigitCodeIsInvalid(t *testing.T) {
	res := newTestValidator().ValidateItem(occupation.Record{
		Code:        "12345",
		EnglishName: "X",
		Category:    occupation.CategoryICT,
		AnzscoCode:  "12345",
	})

	require.False(t, res.IsValid)
	require.True(t, res.HasError(IssueInvalidFormat))

	var fields []string
	for _, e := range res.Errors {
		if e.Type != IssueInvalidFormat {
			continue
		}
		for _, d := range e.Details {
			fields = append(fields, d.Field)
		}
	}
	assert.Contains(t, fields, "anzscoCode")
	assert.Contains(t, fields, "code")

	// completeness 100, accuracy 50, consistency 90, freshness 50, reliability 30
	assert.Equal(t, 50.0, res.Metrics.Accuracy)
	assert.Equal(t, 71, res.Score)
}

func TestValidateItem_CompletenessDropsWithMissingFields(t *testing.T) {
	v := newTestValidator()
	r := completeRecord()
	drop := []func(*occupation.Record){
		func(r *occupation.Record) { r.Code = "" },
		func(r *occupation.Record) { r.EnglishName = "  " },
		func(r *occupation.Record) { r.Category = "" },
		func(r *occupation.Record) { r.AnzscoCode = "" },
	}

	prev := v.ValidateItem(r).Metrics.Completeness
	require.Equal(t, 100.0, prev)
	for i, fn := range drop {
		fn(&r)
		res := v.ValidateItem(r)
		assert.LessOrEqual(t, res.Metrics.Completeness, prev)
		assert.Equal(t, float64(3-i)*25, res.Metrics.Completeness)
		assert.False(t, res.IsValid)
		assert.True(t, res.HasError(IssueMissingRequired))
		prev = res.Metrics.Completeness
	}
}

func TestValidateItem_ScoreIsWeightedSum(t *testing.T) {
	v := newTestValidator()
	records := []occupation.Record{
		completeRecord(),
		{Code: "233211", AnzscoCode: "233211", EnglishName: "Civil Engineer", Category: occupation.CategoryEngineering,
			LastUpdated: fixedNow.AddDate(0, 0, -40), DataSources: []string{occupation.SourceLocalBackup}},
		{EnglishName: "Somebody"},
		{Code: "abc", AnzscoCode: "abc", EnglishName: "!!", Category: "??", SkillLevel: 9, VisaSubclasses: []string{"1"},
			MLTSSL: true, STSOL: true, ROL: true, LastUpdated: fixedNow.AddDate(-2, 0, 0)},
	}
	for _, r := range records {
		res := v.ValidateItem(r)
		m := res.Metrics
		want := int(math.Round(0.30*m.Completeness + 0.25*m.Accuracy + 0.20*m.Consistency + 0.15*m.Freshness + 0.10*m.Reliability))
		assert.Equal(t, want, res.Score, "record %q", r.EnglishName)
		assert.GreaterOrEqual(t, res.Score, 0)
		assert.LessOrEqual(t, res.Score, 100)
	}

	stale := v.ValidateItem(records[1])
	assert.Equal(t, 80.0, stale.Metrics.Freshness)
	assert.Equal(t, 60.0, stale.Metrics.Reliability)
}

func TestValidateItem_FreshnessFloorsAtZero(t *testing.T) {
	r := completeRecord()
	r.LastUpdated = fixedNow.AddDate(-1, 0, 0)
	res := newTestValidator().ValidateItem(r)
	assert.Equal(t, 0.0, res.Metrics.Freshness)
	assert.Contains(t, suggestionTypes(res), SuggestUpdateData)
}

func TestValidateItem_InvalidVisaSubclasses(t *testing.T) {
	r := completeRecord()
	r.VisaSubclasses = []string{"189", "999"}
	res := newTestValidator().ValidateItem(r)

	require.True(t, res.HasError(IssueInvalidFormat))
	require.True(t, res.HasError(IssueInvalidVisa))
	for _, e := range res.Errors {
		if e.Type == IssueInvalidVisa {
			assert.Equal(t, []string{"999"}, e.Values)
		}
	}
	assert.InDelta(t, 83.33, res.Metrics.Accuracy, 0.01)
	assert.True(t, res.IsValid)
}

func TestValidateItem_RangeChecks(t *testing.T) {
	r := completeRecord()
	r.InvitationData = &occupation.InvitationData{MinPoints: 250, InvitationCount: 20000}
	res := newTestValidator().ValidateItem(r)

	require.True(t, res.HasError(IssueOutOfRange))
	for _, e := range res.Errors {
		if e.Type == IssueOutOfRange {
			require.Len(t, e.Details, 2)
			assert.Equal(t, "minPoints", e.Details[0].Field)
			assert.Equal(t, "0-200", e.Details[0].Expected)
			assert.Equal(t, "invitationCount", e.Details[1].Field)
		}
	}
}

func TestValidateItem_BusinessRuleWarnings(t *testing.T) {
	r := completeRecord()
	r.SkillLevel = 3
	r.AssessmentAuthority = "VETASSESS"
	r.STSOL = true
	res := newTestValidator().ValidateItem(r)

	assert.True(t, res.IsValid)
	assert.True(t, res.HasWarning(IssueMultipleLists))
	assert.True(t, res.HasWarning(IssueSkillMismatch))
	assert.True(t, res.HasWarning(IssueAuthorityMismatch))
	assert.Equal(t, 70.0, res.Metrics.Consistency)
	assert.Contains(t, suggestionTypes(res), SuggestResolveWarnings)
}

func TestValidateItem_NoListWarning(t *testing.T) {
	r := completeRecord()
	r.MLTSSL = false
	res := newTestValidator().ValidateItem(r)
	assert.True(t, res.HasWarning(IssueNoList))
	assert.Equal(t, 90.0, res.Metrics.Consistency)
}

func TestValidateItem_ExtraRules(t *testing.T) {
	rule := func(r occupation.Record) []Issue {
		if r.AverageSalary == "" {
			return []Issue{{Type: "MISSING_SALARY", Message: "no salary", Severity: SeverityLow}}
		}
		return nil
	}
	res := newTestValidator(WithRules(rule)).ValidateItem(completeRecord())
	assert.True(t, res.HasWarning("MISSING_SALARY"))
	assert.Equal(t, 90.0, res.Metrics.Consistency)
}

func TestValidateItem_PanicBecomesValidationError(t *testing.T) {
	boom := func(occupation.Record) []Issue { panic("boom") }
	res := newTestValidator(WithRules(boom)).ValidateItem(completeRecord())

	assert.False(t, res.IsValid)
	require.True(t, res.HasError(IssueValidationError))
}

func TestValidateItem_UnknownSourceReliability(t *testing.T) {
	r := completeRecord()
	r.DataSources = []string{"SOMETHING_ELSE", occupation.SourceDataGovAU}
	res := newTestValidator().ValidateItem(r)
	assert.Equal(t, 90.0, res.Metrics.Reliability)

	r.DataSources = nil
	res = newTestValidator().ValidateItem(r)
	assert.Equal(t, 30.0, res.Metrics.Reliability)
}

func suggestionTypes(res ValidationResult) []string {
	out := make([]string, 0, len(res.Suggestions))
	for _, s := range res.Suggestions {
		out = append(out, s.Type)
	}
	return out
}
