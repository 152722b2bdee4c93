package quality

import (
	"testing"

	"anzsco-lookup/internal/domain/occupation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ofType(anomalies []Anomaly, kind string) []Anomaly {
	var out []Anomaly
	for _, a := range anomalies {
		if a.Type == kind {
			out = append(out, a)
		}
	}
	return out
}

func withPoints(points ...int) []occupation.Record {
	out := []occupation.Record{{Code: "111111", AnzscoCode: "111111", EnglishName: "No invitation"}}
	for _, p := range points {
		out = append(out, occupation.Record{
			Code:           "222222",
			AnzscoCode:     "222222",
			EnglishName:    "Invited",
			InvitationData: &occupation.InvitationData{MinPoints: p},
		})
	}
	return out
}

func TestIQR_FewerThanFourValues(t *testing.T) {
	got := DetectAnomalies(withPoints(65, 70, 500), nil)
	assert.Empty(t, ofType(got, AnomalyInvitationPointsOutlier))
}

func TestIQR_ReportsDatasetIndex(t *testing.T) {
	records := withPoints(65, 65, 70, 70, 75, 200)
	got := ofType(DetectAnomalies(records, nil), AnomalyInvitationPointsOutlier)

	require.Len(t, got, 1)
	require.NotNil(t, got[0].Index)
	assert.Equal(t, 6, *got[0].Index)
	assert.Equal(t, 200.0, *got[0].Value)
	assert.Equal(t, &Bounds{Lower: 50, Upper: 90}, got[0].Bounds)
	assert.Equal(t, SeverityLow, got[0].Severity)
	assert.Empty(t, ofType(DetectAnomalies(records, nil), AnomalyInvitationCountOutlier))
}

func TestDetectAnomalies_Duplicates(t *testing.T) {
	records := []occupation.Record{
		{AnzscoCode: "261313", EnglishName: "Software Engineer"},
		{AnzscoCode: "233211", EnglishName: "Civil Engineer"},
		{AnzscoCode: "261313", EnglishName: "Software Engineer"},
		{AnzscoCode: "233211", EnglishName: "Civil Engineer"},
		{AnzscoCode: "261313", EnglishName: "Software Engineer"},
	}
	got := ofType(DetectAnomalies(records, nil), AnomalyDuplicate)

	require.Len(t, got, 2)
	assert.Equal(t, "261313_Software Engineer", got[0].Key)
	assert.Equal(t, []int{0, 2, 4}, got[0].Indices)
	assert.Equal(t, 3, got[0].Count)
	assert.Equal(t, []int{1, 3}, got[1].Indices)
}

func TestDetectAnomalies_ScoreDeviation(t *testing.T) {
	results := make([]ValidationResult, 10)
	for i := range results {
		results[i].Score = 50
	}
	results[9].Score = 100

	got := ofType(DetectAnomalies(make([]occupation.Record, 10), results), AnomalyScore)
	require.Len(t, got, 1)
	assert.Equal(t, 9, *got[0].Index)
	assert.Equal(t, SeverityMedium, got[0].Severity)
	assert.Equal(t, 3.0, *got[0].Deviation)
}

func TestDetectAnomalies_UniformScoresHaveNoDeviation(t *testing.T) {
	results := []ValidationResult{{Score: 80}, {Score: 80}, {Score: 80}}
	assert.Empty(t, ofType(DetectAnomalies(make([]occupation.Record, 3), results), AnomalyScore))
}

func TestDetectAnomalies_MissingFieldRatio(t *testing.T) {
	records := []occupation.Record{
		{ChineseName: "软件工程师", Description: "d", Requirements: []string{"r"}, AssessmentAuthority: "ACS", VisaSubclasses: []string{"189"}, SkillLevel: 1},
		{Description: "d", Requirements: []string{"r"}, AssessmentAuthority: "ACS", VisaSubclasses: []string{"189"}, SkillLevel: 1},
		{Requirements: []string{"r"}, AssessmentAuthority: "ACS", VisaSubclasses: []string{"189"}, SkillLevel: 1},
		{Requirements: []string{"r"}, AssessmentAuthority: "ACS", VisaSubclasses: []string{"189"}, SkillLevel: 1},
	}
	got := ofType(DetectAnomalies(records, nil), AnomalyMissingFields)

	require.Len(t, got, 2)
	assert.Equal(t, "chineseName", got[0].Field)
	assert.Equal(t, SeverityHigh, got[0].Severity)
	assert.Equal(t, 0.75, *got[0].MissingRatio)
	assert.Equal(t, "description", got[1].Field)
	assert.Equal(t, SeverityMedium, got[1].Severity)
	assert.Equal(t, 2, got[1].Count)
}

func TestCrossValidate(t *testing.T) {
	records := []occupation.Record{
		{AnzscoCode: "261313", EnglishName: "Software Engineer", Category: occupation.CategoryICT, AssessmentAuthority: "ACS"},
		{AnzscoCode: "261312", EnglishName: "Developer Programmer", Category: occupation.CategoryEngineering, AssessmentAuthority: "Engineers Australia"},
		{AnzscoCode: "12345", EnglishName: "Broken", Category: occupation.CategoryOther},
		{AnzscoCode: "261313", EnglishName: "Software Engineer", Category: occupation.CategoryICT, AssessmentAuthority: "VETASSESS"},
	}
	cv := CrossValidate(records)

	codes := cv.AnzscoCodeValidation
	assert.Equal(t, 4, codes.TotalCodes)
	assert.Equal(t, 3, codes.ValidCodes)
	assert.Equal(t, 2, codes.UniqueValidCodes)
	assert.Equal(t, 1, codes.InvalidCodes)
	assert.Equal(t, "75.00%", codes.ValidationRate)
	assert.Equal(t, []InvalidCode{{Code: "12345", EnglishName: "Broken"}}, codes.InvalidItems)

	cats := cv.CategoryConsistency
	assert.Equal(t, 2, cats.TotalGroups)
	assert.Equal(t, 1, cats.ConsistentGroups)
	require.Len(t, cats.Inconsistencies, 1)
	assert.Equal(t, "26", cats.Inconsistencies[0].AnzscoPrefix)
	assert.Equal(t, []occupation.Category{occupation.CategoryEngineering, occupation.CategoryICT}, cats.Inconsistencies[0].Categories)

	auth := cv.AssessmentAuthorityValidation
	assert.Equal(t, 2, auth.TotalCategories)
	assert.Equal(t, 1, auth.CategoriesWithMultipleAuthorities)
	assert.Equal(t, []CategoryAuthorities{{Category: occupation.CategoryICT, Authorities: []string{"ACS", "VETASSESS"}, Count: 2}}, auth.MultipleAuthorities)
}

func TestCrossValidate_RepeatedCodeCountsPerRecord(t *testing.T) {
	records := []occupation.Record{
		{AnzscoCode: "261313", EnglishName: "Software Engineer"},
		{AnzscoCode: "261313", EnglishName: "Software Engineer"},
	}
	codes := CrossValidate(records).AnzscoCodeValidation

	assert.Equal(t, 2, codes.TotalCodes)
	assert.Equal(t, 2, codes.ValidCodes)
	assert.Equal(t, 1, codes.UniqueValidCodes)
	assert.Equal(t, 0, codes.InvalidCodes)
	assert.Equal(t, "100.00%", codes.ValidationRate)
	assert.Empty(t, codes.InvalidItems)
}
