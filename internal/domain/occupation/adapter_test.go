package occupation

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestAdapter_SkillSelectFieldNames(t *testing.T) {
	a := MustAdapter(FormatSkillSelect, DefaultTables())
	rec, err := a.Map(Raw{
		"occupationCode":      float64(261313),
		"occupationName":      "Software Engineer",
		"visaType":            "189, 190,491",
		"assessingAuthority":  "ACS",
		"minimumPoints":       "90",
		"invitationsIssued":   float64(1200),
		"lastInvitationRound": "2024-11-14",
	})
	require.NoError(t, err)
	require.Equal(t, "261313", rec.Code)
	require.Equal(t, "261313", rec.AnzscoCode)
	require.Equal(t, "Software Engineer", rec.EnglishName)
	require.Equal(t, []string{"189", "190", "491"}, rec.VisaSubclasses)
	require.Equal(t, "ACS", rec.AssessmentAuthority)
	require.Equal(t, &InvitationData{LastRound: "2024-11-14", MinPoints: 90, InvitationCount: 1200}, rec.InvitationData)
	require.Equal(t, []string{SourceImmigration}, rec.DataSources)
}

func TestAdapter_DataGovHeadersAreNormalised(t *testing.T) {
	a := MustAdapter(FormatDataGovAU, DefaultTables())
	rec, err := a.Map(Raw{
		"ANZSCO Code": "233211",
		"Occupation":  "Civil Engineer",
		"MLTSSL":      "Yes",
	})
	require.NoError(t, err)
	require.Equal(t, "233211", rec.AnzscoCode)
	require.Equal(t, "Civil Engineer", rec.EnglishName)
	require.True(t, rec.MLTSSL)
	require.Nil(t, rec.InvitationData)
	require.Equal(t, []string{SourceDataGovAU}, rec.DataSources)
}

func TestAdapter_Unmappable(t *testing.T) {
	a := MustAdapter(FormatCandidate, DefaultTables())
	cases := []Raw{
		nil,
		{"englishName": "Orphan"},
		{"code": "261313"},
		{"code": "  ", "englishName": "Blank code"},
	}
	for _, raw := range cases {
		_, err := a.Map(raw)
		require.True(t, errors.Is(err, ErrUnmappable), "raw=%v", raw)
	}
}

func TestAdapter_CandidateDefaultsInvitationPoints(t *testing.T) {
	a := MustAdapter(FormatCandidate, DefaultTables())
	rec, err := a.Map(Raw{"code": "254111", "title": "Midwife", "invitations": 15, "lastUpdated": "2024-05-01T10:00:00Z"})
	require.NoError(t, err)
	require.Equal(t, 65, rec.InvitationData.MinPoints)
	require.Equal(t, 15, rec.InvitationData.InvitationCount)
	require.Equal(t, time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC), rec.LastUpdated)
	require.Empty(t, rec.DataSources)
}

func TestAdapter_UnknownFormat(t *testing.T) {
	_, err := NewAdapter(SourceFormat("csv-v2"), DefaultTables())
	require.Error(t, err)
}

func TestEnrich_InfersFromCode(t *testing.T) {
	tables := DefaultTables()
	r := Enrich(Record{Code: "233211", AnzscoCode: "233211", EnglishName: "Civil Engineer"}, tables)
	require.Equal(t, CategoryEngineering, r.Category)
	require.Equal(t, 1, r.SkillLevel)
	require.Equal(t, "土木工程师", r.ChineseName)
	require.Equal(t, []string{"189", "190", "491"}, r.VisaSubclasses)
	require.Equal(t, "Engineers Australia", r.AssessmentAuthority)
	require.Equal(t, "AU$80,000 - AU$140,000", r.AverageSalary)

	other := Enrich(Record{Code: "351311", AnzscoCode: "351311", EnglishName: "Chef"}, tables)
	require.Equal(t, CategoryOther, other.Category)
	require.Equal(t, 2, other.SkillLevel)
	require.Equal(t, "Chef", other.ChineseName)
	require.Equal(t, "VETASSESS", other.AssessmentAuthority)
}

func TestLoadTables_OverlaysDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tables.json5")
	doc := `{
		// local corrections
		categoryByPrefix: { "21": "Arts" },
		translations: { "Forester": "林务员" },
		defaultMinPoints: 70,
	}`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	tables, err := LoadTables(path)
	require.NoError(t, err)
	require.Equal(t, CategoryArts, tables.CategoryFor("211111"))
	require.Equal(t, CategoryICT, tables.CategoryFor("261313"))
	require.Equal(t, "林务员", tables.Translate("Forester"))
	require.Equal(t, "软件工程师", tables.Translate("Software Engineer"))
	require.Equal(t, 70, tables.DefaultMinPoints)
	require.Equal(t, "VETASSESS", tables.DefaultAuthority)
}

func TestTables_CloneIsIndependent(t *testing.T) {
	base := DefaultTables()
	c := base.Clone()
	c.CategoryByPrefix["26"] = CategoryArts
	require.Equal(t, CategoryICT, base.CategoryFor("261313"))
}
