package search

import (
	"testing"

	"anzsco-lookup/internal/domain/occupation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeQuery(t *testing.T) {
	cases := map[string]string{
		"":                            "",
		"   ":                         "",
		"  Accountant (General)!! ":   "accountant (general)",
		"Software\tEngineer\n":        "software engineer",
		"ICT  Security   Specialist?": "ict security specialist",
		"注册护士":                        "注册护士",
	}
	for in, want := range cases {
		if got := NormalizeQuery(in); got != want {
			t.Fatalf("NormalizeQuery(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestExpandQuery(t *testing.T) {
	got := ExpandQuery("programmer")
	assert.Equal(t, []string{"programmer", "developer programmer", "analyst programmer", "software engineer"}, got)

	got = ExpandQuery("nurse melbourne")
	assert.Equal(t, "nurse melbourne", got[0])
	assert.Contains(t, got, "registered nurse melbourne")

	got = ExpandQuery("softwaredev")
	assert.Contains(t, got, "software dev")
	assert.Contains(t, got, "software engineer")

	assert.Empty(t, ExpandQuery(""))
	assert.LessOrEqual(t, len(ExpandQuery("engineer")), maxQueryVariants)
}

func TestProcessQuery(t *testing.T) {
	ctx := ProcessQuery("  IT ")
	assert.Equal(t, "it", ctx.Normalized)
	assert.Equal(t, []string{"it", "ict"}, ctx.Variants)
	assert.Equal(t, "registered", FallbackFirstWord("registered nurse"))
	assert.Equal(t, "", FallbackFirstWord(" "))
}

func fixtureRecords() []occupation.Record {
	return []occupation.Record{
		{Code: "261313", AnzscoCode: "261313", EnglishName: "Software Engineer", ChineseName: "软件工程师", Category: occupation.CategoryICT, IsPopular: true},
		{Code: "254411", AnzscoCode: "254411", EnglishName: "Nurse Practitioner", Category: occupation.CategoryHealthcare},
		{Code: "254499", AnzscoCode: "254499", EnglishName: "Registered Nurse", ChineseName: "注册护士", Category: occupation.CategoryHealthcare, IsPopular: true},
		{Code: "233211", AnzscoCode: "233211", EnglishName: "Civil Engineer", Category: occupation.CategoryEngineering,
			Tasks: []string{"Design bridges and roads"}},
		{Code: "234113", AnzscoCode: "234113", EnglishName: "Forester", Category: occupation.CategoryAgriculture},
	}
}

func keys(records []occupation.Record) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.Key())
	}
	return out
}

func TestFilterCandidates_Substring(t *testing.T) {
	records := fixtureRecords()
	assert.Equal(t, []string{"254411", "254499"}, keys(FilterCandidates(records, "NURSE")))
	assert.Equal(t, []string{"254499"}, keys(FilterCandidates(records, "注册")))
	assert.Equal(t, []string{"233211"}, keys(FilterCandidates(records, "bridges")))
	assert.Equal(t, []string{"261313"}, keys(FilterCandidates(records, "2613")))
	assert.Equal(t, []string{"254411", "254499"}, keys(FilterCandidates(records, "healthcare")))
	assert.Nil(t, FilterCandidates(records, "  "))
}

func TestFilterCandidates_FuzzyFallback(t *testing.T) {
	records := fixtureRecords()
	got := FilterCandidates(records, "forrester")
	require.NotEmpty(t, got)
	assert.Equal(t, "234113", got[0].Key())

	assert.Empty(t, FilterCandidates(records, "qqqqqq"))
}

func TestSuggest(t *testing.T) {
	records := fixtureRecords()
	got := Suggest(records, "soft", 3)
	require.NotEmpty(t, got)
	assert.Equal(t, "Software Engineer", got[0].EnglishName)
	assert.Equal(t, 1.0, got[0].Similarity)

	got = Suggest(records, "enginer", 0)
	require.Len(t, got, 2)
	assert.Equal(t, []string{"Civil Engineer", "Software Engineer"}, []string{got[0].EnglishName, got[1].EnglishName})

	assert.Empty(t, Suggest(records, "", 5))
}

func TestBrowse(t *testing.T) {
	records := fixtureRecords()
	assert.Equal(t, []string{"254499", "261313"}, keys(Popular(records, 0)))
	assert.Equal(t, []string{"254499"}, keys(Popular(records, 1)))
	assert.Equal(t, []string{"254411", "254499"}, keys(ByCategory(records, "healthcare")))

	cats := Categories(append(records, occupation.Record{Code: "999999", Category: "Zoology"}))
	assert.Equal(t, []CategoryCount{
		{Category: occupation.CategoryICT, Count: 1},
		{Category: occupation.CategoryEngineering, Count: 1},
		{Category: occupation.CategoryHealthcare, Count: 2},
		{Category: occupation.CategoryAgriculture, Count: 1},
		{Category: "Zoology", Count: 1},
	}, cats)

	r, ok := FindByCode(records, "233211")
	assert.True(t, ok)
	assert.Equal(t, "Civil Engineer", r.EnglishName)
	_, ok = FindByCode(records, "000000")
	assert.False(t, ok)
}
