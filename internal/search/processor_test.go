package search

import (
	"testing"
	"time"

	"anzsco-lookup/internal/domain/occupation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestProcessor() *Processor {
	return NewProcessor(occupation.DefaultTables(), WithClock(func() time.Time { return now }))
}

func TestProcess_ForesterExactCode(t *testing.T) {
	resp := newTestProcessor().Process([]occupation.Raw{
		{"code": "234113", "englishName": "Forester", "category": "Agriculture", "anzscoCode": "234113"},
	}, "234113", DefaultOptions())

	require.Len(t, resp.Results, 1)
	r := resp.Results[0]
	assert.Equal(t, MatchExact, r.MatchType)
	assert.Equal(t, 100, r.Score)
	assert.Equal(t, 95, r.DataQuality)
	assert.Equal(t, occupation.CategoryAgriculture, r.Category)
	assert.Equal(t, "Exact Match", r.DisplayInfo.MatchTypeText)
	assert.Equal(t, "0m ago", r.DisplayInfo.FreshnessText)
	assert.False(t, resp.Metadata.HasMoreResults)
	assert.Equal(t, 1, resp.Metadata.TotalProcessed)
	assert.Equal(t, 1, resp.Metadata.TotalReturned)
	assert.Equal(t, "234113", resp.Metadata.SearchKeyword)
}

func TestProcess_CodeBeatsName(t *testing.T) {
	resp := newTestProcessor().Process([]occupation.Raw{
		{"code": "261313", "englishName": "261313", "category": "ICT"},
	}, " 261313 ", DefaultOptions())

	require.Len(t, resp.Results, 1)
	assert.Equal(t, MatchExact, resp.Results[0].MatchType)
}

func TestProcess_DeduplicateKeepsHighestScore(t *testing.T) {
	resp := newTestProcessor().Process([]occupation.Raw{
		{"code": "261313", "englishName": "Software Engineer", "category": "ICT",
			"source": occupation.SourceThirdParty, "lastUpdated": now.Format(time.RFC3339)},
		{"code": "261313", "englishName": "Software Engineer", "category": "ICT",
			"lastUpdated": now.Add(-72 * time.Hour).Format(time.RFC3339)},
	}, "261313", DefaultOptions())

	require.Len(t, resp.Results, 1)
	assert.Equal(t, 95, resp.Results[0].Score)
	assert.Empty(t, resp.Results[0].DataSources)
}

func TestProcess_DeduplicateDisabledKeepsBoth(t *testing.T) {
	opts := DefaultOptions()
	opts.Filtering = false
	resp := newTestProcessor().Process([]occupation.Raw{
		{"code": "261313", "englishName": "Software Engineer", "category": "ICT", "source": occupation.SourceThirdParty},
		{"code": "261313", "englishName": "Software Engineer", "category": "ICT"},
	}, "261313", opts)

	require.Len(t, resp.Results, 2)
	assert.Equal(t, 100, resp.Results[0].Score)
	assert.Equal(t, 80, resp.Results[1].Score)
}

func TestProcessRecords_ScoresNonIncreasingAndTieBreak(t *testing.T) {
	records := []occupation.Record{
		{Code: "023456", AnzscoCode: "023456", EnglishName: "123456", DataQuality: 95},
		{Code: "123456", AnzscoCode: "123456", EnglishName: "Exact code", DataQuality: 80},
		{Code: "261313", AnzscoCode: "261313", EnglishName: "Software Engineer", Description: "writes 123456 tests", DataQuality: 95},
		{Code: "233211", AnzscoCode: "233211", EnglishName: "Civil Engineer", DataQuality: 40},
	}
	opts := DefaultOptions()
	opts.Grouping = false
	resp := newTestProcessor().ProcessRecords(records, "123456", opts)

	require.Len(t, resp.Results, 4)
	for i := 1; i < len(resp.Results); i++ {
		assert.GreaterOrEqual(t, resp.Results[i-1].Score, resp.Results[i].Score)
	}
	assert.Equal(t, "123456", resp.Results[0].AnzscoCode)
	assert.Equal(t, MatchExact, resp.Results[0].MatchType)
	assert.Equal(t, 90, resp.Results[0].Score)
	assert.Equal(t, "023456", resp.Results[1].AnzscoCode)
	assert.Equal(t, MatchName, resp.Results[1].MatchType)
	assert.Equal(t, 90, resp.Results[1].Score)
	assert.Equal(t, MatchContent, resp.Results[2].MatchType)
	assert.Equal(t, MatchFuzzy, resp.Results[3].MatchType)
	assert.Equal(t, 30, resp.Results[3].Score)
}

func TestProcess_TruncationSetsHasMore(t *testing.T) {
	raw := []occupation.Raw{
		{"code": "261311", "englishName": "Analyst Programmer"},
		{"code": "261312", "englishName": "Developer Programmer"},
		{"code": "261313", "englishName": "Software Engineer"},
	}
	opts := DefaultOptions()
	opts.MaxResults = 2
	resp := newTestProcessor().Process(raw, "2613", opts)
	assert.Len(t, resp.Results, 2)
	assert.True(t, resp.Metadata.HasMoreResults)
	assert.Equal(t, 3, resp.Metadata.TotalProcessed)

	opts.MaxResults = 3
	resp = newTestProcessor().Process(raw, "2613", opts)
	assert.Len(t, resp.Results, 3)
	assert.False(t, resp.Metadata.HasMoreResults)
}

func TestProcess_DropsUnmappableAndHandlesEmpty(t *testing.T) {
	p := newTestProcessor()
	resp := p.Process([]occupation.Raw{{"englishName": "No code"}, {"code": "261313"}}, "x", DefaultOptions())
	assert.Empty(t, resp.Results)
	assert.Equal(t, 2, resp.Metadata.TotalProcessed)

	resp = p.Process(nil, "anything", DefaultOptions())
	assert.NotNil(t, resp.Results)
	assert.Empty(t, resp.Results)
	assert.False(t, resp.Metadata.HasMoreResults)
}

func TestProcess_ScoringDisabled(t *testing.T) {
	opts := DefaultOptions()
	opts.Scoring = false
	resp := newTestProcessor().Process([]occupation.Raw{
		{"code": "261313", "englishName": "Software Engineer"},
		{"code": "233211", "englishName": "Civil Engineer"},
	}, "engineer", opts)

	require.Len(t, resp.Results, 2)
	assert.Equal(t, "233211", resp.Results[0].AnzscoCode)
	assert.Equal(t, 0, resp.Results[0].Score)
	assert.Equal(t, "Match", resp.Results[0].DisplayInfo.MatchTypeText)
}

func TestGroup_BandsKeepRankedOrder(t *testing.T) {
	mk := func(code string, score int, mt MatchType) Result {
		return Result{Record: occupation.Record{AnzscoCode: code}, Score: score, MatchType: mt}
	}
	ranked := []Result{
		mk("1", 90, MatchName),
		mk("2", 80, MatchContent),
		mk("3", 60, MatchCode),
		mk("4", 55, MatchName),
		mk("5", 50, MatchFuzzy),
		mk("6", 40, MatchCategory),
	}
	var codes []string
	for _, r := range Group(ranked) {
		codes = append(codes, r.AnzscoCode)
	}
	assert.Equal(t, []string{"3", "1", "4", "6", "2", "5"}, codes)
}

func TestClassifySource(t *testing.T) {
	cases := []struct {
		in   string
		want SourceClass
	}{
		{"", SourceUnattributed},
		{occupation.SourceImmigration, SourceOfficial},
		{"SKILLSELECT_API", SourceOfficial},
		{occupation.SourceDataGovAU, SourceGovernment},
		{occupation.SourceABS, SourceGovernment},
		{"COMMERCIAL_FEED", SourceCommercial},
		{occupation.SourceAuthorities, SourceThirdParty},
		{occupation.SourceThirdParty, SourceThirdParty},
		{"CACHED", SourceCached},
		{occupation.SourceLocalBackup, SourceLocal},
		{occupation.SourceHomeAffairsLst, SourceLocal},
	}
	for _, tc := range cases {
		var sources []string
		if tc.in != "" {
			sources = []string{tc.in}
		}
		assert.Equal(t, tc.want, ClassifySource(sources), tc.in)
	}
}

func TestClassifySource_MergedRecordUsesBestSource(t *testing.T) {
	a := occupation.Record{Code: "261313", DataSources: []string{occupation.SourceImmigration}}
	b := occupation.Record{Code: "261313", DataSources: []string{occupation.SourceAuthorities}}
	merged := occupation.Merge(a, b)
	require.Equal(t, occupation.SourceAuthorities, merged.DataSources[0])

	assert.Equal(t, SourceOfficial, ClassifySource(merged.DataSources))
	assert.Equal(t, SourceOfficial, ClassifySource(occupation.Merge(b, a).DataSources))
	assert.Equal(t, SourceGovernment, ClassifySource([]string{occupation.SourceLocalBackup, occupation.SourceDataGovAU}))
	assert.Equal(t, SourceLocal, ClassifySource([]string{" ", occupation.SourceLocalBackup}))
	assert.Equal(t, SourceUnattributed, ClassifySource([]string{"", " "}))
}

func TestFreshnessText(t *testing.T) {
	assert.Equal(t, "Unknown", freshnessText(time.Time{}, now))
	assert.Equal(t, "3h ago", freshnessText(now.Add(-3*time.Hour), now))
	assert.Equal(t, "2d ago", freshnessText(now.Add(-50*time.Hour), now))
	assert.Equal(t, "2w ago", freshnessText(now.AddDate(0, 0, -15), now))
	assert.Equal(t, "3mo ago", freshnessText(now.AddDate(0, 0, -95), now))
	assert.Equal(t, "🔴", freshnessIcon(now.AddDate(0, 0, -95), now))
}
