package cmd

import (
	"bytes"
	"strings"
	"testing"

	"anzsco-lookup/internal/domain/occupation"
	"anzsco-lookup/internal/quality"
	"anzsco-lookup/internal/search"
	"anzsco-lookup/internal/source"
	"anzsco-lookup/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeRecords(t *testing.T) {
	recs, err := decodeRecords([]byte(` [{"code":"261313","englishName":"Software Engineer"}]`))
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "261313", recs[0].Code)

	recs, err = decodeRecords([]byte(`{"items":[{"code":"1"},{"code":"2"}]}`))
	require.NoError(t, err)
	assert.Len(t, recs, 2)

	_, err = decodeRecords([]byte(`nope`))
	assert.Error(t, err)
}

func TestRenderResults(t *testing.T) {
	proc := search.NewProcessor(occupation.DefaultTables())
	rec := occupation.Record{Code: "261313", AnzscoCode: "261313", EnglishName: "Software Engineer", Category: occupation.CategoryICT, MLTSSL: true}
	resp := proc.ProcessRecords([]occupation.Record{rec}, "software", search.DefaultOptions())

	var buf bytes.Buffer
	renderResults(&buf, resp)
	out := buf.String()
	assert.Contains(t, out, "Software Engineer")
	assert.Contains(t, out, "MLTSSL")
	assert.Contains(t, strings.ToLower(out), "no more results")
}

func TestRenderRefreshAndReport(t *testing.T) {
	var buf bytes.Buffer
	renderRefresh(&buf, usecase.RefreshResult{
		Source: source.Report{
			Primary:      occupation.SourceImmigration,
			SourceCounts: map[string]int{occupation.SourceImmigration: 12},
			Errors:       map[string]string{occupation.SourceDataGovAU: "timeout"},
		},
		Summary: quality.Summary{Total: 12, AverageScore: 88},
	})
	out := buf.String()
	assert.Contains(t, out, occupation.SourceDataGovAU)
	assert.Contains(t, out, "timeout")
	assert.Contains(t, strings.ToLower(out), "avg quality 88")

	buf.Reset()
	v := quality.NewValidator(occupation.DefaultTables())
	renderReport(&buf, v.ValidateDataset([]occupation.Record{{Code: "1"}}, quality.DefaultDatasetOptions()))
	assert.Contains(t, buf.String(), "MISSING_REQUIRED_FIELDS")
}
