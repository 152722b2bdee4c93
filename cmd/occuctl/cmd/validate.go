package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"anzsco-lookup/internal/app"
	"anzsco-lookup/internal/domain/occupation"
	"anzsco-lookup/internal/quality"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var validateFile string

func init() {
	validateCmd.Flags().StringVarP(&validateFile, "file", "f", "", "JSON file with records to validate instead of the served dataset")
	rootCmd.AddCommand(validateCmd)
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validates the served dataset, or the records in --file, and prints a quality report.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var records []occupation.Record
		if validateFile != "" {
			b, err := os.ReadFile(validateFile)
			if err != nil {
				return err
			}
			if records, err = decodeRecords(b); err != nil {
				return fmt.Errorf("%s: %w", validateFile, err)
			}
		}

		return withContainer(cmd, func(ctx context.Context, c *app.Container) error {
			var report quality.DatasetReport
			if validateFile == "" {
				report = c.Quality.Report(ctx)
			} else {
				var err error
				if report, err = c.Quality.Validate(ctx, records); err != nil {
					return err
				}
			}
			renderReport(cmd.OutOrStdout(), report)
			return nil
		})
	},
}

// decodeRecords accepts a bare array or an object with an "items" array.
func decodeRecords(b []byte) ([]occupation.Record, error) {
	b = bytes.TrimSpace(b)
	var records []occupation.Record
	if len(b) > 0 && b[0] == '[' {
		err := json.Unmarshal(b, &records)
		return records, err
	}
	var wrapped struct {
		Items []occupation.Record `json:"items"`
	}
	if err := json.Unmarshal(b, &wrapped); err != nil {
		return nil, err
	}
	return wrapped.Items, nil
}

func renderReport(w io.Writer, report quality.DatasetReport) {
	s := report.Summary
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle("Data quality")
	t.AppendRows([]table.Row{
		{"Records", s.Total},
		{"Valid", s.Valid},
		{"Invalid", s.Invalid},
		{"With warnings", s.Warnings},
		{"Average score", s.AverageScore},
		{"Anomalies", len(report.Anomalies)},
	})
	t.SetStyle(table.StyleRounded)
	t.Render()

	if len(report.QualityReport.CommonIssues) > 0 {
		issues := table.NewWriter()
		issues.SetOutputMirror(w)
		issues.AppendHeader(table.Row{"Issue", "Count"})
		for _, ic := range report.QualityReport.CommonIssues {
			issues.AppendRow(table.Row{ic.Type, ic.Count})
		}
		issues.SetStyle(table.StyleRounded)
		issues.Render()
	}

	for _, rec := range report.QualityReport.Recommendations {
		fmt.Fprintf(w, "[%s] %s\n", rec.Priority, rec.Message)
	}
}
