package quality

import (
	"context"
	"time"

	"anzsco-lookup/internal/domain/occupation"
	"anzsco-lookup/internal/pkg/workerpool"

	"go.uber.org/zap"
)

type DatasetOptions struct {
	Parallel         bool
	MaxConcurrency   int
	CrossValidation  bool
	AnomalyDetection bool
}

func DefaultDatasetOptions() DatasetOptions {
	return DatasetOptions{
		Parallel:         true,
		MaxConcurrency:   10,
		CrossValidation:  true,
		AnomalyDetection: true,
	}
}

type Summary struct {
	Total            int   `json:"total"`
	Valid            int   `json:"valid"`
	Invalid          int   `json:"invalid"`
	Warnings         int   `json:"warnings"`
	AverageScore     int   `json:"averageScore"`
	ValidationTimeMs int64 `json:"validationTime"`
}

type Detail struct {
	Item       occupation.Record `json:"item"`
	Validation ValidationResult  `json:"validation"`
	Index      int               `json:"index"`
}

type DatasetReport struct {
	Summary         Summary          `json:"summary"`
	Details         []Detail         `json:"details"`
	Anomalies       []Anomaly        `json:"anomalies"`
	CrossValidation *CrossValidation `json:"crossValidationResults,omitempty"`
	QualityReport   QualityReport    `json:"qualityReport"`
}

func (r DatasetReport) Results() []ValidationResult {
	out := make([]ValidationResult, len(r.Details))
	for i, d := range r.Details {
		out[i] = d.Validation
	}
	return out
}

// ValidateDataset validates every record and aggregates the results once the
// whole batch is done. Details keep the input order.
func (v *Validator) ValidateDataset(records []occupation.Record, opts DatasetOptions) DatasetReport {
	start := time.Now()
	results := make([]ValidationResult, len(records))

	if opts.Parallel && len(records) > 1 {
		workers := opts.MaxConcurrency
		if workers <= 0 {
			workers = DefaultDatasetOptions().MaxConcurrency
		}
		workerpool.Each(context.Background(), workers, len(records), func(_ context.Context, i int) error {
			results[i] = v.ValidateItem(records[i])
			return nil
		})
	} else {
		for i := range records {
			results[i] = v.ValidateItem(records[i])
		}
	}

	report := DatasetReport{
		Summary:   Summary{Total: len(records)},
		Details:   make([]Detail, len(records)),
		Anomalies: []Anomaly{},
	}
	total := 0
	for i, res := range results {
		report.Details[i] = Detail{Item: records[i], Validation: res, Index: i}
		if res.IsValid {
			report.Summary.Valid++
		} else {
			report.Summary.Invalid++
		}
		if len(res.Warnings) > 0 {
			report.Summary.Warnings++
		}
		total += res.Score
	}
	report.Summary.AverageScore = roundedMean(total, len(results))

	if opts.AnomalyDetection {
		report.Anomalies = DetectAnomalies(records, results)
	}
	if opts.CrossValidation {
		cv := CrossValidate(records)
		report.CrossValidation = &cv
	}
	report.QualityReport = BuildReport(results, report.Anomalies)
	report.Summary.ValidationTimeMs = time.Since(start).Milliseconds()

	if v != nil {
		v.logger.Info("[Quality] dataset validated",
			zap.Int("total", report.Summary.Total),
			zap.Int("valid", report.Summary.Valid),
			zap.Int("invalid", report.Summary.Invalid),
			zap.Int("average_score", report.Summary.AverageScore),
			zap.Int64("took_ms", report.Summary.ValidationTimeMs),
		)
	}
	return report
}
