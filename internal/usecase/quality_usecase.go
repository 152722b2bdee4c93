package usecase

import (
	"context"
	"strings"

	"anzsco-lookup/internal/domain/occupation"
	"anzsco-lookup/internal/quality"
	"anzsco-lookup/internal/search"

	"go.opentelemetry.io/otel/attribute"
)

const MaxValidateBatch = 5000

type QualityUsecase interface {
	Report(ctx context.Context) quality.DatasetReport
	Validate(ctx context.Context, records []occupation.Record) (quality.DatasetReport, error)
	Item(ctx context.Context, code string) (ItemReport, error)
}

type ItemReport struct {
	Item       occupation.Record        `json:"item"`
	Validation quality.ValidationResult `json:"validation"`
}

type Quality struct {
	data      DatasetReader
	validator *quality.Validator
	opts      quality.DatasetOptions
}

func NewQualityUsecase(data DatasetReader, validator *quality.Validator, opts quality.DatasetOptions) *Quality {
	return &Quality{data: data, validator: validator, opts: opts}
}

// Report validates the dataset currently being served.
func (u *Quality) Report(ctx context.Context) quality.DatasetReport {
	var records []occupation.Record
	if u != nil && u.data != nil {
		records = u.data.Snapshot()
	}
	return u.validate(ctx, records)
}

// Validate checks caller-supplied records without touching the served dataset.
func (u *Quality) Validate(ctx context.Context, records []occupation.Record) (quality.DatasetReport, error) {
	if len(records) > MaxValidateBatch {
		return quality.DatasetReport{}, ErrInvalidInput
	}
	return u.validate(ctx, records), nil
}

func (u *Quality) validate(ctx context.Context, records []occupation.Record) quality.DatasetReport {
	_, span := tracer.Start(ctx, "quality.validate_dataset")
	defer span.End()

	var v *quality.Validator
	opts := quality.DefaultDatasetOptions()
	if u != nil {
		v = u.validator
		opts = u.opts
	}
	report := v.ValidateDataset(records, opts)
	span.SetAttributes(
		attribute.Int("records", report.Summary.Total),
		attribute.Int("invalid", report.Summary.Invalid),
		attribute.Int("average_score", report.Summary.AverageScore),
	)
	return report
}

func (u *Quality) Item(_ context.Context, code string) (ItemReport, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return ItemReport{}, ErrInvalidInput
	}
	if u == nil || u.data == nil {
		return ItemReport{}, ErrNotFound
	}
	r, ok := search.FindByCode(u.data.Snapshot(), code)
	if !ok {
		return ItemReport{}, ErrNotFound
	}
	return ItemReport{Item: r, Validation: u.validator.ValidateItem(r)}, nil
}
