package quality

import (
	"context"
	"math"
	"math/rand/v2"
	"time"

	"anzsco-lookup/internal/domain/occupation"

	"go.uber.org/zap"
)

const (
	DefaultSampleSize     = 10
	DefaultAlertThreshold = 70
)

type QuickReport struct {
	SampleSize   int       `json:"sampleSize"`
	AverageScore int       `json:"averageScore"`
	ErrorCount   int       `json:"errorCount"`
	WarningCount int       `json:"warningCount"`
	Timestamp    time.Time `json:"timestamp"`
}

// QuickValidation validates a small sample and summarises it.
func (v *Validator) QuickValidation(sample []occupation.Record) QuickReport {
	out := QuickReport{SampleSize: len(sample), Timestamp: time.Now().UTC()}
	if v != nil {
		out.Timestamp = v.now().UTC()
	}
	if len(sample) == 0 {
		return out
	}
	total := 0
	for _, r := range sample {
		res := v.ValidateItem(r)
		total += res.Score
		out.ErrorCount += len(res.Errors)
		out.WarningCount += len(res.Warnings)
	}
	out.AverageScore = int(math.Round(float64(total) / float64(len(sample))))
	return out
}

// Sampler returns the records currently being served.
type Sampler interface {
	Snapshot() []occupation.Record
}

type AlertFunc func(ctx context.Context, report QuickReport)

type Monitor struct {
	validator  *Validator
	sampler    Sampler
	sampleSize int
	threshold  int
	alert      AlertFunc
	logger     *zap.Logger
	perm       func(n int) []int
}

func NewMonitor(v *Validator, sampler Sampler, sampleSize, threshold int, alert AlertFunc, logger *zap.Logger) *Monitor {
	if sampleSize <= 0 {
		sampleSize = DefaultSampleSize
	}
	if threshold <= 0 {
		threshold = DefaultAlertThreshold
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Monitor{
		validator:  v,
		sampler:    sampler,
		sampleSize: sampleSize,
		threshold:  threshold,
		alert:      alert,
		logger:     logger,
		perm:       rand.Perm,
	}
}

// Check samples the current dataset once. The returned bool reports whether
// the quality alert fired.
func (m *Monitor) Check(ctx context.Context) (QuickReport, bool) {
	if m == nil || m.sampler == nil {
		return QuickReport{}, false
	}
	all := m.sampler.Snapshot()
	if len(all) == 0 {
		return QuickReport{}, false
	}

	// Sampled without replacement.
	n := min(m.sampleSize, len(all))
	sample := make([]occupation.Record, 0, n)
	for _, i := range m.perm(len(all))[:n] {
		sample = append(sample, all[i])
	}

	report := m.validator.QuickValidation(sample)
	if report.AverageScore >= m.threshold {
		m.logger.Debug("[QualityMonitor] sample ok", zap.Int("average_score", report.AverageScore), zap.Int("sample", report.SampleSize))
		return report, false
	}

	m.logger.Warn("[QualityMonitor] data quality degraded",
		zap.Int("average_score", report.AverageScore),
		zap.Int("errors", report.ErrorCount),
		zap.Int("warnings", report.WarningCount),
	)
	if m.alert != nil {
		m.alert(ctx, report)
	}
	return report, true
}
