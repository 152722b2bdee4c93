package quality

import (
	"math"
	"sort"
)

const maxCommonIssues = 10

type ScoreDistribution struct {
	Excellent int `json:"excellent"`
	Good      int `json:"good"`
	Fair      int `json:"fair"`
	Poor      int `json:"poor"`
}

type Overview struct {
	TotalItems        int               `json:"totalItems"`
	AverageScore      int               `json:"averageScore"`
	ScoreDistribution ScoreDistribution `json:"scoreDistribution"`
}

type MetricStats struct {
	Average float64 `json:"average"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
}

type MetricsReport struct {
	Completeness MetricStats `json:"completeness"`
	Accuracy     MetricStats `json:"accuracy"`
	Consistency  MetricStats `json:"consistency"`
	Freshness    MetricStats `json:"freshness"`
	Reliability  MetricStats `json:"reliability"`
}

type IssueCount struct {
	Type  string `json:"type"`
	Count int    `json:"count"`
}

type AnomalySummary struct {
	Total  int            `json:"total"`
	ByType map[string]int `json:"byType"`
}

type QualityReport struct {
	Overview        Overview       `json:"overview"`
	Metrics         MetricsReport  `json:"metrics"`
	CommonIssues    []IssueCount   `json:"commonIssues"`
	Recommendations []Suggestion   `json:"recommendations"`
	AnomalySummary  AnomalySummary `json:"anomalySummary"`
}

// BuildReport aggregates per-record results. An empty input yields a zeroed report.
func BuildReport(results []ValidationResult, anomalies []Anomaly) QualityReport {
	report := QualityReport{
		CommonIssues:    []IssueCount{},
		Recommendations: []Suggestion{},
		AnomalySummary:  AnomalySummary{Total: len(anomalies), ByType: map[string]int{}},
	}
	for _, a := range anomalies {
		report.AnomalySummary.ByType[a.Type]++
	}

	report.Overview.TotalItems = len(results)
	if len(results) == 0 {
		return report
	}

	total := 0
	for _, r := range results {
		total += r.Score
		switch {
		case r.Score >= 90:
			report.Overview.ScoreDistribution.Excellent++
		case r.Score >= 70:
			report.Overview.ScoreDistribution.Good++
		case r.Score >= 50:
			report.Overview.ScoreDistribution.Fair++
		default:
			report.Overview.ScoreDistribution.Poor++
		}
	}
	report.Overview.AverageScore = roundedMean(total, len(results))

	report.Metrics = MetricsReport{
		Completeness: statsOf(results, func(m Metrics) float64 { return m.Completeness }),
		Accuracy:     statsOf(results, func(m Metrics) float64 { return m.Accuracy }),
		Consistency:  statsOf(results, func(m Metrics) float64 { return m.Consistency }),
		Freshness:    statsOf(results, func(m Metrics) float64 { return m.Freshness }),
		Reliability:  statsOf(results, func(m Metrics) float64 { return m.Reliability }),
	}

	report.CommonIssues = commonIssues(results)

	if report.Overview.AverageScore < 80 {
		report.Recommendations = append(report.Recommendations, Suggestion{
			Type:     RecommendOverall,
			Message:  "overall data quality needs work, focus on completeness and accuracy",
			Priority: SeverityHigh,
		})
	}
	if report.Metrics.Freshness.Average < 70 {
		report.Recommendations = append(report.Recommendations, Suggestion{
			Type:     RecommendDataFreshness,
			Message:  "data freshness is low, schedule regular refreshes",
			Priority: SeverityMedium,
		})
	}
	return report
}

func statsOf(results []ValidationResult, pick func(Metrics) float64) MetricStats {
	s := MetricStats{Min: math.Inf(1), Max: math.Inf(-1)}
	sum := 0.0
	for _, r := range results {
		v := pick(r.Metrics)
		sum += v
		s.Min = math.Min(s.Min, v)
		s.Max = math.Max(s.Max, v)
	}
	s.Average = math.Round(sum / float64(len(results)))
	return s
}

func commonIssues(results []ValidationResult) []IssueCount {
	counts := map[string]int{}
	for _, r := range results {
		for _, e := range r.Errors {
			counts[e.Type]++
		}
	}
	out := make([]IssueCount, 0, len(counts))
	for t, c := range counts {
		out = append(out, IssueCount{Type: t, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Type < out[j].Type
	})
	if len(out) > maxCommonIssues {
		out = out[:maxCommonIssues]
	}
	return out
}

func roundedMean(total, n int) int {
	if n == 0 {
		return 0
	}
	return int(math.Round(float64(total) / float64(n)))
}
