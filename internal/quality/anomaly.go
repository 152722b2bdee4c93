package quality

import (
	"math"
	"sort"
	"strings"

	"anzsco-lookup/internal/domain/occupation"
)

// Anomaly types.
const (
	AnomalyScore                   = "SCORE_ANOMALY"
	AnomalyDuplicate               = "DUPLICATE_DATA"
	AnomalyMissingFields           = "HIGH_MISSING_FIELD_RATIO"
	AnomalyInvitationPointsOutlier = "INVITATION_POINTS_OUTLIER"
	AnomalyInvitationCountOutlier  = "INVITATION_COUNT_OUTLIER"
)

const (
	scoreDeviationThreshold = 2.0
	scoreDeviationHigh      = 3.0
	missingRatioThreshold   = 0.3
	missingRatioHigh        = 0.7
	minOutlierSample        = 4
)

type Bounds struct {
	Lower float64 `json:"lowerBound"`
	Upper float64 `json:"upperBound"`
}

type Anomaly struct {
	Type         string   `json:"type"`
	Severity     Severity `json:"severity"`
	Index        *int     `json:"index,omitempty"`
	Indices      []int    `json:"indices,omitempty"`
	Key          string   `json:"key,omitempty"`
	Field        string   `json:"field,omitempty"`
	Count        int      `json:"count,omitempty"`
	Value        *float64 `json:"value,omitempty"`
	Mean         *float64 `json:"mean,omitempty"`
	Deviation    *float64 `json:"deviation,omitempty"`
	MissingRatio *float64 `json:"missingRatio,omitempty"`
	Bounds       *Bounds  `json:"bounds,omitempty"`
}

// DetectAnomalies runs every population check over the dataset and its
// per-record results. results[i] must belong to records[i].
func DetectAnomalies(records []occupation.Record, results []ValidationResult) []Anomaly {
	out := []Anomaly{}
	out = append(out, scoreAnomalies(results)...)
	out = append(out, duplicateAnomalies(records)...)
	out = append(out, missingFieldAnomalies(records)...)
	out = append(out, invitationOutliers(records)...)
	return out
}

func scoreAnomalies(results []ValidationResult) []Anomaly {
	if len(results) == 0 {
		return nil
	}
	mean := 0.0
	for _, r := range results {
		mean += float64(r.Score)
	}
	mean /= float64(len(results))

	variance := 0.0
	for _, r := range results {
		d := float64(r.Score) - mean
		variance += d * d
	}
	std := math.Sqrt(variance / float64(len(results)))
	if std == 0 {
		return nil
	}

	var out []Anomaly
	for i, r := range results {
		dev := math.Abs(float64(r.Score)-mean) / std
		if dev <= scoreDeviationThreshold {
			continue
		}
		sev := SeverityMedium
		if dev > scoreDeviationHigh {
			sev = SeverityHigh
		}
		out = append(out, Anomaly{
			Type:      AnomalyScore,
			Severity:  sev,
			Index:     ptr(i),
			Value:     ptr(float64(r.Score)),
			Mean:      ptr(mean),
			Deviation: ptr(math.Round(dev*100) / 100),
		})
	}
	return out
}

func duplicateAnomalies(records []occupation.Record) []Anomaly {
	groups := map[string][]int{}
	var order []string
	for i, r := range records {
		key := r.AnzscoCode + "_" + r.EnglishName
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], i)
	}

	var out []Anomaly
	for _, key := range order {
		idx := groups[key]
		if len(idx) < 2 {
			continue
		}
		out = append(out, Anomaly{
			Type:     AnomalyDuplicate,
			Severity: SeverityMedium,
			Key:      key,
			Indices:  idx,
			Count:    len(idx),
		})
	}
	return out
}

var preferredFields = []struct {
	name    string
	missing func(r occupation.Record) bool
}{
	{"chineseName", func(r occupation.Record) bool { return blank(r.ChineseName) }},
	{"description", func(r occupation.Record) bool { return blank(r.Description) }},
	{"requirements", func(r occupation.Record) bool { return len(r.Requirements) == 0 }},
	{"assessmentAuthority", func(r occupation.Record) bool { return blank(r.AssessmentAuthority) }},
	{"visaSubclasses", func(r occupation.Record) bool { return len(r.VisaSubclasses) == 0 }},
	{"skillLevel", func(r occupation.Record) bool { return r.SkillLevel == 0 }},
}

func missingFieldAnomalies(records []occupation.Record) []Anomaly {
	if len(records) == 0 {
		return nil
	}
	var out []Anomaly
	for _, f := range preferredFields {
		n := 0
		for _, r := range records {
			if f.missing(r) {
				n++
			}
		}
		ratio := float64(n) / float64(len(records))
		if ratio <= missingRatioThreshold {
			continue
		}
		sev := SeverityMedium
		if ratio > missingRatioHigh {
			sev = SeverityHigh
		}
		out = append(out, Anomaly{
			Type:         AnomalyMissingFields,
			Severity:     sev,
			Field:        f.name,
			Count:        n,
			MissingRatio: ptr(math.Round(ratio*1000) / 1000),
		})
	}
	return out
}

type indexedValue struct {
	index int
	value float64
}

func invitationOutliers(records []occupation.Record) []Anomaly {
	var points, counts []indexedValue
	for i, r := range records {
		inv := r.InvitationData
		if inv == nil {
			continue
		}
		if inv.MinPoints != 0 {
			points = append(points, indexedValue{i, float64(inv.MinPoints)})
		}
		if inv.InvitationCount != 0 {
			counts = append(counts, indexedValue{i, float64(inv.InvitationCount)})
		}
	}
	out := iqrOutliers(points, AnomalyInvitationPointsOutlier)
	return append(out, iqrOutliers(counts, AnomalyInvitationCountOutlier)...)
}

// iqrOutliers flags values outside [q1-1.5*iqr, q3+1.5*iqr]. Fewer than four
// values never produce outliers.
func iqrOutliers(values []indexedValue, kind string) []Anomaly {
	if len(values) < minOutlierSample {
		return nil
	}
	sorted := make([]float64, len(values))
	for i, v := range values {
		sorted[i] = v.value
	}
	sort.Float64s(sorted)
	n := len(sorted)
	q1 := sorted[n/4]
	q3 := sorted[(3*n)/4]
	iqr := q3 - q1
	b := Bounds{Lower: q1 - 1.5*iqr, Upper: q3 + 1.5*iqr}

	var out []Anomaly
	for _, v := range values {
		if v.value >= b.Lower && v.value <= b.Upper {
			continue
		}
		bounds := b
		out = append(out, Anomaly{
			Type:     kind,
			Severity: SeverityLow,
			Index:    ptr(v.index),
			Value:    ptr(v.value),
			Bounds:   &bounds,
		})
	}
	return out
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

func ptr[T any](v T) *T {
	return &v
}
