package search

import (
	"fmt"
	"time"
)

type DisplayInfo struct {
	MatchTypeText string `json:"matchTypeText"`
	MatchTypeIcon string `json:"matchTypeIcon"`
	QualityText   string `json:"qualityText"`
	QualityIcon   string `json:"qualityIcon"`
	SourceText    string `json:"sourceText"`
	SourceIcon    string `json:"sourceIcon"`
	FreshnessText string `json:"freshnessText"`
	FreshnessIcon string `json:"freshnessIcon"`
}

type label struct {
	text string
	icon string
}

var matchLabels = map[MatchType]label{
	MatchExact:    {"Exact Match", "🎯"},
	MatchCode:     {"Code Match", "🔢"},
	MatchName:     {"Name Match", "📝"},
	MatchCategory: {"Category Match", "📁"},
	MatchContent:  {"Content Match", "🔍"},
	MatchFuzzy:    {"Related", "💭"},
}

var qualityLabels = map[QualityLevel]label{
	QualityExcellent: {"Excellent", "⭐"},
	QualityGood:      {"Good", "✨"},
	QualityFair:      {"Fair", "💫"},
	QualityPoor:      {"Poor", "⚡"},
}

var sourceLabels = map[SourceClass]label{
	SourceOfficial:     {"Official", "🏛️"},
	SourceGovernment:   {"Government", "🏢"},
	SourceCommercial:   {"Commercial", "💼"},
	SourceThirdParty:   {"Third Party", "🌐"},
	SourceCached:       {"Cached", "📦"},
	SourceLocal:        {"Local", "💾"},
	SourceUnattributed: {"Unattributed", "❔"},
}

func displayInfo(r Result, now time.Time) DisplayInfo {
	m, ok := matchLabels[r.MatchType]
	if !ok {
		m = label{"Match", "🔍"}
	}
	q := qualityLabels[QualityLevelOf(r.DataQuality)]
	s := sourceLabels[ClassifySource(r.DataSources)]
	return DisplayInfo{
		MatchTypeText: m.text,
		MatchTypeIcon: m.icon,
		QualityText:   q.text,
		QualityIcon:   q.icon,
		SourceText:    s.text,
		SourceIcon:    s.icon,
		FreshnessText: freshnessText(r.LastUpdated, now),
		FreshnessIcon: freshnessIcon(r.LastUpdated, now),
	}
}

func freshnessText(updated, now time.Time) string {
	if updated.IsZero() {
		return "Unknown"
	}
	age := now.Sub(updated)
	if age < 0 {
		age = 0
	}
	minutes := int(age / time.Minute)
	hours := int(age / time.Hour)
	days := hours / 24
	switch {
	case minutes < 60:
		return fmt.Sprintf("%dm ago", minutes)
	case hours < 24:
		return fmt.Sprintf("%dh ago", hours)
	case days < 7:
		return fmt.Sprintf("%dd ago", days)
	case days < 30:
		return fmt.Sprintf("%dw ago", days/7)
	default:
		return fmt.Sprintf("%dmo ago", days/30)
	}
}

func freshnessIcon(updated, now time.Time) string {
	if updated.IsZero() {
		return "❓"
	}
	age := now.Sub(updated)
	switch {
	case age <= 24*time.Hour:
		return "🟢"
	case age <= 7*24*time.Hour:
		return "🟡"
	case age <= 30*24*time.Hour:
		return "🟠"
	default:
		return "🔴"
	}
}
