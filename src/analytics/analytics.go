// Package analytics computes summary statistics over classified log records.
//
// Summaries are recomputed from scratch on every call; nothing is cached
// between calls.
package analytics

import (
	"sort"
	"time"

	"opslens/src/contracts"
)

const (
	// MaxRecentErrors bounds Summary.RecentErrors.
	MaxRecentErrors = 20

	// MaxTopErrorTypes bounds Summary.TopErrorTypes.
	MaxTopErrorTypes = 10

	// HourKeyLayout formats Summary.ErrorsByHour keys (UTC, truncated to the hour).
	HourKeyLayout = "2006-01-02T15"
)

// Summarize aggregates records. now is used as both ends of the time range
// when records is empty.
//
// Error types with equal counts keep the order in which they were first
// encountered in records.
func Summarize(records []contracts.ClassifiedLog, now time.Time) contracts.Summary {
	s := contracts.Summary{
		TotalLogs:       len(records),
		CategorySummary: make(map[contracts.Category]int),
		SourceSummary:   make(map[contracts.Source]int),
		SeveritySummary: make(map[contracts.Severity]int),
		RecentErrors:    []contracts.ClassifiedLog{},
		ErrorsByHour:    make(map[string]int),
		TopErrorTypes:   []contracts.ErrorTypeCount{},
		TimeRange:       contracts.TimeRange{Start: now, End: now},
	}

	for _, c := range contracts.Categories() {
		s.CategorySummary[c] = 0
	}
	for _, src := range contracts.Sources() {
		s.SourceSummary[src] = 0
	}
	for _, sev := range contracts.Severities() {
		s.SeveritySummary[sev] = 0
	}

	typeIndex := make(map[string]int)

	for i, r := range records {
		s.CategorySummary[r.Category]++
		s.SourceSummary[r.Source]++
		s.SeveritySummary[r.Severity]++

		if i == 0 || r.Timestamp.Before(s.TimeRange.Start) {
			s.TimeRange.Start = r.Timestamp
		}
		if i == 0 || r.Timestamp.After(s.TimeRange.End) {
			s.TimeRange.End = r.Timestamp
		}

		switch {
		case r.Severity.IsError():
			s.ErrorCount++
			s.RecentErrors = append(s.RecentErrors, r)
			s.ErrorsByHour[HourKey(r.Timestamp)]++
		case r.Severity == contracts.SeverityWarning:
			s.WarningCount++
		}

		if r.ErrorType != "" {
			idx, ok := typeIndex[r.ErrorType]
			if !ok {
				idx = len(s.TopErrorTypes)
				typeIndex[r.ErrorType] = idx
				s.TopErrorTypes = append(s.TopErrorTypes, contracts.ErrorTypeCount{Type: r.ErrorType})
			}
			s.TopErrorTypes[idx].Count++
		}
	}

	sort.SliceStable(s.RecentErrors, func(i, j int) bool {
		return s.RecentErrors[i].Timestamp.After(s.RecentErrors[j].Timestamp)
	})
	if len(s.RecentErrors) > MaxRecentErrors {
		s.RecentErrors = s.RecentErrors[:MaxRecentErrors]
	}

	sort.SliceStable(s.TopErrorTypes, func(i, j int) bool {
		return s.TopErrorTypes[i].Count > s.TopErrorTypes[j].Count
	})
	if len(s.TopErrorTypes) > MaxTopErrorTypes {
		s.TopErrorTypes = s.TopErrorTypes[:MaxTopErrorTypes]
	}

	return s
}

// HourKey returns the ErrorsByHour bucket for t.
func HourKey(t time.Time) string {
	return t.UTC().Truncate(time.Hour).Format(HourKeyLayout)
}
