package contracts

import "time"

// TimeRange is the span of timestamps covered by a summary.
type TimeRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// ErrorTypeCount is one entry of the top error types list.
type ErrorTypeCount struct {
	Type  string `json:"type"`
	Count int    `json:"count"`
}

// Summary holds the analytics computed over a set of classified logs.
type Summary struct {
	TotalLogs       int              `json:"totalLogs"`
	ErrorCount      int              `json:"errorCount"`
	WarningCount    int              `json:"warningCount"`
	CategorySummary map[Category]int `json:"categorySummary"`
	SourceSummary   map[Source]int   `json:"sourceSummary"`
	SeveritySummary map[Severity]int `json:"severitySummary"`
	RecentErrors    []ClassifiedLog  `json:"recentErrors"`
	TimeRange       TimeRange        `json:"timeRange"`
	ErrorsByHour    map[string]int   `json:"errorsByHour"`
	TopErrorTypes   []ErrorTypeCount `json:"topErrorTypes"`
}
