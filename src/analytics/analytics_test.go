package analytics

import (
	"fmt"
	"testing"
	"time"

	"opslens/src/classify"
	"opslens/src/contracts"
)

var t0 = time.Date(2024, 3, 10, 8, 15, 0, 0, time.UTC)

func record(id string, src contracts.Source, cat contracts.Category, sev contracts.Severity, ts time.Time, errorType string) contracts.ClassifiedLog {
	return contracts.ClassifiedLog{
		RawLog: contracts.RawLog{
			ID:        id,
			Source:    src,
			Timestamp: ts,
			Message:   id,
		},
		Category:  cat,
		Severity:  sev,
		ErrorType: errorType,
		Tags:      []string{},
	}
}

func TestSummarize_Empty(t *testing.T) {
	now := time.Date(2024, 5, 5, 5, 5, 5, 0, time.UTC)

	s := Summarize(nil, now)

	if s.TotalLogs != 0 || s.ErrorCount != 0 || s.WarningCount != 0 {
		t.Errorf("counts = %d/%d/%d, want zeros", s.TotalLogs, s.ErrorCount, s.WarningCount)
	}
	if len(s.CategorySummary) != len(contracts.Categories()) {
		t.Errorf("CategorySummary has %d keys, want %d", len(s.CategorySummary), len(contracts.Categories()))
	}
	for c, n := range s.CategorySummary {
		if n != 0 {
			t.Errorf("CategorySummary[%s] = %d, want 0", c, n)
		}
	}
	if len(s.SourceSummary) != len(contracts.Sources()) {
		t.Errorf("SourceSummary has %d keys, want %d", len(s.SourceSummary), len(contracts.Sources()))
	}
	for src, n := range s.SourceSummary {
		if n != 0 {
			t.Errorf("SourceSummary[%s] = %d, want 0", src, n)
		}
	}
	if s.RecentErrors == nil || len(s.RecentErrors) != 0 {
		t.Errorf("RecentErrors = %v, want empty non-nil", s.RecentErrors)
	}
	if s.TopErrorTypes == nil || len(s.TopErrorTypes) != 0 {
		t.Errorf("TopErrorTypes = %v, want empty non-nil", s.TopErrorTypes)
	}
	if !s.TimeRange.Start.Equal(now) || !s.TimeRange.End.Equal(now) {
		t.Errorf("TimeRange = %v, want now/now", s.TimeRange)
	}
}

func TestSummarize_Counts(t *testing.T) {
	records := []contracts.ClassifiedLog{
		record("a", contracts.SourceOrchestrator, contracts.CategoryNetwork, contracts.SeverityError, t0, ""),
		record("b", contracts.SourceOrchestrator, contracts.CategoryResource, contracts.SeverityCritical, t0.Add(time.Minute), "OutOfMemoryError"),
		record("c", contracts.SourceRuntime, contracts.CategoryPerformance, contracts.SeverityWarning, t0.Add(2*time.Minute), ""),
		record("d", contracts.SourceCI, contracts.CategoryUnknown, contracts.SeverityInfo, t0.Add(-time.Hour), ""),
		record("e", contracts.SourceCloudLog, contracts.CategoryApplication, contracts.SeverityError, t0.Add(3*time.Hour), "TypeError"),
		record("f", contracts.SourceCloudLog, contracts.CategoryUnknown, contracts.SeverityDebug, t0.Add(time.Second), ""),
	}

	s := Summarize(records, time.Now())

	if s.TotalLogs != 6 {
		t.Errorf("TotalLogs = %d, want 6", s.TotalLogs)
	}
	if s.ErrorCount != 3 {
		t.Errorf("ErrorCount = %d, want 3", s.ErrorCount)
	}
	if s.WarningCount != 1 {
		t.Errorf("WarningCount = %d, want 1", s.WarningCount)
	}
	if s.ErrorCount+s.WarningCount > s.TotalLogs {
		t.Errorf("errorCount + warningCount exceeds totalLogs")
	}

	wantCategories := map[contracts.Category]int{
		contracts.CategoryNetwork:     1,
		contracts.CategoryPermissions: 0,
		contracts.CategoryResource:    1,
		contracts.CategoryConfig:      0,
		contracts.CategoryApplication: 1,
		contracts.CategorySecurity:    0,
		contracts.CategoryPerformance: 1,
		contracts.CategoryUnknown:     2,
	}
	for c, want := range wantCategories {
		if s.CategorySummary[c] != want {
			t.Errorf("CategorySummary[%s] = %d, want %d", c, s.CategorySummary[c], want)
		}
	}

	wantSources := map[contracts.Source]int{
		contracts.SourceOrchestrator: 2,
		contracts.SourceRuntime:      1,
		contracts.SourceCI:           1,
		contracts.SourceCloudLog:     2,
	}
	for src, want := range wantSources {
		if s.SourceSummary[src] != want {
			t.Errorf("SourceSummary[%s] = %d, want %d", src, s.SourceSummary[src], want)
		}
	}

	if s.SeveritySummary[contracts.SeverityDebug] != 1 || s.SeveritySummary[contracts.SeverityInfo] != 1 {
		t.Errorf("SeveritySummary = %v", s.SeveritySummary)
	}

	if !s.TimeRange.Start.Equal(t0.Add(-time.Hour)) {
		t.Errorf("TimeRange.Start = %v, want %v", s.TimeRange.Start, t0.Add(-time.Hour))
	}
	if !s.TimeRange.End.Equal(t0.Add(3 * time.Hour)) {
		t.Errorf("TimeRange.End = %v, want %v", s.TimeRange.End, t0.Add(3*time.Hour))
	}

	wantHours := map[string]int{
		"2024-03-10T08": 2,
		"2024-03-10T11": 1,
	}
	if len(s.ErrorsByHour) != len(wantHours) {
		t.Errorf("ErrorsByHour = %v, want %v", s.ErrorsByHour, wantHours)
	}
	for k, want := range wantHours {
		if s.ErrorsByHour[k] != want {
			t.Errorf("ErrorsByHour[%s] = %d, want %d", k, s.ErrorsByHour[k], want)
		}
	}

	wantRecent := []string{"e", "b", "a"}
	if len(s.RecentErrors) != len(wantRecent) {
		t.Fatalf("len(RecentErrors) = %d, want %d", len(s.RecentErrors), len(wantRecent))
	}
	for i, id := range wantRecent {
		if s.RecentErrors[i].ID != id {
			t.Errorf("RecentErrors[%d] = %q, want %q", i, s.RecentErrors[i].ID, id)
		}
	}
}

func TestSummarize_RecentErrorsCapped(t *testing.T) {
	var records []contracts.ClassifiedLog
	for i := 0; i < 30; i++ {
		records = append(records, record(fmt.Sprintf("e%d", i), contracts.SourceCI, contracts.CategoryApplication,
			contracts.SeverityError, t0.Add(time.Duration(i)*time.Minute), ""))
	}

	s := Summarize(records, time.Now())

	if len(s.RecentErrors) != MaxRecentErrors {
		t.Fatalf("len(RecentErrors) = %d, want %d", len(s.RecentErrors), MaxRecentErrors)
	}
	if s.RecentErrors[0].ID != "e29" || s.RecentErrors[MaxRecentErrors-1].ID != "e10" {
		t.Errorf("RecentErrors = %s..%s, want e29..e10", s.RecentErrors[0].ID, s.RecentErrors[MaxRecentErrors-1].ID)
	}
}

func TestSummarize_TopErrorTypes(t *testing.T) {
	var records []contracts.ClassifiedLog
	add := func(errorType string, n int) {
		for i := 0; i < n; i++ {
			records = append(records, record(errorType, contracts.SourceRuntime, contracts.CategoryApplication,
				contracts.SeverityError, t0, errorType))
		}
	}
	add("TypeError", 2)
	add("ValueError", 5)
	add("KeyError", 2)
	for i := 0; i < 12; i++ {
		add(fmt.Sprintf("Custom%dError", i), 1)
	}

	s := Summarize(records, time.Now())

	if len(s.TopErrorTypes) != MaxTopErrorTypes {
		t.Fatalf("len(TopErrorTypes) = %d, want %d", len(s.TopErrorTypes), MaxTopErrorTypes)
	}

	want := []contracts.ErrorTypeCount{
		{Type: "ValueError", Count: 5},
		{Type: "TypeError", Count: 2},
		{Type: "KeyError", Count: 2},
		{Type: "Custom0Error", Count: 1},
	}
	for i, w := range want {
		if s.TopErrorTypes[i] != w {
			t.Errorf("TopErrorTypes[%d] = %+v, want %+v", i, s.TopErrorTypes[i], w)
		}
	}
	if last := s.TopErrorTypes[MaxTopErrorTypes-1]; last.Type != "Custom6Error" {
		t.Errorf("TopErrorTypes[last] = %+v, want Custom6Error", last)
	}
}

func TestSummarize_Scenario(t *testing.T) {
	raws := []contracts.RawLog{
		{ID: "1", Source: contracts.SourceRuntime, Timestamp: t0, Message: "OutOfMemoryError: heap space"},
		{ID: "2", Source: contracts.SourceCI, Timestamp: t0, Message: "401 Unauthorized"},
		{ID: "3", Source: contracts.SourceOrchestrator, Timestamp: t0, Message: "INFO healthcheck ok"},
	}

	s := Summarize(classify.Batch(raws), time.Now())

	if s.TotalLogs != 3 || s.ErrorCount != 2 || s.WarningCount != 0 {
		t.Errorf("counts = %d/%d/%d, want 3/2/0", s.TotalLogs, s.ErrorCount, s.WarningCount)
	}
	if len(s.TopErrorTypes) != 1 || s.TopErrorTypes[0].Type != "OutOfMemoryError" {
		t.Errorf("TopErrorTypes = %+v", s.TopErrorTypes)
	}
}

func TestHourKey(t *testing.T) {
	ts := time.Date(2024, 1, 1, 23, 59, 59, 0, time.FixedZone("PST", -8*3600))
	if got := HourKey(ts); got != "2024-01-02T07" {
		t.Errorf("HourKey() = %q, want %q", got, "2024-01-02T07")
	}
}
