package render

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/x/ansi"

	"opslens/src/analytics"
	"opslens/src/classify"
	"opslens/src/contracts"
)

func fixtureLogs() []contracts.ClassifiedLog {
	base := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	return []contracts.ClassifiedLog{
		{
			RawLog: contracts.RawLog{
				ID:        "log-1",
				Source:    contracts.SourceOrchestrator,
				Timestamp: base,
				Message:   "dial tcp 10.0.0.5:5432: connect: connection refused " + strings.Repeat("x", 200),
				Metadata:  map[string]string{"namespace": "default", "pod": "api-0"},
			},
			Category:     contracts.CategoryNetwork,
			Severity:     contracts.SeverityError,
			ErrorType:    "ECONNREFUSED",
			SuggestedFix: "Check that the target service is running and reachable",
			Tags:         []string{"api"},
		},
		{
			RawLog: contracts.RawLog{
				ID:        "log-2",
				Source:    contracts.SourceCI,
				Timestamp: base.Add(time.Hour),
				Message:   "build finished",
			},
			Category: contracts.CategoryUnknown,
			Severity: contracts.SeverityInfo,
		},
	}
}

func plain(buf *bytes.Buffer) string {
	return ansi.Strip(buf.String())
}

func TestLogs(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, WithWidth(100)).Logs(fixtureLogs())

	lines := strings.Split(strings.TrimRight(plain(&buf), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("lines = %d, want header + 2 rows:\n%s", len(lines), plain(&buf))
	}
	if !strings.HasPrefix(lines[0], "TIME") || !strings.HasSuffix(lines[0], "MESSAGE") {
		t.Errorf("header = %q", lines[0])
	}
	for i, line := range lines {
		if w := VisualWidth(line); w > 100 {
			t.Errorf("line %d width = %d, want <= 100", i, w)
		}
	}
	if !strings.Contains(lines[1], "orchestrator") || !strings.Contains(lines[1], "network") {
		t.Errorf("row = %q", lines[1])
	}
	if !strings.HasSuffix(lines[1], "...") {
		t.Errorf("long message should be truncated: %q", lines[1])
	}
}

func TestLogs_Empty(t *testing.T) {
	var buf bytes.Buffer
	New(&buf).Logs(nil)

	if got := strings.TrimSpace(plain(&buf)); got != "No logs." {
		t.Errorf("output = %q, want %q", got, "No logs.")
	}
}

func TestLog(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, WithWidth(60)).Log(fixtureLogs()[0])

	out := plain(&buf)
	for _, want := range []string{"log-1", "ECONNREFUSED", "namespace=default pod=api-0", "suggested fix", "api"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	for i, line := range strings.Split(out, "\n") {
		if w := VisualWidth(line); w > 60 {
			t.Errorf("line %d width = %d, want <= 60", i, w)
		}
	}
}

func TestSummary(t *testing.T) {
	logs := fixtureLogs()
	sum := analytics.Summarize(logs, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC))

	var buf bytes.Buffer
	New(&buf).Summary(sum)

	out := plain(&buf)
	for _, want := range []string{"total 2", "errors 1", "By severity", "By category", "network", "Top error types", "Recent errors", "log"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestSummary_Empty(t *testing.T) {
	var buf bytes.Buffer
	New(&buf).Summary(analytics.Summarize(nil, time.Now()))

	out := plain(&buf)
	if !strings.Contains(out, "total 0") {
		t.Errorf("output missing totals:\n%s", out)
	}
	if strings.Contains(out, "By severity") {
		t.Errorf("empty summary should stop after totals:\n%s", out)
	}
}

func TestRules(t *testing.T) {
	var buf bytes.Buffer
	New(&buf).Rules(classify.Rules())

	out := plain(&buf)
	if !strings.Contains(out, " 1. ") || !strings.Contains(out, "14. ") {
		t.Errorf("rules should be numbered 1..14:\n%s", out)
	}
}

func TestCollected(t *testing.T) {
	var buf bytes.Buffer
	New(&buf).Collected(contracts.SourceOrchestrator, fixtureLogs())

	if out := plain(&buf); !strings.Contains(out, "Collected 2 logs from orchestrator, 1 errors") {
		t.Errorf("output = %q", out)
	}
}

func TestStylesCoverEveryCategory(t *testing.T) {
	p := DefaultPalette()
	for _, cat := range contracts.Categories() {
		if _, ok := p.Categories[cat]; !ok {
			t.Errorf("palette has no color for category %q", cat)
		}
	}
}
