package classify

import (
	"reflect"
	"testing"
	"time"

	"opslens/src/contracts"
)

func raw(message string) contracts.RawLog {
	return contracts.RawLog{
		ID:        "test",
		Source:    contracts.SourceOrchestrator,
		Timestamp: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
		Message:   message,
		RawData:   message,
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name         string
		message      string
		wantCategory contracts.Category
		wantSeverity contracts.Severity
		wantType     string
	}{
		{
			name:         "out of memory error type",
			message:      "OutOfMemoryError: heap space",
			wantCategory: contracts.CategoryResource,
			wantSeverity: contracts.SeverityCritical,
			wantType:     "OutOfMemoryError",
		},
		{
			name:         "unauthorized",
			message:      "401 Unauthorized",
			wantCategory: contracts.CategoryPermissions,
			wantSeverity: contracts.SeverityError,
		},
		{
			name:         "plain info",
			message:      "INFO healthcheck ok",
			wantCategory: contracts.CategoryUnknown,
			wantSeverity: contracts.SeverityInfo,
		},
		{
			name:         "iso timestamp with connection refused",
			message:      "2024-01-01T12:00:00.000Z connection refused",
			wantCategory: contracts.CategoryNetwork,
			wantSeverity: contracts.SeverityError,
		},
		{
			name:         "generic error falls back to application",
			message:      "Unexpected error while rendering template",
			wantCategory: contracts.CategoryApplication,
			wantSeverity: contracts.SeverityError,
		},
		{
			name:         "generic failure falls back to application",
			message:      "job failed to start",
			wantCategory: contracts.CategoryApplication,
			wantSeverity: contracts.SeverityError,
		},
		{
			name:         "fatal without rule stays unknown",
			message:      "fatal: not a git repository",
			wantCategory: contracts.CategoryUnknown,
			wantSeverity: contracts.SeverityCritical,
		},
		{
			name:         "warning keyword",
			message:      "WARN cache nearly full",
			wantCategory: contracts.CategoryUnknown,
			wantSeverity: contracts.SeverityWarning,
		},
		{
			name:         "debug keyword",
			message:      "DEBUG loaded 12 handlers",
			wantCategory: contracts.CategoryUnknown,
			wantSeverity: contracts.SeverityDebug,
		},
		{
			name:         "rule severity replaces baseline",
			message:      "ERROR slow query detected",
			wantCategory: contracts.CategoryPerformance,
			wantSeverity: contracts.SeverityWarning,
		},
		{
			name:         "null pointer exception",
			message:      "java.lang.NullPointerException at com.example.Handler",
			wantCategory: contracts.CategoryUnknown,
			wantSeverity: contracts.SeverityInfo,
			wantType:     "NullPointerException",
		},
		{
			name:         "TLS inside a token",
			message:      "mTLS peer rejected, negotiated TLSv1.3",
			wantCategory: contracts.CategorySecurity,
			wantSeverity: contracts.SeverityError,
		},
		{
			name:         "status code needs word boundaries",
			message:      "request took 4013ms",
			wantCategory: contracts.CategoryUnknown,
			wantSeverity: contracts.SeverityInfo,
		},
		{
			name:         "OOM needs a leading word boundary",
			message:      "zoom call moved to room 4",
			wantCategory: contracts.CategoryUnknown,
			wantSeverity: contracts.SeverityInfo,
		},
		{
			name:         "empty message",
			message:      "",
			wantCategory: contracts.CategoryUnknown,
			wantSeverity: contracts.SeverityInfo,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(raw(tt.message))

			if got.Category != tt.wantCategory {
				t.Errorf("Category = %q, want %q", got.Category, tt.wantCategory)
			}
			if got.Severity != tt.wantSeverity {
				t.Errorf("Severity = %q, want %q", got.Severity, tt.wantSeverity)
			}
			if got.ErrorType != tt.wantType {
				t.Errorf("ErrorType = %q, want %q", got.ErrorType, tt.wantType)
			}
			if got.Message != tt.message || got.ID != "test" {
				t.Errorf("raw fields not preserved: %+v", got.RawLog)
			}
		})
	}
}

func TestClassify_SuggestedFix(t *testing.T) {
	got := Classify(raw("dial tcp 10.0.0.1:5432: connection refused"))
	if got.SuggestedFix != "Check network connectivity, firewall rules, and DNS configuration" {
		t.Errorf("SuggestedFix = %q", got.SuggestedFix)
	}

	got = Classify(raw("Unexpected error while rendering template"))
	if got.SuggestedFix != "" {
		t.Errorf("SuggestedFix = %q, want empty for fallback", got.SuggestedFix)
	}
}

func TestClassify_FirstMatchWins(t *testing.T) {
	tests := []struct {
		name         string
		message      string
		wantCategory contracts.Category
		wantSeverity contracts.Severity
	}{
		{
			// network-connection (error) precedes network-unreachable (critical)
			name:         "same category earlier rule",
			message:      "host unreachable after connection refused",
			wantCategory: contracts.CategoryNetwork,
			wantSeverity: contracts.SeverityError,
		},
		{
			// permissions precedes security
			name:         "permissions before security",
			message:      "TLS client rejected: access denied",
			wantCategory: contracts.CategoryPermissions,
			wantSeverity: contracts.SeverityError,
		},
		{
			// resource-disk precedes performance-locking
			name:         "resource before performance",
			message:      "deadlock while disk full",
			wantCategory: contracts.CategoryResource,
			wantSeverity: contracts.SeverityCritical,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(raw(tt.message))
			if got.Category != tt.wantCategory || got.Severity != tt.wantSeverity {
				t.Errorf("Classify(%q) = %s/%s, want %s/%s",
					tt.message, got.Category, got.Severity, tt.wantCategory, tt.wantSeverity)
			}
		})
	}
}

func TestClassify_Deterministic(t *testing.T) {
	messages := []string{
		"OutOfMemoryError: heap space",
		"service: billing pod: billing-7f returned 503",
		"nothing to see",
	}
	for _, m := range messages {
		a := Classify(raw(m))
		b := Classify(raw(m))
		if !reflect.DeepEqual(a, b) {
			t.Errorf("Classify(%q) not deterministic: %+v vs %+v", m, a, b)
		}
	}
}

func TestExtractTags(t *testing.T) {
	tests := []struct {
		name    string
		message string
		want    []string
	}{
		{
			name:    "all labels and status",
			message: "service: payment-api returned 503 for pod web-1 in namespace prod",
			want:    []string{"payment-api", "web-1", "prod", "status-503"},
		},
		{
			name:    "case insensitive labels",
			message: "Service:Checkout failed",
			want:    []string{"Checkout"},
		},
		{
			name:    "deduplicated",
			message: "service: api pod: api",
			want:    []string{"api"},
		},
		{
			name:    "first status code only",
			message: "upstream 404 then 500",
			want:    []string{"status-404"},
		},
		{
			name:    "2xx ignored",
			message: "GET /health 200",
			want:    []string{},
		},
		{
			name:    "none",
			message: "",
			want:    []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := extractTags(tt.message)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("extractTags(%q) = %v, want %v", tt.message, got, tt.want)
			}
		})
	}
}

func TestExtractErrorType(t *testing.T) {
	tests := []struct {
		message string
		want    string
	}{
		{"Uncaught Error: ValidationError thrown", "ValidationError"},
		{"Caused by Exception: IllegalStateException", "IllegalStateException"},
		{"TypeError: Cannot read property 'x' of undefined", "TypeError"},
		{"panic: runtime error", ""},
	}

	for _, tt := range tests {
		if got := extractErrorType(tt.message); got != tt.want {
			t.Errorf("extractErrorType(%q) = %q, want %q", tt.message, got, tt.want)
		}
	}
}

func TestRules_EachRuleReachable(t *testing.T) {
	samples := map[string]string{
		"network-connection":  "dial tcp: connection refused",
		"network-unreachable": "no route to host 10.0.0.1",
		"permissions-denied":  "open /etc/shadow: permission denied",
		"permissions-auth":    "authentication failed for user admin",
		"resource-memory":     "container OOMKilled",
		"resource-disk":       "write /data: no space left on device",
		"resource-cpu":        "cpu throttling detected",
		"config-invalid":      "invalid configuration in app.yaml",
		"config-env":          "environment variable DATABASE_URL not set",
		"config-port":         "listen tcp :8080: bind: address already in use",
		"security-tls":        "x509: certificate signed by unknown authority",
		"security-incident":   "breach detected on node-3",
		"performance-latency": "slow query took 5s",
		"performance-locking": "deadlock detected in transaction",
	}

	table := Rules()
	if len(table) != len(samples) {
		t.Fatalf("Rules() has %d rules, want %d", len(table), len(samples))
	}

	for _, rule := range table {
		sample, ok := samples[rule.Name]
		if !ok {
			t.Errorf("no sample for rule %q", rule.Name)
			continue
		}
		got, ok := Match(sample)
		if !ok || got.Name != rule.Name {
			t.Errorf("Match(%q) = %q, want %q", sample, got.Name, rule.Name)
		}
		if !rule.Category.Valid() || !rule.Severity.Valid() {
			t.Errorf("rule %q has invalid outcome %s/%s", rule.Name, rule.Category, rule.Severity)
		}
		if rule.SuggestedFix == "" {
			t.Errorf("rule %q has no suggested fix", rule.Name)
		}
	}
}

func TestRules_ReturnsCopy(t *testing.T) {
	table := Rules()
	table[0].Category = contracts.CategoryUnknown

	if Rules()[0].Category != contracts.CategoryNetwork {
		t.Error("Rules() exposed the internal table")
	}
}

func TestBatch_PreservesOrder(t *testing.T) {
	raws := []contracts.RawLog{raw("connection refused"), raw("INFO ok"), raw("disk full")}

	got := Batch(raws)

	want := []contracts.Category{contracts.CategoryNetwork, contracts.CategoryUnknown, contracts.CategoryResource}
	if len(got) != len(want) {
		t.Fatalf("Batch() returned %d records, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i].Category != want[i] {
			t.Errorf("Batch()[%d].Category = %q, want %q", i, got[i].Category, want[i])
		}
		if got[i].Message != raws[i].Message {
			t.Errorf("Batch()[%d].Message = %q, want %q", i, got[i].Message, raws[i].Message)
		}
	}
}

func TestGroupByPattern(t *testing.T) {
	logs := Batch([]contracts.RawLog{
		raw("OutOfMemoryError: heap space"),
		raw("OutOfMemoryError: metaspace"),
		raw("connection refused"),
	})

	groups := GroupByPattern(logs)

	if len(groups["resource-OutOfMemoryError"]) != 2 {
		t.Errorf("resource-OutOfMemoryError group = %d, want 2", len(groups["resource-OutOfMemoryError"]))
	}
	if len(groups["network-general"]) != 1 {
		t.Errorf("network-general group = %d, want 1", len(groups["network-general"]))
	}
}
