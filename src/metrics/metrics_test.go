package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"opslens/src/contracts"
	"opslens/src/store"
)

func TestObserveCollected(t *testing.T) {
	m := New()
	m.ObserveCollected(contracts.SourceCI, 3)
	m.ObserveCollected(contracts.SourceCI, 2)
	m.ObserveCollected(contracts.SourceRuntime, 0)

	if got := testutil.ToFloat64(m.logsCollected.WithLabelValues("ci")); got != 5 {
		t.Errorf("logs_collected_total{source=ci} = %v, want 5", got)
	}
	if got := testutil.CollectAndCount(m.logsCollected); got != 1 {
		t.Errorf("logs_collected_total series = %d, want 1", got)
	}
}

func TestObserveClassified(t *testing.T) {
	m := New()
	m.ObserveClassified([]contracts.ClassifiedLog{
		{Category: contracts.CategoryNetwork, Severity: contracts.SeverityError},
		{Category: contracts.CategoryNetwork, Severity: contracts.SeverityError},
		{Category: contracts.CategoryUnknown, Severity: contracts.SeverityInfo},
	})

	if got := testutil.ToFloat64(m.logsClassified.WithLabelValues("network", "error")); got != 2 {
		t.Errorf("logs_classified_total{network,error} = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.logsClassified.WithLabelValues("unknown", "info")); got != 1 {
		t.Errorf("logs_classified_total{unknown,info} = %v, want 1", got)
	}
}

func TestObserveStore_AsAppendHook(t *testing.T) {
	m := New()
	s := store.NewInMemoryStore(2, store.WithAppendHook(m.ObserveStore))

	s.Append(make([]contracts.ClassifiedLog, 3))
	s.Append(make([]contracts.ClassifiedLog, 1))

	if got := testutil.ToFloat64(m.storeSize); got != 2 {
		t.Errorf("store_size = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.evictions); got != 2 {
		t.Errorf("store_evictions_total = %v, want 2", got)
	}

	s.Clear()
	if got := testutil.ToFloat64(m.storeSize); got != 0 {
		t.Errorf("store_size after Clear = %v, want 0", got)
	}
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	m.ObserveCollected(contracts.SourceCI, 1)
	m.ObserveClassified([]contracts.ClassifiedLog{{}})
	m.ObserveCollectError(contracts.SourceCI)
	m.ObserveStore(1, 1)
}

func TestHandler(t *testing.T) {
	m := New()
	m.ObserveCollectError(contracts.SourceCloudLog)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if body := rec.Body.String(); !strings.Contains(body, `opslens_collect_errors_total{source="cloud-log"} 1`) {
		t.Errorf("body missing collect error series:\n%s", body)
	}
}
