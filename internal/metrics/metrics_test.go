package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordSourceSkipsZeroOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordSource("BBC", "World", SourceOK, 2, 0, 1)
	c.RecordSource("BBC", "World", SourceOK, 1, 3, 0)

	if v := testutil.ToFloat64(c.articles.WithLabelValues("World", "inserted")); v != 3 {
		t.Fatalf("inserted = %v, want 3", v)
	}
	if v := testutil.ToFloat64(c.articles.WithLabelValues("World", "skipped")); v != 3 {
		t.Fatalf("skipped = %v, want 3", v)
	}
	if v := testutil.ToFloat64(c.sources.WithLabelValues("BBC", SourceOK)); v != 2 {
		t.Fatalf("source ok = %v, want 2", v)
	}
	// 只出现过的 (category, outcome) 组合才会有序列
	if n := testutil.CollectAndCount(c.articles); n != 3 {
		t.Fatalf("article series = %d, want 3", n)
	}
}

func TestRecordRun(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordRun(12.5, 1700000000, 2)

	if v := testutil.ToFloat64(c.lastRun); v != 1700000000 {
		t.Fatalf("last run = %v", v)
	}
	if v := testutil.ToFloat64(c.emptyCats); v != 2 {
		t.Fatalf("empty categories = %v", v)
	}
	if n := testutil.CollectAndCount(c.runDuration); n != 1 {
		t.Fatalf("duration series = %d", n)
	}
}

func TestHandlerExposesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.RecordSource("ESPN", "Sports", SourceEmpty, 0, 0, 0)

	srv := httptest.NewServer(Handler(reg))
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("GET error: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if !strings.Contains(string(body), `newshub_source_fetch_total{result="empty",source="ESPN"} 1`) {
		t.Fatalf("metrics output missing source counter:\n%s", body)
	}
}
