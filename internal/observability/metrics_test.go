package observability

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_PerRunRegistry(t *testing.T) {
	a := NewMetrics("")
	b := NewMetrics("")

	a.RecordStage("factors", time.Now(), nil)
	a.RecordStage("factors", time.Now(), errors.New("boom"))

	if got := testutil.ToFloat64(a.StageRunsTotal.WithLabelValues("factors", "success")); got != 1 {
		t.Errorf("success runs = %v, want 1", got)
	}
	if got := testutil.ToFloat64(a.StageRunsTotal.WithLabelValues("factors", "error")); got != 1 {
		t.Errorf("error runs = %v, want 1", got)
	}
	if got := testutil.ToFloat64(b.StageRunsTotal.WithLabelValues("factors", "success")); got != 0 {
		t.Errorf("second registry leaked: %v", got)
	}
}

func TestMetrics_RecordFetchAndCache(t *testing.T) {
	m := NewMetrics("test")
	m.RecordFetch("coingecko", "market_chart_range", 0.2, nil)
	m.RecordFetch("coingecko", "market_chart_range", 0.1, errors.New("429"))
	m.RecordCacheLookup(true)
	m.RecordCacheLookup(false)
	m.RecordCacheLookup(false)

	if got := testutil.ToFloat64(m.FetchTotal.WithLabelValues("coingecko", "market_chart_range")); got != 2 {
		t.Errorf("fetch total = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.FetchErrors.WithLabelValues("coingecko", "market_chart_range")); got != 1 {
		t.Errorf("fetch errors = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.CacheHits.WithLabelValues("miss")); got != 2 {
		t.Errorf("cache misses = %v, want 2", got)
	}
}

func TestMetrics_WriteTextfile(t *testing.T) {
	m := NewMetrics("")
	m.RecordFit("ols", nil)
	m.ModelRSquared.Set(0.42)

	if err := m.WriteTextfile(""); err != nil {
		t.Fatalf("empty path should be no-op: %v", err)
	}

	path := filepath.Join(t.TempDir(), "run.prom")
	if err := m.WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(data), "altcoin_leadlag_model_r_squared 0.42") {
		t.Errorf("textfile missing r_squared:\n%s", data)
	}
	if !strings.Contains(string(data), `altcoin_leadlag_model_fits_total{kind="ols",status="success"} 1`) {
		t.Errorf("textfile missing fits_total:\n%s", data)
	}
}
