package macro

import (
	"context"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"altcoin-leadlag/internal/config"
	"altcoin-leadlag/internal/domain"
)

func TestClient_Returns(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v8/finance/chart/^SPXTR" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("interval") != "1d" {
			t.Errorf("expected daily interval")
		}
		// 2024-01-02..05 at 14:30 UTC; the 4th day has no close.
		w.Write([]byte(`{"chart":{"result":[{
			"timestamp":[1704205800,1704292200,1704378600,1704465000],
			"indicators":{
				"quote":[{"close":[100,101,null,99]}],
				"adjclose":[{"adjclose":[100,110,null,99]}]
			}
		}],"error":null}}`))
	}))
	defer server.Close()

	client := NewClient(config.Macro{BaseURL: server.URL, Symbol: "^SPXTR", Timeout: time.Second}, nil, nil)
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 1, 6, 0, 0, 0, 0, time.UTC)

	rets, err := client.Returns(context.Background(), from, to)
	if err != nil {
		t.Fatalf("Returns: %v", err)
	}
	if len(rets) != 3 {
		t.Fatalf("expected 3 returns, got %d", len(rets))
	}
	want := []float64{0, 0.1, -0.1}
	for i, w := range want {
		if math.Abs(rets[i].Value-w) > 1e-12 {
			t.Errorf("return %d = %v, want %v", i, rets[i].Value, w)
		}
	}
	if !rets[0].Time.Equal(time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("expected day-truncated timestamp, got %v", rets[0].Time)
	}
}

func TestClient_ChartError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"chart":{"result":[],"error":null}}`))
	}))
	defer server.Close()

	client := NewClient(config.Macro{BaseURL: server.URL, Symbol: "^SPXTR"}, nil, nil)
	_, err := client.AdjustedClose(context.Background(), time.Now().Add(-48*time.Hour), time.Now())
	if !errors.Is(err, ErrNoData) {
		t.Errorf("expected ErrNoData, got %v", err)
	}
}

func TestReturnsOf_ZeroClose(t *testing.T) {
	if got := ReturnsOf(nil); len(got) != 0 {
		t.Fatalf("expected empty result, got %v", got)
	}

	day := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	closes := []domain.Observation{
		{Time: day, Value: 0},
		{Time: day.AddDate(0, 0, 1), Value: 5},
		{Time: day.AddDate(0, 0, 2), Value: 10},
	}

	rets := ReturnsOf(closes)
	// 0 -> 5 is undefined and filled with 0
	if rets[0].Value != 0 || rets[1].Value != 0 || rets[2].Value != 1 {
		t.Errorf("unexpected returns %+v", rets)
	}
}
