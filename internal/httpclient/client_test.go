package httpclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sony/gobreaker"

	"altcoin-leadlag/internal/observability"
)

func TestClient_GetJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v3/ping" {
			t.Errorf("expected path /v3/ping, got %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("vs_currency"); got != "usd" {
			t.Errorf("expected vs_currency=usd, got %q", got)
		}
		if got := r.Header.Get("x-api-key"); got != "k" {
			t.Errorf("expected api key header, got %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"gecko_says":"(V3) To the Moon!"}`))
	}))
	defer server.Close()

	metrics := observability.NewMetrics("")
	client := New("test", server.URL+"/v3/", WithHeader("x-api-key", "k"), WithMetrics(metrics))

	var out struct {
		GeckoSays string `json:"gecko_says"`
	}
	err := client.GetJSON(context.Background(), "ping", "/ping", url.Values{"vs_currency": {"usd"}}, &out)
	if err != nil {
		t.Fatalf("GetJSON: %v", err)
	}
	if out.GeckoSays != "(V3) To the Moon!" {
		t.Errorf("unexpected body %q", out.GeckoSays)
	}
	if got := testutil.ToFloat64(metrics.FetchTotal.WithLabelValues("test", "ping")); got != 1 {
		t.Errorf("expected 1 recorded fetch, got %v", got)
	}
}

func TestClient_NoRetryByDefault(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := New("test", server.URL)
	err := client.GetJSON(context.Background(), "x", "/x", nil, nil)
	if err == nil {
		t.Fatal("expected error")
	}
	var se *StatusError
	if !errors.As(err, &se) || se.Code != http.StatusInternalServerError {
		t.Errorf("expected StatusError 500, got %v", err)
	}
	if calls.Load() != 1 {
		t.Errorf("expected 1 call, got %d", calls.Load())
	}
}

func TestClient_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	client := New("test", server.URL,
		WithMaxRetries(3),
		WithRetryDelay(time.Millisecond),
		WithMaxDelay(5*time.Millisecond),
	)

	var out struct{ OK bool }
	if err := client.GetJSON(context.Background(), "x", "/x", nil, &out); err != nil {
		t.Fatalf("GetJSON: %v", err)
	}
	if !out.OK {
		t.Error("expected ok=true")
	}
	if calls.Load() != 3 {
		t.Errorf("expected 3 calls, got %d", calls.Load())
	}
}

func TestClient_DoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "coin not found", http.StatusNotFound)
	}))
	defer server.Close()

	client := New("test", server.URL, WithMaxRetries(3), WithRetryDelay(time.Millisecond))
	if err := client.GetJSON(context.Background(), "x", "/x", nil, nil); err == nil {
		t.Fatal("expected error")
	}
	if calls.Load() != 1 {
		t.Errorf("expected 1 call, got %d", calls.Load())
	}
}

func TestClient_BreakerOpensAfterConsecutiveFailures(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := New("test", server.URL)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_ = client.GetJSON(ctx, "x", "/x", nil, nil)
	}

	err := client.GetJSON(ctx, "x", "/x", nil, nil)
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Errorf("expected open breaker, got %v", err)
	}
	if calls.Load() != 3 {
		t.Errorf("expected 3 calls to reach server, got %d", calls.Load())
	}
}

func TestClient_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := New("test", server.URL, WithRequestsPerMinute(1))
	if err := client.GetJSON(ctx, "x", "/x", nil, nil); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}

func TestTruncate_KeepsRuneBoundary(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"short", 10, "short"},
		{"abcdef", 3, "abc..."},
		// "é" is two bytes; cutting at 2 would split it.
		{"aébc", 2, "a..."},
		{"日本語", 4, "日..."},
		{"日本語", 1, "..."},
	}
	for _, tt := range tests {
		got := truncate(tt.in, tt.n)
		if got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
		if !utf8.ValidString(got) {
			t.Errorf("truncate(%q, %d) produced invalid UTF-8", tt.in, tt.n)
		}
	}
}

func TestClient_StatusErrorBodyIsValidUTF8(t *testing.T) {
	body := "x" + strings.Repeat("ä", 200)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(body))
	}))
	defer server.Close()

	err := New("test", server.URL).GetJSON(context.Background(), "x", "/x", nil, nil)
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("expected StatusError, got %v", err)
	}
	if !utf8.ValidString(se.Body) {
		t.Errorf("body is not valid UTF-8: %q", se.Body)
	}
	if !strings.HasSuffix(se.Body, "...") {
		t.Errorf("expected truncated body, got %d bytes", len(se.Body))
	}
}
