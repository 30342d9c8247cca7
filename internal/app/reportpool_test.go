package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestReportPoolDrainsAllSKUs(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sku := strings.TrimPrefix(r.URL.Path, "/reports/")
		if sku == "SKU-404" {
			http.NotFound(w, r)
			return
		}
		_ = json.NewEncoder(w).Encode(AnalysisReport{SKU: sku})
	}))
	defer srv.Close()

	pool := NewReportPool(NewBackendClient(srv.URL))
	skus := []string{"SKU-1", "SKU-2", "SKU-404", "SKU-3"}
	results := pool.Start(context.Background(), skus)

	got := make(map[string]ReportResult)
	for res := range results {
		got[res.SKU] = res
	}
	if len(got) != len(skus) {
		t.Fatalf("got %d results, want %d", len(got), len(skus))
	}
	if got["SKU-1"].Report == nil || got["SKU-1"].Err != nil {
		t.Fatalf("SKU-1 = %+v", got["SKU-1"])
	}
	// 404 is "no report yet", not an error.
	if got["SKU-404"].Report != nil || got["SKU-404"].Err != nil {
		t.Fatalf("SKU-404 = %+v", got["SKU-404"])
	}
}

func TestReportPoolBoundsConcurrency(t *testing.T) {
	var inflight, peak int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&inflight, 1)
		for {
			old := atomic.LoadInt32(&peak)
			if n <= old || atomic.CompareAndSwapInt32(&peak, old, n) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		atomic.AddInt32(&inflight, -1)
		_ = json.NewEncoder(w).Encode(AnalysisReport{SKU: "x"})
	}))
	defer srv.Close()

	pool := NewReportPool(NewBackendClient(srv.URL))
	results := pool.Start(context.Background(), []string{"a1111", "a2222", "a3333", "a4444", "a5555", "a6666"})
	for range results {
	}

	if p := atomic.LoadInt32(&peak); p > reportWorkers {
		t.Fatalf("peak concurrent fetches = %d, want at most %d", p, reportWorkers)
	}
}

func TestReportPoolCancelStopsWork(t *testing.T) {
	var served int32
	release := make(chan struct{})
	var once sync.Once
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&served, 1)
		once.Do(func() { close(release) })
		time.Sleep(50 * time.Millisecond)
		_ = json.NewEncoder(w).Encode(AnalysisReport{SKU: "x"})
	}))
	defer srv.Close()

	pool := NewReportPool(NewBackendClient(srv.URL))
	results := pool.Start(context.Background(), []string{"b1111", "b2222", "b3333", "b4444", "b5555", "b6666", "b7777", "b8888"})

	<-release
	pool.Cancel()

	// The channel must still close after cancellation.
	done := make(chan struct{})
	go func() {
		for range results {
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("results channel never closed after Cancel")
	}

	if n := atomic.LoadInt32(&served); n >= 8 {
		t.Fatalf("all %d requests were served despite cancellation", n)
	}
}

func TestReportPoolSecondStartCancelsFirst(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(10 * time.Millisecond)
		_ = json.NewEncoder(w).Encode(AnalysisReport{SKU: "x"})
	}))
	defer srv.Close()

	pool := NewReportPool(NewBackendClient(srv.URL))
	first := pool.Start(context.Background(), []string{"c1111", "c2222", "c3333", "c4444"})
	second := pool.Start(context.Background(), []string{"d1111"})

	for range second {
	}

	// The first run's channel closes once its workers notice cancellation.
	select {
	case _, ok := <-first:
		_ = ok
	case <-time.After(5 * time.Second):
		t.Fatal("first results channel stuck after a second Start")
	}
}
