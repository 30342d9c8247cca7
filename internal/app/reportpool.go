package app

import (
	"context"
	"sync"
)

// reportWorkers bounds concurrent report fetches so the connection pool
// stays free for user-triggered requests.
const reportWorkers = 2

// ReportResult is one per-SKU outcome from the pool. A nil Report with a nil
// Err means the backend has no report for that SKU yet.
type ReportResult struct {
	SKU    string
	Report *AnalysisReport
	Err    error
}

// ReportPool drains a queue of SKUs through a fixed number of workers that
// share one cancellation signal. Navigating away cancels every outstanding
// fetch at once via Cancel.
type ReportPool struct {
	client *BackendClient

	mu     sync.Mutex
	cancel context.CancelFunc
}

func NewReportPool(client *BackendClient) *ReportPool {
	return &ReportPool{client: client}
}

// Start begins fetching reports for the given SKUs and returns the results
// channel. The channel is closed once the queue is drained or cancelled.
// A second Start cancels the previous run.
func (p *ReportPool) Start(ctx context.Context, skus []string) <-chan ReportResult {
	p.Cancel()

	ctx, cancel := context.WithCancel(ctx)
	p.mu.Lock()
	p.cancel = cancel
	p.mu.Unlock()

	queue := make(chan string)
	results := make(chan ReportResult, len(skus))

	var wg sync.WaitGroup
	for i := 0; i < reportWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for sku := range queue {
				if ctx.Err() != nil {
					return
				}
				report, err := p.client.Report(ctx, sku)
				if ctx.Err() != nil {
					return
				}
				results <- ReportResult{SKU: sku, Report: report, Err: err}
			}
		}()
	}

	go func() {
		defer close(queue)
		for _, sku := range skus {
			select {
			case queue <- sku:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	return results
}

// Cancel stops all outstanding fetches from the last Start.
func (p *ReportPool) Cancel() {
	p.mu.Lock()
	cancel := p.cancel
	p.cancel = nil
	p.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}
