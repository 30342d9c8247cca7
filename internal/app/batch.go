package app

import "errors"

// Per-SKU analysis request state within one batch.
type AnalysisStatus string

const (
	AnalysisLoading AnalysisStatus = "loading"
	AnalysisDone    AnalysisStatus = "done"
	AnalysisError   AnalysisStatus = "error"
)

type AnalysisResult struct {
	SKU    string
	Status AnalysisStatus
	Report *AnalysisReport
	Err    string
}

// OrderStatus is strictly client-local, driven only by the outcome of one
// explicit order request. Polling and push events never touch it.
type OrderStatus string

const (
	OrderIdle           OrderStatus = "idle"
	OrderLoading        OrderStatus = "loading"
	OrderDone           OrderStatus = "done"
	OrderError          OrderStatus = "error"
	OrderAlreadyOrdered OrderStatus = "already_ordered"
)

// Batch tracks one user-issued set of SKUs submitted for analysis, plus the
// order state per SKU. Every entry is seeded at loading the moment the batch
// is requested and resolves to done/error exactly once per request; Retry
// re-seeds a single entry before re-requesting.
type Batch struct {
	SKUs    []string
	results map[string]*AnalysisResult
	orders  map[string]OrderStatus
}

func NewBatch(skus []string) *Batch {
	b := &Batch{
		SKUs:    skus,
		results: make(map[string]*AnalysisResult, len(skus)),
		orders:  make(map[string]OrderStatus, len(skus)),
	}
	for _, sku := range skus {
		b.results[sku] = &AnalysisResult{SKU: sku, Status: AnalysisLoading}
	}
	return b
}

func (b *Batch) Result(sku string) (AnalysisResult, bool) {
	r, ok := b.results[sku]
	if !ok {
		return AnalysisResult{}, false
	}
	return *r, true
}

// Resolve records the outcome of one analysis request. Unknown SKUs are
// ignored; a trailing response for a SKU the user retried is applied like
// any other resolve.
func (b *Batch) Resolve(sku string, report *AnalysisReport, err error) {
	r, ok := b.results[sku]
	if !ok {
		return
	}
	if err != nil {
		r.Status = AnalysisError
		r.Err = err.Error()
		r.Report = nil
		return
	}
	r.Status = AnalysisDone
	r.Report = report
	r.Err = ""
}

// Retry re-seeds one SKU to loading so the caller can re-request it. Returns
// false when the SKU is not part of this batch.
func (b *Batch) Retry(sku string) bool {
	r, ok := b.results[sku]
	if !ok {
		return false
	}
	r.Status = AnalysisLoading
	r.Report = nil
	r.Err = ""
	return true
}

// DoneCount is the number of entries no longer loading; the results header
// renders it as "k/n tamamlandı".
func (b *Batch) DoneCount() int {
	n := 0
	for _, r := range b.results {
		if r.Status != AnalysisLoading {
			n++
		}
	}
	return n
}

func (b *Batch) Total() int {
	return len(b.SKUs)
}

func (b *Batch) OrderStatus(sku string) OrderStatus {
	if s, ok := b.orders[sku]; ok {
		return s
	}
	return OrderIdle
}

// BeginOrder transitions a SKU to loading. It refuses to start when an order
// is in flight or the SKU is already in a terminal ordered state, which is
// what disables the button against double clicks.
func (b *Batch) BeginOrder(sku string) bool {
	switch b.OrderStatus(sku) {
	case OrderLoading, OrderDone, OrderAlreadyOrdered:
		return false
	}
	b.orders[sku] = OrderLoading
	return true
}

// ResolveOrder folds the order outcome: ErrAlreadyOrdered is a distinct
// terminal state, every other error leaves a retryable error state.
func (b *Batch) ResolveOrder(sku string, err error) OrderStatus {
	var status OrderStatus
	switch {
	case err == nil:
		status = OrderDone
	case errors.Is(err, ErrAlreadyOrdered):
		status = OrderAlreadyOrdered
	default:
		status = OrderError
	}
	b.orders[sku] = status
	return status
}
