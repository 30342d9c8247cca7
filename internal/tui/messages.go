package tui

import (
	"stokradar/internal/app"
	"stokradar/internal/live"
)

type productsMsg struct {
	products []app.Product
	err      error
}

// reportMsg carries one result from the report fetch pool; ok is false once
// the pool channel is drained.
type reportMsg struct {
	res app.ReportResult
	ok  bool
}

type analyzedMsg struct {
	sku    string
	report *app.AnalysisReport
	err    error
}

type orderedMsg struct {
	sku     string
	message string
	err     error
}

// startBatchMsg moves from the selection screen to the results screen.
type startBatchMsg struct {
	skus []string
}

// streamMsg carries one event off the connection manager's ordered queue.
type streamMsg struct {
	ev live.Event
	ok bool
}

type reportsSnapshotMsg struct {
	reports []app.AnalysisReport
	err     error
}

type pollTickMsg struct{}

// idleResetMsg fires IdleResetDelay after a stream_end; gen guards against
// a reset scheduled for a superseded exchange.
type idleResetMsg struct {
	gen int
}

type toastExpireMsg struct {
	id int
}

type toast struct {
	id      int
	level   string // "success" | "warning" | "error"
	message string
}
