package app

import "pkt.systems/pslog"

// Application bundles the clients every screen shares. State (batches,
// progress, reports) lives in the views; nothing here persists.
type Application struct {
	Config   Config
	Log      pslog.Logger
	Backend  *BackendClient
	Products *ProductSource
	Reports  *ReportPool
}

func NewApplication(cfg Config, log pslog.Logger) *Application {
	backend := NewBackendClient(cfg.BackendURL)
	return &Application{
		Config:   cfg,
		Log:      log,
		Backend:  backend,
		Products: NewProductSource(cfg.OrderAPIURL, cfg.OrderAPIKey),
		Reports:  NewReportPool(backend),
	}
}
