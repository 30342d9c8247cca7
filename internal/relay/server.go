// Package relay serves the thin passthrough API the web client consumed:
// every route forwards to a fixed upstream and relays the response.
package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"pkt.systems/pslog"

	"stokradar/internal/app"
)

type Server struct {
	backendURL string
	products   *app.ProductSource
	log        pslog.Logger
	http       *http.Client
}

func NewServer(cfg app.Config, log pslog.Logger) *Server {
	return &Server{
		backendURL: strings.TrimRight(cfg.BackendURL, "/"),
		products:   app.NewProductSource(cfg.OrderAPIURL, cfg.OrderAPIKey),
		log:        log,
		http:       &http.Client{},
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/products", s.handleProducts)
	mux.HandleFunc("POST /api/analyze/{sku}", s.handleAnalyze)
	mux.HandleFunc("POST /api/order/{sku}", s.handleOrder)
	mux.HandleFunc("GET /api/report/{sku}", s.handleReport)
	mux.HandleFunc("GET /api/reports", s.handleReports)
	return s.logRequests(mux)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.log.Info("relay", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
	})
}

func (s *Server) handleProducts(w http.ResponseWriter, r *http.Request) {
	products, err := s.products.Fetch(r.Context())
	if err != nil {
		s.log.Error("products fetch failed", "err", err)
		writeJSON(w, http.StatusInternalServerError, []app.Product{})
		return
	}
	writeJSON(w, http.StatusOK, products)
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	sku := r.PathValue("sku")
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	payload, _ := json.Marshal(map[string]string{"sku": sku})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.backendURL+"/analyze", bytes.NewReader(payload))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.http.Do(req)
	if err != nil {
		writeJSON(w, statusForUpstreamErr(err), map[string]string{"error": "Analysis timed out"})
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		writeJSON(w, resp.StatusCode, map[string]string{"error": strings.TrimSpace(string(body))})
		return
	}
	relayBody(w, resp)
}

func (s *Server) handleOrder(w http.ResponseWriter, r *http.Request) {
	sku := r.PathValue("sku")
	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.backendURL+"/order/"+sku, nil)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.http.Do(req)
	if err != nil {
		writeJSON(w, statusForUpstreamErr(err), map[string]string{"error": "Order request timed out"})
		return
	}
	defer resp.Body.Close()

	// Relay status verbatim; 409 "already ordered" included.
	relayBody(w, resp)
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	sku := r.PathValue("sku")
	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.backendURL+"/reports/"+sku, nil)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, nil)
		return
	}
	resp, err := s.http.Do(req)
	if err != nil {
		writeJSON(w, statusForUpstreamErr(err), nil)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		writeJSON(w, resp.StatusCode, nil)
		return
	}
	// Upstream wraps the record in {data: ...}; unwrap for the client.
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	raw, _ := io.ReadAll(resp.Body)
	if err := json.Unmarshal(raw, &envelope); err == nil && len(envelope.Data) > 0 {
		raw = envelope.Data
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(raw)
}

func (s *Server) handleReports(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.backendURL+"/reports", nil)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, []any{})
		return
	}
	resp, err := s.http.Do(req)
	if err != nil {
		writeJSON(w, statusForUpstreamErr(err), []any{})
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		writeJSON(w, resp.StatusCode, []any{})
		return
	}
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	raw, _ := io.ReadAll(resp.Body)
	if err := json.Unmarshal(raw, &envelope); err == nil && len(envelope.Data) > 0 {
		raw = envelope.Data
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(raw)
}

func statusForUpstreamErr(err error) int {
	if errors.Is(err, context.DeadlineExceeded) {
		return http.StatusGatewayTimeout
	}
	var ne interface{ Timeout() bool }
	if errors.As(err, &ne) && ne.Timeout() {
		return http.StatusGatewayTimeout
	}
	return http.StatusBadGateway
}

func relayBody(w http.ResponseWriter, resp *http.Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.StatusCode)
	_, _ = io.Copy(w, resp.Body)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
