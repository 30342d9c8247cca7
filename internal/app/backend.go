package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	analyzeTimeout = 30 * time.Second
	orderTimeout   = 15 * time.Second
	reportTimeout  = 15 * time.Second
)

// ErrAlreadyOrdered marks the 409 response from the order endpoint. It is a
// terminal state for the SKU, not a failure.
var ErrAlreadyOrdered = errors.New("order already placed")

// BackendClient talks to the forecast backend (analyze, order, reports).
type BackendClient struct {
	BaseURL string
	HTTP    *http.Client
}

func NewBackendClient(baseURL string) *BackendClient {
	return &BackendClient{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{},
	}
}

type analyzeRequest struct {
	SKU string `json:"sku"`
}

type orderResponse struct {
	Message string `json:"message"`
}

// Analyze triggers demand-forecast analysis for one SKU and returns the
// computed report. A timeout or non-2xx status is an error for this SKU only.
func (c *BackendClient) Analyze(ctx context.Context, sku string) (*AnalysisReport, error) {
	ctx, cancel := context.WithTimeout(ctx, analyzeTimeout)
	defer cancel()

	payload, err := json.Marshal(analyzeRequest{SKU: sku})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/analyze", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("analyze %s: %w", sku, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("analyze %s: HTTP %d: %s", sku, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var report AnalysisReport
	if err := decodeEnvelope(resp.Body, &report); err != nil {
		return nil, fmt.Errorf("analyze %s: decode: %w", sku, err)
	}
	if report.SKU == "" {
		report.SKU = sku
	}
	return &report, nil
}

// PlaceOrder places a restock order for one SKU. HTTP 409 maps to
// ErrAlreadyOrdered; the returned message is usable in either case.
func (c *BackendClient) PlaceOrder(ctx context.Context, sku string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, orderTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/order/"+sku, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return "", fmt.Errorf("order %s: %w", sku, err)
	}
	defer resp.Body.Close()

	var body orderResponse
	_ = json.NewDecoder(resp.Body).Decode(&body)

	switch {
	case resp.StatusCode == http.StatusConflict:
		return body.Message, fmt.Errorf("order %s: %w", sku, ErrAlreadyOrdered)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		msg := body.Message
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return "", fmt.Errorf("order %s: HTTP %d: %s", sku, resp.StatusCode, msg)
	}
	return body.Message, nil
}

// Report fetches the stored report for one SKU. A 404 means no report yet
// and returns (nil, nil).
func (c *BackendClient) Report(ctx context.Context, sku string) (*AnalysisReport, error) {
	ctx, cancel := context.WithTimeout(ctx, reportTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/reports/"+sku, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("report %s: %w", sku, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("report %s: HTTP %d", sku, resp.StatusCode)
	}

	var report AnalysisReport
	if err := decodeEnvelope(resp.Body, &report); err != nil {
		return nil, fmt.Errorf("report %s: decode: %w", sku, err)
	}
	return &report, nil
}

// Reports fetches the full report snapshot used by the periodic poll.
func (c *BackendClient) Reports(ctx context.Context) ([]AnalysisReport, error) {
	ctx, cancel := context.WithTimeout(ctx, reportTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/reports", nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("reports: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("reports: HTTP %d", resp.StatusCode)
	}

	var reports []AnalysisReport
	if err := decodeEnvelope(resp.Body, &reports); err != nil {
		return nil, fmt.Errorf("reports: decode: %w", err)
	}
	return reports, nil
}

// decodeEnvelope accepts both `{"data": ...}` and a bare payload. The backend
// has shipped both shapes.
func decodeEnvelope(r io.Reader, out any) error {
	raw, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &envelope); err == nil && len(envelope.Data) > 0 {
		return json.Unmarshal(envelope.Data, out)
	}
	return json.Unmarshal(raw, out)
}
