package app

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// ProductSource fetches the orderable catalog from the upstream order system.
type ProductSource struct {
	URL    string
	APIKey string
	HTTP   *http.Client
}

func NewProductSource(url, apiKey string) *ProductSource {
	return &ProductSource{
		URL:    url,
		APIKey: apiKey,
		HTTP:   &http.Client{Timeout: 30 * time.Second},
	}
}

// Fetch pulls the nested orders payload and flattens it to a unique-by-id
// product list, first occurrence wins. Called once per view activation.
func (s *ProductSource) Fetch(ctx context.Context) ([]Product, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.URL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("x-api-key", s.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch products: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("fetch products: HTTP %d", resp.StatusCode)
	}

	var payload orderSourceResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("fetch products: decode: %w", err)
	}
	return FlattenOrders(payload.Data), nil
}

// FlattenOrders turns orders->products into a unique product list, keeping
// arrival order of first occurrence.
func FlattenOrders(orders []orderSourceOrder) []Product {
	seen := make(map[string]bool)
	var products []Product
	for _, order := range orders {
		for _, p := range order.Products {
			if seen[p.ID] {
				continue
			}
			seen[p.ID] = true
			products = append(products, Product{
				ProductID: p.ID,
				Image:     p.Image,
				Title:     p.Name,
				Stock:     p.StockQuantity,
				Price:     strconv.FormatFloat(p.Price, 'f', 2, 64),
			})
		}
	}
	return products
}
