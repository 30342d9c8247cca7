package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestFlattenOrdersUniqueByID(t *testing.T) {
	orders := []orderSourceOrder{
		{OrderID: "o1", Products: []orderSourceProduct{
			{ID: "SKU-1", Name: "Süt 1L", StockQuantity: 120, Price: 29.9},
			{ID: "SKU-2", Name: "Yoğurt", StockQuantity: 80, Price: 45},
		}},
		{OrderID: "o2", Products: []orderSourceProduct{
			// Same product in a later order: first occurrence wins.
			{ID: "SKU-1", Name: "Süt 1L (eski)", StockQuantity: 999, Price: 1},
			{ID: "SKU-3", Name: "Peynir", StockQuantity: 40, Price: 120.5},
		}},
	}

	products := FlattenOrders(orders)
	if len(products) != 3 {
		t.Fatalf("len = %d, want 3", len(products))
	}
	if products[0].ProductID != "SKU-1" || products[1].ProductID != "SKU-2" || products[2].ProductID != "SKU-3" {
		t.Fatalf("order not preserved: %+v", products)
	}
	if products[0].Title != "Süt 1L" || products[0].Stock != 120 {
		t.Fatalf("duplicate overwrote first occurrence: %+v", products[0])
	}
	if products[0].Price != "29.90" {
		t.Fatalf("price = %q, want 29.90", products[0].Price)
	}
	if products[2].Price != "120.50" {
		t.Fatalf("price = %q, want 120.50", products[2].Price)
	}
}

func TestFlattenOrdersEmpty(t *testing.T) {
	if got := FlattenOrders(nil); len(got) != 0 {
		t.Fatalf("len = %d, want 0", len(got))
	}
}

func TestProductSourceFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Fatalf("method = %s", r.Method)
		}
		if r.Header.Get("x-api-key") != "secret" {
			t.Fatalf("missing api key header")
		}
		_ = json.NewEncoder(w).Encode(orderSourceResponse{Data: []orderSourceOrder{
			{OrderID: "o1", Products: []orderSourceProduct{
				{ID: "SKU-1", Name: "Süt 1L", StockQuantity: 120, Price: 29.9},
			}},
		}})
	}))
	defer srv.Close()

	s := NewProductSource(srv.URL, "secret")
	products, err := s.Fetch(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(products) != 1 || products[0].ProductID != "SKU-1" {
		t.Fatalf("products = %+v", products)
	}
}

func TestProductSourceFetchUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	s := NewProductSource(srv.URL, "secret")
	if _, err := s.Fetch(context.Background()); err == nil {
		t.Fatal("expected an error on 502")
	}
}
