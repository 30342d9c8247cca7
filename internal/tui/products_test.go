package tui

import (
	"testing"

	"stokradar/internal/app"
)

func intPtr(n int) *int { return &n }

func sampleProducts() []app.Product {
	return []app.Product{
		{ProductID: "SKU-SUT", Title: "Süt 1L", Stock: 300},
		{ProductID: "SKU-YOG", Title: "Yoğurt 500g", Stock: 15, CriticalStockValue: intPtr(20)},
		{ProductID: "SKU-PEY", Title: "Beyaz Peynir", Stock: 90},
	}
}

func TestFilterProductsByTitleAndID(t *testing.T) {
	list := sampleProducts()

	got := filterProducts(list, "yoğurt")
	if len(got) != 1 || got[0].ProductID != "SKU-YOG" {
		t.Fatalf("title filter = %+v", got)
	}

	got = filterProducts(list, "sku-pey")
	if len(got) != 1 || got[0].ProductID != "SKU-PEY" {
		t.Fatalf("id filter = %+v", got)
	}

	if got = filterProducts(list, ""); len(got) != len(list) {
		t.Fatalf("empty query filtered to %d items", len(got))
	}

	if got = filterProducts(list, "zzz"); len(got) != 0 {
		t.Fatalf("no-match query returned %+v", got)
	}
}

func TestSortProductsByName(t *testing.T) {
	asc := sortProducts(sampleProducts(), sortNameAsc)
	if asc[0].Title != "Beyaz Peynir" {
		t.Fatalf("asc[0] = %q", asc[0].Title)
	}
	desc := sortProducts(sampleProducts(), sortNameDesc)
	if desc[0].Title != "Yoğurt 500g" {
		t.Fatalf("desc[0] = %q", desc[0].Title)
	}
}

func TestSortProductsByStock(t *testing.T) {
	asc := sortProducts(sampleProducts(), sortStockAsc)
	if asc[0].Stock != 15 || asc[2].Stock != 300 {
		t.Fatalf("stock asc = %+v", asc)
	}
	desc := sortProducts(sampleProducts(), sortStockDesc)
	if desc[0].Stock != 300 {
		t.Fatalf("stock desc = %+v", desc)
	}
}

func TestSortProductsCriticalFirst(t *testing.T) {
	got := sortProducts(sampleProducts(), sortCritical)
	if got[0].ProductID != "SKU-YOG" {
		t.Fatalf("critical sort put %q first", got[0].ProductID)
	}
}

func TestSortProductsDoesNotMutateInput(t *testing.T) {
	list := sampleProducts()
	_ = sortProducts(list, sortNameAsc)
	if list[0].ProductID != "SKU-SUT" {
		t.Fatal("input slice was reordered")
	}
}
