package app

import "testing"

func TestEnrichMergesReportFields(t *testing.T) {
	products := []Product{
		{ProductID: "SKU-1", Title: "Süt 1L", Stock: 50, Price: "29.90"},
		{ProductID: "SKU-2", Title: "Yoğurt", Stock: 200, Price: "45.00"},
	}
	reports := map[string]AnalysisReport{
		"SKU-1": {
			SKU:                "SKU-1",
			CriticalStockValue: 30,
			StockEndDate:       "2025-06-15",
			StockRemainingDay:  7,
		},
	}

	out := Enrich(products, reports)

	if out[0].CriticalStockValue == nil || *out[0].CriticalStockValue != 30 {
		t.Fatalf("critical stock = %v, want 30", out[0].CriticalStockValue)
	}
	if out[0].StockEndDate == nil || *out[0].StockEndDate != "2025-06-15" {
		t.Fatalf("stock end date = %v", out[0].StockEndDate)
	}
	if out[0].StockRemainingDay == nil || *out[0].StockRemainingDay != 7 {
		t.Fatalf("remaining day = %v", out[0].StockRemainingDay)
	}
	if out[0].Title != "Süt 1L" || out[0].Stock != 50 {
		t.Fatalf("base fields changed: %+v", out[0])
	}

	// No report: the record passes through untouched.
	if out[1].CriticalStockValue != nil || out[1].StockEndDate != nil || out[1].StockRemainingDay != nil {
		t.Fatalf("report fields set without a report: %+v", out[1])
	}
}

func TestEnrichDoesNotMutateInput(t *testing.T) {
	products := []Product{{ProductID: "SKU-1", Stock: 10}}
	reports := map[string]AnalysisReport{"SKU-1": {CriticalStockValue: 5}}

	_ = Enrich(products, reports)

	if products[0].CriticalStockValue != nil {
		t.Fatal("input slice was mutated")
	}
}

func TestEnrichIsRepeatable(t *testing.T) {
	products := []Product{{ProductID: "SKU-1", Stock: 10}}
	reports := map[string]AnalysisReport{"SKU-1": {CriticalStockValue: 5, StockRemainingDay: 3}}

	a := Enrich(products, reports)
	b := Enrich(products, reports)

	if *a[0].CriticalStockValue != *b[0].CriticalStockValue ||
		*a[0].StockRemainingDay != *b[0].StockRemainingDay {
		t.Fatal("repeated enrichment diverged")
	}
}

func TestIsCritical(t *testing.T) {
	ten := 10
	cases := []struct {
		name string
		p    Product
		want bool
	}{
		{"below report threshold", Product{Stock: 10, CriticalStockValue: &ten}, true},
		{"above report threshold", Product{Stock: 11, CriticalStockValue: &ten}, false},
		{"fallback below 20", Product{Stock: 19}, true},
		{"fallback at 20", Product{Stock: 20}, false},
	}
	for _, tc := range cases {
		if got := IsCritical(tc.p); got != tc.want {
			t.Fatalf("%s: IsCritical = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestStockSeverity(t *testing.T) {
	hundred := 100
	five := 5
	twelve := 12
	cases := []struct {
		name string
		p    Product
		want Severity
	}{
		{"critical via report", Product{Stock: 90, CriticalStockValue: &hundred}, SeverityCritical},
		{"warning via remaining days", Product{Stock: 500, CriticalStockValue: &five, StockRemainingDay: &twelve}, SeverityWarning},
		{"warning via low absolute stock", Product{Stock: 50}, SeverityWarning},
		{"healthy", Product{Stock: 500, CriticalStockValue: &five}, SeverityHealthy},
	}
	for _, tc := range cases {
		if got := StockSeverity(tc.p); got != tc.want {
			t.Fatalf("%s: severity = %v, want %v", tc.name, got, tc.want)
		}
	}
}
