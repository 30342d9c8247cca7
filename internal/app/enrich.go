package app

// Severity buckets for the stock badge.
type Severity int

const (
	SeverityHealthy Severity = iota
	SeverityWarning
	SeverityCritical
)

// Enrich merges the base catalog with whatever reports exist. Report fields
// override/extend the base record; a product without a report passes through
// untouched. The result is a fresh slice, never an in-place mutation, so it
// can be recomputed whenever either input changes.
func Enrich(products []Product, reports map[string]AnalysisReport) []Product {
	out := make([]Product, len(products))
	for i, p := range products {
		if r, ok := reports[p.ProductID]; ok {
			critical := r.CriticalStockValue
			endDate := r.StockEndDate
			remaining := r.StockRemainingDay
			p.CriticalStockValue = &critical
			p.StockEndDate = &endDate
			p.StockRemainingDay = &remaining
		}
		out[i] = p
	}
	return out
}

// IsCritical applies the report threshold when one exists, else the static
// fallback of 20 units.
func IsCritical(p Product) bool {
	if p.CriticalStockValue != nil {
		return p.Stock <= *p.CriticalStockValue
	}
	return p.Stock < 20
}

func StockSeverity(p Product) Severity {
	if IsCritical(p) {
		return SeverityCritical
	}
	if p.StockRemainingDay != nil && *p.StockRemainingDay <= 14 {
		return SeverityWarning
	}
	if p.CriticalStockValue != nil && p.Stock <= *p.CriticalStockValue*2 {
		return SeverityWarning
	}
	if p.Stock < 100 {
		return SeverityWarning
	}
	return SeverityHealthy
}
