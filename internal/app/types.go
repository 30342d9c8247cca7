package app

// Product is the flattened, unique-by-id catalog entry shown in the
// selection screen. Report fields are optional: they arrive later from
// the forecast backend and stay nil until a report exists.
type Product struct {
	ProductID string `json:"product_id"`
	Image     string `json:"image"`
	Title     string `json:"title"`
	Stock     int    `json:"stock"`
	Price     string `json:"price"`

	CriticalStockValue *int    `json:"critical_stock_value,omitempty"`
	StockEndDate       *string `json:"stock_end_date,omitempty"`
	StockRemainingDay  *int    `json:"stock_remaining_day,omitempty"`
}

// Order-source API shapes (nested orders -> products).
type orderSourceProduct struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Image         string  `json:"image"`
	Quantity      int     `json:"quantity"`
	StockQuantity int     `json:"stockQuantity"`
	Price         float64 `json:"price"`
}

type orderSourceOrder struct {
	OrderID   string               `json:"orderId"`
	CreatedAt string               `json:"createdAt"`
	Products  []orderSourceProduct `json:"products"`
}

type orderSourceResponse struct {
	Data []orderSourceOrder `json:"data"`
}

type DemandLevel string

const (
	DemandHigh   DemandLevel = "high"
	DemandMedium DemandLevel = "medium"
	DemandLow    DemandLevel = "low"
)

// AnalysisReport is the backend-computed record for one SKU.
type AnalysisReport struct {
	SKU                 string      `json:"sku"`
	CriticalStockValue  int         `json:"critical_stock_value"`
	StockEndDate        string      `json:"stock_end_date"`
	StockRemainingDay   int         `json:"stock_remaining_day"`
	AvgDailyQuantity    float64     `json:"avg_daily_quantity"`
	RecommendedDiscount float64     `json:"recommended_discount"`
	RecommendedPrice    float64     `json:"recommended_price"`
	DemandLevel         DemandLevel `json:"demand_level"`
	ActionPlan          []string    `json:"action_plan"`
	WeeklyTrendPct      float64     `json:"weekly_trend_pct"`
	TotalRevenue        float64     `json:"total_revenue"`
	NeedsOrder          bool        `json:"needs_order,omitempty"`
}

// RecommendedOrderQty mirrors the "adet / 30 gün" figure on the result card.
func (r AnalysisReport) RecommendedOrderQty() int {
	qty := int(r.AvgDailyQuantity * 30)
	if float64(qty) < r.AvgDailyQuantity*30 {
		qty++
	}
	return qty
}
