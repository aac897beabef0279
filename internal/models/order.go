package models

import "time"

// Order is one line item of the retail dataset. Order IDs repeat across
// rows: an order spans one row per product line.
type Order struct {
	OrderID      string
	OrderDate    time.Time
	ShipDate     time.Time // zero when the source value did not parse
	CustomerName string
	Country      string
	Category     string
	SubCategory  string
	ProductName  string
	Sales        float64
	Profit       float64
	ShippingCost float64
	Discount     string  // raw source token, normalized per query
	Loss         float64 // "Pérdida" column, tracked apart from Profit
}

type KPISummary struct {
	GrossRevenue float64 `json:"gross_revenue"`
	AvgOrder     float64 `json:"avg_order"`
	ProfitMargin string  `json:"profit_margin"`
	SalesTrend   string  `json:"sales_trend"`
	OrderTrend   string  `json:"order_trend"`
	CurrentYear  int     `json:"current_year"`
}

// MonthlySales carries one calendar month of the sales-over-time series.
// Date is the Spanish three-letter month abbreviation.
type MonthlySales struct {
	Date       string  `json:"date"`
	Sales      float64 `json:"Sales"`
	DaysToShip float64 `json:"Days_to_Ship"`
}

type CategoryBreakdown struct {
	Category      string  `json:"Category"`
	Sales         float64 `json:"Sales"`
	Profit        float64 `json:"Profit"`
	DiscountValue float64 `json:"Discount_Value"`
}

type ChartsReport struct {
	SalesOverTime []MonthlySales      `json:"sales_over_time"`
	CategoryData  []CategoryBreakdown `json:"category_data"`
}

type SubCategoryStat struct {
	SubCategory string  `json:"Sub-Category"`
	Sales       float64 `json:"Sales"`
	Profit      float64 `json:"Profit"`
}

type ShippingItem struct {
	Name         string  `json:"name"`
	FullName     string  `json:"fullName"`
	ShippingCost float64 `json:"shipping_cost"`
	Profit       float64 `json:"profit"`
	OrderID      string  `json:"order_id"`
}

type ProductLoss struct {
	Name       string  `json:"name"`
	FullName   string  `json:"fullName"`
	LossAmount float64 `json:"loss_amount"`
	Sales      float64 `json:"sales"`
}

type ProductSales struct {
	Name     string  `json:"name"`
	FullName string  `json:"fullName"`
	Sales    float64 `json:"sales"`
}

type ProductReport struct {
	Shipping  []ShippingItem `json:"shipping"`
	TopLosses []ProductLoss  `json:"top_losses"`
	Bottom20  []ProductSales `json:"bottom_20"`
}

type DiscountedProduct struct {
	Name          string  `json:"name"`
	FullName      string  `json:"fullName"`
	DiscountValue float64 `json:"discountValue"`
	Profit        float64 `json:"profit"`
}

type DiscountBucket struct {
	Group  string  `json:"group"`
	Profit float64 `json:"profit"`
}

type DiscountImpactReport struct {
	Data               []DiscountBucket `json:"data"`
	TotalLossFormatted string           `json:"total_loss_formatted"`
}

type DiscountNetImpactReport struct {
	Data                  []DiscountBucket `json:"data"`
	TotalNetLossFormatted string           `json:"total_net_loss_formatted"`
}

type CustomerStat struct {
	Name   string  `json:"name"`
	Sales  float64 `json:"sales"`
	Profit float64 `json:"profit"`
	Orders int     `json:"orders"`
}

type CustomerReport struct {
	TopProfitable    []CustomerStat `json:"topProfitable"`
	TopRevenue       []CustomerStat `json:"topRevenue"`
	BottomProfitable []CustomerStat `json:"bottomProfitable"`
	BottomRevenue    []CustomerStat `json:"bottomRevenue"`
	Segmentation     []CustomerStat `json:"segmentation"`
}

// CountryStat.Orders counts line items, not distinct order IDs. The
// customer rollup counts distinct IDs instead; the mismatch comes from the
// source data contract and is kept as-is.
type CountryStat struct {
	Country string  `json:"country"`
	Sales   float64 `json:"sales"`
	Profit  float64 `json:"profit"`
	Orders  int     `json:"orders"`
}

type ShippingRelation struct {
	Country      string  `json:"country"`
	AvgShipping  float64 `json:"avg_shipping"`
	ProfitMargin float64 `json:"profit_margin"`
}

type CountryProfit struct {
	Country string  `json:"country"`
	Profit  float64 `json:"profit"`
}

type CriticalCountry struct {
	Country string `json:"country"`
	Count   int    `json:"count"`
}

type CountryReport struct {
	Outlier          CountryStat        `json:"outlier"`
	BubbleData       []CountryStat      `json:"bubble_data"`
	ShippingRelation []ShippingRelation `json:"shipping_relation"`
	BottomCountries  []CountryProfit    `json:"bottom_countries"`
	CriticalGeo      []CriticalCountry  `json:"critical_geo"`
}
