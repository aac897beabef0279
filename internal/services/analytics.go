package services

import (
	"errors"
	"log/slog"
	"math"
	"slices"
	"strconv"
	"strings"

	"supertienda-dashboard/internal/models"
)

// ErrDatasetUnavailable is returned by every query until a dataset load
// has succeeded. Handlers translate it to a 503.
var ErrDatasetUnavailable = errors.New("dataset not loaded")

// Analytics answers the dashboard reports. Every method reads one dataset
// snapshot, aggregates in memory and returns a freshly built result, so
// repeated calls with unchanged state are idempotent.
type Analytics struct {
	store  *Store
	logger *slog.Logger
}

func NewAnalytics(store *Store, logger *slog.Logger) *Analytics {
	if logger == nil {
		logger = slog.Default()
	}
	return &Analytics{store: store, logger: logger}
}

func (a *Analytics) snapshot() (*Dataset, error) {
	ds, ok := a.store.Snapshot()
	if !ok {
		return nil, ErrDatasetUnavailable
	}
	return ds, nil
}

func maxYear(orders []models.Order) int {
	year := 0
	for _, o := range orders {
		if y := o.OrderDate.Year(); y > year {
			year = y
		}
	}
	return year
}

// KPISummary reports current-year revenue, average order value, profit
// margin and the revenue trend against the prior year.
func (a *Analytics) KPISummary() (models.KPISummary, error) {
	ds, err := a.snapshot()
	if err != nil {
		return models.KPISummary{}, err
	}

	currentYear := maxYear(ds.Orders)
	var salesLast, profitLast, salesPrev float64
	orderSales := make(map[string]float64)

	for _, o := range ds.Orders {
		switch o.OrderDate.Year() {
		case currentYear:
			salesLast += o.Sales
			profitLast += o.Profit
			orderSales[o.OrderID] += o.Sales
		case currentYear - 1:
			salesPrev += o.Sales
		}
	}

	var avgOrder float64
	if len(orderSales) > 0 {
		var total float64
		for _, v := range orderSales {
			total += v
		}
		avgOrder = total / float64(len(orderSales))
	}

	// Empty current or prior years fall back to plain "0%" rather
	// than the decimal form used for computed values.
	margin := "0%"
	if salesLast > 0 {
		margin = formatPercent(profitLast / salesLast * 100)
	}
	trend := "+0%"
	if salesPrev > 0 {
		trend = formatSignedPercent((salesLast - salesPrev) / salesPrev * 100)
	}

	return models.KPISummary{
		GrossRevenue: round2(salesLast),
		AvgOrder:     round2(avgOrder),
		ProfitMargin: margin,
		SalesTrend:   trend,
		OrderTrend:   "+1.2%",
		CurrentYear:  currentYear,
	}, nil
}

var monthLabels = map[int]string{
	1: "Ene", 2: "Feb", 3: "Mar", 4: "Abr", 5: "May", 6: "Jun",
	7: "Jul", 8: "Ago", 9: "Sep", 10: "Oct", 11: "Nov", 12: "Dic",
}

// Charts builds the monthly sales/lead-time series and the category
// breakdown. Rows without a parsed ship date are excluded from both, since
// lead time cannot be derived for them.
func (a *Analytics) Charts() (models.ChartsReport, error) {
	ds, err := a.snapshot()
	if err != nil {
		return models.ChartsReport{}, err
	}

	type monthAgg struct {
		sales float64
		days  float64
		count int
	}
	type catAgg struct {
		sales  float64
		profit float64
		loss   float64
	}
	months := make(map[int]*monthAgg)
	categories := make(map[string]*catAgg)

	for _, o := range ds.Orders {
		if o.ShipDate.IsZero() {
			continue
		}
		leadDays := int(o.ShipDate.Sub(o.OrderDate).Hours() / 24)

		m := int(o.OrderDate.Month())
		ma := months[m]
		if ma == nil {
			ma = &monthAgg{}
			months[m] = ma
		}
		ma.sales += o.Sales
		ma.days += float64(leadDays)
		ma.count++

		ca := categories[o.Category]
		if ca == nil {
			ca = &catAgg{}
			categories[o.Category] = ca
		}
		ca.sales += o.Sales
		ca.profit += o.Profit
		ca.loss += o.Loss
	}

	salesOverTime := make([]models.MonthlySales, 0, len(months))
	for m := 1; m <= 12; m++ {
		ma, ok := months[m]
		if !ok {
			continue
		}
		salesOverTime = append(salesOverTime, models.MonthlySales{
			Date:       monthLabels[m],
			Sales:      ma.sales,
			DaysToShip: ma.days / float64(ma.count),
		})
	}

	categoryData := make([]models.CategoryBreakdown, 0, len(categories))
	for name, ca := range categories {
		categoryData = append(categoryData, models.CategoryBreakdown{
			Category:      name,
			Sales:         ca.sales,
			Profit:        ca.profit,
			DiscountValue: math.Abs(ca.loss),
		})
	}
	slices.SortFunc(categoryData, func(x, y models.CategoryBreakdown) int {
		return strings.Compare(x.Category, y.Category)
	})

	return models.ChartsReport{
		SalesOverTime: salesOverTime,
		CategoryData:  categoryData,
	}, nil
}

// SubCategoryRanking sums sales and profit per sub-category over the
// current (max) year only, ordered by profit descending.
func (a *Analytics) SubCategoryRanking() ([]models.SubCategoryStat, error) {
	ds, err := a.snapshot()
	if err != nil {
		return nil, err
	}

	currentYear := maxYear(ds.Orders)
	type agg struct {
		sales  float64
		profit float64
	}
	groups := make(map[string]*agg)
	for _, o := range ds.Orders {
		if o.OrderDate.Year() != currentYear {
			continue
		}
		g := groups[o.SubCategory]
		if g == nil {
			g = &agg{}
			groups[o.SubCategory] = g
		}
		g.sales += o.Sales
		g.profit += o.Profit
	}

	result := make([]models.SubCategoryStat, 0, len(groups))
	for name, g := range groups {
		result = append(result, models.SubCategoryStat{
			SubCategory: name,
			Sales:       g.sales,
			Profit:      g.profit,
		})
	}
	slices.SortFunc(result, func(x, y models.SubCategoryStat) int {
		return compareDesc(x.Profit, y.Profit)
	})
	return result, nil
}

const (
	topShippingLimit = 300
	topLossesLimit   = 25
	bottomSalesLimit = 20
)

// ProductAnalysis covers three independent product views over all years:
// the 300 most expensive line items to ship, the 25 worst money-losing
// products and the 20 lowest-revenue products.
func (a *Analytics) ProductAnalysis() (models.ProductReport, error) {
	ds, err := a.snapshot()
	if err != nil {
		return models.ProductReport{}, err
	}

	byShipping := slices.Clone(ds.Orders)
	slices.SortFunc(byShipping, func(x, y models.Order) int {
		return compareDesc(x.ShippingCost, y.ShippingCost)
	})
	if len(byShipping) > topShippingLimit {
		byShipping = byShipping[:topShippingLimit]
	}
	shipping := make([]models.ShippingItem, 0, len(byShipping))
	for _, o := range byShipping {
		shipping = append(shipping, models.ShippingItem{
			Name:         truncateName(o.ProductName, 20),
			FullName:     o.ProductName,
			ShippingCost: sanitizeAmount(o.ShippingCost),
			Profit:       sanitizeAmount(o.Profit),
			OrderID:      o.OrderID,
		})
	}

	type agg struct {
		name   string
		sales  float64
		profit float64
	}
	groups := make(map[string]*agg)
	for _, o := range ds.Orders {
		g := groups[o.ProductName]
		if g == nil {
			g = &agg{name: o.ProductName}
			groups[o.ProductName] = g
		}
		g.sales += sanitizeAmount(o.Sales)
		g.profit += sanitizeAmount(o.Profit)
	}
	products := make([]*agg, 0, len(groups))
	for _, g := range groups {
		products = append(products, g)
	}

	losing := make([]*agg, 0)
	for _, g := range products {
		if g.profit < 0 {
			losing = append(losing, g)
		}
	}
	slices.SortFunc(losing, func(x, y *agg) int {
		return compareAsc(x.profit, y.profit)
	})
	if len(losing) > topLossesLimit {
		losing = losing[:topLossesLimit]
	}
	topLosses := make([]models.ProductLoss, 0, len(losing))
	for _, g := range losing {
		topLosses = append(topLosses, models.ProductLoss{
			Name:       truncateName(g.name, 20),
			FullName:   g.name,
			LossAmount: g.profit,
			Sales:      g.sales,
		})
	}

	slices.SortFunc(products, func(x, y *agg) int {
		return compareAsc(x.sales, y.sales)
	})
	bottom := products
	if len(bottom) > bottomSalesLimit {
		bottom = bottom[:bottomSalesLimit]
	}
	bottom20 := make([]models.ProductSales, 0, len(bottom))
	for _, g := range bottom {
		bottom20 = append(bottom20, models.ProductSales{
			Name:     truncateName(g.name, 20),
			FullName: g.name,
			Sales:    g.sales,
		})
	}

	return models.ProductReport{
		Shipping:  shipping,
		TopLosses: topLosses,
		Bottom20:  bottom20,
	}, nil
}

const topDiscountsLimit = 25

// TopDiscounts ranks products by granted discount volume, taken as the
// absolute value of the summed loss column.
func (a *Analytics) TopDiscounts() ([]models.DiscountedProduct, error) {
	ds, err := a.snapshot()
	if err != nil {
		return nil, err
	}

	type agg struct {
		name   string
		profit float64
		loss   float64
	}
	groups := make(map[string]*agg)
	for _, o := range ds.Orders {
		g := groups[o.ProductName]
		if g == nil {
			g = &agg{name: o.ProductName}
			groups[o.ProductName] = g
		}
		g.profit += o.Profit
		g.loss += o.Loss
	}

	products := make([]*agg, 0, len(groups))
	for _, g := range groups {
		products = append(products, g)
	}
	slices.SortFunc(products, func(x, y *agg) int {
		return compareDesc(math.Abs(x.loss), math.Abs(y.loss))
	})
	if len(products) > topDiscountsLimit {
		products = products[:topDiscountsLimit]
	}

	result := make([]models.DiscountedProduct, 0, len(products))
	for _, g := range products {
		result = append(result, models.DiscountedProduct{
			// Chart labels here use 25 chars, not the 20 used elsewhere.
			Name:          truncateName(g.name, 25),
			FullName:      g.name,
			DiscountValue: round2(math.Abs(g.loss)),
			Profit:        round2(g.profit),
		})
	}
	return result, nil
}

var discountBucketLabels = [...]string{"0%", "1-5%", "6-10%", "11-15%", "16-20%", "Más de 20%"}

// discountBucketIndex bins a discount fraction. Upper bounds are
// inclusive; anything above 2.0 is treated as garbage and dropped.
func discountBucketIndex(d float64) int {
	switch {
	case d <= 0:
		return 0
	case d <= 0.05:
		return 1
	case d <= 0.10:
		return 2
	case d <= 0.15:
		return 3
	case d <= 0.20:
		return 4
	case d <= 2.0:
		return 5
	}
	return -1
}

// parseDiscount normalizes a raw discount cell to a fraction. Percent
// strings ("10.00%") are divided by 100; plain numbers pass through;
// unparseable values default to zero.
func parseDiscount(raw string) float64 {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0
	}
	if strings.HasSuffix(s, "%") {
		v, err := strconv.ParseFloat(strings.TrimSuffix(s, "%"), 64)
		if err != nil {
			return 0
		}
		return v / 100
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

func (a *Analytics) discountBucketTotals(amount func(models.Order) float64) ([]models.DiscountBucket, float64, error) {
	ds, err := a.snapshot()
	if err != nil {
		return nil, 0, err
	}

	var totals [len(discountBucketLabels)]float64
	for _, o := range ds.Orders {
		idx := discountBucketIndex(parseDiscount(o.Discount))
		if idx < 0 {
			continue
		}
		totals[idx] += amount(o)
	}

	buckets := make([]models.DiscountBucket, len(discountBucketLabels))
	var negative float64
	for i, label := range discountBucketLabels {
		buckets[i] = models.DiscountBucket{Group: label, Profit: round2(totals[i])}
		if totals[i] < 0 {
			negative += totals[i]
		}
	}
	return buckets, negative, nil
}

// DiscountImpact sums the loss column per discount bucket. The formatted
// total covers only the buckets whose sum came out negative.
func (a *Analytics) DiscountImpact() (models.DiscountImpactReport, error) {
	buckets, negative, err := a.discountBucketTotals(func(o models.Order) float64 { return o.Loss })
	if err != nil {
		return models.DiscountImpactReport{}, err
	}
	return models.DiscountImpactReport{
		Data:               buckets,
		TotalLossFormatted: formatUSD(negative),
	}, nil
}

// DiscountNetImpact is the profit-summing variant of DiscountImpact.
func (a *Analytics) DiscountNetImpact() (models.DiscountNetImpactReport, error) {
	buckets, negative, err := a.discountBucketTotals(func(o models.Order) float64 { return o.Profit })
	if err != nil {
		return models.DiscountNetImpactReport{}, err
	}
	return models.DiscountNetImpactReport{
		Data:                  buckets,
		TotalNetLossFormatted: formatUSD(negative),
	}, nil
}

const customerViewLimit = 20

// CustomerAnalysis derives five views from one customer rollup: top and
// bottom 20 by profit and by sales, plus the full set for the scatter
// plot. Order counts here are distinct order IDs.
func (a *Analytics) CustomerAnalysis() (models.CustomerReport, error) {
	ds, err := a.snapshot()
	if err != nil {
		return models.CustomerReport{}, err
	}

	type agg struct {
		sales  float64
		profit float64
		orders map[string]struct{}
	}
	groups := make(map[string]*agg)
	for _, o := range ds.Orders {
		g := groups[o.CustomerName]
		if g == nil {
			g = &agg{orders: make(map[string]struct{})}
			groups[o.CustomerName] = g
		}
		g.sales += o.Sales
		g.profit += o.Profit
		g.orders[o.OrderID] = struct{}{}
	}

	customers := make([]models.CustomerStat, 0, len(groups))
	for name, g := range groups {
		customers = append(customers, models.CustomerStat{
			Name:   name,
			Sales:  round2(g.sales),
			Profit: round2(g.profit),
			Orders: len(g.orders),
		})
	}
	slices.SortFunc(customers, func(x, y models.CustomerStat) int {
		return strings.Compare(x.Name, y.Name)
	})

	rank := func(less func(x, y models.CustomerStat) int) []models.CustomerStat {
		sorted := slices.Clone(customers)
		slices.SortStableFunc(sorted, less)
		if len(sorted) > customerViewLimit {
			sorted = sorted[:customerViewLimit]
		}
		return sorted
	}

	return models.CustomerReport{
		TopProfitable: rank(func(x, y models.CustomerStat) int {
			return compareDesc(x.Profit, y.Profit)
		}),
		TopRevenue: rank(func(x, y models.CustomerStat) int {
			return compareDesc(x.Sales, y.Sales)
		}),
		BottomProfitable: rank(func(x, y models.CustomerStat) int {
			return compareAsc(x.Profit, y.Profit)
		}),
		BottomRevenue: rank(func(x, y models.CustomerStat) int {
			return compareAsc(x.Sales, y.Sales)
		}),
		Segmentation: customers,
	}, nil
}

const (
	bubbleCountryLimit   = 50
	bottomCountryLimit   = 15
	criticalCountryLimit = 15
)

// CountryAnalysis reports the dominating country separately from the next
// 50 ("bubble") countries, a shipping-cost-vs-margin view over every
// country, the 15 lowest-profit countries, and the countries with the most
// money-losing customer relationships.
func (a *Analytics) CountryAnalysis() (models.CountryReport, error) {
	ds, err := a.snapshot()
	if err != nil {
		return models.CountryReport{}, err
	}

	type agg struct {
		sales    float64
		profit   float64
		shipping float64
		rows     int
	}
	groups := make(map[string]*agg)
	type pairKey struct {
		customer string
		country  string
	}
	pairProfit := make(map[pairKey]float64)

	for _, o := range ds.Orders {
		g := groups[o.Country]
		if g == nil {
			g = &agg{}
			groups[o.Country] = g
		}
		g.sales += o.Sales
		g.profit += o.Profit
		g.shipping += o.ShippingCost
		g.rows++
		pairProfit[pairKey{o.CustomerName, o.Country}] += o.Profit
	}

	countries := make([]models.CountryStat, 0, len(groups))
	for name, g := range groups {
		countries = append(countries, models.CountryStat{
			Country: name,
			Sales:   g.sales,
			Profit:  g.profit,
			Orders:  g.rows,
		})
	}

	bySales := slices.Clone(countries)
	slices.SortFunc(bySales, func(x, y models.CountryStat) int {
		return compareDesc(x.Sales, y.Sales)
	})
	outlier := bySales[0]
	bubble := bySales[1:]
	if len(bubble) > bubbleCountryLimit {
		bubble = bubble[:bubbleCountryLimit]
	}

	byName := slices.Clone(countries)
	slices.SortFunc(byName, func(x, y models.CountryStat) int {
		return strings.Compare(x.Country, y.Country)
	})
	shippingRelation := make([]models.ShippingRelation, 0, len(byName))
	for _, c := range byName {
		g := groups[c.Country]
		var margin float64
		if g.sales != 0 {
			margin = g.profit / g.sales * 100
		}
		shippingRelation = append(shippingRelation, models.ShippingRelation{
			Country:      c.Country,
			AvgShipping:  round2(g.shipping / float64(g.rows)),
			ProfitMargin: round2(margin),
		})
	}

	byProfit := slices.Clone(countries)
	slices.SortFunc(byProfit, func(x, y models.CountryStat) int {
		return compareAsc(x.Profit, y.Profit)
	})
	if len(byProfit) > bottomCountryLimit {
		byProfit = byProfit[:bottomCountryLimit]
	}
	bottom := make([]models.CountryProfit, 0, len(byProfit))
	for _, c := range byProfit {
		bottom = append(bottom, models.CountryProfit{Country: c.Country, Profit: c.Profit})
	}

	losingCounts := make(map[string]int)
	for key, profit := range pairProfit {
		if profit < 0 {
			losingCounts[key.country]++
		}
	}
	critical := make([]models.CriticalCountry, 0, len(losingCounts))
	for country, count := range losingCounts {
		critical = append(critical, models.CriticalCountry{Country: country, Count: count})
	}
	slices.SortFunc(critical, func(x, y models.CriticalCountry) int {
		if x.Count != y.Count {
			return y.Count - x.Count
		}
		return strings.Compare(x.Country, y.Country)
	})
	if len(critical) > criticalCountryLimit {
		critical = critical[:criticalCountryLimit]
	}

	return models.CountryReport{
		Outlier:          outlier,
		BubbleData:       bubble,
		ShippingRelation: shippingRelation,
		BottomCountries:  bottom,
		CriticalGeo:      critical,
	}, nil
}

// Stats powers the admin endpoint.
func (a *Analytics) Stats() map[string]any {
	ds, ok := a.store.Snapshot()
	if !ok {
		return map[string]any{"loaded": false}
	}

	orderIDs := make(map[string]struct{})
	countries := make(map[string]struct{})
	products := make(map[string]struct{})
	customers := make(map[string]struct{})
	for _, o := range ds.Orders {
		orderIDs[o.OrderID] = struct{}{}
		countries[o.Country] = struct{}{}
		products[o.ProductName] = struct{}{}
		customers[o.CustomerName] = struct{}{}
	}

	return map[string]any{
		"loaded":       true,
		"source":       ds.Source,
		"loaded_at":    ds.LoadedAt,
		"record_count": len(ds.Orders),
		"orders":       len(orderIDs),
		"countries":    len(countries),
		"products":     len(products),
		"customers":    len(customers),
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// sanitizeAmount guards serialization against non-finite values that could
// slip in through arithmetic.
func sanitizeAmount(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func compareAsc(x, y float64) int {
	switch {
	case x < y:
		return -1
	case x > y:
		return 1
	}
	return 0
}

func compareDesc(x, y float64) int {
	return compareAsc(y, x)
}

// truncateName keeps the first n characters and always appends an
// ellipsis, matching the dashboard's chart label convention.
func truncateName(s string, n int) string {
	runes := []rune(s)
	if len(runes) > n {
		runes = runes[:n]
	}
	return string(runes) + "..."
}

// formatPercent renders a percentage the way the dashboard shows it:
// rounded to two decimals, whole numbers keeping one decimal place
// ("11.61%", "50.0%").
func formatPercent(v float64) string {
	s := strconv.FormatFloat(round2(v), 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s + "%"
}

func formatSignedPercent(v float64) string {
	if v >= 0 {
		return "+" + formatPercent(v)
	}
	return formatPercent(v)
}

// formatUSD renders an amount as "$-924,232 USD": zero decimals with
// thousands separators.
func formatUSD(v float64) string {
	n := int64(math.Round(v))
	sign := ""
	if n < 0 {
		sign = "-"
		n = -n
	}
	digits := strconv.FormatInt(n, 10)
	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return "$" + sign + b.String() + " USD"
}
