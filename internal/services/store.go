package services

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"math"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"supertienda-dashboard/internal/models"
)

const (
	parseBatchSize  = 10000
	maxParseWorkers = 10
)

// Dataset is the read-only table shared by every query. It is built once
// by LoadFromCSV and never mutated afterwards.
type Dataset struct {
	Orders   []models.Order
	Source   string
	LoadedAt time.Time
}

// Store owns the dataset handle. The dataset stays nil until a load
// succeeds; queries observe that through Snapshot and report unavailable
// instead of operating on partial data.
type Store struct {
	mu      sync.RWMutex
	dataset *Dataset
	logger  *slog.Logger
}

func NewStore(logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{logger: logger}
}

// SetData replaces the dataset from already-parsed rows. Used by tests.
func (s *Store) SetData(orders []models.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dataset = &Dataset{
		Orders:   orders,
		Source:   "inline",
		LoadedAt: time.Now(),
	}
}

// Snapshot returns the shared dataset. ok is false until a load with at
// least one retained row has completed.
func (s *Store) Snapshot() (*Dataset, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.dataset == nil || len(s.dataset.Orders) == 0 {
		return nil, false
	}
	return s.dataset, true
}

func (s *Store) Loaded() bool {
	_, ok := s.Snapshot()
	return ok
}

// LoadFromCSV reads the whole order file into memory. Rows with an
// unparseable order date are dropped; malformed currency values become
// zero. On any error the previous state is kept (typically: unavailable).
func (s *Store) LoadFromCSV(ctx context.Context, path string) error {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("stat csv: %w", err)
	}

	start := time.Now()
	s.logger.Info("loading order file", "path", path)

	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open csv: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return fmt.Errorf("read csv: %w", err)
	}
	if len(records) < 2 {
		return fmt.Errorf("csv has no data rows")
	}

	cols, err := resolveColumns(records[0])
	if err != nil {
		return err
	}

	orders, err := parseRows(ctx, records[1:], cols)
	if err != nil {
		return err
	}
	if len(orders) == 0 {
		return fmt.Errorf("no rows with a valid order date")
	}

	s.mu.Lock()
	s.dataset = &Dataset{
		Orders:   orders,
		Source:   path,
		LoadedAt: time.Now(),
	}
	s.mu.Unlock()

	s.logger.Info("order file loaded",
		"records", len(orders),
		"dropped", len(records)-1-len(orders),
		"duration", time.Since(start))
	return nil
}

type columnIndex struct {
	orderID     int
	orderDate   int
	shipDate    int
	customer    int
	country     int
	category    int
	subCategory int
	product     int
	sales       int
	profit      int
	shipping    int
	discount    int
	loss        int
}

func resolveColumns(header []string) (columnIndex, error) {
	byName := make(map[string]int, len(header))
	for i, name := range header {
		// The export is UTF-8 with a BOM on the first header cell.
		name = strings.TrimPrefix(name, "\uFEFF")
		byName[strings.TrimSpace(name)] = i
	}

	cols := columnIndex{}
	for _, c := range []struct {
		name string
		dst  *int
	}{
		{"Order ID", &cols.orderID},
		{"Order Date", &cols.orderDate},
		{"Ship Date", &cols.shipDate},
		{"Customer Name", &cols.customer},
		{"Country", &cols.country},
		{"Category", &cols.category},
		{"Sub-Category", &cols.subCategory},
		{"Product Name", &cols.product},
		{"Sales", &cols.sales},
		{"Profit", &cols.profit},
		{"Shipping Cost", &cols.shipping},
		{"Discount", &cols.discount},
		{"Pérdida", &cols.loss},
	} {
		idx, ok := byName[c.name]
		if !ok {
			return columnIndex{}, fmt.Errorf("missing column %q", c.name)
		}
		*c.dst = idx
	}
	return cols, nil
}

func parseRows(ctx context.Context, records [][]string, cols columnIndex) ([]models.Order, error) {
	parsed := make([]models.Order, len(records))
	valid := make([]bool, len(records))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParseWorkers)

	for startIdx := 0; startIdx < len(records); startIdx += parseBatchSize {
		start := startIdx
		end := min(start+parseBatchSize, len(records))
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			for i := start; i < end; i++ {
				parsed[i], valid[i] = parseOrder(records[i], cols)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	orders := make([]models.Order, 0, len(records))
	for i, ok := range valid {
		if ok {
			orders = append(orders, parsed[i])
		}
	}
	return orders, nil
}

func parseOrder(record []string, cols columnIndex) (models.Order, bool) {
	field := func(i int) string {
		if i < 0 || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	orderDate, ok := parseDayFirst(field(cols.orderDate))
	if !ok {
		return models.Order{}, false
	}
	// Bad ship dates are tolerated; only lead-time views skip those rows.
	shipDate, _ := parseDayFirst(field(cols.shipDate))

	return models.Order{
		OrderID:      field(cols.orderID),
		OrderDate:    orderDate,
		ShipDate:     shipDate,
		CustomerName: field(cols.customer),
		Country:      field(cols.country),
		Category:     field(cols.category),
		SubCategory:  field(cols.subCategory),
		ProductName:  field(cols.product),
		Sales:        parseAmount(field(cols.sales)),
		Profit:       parseAmount(field(cols.profit)),
		ShippingCost: parseAmount(field(cols.shipping)),
		Discount:     field(cols.discount),
		Loss:         parseAmount(field(cols.loss)),
	}, true
}

// dayFirstLayouts covers the export's day-first date forms plus ISO.
var dayFirstLayouts = []string{
	"2/1/2006",
	"02/01/2006",
	"2-1-2006",
	"02-01-2006",
	"2006-01-02",
}

func parseDayFirst(value string) (time.Time, bool) {
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range dayFirstLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// parseAmount coerces a currency cell to a float. Thousands separators are
// stripped, a lone dash means zero, and anything unparseable or non-finite
// becomes zero.
func parseAmount(value string) float64 {
	if value == "" || value == "-" {
		return 0
	}
	value = strings.ReplaceAll(value, ",", "")
	v, err := strconv.ParseFloat(value, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
