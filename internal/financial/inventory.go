// Package financial derives every displayed metric from raw records: stock
// value and low-stock detection, the stock-sheet income statement and the
// revenue trend. All functions are pure; nothing here rounds except Round2
// and FormatMoney.
package financial

import (
	"sort"
	"time"

	"barstock-backend/internal/models"

	"github.com/shopspring/decimal"
)

type StockStatus string

const (
	StockLow    StockStatus = "low"
	StockMedium StockStatus = "medium"
	StockGood   StockStatus = "good"
)

// StockStatusOf: low at or below MinStock, medium up to 1.5 × MinStock.
func StockStatusOf(item models.InventoryItem) StockStatus {
	switch {
	case item.Quantity <= item.MinStock:
		return StockLow
	case 2*item.Quantity <= 3*item.MinStock:
		return StockMedium
	default:
		return StockGood
	}
}

func IsLowStock(item models.InventoryItem) bool {
	return item.Quantity <= item.MinStock
}

// TotalItemCount sums quantities, not records.
func TotalItemCount(items []models.InventoryItem) int64 {
	var total int64
	for _, it := range items {
		total += it.Quantity
	}
	return total
}

// LowStockItems keeps input order; equality counts as low.
func LowStockItems(items []models.InventoryItem) []models.InventoryItem {
	out := make([]models.InventoryItem, 0)
	for _, it := range items {
		if IsLowStock(it) {
			out = append(out, it)
		}
	}
	return out
}

func itemValue(it models.InventoryItem) decimal.Decimal {
	return it.PurchasePrice.Mul(decimal.NewFromInt(it.Quantity))
}

func itemRevenue(it models.InventoryItem) decimal.Decimal {
	return it.SellingPrice.Mul(decimal.NewFromInt(it.Quantity))
}

func itemProfit(it models.InventoryItem) decimal.Decimal {
	return it.SellingPrice.Sub(it.PurchasePrice).Mul(decimal.NewFromInt(it.Quantity))
}

// TotalInventoryValue is Σ quantity × purchasePrice.
func TotalInventoryValue(items []models.InventoryItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(itemValue(it))
	}
	return total
}

// PotentialRevenue is Σ quantity × sellingPrice.
func PotentialRevenue(items []models.InventoryItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(itemRevenue(it))
	}
	return total
}

type CategoryStats struct {
	Items   int             `json:"items"` // records
	Units   int64           `json:"units"` // summed quantity
	Revenue decimal.Decimal `json:"revenue"`
	Profit  decimal.Decimal `json:"profit"`
}

// CategoryBreakdown groups by category. Categories absent from items are
// absent from the map.
func CategoryBreakdown(items []models.InventoryItem) map[models.ItemCategory]CategoryStats {
	out := make(map[models.ItemCategory]CategoryStats)
	for _, it := range items {
		st, ok := out[it.Category]
		if !ok {
			st = CategoryStats{Revenue: decimal.Zero, Profit: decimal.Zero}
		}
		st.Items++
		st.Units += it.Quantity
		st.Revenue = st.Revenue.Add(itemRevenue(it))
		st.Profit = st.Profit.Add(itemProfit(it))
		out[it.Category] = st
	}
	return out
}

type InventorySummary struct {
	TotalItems       int64                                 `json:"total_items"`
	ItemCount        int                                   `json:"item_count"`
	TotalValue       decimal.Decimal                       `json:"total_value"`
	PotentialRevenue decimal.Decimal                       `json:"potential_revenue"`
	PotentialProfit  decimal.Decimal                       `json:"potential_profit"`
	LowStockCount    int                                   `json:"low_stock_count"`
	Categories       map[models.ItemCategory]CategoryStats `json:"categories"`
}

// SummarizeInventory computes the dashboard figures in one pass per metric.
func SummarizeInventory(items []models.InventoryItem) InventorySummary {
	value, revenue := TotalInventoryValue(items), PotentialRevenue(items)
	return InventorySummary{
		TotalItems:       TotalItemCount(items),
		ItemCount:        len(items),
		TotalValue:       value,
		PotentialRevenue: revenue,
		PotentialProfit:  revenue.Sub(value),
		LowStockCount:    len(LowStockItems(items)),
		Categories:       CategoryBreakdown(items),
	}
}

// ------------------------------------------------------
// Potential revenue report
// ------------------------------------------------------

type CategoryRevenue struct {
	Category models.ItemCategory `json:"category"`
	CategoryStats
}

type ItemRevenue struct {
	ID       string              `json:"id"`
	Name     string              `json:"name"`
	Category models.ItemCategory `json:"category"`
	Quantity int64               `json:"quantity"`
	Unit     models.ItemUnit     `json:"unit"`
	Revenue  decimal.Decimal     `json:"revenue"`
	Profit   decimal.Decimal     `json:"profit"`
	Margin   decimal.Decimal     `json:"margin"` // percent of cost
}

type PotentialRevenueReport struct {
	TotalPotentialRevenue decimal.Decimal   `json:"total_potential_revenue"`
	TotalInvestment       decimal.Decimal   `json:"total_investment"`
	PotentialProfit       decimal.Decimal   `json:"potential_profit"`
	ProfitMargin          decimal.Decimal   `json:"profit_margin"`
	BestCategory          string            `json:"best_category"`
	Categories            []CategoryRevenue `json:"categories"`
	Trend                 []ProjectionPoint `json:"trend"`
	Items                 []ItemRevenue     `json:"items"`
}

const noCategory = "N/A"

var hundred = decimal.NewFromInt(100)

// marginPercent is profit as a percentage of cost; zero cost gives zero.
func marginPercent(profit, cost decimal.Decimal) decimal.Decimal {
	if cost.IsZero() {
		return decimal.Zero
	}
	return profit.Mul(hundred).Div(cost)
}

// RevenueAnalysis builds the potential-revenue page from the current snapshot.
func RevenueAnalysis(items []models.InventoryItem, now time.Time) PotentialRevenueReport {
	revenue := PotentialRevenue(items)
	investment := TotalInventoryValue(items)
	profit := revenue.Sub(investment)

	breakdown := CategoryBreakdown(items)
	cats := make([]CategoryRevenue, 0, len(breakdown))
	for c, st := range breakdown {
		cats = append(cats, CategoryRevenue{Category: c, CategoryStats: st})
	}
	sort.Slice(cats, func(i, j int) bool { return cats[i].Category < cats[j].Category })

	best := noCategory
	var bestProfit decimal.Decimal
	for i, c := range cats {
		if i == 0 || c.Profit.GreaterThan(bestProfit) {
			best, bestProfit = string(c.Category), c.Profit
		}
	}

	perItem := make([]ItemRevenue, 0, len(items))
	for _, it := range items {
		p := itemProfit(it)
		perItem = append(perItem, ItemRevenue{
			ID:       it.ID,
			Name:     it.Name,
			Category: it.Category,
			Quantity: it.Quantity,
			Unit:     it.Unit,
			Revenue:  itemRevenue(it),
			Profit:   p,
			Margin:   marginPercent(p, itemValue(it)),
		})
	}

	return PotentialRevenueReport{
		TotalPotentialRevenue: revenue,
		TotalInvestment:       investment,
		PotentialProfit:       profit,
		ProfitMargin:          marginPercent(profit, investment),
		BestCategory:          best,
		Categories:            cats,
		Trend:                 Project(revenue, profit, now),
		Items:                 perItem,
	}
}
