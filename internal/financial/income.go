package financial

import (
	"barstock-backend/internal/models"

	"github.com/shopspring/decimal"
)

// UnknownCategory labels sales whose catalog item could not be joined.
const UnknownCategory = "Unknown"

// FinancialSummary is the income statement of one stock sheet.
type FinancialSummary struct {
	TotalSales         decimal.Decimal            `json:"total_sales"`
	OpeningStock       decimal.Decimal            `json:"opening_stock"`
	TotalPurchases     decimal.Decimal            `json:"total_purchases"`
	ClosingStock       decimal.Decimal            `json:"closing_stock"`
	CostOfGoodsSold    decimal.Decimal            `json:"cost_of_goods_sold"`
	GrossProfit        decimal.Decimal            `json:"gross_profit"`
	TotalExpenses      decimal.Decimal            `json:"total_expenses"`
	NetProfit          decimal.Decimal            `json:"net_profit"`
	SalesByCategory    map[string]decimal.Decimal `json:"sales_by_category"`
	ExpensesByCategory map[string]decimal.Decimal `json:"expenses_by_category"`
}

// IsLoss reports a negative net result.
func (s FinancialSummary) IsLoss() bool {
	return s.NetProfit.IsNegative()
}

// IncomeStatement derives the summary of one sheet.
//
// Movements are bucketed by type and their TotalCost summed, a null total
// counting as zero. COGS = opening + purchases - closing and may be negative;
// that is reported, not rejected. Sales are grouped by the joined catalog
// item's category (UnknownCategory when the join is missing), expenses by
// their own category.
func IncomeStatement(movements []models.StockMovement, sales []models.SalesRecord, expenses []models.ExpenseRecord) FinancialSummary {
	s := FinancialSummary{
		TotalSales:         decimal.Zero,
		OpeningStock:       decimal.Zero,
		TotalPurchases:     decimal.Zero,
		ClosingStock:       decimal.Zero,
		TotalExpenses:      decimal.Zero,
		SalesByCategory:    make(map[string]decimal.Decimal),
		ExpensesByCategory: make(map[string]decimal.Decimal),
	}

	for _, m := range movements {
		cost := decimal.Zero
		if m.TotalCost.Valid {
			cost = m.TotalCost.Decimal
		}
		switch m.MovementType {
		case models.MovementOpening:
			s.OpeningStock = s.OpeningStock.Add(cost)
		case models.MovementPurchase:
			s.TotalPurchases = s.TotalPurchases.Add(cost)
		case models.MovementClosing:
			s.ClosingStock = s.ClosingStock.Add(cost)
		}
	}

	for _, r := range sales {
		s.TotalSales = s.TotalSales.Add(r.TotalAmount)
		cat := UnknownCategory
		if r.StockItem != nil && r.StockItem.Category != "" {
			cat = r.StockItem.Category
		}
		s.SalesByCategory[cat] = s.SalesByCategory[cat].Add(r.TotalAmount)
	}

	for _, e := range expenses {
		s.TotalExpenses = s.TotalExpenses.Add(e.Amount)
		cat := string(e.Category)
		s.ExpensesByCategory[cat] = s.ExpensesByCategory[cat].Add(e.Amount)
	}

	s.CostOfGoodsSold = s.OpeningStock.Add(s.TotalPurchases).Sub(s.ClosingStock)
	s.GrossProfit = s.TotalSales.Sub(s.CostOfGoodsSold)
	s.NetProfit = s.GrossProfit.Sub(s.TotalExpenses)
	return s
}
