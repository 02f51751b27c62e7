package dashboard

import (
	"context"
	"time"

	"barstock-backend/internal/financial"
	"barstock-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

// ItemSource yields the current inventory snapshot.
type ItemSource interface {
	Items(ctx context.Context) ([]models.InventoryItem, error)
}

type DisplayTotals struct {
	TotalValue       string `json:"total_value"`
	PotentialRevenue string `json:"potential_revenue"`
	PotentialProfit  string `json:"potential_profit"`
}

type DashboardResponse struct {
	financial.InventorySummary
	Display DisplayTotals `json:"display"`
}

type LowStockItem struct {
	models.InventoryItem
	Shortfall int64 `json:"shortfall"` // min_stock - quantity, never negative
}

type LowStockResponse struct {
	Count int            `json:"count"`
	Items []LowStockItem `json:"items"`
}

func shortfall(it models.InventoryItem) int64 {
	if d := it.MinStock - it.Quantity; d > 0 {
		return d
	}
	return 0
}

// GET /api/dashboard
func DashboardHandler(src ItemSource, currency string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		items, err := src.Items(c.UserContext())
		if err != nil {
			return err
		}

		sum := financial.SummarizeInventory(items)
		return c.JSON(DashboardResponse{
			InventorySummary: sum,
			Display: DisplayTotals{
				TotalValue:       financial.FormatMoney(currency, sum.TotalValue),
				PotentialRevenue: financial.FormatMoney(currency, sum.PotentialRevenue),
				PotentialProfit:  financial.FormatMoney(currency, sum.PotentialProfit),
			},
		})
	}
}

// GET /api/low-stock
func LowStockHandler(src ItemSource) fiber.Handler {
	return func(c *fiber.Ctx) error {
		items, err := src.Items(c.UserContext())
		if err != nil {
			return err
		}

		low := financial.LowStockItems(items)
		resp := LowStockResponse{Count: len(low), Items: make([]LowStockItem, 0, len(low))}
		for _, it := range low {
			resp.Items = append(resp.Items, LowStockItem{InventoryItem: it, Shortfall: shortfall(it)})
		}
		return c.JSON(resp)
	}
}

type PotentialRevenueResponse struct {
	financial.PotentialRevenueReport
	Display map[string]string `json:"display"`
}

// GET /api/potential-revenue
func PotentialRevenueHandler(src ItemSource, currency string, now func() time.Time) fiber.Handler {
	if now == nil {
		now = time.Now
	}
	return func(c *fiber.Ctx) error {
		items, err := src.Items(c.UserContext())
		if err != nil {
			return err
		}

		report := financial.RevenueAnalysis(items, now())
		return c.JSON(PotentialRevenueResponse{
			PotentialRevenueReport: report,
			Display: map[string]string{
				"total_potential_revenue": financial.FormatMoney(currency, report.TotalPotentialRevenue),
				"total_investment":        financial.FormatMoney(currency, report.TotalInvestment),
				"potential_profit":        financial.FormatMoney(currency, report.PotentialProfit),
				"profit_margin":           report.ProfitMargin.StringFixed(1) + "%",
			},
		})
	}
}
