package stocksheet

import (
	"time"

	"barstock-backend/internal/auth"
	"barstock-backend/internal/models"
	"barstock-backend/internal/validate"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type SheetRequest struct {
	Date  *string `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Notes *string `json:"notes"`
}

type MovementRequest struct {
	ItemID       string              `json:"item_id" validate:"required,uuid"`
	MovementType string              `json:"movement_type" validate:"required,oneof=opening purchase closing"`
	Quantity     *decimal.Decimal    `json:"quantity" validate:"required"`
	UnitCost     decimal.NullDecimal `json:"unit_cost"`
}

type SaleRequest struct {
	ItemID       string           `json:"item_id" validate:"required,uuid"`
	QuantitySold *decimal.Decimal `json:"quantity_sold" validate:"required"`
	UnitPrice    *decimal.Decimal `json:"unit_price" validate:"required"`
}

type ExpenseRequest struct {
	Description string           `json:"description" validate:"required,max=255"`
	Category    string           `json:"category" validate:"required,oneof=Utilities Rent Salaries Marketing Equipment Maintenance Insurance Other"`
	Amount      *decimal.Decimal `json:"amount" validate:"required"`
}

func sheetID(c *fiber.Ctx) (string, error) {
	return validate.ID(c.Params("id"), "stock sheet")
}

func parseBody(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	return validate.Struct(out)
}

func (r SheetRequest) input() (SheetInput, error) {
	in := SheetInput{Notes: r.Notes}
	if r.Date != nil && *r.Date != "" {
		d, err := time.Parse(DateLayout, *r.Date)
		if err != nil {
			return in, fiber.NewError(fiber.StatusBadRequest, "date must be YYYY-MM-DD")
		}
		in.Date = &d
	}
	return in, nil
}

// ------------------------------------------------------
// Sheets
// ------------------------------------------------------

// GET /api/stock-sheets
func ListSheetsHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sheets, err := svc.List(c.UserContext())
		if err != nil {
			return err
		}
		return c.JSON(sheets)
	}
}

// GET /api/stock-sheets/:id
func GetSheetHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := sheetID(c)
		if err != nil {
			return err
		}
		sheet, err := svc.Get(c.UserContext(), id)
		if err != nil {
			return err
		}
		return c.JSON(sheet)
	}
}

// POST /api/stock-sheets
func CreateSheetHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := auth.PrincipalFrom(c)
		if err != nil {
			return err
		}
		var body SheetRequest
		if err := parseBody(c, &body); err != nil {
			return err
		}
		in, err := body.input()
		if err != nil {
			return err
		}

		sheet, err := svc.Create(c.UserContext(), p, in)
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(sheet)
	}
}

// PUT /api/stock-sheets/:id
func UpdateSheetHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := sheetID(c)
		if err != nil {
			return err
		}
		p, err := auth.PrincipalFrom(c)
		if err != nil {
			return err
		}
		var body SheetRequest
		if err := parseBody(c, &body); err != nil {
			return err
		}
		in, err := body.input()
		if err != nil {
			return err
		}

		sheet, err := svc.Update(c.UserContext(), p, id, in)
		if err != nil {
			return err
		}
		return c.JSON(sheet)
	}
}

// DELETE /api/stock-sheets/:id
func DeleteSheetHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := sheetID(c)
		if err != nil {
			return err
		}
		p, err := auth.PrincipalFrom(c)
		if err != nil {
			return err
		}
		if err := svc.Delete(c.UserContext(), p, id); err != nil {
			return err
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

func statusHandler(apply func(*fiber.Ctx, auth.Principal, string) (SheetView, error)) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := sheetID(c)
		if err != nil {
			return err
		}
		p, err := auth.PrincipalFrom(c)
		if err != nil {
			return err
		}
		sheet, err := apply(c, p, id)
		if err != nil {
			return err
		}
		return c.JSON(sheet)
	}
}

// POST /api/stock-sheets/:id/finalize
func FinalizeHandler(svc *Service) fiber.Handler {
	return statusHandler(func(c *fiber.Ctx, p auth.Principal, id string) (SheetView, error) {
		return svc.Finalize(c.UserContext(), p, id)
	})
}

// POST /api/stock-sheets/:id/reopen
func ReopenHandler(svc *Service) fiber.Handler {
	return statusHandler(func(c *fiber.Ctx, p auth.Principal, id string) (SheetView, error) {
		return svc.Reopen(c.UserContext(), p, id)
	})
}

// POST /api/stock-sheets/:id/toggle-status
func ToggleStatusHandler(svc *Service) fiber.Handler {
	return statusHandler(func(c *fiber.Ctx, p auth.Principal, id string) (SheetView, error) {
		return svc.Toggle(c.UserContext(), p, id)
	})
}

// ------------------------------------------------------
// Movements
// ------------------------------------------------------

func (r MovementRequest) input() MovementInput {
	return MovementInput{
		ItemID:       r.ItemID,
		MovementType: models.MovementType(r.MovementType),
		Quantity:     *r.Quantity,
		UnitCost:     r.UnitCost,
	}
}

// GET /api/stock-sheets/:id/movements
func ListMovementsHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := sheetID(c)
		if err != nil {
			return err
		}
		rows, err := svc.ListMovements(c.UserContext(), id)
		if err != nil {
			return err
		}
		return c.JSON(rows)
	}
}

// POST /api/stock-sheets/:id/movements
func CreateMovementHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := sheetID(c)
		if err != nil {
			return err
		}
		p, err := auth.PrincipalFrom(c)
		if err != nil {
			return err
		}
		var body MovementRequest
		if err := parseBody(c, &body); err != nil {
			return err
		}
		m, err := svc.CreateMovement(c.UserContext(), p, id, body.input())
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(m)
	}
}

// PUT /api/stock-sheets/:id/movements/:recordId
func UpdateMovementHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := sheetID(c)
		if err != nil {
			return err
		}
		recordID, err := validate.ID(c.Params("recordId"), "stock movement")
		if err != nil {
			return err
		}
		p, err := auth.PrincipalFrom(c)
		if err != nil {
			return err
		}
		var body MovementRequest
		if err := parseBody(c, &body); err != nil {
			return err
		}
		m, err := svc.UpdateMovement(c.UserContext(), p, id, recordID, body.input())
		if err != nil {
			return err
		}
		return c.JSON(m)
	}
}

// DELETE /api/stock-sheets/:id/movements/:recordId
func DeleteMovementHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := sheetID(c)
		if err != nil {
			return err
		}
		recordID, err := validate.ID(c.Params("recordId"), "stock movement")
		if err != nil {
			return err
		}
		p, err := auth.PrincipalFrom(c)
		if err != nil {
			return err
		}
		if err := svc.DeleteMovement(c.UserContext(), p, id, recordID); err != nil {
			return err
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// ------------------------------------------------------
// Sales
// ------------------------------------------------------

func (r SaleRequest) input() SaleInput {
	return SaleInput{ItemID: r.ItemID, QuantitySold: *r.QuantitySold, UnitPrice: *r.UnitPrice}
}

// GET /api/stock-sheets/:id/sales
func ListSalesHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := sheetID(c)
		if err != nil {
			return err
		}
		rows, err := svc.ListSales(c.UserContext(), id)
		if err != nil {
			return err
		}
		return c.JSON(rows)
	}
}

// POST /api/stock-sheets/:id/sales
func CreateSaleHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := sheetID(c)
		if err != nil {
			return err
		}
		p, err := auth.PrincipalFrom(c)
		if err != nil {
			return err
		}
		var body SaleRequest
		if err := parseBody(c, &body); err != nil {
			return err
		}
		rec, err := svc.CreateSale(c.UserContext(), p, id, body.input())
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(rec)
	}
}

// PUT /api/stock-sheets/:id/sales/:recordId
func UpdateSaleHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := sheetID(c)
		if err != nil {
			return err
		}
		recordID, err := validate.ID(c.Params("recordId"), "sales record")
		if err != nil {
			return err
		}
		p, err := auth.PrincipalFrom(c)
		if err != nil {
			return err
		}
		var body SaleRequest
		if err := parseBody(c, &body); err != nil {
			return err
		}
		rec, err := svc.UpdateSale(c.UserContext(), p, id, recordID, body.input())
		if err != nil {
			return err
		}
		return c.JSON(rec)
	}
}

// DELETE /api/stock-sheets/:id/sales/:recordId
func DeleteSaleHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := sheetID(c)
		if err != nil {
			return err
		}
		recordID, err := validate.ID(c.Params("recordId"), "sales record")
		if err != nil {
			return err
		}
		p, err := auth.PrincipalFrom(c)
		if err != nil {
			return err
		}
		if err := svc.DeleteSale(c.UserContext(), p, id, recordID); err != nil {
			return err
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// ------------------------------------------------------
// Expenses
// ------------------------------------------------------

func (r ExpenseRequest) input() ExpenseInput {
	return ExpenseInput{Description: r.Description, Category: models.ExpenseCategory(r.Category), Amount: *r.Amount}
}

// GET /api/stock-sheets/:id/expenses
func ListExpensesHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := sheetID(c)
		if err != nil {
			return err
		}
		rows, err := svc.ListExpenses(c.UserContext(), id)
		if err != nil {
			return err
		}
		return c.JSON(rows)
	}
}

// POST /api/stock-sheets/:id/expenses
func CreateExpenseHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := sheetID(c)
		if err != nil {
			return err
		}
		p, err := auth.PrincipalFrom(c)
		if err != nil {
			return err
		}
		var body ExpenseRequest
		if err := parseBody(c, &body); err != nil {
			return err
		}
		rec, err := svc.CreateExpense(c.UserContext(), p, id, body.input())
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(rec)
	}
}

// PUT /api/stock-sheets/:id/expenses/:recordId
func UpdateExpenseHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := sheetID(c)
		if err != nil {
			return err
		}
		recordID, err := validate.ID(c.Params("recordId"), "expense")
		if err != nil {
			return err
		}
		p, err := auth.PrincipalFrom(c)
		if err != nil {
			return err
		}
		var body ExpenseRequest
		if err := parseBody(c, &body); err != nil {
			return err
		}
		rec, err := svc.UpdateExpense(c.UserContext(), p, id, recordID, body.input())
		if err != nil {
			return err
		}
		return c.JSON(rec)
	}
}

// DELETE /api/stock-sheets/:id/expenses/:recordId
func DeleteExpenseHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := sheetID(c)
		if err != nil {
			return err
		}
		recordID, err := validate.ID(c.Params("recordId"), "expense")
		if err != nil {
			return err
		}
		p, err := auth.PrincipalFrom(c)
		if err != nil {
			return err
		}
		if err := svc.DeleteExpense(c.UserContext(), p, id, recordID); err != nil {
			return err
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// ------------------------------------------------------
// Income statement
// ------------------------------------------------------

// GET /api/stock-sheets/:id/income-statement
func IncomeStatementHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := sheetID(c)
		if err != nil {
			return err
		}
		st, err := svc.IncomeStatement(c.UserContext(), id)
		if err != nil {
			return err
		}
		return c.JSON(st)
	}
}

// GET /api/stock-sheets/:id/income-statement/export?format=csv|xlsx
func ExportIncomeStatementHandler(svc *Service, business, currency string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := sheetID(c)
		if err != nil {
			return err
		}
		format := c.Query("format", "csv")
		if format != "csv" && format != "xlsx" {
			return fiber.NewError(fiber.StatusBadRequest, "format must be csv or xlsx")
		}

		st, err := svc.IncomeStatement(c.UserContext(), id)
		if err != nil {
			return err
		}
		rows := StatementRows(business, currency, st)

		var (
			body        []byte
			contentType string
		)
		if format == "xlsx" {
			body, err = WriteXLSX(rows)
			contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
		} else {
			body, err = WriteCSV(rows)
			contentType = "text/csv; charset=utf-8"
		}
		if err != nil {
			return err
		}

		c.Attachment(ExportFilename(st, format))
		c.Set(fiber.HeaderContentType, contentType)
		return c.Send(body)
	}
}
