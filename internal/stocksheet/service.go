// Package stocksheet holds the daily stock sheets, their movements, sales and
// expenses, and the income statement derived from them.
package stocksheet

import (
	"context"
	"fmt"
	"strings"
	"time"

	"barstock-backend/internal/apperror"
	"barstock-backend/internal/audit"
	"barstock-backend/internal/auth"
	"barstock-backend/internal/financial"
	"barstock-backend/internal/logger"
	"barstock-backend/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

const DateLayout = "2006-01-02"

// SheetView is a sheet with its creator's display name.
type SheetView struct {
	models.StockSheet
	CreatorName string `json:"creator_name"`
}

func viewOf(s models.StockSheet) SheetView {
	return SheetView{StockSheet: s, CreatorName: s.Creator.DisplayName()}
}

type SheetInput struct {
	Date  *time.Time
	Notes *string
}

type MovementInput struct {
	ItemID       string
	MovementType models.MovementType
	Quantity     decimal.Decimal
	UnitCost     decimal.NullDecimal
}

type SaleInput struct {
	ItemID       string
	QuantitySold decimal.Decimal
	UnitPrice    decimal.Decimal
}

type ExpenseInput struct {
	Description string
	Category    models.ExpenseCategory
	Amount      decimal.Decimal
}

type Service struct {
	repo  Repository
	audit audit.Writer
	log   *logger.Logger
	now   func() time.Time
}

func NewService(repo Repository, auditWriter audit.Writer, log *logger.Logger) *Service {
	return &Service{
		repo:  repo,
		audit: auditWriter,
		log:   log.WithComponent("stocksheet"),
		now:   time.Now,
	}
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// blankToNil stores empty notes as null.
func blankToNil(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func nonNegative(field string, d decimal.Decimal) error {
	if d.IsNegative() {
		return apperror.NewFieldValidation(field, "min", field+" cannot be negative")
	}
	return nil
}

// requireDraft rejects child writes on a finalized sheet before any write
// reaches the repository.
func (s *Service) requireDraft(ctx context.Context, sheetID string) (*models.StockSheet, error) {
	sheet, err := s.repo.GetSheet(ctx, sheetID)
	if err != nil {
		return nil, err
	}
	if sheet.IsFinalized() {
		return nil, apperror.NewSheetFinalized(sheetID)
	}
	return sheet, nil
}

// ------------------------------------------------------
// Sheets
// ------------------------------------------------------

func (s *Service) List(ctx context.Context) ([]SheetView, error) {
	sheets, err := s.repo.ListSheets(ctx)
	if err != nil {
		s.log.Errorw("list stock sheets", "error", err)
		return nil, err
	}
	out := make([]SheetView, 0, len(sheets))
	for _, sh := range sheets {
		out = append(out, viewOf(sh))
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, id string) (SheetView, error) {
	sheet, err := s.repo.GetSheet(ctx, id)
	if err != nil {
		return SheetView{}, err
	}
	return viewOf(*sheet), nil
}

func (s *Service) Create(ctx context.Context, actor auth.Principal, in SheetInput) (SheetView, error) {
	date := dateOnly(s.now())
	if in.Date != nil {
		date = dateOnly(*in.Date)
	}
	sheet := models.StockSheet{
		ID:        uuid.NewString(),
		Date:      date,
		Status:    models.SheetDraft,
		Notes:     blankToNil(in.Notes),
		CreatedBy: actor.UserID,
	}
	if err := s.repo.CreateSheet(ctx, &sheet); err != nil {
		return SheetView{}, err
	}

	s.audit.WriteLog(ctx, audit.LogOptions{
		Actor:       actor,
		EntityType:  models.EntityStockSheet,
		EntityID:    sheet.ID,
		Action:      models.AuditActionCreate,
		Description: "Created stock sheet " + sheet.Date.Format(DateLayout),
		After:       sheet,
	})
	return s.Get(ctx, sheet.ID)
}

func (s *Service) Update(ctx context.Context, actor auth.Principal, id string, in SheetInput) (SheetView, error) {
	before, err := s.repo.GetSheet(ctx, id)
	if err != nil {
		return SheetView{}, err
	}
	if before.IsFinalized() {
		return SheetView{}, apperror.NewSheetFinalized(id)
	}

	after := *before
	after.Creator = nil
	if in.Date != nil {
		after.Date = dateOnly(*in.Date)
	}
	if in.Notes != nil {
		after.Notes = blankToNil(in.Notes)
	}
	if err := s.repo.UpdateSheet(ctx, &after); err != nil {
		return SheetView{}, err
	}

	before.Creator = nil
	s.audit.WriteLog(ctx, audit.LogOptions{
		Actor:       actor,
		EntityType:  models.EntityStockSheet,
		EntityID:    id,
		Action:      models.AuditActionUpdate,
		Description: "Updated stock sheet " + after.Date.Format(DateLayout),
		Before:      before,
		After:       after,
	})
	return s.Get(ctx, id)
}

func (s *Service) Delete(ctx context.Context, actor auth.Principal, id string) error {
	before, err := s.repo.GetSheet(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteSheet(ctx, id); err != nil {
		return err
	}

	before.Creator = nil
	s.audit.WriteLog(ctx, audit.LogOptions{
		Actor:       actor,
		EntityType:  models.EntityStockSheet,
		EntityID:    id,
		Action:      models.AuditActionDelete,
		Description: "Deleted stock sheet " + before.Date.Format(DateLayout),
		Before:      before,
	})
	return nil
}

// ------------------------------------------------------
// Status
// ------------------------------------------------------

func (s *Service) Finalize(ctx context.Context, actor auth.Principal, id string) (SheetView, error) {
	return s.transition(ctx, actor, id, models.SheetDraft, models.SheetFinalized)
}

func (s *Service) Reopen(ctx context.Context, actor auth.Principal, id string) (SheetView, error) {
	return s.transition(ctx, actor, id, models.SheetFinalized, models.SheetDraft)
}

// Toggle flips the sheet to the other status.
func (s *Service) Toggle(ctx context.Context, actor auth.Principal, id string) (SheetView, error) {
	sheet, err := s.repo.GetSheet(ctx, id)
	if err != nil {
		return SheetView{}, err
	}
	return s.apply(ctx, actor, sheet, sheet.Status, sheet.Status.Toggled())
}

func (s *Service) transition(ctx context.Context, actor auth.Principal, id string, from, to models.SheetStatus) (SheetView, error) {
	sheet, err := s.repo.GetSheet(ctx, id)
	if err != nil {
		return SheetView{}, err
	}
	return s.apply(ctx, actor, sheet, from, to)
}

// apply moves an already loaded sheet from one status to another. The
// conditional update still fails if another request changed it first.
func (s *Service) apply(ctx context.Context, actor auth.Principal, sheet *models.StockSheet, from, to models.SheetStatus) (SheetView, error) {
	id := sheet.ID
	if sheet.Status != from {
		return SheetView{}, apperror.NewInvalidTransition(string(sheet.Status), string(to))
	}
	if err := s.repo.UpdateStatus(ctx, id, from, to); err != nil {
		return SheetView{}, err
	}

	verb := "Finalized"
	if to == models.SheetDraft {
		verb = "Reopened"
	}
	s.log.Infow("stock sheet status changed", "sheet_id", id, "from", from, "to", to, "user_id", actor.UserID)
	s.audit.WriteLog(ctx, audit.LogOptions{
		Actor:       actor,
		EntityType:  models.EntityStockSheet,
		EntityID:    id,
		Action:      models.AuditActionUpdate,
		Description: fmt.Sprintf("%s stock sheet %s", verb, sheet.Date.Format(DateLayout)),
		Before:      map[string]any{"status": from},
		After:       map[string]any{"status": to},
	})

	sheet.Status = to
	return viewOf(*sheet), nil
}

// ------------------------------------------------------
// Income statement
// ------------------------------------------------------

type IncomeStatement struct {
	SheetID string             `json:"stock_sheet_id"`
	Date    string             `json:"date"`
	Status  models.SheetStatus `json:"status"`
	financial.FinancialSummary
	IsLoss bool `json:"is_loss"`
}

// IncomeStatement fetches the sheet's sales, movements and expenses
// concurrently. The first failed fetch cancels the others and fails the
// whole statement; no partial figures are returned.
func (s *Service) IncomeStatement(ctx context.Context, sheetID string) (*IncomeStatement, error) {
	sheet, err := s.repo.GetSheet(ctx, sheetID)
	if err != nil {
		return nil, err
	}

	var (
		movementRows []models.StockMovement
		saleRows     []models.SalesRecord
		expenseRows  []models.ExpenseRecord
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		saleRows, err = s.repo.ListSales(gctx, sheetID)
		return err
	})
	g.Go(func() error {
		var err error
		movementRows, err = s.repo.ListMovements(gctx, sheetID)
		return err
	})
	g.Go(func() error {
		var err error
		expenseRows, err = s.repo.ListExpenses(gctx, sheetID)
		return err
	})
	if err := g.Wait(); err != nil {
		s.log.Errorw("income statement fetch failed", "sheet_id", sheetID, "error", err)
		return nil, apperror.NewAggregationFailed("income statement", err)
	}

	summary := financial.IncomeStatement(movementRows, saleRows, expenseRows)
	return &IncomeStatement{
		SheetID:          sheet.ID,
		Date:             sheet.Date.Format(DateLayout),
		Status:           sheet.Status,
		FinancialSummary: summary,
		IsLoss:           summary.IsLoss(),
	}, nil
}
