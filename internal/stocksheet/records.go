package stocksheet

import (
	"context"
	"fmt"
	"strings"

	"barstock-backend/internal/apperror"
	"barstock-backend/internal/audit"
	"barstock-backend/internal/auth"
	"barstock-backend/internal/models"

	"github.com/google/uuid"
)

func (in MovementInput) check() error {
	if in.ItemID == "" {
		return apperror.NewFieldValidation("item_id", "required", "item_id is required")
	}
	if !in.MovementType.Valid() {
		return apperror.NewFieldValidation("movement_type", "oneof", "movement_type must be one of: opening purchase closing")
	}
	if err := nonNegative("quantity", in.Quantity); err != nil {
		return err
	}
	if in.UnitCost.Valid {
		return nonNegative("unit_cost", in.UnitCost.Decimal)
	}
	return nil
}

func (in SaleInput) check() error {
	if in.ItemID == "" {
		return apperror.NewFieldValidation("item_id", "required", "item_id is required")
	}
	if err := nonNegative("quantity_sold", in.QuantitySold); err != nil {
		return err
	}
	return nonNegative("unit_price", in.UnitPrice)
}

func (in ExpenseInput) check() error {
	if strings.TrimSpace(in.Description) == "" {
		return apperror.NewFieldValidation("description", "required", "description is required")
	}
	if !in.Category.Valid() {
		return apperror.NewFieldValidation("category", "oneof", fmt.Sprintf("unknown expense category %q", in.Category))
	}
	return nonNegative("amount", in.Amount)
}

func (s *Service) logChild(ctx context.Context, actor auth.Principal, entity, id string, action models.AuditAction, desc string, before, after any) {
	s.audit.WriteLog(ctx, audit.LogOptions{
		Actor:       actor,
		EntityType:  entity,
		EntityID:    id,
		Action:      action,
		Description: desc,
		Before:      before,
		After:       after,
	})
}

// ------------------------------------------------------
// Movements
// ------------------------------------------------------

func (s *Service) ListMovements(ctx context.Context, sheetID string) ([]models.StockMovement, error) {
	if _, err := s.repo.GetSheet(ctx, sheetID); err != nil {
		return nil, err
	}
	rows, err := s.repo.ListMovements(ctx, sheetID)
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []models.StockMovement{}
	}
	return rows, nil
}

func (s *Service) CreateMovement(ctx context.Context, actor auth.Principal, sheetID string, in MovementInput) (*models.StockMovement, error) {
	if err := in.check(); err != nil {
		return nil, err
	}
	if _, err := s.requireDraft(ctx, sheetID); err != nil {
		return nil, err
	}

	m := &models.StockMovement{
		ID:           uuid.NewString(),
		StockSheetID: sheetID,
		ItemID:       in.ItemID,
		MovementType: in.MovementType,
		Quantity:     in.Quantity,
		UnitCost:     in.UnitCost,
	}
	m.Derive()
	if err := s.repo.CreateMovement(ctx, m); err != nil {
		return nil, err
	}

	s.logChild(ctx, actor, models.EntityStockMovement, m.ID, models.AuditActionCreate,
		fmt.Sprintf("Added %s movement", m.MovementType), nil, m)
	return m, nil
}

func (s *Service) UpdateMovement(ctx context.Context, actor auth.Principal, sheetID, id string, in MovementInput) (*models.StockMovement, error) {
	if err := in.check(); err != nil {
		return nil, err
	}
	if _, err := s.requireDraft(ctx, sheetID); err != nil {
		return nil, err
	}
	before, err := s.repo.GetMovement(ctx, sheetID, id)
	if err != nil {
		return nil, err
	}

	after := *before
	after.StockItem = nil
	after.ItemID = in.ItemID
	after.MovementType = in.MovementType
	after.Quantity = in.Quantity
	after.UnitCost = in.UnitCost
	after.Derive()
	if err := s.repo.UpdateMovement(ctx, &after); err != nil {
		return nil, err
	}

	before.StockItem = nil
	s.logChild(ctx, actor, models.EntityStockMovement, id, models.AuditActionUpdate,
		fmt.Sprintf("Updated %s movement", after.MovementType), before, after)
	return &after, nil
}

func (s *Service) DeleteMovement(ctx context.Context, actor auth.Principal, sheetID, id string) error {
	if _, err := s.requireDraft(ctx, sheetID); err != nil {
		return err
	}
	before, err := s.repo.GetMovement(ctx, sheetID, id)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteMovement(ctx, sheetID, id); err != nil {
		return err
	}

	before.StockItem = nil
	s.logChild(ctx, actor, models.EntityStockMovement, id, models.AuditActionDelete,
		fmt.Sprintf("Deleted %s movement", before.MovementType), before, nil)
	return nil
}

// ------------------------------------------------------
// Sales
// ------------------------------------------------------

func (s *Service) ListSales(ctx context.Context, sheetID string) ([]models.SalesRecord, error) {
	if _, err := s.repo.GetSheet(ctx, sheetID); err != nil {
		return nil, err
	}
	rows, err := s.repo.ListSales(ctx, sheetID)
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []models.SalesRecord{}
	}
	return rows, nil
}

func (s *Service) CreateSale(ctx context.Context, actor auth.Principal, sheetID string, in SaleInput) (*models.SalesRecord, error) {
	if err := in.check(); err != nil {
		return nil, err
	}
	if _, err := s.requireDraft(ctx, sheetID); err != nil {
		return nil, err
	}

	rec := &models.SalesRecord{
		ID:           uuid.NewString(),
		StockSheetID: sheetID,
		ItemID:       in.ItemID,
		QuantitySold: in.QuantitySold,
		UnitPrice:    in.UnitPrice,
	}
	rec.Derive()
	if err := s.repo.CreateSale(ctx, rec); err != nil {
		return nil, err
	}

	s.logChild(ctx, actor, models.EntitySalesRecord, rec.ID, models.AuditActionCreate,
		"Added sale of "+rec.QuantitySold.String(), nil, rec)
	return rec, nil
}

func (s *Service) UpdateSale(ctx context.Context, actor auth.Principal, sheetID, id string, in SaleInput) (*models.SalesRecord, error) {
	if err := in.check(); err != nil {
		return nil, err
	}
	if _, err := s.requireDraft(ctx, sheetID); err != nil {
		return nil, err
	}
	before, err := s.repo.GetSale(ctx, sheetID, id)
	if err != nil {
		return nil, err
	}

	after := *before
	after.StockItem = nil
	after.ItemID = in.ItemID
	after.QuantitySold = in.QuantitySold
	after.UnitPrice = in.UnitPrice
	after.Derive()
	if err := s.repo.UpdateSale(ctx, &after); err != nil {
		return nil, err
	}

	before.StockItem = nil
	s.logChild(ctx, actor, models.EntitySalesRecord, id, models.AuditActionUpdate,
		"Updated sale", before, after)
	return &after, nil
}

func (s *Service) DeleteSale(ctx context.Context, actor auth.Principal, sheetID, id string) error {
	if _, err := s.requireDraft(ctx, sheetID); err != nil {
		return err
	}
	before, err := s.repo.GetSale(ctx, sheetID, id)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteSale(ctx, sheetID, id); err != nil {
		return err
	}

	before.StockItem = nil
	s.logChild(ctx, actor, models.EntitySalesRecord, id, models.AuditActionDelete,
		"Deleted sale", before, nil)
	return nil
}

// ------------------------------------------------------
// Expenses
// ------------------------------------------------------

func (s *Service) ListExpenses(ctx context.Context, sheetID string) ([]models.ExpenseRecord, error) {
	if _, err := s.repo.GetSheet(ctx, sheetID); err != nil {
		return nil, err
	}
	rows, err := s.repo.ListExpenses(ctx, sheetID)
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []models.ExpenseRecord{}
	}
	return rows, nil
}

func (s *Service) CreateExpense(ctx context.Context, actor auth.Principal, sheetID string, in ExpenseInput) (*models.ExpenseRecord, error) {
	if err := in.check(); err != nil {
		return nil, err
	}
	if _, err := s.requireDraft(ctx, sheetID); err != nil {
		return nil, err
	}

	rec := &models.ExpenseRecord{
		ID:           uuid.NewString(),
		StockSheetID: sheetID,
		Description:  strings.TrimSpace(in.Description),
		Category:     in.Category,
		Amount:       in.Amount,
	}
	if err := s.repo.CreateExpense(ctx, rec); err != nil {
		return nil, err
	}

	s.logChild(ctx, actor, models.EntityExpense, rec.ID, models.AuditActionCreate,
		"Added expense "+rec.Description, nil, rec)
	return rec, nil
}

func (s *Service) UpdateExpense(ctx context.Context, actor auth.Principal, sheetID, id string, in ExpenseInput) (*models.ExpenseRecord, error) {
	if err := in.check(); err != nil {
		return nil, err
	}
	if _, err := s.requireDraft(ctx, sheetID); err != nil {
		return nil, err
	}
	before, err := s.repo.GetExpense(ctx, sheetID, id)
	if err != nil {
		return nil, err
	}

	after := *before
	after.Description = strings.TrimSpace(in.Description)
	after.Category = in.Category
	after.Amount = in.Amount
	if err := s.repo.UpdateExpense(ctx, &after); err != nil {
		return nil, err
	}

	s.logChild(ctx, actor, models.EntityExpense, id, models.AuditActionUpdate,
		"Updated expense "+after.Description, before, after)
	return &after, nil
}

func (s *Service) DeleteExpense(ctx context.Context, actor auth.Principal, sheetID, id string) error {
	if _, err := s.requireDraft(ctx, sheetID); err != nil {
		return err
	}
	before, err := s.repo.GetExpense(ctx, sheetID, id)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteExpense(ctx, sheetID, id); err != nil {
		return err
	}

	s.logChild(ctx, actor, models.EntityExpense, id, models.AuditActionDelete,
		"Deleted expense "+before.Description, before, nil)
	return nil
}
