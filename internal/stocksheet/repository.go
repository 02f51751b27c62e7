package stocksheet

import (
	"context"
	"errors"

	"barstock-backend/internal/apperror"
	"barstock-backend/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository is the stock-sheet table accessor. Child-record writes run in a
// transaction that locks the parent sheet row and re-checks that it is a
// draft, so a finalized sheet stays read-only even for callers that bypass
// the service.
type Repository interface {
	ListSheets(ctx context.Context) ([]models.StockSheet, error)
	GetSheet(ctx context.Context, id string) (*models.StockSheet, error)
	CreateSheet(ctx context.Context, sheet *models.StockSheet) error
	UpdateSheet(ctx context.Context, sheet *models.StockSheet) error
	UpdateStatus(ctx context.Context, id string, from, to models.SheetStatus) error
	DeleteSheet(ctx context.Context, id string) error

	ListMovements(ctx context.Context, sheetID string) ([]models.StockMovement, error)
	GetMovement(ctx context.Context, sheetID, id string) (*models.StockMovement, error)
	CreateMovement(ctx context.Context, m *models.StockMovement) error
	UpdateMovement(ctx context.Context, m *models.StockMovement) error
	DeleteMovement(ctx context.Context, sheetID, id string) error

	ListSales(ctx context.Context, sheetID string) ([]models.SalesRecord, error)
	GetSale(ctx context.Context, sheetID, id string) (*models.SalesRecord, error)
	CreateSale(ctx context.Context, s *models.SalesRecord) error
	UpdateSale(ctx context.Context, s *models.SalesRecord) error
	DeleteSale(ctx context.Context, sheetID, id string) error

	ListExpenses(ctx context.Context, sheetID string) ([]models.ExpenseRecord, error)
	GetExpense(ctx context.Context, sheetID, id string) (*models.ExpenseRecord, error)
	CreateExpense(ctx context.Context, e *models.ExpenseRecord) error
	UpdateExpense(ctx context.Context, e *models.ExpenseRecord) error
	DeleteExpense(ctx context.Context, sheetID, id string) error
}

type GormRepository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

// ------------------------------------------------------
// Sheets
// ------------------------------------------------------

func (r *GormRepository) ListSheets(ctx context.Context) ([]models.StockSheet, error) {
	var sheets []models.StockSheet
	err := r.db.WithContext(ctx).
		Preload("Creator").
		Order("date DESC").
		Order("created_at DESC").
		Find(&sheets).Error
	if err != nil {
		return nil, apperror.NewStoreFailure("list stock sheets", err)
	}
	return sheets, nil
}

func (r *GormRepository) GetSheet(ctx context.Context, id string) (*models.StockSheet, error) {
	var sheet models.StockSheet
	if err := r.db.WithContext(ctx).Preload("Creator").First(&sheet, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NewNotFound("stock sheet", id)
		}
		return nil, apperror.NewStoreFailure("load stock sheet", err)
	}
	return &sheet, nil
}

func (r *GormRepository) CreateSheet(ctx context.Context, sheet *models.StockSheet) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(sheet).Error; err != nil {
		if errors.Is(err, gorm.ErrForeignKeyViolated) {
			return apperror.NewValidation("Unknown sheet owner").WithDetail("created_by", "exists")
		}
		return apperror.NewStoreFailure("create stock sheet", err)
	}
	return nil
}

// UpdateSheet writes date and notes of a draft sheet.
func (r *GormRepository) UpdateSheet(ctx context.Context, sheet *models.StockSheet) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := lockDraft(tx, sheet.ID); err != nil {
			return err
		}
		err := tx.Model(sheet).Select("date", "notes").Updates(sheet).Error
		if err != nil {
			return apperror.NewStoreFailure("update stock sheet", err)
		}
		return nil
	})
}

// UpdateStatus moves a sheet from one status to another. The current status
// must still be from when the row is written.
func (r *GormRepository) UpdateStatus(ctx context.Context, id string, from, to models.SheetStatus) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sheet, err := lockSheet(tx, id)
		if err != nil {
			return err
		}
		if sheet.Status != from {
			return apperror.NewInvalidTransition(string(sheet.Status), string(to))
		}
		err = tx.Model(sheet).Update("status", to).Error
		if err != nil {
			return apperror.NewStoreFailure("update stock sheet status", err)
		}
		return nil
	})
}

// DeleteSheet removes the sheet and every record on it.
func (r *GormRepository) DeleteSheet(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := lockSheet(tx, id); err != nil {
			return err
		}
		for _, child := range []any{&models.StockMovement{}, &models.SalesRecord{}, &models.ExpenseRecord{}} {
			if err := tx.Where("stock_sheet_id = ?", id).Delete(child).Error; err != nil {
				return apperror.NewStoreFailure("delete stock sheet records", err)
			}
		}
		if err := tx.Delete(&models.StockSheet{}, "id = ?", id).Error; err != nil {
			return apperror.NewStoreFailure("delete stock sheet", err)
		}
		return nil
	})
}

func lockSheet(tx *gorm.DB, id string) (*models.StockSheet, error) {
	var sheet models.StockSheet
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&sheet, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NewNotFound("stock sheet", id)
		}
		return nil, apperror.NewStoreFailure("lock stock sheet", err)
	}
	return &sheet, nil
}

// lockDraft locks the sheet row for the rest of the transaction and fails
// when the sheet is finalized.
func lockDraft(tx *gorm.DB, id string) (*models.StockSheet, error) {
	sheet, err := lockSheet(tx, id)
	if err != nil {
		return nil, err
	}
	if sheet.IsFinalized() {
		return nil, apperror.NewSheetFinalized(id)
	}
	return sheet, nil
}

// ------------------------------------------------------
// Child records
// ------------------------------------------------------

// child describes one of the per-sheet record tables.
type child struct {
	entity string
	// preload is the catalog association to embed, if any
	preload string
}

var (
	movements = child{entity: "stock movement", preload: "StockItem"}
	sales     = child{entity: "sales record", preload: "StockItem"}
	expenses  = child{entity: "expense", preload: ""}
)

func listChildren[T any](ctx context.Context, db *gorm.DB, c child, sheetID string) ([]T, error) {
	q := db.WithContext(ctx).Where("stock_sheet_id = ?", sheetID)
	if c.preload != "" {
		q = q.Preload(c.preload)
	}
	var out []T
	if err := q.Order("created_at ASC").Order("id ASC").Find(&out).Error; err != nil {
		return nil, apperror.NewStoreFailure("list "+c.entity+"s", err)
	}
	return out, nil
}

func getChild[T any](ctx context.Context, db *gorm.DB, c child, sheetID, id string) (*T, error) {
	q := db.WithContext(ctx)
	if c.preload != "" {
		q = q.Preload(c.preload)
	}
	var rec T
	if err := q.First(&rec, "id = ? AND stock_sheet_id = ?", id, sheetID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NewNotFound(c.entity, id)
		}
		return nil, apperror.NewStoreFailure("load "+c.entity, err)
	}
	return &rec, nil
}

func mapChildWriteErr(c child, op string, err error) error {
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return apperror.NewValidation("Unknown stock item").WithDetail("item_id", "exists")
	}
	return apperror.NewStoreFailure(op+" "+c.entity, err)
}

func createChild[T any](ctx context.Context, db *gorm.DB, c child, sheetID string, rec *T) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := lockDraft(tx, sheetID); err != nil {
			return err
		}
		if err := tx.Omit(clause.Associations).Create(rec).Error; err != nil {
			return mapChildWriteErr(c, "create", err)
		}
		return nil
	})
}

// updateChild writes every column but the identity, owning sheet and creation
// time. A record on another sheet is reported as not found.
func updateChild[T any](ctx context.Context, db *gorm.DB, c child, sheetID, id string, rec *T) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := lockDraft(tx, sheetID); err != nil {
			return err
		}
		res := tx.Model(rec).
			Where("stock_sheet_id = ?", sheetID).
			Select("*").
			Omit("id", "stock_sheet_id", "created_at", clause.Associations).
			Updates(rec)
		if res.Error != nil {
			return mapChildWriteErr(c, "update", res.Error)
		}
		if res.RowsAffected == 0 {
			return apperror.NewNotFound(c.entity, id)
		}
		return nil
	})
}

func deleteChild[T any](ctx context.Context, db *gorm.DB, c child, sheetID, id string) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := lockDraft(tx, sheetID); err != nil {
			return err
		}
		res := tx.Where("id = ? AND stock_sheet_id = ?", id, sheetID).Delete(new(T))
		if res.Error != nil {
			return apperror.NewStoreFailure("delete "+c.entity, res.Error)
		}
		if res.RowsAffected == 0 {
			return apperror.NewNotFound(c.entity, id)
		}
		return nil
	})
}

func (r *GormRepository) ListMovements(ctx context.Context, sheetID string) ([]models.StockMovement, error) {
	return listChildren[models.StockMovement](ctx, r.db, movements, sheetID)
}

func (r *GormRepository) GetMovement(ctx context.Context, sheetID, id string) (*models.StockMovement, error) {
	return getChild[models.StockMovement](ctx, r.db, movements, sheetID, id)
}

func (r *GormRepository) CreateMovement(ctx context.Context, m *models.StockMovement) error {
	return createChild(ctx, r.db, movements, m.StockSheetID, m)
}

func (r *GormRepository) UpdateMovement(ctx context.Context, m *models.StockMovement) error {
	return updateChild(ctx, r.db, movements, m.StockSheetID, m.ID, m)
}

func (r *GormRepository) DeleteMovement(ctx context.Context, sheetID, id string) error {
	return deleteChild[models.StockMovement](ctx, r.db, movements, sheetID, id)
}

func (r *GormRepository) ListSales(ctx context.Context, sheetID string) ([]models.SalesRecord, error) {
	return listChildren[models.SalesRecord](ctx, r.db, sales, sheetID)
}

func (r *GormRepository) GetSale(ctx context.Context, sheetID, id string) (*models.SalesRecord, error) {
	return getChild[models.SalesRecord](ctx, r.db, sales, sheetID, id)
}

func (r *GormRepository) CreateSale(ctx context.Context, s *models.SalesRecord) error {
	return createChild(ctx, r.db, sales, s.StockSheetID, s)
}

func (r *GormRepository) UpdateSale(ctx context.Context, s *models.SalesRecord) error {
	return updateChild(ctx, r.db, sales, s.StockSheetID, s.ID, s)
}

func (r *GormRepository) DeleteSale(ctx context.Context, sheetID, id string) error {
	return deleteChild[models.SalesRecord](ctx, r.db, sales, sheetID, id)
}

func (r *GormRepository) ListExpenses(ctx context.Context, sheetID string) ([]models.ExpenseRecord, error) {
	return listChildren[models.ExpenseRecord](ctx, r.db, expenses, sheetID)
}

func (r *GormRepository) GetExpense(ctx context.Context, sheetID, id string) (*models.ExpenseRecord, error) {
	return getChild[models.ExpenseRecord](ctx, r.db, expenses, sheetID, id)
}

func (r *GormRepository) CreateExpense(ctx context.Context, e *models.ExpenseRecord) error {
	return createChild(ctx, r.db, expenses, e.StockSheetID, e)
}

func (r *GormRepository) UpdateExpense(ctx context.Context, e *models.ExpenseRecord) error {
	return updateChild(ctx, r.db, expenses, e.StockSheetID, e.ID, e)
}

func (r *GormRepository) DeleteExpense(ctx context.Context, sheetID, id string) error {
	return deleteChild[models.ExpenseRecord](ctx, r.db, expenses, sheetID, id)
}
