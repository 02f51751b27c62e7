package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"barstock-backend/internal/apperror"
	"barstock-backend/internal/auth"
	"barstock-backend/internal/logger"
	"barstock-backend/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	DefaultListLimit = 100
	MaxListLimit     = 500
)

type LogOptions struct {
	Actor       auth.Principal
	EntityType  string
	EntityID    string
	Action      models.AuditAction
	Description string
	Before      any
	After       any
}

// Writer records mutations. Implementations log their own failures; an
// audit problem never fails the change being audited.
type Writer interface {
	WriteLog(ctx context.Context, opts LogOptions)
}

type Service struct {
	db  *gorm.DB
	log *logger.Logger

	mu     sync.RWMutex
	onUndo []func(ctx context.Context, entityType string)
}

func NewService(db *gorm.DB, log *logger.Logger) *Service {
	return &Service{db: db, log: log.WithComponent("audit")}
}

// OnUndo registers fn to run after an undo commits.
func (s *Service) OnUndo(fn func(ctx context.Context, entityType string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onUndo = append(s.onUndo, fn)
}

// jsonImage returns "null" for nil so the jsonb column always parses.
func jsonImage(v any) string {
	if v == nil {
		return "null"
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "null"
	}
	return string(b)
}

func (s *Service) WriteLog(ctx context.Context, opts LogOptions) {
	entry := models.AuditLog{
		UserID:      opts.Actor.UserID,
		UserName:    opts.Actor.Name,
		EntityType:  opts.EntityType,
		EntityID:    opts.EntityID,
		Action:      opts.Action,
		Description: opts.Description,
		BeforeData:  jsonImage(opts.Before),
		AfterData:   jsonImage(opts.After),
	}
	if err := s.db.WithContext(ctx).Create(&entry).Error; err != nil {
		logger.FromContext(ctx).Errorw("audit log not saved",
			"entity_type", opts.EntityType,
			"entity_id", opts.EntityID,
			"action", opts.Action,
			"error", err,
		)
	}
}

func (s *Service) List(ctx context.Context, entityType string, limit int) ([]models.AuditLog, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}

	q := s.db.WithContext(ctx).Model(&models.AuditLog{})
	if entityType != "" {
		q = q.Where("entity_type = ?", entityType)
	}

	var logs []models.AuditLog
	if err := q.Order("created_at DESC").Order("id DESC").Limit(limit).Find(&logs).Error; err != nil {
		return nil, apperror.NewStoreFailure("list audit logs", err)
	}
	return logs, nil
}

// ------------------------------------------------------
// Undo
// ------------------------------------------------------

type undoable struct {
	newModel func() any
	// sheetID is set for stock-sheet child records
	sheetID func(any) string
}

var undoables = map[string]undoable{
	models.EntityInventoryItem: {newModel: func() any { return &models.InventoryItem{} }},
	models.EntityStockItem:     {newModel: func() any { return &models.StockItem{} }},
	models.EntityStockMovement: {
		newModel: func() any { return &models.StockMovement{} },
		sheetID:  func(m any) string { return m.(*models.StockMovement).StockSheetID },
	},
	models.EntitySalesRecord: {
		newModel: func() any { return &models.SalesRecord{} },
		sheetID:  func(m any) string { return m.(*models.SalesRecord).StockSheetID },
	},
	models.EntityExpense: {
		newModel: func() any { return &models.ExpenseRecord{} },
		sheetID:  func(m any) string { return m.(*models.ExpenseRecord).StockSheetID },
	},
}

// Undo reverses one logged change: a create is deleted, an update restores
// the before image and a delete is recreated. The entry is marked undone and
// an undo entry is written in the same transaction.
func (s *Service) Undo(ctx context.Context, logID uint, actor auth.Principal) (*models.AuditLog, error) {
	var undoEntry models.AuditLog

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var entry models.AuditLog
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&entry, "id = ?", logID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperror.NewNotFound("audit log", logID)
			}
			return apperror.NewStoreFailure("load audit log", err)
		}
		if entry.IsUndone {
			return apperror.NewConflict("This change has already been undone")
		}
		if entry.Action == models.AuditActionUndo {
			return apperror.NewConflict("An undo cannot itself be undone")
		}

		u, ok := undoables[entry.EntityType]
		if !ok {
			return apperror.NewConflict(fmt.Sprintf("Changes to %s cannot be undone", entry.EntityType))
		}

		image := entry.BeforeData
		if entry.Action == models.AuditActionCreate {
			image = entry.AfterData
		}
		m := u.newModel()
		if err := json.Unmarshal([]byte(image), m); err != nil {
			return apperror.NewInternal(fmt.Errorf("decode audit image: %w", err))
		}

		if u.sheetID != nil {
			if err := ensureDraft(tx, u.sheetID(m)); err != nil {
				return err
			}
		}

		if err := applyUndo(tx, entry, u, m); err != nil {
			return err
		}

		now := time.Now()
		entry.IsUndone = true
		entry.UndoneBy = &actor.UserID
		entry.UndoneAt = &now
		if err := tx.Save(&entry).Error; err != nil {
			return apperror.NewStoreFailure("mark audit log undone", err)
		}

		undoEntry = models.AuditLog{
			UserID:      actor.UserID,
			UserName:    actor.Name,
			EntityType:  entry.EntityType,
			EntityID:    entry.EntityID,
			Action:      models.AuditActionUndo,
			Description: "Undone: " + entry.Description,
			BeforeData:  entry.AfterData,
			AfterData:   entry.BeforeData,
		}
		if err := tx.Create(&undoEntry).Error; err != nil {
			return apperror.NewStoreFailure("write undo log", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Infow("audit entry undone", "log_id", logID, "entity_type", undoEntry.EntityType, "user_id", actor.UserID)

	s.mu.RLock()
	hooks := append([]func(context.Context, string){}, s.onUndo...)
	s.mu.RUnlock()
	for _, fn := range hooks {
		fn(ctx, undoEntry.EntityType)
	}
	return &undoEntry, nil
}

func applyUndo(tx *gorm.DB, entry models.AuditLog, u undoable, m any) error {
	switch entry.Action {
	case models.AuditActionCreate:
		res := tx.Delete(u.newModel(), "id = ?", entry.EntityID)
		if errors.Is(res.Error, gorm.ErrForeignKeyViolated) {
			return apperror.NewConflict("The record is referenced by stock sheet entries")
		}
		if res.Error != nil {
			return apperror.NewStoreFailure("undo create", res.Error)
		}
		if res.RowsAffected == 0 {
			return apperror.NewConflict("The created record no longer exists")
		}

	case models.AuditActionUpdate:
		res := tx.Omit(clause.Associations).Save(m)
		if res.Error != nil {
			return apperror.NewStoreFailure("undo update", res.Error)
		}

	case models.AuditActionDelete:
		if err := tx.Omit(clause.Associations).Create(m).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return apperror.NewConflict("The deleted record has already been restored")
			}
			return apperror.NewStoreFailure("undo delete", err)
		}

	default:
		return apperror.NewConflict("This change cannot be undone")
	}
	return nil
}

// ensureDraft locks the sheet row and rejects the undo when it is finalized.
func ensureDraft(tx *gorm.DB, sheetID string) error {
	var sheet models.StockSheet
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&sheet, "id = ?", sheetID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.NewNotFound("stock sheet", sheetID)
		}
		return apperror.NewStoreFailure("load stock sheet", err)
	}
	if sheet.IsFinalized() {
		return apperror.NewSheetFinalized(sheetID)
	}
	return nil
}
