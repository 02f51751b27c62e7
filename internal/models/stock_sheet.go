package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SheetStatus string

const (
	SheetDraft     SheetStatus = "draft"
	SheetFinalized SheetStatus = "finalized"
)

// Toggled returns the status reached by the finalize/reopen toggle.
func (s SheetStatus) Toggled() SheetStatus {
	if s == SheetFinalized {
		return SheetDraft
	}
	return SheetFinalized
}

// StockSheet: a dated container for one day's movements, sales and expenses.
// Child records are writable only while the sheet is a draft.
type StockSheet struct {
	ID        string      `gorm:"type:uuid;primaryKey" json:"id"`
	Date      time.Time   `gorm:"type:date;index;not null" json:"date"`
	Status    SheetStatus `gorm:"size:20;not null;default:draft" json:"status"`
	Notes     *string     `gorm:"type:text" json:"notes"`
	CreatedBy string      `gorm:"type:uuid;index;not null" json:"created_by"`
	Creator   *Profile    `gorm:"foreignKey:CreatedBy" json:"-"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

func (StockSheet) TableName() string { return "stock_sheets" }

func (s *StockSheet) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.Status == "" {
		s.Status = SheetDraft
	}
	return nil
}

func (s *StockSheet) IsFinalized() bool {
	return s.Status == SheetFinalized
}
