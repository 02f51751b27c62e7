package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type MovementType string

const (
	MovementOpening  MovementType = "opening"
	MovementPurchase MovementType = "purchase"
	MovementClosing  MovementType = "closing"
)

func (m MovementType) Valid() bool {
	switch m {
	case MovementOpening, MovementPurchase, MovementClosing:
		return true
	}
	return false
}

// StockMovement: opening count, purchase or closing count of one catalog item on a sheet.
type StockMovement struct {
	ID           string              `gorm:"type:uuid;primaryKey" json:"id"`
	StockSheetID string              `gorm:"type:uuid;index;not null" json:"stock_sheet_id"`
	ItemID       string              `gorm:"type:uuid;index;not null" json:"item_id"`
	StockItem    *StockItem          `gorm:"foreignKey:ItemID" json:"stock_item,omitempty"`
	MovementType MovementType        `gorm:"size:20;not null" json:"movement_type"`
	Quantity     decimal.Decimal     `gorm:"type:numeric;not null" json:"quantity"`
	UnitCost     decimal.NullDecimal `gorm:"type:numeric" json:"unit_cost"`
	TotalCost    decimal.NullDecimal `gorm:"type:numeric" json:"total_cost"`
	CreatedAt    time.Time           `gorm:"index" json:"created_at"`
}

func (StockMovement) TableName() string { return "stock_movements" }

// Derive recomputes TotalCost; it is null whenever UnitCost is.
func (m *StockMovement) Derive() {
	if m.UnitCost.Valid {
		m.TotalCost = decimal.NewNullDecimal(m.Quantity.Mul(m.UnitCost.Decimal))
		return
	}
	m.TotalCost = decimal.NullDecimal{}
}

func (m *StockMovement) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}

func (m *StockMovement) BeforeSave(tx *gorm.DB) error {
	m.Derive()
	return nil
}
