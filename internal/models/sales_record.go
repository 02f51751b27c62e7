package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type SalesRecord struct {
	ID           string          `gorm:"type:uuid;primaryKey" json:"id"`
	StockSheetID string          `gorm:"type:uuid;index;not null" json:"stock_sheet_id"`
	ItemID       string          `gorm:"type:uuid;index;not null" json:"item_id"`
	StockItem    *StockItem      `gorm:"foreignKey:ItemID" json:"stock_item,omitempty"`
	QuantitySold decimal.Decimal `gorm:"type:numeric;not null" json:"quantity_sold"`
	UnitPrice    decimal.Decimal `gorm:"type:numeric;not null" json:"unit_price"`
	TotalAmount  decimal.Decimal `gorm:"type:numeric;not null" json:"total_amount"` // QuantitySold × UnitPrice
	CreatedAt    time.Time       `gorm:"index" json:"created_at"`
}

func (SalesRecord) TableName() string { return "sales_records" }

func (s *SalesRecord) Derive() {
	s.TotalAmount = s.QuantitySold.Mul(s.UnitPrice)
}

func (s *SalesRecord) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}

func (s *SalesRecord) BeforeSave(tx *gorm.DB) error {
	s.Derive()
	return nil
}
