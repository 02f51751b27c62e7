package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// StockItem is the light catalog that stock-sheet movements and sales point at.
// It is separate from InventoryItem.
type StockItem struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string    `gorm:"size:150;not null;uniqueIndex" json:"name"`
	Category  string    `gorm:"size:50;not null" json:"category"`
	Unit      string    `gorm:"size:20;not null" json:"unit"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (StockItem) TableName() string { return "stock_items" }

func (s *StockItem) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}
