package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ItemCategory string

const (
	CategorySpirits   ItemCategory = "Spirits"
	CategoryBeer      ItemCategory = "Beer"
	CategoryWine      ItemCategory = "Wine"
	CategoryMixers    ItemCategory = "Mixers"
	CategorySnacks    ItemCategory = "Snacks"
	CategoryGlassware ItemCategory = "Glassware"
	CategorySupplies  ItemCategory = "Supplies"
)

var ItemCategories = []ItemCategory{
	CategorySpirits, CategoryBeer, CategoryWine, CategoryMixers,
	CategorySnacks, CategoryGlassware, CategorySupplies,
}

func (c ItemCategory) Valid() bool {
	for _, v := range ItemCategories {
		if v == c {
			return true
		}
	}
	return false
}

type ItemUnit string

const (
	UnitBottles ItemUnit = "bottles"
	UnitCases   ItemUnit = "cases"
	UnitLiters  ItemUnit = "liters"
	UnitPieces  ItemUnit = "pieces"
	UnitBoxes   ItemUnit = "boxes"
	UnitKegs    ItemUnit = "kegs"
)

var ItemUnits = []ItemUnit{UnitBottles, UnitCases, UnitLiters, UnitPieces, UnitBoxes, UnitKegs}

func (u ItemUnit) Valid() bool {
	for _, v := range ItemUnits {
		if v == u {
			return true
		}
	}
	return false
}

// InventoryItem: bar stock on hand. Quantity, MinStock and both prices are never negative.
type InventoryItem struct {
	ID            string          `gorm:"type:uuid;primaryKey" json:"id"`
	Name          string          `gorm:"size:150;not null" json:"name"`
	Category      ItemCategory    `gorm:"size:30;index;not null" json:"category"`
	Quantity      int64           `gorm:"not null;default:0" json:"quantity"`
	Unit          ItemUnit        `gorm:"size:20;not null" json:"unit"`
	MinStock      int64           `gorm:"not null;default:0" json:"min_stock"`
	PurchasePrice decimal.Decimal `gorm:"type:numeric;not null;default:0" json:"purchase_price"`
	SellingPrice  decimal.Decimal `gorm:"type:numeric;not null;default:0" json:"selling_price"`
	Supplier      string          `gorm:"size:150" json:"supplier"`
	CreatedAt     time.Time       `gorm:"index" json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

func (InventoryItem) TableName() string { return "inventory_items" }

func (i *InventoryItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	return nil
}
