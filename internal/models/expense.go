package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ExpenseCategory string

const (
	ExpenseUtilities   ExpenseCategory = "Utilities"
	ExpenseRent        ExpenseCategory = "Rent"
	ExpenseSalaries    ExpenseCategory = "Salaries"
	ExpenseMarketing   ExpenseCategory = "Marketing"
	ExpenseEquipment   ExpenseCategory = "Equipment"
	ExpenseMaintenance ExpenseCategory = "Maintenance"
	ExpenseInsurance   ExpenseCategory = "Insurance"
	ExpenseOther       ExpenseCategory = "Other"
)

var ExpenseCategories = []ExpenseCategory{
	ExpenseUtilities, ExpenseRent, ExpenseSalaries, ExpenseMarketing,
	ExpenseEquipment, ExpenseMaintenance, ExpenseInsurance, ExpenseOther,
}

func (c ExpenseCategory) Valid() bool {
	for _, v := range ExpenseCategories {
		if v == c {
			return true
		}
	}
	return false
}

// ExpenseRecord - a stock sheet's operating expense
type ExpenseRecord struct {
	ID           string          `gorm:"type:uuid;primaryKey" json:"id"`
	StockSheetID string          `gorm:"type:uuid;index;not null" json:"stock_sheet_id"`
	Description  string          `gorm:"size:255;not null" json:"description"`
	Category     ExpenseCategory `gorm:"size:30;not null" json:"category"`
	Amount       decimal.Decimal `gorm:"type:numeric;not null" json:"amount"`
	CreatedAt    time.Time       `gorm:"index" json:"created_at"`
}

func (ExpenseRecord) TableName() string { return "expenses" }

func (e *ExpenseRecord) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	return nil
}
