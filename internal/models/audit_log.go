package models

import "time"

type AuditAction string

const (
	AuditActionCreate AuditAction = "create"
	AuditActionUpdate AuditAction = "update"
	AuditActionDelete AuditAction = "delete"
	AuditActionUndo   AuditAction = "undo"
)

// Entity type names stored in AuditLog.EntityType
const (
	EntityInventoryItem = "inventory_item"
	EntityStockItem     = "stock_item"
	EntityStockSheet    = "stock_sheet"
	EntityStockMovement = "stock_movement"
	EntitySalesRecord   = "sales_record"
	EntityExpense       = "expense"
	EntityProfile       = "profile"
)

type AuditLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`

	UserID   string `gorm:"size:36;index" json:"user_id"`
	UserName string `gorm:"size:100" json:"user_name"` // denormalized

	EntityType string `gorm:"size:50;index" json:"entity_type"`
	EntityID   string `gorm:"size:36;index" json:"entity_id"`

	Action      AuditAction `gorm:"size:20" json:"action"`
	Description string      `gorm:"size:255" json:"description"`

	// JSON images of the row before and after the change
	BeforeData string `gorm:"type:jsonb" json:"before_data"`
	AfterData  string `gorm:"type:jsonb" json:"after_data"`

	IsUndone bool       `gorm:"default:false" json:"is_undone"`
	UndoneBy *string    `gorm:"size:36" json:"undone_by"`
	UndoneAt *time.Time `json:"undone_at"`
}
