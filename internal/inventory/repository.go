package inventory

import (
	"context"
	"errors"

	"barstock-backend/internal/apperror"
	"barstock-backend/internal/models"

	"gorm.io/gorm"
)

// Repository is the item table accessor. It maps fields and errors only.
type Repository interface {
	List(ctx context.Context) ([]models.InventoryItem, error)
	Get(ctx context.Context, id string) (*models.InventoryItem, error)
	Create(ctx context.Context, item *models.InventoryItem) error
	Update(ctx context.Context, item *models.InventoryItem) error
	Delete(ctx context.Context, id string) error
}

type GormRepository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

// List returns items in insertion order.
func (r *GormRepository) List(ctx context.Context) ([]models.InventoryItem, error) {
	var items []models.InventoryItem
	if err := r.db.WithContext(ctx).Order("created_at ASC").Order("id ASC").Find(&items).Error; err != nil {
		return nil, apperror.NewStoreFailure("list inventory items", err)
	}
	return items, nil
}

func (r *GormRepository) Get(ctx context.Context, id string) (*models.InventoryItem, error) {
	var item models.InventoryItem
	if err := r.db.WithContext(ctx).First(&item, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NewNotFound("inventory item", id)
		}
		return nil, apperror.NewStoreFailure("load inventory item", err)
	}
	return &item, nil
}

func (r *GormRepository) Create(ctx context.Context, item *models.InventoryItem) error {
	if err := r.db.WithContext(ctx).Create(item).Error; err != nil {
		return apperror.NewStoreFailure("create inventory item", err)
	}
	return nil
}

// Update writes every column except the identity and creation time, and
// reports not found instead of inserting.
func (r *GormRepository) Update(ctx context.Context, item *models.InventoryItem) error {
	res := r.db.WithContext(ctx).Model(item).Select("*").Omit("id", "created_at").Updates(item)
	if res.Error != nil {
		return apperror.NewStoreFailure("update inventory item", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperror.NewNotFound("inventory item", item.ID)
	}
	return nil
}

func (r *GormRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Delete(&models.InventoryItem{}, "id = ?", id)
	if res.Error != nil {
		return apperror.NewStoreFailure("delete inventory item", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperror.NewNotFound("inventory item", id)
	}
	return nil
}
