package catalog

import (
	"context"
	"errors"

	"barstock-backend/internal/apperror"
	"barstock-backend/internal/models"

	"gorm.io/gorm"
)

type Repository interface {
	List(ctx context.Context) ([]models.StockItem, error)
	Get(ctx context.Context, id string) (*models.StockItem, error)
	Create(ctx context.Context, item *models.StockItem) error
	Update(ctx context.Context, item *models.StockItem) error
	Delete(ctx context.Context, id string) error
}

type GormRepository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

func (r *GormRepository) List(ctx context.Context) ([]models.StockItem, error) {
	var items []models.StockItem
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&items).Error; err != nil {
		return nil, apperror.NewStoreFailure("list stock items", err)
	}
	return items, nil
}

func (r *GormRepository) Get(ctx context.Context, id string) (*models.StockItem, error) {
	var item models.StockItem
	if err := r.db.WithContext(ctx).First(&item, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NewNotFound("stock item", id)
		}
		return nil, apperror.NewStoreFailure("load stock item", err)
	}
	return &item, nil
}

func (r *GormRepository) Create(ctx context.Context, item *models.StockItem) error {
	if err := r.db.WithContext(ctx).Create(item).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apperror.NewDuplicate("stock item", "name", item.Name)
		}
		return apperror.NewStoreFailure("create stock item", err)
	}
	return nil
}

func (r *GormRepository) Update(ctx context.Context, item *models.StockItem) error {
	res := r.db.WithContext(ctx).Model(item).Select("*").Omit("id", "created_at").Updates(item)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return apperror.NewDuplicate("stock item", "name", item.Name)
		}
		return apperror.NewStoreFailure("update stock item", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperror.NewNotFound("stock item", item.ID)
	}
	return nil
}

// Delete refuses items still referenced by movements or sales.
func (r *GormRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Delete(&models.StockItem{}, "id = ?", id)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrForeignKeyViolated) {
			return apperror.NewConflict("Stock item is used on a stock sheet and cannot be deleted").WithDetail("id", id)
		}
		return apperror.NewStoreFailure("delete stock item", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperror.NewNotFound("stock item", id)
	}
	return nil
}
