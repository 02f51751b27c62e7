package auth

import (
	"context"
	"errors"

	"barstock-backend/internal/apperror"
	"barstock-backend/internal/models"

	"gorm.io/gorm"
)

type ProfileRepository interface {
	// Register inserts a self-signed-up profile. The first profile ever
	// stored becomes the admin; concurrent first sign-ups cannot both win.
	Register(ctx context.Context, p *models.Profile) error
	List(ctx context.Context) ([]models.Profile, error)
	GetByID(ctx context.Context, id string) (*models.Profile, error)
	// GetByEmail returns a not-found apperror for unknown addresses.
	GetByEmail(ctx context.Context, email string) (*models.Profile, error)
	Create(ctx context.Context, p *models.Profile) error
	Update(ctx context.Context, p *models.Profile) error
	Delete(ctx context.Context, id string) error
}

type GormProfileRepository struct {
	db *gorm.DB
}

func NewProfileRepository(db *gorm.DB) *GormProfileRepository {
	return &GormProfileRepository{db: db}
}

// signUpLock keys the advisory lock that serializes sign-ups.
const signUpLock = 0x5349474e

func (r *GormProfileRepository) Register(ctx context.Context, p *models.Profile) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// held until commit, so the count and the insert see the same table
		if err := tx.Exec("SELECT pg_advisory_xact_lock(?)", signUpLock).Error; err != nil {
			return apperror.NewStoreFailure("lock sign-up", err)
		}
		var n int64
		if err := tx.Model(&models.Profile{}).Count(&n).Error; err != nil {
			return apperror.NewStoreFailure("count profiles", err)
		}
		if n == 0 {
			p.Role = models.RoleAdmin
		}
		if err := tx.Create(p).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return apperror.NewDuplicate("profile", "email", p.Email)
			}
			return apperror.NewStoreFailure("create profile", err)
		}
		return nil
	})
}

func (r *GormProfileRepository) List(ctx context.Context) ([]models.Profile, error) {
	var out []models.Profile
	if err := r.db.WithContext(ctx).Order("created_at ASC").Find(&out).Error; err != nil {
		return nil, apperror.NewStoreFailure("list profiles", err)
	}
	return out, nil
}

func (r *GormProfileRepository) GetByID(ctx context.Context, id string) (*models.Profile, error) {
	var p models.Profile
	if err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		return nil, mapErr(err, "load profile", id)
	}
	return &p, nil
}

func (r *GormProfileRepository) GetByEmail(ctx context.Context, email string) (*models.Profile, error) {
	var p models.Profile
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&p).Error; err != nil {
		return nil, mapErr(err, "load profile", email)
	}
	return &p, nil
}

func (r *GormProfileRepository) Create(ctx context.Context, p *models.Profile) error {
	if err := r.db.WithContext(ctx).Create(p).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apperror.NewDuplicate("profile", "email", p.Email)
		}
		return apperror.NewStoreFailure("create profile", err)
	}
	return nil
}

func (r *GormProfileRepository) Update(ctx context.Context, p *models.Profile) error {
	res := r.db.WithContext(ctx).Save(p)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return apperror.NewDuplicate("profile", "email", p.Email)
		}
		return apperror.NewStoreFailure("update profile", res.Error)
	}
	return nil
}

func (r *GormProfileRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Delete(&models.Profile{}, "id = ?", id)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrForeignKeyViolated) {
			return apperror.NewConflict("User still owns stock sheets")
		}
		return apperror.NewStoreFailure("delete profile", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperror.NewNotFound("profile", id)
	}
	return nil
}

func mapErr(err error, op string, id any) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperror.NewNotFound("profile", id)
	}
	return apperror.NewStoreFailure(op, err)
}
