package repository

import (
	"context"
	"errors"

	"muster/internal/models"

	"gorm.io/gorm"
)

// CharterTypeRepository defines persistence operations for charter types.
type CharterTypeRepository interface {
	List(ctx context.Context) ([]models.CharterType, error)
	GetByID(ctx context.Context, id uint) (*models.CharterType, error)
	FirstOrCreate(ctx context.Context, name string) (*models.CharterType, error)
}

type charterTypeRepository struct {
	db *gorm.DB
}

// NewCharterTypeRepository returns a new CharterTypeRepository implementation.
func NewCharterTypeRepository(db *gorm.DB) CharterTypeRepository {
	return &charterTypeRepository{db: db}
}

func (r *charterTypeRepository) List(ctx context.Context) ([]models.CharterType, error) {
	var types []models.CharterType
	err := r.db.WithContext(ctx).Order("id").Find(&types).Error
	return types, err
}

func (r *charterTypeRepository) GetByID(ctx context.Context, id uint) (*models.CharterType, error) {
	var ct models.CharterType
	if err := r.db.WithContext(ctx).First(&ct, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Charter type", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &ct, nil
}

func (r *charterTypeRepository) FirstOrCreate(ctx context.Context, name string) (*models.CharterType, error) {
	ct := models.CharterType{Name: name}
	if err := r.db.WithContext(ctx).Where("name = ?", name).FirstOrCreate(&ct).Error; err != nil {
		return nil, err
	}
	return &ct, nil
}
