// Package repository implements the data access layer for the application.
package repository

import (
	"context"
	"errors"

	"muster/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LeagueRepository defines persistence operations for leagues.
type LeagueRepository interface {
	// GetBySlug loads a league including soft-deleted ones, so callers can
	// tell a deleted league apart from a missing one.
	GetBySlug(ctx context.Context, slug string) (*models.League, error)
	GetByID(ctx context.Context, id uint) (*models.League, error)
	// GetByOwner returns the live league owned by userID, or nil, nil.
	GetByOwner(ctx context.Context, userID uint) (*models.League, error)
	Create(ctx context.Context, league *models.League) error
	// Update writes the given columns only. A nil value clears the column.
	Update(ctx context.Context, league *models.League, fields map[string]interface{}) error
	List(ctx context.Context) ([]models.League, error)
	Delete(ctx context.Context, id uint) error
	// Transaction runs fn with a repository bound to one database transaction.
	Transaction(ctx context.Context, fn func(repo LeagueRepository) error) error
	// LockUser takes a row lock on a user until the surrounding transaction
	// ends, serialising owner assignments. A missing user is NotFound.
	LockUser(ctx context.Context, userID uint) error
}

type leagueRepository struct {
	db *gorm.DB
}

// NewLeagueRepository returns a new LeagueRepository implementation.
func NewLeagueRepository(db *gorm.DB) LeagueRepository {
	return &leagueRepository{db: db}
}

func (r *leagueRepository) GetBySlug(ctx context.Context, slug string) (*models.League, error) {
	var league models.League
	err := r.db.WithContext(ctx).Unscoped().Preload("User").Where("slug = ?", slug).First(&league).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("League", slug)
		}
		return nil, models.NewInternalError(err)
	}
	return &league, nil
}

func (r *leagueRepository) GetByID(ctx context.Context, id uint) (*models.League, error) {
	var league models.League
	if err := r.db.WithContext(ctx).Preload("User").First(&league, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("League", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &league, nil
}

func (r *leagueRepository) GetByOwner(ctx context.Context, userID uint) (*models.League, error) {
	var league models.League
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("id").First(&league).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return &league, nil
}

func (r *leagueRepository) Create(ctx context.Context, league *models.League) error {
	return r.db.WithContext(ctx).Create(league).Error
}

func (r *leagueRepository) List(ctx context.Context) ([]models.League, error) {
	var leagues []models.League
	err := r.db.WithContext(ctx).Order("name").Find(&leagues).Error
	return leagues, err
}

func (r *leagueRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.League{}, id).Error
}

func (r *leagueRepository) Update(ctx context.Context, league *models.League, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Model(league).Omit(clause.Associations).Updates(fields).Error
}

func (r *leagueRepository) Transaction(ctx context.Context, fn func(repo LeagueRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&leagueRepository{db: tx})
	})
}

func (r *leagueRepository) LockUser(ctx context.Context, userID uint) error {
	var user models.User
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id").
		First(&user, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.NewNotFoundError("User", userID)
	}
	return err
}
