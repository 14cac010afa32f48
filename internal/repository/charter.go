package repository

import (
	"context"
	"errors"

	"muster/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CharterRepository defines persistence operations for charters and their rosters.
type CharterRepository interface {
	// Transaction runs fn with a repository bound to one database transaction.
	Transaction(ctx context.Context, fn func(repo CharterRepository) error) error
	// LockLeague takes a row lock on the league until the surrounding
	// transaction ends. It serialises writers that check league-wide invariants.
	LockLeague(ctx context.Context, leagueID uint) error
	ListByLeague(ctx context.Context, leagueID uint) ([]models.Charter, error)
	GetBySlug(ctx context.Context, leagueID uint, slug string, withDeleted bool) (*models.Charter, error)
	Create(ctx context.Context, charter *models.Charter) error
	// Update writes the given columns only. A nil value clears the column.
	Update(ctx context.Context, charter *models.Charter, fields map[string]interface{}) error
	Delete(ctx context.Context, id uint) error
	// ReplaceSkaters deletes the roster of a charter and inserts skaters in
	// its place, atomically.
	ReplaceSkaters(ctx context.Context, charterID uint, skaters []models.Skater) error
}

type charterRepository struct {
	db *gorm.DB
}

// NewCharterRepository returns a new CharterRepository implementation.
func NewCharterRepository(db *gorm.DB) CharterRepository {
	return &charterRepository{db: db}
}

func (r *charterRepository) Transaction(ctx context.Context, fn func(repo CharterRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&charterRepository{db: tx})
	})
}

func (r *charterRepository) LockLeague(ctx context.Context, leagueID uint) error {
	var league models.League
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id").
		First(&league, leagueID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.NewNotFoundError("League", leagueID)
	}
	return err
}

func (r *charterRepository) ListByLeague(ctx context.Context, leagueID uint) ([]models.Charter, error) {
	var charters []models.Charter
	err := r.db.WithContext(ctx).
		Where("league_id = ?", leagueID).
		Order("id").
		Find(&charters).Error
	return charters, err
}

func (r *charterRepository) GetBySlug(ctx context.Context, leagueID uint, slug string, withDeleted bool) (*models.Charter, error) {
	q := r.db.WithContext(ctx)
	if withDeleted {
		q = q.Unscoped()
	}

	var charter models.Charter
	err := q.Preload("CharterType").
		Preload("Skaters", func(db *gorm.DB) *gorm.DB {
			return db.Order("number, id")
		}).
		Where("league_id = ? AND slug = ?", leagueID, slug).
		First(&charter).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Charter", slug)
		}
		return nil, models.NewInternalError(err)
	}
	return &charter, nil
}

func (r *charterRepository) Create(ctx context.Context, charter *models.Charter) error {
	return r.db.WithContext(ctx).Omit("Skaters", "League", "CharterType").Create(charter).Error
}

func (r *charterRepository) Update(ctx context.Context, charter *models.Charter, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Model(charter).Omit(clause.Associations).Updates(fields).Error
}

func (r *charterRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Charter{}, id).Error
}

func (r *charterRepository) ReplaceSkaters(ctx context.Context, charterID uint, skaters []models.Skater) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("charter_id = ?", charterID).Delete(&models.Skater{}).Error; err != nil {
			return err
		}
		if len(skaters) == 0 {
			return nil
		}

		rows := make([]models.Skater, len(skaters))
		for i, s := range skaters {
			rows[i] = models.Skater{CharterID: charterID, Name: s.Name, Number: s.Number}
		}
		return tx.Create(&rows).Error
	})
}
