package repository

import (
	"context"
	"errors"
	"strings"

	"muster/internal/models"

	"gorm.io/gorm"
)

// UserRepository defines persistence operations for users and their roles.
type UserRepository interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
	// GetByEmail returns nil, nil when no user has the address.
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	List(ctx context.Context) ([]models.User, error)
	// ListWithoutLeague returns the users that own no live league, plus the
	// user keepID when non-zero, ordered by name.
	ListWithoutLeague(ctx context.Context, keepID uint) ([]models.User, error)
	EnsureRole(ctx context.Context, name string) (*models.Role, error)
	AssignRole(ctx context.Context, userID uint, role string) error
	RevokeRole(ctx context.Context, userID uint, role string) error
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository returns a new UserRepository implementation.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Preload("Roles").First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("User", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Preload("Roles").
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &user, nil
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *userRepository) List(ctx context.Context) ([]models.User, error) {
	var users []models.User
	err := r.db.WithContext(ctx).Preload("Roles").Preload("League").Order("id").Find(&users).Error
	return users, err
}

func (r *userRepository) ListWithoutLeague(ctx context.Context, keepID uint) ([]models.User, error) {
	owners := r.db.Model(&models.League{}).Select("user_id").Where("user_id IS NOT NULL")

	var users []models.User
	err := r.db.WithContext(ctx).
		Where("(id NOT IN (?) OR id = ?)", owners, keepID).
		Order("name").
		Find(&users).Error
	return users, err
}

func (r *userRepository) EnsureRole(ctx context.Context, name string) (*models.Role, error) {
	role := models.Role{Name: name}
	if err := r.db.WithContext(ctx).Where("name = ?", name).FirstOrCreate(&role).Error; err != nil {
		return nil, err
	}
	return &role, nil
}

func (r *userRepository) AssignRole(ctx context.Context, userID uint, role string) error {
	user, err := r.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	rec, err := r.EnsureRole(ctx, role)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Model(user).Association("Roles").Append(rec)
}

func (r *userRepository) RevokeRole(ctx context.Context, userID uint, role string) error {
	user, err := r.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	for i := range user.Roles {
		if user.Roles[i].Name == role {
			return r.db.WithContext(ctx).Model(user).Association("Roles").Delete(&user.Roles[i])
		}
	}
	return nil
}
