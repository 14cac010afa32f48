package service

import (
	"context"
	"strings"

	"muster/internal/access"
	"muster/internal/middleware"
	"muster/internal/models"
	"muster/internal/repository"

	"golang.org/x/crypto/bcrypt"
)

type AuthService struct {
	users repository.UserRepository
}

type LoginInput struct {
	Email    string
	Password string
}

func NewAuthService(users repository.UserRepository) *AuthService {
	return &AuthService{users: users}
}

// Login checks the credentials and issues a token for the user.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (string, *models.User, error) {
	if strings.TrimSpace(in.Email) == "" || in.Password == "" {
		return "", nil, models.NewValidationError("Email and password are required")
	}

	user, err := s.users.GetByEmail(ctx, in.Email)
	if err != nil {
		return "", nil, err
	}
	if user == nil {
		return "", nil, models.NewUnauthorizedError("Invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(in.Password)); err != nil {
		return "", nil, models.NewUnauthorizedError("Invalid credentials")
	}

	token, err := middleware.GenerateToken(user.ID)
	if err != nil {
		return "", nil, models.NewInternalError(err)
	}
	return token, user, nil
}

// Actor loads the user behind an authenticated request. A zero userID is an
// anonymous visitor.
func (s *AuthService) Actor(ctx context.Context, userID uint) (access.Actor, error) {
	if userID == 0 {
		return access.Actor{}, nil
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if models.IsCode(err, models.CodeNotFound) {
			return access.Actor{}, models.NewUnauthorizedError("User no longer exists")
		}
		return access.Actor{}, err
	}
	return access.ActorFromUser(user), nil
}

// HashPassword hashes a plain text password for storage.
func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}
