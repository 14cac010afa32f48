package service

import (
	"context"
	"fmt"
	"strings"

	"muster/internal/access"
	"muster/internal/models"
	"muster/internal/repository"
)

// RoleService assigns registry roles to users.
type RoleService struct {
	users    repository.UserRepository
	registry *access.Registry
}

func NewRoleService(users repository.UserRepository, registry *access.Registry) *RoleService {
	if registry == nil {
		registry = access.DefaultRegistry()
	}
	return &RoleService{users: users, registry: registry}
}

func (s *RoleService) lookup(ctx context.Context, email, role string) (*models.User, error) {
	if !s.registry.Defined(role) {
		return nil, models.NewValidationError(fmt.Sprintf("unknown role %q, expected one of: %s",
			role, strings.Join(s.registry.Roles(), ", ")))
	}
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, models.NewNotFoundError("User", email)
	}
	return user, nil
}

// Grant gives the user with email the role.
func (s *RoleService) Grant(ctx context.Context, email, role string) error {
	user, err := s.lookup(ctx, email, role)
	if err != nil {
		return err
	}
	return s.users.AssignRole(ctx, user.ID, role)
}

// Revoke removes the role from the user with email.
func (s *RoleService) Revoke(ctx context.Context, email, role string) error {
	user, err := s.lookup(ctx, email, role)
	if err != nil {
		return err
	}
	return s.users.RevokeRole(ctx, user.ID, role)
}

// Users lists every user with their roles.
func (s *RoleService) Users(ctx context.Context) ([]models.User, error) {
	return s.users.List(ctx)
}
