// Package models contains data structures for the application's domain models.
package models

import (
	"time"

	"gorm.io/gorm"
)

// Role names recognised by the access gate.
const (
	RoleRoot     = "root"
	RoleStaff    = "staff"
	RoleOperator = "operator"
)

// User is an account that can own leagues and act on charters.
type User struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Name      string         `gorm:"size:120;not null" json:"name"`
	Email     string         `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Password  string         `gorm:"not null" json:"-"`
	Roles     []Role         `gorm:"many2many:user_roles" json:"roles,omitempty"`
	League    *League        `gorm:"foreignKey:UserID" json:"league,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// RoleNames returns the names of the roles attached to the user.
func (u *User) RoleNames() []string {
	names := make([]string, 0, len(u.Roles))
	for _, r := range u.Roles {
		names = append(names, r.Name)
	}
	return names
}

// Role is a named set of permissions. Permissions themselves live in the
// access registry, only the assignment is stored.
type Role struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:40;uniqueIndex;not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`
}
