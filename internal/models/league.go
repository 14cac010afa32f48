package models

import (
	"time"

	"gorm.io/gorm"
)

// League is a roller derby organization that submits charters.
type League struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	UserID    *uint          `gorm:"index" json:"user_id"`
	User      *User          `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Slug      string         `gorm:"size:64;uniqueIndex;not null" json:"slug"`
	Name      string         `gorm:"size:120;not null" json:"name"`
	Charters  []Charter      `gorm:"foreignKey:LeagueID" json:"-"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// IsOwnedBy reports whether userID owns the league.
func (l *League) IsOwnedBy(userID uint) bool {
	return l.UserID != nil && userID != 0 && *l.UserID == userID
}

// IsDeleted reports whether the league has been soft-deleted.
func (l *League) IsDeleted() bool {
	return l.DeletedAt.Valid
}
