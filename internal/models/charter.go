package models

import (
	"time"

	"gorm.io/gorm"
)

// MaxSkaters bounds the roster attached to one charter.
const MaxSkaters = 20

// Charter is one roster submission for a league. Its lifecycle is derived
// from the three nullable timestamps and the delete marker; see package charter.
type Charter struct {
	ID                  uint           `gorm:"primaryKey" json:"id"`
	LeagueID            uint           `gorm:"not null;index;uniqueIndex:idx_charters_league_slug" json:"league_id"`
	League              *League        `gorm:"foreignKey:LeagueID" json:"league,omitempty"`
	CharterTypeID       *uint          `gorm:"index" json:"charter_type_id"`
	CharterType         *CharterType   `gorm:"foreignKey:CharterTypeID" json:"charter_type,omitempty"`
	Name                string         `gorm:"size:120;not null" json:"name"`
	Slug                string         `gorm:"size:80;not null;uniqueIndex:idx_charters_league_slug" json:"slug"`
	ApprovalRequestedAt *time.Time     `json:"approval_requested_at"`
	ApprovedAt          *time.Time     `json:"approved_at"`
	ActiveFrom          *time.Time     `gorm:"index" json:"active_from"`
	Skaters             []Skater       `gorm:"foreignKey:CharterID" json:"skaters,omitempty"`
	CreatedAt           time.Time      `json:"created_at"`
	UpdatedAt           time.Time      `json:"updated_at"`
	DeletedAt           gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

// IsDeleted reports whether the charter has been soft-deleted.
func (c *Charter) IsDeleted() bool {
	return c.DeletedAt.Valid
}

// HasType reports whether the charter is of the given type. A zero typeID
// matches every charter.
func (c *Charter) HasType(typeID uint) bool {
	if typeID == 0 {
		return true
	}
	return c.CharterTypeID != nil && *c.CharterTypeID == typeID
}

// Skater is one roster line of a charter.
type Skater struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CharterID uint      `gorm:"not null;index" json:"charter_id"`
	Name      string    `gorm:"not null" json:"name"`
	Number    string    `json:"number"`
	CreatedAt time.Time `json:"created_at"`
}

// CharterType classifies charters, e.g. travel team or B team.
type CharterType struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"size:80;uniqueIndex;not null" json:"name"`
}
