package models

import "time"

// Event is one append-only audit log entry.
type Event struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      *uint     `gorm:"index" json:"user_id"`
	Action      string    `gorm:"size:40;not null;index" json:"action"`
	SubjectType string    `gorm:"size:40;not null" json:"subject_type"`
	SubjectID   uint      `gorm:"not null;index" json:"subject_id"`
	SubjectName string    `gorm:"size:120" json:"subject_name"`
	CreatedAt   time.Time `json:"created_at"`
}
