package repository

import (
	"context"

	"muster/internal/models"

	"gorm.io/gorm"
)

// EventRepository appends to and reads the audit log.
type EventRepository interface {
	Create(ctx context.Context, event *models.Event) error
	ListBySubject(ctx context.Context, subjectType string, subjectID uint) ([]models.Event, error)
}

type eventRepository struct {
	db *gorm.DB
}

// NewEventRepository returns a new EventRepository implementation.
func NewEventRepository(db *gorm.DB) EventRepository {
	return &eventRepository{db: db}
}

func (r *eventRepository) Create(ctx context.Context, event *models.Event) error {
	return r.db.WithContext(ctx).Create(event).Error
}

func (r *eventRepository) ListBySubject(ctx context.Context, subjectType string, subjectID uint) ([]models.Event, error) {
	var events []models.Event
	err := r.db.WithContext(ctx).
		Where("subject_type = ? AND subject_id = ?", subjectType, subjectID).
		Order("id").
		Find(&events).Error
	return events, err
}
