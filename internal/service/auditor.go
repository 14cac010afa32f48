package service

import (
	"context"
	"log/slog"

	"muster/internal/access"
	"muster/internal/middleware"
	"muster/internal/models"
	"muster/internal/observability"
	"muster/internal/repository"
)

// Audit actions.
const (
	AuditStored            = "stored"
	AuditUpdated           = "updated"
	AuditDeleted           = "deleted"
	AuditRequestedApproval = "requested-approval"
	AuditApproved          = "approved"
	AuditRejected          = "rejected"
)

// Auditor appends charter events to the audit log. A failed write is logged
// and counted, the operation that triggered it has already committed.
type Auditor struct {
	events repository.EventRepository
	logger *slog.Logger
}

func NewAuditor(events repository.EventRepository) *Auditor {
	return &Auditor{events: events, logger: middleware.Logger}
}

// Record writes one event for actor performing action on c.
func (a *Auditor) Record(ctx context.Context, actor access.Actor, action string, c *models.Charter) {
	if a == nil || a.events == nil {
		return
	}
	event := &models.Event{
		Action:      action,
		SubjectType: "charter",
		SubjectID:   c.ID,
		SubjectName: c.Name,
	}
	if !actor.Anonymous() {
		id := actor.ID
		event.UserID = &id
	}
	if err := a.events.Create(ctx, event); err != nil {
		observability.AuditFailures.Inc()
		a.logger.ErrorContext(ctx, "failed to record audit event",
			"action", action, "charter_id", c.ID, "error", err)
	}
}
