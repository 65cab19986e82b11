package service

import (
	"context"
	"encoding/json"

	"absensi/internal/model"
	"absensi/internal/repository"

	"github.com/google/uuid"
)

const (
	EventAttendanceCreated = "attendance.created"
	EventProfileDeleted    = "profile.deleted"
)

// EventPublisher pushes events to live dashboards
type EventPublisher interface {
	Publish(event string, data interface{})
}

type nopPublisher struct{}

func (nopPublisher) Publish(string, interface{}) {}

func publisherOrNop(p EventPublisher) EventPublisher {
	if p == nil {
		return nopPublisher{}
	}
	return p
}

func writeAudit(ctx context.Context, repo repository.AuditRepository, actor *uuid.UUID, action, entityID, entityName string, details interface{}) error {
	payload, _ := json.Marshal(details)
	return repo.Log(ctx, &model.AuditLog{
		UserID:     actor,
		Action:     action,
		EntityID:   entityID,
		EntityName: entityName,
		Details:    string(payload),
	})
}
