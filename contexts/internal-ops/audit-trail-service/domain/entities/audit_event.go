package entities

import (
	"strings"
	"time"

	domainerrors "groundwork/contexts/internal-ops/audit-trail-service/domain/errors"
)

// AuditEvent is one append-only record of an actor acting on a resource.
type AuditEvent struct {
	EventID      string
	ActorID      string
	Action       string
	ResourceType string
	ResourceID   string
	Detail       map[string]string
	OccurredAt   time.Time
}

func NewAuditEvent(
	eventID string,
	actorID string,
	action string,
	resourceType string,
	resourceID string,
	detail map[string]string,
	occurredAt time.Time,
) (AuditEvent, error) {
	if strings.TrimSpace(eventID) == "" ||
		strings.TrimSpace(actorID) == "" ||
		strings.TrimSpace(action) == "" ||
		strings.TrimSpace(resourceType) == "" ||
		strings.TrimSpace(resourceID) == "" {
		return AuditEvent{}, domainerrors.ErrInvalidInput
	}
	if occurredAt.IsZero() {
		return AuditEvent{}, domainerrors.ErrInvalidInput
	}

	copied := make(map[string]string, len(detail))
	for key, value := range detail {
		copied[key] = value
	}

	return AuditEvent{
		EventID:      eventID,
		ActorID:      actorID,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Detail:       copied,
		OccurredAt:   occurredAt.UTC(),
	}, nil
}
