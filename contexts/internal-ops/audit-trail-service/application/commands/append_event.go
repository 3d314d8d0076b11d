package commands

import (
	"context"
	"log/slog"
	"time"

	application "groundwork/contexts/internal-ops/audit-trail-service/application"
	"groundwork/contexts/internal-ops/audit-trail-service/domain/entities"
	"groundwork/contexts/internal-ops/audit-trail-service/ports"
)

type AppendEventCommand struct {
	ActorID      string
	Action       string
	ResourceType string
	ResourceID   string
	Detail       map[string]string
	OccurredAt   time.Time
}

type AppendEventResult struct {
	Event entities.AuditEvent
}

// AppendEventUseCase appends one audit record. OccurredAt defaults to now
// when the caller did not stamp it at the source.
type AppendEventUseCase struct {
	Events      ports.AuditEventRepository
	Clock       ports.Clock
	IDGenerator ports.IDGenerator
	Logger      *slog.Logger
}

func (u AppendEventUseCase) Execute(ctx context.Context, cmd AppendEventCommand) (AppendEventResult, error) {
	logger := application.ResolveLogger(u.Logger)

	eventID, err := u.IDGenerator.NewID(ctx)
	if err != nil {
		return AppendEventResult{}, err
	}
	occurredAt := cmd.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = u.Clock.Now()
	}

	event, err := entities.NewAuditEvent(
		eventID,
		cmd.ActorID,
		cmd.Action,
		cmd.ResourceType,
		cmd.ResourceID,
		cmd.Detail,
		occurredAt,
	)
	if err != nil {
		return AppendEventResult{}, err
	}

	if err := u.Events.AppendAuditEvent(ctx, event); err != nil {
		return AppendEventResult{}, err
	}

	logger.Debug("audit event appended",
		"event", "audit_event_appended",
		"module", "internal-ops/audit-trail-service",
		"layer", "application",
		"audit_event_id", event.EventID,
		"action", event.Action,
		"resource_type", event.ResourceType,
	)
	return AppendEventResult{Event: event}, nil
}
