package commands

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"groundwork/contexts/project-delivery/workflow-gate-service/domain/entities"
	domainerrors "groundwork/contexts/project-delivery/workflow-gate-service/domain/errors"
	"groundwork/contexts/project-delivery/workflow-gate-service/ports"
)

const (
	sourceService = "workflow-gate-service"
	moduleName    = "project-delivery/workflow-gate-service"
)

func buildEnvelope(
	eventID string,
	eventType string,
	partitionKeyPath string,
	partitionKey string,
	occurredAt time.Time,
	payload map[string]any,
) (ports.EventEnvelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return ports.EventEnvelope{}, err
	}
	return ports.EventEnvelope{
		EventID:          eventID,
		EventType:        eventType,
		OccurredAt:       occurredAt.UTC(),
		SourceService:    sourceService,
		TraceID:          eventID,
		SchemaVersion:    1,
		PartitionKeyPath: partitionKeyPath,
		PartitionKey:     partitionKey,
		Data:             data,
	}, nil
}

// blockedFromResult converts a failed gate verdict into the error callers
// surface, carrying every unmet reason.
func blockedFromResult(result entities.Result) *domainerrors.BlockedError {
	reasons := make([]domainerrors.BlockedReason, 0, len(result.BlockingReasons))
	for _, reason := range result.BlockingReasons {
		reasons = append(reasons, domainerrors.BlockedReason{
			Type:    string(reason.Type),
			Message: reason.Message,
		})
	}
	return &domainerrors.BlockedError{Reasons: reasons}
}

// recordAudit is best-effort: append failures are logged and dropped, never
// a reason to roll back the primary transition.
func recordAudit(ctx context.Context, logger *slog.Logger, recorder ports.AuditRecorder, entry ports.AuditEntry) {
	if recorder == nil {
		return
	}
	if err := recorder.RecordAudit(ctx, entry); err != nil {
		logger.Error("audit append failed",
			"event", "audit_append_failed",
			"module", moduleName,
			"layer", "application",
			"action", entry.Action,
			"resource_type", entry.ResourceType,
			"resource_id", entry.ResourceID,
			"error", err.Error(),
		)
	}
}
