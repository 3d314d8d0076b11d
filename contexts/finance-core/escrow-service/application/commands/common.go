package commands

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"groundwork/contexts/finance-core/escrow-service/ports"
)

const (
	sourceService = "escrow-service"
	moduleName    = "finance-core/escrow-service"
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

// recordAudit is best-effort: a failed audit append is an operational error,
// logged and dropped, never a reason to roll back the primary transition.
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
