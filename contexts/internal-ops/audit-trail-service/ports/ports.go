package ports

import (
	"context"
	"time"

	"groundwork/contexts/internal-ops/audit-trail-service/domain/entities"
)

// AuditEventRepository is append-only: no update or delete operations exist.
type AuditEventRepository interface {
	AppendAuditEvent(ctx context.Context, event entities.AuditEvent) error
	ListAuditEventsByResource(ctx context.Context, resourceType string, resourceID string, limit int) ([]entities.AuditEvent, error)
	ListRecentAuditEvents(ctx context.Context, limit int) ([]entities.AuditEvent, error)
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}
