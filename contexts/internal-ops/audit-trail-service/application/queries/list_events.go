package queries

import (
	"context"
	"strings"

	"groundwork/contexts/internal-ops/audit-trail-service/domain/entities"
	"groundwork/contexts/internal-ops/audit-trail-service/ports"
)

const defaultListLimit = 50

type ListEventsQuery struct {
	Events ports.AuditEventRepository
}

type ListEventsFilter struct {
	ResourceType string
	ResourceID   string
	Limit        int
}

// Execute returns recent events, optionally scoped to one resource. Results
// are newest first.
func (q ListEventsQuery) Execute(ctx context.Context, filter ListEventsFilter) ([]entities.AuditEvent, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	if strings.TrimSpace(filter.ResourceType) != "" && strings.TrimSpace(filter.ResourceID) != "" {
		return q.Events.ListAuditEventsByResource(ctx, filter.ResourceType, filter.ResourceID, limit)
	}
	return q.Events.ListRecentAuditEvents(ctx, limit)
}
