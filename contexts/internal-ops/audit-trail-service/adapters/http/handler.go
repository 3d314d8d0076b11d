package httpadapter

import (
	"context"
	"log/slog"
	"time"

	"groundwork/contexts/internal-ops/audit-trail-service/application/queries"
	"groundwork/contexts/internal-ops/audit-trail-service/domain/entities"
	httptransport "groundwork/contexts/internal-ops/audit-trail-service/transport/http"
)

type Handler struct {
	ListEvents queries.ListEventsQuery
	Logger     *slog.Logger
}

// ListEventsHandler godoc
// @Summary List audit events
// @Description Read feed for operational dashboards, newest first. Optional resource scoping.
// @Tags audit-trail
// @Produce json
// @Security BearerAuth
// @Param X-Request-Id header string true "Request correlation id"
// @Param resource_type query string false "Resource type filter (pair with resource_id)"
// @Param resource_id query string false "Resource id filter"
// @Param limit query int false "Max rows (default 50)"
// @Success 200 {object} httptransport.ListEventsResponse
// @Failure 401 {object} httptransport.ErrorResponse
// @Router /audit/events [get]
func (h Handler) ListEventsHandler(
	ctx context.Context,
	resourceType string,
	resourceID string,
	limit int,
) (httptransport.ListEventsResponse, error) {
	items, err := h.ListEvents.Execute(ctx, queries.ListEventsFilter{
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Limit:        limit,
	})
	if err != nil {
		return httptransport.ListEventsResponse{}, err
	}
	out := make([]httptransport.AuditEventDTO, 0, len(items))
	for _, item := range items {
		out = append(out, mapEvent(item))
	}
	return httptransport.ListEventsResponse{Items: out}, nil
}

func mapEvent(event entities.AuditEvent) httptransport.AuditEventDTO {
	return httptransport.AuditEventDTO{
		EventID:      event.EventID,
		ActorID:      event.ActorID,
		Action:       event.Action,
		ResourceType: event.ResourceType,
		ResourceID:   event.ResourceID,
		Detail:       event.Detail,
		OccurredAt:   event.OccurredAt.UTC().Format(time.RFC3339),
	}
}
