package httptransport

type AuditEventDTO struct {
	EventID      string            `json:"event_id"`
	ActorID      string            `json:"actor_id"`
	Action       string            `json:"action"`
	ResourceType string            `json:"resource_type"`
	ResourceID   string            `json:"resource_id"`
	Detail       map[string]string `json:"detail,omitempty"`
	OccurredAt   string            `json:"occurred_at"`
}

type ListEventsResponse struct {
	Items []AuditEventDTO `json:"items"`
}

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
