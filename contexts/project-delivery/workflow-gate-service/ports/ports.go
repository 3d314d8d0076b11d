package ports

import (
	"context"
	"time"

	contractsv1 "groundwork/contracts/gen/events/v1"

	"groundwork/contexts/project-delivery/workflow-gate-service/domain/entities"
)

type EventEnvelope = contractsv1.Envelope

// Read models over upstream project state. Implementations return zero-value
// snapshots with Found=false for missing entities; errors are reserved for
// infrastructure failures.

type ProjectReadModel interface {
	GetProjectState(ctx context.Context, projectID string) (entities.ProjectState, error)
}

type ContractReadModel interface {
	// GetLatestContractState returns the newest contract for the project.
	GetLatestContractState(ctx context.Context, projectID string) (entities.ContractState, error)
}

type DesignReadModel interface {
	// GetLatestDesignState returns the newest design version for the project.
	GetLatestDesignState(ctx context.Context, projectID string) (entities.DesignState, error)
}

type ReadinessReadModel interface {
	GetReadinessState(ctx context.Context, projectID string) (entities.ReadinessState, error)
}

type CloseoutReadModel interface {
	GetCloseoutState(ctx context.Context, projectID string) (entities.CloseoutState, error)
}

type PaymentReadModel interface {
	GetFinalPaymentState(ctx context.Context, projectID string) (entities.PaymentState, error)
}

// ReleaseStateReader reads escrow release transaction state. Wired in
// bootstrap against the escrow repository so the gate stays a read-only
// consumer of that context.
type ReleaseStateReader interface {
	GetReleaseState(ctx context.Context, transactionID string) (entities.ReleaseState, error)
}

type PermitSubmissionRepository interface {
	CreatePermitSubmission(ctx context.Context, submission entities.PermitSubmission, envelope EventEnvelope) error
	ListPermitSubmissionsByProject(ctx context.Context, projectID string) ([]entities.PermitSubmission, error)
}

type ReviewRepository interface {
	CreateReview(ctx context.Context, review entities.Review, envelope EventEnvelope) error
	ListReviewsByProject(ctx context.Context, projectID string) ([]entities.Review, error)
	// HasReviewByReviewer guards one review per reviewer per project.
	HasReviewByReviewer(ctx context.Context, projectID string, reviewerID string) (bool, error)
}

type OutboxMessage struct {
	OutboxID     string
	EventType    string
	PartitionKey string
	Payload      []byte
	CreatedAt    time.Time
}

type OutboxRepository interface {
	ListPendingOutbox(ctx context.Context, limit int) ([]OutboxMessage, error)
	MarkOutboxSent(ctx context.Context, outboxID string, sentAt time.Time) error
}

type EventPublisher interface {
	Publish(ctx context.Context, topic string, event EventEnvelope) error
}

type AuditEntry struct {
	ActorID      string
	Action       string
	ResourceType string
	ResourceID   string
	Detail       map[string]string
	OccurredAt   time.Time
}

type AuditRecorder interface {
	RecordAudit(ctx context.Context, entry AuditEntry) error
}

type AuditRecorderFunc func(ctx context.Context, entry AuditEntry) error

func (f AuditRecorderFunc) RecordAudit(ctx context.Context, entry AuditEntry) error {
	return f(ctx, entry)
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}
