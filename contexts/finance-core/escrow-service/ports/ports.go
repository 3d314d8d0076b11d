package ports

import (
	"context"
	"time"

	contractsv1 "groundwork/contracts/gen/events/v1"

	"groundwork/contexts/finance-core/escrow-service/domain/entities"
)

type EventEnvelope = contractsv1.Envelope

type AgreementRepository interface {
	CreateAgreement(ctx context.Context, agreement entities.Agreement) error
	GetAgreement(ctx context.Context, agreementID string) (entities.Agreement, error)
	ListAgreementsByProject(ctx context.Context, projectID string) ([]entities.Agreement, error)
	// UpdateAgreementStatus is conditional on the status the caller read and
	// fails with ErrStaleState when another writer got there first.
	UpdateAgreementStatus(ctx context.Context, agreementID string, expected entities.AgreementStatus, next entities.AgreementStatus, updatedAt time.Time) error
	// FundAgreementWithDeposit commits the funded flag, funded amount, status
	// change, deposit row, and outbox message in one write boundary.
	FundAgreementWithDeposit(ctx context.Context, agreementID string, deposit entities.Transaction, fundedAt time.Time, envelope EventEnvelope) error
}

type TransactionRepository interface {
	// CreateTransactionWithOutbox commits the transaction row and its outbox
	// message together.
	CreateTransactionWithOutbox(ctx context.Context, txn entities.Transaction, envelope EventEnvelope) error
	GetTransaction(ctx context.Context, transactionID string) (entities.Transaction, error)
	ListTransactionsByAgreement(ctx context.Context, agreementID string) ([]entities.Transaction, error)
	// FindOpenReleaseByMilestone returns the non-terminal release holding the
	// milestone's slot, if any.
	FindOpenReleaseByMilestone(ctx context.Context, milestoneID string) (entities.Transaction, bool, error)
	// CompleteReleaseWithOutbox is the single atomic conditional update that
	// moves a release from pending_approval to completed. The guard is
	// (status = pending_approval AND version = expectedVersion); zero rows
	// affected maps to ErrStaleState.
	CompleteReleaseWithOutbox(ctx context.Context, txn entities.Transaction, expectedVersion int, envelope EventEnvelope) error
	// MarkTransactionRejected is guarded the same way against the status and
	// version the caller read.
	MarkTransactionRejected(ctx context.Context, transactionID string, expectedStatus entities.TransactionStatus, expectedVersion int, rejectedBy string, reason string, rejectedAt time.Time, envelope EventEnvelope) error
	// SetTransactionVerification flips verification completeness and, when the
	// gate outcome demands it, the status transition that goes with it.
	SetTransactionVerification(ctx context.Context, transactionID string, expectedVersion int, verificationComplete bool, next entities.TransactionStatus, updatedAt time.Time) error
}

type ReceiptRepository interface {
	CreateReceipt(ctx context.Context, receipt entities.Receipt) error
	GetReceipt(ctx context.Context, receiptID string) (entities.Receipt, error)
	ListReceiptsByTransaction(ctx context.Context, transactionID string) ([]entities.Receipt, error)
	UpdateReceiptVerification(ctx context.Context, receiptID string, verified bool, verifierID string, notes string, verifiedAt time.Time) error
}

type MilestoneRepository interface {
	GetMilestone(ctx context.Context, milestoneID string) (entities.Milestone, error)
	ListMilestonesByContract(ctx context.Context, contractID string) ([]entities.Milestone, error)
	MarkMilestonePaid(ctx context.Context, milestoneID string, paidAt time.Time) error
}

type IdempotencyRecord struct {
	Key           string
	RequestHash   string
	TransactionID string
	ExpiresAt     time.Time
}

type IdempotencyStore interface {
	Get(ctx context.Context, key string, now time.Time) (IdempotencyRecord, bool, error)
	Put(ctx context.Context, record IdempotencyRecord) error
}

type OutboxMessage struct {
	OutboxID     string
	EventType    string
	PartitionKey string
	Payload      []byte
	CreatedAt    time.Time
}

type OutboxWriter interface {
	AppendOutbox(ctx context.Context, envelope EventEnvelope) error
}

type OutboxRepository interface {
	ListPendingOutbox(ctx context.Context, limit int) ([]OutboxMessage, error)
	MarkOutboxSent(ctx context.Context, outboxID string, sentAt time.Time) error
}

type EventPublisher interface {
	Publish(ctx context.Context, topic string, event EventEnvelope) error
}

// TransferRequest carries the transaction id as the provider idempotency key
// so a retried approve after a timeout can never double-transfer.
type TransferRequest struct {
	IdempotencyKey       string
	Amount               float64
	Currency             string
	DestinationAccountID string
	Metadata             map[string]string
}

type Transfer struct {
	TransferID string
}

type PayoutAccount struct {
	AccountID      string
	PayoutsEnabled bool
}

type PaymentProvider interface {
	CreateTransfer(ctx context.Context, req TransferRequest) (Transfer, error)
	GetPayoutAccount(ctx context.Context, userID string) (PayoutAccount, error)
}

// ReleaseSnapshot is the fresh transaction state handed to the release gate.
// Evaluation is pure; the orchestrator loads state and passes it in.
type ReleaseSnapshot struct {
	Found                bool
	Status               entities.TransactionStatus
	VerificationComplete bool
}

type ReleaseGateReason struct {
	Type    string
	Message string
}

type ReleaseGateResult struct {
	Allowed bool
	Reasons []ReleaseGateReason
}

type ReleaseGate interface {
	EvaluateRelease(snapshot ReleaseSnapshot) ReleaseGateResult
}

// ReleaseGateFunc adapts a pure evaluation function to the ReleaseGate port.
type ReleaseGateFunc func(snapshot ReleaseSnapshot) ReleaseGateResult

func (f ReleaseGateFunc) EvaluateRelease(snapshot ReleaseSnapshot) ReleaseGateResult {
	return f(snapshot)
}

type AuditEntry struct {
	ActorID      string
	Action       string
	ResourceType string
	ResourceID   string
	Detail       map[string]string
	OccurredAt   time.Time
}

// AuditRecorder is best-effort observability. Append failures are logged by
// callers and never roll back the primary transition.
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
