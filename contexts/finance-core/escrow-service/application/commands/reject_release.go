package commands

import (
	"context"
	"log/slog"
	"strings"
	"time"

	application "groundwork/contexts/finance-core/escrow-service/application"
	"groundwork/contexts/finance-core/escrow-service/domain/entities"
	domainerrors "groundwork/contexts/finance-core/escrow-service/domain/errors"
	"groundwork/contexts/finance-core/escrow-service/ports"
)

const releaseRejectedEventType = "escrow.release.rejected"

type RejectReleaseCommand struct {
	TransactionID string
	RejecterID    string
	RejecterRole  string
	Reason        string
}

type RejectReleaseResult struct {
	Transaction entities.Transaction
}

// RejectReleaseUseCase refuses an open release. Rejection is terminal and
// never touches ledger balances: nothing was transferred, the reservation
// simply lapses when the status leaves the open set.
type RejectReleaseUseCase struct {
	Agreements   ports.AgreementRepository
	Transactions ports.TransactionRepository
	Audit        ports.AuditRecorder
	Clock        ports.Clock
	IDGenerator  ports.IDGenerator
	Logger       *slog.Logger
}

func (u RejectReleaseUseCase) Execute(ctx context.Context, cmd RejectReleaseCommand) (RejectReleaseResult, error) {
	logger := application.ResolveLogger(u.Logger)
	if strings.TrimSpace(cmd.TransactionID) == "" || strings.TrimSpace(cmd.RejecterID) == "" {
		return RejectReleaseResult{}, domainerrors.ErrInvalidInput
	}
	reason := strings.TrimSpace(cmd.Reason)
	if reason == "" {
		return RejectReleaseResult{}, domainerrors.ErrRejectionReasonRequired
	}

	txn, err := u.Transactions.GetTransaction(ctx, cmd.TransactionID)
	if err != nil {
		return RejectReleaseResult{}, err
	}
	if txn.Type != entities.TransactionTypeRelease {
		return RejectReleaseResult{}, domainerrors.ErrInvalidInput
	}
	if !txn.Rejectable() {
		return RejectReleaseResult{}, domainerrors.ErrStaleState
	}

	agreement, err := u.Agreements.GetAgreement(ctx, txn.AgreementID)
	if err != nil {
		return RejectReleaseResult{}, err
	}
	if cmd.RejecterID != agreement.PayerID && cmd.RejecterRole != RoleAdmin {
		return RejectReleaseResult{}, domainerrors.ErrUnauthorized
	}

	now := u.now()
	eventID, err := u.IDGenerator.NewID(ctx)
	if err != nil {
		return RejectReleaseResult{}, err
	}
	envelope, err := buildEnvelope(eventID, releaseRejectedEventType, "agreement_id", agreement.AgreementID, now, map[string]any{
		"transaction_id": txn.TransactionID,
		"agreement_id":   agreement.AgreementID,
		"milestone_id":   txn.MilestoneID,
		"rejected_by":    cmd.RejecterID,
		"reason":         reason,
	})
	if err != nil {
		return RejectReleaseResult{}, err
	}

	if err := u.Transactions.MarkTransactionRejected(ctx, txn.TransactionID, txn.Status, txn.Version, cmd.RejecterID, reason, now, envelope); err != nil {
		return RejectReleaseResult{}, err
	}
	txn.Status = entities.TransactionStatusRejected
	txn.RejectedBy = cmd.RejecterID
	txn.RejectedAt = now
	txn.RejectionReason = reason
	txn.Version++
	txn.UpdatedAt = now

	recordAudit(ctx, logger, u.Audit, ports.AuditEntry{
		ActorID:      cmd.RejecterID,
		Action:       "escrow.release.reject",
		ResourceType: "escrow_transaction",
		ResourceID:   txn.TransactionID,
		Detail: map[string]string{
			"agreement_id": agreement.AgreementID,
			"milestone_id": txn.MilestoneID,
			"reason":       reason,
		},
		OccurredAt: now,
	})

	logger.Info("escrow release rejected",
		"event", "escrow_release_rejected",
		"module", moduleName,
		"layer", "application",
		"transaction_id", txn.TransactionID,
		"agreement_id", agreement.AgreementID,
		"reason", reason,
	)
	return RejectReleaseResult{Transaction: txn}, nil
}

func (u RejectReleaseUseCase) now() time.Time {
	if u.Clock == nil {
		return time.Now().UTC()
	}
	return u.Clock.Now().UTC()
}
