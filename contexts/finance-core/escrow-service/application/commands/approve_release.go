package commands

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	application "groundwork/contexts/finance-core/escrow-service/application"
	"groundwork/contexts/finance-core/escrow-service/domain/entities"
	domainerrors "groundwork/contexts/finance-core/escrow-service/domain/errors"
	"groundwork/contexts/finance-core/escrow-service/ports"
)

const (
	releaseCompletedEventType = "escrow.release.completed"

	RoleAdmin = "admin"
)

type ApproveReleaseCommand struct {
	TransactionID string
	ApproverID    string
	ApproverRole  string
	Notes         string
}

type ApproveReleaseResult struct {
	Transaction entities.Transaction
}

// ApproveReleaseUseCase executes the approve step of the release workflow:
// 1) fresh release-gate evaluation (client state is never trusted)
// 2) approver authorization against the agreement's payer or admin role
// 3) payee payout-account check
// 4) provider transfer, keyed by transaction id for idempotency
// 5) status-guarded completion write carrying the provider transfer id.
//
// The transfer call and the completion write form one logical step: the
// transaction is never marked completed without a confirmed external
// reference, and a provider failure or timeout leaves it in pending_approval
// so approve can be retried. Concurrent approvals race on the guarded write;
// the loser observes ErrStaleState and the provider idempotency key
// guarantees a single real transfer either way.
type ApproveReleaseUseCase struct {
	Agreements      ports.AgreementRepository
	Transactions    ports.TransactionRepository
	Milestones      ports.MilestoneRepository
	Gate            ports.ReleaseGate
	Provider        ports.PaymentProvider
	Audit           ports.AuditRecorder
	Clock           ports.Clock
	IDGenerator     ports.IDGenerator
	ProviderTimeout time.Duration
	Logger          *slog.Logger
}

func (u ApproveReleaseUseCase) Execute(ctx context.Context, cmd ApproveReleaseCommand) (ApproveReleaseResult, error) {
	logger := application.ResolveLogger(u.Logger)
	if strings.TrimSpace(cmd.TransactionID) == "" || strings.TrimSpace(cmd.ApproverID) == "" {
		return ApproveReleaseResult{}, domainerrors.ErrInvalidInput
	}

	txn, err := u.Transactions.GetTransaction(ctx, cmd.TransactionID)
	if err != nil {
		if errors.Is(err, domainerrors.ErrTransactionNotFound) {
			return ApproveReleaseResult{}, u.blocked(ctx, logger, cmd, ports.ReleaseSnapshot{Found: false})
		}
		return ApproveReleaseResult{}, err
	}
	if txn.Type != entities.TransactionTypeRelease {
		return ApproveReleaseResult{}, domainerrors.ErrInvalidInput
	}

	verdict := u.Gate.EvaluateRelease(ports.ReleaseSnapshot{
		Found:                true,
		Status:               txn.Status,
		VerificationComplete: txn.VerificationComplete,
	})
	if !verdict.Allowed {
		reasons := make([]domainerrors.BlockedReason, 0, len(verdict.Reasons))
		for _, reason := range verdict.Reasons {
			reasons = append(reasons, domainerrors.BlockedReason{Type: reason.Type, Message: reason.Message})
		}
		logger.Warn("release approval blocked",
			"event", "escrow_release_approve_blocked",
			"module", moduleName,
			"layer", "application",
			"transaction_id", txn.TransactionID,
			"blocking_reasons", len(reasons),
		)
		return ApproveReleaseResult{}, &domainerrors.BlockedError{Reasons: reasons}
	}

	agreement, err := u.Agreements.GetAgreement(ctx, txn.AgreementID)
	if err != nil {
		return ApproveReleaseResult{}, err
	}
	if cmd.ApproverID != agreement.PayerID && cmd.ApproverRole != RoleAdmin {
		return ApproveReleaseResult{}, domainerrors.ErrUnauthorized
	}

	account, err := u.Provider.GetPayoutAccount(ctx, agreement.PayeeID)
	if err != nil {
		return ApproveReleaseResult{}, err
	}
	if !account.PayoutsEnabled {
		return ApproveReleaseResult{}, domainerrors.ErrPayoutAccountUnavailable
	}

	now := u.now()
	transfer, err := u.createTransfer(ctx, txn, agreement, account)
	if err != nil {
		logger.Error("provider transfer failed",
			"event", "escrow_release_transfer_failed",
			"module", moduleName,
			"layer", "application",
			"transaction_id", txn.TransactionID,
			"agreement_id", agreement.AgreementID,
			"error", err.Error(),
		)
		return ApproveReleaseResult{}, err
	}

	eventID, err := u.IDGenerator.NewID(ctx)
	if err != nil {
		return ApproveReleaseResult{}, err
	}
	completed := txn
	completed.Status = entities.TransactionStatusCompleted
	completed.ApprovedBy = cmd.ApproverID
	completed.ApprovedAt = now
	completed.ProviderTransferID = transfer.TransferID
	completed.UpdatedAt = now
	envelope, err := buildEnvelope(eventID, releaseCompletedEventType, "agreement_id", agreement.AgreementID, now, map[string]any{
		"transaction_id":       completed.TransactionID,
		"agreement_id":         agreement.AgreementID,
		"milestone_id":         completed.MilestoneID,
		"amount":               completed.Amount,
		"currency":             completed.Currency,
		"approved_by":          completed.ApprovedBy,
		"provider_transfer_id": completed.ProviderTransferID,
	})
	if err != nil {
		return ApproveReleaseResult{}, err
	}

	if err := u.Transactions.CompleteReleaseWithOutbox(ctx, completed, txn.Version, envelope); err != nil {
		if errors.Is(err, domainerrors.ErrStaleState) {
			logger.Warn("release completion lost concurrency race",
				"event", "escrow_release_complete_stale",
				"module", moduleName,
				"layer", "application",
				"transaction_id", txn.TransactionID,
			)
		}
		return ApproveReleaseResult{}, err
	}
	completed.Version = txn.Version + 1

	u.applyPostCompletionEffects(ctx, logger, agreement, completed, now)

	recordAudit(ctx, logger, u.Audit, ports.AuditEntry{
		ActorID:      cmd.ApproverID,
		Action:       "escrow.release.approve",
		ResourceType: "escrow_transaction",
		ResourceID:   completed.TransactionID,
		Detail: map[string]string{
			"agreement_id":         agreement.AgreementID,
			"milestone_id":         completed.MilestoneID,
			"provider_transfer_id": completed.ProviderTransferID,
			"notes":                strings.TrimSpace(cmd.Notes),
		},
		OccurredAt: now,
	})

	logger.Info("escrow release completed",
		"event", "escrow_release_completed",
		"module", moduleName,
		"layer", "application",
		"transaction_id", completed.TransactionID,
		"agreement_id", agreement.AgreementID,
		"milestone_id", completed.MilestoneID,
		"amount", completed.Amount,
		"provider_transfer_id", completed.ProviderTransferID,
	)
	return ApproveReleaseResult{Transaction: completed}, nil
}

func (u ApproveReleaseUseCase) blocked(
	_ context.Context,
	logger *slog.Logger,
	cmd ApproveReleaseCommand,
	snapshot ports.ReleaseSnapshot,
) error {
	verdict := u.Gate.EvaluateRelease(snapshot)
	reasons := make([]domainerrors.BlockedReason, 0, len(verdict.Reasons))
	for _, reason := range verdict.Reasons {
		reasons = append(reasons, domainerrors.BlockedReason{Type: reason.Type, Message: reason.Message})
	}
	logger.Warn("release approval blocked",
		"event", "escrow_release_approve_blocked",
		"module", moduleName,
		"layer", "application",
		"transaction_id", cmd.TransactionID,
		"blocking_reasons", len(reasons),
	)
	return &domainerrors.BlockedError{Reasons: reasons}
}

// createTransfer bounds the provider call and classifies the outcome:
// confirmed success is the only path that clears the release to completed;
// a deadline expiry is reported as unknown outcome so the caller knows a
// retry is safe only because of the idempotency key.
func (u ApproveReleaseUseCase) createTransfer(
	ctx context.Context,
	txn entities.Transaction,
	agreement entities.Agreement,
	account ports.PayoutAccount,
) (ports.Transfer, error) {
	timeout := u.ProviderTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	transfer, err := u.Provider.CreateTransfer(callCtx, ports.TransferRequest{
		IdempotencyKey:       txn.TransactionID,
		Amount:               txn.Amount,
		Currency:             txn.Currency,
		DestinationAccountID: account.AccountID,
		Metadata: map[string]string{
			"agreement_id": agreement.AgreementID,
			"milestone_id": txn.MilestoneID,
		},
	})
	if err != nil {
		unknown := errors.Is(err, context.DeadlineExceeded) || errors.Is(callCtx.Err(), context.DeadlineExceeded)
		return ports.Transfer{}, &domainerrors.TransferError{Unknown: unknown, Err: err}
	}
	if strings.TrimSpace(transfer.TransferID) == "" {
		return ports.Transfer{}, &domainerrors.TransferError{Err: errors.New("provider returned empty transfer id")}
	}
	return transfer, nil
}

// applyPostCompletionEffects updates the milestone and agreement lifecycle
// after the money has moved. These are secondary projections: failures are
// operational errors, logged and retried by reconciliation, never a reason
// to report the completed release as failed.
func (u ApproveReleaseUseCase) applyPostCompletionEffects(
	ctx context.Context,
	logger *slog.Logger,
	agreement entities.Agreement,
	completed entities.Transaction,
	now time.Time,
) {
	if err := u.Milestones.MarkMilestonePaid(ctx, completed.MilestoneID, now); err != nil {
		logger.Error("milestone paid update failed",
			"event", "escrow_milestone_paid_update_failed",
			"module", moduleName,
			"layer", "application",
			"milestone_id", completed.MilestoneID,
			"transaction_id", completed.TransactionID,
			"error", err.Error(),
		)
	}

	if agreement.Status == entities.AgreementStatusFunded {
		if err := u.Agreements.UpdateAgreementStatus(ctx, agreement.AgreementID, entities.AgreementStatusFunded, entities.AgreementStatusActive, now); err != nil && !errors.Is(err, domainerrors.ErrStaleState) {
			logger.Error("agreement activation failed",
				"event", "escrow_agreement_activate_failed",
				"module", moduleName,
				"layer", "application",
				"agreement_id", agreement.AgreementID,
				"error", err.Error(),
			)
		}
	}

	if agreement.ContractID == "" {
		return
	}
	milestones, err := u.Milestones.ListMilestonesByContract(ctx, agreement.ContractID)
	if err != nil || len(milestones) == 0 {
		return
	}
	for _, milestone := range milestones {
		if !milestone.Priced() {
			continue
		}
		if milestone.MilestoneID != completed.MilestoneID && milestone.Status != entities.MilestoneStatusPaid {
			return
		}
	}
	if err := u.Agreements.UpdateAgreementStatus(ctx, agreement.AgreementID, entities.AgreementStatusActive, entities.AgreementStatusCompleted, now); err != nil && !errors.Is(err, domainerrors.ErrStaleState) {
		logger.Error("agreement completion failed",
			"event", "escrow_agreement_complete_failed",
			"module", moduleName,
			"layer", "application",
			"agreement_id", agreement.AgreementID,
			"error", err.Error(),
		)
	}
}

func (u ApproveReleaseUseCase) now() time.Time {
	if u.Clock == nil {
		return time.Now().UTC()
	}
	return u.Clock.Now().UTC()
}
