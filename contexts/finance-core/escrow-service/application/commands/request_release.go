package commands

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
	"time"

	application "groundwork/contexts/finance-core/escrow-service/application"
	"groundwork/contexts/finance-core/escrow-service/domain/entities"
	domainerrors "groundwork/contexts/finance-core/escrow-service/domain/errors"
	"groundwork/contexts/finance-core/escrow-service/domain/services"
	"groundwork/contexts/finance-core/escrow-service/ports"
)

const releaseRequestedEventType = "escrow.release.requested"

type RequestReleaseCommand struct {
	AgreementID    string
	MilestoneID    string
	RequesterID    string
	Notes          string
	IdempotencyKey string
}

type RequestReleaseResult struct {
	Transaction entities.Transaction
	Replayed    bool
}

// RequestReleaseUseCase opens a release transaction for one milestone:
// 1) idempotency lookup/replay
// 2) agreement, milestone, and duplicate-release preconditions
// 3) available-balance reservation check
// 4) atomic transaction + outbox persistence
// 5) idempotency record write.
type RequestReleaseUseCase struct {
	Agreements     ports.AgreementRepository
	Transactions   ports.TransactionRepository
	Milestones     ports.MilestoneRepository
	Idempotency    ports.IdempotencyStore
	Audit          ports.AuditRecorder
	Clock          ports.Clock
	IDGenerator    ports.IDGenerator
	IdempotencyTTL time.Duration
	Logger         *slog.Logger
}

func (u RequestReleaseUseCase) Execute(ctx context.Context, cmd RequestReleaseCommand) (RequestReleaseResult, error) {
	logger := application.ResolveLogger(u.Logger)
	if strings.TrimSpace(cmd.AgreementID) == "" ||
		strings.TrimSpace(cmd.MilestoneID) == "" ||
		strings.TrimSpace(cmd.RequesterID) == "" {
		return RequestReleaseResult{}, domainerrors.ErrInvalidInput
	}

	now := u.now()
	idempotencyKey := strings.TrimSpace(cmd.IdempotencyKey)
	requestHash := hashReleaseRequest(cmd)

	// Replay only applies to explicitly keyed requests. A key-less request
	// always goes through full precondition checks, so a rejected release
	// frees the milestone for a fresh request and an in-flight one surfaces
	// as a duplicate instead of a silent replay.
	if idempotencyKey != "" {
		record, found, err := u.Idempotency.Get(ctx, idempotencyKey, now)
		if err != nil {
			return RequestReleaseResult{}, err
		}
		if found {
			if record.RequestHash != requestHash {
				return RequestReleaseResult{}, domainerrors.ErrIdempotencyKeyConflict
			}
			txn, err := u.Transactions.GetTransaction(ctx, record.TransactionID)
			if err != nil {
				return RequestReleaseResult{}, err
			}
			return RequestReleaseResult{Transaction: txn, Replayed: true}, nil
		}
	}

	agreement, err := u.Agreements.GetAgreement(ctx, cmd.AgreementID)
	if err != nil {
		return RequestReleaseResult{}, err
	}
	if agreement.Closed() {
		return RequestReleaseResult{}, domainerrors.ErrAgreementClosed
	}
	if !agreement.ReleasesAllowed() {
		return RequestReleaseResult{}, domainerrors.ErrAgreementNotFunded
	}

	milestone, err := u.Milestones.GetMilestone(ctx, cmd.MilestoneID)
	if err != nil {
		return RequestReleaseResult{}, err
	}
	if !milestone.Priced() {
		return RequestReleaseResult{}, domainerrors.ErrMilestoneUnpriced
	}

	// A milestone funds exactly one release at a time; rejected releases free
	// the slot, anything still in flight blocks a duplicate request.
	if open, exists, err := u.Transactions.FindOpenReleaseByMilestone(ctx, cmd.MilestoneID); err != nil {
		return RequestReleaseResult{}, err
	} else if exists && open.AgreementID == agreement.AgreementID {
		logger.Warn("duplicate release request blocked",
			"event", "escrow_release_duplicate_blocked",
			"module", moduleName,
			"layer", "application",
			"agreement_id", agreement.AgreementID,
			"milestone_id", cmd.MilestoneID,
			"open_transaction_id", open.TransactionID,
		)
		return RequestReleaseResult{}, domainerrors.ErrDuplicateRelease
	}

	history, err := u.Transactions.ListTransactionsByAgreement(ctx, agreement.AgreementID)
	if err != nil {
		return RequestReleaseResult{}, err
	}
	if !services.CanReserveRelease(history, *milestone.Amount) {
		return RequestReleaseResult{}, domainerrors.ErrInsufficientFunds
	}

	transactionID, err := u.IDGenerator.NewID(ctx)
	if err != nil {
		return RequestReleaseResult{}, err
	}
	txn, err := entities.NewRelease(
		transactionID,
		agreement.AgreementID,
		cmd.MilestoneID,
		*milestone.Amount,
		agreement.Currency,
		cmd.RequesterID,
		cmd.Notes,
		now,
	)
	if err != nil {
		return RequestReleaseResult{}, err
	}

	eventID, err := u.IDGenerator.NewID(ctx)
	if err != nil {
		return RequestReleaseResult{}, err
	}
	envelope, err := buildEnvelope(eventID, releaseRequestedEventType, "agreement_id", agreement.AgreementID, now, map[string]any{
		"transaction_id": txn.TransactionID,
		"agreement_id":   agreement.AgreementID,
		"milestone_id":   txn.MilestoneID,
		"amount":         txn.Amount,
		"currency":       txn.Currency,
		"requested_by":   txn.RequestedBy,
	})
	if err != nil {
		return RequestReleaseResult{}, err
	}

	if err := u.Transactions.CreateTransactionWithOutbox(ctx, txn, envelope); err != nil {
		logger.Error("release request write failed",
			"event", "escrow_release_request_write_failed",
			"module", moduleName,
			"layer", "application",
			"agreement_id", agreement.AgreementID,
			"milestone_id", cmd.MilestoneID,
			"error", err.Error(),
		)
		return RequestReleaseResult{}, err
	}

	if idempotencyKey != "" {
		if err := u.Idempotency.Put(ctx, ports.IdempotencyRecord{
			Key:           idempotencyKey,
			RequestHash:   requestHash,
			TransactionID: txn.TransactionID,
			ExpiresAt:     now.Add(u.idempotencyTTL()),
		}); err != nil {
			return RequestReleaseResult{}, err
		}
	}

	recordAudit(ctx, logger, u.Audit, ports.AuditEntry{
		ActorID:      cmd.RequesterID,
		Action:       "escrow.release.request",
		ResourceType: "escrow_transaction",
		ResourceID:   txn.TransactionID,
		Detail: map[string]string{
			"agreement_id": agreement.AgreementID,
			"milestone_id": txn.MilestoneID,
			"amount":       fmt.Sprintf("%.2f", txn.Amount),
			"status":       string(txn.Status),
		},
		OccurredAt: now,
	})

	logger.Info("escrow release requested",
		"event", "escrow_release_requested",
		"module", moduleName,
		"layer", "application",
		"transaction_id", txn.TransactionID,
		"agreement_id", agreement.AgreementID,
		"milestone_id", txn.MilestoneID,
		"amount", txn.Amount,
	)
	return RequestReleaseResult{Transaction: txn}, nil
}

func (u RequestReleaseUseCase) idempotencyTTL() time.Duration {
	if u.IdempotencyTTL <= 0 {
		return 7 * 24 * time.Hour
	}
	return u.IdempotencyTTL
}

func (u RequestReleaseUseCase) now() time.Time {
	if u.Clock == nil {
		return time.Now().UTC()
	}
	return u.Clock.Now().UTC()
}

func hashReleaseRequest(cmd RequestReleaseCommand) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%s|%s", cmd.AgreementID, cmd.MilestoneID, cmd.RequesterID)))
	return hex.EncodeToString(sum[:])
}
