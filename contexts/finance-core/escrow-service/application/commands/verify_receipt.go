package commands

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"time"

	application "groundwork/contexts/finance-core/escrow-service/application"
	"groundwork/contexts/finance-core/escrow-service/domain/entities"
	domainerrors "groundwork/contexts/finance-core/escrow-service/domain/errors"
	"groundwork/contexts/finance-core/escrow-service/domain/services"
	"groundwork/contexts/finance-core/escrow-service/ports"
)

type VerifyReceiptCommand struct {
	ReceiptID  string
	Verified   bool
	VerifierID string
	Notes      string
}

type VerifyReceiptResult struct {
	Receipt     entities.Receipt
	Transaction entities.Transaction
}

// VerifyReceiptUseCase records one verification decision and recomputes the
// parent transaction's completeness. Completeness moves the transaction from
// verification_required to pending_approval. A rejection does not fail the
// transaction; it stays open for corrected evidence. A rejection that lands
// after the transaction already reached pending_approval reverts it to
// verification_required, since approval must not proceed on disputed
// evidence.
type VerifyReceiptUseCase struct {
	Transactions ports.TransactionRepository
	Receipts     ports.ReceiptRepository
	Audit        ports.AuditRecorder
	Clock        ports.Clock
	Logger       *slog.Logger
}

func (u VerifyReceiptUseCase) Execute(ctx context.Context, cmd VerifyReceiptCommand) (VerifyReceiptResult, error) {
	logger := application.ResolveLogger(u.Logger)
	if strings.TrimSpace(cmd.ReceiptID) == "" || strings.TrimSpace(cmd.VerifierID) == "" {
		return VerifyReceiptResult{}, domainerrors.ErrInvalidInput
	}

	receipt, err := u.Receipts.GetReceipt(ctx, cmd.ReceiptID)
	if err != nil {
		return VerifyReceiptResult{}, err
	}
	txn, err := u.Transactions.GetTransaction(ctx, receipt.TransactionID)
	if err != nil {
		return VerifyReceiptResult{}, err
	}
	if !txn.OpenForEvidence() {
		return VerifyReceiptResult{}, domainerrors.ErrTransactionNotOpenForEvidence
	}

	now := u.now()
	if err := u.Receipts.UpdateReceiptVerification(ctx, receipt.ReceiptID, cmd.Verified, cmd.VerifierID, cmd.Notes, now); err != nil {
		return VerifyReceiptResult{}, err
	}
	receipt.Verified = cmd.Verified
	receipt.VerifiedBy = cmd.VerifierID
	receipt.VerifiedAt = now
	receipt.Notes = strings.TrimSpace(cmd.Notes)

	receipts, err := u.Receipts.ListReceiptsByTransaction(ctx, txn.TransactionID)
	if err != nil {
		return VerifyReceiptResult{}, err
	}
	complete := services.VerificationComplete(receipts)

	next := txn.Status
	switch {
	case complete && txn.Status == entities.TransactionStatusVerificationRequired:
		next = entities.TransactionStatusPendingApproval
	case !complete && txn.Status == entities.TransactionStatusPendingApproval:
		next = entities.TransactionStatusVerificationRequired
	}

	if err := u.Transactions.SetTransactionVerification(ctx, txn.TransactionID, txn.Version, complete, next, now); err != nil {
		return VerifyReceiptResult{}, err
	}
	reverted := txn.Status == entities.TransactionStatusPendingApproval && next == entities.TransactionStatusVerificationRequired
	txn.VerificationComplete = complete
	txn.Status = next
	txn.Version++
	txn.UpdatedAt = now

	recordAudit(ctx, logger, u.Audit, ports.AuditEntry{
		ActorID:      cmd.VerifierID,
		Action:       "escrow.receipt.verify",
		ResourceType: "receipt",
		ResourceID:   receipt.ReceiptID,
		Detail: map[string]string{
			"transaction_id":        txn.TransactionID,
			"verified":              strconv.FormatBool(cmd.Verified),
			"verification_complete": strconv.FormatBool(complete),
			"transaction_status":    string(txn.Status),
		},
		OccurredAt: now,
	})
	if reverted {
		recordAudit(ctx, logger, u.Audit, ports.AuditEntry{
			ActorID:      cmd.VerifierID,
			Action:       "escrow.release.verification_reopened",
			ResourceType: "escrow_transaction",
			ResourceID:   txn.TransactionID,
			Detail: map[string]string{
				"receipt_id": receipt.ReceiptID,
			},
			OccurredAt: now,
		})
	}

	logger.Info("receipt verification recorded",
		"event", "escrow_receipt_verified",
		"module", moduleName,
		"layer", "application",
		"receipt_id", receipt.ReceiptID,
		"transaction_id", txn.TransactionID,
		"verified", cmd.Verified,
		"verification_complete", complete,
		"transaction_status", string(txn.Status),
	)
	return VerifyReceiptResult{Receipt: receipt, Transaction: txn}, nil
}

func (u VerifyReceiptUseCase) now() time.Time {
	if u.Clock == nil {
		return time.Now().UTC()
	}
	return u.Clock.Now().UTC()
}
