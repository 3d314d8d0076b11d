package commands

import (
	"context"
	"log/slog"
	"time"

	application "groundwork/contexts/finance-core/escrow-service/application"
	"groundwork/contexts/finance-core/escrow-service/domain/entities"
	domainerrors "groundwork/contexts/finance-core/escrow-service/domain/errors"
	"groundwork/contexts/finance-core/escrow-service/ports"
)

type AttachReceiptCommand struct {
	TransactionID string
	Amount        float64
	Vendor        string
	IssuedAt      time.Time
	EvidenceURL   string
	OCRExtract    string
	ActorID       string
}

type AttachReceiptResult struct {
	Receipt entities.Receipt
}

// AttachReceiptUseCase stores one piece of spend evidence against an open
// release. The core never touches file bytes; EvidenceURL is a storage
// reference owned by the document service.
type AttachReceiptUseCase struct {
	Transactions ports.TransactionRepository
	Receipts     ports.ReceiptRepository
	Audit        ports.AuditRecorder
	Clock        ports.Clock
	IDGenerator  ports.IDGenerator
	Logger       *slog.Logger
}

func (u AttachReceiptUseCase) Execute(ctx context.Context, cmd AttachReceiptCommand) (AttachReceiptResult, error) {
	logger := application.ResolveLogger(u.Logger)

	txn, err := u.Transactions.GetTransaction(ctx, cmd.TransactionID)
	if err != nil {
		return AttachReceiptResult{}, err
	}
	if !txn.OpenForEvidence() {
		return AttachReceiptResult{}, domainerrors.ErrTransactionNotOpenForEvidence
	}

	now := u.now()
	receiptID, err := u.IDGenerator.NewID(ctx)
	if err != nil {
		return AttachReceiptResult{}, err
	}
	receipt, err := entities.NewReceipt(
		receiptID,
		txn.TransactionID,
		cmd.Amount,
		cmd.Vendor,
		cmd.IssuedAt,
		cmd.EvidenceURL,
		cmd.OCRExtract,
		now,
	)
	if err != nil {
		return AttachReceiptResult{}, err
	}

	if err := u.Receipts.CreateReceipt(ctx, receipt); err != nil {
		return AttachReceiptResult{}, err
	}

	recordAudit(ctx, logger, u.Audit, ports.AuditEntry{
		ActorID:      cmd.ActorID,
		Action:       "escrow.receipt.attach",
		ResourceType: "receipt",
		ResourceID:   receipt.ReceiptID,
		Detail: map[string]string{
			"transaction_id": txn.TransactionID,
			"vendor":         receipt.Vendor,
		},
		OccurredAt: now,
	})

	logger.Info("receipt attached",
		"event", "escrow_receipt_attached",
		"module", moduleName,
		"layer", "application",
		"receipt_id", receipt.ReceiptID,
		"transaction_id", txn.TransactionID,
		"vendor", receipt.Vendor,
	)
	return AttachReceiptResult{Receipt: receipt}, nil
}

func (u AttachReceiptUseCase) now() time.Time {
	if u.Clock == nil {
		return time.Now().UTC()
	}
	return u.Clock.Now().UTC()
}
