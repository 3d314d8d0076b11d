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
	"groundwork/contexts/finance-core/escrow-service/domain/services"
	"groundwork/contexts/finance-core/escrow-service/ports"
)

const refundCompletedEventType = "escrow.refund.completed"

type RefundAgreementCommand struct {
	AgreementID string
	ActorID     string
	ActorRole   string
	Reason      string
}

type RefundAgreementResult struct {
	Refund entities.Transaction
}

// RefundAgreementUseCase returns the remaining available balance to the
// payer after an agreement was cancelled or disputed. History is never
// rewritten: the refund is a new transaction, completed releases stand.
type RefundAgreementUseCase struct {
	Agreements      ports.AgreementRepository
	Transactions    ports.TransactionRepository
	Provider        ports.PaymentProvider
	Audit           ports.AuditRecorder
	Clock           ports.Clock
	IDGenerator     ports.IDGenerator
	ProviderTimeout time.Duration
	Logger          *slog.Logger
}

func (u RefundAgreementUseCase) Execute(ctx context.Context, cmd RefundAgreementCommand) (RefundAgreementResult, error) {
	logger := application.ResolveLogger(u.Logger)
	if cmd.ActorRole != RoleAdmin {
		return RefundAgreementResult{}, domainerrors.ErrUnauthorized
	}
	if strings.TrimSpace(cmd.Reason) == "" {
		return RefundAgreementResult{}, domainerrors.ErrInvalidInput
	}

	agreement, err := u.Agreements.GetAgreement(ctx, cmd.AgreementID)
	if err != nil {
		return RefundAgreementResult{}, err
	}
	if agreement.Status != entities.AgreementStatusCancelled && agreement.Status != entities.AgreementStatusDisputed {
		return RefundAgreementResult{}, domainerrors.ErrInvalidInput
	}

	history, err := u.Transactions.ListTransactionsByAgreement(ctx, agreement.AgreementID)
	if err != nil {
		return RefundAgreementResult{}, err
	}
	balances := services.ComputeBalances(history)
	if balances.Available <= 0 {
		return RefundAgreementResult{}, domainerrors.ErrInsufficientFunds
	}

	account, err := u.Provider.GetPayoutAccount(ctx, agreement.PayerID)
	if err != nil {
		return RefundAgreementResult{}, err
	}
	if !account.PayoutsEnabled {
		return RefundAgreementResult{}, domainerrors.ErrPayoutAccountUnavailable
	}

	now := u.now()
	refundID, err := u.IDGenerator.NewID(ctx)
	if err != nil {
		return RefundAgreementResult{}, err
	}

	timeout := u.ProviderTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	transfer, err := u.Provider.CreateTransfer(callCtx, ports.TransferRequest{
		IdempotencyKey:       refundID,
		Amount:               balances.Available,
		Currency:             agreement.Currency,
		DestinationAccountID: account.AccountID,
		Metadata: map[string]string{
			"agreement_id": agreement.AgreementID,
			"kind":         "refund",
		},
	})
	if err != nil {
		unknown := errors.Is(err, context.DeadlineExceeded) || errors.Is(callCtx.Err(), context.DeadlineExceeded)
		return RefundAgreementResult{}, &domainerrors.TransferError{Unknown: unknown, Err: err}
	}

	refund, err := entities.NewRefund(refundID, agreement.AgreementID, balances.Available, agreement.Currency, now)
	if err != nil {
		return RefundAgreementResult{}, err
	}
	refund.ProviderTransferID = transfer.TransferID

	eventID, err := u.IDGenerator.NewID(ctx)
	if err != nil {
		return RefundAgreementResult{}, err
	}
	envelope, err := buildEnvelope(eventID, refundCompletedEventType, "agreement_id", agreement.AgreementID, now, map[string]any{
		"transaction_id":       refund.TransactionID,
		"agreement_id":         agreement.AgreementID,
		"amount":               refund.Amount,
		"currency":             refund.Currency,
		"provider_transfer_id": refund.ProviderTransferID,
	})
	if err != nil {
		return RefundAgreementResult{}, err
	}
	if err := u.Transactions.CreateTransactionWithOutbox(ctx, refund, envelope); err != nil {
		return RefundAgreementResult{}, err
	}

	recordAudit(ctx, logger, u.Audit, ports.AuditEntry{
		ActorID:      cmd.ActorID,
		Action:       "escrow.refund",
		ResourceType: "escrow_transaction",
		ResourceID:   refund.TransactionID,
		Detail: map[string]string{
			"agreement_id":         agreement.AgreementID,
			"provider_transfer_id": refund.ProviderTransferID,
			"reason":               strings.TrimSpace(cmd.Reason),
		},
		OccurredAt: now,
	})

	logger.Info("escrow refund completed",
		"event", "escrow_refund_completed",
		"module", moduleName,
		"layer", "application",
		"transaction_id", refund.TransactionID,
		"agreement_id", agreement.AgreementID,
		"amount", refund.Amount,
	)
	return RefundAgreementResult{Refund: refund}, nil
}

func (u RefundAgreementUseCase) now() time.Time {
	if u.Clock == nil {
		return time.Now().UTC()
	}
	return u.Clock.Now().UTC()
}
