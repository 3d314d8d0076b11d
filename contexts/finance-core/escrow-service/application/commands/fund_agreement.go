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

const agreementFundedEventType = "escrow.agreement.funded"

type FundAgreementCommand struct {
	AgreementID string
	ActorID     string
}

type FundAgreementResult struct {
	Agreement entities.Agreement
	Deposit   entities.Transaction
}

// FundAgreementUseCase moves a draft agreement to funded. Partial funding is
// not modeled: the deposit always covers the full agreement amount, so
// funded_amount = total_amount and the funded flag always has a deposit row
// behind it.
type FundAgreementUseCase struct {
	Agreements  ports.AgreementRepository
	Audit       ports.AuditRecorder
	Clock       ports.Clock
	IDGenerator ports.IDGenerator
	Logger      *slog.Logger
}

func (u FundAgreementUseCase) Execute(ctx context.Context, cmd FundAgreementCommand) (FundAgreementResult, error) {
	logger := application.ResolveLogger(u.Logger)

	agreement, err := u.Agreements.GetAgreement(ctx, cmd.AgreementID)
	if err != nil {
		return FundAgreementResult{}, err
	}
	if !agreement.Fundable() {
		if agreement.Closed() {
			return FundAgreementResult{}, domainerrors.ErrAgreementClosed
		}
		return FundAgreementResult{}, domainerrors.ErrInvalidInput
	}

	now := u.now()
	depositID, err := u.IDGenerator.NewID(ctx)
	if err != nil {
		return FundAgreementResult{}, err
	}
	deposit, err := entities.NewDeposit(depositID, agreement.AgreementID, agreement.TotalAmount, agreement.Currency, now)
	if err != nil {
		return FundAgreementResult{}, err
	}

	eventID, err := u.IDGenerator.NewID(ctx)
	if err != nil {
		return FundAgreementResult{}, err
	}
	envelope, err := buildEnvelope(eventID, agreementFundedEventType, "agreement_id", agreement.AgreementID, now, map[string]any{
		"agreement_id":  agreement.AgreementID,
		"deposit_id":    deposit.TransactionID,
		"funded_amount": agreement.TotalAmount,
		"currency":      agreement.Currency,
	})
	if err != nil {
		return FundAgreementResult{}, err
	}

	if err := u.Agreements.FundAgreementWithDeposit(ctx, agreement.AgreementID, deposit, now, envelope); err != nil {
		logger.Error("agreement funding failed",
			"event", "escrow_agreement_fund_failed",
			"module", moduleName,
			"layer", "application",
			"agreement_id", agreement.AgreementID,
			"error", err.Error(),
		)
		return FundAgreementResult{}, err
	}

	agreement.Status = entities.AgreementStatusFunded
	agreement.Funded = true
	agreement.FundedAmount = agreement.TotalAmount
	agreement.UpdatedAt = now

	recordAudit(ctx, logger, u.Audit, ports.AuditEntry{
		ActorID:      cmd.ActorID,
		Action:       "escrow.agreement.fund",
		ResourceType: "escrow_agreement",
		ResourceID:   agreement.AgreementID,
		Detail: map[string]string{
			"deposit_id": deposit.TransactionID,
			"status":     string(agreement.Status),
		},
		OccurredAt: now,
	})

	logger.Info("escrow agreement funded",
		"event", "escrow_agreement_funded",
		"module", moduleName,
		"layer", "application",
		"agreement_id", agreement.AgreementID,
		"deposit_id", deposit.TransactionID,
		"funded_amount", agreement.FundedAmount,
	)
	return FundAgreementResult{Agreement: agreement, Deposit: deposit}, nil
}

func (u FundAgreementUseCase) now() time.Time {
	if u.Clock == nil {
		return time.Now().UTC()
	}
	return u.Clock.Now().UTC()
}
