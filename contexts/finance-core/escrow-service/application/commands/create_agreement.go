package commands

import (
	"context"
	"log/slog"
	"time"

	application "groundwork/contexts/finance-core/escrow-service/application"
	"groundwork/contexts/finance-core/escrow-service/domain/entities"
	"groundwork/contexts/finance-core/escrow-service/ports"
)

const agreementCreatedEventType = "escrow.agreement.created"

type CreateAgreementCommand struct {
	ProjectID   string
	ContractID  string
	PayerID     string
	PayeeID     string
	TotalAmount float64
	Currency    string
	ActorID     string
}

type CreateAgreementResult struct {
	Agreement entities.Agreement
}

// CreateAgreementUseCase opens a draft escrow agreement when a contract
// enters execution. Funds are not held until FundAgreement runs.
type CreateAgreementUseCase struct {
	Agreements  ports.AgreementRepository
	Outbox      ports.OutboxWriter
	Audit       ports.AuditRecorder
	Clock       ports.Clock
	IDGenerator ports.IDGenerator
	Logger      *slog.Logger
}

func (u CreateAgreementUseCase) Execute(ctx context.Context, cmd CreateAgreementCommand) (CreateAgreementResult, error) {
	logger := application.ResolveLogger(u.Logger)

	agreementID, err := u.IDGenerator.NewID(ctx)
	if err != nil {
		return CreateAgreementResult{}, err
	}
	now := u.now()

	agreement, err := entities.NewAgreement(
		agreementID,
		cmd.ProjectID,
		cmd.ContractID,
		cmd.PayerID,
		cmd.PayeeID,
		cmd.TotalAmount,
		cmd.Currency,
		now,
	)
	if err != nil {
		return CreateAgreementResult{}, err
	}

	if err := u.Agreements.CreateAgreement(ctx, agreement); err != nil {
		logger.Error("agreement create failed",
			"event", "escrow_agreement_create_failed",
			"module", moduleName,
			"layer", "application",
			"project_id", cmd.ProjectID,
			"error", err.Error(),
		)
		return CreateAgreementResult{}, err
	}

	if u.Outbox != nil {
		eventID, err := u.IDGenerator.NewID(ctx)
		if err != nil {
			return CreateAgreementResult{}, err
		}
		envelope, err := buildEnvelope(eventID, agreementCreatedEventType, "agreement_id", agreement.AgreementID, now, map[string]any{
			"agreement_id": agreement.AgreementID,
			"project_id":   agreement.ProjectID,
			"contract_id":  agreement.ContractID,
			"payer_id":     agreement.PayerID,
			"payee_id":     agreement.PayeeID,
			"total_amount": agreement.TotalAmount,
			"currency":     agreement.Currency,
		})
		if err != nil {
			return CreateAgreementResult{}, err
		}
		if err := u.Outbox.AppendOutbox(ctx, envelope); err != nil {
			return CreateAgreementResult{}, err
		}
	}

	recordAudit(ctx, logger, u.Audit, ports.AuditEntry{
		ActorID:      cmd.ActorID,
		Action:       "escrow.agreement.create",
		ResourceType: "escrow_agreement",
		ResourceID:   agreement.AgreementID,
		Detail: map[string]string{
			"project_id": agreement.ProjectID,
			"status":     string(agreement.Status),
		},
		OccurredAt: now,
	})

	logger.Info("escrow agreement created",
		"event", "escrow_agreement_created",
		"module", moduleName,
		"layer", "application",
		"agreement_id", agreement.AgreementID,
		"project_id", agreement.ProjectID,
		"total_amount", agreement.TotalAmount,
	)
	return CreateAgreementResult{Agreement: agreement}, nil
}

func (u CreateAgreementUseCase) now() time.Time {
	if u.Clock == nil {
		return time.Now().UTC()
	}
	return u.Clock.Now().UTC()
}
