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

type CloseAgreementCommand struct {
	AgreementID string
	NextStatus  entities.AgreementStatus // cancelled or disputed
	ActorID     string
	ActorRole   string
	Reason      string
}

type CloseAgreementResult struct {
	Agreement entities.Agreement
}

// CloseAgreementUseCase is the administrative escape hatch: cancelled and
// disputed are reachable from any non-terminal state and shut the agreement
// to further transactions.
type CloseAgreementUseCase struct {
	Agreements ports.AgreementRepository
	Audit      ports.AuditRecorder
	Clock      ports.Clock
	Logger     *slog.Logger
}

func (u CloseAgreementUseCase) Execute(ctx context.Context, cmd CloseAgreementCommand) (CloseAgreementResult, error) {
	logger := application.ResolveLogger(u.Logger)
	if cmd.NextStatus != entities.AgreementStatusCancelled && cmd.NextStatus != entities.AgreementStatusDisputed {
		return CloseAgreementResult{}, domainerrors.ErrInvalidInput
	}
	if strings.TrimSpace(cmd.Reason) == "" {
		return CloseAgreementResult{}, domainerrors.ErrInvalidInput
	}
	if cmd.ActorRole != RoleAdmin {
		return CloseAgreementResult{}, domainerrors.ErrUnauthorized
	}

	agreement, err := u.Agreements.GetAgreement(ctx, cmd.AgreementID)
	if err != nil {
		return CloseAgreementResult{}, err
	}
	if !agreement.CanTransitionTo(cmd.NextStatus) {
		return CloseAgreementResult{}, domainerrors.ErrAgreementClosed
	}

	now := u.now()
	if err := u.Agreements.UpdateAgreementStatus(ctx, agreement.AgreementID, agreement.Status, cmd.NextStatus, now); err != nil {
		return CloseAgreementResult{}, err
	}
	agreement.Status = cmd.NextStatus
	agreement.UpdatedAt = now

	recordAudit(ctx, logger, u.Audit, ports.AuditEntry{
		ActorID:      cmd.ActorID,
		Action:       "escrow.agreement.close",
		ResourceType: "escrow_agreement",
		ResourceID:   agreement.AgreementID,
		Detail: map[string]string{
			"status": string(agreement.Status),
			"reason": strings.TrimSpace(cmd.Reason),
		},
		OccurredAt: now,
	})

	logger.Info("escrow agreement closed",
		"event", "escrow_agreement_closed",
		"module", moduleName,
		"layer", "application",
		"agreement_id", agreement.AgreementID,
		"status", string(agreement.Status),
	)
	return CloseAgreementResult{Agreement: agreement}, nil
}

func (u CloseAgreementUseCase) now() time.Time {
	if u.Clock == nil {
		return time.Now().UTC()
	}
	return u.Clock.Now().UTC()
}
