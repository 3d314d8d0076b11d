package queries

import (
	"context"

	"groundwork/contexts/finance-core/escrow-service/domain/entities"
	"groundwork/contexts/finance-core/escrow-service/domain/services"
	"groundwork/contexts/finance-core/escrow-service/ports"
)

type AgreementView struct {
	Agreement entities.Agreement
	Balances  services.Balances
}

// GetAgreementQuery returns the agreement with balances derived fresh from
// the full transaction history, never from a cached aggregate.
type GetAgreementQuery struct {
	Agreements   ports.AgreementRepository
	Transactions ports.TransactionRepository
}

func (q GetAgreementQuery) Execute(ctx context.Context, agreementID string) (AgreementView, error) {
	agreement, err := q.Agreements.GetAgreement(ctx, agreementID)
	if err != nil {
		return AgreementView{}, err
	}
	history, err := q.Transactions.ListTransactionsByAgreement(ctx, agreement.AgreementID)
	if err != nil {
		return AgreementView{}, err
	}
	return AgreementView{
		Agreement: agreement,
		Balances:  services.ComputeBalances(history),
	}, nil
}

type ListAgreementsByProjectQuery struct {
	Agreements ports.AgreementRepository
}

func (q ListAgreementsByProjectQuery) Execute(ctx context.Context, projectID string) ([]entities.Agreement, error) {
	return q.Agreements.ListAgreementsByProject(ctx, projectID)
}
