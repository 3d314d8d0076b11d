package queries

import (
	"context"

	"groundwork/contexts/finance-core/escrow-service/domain/entities"
	"groundwork/contexts/finance-core/escrow-service/ports"
)

type TransactionView struct {
	Transaction entities.Transaction
	Receipts    []entities.Receipt
	ReleaseGate ports.ReleaseGateResult
}

// GetTransactionQuery returns the transaction with its receipts and an
// advisory release-gate evaluation. The gate result here is informational
// for status UIs; approve always re-evaluates on its own fresh read.
type GetTransactionQuery struct {
	Transactions ports.TransactionRepository
	Receipts     ports.ReceiptRepository
	Gate         ports.ReleaseGate
}

func (q GetTransactionQuery) Execute(ctx context.Context, transactionID string) (TransactionView, error) {
	txn, err := q.Transactions.GetTransaction(ctx, transactionID)
	if err != nil {
		return TransactionView{}, err
	}
	receipts, err := q.Receipts.ListReceiptsByTransaction(ctx, txn.TransactionID)
	if err != nil {
		return TransactionView{}, err
	}

	view := TransactionView{Transaction: txn, Receipts: receipts}
	if q.Gate != nil && txn.Type == entities.TransactionTypeRelease {
		view.ReleaseGate = q.Gate.EvaluateRelease(ports.ReleaseSnapshot{
			Found:                true,
			Status:               txn.Status,
			VerificationComplete: txn.VerificationComplete,
		})
	}
	return view, nil
}

type ListTransactionsQuery struct {
	Transactions ports.TransactionRepository
}

func (q ListTransactionsQuery) Execute(ctx context.Context, agreementID string) ([]entities.Transaction, error) {
	return q.Transactions.ListTransactionsByAgreement(ctx, agreementID)
}
