package services

import (
	"math"

	"groundwork/contexts/finance-core/escrow-service/domain/entities"
)

// Balances is a derived snapshot over an agreement's transaction history.
// Available already reserves open (not yet terminal) releases so a new
// request can never promise money an in-flight release may claim.
type Balances struct {
	Deposited      float64
	Released       float64
	PendingRelease float64
	Refunded       float64
	Available      float64
}

// ComputeBalances folds the full transaction list for one agreement.
// available = deposits - completed releases - open releases - refunds - fees.
func ComputeBalances(transactions []entities.Transaction) Balances {
	var b Balances
	for _, txn := range transactions {
		switch txn.Type {
		case entities.TransactionTypeDeposit:
			if txn.Status == entities.TransactionStatusCompleted {
				b.Deposited += txn.Amount
			}
		case entities.TransactionTypeRelease:
			if txn.Status == entities.TransactionStatusCompleted {
				b.Released += txn.Amount
			} else if txn.OpenRelease() {
				b.PendingRelease += txn.Amount
			}
		case entities.TransactionTypeRefund:
			if txn.Status == entities.TransactionStatusCompleted {
				b.Refunded += txn.Amount
			}
		case entities.TransactionTypeFee, entities.TransactionTypeAdjustment:
			if txn.Status == entities.TransactionStatusCompleted {
				b.Released += txn.Amount
			}
		}
	}
	b.Deposited = Round2(b.Deposited)
	b.Released = Round2(b.Released)
	b.PendingRelease = Round2(b.PendingRelease)
	b.Refunded = Round2(b.Refunded)
	b.Available = Round2(b.Deposited - b.Released - b.PendingRelease - b.Refunded)
	return b
}

// CanReserveRelease reports whether a new release of the given amount fits
// the currently available balance.
func CanReserveRelease(transactions []entities.Transaction, amount float64) bool {
	return ComputeBalances(transactions).Available >= Round2(amount)
}

func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
