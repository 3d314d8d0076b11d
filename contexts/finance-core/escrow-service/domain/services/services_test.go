package services_test

import (
	"testing"
	"time"

	"groundwork/contexts/finance-core/escrow-service/domain/entities"
	"groundwork/contexts/finance-core/escrow-service/domain/services"
)

func release(amount float64, status entities.TransactionStatus) entities.Transaction {
	return entities.Transaction{
		TransactionID: "txn-" + string(status),
		AgreementID:   "agr-1",
		Type:          entities.TransactionTypeRelease,
		Amount:        amount,
		Status:        status,
	}
}

func TestComputeBalances(t *testing.T) {
	history := []entities.Transaction{
		{Type: entities.TransactionTypeDeposit, Amount: 10000, Status: entities.TransactionStatusCompleted},
		release(3000, entities.TransactionStatusCompleted),
		release(2000, entities.TransactionStatusPendingApproval),
		release(1500, entities.TransactionStatusRejected),
		{Type: entities.TransactionTypeRefund, Amount: 1000, Status: entities.TransactionStatusCompleted},
	}

	b := services.ComputeBalances(history)
	if b.Deposited != 10000 {
		t.Fatalf("deposited: got %v", b.Deposited)
	}
	if b.Released != 3000 {
		t.Fatalf("released: got %v", b.Released)
	}
	if b.PendingRelease != 2000 {
		t.Fatalf("pending release must reserve open releases only: got %v", b.PendingRelease)
	}
	if b.Refunded != 1000 {
		t.Fatalf("refunded: got %v", b.Refunded)
	}
	if b.Available != 4000 {
		t.Fatalf("available: got %v", b.Available)
	}
}

func TestComputeBalancesRounding(t *testing.T) {
	history := []entities.Transaction{
		{Type: entities.TransactionTypeDeposit, Amount: 0.1, Status: entities.TransactionStatusCompleted},
		{Type: entities.TransactionTypeDeposit, Amount: 0.2, Status: entities.TransactionStatusCompleted},
	}
	b := services.ComputeBalances(history)
	if b.Available != 0.3 {
		t.Fatalf("expected cent rounding, got %v", b.Available)
	}
}

func TestCanReserveRelease(t *testing.T) {
	history := []entities.Transaction{
		{Type: entities.TransactionTypeDeposit, Amount: 5000, Status: entities.TransactionStatusCompleted},
		release(2000, entities.TransactionStatusVerificationRequired),
	}
	if !services.CanReserveRelease(history, 3000) {
		t.Fatalf("3000 should fit the remaining 3000")
	}
	if services.CanReserveRelease(history, 3000.01) {
		t.Fatalf("reservation must not exceed available balance")
	}
}

func TestVerificationComplete(t *testing.T) {
	if services.VerificationComplete(nil) {
		t.Fatalf("zero receipts can never be complete")
	}

	verified := entities.Receipt{ReceiptID: "r-1", Verified: true, VerifiedAt: time.Now()}
	pending := entities.Receipt{ReceiptID: "r-2"}

	if !services.VerificationComplete([]entities.Receipt{verified}) {
		t.Fatalf("single verified receipt should complete verification")
	}
	if services.VerificationComplete([]entities.Receipt{verified, pending}) {
		t.Fatalf("any unverified receipt keeps verification open")
	}
}
