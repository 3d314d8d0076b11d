package entities

import (
	"strings"
	"time"

	domainerrors "groundwork/contexts/finance-core/escrow-service/domain/errors"
)

type TransactionType string

const (
	TransactionTypeDeposit    TransactionType = "deposit"
	TransactionTypeRelease    TransactionType = "release"
	TransactionTypeRefund     TransactionType = "refund"
	TransactionTypeFee        TransactionType = "fee"
	TransactionTypeAdjustment TransactionType = "adjustment"
)

type TransactionStatus string

const (
	TransactionStatusPending              TransactionStatus = "pending"
	TransactionStatusProcessing           TransactionStatus = "processing"
	TransactionStatusVerificationRequired TransactionStatus = "verification_required"
	TransactionStatusPendingApproval      TransactionStatus = "pending_approval"
	TransactionStatusApproved             TransactionStatus = "approved"
	TransactionStatusCompleted            TransactionStatus = "completed"
	TransactionStatusFailed               TransactionStatus = "failed"
	TransactionStatusRejected             TransactionStatus = "rejected"
	TransactionStatusRefunded             TransactionStatus = "refunded"
)

// Transaction is one movement of funds inside an agreement. Release
// transactions walk verification_required -> pending_approval -> completed
// with rejected as the terminal refusal path. Version guards concurrent
// transitions: every status write is conditional on the version it read.
type Transaction struct {
	TransactionID        string
	AgreementID          string
	Type                 TransactionType
	Amount               float64
	Currency             string
	MilestoneID          string
	Status               TransactionStatus
	VerificationComplete bool
	RequestedBy          string
	RequestedAt          time.Time
	RequestNotes         string
	ApprovedBy           string
	ApprovedAt           time.Time
	RejectedBy           string
	RejectedAt           time.Time
	RejectionReason      string
	ProviderTransferID   string
	Version              int
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

func NewRelease(
	transactionID string,
	agreementID string,
	milestoneID string,
	amount float64,
	currency string,
	requestedBy string,
	notes string,
	requestedAt time.Time,
) (Transaction, error) {
	if strings.TrimSpace(transactionID) == "" ||
		strings.TrimSpace(agreementID) == "" ||
		strings.TrimSpace(milestoneID) == "" ||
		strings.TrimSpace(requestedBy) == "" {
		return Transaction{}, domainerrors.ErrInvalidInput
	}
	if amount <= 0 {
		return Transaction{}, domainerrors.ErrInvalidInput
	}

	return Transaction{
		TransactionID: transactionID,
		AgreementID:   agreementID,
		Type:          TransactionTypeRelease,
		Amount:        amount,
		Currency:      strings.ToUpper(strings.TrimSpace(currency)),
		MilestoneID:   milestoneID,
		Status:        TransactionStatusVerificationRequired,
		RequestedBy:   requestedBy,
		RequestedAt:   requestedAt.UTC(),
		RequestNotes:  strings.TrimSpace(notes),
		Version:       1,
		CreatedAt:     requestedAt.UTC(),
		UpdatedAt:     requestedAt.UTC(),
	}, nil
}

func NewDeposit(
	transactionID string,
	agreementID string,
	amount float64,
	currency string,
	depositedAt time.Time,
) (Transaction, error) {
	if strings.TrimSpace(transactionID) == "" || strings.TrimSpace(agreementID) == "" {
		return Transaction{}, domainerrors.ErrInvalidInput
	}
	if amount <= 0 {
		return Transaction{}, domainerrors.ErrInvalidInput
	}

	return Transaction{
		TransactionID: transactionID,
		AgreementID:   agreementID,
		Type:          TransactionTypeDeposit,
		Amount:        amount,
		Currency:      strings.ToUpper(strings.TrimSpace(currency)),
		Status:        TransactionStatusCompleted,
		Version:       1,
		CreatedAt:     depositedAt.UTC(),
		UpdatedAt:     depositedAt.UTC(),
	}, nil
}

func NewRefund(
	transactionID string,
	agreementID string,
	amount float64,
	currency string,
	refundedAt time.Time,
) (Transaction, error) {
	if strings.TrimSpace(transactionID) == "" || strings.TrimSpace(agreementID) == "" {
		return Transaction{}, domainerrors.ErrInvalidInput
	}
	if amount <= 0 {
		return Transaction{}, domainerrors.ErrInvalidInput
	}

	return Transaction{
		TransactionID: transactionID,
		AgreementID:   agreementID,
		Type:          TransactionTypeRefund,
		Amount:        amount,
		Currency:      strings.ToUpper(strings.TrimSpace(currency)),
		Status:        TransactionStatusCompleted,
		Version:       1,
		CreatedAt:     refundedAt.UTC(),
		UpdatedAt:     refundedAt.UTC(),
	}, nil
}

// Terminal transactions are immutable history. Reversal of a completed
// release requires a new refund transaction, never mutation.
func (t Transaction) Terminal() bool {
	switch t.Status {
	case TransactionStatusCompleted, TransactionStatusRejected, TransactionStatusRefunded, TransactionStatusFailed:
		return true
	default:
		return false
	}
}

// OpenForEvidence reports whether receipts may still be attached.
func (t Transaction) OpenForEvidence() bool {
	return t.Status == TransactionStatusVerificationRequired ||
		t.Status == TransactionStatusPendingApproval
}

// Rejectable reports whether the transaction may still be refused.
func (t Transaction) Rejectable() bool {
	return t.OpenForEvidence()
}

// Open release transactions hold a reservation against the agreement's
// available balance until they complete or are refused.
func (t Transaction) OpenRelease() bool {
	return t.Type == TransactionTypeRelease && !t.Terminal()
}
