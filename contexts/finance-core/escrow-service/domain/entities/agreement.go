package entities

import (
	"strings"
	"time"

	domainerrors "groundwork/contexts/finance-core/escrow-service/domain/errors"
)

type AgreementStatus string

const (
	AgreementStatusDraft          AgreementStatus = "draft"
	AgreementStatusPendingFunding AgreementStatus = "pending_funding"
	AgreementStatusFunded         AgreementStatus = "funded"
	AgreementStatusActive         AgreementStatus = "active"
	AgreementStatusCompleted      AgreementStatus = "completed"
	AgreementStatusCancelled      AgreementStatus = "cancelled"
	AgreementStatusDisputed       AgreementStatus = "disputed"
)

// Agreement is a contract-level holding arrangement for funds between a payer
// and a payee. Rows are never deleted, only transitioned.
type Agreement struct {
	AgreementID  string
	ProjectID    string
	ContractID   string
	PayerID      string
	PayeeID      string
	TotalAmount  float64
	Currency     string
	Funded       bool
	FundedAmount float64
	Status       AgreementStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func NewAgreement(
	agreementID string,
	projectID string,
	contractID string,
	payerID string,
	payeeID string,
	totalAmount float64,
	currency string,
	createdAt time.Time,
) (Agreement, error) {
	if strings.TrimSpace(agreementID) == "" ||
		strings.TrimSpace(projectID) == "" ||
		strings.TrimSpace(payerID) == "" ||
		strings.TrimSpace(payeeID) == "" {
		return Agreement{}, domainerrors.ErrInvalidInput
	}
	if payerID == payeeID {
		return Agreement{}, domainerrors.ErrInvalidInput
	}
	if totalAmount <= 0 {
		return Agreement{}, domainerrors.ErrInvalidInput
	}
	if strings.TrimSpace(currency) == "" {
		currency = "USD"
	}

	return Agreement{
		AgreementID: agreementID,
		ProjectID:   projectID,
		ContractID:  strings.TrimSpace(contractID),
		PayerID:     payerID,
		PayeeID:     payeeID,
		TotalAmount: totalAmount,
		Currency:    strings.ToUpper(strings.TrimSpace(currency)),
		Status:      AgreementStatusDraft,
		CreatedAt:   createdAt.UTC(),
		UpdatedAt:   createdAt.UTC(),
	}, nil
}

// Fundable reports whether the agreement may still receive its deposit.
func (a Agreement) Fundable() bool {
	return a.Status == AgreementStatusDraft || a.Status == AgreementStatusPendingFunding
}

// Closed agreements accept no further transactions of any kind.
func (a Agreement) Closed() bool {
	switch a.Status {
	case AgreementStatusCancelled, AgreementStatusDisputed, AgreementStatusCompleted:
		return true
	default:
		return false
	}
}

// ReleasesAllowed reports whether new release requests may be opened.
func (a Agreement) ReleasesAllowed() bool {
	return a.Status == AgreementStatusFunded || a.Status == AgreementStatusActive
}

// CanTransitionTo is the agreement state machine:
// draft -> pending_funding -> funded -> active -> completed, with
// cancelled/disputed reachable from any non-terminal state.
func (a Agreement) CanTransitionTo(next AgreementStatus) bool {
	if a.Closed() {
		return false
	}
	switch next {
	case AgreementStatusCancelled, AgreementStatusDisputed:
		return true
	case AgreementStatusPendingFunding:
		return a.Status == AgreementStatusDraft
	case AgreementStatusFunded:
		return a.Fundable()
	case AgreementStatusActive:
		return a.Status == AgreementStatusFunded
	case AgreementStatusCompleted:
		return a.Status == AgreementStatusActive || a.Status == AgreementStatusFunded
	default:
		return false
	}
}
