package errors

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidInput                  = errors.New("escrow input is invalid")
	ErrAgreementNotFound             = errors.New("escrow agreement not found")
	ErrTransactionNotFound           = errors.New("escrow transaction not found")
	ErrReceiptNotFound               = errors.New("receipt not found")
	ErrMilestoneNotFound             = errors.New("milestone not found")
	ErrMilestoneUnpriced             = errors.New("milestone has no payment amount")
	ErrAgreementNotFunded            = errors.New("escrow agreement is not funded")
	ErrAgreementClosed               = errors.New("escrow agreement is closed to new transactions")
	ErrInsufficientFunds             = errors.New("release amount exceeds available escrow balance")
	ErrDuplicateRelease              = errors.New("an open release already exists for this milestone")
	ErrTransactionNotOpenForEvidence = errors.New("transaction is not open for receipt evidence")
	ErrRejectionReasonRequired       = errors.New("rejection reason is required")
	ErrStaleState                    = errors.New("transaction state changed concurrently, re-fetch and retry")
	ErrUnauthorized                  = errors.New("actor is not permitted to perform this action")
	ErrPayoutAccountUnavailable      = errors.New("payee has no payout-enabled provider account")
	ErrPreconditionBlocked           = errors.New("release preconditions are not satisfied")
	ErrProviderTransfer              = errors.New("payment provider transfer did not complete")
	ErrIdempotencyKeyConflict        = errors.New("idempotency key reused with different request")
	ErrRepositoryInvariantBroke      = errors.New("repository invariant violated")
)

// BlockedReason is one unmet precondition. Callers receive the full list so
// remediation guidance can name every missing upstream condition at once.
type BlockedReason struct {
	Type    string
	Message string
}

type BlockedError struct {
	Reasons []BlockedReason
}

func (e *BlockedError) Error() string {
	if len(e.Reasons) == 0 {
		return ErrPreconditionBlocked.Error()
	}
	types := make([]string, 0, len(e.Reasons))
	for _, reason := range e.Reasons {
		types = append(types, reason.Type)
	}
	return fmt.Sprintf("%s: %s", ErrPreconditionBlocked.Error(), strings.Join(types, ", "))
}

func (e *BlockedError) Is(target error) bool {
	return target == ErrPreconditionBlocked
}

// TransferError wraps a failed or indeterminate provider transfer. Unknown
// marks outcomes the caller cannot classify (timeouts); the transaction stays
// in pending_approval either way and approve may be retried.
type TransferError struct {
	Unknown bool
	Err     error
}

func (e *TransferError) Error() string {
	if e.Unknown {
		return fmt.Sprintf("%s: outcome unknown: %v", ErrProviderTransfer.Error(), e.Err)
	}
	return fmt.Sprintf("%s: %v", ErrProviderTransfer.Error(), e.Err)
}

func (e *TransferError) Unwrap() error {
	return e.Err
}

func (e *TransferError) Is(target error) bool {
	return target == ErrProviderTransfer
}
