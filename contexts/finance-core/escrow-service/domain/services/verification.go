package services

import "groundwork/contexts/finance-core/escrow-service/domain/entities"

// VerificationComplete holds iff at least one receipt exists and every
// attached receipt has been explicitly verified. A rejected receipt keeps
// the gate open rather than failing the transaction: the requester can
// attach a corrected receipt without restarting the release cycle.
func VerificationComplete(receipts []entities.Receipt) bool {
	if len(receipts) == 0 {
		return false
	}
	for _, receipt := range receipts {
		if !receipt.Verified {
			return false
		}
	}
	return true
}
