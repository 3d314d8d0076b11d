package entities

import (
	"strings"
	"time"

	domainerrors "groundwork/contexts/finance-core/escrow-service/domain/errors"
)

// Receipt is one piece of spend evidence attached to a release transaction.
// OCRExtract is advisory context from the document pipeline and is never
// authoritative for verification decisions.
type Receipt struct {
	ReceiptID     string
	TransactionID string
	Amount        float64
	Vendor        string
	IssuedAt      time.Time
	EvidenceURL   string
	OCRExtract    string
	Verified      bool
	VerifiedBy    string
	VerifiedAt    time.Time
	Notes         string
	CreatedAt     time.Time
}

func NewReceipt(
	receiptID string,
	transactionID string,
	amount float64,
	vendor string,
	issuedAt time.Time,
	evidenceURL string,
	ocrExtract string,
	createdAt time.Time,
) (Receipt, error) {
	if strings.TrimSpace(receiptID) == "" ||
		strings.TrimSpace(transactionID) == "" ||
		strings.TrimSpace(vendor) == "" ||
		strings.TrimSpace(evidenceURL) == "" {
		return Receipt{}, domainerrors.ErrInvalidInput
	}
	if amount <= 0 {
		return Receipt{}, domainerrors.ErrInvalidInput
	}

	return Receipt{
		ReceiptID:     receiptID,
		TransactionID: transactionID,
		Amount:        amount,
		Vendor:        strings.TrimSpace(vendor),
		IssuedAt:      issuedAt.UTC(),
		EvidenceURL:   strings.TrimSpace(evidenceURL),
		OCRExtract:    strings.TrimSpace(ocrExtract),
		CreatedAt:     createdAt.UTC(),
	}, nil
}
