package httptransport

type CreateAgreementRequest struct {
	ProjectID   string  `json:"project_id"`
	ContractID  string  `json:"contract_id,omitempty"`
	PayerID     string  `json:"payer_id"`
	PayeeID     string  `json:"payee_id"`
	TotalAmount float64 `json:"total_amount"`
	Currency    string  `json:"currency,omitempty"`
}

type AgreementDTO struct {
	AgreementID  string  `json:"agreement_id"`
	ProjectID    string  `json:"project_id"`
	ContractID   string  `json:"contract_id,omitempty"`
	PayerID      string  `json:"payer_id"`
	PayeeID      string  `json:"payee_id"`
	TotalAmount  float64 `json:"total_amount"`
	Currency     string  `json:"currency"`
	Funded       bool    `json:"funded"`
	FundedAmount float64 `json:"funded_amount"`
	Status       string  `json:"status"`
	CreatedAt    string  `json:"created_at"`
	UpdatedAt    string  `json:"updated_at"`
}

type BalancesDTO struct {
	Deposited      float64 `json:"deposited"`
	Released       float64 `json:"released"`
	PendingRelease float64 `json:"pending_release"`
	Refunded       float64 `json:"refunded"`
	Available      float64 `json:"available"`
}

type CreateAgreementResponse struct {
	Item AgreementDTO `json:"item"`
}

type FundAgreementResponse struct {
	Item    AgreementDTO   `json:"item"`
	Deposit TransactionDTO `json:"deposit"`
}

type GetAgreementResponse struct {
	Item     AgreementDTO `json:"item"`
	Balances BalancesDTO  `json:"balances"`
}

type ListAgreementsResponse struct {
	Items []AgreementDTO `json:"items"`
}

type TransactionDTO struct {
	TransactionID        string  `json:"transaction_id"`
	AgreementID          string  `json:"agreement_id"`
	Type                 string  `json:"type"`
	Amount               float64 `json:"amount"`
	Currency             string  `json:"currency"`
	MilestoneID          string  `json:"milestone_id,omitempty"`
	Status               string  `json:"status"`
	VerificationComplete bool    `json:"verification_complete"`
	RequestedBy          string  `json:"requested_by,omitempty"`
	RequestNotes         string  `json:"request_notes,omitempty"`
	ApprovedBy           string  `json:"approved_by,omitempty"`
	RejectedBy           string  `json:"rejected_by,omitempty"`
	RejectionReason      string  `json:"rejection_reason,omitempty"`
	ProviderTransferID   string  `json:"provider_transfer_id,omitempty"`
	CreatedAt            string  `json:"created_at"`
	UpdatedAt            string  `json:"updated_at"`
}

type RequestReleaseRequest struct {
	MilestoneID    string `json:"milestone_id"`
	Notes          string `json:"notes,omitempty"`
	IdempotencyKey string `json:"idempotency_key,omitempty"`
}

type RequestReleaseResponse struct {
	Item     TransactionDTO `json:"item"`
	Replayed bool           `json:"replayed,omitempty"`
}

type AttachReceiptRequest struct {
	Amount      float64 `json:"amount"`
	Vendor      string  `json:"vendor"`
	IssuedAt    string  `json:"issued_at,omitempty"`
	EvidenceURL string  `json:"evidence_url"`
	OCRExtract  string  `json:"ocr_extract,omitempty"`
}

type ReceiptDTO struct {
	ReceiptID     string  `json:"receipt_id"`
	TransactionID string  `json:"transaction_id"`
	Amount        float64 `json:"amount"`
	Vendor        string  `json:"vendor"`
	IssuedAt      string  `json:"issued_at,omitempty"`
	EvidenceURL   string  `json:"evidence_url"`
	Verified      bool    `json:"verified"`
	VerifiedBy    string  `json:"verified_by,omitempty"`
	Notes         string  `json:"notes,omitempty"`
	CreatedAt     string  `json:"created_at"`
}

type AttachReceiptResponse struct {
	Item ReceiptDTO `json:"item"`
}

type VerifyReceiptRequest struct {
	Verified bool   `json:"verified"`
	Notes    string `json:"notes,omitempty"`
}

type VerifyReceiptResponse struct {
	Item        ReceiptDTO     `json:"item"`
	Transaction TransactionDTO `json:"transaction"`
}

type ApproveReleaseRequest struct {
	Notes string `json:"notes,omitempty"`
}

type ApproveReleaseResponse struct {
	Item TransactionDTO `json:"item"`
}

type RejectReleaseRequest struct {
	Reason string `json:"reason"`
}

type RejectReleaseResponse struct {
	Item TransactionDTO `json:"item"`
}

type CloseAgreementRequest struct {
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`
}

type CloseAgreementResponse struct {
	Item AgreementDTO `json:"item"`
}

type RefundAgreementRequest struct {
	Reason string `json:"reason,omitempty"`
}

type RefundAgreementResponse struct {
	Refund TransactionDTO `json:"refund"`
}

type ReleaseGateReasonDTO struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type ReleaseGateDTO struct {
	Allowed bool                   `json:"allowed"`
	Reasons []ReleaseGateReasonDTO `json:"reasons,omitempty"`
}

type GetTransactionResponse struct {
	Item        TransactionDTO `json:"item"`
	Receipts    []ReceiptDTO   `json:"receipts"`
	ReleaseGate ReleaseGateDTO `json:"release_gate"`
}

type ListTransactionsResponse struct {
	Items []TransactionDTO `json:"items"`
}

type ErrorResponse struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Reasons []ReleaseGateReasonDTO `json:"reasons,omitempty"`
}
