package httpadapter

import (
	"context"
	"log/slog"
	"time"

	application "groundwork/contexts/finance-core/escrow-service/application"
	"groundwork/contexts/finance-core/escrow-service/application/commands"
	"groundwork/contexts/finance-core/escrow-service/application/queries"
	"groundwork/contexts/finance-core/escrow-service/domain/entities"
	"groundwork/contexts/finance-core/escrow-service/ports"
	httptransport "groundwork/contexts/finance-core/escrow-service/transport/http"
)

type Handler struct {
	CreateAgreement  commands.CreateAgreementUseCase
	FundAgreement    commands.FundAgreementUseCase
	RequestRelease   commands.RequestReleaseUseCase
	AttachReceipt    commands.AttachReceiptUseCase
	VerifyReceipt    commands.VerifyReceiptUseCase
	ApproveRelease   commands.ApproveReleaseUseCase
	RejectRelease    commands.RejectReleaseUseCase
	CloseAgreement   commands.CloseAgreementUseCase
	RefundAgreement  commands.RefundAgreementUseCase
	GetAgreement     queries.GetAgreementQuery
	ListAgreements   queries.ListAgreementsByProjectQuery
	GetTransaction   queries.GetTransactionQuery
	ListTransactions queries.ListTransactionsQuery
	Logger           *slog.Logger
}

// CreateAgreementHandler godoc
// @Summary Create escrow agreement
// @Description Opens a draft agreement between payer and payee for a contract.
// @Tags escrow
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param X-Request-Id header string true "Request correlation id"
// @Param request body httptransport.CreateAgreementRequest true "Agreement payload"
// @Success 201 {object} httptransport.CreateAgreementResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 401 {object} httptransport.ErrorResponse
// @Failure 500 {object} httptransport.ErrorResponse
// @Router /escrow/agreements [post]
func (h Handler) CreateAgreementHandler(
	ctx context.Context,
	actorID string,
	req httptransport.CreateAgreementRequest,
) (httptransport.CreateAgreementResponse, error) {
	logger := application.ResolveLogger(h.Logger)
	logger.Info("create agreement request received",
		"event", "http_create_agreement_received",
		"module", "finance-core/escrow-service",
		"layer", "transport",
	)

	result, err := h.CreateAgreement.Execute(ctx, commands.CreateAgreementCommand{
		ProjectID:   req.ProjectID,
		ContractID:  req.ContractID,
		PayerID:     req.PayerID,
		PayeeID:     req.PayeeID,
		TotalAmount: req.TotalAmount,
		Currency:    req.Currency,
		ActorID:     actorID,
	})
	if err != nil {
		return httptransport.CreateAgreementResponse{}, err
	}
	return httptransport.CreateAgreementResponse{Item: mapAgreement(result.Agreement)}, nil
}

// FundAgreementHandler godoc
// @Summary Fund escrow agreement
// @Description Records the full deposit and moves the agreement to funded.
// @Tags escrow
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param X-Request-Id header string true "Request correlation id"
// @Param agreement_id path string true "Agreement id"
// @Success 200 {object} httptransport.FundAgreementResponse
// @Failure 401 {object} httptransport.ErrorResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Failure 409 {object} httptransport.ErrorResponse
// @Failure 500 {object} httptransport.ErrorResponse
// @Router /escrow/agreements/{agreement_id}/fund [post]
func (h Handler) FundAgreementHandler(
	ctx context.Context,
	actorID string,
	agreementID string,
) (httptransport.FundAgreementResponse, error) {
	result, err := h.FundAgreement.Execute(ctx, commands.FundAgreementCommand{
		AgreementID: agreementID,
		ActorID:     actorID,
	})
	if err != nil {
		return httptransport.FundAgreementResponse{}, err
	}
	return httptransport.FundAgreementResponse{
		Item:    mapAgreement(result.Agreement),
		Deposit: mapTransaction(result.Deposit),
	}, nil
}

// RequestReleaseHandler godoc
// @Summary Request milestone release
// @Description Opens a release transaction for a priced milestone. Safe to retry with the same idempotency key.
// @Tags escrow
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param X-Request-Id header string true "Request correlation id"
// @Param agreement_id path string true "Agreement id"
// @Param request body httptransport.RequestReleaseRequest true "Release payload"
// @Success 201 {object} httptransport.RequestReleaseResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 401 {object} httptransport.ErrorResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Failure 409 {object} httptransport.ErrorResponse
// @Failure 422 {object} httptransport.ErrorResponse
// @Failure 500 {object} httptransport.ErrorResponse
// @Router /escrow/agreements/{agreement_id}/releases [post]
func (h Handler) RequestReleaseHandler(
	ctx context.Context,
	actorID string,
	agreementID string,
	req httptransport.RequestReleaseRequest,
) (httptransport.RequestReleaseResponse, error) {
	logger := application.ResolveLogger(h.Logger)
	logger.Info("request release received",
		"event", "http_request_release_received",
		"module", "finance-core/escrow-service",
		"layer", "transport",
		"agreement_id", agreementID,
	)

	result, err := h.RequestRelease.Execute(ctx, commands.RequestReleaseCommand{
		AgreementID:    agreementID,
		MilestoneID:    req.MilestoneID,
		RequesterID:    actorID,
		Notes:          req.Notes,
		IdempotencyKey: req.IdempotencyKey,
	})
	if err != nil {
		return httptransport.RequestReleaseResponse{}, err
	}
	return httptransport.RequestReleaseResponse{
		Item:     mapTransaction(result.Transaction),
		Replayed: result.Replayed,
	}, nil
}

// AttachReceiptHandler godoc
// @Summary Attach receipt evidence
// @Description Attaches vendor receipt evidence to an open release transaction.
// @Tags escrow
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param X-Request-Id header string true "Request correlation id"
// @Param transaction_id path string true "Transaction id"
// @Param request body httptransport.AttachReceiptRequest true "Receipt payload"
// @Success 201 {object} httptransport.AttachReceiptResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 401 {object} httptransport.ErrorResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Failure 409 {object} httptransport.ErrorResponse
// @Failure 500 {object} httptransport.ErrorResponse
// @Router /escrow/transactions/{transaction_id}/receipts [post]
func (h Handler) AttachReceiptHandler(
	ctx context.Context,
	actorID string,
	transactionID string,
	req httptransport.AttachReceiptRequest,
) (httptransport.AttachReceiptResponse, error) {
	issuedAt := time.Time{}
	if req.IssuedAt != "" {
		parsed, err := time.Parse(time.RFC3339, req.IssuedAt)
		if err == nil {
			issuedAt = parsed
		}
	}

	result, err := h.AttachReceipt.Execute(ctx, commands.AttachReceiptCommand{
		TransactionID: transactionID,
		Amount:        req.Amount,
		Vendor:        req.Vendor,
		IssuedAt:      issuedAt,
		EvidenceURL:   req.EvidenceURL,
		OCRExtract:    req.OCRExtract,
		ActorID:       actorID,
	})
	if err != nil {
		return httptransport.AttachReceiptResponse{}, err
	}
	return httptransport.AttachReceiptResponse{Item: mapReceipt(result.Receipt)}, nil
}

// VerifyReceiptHandler godoc
// @Summary Verify or reject receipt
// @Description Records the verifier decision and recomputes transaction verification state.
// @Tags escrow
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param X-Request-Id header string true "Request correlation id"
// @Param receipt_id path string true "Receipt id"
// @Param request body httptransport.VerifyReceiptRequest true "Verification decision"
// @Success 200 {object} httptransport.VerifyReceiptResponse
// @Failure 401 {object} httptransport.ErrorResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Failure 409 {object} httptransport.ErrorResponse
// @Failure 500 {object} httptransport.ErrorResponse
// @Router /escrow/receipts/{receipt_id}/verify [post]
func (h Handler) VerifyReceiptHandler(
	ctx context.Context,
	actorID string,
	receiptID string,
	req httptransport.VerifyReceiptRequest,
) (httptransport.VerifyReceiptResponse, error) {
	result, err := h.VerifyReceipt.Execute(ctx, commands.VerifyReceiptCommand{
		ReceiptID:  receiptID,
		Verified:   req.Verified,
		VerifierID: actorID,
		Notes:      req.Notes,
	})
	if err != nil {
		return httptransport.VerifyReceiptResponse{}, err
	}
	return httptransport.VerifyReceiptResponse{
		Item:        mapReceipt(result.Receipt),
		Transaction: mapTransaction(result.Transaction),
	}, nil
}

// ApproveReleaseHandler godoc
// @Summary Approve milestone release
// @Description Runs the release gate, executes the provider transfer, and completes the release.
// @Tags escrow
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param X-Request-Id header string true "Request correlation id"
// @Param transaction_id path string true "Transaction id"
// @Param request body httptransport.ApproveReleaseRequest false "Approval payload"
// @Success 200 {object} httptransport.ApproveReleaseResponse
// @Failure 401 {object} httptransport.ErrorResponse
// @Failure 403 {object} httptransport.ErrorResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Failure 409 {object} httptransport.ErrorResponse
// @Failure 422 {object} httptransport.ErrorResponse
// @Failure 502 {object} httptransport.ErrorResponse
// @Router /escrow/transactions/{transaction_id}/approve [post]
func (h Handler) ApproveReleaseHandler(
	ctx context.Context,
	actorID string,
	actorRole string,
	transactionID string,
	req httptransport.ApproveReleaseRequest,
) (httptransport.ApproveReleaseResponse, error) {
	logger := application.ResolveLogger(h.Logger)
	logger.Info("approve release received",
		"event", "http_approve_release_received",
		"module", "finance-core/escrow-service",
		"layer", "transport",
		"transaction_id", transactionID,
	)

	result, err := h.ApproveRelease.Execute(ctx, commands.ApproveReleaseCommand{
		TransactionID: transactionID,
		ApproverID:    actorID,
		ApproverRole:  actorRole,
		Notes:         req.Notes,
	})
	if err != nil {
		return httptransport.ApproveReleaseResponse{}, err
	}
	return httptransport.ApproveReleaseResponse{Item: mapTransaction(result.Transaction)}, nil
}

// RejectReleaseHandler godoc
// @Summary Reject milestone release
// @Description Rejects an open release with a mandatory reason. Reserved funds return to the balance.
// @Tags escrow
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param X-Request-Id header string true "Request correlation id"
// @Param transaction_id path string true "Transaction id"
// @Param request body httptransport.RejectReleaseRequest true "Rejection payload"
// @Success 200 {object} httptransport.RejectReleaseResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 401 {object} httptransport.ErrorResponse
// @Failure 403 {object} httptransport.ErrorResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Failure 409 {object} httptransport.ErrorResponse
// @Router /escrow/transactions/{transaction_id}/reject [post]
func (h Handler) RejectReleaseHandler(
	ctx context.Context,
	actorID string,
	actorRole string,
	transactionID string,
	req httptransport.RejectReleaseRequest,
) (httptransport.RejectReleaseResponse, error) {
	result, err := h.RejectRelease.Execute(ctx, commands.RejectReleaseCommand{
		TransactionID: transactionID,
		RejecterID:    actorID,
		RejecterRole:  actorRole,
		Reason:        req.Reason,
	})
	if err != nil {
		return httptransport.RejectReleaseResponse{}, err
	}
	return httptransport.RejectReleaseResponse{Item: mapTransaction(result.Transaction)}, nil
}

// CloseAgreementHandler godoc
// @Summary Close escrow agreement
// @Description Admin transition of an agreement into cancelled or disputed.
// @Tags escrow
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param X-Request-Id header string true "Request correlation id"
// @Param agreement_id path string true "Agreement id"
// @Param request body httptransport.CloseAgreementRequest true "Close payload"
// @Success 200 {object} httptransport.CloseAgreementResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 401 {object} httptransport.ErrorResponse
// @Failure 403 {object} httptransport.ErrorResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Failure 409 {object} httptransport.ErrorResponse
// @Router /escrow/agreements/{agreement_id}/close [post]
func (h Handler) CloseAgreementHandler(
	ctx context.Context,
	actorID string,
	actorRole string,
	agreementID string,
	req httptransport.CloseAgreementRequest,
) (httptransport.CloseAgreementResponse, error) {
	result, err := h.CloseAgreement.Execute(ctx, commands.CloseAgreementCommand{
		AgreementID: agreementID,
		NextStatus:  entities.AgreementStatus(req.Status),
		ActorID:     actorID,
		ActorRole:   actorRole,
		Reason:      req.Reason,
	})
	if err != nil {
		return httptransport.CloseAgreementResponse{}, err
	}
	return httptransport.CloseAgreementResponse{Item: mapAgreement(result.Agreement)}, nil
}

// RefundAgreementHandler godoc
// @Summary Refund remaining balance
// @Description Returns the available balance of a closed agreement to the payer.
// @Tags escrow
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param X-Request-Id header string true "Request correlation id"
// @Param agreement_id path string true "Agreement id"
// @Param request body httptransport.RefundAgreementRequest false "Refund payload"
// @Success 200 {object} httptransport.RefundAgreementResponse
// @Failure 401 {object} httptransport.ErrorResponse
// @Failure 403 {object} httptransport.ErrorResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Failure 409 {object} httptransport.ErrorResponse
// @Failure 502 {object} httptransport.ErrorResponse
// @Router /escrow/agreements/{agreement_id}/refund [post]
func (h Handler) RefundAgreementHandler(
	ctx context.Context,
	actorID string,
	actorRole string,
	agreementID string,
	req httptransport.RefundAgreementRequest,
) (httptransport.RefundAgreementResponse, error) {
	result, err := h.RefundAgreement.Execute(ctx, commands.RefundAgreementCommand{
		AgreementID: agreementID,
		ActorID:     actorID,
		ActorRole:   actorRole,
		Reason:      req.Reason,
	})
	if err != nil {
		return httptransport.RefundAgreementResponse{}, err
	}
	return httptransport.RefundAgreementResponse{Refund: mapTransaction(result.Refund)}, nil
}

// GetAgreementHandler godoc
// @Summary Get agreement with balances
// @Description Returns the agreement and balances derived from the transaction ledger.
// @Tags escrow
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param X-Request-Id header string true "Request correlation id"
// @Param agreement_id path string true "Agreement id"
// @Success 200 {object} httptransport.GetAgreementResponse
// @Failure 401 {object} httptransport.ErrorResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Router /escrow/agreements/{agreement_id} [get]
func (h Handler) GetAgreementHandler(ctx context.Context, agreementID string) (httptransport.GetAgreementResponse, error) {
	result, err := h.GetAgreement.Execute(ctx, agreementID)
	if err != nil {
		return httptransport.GetAgreementResponse{}, err
	}
	return httptransport.GetAgreementResponse{
		Item: mapAgreement(result.Agreement),
		Balances: httptransport.BalancesDTO{
			Deposited:      result.Balances.Deposited,
			Released:       result.Balances.Released,
			PendingRelease: result.Balances.PendingRelease,
			Refunded:       result.Balances.Refunded,
			Available:      result.Balances.Available,
		},
	}, nil
}

// ListAgreementsHandler godoc
// @Summary List agreements for a project
// @Tags escrow
// @Produce json
// @Security BearerAuth
// @Param X-Request-Id header string true "Request correlation id"
// @Param project_id path string true "Project id"
// @Success 200 {object} httptransport.ListAgreementsResponse
// @Failure 401 {object} httptransport.ErrorResponse
// @Router /escrow/projects/{project_id}/agreements [get]
func (h Handler) ListAgreementsHandler(ctx context.Context, projectID string) (httptransport.ListAgreementsResponse, error) {
	items, err := h.ListAgreements.Execute(ctx, projectID)
	if err != nil {
		return httptransport.ListAgreementsResponse{}, err
	}
	out := make([]httptransport.AgreementDTO, 0, len(items))
	for _, item := range items {
		out = append(out, mapAgreement(item))
	}
	return httptransport.ListAgreementsResponse{Items: out}, nil
}

// GetTransactionHandler godoc
// @Summary Get transaction with receipts and gate state
// @Description Returns the transaction, attached receipts, and an advisory release-gate evaluation.
// @Tags escrow
// @Produce json
// @Security BearerAuth
// @Param X-Request-Id header string true "Request correlation id"
// @Param transaction_id path string true "Transaction id"
// @Success 200 {object} httptransport.GetTransactionResponse
// @Failure 401 {object} httptransport.ErrorResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Router /escrow/transactions/{transaction_id} [get]
func (h Handler) GetTransactionHandler(ctx context.Context, transactionID string) (httptransport.GetTransactionResponse, error) {
	result, err := h.GetTransaction.Execute(ctx, transactionID)
	if err != nil {
		return httptransport.GetTransactionResponse{}, err
	}
	receipts := make([]httptransport.ReceiptDTO, 0, len(result.Receipts))
	for _, receipt := range result.Receipts {
		receipts = append(receipts, mapReceipt(receipt))
	}
	return httptransport.GetTransactionResponse{
		Item:        mapTransaction(result.Transaction),
		Receipts:    receipts,
		ReleaseGate: mapGateResult(result.ReleaseGate),
	}, nil
}

// ListTransactionsHandler godoc
// @Summary List agreement transactions
// @Tags escrow
// @Produce json
// @Security BearerAuth
// @Param X-Request-Id header string true "Request correlation id"
// @Param agreement_id path string true "Agreement id"
// @Success 200 {object} httptransport.ListTransactionsResponse
// @Failure 401 {object} httptransport.ErrorResponse
// @Router /escrow/agreements/{agreement_id}/transactions [get]
func (h Handler) ListTransactionsHandler(ctx context.Context, agreementID string) (httptransport.ListTransactionsResponse, error) {
	items, err := h.ListTransactions.Execute(ctx, agreementID)
	if err != nil {
		return httptransport.ListTransactionsResponse{}, err
	}
	out := make([]httptransport.TransactionDTO, 0, len(items))
	for _, item := range items {
		out = append(out, mapTransaction(item))
	}
	return httptransport.ListTransactionsResponse{Items: out}, nil
}

func mapAgreement(agreement entities.Agreement) httptransport.AgreementDTO {
	return httptransport.AgreementDTO{
		AgreementID:  agreement.AgreementID,
		ProjectID:    agreement.ProjectID,
		ContractID:   agreement.ContractID,
		PayerID:      agreement.PayerID,
		PayeeID:      agreement.PayeeID,
		TotalAmount:  agreement.TotalAmount,
		Currency:     agreement.Currency,
		Funded:       agreement.Funded,
		FundedAmount: agreement.FundedAmount,
		Status:       string(agreement.Status),
		CreatedAt:    agreement.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:    agreement.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func mapTransaction(txn entities.Transaction) httptransport.TransactionDTO {
	return httptransport.TransactionDTO{
		TransactionID:        txn.TransactionID,
		AgreementID:          txn.AgreementID,
		Type:                 string(txn.Type),
		Amount:               txn.Amount,
		Currency:             txn.Currency,
		MilestoneID:          txn.MilestoneID,
		Status:               string(txn.Status),
		VerificationComplete: txn.VerificationComplete,
		RequestedBy:          txn.RequestedBy,
		RequestNotes:         txn.RequestNotes,
		ApprovedBy:           txn.ApprovedBy,
		RejectedBy:           txn.RejectedBy,
		RejectionReason:      txn.RejectionReason,
		ProviderTransferID:   txn.ProviderTransferID,
		CreatedAt:            txn.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:            txn.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func mapReceipt(receipt entities.Receipt) httptransport.ReceiptDTO {
	issuedAt := ""
	if !receipt.IssuedAt.IsZero() {
		issuedAt = receipt.IssuedAt.UTC().Format(time.RFC3339)
	}
	return httptransport.ReceiptDTO{
		ReceiptID:     receipt.ReceiptID,
		TransactionID: receipt.TransactionID,
		Amount:        receipt.Amount,
		Vendor:        receipt.Vendor,
		IssuedAt:      issuedAt,
		EvidenceURL:   receipt.EvidenceURL,
		Verified:      receipt.Verified,
		VerifiedBy:    receipt.VerifiedBy,
		Notes:         receipt.Notes,
		CreatedAt:     receipt.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func mapGateResult(result ports.ReleaseGateResult) httptransport.ReleaseGateDTO {
	reasons := make([]httptransport.ReleaseGateReasonDTO, 0, len(result.Reasons))
	for _, reason := range result.Reasons {
		reasons = append(reasons, httptransport.ReleaseGateReasonDTO{
			Type:    reason.Type,
			Message: reason.Message,
		})
	}
	return httptransport.ReleaseGateDTO{
		Allowed: result.Allowed,
		Reasons: reasons,
	}
}
