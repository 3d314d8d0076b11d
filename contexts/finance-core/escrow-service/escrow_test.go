package escrowservice_test

import (
	"context"
	"errors"
	"testing"
	"time"

	escrowservice "groundwork/contexts/finance-core/escrow-service"
	"groundwork/contexts/finance-core/escrow-service/adapters/memory"
	"groundwork/contexts/finance-core/escrow-service/domain/entities"
	domainerrors "groundwork/contexts/finance-core/escrow-service/domain/errors"
	"groundwork/contexts/finance-core/escrow-service/ports"
	httptransport "groundwork/contexts/finance-core/escrow-service/transport/http"
)

func amountOf(v float64) *float64 { return &v }

func defaultMilestones() []entities.Milestone {
	return []entities.Milestone{
		{
			MilestoneID: "ms-foundation",
			ContractID:  "contract-1",
			Title:       "Foundation",
			Amount:      amountOf(3000),
			Status:      entities.MilestoneStatusCompleted,
		},
		{
			MilestoneID: "ms-framing",
			ContractID:  "contract-1",
			Title:       "Framing",
			Amount:      amountOf(7000),
			Status:      entities.MilestoneStatusCompleted,
		},
		{
			MilestoneID: "ms-punch-list",
			ContractID:  "contract-1",
			Title:       "Punch list",
			Amount:      nil,
			Status:      entities.MilestoneStatusPending,
		},
	}
}

func newFundedModule(t *testing.T) (escrowservice.Module, httptransport.AgreementDTO) {
	t.Helper()
	module := escrowservice.NewInMemoryModule(defaultMilestones(), nil)
	module.Provider.SeedAccount("builder-1", ports.PayoutAccount{
		AccountID:      "acct_builder_1",
		PayoutsEnabled: true,
	})

	created, err := module.Handler.CreateAgreementHandler(context.Background(), "client-1", httptransport.CreateAgreementRequest{
		ProjectID:   "proj-1",
		ContractID:  "contract-1",
		PayerID:     "client-1",
		PayeeID:     "builder-1",
		TotalAmount: 10000,
		Currency:    "usd",
	})
	if err != nil {
		t.Fatalf("create agreement: %v", err)
	}

	funded, err := module.Handler.FundAgreementHandler(context.Background(), "client-1", created.Item.AgreementID)
	if err != nil {
		t.Fatalf("fund agreement: %v", err)
	}
	return module, funded.Item
}

func requestRelease(t *testing.T, module escrowservice.Module, agreementID string, milestoneID string) httptransport.TransactionDTO {
	t.Helper()
	resp, err := module.Handler.RequestReleaseHandler(context.Background(), "builder-1", agreementID, httptransport.RequestReleaseRequest{
		MilestoneID: milestoneID,
	})
	if err != nil {
		t.Fatalf("request release for %s: %v", milestoneID, err)
	}
	return resp.Item
}

func attachAndVerifyReceipt(t *testing.T, module escrowservice.Module, transactionID string, amount float64) httptransport.VerifyReceiptResponse {
	t.Helper()
	attached, err := module.Handler.AttachReceiptHandler(context.Background(), "builder-1", transactionID, httptransport.AttachReceiptRequest{
		Amount:      amount,
		Vendor:      "ACME Concrete",
		EvidenceURL: "https://docs.example/receipt.pdf",
	})
	if err != nil {
		t.Fatalf("attach receipt: %v", err)
	}
	verified, err := module.Handler.VerifyReceiptHandler(context.Background(), "client-1", attached.Item.ReceiptID, httptransport.VerifyReceiptRequest{
		Verified: true,
	})
	if err != nil {
		t.Fatalf("verify receipt: %v", err)
	}
	return verified
}

func TestCreateAgreementValidation(t *testing.T) {
	module := escrowservice.NewInMemoryModule(nil, nil)

	_, err := module.Handler.CreateAgreementHandler(context.Background(), "client-1", httptransport.CreateAgreementRequest{
		ProjectID:   "proj-1",
		PayerID:     "client-1",
		PayeeID:     "client-1",
		TotalAmount: 5000,
	})
	if !errors.Is(err, domainerrors.ErrInvalidInput) {
		t.Fatalf("expected invalid input for payer == payee, got %v", err)
	}

	_, err = module.Handler.CreateAgreementHandler(context.Background(), "client-1", httptransport.CreateAgreementRequest{
		ProjectID:   "proj-1",
		PayerID:     "client-1",
		PayeeID:     "builder-1",
		TotalAmount: -10,
	})
	if !errors.Is(err, domainerrors.ErrInvalidInput) {
		t.Fatalf("expected invalid input for non-positive amount, got %v", err)
	}
}

func TestFundAgreementRecordsDeposit(t *testing.T) {
	module, agreement := newFundedModule(t)

	if agreement.Status != string(entities.AgreementStatusFunded) {
		t.Fatalf("expected funded status, got %s", agreement.Status)
	}
	if !agreement.Funded || agreement.FundedAmount != 10000 {
		t.Fatalf("expected funded amount 10000, got %v (funded %v)", agreement.FundedAmount, agreement.Funded)
	}

	got, err := module.Handler.GetAgreementHandler(context.Background(), agreement.AgreementID)
	if err != nil {
		t.Fatalf("get agreement: %v", err)
	}
	if got.Balances.Deposited != 10000 || got.Balances.Available != 10000 {
		t.Fatalf("expected deposited and available 10000, got %+v", got.Balances)
	}

	_, err = module.Handler.FundAgreementHandler(context.Background(), "client-1", agreement.AgreementID)
	if !errors.Is(err, domainerrors.ErrInvalidInput) {
		t.Fatalf("expected invalid input on double fund, got %v", err)
	}
}

func TestRequestReleaseRequiresFunding(t *testing.T) {
	module := escrowservice.NewInMemoryModule(defaultMilestones(), nil)

	created, err := module.Handler.CreateAgreementHandler(context.Background(), "client-1", httptransport.CreateAgreementRequest{
		ProjectID:   "proj-1",
		ContractID:  "contract-1",
		PayerID:     "client-1",
		PayeeID:     "builder-1",
		TotalAmount: 10000,
	})
	if err != nil {
		t.Fatalf("create agreement: %v", err)
	}

	_, err = module.Handler.RequestReleaseHandler(context.Background(), "builder-1", created.Item.AgreementID, httptransport.RequestReleaseRequest{
		MilestoneID: "ms-foundation",
	})
	if !errors.Is(err, domainerrors.ErrAgreementNotFunded) {
		t.Fatalf("expected not funded, got %v", err)
	}
}

func TestRequestReleaseUnpricedMilestone(t *testing.T) {
	module, agreement := newFundedModule(t)

	_, err := module.Handler.RequestReleaseHandler(context.Background(), "builder-1", agreement.AgreementID, httptransport.RequestReleaseRequest{
		MilestoneID: "ms-punch-list",
	})
	if !errors.Is(err, domainerrors.ErrMilestoneUnpriced) {
		t.Fatalf("expected unpriced milestone, got %v", err)
	}
}

func TestRequestReleaseDuplicateMilestone(t *testing.T) {
	module, agreement := newFundedModule(t)

	requestRelease(t, module, agreement.AgreementID, "ms-foundation")
	_, err := module.Handler.RequestReleaseHandler(context.Background(), "builder-1", agreement.AgreementID, httptransport.RequestReleaseRequest{
		MilestoneID: "ms-foundation",
	})
	if !errors.Is(err, domainerrors.ErrDuplicateRelease) {
		t.Fatalf("expected duplicate release, got %v", err)
	}
}

func TestRequestReleaseInsufficientFunds(t *testing.T) {
	module := escrowservice.NewInMemoryModule([]entities.Milestone{
		{
			MilestoneID: "ms-oversized",
			ContractID:  "contract-1",
			Title:       "Oversized",
			Amount:      amountOf(12000),
			Status:      entities.MilestoneStatusCompleted,
		},
	}, nil)

	created, err := module.Handler.CreateAgreementHandler(context.Background(), "client-1", httptransport.CreateAgreementRequest{
		ProjectID:   "proj-1",
		ContractID:  "contract-1",
		PayerID:     "client-1",
		PayeeID:     "builder-1",
		TotalAmount: 10000,
	})
	if err != nil {
		t.Fatalf("create agreement: %v", err)
	}
	if _, err := module.Handler.FundAgreementHandler(context.Background(), "client-1", created.Item.AgreementID); err != nil {
		t.Fatalf("fund agreement: %v", err)
	}

	_, err = module.Handler.RequestReleaseHandler(context.Background(), "builder-1", created.Item.AgreementID, httptransport.RequestReleaseRequest{
		MilestoneID: "ms-oversized",
	})
	if !errors.Is(err, domainerrors.ErrInsufficientFunds) {
		t.Fatalf("expected insufficient funds, got %v", err)
	}
}

func TestRequestReleaseIdempotencyReplay(t *testing.T) {
	module, agreement := newFundedModule(t)

	first, err := module.Handler.RequestReleaseHandler(context.Background(), "builder-1", agreement.AgreementID, httptransport.RequestReleaseRequest{
		MilestoneID:    "ms-foundation",
		IdempotencyKey: "idem-release-1",
	})
	if err != nil {
		t.Fatalf("first request should succeed: %v", err)
	}

	second, err := module.Handler.RequestReleaseHandler(context.Background(), "builder-1", agreement.AgreementID, httptransport.RequestReleaseRequest{
		MilestoneID:    "ms-foundation",
		IdempotencyKey: "idem-release-1",
	})
	if err != nil {
		t.Fatalf("replay should succeed: %v", err)
	}
	if !second.Replayed {
		t.Fatalf("expected replayed response")
	}
	if second.Item.TransactionID != first.Item.TransactionID {
		t.Fatalf("expected same transaction, got %s and %s", first.Item.TransactionID, second.Item.TransactionID)
	}

	_, err = module.Handler.RequestReleaseHandler(context.Background(), "builder-1", agreement.AgreementID, httptransport.RequestReleaseRequest{
		MilestoneID:    "ms-framing",
		IdempotencyKey: "idem-release-1",
	})
	if !errors.Is(err, domainerrors.ErrIdempotencyKeyConflict) {
		t.Fatalf("expected idempotency conflict for reused key, got %v", err)
	}
}

func TestApproveBlockedWithoutVerifiedReceipts(t *testing.T) {
	module, agreement := newFundedModule(t)
	txn := requestRelease(t, module, agreement.AgreementID, "ms-foundation")

	if txn.Status != string(entities.TransactionStatusVerificationRequired) {
		t.Fatalf("new release should require verification, got %s", txn.Status)
	}

	_, err := module.Handler.ApproveReleaseHandler(context.Background(), "client-1", "", txn.TransactionID, httptransport.ApproveReleaseRequest{})
	if !errors.Is(err, domainerrors.ErrPreconditionBlocked) {
		t.Fatalf("expected blocked approval, got %v", err)
	}

	var blocked *domainerrors.BlockedError
	if !errors.As(err, &blocked) {
		t.Fatalf("expected BlockedError, got %T", err)
	}
	types := map[string]bool{}
	for _, reason := range blocked.Reasons {
		types[reason.Type] = true
	}
	if !types["verification_incomplete"] || !types["transaction_not_pending_approval"] {
		t.Fatalf("expected both gate reasons, got %v", blocked.Reasons)
	}
}

func TestReleaseLifecycle(t *testing.T) {
	module, agreement := newFundedModule(t)

	first := requestRelease(t, module, agreement.AgreementID, "ms-foundation")
	verified := attachAndVerifyReceipt(t, module, first.TransactionID, 2980.55)
	if verified.Transaction.Status != string(entities.TransactionStatusPendingApproval) {
		t.Fatalf("expected pending_approval after full verification, got %s", verified.Transaction.Status)
	}

	approved, err := module.Handler.ApproveReleaseHandler(context.Background(), "client-1", "", first.TransactionID, httptransport.ApproveReleaseRequest{})
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if approved.Item.Status != string(entities.TransactionStatusCompleted) {
		t.Fatalf("expected completed, got %s", approved.Item.Status)
	}
	if approved.Item.ProviderTransferID == "" {
		t.Fatalf("completed release must carry the provider transfer id")
	}

	milestone, err := module.Store.GetMilestone(context.Background(), "ms-foundation")
	if err != nil {
		t.Fatalf("get milestone: %v", err)
	}
	if milestone.Status != entities.MilestoneStatusPaid {
		t.Fatalf("expected milestone paid, got %s", milestone.Status)
	}

	mid, err := module.Handler.GetAgreementHandler(context.Background(), agreement.AgreementID)
	if err != nil {
		t.Fatalf("get agreement: %v", err)
	}
	if mid.Item.Status != string(entities.AgreementStatusActive) {
		t.Fatalf("expected active agreement after first payout, got %s", mid.Item.Status)
	}
	if mid.Balances.Released != 3000 || mid.Balances.Available != 7000 {
		t.Fatalf("expected released 3000 / available 7000, got %+v", mid.Balances)
	}

	second := requestRelease(t, module, agreement.AgreementID, "ms-framing")
	reserved, err := module.Handler.GetAgreementHandler(context.Background(), agreement.AgreementID)
	if err != nil {
		t.Fatalf("get agreement: %v", err)
	}
	if reserved.Balances.PendingRelease != 7000 || reserved.Balances.Available != 0 {
		t.Fatalf("open release should reserve funds, got %+v", reserved.Balances)
	}

	attachAndVerifyReceipt(t, module, second.TransactionID, 6900)
	if _, err := module.Handler.ApproveReleaseHandler(context.Background(), "client-1", "", second.TransactionID, httptransport.ApproveReleaseRequest{}); err != nil {
		t.Fatalf("approve second release: %v", err)
	}

	final, err := module.Handler.GetAgreementHandler(context.Background(), agreement.AgreementID)
	if err != nil {
		t.Fatalf("get agreement: %v", err)
	}
	if final.Item.Status != string(entities.AgreementStatusCompleted) {
		t.Fatalf("expected completed agreement after all priced milestones paid, got %s", final.Item.Status)
	}
	if final.Balances.Released != 10000 || final.Balances.Available != 0 {
		t.Fatalf("expected fully released balances, got %+v", final.Balances)
	}
}

func TestApproveUnauthorized(t *testing.T) {
	module, agreement := newFundedModule(t)
	txn := requestRelease(t, module, agreement.AgreementID, "ms-foundation")
	attachAndVerifyReceipt(t, module, txn.TransactionID, 3000)

	_, err := module.Handler.ApproveReleaseHandler(context.Background(), "builder-1", "", txn.TransactionID, httptransport.ApproveReleaseRequest{})
	if !errors.Is(err, domainerrors.ErrUnauthorized) {
		t.Fatalf("payee must not approve their own release, got %v", err)
	}

	if _, err := module.Handler.ApproveReleaseHandler(context.Background(), "ops-admin", "admin", txn.TransactionID, httptransport.ApproveReleaseRequest{}); err != nil {
		t.Fatalf("admin approval should succeed: %v", err)
	}
}

func TestApprovePayoutAccountUnavailable(t *testing.T) {
	module, agreement := newFundedModule(t)
	module.Provider.SeedAccount("builder-1", ports.PayoutAccount{
		AccountID:      "acct_builder_1",
		PayoutsEnabled: false,
	})
	txn := requestRelease(t, module, agreement.AgreementID, "ms-foundation")
	attachAndVerifyReceipt(t, module, txn.TransactionID, 3000)

	_, err := module.Handler.ApproveReleaseHandler(context.Background(), "client-1", "", txn.TransactionID, httptransport.ApproveReleaseRequest{})
	if !errors.Is(err, domainerrors.ErrPayoutAccountUnavailable) {
		t.Fatalf("expected payout account unavailable, got %v", err)
	}
}

func TestApproveProviderFailureLeavesReleaseRetryable(t *testing.T) {
	module, agreement := newFundedModule(t)
	txn := requestRelease(t, module, agreement.AgreementID, "ms-foundation")
	attachAndVerifyReceipt(t, module, txn.TransactionID, 3000)

	module.Provider.FailNextTransfer(errors.New("rail unavailable"))
	_, err := module.Handler.ApproveReleaseHandler(context.Background(), "client-1", "", txn.TransactionID, httptransport.ApproveReleaseRequest{})
	if !errors.Is(err, domainerrors.ErrProviderTransfer) {
		t.Fatalf("expected provider transfer error, got %v", err)
	}

	stuck, err := module.Handler.GetTransactionHandler(context.Background(), txn.TransactionID)
	if err != nil {
		t.Fatalf("get transaction: %v", err)
	}
	if stuck.Item.Status != string(entities.TransactionStatusPendingApproval) {
		t.Fatalf("failed transfer must keep the release approvable, got %s", stuck.Item.Status)
	}

	if _, err := module.Handler.ApproveReleaseHandler(context.Background(), "client-1", "", txn.TransactionID, httptransport.ApproveReleaseRequest{}); err != nil {
		t.Fatalf("retry after provider failure should succeed: %v", err)
	}
}

func TestApproveProviderTimeoutRetryIsIdempotent(t *testing.T) {
	store := memory.NewStore()
	store.SeedMilestones(defaultMilestones())
	provider := memory.NewProvider()
	provider.SeedAccount("builder-1", ports.PayoutAccount{
		AccountID:      "acct_builder_1",
		PayoutsEnabled: true,
	})
	module := escrowservice.NewModule(escrowservice.Dependencies{
		Agreements:      store,
		Transactions:    store,
		Receipts:        store,
		Milestones:      store,
		Idempotency:     store,
		Outbox:          store,
		Provider:        provider,
		Clock:           store,
		IDGenerator:     store,
		IdempotencyTTL:  time.Hour,
		ProviderTimeout: 25 * time.Millisecond,
	})
	module.Store = store
	module.Provider = provider

	created, err := module.Handler.CreateAgreementHandler(context.Background(), "client-1", httptransport.CreateAgreementRequest{
		ProjectID:   "proj-1",
		ContractID:  "contract-1",
		PayerID:     "client-1",
		PayeeID:     "builder-1",
		TotalAmount: 10000,
	})
	if err != nil {
		t.Fatalf("create agreement: %v", err)
	}
	if _, err := module.Handler.FundAgreementHandler(context.Background(), "client-1", created.Item.AgreementID); err != nil {
		t.Fatalf("fund agreement: %v", err)
	}
	txn := requestRelease(t, module, created.Item.AgreementID, "ms-foundation")
	attachAndVerifyReceipt(t, module, txn.TransactionID, 3000)

	provider.HangNextTransfer()
	_, err = module.Handler.ApproveReleaseHandler(context.Background(), "client-1", "", txn.TransactionID, httptransport.ApproveReleaseRequest{})
	if !errors.Is(err, domainerrors.ErrProviderTransfer) {
		t.Fatalf("expected unknown-outcome transfer error, got %v", err)
	}
	var transferErr *domainerrors.TransferError
	if !errors.As(err, &transferErr) || !transferErr.Unknown {
		t.Fatalf("timeout must surface as unknown outcome, got %v", err)
	}

	stuck, err := module.Handler.GetTransactionHandler(context.Background(), txn.TransactionID)
	if err != nil {
		t.Fatalf("get transaction: %v", err)
	}
	if stuck.Item.Status != string(entities.TransactionStatusPendingApproval) {
		t.Fatalf("timed-out transfer must keep the release approvable, got %s", stuck.Item.Status)
	}

	approved, err := module.Handler.ApproveReleaseHandler(context.Background(), "client-1", "", txn.TransactionID, httptransport.ApproveReleaseRequest{})
	if err != nil {
		t.Fatalf("retry after timeout should succeed: %v", err)
	}
	if provider.TransferCalls() != 1 {
		t.Fatalf("idempotency key must prevent a second transfer, got %d calls", provider.TransferCalls())
	}
	if approved.Item.ProviderTransferID == "" {
		t.Fatalf("retried approval must carry the original transfer id")
	}
}

func TestCompleteReleaseStaleVersion(t *testing.T) {
	module, agreement := newFundedModule(t)
	dto := requestRelease(t, module, agreement.AgreementID, "ms-foundation")
	attachAndVerifyReceipt(t, module, dto.TransactionID, 3000)

	pending, err := module.Store.GetTransaction(context.Background(), dto.TransactionID)
	if err != nil {
		t.Fatalf("get transaction: %v", err)
	}

	if _, err := module.Handler.ApproveReleaseHandler(context.Background(), "client-1", "", dto.TransactionID, httptransport.ApproveReleaseRequest{}); err != nil {
		t.Fatalf("approve: %v", err)
	}

	// A second writer that read the pending_approval row now loses the
	// guarded update.
	completed := pending
	completed.Status = entities.TransactionStatusCompleted
	completed.ApprovedBy = "client-2"
	err = module.Store.CompleteReleaseWithOutbox(context.Background(), completed, pending.Version, ports.EventEnvelope{
		EventID:   "evt-stale-writer",
		EventType: "escrow.release.completed",
	})
	if !errors.Is(err, domainerrors.ErrStaleState) {
		t.Fatalf("expected stale state for the losing writer, got %v", err)
	}
}

func TestRejectRelease(t *testing.T) {
	module, agreement := newFundedModule(t)
	txn := requestRelease(t, module, agreement.AgreementID, "ms-foundation")

	_, err := module.Handler.RejectReleaseHandler(context.Background(), "client-1", "", txn.TransactionID, httptransport.RejectReleaseRequest{})
	if !errors.Is(err, domainerrors.ErrRejectionReasonRequired) {
		t.Fatalf("expected rejection reason required, got %v", err)
	}

	rejected, err := module.Handler.RejectReleaseHandler(context.Background(), "client-1", "", txn.TransactionID, httptransport.RejectReleaseRequest{
		Reason: "work not performed",
	})
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if rejected.Item.Status != string(entities.TransactionStatusRejected) {
		t.Fatalf("expected rejected, got %s", rejected.Item.Status)
	}
	if rejected.Item.RejectionReason != "work not performed" {
		t.Fatalf("expected reason recorded, got %q", rejected.Item.RejectionReason)
	}

	after, err := module.Handler.GetAgreementHandler(context.Background(), agreement.AgreementID)
	if err != nil {
		t.Fatalf("get agreement: %v", err)
	}
	if after.Balances.Available != 10000 || after.Balances.PendingRelease != 0 {
		t.Fatalf("rejection must free the reservation, got %+v", after.Balances)
	}

	// The milestone slot is free again.
	requestRelease(t, module, agreement.AgreementID, "ms-foundation")
}

func TestRequestReleaseAfterRejectionOpensNewTransaction(t *testing.T) {
	module, agreement := newFundedModule(t)
	first := requestRelease(t, module, agreement.AgreementID, "ms-foundation")

	_, err := module.Handler.RejectReleaseHandler(context.Background(), "client-1", "", first.TransactionID, httptransport.RejectReleaseRequest{
		Reason: "invoice disputed",
	})
	if err != nil {
		t.Fatalf("reject: %v", err)
	}

	// A key-less re-request must not resurrect the rejected transaction.
	resp, err := module.Handler.RequestReleaseHandler(context.Background(), "builder-1", agreement.AgreementID, httptransport.RequestReleaseRequest{
		MilestoneID: "ms-foundation",
	})
	if err != nil {
		t.Fatalf("re-request after rejection: %v", err)
	}
	if resp.Replayed {
		t.Fatal("re-request after rejection must not be a replay")
	}
	if resp.Item.TransactionID == first.TransactionID {
		t.Fatalf("expected a new transaction, got the rejected one %s", first.TransactionID)
	}
	if resp.Item.Status != string(entities.TransactionStatusVerificationRequired) {
		t.Fatalf("expected verification_required, got %s", resp.Item.Status)
	}
}

func TestReceiptRejectionRevertsPendingApproval(t *testing.T) {
	module, agreement := newFundedModule(t)
	txn := requestRelease(t, module, agreement.AgreementID, "ms-foundation")

	first, err := module.Handler.AttachReceiptHandler(context.Background(), "builder-1", txn.TransactionID, httptransport.AttachReceiptRequest{
		Amount:      1800,
		Vendor:      "ACME Concrete",
		EvidenceURL: "https://docs.example/receipt-1.pdf",
	})
	if err != nil {
		t.Fatalf("attach first receipt: %v", err)
	}
	second, err := module.Handler.AttachReceiptHandler(context.Background(), "builder-1", txn.TransactionID, httptransport.AttachReceiptRequest{
		Amount:      1200,
		Vendor:      "Steel Supply Co",
		EvidenceURL: "https://docs.example/receipt-2.pdf",
	})
	if err != nil {
		t.Fatalf("attach second receipt: %v", err)
	}

	if _, err := module.Handler.VerifyReceiptHandler(context.Background(), "client-1", first.Item.ReceiptID, httptransport.VerifyReceiptRequest{Verified: true}); err != nil {
		t.Fatalf("verify first receipt: %v", err)
	}
	resp, err := module.Handler.VerifyReceiptHandler(context.Background(), "client-1", second.Item.ReceiptID, httptransport.VerifyReceiptRequest{Verified: true})
	if err != nil {
		t.Fatalf("verify second receipt: %v", err)
	}
	if resp.Transaction.Status != string(entities.TransactionStatusPendingApproval) {
		t.Fatalf("expected pending_approval, got %s", resp.Transaction.Status)
	}

	reverted, err := module.Handler.VerifyReceiptHandler(context.Background(), "client-1", second.Item.ReceiptID, httptransport.VerifyReceiptRequest{
		Verified: false,
		Notes:    "vendor mismatch",
	})
	if err != nil {
		t.Fatalf("reject receipt: %v", err)
	}
	if reverted.Transaction.Status != string(entities.TransactionStatusVerificationRequired) {
		t.Fatalf("disputed evidence must reopen verification, got %s", reverted.Transaction.Status)
	}

	_, err = module.Handler.ApproveReleaseHandler(context.Background(), "client-1", "", txn.TransactionID, httptransport.ApproveReleaseRequest{})
	if !errors.Is(err, domainerrors.ErrPreconditionBlocked) {
		t.Fatalf("approval must be blocked after receipt dispute, got %v", err)
	}
}

func TestCloseAgreementAndRefund(t *testing.T) {
	module, agreement := newFundedModule(t)
	module.Provider.SeedAccount("client-1", ports.PayoutAccount{
		AccountID:      "acct_client_1",
		PayoutsEnabled: true,
	})

	_, err := module.Handler.CloseAgreementHandler(context.Background(), "builder-1", "", agreement.AgreementID, httptransport.CloseAgreementRequest{
		Status: string(entities.AgreementStatusCancelled),
		Reason: "owner walked away",
	})
	if !errors.Is(err, domainerrors.ErrUnauthorized) {
		t.Fatalf("only admins may close agreements, got %v", err)
	}

	closed, err := module.Handler.CloseAgreementHandler(context.Background(), "ops-admin", "admin", agreement.AgreementID, httptransport.CloseAgreementRequest{
		Status: string(entities.AgreementStatusCancelled),
		Reason: "owner walked away",
	})
	if err != nil {
		t.Fatalf("close: %v", err)
	}
	if closed.Item.Status != string(entities.AgreementStatusCancelled) {
		t.Fatalf("expected cancelled, got %s", closed.Item.Status)
	}

	_, err = module.Handler.RequestReleaseHandler(context.Background(), "builder-1", agreement.AgreementID, httptransport.RequestReleaseRequest{
		MilestoneID: "ms-foundation",
	})
	if !errors.Is(err, domainerrors.ErrAgreementClosed) {
		t.Fatalf("closed agreements take no new releases, got %v", err)
	}

	_, err = module.Handler.RefundAgreementHandler(context.Background(), "builder-1", "", agreement.AgreementID, httptransport.RefundAgreementRequest{Reason: "cancelled"})
	if !errors.Is(err, domainerrors.ErrUnauthorized) {
		t.Fatalf("only admins may refund, got %v", err)
	}

	refunded, err := module.Handler.RefundAgreementHandler(context.Background(), "ops-admin", "admin", agreement.AgreementID, httptransport.RefundAgreementRequest{Reason: "cancelled"})
	if err != nil {
		t.Fatalf("refund: %v", err)
	}
	if refunded.Refund.Type != string(entities.TransactionTypeRefund) || refunded.Refund.Amount != 10000 {
		t.Fatalf("expected full refund transaction, got %+v", refunded.Refund)
	}

	after, err := module.Handler.GetAgreementHandler(context.Background(), agreement.AgreementID)
	if err != nil {
		t.Fatalf("get agreement: %v", err)
	}
	if after.Balances.Refunded != 10000 || after.Balances.Available != 0 {
		t.Fatalf("expected refunded balances, got %+v", after.Balances)
	}

	_, err = module.Handler.RefundAgreementHandler(context.Background(), "ops-admin", "admin", agreement.AgreementID, httptransport.RefundAgreementRequest{Reason: "cancelled"})
	if !errors.Is(err, domainerrors.ErrInsufficientFunds) {
		t.Fatalf("second refund has nothing to return, got %v", err)
	}
}

func TestGetTransactionReportsGateState(t *testing.T) {
	module, agreement := newFundedModule(t)
	txn := requestRelease(t, module, agreement.AgreementID, "ms-foundation")

	before, err := module.Handler.GetTransactionHandler(context.Background(), txn.TransactionID)
	if err != nil {
		t.Fatalf("get transaction: %v", err)
	}
	if before.ReleaseGate.Allowed {
		t.Fatalf("gate must not allow an unverified release")
	}
	if len(before.ReleaseGate.Reasons) == 0 {
		t.Fatalf("blocked gate must list reasons")
	}

	attachAndVerifyReceipt(t, module, txn.TransactionID, 3000)

	after, err := module.Handler.GetTransactionHandler(context.Background(), txn.TransactionID)
	if err != nil {
		t.Fatalf("get transaction: %v", err)
	}
	if !after.ReleaseGate.Allowed {
		t.Fatalf("gate should allow a fully verified pending_approval release, got %+v", after.ReleaseGate)
	}
	if len(after.Receipts) != 1 {
		t.Fatalf("expected one receipt, got %d", len(after.Receipts))
	}
}
