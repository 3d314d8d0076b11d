package httpserver

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	escrowservice "groundwork/contexts/finance-core/escrow-service"
	"groundwork/contexts/finance-core/escrow-service/domain/entities"
	"groundwork/contexts/finance-core/escrow-service/ports"
	escrowhttp "groundwork/contexts/finance-core/escrow-service/transport/http"
	audittrailservice "groundwork/contexts/internal-ops/audit-trail-service"
	workflowgateservice "groundwork/contexts/project-delivery/workflow-gate-service"
)

func newTestServer() *Server {
	foundation := 3000.0
	escrow := escrowservice.NewInMemoryModule([]entities.Milestone{
		{
			MilestoneID: "ms-foundation",
			ContractID:  "contract-1",
			Title:       "Foundation",
			Amount:      &foundation,
			Status:      entities.MilestoneStatusCompleted,
		},
	}, slog.Default())
	escrow.Provider.SeedAccount("builder-1", ports.PayoutAccount{
		AccountID:      "acct_builder_1",
		PayoutsEnabled: true,
	})

	return New(
		escrow,
		workflowgateservice.NewInMemoryModule(slog.Default()),
		audittrailservice.NewInMemoryModule(slog.Default()),
		nil,
		slog.Default(),
		":0",
	)
}

func doJSON(t *testing.T, server *Server, method string, target string, userID string, role string, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set("X-User-Id", userID)
	}
	if role != "" {
		req.Header.Set("X-User-Role", role)
	}
	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)
	return rr
}

func decodeErrorBody(t *testing.T, rr *httptest.ResponseRecorder) escrowhttp.ErrorResponse {
	t.Helper()
	var body escrowhttp.ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return body
}

// setupPendingRelease drives the HTTP surface through create, fund, and
// request so tests exercise the routes, not the handlers directly.
func setupPendingRelease(t *testing.T, server *Server) (string, string) {
	t.Helper()
	rr := doJSON(t, server, http.MethodPost, "/v1/escrow/agreements", "client-1", "",
		`{"project_id":"proj-1","contract_id":"contract-1","payer_id":"client-1","payee_id":"builder-1","total_amount":10000,"currency":"usd"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create agreement: expected 201, got %d body=%s", rr.Code, rr.Body.String())
	}
	var created escrowhttp.CreateAgreementResponse
	if err := json.NewDecoder(rr.Body).Decode(&created); err != nil {
		t.Fatalf("decode create response: %v", err)
	}
	agreementID := created.Item.AgreementID

	rr = doJSON(t, server, http.MethodPost, "/v1/escrow/agreements/"+agreementID+"/fund", "client-1", "", `{}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("fund agreement: expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}

	rr = doJSON(t, server, http.MethodPost, "/v1/escrow/agreements/"+agreementID+"/releases", "builder-1", "",
		`{"milestone_id":"ms-foundation"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("request release: expected 201, got %d body=%s", rr.Code, rr.Body.String())
	}
	var release escrowhttp.RequestReleaseResponse
	if err := json.NewDecoder(rr.Body).Decode(&release); err != nil {
		t.Fatalf("decode release response: %v", err)
	}
	return agreementID, release.Item.TransactionID
}

func verifyReleaseReceipt(t *testing.T, server *Server, transactionID string) {
	t.Helper()
	rr := doJSON(t, server, http.MethodPost, "/v1/escrow/transactions/"+transactionID+"/receipts", "builder-1", "",
		`{"amount":3000,"vendor":"ACME Concrete","evidence_url":"https://docs.example/receipt.pdf"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("attach receipt: expected 201, got %d body=%s", rr.Code, rr.Body.String())
	}
	var attached escrowhttp.AttachReceiptResponse
	if err := json.NewDecoder(rr.Body).Decode(&attached); err != nil {
		t.Fatalf("decode receipt response: %v", err)
	}

	rr = doJSON(t, server, http.MethodPost, "/v1/escrow/receipts/"+attached.Item.ReceiptID+"/verify", "client-1", "",
		`{"verified":true}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("verify receipt: expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestEscrowMutationsRequireUserHeader(t *testing.T) {
	server := newTestServer()

	targets := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/v1/escrow/agreements"},
		{http.MethodPost, "/v1/escrow/agreements/agr-1/fund"},
		{http.MethodPost, "/v1/escrow/agreements/agr-1/releases"},
		{http.MethodPost, "/v1/escrow/transactions/txn-1/approve"},
		{http.MethodPost, "/v1/escrow/transactions/txn-1/reject"},
		{http.MethodPost, "/v1/escrow/agreements/agr-1/close"},
		{http.MethodPost, "/v1/escrow/agreements/agr-1/refund"},
	}
	for _, target := range targets {
		rr := doJSON(t, server, target.method, target.path, "", "", `{}`)
		if rr.Code != http.StatusUnauthorized {
			t.Fatalf("%s %s: expected 401, got %d body=%s", target.method, target.path, rr.Code, rr.Body.String())
		}
		if body := decodeErrorBody(t, rr); body.Code != "missing_user" {
			t.Fatalf("%s %s: expected missing_user, got %q", target.method, target.path, body.Code)
		}
	}
}

func TestEscrowApproveBlockedResponseCarriesReasons(t *testing.T) {
	server := newTestServer()
	_, transactionID := setupPendingRelease(t, server)

	rr := doJSON(t, server, http.MethodPost, "/v1/escrow/transactions/"+transactionID+"/approve", "client-1", "", `{}`)
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d body=%s", rr.Code, rr.Body.String())
	}
	body := decodeErrorBody(t, rr)
	if body.Code != "precondition_blocked" {
		t.Fatalf("expected precondition_blocked, got %q", body.Code)
	}
	if len(body.Reasons) == 0 {
		t.Fatal("expected blocking reasons in the response body")
	}
}

func TestEscrowApproveRoleEnforcement(t *testing.T) {
	server := newTestServer()
	_, transactionID := setupPendingRelease(t, server)
	verifyReleaseReceipt(t, server, transactionID)

	// The payee cannot approve their own release.
	rr := doJSON(t, server, http.MethodPost, "/v1/escrow/transactions/"+transactionID+"/approve", "builder-1", "", `{}`)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("payee approve: expected 403, got %d body=%s", rr.Code, rr.Body.String())
	}
	if body := decodeErrorBody(t, rr); body.Code != "forbidden" {
		t.Fatalf("expected forbidden, got %q", body.Code)
	}

	// An admin who is not the payer may approve via the role header.
	rr = doJSON(t, server, http.MethodPost, "/v1/escrow/transactions/"+transactionID+"/approve", "ops-1", "admin", `{}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("admin approve: expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	var approved escrowhttp.ApproveReleaseResponse
	if err := json.NewDecoder(rr.Body).Decode(&approved); err != nil {
		t.Fatalf("decode approve response: %v", err)
	}
	if approved.Item.Status != string(entities.TransactionStatusCompleted) {
		t.Fatalf("expected completed, got %s", approved.Item.Status)
	}
}

func TestEscrowRejectRequiresReason(t *testing.T) {
	server := newTestServer()
	_, transactionID := setupPendingRelease(t, server)

	rr := doJSON(t, server, http.MethodPost, "/v1/escrow/transactions/"+transactionID+"/reject", "client-1", "", `{}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d body=%s", rr.Code, rr.Body.String())
	}
	if body := decodeErrorBody(t, rr); body.Code != "invalid_request" {
		t.Fatalf("expected invalid_request, got %q", body.Code)
	}

	rr = doJSON(t, server, http.MethodPost, "/v1/escrow/transactions/"+transactionID+"/reject", "client-1", "",
		`{"reason":"work not performed"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	var rejected escrowhttp.RejectReleaseResponse
	if err := json.NewDecoder(rr.Body).Decode(&rejected); err != nil {
		t.Fatalf("decode reject response: %v", err)
	}
	if rejected.Item.Status != string(entities.TransactionStatusRejected) {
		t.Fatalf("expected rejected, got %s", rejected.Item.Status)
	}
}

func TestEscrowCloseRequiresAdminRole(t *testing.T) {
	server := newTestServer()
	agreementID, _ := setupPendingRelease(t, server)

	rr := doJSON(t, server, http.MethodPost, "/v1/escrow/agreements/"+agreementID+"/close", "client-1", "",
		`{"status":"cancelled","reason":"project abandoned"}`)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d body=%s", rr.Code, rr.Body.String())
	}

	rr = doJSON(t, server, http.MethodPost, "/v1/escrow/agreements/"+agreementID+"/close", "ops-1", "admin",
		`{"status":"cancelled","reason":"project abandoned"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("admin close: expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestEscrowUnknownTransactionMapsToNotFound(t *testing.T) {
	server := newTestServer()

	rr := doJSON(t, server, http.MethodGet, "/v1/escrow/transactions/txn-missing", "", "", "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d body=%s", rr.Code, rr.Body.String())
	}
	if body := decodeErrorBody(t, rr); body.Code != "not_found" {
		t.Fatalf("expected not_found, got %q", body.Code)
	}
}
