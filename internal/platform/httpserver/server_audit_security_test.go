package httpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	auditcommands "groundwork/contexts/internal-ops/audit-trail-service/application/commands"
	audithttp "groundwork/contexts/internal-ops/audit-trail-service/transport/http"
)

func TestAuditEventsRejectsMalformedLimit(t *testing.T) {
	server := newTestServer()

	for _, limit := range []string{"abc", "-2", "1.5"} {
		rr := doJSON(t, server, http.MethodGet, "/v1/audit/events?limit="+limit, "", "", "")
		if rr.Code != http.StatusBadRequest {
			t.Fatalf("limit=%s: expected 400, got %d body=%s", limit, rr.Code, rr.Body.String())
		}
		var body audithttp.ErrorResponse
		if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
			t.Fatalf("decode error body: %v", err)
		}
		if body.Code != "invalid_request" {
			t.Fatalf("limit=%s: expected invalid_request, got %q", limit, body.Code)
		}
	}
}

func TestAuditEventsResourceFilterAndLimit(t *testing.T) {
	server := newTestServer()

	for _, cmd := range []auditcommands.AppendEventCommand{
		{ActorID: "client-1", Action: "escrow.agreement.create", ResourceType: "escrow_agreement", ResourceID: "agr-1"},
		{ActorID: "client-1", Action: "escrow.agreement.fund", ResourceType: "escrow_agreement", ResourceID: "agr-1"},
		{ActorID: "builder-1", Action: "escrow.release.request", ResourceType: "escrow_transaction", ResourceID: "txn-1"},
	} {
		if _, err := server.audit.Append.Execute(context.Background(), cmd); err != nil {
			t.Fatalf("append %s: %v", cmd.Action, err)
		}
	}

	rr := doJSON(t, server, http.MethodGet, "/v1/audit/events?resource_type=escrow_agreement&resource_id=agr-1", "", "", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	var scoped audithttp.ListEventsResponse
	if err := json.NewDecoder(rr.Body).Decode(&scoped); err != nil {
		t.Fatalf("decode list response: %v", err)
	}
	if len(scoped.Items) != 2 {
		t.Fatalf("expected 2 agreement events, got %d", len(scoped.Items))
	}

	rr = doJSON(t, server, http.MethodGet, "/v1/audit/events?limit=1", "", "", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	var limited audithttp.ListEventsResponse
	if err := json.NewDecoder(rr.Body).Decode(&limited); err != nil {
		t.Fatalf("decode list response: %v", err)
	}
	if len(limited.Items) != 1 {
		t.Fatalf("expected 1 event with limit=1, got %d", len(limited.Items))
	}
}
