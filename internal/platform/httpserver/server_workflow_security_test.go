package httpserver

import (
	"encoding/json"
	"net/http"
	"testing"

	"groundwork/contexts/project-delivery/workflow-gate-service/domain/entities"
	workflowhttp "groundwork/contexts/project-delivery/workflow-gate-service/transport/http"
)

func TestWorkflowSubmitRoutesRequireUserHeader(t *testing.T) {
	server := newTestServer()

	for _, path := range []string{
		"/v1/projects/proj-1/permit-submissions",
		"/v1/projects/proj-1/reviews",
	} {
		rr := doJSON(t, server, http.MethodPost, path, "", "", `{}`)
		if rr.Code != http.StatusUnauthorized {
			t.Fatalf("POST %s: expected 401, got %d body=%s", path, rr.Code, rr.Body.String())
		}
		var body workflowhttp.ErrorResponse
		if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
			t.Fatalf("decode error body: %v", err)
		}
		if body.Code != "missing_user" {
			t.Fatalf("POST %s: expected missing_user, got %q", path, body.Code)
		}
	}
}

func TestWorkflowUnknownProjectMapsToNotFound(t *testing.T) {
	server := newTestServer()

	rr := doJSON(t, server, http.MethodGet, "/v1/projects/proj-missing/gates/permit", "", "", "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("gate check: expected 404, got %d body=%s", rr.Code, rr.Body.String())
	}

	rr = doJSON(t, server, http.MethodPost, "/v1/projects/proj-missing/permit-submissions", "owner-1", "", `{}`)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("submit: expected 404, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestWorkflowBlockedSubmitResponseCarriesReasons(t *testing.T) {
	server := newTestServer()
	server.workflow.Store.SeedProject("proj-1", entities.ProjectState{Found: true, Status: "in_progress"})

	rr := doJSON(t, server, http.MethodPost, "/v1/projects/proj-1/permit-submissions", "owner-1", "", `{}`)
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d body=%s", rr.Code, rr.Body.String())
	}
	var body workflowhttp.ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if body.Code != "precondition_blocked" {
		t.Fatalf("expected precondition_blocked, got %q", body.Code)
	}
	if len(body.Reasons) == 0 {
		t.Fatal("expected blocking reasons in the response body")
	}
}

func TestWorkflowReviewRatingValidation(t *testing.T) {
	server := newTestServer()
	server.workflow.Store.SeedProject("proj-1", entities.ProjectState{Found: true, Status: entities.ProjectStatusCompleted})
	server.workflow.Store.SeedCloseout("proj-1", entities.CloseoutState{Found: true, Status: entities.CloseoutStatusCompleted})
	server.workflow.Store.SeedPayment("proj-1", entities.PaymentState{FinalPaymentReleased: true})

	rr := doJSON(t, server, http.MethodPost, "/v1/projects/proj-1/reviews", "client-1", "", `{"rating":9}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d body=%s", rr.Code, rr.Body.String())
	}

	rr = doJSON(t, server, http.MethodPost, "/v1/projects/proj-1/reviews", "client-1", "", `{"rating":5,"comment":"solid work"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d body=%s", rr.Code, rr.Body.String())
	}
}
