package workflowgateservice_test

import (
	"context"
	"errors"
	"testing"

	workflowgateservice "groundwork/contexts/project-delivery/workflow-gate-service"
	"groundwork/contexts/project-delivery/workflow-gate-service/adapters/memory"
	"groundwork/contexts/project-delivery/workflow-gate-service/domain/entities"
	domainerrors "groundwork/contexts/project-delivery/workflow-gate-service/domain/errors"
	httptransport "groundwork/contexts/project-delivery/workflow-gate-service/transport/http"
)

func seedPermitReadyProject(module workflowgateservice.Module, projectID string) {
	module.Store.SeedProject(projectID, entities.ProjectState{Found: true, Status: "in_progress"})
	module.Store.SeedContract(projectID, entities.ContractState{Found: true, Status: entities.ContractStatusFullySigned})
	module.Store.SeedDesign(projectID, entities.DesignState{Found: true, Status: entities.DesignStatusApprovedForPermit})
	module.Store.SeedReadiness(projectID, entities.ReadinessState{RequiredTotal: 4, RequiredCompleted: 4})
}

func seedReviewReadyProject(module workflowgateservice.Module, projectID string) {
	module.Store.SeedProject(projectID, entities.ProjectState{Found: true, Status: entities.ProjectStatusCompleted})
	module.Store.SeedCloseout(projectID, entities.CloseoutState{Found: true, Status: entities.CloseoutStatusCompleted})
	module.Store.SeedPayment(projectID, entities.PaymentState{FinalPaymentReleased: true})
}

func TestCheckPermitGateAccumulatesReasons(t *testing.T) {
	module := workflowgateservice.NewInMemoryModule(nil)
	module.Store.SeedProject("proj-1", entities.ProjectState{Found: true, Status: "in_progress"})
	module.Store.SeedReadiness("proj-1", entities.ReadinessState{RequiredTotal: 4, RequiredCompleted: 2})

	resp, err := module.Handler.CheckPermitGateHandler(context.Background(), "proj-1")
	if err != nil {
		t.Fatalf("check permit gate: %v", err)
	}
	if resp.Allowed {
		t.Fatalf("gate must block with unmet preconditions")
	}

	types := map[string]bool{}
	for _, reason := range resp.BlockingReasons {
		types[reason.Type] = true
	}
	if !types[string(entities.ReasonContractNotSigned)] ||
		!types[string(entities.ReasonDesignNotApproved)] ||
		!types[string(entities.ReasonReadinessIncomplete)] {
		t.Fatalf("expected every unmet precondition reported, got %v", resp.BlockingReasons)
	}
}

func TestSubmitPermitBlockedAndAllowed(t *testing.T) {
	module := workflowgateservice.NewInMemoryModule(nil)
	module.Store.SeedProject("proj-1", entities.ProjectState{Found: true, Status: "in_progress"})

	_, err := module.Handler.SubmitPermitHandler(context.Background(), "owner-1", "proj-1")
	if !errors.Is(err, domainerrors.ErrPreconditionBlocked) {
		t.Fatalf("expected blocked submission, got %v", err)
	}
	var blocked *domainerrors.BlockedError
	if !errors.As(err, &blocked) || len(blocked.Reasons) == 0 {
		t.Fatalf("blocked submission must carry reasons, got %v", err)
	}

	seedPermitReadyProject(module, "proj-1")
	resp, err := module.Handler.SubmitPermitHandler(context.Background(), "owner-1", "proj-1")
	if err != nil {
		t.Fatalf("submit permit: %v", err)
	}
	if resp.Item.Status != "submitted" {
		t.Fatalf("expected submitted status, got %s", resp.Item.Status)
	}

	list, err := module.Handler.ListPermitSubmissionsHandler(context.Background(), "proj-1")
	if err != nil {
		t.Fatalf("list submissions: %v", err)
	}
	if len(list.Items) != 1 || list.Items[0].SubmissionID != resp.Item.SubmissionID {
		t.Fatalf("expected the submission listed, got %+v", list.Items)
	}
}

func TestSubmitPermitUnknownProject(t *testing.T) {
	module := workflowgateservice.NewInMemoryModule(nil)

	_, err := module.Handler.SubmitPermitHandler(context.Background(), "owner-1", "proj-missing")
	if !errors.Is(err, domainerrors.ErrProjectNotFound) {
		t.Fatalf("expected project not found, got %v", err)
	}
}

func TestSubmitReviewGateAndDuplicate(t *testing.T) {
	module := workflowgateservice.NewInMemoryModule(nil)
	module.Store.SeedProject("proj-1", entities.ProjectState{Found: true, Status: "in_progress"})

	_, err := module.Handler.SubmitReviewHandler(context.Background(), "owner-1", "proj-1", httptransport.SubmitReviewRequest{Rating: 5})
	if !errors.Is(err, domainerrors.ErrPreconditionBlocked) {
		t.Fatalf("review before completion must be blocked, got %v", err)
	}
	var blocked *domainerrors.BlockedError
	if !errors.As(err, &blocked) {
		t.Fatalf("expected BlockedError, got %T", err)
	}
	types := map[string]bool{}
	for _, reason := range blocked.Reasons {
		types[reason.Type] = true
	}
	if !types[string(entities.ReasonProjectNotCompleted)] ||
		!types[string(entities.ReasonCloseoutIncomplete)] ||
		!types[string(entities.ReasonFinalPaymentPending)] {
		t.Fatalf("expected all review gate reasons, got %v", blocked.Reasons)
	}

	seedReviewReadyProject(module, "proj-1")
	resp, err := module.Handler.SubmitReviewHandler(context.Background(), "owner-1", "proj-1", httptransport.SubmitReviewRequest{
		Rating:  4,
		Comment: "solid work",
	})
	if err != nil {
		t.Fatalf("submit review: %v", err)
	}
	if resp.Item.Rating != 4 {
		t.Fatalf("expected rating 4, got %d", resp.Item.Rating)
	}

	_, err = module.Handler.SubmitReviewHandler(context.Background(), "owner-1", "proj-1", httptransport.SubmitReviewRequest{Rating: 2})
	if !errors.Is(err, domainerrors.ErrDuplicateReview) {
		t.Fatalf("expected duplicate review, got %v", err)
	}
}

func TestSubmitReviewRatingValidation(t *testing.T) {
	module := workflowgateservice.NewInMemoryModule(nil)
	seedReviewReadyProject(module, "proj-1")
	module.Store.SeedProject("proj-1", entities.ProjectState{Found: true, Status: entities.ProjectStatusCompleted})

	for _, rating := range []int{0, 6, -1} {
		_, err := module.Handler.SubmitReviewHandler(context.Background(), "owner-1", "proj-1", httptransport.SubmitReviewRequest{Rating: rating})
		if !errors.Is(err, domainerrors.ErrInvalidInput) {
			t.Fatalf("rating %d should be invalid, got %v", rating, err)
		}
	}
}

func TestCheckReleaseGate(t *testing.T) {
	module := workflowgateservice.NewInMemoryModule(nil)

	missing, err := module.Handler.CheckReleaseGateHandler(context.Background(), "txn-missing")
	if err != nil {
		t.Fatalf("check release gate: %v", err)
	}
	if missing.Allowed {
		t.Fatalf("unknown transaction must be blocked")
	}
	foundNotFound := false
	for _, reason := range missing.BlockingReasons {
		if reason.Type == string(entities.ReasonTransactionNotFound) {
			foundNotFound = true
		}
	}
	if !foundNotFound {
		t.Fatalf("expected transaction_not_found, got %v", missing.BlockingReasons)
	}

	module.Store.SeedRelease("txn-1", entities.ReleaseState{
		Found:                true,
		Status:               "verification_required",
		VerificationComplete: false,
	})
	blocked, err := module.Handler.CheckReleaseGateHandler(context.Background(), "txn-1")
	if err != nil {
		t.Fatalf("check release gate: %v", err)
	}
	if blocked.Allowed || len(blocked.BlockingReasons) != 2 {
		t.Fatalf("expected verification and status reasons, got %+v", blocked)
	}

	module.Store.SeedRelease("txn-2", entities.ReleaseState{
		Found:                true,
		Status:               "pending_approval",
		VerificationComplete: true,
	})
	allowed, err := module.Handler.CheckReleaseGateHandler(context.Background(), "txn-2")
	if err != nil {
		t.Fatalf("check release gate: %v", err)
	}
	if !allowed.Allowed || len(allowed.BlockingReasons) != 0 {
		t.Fatalf("expected allowed gate, got %+v", allowed)
	}
}

func TestSkipEnforcementRecordsSubmissionDespiteBlockedGate(t *testing.T) {
	store := memory.NewStore()
	module := workflowgateservice.NewModule(workflowgateservice.Dependencies{
		Projects:              store,
		Contracts:             store,
		Designs:               store,
		Readiness:             store,
		Closeouts:             store,
		Payments:              store,
		Releases:              store,
		Submissions:           store,
		Reviews:               store,
		Clock:                 store,
		IDGenerator:           store,
		SkipPermitEnforcement: true,
	})
	module.Store = store
	store.SeedProject("proj-1", entities.ProjectState{Found: true, Status: "in_progress"})

	resp, err := module.Handler.SubmitPermitHandler(context.Background(), "owner-1", "proj-1")
	if err != nil {
		t.Fatalf("skip-enforcement submit should succeed: %v", err)
	}
	if resp.Item.Status != "submitted" {
		t.Fatalf("expected submitted status, got %s", resp.Item.Status)
	}
}
