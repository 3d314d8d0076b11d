package services

import (
	"fmt"

	"groundwork/contexts/project-delivery/workflow-gate-service/domain/entities"
)

// The evaluators below are pure: callers load fresh upstream state through
// read-model ports and pass it in. Every unmet condition is appended, never
// just the first, so remediation can name the full set in one pass.

// EvaluatePermitSubmission gates the permit package handoff on the latest
// contract being fully signed, the latest design version being approved for
// permit, and all required readiness items being completed.
func EvaluatePermitSubmission(
	contract entities.ContractState,
	design entities.DesignState,
	readiness entities.ReadinessState,
) entities.Result {
	reasons := make([]entities.Reason, 0, 3)

	if !contract.Found || contract.Status != entities.ContractStatusFullySigned {
		reasons = append(reasons, entities.Reason{
			Type:    entities.ReasonContractNotSigned,
			Message: "latest contract is not fully signed",
		})
	}
	if !design.Found || design.Status != entities.DesignStatusApprovedForPermit {
		reasons = append(reasons, entities.Reason{
			Type:    entities.ReasonDesignNotApproved,
			Message: "latest design version is not approved for permit",
		})
	}
	if readiness.RequiredCompleted < readiness.RequiredTotal {
		reasons = append(reasons, entities.Reason{
			Type: entities.ReasonReadinessIncomplete,
			Message: fmt.Sprintf(
				"%d of %d required readiness items completed",
				readiness.RequiredCompleted,
				readiness.RequiredTotal,
			),
		})
	}

	return entities.Result{
		Allowed:         len(reasons) == 0,
		BlockingReasons: reasons,
	}
}

// EvaluateReviewSubmission gates client reviews on the project being
// completed, closeout finished, and the final payment released.
func EvaluateReviewSubmission(
	project entities.ProjectState,
	closeout entities.CloseoutState,
	payment entities.PaymentState,
) entities.Result {
	reasons := make([]entities.Reason, 0, 3)

	if !project.Found || project.Status != entities.ProjectStatusCompleted {
		reasons = append(reasons, entities.Reason{
			Type:    entities.ReasonProjectNotCompleted,
			Message: "project is not completed",
		})
	}
	if !closeout.Found || closeout.Status != entities.CloseoutStatusCompleted {
		reasons = append(reasons, entities.Reason{
			Type:    entities.ReasonCloseoutIncomplete,
			Message: "project closeout is not completed",
		})
	}
	if !payment.FinalPaymentReleased {
		reasons = append(reasons, entities.Reason{
			Type:    entities.ReasonFinalPaymentPending,
			Message: "final payment has not been released",
		})
	}

	return entities.Result{
		Allowed:         len(reasons) == 0,
		BlockingReasons: reasons,
	}
}

// EvaluateEscrowRelease gates the escrow payout on the release transaction
// sitting in pending_approval with all attached receipts verified.
func EvaluateEscrowRelease(state entities.ReleaseState) entities.Result {
	if !state.Found {
		return entities.Result{
			BlockingReasons: []entities.Reason{{
				Type:    entities.ReasonTransactionNotFound,
				Message: "release transaction not found",
			}},
		}
	}

	reasons := make([]entities.Reason, 0, 2)
	if state.Status != "pending_approval" {
		reasons = append(reasons, entities.Reason{
			Type:    entities.ReasonTransactionNotPendingApproval,
			Message: fmt.Sprintf("transaction status is %s, not pending_approval", state.Status),
		})
	}
	if !state.VerificationComplete {
		reasons = append(reasons, entities.Reason{
			Type:    entities.ReasonVerificationIncomplete,
			Message: "receipt verification is not complete",
		})
	}

	return entities.Result{
		Allowed:         len(reasons) == 0,
		BlockingReasons: reasons,
	}
}
