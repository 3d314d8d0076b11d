package queries

import (
	"context"

	"groundwork/contexts/project-delivery/workflow-gate-service/domain/entities"
	domainerrors "groundwork/contexts/project-delivery/workflow-gate-service/domain/errors"
	"groundwork/contexts/project-delivery/workflow-gate-service/domain/services"
	"groundwork/contexts/project-delivery/workflow-gate-service/ports"
)

// The check queries are advisory mirrors of the submit-path gates: same rule
// functions, same fresh reads, no side effects. A blocked verdict is a normal
// result here, not an error.

type CheckPermitGateQuery struct {
	Projects  ports.ProjectReadModel
	Contracts ports.ContractReadModel
	Designs   ports.DesignReadModel
	Readiness ports.ReadinessReadModel
}

func (q CheckPermitGateQuery) Execute(ctx context.Context, projectID string) (entities.Result, error) {
	project, err := q.Projects.GetProjectState(ctx, projectID)
	if err != nil {
		return entities.Result{}, err
	}
	if !project.Found {
		return entities.Result{}, domainerrors.ErrProjectNotFound
	}

	contract, err := q.Contracts.GetLatestContractState(ctx, projectID)
	if err != nil {
		return entities.Result{}, err
	}
	design, err := q.Designs.GetLatestDesignState(ctx, projectID)
	if err != nil {
		return entities.Result{}, err
	}
	readiness, err := q.Readiness.GetReadinessState(ctx, projectID)
	if err != nil {
		return entities.Result{}, err
	}

	return services.EvaluatePermitSubmission(contract, design, readiness), nil
}

type CheckReviewGateQuery struct {
	Projects  ports.ProjectReadModel
	Closeouts ports.CloseoutReadModel
	Payments  ports.PaymentReadModel
}

func (q CheckReviewGateQuery) Execute(ctx context.Context, projectID string) (entities.Result, error) {
	project, err := q.Projects.GetProjectState(ctx, projectID)
	if err != nil {
		return entities.Result{}, err
	}
	if !project.Found {
		return entities.Result{}, domainerrors.ErrProjectNotFound
	}

	closeout, err := q.Closeouts.GetCloseoutState(ctx, projectID)
	if err != nil {
		return entities.Result{}, err
	}
	payment, err := q.Payments.GetFinalPaymentState(ctx, projectID)
	if err != nil {
		return entities.Result{}, err
	}

	return services.EvaluateReviewSubmission(project, closeout, payment), nil
}

type CheckReleaseGateQuery struct {
	Releases ports.ReleaseStateReader
}

func (q CheckReleaseGateQuery) Execute(ctx context.Context, transactionID string) (entities.Result, error) {
	state, err := q.Releases.GetReleaseState(ctx, transactionID)
	if err != nil {
		return entities.Result{}, err
	}
	return services.EvaluateEscrowRelease(state), nil
}

type ListPermitSubmissionsQuery struct {
	Submissions ports.PermitSubmissionRepository
}

func (q ListPermitSubmissionsQuery) Execute(ctx context.Context, projectID string) ([]entities.PermitSubmission, error) {
	return q.Submissions.ListPermitSubmissionsByProject(ctx, projectID)
}

type ListReviewsQuery struct {
	Reviews ports.ReviewRepository
}

func (q ListReviewsQuery) Execute(ctx context.Context, projectID string) ([]entities.Review, error) {
	return q.Reviews.ListReviewsByProject(ctx, projectID)
}
