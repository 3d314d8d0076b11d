package commands

import (
	"context"
	"log/slog"
	"strconv"

	application "groundwork/contexts/project-delivery/workflow-gate-service/application"
	"groundwork/contexts/project-delivery/workflow-gate-service/domain/entities"
	domainerrors "groundwork/contexts/project-delivery/workflow-gate-service/domain/errors"
	"groundwork/contexts/project-delivery/workflow-gate-service/domain/services"
	"groundwork/contexts/project-delivery/workflow-gate-service/ports"
)

const reviewSubmittedEventType = "workflow.review.submitted"

type SubmitReviewCommand struct {
	ProjectID string
	ActorID   string
	Rating    int
	Comment   string
}

type SubmitReviewResult struct {
	Review entities.Review
}

// SubmitReviewUseCase records a client review once the project is fully
// closed out and paid. One review per reviewer per project.
type SubmitReviewUseCase struct {
	Projects        ports.ProjectReadModel
	Closeouts       ports.CloseoutReadModel
	Payments        ports.PaymentReadModel
	Reviews         ports.ReviewRepository
	Audit           ports.AuditRecorder
	Clock           ports.Clock
	IDGenerator     ports.IDGenerator
	SkipEnforcement bool
	Logger          *slog.Logger
}

func (u SubmitReviewUseCase) Execute(ctx context.Context, cmd SubmitReviewCommand) (SubmitReviewResult, error) {
	logger := application.ResolveLogger(u.Logger)

	project, err := u.Projects.GetProjectState(ctx, cmd.ProjectID)
	if err != nil {
		return SubmitReviewResult{}, err
	}
	if !project.Found {
		return SubmitReviewResult{}, domainerrors.ErrProjectNotFound
	}

	closeout, err := u.Closeouts.GetCloseoutState(ctx, cmd.ProjectID)
	if err != nil {
		return SubmitReviewResult{}, err
	}
	payment, err := u.Payments.GetFinalPaymentState(ctx, cmd.ProjectID)
	if err != nil {
		return SubmitReviewResult{}, err
	}

	verdict := services.EvaluateReviewSubmission(project, closeout, payment)
	if !verdict.Allowed && !u.SkipEnforcement {
		logger.Info("review submission blocked",
			"event", "review_submission_blocked",
			"module", moduleName,
			"layer", "application",
			"project_id", cmd.ProjectID,
			"reasons", len(verdict.BlockingReasons),
		)
		return SubmitReviewResult{}, blockedFromResult(verdict)
	}

	exists, err := u.Reviews.HasReviewByReviewer(ctx, cmd.ProjectID, cmd.ActorID)
	if err != nil {
		return SubmitReviewResult{}, err
	}
	if exists {
		return SubmitReviewResult{}, domainerrors.ErrDuplicateReview
	}

	reviewID, err := u.IDGenerator.NewID(ctx)
	if err != nil {
		return SubmitReviewResult{}, err
	}
	now := u.Clock.Now().UTC()

	review, err := entities.NewReview(reviewID, cmd.ProjectID, cmd.ActorID, cmd.Rating, cmd.Comment, now)
	if err != nil {
		return SubmitReviewResult{}, err
	}

	eventID, err := u.IDGenerator.NewID(ctx)
	if err != nil {
		return SubmitReviewResult{}, err
	}
	envelope, err := buildEnvelope(eventID, reviewSubmittedEventType, "project_id", cmd.ProjectID, now, map[string]any{
		"review_id":   review.ReviewID,
		"project_id":  review.ProjectID,
		"reviewer_id": review.ReviewerID,
		"rating":      review.Rating,
	})
	if err != nil {
		return SubmitReviewResult{}, err
	}

	if err := u.Reviews.CreateReview(ctx, review, envelope); err != nil {
		return SubmitReviewResult{}, err
	}

	logger.Info("review submitted",
		"event", "review_submitted",
		"module", moduleName,
		"layer", "application",
		"review_id", review.ReviewID,
		"project_id", review.ProjectID,
	)
	recordAudit(ctx, logger, u.Audit, ports.AuditEntry{
		ActorID:      cmd.ActorID,
		Action:       "workflow.review.submitted",
		ResourceType: "review",
		ResourceID:   review.ReviewID,
		Detail: map[string]string{
			"project_id": review.ProjectID,
			"rating":     strconv.Itoa(review.Rating),
		},
		OccurredAt: now,
	})

	return SubmitReviewResult{Review: review}, nil
}
