package httpadapter

import (
	"context"
	"log/slog"
	"time"

	application "groundwork/contexts/project-delivery/workflow-gate-service/application"
	"groundwork/contexts/project-delivery/workflow-gate-service/application/commands"
	"groundwork/contexts/project-delivery/workflow-gate-service/application/queries"
	"groundwork/contexts/project-delivery/workflow-gate-service/domain/entities"
	httptransport "groundwork/contexts/project-delivery/workflow-gate-service/transport/http"
)

type Handler struct {
	SubmitPermit          commands.SubmitPermitUseCase
	SubmitReview          commands.SubmitReviewUseCase
	CheckPermitGate       queries.CheckPermitGateQuery
	CheckReviewGate       queries.CheckReviewGateQuery
	CheckReleaseGate      queries.CheckReleaseGateQuery
	ListPermitSubmissions queries.ListPermitSubmissionsQuery
	ListReviews           queries.ListReviewsQuery
	Logger                *slog.Logger
}

// CheckPermitGateHandler godoc
// @Summary Check permit submission gate
// @Description Advisory evaluation of the permit gate with every blocking reason.
// @Tags workflow-gates
// @Produce json
// @Security BearerAuth
// @Param X-Request-Id header string true "Request correlation id"
// @Param project_id path string true "Project id"
// @Success 200 {object} httptransport.GateResultResponse
// @Failure 401 {object} httptransport.ErrorResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Router /projects/{project_id}/gates/permit [get]
func (h Handler) CheckPermitGateHandler(ctx context.Context, projectID string) (httptransport.GateResultResponse, error) {
	result, err := h.CheckPermitGate.Execute(ctx, projectID)
	if err != nil {
		return httptransport.GateResultResponse{}, err
	}
	return mapResult(result), nil
}

// CheckReviewGateHandler godoc
// @Summary Check review submission gate
// @Tags workflow-gates
// @Produce json
// @Security BearerAuth
// @Param X-Request-Id header string true "Request correlation id"
// @Param project_id path string true "Project id"
// @Success 200 {object} httptransport.GateResultResponse
// @Failure 401 {object} httptransport.ErrorResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Router /projects/{project_id}/gates/review [get]
func (h Handler) CheckReviewGateHandler(ctx context.Context, projectID string) (httptransport.GateResultResponse, error) {
	result, err := h.CheckReviewGate.Execute(ctx, projectID)
	if err != nil {
		return httptransport.GateResultResponse{}, err
	}
	return mapResult(result), nil
}

// CheckReleaseGateHandler godoc
// @Summary Check escrow release gate
// @Description Advisory evaluation of release preconditions for a transaction.
// @Tags workflow-gates
// @Produce json
// @Security BearerAuth
// @Param X-Request-Id header string true "Request correlation id"
// @Param transaction_id path string true "Escrow transaction id"
// @Success 200 {object} httptransport.GateResultResponse
// @Failure 401 {object} httptransport.ErrorResponse
// @Router /gates/releases/{transaction_id} [get]
func (h Handler) CheckReleaseGateHandler(ctx context.Context, transactionID string) (httptransport.GateResultResponse, error) {
	result, err := h.CheckReleaseGate.Execute(ctx, transactionID)
	if err != nil {
		return httptransport.GateResultResponse{}, err
	}
	return mapResult(result), nil
}

// SubmitPermitHandler godoc
// @Summary Submit permit package
// @Description Authoritative permit submission; re-runs the gate and blocks with the full reasons list.
// @Tags workflow-gates
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param X-Request-Id header string true "Request correlation id"
// @Param project_id path string true "Project id"
// @Success 201 {object} httptransport.SubmitPermitResponse
// @Failure 401 {object} httptransport.ErrorResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Failure 422 {object} httptransport.ErrorResponse
// @Router /projects/{project_id}/permit-submissions [post]
func (h Handler) SubmitPermitHandler(
	ctx context.Context,
	actorID string,
	projectID string,
) (httptransport.SubmitPermitResponse, error) {
	logger := application.ResolveLogger(h.Logger)
	logger.Info("permit submission received",
		"event", "http_submit_permit_received",
		"module", "project-delivery/workflow-gate-service",
		"layer", "transport",
		"project_id", projectID,
	)

	result, err := h.SubmitPermit.Execute(ctx, commands.SubmitPermitCommand{
		ProjectID: projectID,
		ActorID:   actorID,
	})
	if err != nil {
		return httptransport.SubmitPermitResponse{}, err
	}
	return httptransport.SubmitPermitResponse{Item: mapSubmission(result.Submission)}, nil
}

// SubmitReviewHandler godoc
// @Summary Submit project review
// @Tags workflow-gates
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param X-Request-Id header string true "Request correlation id"
// @Param project_id path string true "Project id"
// @Param request body httptransport.SubmitReviewRequest true "Review payload"
// @Success 201 {object} httptransport.SubmitReviewResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 401 {object} httptransport.ErrorResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Failure 409 {object} httptransport.ErrorResponse
// @Failure 422 {object} httptransport.ErrorResponse
// @Router /projects/{project_id}/reviews [post]
func (h Handler) SubmitReviewHandler(
	ctx context.Context,
	actorID string,
	projectID string,
	req httptransport.SubmitReviewRequest,
) (httptransport.SubmitReviewResponse, error) {
	result, err := h.SubmitReview.Execute(ctx, commands.SubmitReviewCommand{
		ProjectID: projectID,
		ActorID:   actorID,
		Rating:    req.Rating,
		Comment:   req.Comment,
	})
	if err != nil {
		return httptransport.SubmitReviewResponse{}, err
	}
	return httptransport.SubmitReviewResponse{Item: mapReview(result.Review)}, nil
}

// ListPermitSubmissionsHandler godoc
// @Summary List permit submissions for a project
// @Tags workflow-gates
// @Produce json
// @Security BearerAuth
// @Param X-Request-Id header string true "Request correlation id"
// @Param project_id path string true "Project id"
// @Success 200 {object} httptransport.ListPermitSubmissionsResponse
// @Failure 401 {object} httptransport.ErrorResponse
// @Router /projects/{project_id}/permit-submissions [get]
func (h Handler) ListPermitSubmissionsHandler(ctx context.Context, projectID string) (httptransport.ListPermitSubmissionsResponse, error) {
	items, err := h.ListPermitSubmissions.Execute(ctx, projectID)
	if err != nil {
		return httptransport.ListPermitSubmissionsResponse{}, err
	}
	out := make([]httptransport.PermitSubmissionDTO, 0, len(items))
	for _, item := range items {
		out = append(out, mapSubmission(item))
	}
	return httptransport.ListPermitSubmissionsResponse{Items: out}, nil
}

// ListReviewsHandler godoc
// @Summary List project reviews
// @Tags workflow-gates
// @Produce json
// @Security BearerAuth
// @Param X-Request-Id header string true "Request correlation id"
// @Param project_id path string true "Project id"
// @Success 200 {object} httptransport.ListReviewsResponse
// @Failure 401 {object} httptransport.ErrorResponse
// @Router /projects/{project_id}/reviews [get]
func (h Handler) ListReviewsHandler(ctx context.Context, projectID string) (httptransport.ListReviewsResponse, error) {
	items, err := h.ListReviews.Execute(ctx, projectID)
	if err != nil {
		return httptransport.ListReviewsResponse{}, err
	}
	out := make([]httptransport.ReviewDTO, 0, len(items))
	for _, item := range items {
		out = append(out, mapReview(item))
	}
	return httptransport.ListReviewsResponse{Items: out}, nil
}

func mapResult(result entities.Result) httptransport.GateResultResponse {
	reasons := make([]httptransport.BlockingReasonDTO, 0, len(result.BlockingReasons))
	for _, reason := range result.BlockingReasons {
		reasons = append(reasons, httptransport.BlockingReasonDTO{
			Type:    string(reason.Type),
			Message: reason.Message,
		})
	}
	return httptransport.GateResultResponse{
		Allowed:         result.Allowed,
		BlockingReasons: reasons,
	}
}

func mapSubmission(submission entities.PermitSubmission) httptransport.PermitSubmissionDTO {
	return httptransport.PermitSubmissionDTO{
		SubmissionID: submission.SubmissionID,
		ProjectID:    submission.ProjectID,
		SubmittedBy:  submission.SubmittedBy,
		Status:       string(submission.Status),
		SubmittedAt:  submission.SubmittedAt.UTC().Format(time.RFC3339),
	}
}

func mapReview(review entities.Review) httptransport.ReviewDTO {
	return httptransport.ReviewDTO{
		ReviewID:   review.ReviewID,
		ProjectID:  review.ProjectID,
		ReviewerID: review.ReviewerID,
		Rating:     review.Rating,
		Comment:    review.Comment,
		CreatedAt:  review.CreatedAt.UTC().Format(time.RFC3339),
	}
}
