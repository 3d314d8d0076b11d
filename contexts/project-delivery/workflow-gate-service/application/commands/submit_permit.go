package commands

import (
	"context"
	"log/slog"

	application "groundwork/contexts/project-delivery/workflow-gate-service/application"
	"groundwork/contexts/project-delivery/workflow-gate-service/domain/entities"
	domainerrors "groundwork/contexts/project-delivery/workflow-gate-service/domain/errors"
	"groundwork/contexts/project-delivery/workflow-gate-service/domain/services"
	"groundwork/contexts/project-delivery/workflow-gate-service/ports"
)

const permitSubmittedEventType = "workflow.permit.submitted"

type SubmitPermitCommand struct {
	ProjectID string
	ActorID   string
}

type SubmitPermitResult struct {
	Submission entities.PermitSubmission
}

// SubmitPermitUseCase records a permit package handoff. The gate runs on
// every call with fresh upstream state; a blocked verdict carries the full
// reasons list. SkipEnforcement is an operational escape hatch that logs
// the verdict but submits anyway.
type SubmitPermitUseCase struct {
	Projects        ports.ProjectReadModel
	Contracts       ports.ContractReadModel
	Designs         ports.DesignReadModel
	Readiness       ports.ReadinessReadModel
	Submissions     ports.PermitSubmissionRepository
	Audit           ports.AuditRecorder
	Clock           ports.Clock
	IDGenerator     ports.IDGenerator
	SkipEnforcement bool
	Logger          *slog.Logger
}

func (u SubmitPermitUseCase) Execute(ctx context.Context, cmd SubmitPermitCommand) (SubmitPermitResult, error) {
	logger := application.ResolveLogger(u.Logger)

	project, err := u.Projects.GetProjectState(ctx, cmd.ProjectID)
	if err != nil {
		return SubmitPermitResult{}, err
	}
	if !project.Found {
		return SubmitPermitResult{}, domainerrors.ErrProjectNotFound
	}

	contract, err := u.Contracts.GetLatestContractState(ctx, cmd.ProjectID)
	if err != nil {
		return SubmitPermitResult{}, err
	}
	design, err := u.Designs.GetLatestDesignState(ctx, cmd.ProjectID)
	if err != nil {
		return SubmitPermitResult{}, err
	}
	readiness, err := u.Readiness.GetReadinessState(ctx, cmd.ProjectID)
	if err != nil {
		return SubmitPermitResult{}, err
	}

	verdict := services.EvaluatePermitSubmission(contract, design, readiness)
	if !verdict.Allowed {
		if !u.SkipEnforcement {
			logger.Info("permit submission blocked",
				"event", "permit_submission_blocked",
				"module", moduleName,
				"layer", "application",
				"project_id", cmd.ProjectID,
				"reasons", len(verdict.BlockingReasons),
			)
			return SubmitPermitResult{}, blockedFromResult(verdict)
		}
		logger.Warn("permit gate enforcement skipped",
			"event", "permit_gate_enforcement_skipped",
			"module", moduleName,
			"layer", "application",
			"project_id", cmd.ProjectID,
			"reasons", len(verdict.BlockingReasons),
		)
	}

	submissionID, err := u.IDGenerator.NewID(ctx)
	if err != nil {
		return SubmitPermitResult{}, err
	}
	now := u.Clock.Now().UTC()

	submission, err := entities.NewPermitSubmission(submissionID, cmd.ProjectID, cmd.ActorID, now)
	if err != nil {
		return SubmitPermitResult{}, err
	}

	eventID, err := u.IDGenerator.NewID(ctx)
	if err != nil {
		return SubmitPermitResult{}, err
	}
	envelope, err := buildEnvelope(eventID, permitSubmittedEventType, "project_id", cmd.ProjectID, now, map[string]any{
		"submission_id": submission.SubmissionID,
		"project_id":    submission.ProjectID,
		"submitted_by":  submission.SubmittedBy,
	})
	if err != nil {
		return SubmitPermitResult{}, err
	}

	if err := u.Submissions.CreatePermitSubmission(ctx, submission, envelope); err != nil {
		return SubmitPermitResult{}, err
	}

	logger.Info("permit submitted",
		"event", "permit_submitted",
		"module", moduleName,
		"layer", "application",
		"submission_id", submission.SubmissionID,
		"project_id", submission.ProjectID,
	)
	recordAudit(ctx, logger, u.Audit, ports.AuditEntry{
		ActorID:      cmd.ActorID,
		Action:       "workflow.permit.submitted",
		ResourceType: "permit_submission",
		ResourceID:   submission.SubmissionID,
		Detail: map[string]string{
			"project_id": submission.ProjectID,
		},
		OccurredAt: now,
	})

	return SubmitPermitResult{Submission: submission}, nil
}
