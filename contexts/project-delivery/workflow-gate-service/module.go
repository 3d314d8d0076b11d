package workflowgateservice

import (
	"log/slog"

	httpadapter "groundwork/contexts/project-delivery/workflow-gate-service/adapters/http"
	"groundwork/contexts/project-delivery/workflow-gate-service/adapters/memory"
	"groundwork/contexts/project-delivery/workflow-gate-service/application/commands"
	"groundwork/contexts/project-delivery/workflow-gate-service/application/queries"
	"groundwork/contexts/project-delivery/workflow-gate-service/ports"
)

// Module is the composition surface for the workflow gates within Groundwork.
// Runtime wiring should consume Handler; Store is exposed for tests/seeding.
type Module struct {
	Handler httpadapter.Handler
	Store   *memory.Store
}

type Dependencies struct {
	Projects              ports.ProjectReadModel
	Contracts             ports.ContractReadModel
	Designs               ports.DesignReadModel
	Readiness             ports.ReadinessReadModel
	Closeouts             ports.CloseoutReadModel
	Payments              ports.PaymentReadModel
	Releases              ports.ReleaseStateReader
	Submissions           ports.PermitSubmissionRepository
	Reviews               ports.ReviewRepository
	Audit                 ports.AuditRecorder
	Clock                 ports.Clock
	IDGenerator           ports.IDGenerator
	SkipPermitEnforcement bool
	SkipReviewEnforcement bool
	Logger                *slog.Logger
}

// NewModule wires gate use-cases against explicit ports.
func NewModule(deps Dependencies) Module {
	handler := httpadapter.Handler{
		SubmitPermit: commands.SubmitPermitUseCase{
			Projects:        deps.Projects,
			Contracts:       deps.Contracts,
			Designs:         deps.Designs,
			Readiness:       deps.Readiness,
			Submissions:     deps.Submissions,
			Audit:           deps.Audit,
			Clock:           deps.Clock,
			IDGenerator:     deps.IDGenerator,
			SkipEnforcement: deps.SkipPermitEnforcement,
			Logger:          deps.Logger,
		},
		SubmitReview: commands.SubmitReviewUseCase{
			Projects:        deps.Projects,
			Closeouts:       deps.Closeouts,
			Payments:        deps.Payments,
			Reviews:         deps.Reviews,
			Audit:           deps.Audit,
			Clock:           deps.Clock,
			IDGenerator:     deps.IDGenerator,
			SkipEnforcement: deps.SkipReviewEnforcement,
			Logger:          deps.Logger,
		},
		CheckPermitGate: queries.CheckPermitGateQuery{
			Projects:  deps.Projects,
			Contracts: deps.Contracts,
			Designs:   deps.Designs,
			Readiness: deps.Readiness,
		},
		CheckReviewGate: queries.CheckReviewGateQuery{
			Projects:  deps.Projects,
			Closeouts: deps.Closeouts,
			Payments:  deps.Payments,
		},
		CheckReleaseGate: queries.CheckReleaseGateQuery{
			Releases: deps.Releases,
		},
		ListPermitSubmissions: queries.ListPermitSubmissionsQuery{
			Submissions: deps.Submissions,
		},
		ListReviews: queries.ListReviewsQuery{
			Reviews: deps.Reviews,
		},
		Logger: deps.Logger,
	}

	return Module{Handler: handler}
}

// NewInMemoryModule wires gate use cases against the in-memory store. Tests
// seed upstream state through Module.Store.
func NewInMemoryModule(logger *slog.Logger) Module {
	store := memory.NewStore()
	module := NewModule(Dependencies{
		Projects:    store,
		Contracts:   store,
		Designs:     store,
		Readiness:   store,
		Closeouts:   store,
		Payments:    store,
		Releases:    store,
		Submissions: store,
		Reviews:     store,
		Clock:       store,
		IDGenerator: store,
		Logger:      logger,
	})
	module.Store = store
	return module
}
