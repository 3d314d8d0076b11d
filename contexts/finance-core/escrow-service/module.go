package escrowservice

import (
	"log/slog"
	"time"

	httpadapter "groundwork/contexts/finance-core/escrow-service/adapters/http"
	"groundwork/contexts/finance-core/escrow-service/adapters/memory"
	"groundwork/contexts/finance-core/escrow-service/application/commands"
	"groundwork/contexts/finance-core/escrow-service/application/queries"
	"groundwork/contexts/finance-core/escrow-service/domain/entities"
	"groundwork/contexts/finance-core/escrow-service/ports"
	gateentities "groundwork/contexts/project-delivery/workflow-gate-service/domain/entities"
	gateservices "groundwork/contexts/project-delivery/workflow-gate-service/domain/services"
)

// Module is the composition surface for escrow within Groundwork.
// Runtime wiring should consume Handler; Store and Provider are exposed for
// tests/inspection.
type Module struct {
	Handler  httpadapter.Handler
	Store    *memory.Store
	Provider *memory.Provider
}

type Dependencies struct {
	Agreements      ports.AgreementRepository
	Transactions    ports.TransactionRepository
	Receipts        ports.ReceiptRepository
	Milestones      ports.MilestoneRepository
	Idempotency     ports.IdempotencyStore
	Outbox          ports.OutboxWriter
	Gate            ports.ReleaseGate
	Provider        ports.PaymentProvider
	Audit           ports.AuditRecorder
	Clock           ports.Clock
	IDGenerator     ports.IDGenerator
	IdempotencyTTL  time.Duration
	ProviderTimeout time.Duration
	Logger          *slog.Logger
}

// NewModule wires escrow use-cases against explicit ports.
func NewModule(deps Dependencies) Module {
	gate := deps.Gate
	if gate == nil {
		gate = DefaultReleaseGate()
	}

	createAgreement := commands.CreateAgreementUseCase{
		Agreements:  deps.Agreements,
		Outbox:      deps.Outbox,
		Audit:       deps.Audit,
		Clock:       deps.Clock,
		IDGenerator: deps.IDGenerator,
		Logger:      deps.Logger,
	}
	fundAgreement := commands.FundAgreementUseCase{
		Agreements:  deps.Agreements,
		Audit:       deps.Audit,
		Clock:       deps.Clock,
		IDGenerator: deps.IDGenerator,
		Logger:      deps.Logger,
	}
	requestRelease := commands.RequestReleaseUseCase{
		Agreements:     deps.Agreements,
		Transactions:   deps.Transactions,
		Milestones:     deps.Milestones,
		Idempotency:    deps.Idempotency,
		Audit:          deps.Audit,
		Clock:          deps.Clock,
		IDGenerator:    deps.IDGenerator,
		IdempotencyTTL: deps.IdempotencyTTL,
		Logger:         deps.Logger,
	}
	attachReceipt := commands.AttachReceiptUseCase{
		Transactions: deps.Transactions,
		Receipts:     deps.Receipts,
		Audit:        deps.Audit,
		Clock:        deps.Clock,
		IDGenerator:  deps.IDGenerator,
		Logger:       deps.Logger,
	}
	verifyReceipt := commands.VerifyReceiptUseCase{
		Transactions: deps.Transactions,
		Receipts:     deps.Receipts,
		Audit:        deps.Audit,
		Clock:        deps.Clock,
		Logger:       deps.Logger,
	}
	approveRelease := commands.ApproveReleaseUseCase{
		Agreements:      deps.Agreements,
		Transactions:    deps.Transactions,
		Milestones:      deps.Milestones,
		Gate:            gate,
		Provider:        deps.Provider,
		Audit:           deps.Audit,
		Clock:           deps.Clock,
		IDGenerator:     deps.IDGenerator,
		ProviderTimeout: deps.ProviderTimeout,
		Logger:          deps.Logger,
	}
	rejectRelease := commands.RejectReleaseUseCase{
		Agreements:   deps.Agreements,
		Transactions: deps.Transactions,
		Audit:        deps.Audit,
		Clock:        deps.Clock,
		IDGenerator:  deps.IDGenerator,
		Logger:       deps.Logger,
	}
	closeAgreement := commands.CloseAgreementUseCase{
		Agreements: deps.Agreements,
		Audit:      deps.Audit,
		Clock:      deps.Clock,
		Logger:     deps.Logger,
	}
	refundAgreement := commands.RefundAgreementUseCase{
		Agreements:      deps.Agreements,
		Transactions:    deps.Transactions,
		Provider:        deps.Provider,
		Audit:           deps.Audit,
		Clock:           deps.Clock,
		IDGenerator:     deps.IDGenerator,
		ProviderTimeout: deps.ProviderTimeout,
		Logger:          deps.Logger,
	}

	handler := httpadapter.Handler{
		CreateAgreement: createAgreement,
		FundAgreement:   fundAgreement,
		RequestRelease:  requestRelease,
		AttachReceipt:   attachReceipt,
		VerifyReceipt:   verifyReceipt,
		ApproveRelease:  approveRelease,
		RejectRelease:   rejectRelease,
		CloseAgreement:  closeAgreement,
		RefundAgreement: refundAgreement,
		GetAgreement: queries.GetAgreementQuery{
			Agreements:   deps.Agreements,
			Transactions: deps.Transactions,
		},
		ListAgreements: queries.ListAgreementsByProjectQuery{
			Agreements: deps.Agreements,
		},
		GetTransaction: queries.GetTransactionQuery{
			Transactions: deps.Transactions,
			Receipts:     deps.Receipts,
			Gate:         gate,
		},
		ListTransactions: queries.ListTransactionsQuery{
			Transactions: deps.Transactions,
		},
		Logger: deps.Logger,
	}

	return Module{Handler: handler}
}

// NewInMemoryModule wires escrow use cases against in-memory adapters.
// Bootstrap swaps in Postgres and the real payment provider; tests and local
// runs use this path.
func NewInMemoryModule(seedMilestones []entities.Milestone, logger *slog.Logger) Module {
	store := memory.NewStore()
	store.SeedMilestones(seedMilestones)
	provider := memory.NewProvider()

	module := NewModule(Dependencies{
		Agreements:      store,
		Transactions:    store,
		Receipts:        store,
		Milestones:      store,
		Idempotency:     store,
		Outbox:          store,
		Provider:        provider,
		Clock:           store,
		IDGenerator:     store,
		IdempotencyTTL:  7 * 24 * time.Hour,
		ProviderTimeout: 15 * time.Second,
		Logger:          logger,
	})
	module.Store = store
	module.Provider = provider
	return module
}

// DefaultReleaseGate adapts the workflow-gate release rules to the escrow
// gate port. Evaluation is pure; approve passes in the state it just read.
func DefaultReleaseGate() ports.ReleaseGate {
	return ports.ReleaseGateFunc(func(snapshot ports.ReleaseSnapshot) ports.ReleaseGateResult {
		verdict := gateservices.EvaluateEscrowRelease(gateentities.ReleaseState{
			Found:                snapshot.Found,
			Status:               string(snapshot.Status),
			VerificationComplete: snapshot.VerificationComplete,
		})
		reasons := make([]ports.ReleaseGateReason, 0, len(verdict.BlockingReasons))
		for _, reason := range verdict.BlockingReasons {
			reasons = append(reasons, ports.ReleaseGateReason{
				Type:    string(reason.Type),
				Message: reason.Message,
			})
		}
		return ports.ReleaseGateResult{
			Allowed: verdict.Allowed,
			Reasons: reasons,
		}
	})
}
