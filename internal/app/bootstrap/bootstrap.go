package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	escrowservice "groundwork/contexts/finance-core/escrow-service"
	escrowmemory "groundwork/contexts/finance-core/escrow-service/adapters/memory"
	escrowpostgres "groundwork/contexts/finance-core/escrow-service/adapters/postgres"
	escrowworkers "groundwork/contexts/finance-core/escrow-service/application/workers"
	escrowerrors "groundwork/contexts/finance-core/escrow-service/domain/errors"
	escrowservices "groundwork/contexts/finance-core/escrow-service/domain/services"
	escrowports "groundwork/contexts/finance-core/escrow-service/ports"
	audittrailservice "groundwork/contexts/internal-ops/audit-trail-service"
	auditpostgres "groundwork/contexts/internal-ops/audit-trail-service/adapters/postgres"
	auditcommands "groundwork/contexts/internal-ops/audit-trail-service/application/commands"
	workflowgateservice "groundwork/contexts/project-delivery/workflow-gate-service"
	workflowpostgres "groundwork/contexts/project-delivery/workflow-gate-service/adapters/postgres"
	workflowworkers "groundwork/contexts/project-delivery/workflow-gate-service/application/workers"
	workflowentities "groundwork/contexts/project-delivery/workflow-gate-service/domain/entities"
	workflowports "groundwork/contexts/project-delivery/workflow-gate-service/ports"
	"groundwork/internal/platform/config"
	"groundwork/internal/platform/db"
	"groundwork/internal/platform/httpserver"
	"groundwork/internal/platform/messaging"
)

// Package bootstrap is the composition root.
// Keep construction/wiring here so module code stays framework-agnostic.

type APIApp struct {
	server   *httpserver.Server
	postgres *db.Postgres
	logger   *slog.Logger
}

type WorkerApp struct {
	postgres      *db.Postgres
	escrowRelay   escrowworkers.OutboxRelay
	workflowRelay workflowworkers.OutboxRelay
	runEscrow     bool
	runWorkflow   bool
	pollInterval  time.Duration
	logger        *slog.Logger
}

func BuildAPI() (*APIApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "api")
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}

	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}

	escrowRepo := escrowpostgres.NewRepository(pg.DB, logger)
	workflowRepo := workflowpostgres.NewRepository(pg.DB, logger)
	auditRepo := auditpostgres.NewRepository(pg.DB, logger)

	auditModule := audittrailservice.NewModule(audittrailservice.Dependencies{
		Events:      auditRepo,
		Clock:       auditpostgres.SystemClock{},
		IDGenerator: auditpostgres.UUIDGenerator{},
		Logger:      logger,
	})

	var escrowOutbox escrowports.OutboxWriter = escrowRepo
	if cfg.DisableEscrowEventEmission {
		escrowOutbox = nil
	}

	escrowModule := escrowservice.NewModule(escrowservice.Dependencies{
		Agreements:      escrowRepo,
		Transactions:    escrowRepo,
		Receipts:        escrowRepo,
		Milestones:      escrowRepo,
		Idempotency:     escrowRepo,
		Outbox:          escrowOutbox,
		Provider:        escrowmemory.NewProvider(),
		Audit:           escrowAuditRecorder(auditModule.Append),
		Clock:           escrowpostgres.SystemClock{},
		IDGenerator:     escrowpostgres.UUIDGenerator{},
		IdempotencyTTL:  7 * 24 * time.Hour,
		ProviderTimeout: cfg.ProviderTimeout,
		Logger:          logger,
	})

	workflowModule := workflowgateservice.NewModule(workflowgateservice.Dependencies{
		Projects:  workflowRepo,
		Contracts: workflowRepo,
		Designs:   workflowRepo,
		Readiness: workflowRepo,
		Closeouts: workflowRepo,
		Payments:  workflowRepo,
		Releases: releaseStateReader{
			transactions: escrowRepo,
			receipts:     escrowRepo,
		},
		Submissions:           workflowRepo,
		Reviews:               workflowRepo,
		Audit:                 workflowAuditRecorder(auditModule.Append),
		Clock:                 workflowpostgres.SystemClock{},
		IDGenerator:           workflowpostgres.UUIDGenerator{},
		SkipPermitEnforcement: !cfg.EnablePermitGateEnforcement,
		SkipReviewEnforcement: !cfg.EnableReviewGateEnforcement,
		Logger:                logger,
	})

	server := httpserver.New(escrowModule, workflowModule, auditModule, pg, logger, normalizeAddr(cfg.HTTPPort))
	return &APIApp{
		server:   server,
		postgres: pg,
		logger:   logger,
	}, nil
}

func BuildWorker() (*WorkerApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "worker")
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}

	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}

	kafka, err := messaging.NewKafka(cfg.KafkaBrokers, logger)
	if err != nil {
		return nil, err
	}

	escrowRepo := escrowpostgres.NewRepository(pg.DB, logger)
	workflowRepo := workflowpostgres.NewRepository(pg.DB, logger)

	return &WorkerApp{
		postgres: pg,
		escrowRelay: escrowworkers.OutboxRelay{
			Outbox:    escrowRepo,
			Publisher: kafka,
			Clock:     escrowpostgres.SystemClock{},
			Topic:     "escrow.events",
			BatchSize: 100,
			Logger:    logger,
		},
		workflowRelay: workflowworkers.OutboxRelay{
			Outbox:    workflowRepo,
			Publisher: kafka,
			Clock:     workflowpostgres.SystemClock{},
			Topic:     "workflow.events",
			BatchSize: 100,
			Logger:    logger,
		},
		runEscrow:    cfg.EnableEscrowOutboxRelay,
		runWorkflow:  cfg.EnableWorkflowOutboxRelay,
		pollInterval: cfg.OutboxPollInterval,
		logger:       logger,
	}, nil
}

func (a *APIApp) Run(_ context.Context) error {
	if a.logger != nil {
		a.logger.Info("api app started",
			"event", "bootstrap_api_started",
			"module", "internal/app/bootstrap",
			"layer", "platform",
		)
	}
	return a.server.Start()
}

func (a *APIApp) Close() error {
	if a.postgres != nil {
		return a.postgres.Close()
	}
	return nil
}

func (w *WorkerApp) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	w.logger.Info("worker app started",
		"event", "bootstrap_worker_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"poll_interval", w.pollInterval.String(),
		"escrow_relay", w.runEscrow,
		"workflow_relay", w.runWorkflow,
	)

	for {
		if w.runEscrow {
			if err := w.escrowRelay.RunOnce(ctx); err != nil {
				return err
			}
		}
		if w.runWorkflow {
			if err := w.workflowRelay.RunOnce(ctx); err != nil {
				return err
			}
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (w *WorkerApp) Close() error {
	if w.postgres != nil {
		return w.postgres.Close()
	}
	return nil
}

// releaseStateReader projects escrow transaction state into the snapshot the
// workflow gate evaluates. A missing transaction is reported as Found=false,
// not as an error.
type releaseStateReader struct {
	transactions escrowports.TransactionRepository
	receipts     escrowports.ReceiptRepository
}

func (r releaseStateReader) GetReleaseState(ctx context.Context, transactionID string) (workflowentities.ReleaseState, error) {
	txn, err := r.transactions.GetTransaction(ctx, transactionID)
	if err != nil {
		if errors.Is(err, escrowerrors.ErrTransactionNotFound) {
			return workflowentities.ReleaseState{}, nil
		}
		return workflowentities.ReleaseState{}, err
	}

	receipts, err := r.receipts.ListReceiptsByTransaction(ctx, transactionID)
	if err != nil {
		return workflowentities.ReleaseState{}, err
	}

	return workflowentities.ReleaseState{
		Found:                true,
		Status:               string(txn.Status),
		VerificationComplete: escrowservices.VerificationComplete(receipts),
	}, nil
}

func escrowAuditRecorder(appendEvent auditcommands.AppendEventUseCase) escrowports.AuditRecorderFunc {
	return func(ctx context.Context, entry escrowports.AuditEntry) error {
		_, err := appendEvent.Execute(ctx, auditcommands.AppendEventCommand{
			ActorID:      entry.ActorID,
			Action:       entry.Action,
			ResourceType: entry.ResourceType,
			ResourceID:   entry.ResourceID,
			Detail:       entry.Detail,
			OccurredAt:   entry.OccurredAt,
		})
		return err
	}
}

func workflowAuditRecorder(appendEvent auditcommands.AppendEventUseCase) workflowports.AuditRecorderFunc {
	return func(ctx context.Context, entry workflowports.AuditEntry) error {
		_, err := appendEvent.Execute(ctx, auditcommands.AppendEventCommand{
			ActorID:      entry.ActorID,
			Action:       entry.Action,
			ResourceType: entry.ResourceType,
			ResourceID:   entry.ResourceID,
			Detail:       entry.Detail,
			OccurredAt:   entry.OccurredAt,
		})
		return err
	}
}

func normalizeAddr(port string) string {
	value := strings.TrimSpace(port)
	if value == "" {
		return ":8080"
	}
	if strings.HasPrefix(value, ":") {
		return value
	}
	return ":" + value
}
