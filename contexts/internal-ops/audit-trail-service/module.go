package audittrailservice

import (
	"log/slog"

	httpadapter "groundwork/contexts/internal-ops/audit-trail-service/adapters/http"
	"groundwork/contexts/internal-ops/audit-trail-service/adapters/memory"
	"groundwork/contexts/internal-ops/audit-trail-service/application/commands"
	"groundwork/contexts/internal-ops/audit-trail-service/application/queries"
	"groundwork/contexts/internal-ops/audit-trail-service/ports"
)

// Module is the composition surface for the audit trail within Groundwork.
// Append is exposed directly so other contexts can wire it behind their
// AuditRecorder ports; Handler serves the read feed.
type Module struct {
	Handler httpadapter.Handler
	Append  commands.AppendEventUseCase
	Store   *memory.Store
}

type Dependencies struct {
	Events      ports.AuditEventRepository
	Clock       ports.Clock
	IDGenerator ports.IDGenerator
	Logger      *slog.Logger
}

// NewModule wires audit use-cases against explicit ports.
func NewModule(deps Dependencies) Module {
	appendEvent := commands.AppendEventUseCase{
		Events:      deps.Events,
		Clock:       deps.Clock,
		IDGenerator: deps.IDGenerator,
		Logger:      deps.Logger,
	}
	handler := httpadapter.Handler{
		ListEvents: queries.ListEventsQuery{Events: deps.Events},
		Logger:     deps.Logger,
	}
	return Module{
		Handler: handler,
		Append:  appendEvent,
	}
}

// NewInMemoryModule wires the audit trail against the in-memory store.
func NewInMemoryModule(logger *slog.Logger) Module {
	store := memory.NewStore()
	module := NewModule(Dependencies{
		Events:      store,
		Clock:       store,
		IDGenerator: store,
		Logger:      logger,
	})
	module.Store = store
	return module
}
