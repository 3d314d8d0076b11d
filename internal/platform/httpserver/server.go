package httpserver

import (
	"encoding/json"
	"log/slog"
	"net/http"

	escrowservice "groundwork/contexts/finance-core/escrow-service"
	audittrailservice "groundwork/contexts/internal-ops/audit-trail-service"
	workflowgateservice "groundwork/contexts/project-delivery/workflow-gate-service"
	"groundwork/internal/platform/db"

	httpSwagger "github.com/swaggo/http-swagger"
	_ "groundwork/internal/platform/httpserver/docs"
)

type Server struct {
	mux      *http.ServeMux
	logger   *slog.Logger
	addr     string
	escrow   escrowservice.Module
	workflow workflowgateservice.Module
	audit    audittrailservice.Module
	database *db.Postgres
}

func New(
	escrow escrowservice.Module,
	workflow workflowgateservice.Module,
	audit audittrailservice.Module,
	database *db.Postgres,
	logger *slog.Logger,
	addr string,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if addr == "" {
		addr = ":8080"
	}

	s := &Server{
		mux:      http.NewServeMux(),
		logger:   logger,
		addr:     addr,
		escrow:   escrow,
		workflow: workflow,
		audit:    audit,
		database: database,
	}
	s.registerRoutes()
	return s
}

func (s *Server) Start() error {
	s.logger.Info("http server starting",
		"event", "http_server_starting",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"addr", s.addr,
	)
	return http.ListenAndServe(s.addr, s.mux)
}

func (s *Server) registerRoutes() {
	s.mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))
	s.mux.HandleFunc("GET /healthz", s.handleHealthz)

	s.mux.HandleFunc("POST /v1/escrow/agreements", s.handleCreateAgreement)
	s.mux.HandleFunc("GET /v1/escrow/agreements/{agreement_id}", s.handleGetAgreement)
	s.mux.HandleFunc("POST /v1/escrow/agreements/{agreement_id}/fund", s.handleFundAgreement)
	s.mux.HandleFunc("POST /v1/escrow/agreements/{agreement_id}/close", s.handleCloseAgreement)
	s.mux.HandleFunc("POST /v1/escrow/agreements/{agreement_id}/refund", s.handleRefundAgreement)
	s.mux.HandleFunc("POST /v1/escrow/agreements/{agreement_id}/releases", s.handleRequestRelease)
	s.mux.HandleFunc("GET /v1/escrow/agreements/{agreement_id}/transactions", s.handleListTransactions)
	s.mux.HandleFunc("GET /v1/escrow/transactions/{transaction_id}", s.handleGetTransaction)
	s.mux.HandleFunc("POST /v1/escrow/transactions/{transaction_id}/receipts", s.handleAttachReceipt)
	s.mux.HandleFunc("POST /v1/escrow/transactions/{transaction_id}/approve", s.handleApproveRelease)
	s.mux.HandleFunc("POST /v1/escrow/transactions/{transaction_id}/reject", s.handleRejectRelease)
	s.mux.HandleFunc("POST /v1/escrow/receipts/{receipt_id}/verify", s.handleVerifyReceipt)
	s.mux.HandleFunc("GET /v1/escrow/projects/{project_id}/agreements", s.handleListAgreements)

	s.mux.HandleFunc("GET /v1/projects/{project_id}/gates/permit", s.handleCheckPermitGate)
	s.mux.HandleFunc("GET /v1/projects/{project_id}/gates/review", s.handleCheckReviewGate)
	s.mux.HandleFunc("GET /v1/gates/releases/{transaction_id}", s.handleCheckReleaseGate)
	s.mux.HandleFunc("POST /v1/projects/{project_id}/permit-submissions", s.handleSubmitPermit)
	s.mux.HandleFunc("GET /v1/projects/{project_id}/permit-submissions", s.handleListPermitSubmissions)
	s.mux.HandleFunc("POST /v1/projects/{project_id}/reviews", s.handleSubmitReview)
	s.mux.HandleFunc("GET /v1/projects/{project_id}/reviews", s.handleListReviews)

	s.mux.HandleFunc("GET /v1/audit/events", s.handleListAuditEvents)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if s.database != nil {
		if err := s.database.Healthy(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "degraded",
				"error":  err.Error(),
			})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
