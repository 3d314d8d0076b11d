package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	escrowerrors "groundwork/contexts/finance-core/escrow-service/domain/errors"
	escrowhttp "groundwork/contexts/finance-core/escrow-service/transport/http"
)

func (s *Server) handleCreateAgreement(w http.ResponseWriter, r *http.Request) {
	actorID := requireUser(w, r)
	if actorID == "" {
		return
	}

	var req escrowhttp.CreateAgreementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeEscrowError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.escrow.Handler.CreateAgreementHandler(r.Context(), actorID, req)
	if err != nil {
		writeEscrowDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleGetAgreement(w http.ResponseWriter, r *http.Request) {
	resp, err := s.escrow.Handler.GetAgreementHandler(r.Context(), r.PathValue("agreement_id"))
	if err != nil {
		writeEscrowDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListAgreements(w http.ResponseWriter, r *http.Request) {
	resp, err := s.escrow.Handler.ListAgreementsHandler(r.Context(), r.PathValue("project_id"))
	if err != nil {
		writeEscrowDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleFundAgreement(w http.ResponseWriter, r *http.Request) {
	actorID := requireUser(w, r)
	if actorID == "" {
		return
	}

	resp, err := s.escrow.Handler.FundAgreementHandler(r.Context(), actorID, r.PathValue("agreement_id"))
	if err != nil {
		writeEscrowDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCloseAgreement(w http.ResponseWriter, r *http.Request) {
	actorID := requireUser(w, r)
	if actorID == "" {
		return
	}

	var req escrowhttp.CloseAgreementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeEscrowError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.escrow.Handler.CloseAgreementHandler(
		r.Context(),
		actorID,
		r.Header.Get("X-User-Role"),
		r.PathValue("agreement_id"),
		req,
	)
	if err != nil {
		writeEscrowDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRefundAgreement(w http.ResponseWriter, r *http.Request) {
	actorID := requireUser(w, r)
	if actorID == "" {
		return
	}

	var req escrowhttp.RefundAgreementRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	resp, err := s.escrow.Handler.RefundAgreementHandler(
		r.Context(),
		actorID,
		r.Header.Get("X-User-Role"),
		r.PathValue("agreement_id"),
		req,
	)
	if err != nil {
		writeEscrowDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRequestRelease(w http.ResponseWriter, r *http.Request) {
	actorID := requireUser(w, r)
	if actorID == "" {
		return
	}

	var req escrowhttp.RequestReleaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeEscrowError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	if key := r.Header.Get("Idempotency-Key"); key != "" {
		req.IdempotencyKey = key
	}

	resp, err := s.escrow.Handler.RequestReleaseHandler(r.Context(), actorID, r.PathValue("agreement_id"), req)
	if err != nil {
		writeEscrowDomainError(w, err)
		return
	}
	status := http.StatusCreated
	if resp.Replayed {
		status = http.StatusOK
	}
	writeJSON(w, status, resp)
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	resp, err := s.escrow.Handler.ListTransactionsHandler(r.Context(), r.PathValue("agreement_id"))
	if err != nil {
		writeEscrowDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	resp, err := s.escrow.Handler.GetTransactionHandler(r.Context(), r.PathValue("transaction_id"))
	if err != nil {
		writeEscrowDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAttachReceipt(w http.ResponseWriter, r *http.Request) {
	actorID := requireUser(w, r)
	if actorID == "" {
		return
	}

	var req escrowhttp.AttachReceiptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeEscrowError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.escrow.Handler.AttachReceiptHandler(r.Context(), actorID, r.PathValue("transaction_id"), req)
	if err != nil {
		writeEscrowDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleVerifyReceipt(w http.ResponseWriter, r *http.Request) {
	actorID := requireUser(w, r)
	if actorID == "" {
		return
	}

	var req escrowhttp.VerifyReceiptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeEscrowError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.escrow.Handler.VerifyReceiptHandler(r.Context(), actorID, r.PathValue("receipt_id"), req)
	if err != nil {
		writeEscrowDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleApproveRelease(w http.ResponseWriter, r *http.Request) {
	actorID := requireUser(w, r)
	if actorID == "" {
		return
	}

	var req escrowhttp.ApproveReleaseRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	resp, err := s.escrow.Handler.ApproveReleaseHandler(
		r.Context(),
		actorID,
		r.Header.Get("X-User-Role"),
		r.PathValue("transaction_id"),
		req,
	)
	if err != nil {
		writeEscrowDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRejectRelease(w http.ResponseWriter, r *http.Request) {
	actorID := requireUser(w, r)
	if actorID == "" {
		return
	}

	var req escrowhttp.RejectReleaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeEscrowError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.escrow.Handler.RejectReleaseHandler(
		r.Context(),
		actorID,
		r.Header.Get("X-User-Role"),
		r.PathValue("transaction_id"),
		req,
	)
	if err != nil {
		writeEscrowDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func requireUser(w http.ResponseWriter, r *http.Request) string {
	userID := strings.TrimSpace(r.Header.Get("X-User-Id"))
	if userID == "" {
		writeEscrowError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
	}
	return userID
}

func writeEscrowDomainError(w http.ResponseWriter, err error) {
	var blocked *escrowerrors.BlockedError
	if errors.As(err, &blocked) {
		reasons := make([]escrowhttp.ReleaseGateReasonDTO, 0, len(blocked.Reasons))
		for _, reason := range blocked.Reasons {
			reasons = append(reasons, escrowhttp.ReleaseGateReasonDTO{
				Type:    reason.Type,
				Message: reason.Message,
			})
		}
		writeJSON(w, http.StatusUnprocessableEntity, escrowhttp.ErrorResponse{
			Code:    "precondition_blocked",
			Message: err.Error(),
			Reasons: reasons,
		})
		return
	}

	switch {
	case errors.Is(err, escrowerrors.ErrInvalidInput),
		errors.Is(err, escrowerrors.ErrRejectionReasonRequired):
		writeEscrowError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, escrowerrors.ErrUnauthorized):
		writeEscrowError(w, http.StatusForbidden, "forbidden", err.Error())
	case errors.Is(err, escrowerrors.ErrAgreementNotFound),
		errors.Is(err, escrowerrors.ErrTransactionNotFound),
		errors.Is(err, escrowerrors.ErrReceiptNotFound),
		errors.Is(err, escrowerrors.ErrMilestoneNotFound):
		writeEscrowError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, escrowerrors.ErrStaleState):
		writeEscrowError(w, http.StatusConflict, "stale_state", err.Error())
	case errors.Is(err, escrowerrors.ErrDuplicateRelease):
		writeEscrowError(w, http.StatusConflict, "duplicate_release", err.Error())
	case errors.Is(err, escrowerrors.ErrAgreementClosed):
		writeEscrowError(w, http.StatusConflict, "agreement_closed", err.Error())
	case errors.Is(err, escrowerrors.ErrTransactionNotOpenForEvidence):
		writeEscrowError(w, http.StatusConflict, "not_open_for_evidence", err.Error())
	case errors.Is(err, escrowerrors.ErrIdempotencyKeyConflict):
		writeEscrowError(w, http.StatusConflict, "idempotency_conflict", err.Error())
	case errors.Is(err, escrowerrors.ErrAgreementNotFunded),
		errors.Is(err, escrowerrors.ErrMilestoneUnpriced),
		errors.Is(err, escrowerrors.ErrInsufficientFunds),
		errors.Is(err, escrowerrors.ErrPayoutAccountUnavailable),
		errors.Is(err, escrowerrors.ErrPreconditionBlocked):
		writeEscrowError(w, http.StatusUnprocessableEntity, "precondition_failed", err.Error())
	case errors.Is(err, escrowerrors.ErrProviderTransfer):
		writeEscrowError(w, http.StatusBadGateway, "provider_transfer_failed", err.Error())
	default:
		writeEscrowError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeEscrowError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, escrowhttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}
