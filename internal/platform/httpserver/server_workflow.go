package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	workflowerrors "groundwork/contexts/project-delivery/workflow-gate-service/domain/errors"
	workflowhttp "groundwork/contexts/project-delivery/workflow-gate-service/transport/http"
)

func (s *Server) handleCheckPermitGate(w http.ResponseWriter, r *http.Request) {
	resp, err := s.workflow.Handler.CheckPermitGateHandler(r.Context(), r.PathValue("project_id"))
	if err != nil {
		writeWorkflowDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCheckReviewGate(w http.ResponseWriter, r *http.Request) {
	resp, err := s.workflow.Handler.CheckReviewGateHandler(r.Context(), r.PathValue("project_id"))
	if err != nil {
		writeWorkflowDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCheckReleaseGate(w http.ResponseWriter, r *http.Request) {
	resp, err := s.workflow.Handler.CheckReleaseGateHandler(r.Context(), r.PathValue("transaction_id"))
	if err != nil {
		writeWorkflowDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSubmitPermit(w http.ResponseWriter, r *http.Request) {
	actorID := requireWorkflowUser(w, r)
	if actorID == "" {
		return
	}

	resp, err := s.workflow.Handler.SubmitPermitHandler(r.Context(), actorID, r.PathValue("project_id"))
	if err != nil {
		writeWorkflowDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleListPermitSubmissions(w http.ResponseWriter, r *http.Request) {
	resp, err := s.workflow.Handler.ListPermitSubmissionsHandler(r.Context(), r.PathValue("project_id"))
	if err != nil {
		writeWorkflowDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSubmitReview(w http.ResponseWriter, r *http.Request) {
	actorID := requireWorkflowUser(w, r)
	if actorID == "" {
		return
	}

	var req workflowhttp.SubmitReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeWorkflowError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.workflow.Handler.SubmitReviewHandler(r.Context(), actorID, r.PathValue("project_id"), req)
	if err != nil {
		writeWorkflowDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleListReviews(w http.ResponseWriter, r *http.Request) {
	resp, err := s.workflow.Handler.ListReviewsHandler(r.Context(), r.PathValue("project_id"))
	if err != nil {
		writeWorkflowDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func requireWorkflowUser(w http.ResponseWriter, r *http.Request) string {
	userID := strings.TrimSpace(r.Header.Get("X-User-Id"))
	if userID == "" {
		writeWorkflowError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
	}
	return userID
}

func writeWorkflowDomainError(w http.ResponseWriter, err error) {
	var blocked *workflowerrors.BlockedError
	if errors.As(err, &blocked) {
		reasons := make([]workflowhttp.BlockingReasonDTO, 0, len(blocked.Reasons))
		for _, reason := range blocked.Reasons {
			reasons = append(reasons, workflowhttp.BlockingReasonDTO{
				Type:    reason.Type,
				Message: reason.Message,
			})
		}
		writeJSON(w, http.StatusUnprocessableEntity, workflowhttp.ErrorResponse{
			Code:    "precondition_blocked",
			Message: err.Error(),
			Reasons: reasons,
		})
		return
	}

	switch {
	case errors.Is(err, workflowerrors.ErrInvalidInput):
		writeWorkflowError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, workflowerrors.ErrUnauthorized):
		writeWorkflowError(w, http.StatusForbidden, "forbidden", err.Error())
	case errors.Is(err, workflowerrors.ErrProjectNotFound):
		writeWorkflowError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, workflowerrors.ErrDuplicateReview):
		writeWorkflowError(w, http.StatusConflict, "duplicate_review", err.Error())
	case errors.Is(err, workflowerrors.ErrPreconditionBlocked):
		writeWorkflowError(w, http.StatusUnprocessableEntity, "precondition_blocked", err.Error())
	default:
		writeWorkflowError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeWorkflowError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, workflowhttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}
