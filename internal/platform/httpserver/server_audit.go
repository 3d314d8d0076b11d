package httpserver

import (
	"errors"
	"net/http"
	"strconv"

	auditerrors "groundwork/contexts/internal-ops/audit-trail-service/domain/errors"
	audithttp "groundwork/contexts/internal-ops/audit-trail-service/transport/http"
)

func (s *Server) handleListAuditEvents(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	limit := 0
	if raw := query.Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			writeAuditError(w, http.StatusBadRequest, "invalid_request", "limit must be a non-negative integer")
			return
		}
		limit = parsed
	}

	resp, err := s.audit.Handler.ListEventsHandler(
		r.Context(),
		query.Get("resource_type"),
		query.Get("resource_id"),
		limit,
	)
	if err != nil {
		writeAuditDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeAuditDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, auditerrors.ErrInvalidInput):
		writeAuditError(w, http.StatusBadRequest, "invalid_request", err.Error())
	default:
		writeAuditError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeAuditError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, audithttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}
