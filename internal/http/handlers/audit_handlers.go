package handlers

import (
	"fmt"
	"net/http"

	"github.com/rogerio-castellano/restock-analytics/internal/auth"
	"github.com/rogerio-castellano/restock-analytics/internal/logging"
	"github.com/rogerio-castellano/restock-analytics/internal/models"
	"github.com/rogerio-castellano/restock-analytics/internal/repo"
)

// recordStockAudit appends an audit entry for a stock change made by the authenticated user.
// A failed write is logged and does not fail the request, the stock change is already committed.
func recordStockAudit(r *http.Request, action string, p models.Product) {
	if auditRepo == nil {
		return
	}
	user := "unknown"
	if claims, ok := auth.ClaimsFromContext(r.Context()); ok {
		user = claims.Username
	}
	entry := models.AuditLog{
		User:    user,
		Action:  action,
		Details: fmt.Sprintf("%s: updated stock=%d, threshold=%d", p.Name, p.Stock, p.Threshold),
	}
	if _, err := auditRepo.Record(r.Context(), entry); err != nil {
		logging.Ctx(r.Context()).Error().Err(err).
			Int("product_id", p.ID).
			Str("action", action).
			Msg("could not record audit log")
	}
}

// GetAuditLogsHandler godoc
// @Summary List audit log entries
// @Description Stock changes newest first
// @Tags audit
// @Produce json
// @Param since query string false "Entries from this timestamp (RFC3339)"
// @Param until query string false "Entries until this timestamp (RFC3339)"
// @Param offset query int false "Offset for pagination"
// @Param limit query int false "Limit for pagination"
// @Success 200 {object} AuditLogsResult
// @Failure 400 {string} string "Invalid input"
// @Failure 403 {string} string "Forbidden"
// @Failure 500 {string} string "Internal error"
// @Router /audit-logs [get]
// @Security BearerAuth
func GetAuditLogsHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	since, err := parseTimeParam(q.Get("since"))
	if err != nil {
		http.Error(w, "invalid since date format", http.StatusBadRequest)
		return
	}
	until, err := parseTimeParam(q.Get("until"))
	if err != nil {
		http.Error(w, "invalid until date format", http.StatusBadRequest)
		return
	}
	if since != nil && until != nil && until.Before(*since) {
		http.Error(w, "until must not be before since", http.StatusBadRequest)
		return
	}

	filter := repo.AuditFilter{
		Since:  since,
		Until:  until,
		Offset: parseIntPtr(q.Get("offset")),
		Limit:  parseIntPtr(q.Get("limit")),
	}
	if filter.Limit != nil && *filter.Limit <= 0 {
		http.Error(w, "limit must be greater than zero", http.StatusBadRequest)
		return
	}
	if filter.Offset != nil && *filter.Offset < 0 {
		http.Error(w, "offset must be zero or positive", http.StatusBadRequest)
		return
	}

	entries, total, err := auditRepo.List(r.Context(), filter)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("could not fetch audit logs")
		http.Error(w, "could not fetch audit logs", http.StatusInternalServerError)
		return
	}

	resp := AuditLogsResult{
		Data: make([]AuditLogResponse, len(entries)),
		Meta: Meta{TotalCount: total},
	}
	for i, e := range entries {
		resp.Data[i] = AuditLogResponse(e)
	}
	respond(w, r, http.StatusOK, resp)
}
