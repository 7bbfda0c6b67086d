package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/crucial707/admin-console/internal/models"
	"github.com/crucial707/admin-console/internal/repo"
)

// ==========================
// AuditHandler
// ==========================
type AuditHandler struct {
	Store *repo.Store
}

// ==========================
// List Audit Logs (page, limit, userId, action, startDate, endDate)
// ==========================
func (h *AuditHandler) ListAuditLogs(w http.ResponseWriter, r *http.Request) {
	page, limit := pageParams(r, defaultAuditLimit)

	filter, msg := auditFilterFromQuery(r)
	if msg != "" {
		JSONError(w, msg, http.StatusBadRequest)
		return
	}

	total, err := h.Store.Audit.Count(r.Context(), filter)
	if err != nil {
		internalError(w, r, "list audit logs: count", err)
		return
	}
	entries, err := h.Store.Audit.List(r.Context(), filter, limit, models.Offset(page, limit))
	if err != nil {
		internalError(w, r, "list audit logs", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"auditLogs":  entries,
		"pagination": models.NewPagination(total, page, limit),
	})
}

// auditFilterFromQuery returns the filter, or a client-facing message when a
// parameter is malformed.
func auditFilterFromQuery(r *http.Request) (models.AuditFilter, string) {
	q := r.URL.Query()
	var f models.AuditFilter

	if v := strings.TrimSpace(q.Get("userId")); v != "" {
		id, err := strconv.Atoi(v)
		if err != nil || id <= 0 {
			return f, "invalid userId"
		}
		f.ActorID = id
	}
	f.Action = strings.TrimSpace(q.Get("action"))

	if v := strings.TrimSpace(q.Get("startDate")); v != "" {
		t, err := parseDate(v, false)
		if err != nil {
			return f, "invalid startDate"
		}
		f.Start = &t
	}
	if v := strings.TrimSpace(q.Get("endDate")); v != "" {
		t, err := parseDate(v, true)
		if err != nil {
			return f, "invalid endDate"
		}
		f.End = &t
	}
	if f.Start != nil && f.End != nil && f.End.Before(*f.Start) {
		return f, "endDate must not be before startDate"
	}
	return f, ""
}
