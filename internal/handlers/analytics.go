package handlers

import (
	"net/http"
	"time"

	"github.com/crucial707/admin-console/internal/metrics"
	"github.com/crucial707/admin-console/internal/repo"
)

// AnalyticsHandler serves the dashboard summary.
type AnalyticsHandler struct {
	Store *repo.Store
	// Now is overridable in tests.
	Now func() time.Time
}

// Summary returns user, role and weekly-active counts.
func (h *AnalyticsHandler) Summary(w http.ResponseWriter, r *http.Request) {
	now := time.Now
	if h.Now != nil {
		now = h.Now
	}

	summary, err := h.Store.Analytics.Summary(r.Context(), now())
	if err != nil {
		internalError(w, r, "analytics summary", err)
		return
	}
	metrics.SetIdentityCounts(summary.TotalUsers, summary.TotalRoles, summary.ActiveUsersLast7Days)

	writeJSON(w, http.StatusOK, summary)
}
