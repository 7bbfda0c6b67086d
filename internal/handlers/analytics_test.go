package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/crucial707/admin-console/internal/metrics"
	"github.com/crucial707/admin-console/internal/repo"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestAnalyticsHandler_Summary(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	now := time.Date(2026, 5, 8, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM users$`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(12))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM roles`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectQuery(`FROM users WHERE last_login >= \$1`).
		WithArgs(now.Add(-7 * 24 * time.Hour)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(5))

	h := &AnalyticsHandler{Store: repo.NewStore(db), Now: func() time.Time { return now }}
	rr := httptest.NewRecorder()
	h.Summary(rr, httptest.NewRequest("GET", "/api/v1/superadmin/analytics/summary", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("Summary status: got %d, want 200 (%s)", rr.Code, rr.Body.String())
	}
	out := decodeBody(t, rr)
	if out["totalUsers"] != float64(12) || out["totalRoles"] != float64(3) || out["activeUsersLast7Days"] != float64(5) {
		t.Errorf("unexpected summary: %v", out)
	}
	if out["generatedAt"] != "2026-05-08T12:00:00Z" {
		t.Errorf("generatedAt: got %v", out["generatedAt"])
	}
	if got := testutil.ToFloat64(metrics.IdentityGauge.WithLabelValues("roles")); got != 3 {
		t.Errorf("roles gauge: got %v, want 3", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestAnalyticsHandler_Summary_DBError(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM users`).WillReturnError(errTest)

	h := &AnalyticsHandler{Store: repo.NewStore(db)}
	rr := httptest.NewRecorder()
	h.Summary(rr, httptest.NewRequest("GET", "/api/v1/superadmin/analytics/summary", nil))

	if rr.Code != http.StatusInternalServerError {
		t.Errorf("Summary status: got %d, want 500", rr.Code)
	}
	if out := decodeBody(t, rr); out["error"] != ErrMessageInternal {
		t.Errorf("unexpected error: %v", out["error"])
	}
}
