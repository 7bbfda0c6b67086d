package repo

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/crucial707/admin-console/internal/models"
)

// ActiveWindow is the trailing window for "active" users.
const ActiveWindow = 7 * 24 * time.Hour

// AnalyticsRepo runs the aggregate queries behind the summary endpoint.
type AnalyticsRepo struct {
	db *sql.DB
}

// NewAnalyticsRepo returns a new AnalyticsRepo.
func NewAnalyticsRepo(db *sql.DB) *AnalyticsRepo {
	return &AnalyticsRepo{db: db}
}

// Summary counts users, roles, and users whose last login is at or after now-7d.
// The three counts are independent queries and not a point-in-time snapshot.
func (r *AnalyticsRepo) Summary(ctx context.Context, now time.Time) (models.Summary, error) {
	var s models.Summary
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&s.TotalUsers); err != nil {
		return s, fmt.Errorf("count users: %w", err)
	}
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM roles`).Scan(&s.TotalRoles); err != nil {
		return s, fmt.Errorf("count roles: %w", err)
	}
	since := now.Add(-ActiveWindow).UTC()
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE last_login >= $1`, since).Scan(&s.ActiveUsersLast7Days); err != nil {
		return s, fmt.Errorf("count active users: %w", err)
	}
	s.GeneratedAt = now.UTC().Format(time.RFC3339)
	return s, nil
}
