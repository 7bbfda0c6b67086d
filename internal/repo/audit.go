package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/crucial707/admin-console/internal/models"
)

// AuditRepo appends and queries audit log rows. Rows are never updated or deleted.
type AuditRepo struct {
	db Querier
}

// NewAuditRepo returns a new AuditRepo.
func NewAuditRepo(db Querier) *AuditRepo {
	return &AuditRepo{db: db}
}

// Record appends one audit row. details is stored as JSON; nil becomes {}.
func (r *AuditRepo) Record(ctx context.Context, actorID int, action, targetType string, targetID int, details any) error {
	payload := []byte("{}")
	if details != nil {
		b, err := json.Marshal(details)
		if err != nil {
			return fmt.Errorf("encode audit details: %w", err)
		}
		payload = b
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO audit_logs (actor_user_id, action, target_type, target_id, details) VALUES ($1, $2, $3, $4, $5)`,
		actorID, action, targetType, targetID, string(payload),
	)
	if err != nil {
		return fmt.Errorf("record audit %s: %w", action, err)
	}
	return nil
}

// List returns audit entries matching f, newest first.
func (r *AuditRepo) List(ctx context.Context, f models.AuditFilter, limit, offset int) ([]models.AuditEntry, error) {
	where, args := auditWhere(f)
	n := len(args)
	query := `
		SELECT a.id, a.actor_user_id, a.action, a.target_type, a.target_id, a.details, a.created_at,
		       u.id, u.name, u.email
		FROM audit_logs a
		LEFT JOIN users u ON u.id = a.actor_user_id` + where +
		fmt.Sprintf(` ORDER BY a.created_at DESC, a.id DESC LIMIT $%d OFFSET $%d`, n+1, n+2)
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list audit logs: %w", err)
	}
	defer rows.Close()

	entries := []models.AuditEntry{}
	for rows.Next() {
		var (
			e          models.AuditEntry
			details    []byte
			actorID    *int
			actorName  *string
			actorEmail *string
		)
		if err := rows.Scan(&e.ID, &e.ActorUserID, &e.Action, &e.TargetType, &e.TargetID, &details, &e.CreatedAt,
			&actorID, &actorName, &actorEmail); err != nil {
			return nil, err
		}
		if len(details) == 0 {
			details = []byte("{}")
		}
		e.Details = json.RawMessage(details)
		if actorID != nil {
			e.Actor = &models.Actor{ID: *actorID}
			if actorName != nil {
				e.Actor.Name = *actorName
			}
			if actorEmail != nil {
				e.Actor.Email = *actorEmail
			}
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Count returns the number of audit entries matching f.
func (r *AuditRepo) Count(ctx context.Context, f models.AuditFilter) (int, error) {
	where, args := auditWhere(f)
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM audit_logs a`+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count audit logs: %w", err)
	}
	return n, nil
}

// CountByActor returns how many rows the actor produced with the given action.
func (r *AuditRepo) CountByActor(ctx context.Context, actorID int, action string) (int, error) {
	return r.Count(ctx, models.AuditFilter{ActorID: actorID, Action: action})
}

func auditWhere(f models.AuditFilter) (string, []any) {
	var conds []string
	var args []any
	add := func(cond string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if f.ActorID > 0 {
		add(`a.actor_user_id = $%d`, f.ActorID)
	}
	if f.Action != "" {
		add(`a.action = $%d`, f.Action)
	}
	if f.Start != nil {
		add(`a.created_at >= $%d`, f.Start.UTC())
	}
	if f.End != nil {
		add(`a.created_at <= $%d`, f.End.UTC())
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}
