package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/crucial707/admin-console/internal/models"
	"github.com/lib/pq"
)

const roleNameConstraint = "roles_name_key"

const roleColumns = `id, name, permissions, created_at, updated_at`

// RoleRepo persists roles.
type RoleRepo struct {
	db Querier
}

// NewRoleRepo returns a new RoleRepo.
func NewRoleRepo(db Querier) *RoleRepo {
	return &RoleRepo{db: db}
}

// List returns every role ordered by name.
func (r *RoleRepo) List(ctx context.Context) ([]models.Role, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+roleColumns+` FROM roles ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}
	defer rows.Close()

	roles := []models.Role{}
	for rows.Next() {
		var role models.Role
		if err := rows.Scan(&role.ID, &role.Name, pq.Array(&role.Permissions), &role.CreatedAt, &role.UpdatedAt); err != nil {
			return nil, err
		}
		normalizePermissions(&role)
		roles = append(roles, role)
	}
	return roles, rows.Err()
}

// GetByID returns the role or ErrNotFound.
func (r *RoleRepo) GetByID(ctx context.Context, id int) (*models.Role, error) {
	role, err := scanRole(r.db.QueryRowContext(ctx, `SELECT `+roleColumns+` FROM roles WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get role %d: %w", id, err)
	}
	return role, nil
}

// GetByName returns the role or ErrNotFound.
func (r *RoleRepo) GetByName(ctx context.Context, name string) (*models.Role, error) {
	role, err := scanRole(r.db.QueryRowContext(ctx, `SELECT `+roleColumns+` FROM roles WHERE name = $1`, name))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get role %q: %w", name, err)
	}
	return role, nil
}

// Create inserts a role. A taken name returns ErrDuplicateRoleName.
func (r *RoleRepo) Create(ctx context.Context, name string, permissions []string) (*models.Role, error) {
	if permissions == nil {
		permissions = []string{}
	}
	role, err := scanRole(r.db.QueryRowContext(ctx,
		`INSERT INTO roles (name, permissions) VALUES ($1, $2) RETURNING `+roleColumns,
		name, pq.Array(permissions),
	))
	if err != nil {
		if isUniqueViolation(err, roleNameConstraint) {
			return nil, ErrDuplicateRoleName
		}
		return nil, fmt.Errorf("insert role: %w", err)
	}
	return role, nil
}

// Update renames the role and replaces its permissions.
func (r *RoleRepo) Update(ctx context.Context, id int, name string, permissions []string) (*models.Role, error) {
	if permissions == nil {
		permissions = []string{}
	}
	role, err := scanRole(r.db.QueryRowContext(ctx,
		`UPDATE roles SET name = $1, permissions = $2, updated_at = NOW() WHERE id = $3 RETURNING `+roleColumns,
		name, pq.Array(permissions), id,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		if isUniqueViolation(err, roleNameConstraint) {
			return nil, ErrDuplicateRoleName
		}
		return nil, fmt.Errorf("update role %d: %w", id, err)
	}
	return role, nil
}

func scanRole(row *sql.Row) (*models.Role, error) {
	role := &models.Role{}
	if err := row.Scan(&role.ID, &role.Name, pq.Array(&role.Permissions), &role.CreatedAt, &role.UpdatedAt); err != nil {
		return nil, err
	}
	normalizePermissions(role)
	return role, nil
}

func normalizePermissions(role *models.Role) {
	if role.Permissions == nil {
		role.Permissions = []string{}
	}
}
