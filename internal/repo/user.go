package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/crucial707/admin-console/internal/models"
	"github.com/lib/pq"
)

const userEmailConstraint = "users_email_key"

const userColumns = `u.id, u.name, u.email, u.last_login, u.created_at, u.updated_at`

// ==========================
// UserRepo
// ==========================
type UserRepo struct {
	db Querier
}

// ==========================
// Constructor
// ==========================
func NewUserRepo(db Querier) *UserRepo {
	return &UserRepo{db: db}
}

// ==========================
// Create User
// ==========================
func (r *UserRepo) Create(ctx context.Context, name, email, hashedPassword string) (*models.User, error) {
	query := `
		INSERT INTO users AS u (name, email, hashed_password)
		VALUES ($1, $2, $3)
		RETURNING ` + userColumns

	user, err := scanUser(r.db.QueryRowContext(ctx, query, name, email, hashedPassword))
	if err != nil {
		if isUniqueViolation(err, userEmailConstraint) {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	user.Roles = []models.RoleRef{}
	return user, nil
}

// ==========================
// Get By ID (with live roles)
// ==========================
func (r *UserRepo) GetByID(ctx context.Context, id int) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users u WHERE u.id = $1`

	user, err := scanUser(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get user %d: %w", id, err)
	}
	if err := r.attachRoles(ctx, []*models.User{user}); err != nil {
		return nil, err
	}
	return user, nil
}

// ==========================
// Get By Email (includes credential)
// ==========================
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + `, u.hashed_password FROM users u WHERE u.email = $1`

	user := &models.User{}
	err := r.db.QueryRowContext(ctx, query, email).Scan(
		&user.ID, &user.Name, &user.Email, &user.LastLogin, &user.CreatedAt, &user.UpdatedAt, &user.HashedPassword,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	if err := r.attachRoles(ctx, []*models.User{user}); err != nil {
		return nil, err
	}
	return user, nil
}

// EmailExists reports whether any user has the email.
func (r *UserRepo) EmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)`, email).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check email: %w", err)
	}
	return exists, nil
}

// ==========================
// Update User (empty name or email keeps the current value)
// ==========================
func (r *UserRepo) Update(ctx context.Context, id int, name, email string) (*models.User, error) {
	query := `
		UPDATE users AS u
		SET name = COALESCE(NULLIF($1, ''), u.name),
		    email = COALESCE(NULLIF($2, ''), u.email),
		    updated_at = NOW()
		WHERE u.id = $3
		RETURNING ` + userColumns

	user, err := scanUser(r.db.QueryRowContext(ctx, query, name, email, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		if isUniqueViolation(err, userEmailConstraint) {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("update user %d: %w", id, err)
	}
	return user, nil
}

// TouchLastLogin sets last_login for the user.
func (r *UserRepo) TouchLastLogin(ctx context.Context, id int, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `UPDATE users SET last_login = $1 WHERE id = $2`, at, id)
	if err != nil {
		return fmt.Errorf("touch last login: %w", err)
	}
	return nil
}

// ==========================
// Delete User
// ==========================
func (r *UserRepo) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete user %d: %w", id, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

// ==========================
// Role membership
// ==========================

// SetRoles replaces the user's entire role set. Unknown role ids are ignored;
// an empty list removes every role.
func (r *UserRepo) SetRoles(ctx context.Context, userID int, roleIDs []int) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM user_roles WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("clear roles: %w", err)
	}
	if len(roleIDs) == 0 {
		return nil
	}
	return r.addRoles(ctx, userID, roleIDs)
}

// AddRoles attaches roles to the user, keeping the ones it already has.
func (r *UserRepo) AddRoles(ctx context.Context, userID int, roleIDs []int) error {
	if len(roleIDs) == 0 {
		return nil
	}
	return r.addRoles(ctx, userID, roleIDs)
}

func (r *UserRepo) addRoles(ctx context.Context, userID int, roleIDs []int) error {
	ids := make([]int64, len(roleIDs))
	for i, id := range roleIDs {
		ids[i] = int64(id)
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO user_roles (user_id, role_id)
		SELECT $1, id FROM roles WHERE id = ANY($2)
		ON CONFLICT DO NOTHING`,
		userID, pq.Array(ids),
	)
	if err != nil {
		return fmt.Errorf("add roles: %w", err)
	}
	return nil
}

// ==========================
// List Users
// ==========================
func (r *UserRepo) List(ctx context.Context, f models.UserFilter, limit, offset int) ([]models.User, error) {
	where, args := userWhere(f)
	n := len(args)
	query := `SELECT ` + userColumns + ` FROM users u` + where +
		fmt.Sprintf(` ORDER BY u.created_at DESC, u.id DESC LIMIT $%d OFFSET $%d`, n+1, n+2)
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.LastLogin, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	ptrs := make([]*models.User, len(users))
	for i := range users {
		ptrs[i] = &users[i]
	}
	if err := r.attachRoles(ctx, ptrs); err != nil {
		return nil, err
	}
	return users, nil
}

// Count returns the number of users matching f.
func (r *UserRepo) Count(ctx context.Context, f models.UserFilter) (int, error) {
	where, args := userWhere(f)
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users u`+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}

func userWhere(f models.UserFilter) (string, []any) {
	var conds []string
	var args []any
	if f.Search != "" {
		args = append(args, "%"+escapeLike(f.Search)+"%")
		conds = append(conds, fmt.Sprintf(`(u.name ILIKE $%d OR u.email ILIKE $%d)`, len(args), len(args)))
	}
	if f.Role != "" {
		args = append(args, f.Role)
		conds = append(conds, fmt.Sprintf(
			`EXISTS (SELECT 1 FROM user_roles ur JOIN roles r ON r.id = ur.role_id WHERE ur.user_id = u.id AND r.name = $%d)`,
			len(args)))
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// attachRoles loads the live role set for each user in one query.
func (r *UserRepo) attachRoles(ctx context.Context, users []*models.User) error {
	if len(users) == 0 {
		return nil
	}
	ids := make([]int64, len(users))
	byID := make(map[int]*models.User, len(users))
	for i, u := range users {
		ids[i] = int64(u.ID)
		u.Roles = []models.RoleRef{}
		byID[u.ID] = u
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT ur.user_id, r.id, r.name
		FROM user_roles ur
		JOIN roles r ON r.id = ur.role_id
		WHERE ur.user_id = ANY($1)
		ORDER BY r.name`,
		pq.Array(ids),
	)
	if err != nil {
		return fmt.Errorf("load roles: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var userID int
		var ref models.RoleRef
		if err := rows.Scan(&userID, &ref.ID, &ref.Name); err != nil {
			return err
		}
		if u, ok := byID[userID]; ok {
			u.Roles = append(u.Roles, ref)
		}
	}
	return rows.Err()
}

func scanUser(row *sql.Row) (*models.User, error) {
	u := &models.User{}
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.LastLogin, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	return u, nil
}
