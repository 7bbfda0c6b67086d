package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrDuplicateEmail    = errors.New("email already exists")
	ErrDuplicateRoleName = errors.New("role name already exists")
)

const uniqueViolation = "23505"

// Querier is satisfied by both *sql.DB and *sql.Tx.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Repos groups the repositories that share one Querier.
type Repos struct {
	Users *UserRepo
	Roles *RoleRepo
	Audit *AuditRepo
}

func newRepos(q Querier) Repos {
	return Repos{
		Users: NewUserRepo(q),
		Roles: NewRoleRepo(q),
		Audit: NewAuditRepo(q),
	}
}

// Store is the explicitly constructed handle to the identity database.
type Store struct {
	Repos
	Analytics *AnalyticsRepo

	db *sql.DB
}

// NewStore wires every repository to db.
func NewStore(db *sql.DB) *Store {
	return &Store{
		Repos:     newRepos(db),
		Analytics: NewAnalyticsRepo(db),
		db:        db,
	}
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close releases the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// InTx runs fn with repositories bound to one transaction. The transaction is
// committed when fn returns nil and rolled back otherwise.
func (s *Store) InTx(ctx context.Context, fn func(r Repos) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(newRepos(tx)); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func isUniqueViolation(err error, constraint string) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	return pqErr.Code == uniqueViolation && (constraint == "" || pqErr.Constraint == constraint)
}
