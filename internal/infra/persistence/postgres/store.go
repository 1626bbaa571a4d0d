// Package postgres provides the PostgreSQL-backed recipe book store.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver

	"recipekeeper/internal/infra/persistence/postgres/migrations"
	"recipekeeper/internal/infra/persistence/sqlstore"
	"recipekeeper/pkg/domain"
)

// Compile-time contract assertion ensuring the store satisfies the domain interface.
var _ domain.Store = (*Store)(nil)

const (
	defaultDriver = "pgx"
	// Default DSN keeps parity with OpenStore defaults while allowing overrides via env.
	defaultDSN = "postgres://localhost/recipekeeper?sslmode=disable"
)

// SQLSTATE codes for integrity violations.
const (
	codeUniqueViolation     = "23505"
	codeCheckViolation      = "23514"
	codeForeignKeyViolation = "23503"
)

var (
	sqlOpen = sql.Open
	openMu  sync.Mutex
)

// Store persists recipe books to PostgreSQL.
type Store struct {
	*sqlstore.Store
}

// Dialect returns the PostgreSQL flavour of the shared relational store.
func Dialect() sqlstore.Dialect {
	return sqlstore.Dialect{
		Name:        "postgres",
		Placeholder: sqlstore.Dollar,
		Classify:    classify,
		Migrations:  migrations.FS,
		FoldTitle:   foldTitle,
	}
}

// foldTitle compares folded titles byte-wise, independent of the database
// collation.
func foldTitle(column string) string {
	return `lower(` + column + `) COLLATE "C"`
}

// Open connects using dsn (falls back to defaultDSN), verifies connectivity
// and applies pending migrations.
func Open(ctx context.Context, dsn string, opts ...sqlstore.Option) (*Store, error) {
	if dsn == "" {
		dsn = defaultDSN
	}
	openMu.Lock()
	db, err := sqlOpen(defaultDriver, dsn)
	openMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	s := &Store{Store: sqlstore.New(db, Dialect(), opts...)}
	if err := s.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return s, nil
}

func classify(err error) *domain.ConstraintError {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return nil
	}
	var kind domain.ConstraintKind
	switch pgErr.Code {
	case codeUniqueViolation:
		kind = domain.ConstraintUnique
	case codeCheckViolation:
		kind = domain.ConstraintCheck
	case codeForeignKeyViolation:
		kind = domain.ConstraintForeignKey
	default:
		return nil
	}
	return &domain.ConstraintError{Kind: kind, Constraint: pgErr.ConstraintName, Err: err}
}

// OverrideSQLOpen swaps the sqlOpen function for tests and returns a restore function.
func OverrideSQLOpen(fn func(driverName, dataSourceName string) (*sql.DB, error)) func() {
	openMu.Lock()
	defer openMu.Unlock()
	prev := sqlOpen
	sqlOpen = fn
	return func() {
		openMu.Lock()
		defer openMu.Unlock()
		sqlOpen = prev
	}
}
