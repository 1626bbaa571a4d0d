// Package sqlite provides the SQLite-backed recipe book store.
package sqlite

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	"recipekeeper/internal/infra/persistence/sqlite/migrations"
	"recipekeeper/internal/infra/persistence/sqlstore"
	"recipekeeper/pkg/domain"
)

// MemoryPath opens a private in-process database.
const MemoryPath = ":memory:"

const defaultPath = "recipekeeper.db"

// Compile-time contract assertion.
var _ domain.Store = (*Store)(nil)

// Store persists recipe books to a SQLite file.
type Store struct {
	*sqlstore.Store
	path string
}

// Dialect returns the SQLite flavour of the shared relational store.
func Dialect() sqlstore.Dialect {
	return sqlstore.Dialect{
		Name:        "sqlite",
		Placeholder: sqlstore.Question,
		Classify:    classify,
		Migrations:  migrations.FS,
		FoldTitle:   func(column string) string { return foldFunc + "(" + column + ")" },
	}
}

// foldFunc folds text with strings.ToLower. SQLite's lower() only folds ASCII.
const foldFunc = "go_lower"

func init() {
	if err := msqlite.RegisterDeterministicScalarFunction(foldFunc, 1, foldTitle); err != nil {
		panic(fmt.Sprintf("register %s: %v", foldFunc, err))
	}
}

func foldTitle(_ *msqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	switch v := args[0].(type) {
	case nil:
		return nil, nil
	case string:
		return strings.ToLower(v), nil
	case []byte:
		return strings.ToLower(string(v)), nil
	default:
		return v, nil
	}
}

// Open opens (creating if needed) the database at path and applies migrations.
// An empty path falls back to recipekeeper.db in the working directory.
func Open(ctx context.Context, path string, opts ...sqlstore.Option) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		path = defaultPath
	}
	inMemory := path == MemoryPath
	if !inMemory {
		path = filepath.Clean(path)
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("create dirs: %w", err)
		}
	}
	dsn := path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if inMemory {
		// every connection to :memory: is a distinct database
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	if err := ensureForeignKeysEnabled(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	s := &Store{Store: sqlstore.New(db, Dialect(), opts...), path: path}
	if err := s.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return s, nil
}

// Path returns the configured database path.
func (s *Store) Path() string { return s.path }

func ensureForeignKeysEnabled(ctx context.Context, db *sql.DB) error {
	var enabled int
	if err := db.QueryRowContext(ctx, "PRAGMA foreign_keys").Scan(&enabled); err != nil {
		return fmt.Errorf("check sqlite foreign key pragma: %w", err)
	}
	if enabled != 1 {
		return fmt.Errorf("sqlite foreign keys are disabled")
	}
	return nil
}

func classify(err error) *domain.ConstraintError {
	var sqliteErr *msqlite.Error
	if !errors.As(err, &sqliteErr) {
		return nil
	}
	var kind domain.ConstraintKind
	switch sqliteErr.Code() {
	case sqlite3lib.SQLITE_CONSTRAINT_UNIQUE, sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY:
		kind = domain.ConstraintUnique
	case sqlite3lib.SQLITE_CONSTRAINT_CHECK:
		kind = domain.ConstraintCheck
	case sqlite3lib.SQLITE_CONSTRAINT_FOREIGNKEY:
		kind = domain.ConstraintForeignKey
	default:
		return nil
	}
	return &domain.ConstraintError{Kind: kind, Constraint: constraintName(sqliteErr.Error()), Err: err}
}

// constraintName pulls the subject out of messages such as
// "CHECK constraint failed: recipes_prep_within_total".
func constraintName(msg string) string {
	const marker = "constraint failed: "
	idx := strings.LastIndex(msg, marker)
	if idx == -1 {
		return ""
	}
	name := msg[idx+len(marker):]
	if end := strings.IndexAny(name, " ,)"); end != -1 {
		name = name[:end]
	}
	return name
}
