package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"time"
)

const migrationTable = "schema_migrations"

// Migrate applies every embedded migration at most once, recording applied
// files in the schema_migrations table.
func (s *Store) Migrate(ctx context.Context) error {
	if s.dialect.Migrations == nil {
		return fmt.Errorf("%s: no migrations configured", s.dialect.Name)
	}
	createSQL := `CREATE TABLE IF NOT EXISTS ` + migrationTable + ` (
		name TEXT PRIMARY KEY,
		applied_at BIGINT NOT NULL
	)`
	if _, err := s.db.ExecContext(ctx, createSQL); err != nil {
		return fmt.Errorf("%s: ensure migration table: %w", s.dialect.Name, err)
	}

	entries, err := fs.ReadDir(s.dialect.Migrations, ".")
	if err != nil {
		return fmt.Errorf("%s: read migrations: %w", s.dialect.Name, err)
	}
	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)

	for _, name := range files {
		applied, err := s.migrationApplied(ctx, name)
		if err != nil {
			return fmt.Errorf("%s: check migration %s: %w", s.dialect.Name, name, err)
		}
		if applied {
			continue
		}
		content, err := fs.ReadFile(s.dialect.Migrations, name)
		if err != nil {
			return fmt.Errorf("%s: read migration %s: %w", s.dialect.Name, name, err)
		}
		if err := s.applyMigration(ctx, name, ExtractUpMigration(string(content))); err != nil {
			return err
		}
		s.logger.Info("migration applied", "dialect", s.dialect.Name, "migration", name)
	}
	return nil
}

func (s *Store) applyMigration(ctx context.Context, name, upSQL string) (retErr error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: begin migration %s: %w", s.dialect.Name, name, err)
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()
	for _, stmt := range SplitStatements(upSQL) {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("%s: exec migration %s: %w", s.dialect.Name, name, err)
		}
	}
	record := s.dialect.Rebind(`INSERT INTO ` + migrationTable + ` (name, applied_at) VALUES (?, ?)`)
	if _, err := tx.ExecContext(ctx, record, name, time.Now().UTC().UnixMilli()); err != nil {
		return fmt.Errorf("%s: record migration %s: %w", s.dialect.Name, name, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: commit migration %s: %w", s.dialect.Name, name, err)
	}
	return nil
}

func (s *Store) migrationApplied(ctx context.Context, name string) (bool, error) {
	var found int
	query := s.dialect.Rebind(`SELECT 1 FROM ` + migrationTable + ` WHERE name = ?`)
	err := s.db.QueryRowContext(ctx, query, name).Scan(&found)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// ExtractUpMigration returns the SQL in the "-- +migrate Up" section, or the
// whole content when the file has no section markers.
func ExtractUpMigration(content string) string {
	upIdx := strings.Index(content, "-- +migrate Up")
	if upIdx == -1 {
		return content
	}
	downIdx := strings.Index(content, "-- +migrate Down")
	if downIdx == -1 {
		return content[upIdx+len("-- +migrate Up"):]
	}
	return content[upIdx+len("-- +migrate Up") : downIdx]
}

// SplitStatements splits a migration into individual statements on
// semicolons, dropping blank and comment-only fragments.
func SplitStatements(script string) []string {
	var out []string
	for _, part := range strings.Split(script, ";") {
		stmt := strings.TrimSpace(stripLineComments(part))
		if stmt == "" {
			continue
		}
		out = append(out, stmt)
	}
	return out
}

func stripLineComments(s string) string {
	lines := strings.Split(s, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "--") {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}
