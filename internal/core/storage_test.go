package core

import (
	"context"
	"database/sql"
	"path/filepath"
	"strings"
	"testing"

	"recipekeeper/internal/config"
	"recipekeeper/internal/infra/persistence/memory"
	"recipekeeper/internal/infra/persistence/postgres"
	"recipekeeper/internal/infra/persistence/postgres/testutil"
	"recipekeeper/internal/infra/persistence/sqlite"
)

func TestOpenStoreMemory(t *testing.T) {
	store, err := OpenStore(context.Background(), config.Config{StorageDriver: config.StorageMemory}, nil)
	if err != nil {
		t.Fatalf("open memory: %v", err)
	}
	defer func() { _ = store.Close() }()
	if _, ok := store.(*memory.Store); !ok {
		t.Fatalf("expected memory store, got %T", store)
	}
}

func TestOpenStoreSQLiteIsDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "book.db")
	store, err := OpenStore(context.Background(), config.Config{SQLitePath: path}, nil)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	defer func() { _ = store.Close() }()
	s, ok := store.(*sqlite.Store)
	if !ok {
		t.Fatalf("expected sqlite store, got %T", store)
	}
	if s.Path() != path {
		t.Fatalf("expected path %s, got %s", path, s.Path())
	}
	if err := store.Ping(context.Background()); err != nil {
		t.Fatalf("ping: %v", err)
	}
}

func TestOpenStorePostgres(t *testing.T) {
	db, conn := testutil.NewStubDB()
	var gotDSN string
	restore := postgres.OverrideSQLOpen(func(_, dsn string) (*sql.DB, error) {
		gotDSN = dsn
		return db, nil
	})
	defer restore()
	cfg := config.Config{StorageDriver: config.StoragePostgres, PostgresDSN: "postgres://db/book"}
	store, err := OpenStore(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("open postgres: %v", err)
	}
	defer func() { _ = store.Close() }()
	if gotDSN != cfg.PostgresDSN {
		t.Fatalf("expected dsn %q, got %q", cfg.PostgresDSN, gotDSN)
	}
	if _, ok := store.(*postgres.Store); !ok {
		t.Fatalf("expected postgres store, got %T", store)
	}
	if len(conn.ExecQueries()) == 0 {
		t.Fatalf("expected migrations to run")
	}
}

func TestOpenStoreUnknownDriver(t *testing.T) {
	_, err := OpenStore(context.Background(), config.Config{StorageDriver: "mongo"}, nil)
	if err == nil || !strings.Contains(err.Error(), "unknown storage driver") {
		t.Fatalf("expected unknown driver error, got %v", err)
	}
}
