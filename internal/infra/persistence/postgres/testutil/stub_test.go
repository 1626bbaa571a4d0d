package testutil

import (
	"context"
	"database/sql/driver"
	"errors"
	"testing"
)

func TestStubConnRecordsStatementsAndInjectsErrors(t *testing.T) {
	ctx := context.Background()
	_, conn := NewStubDB()

	if err := conn.Ping(ctx); err != nil {
		t.Fatalf("Ping: %v", err)
	}

	_, err := conn.ExecContext(ctx, "INSERT INTO recipeCollections (title, username) VALUES ($1, $2)", []driver.NamedValue{
		{Value: "Soups"},
		{Value: "alice"},
	})
	if err != nil {
		t.Fatalf("ExecContext insert: %v", err)
	}
	stmt, ok := conn.LastExec("recipeCollections")
	if !ok || len(stmt.Args) != 2 || stmt.Args[0] != "Soups" {
		t.Fatalf("expected recorded insert, got %+v", stmt)
	}

	boom := errors.New("boom")
	conn.ExecErrors["DELETE FROM recipes"] = boom
	if _, err := conn.ExecContext(ctx, "DELETE FROM recipes WHERE id = $1", nil); !errors.Is(err, boom) {
		t.Fatalf("expected injected error, got %v", err)
	}

	conn.QueryRows["FROM users"] = [][]driver.Value{{"alice", "hash"}}
	rows, err := conn.QueryContext(ctx, "SELECT username, password FROM users WHERE username = $1", nil)
	if err != nil {
		t.Fatalf("QueryContext: %v", err)
	}
	defer func() { _ = rows.Close() }()

	if got := len(rows.Columns()); got != 2 {
		t.Fatalf("expected 2 columns, got %d", got)
	}
	dest := make([]driver.Value, 2)
	if err := rows.Next(dest); err != nil {
		t.Fatalf("Next: %v", err)
	}
	if dest[0] != "alice" || dest[1] != "hash" {
		t.Fatalf("unexpected row values: %v", dest)
	}
}
