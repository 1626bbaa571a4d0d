package testutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/tools/go/packages"
)

type recordingT struct {
	msg string
}

func (r *recordingT) Fatalf(format string, args ...any) { r.msg = fmt.Sprintf(format, args...) }

func TestPredicates(t *testing.T) {
	cases := []struct {
		fn   func(string) bool
		in   string
		want bool
	}{
		{InternalImportForbidden, "recipekeeper/internal/core", true},
		{InternalImportForbidden, "recipekeeper/pkg/domain", false},
		{DriverImportForbidden, "github.com/jackc/pgx/v5/stdlib", true},
		{DriverImportForbidden, "modernc.org/sqlite", true},
		{DriverImportForbidden, "github.com/aws/aws-sdk-go-v2/service/s3", true},
		{DriverImportForbidden, "database/sql", true},
		{DriverImportForbidden, "database/sqlx", false},
		{DriverImportForbidden, "context", false},
	}
	for _, c := range cases {
		if got := c.fn(c.in); got != c.want {
			t.Fatalf("predicate(%q)=%v want %v", c.in, got, c.want)
		}
	}
	if !UnderPrefix("recipekeeper/internal/blob/core", "recipekeeper/internal/blob") || UnderPrefix("recipekeeper/internal/blobby", "recipekeeper/internal/blob") {
		t.Fatalf("UnderPrefix must match whole path segments")
	}
}

func TestOutsideAllowlist(t *testing.T) {
	forbidden := OutsideAllowlist("modernc.org/sqlite", "recipekeeper/pkg/domain")
	for path, want := range map[string]bool{
		"context":                    false,
		"database/sql/driver":        false,
		"modernc.org/sqlite":         false,
		"modernc.org/sqlite/lib":     true,
		"recipekeeper/pkg/domain":    false,
		"recipekeeper/internal/core": true,
		"github.com/jackc/pgx/v5":    true,
	} {
		if got := forbidden(path); got != want {
			t.Fatalf("OutsideAllowlist(%q)=%v want %v", path, got, want)
		}
	}
	if IsStdlib("recipekeeper") || !IsStdlib("net/http") {
		t.Fatalf("IsStdlib misclassified module or stdlib path")
	}
}

func TestAssertNoDirectImportsIgnoresTestsAndSubdirs(t *testing.T) {
	dir := t.TempDir()
	write := func(rel, src string) {
		t.Helper()
		path := filepath.Join(dir, rel)
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(path, []byte(src), 0o600); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	write("x.go", "package tmp\nimport \"fmt\"\nfunc X() { fmt.Println(1) }\n")
	write("x_test.go", "package tmp\nimport \"forbidden/pkg\"\n")
	write("sub/y.go", "package sub\nimport \"forbidden/pkg\"\n")
	write("notes.txt", "import \"forbidden/pkg\"")
	AssertNoDirectImports(t, dir, func(p string) bool { return p == "forbidden/pkg" }, "none")
}

func TestDirectImportViolationsReported(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.go"), []byte("package a\nimport \"recipekeeper/internal/core\"\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	viols, err := directImportViolations(dir, InternalImportForbidden)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(viols) != 1 || !strings.Contains(viols[0], "a.go") {
		t.Fatalf("unexpected violations %v", viols)
	}
	rec := &recordingT{}
	failIfViolations(rec, "direct imports", "domain stays pure", viols)
	if !strings.Contains(rec.msg, "domain stays pure") {
		t.Fatalf("expected reason in failure, got %q", rec.msg)
	}
	if _, err := directImportViolations(filepath.Join(dir, "missing"), InternalImportForbidden); err == nil {
		t.Fatalf("expected error for missing dir")
	}
}

func withPackages(t *testing.T, pkgs []*packages.Package, err error) {
	t.Helper()
	prev := loadPackages
	loadPackages = func(*packages.Config, string) ([]*packages.Package, error) { return pkgs, err }
	t.Cleanup(func() { loadPackages = prev })
}

func TestTransitiveViolations(t *testing.T) {
	driver := &packages.Package{PkgPath: "github.com/jackc/pgx/v5"}
	store := &packages.Package{PkgPath: "recipekeeper/internal/infra/persistence/postgres", Imports: map[string]*packages.Package{driver.PkgPath: driver}}
	root := &packages.Package{PkgPath: "recipekeeper/internal/core", Imports: map[string]*packages.Package{store.PkgPath: store}}
	withPackages(t, []*packages.Package{root}, nil)
	viols, err := transitiveViolations("recipekeeper/internal/core", DriverImportForbidden)
	if err != nil {
		t.Fatalf("transitive: %v", err)
	}
	if len(viols) != 1 || viols[0] != driver.PkgPath {
		t.Fatalf("unexpected violations %v", viols)
	}
}

func TestImporterViolations(t *testing.T) {
	infra := &packages.Package{PkgPath: "recipekeeper/internal/infra/blob/fs"}
	pkgs := []*packages.Package{
		{PkgPath: "recipekeeper/internal/blob", Imports: map[string]*packages.Package{infra.PkgPath: infra}},
		{PkgPath: "recipekeeper/internal/backup", Imports: map[string]*packages.Package{infra.PkgPath: infra}},
		infra,
	}
	withPackages(t, pkgs, nil)
	viols, err := importerViolations("recipekeeper/...", "recipekeeper/internal/infra/blob", []string{"recipekeeper/internal/blob"})
	if err != nil {
		t.Fatalf("importers: %v", err)
	}
	if len(viols) != 1 || !strings.HasPrefix(viols[0], "recipekeeper/internal/backup: ") {
		t.Fatalf("unexpected violations %v", viols)
	}
	withPackages(t, nil, errors.New("go list failed"))
	if _, err := importerViolations("recipekeeper/...", "x", nil); err == nil {
		t.Fatalf("expected load error")
	}
}
