package sqlite

import (
	"testing"

	"recipekeeper/testutil"
)

func TestSQLiteStoreImports(t *testing.T) {
	testutil.AssertNoDirectImports(t, ".",
		testutil.OutsideAllowlist(
			"modernc.org/sqlite",
			"modernc.org/sqlite/lib",
			testutil.ModulePath+"/pkg/domain",
			testutil.ModulePath+"/internal/infra/persistence/sqlstore",
			testutil.ModulePath+"/internal/infra/persistence/sqlite/migrations",
		),
		"sqlite store uses the modernc driver and the shared sql layer only")
}
