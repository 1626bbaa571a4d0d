package blob

import (
	"testing"

	"recipekeeper/testutil"
)

// TestOnlyBlobPackageImportsInfra keeps the infra backends behind blob.Open.
func TestOnlyBlobPackageImportsInfra(t *testing.T) {
	testutil.AssertImportedOnlyBy(t, testutil.ModulePath+"/...",
		testutil.ModulePath+"/internal/infra/blob",
		testutil.ModulePath+"/internal/blob",
	)
}
