package memory

import (
	"testing"

	"recipekeeper/testutil"
)

// TestMemoryStoreNeedsOnlyDomain keeps the in-process backend free of
// drivers and of the shared SQL layer.
func TestMemoryStoreNeedsOnlyDomain(t *testing.T) {
	testutil.AssertNoDirectImports(t, ".",
		testutil.OutsideAllowlist(testutil.ModulePath+"/pkg/domain"),
		"memory store depends on the domain contract alone")
}
