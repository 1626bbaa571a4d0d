// Package storetest holds the behavioural contract every domain.Store backend
// must satisfy. Backend packages call Run from their own tests.
package storetest

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"recipekeeper/pkg/domain"
)

// Factory returns a fresh, empty store. Implementations register their own
// cleanup on t.
type Factory func(t *testing.T) domain.Store

const (
	alice = "alice"
	bob   = "bob"
)

// Run executes the full contract against stores produced by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Helper()
	cases := []struct {
		name string
		fn   func(*testing.T, domain.Store)
	}{
		{"CollectionsSortByRecipeCountThenTitle", testCollectionOrdering},
		{"CollectionPagination", testCollectionPagination},
		{"EmptyFirstPage", testEmptyFirstPage},
		{"DuplicateCollectionTitle", testDuplicateCollectionTitle},
		{"RenameCollection", testRenameCollection},
		{"RecipeTimeConstraint", testRecipeTimeConstraint},
		{"RecipeRequiresOwnedCollection", testRecipeRequiresOwnedCollection},
		{"DuplicateRecipeTitle", testDuplicateRecipeTitle},
		{"RecipePaginationSortedByTitle", testRecipePagination},
		{"NonASCIITitlesSortCaseInsensitively", testNonASCIITitleOrdering},
		{"UpdateRecipe", testUpdateRecipe},
		{"DeleteCollectionCascades", testDeleteCollectionCascades},
		{"DeleteRecipeCascades", testDeleteRecipeCascades},
		{"CrossUserIsolation", testCrossUserIsolation},
		{"ReplaceIngredients", testReplaceIngredients},
		{"FindByTitle", testFindByTitle},
		{"RecipeTitleExistsExcludesSelf", testRecipeTitleExists},
		{"IDsNeverReused", testIDsNeverReused},
		{"Users", testUsers},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tc.fn(t, newStore(t))
		})
	}
}

func mustCreateCollection(t *testing.T, s domain.Store, user, title string) int64 {
	t.Helper()
	ctx := context.Background()
	if err := s.CreateCollection(ctx, user, title); err != nil {
		t.Fatalf("create collection %q: %v", title, err)
	}
	id, err := s.FindCollectionIDByTitle(ctx, user, title)
	if err != nil {
		t.Fatalf("find collection %q: %v", title, err)
	}
	return id
}

func mustCreateRecipe(t *testing.T, s domain.Store, user string, collectionID int64, title string) int64 {
	t.Helper()
	ctx := context.Background()
	in := domain.RecipeInput{Title: title, PrepTime: 10, TotalTime: 20, Instructions: "Mix and bake."}
	if err := s.CreateRecipe(ctx, user, collectionID, in); err != nil {
		t.Fatalf("create recipe %q: %v", title, err)
	}
	id, err := s.FindRecipeID(ctx, user, title, collectionID)
	if err != nil {
		t.Fatalf("find recipe %q: %v", title, err)
	}
	return id
}

func mustAddIngredient(t *testing.T, s domain.Store, user string, recipeID int64, name string) {
	t.Helper()
	in := domain.IngredientInput{Name: name, Quantity: "1", Unit: "cups"}
	if err := s.CreateIngredient(context.Background(), user, recipeID, in); err != nil {
		t.Fatalf("create ingredient %q: %v", name, err)
	}
}

func titles(collections []domain.Collection) []string {
	out := make([]string, len(collections))
	for i, c := range collections {
		out[i] = c.Title
	}
	return out
}

func recipeTitles(recipes []domain.Recipe) []string {
	out := make([]string, len(recipes))
	for i, r := range recipes {
		out[i] = r.Title
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func testCollectionOrdering(t *testing.T, s domain.Store) {
	ctx := context.Background()
	keto := mustCreateCollection(t, s, alice, "keto recipes")
	sandwiches := mustCreateCollection(t, s, alice, "Sandwiches")
	mustCreateCollection(t, s, alice, "breakfast")
	mustCreateCollection(t, s, alice, "Appetizers")

	mustCreateRecipe(t, s, alice, keto, "Banana Bread")
	mustCreateRecipe(t, s, alice, keto, "Sourdough Bread")
	mustCreateRecipe(t, s, alice, sandwiches, "BLT")

	got, err := s.ListCollections(ctx, alice, 1)
	if err != nil {
		t.Fatalf("list collections: %v", err)
	}
	want := []string{"keto recipes", "Sandwiches", "Appetizers", "breakfast"}
	if !equalStrings(titles(got), want) {
		t.Fatalf("expected order %v, got %v", want, titles(got))
	}
	if got[0].Size() != 2 || got[1].Size() != 1 || got[2].Size() != 0 {
		t.Fatalf("unexpected recipe counts: %d %d %d", got[0].Size(), got[1].Size(), got[2].Size())
	}
	if got[0].Username != alice {
		t.Fatalf("expected owner %q, got %q", alice, got[0].Username)
	}
}

func testCollectionPagination(t *testing.T, s domain.Store) {
	ctx := context.Background()
	for i := 1; i <= 12; i++ {
		mustCreateCollection(t, s, alice, fmt.Sprintf("Collection %02d", i))
	}
	for page, want := range map[int]int{1: 5, 2: 5, 3: 2} {
		got, err := s.ListCollections(ctx, alice, page)
		if err != nil {
			t.Fatalf("page %d: %v", page, err)
		}
		if len(got) != want {
			t.Fatalf("page %d: expected %d collections, got %d", page, want, len(got))
		}
	}
	for _, page := range []int{4, 0, -1} {
		if _, err := s.ListCollections(ctx, alice, page); !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("page %d: expected not found, got %v", page, err)
		}
	}
	count, err := s.CollectionsPageCount(ctx, alice)
	if err != nil {
		t.Fatalf("page count: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected 3 pages, got %d", count)
	}
	first, _ := s.ListCollections(ctx, alice, 1)
	if first[0].Title != "Collection 01" {
		t.Fatalf("expected Collection 01 first, got %q", first[0].Title)
	}
}

func testEmptyFirstPage(t *testing.T, s domain.Store) {
	ctx := context.Background()
	got, err := s.ListCollections(ctx, alice, 1)
	if err != nil {
		t.Fatalf("list empty: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no collections, got %d", len(got))
	}
	if _, err := s.ListCollections(ctx, alice, 2); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected page 2 not found, got %v", err)
	}
	count, err := s.CollectionsPageCount(ctx, alice)
	if err != nil || count != 0 {
		t.Fatalf("expected 0 pages, got %d (%v)", count, err)
	}

	id := mustCreateCollection(t, s, alice, "Empty")
	recipes, err := s.ListRecipes(ctx, alice, id, 1)
	if err != nil {
		t.Fatalf("list empty recipes: %v", err)
	}
	if len(recipes) != 0 {
		t.Fatalf("expected no recipes, got %d", len(recipes))
	}
}

func testDuplicateCollectionTitle(t *testing.T, s domain.Store) {
	ctx := context.Background()
	mustCreateCollection(t, s, alice, "Desserts")
	err := s.CreateCollection(ctx, alice, "Desserts")
	if !errors.Is(err, domain.ErrDuplicateTitle) {
		t.Fatalf("expected duplicate title, got %v", err)
	}
	if !domain.IsExpected(err) {
		t.Fatalf("duplicate title should be an expected outcome: %v", err)
	}
	// exact-case comparison
	if err := s.CreateCollection(ctx, alice, "desserts"); err != nil {
		t.Fatalf("differently cased title rejected: %v", err)
	}
	if err := s.CreateCollection(ctx, bob, "Desserts"); err != nil {
		t.Fatalf("same title for another user rejected: %v", err)
	}
}

func testRenameCollection(t *testing.T, s domain.Store) {
	ctx := context.Background()
	id := mustCreateCollection(t, s, alice, "Soups")
	mustCreateCollection(t, s, alice, "Stews")
	if err := s.RenameCollection(ctx, alice, id, "Winter Soups"); err != nil {
		t.Fatalf("rename: %v", err)
	}
	c, err := s.LoadCollection(ctx, alice, id)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Title != "Winter Soups" {
		t.Fatalf("expected renamed title, got %q", c.Title)
	}
	if err := s.RenameCollection(ctx, alice, id, "Stews"); !errors.Is(err, domain.ErrDuplicateTitle) {
		t.Fatalf("expected duplicate title on rename, got %v", err)
	}
	if err := s.RenameCollection(ctx, alice, id+1000, "Missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found on rename, got %v", err)
	}
}

func testRecipeTimeConstraint(t *testing.T, s domain.Store) {
	ctx := context.Background()
	id := mustCreateCollection(t, s, alice, "Dinners")
	bad := domain.RecipeInput{Title: "Stew", PrepTime: 45, TotalTime: 30, Instructions: "Simmer."}
	err := s.CreateRecipe(ctx, alice, id, bad)
	if !errors.Is(err, domain.ErrTimeConstraint) {
		t.Fatalf("expected time constraint violation, got %v", err)
	}
	if _, err := s.FindRecipeID(ctx, alice, "Stew", id); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("rejected recipe should not be stored, got %v", err)
	}
	good := domain.RecipeInput{Title: "Stew", PrepTime: 30, TotalTime: 45, Instructions: "Simmer."}
	if err := s.CreateRecipe(ctx, alice, id, good); err != nil {
		t.Fatalf("valid recipe rejected: %v", err)
	}
	equal := domain.RecipeInput{Title: "Toast", PrepTime: 5, TotalTime: 5, Instructions: "Toast it."}
	if err := s.CreateRecipe(ctx, alice, id, equal); err != nil {
		t.Fatalf("prep equal to total rejected: %v", err)
	}
}

func testRecipeRequiresOwnedCollection(t *testing.T, s domain.Store) {
	ctx := context.Background()
	in := domain.RecipeInput{Title: "Orphan", PrepTime: 1, TotalTime: 2, Instructions: "None."}
	if err := s.CreateRecipe(ctx, alice, 9999, in); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found for missing collection, got %v", err)
	}
	bobs := mustCreateCollection(t, s, bob, "Bob's")
	if err := s.CreateRecipe(ctx, alice, bobs, in); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found for foreign collection, got %v", err)
	}
	if err := s.CreateIngredient(ctx, alice, 9999, domain.IngredientInput{Name: "Salt", Quantity: "1", Unit: "pinch"}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found for missing recipe, got %v", err)
	}
}

func testDuplicateRecipeTitle(t *testing.T, s domain.Store) {
	ctx := context.Background()
	first := mustCreateCollection(t, s, alice, "Breads")
	second := mustCreateCollection(t, s, alice, "Loaves")
	mustCreateRecipe(t, s, alice, first, "Focaccia")
	in := domain.RecipeInput{Title: "Focaccia", PrepTime: 1, TotalTime: 2, Instructions: "Bake."}
	if err := s.CreateRecipe(ctx, alice, first, in); !errors.Is(err, domain.ErrDuplicateTitle) {
		t.Fatalf("expected duplicate recipe title, got %v", err)
	}
	if err := s.CreateRecipe(ctx, alice, second, in); err != nil {
		t.Fatalf("same title in another collection rejected: %v", err)
	}
}

func testRecipePagination(t *testing.T, s domain.Store) {
	ctx := context.Background()
	id := mustCreateCollection(t, s, alice, "Everything")
	names := []string{"pancakes", "Apple Pie", "waffles", "Bagels", "crepes", "Donuts", "eclairs"}
	for _, name := range names {
		mustCreateRecipe(t, s, alice, id, name)
	}
	page1, err := s.ListRecipes(ctx, alice, id, 1)
	if err != nil {
		t.Fatalf("page 1: %v", err)
	}
	want := []string{"Apple Pie", "Bagels", "crepes", "Donuts", "eclairs"}
	if !equalStrings(recipeTitles(page1), want) {
		t.Fatalf("expected %v, got %v", want, recipeTitles(page1))
	}
	page2, err := s.ListRecipes(ctx, alice, id, 2)
	if err != nil {
		t.Fatalf("page 2: %v", err)
	}
	if !equalStrings(recipeTitles(page2), []string{"pancakes", "waffles"}) {
		t.Fatalf("unexpected page 2: %v", recipeTitles(page2))
	}
	if _, err := s.ListRecipes(ctx, alice, id, 3); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected page 3 not found, got %v", err)
	}
	if _, err := s.ListRecipes(ctx, alice, id, 0); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected page 0 not found, got %v", err)
	}
	count, err := s.RecipesPageCount(ctx, alice, id)
	if err != nil || count != 2 {
		t.Fatalf("expected 2 recipe pages, got %d (%v)", count, err)
	}
	if _, err := s.RecipesPageCount(ctx, bob, id); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found counting another user's recipes, got %v", err)
	}
}

func testNonASCIITitleOrdering(t *testing.T, s domain.Store) {
	ctx := context.Background()
	for _, title := range []string{"Éb", "éa"} {
		id := mustCreateCollection(t, s, alice, title)
		mustCreateRecipe(t, s, alice, id, "Ölkuchen")
		mustCreateRecipe(t, s, alice, id, "äpfel")
	}
	got, err := s.ListCollections(ctx, alice, 1)
	if err != nil {
		t.Fatalf("list collections: %v", err)
	}
	if want := []string{"éa", "Éb"}; !equalStrings(titles(got), want) {
		t.Fatalf("expected order %v, got %v", want, titles(got))
	}
	recipes, err := s.ListRecipes(ctx, alice, got[0].ID, 1)
	if err != nil {
		t.Fatalf("list recipes: %v", err)
	}
	if want := []string{"äpfel", "Ölkuchen"}; !equalStrings(recipeTitles(recipes), want) {
		t.Fatalf("expected order %v, got %v", want, recipeTitles(recipes))
	}
}

func testUpdateRecipe(t *testing.T, s domain.Store) {
	ctx := context.Background()
	id := mustCreateCollection(t, s, alice, "Mains")
	other := mustCreateCollection(t, s, alice, "Sides")
	recipeID := mustCreateRecipe(t, s, alice, id, "Roast")
	mustCreateRecipe(t, s, alice, id, "Curry")

	in := domain.RecipeInput{Title: "Slow Roast", PrepTime: 20, TotalTime: 240, Instructions: "Low and slow."}
	if err := s.UpdateRecipe(ctx, alice, recipeID, id, in); err != nil {
		t.Fatalf("update: %v", err)
	}
	r, err := s.LoadRecipe(ctx, alice, id, recipeID)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if r.Title != "Slow Roast" || r.PrepTime != 20 || r.TotalTime != 240 || r.Instructions != "Low and slow." {
		t.Fatalf("unexpected recipe after update: %+v", r)
	}

	// keeping its own title is allowed
	if err := s.UpdateRecipe(ctx, alice, recipeID, id, in); err != nil {
		t.Fatalf("update with unchanged title: %v", err)
	}
	clash := in
	clash.Title = "Curry"
	if err := s.UpdateRecipe(ctx, alice, recipeID, id, clash); !errors.Is(err, domain.ErrDuplicateTitle) {
		t.Fatalf("expected duplicate title on update, got %v", err)
	}
	late := in
	late.PrepTime = 500
	if err := s.UpdateRecipe(ctx, alice, recipeID, id, late); !errors.Is(err, domain.ErrTimeConstraint) {
		t.Fatalf("expected time constraint on update, got %v", err)
	}
	if err := s.UpdateRecipe(ctx, bob, recipeID, id, in); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found updating another user's recipe, got %v", err)
	}
	if err := s.UpdateRecipe(ctx, alice, recipeID, other, in); err != nil {
		t.Fatalf("move recipe: %v", err)
	}
	if _, err := s.LoadRecipe(ctx, alice, other, recipeID); err != nil {
		t.Fatalf("load moved recipe: %v", err)
	}
}

func testDeleteCollectionCascades(t *testing.T, s domain.Store) {
	ctx := context.Background()
	id := mustCreateCollection(t, s, alice, "Doomed")
	keep := mustCreateCollection(t, s, alice, "Kept")
	recipeID := mustCreateRecipe(t, s, alice, id, "Gone")
	mustAddIngredient(t, s, alice, recipeID, "Flour")
	keptRecipe := mustCreateRecipe(t, s, alice, keep, "Still Here")

	if err := s.DeleteCollection(ctx, alice, id); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.LoadCollection(ctx, alice, id); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected deleted collection not found, got %v", err)
	}
	if _, err := s.LoadRecipe(ctx, alice, id, recipeID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected cascaded recipe not found, got %v", err)
	}
	if err := s.CreateIngredient(ctx, alice, recipeID, domain.IngredientInput{Name: "Salt", Quantity: "1", Unit: "pinch"}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected cascaded recipe to reject ingredients, got %v", err)
	}
	if _, err := s.LoadRecipe(ctx, alice, keep, keptRecipe); err != nil {
		t.Fatalf("unrelated recipe affected: %v", err)
	}
	if err := s.DeleteCollection(ctx, alice, id); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found deleting twice, got %v", err)
	}
}

func testDeleteRecipeCascades(t *testing.T, s domain.Store) {
	ctx := context.Background()
	id := mustCreateCollection(t, s, alice, "Snacks")
	recipeID := mustCreateRecipe(t, s, alice, id, "Popcorn")
	mustAddIngredient(t, s, alice, recipeID, "Kernels")
	if err := s.DeleteRecipe(ctx, alice, id+1000, recipeID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found with wrong collection, got %v", err)
	}
	if err := s.DeleteRecipe(ctx, alice, id, recipeID); err != nil {
		t.Fatalf("delete recipe: %v", err)
	}
	if _, err := s.LoadRecipe(ctx, alice, id, recipeID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected deleted recipe not found, got %v", err)
	}
	c, err := s.LoadCollection(ctx, alice, id)
	if err != nil {
		t.Fatalf("load collection: %v", err)
	}
	if c.Size() != 0 {
		t.Fatalf("expected empty collection, got %d recipes", c.Size())
	}
}

func testCrossUserIsolation(t *testing.T, s domain.Store) {
	ctx := context.Background()
	id := mustCreateCollection(t, s, alice, "Private")
	recipeID := mustCreateRecipe(t, s, alice, id, "Secret Sauce")
	mustAddIngredient(t, s, alice, recipeID, "Mystery")

	if _, err := s.LoadCollection(ctx, bob, id); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("bob loaded alice's collection: %v", err)
	}
	if _, err := s.LoadRecipe(ctx, bob, id, recipeID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("bob loaded alice's recipe: %v", err)
	}
	if _, err := s.ListRecipes(ctx, bob, id, 1); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("bob listed alice's recipes: %v", err)
	}
	if err := s.RenameCollection(ctx, bob, id, "Mine"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("bob renamed alice's collection: %v", err)
	}
	if err := s.DeleteCollection(ctx, bob, id); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("bob deleted alice's collection: %v", err)
	}
	if err := s.DeleteRecipe(ctx, bob, id, recipeID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("bob deleted alice's recipe: %v", err)
	}
	if err := s.DeleteAllIngredients(ctx, bob, recipeID); err != nil {
		t.Fatalf("delete foreign ingredients should be a no-op: %v", err)
	}
	if _, err := s.FindCollectionIDByTitle(ctx, bob, "Private"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("bob found alice's collection by title: %v", err)
	}
	list, err := s.ListCollections(ctx, bob, 1)
	if err != nil || len(list) != 0 {
		t.Fatalf("bob sees %d collections (%v)", len(list), err)
	}
	r, err := s.LoadRecipe(ctx, alice, id, recipeID)
	if err != nil {
		t.Fatalf("alice load: %v", err)
	}
	if len(r.Ingredients) != 1 {
		t.Fatalf("alice's ingredients touched by bob: %d", len(r.Ingredients))
	}
}

func testReplaceIngredients(t *testing.T, s domain.Store) {
	ctx := context.Background()
	id := mustCreateCollection(t, s, alice, "Sandwiches")
	recipeID := mustCreateRecipe(t, s, alice, id, "BLT")
	for _, name := range []string{"Bacon", "Lettuce", "Tomato"} {
		mustAddIngredient(t, s, alice, recipeID, name)
	}
	if err := s.DeleteAllIngredients(ctx, alice, recipeID); err != nil {
		t.Fatalf("delete all: %v", err)
	}
	for _, name := range []string{"Turkey", "Mayo"} {
		mustAddIngredient(t, s, alice, recipeID, name)
	}
	r, err := s.LoadRecipe(ctx, alice, id, recipeID)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(r.Ingredients) != 2 || r.Ingredients[0].Name != "Turkey" || r.Ingredients[1].Name != "Mayo" {
		t.Fatalf("unexpected ingredients after replace: %+v", r.Ingredients)
	}
	for _, ing := range r.Ingredients {
		if ing.RecipeID != recipeID || ing.Username != alice || ing.Quantity != "1" || ing.Unit != "cups" {
			t.Fatalf("unexpected ingredient: %+v", ing)
		}
	}
	if err := s.DeleteAllIngredients(ctx, alice, recipeID+1000); err != nil {
		t.Fatalf("deleting nothing should succeed: %v", err)
	}
}

func testFindByTitle(t *testing.T, s domain.Store) {
	ctx := context.Background()
	id := mustCreateCollection(t, s, alice, "Lookups")
	if _, err := s.FindCollectionIDByTitle(ctx, alice, "lookups"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("title lookup should be exact-case, got %v", err)
	}
	recipeID := mustCreateRecipe(t, s, alice, id, "Needle")
	got, err := s.FindRecipeID(ctx, alice, "Needle", id)
	if err != nil || got != recipeID {
		t.Fatalf("expected recipe %d, got %d (%v)", recipeID, got, err)
	}
	if _, err := s.FindRecipeID(ctx, bob, "Needle", id); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("bob found alice's recipe: %v", err)
	}
}

func testRecipeTitleExists(t *testing.T, s domain.Store) {
	ctx := context.Background()
	id := mustCreateCollection(t, s, alice, "Checks")
	recipeID := mustCreateRecipe(t, s, alice, id, "Lasagna")
	exists, err := s.RecipeTitleExistsInCollection(ctx, alice, "Lasagna", id, 0)
	if err != nil || !exists {
		t.Fatalf("expected title to exist, got %v (%v)", exists, err)
	}
	exists, err = s.RecipeTitleExistsInCollection(ctx, alice, "Lasagna", id, recipeID)
	if err != nil || exists {
		t.Fatalf("own title should be excluded, got %v (%v)", exists, err)
	}
	exists, err = s.RecipeTitleExistsInCollection(ctx, alice, "Ravioli", id, 0)
	if err != nil || exists {
		t.Fatalf("unknown title reported as existing: %v (%v)", exists, err)
	}
	exists, err = s.RecipeTitleExistsInCollection(ctx, bob, "Lasagna", id, 0)
	if err != nil || exists {
		t.Fatalf("another user's title reported as existing: %v (%v)", exists, err)
	}
}

func testIDsNeverReused(t *testing.T, s domain.Store) {
	ctx := context.Background()
	first := mustCreateCollection(t, s, alice, "First")
	second := mustCreateCollection(t, s, alice, "Second")
	if err := s.DeleteCollection(ctx, alice, second); err != nil {
		t.Fatalf("delete: %v", err)
	}
	third := mustCreateCollection(t, s, alice, "Third")
	if third == first || third == second {
		t.Fatalf("id %d reused (first %d, second %d)", third, first, second)
	}
	if third <= second {
		t.Fatalf("expected monotonic ids, got %d after %d", third, second)
	}
}

func testUsers(t *testing.T, s domain.Store) {
	ctx := context.Background()
	user := domain.User{Username: "admin", PasswordHash: "$2a$10$hash"}
	if err := s.CreateUser(ctx, user); err != nil {
		t.Fatalf("create user: %v", err)
	}
	if err := s.CreateUser(ctx, user); !errors.Is(err, domain.ErrUserExists) {
		t.Fatalf("expected user exists, got %v", err)
	}
	got, err := s.FindUser(ctx, "admin")
	if err != nil {
		t.Fatalf("find user: %v", err)
	}
	if got != user {
		t.Fatalf("expected %+v, got %+v", user, got)
	}
	if _, err := s.FindUser(ctx, "nobody"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := s.Ping(ctx); err != nil {
		t.Fatalf("ping: %v", err)
	}
}
