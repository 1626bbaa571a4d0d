package memory

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"recipekeeper/internal/infra/persistence/storetest"
	"recipekeeper/pkg/domain"
)

func TestStoreContract(t *testing.T) {
	storetest.Run(t, func(*testing.T) domain.Store { return NewStore() })
}

func TestStoreExportImportRoundTrip(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	if err := store.CreateCollection(ctx, "alice", "Sandwiches"); err != nil {
		t.Fatalf("create collection: %v", err)
	}
	collectionID, _ := store.FindCollectionIDByTitle(ctx, "alice", "Sandwiches")
	if err := store.CreateRecipe(ctx, "alice", collectionID, domain.RecipeInput{Title: "BLT", PrepTime: 10, TotalTime: 10, Instructions: "Stack."}); err != nil {
		t.Fatalf("create recipe: %v", err)
	}
	recipeID, _ := store.FindRecipeID(ctx, "alice", "BLT", collectionID)
	if err := store.CreateIngredient(ctx, "alice", recipeID, domain.IngredientInput{Name: "Bacon", Quantity: "2", Unit: "pieces"}); err != nil {
		t.Fatalf("create ingredient: %v", err)
	}

	snapshot := store.ExportState()
	raw, err := json.Marshal(snapshot)
	if err != nil {
		t.Fatalf("marshal snapshot: %v", err)
	}
	var decoded Snapshot
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("unmarshal snapshot: %v", err)
	}

	store.ImportState(Snapshot{})
	if _, err := store.LoadCollection(ctx, "alice", collectionID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected cleared state, got %v", err)
	}
	store.ImportState(decoded)
	r, err := store.LoadRecipe(ctx, "alice", collectionID, recipeID)
	if err != nil {
		t.Fatalf("load restored recipe: %v", err)
	}
	if len(r.Ingredients) != 1 || r.Ingredients[0].Name != "Bacon" {
		t.Fatalf("unexpected restored ingredients: %+v", r.Ingredients)
	}
}

func TestImportStateAdvancesSequences(t *testing.T) {
	store := NewStore()
	store.ImportState(Snapshot{
		Collections: map[int64]Collection{
			7: {ID: 7, Title: "Imported", Username: "alice"},
		},
	})
	ctx := context.Background()
	if err := store.CreateCollection(ctx, "alice", "Fresh"); err != nil {
		t.Fatalf("create: %v", err)
	}
	id, err := store.FindCollectionIDByTitle(ctx, "alice", "Fresh")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if id != 8 {
		t.Fatalf("expected id 8 after imported id 7, got %d", id)
	}
}

func TestExportStateIsIsolatedFromStore(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	if err := store.CreateCollection(ctx, "alice", "Original"); err != nil {
		t.Fatalf("create: %v", err)
	}
	snapshot := store.ExportState()
	for id, c := range snapshot.Collections {
		c.Title = "Mutated"
		snapshot.Collections[id] = c
	}
	if _, err := store.FindCollectionIDByTitle(ctx, "alice", "Original"); err != nil {
		t.Fatalf("store affected by snapshot mutation: %v", err)
	}
}

func TestFailedUpdateLeavesStateUntouched(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	if err := store.CreateCollection(ctx, "alice", "Dinners"); err != nil {
		t.Fatalf("create: %v", err)
	}
	before := store.ExportState()
	id, _ := store.FindCollectionIDByTitle(ctx, "alice", "Dinners")
	err := store.CreateRecipe(ctx, "alice", id, domain.RecipeInput{Title: "Stew", PrepTime: 45, TotalTime: 30, Instructions: "Simmer."})
	if !errors.Is(err, domain.ErrTimeConstraint) {
		t.Fatalf("expected time constraint, got %v", err)
	}
	after := store.ExportState()
	if after.Sequences != before.Sequences || len(after.Recipes) != 0 {
		t.Fatalf("rejected write leaked into state: %+v", after)
	}
}

func TestCanceledContext(t *testing.T) {
	store := NewStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := store.CreateCollection(ctx, "alice", "Late"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected canceled write, got %v", err)
	}
	if _, err := store.ListCollections(ctx, "alice", 1); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected canceled read, got %v", err)
	}
}
