package core

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"recipekeeper/internal/infra/persistence/memory"
	"recipekeeper/pkg/domain"
)

const testUser = "admin"

func newTestService(t *testing.T) *Service {
	t.Helper()
	return NewService(memory.NewStore())
}

func bananaBread() RecipeForm {
	return RecipeForm{
		Title:        "Banana Bread",
		PrepTime:     15,
		TotalTime:    30,
		Instructions: "Mash and bake.",
		Ingredients: []IngredientForm{
			{Name: "Banana", Quantity: "2", Unit: "bananas"},
			{Name: "Bread", Quantity: "1", Unit: "loaf"},
		},
	}
}

func TestCreateCollectionReturnsID(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	id, err := svc.CreateCollection(ctx, testUser, "  Keto recipes  ")
	if err != nil {
		t.Fatalf("create collection: %v", err)
	}
	c, err := svc.Store().LoadCollection(ctx, testUser, id)
	if err != nil {
		t.Fatalf("load collection: %v", err)
	}
	if c.Title != "Keto recipes" {
		t.Fatalf("expected trimmed title, got %q", c.Title)
	}
}

func TestCreateCollectionRejectsDuplicateAndBlank(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	if _, err := svc.CreateCollection(ctx, testUser, "Sandwiches"); err != nil {
		t.Fatalf("create collection: %v", err)
	}
	_, err := svc.CreateCollection(ctx, testUser, "Sandwiches")
	if !errors.Is(err, domain.ErrDuplicateTitle) {
		t.Fatalf("expected duplicate title, got %v", err)
	}
	if got := Message(err); got != MsgCollectionTitleUnique {
		t.Fatalf("unexpected message %q", got)
	}
	_, err = svc.CreateCollection(ctx, testUser, "   ")
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
	if got := Message(err); got != MsgCollectionTitleRequired {
		t.Fatalf("unexpected message %q", got)
	}
}

func TestRenameCollectionKeepsOwnTitle(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	first, _ := svc.CreateCollection(ctx, testUser, "Keto recipes")
	if _, err := svc.CreateCollection(ctx, testUser, "Sandwiches"); err != nil {
		t.Fatalf("create collection: %v", err)
	}
	if err := svc.RenameCollection(ctx, testUser, first, "Keto recipes"); err != nil {
		t.Fatalf("rename to own title: %v", err)
	}
	err := svc.RenameCollection(ctx, testUser, first, "Sandwiches")
	if !errors.Is(err, domain.ErrDuplicateTitle) {
		t.Fatalf("expected duplicate title, got %v", err)
	}
	if err := svc.RenameCollection(ctx, testUser, first, "Low carb"); err != nil {
		t.Fatalf("rename: %v", err)
	}
	if err := svc.RenameCollection(ctx, "developer", first, "Stolen"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found for foreign user, got %v", err)
	}
}

func TestCollectionsFallsBackToFirstPage(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	for i := 0; i < 7; i++ {
		if _, err := svc.CreateCollection(ctx, testUser, fmt.Sprintf("Collection %d", i)); err != nil {
			t.Fatalf("create collection: %v", err)
		}
	}
	page, err := svc.Collections(ctx, testUser, 9)
	if err != nil {
		t.Fatalf("collections: %v", err)
	}
	if page.Page != 1 || len(page.Collections) != domain.PageSize {
		t.Fatalf("expected fallback to full first page, got page %d with %d", page.Page, len(page.Collections))
	}
	if page.PageCount != 2 || len(page.Pages) != 2 {
		t.Fatalf("expected two pages, got %+v", page.Pages)
	}
	second, err := svc.Collections(ctx, testUser, 2)
	if err != nil {
		t.Fatalf("collections page 2: %v", err)
	}
	if second.Page != 2 || len(second.Collections) != 2 {
		t.Fatalf("unexpected second page %+v", second)
	}
}

func TestCollectionsEmptyBook(t *testing.T) {
	svc := newTestService(t)
	page, err := svc.Collections(context.Background(), testUser, 3)
	if err != nil {
		t.Fatalf("collections: %v", err)
	}
	if len(page.Collections) != 0 || page.PageCount != 0 || page.Page != 1 {
		t.Fatalf("unexpected empty page %+v", page)
	}
}

func TestCreateRecipeAttachesIngredients(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	cid, _ := svc.CreateCollection(ctx, testUser, "Keto recipes")
	rid, err := svc.CreateRecipe(ctx, testUser, cid, bananaBread())
	if err != nil {
		t.Fatalf("create recipe: %v", err)
	}
	r, err := svc.Recipe(ctx, testUser, cid, rid)
	if err != nil {
		t.Fatalf("load recipe: %v", err)
	}
	if r.Title != "Banana Bread" || len(r.Ingredients) != 2 {
		t.Fatalf("unexpected recipe %+v", r)
	}

	_, err = svc.CreateRecipe(ctx, testUser, cid, bananaBread())
	if got := Message(err); got != MsgRecipeTitleUnique {
		t.Fatalf("expected recipe uniqueness message, got %q (%v)", got, err)
	}

	late := bananaBread()
	late.Title = "Slow Bread"
	late.PrepTime, late.TotalTime = 45, 30
	_, err = svc.CreateRecipe(ctx, testUser, cid, late)
	if !errors.Is(err, domain.ErrTimeConstraint) || Message(err) != MsgTimeConstraint {
		t.Fatalf("expected time constraint, got %v", err)
	}
}

func TestCreateRecipeValidatesForm(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	cid, _ := svc.CreateCollection(ctx, testUser, "Keto recipes")
	_, err := svc.CreateRecipe(ctx, testUser, cid, RecipeForm{Title: " ", PrepTime: -1})
	msgs := Messages(err)
	if len(msgs) != 3 {
		t.Fatalf("expected three messages, got %v", msgs)
	}
	if msgs[0] != MsgRecipeTitleRequired || msgs[1] != MsgInstructionsRequired || msgs[2] != MsgNegativeTime {
		t.Fatalf("unexpected messages %v", msgs)
	}
}

func TestUpdateRecipeReplacesIngredients(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	cid, _ := svc.CreateCollection(ctx, testUser, "Keto recipes")
	rid, err := svc.CreateRecipe(ctx, testUser, cid, bananaBread())
	if err != nil {
		t.Fatalf("create recipe: %v", err)
	}
	form := bananaBread()
	form.PrepTime = 20
	form.Ingredients = []IngredientForm{{Name: "Walnut", Quantity: "1", Unit: "cup"}, {}}
	if err := svc.UpdateRecipe(ctx, testUser, cid, rid, form); err != nil {
		t.Fatalf("update recipe: %v", err)
	}
	r, err := svc.Recipe(ctx, testUser, cid, rid)
	if err != nil {
		t.Fatalf("load recipe: %v", err)
	}
	if r.PrepTime != 20 || len(r.Ingredients) != 1 || r.Ingredients[0].Name != "Walnut" {
		t.Fatalf("unexpected recipe after update %+v", r)
	}
}

func TestUpdateRecipeRejectsTakenTitle(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	cid, _ := svc.CreateCollection(ctx, testUser, "Keto recipes")
	if _, err := svc.CreateRecipe(ctx, testUser, cid, bananaBread()); err != nil {
		t.Fatalf("create recipe: %v", err)
	}
	other := bananaBread()
	other.Title = "Sourdough Bread"
	rid, err := svc.CreateRecipe(ctx, testUser, cid, other)
	if err != nil {
		t.Fatalf("create recipe: %v", err)
	}
	other.Title = "Banana Bread"
	err = svc.UpdateRecipe(ctx, testUser, cid, rid, other)
	if Message(err) != MsgRecipeTitleUnique {
		t.Fatalf("expected recipe title clash, got %v", err)
	}
	if err := svc.UpdateRecipe(ctx, testUser, cid, 999, bananaBread()); !errors.Is(err, domain.ErrDuplicateTitle) {
		t.Fatalf("title check precedes existence check, got %v", err)
	}
	fresh := bananaBread()
	fresh.Title = "Rye"
	if err := svc.UpdateRecipe(ctx, testUser, cid, 999, fresh); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestCollectionViewSortsAndFallsBack(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	cid, _ := svc.CreateCollection(ctx, testUser, "Breads")
	for _, title := range []string{"rye", "Brioche", "focaccia", "Ciabatta", "naan", "Pita"} {
		form := bananaBread()
		form.Title = title
		if _, err := svc.CreateRecipe(ctx, testUser, cid, form); err != nil {
			t.Fatalf("create %s: %v", title, err)
		}
	}
	view, err := svc.Collection(ctx, testUser, cid, 7)
	if err != nil {
		t.Fatalf("collection: %v", err)
	}
	if view.Page != 1 || view.PageCount != 2 {
		t.Fatalf("unexpected paging %+v", view)
	}
	want := []string{"Brioche", "Ciabatta", "focaccia", "naan", "Pita"}
	for i, title := range want {
		if view.Collection.Recipes[i].Title != title {
			t.Fatalf("position %d: got %q want %q", i, view.Collection.Recipes[i].Title, title)
		}
	}
	if _, err := svc.Collection(ctx, "developer", cid, 1); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found for foreign user, got %v", err)
	}
}

func TestDeleteFlows(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	cid, _ := svc.CreateCollection(ctx, testUser, "Sandwiches")
	form := bananaBread()
	form.Title = "BLT"
	rid, err := svc.CreateRecipe(ctx, testUser, cid, form)
	if err != nil {
		t.Fatalf("create recipe: %v", err)
	}
	if err := svc.DeleteRecipe(ctx, testUser, cid, rid); err != nil {
		t.Fatalf("delete recipe: %v", err)
	}
	if err := svc.DeleteRecipe(ctx, testUser, cid, rid); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found on second delete, got %v", err)
	}
	if err := svc.DeleteCollection(ctx, testUser, cid); err != nil {
		t.Fatalf("delete collection: %v", err)
	}
	if _, err := svc.Collection(ctx, testUser, cid, 1); Message(err) != MsgNotFound {
		t.Fatalf("expected not found message, got %v", err)
	}
}
