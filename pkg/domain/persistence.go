package domain

import "context"

// PageSize is the number of items in one page of collections or recipes.
const PageSize = 5

// CollectionStore exposes collection operations scoped to a username.
type CollectionStore interface {
	// ListCollections returns one page of collections ordered by recipe count
	// descending, then case-folded title ascending.
	ListCollections(ctx context.Context, username string, page int) ([]Collection, error)
	CollectionsPageCount(ctx context.Context, username string) (int, error)
	// LoadCollection returns the collection with all of its recipes attached.
	LoadCollection(ctx context.Context, username string, id int64) (Collection, error)
	CreateCollection(ctx context.Context, username, title string) error
	RenameCollection(ctx context.Context, username string, id int64, title string) error
	// DeleteCollection removes the collection and, by cascade, its recipes and ingredients.
	DeleteCollection(ctx context.Context, username string, id int64) error
	FindCollectionIDByTitle(ctx context.Context, username, title string) (int64, error)
}

// RecipeStore exposes recipe operations scoped to a username.
type RecipeStore interface {
	// ListRecipes returns one page of a collection's recipes ordered by
	// case-folded title ascending.
	ListRecipes(ctx context.Context, username string, collectionID int64, page int) ([]Recipe, error)
	RecipesPageCount(ctx context.Context, username string, collectionID int64) (int, error)
	// LoadRecipe returns the recipe with all of its ingredients attached.
	LoadRecipe(ctx context.Context, username string, collectionID, recipeID int64) (Recipe, error)
	CreateRecipe(ctx context.Context, username string, collectionID int64, in RecipeInput) error
	UpdateRecipe(ctx context.Context, username string, recipeID, collectionID int64, in RecipeInput) error
	DeleteRecipe(ctx context.Context, username string, collectionID, recipeID int64) error
	FindRecipeID(ctx context.Context, username, title string, collectionID int64) (int64, error)
	// RecipeTitleExistsInCollection ignores the recipe identified by
	// excludeRecipeID so an edit may keep its own title. Zero excludes nothing.
	RecipeTitleExistsInCollection(ctx context.Context, username, title string, collectionID, excludeRecipeID int64) (bool, error)
}

// IngredientStore exposes ingredient operations scoped to a username.
type IngredientStore interface {
	CreateIngredient(ctx context.Context, username string, recipeID int64, in IngredientInput) error
	// DeleteAllIngredients clears a recipe's ingredient list. Deleting nothing succeeds.
	DeleteAllIngredients(ctx context.Context, username string, recipeID int64) error
}

// UserStore persists accounts.
type UserStore interface {
	CreateUser(ctx context.Context, user User) error
	FindUser(ctx context.Context, username string) (User, error)
}

// Store is the aggregate persistence interface implemented by every backend.
type Store interface {
	CollectionStore
	RecipeStore
	IngredientStore
	UserStore

	// Ping checks backend connectivity.
	Ping(ctx context.Context) error
	// Close releases backend resources.
	Close() error
}

// PageCount returns the number of pages needed for count items.
func PageCount(count int) int {
	if count <= 0 {
		return 0
	}
	return (count + PageSize - 1) / PageSize
}

// PageBounds validates page against count and returns the slice bounds of
// that page. Page one of an empty list is valid and empty.
func PageBounds(page, count int) (start, end int, err error) {
	if page < 1 {
		return 0, 0, ErrNotFound
	}
	if count == 0 && page == 1 {
		return 0, 0, nil
	}
	start = (page - 1) * PageSize
	if start >= count {
		return 0, 0, ErrNotFound
	}
	end = start + PageSize
	if end > count {
		end = count
	}
	return start, end, nil
}

// PageOffset returns the zero-based offset of the first item on page.
func PageOffset(page int) int { return (page - 1) * PageSize }
