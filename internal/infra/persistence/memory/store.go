// Package memory provides an in-memory implementation of the recipe book
// store used for tests and ephemeral environments.
package memory

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"recipekeeper/pkg/domain"
)

// Compile-time contract assertion ensuring memory.Store adheres to the domain persistence interface.
var _ domain.Store = (*Store)(nil)

type (
	// Collection aliases domain.Collection for in-memory persistence operations.
	Collection = domain.Collection
	// Recipe aliases domain.Recipe.
	Recipe = domain.Recipe
	// Ingredient aliases domain.Ingredient.
	Ingredient = domain.Ingredient
	// User aliases domain.User.
	User = domain.User
)

type collectionRow struct {
	ID       int64  `json:"id"`
	Title    string `json:"title"`
	Username string `json:"username"`
}

type recipeRow struct {
	ID           int64  `json:"id"`
	CollectionID int64  `json:"collection_id"`
	Title        string `json:"title"`
	PrepTime     int    `json:"prep_time"`
	TotalTime    int    `json:"total_time"`
	Instructions string `json:"instructions"`
	Username     string `json:"username"`
}

// Sequences holds the next identifier per table. Identifiers are never reused.
type Sequences struct {
	Collections int64 `json:"collections"`
	Recipes     int64 `json:"recipes"`
	Ingredients int64 `json:"ingredients"`
}

type memoryState struct {
	users       map[string]User
	collections map[int64]collectionRow
	recipes     map[int64]recipeRow
	ingredients map[int64]Ingredient
	seq         Sequences
}

// Snapshot captures a point-in-time clone of the store state.
type Snapshot struct {
	Users       map[string]User      `json:"users"`
	Collections map[int64]Collection `json:"collections"`
	Recipes     map[int64]Recipe     `json:"recipes"`
	Ingredients map[int64]Ingredient `json:"ingredients"`
	Sequences   Sequences            `json:"sequences"`
}

func newMemoryState() memoryState {
	return memoryState{
		users:       make(map[string]User),
		collections: make(map[int64]collectionRow),
		recipes:     make(map[int64]recipeRow),
		ingredients: make(map[int64]Ingredient),
	}
}

func (s memoryState) clone() memoryState {
	cloned := newMemoryState()
	for k, v := range s.users {
		cloned.users[k] = v
	}
	for k, v := range s.collections {
		cloned.collections[k] = v
	}
	for k, v := range s.recipes {
		cloned.recipes[k] = v
	}
	for k, v := range s.ingredients {
		cloned.ingredients[k] = v
	}
	cloned.seq = s.seq
	return cloned
}

func snapshotFromMemoryState(state memoryState) Snapshot {
	s := Snapshot{
		Users:       make(map[string]User, len(state.users)),
		Collections: make(map[int64]Collection, len(state.collections)),
		Recipes:     make(map[int64]Recipe, len(state.recipes)),
		Ingredients: make(map[int64]Ingredient, len(state.ingredients)),
		Sequences:   state.seq,
	}
	for k, v := range state.users {
		s.Users[k] = v
	}
	for k, v := range state.collections {
		s.Collections[k] = Collection{ID: v.ID, Title: v.Title, Username: v.Username}
	}
	for k, v := range state.recipes {
		s.Recipes[k] = v.toRecipe()
	}
	for k, v := range state.ingredients {
		s.Ingredients[k] = v
	}
	return s
}

func memoryStateFromSnapshot(s Snapshot) memoryState {
	state := newMemoryState()
	for k, v := range s.Users {
		state.users[k] = v
	}
	for k, v := range s.Collections {
		state.collections[k] = collectionRow{ID: v.ID, Title: v.Title, Username: v.Username}
	}
	for k, v := range s.Recipes {
		state.recipes[k] = recipeRow{
			ID:           v.ID,
			CollectionID: v.CollectionID,
			Title:        v.Title,
			PrepTime:     v.PrepTime,
			TotalTime:    v.TotalTime,
			Instructions: v.Instructions,
			Username:     v.Username,
		}
	}
	for k, v := range s.Ingredients {
		state.ingredients[k] = v
	}
	state.seq = s.Sequences
	// Older snapshots may predate sequences; never hand out an id already in use.
	for id := range state.collections {
		state.seq.Collections = max(state.seq.Collections, id)
	}
	for id := range state.recipes {
		state.seq.Recipes = max(state.seq.Recipes, id)
	}
	for id := range state.ingredients {
		state.seq.Ingredients = max(state.seq.Ingredients, id)
	}
	return state
}

func (r recipeRow) toRecipe() Recipe {
	return Recipe{
		ID:           r.ID,
		CollectionID: r.CollectionID,
		Title:        r.Title,
		PrepTime:     r.PrepTime,
		TotalTime:    r.TotalTime,
		Instructions: r.Instructions,
		Username:     r.Username,
	}
}

// Store provides an in-memory store for the recipe book.
type Store struct {
	mu     sync.RWMutex
	state  memoryState
	logger *slog.Logger
}

// Option configures the Store.
type Option func(*Store)

// WithLogger sets the logger for the store.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// NewStore constructs an empty in-memory store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		state:  newMemoryState(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ExportState clones the current store state for external persistence.
func (s *Store) ExportState() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshotFromMemoryState(s.state)
}

// ImportState replaces the store state with the provided snapshot.
func (s *Store) ImportState(snapshot Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = memoryStateFromSnapshot(snapshot)
	s.logger.Debug("state imported",
		"collections", len(s.state.collections),
		"recipes", len(s.state.recipes),
		"ingredients", len(s.state.ingredients))
}

// Ping always succeeds for the in-memory store.
func (s *Store) Ping(context.Context) error { return nil }

// Close is a no-op.
func (s *Store) Close() error { return nil }

// update applies fn to a copy of the state and commits it only when fn succeeds.
func (s *Store) update(ctx context.Context, fn func(state *memoryState) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.state.clone()
	if err := fn(&next); err != nil {
		return err
	}
	s.state = next
	return nil
}

// view runs fn against committed state under the read lock.
func (s *Store) view(ctx context.Context, fn func(state *memoryState) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(&s.state)
}

// Finders ---------------------------------------------------------------------

func (st *memoryState) ownedCollection(username string, id int64) (collectionRow, bool) {
	c, ok := st.collections[id]
	if !ok || c.Username != username {
		return collectionRow{}, false
	}
	return c, true
}

func (st *memoryState) ownedRecipe(username string, id int64) (recipeRow, bool) {
	r, ok := st.recipes[id]
	if !ok || r.Username != username {
		return recipeRow{}, false
	}
	return r, true
}

func (st *memoryState) collectionRecipes(collectionID int64) []Recipe {
	var out []Recipe
	for _, r := range st.recipes {
		if r.CollectionID == collectionID {
			out = append(out, r.toRecipe())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (st *memoryState) recipeIngredients(recipeID int64) []Ingredient {
	var out []Ingredient
	for _, ing := range st.ingredients {
		if ing.RecipeID == recipeID {
			out = append(out, ing)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (st *memoryState) userCollections(username string) []Collection {
	var out []Collection
	for _, c := range st.collections {
		if c.Username != username {
			continue
		}
		out = append(out, Collection{
			ID:       c.ID,
			Title:    c.Title,
			Username: c.Username,
			Recipes:  st.collectionRecipes(c.ID),
		})
	}
	return out
}

func (st *memoryState) collectionTitleTaken(username, title string, excludeID int64) bool {
	for _, c := range st.collections {
		if c.Username == username && c.Title == title && c.ID != excludeID {
			return true
		}
	}
	return false
}

func (st *memoryState) recipeTitleTaken(collectionID int64, title string, excludeID int64) bool {
	for _, r := range st.recipes {
		if r.CollectionID == collectionID && r.Title == title && r.ID != excludeID {
			return true
		}
	}
	return false
}

func (st *memoryState) deleteRecipeCascade(id int64) {
	for ingID, ing := range st.ingredients {
		if ing.RecipeID == id {
			delete(st.ingredients, ingID)
		}
	}
	delete(st.recipes, id)
}

// Collections -----------------------------------------------------------------

// ListCollections returns one page of the user's collections.
func (s *Store) ListCollections(ctx context.Context, username string, page int) ([]Collection, error) {
	var out []Collection
	err := s.view(ctx, func(st *memoryState) error {
		all := st.userCollections(username)
		start, end, err := domain.PageBounds(page, len(all))
		if err != nil {
			return fmt.Errorf("list collections page %d: %w", page, err)
		}
		domain.SortCollections(all)
		out = all[start:end:end]
		return nil
	})
	if out == nil && err == nil {
		out = []Collection{}
	}
	return out, err
}

// CollectionsPageCount returns the number of collection pages for the user.
func (s *Store) CollectionsPageCount(ctx context.Context, username string) (int, error) {
	var count int
	err := s.view(ctx, func(st *memoryState) error {
		for _, c := range st.collections {
			if c.Username == username {
				count++
			}
		}
		return nil
	})
	return domain.PageCount(count), err
}

// LoadCollection returns one collection with its recipes attached.
func (s *Store) LoadCollection(ctx context.Context, username string, id int64) (Collection, error) {
	var out Collection
	err := s.view(ctx, func(st *memoryState) error {
		c, ok := st.ownedCollection(username, id)
		if !ok {
			return domain.NotFoundError(domain.EntityCollection, id)
		}
		out = Collection{ID: c.ID, Title: c.Title, Username: c.Username, Recipes: st.collectionRecipes(id)}
		return nil
	})
	return out, err
}

// CreateCollection stores a new collection. Titles are unique per user by exact match.
func (s *Store) CreateCollection(ctx context.Context, username, title string) error {
	return s.update(ctx, func(st *memoryState) error {
		if st.collectionTitleTaken(username, title, 0) {
			return fmt.Errorf("collection %q: %w", title, domain.ErrDuplicateTitle)
		}
		st.seq.Collections++
		id := st.seq.Collections
		st.collections[id] = collectionRow{ID: id, Title: title, Username: username}
		s.logger.Debug("collection created", "username", username, "collection_id", id)
		return nil
	})
}

// RenameCollection sets a new title on an existing collection.
func (s *Store) RenameCollection(ctx context.Context, username string, id int64, title string) error {
	return s.update(ctx, func(st *memoryState) error {
		c, ok := st.ownedCollection(username, id)
		if !ok {
			return domain.NotFoundError(domain.EntityCollection, id)
		}
		if st.collectionTitleTaken(username, title, id) {
			return fmt.Errorf("collection %q: %w", title, domain.ErrDuplicateTitle)
		}
		c.Title = title
		st.collections[id] = c
		return nil
	})
}

// DeleteCollection removes a collection with its recipes and ingredients.
func (s *Store) DeleteCollection(ctx context.Context, username string, id int64) error {
	return s.update(ctx, func(st *memoryState) error {
		if _, ok := st.ownedCollection(username, id); !ok {
			return domain.NotFoundError(domain.EntityCollection, id)
		}
		for recipeID, r := range st.recipes {
			if r.CollectionID == id {
				st.deleteRecipeCascade(recipeID)
			}
		}
		delete(st.collections, id)
		return nil
	})
}

// FindCollectionIDByTitle locates a collection by exact title.
func (s *Store) FindCollectionIDByTitle(ctx context.Context, username, title string) (int64, error) {
	var id int64
	err := s.view(ctx, func(st *memoryState) error {
		for _, c := range st.collections {
			if c.Username == username && c.Title == title {
				id = c.ID
				return nil
			}
		}
		return domain.NotFoundError(domain.EntityCollection, title)
	})
	return id, err
}

// Recipes ---------------------------------------------------------------------

// ListRecipes returns one page of a collection's recipes.
func (s *Store) ListRecipes(ctx context.Context, username string, collectionID int64, page int) ([]Recipe, error) {
	var out []Recipe
	err := s.view(ctx, func(st *memoryState) error {
		if _, ok := st.ownedCollection(username, collectionID); !ok {
			return domain.NotFoundError(domain.EntityCollection, collectionID)
		}
		all := st.collectionRecipes(collectionID)
		start, end, err := domain.PageBounds(page, len(all))
		if err != nil {
			return fmt.Errorf("list recipes page %d: %w", page, err)
		}
		domain.SortRecipes(all)
		out = all[start:end:end]
		return nil
	})
	if out == nil && err == nil {
		out = []Recipe{}
	}
	return out, err
}

// RecipesPageCount returns the number of recipe pages in a collection.
func (s *Store) RecipesPageCount(ctx context.Context, username string, collectionID int64) (int, error) {
	var count int
	err := s.view(ctx, func(st *memoryState) error {
		if _, ok := st.ownedCollection(username, collectionID); !ok {
			return domain.NotFoundError(domain.EntityCollection, collectionID)
		}
		for _, r := range st.recipes {
			if r.CollectionID == collectionID {
				count++
			}
		}
		return nil
	})
	return domain.PageCount(count), err
}

// LoadRecipe returns one recipe with its ingredients attached.
func (s *Store) LoadRecipe(ctx context.Context, username string, collectionID, recipeID int64) (Recipe, error) {
	var out Recipe
	err := s.view(ctx, func(st *memoryState) error {
		r, ok := st.ownedRecipe(username, recipeID)
		if !ok || r.CollectionID != collectionID {
			return domain.NotFoundError(domain.EntityRecipe, recipeID)
		}
		out = r.toRecipe()
		out.Ingredients = st.recipeIngredients(recipeID)
		return nil
	})
	return out, err
}

// CreateRecipe adds a recipe to one of the user's collections.
func (s *Store) CreateRecipe(ctx context.Context, username string, collectionID int64, in domain.RecipeInput) error {
	return s.update(ctx, func(st *memoryState) error {
		if _, ok := st.ownedCollection(username, collectionID); !ok {
			return domain.NotFoundError(domain.EntityCollection, collectionID)
		}
		if !in.WithinTime() {
			return fmt.Errorf("recipe %q: %w", in.Title, domain.ErrTimeConstraint)
		}
		if st.recipeTitleTaken(collectionID, in.Title, 0) {
			return fmt.Errorf("recipe %q: %w", in.Title, domain.ErrDuplicateTitle)
		}
		st.seq.Recipes++
		id := st.seq.Recipes
		st.recipes[id] = recipeRow{
			ID:           id,
			CollectionID: collectionID,
			Title:        in.Title,
			PrepTime:     in.PrepTime,
			TotalTime:    in.TotalTime,
			Instructions: in.Instructions,
			Username:     username,
		}
		return nil
	})
}

// UpdateRecipe overwrites a recipe's attributes, optionally moving it to
// another collection owned by the same user.
func (s *Store) UpdateRecipe(ctx context.Context, username string, recipeID, collectionID int64, in domain.RecipeInput) error {
	return s.update(ctx, func(st *memoryState) error {
		r, ok := st.ownedRecipe(username, recipeID)
		if !ok {
			return domain.NotFoundError(domain.EntityRecipe, recipeID)
		}
		if _, ok := st.ownedCollection(username, collectionID); !ok {
			return domain.NotFoundError(domain.EntityCollection, collectionID)
		}
		if !in.WithinTime() {
			return fmt.Errorf("recipe %q: %w", in.Title, domain.ErrTimeConstraint)
		}
		if st.recipeTitleTaken(collectionID, in.Title, recipeID) {
			return fmt.Errorf("recipe %q: %w", in.Title, domain.ErrDuplicateTitle)
		}
		r.CollectionID = collectionID
		r.Title = in.Title
		r.PrepTime = in.PrepTime
		r.TotalTime = in.TotalTime
		r.Instructions = in.Instructions
		st.recipes[recipeID] = r
		return nil
	})
}

// DeleteRecipe removes a recipe and its ingredients.
func (s *Store) DeleteRecipe(ctx context.Context, username string, collectionID, recipeID int64) error {
	return s.update(ctx, func(st *memoryState) error {
		r, ok := st.ownedRecipe(username, recipeID)
		if !ok || r.CollectionID != collectionID {
			return domain.NotFoundError(domain.EntityRecipe, recipeID)
		}
		st.deleteRecipeCascade(recipeID)
		return nil
	})
}

// FindRecipeID locates a recipe by exact title within a collection.
func (s *Store) FindRecipeID(ctx context.Context, username, title string, collectionID int64) (int64, error) {
	var id int64
	err := s.view(ctx, func(st *memoryState) error {
		for _, r := range st.recipes {
			if r.Username == username && r.CollectionID == collectionID && r.Title == title {
				id = r.ID
				return nil
			}
		}
		return domain.NotFoundError(domain.EntityRecipe, title)
	})
	return id, err
}

// RecipeTitleExistsInCollection reports whether another recipe in the collection uses title.
func (s *Store) RecipeTitleExistsInCollection(ctx context.Context, username, title string, collectionID, excludeRecipeID int64) (bool, error) {
	var exists bool
	err := s.view(ctx, func(st *memoryState) error {
		if _, ok := st.ownedCollection(username, collectionID); !ok {
			return nil
		}
		exists = st.recipeTitleTaken(collectionID, title, excludeRecipeID)
		return nil
	})
	return exists, err
}

// Ingredients -----------------------------------------------------------------

// CreateIngredient appends an ingredient to one of the user's recipes.
func (s *Store) CreateIngredient(ctx context.Context, username string, recipeID int64, in domain.IngredientInput) error {
	return s.update(ctx, func(st *memoryState) error {
		if _, ok := st.ownedRecipe(username, recipeID); !ok {
			return domain.NotFoundError(domain.EntityRecipe, recipeID)
		}
		st.seq.Ingredients++
		id := st.seq.Ingredients
		st.ingredients[id] = Ingredient{
			ID:       id,
			RecipeID: recipeID,
			Name:     in.Name,
			Quantity: in.Quantity,
			Unit:     in.Unit,
			Username: username,
		}
		return nil
	})
}

// DeleteAllIngredients clears the ingredient list of one of the user's recipes.
func (s *Store) DeleteAllIngredients(ctx context.Context, username string, recipeID int64) error {
	return s.update(ctx, func(st *memoryState) error {
		for id, ing := range st.ingredients {
			if ing.RecipeID == recipeID && ing.Username == username {
				delete(st.ingredients, id)
			}
		}
		return nil
	})
}

// Users -----------------------------------------------------------------------

// CreateUser stores a new account. Usernames are unique.
func (s *Store) CreateUser(ctx context.Context, user User) error {
	return s.update(ctx, func(st *memoryState) error {
		if _, exists := st.users[user.Username]; exists {
			return fmt.Errorf("user %q: %w", user.Username, domain.ErrUserExists)
		}
		st.users[user.Username] = user
		return nil
	})
}

// FindUser retrieves an account by username.
func (s *Store) FindUser(ctx context.Context, username string) (User, error) {
	var out User
	err := s.view(ctx, func(st *memoryState) error {
		u, ok := st.users[username]
		if !ok {
			return domain.NotFoundError(domain.EntityUser, username)
		}
		out = u
		return nil
	})
	return out, err
}
