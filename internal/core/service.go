// Package core holds the recipe book service the route layer calls: form
// validation, paging with fallback, the create-then-locate flows and
// backend selection.
package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"recipekeeper/pkg/domain"
)

// Service exposes recipe book operations on top of a domain.Store.
type Service struct {
	store  domain.Store
	logger *slog.Logger
}

// Option configures the Service.
type Option func(*Service)

// WithLogger sets the logger for the service.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// NewService constructs a service backed by the supplied store.
func NewService(store domain.Store, opts ...Option) *Service {
	s := &Service{
		store:  store,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Store returns the underlying storage implementation.
func (s *Service) Store() domain.Store {
	return s.store
}

// CollectionsPage is one rendered page of a user's collections.
type CollectionsPage struct {
	Collections []domain.Collection
	Page        int
	PageCount   int
	Pages       []int
}

// Collections returns the requested page of collections. A page that does
// not exist falls back to page one.
func (s *Service) Collections(ctx context.Context, username string, page int) (CollectionsPage, error) {
	collections, err := s.store.ListCollections(ctx, username, page)
	if errors.Is(err, domain.ErrNotFound) && page != 1 {
		page = 1
		collections, err = s.store.ListCollections(ctx, username, page)
	}
	if err != nil {
		return CollectionsPage{}, err
	}
	count, err := s.store.CollectionsPageCount(ctx, username)
	if err != nil {
		return CollectionsPage{}, err
	}
	return CollectionsPage{
		Collections: collections,
		Page:        page,
		PageCount:   count,
		Pages:       PageNumbers(count),
	}, nil
}

// CollectionView is a collection with one page of its recipes, sorted by title.
type CollectionView struct {
	Collection domain.Collection
	Page       int
	PageCount  int
	Pages      []int
}

// Collection loads a collection and the requested page of its recipes,
// falling back to page one when the page does not exist.
func (s *Service) Collection(ctx context.Context, username string, id int64, page int) (CollectionView, error) {
	c, err := s.store.LoadCollection(ctx, username, id)
	if err != nil {
		return CollectionView{}, err
	}
	recipes, err := s.store.ListRecipes(ctx, username, id, page)
	if errors.Is(err, domain.ErrNotFound) && page != 1 {
		page = 1
		recipes, err = s.store.ListRecipes(ctx, username, id, page)
	}
	if err != nil {
		return CollectionView{}, err
	}
	count, err := s.store.RecipesPageCount(ctx, username, id)
	if err != nil {
		return CollectionView{}, err
	}
	c.Recipes = recipes
	return CollectionView{Collection: c, Page: page, PageCount: count, Pages: PageNumbers(count)}, nil
}

// Recipe loads one recipe with its ingredients.
func (s *Service) Recipe(ctx context.Context, username string, collectionID, recipeID int64) (domain.Recipe, error) {
	return s.store.LoadRecipe(ctx, username, collectionID, recipeID)
}

// CreateCollection validates title, creates the collection and returns its id.
func (s *Service) CreateCollection(ctx context.Context, username, title string) (int64, error) {
	title, err := ValidateCollectionTitle(title)
	if err != nil {
		return 0, err
	}
	if _, err := s.store.FindCollectionIDByTitle(ctx, username, title); err == nil {
		return 0, entityError(domain.EntityCollection, fmt.Errorf("collection %q: %w", title, domain.ErrDuplicateTitle))
	} else if !errors.Is(err, domain.ErrNotFound) {
		return 0, err
	}
	if err := s.store.CreateCollection(ctx, username, title); err != nil {
		return 0, entityError(domain.EntityCollection, err)
	}
	id, err := s.store.FindCollectionIDByTitle(ctx, username, title)
	if err != nil {
		return 0, fmt.Errorf("locate created collection: %w", err)
	}
	s.logger.Info("collection created", "username", username, "collection_id", id)
	return id, nil
}

// RenameCollection validates and applies a new collection title.
func (s *Service) RenameCollection(ctx context.Context, username string, id int64, title string) error {
	title, err := ValidateCollectionTitle(title)
	if err != nil {
		return err
	}
	existing, err := s.store.FindCollectionIDByTitle(ctx, username, title)
	switch {
	case err == nil && existing != id:
		return entityError(domain.EntityCollection, fmt.Errorf("collection %q: %w", title, domain.ErrDuplicateTitle))
	case err != nil && !errors.Is(err, domain.ErrNotFound):
		return err
	}
	if err := s.store.RenameCollection(ctx, username, id, title); err != nil {
		return entityError(domain.EntityCollection, err)
	}
	s.logger.Info("collection renamed", "username", username, "collection_id", id)
	return nil
}

// DeleteCollection removes a collection with its recipes and ingredients.
func (s *Service) DeleteCollection(ctx context.Context, username string, id int64) error {
	if err := s.store.DeleteCollection(ctx, username, id); err != nil {
		return err
	}
	s.logger.Info("collection deleted", "username", username, "collection_id", id)
	return nil
}

// CreateRecipe validates form, creates the recipe, locates its id by title
// and attaches the ingredients.
func (s *Service) CreateRecipe(ctx context.Context, username string, collectionID int64, form RecipeForm) (int64, error) {
	form = form.Normalize()
	if err := form.Validate(); err != nil {
		return 0, err
	}
	if err := s.store.CreateRecipe(ctx, username, collectionID, form.recipeInput()); err != nil {
		return 0, entityError(domain.EntityRecipe, err)
	}
	id, err := s.store.FindRecipeID(ctx, username, form.Title, collectionID)
	if err != nil {
		return 0, fmt.Errorf("locate created recipe: %w", err)
	}
	if err := s.addIngredients(ctx, username, id, form.Ingredients); err != nil {
		return id, err
	}
	s.logger.Info("recipe created", "username", username, "collection_id", collectionID, "recipe_id", id)
	return id, nil
}

// UpdateRecipe rewrites a recipe and replaces its whole ingredient list.
func (s *Service) UpdateRecipe(ctx context.Context, username string, collectionID, recipeID int64, form RecipeForm) error {
	form = form.Normalize()
	if err := form.Validate(); err != nil {
		return err
	}
	taken, err := s.store.RecipeTitleExistsInCollection(ctx, username, form.Title, collectionID, recipeID)
	if err != nil {
		return err
	}
	if taken {
		return entityError(domain.EntityRecipe, fmt.Errorf("recipe %q: %w", form.Title, domain.ErrDuplicateTitle))
	}
	if _, err := s.store.LoadRecipe(ctx, username, collectionID, recipeID); err != nil {
		return err
	}
	if err := s.store.UpdateRecipe(ctx, username, recipeID, collectionID, form.recipeInput()); err != nil {
		return entityError(domain.EntityRecipe, err)
	}
	if err := s.store.DeleteAllIngredients(ctx, username, recipeID); err != nil {
		return err
	}
	if err := s.addIngredients(ctx, username, recipeID, form.Ingredients); err != nil {
		return err
	}
	s.logger.Info("recipe updated", "username", username, "collection_id", collectionID, "recipe_id", recipeID)
	return nil
}

// DeleteRecipe removes a recipe and its ingredients.
func (s *Service) DeleteRecipe(ctx context.Context, username string, collectionID, recipeID int64) error {
	if err := s.store.DeleteRecipe(ctx, username, collectionID, recipeID); err != nil {
		return err
	}
	s.logger.Info("recipe deleted", "username", username, "collection_id", collectionID, "recipe_id", recipeID)
	return nil
}

func (s *Service) addIngredients(ctx context.Context, username string, recipeID int64, ingredients []IngredientForm) error {
	for _, ing := range ingredients {
		if err := s.store.CreateIngredient(ctx, username, recipeID, ing.ingredientInput()); err != nil {
			s.logger.Warn("ingredient not stored", "username", username, "recipe_id", recipeID, "ingredient", ing.Name, "error", err)
			return fmt.Errorf("add ingredient %q: %w", ing.Name, err)
		}
	}
	return nil
}
