package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"recipekeeper/pkg/domain"
)

// Compile-time contract assertion.
var _ domain.Store = (*Store)(nil)

// Store implements domain.Store on a *sql.DB. Every statement filters on the
// acting username so rows owned by other users read as missing.
type Store struct {
	db      *sql.DB
	dialect Dialect
	logger  *slog.Logger
}

// Option configures the Store.
type Option func(*Store)

// WithLogger sets the logger for the store.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// New wraps db with the given dialect. The store owns db and closes it on Close.
func New(db *sql.DB, dialect Dialect, opts ...Option) *Store {
	s := &Store{
		db:      db,
		dialect: dialect,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DB exposes the underlying sql.DB for integration testing hooks.
func (s *Store) DB() *sql.DB { return s.db }

// Dialect returns the configured dialect.
func (s *Store) Dialect() Dialect { return s.dialect }

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) exec(ctx context.Context, query string, args ...any) (int64, error) {
	res, err := s.db.ExecContext(ctx, s.dialect.Rebind(query), args...)
	if err != nil {
		return 0, s.dialect.classify(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

func (s *Store) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return s.db.QueryRowContext(ctx, s.dialect.Rebind(query), args...)
}

func (s *Store) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return s.db.QueryContext(ctx, s.dialect.Rebind(query), args...)
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// Collections -----------------------------------------------------------------

// ListCollections returns one page of the user's collections, each with its recipes attached.
func (s *Store) ListCollections(ctx context.Context, username string, page int) ([]domain.Collection, error) {
	if page < 1 {
		return nil, fmt.Errorf("list collections page %d: %w", page, domain.ErrNotFound)
	}
	rows, err := s.query(ctx, `
		SELECT c.id, c.title, c.username, COUNT(r.id) AS recipe_count
		  FROM recipeCollections c
		  LEFT JOIN recipes r ON r.collection_id = c.id
		 WHERE c.username = ?
		 GROUP BY c.id, c.title, c.username
		 ORDER BY recipe_count DESC, `+s.dialect.foldTitle("c.title")+` ASC, c.id ASC
		 LIMIT ? OFFSET ?`,
		username, domain.PageSize, domain.PageOffset(page),
	)
	if err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}
	defer func() { _ = rows.Close() }()

	collections := make([]domain.Collection, 0, domain.PageSize)
	index := make(map[int64]int, domain.PageSize)
	for rows.Next() {
		var c domain.Collection
		var count int
		if err := rows.Scan(&c.ID, &c.Title, &c.Username, &count); err != nil {
			return nil, fmt.Errorf("list collections: %w", err)
		}
		c.Recipes = make([]domain.Recipe, 0, count)
		index[c.ID] = len(collections)
		collections = append(collections, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}
	if len(collections) == 0 {
		if page == 1 {
			return collections, nil
		}
		return nil, fmt.Errorf("list collections page %d: %w", page, domain.ErrNotFound)
	}

	ids := make([]any, 0, len(collections)+1)
	ids = append(ids, username)
	for _, c := range collections {
		ids = append(ids, c.ID)
	}
	recipes, err := s.scanRecipes(ctx, `
		SELECT id, collection_id, title, prep_time, total_time, instructions, username
		  FROM recipes
		 WHERE username = ? AND collection_id IN (`+placeholders(len(collections))+`)
		 ORDER BY id ASC`, ids...)
	if err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}
	for _, r := range recipes {
		if i, ok := index[r.CollectionID]; ok {
			collections[i].Recipes = append(collections[i].Recipes, r)
		}
	}
	return collections, nil
}

// CollectionsPageCount returns the number of collection pages for the user.
func (s *Store) CollectionsPageCount(ctx context.Context, username string) (int, error) {
	var count int
	if err := s.queryRow(ctx, `SELECT COUNT(*) FROM recipeCollections WHERE username = ?`, username).Scan(&count); err != nil {
		return 0, fmt.Errorf("count collections: %w", err)
	}
	return domain.PageCount(count), nil
}

// LoadCollection reads the collection and its recipes concurrently.
func (s *Store) LoadCollection(ctx context.Context, username string, id int64) (domain.Collection, error) {
	var (
		c       domain.Collection
		recipes []domain.Recipe
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := s.queryRow(gctx, `SELECT id, title, username FROM recipeCollections WHERE id = ? AND username = ?`, id, username).
			Scan(&c.ID, &c.Title, &c.Username)
		if isNoRows(err) {
			return domain.NotFoundError(domain.EntityCollection, id)
		}
		return err
	})
	g.Go(func() error {
		var err error
		recipes, err = s.scanRecipes(gctx, `
			SELECT id, collection_id, title, prep_time, total_time, instructions, username
			  FROM recipes
			 WHERE collection_id = ? AND username = ?
			 ORDER BY id ASC`, id, username)
		return err
	})
	if err := g.Wait(); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Collection{}, err
		}
		return domain.Collection{}, fmt.Errorf("load collection %d: %w", id, err)
	}
	c.Recipes = recipes
	return c, nil
}

// CreateCollection inserts a collection; the (title, username) unique
// constraint reports duplicates.
func (s *Store) CreateCollection(ctx context.Context, username, title string) error {
	if _, err := s.exec(ctx, `INSERT INTO recipeCollections (title, username) VALUES (?, ?)`, title, username); err != nil {
		return fmt.Errorf("create collection %q: %w", title, err)
	}
	return nil
}

// RenameCollection sets a new title on an existing collection.
func (s *Store) RenameCollection(ctx context.Context, username string, id int64, title string) error {
	n, err := s.exec(ctx, `UPDATE recipeCollections SET title = ? WHERE id = ? AND username = ?`, title, id, username)
	if err != nil {
		return fmt.Errorf("rename collection %d: %w", id, err)
	}
	if n == 0 {
		return domain.NotFoundError(domain.EntityCollection, id)
	}
	return nil
}

// DeleteCollection removes a collection; foreign keys cascade to recipes and ingredients.
func (s *Store) DeleteCollection(ctx context.Context, username string, id int64) error {
	n, err := s.exec(ctx, `DELETE FROM recipeCollections WHERE id = ? AND username = ?`, id, username)
	if err != nil {
		return fmt.Errorf("delete collection %d: %w", id, err)
	}
	if n == 0 {
		return domain.NotFoundError(domain.EntityCollection, id)
	}
	return nil
}

// FindCollectionIDByTitle locates a collection by exact title.
func (s *Store) FindCollectionIDByTitle(ctx context.Context, username, title string) (int64, error) {
	var id int64
	err := s.queryRow(ctx, `SELECT id FROM recipeCollections WHERE title = ? AND username = ?`, title, username).Scan(&id)
	if isNoRows(err) {
		return 0, domain.NotFoundError(domain.EntityCollection, title)
	}
	if err != nil {
		return 0, fmt.Errorf("find collection %q: %w", title, err)
	}
	return id, nil
}

func (s *Store) collectionExists(ctx context.Context, username string, id int64) (bool, error) {
	var found int
	err := s.queryRow(ctx, `SELECT 1 FROM recipeCollections WHERE id = ? AND username = ?`, id, username).Scan(&found)
	if isNoRows(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Recipes ---------------------------------------------------------------------

// ListRecipes returns one page of a collection's recipes ordered by title.
func (s *Store) ListRecipes(ctx context.Context, username string, collectionID int64, page int) ([]domain.Recipe, error) {
	if page < 1 {
		return nil, fmt.Errorf("list recipes page %d: %w", page, domain.ErrNotFound)
	}
	ok, err := s.collectionExists(ctx, username, collectionID)
	if err != nil {
		return nil, fmt.Errorf("list recipes: %w", err)
	}
	if !ok {
		return nil, domain.NotFoundError(domain.EntityCollection, collectionID)
	}
	recipes, err := s.scanRecipes(ctx, `
		SELECT id, collection_id, title, prep_time, total_time, instructions, username
		  FROM recipes
		 WHERE collection_id = ? AND username = ?
		 ORDER BY `+s.dialect.foldTitle("title")+` ASC, id ASC
		 LIMIT ? OFFSET ?`,
		collectionID, username, domain.PageSize, domain.PageOffset(page))
	if err != nil {
		return nil, fmt.Errorf("list recipes: %w", err)
	}
	if len(recipes) == 0 {
		if page == 1 {
			return []domain.Recipe{}, nil
		}
		return nil, fmt.Errorf("list recipes page %d: %w", page, domain.ErrNotFound)
	}
	return recipes, nil
}

// RecipesPageCount returns the number of recipe pages in a collection.
func (s *Store) RecipesPageCount(ctx context.Context, username string, collectionID int64) (int, error) {
	ok, err := s.collectionExists(ctx, username, collectionID)
	if err != nil {
		return 0, fmt.Errorf("count recipes: %w", err)
	}
	if !ok {
		return 0, domain.NotFoundError(domain.EntityCollection, collectionID)
	}
	var count int
	if err := s.queryRow(ctx, `SELECT COUNT(*) FROM recipes WHERE collection_id = ? AND username = ?`, collectionID, username).Scan(&count); err != nil {
		return 0, fmt.Errorf("count recipes: %w", err)
	}
	return domain.PageCount(count), nil
}

// LoadRecipe reads the recipe and its ingredients concurrently.
func (s *Store) LoadRecipe(ctx context.Context, username string, collectionID, recipeID int64) (domain.Recipe, error) {
	var (
		r           domain.Recipe
		ingredients []domain.Ingredient
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := s.queryRow(gctx, `
			SELECT id, collection_id, title, prep_time, total_time, instructions, username
			  FROM recipes
			 WHERE id = ? AND collection_id = ? AND username = ?`, recipeID, collectionID, username).
			Scan(&r.ID, &r.CollectionID, &r.Title, &r.PrepTime, &r.TotalTime, &r.Instructions, &r.Username)
		if isNoRows(err) {
			return domain.NotFoundError(domain.EntityRecipe, recipeID)
		}
		return err
	})
	g.Go(func() error {
		var err error
		ingredients, err = s.scanIngredients(gctx, recipeID, username)
		return err
	})
	if err := g.Wait(); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Recipe{}, err
		}
		return domain.Recipe{}, fmt.Errorf("load recipe %d: %w", recipeID, err)
	}
	r.Ingredients = ingredients
	return r, nil
}

// CreateRecipe inserts a recipe into one of the user's collections. The
// INSERT ... SELECT inserts nothing when the collection is missing or foreign.
func (s *Store) CreateRecipe(ctx context.Context, username string, collectionID int64, in domain.RecipeInput) error {
	n, err := s.exec(ctx, `
		INSERT INTO recipes (collection_id, title, prep_time, total_time, instructions, username)
		SELECT id, ?, CAST(? AS INTEGER), CAST(? AS INTEGER), ?, username
		  FROM recipeCollections
		 WHERE id = ? AND username = ?`,
		in.Title, in.PrepTime, in.TotalTime, in.Instructions, collectionID, username)
	if err != nil {
		return fmt.Errorf("create recipe %q: %w", in.Title, err)
	}
	if n == 0 {
		return domain.NotFoundError(domain.EntityCollection, collectionID)
	}
	return nil
}

// UpdateRecipe overwrites a recipe's attributes, optionally moving it to
// another collection owned by the same user.
func (s *Store) UpdateRecipe(ctx context.Context, username string, recipeID, collectionID int64, in domain.RecipeInput) error {
	n, err := s.exec(ctx, `
		UPDATE recipes
		   SET collection_id = ?, title = ?, prep_time = ?, total_time = ?, instructions = ?
		 WHERE id = ? AND username = ?
		   AND EXISTS (SELECT 1 FROM recipeCollections WHERE id = ? AND username = ?)`,
		collectionID, in.Title, in.PrepTime, in.TotalTime, in.Instructions,
		recipeID, username, collectionID, username)
	if err != nil {
		return fmt.Errorf("update recipe %d: %w", recipeID, err)
	}
	if n == 0 {
		return domain.NotFoundError(domain.EntityRecipe, recipeID)
	}
	return nil
}

// DeleteRecipe removes a recipe; the foreign key cascades to its ingredients.
func (s *Store) DeleteRecipe(ctx context.Context, username string, collectionID, recipeID int64) error {
	n, err := s.exec(ctx, `DELETE FROM recipes WHERE id = ? AND collection_id = ? AND username = ?`, recipeID, collectionID, username)
	if err != nil {
		return fmt.Errorf("delete recipe %d: %w", recipeID, err)
	}
	if n == 0 {
		return domain.NotFoundError(domain.EntityRecipe, recipeID)
	}
	return nil
}

// FindRecipeID locates a recipe by exact title within a collection.
func (s *Store) FindRecipeID(ctx context.Context, username, title string, collectionID int64) (int64, error) {
	var id int64
	err := s.queryRow(ctx, `
		SELECT id FROM recipes
		 WHERE title = ? AND collection_id = ? AND username = ?
		 ORDER BY id ASC
		 LIMIT 1`, title, collectionID, username).Scan(&id)
	if isNoRows(err) {
		return 0, domain.NotFoundError(domain.EntityRecipe, title)
	}
	if err != nil {
		return 0, fmt.Errorf("find recipe %q: %w", title, err)
	}
	return id, nil
}

// RecipeTitleExistsInCollection reports whether another recipe in the collection uses title.
func (s *Store) RecipeTitleExistsInCollection(ctx context.Context, username, title string, collectionID, excludeRecipeID int64) (bool, error) {
	var count int
	err := s.queryRow(ctx, `
		SELECT COUNT(*) FROM recipes
		 WHERE title = ? AND collection_id = ? AND username = ? AND id <> ?`,
		title, collectionID, username, excludeRecipeID).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check recipe title %q: %w", title, err)
	}
	return count > 0, nil
}

// Ingredients -----------------------------------------------------------------

// CreateIngredient appends an ingredient to one of the user's recipes.
func (s *Store) CreateIngredient(ctx context.Context, username string, recipeID int64, in domain.IngredientInput) error {
	n, err := s.exec(ctx, `
		INSERT INTO ingredients (recipe_id, name, quantity, unit, username)
		SELECT id, ?, ?, ?, username
		  FROM recipes
		 WHERE id = ? AND username = ?`,
		in.Name, in.Quantity, in.Unit, recipeID, username)
	if err != nil {
		return fmt.Errorf("create ingredient %q: %w", in.Name, err)
	}
	if n == 0 {
		return domain.NotFoundError(domain.EntityRecipe, recipeID)
	}
	return nil
}

// DeleteAllIngredients clears the ingredient list of one of the user's recipes.
func (s *Store) DeleteAllIngredients(ctx context.Context, username string, recipeID int64) error {
	if _, err := s.exec(ctx, `DELETE FROM ingredients WHERE recipe_id = ? AND username = ?`, recipeID, username); err != nil {
		return fmt.Errorf("delete ingredients of recipe %d: %w", recipeID, err)
	}
	return nil
}

// Users -----------------------------------------------------------------------

// CreateUser stores a new account.
func (s *Store) CreateUser(ctx context.Context, user domain.User) error {
	if _, err := s.exec(ctx, `INSERT INTO users (username, password) VALUES (?, ?)`, user.Username, user.PasswordHash); err != nil {
		if domain.IsUniqueViolation(err) {
			return fmt.Errorf("user %q: %w", user.Username, domain.ErrUserExists)
		}
		return fmt.Errorf("create user %q: %w", user.Username, err)
	}
	return nil
}

// FindUser retrieves an account by username.
func (s *Store) FindUser(ctx context.Context, username string) (domain.User, error) {
	var u domain.User
	err := s.queryRow(ctx, `SELECT username, password FROM users WHERE username = ?`, username).Scan(&u.Username, &u.PasswordHash)
	if isNoRows(err) {
		return domain.User{}, domain.NotFoundError(domain.EntityUser, username)
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("find user %q: %w", username, err)
	}
	return u, nil
}

// Scanning helpers --------------------------------------------------------------

func (s *Store) scanRecipes(ctx context.Context, query string, args ...any) ([]domain.Recipe, error) {
	rows, err := s.query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []domain.Recipe
	for rows.Next() {
		var r domain.Recipe
		if err := rows.Scan(&r.ID, &r.CollectionID, &r.Title, &r.PrepTime, &r.TotalTime, &r.Instructions, &r.Username); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) scanIngredients(ctx context.Context, recipeID int64, username string) ([]domain.Ingredient, error) {
	rows, err := s.query(ctx, `
		SELECT id, recipe_id, name, quantity, unit, username
		  FROM ingredients
		 WHERE recipe_id = ? AND username = ?
		 ORDER BY id ASC`, recipeID, username)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []domain.Ingredient
	for rows.Next() {
		var ing domain.Ingredient
		if err := rows.Scan(&ing.ID, &ing.RecipeID, &ing.Name, &ing.Quantity, &ing.Unit, &ing.Username); err != nil {
			return nil, err
		}
		out = append(out, ing)
	}
	return out, rows.Err()
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
