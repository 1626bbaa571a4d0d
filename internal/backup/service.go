package backup

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"recipekeeper/internal/blob"
	"recipekeeper/internal/core"
	"recipekeeper/pkg/domain"
)

const (
	keyPrefix   = "books/"
	contentType = "application/json"
	// loadLimit bounds concurrent recipe loads during export.
	loadLimit = 4
)

// Service moves recipe books between a store and a blob store.
type Service struct {
	books  *core.Service
	blobs  blob.Store
	logger *slog.Logger
	now    func() time.Time
}

// Option configures the Service.
type Option func(*Service)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithClock overrides the export timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// New returns a backup service over books and blobs.
func New(books *core.Service, blobs blob.Store, opts ...Option) *Service {
	s := &Service{
		books:  books,
		blobs:  blobs,
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Prefix returns the blob key prefix holding username's exports.
func Prefix(username string) string {
	return keyPrefix + url.PathEscape(username) + "/"
}

// Key returns the blob key of an export taken at t.
func Key(username string, t time.Time) string {
	return Prefix(username) + t.UTC().Format("20060102T150405.000000000Z") + ".json"
}

// Snapshot reads username's whole recipe book from the store.
func (s *Service) Snapshot(ctx context.Context, username string) (Book, error) {
	store := s.books.Store()
	pages, err := store.CollectionsPageCount(ctx, username)
	if err != nil {
		return Book{}, err
	}
	var collections []domain.Collection
	for page := 1; page <= pages; page++ {
		batch, err := store.ListCollections(ctx, username, page)
		if err != nil {
			return Book{}, fmt.Errorf("list collections page %d: %w", page, err)
		}
		collections = append(collections, batch...)
	}

	book := Book{
		Version:     FormatVersion,
		Username:    username,
		ExportedAt:  s.now().UTC(),
		Collections: make([]Collection, len(collections)),
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(loadLimit)
	for i, c := range collections {
		summaries := append([]domain.Recipe(nil), c.Recipes...)
		domain.SortRecipes(summaries)
		book.Collections[i] = Collection{Title: c.Title, Recipes: make([]Recipe, len(summaries))}
		for j, r := range summaries {
			g.Go(func() error {
				full, err := store.LoadRecipe(gctx, username, c.ID, r.ID)
				if err != nil {
					return fmt.Errorf("load recipe %d: %w", r.ID, err)
				}
				book.Collections[i].Recipes[j] = fromDomainRecipe(full)
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return Book{}, err
	}
	return book, nil
}

// Export snapshots username's book and writes it to a new blob.
func (s *Service) Export(ctx context.Context, username string) (blob.Info, error) {
	book, err := s.Snapshot(ctx, username)
	if err != nil {
		return blob.Info{}, err
	}
	data, err := json.MarshalIndent(book, "", "  ")
	if err != nil {
		return blob.Info{}, fmt.Errorf("encode book: %w", err)
	}
	info, err := s.blobs.Put(ctx, Key(username, book.ExportedAt), bytes.NewReader(data), blob.PutOptions{
		ContentType: contentType,
		Metadata: map[string]string{
			"username":    username,
			"collections": strconv.Itoa(len(book.Collections)),
			"recipes":     strconv.Itoa(book.RecipeCount()),
		},
	})
	if err != nil {
		return blob.Info{}, fmt.Errorf("store book: %w", err)
	}
	s.logger.Info("recipe book exported", "username", username, "key", info.Key, "collections", len(book.Collections), "recipes", book.RecipeCount())
	return info, nil
}

// List returns username's exports, oldest first.
func (s *Service) List(ctx context.Context, username string) ([]blob.Info, error) {
	return s.blobs.List(ctx, Prefix(username))
}

// Latest returns username's most recent export.
func (s *Service) Latest(ctx context.Context, username string) (blob.Info, error) {
	infos, err := s.List(ctx, username)
	if err != nil {
		return blob.Info{}, err
	}
	if len(infos) == 0 {
		return blob.Info{}, fmt.Errorf("no exports for %s: %w", username, blob.ErrNotFound)
	}
	return infos[len(infos)-1], nil
}

// Read loads and decodes the book stored at key.
func (s *Service) Read(ctx context.Context, key string) (Book, error) {
	_, rc, err := s.blobs.Get(ctx, key)
	if err != nil {
		return Book{}, err
	}
	defer func() { _ = rc.Close() }()
	var book Book
	if err := json.NewDecoder(rc).Decode(&book); err != nil {
		return Book{}, fmt.Errorf("decode %s: %w", key, err)
	}
	if err := book.Check(); err != nil {
		return Book{}, err
	}
	return book, nil
}

// Restore applies the book stored at key to username.
func (s *Service) Restore(ctx context.Context, username, key string) (Report, error) {
	book, err := s.Read(ctx, key)
	if err != nil {
		return Report{}, err
	}
	report, err := Apply(ctx, s.books, username, book)
	if err != nil {
		return report, err
	}
	s.logger.Info("recipe book restored", "username", username, "key", key,
		"collections_created", report.CollectionsCreated, "recipes_created", report.RecipesCreated, "recipes_skipped", report.RecipesSkipped)
	return report, nil
}

// Report counts what Apply changed.
type Report struct {
	CollectionsCreated int
	CollectionsReused  int
	RecipesCreated     int
	RecipesSkipped     int
}

// Apply merges book into username's recipe book. Collections are matched
// by title and reused; recipes whose title already exists in the target
// collection are skipped. Any other failure stops the merge.
func Apply(ctx context.Context, books *core.Service, username string, book Book) (Report, error) {
	var report Report
	if err := book.Check(); err != nil {
		return report, err
	}
	store := books.Store()
	for _, c := range book.Collections {
		title, err := core.ValidateCollectionTitle(c.Title)
		if err != nil {
			return report, fmt.Errorf("collection %q: %w", c.Title, err)
		}
		id, err := store.FindCollectionIDByTitle(ctx, username, title)
		switch {
		case err == nil:
			report.CollectionsReused++
		case errors.Is(err, domain.ErrNotFound):
			id, err = books.CreateCollection(ctx, username, title)
			if err != nil {
				return report, fmt.Errorf("collection %q: %w", c.Title, err)
			}
			report.CollectionsCreated++
		default:
			return report, err
		}
		for _, r := range c.Recipes {
			_, err := books.CreateRecipe(ctx, username, id, r.Form())
			switch {
			case err == nil:
				report.RecipesCreated++
			case errors.Is(err, domain.ErrDuplicateTitle):
				report.RecipesSkipped++
			default:
				return report, fmt.Errorf("recipe %q in %q: %w", r.Title, c.Title, err)
			}
		}
	}
	return report, nil
}
