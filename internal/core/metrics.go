package core

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"recipekeeper/pkg/domain"
)

// Outcome labels recorded per store operation.
const (
	OutcomeOK         = "ok"
	OutcomeNotFound   = "not_found"
	OutcomeDuplicate  = "duplicate"
	OutcomeConstraint = "constraint"
	OutcomeInvalid    = "invalid"
	OutcomeError      = "error"
)

// Metrics holds the Prometheus collectors for store operations.
type Metrics struct {
	duration *prometheus.HistogramVec
	total    *prometheus.CounterVec
}

// NewMetrics builds the store collectors and registers them on reg. When the
// collectors are already registered the existing ones are reused. A nil reg
// leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "recipekeeper",
		Subsystem: "store",
		Name:      "operation_duration_seconds",
		Help:      "Latency of recipe book store operations.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"operation"})
	total := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "recipekeeper",
		Subsystem: "store",
		Name:      "operations_total",
		Help:      "Recipe book store operations by outcome.",
	}, []string{"operation", "outcome"})

	if reg != nil {
		if err := reg.Register(duration); err != nil {
			var are prometheus.AlreadyRegisteredError
			if !errors.As(err, &are) {
				return nil, err
			}
			duration = are.ExistingCollector.(*prometheus.HistogramVec)
		}
		if err := reg.Register(total); err != nil {
			var are prometheus.AlreadyRegisteredError
			if !errors.As(err, &are) {
				return nil, err
			}
			total = are.ExistingCollector.(*prometheus.CounterVec)
		}
	}
	return &Metrics{duration: duration, total: total}, nil
}

// Outcome classifies err into one of the Outcome labels.
func Outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, domain.ErrDuplicateTitle), errors.Is(err, domain.ErrUserExists):
		return OutcomeDuplicate
	case errors.Is(err, domain.ErrTimeConstraint):
		return OutcomeConstraint
	case errors.Is(err, domain.ErrNotFound):
		return OutcomeNotFound
	case errors.Is(err, domain.ErrInvalidInput):
		return OutcomeInvalid
	default:
		return OutcomeError
	}
}

// InstrumentedStore decorates a domain.Store with latency and outcome
// metrics plus a log line per failed operation.
type InstrumentedStore struct {
	next    domain.Store
	metrics *Metrics
	logger  *slog.Logger
}

var _ domain.Store = (*InstrumentedStore)(nil)

// Instrument wraps next. A nil logger uses slog.Default().
func Instrument(next domain.Store, metrics *Metrics, logger *slog.Logger) *InstrumentedStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &InstrumentedStore{next: next, metrics: metrics, logger: logger}
}

// Unwrap returns the decorated store.
func (s *InstrumentedStore) Unwrap() domain.Store { return s.next }

func (s *InstrumentedStore) observe(operation string, started time.Time, errp *error) {
	var err error
	if errp != nil {
		err = *errp
	}
	outcome := Outcome(err)
	if s.metrics != nil {
		s.metrics.duration.WithLabelValues(operation).Observe(time.Since(started).Seconds())
		s.metrics.total.WithLabelValues(operation, outcome).Inc()
	}
	switch outcome {
	case OutcomeOK:
	case OutcomeError:
		s.logger.Warn("store operation failed", "operation", operation, "error", err)
	default:
		s.logger.Debug("store operation rejected", "operation", operation, "outcome", outcome, "error", err)
	}
}

func (s *InstrumentedStore) ListCollections(ctx context.Context, username string, page int) (out []domain.Collection, err error) {
	defer s.observe("list_collections", time.Now(), &err)
	return s.next.ListCollections(ctx, username, page)
}

func (s *InstrumentedStore) CollectionsPageCount(ctx context.Context, username string) (n int, err error) {
	defer s.observe("collections_page_count", time.Now(), &err)
	return s.next.CollectionsPageCount(ctx, username)
}

func (s *InstrumentedStore) LoadCollection(ctx context.Context, username string, id int64) (c domain.Collection, err error) {
	defer s.observe("load_collection", time.Now(), &err)
	return s.next.LoadCollection(ctx, username, id)
}

func (s *InstrumentedStore) CreateCollection(ctx context.Context, username, title string) (err error) {
	defer s.observe("create_collection", time.Now(), &err)
	return s.next.CreateCollection(ctx, username, title)
}

func (s *InstrumentedStore) RenameCollection(ctx context.Context, username string, id int64, title string) (err error) {
	defer s.observe("rename_collection", time.Now(), &err)
	return s.next.RenameCollection(ctx, username, id, title)
}

func (s *InstrumentedStore) DeleteCollection(ctx context.Context, username string, id int64) (err error) {
	defer s.observe("delete_collection", time.Now(), &err)
	return s.next.DeleteCollection(ctx, username, id)
}

func (s *InstrumentedStore) FindCollectionIDByTitle(ctx context.Context, username, title string) (id int64, err error) {
	defer s.observe("find_collection_id", time.Now(), &err)
	return s.next.FindCollectionIDByTitle(ctx, username, title)
}

func (s *InstrumentedStore) ListRecipes(ctx context.Context, username string, collectionID int64, page int) (out []domain.Recipe, err error) {
	defer s.observe("list_recipes", time.Now(), &err)
	return s.next.ListRecipes(ctx, username, collectionID, page)
}

func (s *InstrumentedStore) RecipesPageCount(ctx context.Context, username string, collectionID int64) (n int, err error) {
	defer s.observe("recipes_page_count", time.Now(), &err)
	return s.next.RecipesPageCount(ctx, username, collectionID)
}

func (s *InstrumentedStore) LoadRecipe(ctx context.Context, username string, collectionID, recipeID int64) (r domain.Recipe, err error) {
	defer s.observe("load_recipe", time.Now(), &err)
	return s.next.LoadRecipe(ctx, username, collectionID, recipeID)
}

func (s *InstrumentedStore) CreateRecipe(ctx context.Context, username string, collectionID int64, in domain.RecipeInput) (err error) {
	defer s.observe("create_recipe", time.Now(), &err)
	return s.next.CreateRecipe(ctx, username, collectionID, in)
}

func (s *InstrumentedStore) UpdateRecipe(ctx context.Context, username string, recipeID, collectionID int64, in domain.RecipeInput) (err error) {
	defer s.observe("update_recipe", time.Now(), &err)
	return s.next.UpdateRecipe(ctx, username, recipeID, collectionID, in)
}

func (s *InstrumentedStore) DeleteRecipe(ctx context.Context, username string, collectionID, recipeID int64) (err error) {
	defer s.observe("delete_recipe", time.Now(), &err)
	return s.next.DeleteRecipe(ctx, username, collectionID, recipeID)
}

func (s *InstrumentedStore) FindRecipeID(ctx context.Context, username, title string, collectionID int64) (id int64, err error) {
	defer s.observe("find_recipe_id", time.Now(), &err)
	return s.next.FindRecipeID(ctx, username, title, collectionID)
}

func (s *InstrumentedStore) RecipeTitleExistsInCollection(ctx context.Context, username, title string, collectionID, excludeRecipeID int64) (exists bool, err error) {
	defer s.observe("recipe_title_exists", time.Now(), &err)
	return s.next.RecipeTitleExistsInCollection(ctx, username, title, collectionID, excludeRecipeID)
}

func (s *InstrumentedStore) CreateIngredient(ctx context.Context, username string, recipeID int64, in domain.IngredientInput) (err error) {
	defer s.observe("create_ingredient", time.Now(), &err)
	return s.next.CreateIngredient(ctx, username, recipeID, in)
}

func (s *InstrumentedStore) DeleteAllIngredients(ctx context.Context, username string, recipeID int64) (err error) {
	defer s.observe("delete_all_ingredients", time.Now(), &err)
	return s.next.DeleteAllIngredients(ctx, username, recipeID)
}

func (s *InstrumentedStore) CreateUser(ctx context.Context, user domain.User) (err error) {
	defer s.observe("create_user", time.Now(), &err)
	return s.next.CreateUser(ctx, user)
}

func (s *InstrumentedStore) FindUser(ctx context.Context, username string) (u domain.User, err error) {
	defer s.observe("find_user", time.Now(), &err)
	return s.next.FindUser(ctx, username)
}

func (s *InstrumentedStore) Ping(ctx context.Context) (err error) {
	defer s.observe("ping", time.Now(), &err)
	return s.next.Ping(ctx)
}

// Close is not instrumented.
func (s *InstrumentedStore) Close() error { return s.next.Close() }
