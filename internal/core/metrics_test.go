package core

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"recipekeeper/internal/infra/persistence/memory"
	"recipekeeper/pkg/domain"
)

func TestOutcome(t *testing.T) {
	cases := map[string]error{
		OutcomeOK:         nil,
		OutcomeNotFound:   domain.NotFoundError(domain.EntityCollection, 1),
		OutcomeDuplicate:  fmt.Errorf("wrap: %w", domain.ErrUserExists),
		OutcomeConstraint: &domain.ConstraintError{Kind: domain.ConstraintCheck},
		OutcomeInvalid:    &ValidationError{Messages: []string{MsgNegativeTime}},
		OutcomeError:      errors.New("boom"),
	}
	for want, err := range cases {
		if got := Outcome(err); got != want {
			t.Fatalf("Outcome(%v) = %s, want %s", err, got, want)
		}
	}
}

func TestInstrumentedStoreRecordsOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics, err := NewMetrics(reg)
	if err != nil {
		t.Fatalf("new metrics: %v", err)
	}
	store := Instrument(memory.NewStore(), metrics, nil)
	ctx := context.Background()

	if err := store.CreateCollection(ctx, "admin", "Soups"); err != nil {
		t.Fatalf("create collection: %v", err)
	}
	if err := store.CreateCollection(ctx, "admin", "Soups"); !errors.Is(err, domain.ErrDuplicateTitle) {
		t.Fatalf("expected duplicate, got %v", err)
	}
	if _, err := store.LoadCollection(ctx, "admin", 42); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	if got := testutil.ToFloat64(metrics.total.WithLabelValues("create_collection", OutcomeOK)); got != 1 {
		t.Fatalf("expected one ok create, got %v", got)
	}
	if got := testutil.ToFloat64(metrics.total.WithLabelValues("create_collection", OutcomeDuplicate)); got != 1 {
		t.Fatalf("expected one duplicate create, got %v", got)
	}
	if got := testutil.ToFloat64(metrics.total.WithLabelValues("load_collection", OutcomeNotFound)); got != 1 {
		t.Fatalf("expected one not found load, got %v", got)
	}
	if n := testutil.CollectAndCount(metrics.duration); n != 2 {
		t.Fatalf("expected two latency series, got %d", n)
	}
	if store.Unwrap() == nil {
		t.Fatalf("expected wrapped store")
	}
}

func TestNewMetricsReusesRegisteredCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := NewMetrics(reg)
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	second, err := NewMetrics(reg)
	if err != nil {
		t.Fatalf("second: %v", err)
	}
	if first.total != second.total || first.duration != second.duration {
		t.Fatalf("expected collectors to be reused")
	}
}

func TestServiceOverInstrumentedStore(t *testing.T) {
	metrics, err := NewMetrics(nil)
	if err != nil {
		t.Fatalf("new metrics: %v", err)
	}
	svc := NewService(Instrument(memory.NewStore(), metrics, nil))
	ctx := context.Background()
	cid, err := svc.CreateCollection(ctx, "admin", "Keto recipes")
	if err != nil {
		t.Fatalf("create collection: %v", err)
	}
	if _, err := svc.CreateRecipe(ctx, "admin", cid, bananaBread()); err != nil {
		t.Fatalf("create recipe: %v", err)
	}
	if got := testutil.ToFloat64(metrics.total.WithLabelValues("create_ingredient", OutcomeOK)); got != 2 {
		t.Fatalf("expected two ingredient inserts, got %v", got)
	}
}
