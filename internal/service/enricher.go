package service

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/Clark-Hu/flavorhub/internal/domain"
)

// Enricher attaches live rating statistics to recipes.
type Enricher struct {
	agg         *Aggregator
	concurrency int
}

// NewEnricher constructs an Enricher. concurrency bounds EnrichAll fan-out.
func NewEnricher(agg *Aggregator, concurrency int) *Enricher {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Enricher{agg: agg, concurrency: concurrency}
}

// Enrich overwrites the derived fields of recipe. A nil recipe is a no-op.
func (e *Enricher) Enrich(ctx context.Context, recipe *domain.Recipe) error {
	if recipe == nil {
		return nil
	}
	agg, err := e.agg.Aggregate(ctx, recipe.ID)
	if err != nil {
		return fmt.Errorf("enrich recipe %d: %w", recipe.ID, err)
	}
	recipe.AverageRating = agg.Average
	recipe.RatingCount = agg.Count
	return nil
}

// EnrichAll enriches every element in place, preserving order.
func (e *Enricher) EnrichAll(ctx context.Context, recipes []domain.Recipe) error {
	if len(recipes) == 0 {
		return nil
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)
	for i := range recipes {
		g.Go(func() error {
			return e.Enrich(gctx, &recipes[i])
		})
	}
	return g.Wait()
}
