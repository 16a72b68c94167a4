package service

import (
	"context"

	"github.com/Clark-Hu/flavorhub/internal/domain"
)

// Aggregator reads live rating statistics. It keeps no state of its own.
type Aggregator struct {
	ratings RatingBackend
}

// NewAggregator constructs an Aggregator over the rating backend.
func NewAggregator(ratings RatingBackend) *Aggregator {
	return &Aggregator{ratings: ratings}
}

// Aggregate returns average and count in a single read.
func (a *Aggregator) Aggregate(ctx context.Context, recipeID int64) (domain.RatingAggregate, error) {
	return a.ratings.Aggregate(ctx, recipeID)
}

// Average returns the mean rating or nil when there are no ratings.
func (a *Aggregator) Average(ctx context.Context, recipeID int64) (*float64, error) {
	agg, err := a.ratings.Aggregate(ctx, recipeID)
	if err != nil {
		return nil, err
	}
	return agg.Average, nil
}

// Count returns the number of ratings.
func (a *Aggregator) Count(ctx context.Context, recipeID int64) (int64, error) {
	agg, err := a.ratings.Aggregate(ctx, recipeID)
	if err != nil {
		return 0, err
	}
	return agg.Count, nil
}
