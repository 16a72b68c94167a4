package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/Clark-Hu/flavorhub/internal/domain"
)

// RecipeBackend persists recipes. Delete must also remove the recipe's
// ratings and must not fail when the recipe is absent. List returns recipes
// in ascending id order.
type RecipeBackend interface {
	Create(ctx context.Context, params domain.RecipeParams) (domain.Recipe, error)
	Update(ctx context.Context, id int64, params domain.RecipeParams) (domain.Recipe, error)
	Delete(ctx context.Context, id int64) error
	GetByID(ctx context.Context, id int64) (domain.Recipe, error)
	List(ctx context.Context, filter domain.RecipeFilter) ([]domain.Recipe, error)
}

// RatingBackend persists ratings. Insert enforces the (recipe, user)
// uniqueness invariant atomically and reports domain.ErrDuplicateRating or
// domain.ErrRecipeNotFound.
type RatingBackend interface {
	Insert(ctx context.Context, rating domain.Rating) (domain.Rating, error)
	Update(ctx context.Context, id string, value int, review *string, updatedAt time.Time) (domain.Rating, error)
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (domain.Rating, error)
	GetByRecipeAndUser(ctx context.Context, recipeID int64, userID string) (domain.Rating, error)
	ListByRecipe(ctx context.Context, recipeID int64) ([]domain.Rating, error)
	Aggregate(ctx context.Context, recipeID int64) (domain.RatingAggregate, error)
}

// Options tunes the service components.
type Options struct {
	// Now is the clock used for rating timestamps and the daily pick.
	Now func() time.Time
	// Location is the calendar used to compute the day of year. Defaults to time.Local.
	Location *time.Location
	// EnrichConcurrency bounds parallel aggregate lookups per listing.
	EnrichConcurrency int
	// NewID generates rating identifiers.
	NewID func() string
}

// Service aggregates the recipe and rating components.
type Service struct {
	Ratings    *Ratings
	Aggregator *Aggregator
	Enricher   *Enricher
	Catalog    *Catalog
	Daily      *DailySelector
}

// New wires the components over the given backends.
func New(recipes RecipeBackend, ratings RatingBackend, opts Options) *Service {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.EnrichConcurrency <= 0 {
		opts.EnrichConcurrency = 8
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}

	agg := NewAggregator(ratings)
	enricher := NewEnricher(agg, opts.EnrichConcurrency)
	return &Service{
		Ratings:    NewRatings(ratings, recipes, opts.Now, opts.NewID),
		Aggregator: agg,
		Enricher:   enricher,
		Catalog:    NewCatalog(recipes, enricher),
		Daily:      NewDailySelector(recipes, enricher, opts.Now, opts.Location),
	}
}
