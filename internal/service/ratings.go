package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Clark-Hu/flavorhub/internal/domain"
)

// Ratings owns rating records and their validation rules.
type Ratings struct {
	ratings RatingBackend
	recipes RecipeBackend
	now     func() time.Time
	newID   func() string
}

// NewRatings constructs the rating component.
func NewRatings(ratings RatingBackend, recipes RecipeBackend, now func() time.Time, newID func() string) *Ratings {
	return &Ratings{ratings: ratings, recipes: recipes, now: now, newID: newID}
}

// Submit records a new rating. It fails with domain.ErrInvalidRatingValue,
// domain.ErrInvalidUserID, domain.ErrRecipeNotFound or domain.ErrDuplicateRating.
func (s *Ratings) Submit(ctx context.Context, recipeID int64, userID string, value int, review *string) (domain.Rating, error) {
	if !domain.ValidRatingValue(value) {
		return domain.Rating{}, domain.ErrInvalidRatingValue
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return domain.Rating{}, domain.ErrInvalidUserID
	}
	if _, err := s.recipes.GetByID(ctx, recipeID); err != nil {
		return domain.Rating{}, err
	}

	now := s.now()
	return s.ratings.Insert(ctx, domain.Rating{
		ID:        s.newID(),
		RecipeID:  recipeID,
		UserID:    userID,
		Value:     value,
		Review:    review,
		CreatedAt: now,
		UpdatedAt: now,
	})
}

// Update overwrites the value and review of an existing rating.
func (s *Ratings) Update(ctx context.Context, ratingID string, value int, review *string) (domain.Rating, error) {
	if !domain.ValidRatingValue(value) {
		return domain.Rating{}, domain.ErrInvalidRatingValue
	}
	return s.ratings.Update(ctx, ratingID, value, review, s.now())
}

// Delete removes a rating. Deleting an unknown id is a no-op.
func (s *Ratings) Delete(ctx context.Context, ratingID string) error {
	return s.ratings.Delete(ctx, ratingID)
}

// FindByID returns the rating or domain.ErrRatingNotFound.
func (s *Ratings) FindByID(ctx context.Context, ratingID string) (domain.Rating, error) {
	return s.ratings.GetByID(ctx, ratingID)
}

// FindByRecipe lists the ratings of a recipe in insertion order.
func (s *Ratings) FindByRecipe(ctx context.Context, recipeID int64) ([]domain.Rating, error) {
	return s.ratings.ListByRecipe(ctx, recipeID)
}

// FindByRecipeAndUser returns the user's rating for a recipe, if any.
func (s *Ratings) FindByRecipeAndUser(ctx context.Context, recipeID int64, userID string) (domain.Rating, bool, error) {
	rating, err := s.ratings.GetByRecipeAndUser(ctx, recipeID, strings.TrimSpace(userID))
	if errors.Is(err, domain.ErrRatingNotFound) {
		return domain.Rating{}, false, nil
	}
	if err != nil {
		return domain.Rating{}, false, err
	}
	return rating, true, nil
}

// CountByRecipe returns the number of ratings on a recipe.
func (s *Ratings) CountByRecipe(ctx context.Context, recipeID int64) (int64, error) {
	agg, err := s.ratings.Aggregate(ctx, recipeID)
	if err != nil {
		return 0, err
	}
	return agg.Count, nil
}

// AverageByRecipe returns the mean rating, or nil when the recipe is unrated.
func (s *Ratings) AverageByRecipe(ctx context.Context, recipeID int64) (*float64, error) {
	agg, err := s.ratings.Aggregate(ctx, recipeID)
	if err != nil {
		return nil, err
	}
	return agg.Average, nil
}
