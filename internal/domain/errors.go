package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrRecipeNotFound indicates the referenced recipe does not exist.
	ErrRecipeNotFound = errors.New("recipe not found")
	// ErrRatingNotFound indicates the referenced rating does not exist.
	ErrRatingNotFound = errors.New("rating not found")
	// ErrDuplicateRating indicates the user already rated the recipe.
	ErrDuplicateRating = errors.New("user has already rated this recipe")
	// ErrInvalidRatingValue indicates a value outside MinRatingValue..MaxRatingValue.
	ErrInvalidRatingValue = errors.New("rating must be between 1 and 5")
	// ErrInvalidUserID indicates a missing rater identifier.
	ErrInvalidUserID = errors.New("user id is required")
	// ErrInvalidRecipe indicates recipe fields failed validation.
	ErrInvalidRecipe = errors.New("invalid recipe")
)

func invalidRecipe(reason string) error {
	return fmt.Errorf("%w: %s", ErrInvalidRecipe, reason)
}
