package domain

import "time"

// Rating bounds.
const (
	MinRatingValue = 1
	MaxRatingValue = 5
)

// Rating represents a single user's score for a recipe.
type Rating struct {
	ID        string
	RecipeID  int64
	UserID    string
	Value     int
	Review    *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// RatingAggregate provides average and count for a recipe's ratings.
// Average is nil when Count is zero.
type RatingAggregate struct {
	Average *float64
	Count   int64
}

// ValidRatingValue reports whether v lies within the accepted range.
func ValidRatingValue(v int) bool {
	return v >= MinRatingValue && v <= MaxRatingValue
}
