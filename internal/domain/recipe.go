package domain

import (
	"strings"
	"time"
)

// Recipe represents a catalog entry. AverageRating and RatingCount are derived
// at read time and never persisted.
type Recipe struct {
	ID              int64
	Name            string
	Description     *string
	PrepTime        int
	CookTime        int
	Servings        int
	DifficultyLevel string
	CuisineType     string
	CreatedAt       time.Time
	UpdatedAt       time.Time

	AverageRating *float64
	RatingCount   int64
}

// RecipeParams carries the mutable fields of a recipe for create and update.
type RecipeParams struct {
	Name            string
	Description     *string
	PrepTime        int
	CookTime        int
	Servings        int
	DifficultyLevel string
	CuisineType     string
}

// Validate checks the field-level constraints shared by create and update.
func (p RecipeParams) Validate() error {
	switch {
	case strings.TrimSpace(p.Name) == "":
		return invalidRecipe("name is required")
	case p.PrepTime < 0:
		return invalidRecipe("prepTime must be non-negative")
	case p.CookTime < 0:
		return invalidRecipe("cookTime must be non-negative")
	case p.Servings < 1:
		return invalidRecipe("servings must be positive")
	}
	return nil
}

// RecipeFilter narrows catalog listings. Empty fields are skipped; non-empty
// fields combine as a conjunction.
type RecipeFilter struct {
	Difficulty string
	Cuisine    string
	Search     string
}
