// Package seed loads recipe fixtures from YAML and applies them to an empty
// catalog.
package seed

import (
	"context"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/Clark-Hu/flavorhub/internal/domain"
)

// File is the fixture document.
type File struct {
	Recipes []Recipe `yaml:"recipes"`
}

// Recipe is one fixture entry. Ratings are submitted after the recipe is created.
type Recipe struct {
	Name            string   `yaml:"name"`
	Description     string   `yaml:"description"`
	PrepTime        int      `yaml:"prepTime"`
	CookTime        int      `yaml:"cookTime"`
	Servings        int      `yaml:"servings"`
	DifficultyLevel string   `yaml:"difficultyLevel"`
	CuisineType     string   `yaml:"cuisineType"`
	Ratings         []Rating `yaml:"ratings"`
}

// Rating is a fixture rating.
type Rating struct {
	UserID string `yaml:"userId"`
	Value  int    `yaml:"rating"`
	Review string `yaml:"review"`
}

// Catalog is the subset of the recipe catalog the loader needs.
type Catalog interface {
	FindAll(ctx context.Context) ([]domain.Recipe, error)
	Create(ctx context.Context, params domain.RecipeParams) (domain.Recipe, error)
}

// Ratings is the subset of the rating store the loader needs.
type Ratings interface {
	Submit(ctx context.Context, recipeID int64, userID string, value int, review *string) (domain.Rating, error)
}

// Result summarises an Apply call.
type Result struct {
	Skipped bool
	Recipes int
	Ratings int
}

// Parse decodes a fixture document. Unknown keys are rejected.
func Parse(r io.Reader) (File, error) {
	var f File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		if err == io.EOF {
			return File{}, nil
		}
		return File{}, fmt.Errorf("decode seed file: %w", err)
	}
	return f, nil
}

// LoadFile reads and parses the fixture at path.
func LoadFile(path string) (File, error) {
	fh, err := os.Open(path)
	if err != nil {
		return File{}, fmt.Errorf("open seed file: %w", err)
	}
	defer fh.Close()
	return Parse(fh)
}

// Apply creates every fixture recipe and its ratings, in file order, when
// the catalog is empty. A non-empty catalog is left untouched.
func Apply(ctx context.Context, catalog Catalog, ratings Ratings, f File) (Result, error) {
	existing, err := catalog.FindAll(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("inspect catalog: %w", err)
	}
	if len(existing) > 0 {
		return Result{Skipped: true}, nil
	}

	var res Result
	for i, fr := range f.Recipes {
		recipe, err := catalog.Create(ctx, fr.params())
		if err != nil {
			return res, fmt.Errorf("seed recipe %d (%q): %w", i, fr.Name, err)
		}
		res.Recipes++

		for _, rt := range fr.Ratings {
			var review *string
			if rt.Review != "" {
				review = &rt.Review
			}
			if _, err := ratings.Submit(ctx, recipe.ID, rt.UserID, rt.Value, review); err != nil {
				return res, fmt.Errorf("seed rating for %q by %q: %w", fr.Name, rt.UserID, err)
			}
			res.Ratings++
		}
	}
	return res, nil
}

func (r Recipe) params() domain.RecipeParams {
	p := domain.RecipeParams{
		Name:            r.Name,
		PrepTime:        r.PrepTime,
		CookTime:        r.CookTime,
		Servings:        r.Servings,
		DifficultyLevel: r.DifficultyLevel,
		CuisineType:     r.CuisineType,
	}
	if r.Description != "" {
		desc := r.Description
		p.Description = &desc
	}
	return p
}
