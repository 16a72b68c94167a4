package service

import (
	"context"
	"strings"

	"github.com/Clark-Hu/flavorhub/internal/domain"
)

// Catalog serves recipe reads, always enriched, and catalog management.
type Catalog struct {
	recipes  RecipeBackend
	enricher *Enricher
}

// NewCatalog constructs the catalog component.
func NewCatalog(recipes RecipeBackend, enricher *Enricher) *Catalog {
	return &Catalog{recipes: recipes, enricher: enricher}
}

// FindAll returns every recipe in catalog order.
func (c *Catalog) FindAll(ctx context.Context) ([]domain.Recipe, error) {
	return c.List(ctx, domain.RecipeFilter{})
}

// FindByID returns the recipe or domain.ErrRecipeNotFound.
func (c *Catalog) FindByID(ctx context.Context, id int64) (domain.Recipe, error) {
	recipe, err := c.recipes.GetByID(ctx, id)
	if err != nil {
		return domain.Recipe{}, err
	}
	if err := c.enricher.Enrich(ctx, &recipe); err != nil {
		return domain.Recipe{}, err
	}
	return recipe, nil
}

// FilterByDifficulty matches the difficulty level exactly, ignoring case.
func (c *Catalog) FilterByDifficulty(ctx context.Context, level string) ([]domain.Recipe, error) {
	return c.List(ctx, domain.RecipeFilter{Difficulty: level})
}

// FilterByCuisine matches the cuisine type exactly, ignoring case.
func (c *Catalog) FilterByCuisine(ctx context.Context, cuisine string) ([]domain.Recipe, error) {
	return c.List(ctx, domain.RecipeFilter{Cuisine: cuisine})
}

// Search matches term as a case-insensitive substring of name or
// description. An empty term matches every recipe.
func (c *Catalog) Search(ctx context.Context, term string) ([]domain.Recipe, error) {
	return c.List(ctx, domain.RecipeFilter{Search: term})
}

// List applies the non-empty filters as a conjunction.
func (c *Catalog) List(ctx context.Context, filter domain.RecipeFilter) ([]domain.Recipe, error) {
	filter.Difficulty = strings.TrimSpace(filter.Difficulty)
	filter.Cuisine = strings.TrimSpace(filter.Cuisine)

	recipes, err := c.recipes.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	if err := c.enricher.EnrichAll(ctx, recipes); err != nil {
		return nil, err
	}
	return recipes, nil
}

// Featured returns the first limit recipes of the catalog.
func (c *Catalog) Featured(ctx context.Context, limit int) ([]domain.Recipe, error) {
	recipes, err := c.recipes.List(ctx, domain.RecipeFilter{})
	if err != nil {
		return nil, err
	}
	if limit >= 0 && len(recipes) > limit {
		recipes = recipes[:limit]
	}
	if err := c.enricher.EnrichAll(ctx, recipes); err != nil {
		return nil, err
	}
	return recipes, nil
}

// Create adds a recipe to the catalog.
func (c *Catalog) Create(ctx context.Context, params domain.RecipeParams) (domain.Recipe, error) {
	params = normalizeParams(params)
	if err := params.Validate(); err != nil {
		return domain.Recipe{}, err
	}
	return c.recipes.Create(ctx, params)
}

// Update replaces the mutable fields of a recipe and returns it enriched.
func (c *Catalog) Update(ctx context.Context, id int64, params domain.RecipeParams) (domain.Recipe, error) {
	params = normalizeParams(params)
	if err := params.Validate(); err != nil {
		return domain.Recipe{}, err
	}
	recipe, err := c.recipes.Update(ctx, id, params)
	if err != nil {
		return domain.Recipe{}, err
	}
	if err := c.enricher.Enrich(ctx, &recipe); err != nil {
		return domain.Recipe{}, err
	}
	return recipe, nil
}

// Delete removes a recipe together with its ratings. Unknown ids are ignored.
func (c *Catalog) Delete(ctx context.Context, id int64) error {
	return c.recipes.Delete(ctx, id)
}

func normalizeParams(p domain.RecipeParams) domain.RecipeParams {
	p.Name = strings.TrimSpace(p.Name)
	p.DifficultyLevel = strings.TrimSpace(p.DifficultyLevel)
	p.CuisineType = strings.TrimSpace(p.CuisineType)
	if p.Description != nil {
		desc := strings.TrimSpace(*p.Description)
		if desc == "" {
			p.Description = nil
		} else {
			p.Description = &desc
		}
	}
	return p
}
