package memory

import (
	"context"
	"strings"
	"time"

	"github.com/Clark-Hu/flavorhub/internal/domain"
)

// RecipesRepository stores recipes in insertion order.
type RecipesRepository struct {
	st *store
}

type recipeRecord struct {
	recipe domain.Recipe
	// lowered copies used for case-insensitive matching
	difficulty  string
	cuisine     string
	name        string
	description string
}

func newRecipeRecord(r domain.Recipe) *recipeRecord {
	rec := &recipeRecord{
		recipe:     r,
		difficulty: strings.ToLower(r.DifficultyLevel),
		cuisine:    strings.ToLower(r.CuisineType),
		name:       strings.ToLower(r.Name),
	}
	if r.Description != nil {
		rec.description = strings.ToLower(*r.Description)
	}
	return rec
}

func (rec *recipeRecord) matches(difficulty, cuisine, search string) bool {
	if difficulty != "" && rec.difficulty != difficulty {
		return false
	}
	if cuisine != "" && rec.cuisine != cuisine {
		return false
	}
	if search != "" && !strings.Contains(rec.name, search) && !strings.Contains(rec.description, search) {
		return false
	}
	return true
}

// Create stores a new recipe with the next id.
func (r *RecipesRepository) Create(_ context.Context, params domain.RecipeParams) (domain.Recipe, error) {
	st := r.st
	st.recipesMu.Lock()
	defer st.recipesMu.Unlock()

	st.nextRecipeID++
	now := time.Now().UTC()
	recipe := applyParams(domain.Recipe{ID: st.nextRecipeID, CreatedAt: now}, params, now)

	st.recipeIndex[recipe.ID] = len(st.recipes)
	st.recipes = append(st.recipes, newRecipeRecord(recipe))
	return cloneRecipe(recipe), nil
}

// Update replaces the mutable fields of an existing recipe.
func (r *RecipesRepository) Update(_ context.Context, id int64, params domain.RecipeParams) (domain.Recipe, error) {
	st := r.st
	st.recipesMu.Lock()
	defer st.recipesMu.Unlock()

	idx, ok := st.recipeIndex[id]
	if !ok {
		return domain.Recipe{}, domain.ErrRecipeNotFound
	}
	recipe := applyParams(st.recipes[idx].recipe, params, time.Now().UTC())
	st.recipes[idx] = newRecipeRecord(recipe)
	return cloneRecipe(recipe), nil
}

// Delete removes a recipe and its ratings. Unknown ids are ignored.
func (r *RecipesRepository) Delete(_ context.Context, id int64) error {
	st := r.st
	st.recipesMu.Lock()
	defer st.recipesMu.Unlock()

	idx, ok := st.recipeIndex[id]
	if !ok {
		return nil
	}
	st.recipes = append(st.recipes[:idx], st.recipes[idx+1:]...)
	delete(st.recipeIndex, id)
	for i := idx; i < len(st.recipes); i++ {
		st.recipeIndex[st.recipes[i].recipe.ID] = i
	}

	st.ratingsMu.Lock()
	for _, ratingID := range st.byRecipe[id] {
		if rec, ok := st.ratings[ratingID]; ok {
			delete(st.byPair, pairKey{recipeID: id, userID: rec.rating.UserID})
			delete(st.ratings, ratingID)
		}
	}
	delete(st.byRecipe, id)
	st.ratingsMu.Unlock()
	return nil
}

// GetByID returns the recipe or domain.ErrRecipeNotFound.
func (r *RecipesRepository) GetByID(_ context.Context, id int64) (domain.Recipe, error) {
	st := r.st
	st.recipesMu.RLock()
	defer st.recipesMu.RUnlock()

	idx, ok := st.recipeIndex[id]
	if !ok {
		return domain.Recipe{}, domain.ErrRecipeNotFound
	}
	return cloneRecipe(st.recipes[idx].recipe), nil
}

// List returns recipes matching filter in ascending id order.
func (r *RecipesRepository) List(_ context.Context, filter domain.RecipeFilter) ([]domain.Recipe, error) {
	difficulty := strings.ToLower(filter.Difficulty)
	cuisine := strings.ToLower(filter.Cuisine)
	search := strings.ToLower(filter.Search)

	st := r.st
	st.recipesMu.RLock()
	defer st.recipesMu.RUnlock()

	items := make([]domain.Recipe, 0, len(st.recipes))
	for _, rec := range st.recipes {
		if rec.matches(difficulty, cuisine, search) {
			items = append(items, cloneRecipe(rec.recipe))
		}
	}
	return items, nil
}

// recipeExists must be called with recipesMu held.
func (st *store) recipeExists(id int64) bool {
	_, ok := st.recipeIndex[id]
	return ok
}

func applyParams(recipe domain.Recipe, p domain.RecipeParams, now time.Time) domain.Recipe {
	recipe.Name = p.Name
	recipe.Description = cloneString(p.Description)
	recipe.PrepTime = p.PrepTime
	recipe.CookTime = p.CookTime
	recipe.Servings = p.Servings
	recipe.DifficultyLevel = p.DifficultyLevel
	recipe.CuisineType = p.CuisineType
	recipe.UpdatedAt = now
	return recipe
}

func cloneRecipe(r domain.Recipe) domain.Recipe {
	r.Description = cloneString(r.Description)
	r.AverageRating = nil
	r.RatingCount = 0
	return r
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
