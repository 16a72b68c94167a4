package httpserver

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Clark-Hu/flavorhub/internal/domain"
	"github.com/Clark-Hu/flavorhub/internal/validation"
)

const (
	defaultFeaturedLimit = 6
	maxFeaturedLimit     = 50
)

type recipeRequest struct {
	Name            string  `json:"name" validate:"required,notblank,max=200"`
	Description     *string `json:"description" validate:"omitempty,max=4000"`
	PrepTime        int     `json:"prepTime" validate:"min=0,max=10080"`
	CookTime        int     `json:"cookTime" validate:"min=0,max=10080"`
	Servings        int     `json:"servings" validate:"min=1,max=1000"`
	DifficultyLevel string  `json:"difficultyLevel" validate:"max=50"`
	CuisineType     string  `json:"cuisineType" validate:"max=100"`
}

func (req recipeRequest) params() domain.RecipeParams {
	return domain.RecipeParams{
		Name:            strings.TrimSpace(req.Name),
		Description:     normalizeStringPtr(req.Description),
		PrepTime:        req.PrepTime,
		CookTime:        req.CookTime,
		Servings:        req.Servings,
		DifficultyLevel: strings.TrimSpace(req.DifficultyLevel),
		CuisineType:     strings.TrimSpace(req.CuisineType),
	}
}

type recipeResponse struct {
	ID              int64     `json:"id"`
	Name            string    `json:"name"`
	Description     *string   `json:"description,omitempty"`
	PrepTime        int       `json:"prepTime"`
	CookTime        int       `json:"cookTime"`
	Servings        int       `json:"servings"`
	DifficultyLevel string    `json:"difficultyLevel"`
	CuisineType     string    `json:"cuisineType"`
	AverageRating   *float64  `json:"averageRating"`
	RatingCount     int64     `json:"ratingCount"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

func toRecipeResponse(recipe domain.Recipe) recipeResponse {
	return recipeResponse{
		ID:              recipe.ID,
		Name:            recipe.Name,
		Description:     recipe.Description,
		PrepTime:        recipe.PrepTime,
		CookTime:        recipe.CookTime,
		Servings:        recipe.Servings,
		DifficultyLevel: recipe.DifficultyLevel,
		CuisineType:     recipe.CuisineType,
		AverageRating:   recipe.AverageRating,
		RatingCount:     recipe.RatingCount,
		CreatedAt:       recipe.CreatedAt,
		UpdatedAt:       recipe.UpdatedAt,
	}
}

func toRecipeResponses(recipes []domain.Recipe) []recipeResponse {
	out := make([]recipeResponse, 0, len(recipes))
	for _, recipe := range recipes {
		out = append(out, toRecipeResponse(recipe))
	}
	return out
}

func buildRecipeFilter(query url.Values) domain.RecipeFilter {
	return domain.RecipeFilter{
		Difficulty: strings.TrimSpace(query.Get("difficulty")),
		Cuisine:    strings.TrimSpace(query.Get("cuisine")),
		Search:     searchTerm(query.Get("search")),
	}
}

// searchTerm keeps the term verbatim; a blank term means no search filter.
func searchTerm(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}
	return raw
}

func parseFeaturedLimit(query url.Values) (int, error) {
	val := strings.TrimSpace(query.Get("limit"))
	if val == "" {
		return defaultFeaturedLimit, nil
	}
	limit, err := strconv.Atoi(val)
	if err != nil || limit < 1 {
		return 0, fmt.Errorf("invalid limit value")
	}
	if limit > maxFeaturedLimit {
		limit = maxFeaturedLimit
	}
	return limit, nil
}

func (s *Server) handleListRecipes(w http.ResponseWriter, r *http.Request) {
	recipes, err := s.svc.Catalog.List(r.Context(), buildRecipeFilter(r.URL.Query()))
	if err != nil {
		s.respondInternal(w, r, err, "Failed to list recipes")
		return
	}
	s.respondJSON(w, http.StatusOK, toRecipeResponses(recipes))
}

func (s *Server) handleSearchRecipes(w http.ResponseWriter, r *http.Request) {
	recipes, err := s.svc.Catalog.Search(r.Context(), searchTerm(r.URL.Query().Get("query")))
	if err != nil {
		s.respondInternal(w, r, err, "Failed to search recipes")
		return
	}
	s.respondJSON(w, http.StatusOK, toRecipeResponses(recipes))
}

func (s *Server) handleRecipesByDifficulty(w http.ResponseWriter, r *http.Request) {
	recipes, err := s.svc.Catalog.FilterByDifficulty(r.Context(), chi.URLParam(r, "level"))
	if err != nil {
		s.respondInternal(w, r, err, "Failed to list recipes")
		return
	}
	s.respondJSON(w, http.StatusOK, toRecipeResponses(recipes))
}

func (s *Server) handleRecipesByCuisine(w http.ResponseWriter, r *http.Request) {
	recipes, err := s.svc.Catalog.FilterByCuisine(r.Context(), chi.URLParam(r, "type"))
	if err != nil {
		s.respondInternal(w, r, err, "Failed to list recipes")
		return
	}
	s.respondJSON(w, http.StatusOK, toRecipeResponses(recipes))
}

func (s *Server) handleRecipeOfTheDay(w http.ResponseWriter, r *http.Request) {
	recipe, ok, err := s.svc.Daily.PickOfTheDay(r.Context())
	if err != nil {
		s.respondInternal(w, r, err, "Failed to pick recipe of the day")
		return
	}
	if !ok {
		s.respondError(w, http.StatusNotFound, "NOT_FOUND", "No recipes available")
		return
	}
	s.respondJSON(w, http.StatusOK, toRecipeResponse(recipe))
}

func (s *Server) handleFeaturedRecipes(w http.ResponseWriter, r *http.Request) {
	limit, err := parseFeaturedLimit(r.URL.Query())
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}
	recipes, err := s.svc.Catalog.Featured(r.Context(), limit)
	if err != nil {
		s.respondInternal(w, r, err, "Failed to list featured recipes")
		return
	}
	s.respondJSON(w, http.StatusOK, toRecipeResponses(recipes))
}

func (s *Server) handleGetRecipe(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}
	recipe, err := s.svc.Catalog.FindByID(r.Context(), id)
	if err != nil {
		s.respondDomainError(w, r, err, "Failed to fetch recipe")
		return
	}
	s.respondJSON(w, http.StatusOK, toRecipeResponse(recipe))
}

func (s *Server) decodeRecipeRequest(w http.ResponseWriter, r *http.Request) (recipeRequest, bool) {
	var req recipeRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		s.respondDecodeError(w, err)
		return req, false
	}
	if err := validation.Struct(req); err != nil {
		var verr *validation.Error
		if errors.As(err, &verr) {
			s.respondJSON(w, http.StatusUnprocessableEntity, errorResponse{
				Error:   verr.Error(),
				Code:    "VALIDATION_ERROR",
				Details: verr.Fields,
			})
			return req, false
		}
		s.respondInternal(w, r, err, "Failed to validate recipe")
		return req, false
	}
	return req, true
}

func (s *Server) handleCreateRecipe(w http.ResponseWriter, r *http.Request) {
	if !s.requireBearer(w, r) {
		return
	}
	req, ok := s.decodeRecipeRequest(w, r)
	if !ok {
		return
	}

	recipe, err := s.svc.Catalog.Create(r.Context(), req.params())
	if err != nil {
		s.respondDomainError(w, r, err, "Failed to create recipe")
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/api/recipes/%d", recipe.ID))
	s.respondJSON(w, http.StatusCreated, toRecipeResponse(recipe))
}

func (s *Server) handleUpdateRecipe(w http.ResponseWriter, r *http.Request) {
	if !s.requireBearer(w, r) {
		return
	}
	id, err := parseIDParam(r, "id")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}
	req, ok := s.decodeRecipeRequest(w, r)
	if !ok {
		return
	}

	recipe, err := s.svc.Catalog.Update(r.Context(), id, req.params())
	if err != nil {
		s.respondDomainError(w, r, err, "Failed to update recipe")
		return
	}
	s.respondJSON(w, http.StatusOK, toRecipeResponse(recipe))
}

func (s *Server) handleDeleteRecipe(w http.ResponseWriter, r *http.Request) {
	if !s.requireBearer(w, r) {
		return
	}
	id, err := parseIDParam(r, "id")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}
	if err := s.svc.Catalog.Delete(r.Context(), id); err != nil {
		s.respondInternal(w, r, err, "Failed to delete recipe")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
