package httpserver

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Clark-Hu/flavorhub/internal/domain"
	"github.com/Clark-Hu/flavorhub/internal/metrics"
	"github.com/Clark-Hu/flavorhub/internal/validation"
)

type ratingSubmitRequest struct {
	UserID string  `json:"userId" validate:"required,notblank,max=128"`
	Rating *int    `json:"rating" validate:"required"`
	Review *string `json:"review" validate:"omitempty,max=2000"`
}

type ratingUpdateRequest struct {
	Rating *int    `json:"rating" validate:"required"`
	Review *string `json:"review" validate:"omitempty,max=2000"`
}

type ratingResponse struct {
	ID        string    `json:"id"`
	RecipeID  int64     `json:"recipeId"`
	UserID    string    `json:"userId"`
	Rating    int       `json:"rating"`
	Review    *string   `json:"review,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type ratingAverageResponse struct {
	AverageRating float64 `json:"averageRating"`
	RatingCount   int64   `json:"ratingCount"`
}

func toRatingResponse(rating domain.Rating) ratingResponse {
	return ratingResponse{
		ID:        rating.ID,
		RecipeID:  rating.RecipeID,
		UserID:    rating.UserID,
		Rating:    rating.Value,
		Review:    rating.Review,
		CreatedAt: rating.CreatedAt,
		UpdatedAt: rating.UpdatedAt,
	}
}

// respondRatingValidation reports validator failures. A missing rating value
// is reported with the same code as an out-of-range one.
func (s *Server) respondRatingValidation(w http.ResponseWriter, r *http.Request, err error) {
	var verr *validation.Error
	if !errors.As(err, &verr) {
		s.respondInternal(w, r, err, "Failed to validate rating")
		return
	}
	code := "VALIDATION_ERROR"
	if verr.Has("rating") {
		code = "INVALID_RATING"
	}
	s.respondJSON(w, http.StatusBadRequest, errorResponse{
		Error:   verr.Error(),
		Code:    code,
		Details: verr.Fields,
	})
}

func (s *Server) handleSubmitRating(w http.ResponseWriter, r *http.Request) {
	recipeID, err := parseIDParam(r, "id")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}

	var req ratingSubmitRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		s.respondDecodeError(w, err)
		return
	}
	if err := validation.Struct(req); err != nil {
		s.respondRatingValidation(w, r, err)
		return
	}

	rating, err := s.svc.Ratings.Submit(r.Context(), recipeID, strings.TrimSpace(req.UserID), *req.Rating, normalizeStringPtr(req.Review))
	metrics.RecordRatingOperation("submit", err)
	if err != nil {
		// A rating for an unknown recipe is a bad submission, not a missing resource.
		if errors.Is(err, domain.ErrRecipeNotFound) {
			s.respondError(w, http.StatusBadRequest, "RECIPE_NOT_FOUND", err.Error())
			return
		}
		s.respondDomainError(w, r, err, "Failed to submit rating")
		return
	}
	s.respondJSON(w, http.StatusCreated, toRatingResponse(rating))
}

func (s *Server) handleListRatings(w http.ResponseWriter, r *http.Request) {
	recipeID, err := parseIDParam(r, "id")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}
	ratings, err := s.svc.Ratings.FindByRecipe(r.Context(), recipeID)
	if err != nil {
		s.respondInternal(w, r, err, "Failed to list ratings")
		return
	}
	out := make([]ratingResponse, 0, len(ratings))
	for _, rating := range ratings {
		out = append(out, toRatingResponse(rating))
	}
	s.respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleRatingAverage(w http.ResponseWriter, r *http.Request) {
	recipeID, err := parseIDParam(r, "id")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}
	agg, err := s.svc.Aggregator.Aggregate(r.Context(), recipeID)
	if err != nil {
		s.respondInternal(w, r, err, "Failed to fetch rating average")
		return
	}
	resp := ratingAverageResponse{RatingCount: agg.Count}
	if agg.Average != nil {
		resp.AverageRating = *agg.Average
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleUserRating(w http.ResponseWriter, r *http.Request) {
	recipeID, err := parseIDParam(r, "id")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}
	userID := strings.TrimSpace(chi.URLParam(r, "userId"))
	if userID == "" {
		s.respondError(w, http.StatusBadRequest, "INVALID_USER_ID", domain.ErrInvalidUserID.Error())
		return
	}

	rating, ok, err := s.svc.Ratings.FindByRecipeAndUser(r.Context(), recipeID, userID)
	if err != nil {
		s.respondInternal(w, r, err, "Failed to fetch rating")
		return
	}
	if !ok {
		s.respondError(w, http.StatusNotFound, "RATING_NOT_FOUND", domain.ErrRatingNotFound.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, toRatingResponse(rating))
}

// ratingInRecipe loads the rating and checks it belongs to the recipe in the
// path. Ratings of other recipes are reported as not found.
func (s *Server) ratingInRecipe(r *http.Request) (domain.Rating, error) {
	recipeID, err := parseIDParam(r, "id")
	if err != nil {
		return domain.Rating{}, domain.ErrRatingNotFound
	}
	rating, err := s.svc.Ratings.FindByID(r.Context(), chi.URLParam(r, "ratingId"))
	if err != nil {
		return domain.Rating{}, err
	}
	if rating.RecipeID != recipeID {
		return domain.Rating{}, domain.ErrRatingNotFound
	}
	return rating, nil
}

func (s *Server) handleUpdateRating(w http.ResponseWriter, r *http.Request) {
	var req ratingUpdateRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		s.respondDecodeError(w, err)
		return
	}
	if err := validation.Struct(req); err != nil {
		s.respondRatingValidation(w, r, err)
		return
	}
	if !domain.ValidRatingValue(*req.Rating) {
		metrics.RecordRatingOperation("update", domain.ErrInvalidRatingValue)
		s.respondDomainError(w, r, domain.ErrInvalidRatingValue, "Failed to update rating")
		return
	}

	existing, err := s.ratingInRecipe(r)
	if err != nil {
		metrics.RecordRatingOperation("update", err)
		s.respondDomainError(w, r, err, "Failed to update rating")
		return
	}

	rating, err := s.svc.Ratings.Update(r.Context(), existing.ID, *req.Rating, normalizeStringPtr(req.Review))
	metrics.RecordRatingOperation("update", err)
	if err != nil {
		s.respondDomainError(w, r, err, "Failed to update rating")
		return
	}
	s.respondJSON(w, http.StatusOK, toRatingResponse(rating))
}

func (s *Server) handleDeleteRating(w http.ResponseWriter, r *http.Request) {
	existing, err := s.ratingInRecipe(r)
	switch {
	case errors.Is(err, domain.ErrRatingNotFound):
		metrics.RecordRatingOperation("delete", nil)
		w.WriteHeader(http.StatusNoContent)
		return
	case err != nil:
		s.respondInternal(w, r, err, "Failed to delete rating")
		return
	}

	err = s.svc.Ratings.Delete(r.Context(), existing.ID)
	metrics.RecordRatingOperation("delete", err)
	if err != nil {
		s.respondInternal(w, r, err, "Failed to delete rating")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
