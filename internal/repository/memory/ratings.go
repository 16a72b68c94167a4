package memory

import (
	"context"
	"time"

	"github.com/Clark-Hu/flavorhub/internal/domain"
)

// RatingsRepository stores ratings with a (recipe, user) uniqueness index.
type RatingsRepository struct {
	st *store
}

type ratingRecord struct {
	rating domain.Rating
}

// Insert stores rating unless the recipe is gone or the user already rated it.
func (r *RatingsRepository) Insert(_ context.Context, rating domain.Rating) (domain.Rating, error) {
	st := r.st
	key := pairKey{recipeID: rating.RecipeID, userID: rating.UserID}
	unlock := st.lockPair(key)
	defer unlock()

	// Held across the insert so a concurrent recipe delete cannot orphan it.
	st.recipesMu.RLock()
	defer st.recipesMu.RUnlock()
	if !st.recipeExists(rating.RecipeID) {
		return domain.Rating{}, domain.ErrRecipeNotFound
	}

	st.ratingsMu.RLock()
	_, taken := st.byPair[key]
	st.ratingsMu.RUnlock()
	if taken {
		return domain.Rating{}, domain.ErrDuplicateRating
	}

	stored := cloneRating(rating)
	st.ratingsMu.Lock()
	st.ratings[stored.ID] = &ratingRecord{rating: stored}
	st.byPair[key] = stored.ID
	st.byRecipe[stored.RecipeID] = append(st.byRecipe[stored.RecipeID], stored.ID)
	st.ratingsMu.Unlock()

	return cloneRating(stored), nil
}

// Update overwrites value and review. updatedAt never precedes createdAt.
func (r *RatingsRepository) Update(_ context.Context, id string, value int, review *string, updatedAt time.Time) (domain.Rating, error) {
	st := r.st
	st.ratingsMu.Lock()
	defer st.ratingsMu.Unlock()

	rec, ok := st.ratings[id]
	if !ok {
		return domain.Rating{}, domain.ErrRatingNotFound
	}
	rec.rating.Value = value
	rec.rating.Review = cloneString(review)
	if updatedAt.Before(rec.rating.CreatedAt) {
		updatedAt = rec.rating.CreatedAt
	}
	rec.rating.UpdatedAt = updatedAt
	return cloneRating(rec.rating), nil
}

// Delete removes a rating. Unknown ids are ignored.
func (r *RatingsRepository) Delete(_ context.Context, id string) error {
	st := r.st
	st.ratingsMu.RLock()
	rec, ok := st.ratings[id]
	var key pairKey
	if ok {
		key = pairKey{recipeID: rec.rating.RecipeID, userID: rec.rating.UserID}
	}
	st.ratingsMu.RUnlock()
	if !ok {
		return nil
	}

	unlock := st.lockPair(key)
	defer unlock()

	st.ratingsMu.Lock()
	defer st.ratingsMu.Unlock()
	if _, still := st.ratings[id]; !still {
		return nil
	}
	delete(st.ratings, id)
	if st.byPair[key] == id {
		delete(st.byPair, key)
	}
	ids := st.byRecipe[key.recipeID]
	for i, rid := range ids {
		if rid == id {
			st.byRecipe[key.recipeID] = append(ids[:i:i], ids[i+1:]...)
			break
		}
	}
	if len(st.byRecipe[key.recipeID]) == 0 {
		delete(st.byRecipe, key.recipeID)
	}
	return nil
}

// GetByID returns the rating or domain.ErrRatingNotFound.
func (r *RatingsRepository) GetByID(_ context.Context, id string) (domain.Rating, error) {
	st := r.st
	st.ratingsMu.RLock()
	defer st.ratingsMu.RUnlock()

	rec, ok := st.ratings[id]
	if !ok {
		return domain.Rating{}, domain.ErrRatingNotFound
	}
	return cloneRating(rec.rating), nil
}

// GetByRecipeAndUser returns the user's rating or domain.ErrRatingNotFound.
func (r *RatingsRepository) GetByRecipeAndUser(_ context.Context, recipeID int64, userID string) (domain.Rating, error) {
	st := r.st
	st.ratingsMu.RLock()
	defer st.ratingsMu.RUnlock()

	id, ok := st.byPair[pairKey{recipeID: recipeID, userID: userID}]
	if !ok {
		return domain.Rating{}, domain.ErrRatingNotFound
	}
	return cloneRating(st.ratings[id].rating), nil
}

// ListByRecipe returns the recipe's ratings in insertion order.
func (r *RatingsRepository) ListByRecipe(_ context.Context, recipeID int64) ([]domain.Rating, error) {
	st := r.st
	st.ratingsMu.RLock()
	defer st.ratingsMu.RUnlock()

	ids := st.byRecipe[recipeID]
	items := make([]domain.Rating, 0, len(ids))
	for _, id := range ids {
		items = append(items, cloneRating(st.ratings[id].rating))
	}
	return items, nil
}

// Aggregate computes average and count from one consistent view.
func (r *RatingsRepository) Aggregate(_ context.Context, recipeID int64) (domain.RatingAggregate, error) {
	st := r.st
	st.ratingsMu.RLock()
	defer st.ratingsMu.RUnlock()

	ids := st.byRecipe[recipeID]
	if len(ids) == 0 {
		return domain.RatingAggregate{}, nil
	}
	sum := 0
	for _, id := range ids {
		sum += st.ratings[id].rating.Value
	}
	avg := float64(sum) / float64(len(ids))
	return domain.RatingAggregate{Average: &avg, Count: int64(len(ids))}, nil
}

func cloneRating(r domain.Rating) domain.Rating {
	r.Review = cloneString(r.Review)
	return r
}
