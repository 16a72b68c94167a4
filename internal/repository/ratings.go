package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Clark-Hu/flavorhub/internal/domain"
)

// RatingsRepository provides helpers for recipe ratings.
type RatingsRepository struct {
	pool *pgxpool.Pool
}

const ratingColumns = `id, recipe_id, user_id, rating, review, created_at, updated_at`

// Insert creates a rating. The (recipe_id, user_id) unique constraint makes
// the duplicate check and the insert a single statement, so of two racing
// inserts for the same pair exactly one returns a row.
func (r *RatingsRepository) Insert(ctx context.Context, rating domain.Rating) (domain.Rating, error) {
	query := fmt.Sprintf(`
        INSERT INTO recipe_ratings (id, recipe_id, user_id, rating, review, created_at, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        ON CONFLICT (recipe_id, user_id) DO NOTHING
        RETURNING %s
    `, ratingColumns)

	row := r.pool.QueryRow(ctx, query, rating.ID, rating.RecipeID, rating.UserID, rating.Value,
		rating.Review, rating.CreatedAt, rating.UpdatedAt)
	stored, err := scanRating(row)
	if err != nil {
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			return domain.Rating{}, domain.ErrDuplicateRating
		case pgErrorCode(err) == pgForeignKeyViolation:
			return domain.Rating{}, domain.ErrRecipeNotFound
		case pgErrorCode(err) == pgUniqueViolation:
			// primary key clash on id; the pair itself was free
			return domain.Rating{}, fmt.Errorf("insert rating: %w", err)
		}
		return domain.Rating{}, err
	}
	return stored, nil
}

// Update overwrites value and review. updated_at never precedes created_at.
func (r *RatingsRepository) Update(ctx context.Context, id string, value int, review *string, updatedAt time.Time) (domain.Rating, error) {
	query := fmt.Sprintf(`
        UPDATE recipe_ratings
        SET rating = $2,
            review = $3,
            updated_at = GREATEST($4::timestamptz, created_at)
        WHERE id = $1
        RETURNING %s
    `, ratingColumns)

	rating, err := scanRating(r.pool.QueryRow(ctx, query, id, value, review, updatedAt))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Rating{}, domain.ErrRatingNotFound
		}
		return domain.Rating{}, err
	}
	return rating, nil
}

// Delete removes a rating. Missing ids are not an error.
func (r *RatingsRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM recipe_ratings WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete rating: %w", err)
	}
	return nil
}

// GetByID retrieves a rating by identifier.
func (r *RatingsRepository) GetByID(ctx context.Context, id string) (domain.Rating, error) {
	query := fmt.Sprintf(`SELECT %s FROM recipe_ratings WHERE id = $1`, ratingColumns)
	return r.getOne(ctx, query, id)
}

// GetByRecipeAndUser retrieves the rating for a specific user/recipe combination.
func (r *RatingsRepository) GetByRecipeAndUser(ctx context.Context, recipeID int64, userID string) (domain.Rating, error) {
	query := fmt.Sprintf(`SELECT %s FROM recipe_ratings WHERE recipe_id = $1 AND user_id = $2`, ratingColumns)
	return r.getOne(ctx, query, recipeID, userID)
}

// ListByRecipe returns the recipe's ratings oldest first.
func (r *RatingsRepository) ListByRecipe(ctx context.Context, recipeID int64) ([]domain.Rating, error) {
	query := fmt.Sprintf(`SELECT %s FROM recipe_ratings WHERE recipe_id = $1 ORDER BY created_at ASC, id ASC`, ratingColumns)
	rows, err := r.pool.Query(ctx, query, recipeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]domain.Rating, 0)
	for rows.Next() {
		rating, err := scanRating(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, rating)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// Aggregate returns the rating average and count for a recipe. The average
// is NULL, and therefore nil, when the recipe has no ratings.
func (r *RatingsRepository) Aggregate(ctx context.Context, recipeID int64) (domain.RatingAggregate, error) {
	const query = `
        SELECT AVG(rating)::float8 AS average,
               COUNT(*)::int8 AS count
        FROM recipe_ratings
        WHERE recipe_id = $1
    `

	var agg domain.RatingAggregate
	if err := r.pool.QueryRow(ctx, query, recipeID).Scan(&agg.Average, &agg.Count); err != nil {
		return domain.RatingAggregate{}, fmt.Errorf("aggregate ratings: %w", err)
	}
	return agg, nil
}

func (r *RatingsRepository) getOne(ctx context.Context, query string, args ...interface{}) (domain.Rating, error) {
	rating, err := scanRating(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Rating{}, domain.ErrRatingNotFound
		}
		return domain.Rating{}, err
	}
	return rating, nil
}

func scanRating(row pgx.Row) (domain.Rating, error) {
	var (
		rating domain.Rating
		value  int16
	)
	err := row.Scan(
		&rating.ID,
		&rating.RecipeID,
		&rating.UserID,
		&value,
		&rating.Review,
		&rating.CreatedAt,
		&rating.UpdatedAt,
	)
	if err != nil {
		return domain.Rating{}, err
	}
	rating.Value = int(value)
	rating.CreatedAt = rating.CreatedAt.UTC()
	rating.UpdatedAt = rating.UpdatedAt.UTC()
	return rating, nil
}
