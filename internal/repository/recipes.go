package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Clark-Hu/flavorhub/internal/domain"
)

// RecipesRepository provides persistence helpers for recipe entities.
type RecipesRepository struct {
	pool *pgxpool.Pool
}

const recipeColumns = `
    id,
    name,
    description,
    prep_time,
    cook_time,
    servings,
    difficulty_level,
    cuisine_type,
    created_at,
    updated_at
`

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// Create inserts a new recipe row and returns the stored entity.
func (r *RecipesRepository) Create(ctx context.Context, params domain.RecipeParams) (domain.Recipe, error) {
	query := fmt.Sprintf(`
        INSERT INTO recipes (name, description, prep_time, cook_time, servings, difficulty_level, cuisine_type)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING %s
    `, recipeColumns)

	row := r.pool.QueryRow(ctx, query, params.Name, params.Description, params.PrepTime, params.CookTime,
		params.Servings, params.DifficultyLevel, params.CuisineType)
	return scanRecipe(row)
}

// Update replaces the mutable columns of a recipe.
func (r *RecipesRepository) Update(ctx context.Context, id int64, params domain.RecipeParams) (domain.Recipe, error) {
	query := fmt.Sprintf(`
        UPDATE recipes
        SET name = $2,
            description = $3,
            prep_time = $4,
            cook_time = $5,
            servings = $6,
            difficulty_level = $7,
            cuisine_type = $8,
            updated_at = now()
        WHERE id = $1
        RETURNING %s
    `, recipeColumns)

	row := r.pool.QueryRow(ctx, query, id, params.Name, params.Description, params.PrepTime, params.CookTime,
		params.Servings, params.DifficultyLevel, params.CuisineType)
	recipe, err := scanRecipe(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Recipe{}, domain.ErrRecipeNotFound
		}
		return domain.Recipe{}, err
	}
	return recipe, nil
}

// Delete removes a recipe; its ratings go with it through ON DELETE CASCADE.
func (r *RecipesRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM recipes WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete recipe: %w", err)
	}
	return nil
}

// GetByID fetches a recipe by its identifier.
func (r *RecipesRepository) GetByID(ctx context.Context, id int64) (domain.Recipe, error) {
	query := fmt.Sprintf(`SELECT %s FROM recipes WHERE id = $1`, recipeColumns)
	recipe, err := scanRecipe(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Recipe{}, domain.ErrRecipeNotFound
		}
		return domain.Recipe{}, err
	}
	return recipe, nil
}

// List returns recipes that match every non-empty filter, ordered by id.
func (r *RecipesRepository) List(ctx context.Context, filter domain.RecipeFilter) ([]domain.Recipe, error) {
	where := make([]string, 0, 3)
	args := make([]interface{}, 0, 3)
	arg := func(value interface{}) string {
		args = append(args, value)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.Difficulty != "" {
		where = append(where, fmt.Sprintf("lower(difficulty_level) = lower(%s)", arg(filter.Difficulty)))
	}
	if filter.Cuisine != "" {
		where = append(where, fmt.Sprintf("lower(cuisine_type) = lower(%s)", arg(filter.Cuisine)))
	}
	if filter.Search != "" {
		p := arg("%" + likeEscaper.Replace(filter.Search) + "%")
		where = append(where, fmt.Sprintf("(name ILIKE %s OR COALESCE(description, '') ILIKE %s)", p, p))
	}

	queryBuilder := strings.Builder{}
	queryBuilder.WriteString("SELECT ")
	queryBuilder.WriteString(recipeColumns)
	queryBuilder.WriteString(" FROM recipes")
	if len(where) > 0 {
		queryBuilder.WriteString(" WHERE ")
		queryBuilder.WriteString(strings.Join(where, " AND "))
	}
	queryBuilder.WriteString(" ORDER BY id ASC")

	rows, err := r.pool.Query(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]domain.Recipe, 0)
	for rows.Next() {
		recipe, err := scanRecipe(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, recipe)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func scanRecipe(row pgx.Row) (domain.Recipe, error) {
	var (
		recipe    domain.Recipe
		createdAt time.Time
		updatedAt time.Time
	)

	err := row.Scan(
		&recipe.ID,
		&recipe.Name,
		&recipe.Description,
		&recipe.PrepTime,
		&recipe.CookTime,
		&recipe.Servings,
		&recipe.DifficultyLevel,
		&recipe.CuisineType,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return domain.Recipe{}, err
	}

	recipe.CreatedAt = createdAt.UTC()
	recipe.UpdatedAt = updatedAt.UTC()
	return recipe, nil
}
