package seed_test

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Clark-Hu/flavorhub/internal/domain"
	"github.com/Clark-Hu/flavorhub/internal/repository/memory"
	"github.com/Clark-Hu/flavorhub/internal/seed"
	"github.com/Clark-Hu/flavorhub/internal/service"
)

const fixture = `
recipes:
  - name: Pasta Carbonara
    description: Roman pasta with egg and guanciale
    prepTime: 10
    cookTime: 15
    servings: 2
    difficultyLevel: Easy
    cuisineType: Italian
    ratings:
      - userId: alice
        rating: 5
        review: perfect
      - userId: bob
        rating: 4
  - name: Pad Thai
    prepTime: 20
    cookTime: 10
    servings: 2
    difficultyLevel: Medium
    cuisineType: Thai
`

func newService() *service.Service {
	repo := memory.New()
	return service.New(repo.Recipes, repo.Ratings, service.Options{
		Now:      func() time.Time { return time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC) },
		Location: time.UTC,
	})
}

func TestParse(t *testing.T) {
	f, err := seed.Parse(strings.NewReader(fixture))
	require.NoError(t, err)
	require.Len(t, f.Recipes, 2)
	assert.Equal(t, "Pasta Carbonara", f.Recipes[0].Name)
	assert.Len(t, f.Recipes[0].Ratings, 2)
	assert.Empty(t, f.Recipes[1].Description)

	_, err = seed.Parse(strings.NewReader("recipes:\n  - nmae: typo\n"))
	assert.Error(t, err, "unknown keys must be rejected")

	empty, err := seed.Parse(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, empty.Recipes)
}

func TestApply(t *testing.T) {
	ctx := context.Background()
	svc := newService()
	f, err := seed.Parse(strings.NewReader(fixture))
	require.NoError(t, err)

	res, err := seed.Apply(ctx, svc.Catalog, svc.Ratings, f)
	require.NoError(t, err)
	assert.Equal(t, seed.Result{Recipes: 2, Ratings: 2}, res)

	all, err := svc.Catalog.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	require.NotNil(t, all[0].AverageRating)
	assert.InDelta(t, 4.5, *all[0].AverageRating, 1e-9)
	assert.Nil(t, all[1].Description)

	again, err := seed.Apply(ctx, svc.Catalog, svc.Ratings, f)
	require.NoError(t, err)
	assert.True(t, again.Skipped)
	all, err = svc.Catalog.FindAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestApplyReportsInvalidFixtures(t *testing.T) {
	ctx := context.Background()
	svc := newService()

	_, err := seed.Apply(ctx, svc.Catalog, svc.Ratings, seed.File{Recipes: []seed.Recipe{{Name: "No servings"}}})
	assert.ErrorIs(t, err, domain.ErrInvalidRecipe)

	svc = newService()
	_, err = seed.Apply(ctx, svc.Catalog, svc.Ratings, seed.File{Recipes: []seed.Recipe{{
		Name:     "Dup",
		Servings: 1,
		Ratings:  []seed.Rating{{UserID: "u", Value: 3}, {UserID: "u", Value: 4}},
	}}})
	assert.ErrorIs(t, err, domain.ErrDuplicateRating)
}

func TestBundledFixtureLoads(t *testing.T) {
	_, currentFile, _, _ := runtime.Caller(0)
	path := filepath.Join(filepath.Dir(currentFile), "..", "..", "db", "seed", "recipes.yaml")
	if _, err := os.Stat(path); err != nil {
		t.Skipf("bundled fixture not found: %v", err)
	}

	f, err := seed.LoadFile(path)
	require.NoError(t, err)
	require.NotEmpty(t, f.Recipes)

	svc := newService()
	res, err := seed.Apply(context.Background(), svc.Catalog, svc.Ratings, f)
	require.NoError(t, err)
	assert.Equal(t, len(f.Recipes), res.Recipes)
}
