package client_test

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Clark-Hu/flavorhub/internal/client"
	"github.com/Clark-Hu/flavorhub/internal/config"
	"github.com/Clark-Hu/flavorhub/internal/domain"
	httpserver "github.com/Clark-Hu/flavorhub/internal/http"
	"github.com/Clark-Hu/flavorhub/internal/repository/memory"
	"github.com/Clark-Hu/flavorhub/internal/service"
)

func newTestAPI(t *testing.T) (*client.Client, *httptest.Server) {
	t.Helper()
	repo := memory.New()
	svc := service.New(repo.Recipes, repo.Ratings, service.Options{
		Now:      func() time.Time { return time.Date(2024, time.June, 10, 9, 0, 0, 0, time.UTC) },
		Location: time.UTC,
	})
	cfg := config.Config{
		AuthToken:           "secret",
		CORSAllowedOrigins:  []string{"*"},
		RateLimitRequests:   1000,
		RateLimitWindowSecs: 60,
	}
	srv := httpserver.New(cfg, svc, nil, zerolog.New(io.Discard))
	ts := httptest.NewTLSServer(srv.Handler())
	t.Cleanup(ts.Close)

	c, err := client.New(ts.URL, 5*time.Second, client.WithToken("secret"), client.WithHTTPClient(ts.Client()))
	require.NoError(t, err)
	return c, ts
}

func TestClientRoundTrip(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestAPI(t)

	_, err := c.RecipeOfTheDay(ctx)
	assert.ErrorIs(t, err, client.ErrNotFound)

	desc := "Egg, cheese, pork, pepper"
	created, err := c.CreateRecipe(ctx, client.RecipeInput{
		Name: "Pasta Carbonara", Description: &desc, PrepTime: 10, CookTime: 15,
		Servings: 2, DifficultyLevel: "Easy", CuisineType: "Italian",
	})
	require.NoError(t, err)
	assert.NotZero(t, created.ID)

	rating, err := c.SubmitRating(ctx, created.ID, "alice", 5, nil)
	require.NoError(t, err)
	assert.Equal(t, 5, rating.Rating)

	_, err = c.SubmitRating(ctx, created.ID, "alice", 3, nil)
	assert.ErrorIs(t, err, domain.ErrDuplicateRating)
	var apiErr *client.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, 400, apiErr.Status)

	_, err = c.SubmitRating(ctx, created.ID, "bob", 9, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidRatingValue)

	_, err = c.SubmitRating(ctx, 999, "bob", 3, nil)
	assert.ErrorIs(t, err, domain.ErrRecipeNotFound)

	_, err = c.SubmitRating(ctx, created.ID, "bob", 2, nil)
	require.NoError(t, err)

	summary, err := c.RatingSummary(ctx, created.ID)
	require.NoError(t, err)
	assert.InDelta(t, 3.5, summary.AverageRating, 1e-9)
	assert.EqualValues(t, 2, summary.RatingCount)

	pick, err := c.RecipeOfTheDay(ctx)
	require.NoError(t, err)
	assert.Equal(t, created.ID, pick.ID)
	require.NotNil(t, pick.AverageRating)

	list, err := c.ListRecipes(ctx, domain.RecipeFilter{Cuisine: "italian", Search: "carbonara"})
	require.NoError(t, err)
	require.Len(t, list, 1)

	updated, err := c.UpdateRating(ctx, created.ID, rating.ID, 4, nil)
	require.NoError(t, err)
	assert.Equal(t, 4, updated.Rating)

	require.NoError(t, c.DeleteRating(ctx, created.ID, rating.ID))
	require.NoError(t, c.DeleteRating(ctx, created.ID, rating.ID))

	ratings, err := c.ListRatings(ctx, created.ID)
	require.NoError(t, err)
	assert.Len(t, ratings, 1)

	require.NoError(t, c.DeleteRecipe(ctx, created.ID))
	_, err = c.GetRecipe(ctx, created.ID)
	assert.ErrorIs(t, err, domain.ErrRecipeNotFound)
}

func TestClientRequiresToken(t *testing.T) {
	c, ts := newTestAPI(t)
	anon, err := client.New(c.BaseURL(), time.Second, client.WithHTTPClient(ts.Client()))
	require.NoError(t, err)

	_, err = anon.CreateRecipe(context.Background(), client.RecipeInput{Name: "x", Servings: 1})
	var apiErr *client.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, 401, apiErr.Status)
	assert.Equal(t, "UNAUTHORIZED", apiErr.Code)
}

func TestClientUsesInjectedHTTPClient(t *testing.T) {
	c, _ := newTestAPI(t)

	// The test server's certificate is only trusted by its own client.
	plain, err := client.New(c.BaseURL(), time.Second)
	require.NoError(t, err)
	_, err = plain.ListRecipes(context.Background(), domain.RecipeFilter{})
	require.Error(t, err)

	_, err = c.ListRecipes(context.Background(), domain.RecipeFilter{})
	require.NoError(t, err)
}

func TestNewRejectsRelativeURL(t *testing.T) {
	_, err := client.New("localhost:8080", time.Second)
	assert.Error(t, err)
}

