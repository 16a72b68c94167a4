package service_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Clark-Hu/flavorhub/internal/domain"
	"github.com/Clark-Hu/flavorhub/internal/repository/memory"
	"github.com/Clark-Hu/flavorhub/internal/service"
)

type fixture struct {
	ctx   context.Context
	svc   *service.Service
	clock *fakeClock
	repo  *memory.Repository
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	clock := &fakeClock{now: time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)}
	repo := memory.New()
	svc := service.New(repo.Recipes, repo.Ratings, service.Options{
		Now:               clock.Now,
		Location:          time.UTC,
		EnrichConcurrency: 4,
	})
	return &fixture{ctx: context.Background(), svc: svc, clock: clock, repo: repo}
}

func strPtr(s string) *string { return &s }

func (f *fixture) mustCreate(t *testing.T, name, difficulty, cuisine string, desc *string) domain.Recipe {
	t.Helper()
	recipe, err := f.svc.Catalog.Create(f.ctx, domain.RecipeParams{
		Name:            name,
		Description:     desc,
		PrepTime:        15,
		CookTime:        30,
		Servings:        4,
		DifficultyLevel: difficulty,
		CuisineType:     cuisine,
	})
	require.NoError(t, err)
	return recipe
}

func names(recipes []domain.Recipe) []string {
	out := make([]string, 0, len(recipes))
	for _, r := range recipes {
		out = append(out, r.Name)
	}
	return out
}

func TestRatings_SubmitValidation(t *testing.T) {
	f := newFixture(t)
	recipe := f.mustCreate(t, "Pasta Carbonara", "Easy", "Italian", nil)

	tests := []struct {
		name     string
		recipeID int64
		userID   string
		value    int
		wantErr  error
	}{
		{"too low", recipe.ID, "u1", 0, domain.ErrInvalidRatingValue},
		{"too high", recipe.ID, "u1", 6, domain.ErrInvalidRatingValue},
		{"blank user", recipe.ID, "  ", 3, domain.ErrInvalidUserID},
		{"unknown recipe", 404, "u1", 3, domain.ErrRecipeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Ratings.Submit(f.ctx, tt.recipeID, tt.userID, tt.value, nil)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	count, err := f.svc.Ratings.CountByRecipe(f.ctx, recipe.ID)
	require.NoError(t, err)
	assert.Zero(t, count, "failed submits must not mutate the store")
	list, err := f.svc.Ratings.FindByRecipe(f.ctx, 404)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestRatings_SubmitAndDuplicate(t *testing.T) {
	f := newFixture(t)
	recipe := f.mustCreate(t, "Pad Thai", "Medium", "Thai", nil)

	rating, err := f.svc.Ratings.Submit(f.ctx, recipe.ID, "u1", 4, strPtr("great"))
	require.NoError(t, err)
	assert.NotEmpty(t, rating.ID)
	assert.Equal(t, f.clock.Now(), rating.CreatedAt)
	assert.Equal(t, rating.CreatedAt, rating.UpdatedAt)
	assert.Equal(t, "great", *rating.Review)

	_, err = f.svc.Ratings.Submit(f.ctx, recipe.ID, "u1", 5, nil)
	assert.ErrorIs(t, err, domain.ErrDuplicateRating)
	assert.False(t, errors.Is(err, domain.ErrRecipeNotFound))

	found, ok, err := f.svc.Ratings.FindByRecipeAndUser(f.ctx, recipe.ID, "u1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, rating.ID, found.ID)

	_, ok, err = f.svc.Ratings.FindByRecipeAndUser(f.ctx, recipe.ID, "nobody")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRatings_ConcurrentSubmitSamePair(t *testing.T) {
	f := newFixture(t)
	recipe := f.mustCreate(t, "Race Stew", "Hard", "French", nil)

	const workers = 16
	results := make(chan error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Ratings.Submit(f.ctx, recipe.ID, "racer", 3, nil)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var ok, dup int
	for err := range results {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, domain.ErrDuplicateRating):
			dup++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, workers-1, dup)
}

func TestRatings_UpdateDelete(t *testing.T) {
	f := newFixture(t)
	recipe := f.mustCreate(t, "Ramen", "Medium", "Japanese", nil)
	rating, err := f.svc.Ratings.Submit(f.ctx, recipe.ID, "u1", 2, nil)
	require.NoError(t, err)

	f.clock.Advance(time.Hour)
	updated, err := f.svc.Ratings.Update(f.ctx, rating.ID, 5, strPtr("second bowl was better"))
	require.NoError(t, err)
	assert.Equal(t, 5, updated.Value)
	assert.Equal(t, rating.CreatedAt, updated.CreatedAt)
	assert.Equal(t, rating.CreatedAt.Add(time.Hour), updated.UpdatedAt)
	assert.Equal(t, rating.UserID, updated.UserID)
	assert.Equal(t, rating.RecipeID, updated.RecipeID)

	_, err = f.svc.Ratings.Update(f.ctx, rating.ID, 9, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidRatingValue)
	_, err = f.svc.Ratings.Update(f.ctx, "missing", 3, nil)
	assert.ErrorIs(t, err, domain.ErrRatingNotFound)

	require.NoError(t, f.svc.Ratings.Delete(f.ctx, rating.ID))
	require.NoError(t, f.svc.Ratings.Delete(f.ctx, rating.ID))
	require.NoError(t, f.svc.Ratings.Delete(f.ctx, "never-existed"))

	_, err = f.svc.Ratings.FindByID(f.ctx, rating.ID)
	assert.ErrorIs(t, err, domain.ErrRatingNotFound)
}

func TestAggregator_MeanAndCount(t *testing.T) {
	f := newFixture(t)
	recipe := f.mustCreate(t, "Tacos", "Easy", "Mexican", nil)

	avg, err := f.svc.Aggregator.Average(f.ctx, recipe.ID)
	require.NoError(t, err)
	assert.Nil(t, avg, "unrated recipes have no average")
	count, err := f.svc.Aggregator.Count(f.ctx, recipe.ID)
	require.NoError(t, err)
	assert.Zero(t, count)

	values := []int{5, 4, 4, 1, 3, 2, 5}
	sum := 0
	for i, v := range values {
		_, err := f.svc.Ratings.Submit(f.ctx, recipe.ID, fmt.Sprintf("user-%d", i), v, nil)
		require.NoError(t, err)
		sum += v
	}

	avg, err = f.svc.Aggregator.Average(f.ctx, recipe.ID)
	require.NoError(t, err)
	require.NotNil(t, avg)
	assert.InDelta(t, float64(sum)/float64(len(values)), *avg, 1e-9)

	count, err = f.svc.Aggregator.Count(f.ctx, recipe.ID)
	require.NoError(t, err)
	assert.EqualValues(t, len(values), count)

	viaStore, err := f.svc.Ratings.AverageByRecipe(f.ctx, recipe.ID)
	require.NoError(t, err)
	assert.Equal(t, *avg, *viaStore)
}

func TestCatalog_FilterConjunction(t *testing.T) {
	f := newFixture(t)
	f.mustCreate(t, "Pasta Carbonara", "Easy", "Italian", strPtr("Roman classic"))
	f.mustCreate(t, "Pad Thai", "Medium", "Thai", strPtr("Stir-fried rice noodles"))
	f.mustCreate(t, "Spaghetti Bolognese", "Easy", "Italian", strPtr("Meat sauce from Bologna"))

	got, err := f.svc.Catalog.List(f.ctx, domain.RecipeFilter{Difficulty: "Easy", Cuisine: "Italian", Search: "pasta"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Pasta Carbonara"}, names(got))

	got, err = f.svc.Catalog.List(f.ctx, domain.RecipeFilter{Difficulty: "easy"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Pasta Carbonara", "Spaghetti Bolognese"}, names(got))

	got, err = f.svc.Catalog.FilterByCuisine(f.ctx, "THAI")
	require.NoError(t, err)
	assert.Equal(t, []string{"Pad Thai"}, names(got))

	got, err = f.svc.Catalog.FilterByDifficulty(f.ctx, "Hard")
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = f.svc.Catalog.Search(f.ctx, "NOODLES")
	require.NoError(t, err)
	assert.Equal(t, []string{"Pad Thai"}, names(got))

	got, err = f.svc.Catalog.Search(f.ctx, "")
	require.NoError(t, err)
	assert.Len(t, got, 3, "empty search returns the full catalog")
}

func TestCatalog_ReadsAreEnriched(t *testing.T) {
	f := newFixture(t)
	a := f.mustCreate(t, "A", "Easy", "X", nil)
	b := f.mustCreate(t, "B", "Easy", "X", nil)

	_, err := f.svc.Ratings.Submit(f.ctx, a.ID, "u1", 5, nil)
	require.NoError(t, err)
	_, err = f.svc.Ratings.Submit(f.ctx, a.ID, "u2", 2, nil)
	require.NoError(t, err)

	all, err := f.svc.Catalog.FindAll(f.ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	require.NotNil(t, all[0].AverageRating)
	assert.InDelta(t, 3.5, *all[0].AverageRating, 1e-9)
	assert.EqualValues(t, 2, all[0].RatingCount)
	assert.Nil(t, all[1].AverageRating)
	assert.Zero(t, all[1].RatingCount)

	one, err := f.svc.Catalog.FindByID(f.ctx, b.ID)
	require.NoError(t, err)
	assert.Nil(t, one.AverageRating)

	_, err = f.svc.Catalog.FindByID(f.ctx, 999)
	assert.ErrorIs(t, err, domain.ErrRecipeNotFound)

	featured, err := f.svc.Catalog.Featured(f.ctx, 1)
	require.NoError(t, err)
	require.Len(t, featured, 1)
	assert.EqualValues(t, 2, featured[0].RatingCount)
}

func TestCatalog_CreateValidationAndCascade(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Catalog.Create(f.ctx, domain.RecipeParams{Name: "   ", Servings: 1})
	assert.ErrorIs(t, err, domain.ErrInvalidRecipe)

	recipe := f.mustCreate(t, "  Gumbo  ", "Hard", "Cajun", strPtr("   "))
	assert.Equal(t, "Gumbo", recipe.Name)
	assert.Nil(t, recipe.Description, "blank descriptions are dropped")

	rating, err := f.svc.Ratings.Submit(f.ctx, recipe.ID, "u1", 4, nil)
	require.NoError(t, err)

	updated, err := f.svc.Catalog.Update(f.ctx, recipe.ID, domain.RecipeParams{Name: "Seafood Gumbo", Servings: 8, DifficultyLevel: "Hard", CuisineType: "Cajun"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, updated.RatingCount)

	_, err = f.svc.Catalog.Update(f.ctx, 999, domain.RecipeParams{Name: "x", Servings: 1})
	assert.ErrorIs(t, err, domain.ErrRecipeNotFound)

	require.NoError(t, f.svc.Catalog.Delete(f.ctx, recipe.ID))
	require.NoError(t, f.svc.Catalog.Delete(f.ctx, recipe.ID))

	_, err = f.svc.Ratings.FindByID(f.ctx, rating.ID)
	assert.ErrorIs(t, err, domain.ErrRatingNotFound)
}

func TestEnricher_Idempotent(t *testing.T) {
	f := newFixture(t)
	recipe := f.mustCreate(t, "Curry", "Medium", "Indian", nil)
	_, err := f.svc.Ratings.Submit(f.ctx, recipe.ID, "u1", 4, nil)
	require.NoError(t, err)

	require.NoError(t, f.svc.Enricher.Enrich(f.ctx, &recipe))
	first := *recipe.AverageRating
	firstCount := recipe.RatingCount

	require.NoError(t, f.svc.Enricher.Enrich(f.ctx, &recipe))
	require.NoError(t, f.svc.Enricher.Enrich(f.ctx, &recipe))
	assert.Equal(t, first, *recipe.AverageRating)
	assert.Equal(t, firstCount, recipe.RatingCount)

	assert.NoError(t, f.svc.Enricher.Enrich(f.ctx, nil))
}

func TestEnricher_EnrichAllPreservesOrder(t *testing.T) {
	f := newFixture(t)
	var recipes []domain.Recipe
	for i := 0; i < 20; i++ {
		r := f.mustCreate(t, fmt.Sprintf("Recipe %02d", i), "Easy", "X", nil)
		for u := 0; u < i%4; u++ {
			_, err := f.svc.Ratings.Submit(f.ctx, r.ID, fmt.Sprintf("u%d", u), 5, nil)
			require.NoError(t, err)
		}
		recipes = append(recipes, r)
	}

	require.NoError(t, f.svc.Enricher.EnrichAll(f.ctx, recipes))
	require.Len(t, recipes, 20)
	for i, r := range recipes {
		assert.Equal(t, fmt.Sprintf("Recipe %02d", i), r.Name)
		assert.EqualValues(t, i%4, r.RatingCount)
	}
}

func TestDailySelector_Deterministic(t *testing.T) {
	f := newFixture(t)
	a := f.mustCreate(t, "A", "Easy", "X", nil)
	b := f.mustCreate(t, "B", "Easy", "X", nil)
	c := f.mustCreate(t, "C", "Easy", "X", nil)
	catalog := []domain.Recipe{a, b, c}

	day := time.Date(2024, time.March, 1, 0, 5, 0, 0, time.UTC)
	f.clock.Set(day)
	first, ok, err := f.svc.Daily.PickOfTheDay(f.ctx)
	require.NoError(t, err)
	require.True(t, ok)

	wantIdx := day.YearDay() % 3
	assert.Equal(t, catalog[wantIdx].ID, first.ID)

	for _, offset := range []time.Duration{time.Hour, 10 * time.Hour, 23*time.Hour + 50*time.Minute} {
		f.clock.Set(day.Add(offset))
		again, ok, err := f.svc.Daily.PickOfTheDay(f.ctx)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, first.ID, again.ID, "same day must yield same pick")
	}

	f.clock.Set(day.AddDate(0, 0, 1))
	next, ok, err := f.svc.Daily.PickOfTheDay(f.ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, catalog[(wantIdx+1)%3].ID, next.ID)
}

func TestDailySelector_EnrichesPick(t *testing.T) {
	f := newFixture(t)
	only := f.mustCreate(t, "Only", "Easy", "X", nil)
	_, err := f.svc.Ratings.Submit(f.ctx, only.ID, "u1", 3, nil)
	require.NoError(t, err)

	pick, ok, err := f.svc.Daily.PickOfTheDay(f.ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.NotNil(t, pick.AverageRating)
	assert.InDelta(t, 3.0, *pick.AverageRating, 1e-9)
	assert.EqualValues(t, 1, pick.RatingCount)
}

func TestDailySelector_EmptyCatalog(t *testing.T) {
	f := newFixture(t)
	_, ok, err := f.svc.Daily.PickOfTheDay(f.ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDailySelector_LeapYearDays(t *testing.T) {
	tests := []struct {
		date time.Time
		want int
	}{
		{time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC), 1},
		{time.Date(2024, time.December, 31, 23, 59, 0, 0, time.UTC), 366},
		{time.Date(2023, time.December, 31, 12, 0, 0, 0, time.UTC), 365},
	}
	for _, tt := range tests {
		date := tt.date
		sel := service.NewDailySelector(nil, nil, func() time.Time { return date }, time.UTC)
		assert.Equal(t, tt.want, sel.DayOfYear(), date.String())
	}
}

func TestDailySelector_UsesConfiguredLocation(t *testing.T) {
	// 23:30 UTC on Jan 1 is already Jan 2 in UTC+2.
	instant := time.Date(2024, time.January, 1, 23, 30, 0, 0, time.UTC)
	plus2 := time.FixedZone("UTC+2", 2*60*60)

	utc := service.NewDailySelector(nil, nil, func() time.Time { return instant }, time.UTC)
	shifted := service.NewDailySelector(nil, nil, func() time.Time { return instant }, plus2)

	assert.Equal(t, 1, utc.DayOfYear())
	assert.Equal(t, 2, shifted.DayOfYear())
}

func TestPickIndex(t *testing.T) {
	assert.Equal(t, 0, service.PickIndex(3, 3))
	assert.Equal(t, 1, service.PickIndex(1, 3))
	assert.Equal(t, 2, service.PickIndex(365, 3))
	assert.Equal(t, 0, service.PickIndex(366, 1))
}
