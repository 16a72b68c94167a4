package service

import (
	"context"
	"time"

	"github.com/Clark-Hu/flavorhub/internal/domain"
)

// DailySelector picks one recipe per calendar day.
//
// The pick is recipes[dayOfYear % len(recipes)] over the catalog in id
// order, so it is stable within a day only while the catalog is unchanged.
// Adding or removing recipes can move the pick mid-day.
type DailySelector struct {
	recipes  RecipeBackend
	enricher *Enricher
	now      func() time.Time
	loc      *time.Location
}

// NewDailySelector constructs a selector reading the day from now in loc.
func NewDailySelector(recipes RecipeBackend, enricher *Enricher, now func() time.Time, loc *time.Location) *DailySelector {
	if loc == nil {
		loc = time.Local
	}
	return &DailySelector{recipes: recipes, enricher: enricher, now: now, loc: loc}
}

// DayOfYear returns the 1-based ordinal day of the selector's current date.
func (d *DailySelector) DayOfYear() int {
	return d.now().In(d.loc).YearDay()
}

// PickOfTheDay returns the recipe of the day. The boolean is false when the
// catalog is empty.
func (d *DailySelector) PickOfTheDay(ctx context.Context) (domain.Recipe, bool, error) {
	recipes, err := d.recipes.List(ctx, domain.RecipeFilter{})
	if err != nil {
		return domain.Recipe{}, false, err
	}
	if len(recipes) == 0 {
		return domain.Recipe{}, false, nil
	}

	recipe := recipes[PickIndex(d.DayOfYear(), len(recipes))]
	if err := d.enricher.Enrich(ctx, &recipe); err != nil {
		return domain.Recipe{}, false, err
	}
	return recipe, true, nil
}

// PickIndex maps a day of year onto a catalog of size n. n must be positive.
func PickIndex(dayOfYear, n int) int {
	return dayOfYear % n
}
