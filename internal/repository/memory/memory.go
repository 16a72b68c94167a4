// Package memory implements the recipe and rating backends in process memory.
//
// Lock order is recipesMu before ratingsMu. Rating inserts additionally hold
// a per-(recipe, user) lock around the uniqueness check and the insert.
package memory

import (
	"strconv"
	"sync"

	"github.com/moby/locker"
)

// Repository exposes the in-memory backends sharing one Store.
type Repository struct {
	Recipes *RecipesRepository
	Ratings *RatingsRepository
}

// New constructs an empty in-memory repository.
func New() *Repository {
	st := newStore()
	return &Repository{
		Recipes: &RecipesRepository{st: st},
		Ratings: &RatingsRepository{st: st},
	}
}

type pairKey struct {
	recipeID int64
	userID   string
}

// lockName is unambiguous because the recipe id never contains a slash.
func (k pairKey) lockName() string {
	return strconv.FormatInt(k.recipeID, 10) + "/" + k.userID
}

type store struct {
	recipesMu    sync.RWMutex
	recipes      []*recipeRecord
	recipeIndex  map[int64]int
	nextRecipeID int64

	ratingsMu sync.RWMutex
	ratings   map[string]*ratingRecord
	byPair    map[pairKey]string
	byRecipe  map[int64][]string

	pairLocks *locker.Locker
}

func newStore() *store {
	return &store{
		recipeIndex: make(map[int64]int),
		ratings:     make(map[string]*ratingRecord),
		byPair:      make(map[pairKey]string),
		byRecipe:    make(map[int64][]string),
		pairLocks:   locker.New(),
	}
}

// lockPair serializes writers for one (recipe, user) pair.
func (s *store) lockPair(key pairKey) (unlock func()) {
	name := key.lockName()
	s.pairLocks.Lock(name)
	return func() { _ = s.pairLocks.Unlock(name) }
}
