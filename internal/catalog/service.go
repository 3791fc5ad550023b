// Package catalog maintains the in-memory list of browsable titles and its
// derived views. The catalog resets to the built-in seed list on restart;
// only the admin surface mutates it during a session.
package catalog

import (
	"errors"
	"strings"
	"sync"

	"trending-block/pkg/models"

	"github.com/samber/lo"
)

// ErrNotFound is returned when no catalog entry matches the given id
var ErrNotFound = errors.New("movie not found")

// FilterAll matches every category and, parsed as a year of zero, every year
const FilterAll = "All"

// Service holds the title list. Reads vastly outnumber writes, so a RWMutex
// guards the slice.
type Service struct {
	mu     sync.RWMutex
	movies []models.Movie
}

// NewService creates a catalog seeded with the built-in titles
func NewService() *Service {
	return &Service{movies: seedMovies()}
}

// List returns a snapshot of the full catalog in source order
func (s *Service) List() []models.Movie {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]models.Movie(nil), s.movies...)
}

// Get returns the entry with the given id
func (s *Service) Get(id string) (*models.Movie, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	movie, found := lo.Find(s.movies, func(m models.Movie) bool { return m.ID == id })
	if !found {
		return nil, ErrNotFound
	}

	return &movie, nil
}

// Add appends a new entry to the catalog
func (s *Service) Add(movie models.Movie) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.movies = append(s.movies, movie)
}

// Update replaces the entry with a matching id
func (s *Service) Update(movie models.Movie) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.movies {
		if s.movies[i].ID == movie.ID {
			s.movies[i] = movie
			return nil
		}
	}

	return ErrNotFound
}

// Remove deletes the entry with the given id
func (s *Service) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	before := len(s.movies)
	s.movies = lo.Reject(s.movies, func(m models.Movie, _ int) bool { return m.ID == id })
	if len(s.movies) == before {
		return ErrNotFound
	}

	return nil
}

// Filter returns the entries whose title contains query (case-insensitive)
// AND whose category and year match. Category FilterAll and year 0 match
// everything. Source order is preserved.
func (s *Service) Filter(query, category string, year int) []models.Movie {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query = strings.ToLower(query)

	return lo.Filter(s.movies, func(m models.Movie, _ int) bool {
		matchesQuery := query == "" || strings.Contains(strings.ToLower(m.Title), query)
		matchesCategory := category == "" || category == FilterAll || string(m.Category) == category
		matchesYear := year == 0 || m.Year == year
		return matchesQuery && matchesCategory && matchesYear
	})
}

// Trending returns the entries flagged as trending, source order preserved
func (s *Service) Trending() []models.Movie {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return lo.Filter(s.movies, func(m models.Movie, _ int) bool { return m.IsTrending })
}
