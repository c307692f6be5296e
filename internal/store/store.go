// Package store loads and holds the immutable exposure datasets.
package store

import (
	"sort"

	"github.com/uzairgheewala/dsc106-proj3/internal/domain"
)

// Store is the loaded dataset: country exposure rows, plant sites, and
// resolved boundary countries, restricted to the configured buffer
// distances. Immutable once Load returns; every index and view reads from
// it without copying.
type Store struct {
	Countries  []domain.CountryExposure
	Plants     []domain.Plant
	Boundaries []domain.BoundaryCountry
	BuffersKm  []int
}

// Filter returns a store restricted to the given buffer distances. Country
// rows at other buffers and plant windows outside the set are dropped.
// Applying the same filter twice yields the same result.
func (s *Store) Filter(buffersKm []int) *Store {
	keep := make(map[int]bool, len(buffersKm))
	for _, b := range buffersKm {
		keep[b] = true
	}
	sorted := make([]int, 0, len(keep))
	for b := range keep {
		sorted = append(sorted, b)
	}
	sort.Ints(sorted)

	countries := make([]domain.CountryExposure, 0, len(s.Countries))
	for _, c := range s.Countries {
		if keep[c.BufferKm] {
			countries = append(countries, c)
		}
	}

	plants := make([]domain.Plant, 0, len(s.Plants))
	for _, p := range s.Plants {
		windows := make(map[domain.Window]float64, len(p.PopByWindow))
		for w, v := range p.PopByWindow {
			if keep[w.BufferKm] {
				windows[w] = v
			}
		}
		p.PopByWindow = windows
		plants = append(plants, p)
	}

	return &Store{
		Countries:  countries,
		Plants:     plants,
		Boundaries: s.Boundaries,
		BuffersKm:  sorted,
	}
}
