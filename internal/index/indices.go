// Package index builds the read-optimized lookup, ranking, and derived
// structures over a loaded store.
package index

import (
	"sort"

	"github.com/uzairgheewala/dsc106-proj3/internal/domain"
	"github.com/uzairgheewala/dsc106-proj3/internal/store"
)

// Ranking orders entities at one (year, buffer) window by descending share
// of population near plants. Pos is 1-based; entities without a reported
// share do not rank. Total counts the ranked entities and is the
// denominator for percentile displays.
type Ranking struct {
	Pos   map[string]int
	Total int
}

// Of returns an entity's 1-based position at this window.
func (r *Ranking) Of(entity string) (int, bool) {
	pos, ok := r.Pos[entity]
	return pos, ok
}

// Indices are the lookup structures over a store's country records. All
// maps point into the store's backing slice; the store must outlive them.
type Indices struct {
	Point     map[domain.Key]*domain.CountryExposure
	ByEntity  map[string][]*domain.CountryExposure
	Rank      map[domain.Window]*Ranking
	Years     []int
	BuffersKm []int
}

// Build constructs all indices in one pass over the store.
func Build(st *store.Store) *Indices {
	idx := &Indices{
		Point:     make(map[domain.Key]*domain.CountryExposure, len(st.Countries)),
		ByEntity:  make(map[string][]*domain.CountryExposure),
		Rank:      make(map[domain.Window]*Ranking),
		Years:     domain.Years(),
		BuffersKm: append([]int(nil), st.BuffersKm...),
	}

	for i := range st.Countries {
		rec := &st.Countries[i]
		idx.Point[rec.Key()] = rec
		idx.ByEntity[rec.Entity] = append(idx.ByEntity[rec.Entity], rec)
	}

	// Per-entity series read in (year, buffer) order.
	for _, recs := range idx.ByEntity {
		sort.Slice(recs, func(i, j int) bool {
			if recs[i].Year != recs[j].Year {
				return recs[i].Year < recs[j].Year
			}
			return recs[i].BufferKm < recs[j].BufferKm
		})
	}

	for _, year := range idx.Years {
		for _, bufferKm := range idx.BuffersKm {
			idx.Rank[domain.Window{Year: year, BufferKm: bufferKm}] = buildRanking(st, year, bufferKm)
		}
	}

	return idx
}

// buildRanking sorts the entities reporting a share at one window,
// descending. The sort is stable over the store's row order, so ties keep
// their source order and repeated builds agree.
func buildRanking(st *store.Store, year, bufferKm int) *Ranking {
	type entry struct {
		entity string
		pct    float64
	}
	var entries []entry
	for _, c := range st.Countries {
		if c.Year == year && c.BufferKm == bufferKm && c.PctNear != nil {
			entries = append(entries, entry{entity: c.Entity, pct: *c.PctNear})
		}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].pct > entries[j].pct
	})

	r := &Ranking{Pos: make(map[string]int, len(entries)), Total: len(entries)}
	for i, e := range entries {
		r.Pos[e.entity] = i + 1
	}
	return r
}
