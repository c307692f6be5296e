// Package view owns the dashboard's interaction model: a read-only query
// facade over the loaded dataset, the mutable control state, render frame
// assembly, and timer-driven playback across census years.
package view

import (
	"context"
	"errors"

	"github.com/uzairgheewala/dsc106-proj3/internal/domain"
	"github.com/uzairgheewala/dsc106-proj3/internal/index"
	"github.com/uzairgheewala/dsc106-proj3/internal/store"
)

// Facade answers read queries over a loaded store. All methods are pure
// reads against structures built once at construction; data that is not
// there comes back as ok=false or an empty slice, never as an error.
type Facade struct {
	store   *store.Store
	idx     *index.Indices
	deltas  *index.DeltaSet
	locator *index.PlantLocator

	names          map[string]string // entity to boundary display name
	plantsByEntity map[string][]domain.Plant
	maxPct         map[int]float64 // buffer to max share across all years
}

// NewFacade builds the query indices, growth values, and plant locator
// for a loaded store.
func NewFacade(st *store.Store) *Facade {
	f := &Facade{
		store:          st,
		idx:            index.Build(st),
		deltas:         index.ComputeDeltas(st),
		locator:        index.NewPlantLocator(st.Plants),
		names:          make(map[string]string, len(st.Boundaries)),
		plantsByEntity: make(map[string][]domain.Plant),
		maxPct:         make(map[int]float64),
	}
	for _, b := range st.Boundaries {
		f.names[b.Entity] = b.Name
	}
	for _, p := range st.Plants {
		if p.Entity != "" {
			f.plantsByEntity[p.Entity] = append(f.plantsByEntity[p.Entity], p)
		}
	}
	for _, c := range st.Countries {
		if c.PctNear != nil && *c.PctNear > f.maxPct[c.BufferKm] {
			f.maxPct[c.BufferKm] = *c.PctNear
		}
	}
	return f
}

// Years returns the census years in chronological order.
func (f *Facade) Years() []int {
	return append([]int(nil), f.idx.Years...)
}

// Buffers returns the loaded buffer distances, ascending.
func (f *Facade) Buffers() []int {
	return append([]int(nil), f.idx.BuffersKm...)
}

// ResolveEntity normalizes a raw country code. ok is false when the input
// cannot name a country at all.
func (f *Facade) ResolveEntity(raw string) (string, bool) {
	entity := domain.ResolveEntityCode(raw)
	return entity, entity != ""
}

// EntityName returns the display name from the boundary file, or "" when
// the entity has no boundary feature.
func (f *Facade) EntityName(entity string) string {
	return f.names[entity]
}

// ExposureAt returns the country record at one (entity, year, buffer) key.
func (f *Facade) ExposureAt(entity string, year, bufferKm int) (domain.CountryExposure, bool) {
	rec, ok := f.idx.Point[domain.Key{Entity: entity, Year: year, BufferKm: bufferKm}]
	if !ok {
		return domain.CountryExposure{}, false
	}
	return *rec, true
}

// DeltaAt returns the growth in population near plants since the prior
// census year. ok is false when either endpoint is unreported.
func (f *Facade) DeltaAt(entity string, year, bufferKm int) (float64, bool) {
	d := f.deltas.At(domain.Key{Entity: entity, Year: year, BufferKm: bufferKm})
	if d == nil {
		return 0, false
	}
	return *d, true
}

// RankInfo is an entity's position among all entities reporting a share
// at one (year, buffer) window. Rank 1 is the largest share.
type RankInfo struct {
	Rank  int `json:"rank"`
	Total int `json:"total"`
}

// RankAt returns the entity's standing at a window. ok is false when the
// entity reports no share there.
func (f *Facade) RankAt(entity string, year, bufferKm int) (RankInfo, bool) {
	r, ok := f.idx.Rank[domain.Window{Year: year, BufferKm: bufferKm}]
	if !ok {
		return RankInfo{}, false
	}
	pos, ok := r.Of(entity)
	if !ok {
		return RankInfo{}, false
	}
	return RankInfo{Rank: pos, Total: r.Total}, true
}

// PercentileAt expresses the entity's rank as a share of the field, so
// rank 3 of 30 reads as the top 10%.
func (f *Facade) PercentileAt(entity string, year, bufferKm int) (float64, bool) {
	ri, ok := f.RankAt(entity, year, bufferKm)
	if !ok || ri.Total == 0 {
		return 0, false
	}
	return 100 * float64(ri.Rank) / float64(ri.Total), true
}

// SeriesFor returns every record for an entity ordered by year, then
// buffer. Unknown entities yield an empty series.
func (f *Facade) SeriesFor(entity string) []domain.CountryExposure {
	recs := f.idx.ByEntity[entity]
	out := make([]domain.CountryExposure, len(recs))
	for i, r := range recs {
		out[i] = *r
	}
	return out
}

// PlantsFor returns the plants attributed to an entity.
func (f *Facade) PlantsFor(entity string) []domain.Plant {
	if entity == "" {
		return nil
	}
	return append([]domain.Plant(nil), f.plantsByEntity[entity]...)
}

// PlantsVisibleAt returns the plants with a reported population at one
// (year, buffer) window, in dataset order.
func (f *Facade) PlantsVisibleAt(year, bufferKm int) []domain.Plant {
	var out []domain.Plant
	for _, p := range f.store.Plants {
		if _, ok := p.PopAt(year, bufferKm); ok {
			out = append(out, p)
		}
	}
	return out
}

// MaxShare returns the largest share reported at a buffer across every
// census year, or 1 when nothing reports there. Baseline color scales
// span all years so colors stay comparable during playback.
func (f *Facade) MaxShare(bufferKm int) float64 {
	if m, ok := f.maxPct[bufferKm]; ok && m > 0 {
		return m
	}
	return 1
}

// MaxPositiveDelta returns the largest growth at a buffer, floored at 1.
func (f *Facade) MaxPositiveDelta(bufferKm int) float64 {
	return f.deltas.MaxPositiveDelta(bufferKm)
}

// NearestPlant returns the plant closest to a point.
func (f *Facade) NearestPlant(lat, lon float64) (index.PlantDistance, bool) {
	return f.locator.Nearest(lat, lon)
}

// PlantsWithin returns all plants inside radiusKm of a point, closest
// first.
func (f *Facade) PlantsWithin(lat, lon, radiusKm float64) []index.PlantDistance {
	return f.locator.Within(lat, lon, radiusKm)
}

// CheckReadiness reports whether the dataset is loaded and queryable.
func (f *Facade) CheckReadiness(_ context.Context) error {
	if len(f.store.Countries) == 0 {
		return errors.New("no country records loaded")
	}
	return nil
}
