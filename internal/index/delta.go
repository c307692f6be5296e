package index

import (
	"math"

	"github.com/uzairgheewala/dsc106-proj3/internal/domain"
	"github.com/uzairgheewala/dsc106-proj3/internal/store"
)

// DeltaSet holds the derived decade-over-decade growth of population near
// plants. Values has exactly one entry per country record key; nil means
// no growth value exists there (earliest census year, missing prior
// record, or an unreported measure on either side). Growth is clamped at
// zero: population decline reads as no growth, never as negative growth.
type DeltaSet struct {
	Values      map[domain.Key]*float64
	MaxByBuffer map[int]float64
}

// ComputeDeltas derives a growth value for every country record, comparing
// each record's population against the same entity and buffer one census
// year earlier.
func ComputeDeltas(st *store.Store) *DeltaSet {
	ds := &DeltaSet{
		Values:      make(map[domain.Key]*float64, len(st.Countries)),
		MaxByBuffer: make(map[int]float64, len(st.BuffersKm)),
	}

	type pair struct {
		entity   string
		bufferKm int
	}
	pops := make(map[pair]map[int]*float64)
	for _, c := range st.Countries {
		p := pair{entity: c.Entity, bufferKm: c.BufferKm}
		if pops[p] == nil {
			pops[p] = make(map[int]*float64, 3)
		}
		pops[p][c.Year] = c.PopNear
	}

	for _, c := range st.Countries {
		key := c.Key()
		ds.Values[key] = nil

		prevYear, ok := domain.PrevYear(c.Year)
		if !ok {
			continue
		}
		prevPop, ok := pops[pair{entity: c.Entity, bufferKm: c.BufferKm}][prevYear]
		if !ok || prevPop == nil || c.PopNear == nil {
			continue
		}

		d := *c.PopNear - *prevPop
		if math.IsNaN(d) || math.IsInf(d, 0) {
			continue
		}
		if d < 0 {
			d = 0
		}
		ds.Values[key] = &d
		if d > ds.MaxByBuffer[c.BufferKm] {
			ds.MaxByBuffer[c.BufferKm] = d
		}
	}

	return ds
}

// At returns the growth value for a key; nil when none exists.
func (ds *DeltaSet) At(key domain.Key) *float64 {
	return ds.Values[key]
}

// MaxPositiveDelta returns the largest growth value seen at a buffer, with
// 1 as the floor so change-mode color scales always get a positive
// maximum.
func (ds *DeltaSet) MaxPositiveDelta(bufferKm int) float64 {
	if m, ok := ds.MaxByBuffer[bufferKm]; ok && m > 0 {
		return m
	}
	return 1
}
