package view

import (
	"github.com/uzairgheewala/dsc106-proj3/internal/domain"
)

// ChoroplethValue colors one country on the map. A nil Value renders as
// no-data.
type ChoroplethValue struct {
	Entity string   `json:"entity"`
	Name   string   `json:"name,omitempty"`
	Value  *float64 `json:"value"`
}

// PlantMarker places one plant on the map. PopNear is the population
// inside the active window, when the dataset reports it.
type PlantMarker struct {
	Name        string   `json:"name"`
	Entity      string   `json:"entity,omitempty"`
	Lat         float64  `json:"lat"`
	Lon         float64  `json:"lon"`
	NumReactors int      `json:"num_reactors"`
	PopNear     *float64 `json:"pop_near,omitempty"`
}

// EntityDetail is the side panel for the selected country. Fields the
// dataset cannot answer stay nil.
type EntityDetail struct {
	Entity     string                   `json:"entity"`
	Name       string                   `json:"name,omitempty"`
	Record     *domain.CountryExposure  `json:"record,omitempty"`
	Rank       *RankInfo                `json:"rank,omitempty"`
	Percentile *float64                 `json:"percentile,omitempty"`
	Delta      *float64                 `json:"delta,omitempty"`
	Series     []domain.CountryExposure `json:"series,omitempty"`
	Plants     []domain.Plant           `json:"plants,omitempty"`
}

// Frame is everything a renderer needs for one screen: the control
// snapshot it was built from, a value per boundary country, the color
// scale maximum, plant markers, and the selected country's detail.
type Frame struct {
	Snapshot   Snapshot          `json:"snapshot"`
	Choropleth []ChoroplethValue `json:"choropleth"`
	ScaleMax   float64           `json:"scale_max"`
	Plants     []PlantMarker     `json:"plants,omitempty"`
	Detail     *EntityDetail     `json:"detail,omitempty"`
}

// Frame assembles the render frame for a control snapshot.
func (f *Facade) Frame(snap Snapshot) Frame {
	fr := Frame{
		Snapshot:   snap,
		Choropleth: make([]ChoroplethValue, 0, len(f.store.Boundaries)),
	}

	for _, b := range f.store.Boundaries {
		cv := ChoroplethValue{Entity: b.Entity, Name: b.Name}
		key := domain.Key{Entity: b.Entity, Year: snap.Year, BufferKm: snap.BufferKm}
		switch snap.Mode {
		case ModeChange:
			cv.Value = f.deltas.At(key)
		default:
			if rec, ok := f.idx.Point[key]; ok {
				cv.Value = rec.PctNear
			}
		}
		fr.Choropleth = append(fr.Choropleth, cv)
	}

	switch snap.Mode {
	case ModeChange:
		fr.ScaleMax = f.MaxPositiveDelta(snap.BufferKm)
	default:
		fr.ScaleMax = f.MaxShare(snap.BufferKm)
	}

	if snap.OverlayVisible {
		fr.Plants = make([]PlantMarker, 0, len(f.store.Plants))
		for _, p := range f.store.Plants {
			m := PlantMarker{
				Name:        p.Name,
				Entity:      p.Entity,
				Lat:         p.Lat,
				Lon:         p.Lon,
				NumReactors: p.NumReactors,
			}
			if v, ok := p.PopAt(snap.Year, snap.BufferKm); ok {
				m.PopNear = &v
			}
			fr.Plants = append(fr.Plants, m)
		}
	}

	if snap.Entity != "" {
		fr.Detail = f.entityDetail(snap)
	}
	return fr
}

func (f *Facade) entityDetail(snap Snapshot) *EntityDetail {
	d := &EntityDetail{Entity: snap.Entity, Name: f.names[snap.Entity]}
	if rec, ok := f.ExposureAt(snap.Entity, snap.Year, snap.BufferKm); ok {
		d.Record = &rec
	}
	if ri, ok := f.RankAt(snap.Entity, snap.Year, snap.BufferKm); ok {
		d.Rank = &ri
	}
	if pct, ok := f.PercentileAt(snap.Entity, snap.Year, snap.BufferKm); ok {
		d.Percentile = &pct
	}
	if delta, ok := f.DeltaAt(snap.Entity, snap.Year, snap.BufferKm); ok {
		d.Delta = &delta
	}
	d.Series = f.SeriesFor(snap.Entity)
	d.Plants = f.PlantsFor(snap.Entity)
	return d
}
