package view_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uzairgheewala/dsc106-proj3/internal/domain"
	"github.com/uzairgheewala/dsc106-proj3/internal/store"
	"github.com/uzairgheewala/dsc106-proj3/internal/view"
)

func TestFacade_YearsAndBuffers(t *testing.T) {
	f := makeFacade()

	assert.Equal(t, []int{1990, 2000, 2010}, f.Years())
	assert.Equal(t, []int{30, 75}, f.Buffers())
}

func TestFacade_ExposureAt(t *testing.T) {
	f := makeFacade()

	rec, ok := f.ExposureAt("FRA", 2010, 30)
	require.True(t, ok)
	assert.Equal(t, 12.8, *rec.PctNear)
	assert.Equal(t, 2050000.0, *rec.PopNear)

	_, ok = f.ExposureAt("FRA", 2010, 300)
	assert.False(t, ok)
	_, ok = f.ExposureAt("CHE", 2010, 30)
	assert.False(t, ok)
}

func TestFacade_DeltaAt(t *testing.T) {
	f := makeFacade()

	d, ok := f.DeltaAt("FRA", 2000, 30)
	require.True(t, ok)
	assert.Equal(t, 186000.0, d)

	// Decade of decline clamps to zero but still has a value.
	d, ok = f.DeltaAt("FRA", 2010, 30)
	require.True(t, ok)
	assert.Equal(t, 0.0, d)

	// Earliest year has nothing to compare against.
	_, ok = f.DeltaAt("FRA", 1990, 30)
	assert.False(t, ok)

	// DEU reports no 2000 row, so 2010 growth is unknowable.
	_, ok = f.DeltaAt("DEU", 2010, 30)
	assert.False(t, ok)
}

func TestFacade_RankAndPercentile(t *testing.T) {
	f := makeFacade()

	ri, ok := f.RankAt("DEU", 2010, 30)
	require.True(t, ok)
	assert.Equal(t, view.RankInfo{Rank: 1, Total: 2}, ri)

	ri, ok = f.RankAt("FRA", 2010, 30)
	require.True(t, ok)
	assert.Equal(t, view.RankInfo{Rank: 2, Total: 2}, ri)

	// UKR's share is unreported at this window, so it has no standing.
	_, ok = f.RankAt("UKR", 2010, 30)
	assert.False(t, ok)

	pct, ok := f.PercentileAt("DEU", 2010, 30)
	require.True(t, ok)
	assert.InDelta(t, 50.0, pct, 0.001)

	pct, ok = f.PercentileAt("FRA", 2010, 30)
	require.True(t, ok)
	assert.InDelta(t, 100.0, pct, 0.001)
}

func TestFacade_SeriesFor(t *testing.T) {
	f := makeFacade()

	series := f.SeriesFor("FRA")
	require.Len(t, series, 4)
	// Ordered by year, then buffer.
	assert.Equal(t, domain.Key{Entity: "FRA", Year: 1990, BufferKm: 30}, series[0].Key())
	assert.Equal(t, domain.Key{Entity: "FRA", Year: 1990, BufferKm: 75}, series[1].Key())
	assert.Equal(t, domain.Key{Entity: "FRA", Year: 2000, BufferKm: 30}, series[2].Key())
	assert.Equal(t, domain.Key{Entity: "FRA", Year: 2010, BufferKm: 30}, series[3].Key())

	assert.Empty(t, f.SeriesFor("ATL"))
}

func TestFacade_MaxShare(t *testing.T) {
	f := makeFacade()

	// The 30 km maximum comes from DEU in 2010, not the active year.
	assert.Equal(t, 13.9, f.MaxShare(30))
	assert.Equal(t, 30.0, f.MaxShare(75))
	// Nothing reports at 300 km, so the scale falls back to 1.
	assert.Equal(t, 1.0, f.MaxShare(300))
}

func TestFacade_MaxPositiveDelta(t *testing.T) {
	f := makeFacade()

	assert.Equal(t, 186000.0, f.MaxPositiveDelta(30))
	assert.Equal(t, 1.0, f.MaxPositiveDelta(75))
}

func TestFacade_ResolveEntity(t *testing.T) {
	f := makeFacade()

	entity, ok := f.ResolveEntity(" fra ")
	require.True(t, ok)
	assert.Equal(t, "FRA", entity)

	entity, ok = f.ResolveEntity("rom")
	require.True(t, ok)
	assert.Equal(t, "ROU", entity)

	_, ok = f.ResolveEntity("-99")
	assert.False(t, ok)
	_, ok = f.ResolveEntity("")
	assert.False(t, ok)
}

func TestFacade_EntityName(t *testing.T) {
	f := makeFacade()

	assert.Equal(t, "France", f.EntityName("FRA"))
	assert.Equal(t, "", f.EntityName("JPN"))
}

func TestFacade_PlantsFor(t *testing.T) {
	f := makeFacade()

	plants := f.PlantsFor("FRA")
	require.Len(t, plants, 2)
	assert.Equal(t, "Gravelines", plants[0].Name)
	assert.Equal(t, "Fessenheim", plants[1].Name)

	assert.Empty(t, f.PlantsFor("UKR"))
	// Unattributed plants never join a country.
	assert.Empty(t, f.PlantsFor(""))
}

func TestFacade_PlantsVisibleAt(t *testing.T) {
	f := makeFacade()

	visible := f.PlantsVisibleAt(2010, 30)
	require.Len(t, visible, 3)
	assert.Equal(t, "Gravelines", visible[0].Name)
	assert.Equal(t, "Fessenheim", visible[1].Name)
	assert.Equal(t, "Biblis", visible[2].Name)

	// Only Gravelines reports a value back in 1990.
	visible = f.PlantsVisibleAt(1990, 30)
	require.Len(t, visible, 1)
	assert.Equal(t, "Gravelines", visible[0].Name)

	assert.Empty(t, f.PlantsVisibleAt(1990, 75))
}

func TestFacade_PlantQueries(t *testing.T) {
	f := makeFacade()

	nearest, ok := f.NearestPlant(51.0, 2.2)
	require.True(t, ok)
	assert.Equal(t, "Gravelines", nearest.Plant.Name)

	within := f.PlantsWithin(48.0, 7.0, 200)
	require.Len(t, within, 1)
	assert.Equal(t, "Fessenheim", within[0].Plant.Name)
}

func TestFacade_CheckReadiness(t *testing.T) {
	f := makeFacade()
	assert.NoError(t, f.CheckReadiness(context.Background()))

	empty := view.NewFacade(&store.Store{BuffersKm: []int{30}})
	assert.Error(t, empty.CheckReadiness(context.Background()))
}

// --- helpers ---

func fp(v float64) *float64 { return &v }

// makeStore builds a small loaded dataset: France with a full history at
// 30 km plus one 75 km row, Germany appearing only in 2010, Ukraine with
// an unreported share, and Switzerland as boundary-only.
func makeStore() *store.Store {
	return &store.Store{
		Countries: []domain.CountryExposure{
			{Entity: "FRA", Year: 1990, BufferKm: 30, PctNear: fp(12.0), PopNear: fp(1957000), NumPlants: 22},
			{Entity: "FRA", Year: 2000, BufferKm: 30, PctNear: fp(13.5), PopNear: fp(2143000), NumPlants: 23},
			{Entity: "FRA", Year: 2010, BufferKm: 30, PctNear: fp(12.8), PopNear: fp(2050000), NumPlants: 23},
			{Entity: "FRA", Year: 1990, BufferKm: 75, PctNear: fp(30.0), PopNear: fp(15000000), NumPlants: 22},
			{Entity: "DEU", Year: 2010, BufferKm: 30, PctNear: fp(13.9), PopNear: fp(3000000), NumPlants: 17},
			{Entity: "UKR", Year: 2010, BufferKm: 30, NumPlants: 4},
		},
		Plants: []domain.Plant{
			{
				Name: "Gravelines", Country: "France", Entity: "FRA",
				Lat: 51.015, Lon: 2.13, NumReactors: 6,
				PopByWindow: map[domain.Window]float64{
					{Year: 1990, BufferKm: 30}: 51000,
					{Year: 2000, BufferKm: 30}: 56000,
					{Year: 2010, BufferKm: 30}: 60000,
				},
			},
			{
				Name: "Fessenheim", Country: "France", Entity: "FRA",
				Lat: 47.903, Lon: 7.563, NumReactors: 2,
				PopByWindow: map[domain.Window]float64{
					{Year: 2010, BufferKm: 30}: 90000,
				},
			},
			{
				Name: "Biblis", Country: "Germany", Entity: "DEU",
				Lat: 49.71, Lon: 8.41, NumReactors: 2,
				PopByWindow: map[domain.Window]float64{
					{Year: 2010, BufferKm: 30}: 250000,
				},
			},
			{Name: "Atomgrad", Country: "Freedonia", Lat: 10.0, Lon: 10.0, NumReactors: 1},
		},
		Boundaries: []domain.BoundaryCountry{
			{Entity: "FRA", Name: "France"},
			{Entity: "DEU", Name: "Germany"},
			{Entity: "UKR", Name: "Ukraine"},
			{Entity: "CHE", Name: "Switzerland"},
		},
		BuffersKm: []int{30, 75},
	}
}

func makeFacade() *view.Facade {
	return view.NewFacade(makeStore())
}
