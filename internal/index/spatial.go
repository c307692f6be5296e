package index

import (
	"math"
	"sort"

	"github.com/golang/geo/s2"

	"github.com/uzairgheewala/dsc106-proj3/internal/domain"
)

const earthRadiusKm = 6371.0

// PlantLocator answers great-circle distance queries against plant sites.
// The plant count is small enough that a linear scan beats maintaining a
// cell index.
type PlantLocator struct {
	plants []domain.Plant
	coords []s2.LatLng
}

// NewPlantLocator indexes the given plants.
func NewPlantLocator(plants []domain.Plant) *PlantLocator {
	l := &PlantLocator{
		plants: make([]domain.Plant, 0, len(plants)),
		coords: make([]s2.LatLng, 0, len(plants)),
	}
	for _, p := range plants {
		l.plants = append(l.plants, p)
		l.coords = append(l.coords, s2.LatLngFromDegrees(p.Lat, p.Lon))
	}
	return l
}

// PlantDistance pairs a plant with its distance from a query point.
type PlantDistance struct {
	Plant      domain.Plant
	DistanceKm float64
}

// Nearest returns the plant closest to (lat, lon). Ties break on plant
// name so repeated queries agree. Returns false for an empty locator or
// non-finite coordinates.
func (l *PlantLocator) Nearest(lat, lon float64) (PlantDistance, bool) {
	if len(l.plants) == 0 || !finiteCoords(lat, lon) {
		return PlantDistance{}, false
	}

	from := s2.LatLngFromDegrees(lat, lon)
	best := -1
	bestKm := math.MaxFloat64
	for i, coord := range l.coords {
		km := from.Distance(coord).Radians() * earthRadiusKm
		if km < bestKm || (km == bestKm && best >= 0 && l.plants[i].Name < l.plants[best].Name) {
			best, bestKm = i, km
		}
	}
	return PlantDistance{Plant: l.plants[best], DistanceKm: bestKm}, true
}

// Within returns all plants within radiusKm of (lat, lon), closest first.
// Non-finite coordinates or a non-positive radius yield nothing.
func (l *PlantLocator) Within(lat, lon, radiusKm float64) []PlantDistance {
	if !finiteCoords(lat, lon) || math.IsNaN(radiusKm) || radiusKm <= 0 {
		return nil
	}

	from := s2.LatLngFromDegrees(lat, lon)
	var out []PlantDistance
	for i, coord := range l.coords {
		km := from.Distance(coord).Radians() * earthRadiusKm
		if km <= radiusKm {
			out = append(out, PlantDistance{Plant: l.plants[i], DistanceKm: km})
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].DistanceKm != out[j].DistanceKm {
			return out[i].DistanceKm < out[j].DistanceKm
		}
		return out[i].Plant.Name < out[j].Plant.Name
	})
	return out
}

func finiteCoords(lat, lon float64) bool {
	return !math.IsNaN(lat) && !math.IsNaN(lon) && !math.IsInf(lat, 0) && !math.IsInf(lon, 0)
}
