package domain

import (
	"fmt"
	"regexp"
	"strconv"
)

// years is the fixed census-year sequence the datasets cover, ascending.
// Deltas are decade-over-decade and playback wraps over this cycle, so the
// sequence is a domain constant rather than configuration.
var years = []int{1990, 2000, 2010}

// DefaultBuffersKm is the buffer set the dashboard uses when none is
// configured. The raw country table carries additional radii (600, 1200)
// that are dropped at load.
var DefaultBuffersKm = []int{30, 75, 150, 300}

// Years returns the fixed year sequence in ascending order.
func Years() []int {
	out := make([]int, len(years))
	copy(out, years)
	return out
}

// EarliestYear returns the first year of the fixed sequence.
func EarliestYear() int { return years[0] }

// ValidYear reports whether y is a member of the fixed year sequence.
func ValidYear(y int) bool {
	for _, v := range years {
		if v == y {
			return true
		}
	}
	return false
}

// NextYear returns the year following y in the fixed sequence, wrapping to
// the earliest after the last. Years outside the sequence map to the
// earliest year.
func NextYear(y int) int {
	for i, v := range years {
		if v == y {
			return years[(i+1)%len(years)]
		}
	}
	return years[0]
}

// PrevYear returns the year preceding y in the fixed sequence. The second
// return is false for the earliest year or for years outside the sequence:
// there is no prior decade to compare against.
func PrevYear(y int) (int, bool) {
	for i, v := range years {
		if v == y {
			if i == 0 {
				return 0, false
			}
			return years[i-1], true
		}
	}
	return 0, false
}

// Key identifies a country exposure record: one entity at one year and one
// buffer radius. Value equality makes it usable as a map key, and every
// index derives its keys through this one type.
type Key struct {
	Entity   string
	Year     int
	BufferKm int
}

func (k Key) String() string {
	return fmt.Sprintf("%s/%d/%dkm", k.Entity, k.Year, k.BufferKm)
}

// Window is a (year, buffer) pair: the axis the rank index and the plant
// population fields are parameterized over.
type Window struct {
	Year     int
	BufferKm int
}

// CountryExposure is one row of the country exposure table: the population
// living within BufferKm of any plant in Year, and the share of the
// country's total population that represents. Nil measures mean the source
// reported no value. Immutable after load.
type CountryExposure struct {
	Entity    string   `json:"entity"`
	Year      int      `json:"year"`
	BufferKm  int      `json:"buffer_km"`
	PopNear   *float64 `json:"pop_near"`
	PctNear   *float64 `json:"pct_near"`
	NumPlants int      `json:"num_plants"`
}

// Key returns the record's primary key.
func (c CountryExposure) Key() Key {
	return Key{Entity: c.Entity, Year: c.Year, BufferKm: c.BufferKm}
}

// Plant is one nuclear power plant site. PopByWindow holds the population
// within each (year, buffer) window around the site; a missing entry means
// the source left that window blank. Entity is the owning country's
// resolved code, empty when the country label could not be matched.
type Plant struct {
	Name        string             `json:"name"`
	Country     string             `json:"country"`
	Entity      string             `json:"entity,omitempty"`
	Lat         float64            `json:"lat"`
	Lon         float64            `json:"lon"`
	NumReactors int                `json:"num_reactors"`
	PopByWindow map[Window]float64 `json:"-"`
}

// PopAt returns the population within bufferKm of the plant in year, and
// whether the source defined a value for that window.
func (p Plant) PopAt(year, bufferKm int) (float64, bool) {
	v, ok := p.PopByWindow[Window{Year: year, BufferKm: bufferKm}]
	return v, ok
}

// BoundaryCountry is a geographic boundary feature resolved to an entity
// code. Features whose identifiers cannot be resolved are excluded.
type BoundaryCountry struct {
	Entity string `json:"entity"`
	Name   string `json:"name"`
}

// plantPopColRe matches plant population column names: "p" + two-digit
// year + "_" + buffer radius, e.g. p90_30 (1990, 30 km) or p10_300.
var plantPopColRe = regexp.MustCompile(`^p(\d{2})_(\d+)$`)

// PlantPopColumn returns the plant-table column name for the population
// within bufferKm in year, e.g. PlantPopColumn(1990, 30) == "p90_30".
func PlantPopColumn(year, bufferKm int) string {
	return fmt.Sprintf("p%02d_%d", year%100, bufferKm)
}

// ParsePlantPopColumn inverts PlantPopColumn. The two-digit year is matched
// against the fixed year sequence; column names that do not follow the
// convention or name an unknown year return ok=false.
func ParsePlantPopColumn(name string) (year, bufferKm int, ok bool) {
	m := plantPopColRe.FindStringSubmatch(name)
	if m == nil {
		return 0, 0, false
	}
	yy, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, 0, false
	}
	bufferKm, err = strconv.Atoi(m[2])
	if err != nil || bufferKm <= 0 {
		return 0, 0, false
	}
	for _, y := range years {
		if y%100 == yy {
			return y, bufferKm, true
		}
	}
	return 0, 0, false
}
