package domain

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Table is a decoded tabular source: one header row plus data rows. Rows
// may be ragged (spreadsheet readers trim trailing empty cells); missing
// cells read as empty strings.
type Table struct {
	Header []string
	Rows   [][]string
}

// Required column names, matched case-insensitively against the header.
var (
	countryColumns = []string{"country_code", "year", "buffer_km", "pct_near", "pop_near", "num_plants"}
	plantColumns   = []string{"name", "country", "lat", "lon", "num_reactors"}
)

// ParseCountryTable converts a decoded country exposure table into typed
// records. Key fields (code, year, buffer) must parse and the (entity,
// year, buffer) triple must be unique; violations are data defects and
// fail the whole parse. Measure cells that are empty, "NA", or otherwise
// unparseable become nil, matching the source's missing-data convention.
func ParseCountryTable(tbl Table) ([]CountryExposure, error) {
	cols, err := columnIndex(tbl.Header, countryColumns)
	if err != nil {
		return nil, fmt.Errorf("country table: %w", err)
	}

	seen := make(map[Key]int, len(tbl.Rows))
	out := make([]CountryExposure, 0, len(tbl.Rows))

	for i, row := range tbl.Rows {
		line := i + 2 // 1-based, after the header row

		rawCode := cell(row, cols["country_code"])
		entity := ResolveEntityCode(rawCode)
		if entity == "" {
			return nil, fmt.Errorf("country table row %d: invalid country code %q", line, rawCode)
		}

		year, err := strconv.Atoi(cell(row, cols["year"]))
		if err != nil {
			return nil, fmt.Errorf("country table row %d: year: %w", line, err)
		}
		if !ValidYear(year) {
			return nil, fmt.Errorf("country table row %d: year %d not in %v", line, year, Years())
		}

		bufferKm, err := strconv.Atoi(cell(row, cols["buffer_km"]))
		if err != nil {
			return nil, fmt.Errorf("country table row %d: buffer_km: %w", line, err)
		}
		if bufferKm <= 0 {
			return nil, fmt.Errorf("country table row %d: buffer_km %d must be positive", line, bufferKm)
		}

		key := Key{Entity: entity, Year: year, BufferKm: bufferKm}
		if first, dup := seen[key]; dup {
			return nil, fmt.Errorf("country table row %d: duplicate key %s (first at row %d)", line, key, first)
		}
		seen[key] = line

		out = append(out, CountryExposure{
			Entity:    entity,
			Year:      year,
			BufferKm:  bufferKm,
			PopNear:   optionalFloat(cell(row, cols["pop_near"])),
			PctNear:   optionalFloat(cell(row, cols["pct_near"])),
			NumPlants: intOrZero(cell(row, cols["num_plants"])),
		})
	}

	return out, nil
}

// ParsePlantTable converts a decoded plant table into typed records. Besides
// the fixed columns, every header matching the population-window convention
// (see PlantPopColumn) contributes one optional value per row; blank window
// cells mean the window is undefined for that plant.
func ParsePlantTable(tbl Table) ([]Plant, error) {
	cols, err := columnIndex(tbl.Header, plantColumns)
	if err != nil {
		return nil, fmt.Errorf("plant table: %w", err)
	}

	type windowCol struct {
		idx    int
		window Window
	}
	var windowCols []windowCol
	for j, h := range tbl.Header {
		if year, bufferKm, ok := ParsePlantPopColumn(strings.ToLower(strings.TrimSpace(h))); ok {
			windowCols = append(windowCols, windowCol{idx: j, window: Window{Year: year, BufferKm: bufferKm}})
		}
	}

	out := make([]Plant, 0, len(tbl.Rows))
	for i, row := range tbl.Rows {
		line := i + 2

		name := cell(row, cols["name"])
		if name == "" {
			return nil, fmt.Errorf("plant table row %d: missing plant name", line)
		}

		lat, err := strconv.ParseFloat(cell(row, cols["lat"]), 64)
		if err != nil {
			return nil, fmt.Errorf("plant table row %d: lat: %w", line, err)
		}
		lon, err := strconv.ParseFloat(cell(row, cols["lon"]), 64)
		if err != nil {
			return nil, fmt.Errorf("plant table row %d: lon: %w", line, err)
		}
		if math.Abs(lat) > 90 || math.Abs(lon) > 180 {
			return nil, fmt.Errorf("plant table row %d: coordinates out of range (%g, %g)", line, lat, lon)
		}

		p := Plant{
			Name:        name,
			Country:     cell(row, cols["country"]),
			Lat:         lat,
			Lon:         lon,
			NumReactors: intOrZero(cell(row, cols["num_reactors"])),
			PopByWindow: make(map[Window]float64, len(windowCols)),
		}
		for _, wc := range windowCols {
			if v := optionalFloat(cell(row, wc.idx)); v != nil {
				p.PopByWindow[wc.window] = *v
			}
		}

		out = append(out, p)
	}

	return out, nil
}

// columnIndex maps lowercased header names to their positions and verifies
// every required column is present.
func columnIndex(header, required []string) (map[string]int, error) {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, name := range required {
		if _, ok := idx[name]; !ok {
			return nil, fmt.Errorf("missing column %q", name)
		}
	}
	return idx, nil
}

// cell returns the trimmed cell at position i, or "" when the row is too
// short.
func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// optionalFloat parses a measure cell. Empty cells, NA markers, malformed
// numbers, and non-finite values all mean "no value reported" and return
// nil.
func optionalFloat(s string) *float64 {
	if s == "" || strings.EqualFold(s, "na") || strings.EqualFold(s, "n/a") {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// intOrZero parses a count cell, returning 0 for anything unparseable.
func intOrZero(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
