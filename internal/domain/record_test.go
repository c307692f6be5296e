package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestYearSequence(t *testing.T) {
	assert.Equal(t, []int{1990, 2000, 2010}, Years())
	assert.Equal(t, 1990, EarliestYear())

	// Callers get a copy.
	got := Years()
	got[0] = 1234
	assert.Equal(t, []int{1990, 2000, 2010}, Years())
}

func TestValidYear(t *testing.T) {
	tests := []struct {
		year  int
		valid bool
	}{
		{1990, true},
		{2000, true},
		{2010, true},
		{1995, false},
		{2020, false},
		{0, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.valid, ValidYear(tt.year), "year %d", tt.year)
	}
}

func TestNextYear(t *testing.T) {
	tests := []struct {
		name string
		year int
		next int
	}{
		{"first to second", 1990, 2000},
		{"second to third", 2000, 2010},
		{"wraps to earliest", 2010, 1990},
		{"unknown maps to earliest", 1975, 1990},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.next, NextYear(tt.year))
		})
	}
}

func TestPrevYear(t *testing.T) {
	tests := []struct {
		name string
		year int
		prev int
		ok   bool
	}{
		{"second to first", 2000, 1990, true},
		{"third to second", 2010, 2000, true},
		{"earliest has no prior", 1990, 0, false},
		{"unknown has no prior", 1975, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prev, ok := PrevYear(tt.year)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.prev, prev)
		})
	}
}

func TestKeyString(t *testing.T) {
	k := Key{Entity: "FRA", Year: 2000, BufferKm: 30}
	assert.Equal(t, "FRA/2000/30km", k.String())
}

func TestPlantPopColumn(t *testing.T) {
	assert.Equal(t, "p90_30", PlantPopColumn(1990, 30))
	assert.Equal(t, "p00_150", PlantPopColumn(2000, 150))
	assert.Equal(t, "p10_300", PlantPopColumn(2010, 300))
}

func TestParsePlantPopColumn(t *testing.T) {
	tests := []struct {
		name     string
		col      string
		year     int
		bufferKm int
		ok       bool
	}{
		{"1990 30km", "p90_30", 1990, 30, true},
		{"2000 75km", "p00_75", 2000, 75, true},
		{"2010 300km", "p10_300", 2010, 300, true},
		{"unknown census year", "p85_30", 0, 0, false},
		{"zero buffer", "p90_0", 0, 0, false},
		{"one-digit year", "p9_30", 0, 0, false},
		{"trailing text", "p90_30x", 0, 0, false},
		{"not a window column", "country", 0, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			year, bufferKm, ok := ParsePlantPopColumn(tt.col)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.year, year)
			assert.Equal(t, tt.bufferKm, bufferKm)
		})
	}
}

func TestPlantPopAt(t *testing.T) {
	p := Plant{
		Name:        "Gravelines",
		PopByWindow: map[Window]float64{{Year: 1990, BufferKm: 30}: 152000},
	}

	v, ok := p.PopAt(1990, 30)
	assert.True(t, ok)
	assert.Equal(t, 152000.0, v)

	_, ok = p.PopAt(2000, 30)
	assert.False(t, ok)
}
