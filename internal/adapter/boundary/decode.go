// Package boundary decodes country boundary GeoJSON into resolved entities.
package boundary

import (
	"fmt"

	geojson "github.com/paulmach/go.geojson"

	"github.com/uzairgheewala/dsc106-proj3/internal/domain"
)

// Candidate identifier fields, tried in order after the feature id itself.
// Natural Earth exports vary: some carry the ISO code as the feature id,
// others in one of several property spellings.
var codeFields = []string{"ISO_A3", "iso_a3", "ADM0_A3", "adm0_a3", "ISO3", "iso3", "id"}

var nameFields = []string{"ADMIN", "admin", "NAME", "name", "NAME_LONG"}

// Stats reports how feature identifier resolution went across a file.
type Stats struct {
	Resolved   int
	Unresolved int
}

// Decode parses boundary GeoJSON and resolves each feature to an entity
// code. Features whose identifiers all fail to resolve are dropped and
// counted; when two features resolve to the same entity the first wins.
func Decode(data []byte) ([]domain.BoundaryCountry, Stats, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, Stats{}, fmt.Errorf("unmarshal boundary geojson: %w", err)
	}

	var stats Stats
	seen := make(map[string]bool, len(fc.Features))
	out := make([]domain.BoundaryCountry, 0, len(fc.Features))

	for _, f := range fc.Features {
		entity := resolveFeature(f)
		if entity == "" {
			stats.Unresolved++
			continue
		}
		stats.Resolved++
		if seen[entity] {
			continue
		}
		seen[entity] = true
		out = append(out, domain.BoundaryCountry{Entity: entity, Name: featureName(f)})
	}

	return out, stats, nil
}

// resolveFeature tries the feature id, then each candidate property, until
// one yields a resolvable code. A candidate holding a placeholder such as
// "-99" does not stop the scan.
func resolveFeature(f *geojson.Feature) string {
	if s, ok := f.ID.(string); ok {
		if entity := domain.ResolveEntityCode(s); entity != "" {
			return entity
		}
	}
	for _, field := range codeFields {
		if s, err := f.PropertyString(field); err == nil {
			if entity := domain.ResolveEntityCode(s); entity != "" {
				return entity
			}
		}
	}
	return ""
}

func featureName(f *geojson.Feature) string {
	for _, field := range nameFields {
		if s, err := f.PropertyString(field); err == nil && s != "" {
			return s
		}
	}
	return ""
}
