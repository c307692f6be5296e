// Package domain models population exposure around nuclear power plants.
//
// # Data Sources
//
// Country exposure figures derive from the NASA SEDAC "Population Near
// Nuclear Facilities" collection, pre-joined into one long-format table:
// one row per (country, census year, buffer distance). Plant records come
// from a world reactor inventory with WGS84 site coordinates and per-window
// population counts. Country boundaries arrive as GeoJSON (Natural Earth
// admin-0), used both for choropleth rendering and for mapping plant rows
// to ISO codes.
//
// # Dataset Conventions
//
// Census years:
//
//	The collection covers exactly three census rounds: 1990, 2000, 2010.
//	Rows reporting any other year are rejected at parse time. The set is
//	ordered and cyclic for playback purposes ([NextYear] wraps 2010 → 1990).
//
// Buffer distances:
//
//	Radial distances in kilometers around a plant site (30, 75, 150, 300 in
//	the published data). Which buffers get loaded is a deployment choice;
//	the parser accepts any positive integer.
//
// Country codes:
//
//	Entities are ISO 3166-1 alpha-3 codes. Two legacy codes still appear in
//	older boundary files and are remapped by [ResolveEntityCode]:
//
//	  ROM → ROU (Romania, pre-2002 code)
//	  ZAR → COD (DR Congo, pre-1997 code)
//
//	Natural Earth uses "-99" as its missing-code sentinel; it fails the
//	three-letter shape check and resolves to nothing.
//
// Measure cells:
//
//	pop_near and pct_near are optional. Empty cells, "NA", and malformed
//	numbers all mean "no value reported" and parse to nil rather than zero,
//	since zero population is a real measurement in this data.
//
// Plant window columns:
//
//	Per-plant population counts live in columns named p<yy>_<buffer>, e.g.
//	"p90_30" = population within 30 km at the 1990 census. The two-digit
//	year is matched against the census year set modulo 100. Columns not
//	matching the convention are ignored; blank cells leave the window
//	undefined for that plant. See [PlantPopColumn] and [ParsePlantPopColumn].
package domain
