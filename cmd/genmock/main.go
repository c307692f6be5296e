// Command genmock writes a small deterministic sample dataset (country
// exposure CSV, plant CSV, world boundary GeoJSON) so the dashboard runs
// without the real SEDAC exports. It re-reads its own output through the
// actual parsing packages to ensure the fixtures match real load behavior.
//
// Usage:
//
//	go run ./cmd/genmock -out data/sample
package main

import (
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"

	geojson "github.com/paulmach/go.geojson"

	"github.com/uzairgheewala/dsc106-proj3/internal/adapter/boundary"
	"github.com/uzairgheewala/dsc106-proj3/internal/adapter/tabular"
	"github.com/uzairgheewala/dsc106-proj3/internal/domain"
)

var buffersKm = []int{30, 75, 150, 300}

// bufferScale grows the 30 km population outward. The raw dataset's wider
// rings always contain the narrower ones.
var bufferScale = map[int]float64{30: 1.0, 75: 2.2, 150: 4.1, 300: 7.5}

var yearGrowth = map[int]float64{1990: 1.0, 2000: 1.08, 2010: 1.12}

// countrySeed is one country's base numbers; per-window values derive
// from pop30 deterministically. csvCode carries the code as the source
// vintage spelled it, so legacy aliases get exercised end to end.
type countrySeed struct {
	entity    string
	name      string
	csvCode   map[int]string
	popTotal  float64
	pop30     float64
	numPlants int
	lat, lon  float64

	// geojson code placement: one of "id", or a property name.
	codeField string
	codeValue string
}

func seeds() []countrySeed {
	return []countrySeed{
		{entity: "FRA", name: "France", popTotal: 58e6, pop30: 1.9e6, numPlants: 20,
			lat: 46.6, lon: 2.5, codeField: "id", codeValue: "FRA"},
		{entity: "DEU", name: "Germany", popTotal: 80e6, pop30: 2.65e6, numPlants: 17,
			lat: 51.1, lon: 10.4, codeField: "ISO_A3", codeValue: "DEU"},
		{entity: "USA", name: "United States of America", popTotal: 280e6, pop30: 3.4e6, numPlants: 65,
			lat: 39.8, lon: -98.6, codeField: "iso_a3", codeValue: "USA"},
		{entity: "JPN", name: "Japan", popTotal: 126e6, pop30: 4.3e6, numPlants: 17,
			lat: 36.2, lon: 138.3, codeField: "ADM0_A3", codeValue: "JPN"},
		{entity: "UKR", name: "Ukraine", popTotal: 48e6, pop30: 1.1e6, numPlants: 4,
			lat: 48.4, lon: 31.2, codeField: "ISO_A3", codeValue: "UKR"},
		{entity: "CHE", name: "Switzerland", popTotal: 7.5e6, pop30: 0.52e6, numPlants: 4,
			lat: 46.8, lon: 8.2, codeField: "ISO_A3", codeValue: "CHE"},
		{entity: "ROU", name: "Romania", popTotal: 21e6, pop30: 0.2e6, numPlants: 1,
			lat: 45.9, lon: 24.9,
			// The 1990 vintage still uses the pre-2002 code.
			csvCode:   map[int]string{1990: "ROM"},
			codeField: "iso_a3", codeValue: "ROM"},
		{entity: "BGR", name: "Bulgaria", popTotal: 7.8e6, pop30: 0.22e6, numPlants: 1,
			lat: 42.7, lon: 25.5, codeField: "ISO_A3", codeValue: "BGR"},
	}
}

type plantSeed struct {
	name     string
	country  string
	lat, lon float64
	reactors int
	pop30    float64
	// missingBefore blanks all windows earlier than this year.
	missingBefore int
}

func plantSeeds() []plantSeed {
	return []plantSeed{
		{name: "Gravelines", country: "France", lat: 51.0153, lon: 2.1269, reactors: 6, pop30: 51000},
		{name: "Cattenom", country: "France", lat: 49.4158, lon: 6.2181, reactors: 4, pop30: 83000},
		{name: "Biblis", country: "Germany", lat: 49.7098, lon: 8.4147, reactors: 2, pop30: 250000},
		{name: "Fukushima Daiichi", country: "Japan", lat: 37.4214, lon: 141.0325, reactors: 6, pop30: 148000},
		{name: "Kashiwazaki-Kariwa", country: "Japan", lat: 37.4286, lon: 138.5956, reactors: 7, pop30: 263000},
		{name: "Zaporizhzhia", country: "Ukraine", lat: 47.5119, lon: 34.5863, reactors: 6, pop30: 120000, missingBefore: 2000},
		{name: "Leibstadt", country: "Switzerland", lat: 47.6011, lon: 8.1831, reactors: 1, pop30: 310000},
		{name: "Cernavoda", country: "Romania", lat: 44.3225, lon: 28.0572, reactors: 2, pop30: 42000, missingBefore: 2000},
		{name: "Kozloduy", country: "Bulgaria", lat: 43.7461, lon: 23.7703, reactors: 2, pop30: 28000},
		{name: "Palo Verde", country: "United States of America", lat: 33.389, lon: -112.8652, reactors: 3, pop30: 9500},
	}
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "data/sample", "output directory for the sample dataset")
	flag.Parse()

	if err := os.MkdirAll(*out, 0o755); err != nil {
		return err
	}

	exposurePath := filepath.Join(*out, "exposure.csv")
	if err := writeExposure(exposurePath); err != nil {
		return fmt.Errorf("writing exposure table: %w", err)
	}
	log.Printf("wrote %s", exposurePath)

	plantsPath := filepath.Join(*out, "plants.csv")
	if err := writePlants(plantsPath); err != nil {
		return fmt.Errorf("writing plant table: %w", err)
	}
	log.Printf("wrote %s", plantsPath)

	worldPath := filepath.Join(*out, "world.geojson")
	if err := writeWorld(worldPath); err != nil {
		return fmt.Errorf("writing boundary file: %w", err)
	}
	log.Printf("wrote %s", worldPath)

	return verify(*out)
}

func writeExposure(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"country_code", "year", "buffer_km", "pct_near", "pop_near", "num_plants"}); err != nil {
		return err
	}

	for _, c := range seeds() {
		for _, year := range domain.Years() {
			code := c.entity
			if alt, ok := c.csvCode[year]; ok {
				code = alt
			}
			for _, buffer := range buffersKm {
				row := []string{code, strconv.Itoa(year), strconv.Itoa(buffer)}

				// Ukraine's 1990 census round reported nothing.
				if c.entity == "UKR" && year == 1990 {
					row = append(row, "NA", "NA", strconv.Itoa(c.numPlants))
				} else {
					pop := c.pop30 * yearGrowth[year] * bufferScale[buffer]
					pct := pop / c.popTotal * 100
					row = append(row,
						strconv.FormatFloat(pct, 'f', 4, 64),
						strconv.FormatFloat(pop, 'f', 0, 64),
						strconv.Itoa(c.numPlants),
					)
				}
				if err := w.Write(row); err != nil {
					return err
				}
			}
		}
	}

	w.Flush()
	return w.Error()
}

func writePlants(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)

	header := []string{"name", "country", "lat", "lon", "num_reactors"}
	for _, year := range domain.Years() {
		for _, buffer := range buffersKm {
			header = append(header, domain.PlantPopColumn(year, buffer))
		}
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for _, p := range plantSeeds() {
		row := []string{
			p.name,
			p.country,
			strconv.FormatFloat(p.lat, 'f', 4, 64),
			strconv.FormatFloat(p.lon, 'f', 4, 64),
			strconv.Itoa(p.reactors),
		}
		for _, year := range domain.Years() {
			for _, buffer := range buffersKm {
				if p.missingBefore != 0 && year < p.missingBefore {
					row = append(row, "")
					continue
				}
				pop := p.pop30 * yearGrowth[year] * bufferScale[buffer]
				row = append(row, strconv.FormatFloat(pop, 'f', 0, 64))
			}
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

func writeWorld(path string) error {
	fc := geojson.NewFeatureCollection()

	for _, c := range seeds() {
		feat := geojson.NewPolygonFeature(boxAround(c.lat, c.lon))
		feat.SetProperty("ADMIN", c.name)
		if c.codeField == "id" {
			feat.ID = c.codeValue
		} else {
			feat.SetProperty(c.codeField, c.codeValue)
		}
		fc.AddFeature(feat)
	}

	// Natural Earth quirks worth keeping in the sample: a feature whose
	// ISO_A3 is the -99 placeholder but resolves through ADM0_A3, and one
	// that resolves through nothing at all.
	nor := geojson.NewPolygonFeature(boxAround(64.5, 12.6))
	nor.SetProperty("ADMIN", "Norway")
	nor.SetProperty("ISO_A3", "-99")
	nor.SetProperty("ADM0_A3", "NOR")
	fc.AddFeature(nor)

	kos := geojson.NewPolygonFeature(boxAround(42.6, 20.9))
	kos.SetProperty("ADMIN", "Kosovo")
	kos.SetProperty("ISO_A3", "-99")
	fc.AddFeature(kos)

	data, err := json.MarshalIndent(fc, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o600)
}

// boxAround returns a one-degree square ring centered on a point. The
// dashboard only joins boundaries by code, so shapes just need to be valid.
func boxAround(lat, lon float64) [][][]float64 {
	return [][][]float64{{
		{lon - 0.5, lat - 0.5},
		{lon + 0.5, lat - 0.5},
		{lon + 0.5, lat + 0.5},
		{lon - 0.5, lat + 0.5},
		{lon - 0.5, lat - 0.5},
	}}
}

// verify re-reads the generated files through the real adapters so a
// fixture that would fail at startup never lands in the repo.
func verify(dir string) error {
	exposure, err := os.ReadFile(filepath.Join(dir, "exposure.csv"))
	if err != nil {
		return err
	}
	tbl, err := tabular.Decode("exposure.csv", exposure)
	if err != nil {
		return err
	}
	countries, err := domain.ParseCountryTable(tbl)
	if err != nil {
		return fmt.Errorf("generated exposure table does not parse: %w", err)
	}

	plantsRaw, err := os.ReadFile(filepath.Join(dir, "plants.csv"))
	if err != nil {
		return err
	}
	tbl, err = tabular.Decode("plants.csv", plantsRaw)
	if err != nil {
		return err
	}
	plants, err := domain.ParsePlantTable(tbl)
	if err != nil {
		return fmt.Errorf("generated plant table does not parse: %w", err)
	}

	world, err := os.ReadFile(filepath.Join(dir, "world.geojson"))
	if err != nil {
		return err
	}
	bounds, stats, err := boundary.Decode(world)
	if err != nil {
		return fmt.Errorf("generated boundary file does not parse: %w", err)
	}

	log.Printf("verified: %d country rows, %d plants, %d boundaries (%d unresolved)",
		len(countries), len(plants), len(bounds), stats.Unresolved)
	return nil
}
