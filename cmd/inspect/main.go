// Command inspect loads a dataset the way the dashboard does and prints
// a human-readable summary: record counts, population totals near plants
// per census year, and the top countries by share at one window. With
// -entity it additionally dumps every record held for a single country.
//
// Usage:
//
//	go run ./cmd/inspect -year 2010 -buffer 30 -top 15
//	go run ./cmd/inspect -entity FRA
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/davecgh/go-spew/spew"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/uzairgheewala/dsc106-proj3/internal/adapter/fetch"
	"github.com/uzairgheewala/dsc106-proj3/internal/config"
	"github.com/uzairgheewala/dsc106-proj3/internal/domain"
	"github.com/uzairgheewala/dsc106-proj3/internal/index"
	"github.com/uzairgheewala/dsc106-proj3/internal/observability"
	"github.com/uzairgheewala/dsc106-proj3/internal/store"
)

type options struct {
	exposureURI string
	plantURI    string
	worldURI    string
	buffersKm   []int
	year        int
	bufferKm    int
	top         int
	entity      string
}

func main() {
	exposure := flag.String("exposure", "data/sample/exposure.csv", "path or URI of the country exposure table")
	plants := flag.String("plants", "data/sample/plants.csv", "path or URI of the plant table")
	world := flag.String("world", "data/sample/world.geojson", "path or URI of the boundary file")
	buffers := flag.String("buffers", "30,75,150,300", "comma-separated buffer distances to load")
	year := flag.Int("year", 2010, "census year for the ranking table")
	buffer := flag.Int("buffer", 30, "buffer distance in km for the ranking table")
	top := flag.Int("top", 15, "number of countries in the ranking table")
	entity := flag.String("entity", "", "dump every record held for one country (3-letter code)")
	flag.Parse()

	buffersKm, err := parseBuffers(*buffers)
	if err != nil {
		log.Fatal(err)
	}

	o := options{
		exposureURI: *exposure,
		plantURI:    *plants,
		worldURI:    *world,
		buffersKm:   buffersKm,
		year:        *year,
		bufferKm:    *buffer,
		top:         *top,
		entity:      *entity,
	}
	if err := run(o); err != nil {
		log.Fatal(err)
	}
}

func run(o options) error {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	metrics := observability.NewMetrics()
	fetcher := fetch.NewClient(&config.Config{FetchTimeout: 30 * time.Second}, logger)

	loader := store.NewLoader(fetcher, store.Sources{
		CountryURI:  o.exposureURI,
		PlantURI:    o.plantURI,
		BoundaryURI: o.worldURI,
	}, o.buffersKm, logger, metrics)

	st, err := loader.Load(context.Background())
	if err != nil {
		return fmt.Errorf("load datasets: %w", err)
	}

	idx := index.Build(st)
	deltas := index.ComputeDeltas(st)

	names := make(map[string]string, len(st.Boundaries))
	for _, b := range st.Boundaries {
		names[b.Entity] = b.Name
	}

	reactors := 0
	for i := range st.Plants {
		reactors += st.Plants[i].NumReactors
	}

	// Locale number printer.
	p := message.NewPrinter(language.English)

	p.Printf("Dataset: %d country records, %d plants (%d reactors), %d boundaries\n",
		len(st.Countries), len(st.Plants), reactors, len(st.Boundaries))
	p.Printf("Census years %v, buffers %v km\n\n", idx.Years, idx.BuffersKm)

	p.Printf("Population living within %d km of a plant:\n", o.bufferKm)
	for _, year := range idx.Years {
		var total float64
		reporting := 0
		for i := range st.Countries {
			c := &st.Countries[i]
			if c.Year == year && c.BufferKm == o.bufferKm && c.PopNear != nil {
				total += *c.PopNear
				reporting++
			}
		}
		p.Printf("  %d: %15.0f people across %d countries\n", year, total, reporting)
	}
	p.Println()

	printRanking(p, idx, deltas, names, o)

	if o.entity != "" {
		if err := dumpEntity(p, st, idx, names, o.entity); err != nil {
			return err
		}
	}
	return nil
}

func printRanking(p *message.Printer, idx *index.Indices, deltas *index.DeltaSet, names map[string]string, o options) {
	w := domain.Window{Year: o.year, BufferKm: o.bufferKm}
	r, ok := idx.Rank[w]
	if !ok || r.Total == 0 {
		p.Printf("No countries report a share for %d at %d km.\n", o.year, o.bufferKm)
		return
	}

	byPos := make([]string, r.Total+1)
	for entity, pos := range r.Pos {
		byPos[pos] = entity
	}

	n := o.top
	if n > r.Total {
		n = r.Total
	}
	p.Printf("Top %d of %d countries by share of population near plants, %d at %d km:\n", n, r.Total, o.year, o.bufferKm)
	for pos := 1; pos <= n; pos++ {
		entity := byPos[pos]
		rec, ok := idx.Point[domain.Key{Entity: entity, Year: o.year, BufferKm: o.bufferKm}]
		if !ok || rec.PctNear == nil {
			continue
		}
		name := names[entity]
		if name == "" {
			name = entity
		}
		p.Printf("  %2d. %-3s %-26s %6.2f%%", pos, entity, name, *rec.PctNear)
		if rec.PopNear != nil {
			p.Printf(" %14.0f people", *rec.PopNear)
		}
		if d := deltas.At(rec.Key()); d != nil && *d > 0 {
			p.Printf("  +%.0f over the decade", *d)
		}
		p.Println()
	}
}

func dumpEntity(p *message.Printer, st *store.Store, idx *index.Indices, names map[string]string, raw string) error {
	code := domain.ResolveEntityCode(raw)
	if code == "" {
		return fmt.Errorf("%q is not a country code", raw)
	}
	name := names[code]
	if name == "" {
		name = code
	}

	recs := idx.ByEntity[code]
	var sites []domain.Plant
	for i := range st.Plants {
		if st.Plants[i].Entity == code {
			sites = append(sites, st.Plants[i])
		}
	}

	p.Printf("\n%s (%s): %d exposure records, %d plants\n\n", name, code, len(recs), len(sites))
	spew.Dump(recs)
	if len(sites) > 0 {
		spew.Dump(sites)
	}
	return nil
}

func parseBuffers(raw string) ([]int, error) {
	var out []int
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		v, err := strconv.Atoi(part)
		if err != nil || v <= 0 {
			return nil, fmt.Errorf("invalid buffer %q", part)
		}
		out = append(out, v)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no buffers given")
	}
	return out, nil
}
