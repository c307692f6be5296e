// Command validate performs end-to-end integrity checks over a dataset
// the way the dashboard would load it: source tables, derived indices,
// growth values, rebuild determinism, and boundary coverage.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -exposure data/sample/exposure.csv \
//	  -plants data/sample/plants.csv \
//	  -world data/sample/world.geojson \
//	  -buffers 30,75,150,300
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"math"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/uzairgheewala/dsc106-proj3/internal/adapter/boundary"
	"github.com/uzairgheewala/dsc106-proj3/internal/adapter/fetch"
	"github.com/uzairgheewala/dsc106-proj3/internal/config"
	"github.com/uzairgheewala/dsc106-proj3/internal/domain"
	"github.com/uzairgheewala/dsc106-proj3/internal/index"
	"github.com/uzairgheewala/dsc106-proj3/internal/observability"
	"github.com/uzairgheewala/dsc106-proj3/internal/store"
)

var entityShape = regexp.MustCompile(`^[A-Z]{3}$`)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	exposure := flag.String("exposure", "data/sample/exposure.csv", "path or URI of the country exposure table")
	plants := flag.String("plants", "data/sample/plants.csv", "path or URI of the plant table")
	world := flag.String("world", "data/sample/world.geojson", "path or URI of the boundary file")
	buffers := flag.String("buffers", "30,75,150,300", "comma-separated buffer distances to load")
	flag.Parse()

	buffersKm, err := parseBuffers(*buffers)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		os.Exit(1)
	}

	if code := run(*exposure, *plants, *world, buffersKm); code != 0 {
		os.Exit(code)
	}
}

func run(exposureURI, plantURI, worldURI string, buffersKm []int) int {
	fmt.Println("=== Exposure Dataset Integrity Validation ===")
	fmt.Println()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	metrics := observability.NewMetrics()
	fetcher := fetch.NewClient(&config.Config{FetchTimeout: 30 * time.Second}, logger)

	loader := store.NewLoader(fetcher, store.Sources{
		CountryURI:  exposureURI,
		PlantURI:    plantURI,
		BoundaryURI: worldURI,
	}, buffersKm, logger, metrics)

	st, err := loader.Load(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load datasets: %v\n", err)
		return 1
	}

	// Boundary stats come from a second raw decode; the loader only logs them.
	worldRaw, err := fetcher.Fetch(context.Background(), worldURI)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: fetch boundary file: %v\n", err)
		return 1
	}
	_, boundaryStats, err := boundary.Decode(worldRaw)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: decode boundary file: %v\n", err)
		return 1
	}

	idx := index.Build(st)
	deltas := index.ComputeDeltas(st)

	phases := []*phase{
		validateSources(st),
		validateIndices(st, idx),
		validateDeltas(st, idx, deltas),
		validateRebuild(st, idx, deltas),
		validateBoundaries(st, boundaryStats),
	}

	// ── Report results ──
	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Records: %d countries, %d plants, %d boundaries (%d unresolved features)\n",
		len(st.Countries), len(st.Plants), len(st.Boundaries), boundaryStats.Unresolved)

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// ── Phase 1: Source Integrity ──
// Every loaded record satisfies the shape the rest of the system assumes.

func validateSources(st *store.Store) *phase {
	p := &phase{name: "Phase 1: Source Integrity"}

	for i := range st.Countries {
		c := &st.Countries[i]
		if !entityShape.MatchString(c.Entity) {
			p.errorf("country %d: entity %q is not a 3-letter code", i, c.Entity)
		}
		if !domain.ValidYear(c.Year) {
			p.errorf("country %d (%s): year %d outside census years", i, c.Entity, c.Year)
		}
		if c.BufferKm <= 0 {
			p.errorf("country %d (%s): buffer %d km not positive", i, c.Entity, c.BufferKm)
		}
		if c.NumPlants < 0 {
			p.errorf("country %d (%s): negative plant count %d", i, c.Entity, c.NumPlants)
		}
		checkMeasure(p, fmt.Sprintf("country %d (%s) pct_near", i, c.Entity), c.PctNear, 0, 100)
		checkMeasure(p, fmt.Sprintf("country %d (%s) pop_near", i, c.Entity), c.PopNear, 0, math.MaxFloat64)
	}

	for i := range st.Plants {
		pl := &st.Plants[i]
		if pl.Name == "" {
			p.errorf("plant %d: empty name", i)
		}
		if math.Abs(pl.Lat) > 90 || math.Abs(pl.Lon) > 180 {
			p.errorf("plant %q: coordinates out of range (%g, %g)", pl.Name, pl.Lat, pl.Lon)
		}
		if pl.NumReactors < 0 {
			p.errorf("plant %q: negative reactor count %d", pl.Name, pl.NumReactors)
		}
		for w, pop := range pl.PopByWindow {
			if !domain.ValidYear(w.Year) || w.BufferKm <= 0 {
				p.errorf("plant %q: window (%d, %d km) is invalid", pl.Name, w.Year, w.BufferKm)
			}
			if math.IsNaN(pop) || math.IsInf(pop, 0) || pop < 0 {
				p.errorf("plant %q window (%d, %d km): bad population %g", pl.Name, w.Year, w.BufferKm, pop)
			}
		}
	}

	return p
}

func checkMeasure(p *phase, what string, v *float64, lo, hi float64) {
	if v == nil {
		return
	}
	if math.IsNaN(*v) || math.IsInf(*v, 0) {
		p.errorf("%s: not finite", what)
		return
	}
	if *v < lo || *v > hi {
		p.errorf("%s: %g outside [%g, %g]", what, *v, lo, hi)
	}
}

// ── Phase 2: Index Invariants ──
// The point index covers every record exactly once, groups stay sorted,
// and each ranking is a 1..Total bijection ordered by share.

func validateIndices(st *store.Store, idx *index.Indices) *phase {
	p := &phase{name: "Phase 2: Index Invariants"}

	if len(idx.Point) != len(st.Countries) {
		p.errorf("point index has %d keys for %d records", len(idx.Point), len(st.Countries))
	}
	grouped := 0
	for entity, recs := range idx.ByEntity {
		grouped += len(recs)
		for i := 1; i < len(recs); i++ {
			prev, cur := recs[i-1], recs[i]
			if cur.Year < prev.Year || (cur.Year == prev.Year && cur.BufferKm <= prev.BufferKm) {
				p.errorf("series for %s breaks (year, buffer) order at position %d", entity, i)
			}
		}
	}
	if grouped != len(st.Countries) {
		p.errorf("series groups hold %d records, want %d", grouped, len(st.Countries))
	}
	for i := range st.Countries {
		rec := &st.Countries[i]
		if got, ok := idx.Point[rec.Key()]; !ok {
			p.errorf("record %s missing from point index", rec.Key())
		} else if got != rec {
			p.errorf("point index entry for %s does not reference the store row", rec.Key())
		}
	}

	for _, year := range idx.Years {
		for _, buffer := range idx.BuffersKm {
			w := domain.Window{Year: year, BufferKm: buffer}
			r, ok := idx.Rank[w]
			if !ok {
				p.errorf("no ranking for window (%d, %d km)", year, buffer)
				continue
			}
			checkRanking(p, st, idx, w, r)
		}
	}

	return p
}

func checkRanking(p *phase, st *store.Store, idx *index.Indices, w domain.Window, r *index.Ranking) {
	reporting := 0
	for i := range st.Countries {
		c := &st.Countries[i]
		if c.Year == w.Year && c.BufferKm == w.BufferKm && c.PctNear != nil {
			reporting++
		}
	}
	if r.Total != reporting {
		p.errorf("window (%d, %d km): total %d, want %d reporting entities", w.Year, w.BufferKm, r.Total, reporting)
	}

	seen := make(map[int]string, r.Total)
	for entity, pos := range r.Pos {
		if pos < 1 || pos > r.Total {
			p.errorf("window (%d, %d km): %s has position %d outside 1..%d", w.Year, w.BufferKm, entity, pos, r.Total)
			continue
		}
		if other, dup := seen[pos]; dup {
			p.errorf("window (%d, %d km): %s and %s share position %d", w.Year, w.BufferKm, other, entity, pos)
		}
		seen[pos] = entity

		rec, ok := idx.Point[domain.Key{Entity: entity, Year: w.Year, BufferKm: w.BufferKm}]
		if !ok || rec.PctNear == nil {
			p.errorf("window (%d, %d km): ranked entity %s has no reported share", w.Year, w.BufferKm, entity)
		}
	}
	if len(r.Pos) != r.Total {
		p.errorf("window (%d, %d km): %d positions for total %d", w.Year, w.BufferKm, len(r.Pos), r.Total)
	}

	// Walking positions in order must never see the share increase.
	lastPct := math.Inf(1)
	for pos := 1; pos <= r.Total; pos++ {
		entity, ok := seen[pos]
		if !ok {
			continue
		}
		rec, ok := idx.Point[domain.Key{Entity: entity, Year: w.Year, BufferKm: w.BufferKm}]
		if !ok || rec.PctNear == nil {
			continue
		}
		if *rec.PctNear > lastPct {
			p.errorf("window (%d, %d km): position %d (%s) outranks a larger share", w.Year, w.BufferKm, pos, entity)
		}
		lastPct = *rec.PctNear
	}
}

// ── Phase 3: Growth Invariants ──
// Exactly one growth slot per record, never negative, absent at the
// earliest year, and reproducible from the point index by hand.

func validateDeltas(st *store.Store, idx *index.Indices, deltas *index.DeltaSet) *phase {
	p := &phase{name: "Phase 3: Growth Invariants"}

	if len(deltas.Values) != len(st.Countries) {
		p.errorf("delta set has %d slots for %d records", len(deltas.Values), len(st.Countries))
	}

	for i := range st.Countries {
		c := &st.Countries[i]
		key := c.Key()
		d, ok := deltas.Values[key]
		if !ok {
			p.errorf("record %s has no growth slot", key)
			continue
		}

		want := expectedDelta(idx, c)
		if !ptrFloatEq(d, want) {
			p.errorf("record %s: growth %s, want %s", key, ptrFloat(d), ptrFloat(want))
		}
		if d != nil {
			if math.IsNaN(*d) || math.IsInf(*d, 0) {
				p.errorf("record %s: growth not finite", key)
			}
			if *d < 0 {
				p.errorf("record %s: negative growth %g", key, *d)
			}
		}
		if _, hasPrev := domain.PrevYear(c.Year); !hasPrev && d != nil {
			p.errorf("record %s: earliest census year carries growth %g", key, *d)
		}
	}

	for _, buffer := range idx.BuffersKm {
		maxDelta := deltas.MaxPositiveDelta(buffer)
		if maxDelta < 1 {
			p.errorf("buffer %d km: max growth %g below the floor of 1", buffer, maxDelta)
		}
		for key, d := range deltas.Values {
			if key.BufferKm == buffer && d != nil && *d > maxDelta {
				p.errorf("buffer %d km: growth %g at %s exceeds max %g", buffer, *d, key, maxDelta)
			}
		}
	}

	return p
}

// expectedDelta recomputes one record's growth from point lookups.
func expectedDelta(idx *index.Indices, c *domain.CountryExposure) *float64 {
	prevYear, ok := domain.PrevYear(c.Year)
	if !ok || c.PopNear == nil {
		return nil
	}
	prev, ok := idx.Point[domain.Key{Entity: c.Entity, Year: prevYear, BufferKm: c.BufferKm}]
	if !ok || prev.PopNear == nil {
		return nil
	}
	d := *c.PopNear - *prev.PopNear
	if math.IsNaN(d) || math.IsInf(d, 0) {
		return nil
	}
	if d < 0 {
		d = 0
	}
	return &d
}

// ── Phase 4: Rebuild Determinism ──
// Building the derived structures twice from the same store must agree
// exactly, ties included.

func validateRebuild(st *store.Store, idx *index.Indices, deltas *index.DeltaSet) *phase {
	p := &phase{name: "Phase 4: Rebuild Determinism"}

	idx2 := index.Build(st)
	for w, r := range idx.Rank {
		r2, ok := idx2.Rank[w]
		if !ok {
			p.errorf("rebuild lost window (%d, %d km)", w.Year, w.BufferKm)
			continue
		}
		if r.Total != r2.Total {
			p.errorf("window (%d, %d km): totals differ across rebuilds (%d vs %d)", w.Year, w.BufferKm, r.Total, r2.Total)
		}
		for entity, pos := range r.Pos {
			if pos2, ok := r2.Pos[entity]; !ok || pos2 != pos {
				p.errorf("window (%d, %d km): %s moved between rebuilds (%d vs %d)", w.Year, w.BufferKm, entity, pos, pos2)
			}
		}
	}
	if len(idx2.Rank) != len(idx.Rank) {
		p.errorf("rebuild produced %d windows, want %d", len(idx2.Rank), len(idx.Rank))
	}

	deltas2 := index.ComputeDeltas(st)
	for key, d := range deltas.Values {
		if !ptrFloatEq(d, deltas2.Values[key]) {
			p.errorf("record %s: growth differs across rebuilds", key)
		}
	}
	for buffer, m := range deltas.MaxByBuffer {
		if !floatEq(m, deltas2.MaxByBuffer[buffer]) {
			p.errorf("buffer %d km: max growth differs across rebuilds", buffer)
		}
	}

	return p
}

// ── Phase 5: Boundary Coverage ──
// Every country in the exposure table should have a boundary to render
// onto; unresolved features are reported but tolerated.

func validateBoundaries(st *store.Store, stats boundary.Stats) *phase {
	p := &phase{name: "Phase 5: Boundary Coverage"}

	if stats.Unresolved > 0 {
		fmt.Printf("  Note: %d boundary feature(s) carry no usable country code\n", stats.Unresolved)
	}

	byEntity := make(map[string]bool, len(st.Boundaries))
	for _, b := range st.Boundaries {
		if byEntity[b.Entity] {
			p.errorf("boundary entity %s appears twice", b.Entity)
		}
		byEntity[b.Entity] = true
		if !entityShape.MatchString(b.Entity) {
			p.errorf("boundary entity %q is not a 3-letter code", b.Entity)
		}
	}

	missing := map[string]bool{}
	for i := range st.Countries {
		e := st.Countries[i].Entity
		if !byEntity[e] && !missing[e] {
			missing[e] = true
			p.errorf("exposure entity %s has no boundary feature", e)
		}
	}

	unattributed := 0
	for i := range st.Plants {
		if st.Plants[i].Entity == "" {
			unattributed++
		}
	}
	if unattributed > 0 {
		fmt.Printf("  Note: %d plant(s) join no country and render as markers only\n", unattributed)
	}

	return p
}

// ── Helpers ──

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

func floatEq(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func ptrFloatEq(a, b *float64) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	return floatEq(*a, *b)
}

func ptrFloat(v *float64) string {
	if v == nil {
		return "<none>"
	}
	return strconv.FormatFloat(*v, 'g', -1, 64)
}
