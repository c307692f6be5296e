package store

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/uzairgheewala/dsc106-proj3/internal/adapter/boundary"
	"github.com/uzairgheewala/dsc106-proj3/internal/adapter/tabular"
	"github.com/uzairgheewala/dsc106-proj3/internal/domain"
	"github.com/uzairgheewala/dsc106-proj3/internal/observability"
)

// Fetcher retrieves the raw bytes behind a dataset URI.
type Fetcher interface {
	Fetch(ctx context.Context, uri string) ([]byte, error)
}

// Sources names the three dataset locations.
type Sources struct {
	CountryURI  string
	PlantURI    string
	BoundaryURI string
}

// Loader fetches, decodes, and assembles the Store.
type Loader struct {
	fetcher   Fetcher
	sources   Sources
	buffersKm []int
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// NewLoader creates a Loader over the given sources.
func NewLoader(fetcher Fetcher, sources Sources, buffersKm []int, logger *slog.Logger, metrics *observability.Metrics) *Loader {
	return &Loader{
		fetcher:   fetcher,
		sources:   sources,
		buffersKm: buffersKm,
		logger:    logger,
		metrics:   metrics,
	}
}

// Load fetches all three sources concurrently and assembles the store. Any
// single source failure fails the whole load; errors are reported in a
// fixed source order so repeated failing loads read the same.
func (l *Loader) Load(ctx context.Context) (*Store, error) {
	var (
		countries []domain.CountryExposure
		plants    []domain.Plant
		bounds    []domain.BoundaryCountry

		countriesErr, plantsErr, boundsErr error
	)

	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		countries, countriesErr = l.loadCountries(ctx)
	}()
	go func() {
		defer wg.Done()
		plants, plantsErr = l.loadPlants(ctx)
	}()
	go func() {
		defer wg.Done()
		bounds, boundsErr = l.loadBoundaries(ctx)
	}()
	wg.Wait()

	if countriesErr != nil {
		return nil, fmt.Errorf("load countries: %w", countriesErr)
	}
	if plantsErr != nil {
		return nil, fmt.Errorf("load plants: %w", plantsErr)
	}
	if boundsErr != nil {
		return nil, fmt.Errorf("load boundaries: %w", boundsErr)
	}

	resolvePlantEntities(plants, bounds)

	st := (&Store{Countries: countries, Plants: plants, Boundaries: bounds}).Filter(l.buffersKm)
	l.logger.Info("datasets loaded",
		"countries", len(st.Countries),
		"plants", len(st.Plants),
		"boundaries", len(st.Boundaries),
		"buffers_km", st.BuffersKm,
	)
	return st, nil
}

func (l *Loader) loadCountries(ctx context.Context) ([]domain.CountryExposure, error) {
	start := time.Now()

	data, err := l.fetcher.Fetch(ctx, l.sources.CountryURI)
	if err != nil {
		return nil, err
	}
	tbl, err := tabular.Decode(l.sources.CountryURI, data)
	if err != nil {
		return nil, err
	}
	records, err := domain.ParseCountryTable(tbl)
	if err != nil {
		return nil, err
	}

	l.metrics.DatasetLoadDuration.WithLabelValues("countries").Observe(time.Since(start).Seconds())
	l.metrics.RecordsLoaded.WithLabelValues("countries").Add(float64(len(records)))
	l.logger.Info("country exposure loaded", "uri", l.sources.CountryURI, "records", len(records))
	return records, nil
}

func (l *Loader) loadPlants(ctx context.Context) ([]domain.Plant, error) {
	start := time.Now()

	data, err := l.fetcher.Fetch(ctx, l.sources.PlantURI)
	if err != nil {
		return nil, err
	}
	tbl, err := tabular.Decode(l.sources.PlantURI, data)
	if err != nil {
		return nil, err
	}
	plants, err := domain.ParsePlantTable(tbl)
	if err != nil {
		return nil, err
	}

	l.metrics.DatasetLoadDuration.WithLabelValues("plants").Observe(time.Since(start).Seconds())
	l.metrics.RecordsLoaded.WithLabelValues("plants").Add(float64(len(plants)))
	l.logger.Info("plants loaded", "uri", l.sources.PlantURI, "records", len(plants))
	return plants, nil
}

func (l *Loader) loadBoundaries(ctx context.Context) ([]domain.BoundaryCountry, error) {
	start := time.Now()

	data, err := l.fetcher.Fetch(ctx, l.sources.BoundaryURI)
	if err != nil {
		return nil, err
	}
	bounds, stats, err := boundary.Decode(data)
	if err != nil {
		return nil, err
	}

	l.metrics.DatasetLoadDuration.WithLabelValues("boundaries").Observe(time.Since(start).Seconds())
	l.metrics.RecordsLoaded.WithLabelValues("boundaries").Add(float64(len(bounds)))
	l.metrics.BoundaryFeatures.WithLabelValues("resolved").Add(float64(stats.Resolved))
	l.metrics.BoundaryFeatures.WithLabelValues("unresolved").Add(float64(stats.Unresolved))

	if stats.Unresolved > 0 {
		l.logger.Warn("boundary features without a resolvable code",
			"uri", l.sources.BoundaryURI, "unresolved", stats.Unresolved)
	}
	l.logger.Info("boundaries loaded", "uri", l.sources.BoundaryURI, "records", len(bounds))
	return bounds, nil
}

// resolvePlantEntities fills each plant's Entity from its country label,
// matching boundary names first and falling back to treating the label as
// a code. Unmatched labels leave Entity empty; such plants still render on
// the map but never join a country row.
func resolvePlantEntities(plants []domain.Plant, bounds []domain.BoundaryCountry) {
	byName := make(map[string]string, len(bounds))
	for _, b := range bounds {
		if b.Name != "" {
			byName[strings.ToUpper(b.Name)] = b.Entity
		}
	}

	for i := range plants {
		label := strings.ToUpper(strings.TrimSpace(plants[i].Country))
		if entity, ok := byName[label]; ok {
			plants[i].Entity = entity
			continue
		}
		plants[i].Entity = domain.ResolveEntityCode(plants[i].Country)
	}
}
