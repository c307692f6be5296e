//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uzairgheewala/dsc106-proj3/internal/adapter/fetch"
	httpadapter "github.com/uzairgheewala/dsc106-proj3/internal/adapter/http"
	"github.com/uzairgheewala/dsc106-proj3/internal/config"
	"github.com/uzairgheewala/dsc106-proj3/internal/domain"
	"github.com/uzairgheewala/dsc106-proj3/internal/observability"
	"github.com/uzairgheewala/dsc106-proj3/internal/store"
	"github.com/uzairgheewala/dsc106-proj3/internal/view"
)

// The fixture dataset carries the quirks of the real exports: a 1990 row
// under the legacy ROM code, NA measure cells for Ukraine's first census,
// a 150 km row outside the configured buffers, a boundary feature with the
// "-99" placeholder code, and a plant whose country label matches nothing.
const exposureCSV = `country_code,year,buffer_km,pct_near,pop_near,num_plants
FRA,1990,30,12.0,1957000,12
FRA,2000,30,13.5,2143000,12
FRA,2010,30,12.8,2050000,12
FRA,1990,75,30.0,15000000,12
FRA,2000,75,31.0,15600000,12
FRA,2010,75,31.5,16100000,12
FRA,1990,150,55.0,28000000,12
DEU,1990,30,9.5,2100000,8
DEU,2000,30,10.1,2300000,8
DEU,2010,30,13.9,3000000,8
ROM,1990,30,2.1,500000,1
ROU,2000,30,2.4,560000,1
ROU,2010,30,2.9,640000,1
UKR,1990,30,NA,NA,4
UKR,2000,30,7.5,3800000,4
UKR,2010,30,7.1,3600000,4
`

const plantsCSV = `name,country,lat,lon,num_reactors,p90_30,p00_30,p10_30,p90_75,p00_75,p10_75
Gravelines,France,51.015,2.13,6,51000,56000,60000,230000,250000,260000
Fessenheim,France,47.903,7.563,2,,,90000,,,210000
Cernavoda,Romania,44.322,28.057,2,,470000,520000,,900000,1000000
Rivne,Ukraine,51.328,25.887,4,310000,330000,340000,,,
Atomgrad,Atlantis,10.0,10.0,1,,,,,,
`

const worldGeoJSON = `{
  "type": "FeatureCollection",
  "features": [
    {"type": "Feature", "properties": {"ISO_A3": "FRA", "ADMIN": "France"}, "geometry": {"type": "Polygon", "coordinates": [[[-5, 42], [8, 42], [8, 51], [-5, 51], [-5, 42]]]}},
    {"type": "Feature", "properties": {"ISO_A3": "DEU", "ADMIN": "Germany"}, "geometry": {"type": "Polygon", "coordinates": [[[6, 47], [15, 47], [15, 55], [6, 55], [6, 47]]]}},
    {"type": "Feature", "properties": {"ISO_A3": "UKR", "ADMIN": "Ukraine"}, "geometry": {"type": "Polygon", "coordinates": [[[22, 44], [40, 44], [40, 52], [22, 52], [22, 44]]]}},
    {"type": "Feature", "properties": {"ISO_A3": "ROM", "ADMIN": "Romania"}, "geometry": {"type": "Polygon", "coordinates": [[[20, 43], [30, 43], [30, 48], [20, 48], [20, 43]]]}},
    {"type": "Feature", "properties": {"ISO_A3": "CHE", "ADMIN": "Switzerland"}, "geometry": {"type": "Polygon", "coordinates": [[[6, 45], [11, 45], [11, 48], [6, 48], [6, 45]]]}},
    {"type": "Feature", "properties": {"ISO_A3": "-99", "ADMIN": "Kosovo"}, "geometry": {"type": "Polygon", "coordinates": [[[20, 42], [22, 42], [22, 43], [20, 43], [20, 42]]]}}
  ]
}`

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// writeDataset writes the three fixture files into a temp dir and returns
// their locations as loader sources.
func writeDataset(t *testing.T) store.Sources {
	t.Helper()
	dir := t.TempDir()
	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
		return path
	}
	return store.Sources{
		CountryURI:  write("exposure.csv", exposureCSV),
		PlantURI:    write("plants.csv", plantsCSV),
		BoundaryURI: write("world.geojson", worldGeoJSON),
	}
}

// startDashboard loads the fixture dataset through the real fetch and store
// layers and serves the full API on a real listener.
func startDashboard(ctx context.Context, t *testing.T, interval time.Duration) *httptest.Server {
	t.Helper()

	metrics := observability.NewMetricsForTesting()
	fetcher := fetch.NewClient(&config.Config{FetchTimeout: 10 * time.Second}, discardLogger())
	loader := store.NewLoader(fetcher, writeDataset(t), []int{30, 75}, discardLogger(), metrics)

	st, err := loader.Load(ctx)
	require.NoError(t, err)

	facade := view.NewFacade(st)
	state := view.NewState(facade, discardLogger(), metrics)
	playback := view.NewPlayback(state, clockwork.NewRealClock(), interval, discardLogger(), metrics)
	t.Cleanup(playback.Stop)

	srv := httpadapter.NewServer("127.0.0.1:0", facade, state, playback, discardLogger(), metrics)
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)
	return ts
}

// getInto GETs a URL and decodes the 200 response into out.
func getInto(t *testing.T, url string, out any) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode, "GET %s", url)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

// postJSON POSTs a JSON payload and returns the status code plus the
// decoded response body.
func postJSON(t *testing.T, url, payload string) (int, map[string]any) {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(payload))
	require.NoError(t, err)
	defer resp.Body.Close()
	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return resp.StatusCode, body
}

// TestDashboardEndToEnd walks the whole path: fixture files on disk, the
// concurrent loader, index construction, and every query answered over a
// real HTTP connection.
func TestDashboardEndToEnd(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	ts := startDashboard(ctx, t, 100*time.Millisecond)

	// Readiness and metadata.
	var ready map[string]string
	getInto(t, ts.URL+"/readyz", &ready)
	assert.Equal(t, "ready", ready["status"])

	var meta struct {
		Years     []int    `json:"years"`
		BuffersKm []int    `json:"buffers_km"`
		Modes     []string `json:"modes"`
	}
	getInto(t, ts.URL+"/api/meta", &meta)
	assert.Equal(t, []int{1990, 2000, 2010}, meta.Years)
	assert.Equal(t, []int{30, 75}, meta.BuffersKm)
	assert.Equal(t, []string{"baseline", "change"}, meta.Modes)

	// The legacy ROM code resolves to Romania everywhere.
	var resolved struct {
		Found  bool   `json:"found"`
		Entity string `json:"entity"`
		Name   string `json:"name"`
	}
	getInto(t, ts.URL+"/api/resolve?code=rom", &resolved)
	require.True(t, resolved.Found)
	assert.Equal(t, "ROU", resolved.Entity)
	assert.Equal(t, "Romania", resolved.Name)

	var exposure struct {
		Found  bool                   `json:"found"`
		Record domain.CountryExposure `json:"record"`
	}
	getInto(t, ts.URL+"/api/exposure?entity=ROM&year=1990&buffer_km=30", &exposure)
	require.True(t, exposure.Found)
	assert.Equal(t, "ROU", exposure.Record.Entity)
	require.NotNil(t, exposure.Record.PctNear)
	assert.Equal(t, 2.1, *exposure.Record.PctNear)

	// The 150 km row was dropped at load, so the lookup misses.
	var filtered struct {
		Found bool `json:"found"`
	}
	getInto(t, ts.URL+"/api/exposure?entity=FRA&year=1990&buffer_km=150", &filtered)
	assert.False(t, filtered.Found)

	// Growth spans the alias boundary: the 2000 delta for Romania reads
	// its 1990 endpoint from the row loaded under ROM.
	var delta struct {
		Found bool    `json:"found"`
		Delta float64 `json:"delta"`
	}
	getInto(t, ts.URL+"/api/delta?entity=ROU&year=2000&buffer_km=30", &delta)
	require.True(t, delta.Found)
	assert.Equal(t, 60000.0, delta.Delta)

	getInto(t, ts.URL+"/api/delta?entity=FRA&year=2000&buffer_km=30", &delta)
	require.True(t, delta.Found)
	assert.Equal(t, 186000.0, delta.Delta)

	// Ukraine reported nothing in 1990, so its first delta has no value.
	getInto(t, ts.URL+"/api/delta?entity=UKR&year=2000&buffer_km=30", &delta)
	assert.False(t, delta.Found)

	var rank struct {
		Found      bool    `json:"found"`
		Rank       int     `json:"rank"`
		Total      int     `json:"total"`
		Percentile float64 `json:"percentile"`
	}
	getInto(t, ts.URL+"/api/rank?entity=DEU&year=2010&buffer_km=30", &rank)
	require.True(t, rank.Found)
	assert.Equal(t, 1, rank.Rank)
	assert.Equal(t, 4, rank.Total)
	assert.Equal(t, 25.0, rank.Percentile)

	// Six FRA rows survive the buffer filter: three years at 30 and 75 km.
	var series struct {
		Entity string                   `json:"entity"`
		Name   string                   `json:"name"`
		Series []domain.CountryExposure `json:"series"`
	}
	getInto(t, ts.URL+"/api/series?entity=FRA", &series)
	assert.Equal(t, "France", series.Name)
	assert.Len(t, series.Series, 6)

	var maxDelta struct {
		BufferKm int     `json:"buffer_km"`
		MaxDelta float64 `json:"max_delta"`
	}
	getInto(t, ts.URL+"/api/max-delta?buffer_km=30", &maxDelta)
	assert.Equal(t, 700000.0, maxDelta.MaxDelta)

	// Plant attribution went through boundary names: France matched two
	// sites, the unknown label matched none.
	var plants struct {
		Entity string         `json:"entity"`
		Plants []domain.Plant `json:"plants"`
	}
	getInto(t, ts.URL+"/api/plants?entity=FRA", &plants)
	require.Len(t, plants.Plants, 2)
	assert.Equal(t, "Gravelines", plants.Plants[0].Name)

	// Fessenheim and Cernavoda report no 1990 reading, so only two sites
	// are visible on the first census.
	var visible struct {
		Plants []domain.Plant `json:"plants"`
	}
	getInto(t, ts.URL+"/api/plants/visible?year=1990&buffer_km=30", &visible)
	require.Len(t, visible.Plants, 2)
	assert.Equal(t, "Gravelines", visible.Plants[0].Name)
	assert.Equal(t, "Rivne", visible.Plants[1].Name)

	var nearest struct {
		Found bool `json:"found"`
		Hit   struct {
			Plant      domain.Plant `json:"plant"`
			DistanceKm float64      `json:"distance_km"`
		} `json:"hit"`
	}
	getInto(t, ts.URL+"/api/plants/nearest?lat=51.0&lon=2.2", &nearest)
	require.True(t, nearest.Found)
	assert.Equal(t, "Gravelines", nearest.Hit.Plant.Name)
	assert.Greater(t, nearest.Hit.DistanceKm, 0.0)

	var near struct {
		Hits []struct {
			Plant domain.Plant `json:"plant"`
		} `json:"hits"`
	}
	getInto(t, ts.URL+"/api/plants/near?lat=47.9&lon=7.5&radius_km=150", &near)
	require.Len(t, near.Hits, 1)
	assert.Equal(t, "Fessenheim", near.Hits[0].Plant.Name)

	// Requests the dataset cannot accept come back 400.
	status, body := postJSON(t, ts.URL+"/api/state", `{"buffer_km": 150}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, body["error"], "150 km")

	resp, err := http.Get(ts.URL + "/api/exposure?entity=-99&year=1990&buffer_km=30")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Move the controls and read back a full change-mode frame.
	status, snap := postJSON(t, ts.URL+"/api/state", `{"year": 2010, "entity": "rom", "mode": "change"}`)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 2010.0, snap["year"])
	assert.Equal(t, "ROU", snap["entity"])
	assert.Equal(t, "change", snap["mode"])

	var frame view.Frame
	getInto(t, ts.URL+"/api/frame", &frame)
	assert.Equal(t, 2010, frame.Snapshot.Year)
	assert.Equal(t, view.ModeChange, frame.Snapshot.Mode)
	assert.Equal(t, 700000.0, frame.ScaleMax)
	assert.Len(t, frame.Choropleth, 5)
	assert.Len(t, frame.Plants, 5)

	values := make(map[string]*float64, len(frame.Choropleth))
	for _, cv := range frame.Choropleth {
		values[cv.Entity] = cv.Value
	}
	require.NotNil(t, values["DEU"])
	assert.Equal(t, 700000.0, *values["DEU"])
	require.NotNil(t, values["ROU"])
	assert.Equal(t, 80000.0, *values["ROU"])
	// France shrank over the decade; the clamp keeps a zero value rather
	// than none.
	require.NotNil(t, values["FRA"])
	assert.Equal(t, 0.0, *values["FRA"])
	// Switzerland has a boundary but no exposure rows.
	assert.Nil(t, values["CHE"])

	detail := frame.Detail
	require.NotNil(t, detail)
	assert.Equal(t, "ROU", detail.Entity)
	assert.Equal(t, "Romania", detail.Name)
	require.NotNil(t, detail.Record)
	require.NotNil(t, detail.Record.PopNear)
	assert.Equal(t, 640000.0, *detail.Record.PopNear)
	require.NotNil(t, detail.Rank)
	assert.Equal(t, 4, detail.Rank.Rank)
	require.NotNil(t, detail.Delta)
	assert.Equal(t, 80000.0, *detail.Delta)
	assert.Len(t, detail.Series, 3)
	require.Len(t, detail.Plants, 1)
	assert.Equal(t, "Cernavoda", detail.Plants[0].Name)
}

// TestPlaybackOverHTTP starts the year loop through the API and watches the
// controls advance on the real clock.
func TestPlaybackOverHTTP(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	ts := startDashboard(ctx, t, 20*time.Millisecond)

	status, snap := postJSON(t, ts.URL+"/api/playback", `{"playing": true}`)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, snap["playing"])

	// Poll until the year moves off 1990; the ticker owns the pace.
	var state view.Snapshot
	for {
		getInto(t, ts.URL+"/api/state", &state)
		if state.Year != 1990 {
			break
		}
		if ctx.Err() != nil {
			t.Fatal("timed out waiting for playback to advance")
		}
		time.Sleep(5 * time.Millisecond)
	}
	assert.Contains(t, []int{2000, 2010}, state.Year)
	assert.True(t, state.Playing)

	status, snap = postJSON(t, ts.URL+"/api/playback", `{"playing": false}`)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, false, snap["playing"])

	getInto(t, ts.URL+"/api/state", &state)
	assert.False(t, state.Playing)
}
