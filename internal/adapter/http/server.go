package http

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/uzairgheewala/dsc106-proj3/internal/domain"
	"github.com/uzairgheewala/dsc106-proj3/internal/observability"
	"github.com/uzairgheewala/dsc106-proj3/internal/view"
)

// ReadinessChecker reports whether the service is ready to serve traffic.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// Server exposes the dashboard query API plus health, readiness, and
// metrics endpoints. Lookups that find nothing answer 200 with
// found=false; requests the dataset cannot accept answer 400 and leave
// the controls untouched.
type Server struct {
	httpServer *http.Server
	facade     *view.Facade
	state      *view.State
	playback   *view.Playback
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewServer wires all routes onto a configured HTTP server.
func NewServer(addr string, facade *view.Facade, state *view.State, playback *view.Playback, logger *slog.Logger, metrics *observability.Metrics) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		facade:   facade,
		state:    state,
		playback: playback,
		logger:   logger,
		metrics:  metrics,
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", handleReady(facade))
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /api/meta", s.handleMeta)
	mux.HandleFunc("GET /api/state", s.handleStateGet)
	mux.HandleFunc("POST /api/state", s.handleStateChange)
	mux.HandleFunc("POST /api/playback", s.handlePlayback)
	mux.HandleFunc("GET /api/frame", s.handleFrame)
	mux.HandleFunc("GET /api/exposure", s.handleExposure)
	mux.HandleFunc("GET /api/delta", s.handleDelta)
	mux.HandleFunc("GET /api/rank", s.handleRank)
	mux.HandleFunc("GET /api/series", s.handleSeries)
	mux.HandleFunc("GET /api/max-delta", s.handleMaxDelta)
	mux.HandleFunc("GET /api/plants", s.handlePlants)
	mux.HandleFunc("GET /api/plants/visible", s.handleVisiblePlants)
	mux.HandleFunc("GET /api/plants/nearest", s.handleNearestPlant)
	mux.HandleFunc("GET /api/plants/near", s.handlePlantsNear)
	mux.HandleFunc("GET /api/resolve", s.handleResolve)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func handleReady(checker ReadinessChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := checker.CheckReadiness(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func (s *Server) handleMeta(w http.ResponseWriter, _ *http.Request) {
	s.metrics.QueryRequests.WithLabelValues("meta").Inc()
	writeJSON(w, http.StatusOK, map[string]any{
		"years":      s.facade.Years(),
		"buffers_km": s.facade.Buffers(),
		"modes":      []string{view.ModeBaseline.String(), view.ModeChange.String()},
	})
}

func (s *Server) handleStateGet(w http.ResponseWriter, _ *http.Request) {
	s.metrics.QueryRequests.WithLabelValues("state").Inc()
	writeJSON(w, http.StatusOK, s.state.Snapshot())
}

func (s *Server) handleStateChange(w http.ResponseWriter, r *http.Request) {
	s.metrics.QueryRequests.WithLabelValues("state_change").Inc()

	var ch view.Change
	if err := json.NewDecoder(r.Body).Decode(&ch); err != nil {
		writeBadRequest(w, "malformed state change: "+err.Error())
		return
	}

	snap, err := s.state.Apply(ch)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handlePlayback(w http.ResponseWriter, r *http.Request) {
	s.metrics.QueryRequests.WithLabelValues("playback").Inc()

	var body struct {
		Playing *bool `json:"playing"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeBadRequest(w, "malformed playback request: "+err.Error())
		return
	}
	if body.Playing == nil {
		writeBadRequest(w, `"playing" is required`)
		return
	}

	if *body.Playing {
		s.playback.Start()
	} else {
		s.playback.Stop()
	}
	writeJSON(w, http.StatusOK, s.state.Snapshot())
}

func (s *Server) handleFrame(w http.ResponseWriter, _ *http.Request) {
	s.metrics.QueryRequests.WithLabelValues("frame").Inc()
	writeJSON(w, http.StatusOK, s.state.Frame())
}

func (s *Server) handleExposure(w http.ResponseWriter, r *http.Request) {
	s.metrics.QueryRequests.WithLabelValues("exposure").Inc()

	entity, year, bufferKm, err := s.keyParams(r)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	rec, ok := s.facade.ExposureAt(entity, year, bufferKm)
	if !ok {
		writeJSON(w, http.StatusOK, map[string]any{"found": false})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"found": true, "record": rec})
}

func (s *Server) handleDelta(w http.ResponseWriter, r *http.Request) {
	s.metrics.QueryRequests.WithLabelValues("delta").Inc()

	entity, year, bufferKm, err := s.keyParams(r)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	d, ok := s.facade.DeltaAt(entity, year, bufferKm)
	if !ok {
		writeJSON(w, http.StatusOK, map[string]any{"found": false})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"found": true, "delta": d})
}

func (s *Server) handleRank(w http.ResponseWriter, r *http.Request) {
	s.metrics.QueryRequests.WithLabelValues("rank").Inc()

	entity, year, bufferKm, err := s.keyParams(r)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	ri, ok := s.facade.RankAt(entity, year, bufferKm)
	if !ok {
		writeJSON(w, http.StatusOK, map[string]any{"found": false})
		return
	}
	pct, _ := s.facade.PercentileAt(entity, year, bufferKm)
	writeJSON(w, http.StatusOK, map[string]any{
		"found":      true,
		"rank":       ri.Rank,
		"total":      ri.Total,
		"percentile": pct,
	})
}

func (s *Server) handleSeries(w http.ResponseWriter, r *http.Request) {
	s.metrics.QueryRequests.WithLabelValues("series").Inc()

	entity, err := s.entityParam(r)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"entity": entity,
		"name":   s.facade.EntityName(entity),
		"series": s.facade.SeriesFor(entity),
	})
}

func (s *Server) handleMaxDelta(w http.ResponseWriter, r *http.Request) {
	s.metrics.QueryRequests.WithLabelValues("max_delta").Inc()

	bufferKm, err := queryInt(r, "buffer_km")
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"buffer_km": bufferKm,
		"max_delta": s.facade.MaxPositiveDelta(bufferKm),
	})
}

func (s *Server) handlePlants(w http.ResponseWriter, r *http.Request) {
	s.metrics.QueryRequests.WithLabelValues("plants").Inc()

	entity, err := s.entityParam(r)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"entity": entity,
		"plants": s.facade.PlantsFor(entity),
	})
}

func (s *Server) handleVisiblePlants(w http.ResponseWriter, r *http.Request) {
	s.metrics.QueryRequests.WithLabelValues("plants_visible").Inc()

	year, err := queryInt(r, "year")
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	bufferKm, err := queryInt(r, "buffer_km")
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"year":      year,
		"buffer_km": bufferKm,
		"plants":    s.facade.PlantsVisibleAt(year, bufferKm),
	})
}

func (s *Server) handleNearestPlant(w http.ResponseWriter, r *http.Request) {
	s.metrics.QueryRequests.WithLabelValues("plants_nearest").Inc()

	lat, err := queryFloat(r, "lat")
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	lon, err := queryFloat(r, "lon")
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	hit, ok := s.facade.NearestPlant(lat, lon)
	if !ok {
		writeJSON(w, http.StatusOK, map[string]any{"found": false})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"found": true, "hit": plantHit{
		Plant:      hit.Plant,
		DistanceKm: hit.DistanceKm,
	}})
}

func (s *Server) handlePlantsNear(w http.ResponseWriter, r *http.Request) {
	s.metrics.QueryRequests.WithLabelValues("plants_near").Inc()

	lat, err := queryFloat(r, "lat")
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	lon, err := queryFloat(r, "lon")
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	radiusKm, err := queryFloat(r, "radius_km")
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	within := s.facade.PlantsWithin(lat, lon, radiusKm)
	hits := make([]plantHit, len(within))
	for i, pd := range within {
		hits[i] = plantHit{Plant: pd.Plant, DistanceKm: pd.DistanceKm}
	}
	writeJSON(w, http.StatusOK, map[string]any{"hits": hits})
}

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	s.metrics.QueryRequests.WithLabelValues("resolve").Inc()

	entity, ok := s.facade.ResolveEntity(r.URL.Query().Get("code"))
	if !ok {
		writeJSON(w, http.StatusOK, map[string]any{"found": false})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"found":  true,
		"entity": entity,
		"name":   s.facade.EntityName(entity),
	})
}

// plantHit is one plant with its distance from the queried point.
type plantHit struct {
	Plant      domain.Plant `json:"plant"`
	DistanceKm float64      `json:"distance_km"`
}

// keyParams reads the (entity, year, buffer_km) triple every point lookup
// takes.
func (s *Server) keyParams(r *http.Request) (string, int, int, error) {
	entity, err := s.entityParam(r)
	if err != nil {
		return "", 0, 0, err
	}
	year, err := queryInt(r, "year")
	if err != nil {
		return "", 0, 0, err
	}
	bufferKm, err := queryInt(r, "buffer_km")
	if err != nil {
		return "", 0, 0, err
	}
	return entity, year, bufferKm, nil
}

func (s *Server) entityParam(r *http.Request) (string, error) {
	raw := r.URL.Query().Get("entity")
	if raw == "" {
		return "", fmt.Errorf("missing parameter %q", "entity")
	}
	entity, ok := s.facade.ResolveEntity(raw)
	if !ok {
		return "", fmt.Errorf("invalid entity %q", raw)
	}
	return entity, nil
}

func queryInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, fmt.Errorf("missing parameter %q", name)
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("parameter %q must be an integer", name)
	}
	return v, nil
}

func queryFloat(r *http.Request, name string) (float64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, fmt.Errorf("missing parameter %q", name)
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("parameter %q must be a number", name)
	}
	return v, nil
}

func writeBadRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort JSON response
}
