package view

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/uzairgheewala/dsc106-proj3/internal/domain"
	"github.com/uzairgheewala/dsc106-proj3/internal/observability"
)

// Snapshot is one immutable view of the dashboard controls.
type Snapshot struct {
	Year           int    `json:"year"`
	BufferKm       int    `json:"buffer_km"`
	Entity         string `json:"entity,omitempty"`
	OverlayVisible bool   `json:"overlay_visible"`
	Mode           Mode   `json:"mode"`
	Playing        bool   `json:"playing"`
}

// Change is a partial update to the controls. Nil fields keep their
// current value; the whole change applies or none of it does.
type Change struct {
	Year     *int    `json:"year,omitempty"`
	BufferKm *int    `json:"buffer_km,omitempty"`
	Entity   *string `json:"entity,omitempty"`
	Overlay  *bool   `json:"overlay_visible,omitempty"`
	Mode     *Mode   `json:"mode,omitempty"`
}

// State owns the mutable dashboard controls. All mutation goes through
// Apply, which validates the change against the loaded dataset, commits
// it, and pushes a freshly computed frame to the subscriber.
type State struct {
	facade  *Facade
	logger  *slog.Logger
	metrics *observability.Metrics

	mu      sync.Mutex
	snap    Snapshot
	onFrame func(Frame)
}

// NewState creates the initial controls: earliest census year, narrowest
// loaded buffer, nothing selected, overlay on, baseline mode, stopped.
func NewState(facade *Facade, logger *slog.Logger, metrics *observability.Metrics) *State {
	snap := Snapshot{
		Year:           domain.EarliestYear(),
		OverlayVisible: true,
		Mode:           ModeBaseline,
	}
	if buffers := facade.Buffers(); len(buffers) > 0 {
		snap.BufferKm = buffers[0]
	}
	return &State{facade: facade, logger: logger, metrics: metrics, snap: snap}
}

// OnFrame registers the frame subscriber. The handler runs under the
// state lock, so it must not call back into State or Playback.
func (s *State) OnFrame(fn func(Frame)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onFrame = fn
}

// Snapshot returns the current controls.
func (s *State) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap
}

// Frame computes the render frame for the current controls.
func (s *State) Frame() Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.compute()
}

// Apply validates every field of the change, then commits and notifies.
// An invalid field rejects the whole change and leaves the controls
// untouched.
func (s *State) Apply(ch Change) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.snap

	if ch.Year != nil {
		if !domain.ValidYear(*ch.Year) {
			return s.snap, fmt.Errorf("year %d not in %v", *ch.Year, domain.Years())
		}
		next.Year = *ch.Year
	}
	if ch.BufferKm != nil {
		if !s.validBuffer(*ch.BufferKm) {
			return s.snap, fmt.Errorf("buffer %d km not loaded (have %v)", *ch.BufferKm, s.facade.Buffers())
		}
		next.BufferKm = *ch.BufferKm
	}
	if ch.Entity != nil {
		entity := *ch.Entity
		if entity != "" {
			resolved, ok := s.facade.ResolveEntity(entity)
			if !ok {
				return s.snap, fmt.Errorf("entity %q is not a country code", entity)
			}
			entity = resolved
		}
		next.Entity = entity
	}
	if ch.Overlay != nil {
		next.OverlayVisible = *ch.Overlay
	}
	if ch.Mode != nil {
		switch *ch.Mode {
		case ModeBaseline, ModeChange:
		default:
			return s.snap, fmt.Errorf("unknown mode %d", uint8(*ch.Mode))
		}
		next.Mode = *ch.Mode
	}

	s.countTransitions(next)
	s.snap = next
	s.logger.Debug("state changed",
		"year", next.Year,
		"buffer_km", next.BufferKm,
		"entity", next.Entity,
		"mode", next.Mode.String(),
	)
	s.notify()
	return next, nil
}

// SetYear jumps to a census year.
func (s *State) SetYear(year int) error {
	_, err := s.Apply(Change{Year: &year})
	return err
}

// SetBuffer switches to a loaded buffer distance.
func (s *State) SetBuffer(bufferKm int) error {
	_, err := s.Apply(Change{BufferKm: &bufferKm})
	return err
}

// SelectEntity selects a country for the detail panel. The empty string
// clears the selection; a resolvable code with no data is allowed and
// yields an empty detail panel.
func (s *State) SelectEntity(entity string) error {
	_, err := s.Apply(Change{Entity: &entity})
	return err
}

// SetOverlay shows or hides the plant markers.
func (s *State) SetOverlay(visible bool) {
	_, _ = s.Apply(Change{Overlay: &visible})
}

// SetMode switches what the map colors encode.
func (s *State) SetMode(m Mode) error {
	_, err := s.Apply(Change{Mode: &m})
	return err
}

// AdvanceYear steps to the next census year, wrapping after the last.
// Playback calls this on every tick.
func (s *State) AdvanceYear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.Year = domain.NextYear(s.snap.Year)
	s.metrics.StateTransitions.WithLabelValues("year").Inc()
	s.notify()
}

// setPlaying flips the snapshot's playing flag. Playback owns the timer;
// this only keeps the snapshot honest about it.
func (s *State) setPlaying(playing bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snap.Playing == playing {
		return
	}
	s.snap.Playing = playing
	s.notify()
}

func (s *State) validBuffer(bufferKm int) bool {
	for _, b := range s.facade.Buffers() {
		if b == bufferKm {
			return true
		}
	}
	return false
}

// countTransitions records one metric increment per field that actually
// changes. Callers hold the lock.
func (s *State) countTransitions(next Snapshot) {
	if next.Year != s.snap.Year {
		s.metrics.StateTransitions.WithLabelValues("year").Inc()
	}
	if next.BufferKm != s.snap.BufferKm {
		s.metrics.StateTransitions.WithLabelValues("buffer").Inc()
	}
	if next.Entity != s.snap.Entity {
		s.metrics.StateTransitions.WithLabelValues("entity").Inc()
	}
	if next.OverlayVisible != s.snap.OverlayVisible {
		s.metrics.StateTransitions.WithLabelValues("overlay").Inc()
	}
	if next.Mode != s.snap.Mode {
		s.metrics.StateTransitions.WithLabelValues("mode").Inc()
	}
}

// notify recomputes the frame and hands it to the subscriber. Callers
// hold the lock.
func (s *State) notify() {
	if s.onFrame == nil {
		return
	}
	s.onFrame(s.compute())
}

func (s *State) compute() Frame {
	start := time.Now()
	frame := s.facade.Frame(s.snap)
	s.metrics.FrameRecomputeDuration.Observe(time.Since(start).Seconds())
	return frame
}
