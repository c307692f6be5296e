package view

import (
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/uzairgheewala/dsc106-proj3/internal/observability"
)

// Playback advances the year control on a fixed interval, wrapping back
// to the earliest census year after the last. At most one timer runs:
// Start while running is a no-op, and once Stop returns no further tick
// lands.
type Playback struct {
	state    *State
	clock    clockwork.Clock
	interval time.Duration
	logger   *slog.Logger
	metrics  *observability.Metrics

	mu   sync.Mutex
	stop chan struct{}
	done chan struct{}
}

// NewPlayback creates a stopped playback controller.
func NewPlayback(state *State, clock clockwork.Clock, interval time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Playback {
	return &Playback{
		state:    state,
		clock:    clock,
		interval: interval,
		logger:   logger,
		metrics:  metrics,
	}
}

// Start begins advancing the year every interval.
func (p *Playback) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stop != nil {
		return
	}
	p.stop = make(chan struct{})
	p.done = make(chan struct{})

	p.state.setPlaying(true)
	p.metrics.PlaybackRunning.Set(1)
	p.logger.Info("playback started", "interval", p.interval)

	go p.run(p.stop, p.done)
}

// Stop halts the timer and waits for the loop to exit.
func (p *Playback) Stop() {
	p.mu.Lock()
	if p.stop == nil {
		p.mu.Unlock()
		return
	}
	stop, done := p.stop, p.done
	p.stop, p.done = nil, nil
	p.mu.Unlock()

	close(stop)
	<-done

	p.state.setPlaying(false)
	p.metrics.PlaybackRunning.Set(0)
	p.logger.Info("playback stopped")
}

// Running reports whether the timer is active.
func (p *Playback) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stop != nil
}

func (p *Playback) run(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := p.clock.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.Chan():
			// A stop racing the tick wins.
			select {
			case <-stop:
				return
			default:
			}
			p.state.AdvanceYear()
			p.metrics.PlaybackTicks.Inc()
		}
	}
}
