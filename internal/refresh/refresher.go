package refresh

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/minjaelee/vigil/pkg/logger"
)

// Stats exposes refresher counters for the status endpoint
type Stats struct {
	Runs       int64     `json:"runs"`
	Suppressed int64     `json:"suppressed"`
	Failures   int64     `json:"failures"`
	LastRun    time.Time `json:"last_run"`
	LastError  string    `json:"last_error,omitempty"`
	Session    Session   `json:"session"`
}

// Refresher drives the refresh pipeline on a session-aware cadence.
// At most one refresh is in flight at any time: timer ticks and push
// triggers that land mid-refresh are suppressed, not queued.
type Refresher struct {
	pipeline *Pipeline
	logger   *logger.Logger

	inFlight atomic.Bool
	trigger  chan struct{}
	cancel   context.CancelFunc
	wg       sync.WaitGroup

	runs       atomic.Int64
	suppressed atomic.Int64
	failures   atomic.Int64

	mu        sync.RWMutex
	lastRun   time.Time
	lastError string
}

// NewRefresher creates a refresher over the pipeline
func NewRefresher(pipeline *Pipeline, log *logger.Logger) *Refresher {
	return &Refresher{
		pipeline: pipeline,
		logger:   log,
		trigger:  make(chan struct{}, 1),
	}
}

// Start launches the refresh loop. It runs one refresh immediately,
// then re-arms a timer whose duration follows the current market
// session. Stop (or ctx cancellation) ends the loop.
func (r *Refresher) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel

	r.wg.Add(1)
	go r.loop(ctx)
}

// Stop cancels the loop and waits for any in-flight refresh
func (r *Refresher) Stop() {
	if r.cancel != nil {
		r.cancel()
	}
	r.wg.Wait()
}

// Trigger requests an immediate refresh, bypassing the timer. The
// single-flight guard still applies; triggers during a refresh are
// dropped.
func (r *Refresher) Trigger() {
	select {
	case r.trigger <- struct{}{}:
	default:
	}
}

// Stats returns a copy of the current counters
func (r *Refresher) Stats() Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return Stats{
		Runs:       r.runs.Load(),
		Suppressed: r.suppressed.Load(),
		Failures:   r.failures.Load(),
		LastRun:    r.lastRun,
		LastError:  r.lastError,
		Session:    SessionAt(time.Now()),
	}
}

func (r *Refresher) loop(ctx context.Context) {
	defer r.wg.Done()

	r.refresh(ctx)

	timer := time.NewTimer(SessionAt(time.Now()).Interval())
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			r.refresh(ctx)
		case <-r.trigger:
			r.refresh(ctx)
		}

		interval := SessionAt(time.Now()).Interval()
		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(interval)
	}
}

// refresh runs one guarded cycle. Panics inside the pipeline are
// contained here so a bad payload cannot kill the loop.
func (r *Refresher) refresh(ctx context.Context) {
	if !r.inFlight.CompareAndSwap(false, true) {
		r.suppressed.Add(1)
		r.logger.Debug("Refresh suppressed, one already in flight")
		return
	}
	defer r.inFlight.Store(false)

	defer func() {
		if rec := recover(); rec != nil {
			r.failures.Add(1)
			r.logger.WithField("panic", rec).Error("Refresh panicked")
		}
	}()

	err := r.pipeline.Run(ctx)

	r.runs.Add(1)
	r.mu.Lock()
	r.lastRun = time.Now()
	if err != nil {
		r.lastError = err.Error()
	} else {
		r.lastError = ""
	}
	r.mu.Unlock()

	if err != nil {
		r.failures.Add(1)
		r.logger.WithError(err).Warn("Refresh cycle failed")
	}
}
