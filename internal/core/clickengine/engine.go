package clickengine

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Engine schedules press/release events on a background loop and executes
// them through a Clicker. One Engine runs at most one schedule at a time and
// can be started again after it stops.
type Engine struct {
	clicker Clicker
	logger  Logger
	timings Timings
	now     func() time.Time
	seed    func() int64

	// ctlMu serializes Start, Stop and Pause.
	ctlMu sync.Mutex

	mu           sync.Mutex
	queue        []ClickEvent
	clicks       int
	waitBaseMS   float64
	waitJitterMS float64
	mode         CycleMode
	paused       bool
	active       bool
	runID        string
	rng          *rand.Rand
	stopCh       chan struct{}
	doneCh       chan struct{}
}

func New(clicker Clicker, logger Logger, opts Options) (*Engine, error) {
	if clicker == nil {
		return nil, fmt.Errorf("clicker is nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is nil")
	}

	timings := opts.Timings
	if timings == (Timings{}) {
		timings = DefaultTimings()
	}
	if timings.TickInterval <= 0 {
		return nil, fmt.Errorf("tick interval must be > 0")
	}
	if timings.StartDelay < 0 || timings.ResumeDelay < 0 {
		return nil, fmt.Errorf("start and resume delays must be >= 0")
	}
	if timings.HoldMin < 0 || timings.HoldMax < timings.HoldMin {
		return nil, fmt.Errorf("invalid hold range %v-%v", timings.HoldMin, timings.HoldMax)
	}
	if timings.ToggleGapMin < 0 || timings.ToggleGapMax < timings.ToggleGapMin {
		return nil, fmt.Errorf("invalid toggle gap range %v-%v", timings.ToggleGapMin, timings.ToggleGapMax)
	}

	now := opts.Now
	if now == nil {
		now = time.Now
	}
	seed := opts.Seed
	if seed == nil {
		seed = func() int64 { return time.Now().UnixNano() }
	}

	return &Engine{
		clicker: clicker,
		logger:  logger,
		timings: timings,
		now:     now,
		seed:    seed,
		clicks:  Indefinite,
	}, nil
}

// Start resets all scheduling state and launches the timing loop. It is a
// no-op while the engine is active. A clickCount of zero or below runs
// until Stop is called.
func (e *Engine) Start(waitBaseMS, waitJitterMS float64, clickCount int, mode CycleMode) {
	e.ctlMu.Lock()
	defer e.ctlMu.Unlock()

	e.mu.Lock()
	if e.active {
		e.mu.Unlock()
		return
	}
	prevDone := e.doneCh
	e.mu.Unlock()

	// A loop that ended on its own may still be unwinding.
	if prevDone != nil {
		<-prevDone
	}

	if clickCount <= 0 {
		clickCount = Indefinite
	}
	stopCh := make(chan struct{})
	doneCh := make(chan struct{})

	e.mu.Lock()
	e.queue = e.queue[:0]
	e.clicks = clickCount
	e.waitBaseMS = max(0, waitBaseMS)
	e.waitJitterMS = max(0, waitJitterMS)
	e.mode = mode
	e.paused = false
	e.rng = rand.New(rand.NewSource(e.seed()))
	e.runID = uuid.NewString()
	e.stopCh = stopCh
	e.doneCh = doneCh
	e.active = true
	e.queueCycleLocked(durationMS(e.timings.StartDelay))
	runID := e.runID
	e.mu.Unlock()

	e.logger.Info(
		"Clicker started",
		"run_id", runID,
		"mode", mode.String(),
		"clicks", clickCount,
		"wait_ms", waitBaseMS,
		"jitter_ms", waitJitterMS,
	)
	go e.run(stopCh, doneCh)
}

// Stop ends the current run and blocks until the timing loop has exited.
// Calling Stop on an inactive engine does nothing.
func (e *Engine) Stop() {
	e.ctlMu.Lock()
	defer e.ctlMu.Unlock()
	e.stop()
}

func (e *Engine) stop() {
	e.mu.Lock()
	wasActive := e.active
	if wasActive && len(e.queue) > 0 && e.queue[0].IsRelease() {
		e.clicker.ReleaseButton()
	}
	stopCh, doneCh := e.stopCh, e.doneCh
	runID := e.runID
	e.stopCh = nil
	e.active = false
	e.paused = false
	e.queue = e.queue[:0]
	e.mu.Unlock()

	if stopCh != nil {
		close(stopCh)
	}
	if doneCh != nil {
		<-doneCh
	}
	if wasActive {
		e.logger.Info("Clicker stopped", "run_id", runID)
	}
}

// Pause suspends or resumes clicking. Pausing between a press and its
// release fires the release immediately and counts the cycle as done.
// Resuming re-arms the next event with the resume delay.
func (e *Engine) Pause(doPause bool) {
	e.ctlMu.Lock()
	defer e.ctlMu.Unlock()

	e.mu.Lock()
	if !e.active || e.paused == doPause {
		e.mu.Unlock()
		return
	}
	e.paused = doPause

	exhausted := false
	purged := false
	if doPause {
		if len(e.queue) > 0 && e.queue[0].IsRelease() {
			e.clicker.ReleaseButton()
			e.queue = e.queue[:0]
			purged = true
			exhausted = !e.completeCycleLocked()
		}
	} else if len(e.queue) > 0 {
		e.queue[0] = NewClickEvent(durationMS(e.timings.ResumeDelay), e.queue[0].Direction())
	}
	runID := e.runID
	clicks := e.clicks
	e.mu.Unlock()

	if doPause {
		e.logger.Info("Clicker paused", "run_id", runID, "clicks_left", clicks, "purged_cycle", purged)
	} else {
		e.logger.Info("Clicker resumed", "run_id", runID, "clicks_left", clicks)
	}
	if exhausted {
		e.stop()
	}
}

func (e *Engine) IsActive() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.active
}

func (e *Engine) IsPaused() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.paused
}

// ClicksRemaining returns the cycles left in the current run, or Indefinite.
func (e *Engine) ClicksRemaining() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.clicks
}

// PeekNextEvent returns a copy of the next scheduled event.
func (e *Engine) PeekNextEvent() (ClickEvent, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.queue) == 0 {
		return ClickEvent{}, false
	}
	return e.queue[0], true
}

func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	snap := Snapshot{
		Active:          e.active,
		Paused:          e.paused,
		ClicksRemaining: e.clicks,
		RunID:           e.runID,
	}
	if len(e.queue) > 0 {
		next := e.queue[0]
		snap.Next = &next
	}
	return snap
}

func (e *Engine) run(stopCh <-chan struct{}, doneCh chan<- struct{}) {
	defer close(doneCh)

	ticker := time.NewTicker(e.timings.TickInterval)
	defer ticker.Stop()

	last := e.now()
	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
		}

		now := e.now()
		delta := durationMS(now.Sub(last))
		last = now
		if !e.tick(delta) {
			return
		}
	}
}

// tick advances the schedule by deltaMS and reports whether the loop should
// keep running.
func (e *Engine) tick(deltaMS float64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.active {
		return false
	}
	if e.paused {
		return true
	}
	if len(e.queue) == 0 {
		e.logger.Warn("Click queue drained while active", "run_id", e.runID)
		e.active = false
		return false
	}

	e.queue[0].IngestDelta(deltaMS)
	if !e.queue[0].IsReady() {
		return true
	}

	event := e.queue[0]
	e.queue = e.queue[1:]
	switch event.Direction() {
	case Press:
		e.clicker.PressButton()
	case Release:
		e.clicker.ReleaseButton()
	}

	if len(e.queue) > 0 {
		return true
	}
	if !e.completeCycleLocked() {
		e.logger.Info("Click budget exhausted", "run_id", e.runID)
		return false
	}
	return true
}

// completeCycleLocked charges one cycle against the budget and schedules the
// next one. It returns false once the budget reaches zero.
func (e *Engine) completeCycleLocked() bool {
	if e.clicks > 0 {
		e.clicks--
	}
	if e.clicks == 0 {
		e.active = false
		return false
	}

	e.logger.Debug("Click cycle completed", "run_id", e.runID, "clicks_left", e.clicks)
	e.queueCycleLocked(e.waitBaseMS + e.uniform(0, e.waitJitterMS))
	return true
}

func (e *Engine) queueCycleLocked(untilMS float64) {
	hold := e.uniform(durationMS(e.timings.HoldMin), durationMS(e.timings.HoldMax))
	e.queue = append(e.queue,
		NewClickEvent(untilMS, Press),
		NewClickEvent(hold, Release),
	)
	if e.mode != Toggle {
		return
	}

	gap := e.uniform(durationMS(e.timings.ToggleGapMin), durationMS(e.timings.ToggleGapMax))
	hold = e.uniform(durationMS(e.timings.HoldMin), durationMS(e.timings.HoldMax))
	e.queue = append(e.queue,
		NewClickEvent(gap, Press),
		NewClickEvent(hold, Release),
	)
}

func (e *Engine) uniform(lo, hi float64) float64 {
	if hi <= lo {
		return lo
	}
	return lo + e.rng.Float64()*(hi-lo)
}
