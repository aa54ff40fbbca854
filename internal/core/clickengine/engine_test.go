package clickengine

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingClicker struct {
	mu     sync.Mutex
	events []Direction
}

func (r *recordingClicker) PressButton() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, Press)
}

func (r *recordingClicker) ReleaseButton() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, Release)
}

func (r *recordingClicker) snapshot() []Direction {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Direction, len(r.events))
	copy(out, r.events)
	return out
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

func fixedSeed() int64 { return 42 }

// fastTimings keeps real-loop tests in the millisecond range.
func fastTimings() Timings {
	return Timings{
		TickInterval: time.Millisecond,
		StartDelay:   2 * time.Millisecond,
		ResumeDelay:  2 * time.Millisecond,
		HoldMin:      time.Millisecond,
		HoldMax:      2 * time.Millisecond,
		ToggleGapMin: time.Millisecond,
		ToggleGapMax: 2 * time.Millisecond,
	}
}

// frozenTimings uses the production delays with a loop that never ticks on
// its own, so tests can drive tick directly.
func frozenTimings() Timings {
	timings := DefaultTimings()
	timings.TickInterval = time.Hour
	return timings
}

func newTestEngine(t *testing.T, clicker Clicker, timings Timings) *Engine {
	t.Helper()
	engine, err := New(clicker, noopLogger{}, Options{Timings: timings, Seed: fixedSeed})
	require.NoError(t, err)
	t.Cleanup(engine.Stop)
	return engine
}

func alternating(pairs int) []Direction {
	out := make([]Direction, 0, pairs*2)
	for i := 0; i < pairs; i++ {
		out = append(out, Press, Release)
	}
	return out
}

func queued(e *Engine) []ClickEvent {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]ClickEvent, len(e.queue))
	copy(out, e.queue)
	return out
}

func TestNewRejectsInvalidArguments(t *testing.T) {
	_, err := New(nil, noopLogger{}, Options{})
	assert.Error(t, err)

	_, err = New(&recordingClicker{}, nil, Options{})
	assert.Error(t, err)

	bad := DefaultTimings()
	bad.HoldMax = bad.HoldMin - time.Millisecond
	_, err = New(&recordingClicker{}, noopLogger{}, Options{Timings: bad})
	assert.Error(t, err)

	bad = DefaultTimings()
	bad.TickInterval = 0
	_, err = New(&recordingClicker{}, noopLogger{}, Options{Timings: bad})
	assert.Error(t, err)
}

func TestNewEngineIsInactive(t *testing.T) {
	engine := newTestEngine(t, &recordingClicker{}, fastTimings())

	assert.False(t, engine.IsActive())
	assert.False(t, engine.IsPaused())
	assert.Equal(t, Indefinite, engine.ClicksRemaining())
	_, ok := engine.PeekNextEvent()
	assert.False(t, ok)
}

func TestStartRunsExactClickCount(t *testing.T) {
	clicker := &recordingClicker{}
	engine := newTestEngine(t, clicker, fastTimings())

	engine.Start(1, 1, 3, Single)
	require.True(t, engine.IsActive())

	require.Eventually(t, func() bool { return !engine.IsActive() }, 2*time.Second, time.Millisecond)
	assert.Equal(t, alternating(3), clicker.snapshot())
	assert.Equal(t, 0, engine.ClicksRemaining())
	_, ok := engine.PeekNextEvent()
	assert.False(t, ok)

	time.Sleep(20 * time.Millisecond)
	assert.Len(t, clicker.snapshot(), 6, "no clicks may fire after the budget is exhausted")
}

func TestToggleModeFiresTwoPairsPerCycle(t *testing.T) {
	clicker := &recordingClicker{}
	engine := newTestEngine(t, clicker, fastTimings())

	engine.Start(1, 0, 2, Toggle)
	require.Eventually(t, func() bool { return !engine.IsActive() }, 2*time.Second, time.Millisecond)
	assert.Equal(t, alternating(4), clicker.snapshot())
}

func TestIndefiniteRunOnlyEndsOnStop(t *testing.T) {
	clicker := &recordingClicker{}
	engine := newTestEngine(t, clicker, fastTimings())

	engine.Start(0, 0, -1, Single)
	require.Eventually(t, func() bool { return len(clicker.snapshot()) >= 20 }, 2*time.Second, time.Millisecond)
	assert.True(t, engine.IsActive())
	assert.Equal(t, Indefinite, engine.ClicksRemaining())

	engine.Stop()
	assert.False(t, engine.IsActive())

	fired := len(clicker.snapshot())
	time.Sleep(20 * time.Millisecond)
	assert.Len(t, clicker.snapshot(), fired, "no clicks may fire after Stop returns")
}

func TestZeroClickCountRunsIndefinitely(t *testing.T) {
	engine := newTestEngine(t, &recordingClicker{}, frozenTimings())

	engine.Start(1000, 0, 0, Single)
	assert.Equal(t, Indefinite, engine.ClicksRemaining())
}

func TestStopIsIdempotent(t *testing.T) {
	engine := newTestEngine(t, &recordingClicker{}, fastTimings())

	engine.Stop()
	engine.Stop()
	assert.False(t, engine.IsActive())

	engine.Start(1000, 0, 5, Single)
	engine.Stop()
	engine.Stop()
	assert.False(t, engine.IsActive())
	assert.False(t, engine.IsPaused())
	_, ok := engine.PeekNextEvent()
	assert.False(t, ok)
}

func TestStartWhileActiveIsNoop(t *testing.T) {
	engine := newTestEngine(t, &recordingClicker{}, frozenTimings())

	engine.Start(1000, 0, 5, Single)
	first := engine.Snapshot()

	engine.Start(10, 10, 1, Toggle)
	second := engine.Snapshot()

	assert.Equal(t, 5, second.ClicksRemaining)
	assert.Equal(t, first.RunID, second.RunID)
	assert.Len(t, queued(engine), 2)
}

func TestEngineRestartsAfterStop(t *testing.T) {
	clicker := &recordingClicker{}
	engine := newTestEngine(t, clicker, fastTimings())

	engine.Start(1, 0, 1, Single)
	require.Eventually(t, func() bool { return !engine.IsActive() }, 2*time.Second, time.Millisecond)
	firstRun := engine.Snapshot().RunID

	engine.Start(1, 0, 2, Toggle)
	assert.True(t, engine.IsActive())
	assert.NotEqual(t, firstRun, engine.Snapshot().RunID)
	require.Eventually(t, func() bool { return !engine.IsActive() }, 2*time.Second, time.Millisecond)
	assert.Equal(t, alternating(1+4), clicker.snapshot())
}

func TestStartQueuesStartupDelay(t *testing.T) {
	engine := newTestEngine(t, &recordingClicker{}, frozenTimings())

	engine.Start(2750, 200, 3, Single)
	next, ok := engine.PeekNextEvent()
	require.True(t, ok)
	assert.Equal(t, Press, next.Direction())
	assert.Equal(t, 5000.0, next.RemainingMS())
}

func TestTickFiresInOrderAndSchedulesNextCycle(t *testing.T) {
	clicker := &recordingClicker{}
	engine := newTestEngine(t, clicker, frozenTimings())

	engine.Start(100, 0, 2, Single)

	require.True(t, engine.tick(4999))
	assert.Empty(t, clicker.snapshot())

	require.True(t, engine.tick(1))
	assert.Equal(t, []Direction{Press}, clicker.snapshot())

	next, ok := engine.PeekNextEvent()
	require.True(t, ok)
	assert.Equal(t, Release, next.Direction())
	assert.GreaterOrEqual(t, next.RemainingMS(), 50.0)
	assert.LessOrEqual(t, next.RemainingMS(), 125.0)

	require.True(t, engine.tick(125))
	assert.Equal(t, alternating(1), clicker.snapshot())
	assert.Equal(t, 1, engine.ClicksRemaining())

	next, ok = engine.PeekNextEvent()
	require.True(t, ok)
	assert.Equal(t, Press, next.Direction())
	assert.Equal(t, 100.0, next.RemainingMS())

	require.True(t, engine.tick(100))
	assert.False(t, engine.tick(125), "loop must end after the last release")
	assert.False(t, engine.IsActive())
	assert.Equal(t, 0, engine.ClicksRemaining())
	assert.Equal(t, alternating(2), clicker.snapshot())
}

func TestJitterStaysWithinConfiguredRange(t *testing.T) {
	engine := newTestEngine(t, &recordingClicker{}, frozenTimings())

	engine.Start(1000, 250, -1, Single)
	require.True(t, engine.tick(5000))
	require.True(t, engine.tick(125))

	for i := 0; i < 50; i++ {
		next, ok := engine.PeekNextEvent()
		require.True(t, ok)
		assert.GreaterOrEqual(t, next.RemainingMS(), 1000.0)
		assert.LessOrEqual(t, next.RemainingMS(), 1250.0)

		require.True(t, engine.tick(1250))
		require.True(t, engine.tick(125))
	}
}

func TestToggleCycleGapAndHoldRanges(t *testing.T) {
	engine := newTestEngine(t, &recordingClicker{}, frozenTimings())

	engine.Start(500, 0, -1, Toggle)
	for cycle := 0; cycle < 25; cycle++ {
		events := queued(engine)
		require.Len(t, events, 4)
		assert.Equal(t, []Direction{Press, Release, Press, Release}, []Direction{
			events[0].Direction(), events[1].Direction(), events[2].Direction(), events[3].Direction(),
		})
		for _, hold := range []ClickEvent{events[1], events[3]} {
			assert.GreaterOrEqual(t, hold.RemainingMS(), 50.0)
			assert.LessOrEqual(t, hold.RemainingMS(), 125.0)
		}
		assert.GreaterOrEqual(t, events[2].RemainingMS(), 125.0)
		assert.LessOrEqual(t, events[2].RemainingMS(), 350.0)

		for range events {
			require.True(t, engine.tick(5000))
		}
	}
}

func TestSeededRunsAreReproducible(t *testing.T) {
	first := newTestEngine(t, &recordingClicker{}, frozenTimings())
	second := newTestEngine(t, &recordingClicker{}, frozenTimings())

	first.Start(1000, 400, -1, Toggle)
	second.Start(1000, 400, -1, Toggle)
	assert.Equal(t, queued(first), queued(second))
}

func TestPauseBetweenPressAndReleaseSynthesizesRelease(t *testing.T) {
	clicker := &recordingClicker{}
	engine := newTestEngine(t, clicker, frozenTimings())

	engine.Start(1000, 0, 3, Single)
	require.True(t, engine.tick(5000))
	require.Equal(t, []Direction{Press}, clicker.snapshot())

	engine.Pause(true)

	assert.Equal(t, alternating(1), clicker.snapshot())
	assert.True(t, engine.IsPaused())
	assert.True(t, engine.IsActive())
	assert.Equal(t, 2, engine.ClicksRemaining())

	next, ok := engine.PeekNextEvent()
	require.True(t, ok)
	assert.Equal(t, Press, next.Direction())
	assert.Equal(t, 1000.0, next.RemainingMS())
}

func TestPauseOnLastCycleEndsRun(t *testing.T) {
	clicker := &recordingClicker{}
	engine := newTestEngine(t, clicker, frozenTimings())

	engine.Start(1000, 0, 1, Single)
	require.True(t, engine.tick(5000))

	engine.Pause(true)

	assert.Equal(t, alternating(1), clicker.snapshot())
	assert.False(t, engine.IsActive())
	assert.False(t, engine.IsPaused())
	assert.Equal(t, 0, engine.ClicksRemaining())
}

func TestPauseBeforePressKeepsQueue(t *testing.T) {
	clicker := &recordingClicker{}
	engine := newTestEngine(t, clicker, frozenTimings())

	engine.Start(1000, 0, 3, Single)
	engine.Pause(true)

	assert.Len(t, queued(engine), 2)
	assert.Equal(t, 3, engine.ClicksRemaining())

	require.True(t, engine.tick(60000))
	assert.Empty(t, clicker.snapshot(), "paused engine must not click")
}

func TestPauseOnlyInspectsFrontEvent(t *testing.T) {
	clicker := &recordingClicker{}
	engine := newTestEngine(t, clicker, frozenTimings())

	engine.Start(1000, 0, 3, Toggle)
	require.True(t, engine.tick(5000))
	require.True(t, engine.tick(125))
	require.Equal(t, alternating(1), clicker.snapshot())

	engine.Pause(true)

	assert.Equal(t, alternating(1), clicker.snapshot())
	assert.Len(t, queued(engine), 2)
	assert.Equal(t, 3, engine.ClicksRemaining())
}

func TestUnpauseRearmsFrontCountdown(t *testing.T) {
	engine := newTestEngine(t, &recordingClicker{}, frozenTimings())

	engine.Start(1000, 0, 3, Single)
	require.True(t, engine.tick(4900))
	next, _ := engine.PeekNextEvent()
	require.InDelta(t, 100.0, next.RemainingMS(), 1e-9)

	engine.Pause(true)
	engine.Pause(false)

	assert.False(t, engine.IsPaused())
	next, ok := engine.PeekNextEvent()
	require.True(t, ok)
	assert.Equal(t, Press, next.Direction())
	assert.Equal(t, 3000.0, next.RemainingMS())
}

func TestUnpauseWithoutPauseKeepsCountdown(t *testing.T) {
	engine := newTestEngine(t, &recordingClicker{}, frozenTimings())

	engine.Start(1000, 0, 3, Single)
	require.True(t, engine.tick(4000))

	engine.Pause(false)

	next, _ := engine.PeekNextEvent()
	assert.InDelta(t, 1000.0, next.RemainingMS(), 1e-9)
}

func TestPauseOnInactiveEngineIsNoop(t *testing.T) {
	clicker := &recordingClicker{}
	engine := newTestEngine(t, clicker, frozenTimings())

	engine.Pause(true)
	assert.False(t, engine.IsPaused())
	assert.Empty(t, clicker.snapshot())
}

func TestStopBetweenPressAndReleaseReleasesButton(t *testing.T) {
	clicker := &recordingClicker{}
	engine := newTestEngine(t, clicker, frozenTimings())

	engine.Start(1000, 0, 3, Single)
	require.True(t, engine.tick(5000))

	engine.Stop()
	assert.Equal(t, alternating(1), clicker.snapshot())
	assert.False(t, engine.tick(5000))
}

func TestSnapshotIsConsistent(t *testing.T) {
	engine := newTestEngine(t, &recordingClicker{}, frozenTimings())

	snap := engine.Snapshot()
	assert.False(t, snap.Active)
	assert.Nil(t, snap.Next)

	engine.Start(1000, 0, 4, Single)
	engine.Pause(true)

	snap = engine.Snapshot()
	assert.True(t, snap.Active)
	assert.True(t, snap.Paused)
	assert.Equal(t, 4, snap.ClicksRemaining)
	require.NotNil(t, snap.Next)
	assert.Equal(t, Press, snap.Next.Direction())
	assert.NotEmpty(t, snap.RunID)

	snap.Next.IngestDelta(5000)
	next, _ := engine.PeekNextEvent()
	assert.Equal(t, 5000.0, next.RemainingMS(), "snapshot must not alias engine state")
}

func TestConcurrentControlKeepsPressReleasePairs(t *testing.T) {
	clicker := &recordingClicker{}
	engine := newTestEngine(t, clicker, Timings{
		TickInterval: time.Millisecond,
		StartDelay:   time.Millisecond,
		ResumeDelay:  time.Millisecond,
		HoldMin:      time.Millisecond,
		HoldMax:      3 * time.Millisecond,
		ToggleGapMin: time.Millisecond,
		ToggleGapMax: 2 * time.Millisecond,
	})

	deadline := time.Now().Add(300 * time.Millisecond)
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		mode := Single
		for time.Now().Before(deadline) {
			engine.Start(0, 1, 5, mode)
			time.Sleep(2 * time.Millisecond)
			if mode == Single {
				mode = Toggle
			} else {
				mode = Single
			}
			engine.Stop()
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		for time.Now().Before(deadline) {
			engine.Pause(!engine.IsPaused())
			time.Sleep(time.Millisecond)
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		for time.Now().Before(deadline) {
			snap := engine.Snapshot()
			if snap.ClicksRemaining != Indefinite {
				assert.GreaterOrEqual(t, snap.ClicksRemaining, 0)
				assert.LessOrEqual(t, snap.ClicksRemaining, 5)
			}
			_, _ = engine.PeekNextEvent()
			_ = engine.IsActive()
		}
	}()

	wg.Wait()
	engine.Stop()

	events := clicker.snapshot()
	require.Zero(t, len(events)%2, "every press must be matched by a release")
	assert.Equal(t, alternating(len(events)/2), events)
}
