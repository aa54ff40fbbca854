package clickengine

import "time"

type Direction uint8

const (
	Press Direction = iota
	Release
)

func (d Direction) String() string {
	switch d {
	case Press:
		return "press"
	case Release:
		return "release"
	default:
		return "unknown"
	}
}

type CycleMode uint8

const (
	// Single performs one press/release pair per cycle.
	Single CycleMode = iota
	// Toggle performs two press/release pairs in quick succession per cycle.
	Toggle
)

func (m CycleMode) String() string {
	switch m {
	case Single:
		return "single"
	case Toggle:
		return "toggle"
	default:
		return "unknown"
	}
}

// Indefinite is the clicks-remaining value of an engine that never runs out of cycles.
const Indefinite = -1

// Clicker is the click-execution capability the engine drives. Implementations
// must return quickly; the engine calls them while holding its state lock.
type Clicker interface {
	PressButton()
	ReleaseButton()
}

type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Timings holds the fixed delays of the scheduling loop.
type Timings struct {
	TickInterval time.Duration
	StartDelay   time.Duration
	ResumeDelay  time.Duration
	HoldMin      time.Duration
	HoldMax      time.Duration
	ToggleGapMin time.Duration
	ToggleGapMax time.Duration
}

func DefaultTimings() Timings {
	return Timings{
		TickInterval: 33 * time.Millisecond,
		StartDelay:   5000 * time.Millisecond,
		ResumeDelay:  3000 * time.Millisecond,
		HoldMin:      50 * time.Millisecond,
		HoldMax:      125 * time.Millisecond,
		ToggleGapMin: 125 * time.Millisecond,
		ToggleGapMax: 350 * time.Millisecond,
	}
}

type Options struct {
	Timings Timings
	// Now defaults to time.Now.
	Now func() time.Time
	// Seed is called on every Start to seed the random source. Defaults to
	// the current time in nanoseconds.
	Seed func() int64
}

// Snapshot is a consistent view of the engine taken under a single lock.
type Snapshot struct {
	Active          bool
	Paused          bool
	ClicksRemaining int
	Next            *ClickEvent
	RunID           string
}

func durationMS(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
