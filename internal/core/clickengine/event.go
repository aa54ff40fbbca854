package clickengine

import "time"

// ClickEvent is a countdown to a single mouse button transition.
type ClickEvent struct {
	remainingMS float64
	direction   Direction
}

func NewClickEvent(remainingMS float64, direction Direction) ClickEvent {
	if remainingMS < 0 {
		remainingMS = 0
	}
	return ClickEvent{remainingMS: remainingMS, direction: direction}
}

// IngestDelta counts the event down by deltaMS, saturating at zero.
func (e *ClickEvent) IngestDelta(deltaMS float64) {
	if deltaMS <= 0 {
		return
	}
	e.remainingMS -= deltaMS
	if e.remainingMS < 0 {
		e.remainingMS = 0
	}
}

func (e ClickEvent) IsReady() bool {
	return e.remainingMS <= 0
}

func (e ClickEvent) RemainingMS() float64 {
	return e.remainingMS
}

func (e ClickEvent) Remaining() time.Duration {
	return time.Duration(e.remainingMS * float64(time.Millisecond))
}

func (e ClickEvent) Direction() Direction {
	return e.direction
}

func (e ClickEvent) IsPress() bool {
	return e.direction == Press
}

func (e ClickEvent) IsRelease() bool {
	return e.direction == Release
}
