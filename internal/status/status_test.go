package status

import (
	"testing"

	"github.com/porcuspine/AutoJoggie/internal/core/clickengine"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
)

func event(ms float64, direction clickengine.Direction) *clickengine.ClickEvent {
	e := clickengine.NewClickEvent(ms, direction)
	return &e
}

func TestReadoutGolden(t *testing.T) {
	tests := []struct {
		name string
		snap clickengine.Snapshot
	}{
		{name: "inactive", snap: clickengine.Snapshot{}},
		{name: "paused_infinite", snap: clickengine.Snapshot{Active: true, Paused: true, ClicksRemaining: clickengine.Indefinite, Next: event(3000, clickengine.Press)}},
		{name: "paused_finite", snap: clickengine.Snapshot{Active: true, Paused: true, ClicksRemaining: 12, Next: event(3000, clickengine.Press)}},
		{name: "infinite_press_pending", snap: clickengine.Snapshot{Active: true, ClicksRemaining: clickengine.Indefinite, Next: event(2754.321, clickengine.Press)}},
		{name: "finite_press_pending", snap: clickengine.Snapshot{Active: true, ClicksRemaining: 3, Next: event(5000, clickengine.Press)}},
		{name: "finite_release_pending", snap: clickengine.Snapshot{Active: true, ClicksRemaining: 3, Next: event(80, clickengine.Release)}},
		{name: "finite_no_event", snap: clickengine.Snapshot{Active: true, ClicksRemaining: 1}},
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g.Assert(t, tt.name, []byte(Readout(tt.snap)))
		})
	}
}

func TestNextClick(t *testing.T) {
	assert.Equal(t, "Now!", NextClick(nil))
	assert.Equal(t, "Now!", NextClick(event(100, clickengine.Release)))
	assert.Equal(t, "0.00s", NextClick(event(0, clickengine.Press)))
	assert.Equal(t, "1.50s", NextClick(event(1500, clickengine.Press)))
}

func TestLine(t *testing.T) {
	assert.Equal(t, Inactive, Line(clickengine.Snapshot{}))
	assert.Equal(t, "(Clicking is paused)", Line(clickengine.Snapshot{Active: true, Paused: true, ClicksRemaining: clickengine.Indefinite}))
	assert.Equal(t, "4 clicks left. Next click: Now!", Line(clickengine.Snapshot{Active: true, ClicksRemaining: 4}))
}
