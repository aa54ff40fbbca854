// Package status renders the human-readable engine readout.
package status

import (
	"fmt"
	"strings"

	"github.com/porcuspine/AutoJoggie/internal/core/clickengine"
)

const Inactive = "{Clicker is inactive}"

// Readout renders the two-line status shown under the start button.
func Readout(snap clickengine.Snapshot) string {
	if !snap.Active {
		return Inactive
	}

	if snap.Paused {
		if snap.ClicksRemaining == clickengine.Indefinite {
			return "(Clicking is paused)\n"
		}
		return fmt.Sprintf("%d clicks left.\n(Clicking is paused)", snap.ClicksRemaining)
	}

	next := NextClick(snap.Next)
	if snap.ClicksRemaining < 0 {
		return "Clicking infinitely!\nNext click: " + next
	}
	return fmt.Sprintf("%d clicks left.\nNext click: %s", snap.ClicksRemaining, next)
}

// NextClick renders the countdown to the next press. A pending release shows
// as "Now!" since it is part of a click already underway.
func NextClick(next *clickengine.ClickEvent) string {
	if next == nil || next.IsRelease() {
		return "Now!"
	}
	return fmt.Sprintf("%.2fs", next.RemainingMS()/1000)
}

// Line folds the readout onto one line for tooltips and terminals.
func Line(snap clickengine.Snapshot) string {
	return strings.Join(strings.Fields(strings.ReplaceAll(Readout(snap), "\n", " ")), " ")
}
