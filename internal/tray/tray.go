// Package tray runs the clicker from a system tray icon.
package tray

import (
	"fmt"
	"sync"
	"time"

	"github.com/getlantern/systray"

	"github.com/porcuspine/AutoJoggie/internal/config"
	"github.com/porcuspine/AutoJoggie/internal/core/clickengine"
	"github.com/porcuspine/AutoJoggie/internal/status"
)

const refreshInterval = 50 * time.Millisecond

// Controller is the engine surface the tray menu drives.
type Controller interface {
	Start(waitBaseMS, waitJitterMS float64, clickCount int, mode clickengine.CycleMode)
	Stop()
	Pause(doPause bool)
	IsPaused() bool
	Snapshot() clickengine.Snapshot
}

// Tray manages the tray icon, its menu and the status tooltip.
type Tray struct {
	ctl    Controller
	params func() config.StartParams
	logger clickengine.Logger

	quitOnce sync.Once
	quitCh   chan struct{}

	start *systray.MenuItem
	pause *systray.MenuItem
	stop  *systray.MenuItem
	quit  *systray.MenuItem
}

// New creates a tray. params is called on every Start so edits to the
// settings file between runs are picked up by the caller.
func New(ctl Controller, params func() config.StartParams, logger clickengine.Logger) (*Tray, error) {
	if ctl == nil {
		return nil, fmt.Errorf("controller is nil")
	}
	if params == nil {
		return nil, fmt.Errorf("params func is nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is nil")
	}
	return &Tray{
		ctl:    ctl,
		params: params,
		logger: logger,
		quitCh: make(chan struct{}),
	}, nil
}

// Run starts the tray event loop and blocks until Quit.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

// Quit stops the engine and ends the tray loop.
func (t *Tray) Quit() {
	t.ctl.Stop()
	systray.Quit()
}

// Done is closed once the tray loop has exited.
func (t *Tray) Done() <-chan struct{} {
	return t.quitCh
}

func (t *Tray) onReady() {
	systray.SetTitle("AutoJoggie")
	systray.SetTooltip(status.Inactive)
	systray.SetIcon(Icon())

	t.start = systray.AddMenuItem("Start", "Start clicking")
	t.pause = systray.AddMenuItem("Pause", "Pause or resume clicking")
	t.stop = systray.AddMenuItem("Stop", "Stop clicking")
	systray.AddSeparator()
	t.quit = systray.AddMenuItem("Quit", "Stop clicking and exit")

	go t.menuLoop()
	go t.refreshLoop()
	t.logger.Info("Tray ready")
}

func (t *Tray) onExit() {
	t.quitOnce.Do(func() { close(t.quitCh) })
}

func (t *Tray) menuLoop() {
	for {
		select {
		case <-t.start.ClickedCh:
			p := t.params()
			t.ctl.Start(p.WaitBaseMS, p.WaitJitterMS, p.ClickCount, p.Mode)
		case <-t.pause.ClickedCh:
			t.ctl.Pause(!t.ctl.IsPaused())
		case <-t.stop.ClickedCh:
			t.ctl.Stop()
		case <-t.quit.ClickedCh:
			t.Quit()
			return
		case <-t.quitCh:
			return
		}
	}
}

func (t *Tray) refreshLoop() {
	ticker := time.NewTicker(refreshInterval)
	defer ticker.Stop()

	var last menuState
	first := true
	for {
		select {
		case <-t.quitCh:
			return
		case <-ticker.C:
		}

		state := stateFor(t.ctl.Snapshot())
		if !first && state == last {
			continue
		}
		first = false
		last = state
		t.apply(state)
	}
}

func (t *Tray) apply(state menuState) {
	systray.SetTooltip(state.tooltip)
	setEnabled(t.start, state.startEnabled)
	setEnabled(t.pause, state.pauseEnabled)
	setEnabled(t.stop, state.stopEnabled)
	t.pause.SetTitle(state.pauseTitle)
}

func setEnabled(item *systray.MenuItem, enabled bool) {
	if enabled {
		item.Enable()
	} else {
		item.Disable()
	}
}

type menuState struct {
	startEnabled bool
	pauseEnabled bool
	stopEnabled  bool
	pauseTitle   string
	tooltip      string
}

func stateFor(snap clickengine.Snapshot) menuState {
	state := menuState{
		startEnabled: !snap.Active,
		pauseEnabled: snap.Active,
		stopEnabled:  snap.Active,
		pauseTitle:   "Pause",
		tooltip:      status.Line(snap),
	}
	if snap.Paused {
		state.pauseTitle = "Resume"
	}
	return state
}
