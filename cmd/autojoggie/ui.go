package main

import (
	"errors"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/porcuspine/AutoJoggie/internal/config"
	"github.com/porcuspine/AutoJoggie/internal/hotkey"
	"github.com/porcuspine/AutoJoggie/internal/status"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
)

const (
	uiRefreshInterval = 50 * time.Millisecond
	maxUILogLines     = 50
)

// filteredEntry is an entry that refuses edits the validator rejects,
// keeping the last accepted text.
func filteredEntry(initial string, valid func(string) bool) *widget.Entry {
	entry := widget.NewEntry()
	entry.SetText(initial)
	last := initial
	entry.OnChanged = func(text string) {
		if !valid(text) {
			entry.SetText(last)
			return
		}
		last = text
	}
	return entry
}

type bindControls struct {
	label  *widget.Label
	button *widget.Button
}

func runUI(opts *rootOptions) error {
	settings, err := opts.loadSettings()
	if err != nil {
		return err
	}

	fApp := app.New()
	fApp.Settings().SetTheme(newJoggieTheme())

	window := fApp.NewWindow("AutoJoggie " + version)
	window.SetFixedSize(true)
	window.CenterOnScreen()

	form := settings.Form()
	clicksEntry := filteredEntry(form.Clicks, config.IsValidInt)
	waitEntry := filteredEntry(form.Wait, config.IsValidDecimal)
	jitterEntry := filteredEntry(form.Jitter, config.IsValidDecimal)
	doubleCheck := widget.NewCheck("Click twice?", nil)
	doubleCheck.SetChecked(form.DoubleClick)

	startBtn := widget.NewButton("Start", nil)
	startBtn.Importance = widget.HighImportance
	startBtn.Disable()

	readout := widget.NewLabel(status.Inactive)
	readout.Alignment = fyne.TextAlignCenter

	errorText := canvas.NewText("", theme.Color(theme.ColorNameError))
	errorText.Alignment = fyne.TextAlignCenter
	initProgress := widget.NewProgressBarInfinite()

	binds := map[hotkey.Action]*bindControls{}
	for _, action := range []hotkey.Action{hotkey.Pause, hotkey.Stop} {
		button := widget.NewButton(hotkey.HintPassive, nil)
		button.Disable()
		label := widget.NewLabel(strings.ToUpper(action.String()) + ": [unbound]")
		label.Alignment = fyne.TextAlignCenter
		binds[action] = &bindControls{label: label, button: button}
	}

	logGrid := widget.NewTextGrid()
	logScroll := container.NewVScroll(logGrid)
	logScroll.SetMinSize(fyne.NewSize(0, 120))

	var logMu sync.Mutex
	logLines := make([]string, 0, maxUILogLines)
	debugLogs := debugLogsEnabled()
	appendLogLine := func(line string) {
		if !debugLogs {
			return
		}
		line = strings.TrimSpace(line)
		if line == "" {
			return
		}

		logMu.Lock()
		logLines = append(logLines, line)
		if len(logLines) > maxUILogLines {
			logLines = logLines[len(logLines)-maxUILogLines:]
		}
		logText := strings.Join(logLines, "\n")
		logMu.Unlock()

		fyne.Do(func() {
			logGrid.SetText(logText)
			logScroll.ScrollToBottom()
		})
	}

	var (
		stateMu sync.Mutex
		current *session
	)
	getSession := func() *session {
		stateMu.Lock()
		defer stateMu.Unlock()
		return current
	}

	startBtn.OnTapped = func() {
		s := getSession()
		if s == nil || s.engine.IsActive() {
			return
		}
		err := s.StartWithForm(config.Form{
			Clicks:      clicksEntry.Text,
			Wait:        waitEntry.Text,
			Jitter:      jitterEntry.Text,
			DoubleClick: doubleCheck.Checked,
		})
		if errors.Is(err, config.ErrInvalidConfiguration) {
			appendLogLine("WARNING " + err.Error())
			dialog.ShowInformation("Input Error", config.InputErrorMessage, window)
			return
		}
		if err != nil {
			dialog.ShowError(err, window)
		}
	}

	for action, controls := range binds {
		action := action
		controls.button.OnTapped = func() {
			s := getSession()
			if s == nil {
				return
			}
			go func() {
				if err := s.Rebind(action); err != nil {
					appendLogLine("ERROR " + err.Error())
				}
			}()
		}
	}

	setControlsEnabled := func(enabled bool) {
		for _, w := range []fyne.Disableable{clicksEntry, waitEntry, jitterEntry, doubleCheck, startBtn} {
			if enabled {
				w.Enable()
			} else {
				w.Disable()
			}
		}
		for _, controls := range binds {
			if enabled {
				controls.button.Enable()
			} else {
				controls.button.Disable()
			}
		}
	}

	refresh := func(s *session) {
		snap := s.engine.Snapshot()
		readout.SetText(status.Readout(snap))
		setControlsEnabled(!snap.Active)
		for action, controls := range binds {
			controls.label.SetText(s.router.Label(action))
			controls.button.SetText(s.router.Hint(action))
		}
	}

	stopRefresh := make(chan struct{})
	go func() {
		ticker := time.NewTicker(uiRefreshInterval)
		defer ticker.Stop()
		for {
			select {
			case <-stopRefresh:
				return
			case <-ticker.C:
				if s := getSession(); s != nil {
					fyne.Do(func() { refresh(s) })
				}
			}
		}
	}()

	go func() {
		appendLogLine("INFO Initializing input backend...")
		s, _, err := openSession(opts, os.Stderr, appendLogLine)
		fyne.Do(func() {
			initProgress.Hide()
			if err != nil {
				errorText.Text = describeError(err)
				errorText.Refresh()
				appendLogLine("ERROR " + errorText.Text)
				return
			}
			stateMu.Lock()
			current = s
			stateMu.Unlock()
			refresh(s)
			appendLogLine("INFO Initialization complete")
		})
	}()

	var closeOnce sync.Once
	cleanup := func() {
		closeOnce.Do(func() {
			close(stopRefresh)
			if s := getSession(); s != nil {
				s.Close()
			}
		})
	}
	requestQuit := func() {
		cleanup()
		fApp.Quit()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		if _, ok := <-sigCh; ok {
			fyne.Do(requestQuit)
		}
	}()
	window.SetCloseIntercept(requestQuit)

	bindColumn := func(action hotkey.Action) fyne.CanvasObject {
		return container.NewVBox(binds[action].label, binds[action].button)
	}
	field := func(label string, entry *widget.Entry) fyne.CanvasObject {
		title := widget.NewLabel(label)
		title.Alignment = fyne.TextAlignCenter
		return container.NewVBox(title, entry)
	}
	hint := widget.NewLabel("(e.g. alching, toggling prayer...)")
	hint.Alignment = fyne.TextAlignCenter

	mainContent := container.NewVBox(
		container.NewGridWithColumns(2, bindColumn(hotkey.Pause), bindColumn(hotkey.Stop)),
		widget.NewSeparator(),
		field("Number of clicks (0 = inf)", clicksEntry),
		field("Guaranteed wait (secs)", waitEntry),
		field("Maximum random extra wait (secs)", jitterEntry),
		container.NewCenter(doubleCheck),
		hint,
		startBtn,
		readout,
		errorText,
		initProgress,
	)

	var root fyne.CanvasObject = container.NewPadded(mainContent)
	if debugLogs {
		split := container.NewVSplit(root, widget.NewCard("Logs", "", logScroll))
		split.SetOffset(0.75)
		root = split
	}
	window.SetContent(root)
	window.Resize(fyne.NewSize(320, root.MinSize().Height))

	window.ShowAndRun()
	cleanup()
	return nil
}
