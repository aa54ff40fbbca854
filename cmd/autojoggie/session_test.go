//go:build linux || windows

package main

import (
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/porcuspine/AutoJoggie/internal/adapters/keytap"
	"github.com/porcuspine/AutoJoggie/internal/config"
	"github.com/porcuspine/AutoJoggie/internal/hotkey"
	"github.com/porcuspine/AutoJoggie/internal/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	codeHome uint16 = 102
	codeEnd  uint16 = 107
	codeF8   uint16 = 66
)

type fakeRuntime struct {
	mu       sync.Mutex
	presses  int
	releases int
	hotkeys  []uint16
	onKey    func(code uint16)
	stopped  bool

	captureCh chan uint16
	stopCh    chan struct{}
	stopOnce  sync.Once
}

func newFakeRuntime() *fakeRuntime {
	return &fakeRuntime{
		captureCh: make(chan uint16),
		stopCh:    make(chan struct{}),
	}
}

func (f *fakeRuntime) PressButton() {
	f.mu.Lock()
	f.presses++
	f.mu.Unlock()
}

func (f *fakeRuntime) ReleaseButton() {
	f.mu.Lock()
	f.releases++
	f.mu.Unlock()
}

func (f *fakeRuntime) Name() string { return "fake" }

func (f *fakeRuntime) Start(onKey func(code uint16)) error {
	f.mu.Lock()
	f.onKey = onKey
	f.mu.Unlock()
	return nil
}

func (f *fakeRuntime) SetHotkeys(codes []uint16) error {
	f.mu.Lock()
	f.hotkeys = append([]uint16(nil), codes...)
	f.mu.Unlock()
	return nil
}

func (f *fakeRuntime) CaptureNextKeyCode(timeout time.Duration) (uint16, error) {
	select {
	case code := <-f.captureCh:
		return code, nil
	case <-f.stopCh:
		return 0, keytap.ErrStopped
	}
}

func (f *fakeRuntime) Stop() {
	f.stopOnce.Do(func() {
		f.mu.Lock()
		f.stopped = true
		f.mu.Unlock()
		close(f.stopCh)
	})
}

func (f *fakeRuntime) press(code uint16) {
	f.mu.Lock()
	fn := f.onKey
	f.mu.Unlock()
	fn(code)
}

func (f *fakeRuntime) currentHotkeys() []uint16 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]uint16(nil), f.hotkeys...)
}

func newTestSession(t *testing.T, settings config.Settings) (*session, *fakeRuntime, string) {
	t.Helper()
	rt := newFakeRuntime()
	path := filepath.Join(t.TempDir(), "settings.yaml")
	s, err := newSession(rt, settings, path, logging.Discard())
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s, rt, path
}

func TestNewSession_BindsSettingsKeys(t *testing.T) {
	s, rt, _ := newTestSession(t, config.Default())

	assert.Equal(t, []uint16{codeHome, codeEnd}, rt.currentHotkeys())
	assert.Equal(t, "PAUSE: [Home]", s.router.Label(hotkey.Pause))
	assert.Equal(t, "STOP: [End]", s.router.Label(hotkey.Stop))
}

func TestNewSession_EmptyKeyStaysUnbound(t *testing.T) {
	settings := config.Default()
	settings.StopKey = ""
	s, rt, _ := newTestSession(t, settings)

	assert.Equal(t, []uint16{codeHome}, rt.currentHotkeys())
	assert.Equal(t, "STOP: [unbound]", s.router.Label(hotkey.Stop))
}

func TestNewSession_RejectsBadKeys(t *testing.T) {
	tests := []struct {
		name  string
		pause string
		stop  string
	}{
		{name: "unknown name", pause: "KEY_NOPE", stop: "KEY_END"},
		{name: "escape", pause: "KEY_ESC", stop: "KEY_END"},
		{name: "same code", pause: "KEY_HOME", stop: "102"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			settings := config.Default()
			settings.PauseKey = tc.pause
			settings.StopKey = tc.stop

			_, err := newSession(newFakeRuntime(), settings, "", logging.Discard())
			require.Error(t, err)
			assert.ErrorIs(t, err, config.ErrInvalidConfiguration)
		})
	}
}

func TestSession_HotkeysDriveEngine(t *testing.T) {
	s, rt, _ := newTestSession(t, config.Default())
	s.StartClicking()
	require.True(t, s.engine.IsActive())

	rt.press(codeHome)
	assert.True(t, s.engine.IsPaused())
	rt.press(codeHome)
	assert.False(t, s.engine.IsPaused())

	rt.press(codeEnd)
	assert.False(t, s.engine.IsActive())
}

func TestSession_StartWithForm(t *testing.T) {
	s, _, path := newTestSession(t, config.Default())

	err := s.StartWithForm(config.Form{Clicks: "4", Wait: "1.5", Jitter: "", DoubleClick: false})
	require.ErrorIs(t, err, config.ErrInvalidConfiguration)
	assert.False(t, s.engine.IsActive())

	err = s.StartWithForm(config.Form{Clicks: "4", Wait: "1.5", Jitter: "0.5", DoubleClick: false})
	require.NoError(t, err)
	assert.True(t, s.engine.IsActive())
	assert.Equal(t, 4, s.engine.ClicksRemaining())

	saved, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 4, saved.Clicks)
	assert.Equal(t, 1.5, saved.WaitSeconds)
	assert.Equal(t, 0.5, saved.JitterSeconds)
	assert.False(t, saved.DoubleClick)
}

func TestSession_RebindAssignsAndPersists(t *testing.T) {
	s, rt, path := newTestSession(t, config.Default())

	done := make(chan error, 1)
	go func() { done <- s.Rebind(hotkey.Pause) }()

	rt.captureCh <- codeF8
	require.NoError(t, <-done)

	assert.Equal(t, "PAUSE: [F8]", s.router.Label(hotkey.Pause))
	assert.ElementsMatch(t, []uint16{codeF8, codeEnd}, rt.currentHotkeys())

	saved, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "KEY_F8", saved.PauseKey)
	assert.Equal(t, "KEY_END", saved.StopKey)
}

func TestSession_RebindEscapeUnbinds(t *testing.T) {
	s, rt, path := newTestSession(t, config.Default())

	done := make(chan error, 1)
	go func() { done <- s.Rebind(hotkey.Stop) }()

	rt.captureCh <- hotkey.CodeEscape
	require.NoError(t, <-done)

	assert.Equal(t, "STOP: [unbound]", s.router.Label(hotkey.Stop))
	assert.Equal(t, []uint16{codeHome}, rt.currentHotkeys())

	saved, err := config.Load(path)
	require.NoError(t, err)
	assert.Empty(t, saved.StopKey)
}

func TestSession_BoundKeyFiresWhileRebinding(t *testing.T) {
	s, rt, _ := newTestSession(t, config.Default())
	s.StartClicking()

	done := make(chan error, 1)
	go func() { done <- s.Rebind(hotkey.Pause) }()

	rt.captureCh <- codeHome
	require.Eventually(t, s.engine.IsPaused, time.Second, time.Millisecond)
	assert.True(t, s.router.IsListening(hotkey.Pause))

	rt.captureCh <- codeF8
	require.NoError(t, <-done)
	assert.Equal(t, "PAUSE: [F8]", s.router.Label(hotkey.Pause))
}

func TestSession_RebindEndsWhenBackendStops(t *testing.T) {
	s, rt, _ := newTestSession(t, config.Default())

	done := make(chan error, 1)
	go func() { done <- s.Rebind(hotkey.Pause) }()

	rt.Stop()
	assert.ErrorIs(t, <-done, keytap.ErrStopped)
	assert.False(t, s.router.IsListening(hotkey.Pause))
	assert.Equal(t, "PAUSE: [Home]", s.router.Label(hotkey.Pause))
}

func TestSession_CloseStopsEverything(t *testing.T) {
	s, rt, _ := newTestSession(t, config.Default())
	s.StartClicking()

	s.Close()
	s.Close()

	assert.False(t, s.engine.IsActive())
	rt.mu.Lock()
	defer rt.mu.Unlock()
	assert.True(t, rt.stopped)
}
