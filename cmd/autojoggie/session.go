package main

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/porcuspine/AutoJoggie/internal/adapters/keytap"
	"github.com/porcuspine/AutoJoggie/internal/config"
	"github.com/porcuspine/AutoJoggie/internal/core/clickengine"
	"github.com/porcuspine/AutoJoggie/internal/hotkey"
)

// backendRuntime is what every input backend provides: the left mouse button
// plus global hotkey delivery and single key capture.
type backendRuntime interface {
	clickengine.Clicker
	Name() string
	Start(onKey func(code uint16)) error
	SetHotkeys(codes []uint16) error
	CaptureNextKeyCode(timeout time.Duration) (uint16, error)
	Stop()
}

// session ties one backend to one engine and its hotkey router, and keeps the
// settings file in step with form edits and rebinds.
type session struct {
	runtime backendRuntime
	engine  *clickengine.Engine
	router  *hotkey.Router
	logger  *slog.Logger
	path    string

	mu       sync.Mutex
	settings config.Settings

	rebinding atomic.Bool
	closeOnce sync.Once
}

func newSession(rt backendRuntime, settings config.Settings, path string, logger *slog.Logger) (*session, error) {
	engine, err := clickengine.New(rt, logger, clickengine.Options{})
	if err != nil {
		return nil, err
	}
	router, err := hotkey.NewRouter(engine, logger, formatCodeName)
	if err != nil {
		return nil, err
	}

	s := &session{
		runtime:  rt,
		engine:   engine,
		router:   router,
		logger:   logger,
		path:     path,
		settings: settings,
	}
	if err := s.bindFromSettings(); err != nil {
		return nil, err
	}
	if err := rt.SetHotkeys(router.Codes()); err != nil {
		return nil, err
	}
	router.OnChange(s.bindingsChanged)

	if err := rt.Start(router.HandleKey); err != nil {
		return nil, err
	}

	logger.Info("Backend ready",
		"name", rt.Name(),
		"pause", router.Label(hotkey.Pause),
		"stop", router.Label(hotkey.Stop),
	)
	return s, nil
}

func (s *session) bindFromSettings() error {
	keys := []struct {
		action hotkey.Action
		field  string
		raw    string
	}{
		{hotkey.Pause, "pause_key", s.settings.PauseKey},
		{hotkey.Stop, "stop_key", s.settings.StopKey},
	}
	for _, key := range keys {
		if strings.TrimSpace(key.raw) == "" {
			continue
		}
		code, err := parseCode(key.raw)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", config.ErrInvalidConfiguration, key.field, err)
		}
		if err := s.router.Bind(key.action, code); err != nil {
			return fmt.Errorf("%w: %s: %v", config.ErrInvalidConfiguration, key.field, err)
		}
	}
	return nil
}

func (s *session) bindingsChanged() {
	if err := s.runtime.SetHotkeys(s.router.Codes()); err != nil {
		s.logger.Warn("Failed to update hotkeys", "err", err)
	}

	pauseKey := s.keyName(hotkey.Pause)
	stopKey := s.keyName(hotkey.Stop)

	s.mu.Lock()
	if s.settings.PauseKey == pauseKey && s.settings.StopKey == stopKey {
		s.mu.Unlock()
		return
	}
	s.settings.PauseKey = pauseKey
	s.settings.StopKey = stopKey
	settings := s.settings
	s.mu.Unlock()

	s.persist(settings)
}

func (s *session) keyName(action hotkey.Action) string {
	code, ok := s.router.Code(action)
	if !ok {
		return ""
	}
	return formatCodeName(code)
}

// Settings returns a copy of the current settings.
func (s *session) Settings() config.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings
}

// StartWithForm parses the config window fields, saves them and starts
// clicking. Parse failures wrap config.ErrInvalidConfiguration and leave the
// engine untouched.
func (s *session) StartWithForm(form config.Form) error {
	s.mu.Lock()
	updated, err := s.settings.WithForm(form)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	s.settings = updated
	s.mu.Unlock()

	s.persist(updated)
	s.StartClicking()
	return nil
}

// StartClicking starts the engine with the current settings.
func (s *session) StartClicking() {
	p := s.Settings().StartParams()
	s.engine.Start(p.WaitBaseMS, p.WaitJitterMS, p.ClickCount, p.Mode)
}

// Rebind puts action into listening mode and feeds captured keys to the
// router until no binding is listening. A bound key still fires its action
// while listening, and Escape unbinds. If a capture loop is already running
// it only switches the listening target.
func (s *session) Rebind(action hotkey.Action) error {
	s.router.Listen(action)
	if !s.rebinding.CompareAndSwap(false, true) {
		return nil
	}

	for {
		if _, ok := s.router.Listening(); !ok {
			s.rebinding.Store(false)
			// A Listen may have slipped in before the flag was cleared.
			if _, ok := s.router.Listening(); !ok || !s.rebinding.CompareAndSwap(false, true) {
				return nil
			}
		}

		code, err := s.runtime.CaptureNextKeyCode(keytap.DefaultCaptureTimeout)
		if errors.Is(err, keytap.ErrCaptureTimeout) {
			continue
		}
		if err != nil {
			s.router.CancelListen()
			s.rebinding.Store(false)
			return err
		}
		s.router.HandleKey(code)
	}
}

func (s *session) persist(settings config.Settings) {
	if s.path == "" {
		return
	}
	if err := config.Save(s.path, settings); err != nil {
		s.logger.Warn("Failed to save settings", "path", s.path, "err", err)
	}
}

// Close stops the engine, which releases a held button, then the backend.
func (s *session) Close() {
	s.closeOnce.Do(func() {
		s.engine.Stop()
		s.runtime.Stop()
	})
}
