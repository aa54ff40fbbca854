//go:build linux

package x11input

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/porcuspine/AutoJoggie/internal/adapters/keytap"
	"github.com/porcuspine/AutoJoggie/internal/adapters/linuxinput"
	"github.com/porcuspine/AutoJoggie/internal/core/clickengine"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgb/xtest"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/keybind"
)

// Runtime clicks through the XTEST extension and receives hotkeys through
// passive key grabs on the root window.
type Runtime struct {
	xu      *xgbutil.XUtil
	conn    *xgb.Conn
	rootWin xproto.Window

	tap    *keytap.Tap
	logger clickengine.Logger

	mu          sync.RWMutex
	keyToCode   map[xproto.Keycode]uint16
	grabbedKeys []xproto.Keycode

	injectMu sync.Mutex

	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
}

func NewRuntime(logger clickengine.Logger) (*Runtime, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is nil")
	}

	xu, err := xgbutil.NewConn()
	if err != nil {
		return nil, err
	}
	conn := xu.Conn()
	if conn == nil {
		return nil, fmt.Errorf("failed to open X11 connection")
	}

	if err := xtest.Init(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("XTEST extension unavailable: %w", err)
	}
	keybind.Initialize(xu)

	return &Runtime{
		xu:        xu,
		conn:      conn,
		rootWin:   xu.RootWin(),
		tap:       keytap.New(),
		logger:    logger,
		keyToCode: make(map[xproto.Keycode]uint16),
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
	}, nil
}

func (r *Runtime) Name() string {
	return "x11"
}

func (r *Runtime) Start(onKey func(code uint16)) error {
	r.tap.SetHandler(onKey)
	go r.tap.Serve(r.stopCh)
	go r.eventLoop()
	return nil
}

func (r *Runtime) Stop() {
	r.stopOnce.Do(func() {
		close(r.stopCh)

		r.mu.Lock()
		r.ungrabAllLocked()
		r.conn.Close()
		r.mu.Unlock()

		<-r.doneCh
	})
}

func (r *Runtime) PressButton() {
	r.fakeButton(xproto.ButtonPress)
}

func (r *Runtime) ReleaseButton() {
	r.fakeButton(xproto.ButtonRelease)
}

func (r *Runtime) fakeButton(eventType byte) {
	r.injectMu.Lock()
	defer r.injectMu.Unlock()

	if err := xtest.FakeInputChecked(
		r.conn,
		eventType,
		byte(xproto.ButtonIndex1),
		xproto.TimeCurrentTime,
		r.rootWin,
		0,
		0,
		0,
	).Check(); err != nil {
		r.logger.Error("Failed to inject click", "event", eventType, "err", err)
		return
	}
	r.conn.Sync()
}

// SetHotkeys replaces the passive key grabs with grabs for codes.
func (r *Runtime) SetHotkeys(codes []uint16) error {
	keyToCode := make(map[xproto.Keycode]uint16)
	for _, code := range codes {
		keycodes, err := r.resolveKeycodes(code)
		if err != nil {
			return err
		}
		for _, key := range keycodes {
			if existing, ok := keyToCode[key]; ok && existing != code {
				return fmt.Errorf("%s and %s resolve to the same X11 keycode",
					linuxinput.FormatCodeName(existing), linuxinput.FormatCodeName(code))
			}
			keyToCode[key] = code
		}
	}

	keys := make([]xproto.Keycode, 0, len(keyToCode))
	for key := range keyToCode {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	r.mu.Lock()
	defer r.mu.Unlock()

	r.ungrabAllLocked()
	if err := r.grabAllLocked(keys); err != nil {
		r.ungrabAllLocked()
		return err
	}
	r.keyToCode = keyToCode
	r.tap.SetHotkeys(codes)
	return nil
}

// CaptureNextKeyCode takes an active keyboard grab on a second connection,
// so the hotkey grabs do not fire for the captured key.
func (r *Runtime) CaptureNextKeyCode(timeout time.Duration) (uint16, error) {
	return CaptureNextKeyCode(timeout)
}

func (r *Runtime) eventLoop() {
	defer close(r.doneCh)

	for {
		event, xerr := r.conn.WaitForEvent()
		if xerr != nil {
			select {
			case <-r.stopCh:
				return
			default:
			}
			r.logger.Warn("X11 event error", "err", xerr)
			continue
		}
		if event == nil {
			return
		}

		if ev, ok := event.(xproto.KeyPressEvent); ok {
			if code, ok := r.lookupKeyCode(ev.Detail); ok {
				r.tap.Press(code)
			}
		}
	}
}

func (r *Runtime) lookupKeyCode(key xproto.Keycode) (uint16, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	code, ok := r.keyToCode[key]
	return code, ok
}

func (r *Runtime) grabAllLocked(keys []xproto.Keycode) error {
	for _, key := range keys {
		if err := xproto.GrabKeyChecked(
			r.conn,
			false,
			r.rootWin,
			xproto.ModMaskAny,
			key,
			xproto.GrabModeAsync,
			xproto.GrabModeAsync,
		).Check(); err != nil {
			return fmt.Errorf("grab keycode %d: %w", key, err)
		}
		r.grabbedKeys = append(r.grabbedKeys, key)
	}
	return nil
}

func (r *Runtime) ungrabAllLocked() {
	for _, key := range r.grabbedKeys {
		xproto.UngrabKey(r.conn, key, r.rootWin, xproto.ModMaskAny)
	}
	r.grabbedKeys = nil
}

func (r *Runtime) resolveKeycodes(code uint16) ([]xproto.Keycode, error) {
	keysym, ok := keysymForCode(code)
	if !ok {
		return nil, fmt.Errorf("unsupported X11 key %s", linuxinput.FormatCodeName(code))
	}

	keycodes := keybind.StrToKeycodes(r.xu, keysym)
	if len(keycodes) == 0 {
		return nil, fmt.Errorf("failed to resolve X11 key %q", keysym)
	}

	uniq := make(map[xproto.Keycode]struct{}, len(keycodes))
	result := make([]xproto.Keycode, 0, len(keycodes))
	for _, keycode := range keycodes {
		if _, seen := uniq[keycode]; seen {
			continue
		}
		uniq[keycode] = struct{}{}
		result = append(result, keycode)
	}
	return result, nil
}

type DeviceInfo struct {
	Path string
	Name string
}

func ListInputDevices() ([]DeviceInfo, error) {
	return []DeviceInfo{{Path: "x11-global", Name: "X11 Global Input"}}, nil
}

// CaptureNextKeyCode waits for the next key press anywhere on the display.
func CaptureNextKeyCode(timeout time.Duration) (uint16, error) {
	if timeout <= 0 {
		timeout = keytap.DefaultCaptureTimeout
	}

	xu, err := xgbutil.NewConn()
	if err != nil {
		return 0, err
	}
	conn := xu.Conn()
	root := xu.RootWin()
	keybind.Initialize(xu)

	defer conn.Close()
	defer xproto.UngrabKeyboard(conn, xproto.TimeCurrentTime)

	reply, err := xproto.GrabKeyboard(
		conn,
		false,
		root,
		xproto.TimeCurrentTime,
		xproto.GrabModeAsync,
		xproto.GrabModeAsync,
	).Reply()
	if err != nil {
		return 0, err
	}
	if reply.Status != xproto.GrabStatusSuccess {
		return 0, fmt.Errorf("failed to grab keyboard (status=%d)", reply.Status)
	}

	deadline := time.Now().Add(timeout)
	for {
		event, xerr := conn.PollForEvent()
		if xerr != nil {
			return 0, xerr
		}
		if event == nil {
			if time.Now().After(deadline) {
				return 0, keytap.ErrCaptureTimeout
			}
			time.Sleep(2 * time.Millisecond)
			continue
		}

		if ev, ok := event.(xproto.KeyPressEvent); ok {
			keysym := keybind.LookupString(xu, ev.State, ev.Detail)
			if code, ok := codeForKeysym(keysym); ok {
				return code, nil
			}
		}
	}
}
