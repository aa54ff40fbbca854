// Package keytap routes raw key presses from an input backend either to a
// pending key capture or to the hotkey handler.
package keytap

import (
	"errors"
	"sort"
	"sync"
	"time"
)

const (
	DefaultCaptureTimeout = 10 * time.Second
	queueSize             = 16
)

var (
	ErrCaptureBusy    = errors.New("key capture already in progress")
	ErrCaptureTimeout = errors.New("timed out waiting for key input")
	ErrStopped        = errors.New("input backend stopped")
)

type Tap struct {
	mu        sync.Mutex
	hotkeys   map[uint16]struct{}
	handler   func(code uint16)
	captureCh chan uint16

	queue chan uint16
}

func New() *Tap {
	return &Tap{
		hotkeys: make(map[uint16]struct{}),
		queue:   make(chan uint16, queueSize),
	}
}

// SetHandler sets the function that receives hotkey presses. It runs on the
// Serve goroutine.
func (t *Tap) SetHandler(fn func(code uint16)) {
	t.mu.Lock()
	t.handler = fn
	t.mu.Unlock()
}

// SetHotkeys replaces the set of codes forwarded to the handler.
func (t *Tap) SetHotkeys(codes []uint16) {
	hotkeys := make(map[uint16]struct{}, len(codes))
	for _, code := range codes {
		if code != 0 {
			hotkeys[code] = struct{}{}
		}
	}
	t.mu.Lock()
	t.hotkeys = hotkeys
	t.mu.Unlock()
}

func (t *Tap) IsHotkey(code uint16) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.hotkeys[code]
	return ok
}

// Hotkeys returns the current hotkey codes in ascending order.
func (t *Tap) Hotkeys() []uint16 {
	t.mu.Lock()
	out := make([]uint16, 0, len(t.hotkeys))
	for code := range t.hotkeys {
		out = append(out, code)
	}
	t.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Press routes one key-down. A pending capture takes the key and it is not
// forwarded as a hotkey. It never blocks and reports whether the key was
// consumed.
func (t *Tap) Press(code uint16) bool {
	t.mu.Lock()
	captureCh := t.captureCh
	_, hotkey := t.hotkeys[code]
	t.mu.Unlock()

	if captureCh != nil {
		select {
		case captureCh <- code:
			return true
		default:
		}
		return true
	}
	if !hotkey {
		return false
	}
	select {
	case t.queue <- code:
	default:
	}
	return true
}

// Serve delivers queued hotkey presses to the handler until stop is closed.
func (t *Tap) Serve(stop <-chan struct{}) {
	for {
		select {
		case <-stop:
			return
		case code := <-t.queue:
			t.mu.Lock()
			handler := t.handler
			t.mu.Unlock()
			if handler != nil {
				handler(code)
			}
		}
	}
}

// Capture waits for the next key press and returns its code.
func (t *Tap) Capture(timeout time.Duration, stop <-chan struct{}) (uint16, error) {
	if timeout <= 0 {
		timeout = DefaultCaptureTimeout
	}

	waitCh := make(chan uint16, 1)

	t.mu.Lock()
	if t.captureCh != nil {
		t.mu.Unlock()
		return 0, ErrCaptureBusy
	}
	t.captureCh = waitCh
	t.mu.Unlock()

	defer func() {
		t.mu.Lock()
		if t.captureCh == waitCh {
			t.captureCh = nil
		}
		t.mu.Unlock()
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case code := <-waitCh:
		return code, nil
	case <-stop:
		return 0, ErrStopped
	case <-timer.C:
		return 0, ErrCaptureTimeout
	}
}
