package hotkey

import (
	"errors"
	"fmt"
	"sync"

	"github.com/porcuspine/AutoJoggie/internal/core/clickengine"
)

// CodeEscape is the key code that cancels a rebind and leaves the binding empty.
const CodeEscape uint16 = 1

const (
	HintPassive = "Click here to rebind"
	HintActive  = "Press any key..."
)

var (
	ErrKeyInUse    = errors.New("key is already bound")
	ErrReservedKey = errors.New("key is reserved")
)

type Action uint8

const (
	Pause Action = iota
	Stop
)

func (a Action) String() string {
	switch a {
	case Pause:
		return "pause"
	case Stop:
		return "stop"
	default:
		return "unknown"
	}
}

// Controller is the part of the click engine driven by hotkeys.
type Controller interface {
	Pause(doPause bool)
	IsPaused() bool
	Stop()
}

// NameFunc returns the backend name of a key code, e.g. KEY_HOME.
type NameFunc func(code uint16) string

type binding struct {
	code      uint16
	bound     bool
	listening bool
}

// Router owns the pause and stop bindings and turns key presses into engine
// control calls or binding changes.
type Router struct {
	ctl    Controller
	logger clickengine.Logger
	names  NameFunc

	mu       sync.Mutex
	bindings [2]binding
	onChange func()
}

func NewRouter(ctl Controller, logger clickengine.Logger, names NameFunc) (*Router, error) {
	if ctl == nil {
		return nil, fmt.Errorf("controller is nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is nil")
	}
	if names == nil {
		return nil, fmt.Errorf("name func is nil")
	}
	return &Router{ctl: ctl, logger: logger, names: names}, nil
}

// OnChange registers fn to run after any binding or listening state change.
// fn runs without the router lock held.
func (r *Router) OnChange(fn func()) {
	r.mu.Lock()
	r.onChange = fn
	r.mu.Unlock()
}

// Bind assigns code to action. A zero code clears the binding.
func (r *Router) Bind(action Action, code uint16) error {
	if !validAction(action) {
		return fmt.Errorf("unknown hotkey action %d", action)
	}
	if code == CodeEscape {
		return fmt.Errorf("bind %s to %s: %w", action, r.names(code), ErrReservedKey)
	}

	r.mu.Lock()
	if code != 0 {
		peer := r.bindings[other(action)]
		if peer.bound && peer.code == code {
			r.mu.Unlock()
			return fmt.Errorf("bind %s to %s: %w", action, r.names(code), ErrKeyInUse)
		}
	}
	r.bindings[action] = binding{code: code, bound: code != 0}
	fn := r.onChange
	r.mu.Unlock()

	r.logger.Debug("Hotkey bound", "action", action.String(), "key", r.names(code))
	notify(fn)
	return nil
}

// Listen puts action into rebinding mode and takes the other action out of it.
func (r *Router) Listen(action Action) {
	r.setListening(action, true)
}

// CancelListen leaves rebinding mode without changing any binding.
func (r *Router) CancelListen() {
	r.setListening(0, false)
}

func (r *Router) setListening(action Action, on bool) {
	r.mu.Lock()
	for i := range r.bindings {
		r.bindings[i].listening = on && Action(i) == action
	}
	fn := r.onChange
	r.mu.Unlock()
	notify(fn)
}

// Listening reports which action, if any, is waiting for a new key.
func (r *Router) Listening() (Action, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, b := range r.bindings {
		if b.listening {
			return Action(i), true
		}
	}
	return 0, false
}

func (r *Router) IsListening(action Action) bool {
	listening, ok := r.Listening()
	return ok && listening == action
}

// Code returns the key bound to action.
func (r *Router) Code(action Action) (uint16, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b := r.bindings[action]
	return b.code, b.bound
}

// Codes returns every bound key code.
func (r *Router) Codes() []uint16 {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]uint16, 0, len(r.bindings))
	for _, b := range r.bindings {
		if b.bound {
			out = append(out, b.code)
		}
	}
	return out
}

// HandleKey processes one key press. Escape clears whichever binding is
// listening. A bound key runs its action, even while rebinding. Any other key
// is assigned to the listening binding, if there is one.
func (r *Router) HandleKey(code uint16) {
	r.mu.Lock()
	if code == CodeEscape {
		changed := false
		for i := range r.bindings {
			if r.bindings[i].listening {
				r.bindings[i] = binding{}
				changed = true
			}
		}
		fn := r.onChange
		r.mu.Unlock()
		if changed {
			r.logger.Info("Hotkey unbound")
			notify(fn)
		}
		return
	}

	pause, stop := r.bindings[Pause], r.bindings[Stop]
	switch {
	case pause.bound && pause.code == code:
		r.mu.Unlock()
		r.ctl.Pause(!r.ctl.IsPaused())
		return
	case stop.bound && stop.code == code:
		r.mu.Unlock()
		r.ctl.Stop()
		return
	}

	assigned := -1
	for i := range r.bindings {
		if r.bindings[i].listening {
			r.bindings[i] = binding{code: code, bound: true}
			assigned = i
		}
	}
	fn := r.onChange
	r.mu.Unlock()

	if assigned < 0 {
		return
	}
	r.logger.Info("Hotkey rebound", "action", Action(assigned).String(), "key", r.names(code))
	notify(fn)
}

// Label renders the binding caption, e.g. "PAUSE: [Home]".
func (r *Router) Label(action Action) string {
	code, ok := r.Code(action)
	name := "unbound"
	if ok {
		name = DisplayName(r.names(code))
	}
	return fmt.Sprintf("%s: [%s]", labelPrefix(action), name)
}

// Hint renders the rebind button caption.
func (r *Router) Hint(action Action) string {
	if r.IsListening(action) {
		return HintActive
	}
	return HintPassive
}

func labelPrefix(action Action) string {
	switch action {
	case Pause:
		return "PAUSE"
	case Stop:
		return "STOP"
	default:
		return "?"
	}
}

func validAction(action Action) bool {
	return action == Pause || action == Stop
}

func other(action Action) Action {
	if action == Pause {
		return Stop
	}
	return Pause
}

func notify(fn func()) {
	if fn != nil {
		fn()
	}
}
