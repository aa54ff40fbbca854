//go:build linux

package linuxinput

import (
	"fmt"

	"github.com/porcuspine/AutoJoggie/internal/core/clickengine"

	evdev "github.com/holoplot/go-evdev"
)

const virtualMouseName = "autojoggie-virtual-mouse"

type eventWriter interface {
	WriteOne(event *evdev.InputEvent) error
}

// Mouse is a uinput virtual mouse whose left button the engine drives.
type Mouse struct {
	out    eventWriter
	dev    *evdev.InputDevice
	logger clickengine.Logger
}

// NewMouse creates the virtual device. It needs write access to /dev/uinput.
func NewMouse(logger clickengine.Logger) (*Mouse, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is nil")
	}

	id := evdev.InputID{
		BusType: uint16(evdev.BUS_VIRTUAL),
		Vendor:  0x1,
		Product: 0x1,
		Version: 1,
	}
	// REL_X/REL_Y make compositors classify the device as a pointer.
	capabilities := map[evdev.EvType][]evdev.EvCode{
		evdev.EV_KEY: {evdev.BTN_LEFT},
		evdev.EV_REL: {evdev.REL_X, evdev.REL_Y},
	}

	dev, err := evdev.CreateDevice(virtualMouseName, id, capabilities)
	if err != nil {
		return nil, fmt.Errorf("create virtual mouse: %w", err)
	}
	return &Mouse{out: dev, dev: dev, logger: logger}, nil
}

func newMouseWithWriter(out eventWriter, logger clickengine.Logger) *Mouse {
	return &Mouse{out: out, logger: logger}
}

func (m *Mouse) PressButton() {
	m.writeButton(1)
}

func (m *Mouse) ReleaseButton() {
	m.writeButton(0)
}

func (m *Mouse) writeButton(value int32) {
	events := []evdev.InputEvent{
		{Type: evdev.EV_KEY, Code: evdev.BTN_LEFT, Value: value},
		{Type: evdev.EV_SYN, Code: evdev.SYN_REPORT, Value: 0},
	}
	for i := range events {
		if err := m.out.WriteOne(&events[i]); err != nil {
			m.logger.Error("Failed to inject click", "value", value, "err", err)
			return
		}
	}
}

func (m *Mouse) Close() error {
	if m.dev == nil {
		return nil
	}
	return m.dev.Close()
}
