//go:build linux

package linuxinput

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"syscall"
	"time"

	"github.com/porcuspine/AutoJoggie/internal/adapters/keytap"
	"github.com/porcuspine/AutoJoggie/internal/core/clickengine"

	evdev "github.com/holoplot/go-evdev"
)

// Runtime clicks through a uinput virtual mouse and reads hotkeys straight
// from the keyboard event devices. It works on Wayland and X11 alike.
type Runtime struct {
	devices []*evdev.InputDevice
	mouse   *Mouse
	tap     *keytap.Tap
	logger  clickengine.Logger

	stopCh    chan struct{}
	stopOnce  sync.Once
	readersWG sync.WaitGroup
}

func NewRuntime(devicePath string, logger clickengine.Logger) (*Runtime, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is nil")
	}

	devices, err := OpenKeyDevices(devicePath)
	if err != nil {
		return nil, err
	}
	mouse, err := NewMouse(logger)
	if err != nil {
		closeInputDevices(devices)
		return nil, err
	}

	for _, dev := range devices {
		name, _ := dev.Name()
		logger.Info("Listening for hotkeys", "path", dev.Path(), "name", name)
	}

	return &Runtime{
		devices: devices,
		mouse:   mouse,
		tap:     keytap.New(),
		logger:  logger,
		stopCh:  make(chan struct{}),
	}, nil
}

func (r *Runtime) Name() string {
	return "wayland"
}

// Start begins reading key events; onKey receives presses of the current
// hotkeys.
func (r *Runtime) Start(onKey func(code uint16)) error {
	r.tap.SetHandler(onKey)

	r.readersWG.Add(1)
	go func() {
		defer r.readersWG.Done()
		r.tap.Serve(r.stopCh)
	}()
	for _, dev := range r.devices {
		r.readersWG.Add(1)
		go r.readLoop(dev)
	}
	return nil
}

func (r *Runtime) Stop() {
	r.stopOnce.Do(func() {
		close(r.stopCh)
		closeInputDevices(r.devices)
		r.readersWG.Wait()
		if err := r.mouse.Close(); err != nil {
			r.logger.Warn("Failed to close virtual mouse", "err", err)
		}
	})
}

func (r *Runtime) PressButton() {
	r.mouse.PressButton()
}

func (r *Runtime) ReleaseButton() {
	r.mouse.ReleaseButton()
}

func (r *Runtime) SetHotkeys(codes []uint16) error {
	r.tap.SetHotkeys(codes)
	return nil
}

func (r *Runtime) CaptureNextKeyCode(timeout time.Duration) (uint16, error) {
	return r.tap.Capture(timeout, r.stopCh)
}

func (r *Runtime) readLoop(dev *evdev.InputDevice) {
	defer r.readersWG.Done()

	path := dev.Path()
	for {
		events, err := dev.ReadSlice(64)
		if err != nil {
			if r.stopped() || isDeviceClosedError(err) {
				return
			}
			if isWouldBlockError(err) {
				if !r.sleepWithStop(10 * time.Millisecond) {
					return
				}
				continue
			}
			r.logger.Warn("Read failed", "path", path, "err", err)
			if !r.sleepWithStop(100 * time.Millisecond) {
				return
			}
			continue
		}

		for _, event := range events {
			if event.Type == evdev.EV_KEY && event.Value == 1 {
				r.tap.Press(uint16(event.Code))
			}
		}
	}
}

func (r *Runtime) stopped() bool {
	select {
	case <-r.stopCh:
		return true
	default:
		return false
	}
}

func (r *Runtime) sleepWithStop(duration time.Duration) bool {
	timer := time.NewTimer(duration)
	defer timer.Stop()
	select {
	case <-r.stopCh:
		return false
	case <-timer.C:
		return true
	}
}

func isDeviceClosedError(err error) bool {
	return errors.Is(err, syscall.EBADF) || errors.Is(err, syscall.ENODEV) || errors.Is(err, os.ErrClosed)
}

func isWouldBlockError(err error) bool {
	return errors.Is(err, syscall.EAGAIN) || errors.Is(err, syscall.EWOULDBLOCK)
}
