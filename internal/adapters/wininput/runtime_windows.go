//go:build windows

package wininput

import (
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"
	"unsafe"

	"github.com/porcuspine/AutoJoggie/internal/adapters/keytap"
	"github.com/porcuspine/AutoJoggie/internal/core/clickengine"

	"golang.org/x/sys/windows"
)

const (
	whKeyboardLL = 13

	wmQuit       = 0x0012
	wmKeyDown    = 0x0100
	wmSysKeyDown = 0x0104

	llkhfInjected        = 0x00000010
	llkhfLowerILInjected = 0x00000002

	inputMouse          = 0
	mouseeventfLeftDown = 0x0002
	mouseeventfLeftUp   = 0x0004
)

var (
	user32 = windows.NewLazySystemDLL("user32.dll")

	procSetWindowsHookExW   = user32.NewProc("SetWindowsHookExW")
	procUnhookWindowsHookEx = user32.NewProc("UnhookWindowsHookEx")
	procCallNextHookEx      = user32.NewProc("CallNextHookEx")
	procGetMessageW         = user32.NewProc("GetMessageW")
	procTranslateMessage    = user32.NewProc("TranslateMessage")
	procDispatchMessageW    = user32.NewProc("DispatchMessageW")
	procPostThreadMessageW  = user32.NewProc("PostThreadMessageW")
	procSendInput           = user32.NewProc("SendInput")

	keyboardHookCallback = windows.NewCallback(keyboardLLCallback)

	activeRuntime atomic.Pointer[Runtime]
)

type point struct {
	X int32
	Y int32
}

type keyboardLLHookStruct struct {
	VkCode      uint32
	ScanCode    uint32
	Flags       uint32
	Time        uint32
	DwExtraInfo uintptr
}

type message struct {
	Hwnd     uintptr
	Message  uint32
	WParam   uintptr
	LParam   uintptr
	Time     uint32
	Pt       point
	LPrivate uint32
}

type mouseInput struct {
	Dx          int32
	Dy          int32
	MouseData   uint32
	DwFlags     uint32
	Time        uint32
	DwExtraInfo uintptr
}

type input struct {
	Type uint32
	Mi   mouseInput
}

type DeviceInfo struct {
	Path string
	Name string
}

// Runtime clicks with SendInput and watches hotkeys through a low-level
// keyboard hook. Only one Runtime can hold the hook at a time.
type Runtime struct {
	tap    *keytap.Tap
	logger clickengine.Logger

	stopOnce sync.Once
	stopCh   chan struct{}

	threadID atomic.Uint32
	loopDone chan struct{}
}

func NewRuntime(logger clickengine.Logger) (*Runtime, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is nil")
	}
	return &Runtime{
		tap:      keytap.New(),
		logger:   logger,
		stopCh:   make(chan struct{}),
		loopDone: make(chan struct{}),
	}, nil
}

func (r *Runtime) Name() string {
	return "windows"
}

func (r *Runtime) Start(onKey func(code uint16)) error {
	if !activeRuntime.CompareAndSwap(nil, r) {
		return fmt.Errorf("windows runtime is already active")
	}

	r.tap.SetHandler(onKey)
	go r.tap.Serve(r.stopCh)

	ready := make(chan error, 1)
	go r.hookLoop(ready)

	if err := <-ready; err != nil {
		r.Stop()
		return err
	}
	return nil
}

func (r *Runtime) Stop() {
	r.stopOnce.Do(func() {
		close(r.stopCh)
		if threadID := r.threadID.Load(); threadID != 0 {
			_, _, _ = procPostThreadMessageW.Call(uintptr(threadID), uintptr(wmQuit), 0, 0)
			<-r.loopDone
		}
		activeRuntime.CompareAndSwap(r, nil)
	})
}

func (r *Runtime) PressButton() {
	if err := sendMouse(mouseeventfLeftDown); err != nil {
		r.logger.Error("Failed to press mouse button", "err", err)
	}
}

func (r *Runtime) ReleaseButton() {
	if err := sendMouse(mouseeventfLeftUp); err != nil {
		r.logger.Error("Failed to release mouse button", "err", err)
	}
}

func (r *Runtime) SetHotkeys(codes []uint16) error {
	r.tap.SetHotkeys(codes)
	return nil
}

func (r *Runtime) CaptureNextKeyCode(timeout time.Duration) (uint16, error) {
	return r.tap.Capture(timeout, r.stopCh)
}

func sendMouse(flags uint32) error {
	in := input{
		Type: inputMouse,
		Mi:   mouseInput{DwFlags: flags},
	}
	sent, _, callErr := procSendInput.Call(1, uintptr(unsafe.Pointer(&in)), unsafe.Sizeof(in))
	if sent != 1 {
		if callErr != nil && callErr != windows.Errno(0) {
			return callErr
		}
		return fmt.Errorf("SendInput sent %d of 1 inputs", sent)
	}
	return nil
}

func (r *Runtime) hookLoop(ready chan<- error) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer close(r.loopDone)

	r.threadID.Store(windows.GetCurrentThreadId())

	hook, _, hookErr := procSetWindowsHookExW.Call(uintptr(whKeyboardLL), keyboardHookCallback, 0, 0)
	if hook == 0 {
		r.threadID.Store(0)
		ready <- fmt.Errorf("failed to install keyboard hook: %w", hookErr)
		return
	}
	defer func() {
		_, _, _ = procUnhookWindowsHookEx.Call(hook)
	}()

	ready <- nil

	var msg message
	for {
		ret, _, callErr := procGetMessageW.Call(uintptr(unsafe.Pointer(&msg)), 0, 0, 0)
		switch int32(ret) {
		case -1:
			r.logger.Warn("Windows message loop failed", "err", callErr)
			return
		case 0:
			return
		default:
			_, _, _ = procTranslateMessage.Call(uintptr(unsafe.Pointer(&msg)))
			_, _, _ = procDispatchMessageW.Call(uintptr(unsafe.Pointer(&msg)))
		}
	}
}

func keyboardLLCallback(code int, wParam uintptr, lParam uintptr) uintptr {
	if code >= 0 {
		if r := activeRuntime.Load(); r != nil {
			r.handleKeyboardHook(wParam, lParam)
		}
	}
	ret, _, _ := procCallNextHookEx.Call(0, uintptr(code), wParam, lParam)
	return ret
}

func (r *Runtime) handleKeyboardHook(wParam uintptr, lParam uintptr) {
	if lParam == 0 {
		return
	}
	switch uint32(wParam) {
	case wmKeyDown, wmSysKeyDown:
	default:
		return
	}

	event := (*keyboardLLHookStruct)(unsafe.Pointer(lParam))
	if event.Flags&llkhfInjected != 0 || event.Flags&llkhfLowerILInjected != 0 {
		return
	}

	if code, ok := CodeFromVK(event.VkCode, event.Flags); ok {
		r.tap.Press(code)
	}
}

func ListInputDevices() ([]DeviceInfo, error) {
	return []DeviceInfo{{Path: "global", Name: "Windows Global Input"}}, nil
}
