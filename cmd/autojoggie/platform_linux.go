//go:build linux

package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/porcuspine/AutoJoggie/internal/adapters/linuxinput"
	"github.com/porcuspine/AutoJoggie/internal/adapters/x11input"
	"github.com/porcuspine/AutoJoggie/internal/config"
)

func parseCode(value string) (uint16, error) {
	return linuxinput.ParseCode(value)
}

func formatCodeName(code uint16) string {
	return linuxinput.FormatCodeName(code)
}

func openRuntime(backend, devicePath string, logger *slog.Logger) (backendRuntime, error) {
	switch resolveLinuxBackend(backend) {
	case config.BackendX11:
		if devicePath != "" {
			logger.Warn("--device is ignored on X11 backend")
		}
		return x11input.NewRuntime(logger)
	case config.BackendWayland:
		return linuxinput.NewRuntime(devicePath, logger)
	default:
		return nil, fmt.Errorf("%w: backend %q is not available on linux (use auto|wayland|x11)", config.ErrInvalidConfiguration, backend)
	}
}

func listInputDevices(w io.Writer, backend string) error {
	switch resolveLinuxBackend(backend) {
	case config.BackendX11:
		devices, err := x11input.ListInputDevices()
		if err != nil {
			return err
		}
		for _, dev := range devices {
			fmt.Fprintf(w, "%s: %s\n", dev.Path, dev.Name)
		}
		return nil
	default:
		devices, err := linuxinput.ListInputDevices()
		if err != nil {
			return err
		}
		for _, dev := range devices {
			fmt.Fprintf(w, "%s: %s [%s]\n", dev.Path, dev.Name, strings.Join(deviceTags(dev), ", "))
		}
		return nil
	}
}

func deviceTags(dev linuxinput.DeviceInfo) []string {
	tags := []string{"physical"}
	if dev.IsVirtual {
		tags[0] = "virtual"
	}
	if dev.IsKeyboard {
		tags = append(tags, "keyboard")
	}
	if dev.IsPointer {
		tags = append(tags, "pointer")
	}
	return tags
}

func permissionDeniedHint() string {
	return "Permission denied opening input backend. On Wayland use root/udev rules for /dev/input and /dev/uinput. On X11 ensure an active X11 session and DISPLAY is set."
}

// resolveLinuxBackend turns auto into wayland or x11 from the session
// environment. Unknown values pass through for openRuntime to reject.
func resolveLinuxBackend(configured string) string {
	choice := strings.ToLower(strings.TrimSpace(configured))
	if choice == "" {
		choice = config.BackendAuto
	}
	if choice != config.BackendAuto {
		return choice
	}

	switch strings.ToLower(strings.TrimSpace(os.Getenv("XDG_SESSION_TYPE"))) {
	case "wayland":
		return config.BackendWayland
	case "x11":
		return config.BackendX11
	}

	if strings.TrimSpace(os.Getenv("WAYLAND_DISPLAY")) != "" {
		return config.BackendWayland
	}
	if strings.TrimSpace(os.Getenv("DISPLAY")) != "" {
		return config.BackendX11
	}
	return config.BackendWayland
}
