//go:build windows

package main

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/porcuspine/AutoJoggie/internal/adapters/wininput"
	"github.com/porcuspine/AutoJoggie/internal/config"
)

func parseCode(value string) (uint16, error) {
	return wininput.ParseCode(value)
}

func formatCodeName(code uint16) string {
	return wininput.FormatCodeName(code)
}

func openRuntime(backend, devicePath string, logger *slog.Logger) (backendRuntime, error) {
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case "", config.BackendAuto, config.BackendWindows:
	default:
		return nil, fmt.Errorf("%w: backend %q is not available on windows (use auto|windows)", config.ErrInvalidConfiguration, backend)
	}
	if devicePath != "" {
		logger.Warn("--device is ignored on Windows; using the global keyboard hook")
	}
	return wininput.NewRuntime(logger)
}

func listInputDevices(w io.Writer, _ string) error {
	devices, err := wininput.ListInputDevices()
	if err != nil {
		return err
	}
	for _, dev := range devices {
		fmt.Fprintf(w, "%s: %s\n", dev.Path, dev.Name)
	}
	return nil
}

func permissionDeniedHint() string {
	return "Permission denied registering global input hooks. Run as Administrator and ensure input hooking is allowed."
}
