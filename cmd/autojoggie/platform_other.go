//go:build !linux && !windows

package main

import (
	"fmt"
	"io"
	"log/slog"
	"strconv"
)

func parseCode(value string) (uint16, error) {
	code, err := strconv.ParseUint(value, 0, 16)
	if err != nil {
		return 0, fmt.Errorf("unknown key %q", value)
	}
	return uint16(code), nil
}

func formatCodeName(code uint16) string {
	return strconv.Itoa(int(code))
}

func openRuntime(_ string, _ string, _ *slog.Logger) (backendRuntime, error) {
	return nil, fmt.Errorf("input backends are not supported on this platform")
}

func listInputDevices(_ io.Writer, _ string) error {
	return fmt.Errorf("input device listing is not supported on this platform")
}

func permissionDeniedHint() string {
	return "Permission denied opening input backend."
}
