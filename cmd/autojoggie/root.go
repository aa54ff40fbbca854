package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"syscall"

	"github.com/porcuspine/AutoJoggie/internal/config"
	"github.com/porcuspine/AutoJoggie/internal/logging"

	"github.com/spf13/cobra"
)

var version = "dev"

// rootOptions holds the persistent flags shared by every command.
type rootOptions struct {
	configPath string
	logLevel   string
	logFormat  string
	backend    string
	devicePath string
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "autojoggie",
		Short: "AutoJoggie clicks the left mouse button on a randomized schedule",
		Long: `AutoJoggie presses and releases the left mouse button after a guaranteed
wait plus a random extra wait, either for a fixed number of clicks or until
stopped. Pause and stop are bound to global hotkeys (Home and End by default).

Without a subcommand the settings window is opened.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUI(opts)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "settings file (default "+config.DefaultPath()+")")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log verbosity: debug|info|warning|error (overrides settings)")
	cmd.PersistentFlags().StringVar(&opts.logFormat, "log-format", "", "log format: text|json (overrides settings)")
	cmd.PersistentFlags().StringVar(&opts.backend, "backend", "", "input backend: auto|wayland|x11|windows (overrides settings)")
	cmd.PersistentFlags().StringVar(&opts.devicePath, "device", "", "keyboard event device to read hotkeys from, e.g. /dev/input/event4 (wayland only)")

	cmd.AddCommand(newUICommand(opts))
	cmd.AddCommand(newRunCommand(opts))
	cmd.AddCommand(newTrayCommand(opts))
	cmd.AddCommand(newListDevicesCommand(opts))
	cmd.AddCommand(newConfigCommand(opts))
	cmd.AddCommand(newVersionCommand())

	return cmd
}

func newUICommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "ui",
		Short: "Open the settings window",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUI(opts)
		},
	}
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "autojoggie %s\n", version)
		},
	}
}

func (o *rootOptions) settingsPath() string {
	if path := strings.TrimSpace(o.configPath); path != "" {
		return path
	}
	return config.DefaultPath()
}

// loadSettings reads the settings file and applies the persistent flag
// overrides on top of it.
func (o *rootOptions) loadSettings() (config.Settings, error) {
	settings, err := config.Load(o.settingsPath())
	if err != nil {
		return config.Settings{}, err
	}
	if o.logLevel != "" {
		settings.LogLevel = o.logLevel
	}
	if o.logFormat != "" {
		settings.LogFormat = o.logFormat
	}
	if o.backend != "" {
		settings.Backend = strings.ToLower(strings.TrimSpace(o.backend))
	}
	if err := settings.Validate(); err != nil {
		return config.Settings{}, err
	}
	return settings, nil
}

// newLogger builds the process logger. DEBUG=1 forces debug output.
func newLogger(settings config.Settings, out io.Writer, sink func(line string)) (*slog.Logger, error) {
	level := settings.LogLevel
	if debugLogsEnabled() {
		level = "debug"
	}
	return logging.New(logging.Options{
		Level:  level,
		Format: settings.LogFormat,
		Output: out,
		Sink:   sink,
	})
}

func debugLogsEnabled() bool {
	return strings.TrimSpace(os.Getenv("DEBUG")) == "1"
}

// openSession loads settings, opens the configured backend and wires the
// engine and hotkeys to it.
func openSession(opts *rootOptions, out io.Writer, sink func(line string)) (*session, *slog.Logger, error) {
	settings, err := opts.loadSettings()
	if err != nil {
		return nil, nil, err
	}
	logger, err := newLogger(settings, out, sink)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", config.ErrInvalidConfiguration, err)
	}

	rt, err := openRuntime(settings.Backend, opts.devicePath, logger)
	if err != nil {
		return nil, nil, err
	}
	s, err := newSession(rt, settings, opts.settingsPath(), logger)
	if err != nil {
		rt.Stop()
		return nil, nil, err
	}
	return s, logger, nil
}

func isPermissionError(err error) bool {
	return errors.Is(err, os.ErrPermission) || errors.Is(err, syscall.EPERM) || errors.Is(err, syscall.EACCES)
}

// exitCode maps a command error to the process status: 2 for bad settings or
// flags, 1 for everything else.
func exitCode(err error) int {
	if err == nil {
		return 0
	}
	if errors.Is(err, config.ErrInvalidConfiguration) {
		return 2
	}
	return 1
}

func describeError(err error) string {
	if isPermissionError(err) {
		return permissionDeniedHint()
	}
	return err.Error()
}

func run(args []string, stdout, stderr io.Writer) int {
	cmd := newRootCommand()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(stderr, describeError(err))
		return exitCode(err)
	}
	return 0
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}
