package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/porcuspine/AutoJoggie/internal/config"
	"github.com/porcuspine/AutoJoggie/internal/status"

	"github.com/spf13/cobra"
)

const statusInterval = time.Second

type runOptions struct {
	clicks      string
	wait        string
	jitter      string
	doubleClick bool
	quiet       bool
}

func newRunCommand(opts *rootOptions) *cobra.Command {
	runOpts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start clicking immediately without a window",
		Long: `Start clicking with the saved settings, optionally overridden by flags.
The command returns when the clicks are used up, the stop hotkey is pressed,
or on Ctrl+C.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()
			return runHeadless(ctx, opts, runOpts, cmd)
		},
	}

	cmd.Flags().StringVarP(&runOpts.clicks, "clicks", "n", "", "number of clicks, 0 or empty runs until stopped")
	cmd.Flags().StringVarP(&runOpts.wait, "wait", "w", "", "guaranteed wait between clicks in seconds")
	cmd.Flags().StringVarP(&runOpts.jitter, "jitter", "j", "", "maximum random extra wait in seconds")
	cmd.Flags().BoolVar(&runOpts.doubleClick, "double-click", true, "click twice per cycle")
	cmd.Flags().BoolVarP(&runOpts.quiet, "quiet", "q", false, "do not print the status line")
	return cmd
}

// applyFlags overlays the flags that were set on the saved form values.
func (o *runOptions) applyFlags(cmd *cobra.Command, form config.Form) config.Form {
	if cmd.Flags().Changed("clicks") {
		form.Clicks = o.clicks
	}
	if cmd.Flags().Changed("wait") {
		form.Wait = o.wait
	}
	if cmd.Flags().Changed("jitter") {
		form.Jitter = o.jitter
	}
	if cmd.Flags().Changed("double-click") {
		form.DoubleClick = o.doubleClick
	}
	return form
}

func runHeadless(ctx context.Context, opts *rootOptions, runOpts *runOptions, cmd *cobra.Command) error {
	s, logger, err := openSession(opts, cmd.ErrOrStderr(), nil)
	if err != nil {
		return err
	}
	defer s.Close()

	form := runOpts.applyFlags(cmd, s.Settings().Form())
	if err := s.StartWithForm(form); err != nil {
		return err
	}
	logger.Info("Clicking started; press the stop hotkey or Ctrl+C to end")

	out := cmd.OutOrStdout()
	if runOpts.quiet {
		out = io.Discard
	}
	return watchEngine(ctx, s, out)
}

// watchEngine prints the status line until the engine goes inactive or ctx
// is cancelled.
func watchEngine(ctx context.Context, s *session, out io.Writer) error {
	ticker := time.NewTicker(statusInterval)
	defer ticker.Stop()

	last := ""
	for {
		snap := s.engine.Snapshot()
		if !snap.Active {
			fmt.Fprintln(out, status.Inactive)
			return nil
		}
		if line := status.Line(snap); line != last {
			fmt.Fprintln(out, line)
			last = line
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
