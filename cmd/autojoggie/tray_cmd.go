package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/porcuspine/AutoJoggie/internal/config"
	"github.com/porcuspine/AutoJoggie/internal/tray"

	"github.com/spf13/cobra"
)

func newTrayCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tray",
		Short: "Run from the system tray",
		Long: `Run with a tray icon instead of a window. The menu starts, pauses and
stops clicking with the saved settings; the tooltip shows the status.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, logger, err := openSession(opts, cmd.ErrOrStderr(), nil)
			if err != nil {
				return err
			}
			defer s.Close()

			path := opts.settingsPath()
			t, err := tray.New(s.engine, func() config.StartParams {
				settings, err := config.Load(path)
				if err != nil {
					logger.Warn("Failed to reload settings, using previous values", "err", err)
					return s.Settings().StartParams()
				}
				return settings.StartParams()
			}, logger)
			if err != nil {
				return err
			}

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
			defer signal.Stop(sigCh)
			go func() {
				select {
				case <-sigCh:
					t.Quit()
				case <-t.Done():
				}
			}()

			t.Run()
			return nil
		},
	}
}
