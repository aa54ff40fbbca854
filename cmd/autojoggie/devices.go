package main

import (
	"github.com/spf13/cobra"
)

func newListDevicesCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list-devices",
		Short: "Print the input devices the backend can read hotkeys from",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := opts.loadSettings()
			if err != nil {
				return err
			}
			return listInputDevices(cmd.OutOrStdout(), settings.Backend)
		},
	}
}
