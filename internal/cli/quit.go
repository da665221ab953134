package cli

import (
	"github.com/spf13/cobra"

	"github.com/Paintersrp/rstrtr/internal/control"
)

func newQuitCmd(ctx *context) *cobra.Command {
	return &cobra.Command{
		Use:   "quit",
		Short: "Signal the running supervisor to stop its command and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := ctx.settings()
			if err != nil {
				return err
			}
			return control.Remove(settings.ControlPath)
		},
	}
}
