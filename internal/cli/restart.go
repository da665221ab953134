package cli

import (
	"github.com/spf13/cobra"

	"github.com/Paintersrp/rstrtr/internal/control"
)

func newRestartCmd(ctx *context) *cobra.Command {
	return &cobra.Command{
		Use:   "restart",
		Short: "Signal the running supervisor to restart its command",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := ctx.settings()
			if err != nil {
				return err
			}
			return control.Signal(settings.ControlPath)
		},
	}
}
