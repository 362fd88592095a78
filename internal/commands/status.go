package commands

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/zipaJopa/PAJ/internal/output"
)

// NewStatusCmd creates the status command, which reports the notification
// server's health.
func NewStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:           "status",
		Short:         "Check the voice notification server",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
			defer cancel()

			client := newRelayClient(cmd)
			health, err := client.Health(ctx)
			if err != nil {
				_ = output.PrintError(err)
				return printedError{err}
			}
			return output.PrintSuccess(health)
		},
	}
}
