package commands

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/zipaJopa/PAJ/internal/output"
	"github.com/zipaJopa/PAJ/internal/relay"
)

// NewNotifyCmd creates the notify command for sending a notification from
// the command line.
func NewNotifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "notify",
		Short:         "Send a notification through the voice server",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()

			title, _ := cmd.Flags().GetString("title")
			message, _ := cmd.Flags().GetString("message")
			voiceEnabled, _ := cmd.Flags().GetBool("voice")
			priority, _ := cmd.Flags().GetString("priority")
			voiceID, _ := cmd.Flags().GetString("voice-id")
			rate, _ := cmd.Flags().GetFloat64("rate")

			client := newRelayClient(cmd)
			err := client.Notify(ctx, relay.Payload{
				Title:        title,
				Message:      message,
				VoiceEnabled: voiceEnabled,
				Priority:     priority,
				VoiceID:      voiceID,
				Rate:         rate,
			})
			if err != nil {
				_ = output.PrintError(err)
				return printedError{err}
			}

			type result struct {
				Message string `json:"message"`
			}
			return output.PrintSuccess(result{Message: "notification sent"})
		},
	}

	cmd.Flags().String("title", "", "Notification title")
	cmd.Flags().StringP("message", "m", "Task completed", "Notification message")
	cmd.Flags().Bool("voice", true, "Speak the message aloud")
	cmd.Flags().String("priority", relay.PriorityNormal, "Priority: low, normal or high")
	cmd.Flags().String("voice-id", "", "ElevenLabs voice ID override")
	cmd.Flags().Float64("rate", 0, "Speech rate in words per minute (100-500)")
	return cmd
}
