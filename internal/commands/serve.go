package commands

import (
	"log/slog"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/zipaJopa/PAJ/internal/app"
	"github.com/zipaJopa/PAJ/internal/server"
	"github.com/zipaJopa/PAJ/internal/speech"
	"github.com/zipaJopa/PAJ/internal/voice"
)

// NewServeCmd creates the serve command, which runs the local notification
// server in the foreground.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "serve",
		Short:         "Run the voice notification server",
		Long:          "Starts the local HTTP server that speaks and displays notifications.\nBinds to loopback only; configure ELEVENLABS_API_KEY in ~/.env for cloud synthesis.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.LoadHomeEnv(); err != nil {
				slog.Default().Warn("could not load ~/.env", "error", err)
			}

			port, _ := cmd.Flags().GetInt("port")
			if port == 0 {
				if p, err := strconv.Atoi(os.Getenv("PORT")); err == nil && p > 0 {
					port = p
				}
			}

			defaultVoice := os.Getenv("ELEVENLABS_VOICE_ID")
			if defaultVoice == "" {
				settings, err := app.LoadSettings()
				if err == nil && settings.DefaultVoiceID != "" {
					defaultVoice = settings.DefaultVoiceID
				}
			}
			if defaultVoice == "" {
				defaultVoice = voice.DefaultVoiceID
			}

			engine := speech.NewEngine(speech.Config{
				APIKey:         os.Getenv("ELEVENLABS_API_KEY"),
				DefaultVoiceID: defaultVoice,
				FallbackVoice:  os.Getenv("PAJ_FALLBACK_VOICE"),
			})

			srv := server.NewServer(server.Config{
				Port:           port,
				ServiceName:    "PAJ",
				DefaultVoiceID: defaultVoice,
			}, engine)

			return srv.Start()
		},
	}

	cmd.Flags().Int("port", 0, "Port to listen on (default 8888, or PORT env)")
	return cmd
}
