package commands

import (
	"errors"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/zipaJopa/PAJ/internal/app"
	"github.com/zipaJopa/PAJ/internal/output"
)

// Execute runs the CLI application.
func Execute(version string) error {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, nil)))

	root := &cobra.Command{
		Use:           "paj",
		Short:         "Voice notifications and lifecycle hooks for AI coding sessions",
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			showVersion, _ := cmd.Flags().GetBool("version")
			if showVersion {
				type resp struct {
					Version string `json:"version"`
				}
				return output.PrintSuccess(resp{Version: version})
			}
			return cmd.Help()
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.EnsureConfigDir()
		},
	}

	root.PersistentFlags().String("server-url", "", "Override notification server base URL")
	root.Flags().BoolP("version", "v", false, "version for paj")

	root.AddCommand(NewHookCmd())
	root.AddCommand(NewServeCmd())
	root.AddCommand(NewNotifyCmd())
	root.AddCommand(NewStatusCmd())

	err := root.Execute()
	if err != nil {
		var pe printedError
		if !errors.As(err, &pe) {
			slog.Error("command failed", "error", err.Error())
		}
	}
	return err
}

// printedError marks errors that were already rendered to the user as JSON,
// so Execute doesn't log them a second time.
type printedError struct{ err error }

func (p printedError) Error() string { return p.err.Error() }
func (p printedError) Unwrap() error { return p.err }
