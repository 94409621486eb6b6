// Command server runs the WhatsApp medical intake assistant.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"intake-assistant/internal/config"
)

// Populated by the root command before any subcommand runs.
var (
	cfg    *config.Config
	logger *slog.Logger
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "server",
		Short: "WhatsApp medical intake assistant",
		Long: `server answers Twilio WhatsApp webhooks, walks each patient through
language selection and a short intake questionnaire, then hands the
conversation to a language model and stores the dialogue as the patient's
medical history.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setup()
		},
	}

	root.AddCommand(newServeCmd())
	root.AddCommand(newMigrateCmd())
	root.AddCommand(newSummarizeCmd())
	root.AddCommand(newWatchCmd())

	return root
}

// setup loads .env and the environment, then installs the JSON logger.
func setup() error {
	envErr := godotenv.Load()

	var err error
	cfg, err = config.Load()
	if err != nil {
		return err
	}

	logger = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	slog.SetDefault(logger)

	if envErr != nil {
		logger.Debug("No .env file found, using environment variables")
	}
	return nil
}

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
