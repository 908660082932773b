package main

import (
	"github.com/spf13/cobra"

	"dataframe-gateway/internal/logging"
)

// version is set at build time via -ldflags.
var version = "dev"

type rootFlags struct {
	logLevel  string
	logFormat string
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:   "dfload",
		Short: "Load dataframes from HTTP sources without running the gateway",
		Long: "dfload reads a source configuration file, fetches every schema it declares\n" +
			"and prints the resulting dataframes.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			HiddenDefaultCmd: true,
		},
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.Init(logging.ParseLevel(flags.logLevel), flags.logFormat, cmd.ErrOrStderr())
		},
	}

	cmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().StringVar(&flags.logFormat, "log-format", "text", "Log format (text, json)")

	cmd.AddCommand(newLoadCmd())
	cmd.AddCommand(newParsersCmd())
	return cmd
}
