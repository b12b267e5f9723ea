// Package cmd implements the cy2pw CLI commands.
package cmd

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/heshanpadmasiri/cy2pw/config"
)

// NewRootCmd creates the root cy2pw command with all subcommands registered.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "cy2pw",
		Short:         "cy2pw - convert Cypress tests and page objects to Playwright",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	root.PersistentFlags().String("config", "", "Path to the configuration file (default ./"+config.FileName+")")
	root.PersistentFlags().BoolP("verbose", "v", false, "Log progress to stderr")

	root.AddCommand(NewConvertCmd())
	root.AddCommand(NewImportsCmd())
	root.AddCommand(NewAnalyzeCmd())
	root.AddCommand(NewMapCmd())
	root.AddCommand(NewStatusCmd())
	return root
}

// loadConfig reads the file named by --config, or Config.toml in the working
// directory.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		return config.Load(".")
	}
	return config.LoadFile(path)
}

func newLogger(cmd *cobra.Command) *slog.Logger {
	verbose, _ := cmd.Flags().GetBool("verbose")
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
}

func printLines(w io.Writer, lines []string) {
	for _, l := range lines {
		fmt.Fprintln(w, l)
	}
}
