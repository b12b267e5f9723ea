package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/heshanpadmasiri/cy2pw/imports"
)

// NewImportsCmd creates the imports subcommand.
func NewImportsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "imports <file>",
		Short: "Show how the imports of a file are organized",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			src, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading %s: %w", args[0], err)
			}
			a := imports.Analyze(src, args[0], cfg.Imports())
			RenderImports(cmd.OutOrStdout(), a)
			return nil
		},
	}
}
