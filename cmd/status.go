package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/heshanpadmasiri/cy2pw/diagnostics"
	"github.com/heshanpadmasiri/cy2pw/ledger"
	"github.com/heshanpadmasiri/cy2pw/ui"
)

// NewStatusCmd creates the status subcommand.
func NewStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the latest conversion result of every file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			path := cfg.Ledger
			if cmd.Flags().Changed("ledger") {
				path, _ = cmd.Flags().GetString("ledger")
			}
			if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("no ledger at %s, run `cy2pw convert` first", path)
			}
			l, err := ledger.Open(path)
			if err != nil {
				return err
			}
			defer l.Close()

			entries, err := l.Latest(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			counts := map[diagnostics.Status]int{}
			for _, e := range entries {
				ui.StatusLine(out, e.Path, e.Status, e.Warnings)
				counts[e.Status]++
			}
			fmt.Fprintf(out, "%d files: %d ok, %d partial, %d failed\n",
				len(entries), counts[diagnostics.StatusSuccess], counts[diagnostics.StatusPartial], counts[diagnostics.StatusFailed])
			return nil
		},
	}
	cmd.Flags().String("ledger", "", "Path of the run ledger database")
	return cmd
}
