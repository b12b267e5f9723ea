package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/heshanpadmasiri/cy2pw/config"
	"github.com/heshanpadmasiri/cy2pw/diagnostics"
	"github.com/heshanpadmasiri/cy2pw/ledger"
	"github.com/heshanpadmasiri/cy2pw/runner"
	"github.com/heshanpadmasiri/cy2pw/ui"
)

// NewConvertCmd creates the convert subcommand.
func NewConvertCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "convert [paths...]",
		Short: "Convert Cypress specs, page objects and support files",
		Long: "Convert every Cypress file under the given paths, or the working directory,\n" +
			"into Playwright. Files that need manual attention are marked with " + diagnostics.MarkerPrefix,
		RunE: runConvert,
	}
	f := cmd.Flags()
	f.String("out", "", "Directory the converted tree is written to (default the project directory)")
	f.Int("jobs", 0, "Number of files converted in parallel")
	f.Duration("timeout", 0, "Per-file conversion timeout")
	f.Bool("dry-run", false, "Report results without writing files")
	f.Bool("force", false, "Convert files the ledger reports as unchanged")
	f.Bool("no-assertions", false, "Leave should/and assertions for manual conversion")
	f.String("ledger", "", "Path of the run ledger database, \"off\" to disable")
	f.Bool("watch", false, "Keep running and convert files again when they change")
	return cmd
}

// applyFlags overrides configuration values with the flags that were set.
func applyFlags(cmd *cobra.Command, cfg *config.Config) {
	f := cmd.Flags()
	if f.Changed("jobs") {
		cfg.Jobs, _ = f.GetInt("jobs")
	}
	if f.Changed("timeout") {
		d, _ := f.GetDuration("timeout")
		cfg.Timeout = d.String()
	}
	if noAssertions, _ := f.GetBool("no-assertions"); noAssertions {
		cfg.ConvertAssertions = false
	}
	if f.Changed("ledger") {
		cfg.Ledger, _ = f.GetString("ledger")
	}
}

func runConvert(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	applyFlags(cmd, &cfg)

	f := cmd.Flags()
	opts := runner.Options{Root: ".", Logger: newLogger(cmd)}
	opts.OutDir, _ = f.GetString("out")
	opts.DryRun, _ = f.GetBool("dry-run")
	opts.Force, _ = f.GetBool("force")

	if cfg.Ledger != "" && cfg.Ledger != "off" && !opts.DryRun {
		l, err := ledger.Open(cfg.Ledger)
		if err != nil {
			return err
		}
		defer l.Close()
		opts.Ledger = l
	}

	r := runner.New(cfg, opts)
	out := cmd.OutOrStdout()
	show := func(reports []diagnostics.FileReport) {
		for _, report := range reports {
			ui.ReportLine(out, report)
		}
		ui.SummaryLine(out, reports)
	}

	if watch, _ := f.GetBool("watch"); watch {
		fmt.Fprintln(cmd.ErrOrStderr(), "watching for changes, press Ctrl-C to stop")
		return r.Watch(cmd.Context(), args, show)
	}

	reports, err := r.Run(cmd.Context(), args)
	if err != nil {
		return err
	}
	show(reports)
	failed := 0
	for _, report := range reports {
		if report.Status == diagnostics.StatusFailed {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files failed to convert", failed, len(reports))
	}
	return nil
}
