package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/heshanpadmasiri/cy2pw/pageobject"
)

// NewAnalyzeCmd creates the analyze subcommand.
func NewAnalyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze <file>",
		Short: "Classify the methods of a page-object class",
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
			r, err := pageobject.Analyze(src, args[0], cfg.Analyzer())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			RenderPageObject(out, r)

			if show, _ := cmd.Flags().GetBool("convert"); !show || !r.IsPageObject {
				return nil
			}
			converted := pageobject.Transform(r, cfg.Transformer())
			fmt.Fprintln(out)
			fmt.Fprint(out, converted.Code)
			for _, m := range converted.Methods {
				if !m.Success {
					fmt.Fprintf(out, "method %s failed to convert\n", m.Name)
				}
			}
			for _, warning := range converted.Warnings {
				fmt.Fprintln(out, "warning: "+warning.String())
			}
			return nil
		},
	}
	cmd.Flags().Bool("convert", false, "Also print the converted class")
	return cmd
}
