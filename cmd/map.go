package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/heshanpadmasiri/cy2pw/cypress"
	"github.com/heshanpadmasiri/cy2pw/jsast"
	"github.com/heshanpadmasiri/cy2pw/mapping"
)

// NewMapCmd creates the map subcommand.
func NewMapCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "map <statement>",
		Short: "Translate Cypress statements to Playwright",
		Long:  "Translate Cypress statements, e.g. cy2pw map \"cy.get('#go').click()\"",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if noAssertions, _ := cmd.Flags().GetBool("no-assertions"); noAssertions {
				cfg.ConvertAssertions = false
			}
			dialect := jsast.JavaScript
			if ts, _ := cmd.Flags().GetBool("ts"); ts {
				dialect = jsast.TypeScript
			}
			body := "{\n" + strings.Join(args, "\n") + "\n}"
			invocations, err := cypress.ParseBody(body, dialect, cfg.Parser())
			if err != nil {
				return err
			}
			r := mapping.NewMapper(cfg.Mapping()).MapAll(invocations)
			printLines(cmd.OutOrStdout(), r.Statements)
			return nil
		},
	}
	cmd.Flags().Bool("no-assertions", false, "Leave should/and assertions for manual conversion")
	cmd.Flags().Bool("ts", false, "Parse the statements as TypeScript")
	return cmd
}
