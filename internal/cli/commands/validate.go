// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"rulecraft/internal/ruleset"
)

// NewValidateCommand returns the `rulecraft validate` command: load and
// compile a ruleset file, reporting any structural error without resolving
// anything against a host.
func NewValidateCommand() *cobra.Command {
	var rulesetPath string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Load and compile a ruleset file, reporting any errors",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if rulesetPath == "" {
				rulesetPath = ruleset.DefaultConfigPath()
			}

			reg, err := ruleset.LoadAndCompile(rulesetPath)
			if err != nil {
				return fmt.Errorf("validating %s: %w", rulesetPath, err)
			}

			products := reg.Products()
			fmt.Fprintf(out, "%s is valid: %d product(s) reachable\n", rulesetPath, len(products))
			for _, p := range products {
				fmt.Fprintf(out, "  %s\n", p)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&rulesetPath, "ruleset", "r", "", "path to the ruleset file (default: rulecraft.yml)")

	return cmd
}
