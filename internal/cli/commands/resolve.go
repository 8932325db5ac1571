// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"rulecraft/internal/ruleset"
	"rulecraft/internal/scheduler"
	"rulecraft/pkg/logging"
	"rulecraft/pkg/node"
)

// NewResolveCommand returns the `rulecraft resolve` command: load a
// ruleset, drive the reference scheduler to fixpoint for one
// (subject, product) pair against the in-memory demo host, and print the
// resulting Complete.
func NewResolveCommand() *cobra.Command {
	var rulesetPath string
	var subjectType string
	var subjectValue string
	var product string

	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Resolve a product for a subject against the in-memory demo host",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if rulesetPath == "" {
				rulesetPath = ruleset.DefaultConfigPath()
			}
			if subjectType == "" || subjectValue == "" || product == "" {
				return fmt.Errorf("resolve: --subject-type, --subject and --product are required")
			}

			reg, err := ruleset.LoadAndCompile(rulesetPath)
			if err != nil {
				return fmt.Errorf("loading %s: %w", rulesetPath, err)
			}

			verbose, _ := cmd.Flags().GetBool("verbose")
			logger := logging.NewLogger(verbose)

			host, inv := newDemoHost()
			sched := scheduler.New(reg, host, inv)
			sched.SetLogger(logger)

			subject := host.Put(ruleset.Name(subjectType), subjectValue)

			comp, err := sched.ResolveProduct(cmd.Context(), subject, ruleset.Name(product), nil)
			if err != nil {
				return fmt.Errorf("resolving %s for %s: %w", product, subjectValue, err)
			}

			fmt.Fprintf(out, "%s\n", comp.String())
			if comp.Kind == node.CompleteReturn {
				fmt.Fprintf(out, "value: %s\n", host.ToStr(comp.Value.Digest()))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&rulesetPath, "ruleset", "r", "", "path to the ruleset file (default: rulecraft.yml)")
	cmd.Flags().StringVar(&subjectType, "subject-type", "", "name of the subject's type, as it appears in the ruleset")
	cmd.Flags().StringVar(&subjectValue, "subject", "", "the subject's literal value")
	cmd.Flags().StringVar(&product, "product", "", "name of the product to resolve, as it appears in the ruleset")

	return cmd
}
