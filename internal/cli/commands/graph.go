// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"rulecraft/internal/ruleset"
	"rulecraft/internal/scheduler"
	"rulecraft/pkg/node"
)

// NewGraphCommand returns the `rulecraft graph` command: resolve a
// (subject, product) pair the same way `resolve` does, but instead of
// printing the result, record every (node, dependency) edge of each Step
// that returned Waiting, then dump those edges as a DOT graph.
func NewGraphCommand() *cobra.Command {
	var rulesetPath string
	var subjectType string
	var subjectValue string
	var product string

	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Dump the realized node dependency graph as DOT",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if rulesetPath == "" {
				rulesetPath = ruleset.DefaultConfigPath()
			}
			if subjectType == "" || subjectValue == "" || product == "" {
				return fmt.Errorf("graph: --subject-type, --subject and --product are required")
			}

			reg, err := ruleset.LoadAndCompile(rulesetPath)
			if err != nil {
				return fmt.Errorf("loading %s: %w", rulesetPath, err)
			}

			host, inv := newDemoHost()
			sched := scheduler.New(reg, host, inv)

			edges := newEdgeSet()
			sched.SetOnStep(func(n node.Node, state node.State) {
				if state.Kind != node.StateWaiting {
					return
				}
				for _, dep := range state.Waiting {
					edges.add(n.String(), dep.String())
				}
			})

			subject := host.Put(ruleset.Name(subjectType), subjectValue)
			if _, err := sched.ResolveProduct(cmd.Context(), subject, ruleset.Name(product), nil); err != nil {
				return fmt.Errorf("resolving %s for %s: %w", product, subjectValue, err)
			}

			fmt.Fprintln(out, "digraph rulecraft {")
			for _, e := range edges.ordered() {
				fmt.Fprintf(out, "  %q -> %q;\n", e.from, e.to)
			}
			fmt.Fprintln(out, "}")
			return nil
		},
	}

	cmd.Flags().StringVarP(&rulesetPath, "ruleset", "r", "", "path to the ruleset file (default: rulecraft.yml)")
	cmd.Flags().StringVar(&subjectType, "subject-type", "", "name of the subject's type, as it appears in the ruleset")
	cmd.Flags().StringVar(&subjectValue, "subject", "", "the subject's literal value")
	cmd.Flags().StringVar(&product, "product", "", "name of the product to resolve, as it appears in the ruleset")

	return cmd
}

type edge struct{ from, to string }

// edgeSet dedupes edges while preserving the order they were first seen in,
// so a DOT dump is deterministic across runs of the same ruleset.
type edgeSet struct {
	seen  map[edge]bool
	order []edge
}

func newEdgeSet() *edgeSet {
	return &edgeSet{seen: make(map[edge]bool)}
}

func (s *edgeSet) add(from, to string) {
	e := edge{from: from, to: to}
	if s.seen[e] {
		return
	}
	s.seen[e] = true
	s.order = append(s.order, e)
}

func (s *edgeSet) ordered() []edge {
	return s.order
}
