// SPDX-License-Identifier: AGPL-3.0-or-later

/*
rulecraft is a Go library implementing the rule-resolution core of a
declarative build engine: a selector algebra, node state machine, and
rule registry evaluated lazily over a dependency graph.
*/

// Package cli wires together the rulecraft root Cobra command and its
// subcommands.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"rulecraft/internal/cli/commands"
)

// NewRootCommand constructs the rulecraft root Cobra command.
func NewRootCommand() *cobra.Command {
	version := os.Getenv("RULECRAFT_VERSION")
	if version == "" {
		version = "0.0.0-dev"
	}

	cmd := &cobra.Command{
		Use:           "rulecraft",
		Short:         "rulecraft – a declarative rule-resolution engine",
		Long:          "rulecraft loads a declarative ruleset and resolves products for subjects over a lazily-evaluated dependency graph.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "enable verbose (debug-level) logging")

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number of rulecraft",
		Run: func(cmd *cobra.Command, args []string) {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "rulecraft version %s\n", version)
		},
	})

	// Subcommands - lexicographic order by .Use for deterministic help output.
	cmd.AddCommand(commands.NewGraphCommand())
	cmd.AddCommand(commands.NewResolveCommand())
	cmd.AddCommand(commands.NewValidateCommand())

	return cmd
}
