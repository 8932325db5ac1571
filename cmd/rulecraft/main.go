// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"fmt"
	"os"

	"rulecraft/internal/cli"
)

func main() {
	rootCmd := cli.NewRootCommand()

	if err := rootCmd.Execute(); err != nil {
		// Cobra's SilenceErrors leaves printing to us, avoiding a doubled
		// error line.
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
