package main

/*
License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2022 Norbert Pillmayer <norbert@pillmayer.com>

*/

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extstyle",
		Short: "Apply extended-selector style rules to HTML documents",
		Long: `extstyle applies style rules written with extended CSS selectors
(:properties and friends) to an HTML document and prints the result.
The engine normally runs against a live tree; this tool performs a
single offline pass, which is useful for inspecting what a rule set
would do to a page.`,
		SilenceUsage: true,
	}
	cmd.AddCommand(newApplyCommand())
	cmd.AddCommand(newQueryCommand())
	return cmd
}
