package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newBranchesCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "branches [prefix]",
		Short: "List branches, e.g. 'documents/' or 'archives/Report/'",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prefix := ""
			if len(args) == 1 {
				prefix = args[0]
			}
			return g.withEnv(func(e *env) error {
				branches, err := e.repo.ListBranches(prefix)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				for _, b := range branches {
					fmt.Fprintf(out, "%s %s\n", color.YellowString(b.Head.Short()), b.Name)
				}
				return nil
			})
		},
	}
}
