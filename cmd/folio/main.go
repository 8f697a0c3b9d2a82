package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const version = "folio 0.1.0-dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	g := &globals{}
	root := &cobra.Command{
		Use:           "folio",
		Short:         "Versioned document store on the Git object model",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	g.bind(root)

	root.AddCommand(newVersionCmd())
	root.AddCommand(newInitCmd(g))
	root.AddCommand(newCreateCmd(g))
	root.AddCommand(newShowCmd(g))
	root.AddCommand(newEditCmd(g))
	root.AddCommand(newArchiveCmd(g))
	root.AddCommand(newLogCmd(g))
	root.AddCommand(newDiffCmd(g))
	root.AddCommand(newRenderCmd(g))
	root.AddCommand(newBranchesCmd(g))
	root.AddCommand(newReflogCmd(g))
	root.AddCommand(newServeCmd(g))
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	}
}
