package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/odvcencio/folio/pkg/document"
	"github.com/odvcencio/folio/pkg/object"
)

func newArchiveCmd(g *globals) *cobra.Command {
	var at string
	var opts document.ArchiveOptions

	cmd := &cobra.Command{
		Use:   "archive <type> <id>",
		Short: "Snapshot a document onto its archive branch",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Version = object.Hash(at)
			return g.withEnv(func(e *env) error {
				h, err := e.manager.Archive(args[0], args[1], opts)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s as %s\n",
					color.GreenString("archived"), args[0], args[1], h.Short())
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&at, "version", "", "live commit to archive (default: latest)")
	bindAuthorFlags(cmd, &opts.Author, &opts.Message)
	return cmd
}
