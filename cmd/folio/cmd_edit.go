package main

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/odvcencio/folio/pkg/document"
	"github.com/odvcencio/folio/pkg/object"
	"github.com/odvcencio/folio/pkg/repo"
)

func newEditCmd(g *globals) *cobra.Command {
	var at string
	var opts document.EditOptions

	cmd := &cobra.Command{
		Use:   "edit <type> <id> [file]",
		Short: "Replace a document resource with the content of file (stdin by default)",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				content []byte
				err     error
			)
			if len(args) == 3 && args[2] != "-" {
				content, err = os.ReadFile(args[2])
			} else {
				content, err = io.ReadAll(cmd.InOrStdin())
			}
			if err != nil {
				return fmt.Errorf("read content: %w", err)
			}

			return g.withEnv(func(e *env) error {
				res, err := e.manager.Edit(args[0], args[1], object.Hash(at), content, opts)
				if err != nil {
					return err
				}
				if res.Conflict {
					return fmt.Errorf("edit %s %s: %w: %s", args[0], args[1], repo.ErrConflict, res.Message)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", color.GreenString(res.Commit.Short()), res.Message)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&at, "version", "", "commit the edit is based on (default: latest)")
	cmd.Flags().StringVar(&opts.Path, "path", "", "resource to replace (default: the type's index)")
	bindAuthorFlags(cmd, &opts.Author, &opts.Message)
	return cmd
}
