package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/odvcencio/folio/pkg/document"
)

func newCreateCmd(g *globals) *cobra.Command {
	var opts document.CreateOptions

	cmd := &cobra.Command{
		Use:   "create <type> [id]",
		Short: "Create a document from its type's model",
		Long:  "Create a document from its type's model. A random id is generated when none is given.",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := uuid.NewString()
			if len(args) == 2 {
				id = args[1]
			}
			return g.withEnv(func(e *env) error {
				res, err := e.manager.Create(args[0], id, opts)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if !res.Created {
					fmt.Fprintf(out, "%s %s %s already exists at %s\n",
						color.YellowString("exists"), args[0], id, res.Commit.Short())
					return nil
				}
				fmt.Fprintf(out, "%s %s %s at %s\n",
					color.GreenString("created"), args[0], id, res.Commit.Short())
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&opts.ModelPath, "model", "", "model directory, overrides the type's model")
	bindAuthorFlags(cmd, &opts.Author, &opts.Message)
	return cmd
}

func bindAuthorFlags(cmd *cobra.Command, a *document.Author, message *string) {
	cmd.Flags().StringVar(&a.Name, "author", "", "author name")
	cmd.Flags().StringVar(&a.Email, "email", "", "author email")
	cmd.Flags().StringVarP(message, "message", "m", "", "commit message")
}
