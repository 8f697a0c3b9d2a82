package main

import (
	"github.com/spf13/cobra"

	"github.com/odvcencio/folio/pkg/object"
)

func newRenderCmd(g *globals) *cobra.Command {
	var at string
	var archived bool
	var vars map[string]string

	cmd := &cobra.Command{
		Use:   "render <type> <id>",
		Short: "Render a document's index template",
		Long: `Render a document's index template. Values given with --set are
available in the template as {{.key}}; {{.ID}} and {{.Type}} are always set.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.withEnv(func(e *env) error {
				doc, err := openDocument(e, args[0], args[1], object.Hash(at), archived)
				if err != nil {
					return err
				}
				data := map[string]string{"ID": doc.ID, "Type": doc.Type.Name, "Version": string(doc.Version())}
				for k, v := range vars {
					data[k] = v
				}
				return doc.Render(cmd.OutOrStdout(), data)
			})
		},
	}

	cmd.Flags().StringVar(&at, "version", "", "commit to render (default: latest)")
	cmd.Flags().BoolVar(&archived, "archive", false, "render from the archive branch")
	cmd.Flags().StringToStringVar(&vars, "set", nil, "template value key=value (repeatable)")
	return cmd
}
