package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/odvcencio/folio/pkg/document"
	"github.com/odvcencio/folio/pkg/object"
	"github.com/odvcencio/folio/pkg/repo"
)

func newShowCmd(g *globals) *cobra.Command {
	var at string
	var archived bool
	var list bool

	cmd := &cobra.Command{
		Use:   "show <type> <id> [path]",
		Short: "Print a document resource (the index by default)",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.withEnv(func(e *env) error {
				doc, err := openDocument(e, args[0], args[1], object.Hash(at), archived)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				p := doc.Type.IndexPath()
				if len(args) == 3 {
					p = args[2]
				}

				if list {
					dir := ""
					if len(args) == 3 {
						dir = args[2]
					}
					entries, err := doc.ReadDir(dir)
					if err != nil {
						return err
					}
					for _, entry := range entries {
						name := entry.Name
						if entry.IsDir() {
							name = color.BlueString(name + "/")
						}
						fmt.Fprintf(out, "%s %s\n", entry.Hash.Short(), name)
					}
					return nil
				}

				data, err := doc.Read(p)
				if err != nil {
					return err
				}
				_, err = out.Write(data)
				return err
			})
		},
	}

	cmd.Flags().StringVar(&at, "version", "", "commit to read (default: latest)")
	cmd.Flags().BoolVar(&archived, "archive", false, "read from the archive branch")
	cmd.Flags().BoolVarP(&list, "list", "l", false, "list the directory at path instead")
	return cmd
}

// openDocument opens a document that must exist.
func openDocument(e *env, typeName, id string, version object.Hash, archived bool) (*document.Document, error) {
	open := e.manager.Open
	if archived {
		open = e.manager.OpenArchive
	}
	doc, err := open(typeName, id, version)
	if err != nil {
		return nil, err
	}
	if !doc.Exists() {
		return nil, fmt.Errorf("%s %s: %w", typeName, id, repo.ErrNotFound)
	}
	return doc, nil
}
