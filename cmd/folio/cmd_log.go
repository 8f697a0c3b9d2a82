package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newLogCmd(g *globals) *cobra.Command {
	var oneline bool
	var archived bool
	var limit int

	cmd := &cobra.Command{
		Use:   "log <type> <id>",
		Short: "Show the versions of a document, newest first",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.withEnv(func(e *env) error {
				doc, err := openDocument(e, args[0], args[1], "", archived)
				if err != nil {
					return err
				}
				entries, err := doc.Versions(limit)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				for _, entry := range entries {
					c := entry.Commit
					subject, _, _ := strings.Cut(c.Message, "\n")
					if oneline {
						fmt.Fprintf(out, "%s %s\n", color.YellowString(entry.Hash.Short()), subject)
						continue
					}
					fmt.Fprintf(out, "%s\n", color.YellowString("commit %s", entry.Hash))
					fmt.Fprintf(out, "Author: %s\n", c.Author.Identity())
					fmt.Fprintf(out, "Date:   %s\n", time.Unix(c.Author.When, 0).UTC().Format("2006-01-02 15:04:05"))
					fmt.Fprintln(out)
					for _, line := range strings.Split(strings.TrimRight(c.Message, "\n"), "\n") {
						fmt.Fprintf(out, "    %s\n", line)
					}
					fmt.Fprintln(out)
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&oneline, "oneline", false, "compact one-line format")
	cmd.Flags().BoolVar(&archived, "archive", false, "show the archive branch")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum number of versions to show")
	return cmd
}
