package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/odvcencio/folio/pkg/repo"
)

type reflogReader interface {
	ReadReflog(ref string, limit int) ([]repo.ReflogEntry, error)
}

func newReflogCmd(g *globals) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "reflog <branch>",
		Short: "Show the update history of a branch",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref, err := repo.BranchRef(args[0])
			if err != nil {
				return err
			}
			return g.withEnv(func(e *env) error {
				logs, ok := e.repo.Refs.(reflogReader)
				if !ok {
					return fmt.Errorf("reflog: %s backend keeps no reflog", e.cfg.Repository.Backend)
				}
				entries, err := logs.ReadReflog(ref, limit)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				for _, entry := range entries {
					ts := time.Unix(entry.Timestamp, 0).UTC().Format(time.RFC3339)
					fmt.Fprintf(out, "%s %s %s %s\n", entry.NewHash.Short(), ts, entry.Who, entry.Reason)
				}
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum entries to show")
	return cmd
}
