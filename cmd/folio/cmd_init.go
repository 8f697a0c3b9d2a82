package main

import (
	"fmt"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/odvcencio/folio/internal/config"
	"github.com/odvcencio/folio/pkg/badgerstore"
	"github.com/odvcencio/folio/pkg/repo"
)

func newInitCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "init [path]",
		Short: "Create an empty document repository",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.config()
			if err != nil {
				return err
			}
			path := cfg.RepositoryPath()
			if len(args) > 0 {
				path = args[0]
			}
			abs, err := filepath.Abs(path)
			if err != nil {
				return fmt.Errorf("resolve path: %w", err)
			}

			var r *repo.Repository
			switch cfg.Repository.Backend {
			case config.BackendBadger:
				r, err = badgerstore.OpenRepository(abs, repoOptions(cfg)...)
			default:
				r, err = repo.Init(abs, repoOptions(cfg)...)
			}
			if err != nil {
				return err
			}
			defer r.Close()

			fmt.Fprintf(cmd.OutOrStdout(), "%s %s repository in %s\n",
				color.GreenString("initialized"), cfg.Repository.Backend, abs)
			return nil
		},
	}
}
