package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/odvcencio/folio/pkg/rights"
	"github.com/odvcencio/folio/pkg/web"
)

func newServeCmd(g *globals) *cobra.Command {
	var addr string
	var readOnly bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the configured document types over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := g.open(false)
			if err != nil {
				return err
			}
			defer e.Close()

			if addr == "" {
				addr = e.cfg.Server.Addr
			}
			access := web.Access{}
			if readOnly {
				access.Write = rights.Never[*http.Request]()
				access.Archive = rights.Never[*http.Request]()
			}

			router := web.NewRouter(e.manager, web.WithLogger(e.logger))
			for _, t := range e.manager.Registry().Types() {
				if err := router.Register(t.Name, access); err != nil {
					return err
				}
			}
			srv := web.NewServer(addr, router.Handler())

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			errc := make(chan error, 1)
			go func() {
				e.logger.Info("serving documents", zap.String("addr", addr),
					zap.Int("types", len(e.manager.Registry().Types())))
				errc <- srv.ListenAndServe()
			}()

			select {
			case err := <-errc:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			e.logger.Info("shutting down")
			return srv.Shutdown(shutdownCtx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default: [server] addr)")
	cmd.Flags().BoolVar(&readOnly, "read-only", false, "reject edits, creations and archives")
	return cmd
}
