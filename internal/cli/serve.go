package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sakif/component-playground/internal/server"
)

func newServeCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the web playground",
		Long: `Start the HTTP server: the editor page, the live preview WebSocket and
the JSON API. Stops gracefully on Ctrl+C or SIGTERM.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := a.load(cmd)
			if err != nil {
				return err
			}

			// SIGINT/SIGTERM cancel ctx, which makes Start shut down.
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			srv, err := server.New(ctx, cfg, logger)
			if err != nil {
				return err
			}
			return srv.Start(ctx)
		},
	}

	f := cmd.Flags()
	f.IntP("port", "p", 8080, "port to listen on")
	f.String("db", "data/playground.db", "SQLite database path")
	f.String("engine", "goja", "evaluation backend (goja, sandbox)")
	a.bind(f, "server.port", "port")
	a.bind(f, "database.path", "db")
	a.bind(f, "engine.backend", "engine")
	return cmd
}
