package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/sakif/component-playground/internal/playground"
	"github.com/sakif/component-playground/internal/server"
	"github.com/sakif/component-playground/internal/watcher"
)

func newWatchCommand(a *app) *cobra.Command {
	var (
		componentType string
		asHTML        bool
		delay         time.Duration
	)

	cmd := &cobra.Command{
		Use:   "watch <file>",
		Short: "Re-render a source file every time it is saved",
		Long: `Watch a file and render it on every save, the way the editor page does
while typing. Each render prints one status line; a failed render is
followed by one "report" line. Stops on Ctrl+C.

Example:
  playground watch demo.js --type card`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := a.load(cmd)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			core, err := server.NewCore(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer core.Close()

			w, err := watcher.New(args[0], delay, logger)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			session, err := playground.NewSession(ctx, playground.Options{
				Engine:     core.Engine,
				Registry:   core.Registry,
				EntryPoint: core.Renderer.EntryPoint(),
				Samples:    core.Samples,
				Logger:     logger,
			}, playground.SenderFunc(func(_ context.Context, ev playground.Event) error {
				return printEvent(out, ev, asHTML)
			}))
			if err != nil {
				return err
			}
			defer session.Close()

			logger.Info("watching for changes", slog.String("path", w.Path()), slog.String("session", session.ID()))
			err = w.Run(ctx, func(src string) {
				session.Edit(componentType, src)
			})
			if ctx.Err() != nil {
				return nil
			}
			return err
		},
	}

	f := cmd.Flags()
	f.StringVarP(&componentType, "type", "t", "", "component type the source demonstrates")
	f.BoolVar(&asHTML, "html", false, "print the rendered HTML after each status line")
	f.DurationVar(&delay, "delay", watcher.DefaultDelay, "wait this long after the last change before rendering")
	return cmd
}

// printEvent writes one session event in a form meant for a terminal.
func printEvent(out io.Writer, ev playground.Event, asHTML bool) error {
	switch ev.Type {
	case playground.EventRender:
		line := fmt.Sprintf("[%s]", ev.State)
		if ev.Result != nil && ev.Result.Failed() {
			line += fmt.Sprintf(" %s: %s", ev.Result.Error.Name, ev.Result.Error.Message)
		}
		if _, err := fmt.Fprintln(out, line); err != nil {
			return err
		}
		if asHTML {
			_, err := fmt.Fprintln(out, ev.HTML)
			return err
		}
	case playground.EventReport:
		_, err := fmt.Fprintf(out, "report: %s error (%s)\n", ev.Error.Kind, ev.Error.Name)
		return err
	}
	return nil
}
