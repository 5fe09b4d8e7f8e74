// Package cli implements the playground command line.
//
// COMMANDS:
//
//	playground serve                 start the web playground
//	playground render button.js      render a file once and print the result
//	playground watch button.js       re-render a file every time it is saved
//	playground bindings              list the identifiers preview code may use
//	playground samples [type]        list samples, or print one sample's source
//
// Every command reads the same configuration (see internal/config). Flags
// are bound into viper, so --port and PLAYGROUND_SERVER_PORT set the same key.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/sakif/component-playground/internal/config"
	"github.com/sakif/component-playground/internal/logging"
)

// app is the state shared by every command of one invocation.
type app struct {
	v          *viper.Viper
	configFile string
}

// NewRootCommand builds the command tree. Each call returns an independent
// tree with its own viper instance, so tests can run commands side by side.
func NewRootCommand() *cobra.Command {
	a := &app{v: config.New()}

	root := &cobra.Command{
		Use:   "playground",
		Short: "Live preview playground for UI component code",
		Long: `Playground evaluates component demo code against a fixed set of UI
primitives and renders the result, in the browser or on the command line.

Quick Start:
  playground serve                      Start the web playground on :8080
  playground render demo.js --type card Render a file once
  playground watch demo.js              Re-render on every save`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.configFile, "config", "", "config file (default is ./playground.yaml)")
	pf.String("log-level", "info", "log level (debug, info, warn, error)")
	pf.String("log-format", "text", "log format (text, json)")
	a.bind(pf, "log.level", "log-level")
	a.bind(pf, "log.format", "log-format")

	root.AddCommand(
		newServeCommand(a),
		newRenderCommand(a),
		newWatchCommand(a),
		newBindingsCommand(a),
		newSamplesCommand(a),
	)
	return root
}

// Execute runs the command line and returns the process exit code.
func Execute(ctx context.Context) int {
	root := NewRootCommand()
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(root.ErrOrStderr(), "Error:", err)
		return 1
	}
	return 0
}

// bind ties a flag to a config key. Binding happens before any command runs,
// while the flag set is known to contain name.
func (a *app) bind(flags *pflag.FlagSet, key, name string) {
	if err := a.v.BindPFlag(key, flags.Lookup(name)); err != nil {
		panic(fmt.Sprintf("binding flag %s: %v", name, err))
	}
}

// load reads the configuration and builds the logger. Logs go to stderr so
// that stdout carries only command output.
func (a *app) load(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(a.v, a.configFile)
	if err != nil {
		return nil, nil, err
	}
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format, cmd.ErrOrStderr())
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

// readSource reads a file, or stdin when path is "-".
func readSource(cmd *cobra.Command, path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
