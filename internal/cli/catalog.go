package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sakif/component-playground/internal/server"
	"github.com/sakif/component-playground/internal/ui"
)

func newBindingsCommand(a *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "bindings",
		Short: "List the identifiers preview code may use",
		Long: `List every name preview code can reference without importing it, in
the order they are passed to the code. Any other identifier is a reference
error.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, logger, err := a.load(cmd)
			if err != nil {
				return err
			}
			reg, err := ui.NewRegistry(ui.SlogTracker{Logger: logger})
			if err != nil {
				return err
			}

			infos := ui.Describe(reg)
			if asJSON {
				return writeIndentedJSON(cmd.OutOrStdout(), infos)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tKIND\tTAG")
			for _, info := range infos {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", info.Name, info.Kind, info.Tag)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")
	return cmd
}

func newSamplesCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "samples [componentType]",
		Short: "List samples, or print the source of one",
		Long: `Without arguments, list the starter samples. With a component type,
print that sample's source, ready to pipe into "playground render -".`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := a.load(cmd)
			if err != nil {
				return err
			}
			samples, err := server.LoadSamples(cfg.Server.SamplesFile)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(args) == 1 {
				s, err := samples.Get(args[0])
				if err != nil {
					return err
				}
				_, err = io.WriteString(out, s.Source)
				return err
			}

			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "TYPE\tTITLE\tDESCRIPTION")
			for _, s := range samples.List() {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", s.ComponentType, s.Title, s.Description)
			}
			return tw.Flush()
		},
	}
	return cmd
}

func writeIndentedJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
