package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sakif/component-playground/internal/server"
)

// errPreviewFailed makes render exit non-zero after printing a failed result,
// so scripts can check sample code without parsing the output.
var errPreviewFailed = errors.New("preview failed")

func newRenderCommand(a *app) *cobra.Command {
	var (
		componentType string
		asHTML        bool
	)

	cmd := &cobra.Command{
		Use:   "render <file|->",
		Short: "Render a source file once and print the result",
		Long: `Evaluate a component demo and print the result as JSON, or with --html
the markup the playground would display. Reads stdin when the file is "-".

Exits with status 1 when the preview fails; the error is still printed.

Examples:
  playground render demo.js --type button
  cat demo.js | playground render - --html`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := a.load(cmd)
			if err != nil {
				return err
			}
			src, err := readSource(cmd, args[0])
			if err != nil {
				return err
			}

			core, err := server.NewCore(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer core.Close()

			rendered, err := core.Renderer.Render(cmd.Context(), componentType, src)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asHTML {
				fmt.Fprintln(out, rendered.HTML)
			} else if err := writeIndentedJSON(out, rendered.Result); err != nil {
				return err
			}

			if rendered.Result.Failed() {
				return errPreviewFailed
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&componentType, "type", "t", "", "component type the source demonstrates")
	cmd.Flags().BoolVar(&asHTML, "html", false, "print the rendered HTML instead of the JSON result")
	return cmd
}
