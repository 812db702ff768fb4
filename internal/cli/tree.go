package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/qtikit/pkg/pipeline"
)

// treeCommand creates the tree command. The output format follows the
// extension of the output file.
func (c *CLI) treeCommand() *cobra.Command {
	var (
		output   string
		detailed bool
		noCache  bool
	)

	cmd := &cobra.Command{
		Use:   "tree <file>",
		Short: "Draw the component graph of a document",
		Long: `Draw the component graph of a document as a Graphviz diagram or export it
as JSON nodes and edges.

The format is chosen by the output extension: .dot, .svg or .json.
Components shared by several parents appear once, highlighted.

Examples:
  qtikit tree item.xml -o item.svg
  qtikit tree item.xml -o item.dot --detailed
  qtikit tree item.qtc -o graph.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)

			format, err := treeFormat(output)
			if err != nil {
				return err
			}
			data, err := readInput(args[0])
			if err != nil {
				return err
			}
			runner, err := c.newRunner(ctx, noCache)
			if err != nil {
				return err
			}
			defer runner.Close()

			popts := pipeline.Options{
				Source:   args[0],
				Detailed: detailed,
				Formats:  []string{format},
				Logger:   logger,
			}
			spinner := newSpinnerWithContext(ctx, "Rendering "+format+"...")
			spinner.Start()
			doc, _, err := c.loadAny(ctx, runner, data, popts)
			if err != nil {
				spinner.Stop()
				printProblems(err)
				return err
			}
			artifacts, hit, err := runner.Render(ctx, doc, popts)
			spinner.Stop()
			if err != nil {
				return err
			}
			if err := writeOutput(output, artifacts[format]); err != nil {
				return err
			}

			status := "fresh"
			if hit {
				status = "cached"
			}
			printSuccess("Rendered %s %s", format, StyleDim.Render("("+status+")"))
			printFile(output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (.dot, .svg or .json)")
	cmd.Flags().BoolVar(&detailed, "detailed", false, "show attributes and text in node labels")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	_ = cmd.MarkFlagRequired("output")

	return cmd
}

// treeFormat maps an output path to a render format.
func treeFormat(path string) (string, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".dot", ".gv":
		return pipeline.FormatDOT, nil
	case ".svg":
		return pipeline.FormatSVG, nil
	case ".json":
		return pipeline.FormatJSON, nil
	default:
		return "", fmt.Errorf("unsupported output extension %q (use .dot, .svg or .json)", ext)
	}
}
