package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/qtikit/pkg/pipeline"
)

// fmtCommand creates the fmt command. It re-marshals a document, which
// normalises namespaces, attribute order and indentation.
func (c *CLI) fmtCommand() *cobra.Command {
	var (
		output     string
		compactXML bool
		version    string
	)

	cmd := &cobra.Command{
		Use:   "fmt <file>",
		Short: "Rewrite a QTI document in canonical form",
		Long: `Load a QTI document and write it back as XML.

Attributes that equal their default are dropped and the root element is
given the namespace and schema location of the document version.

Examples:
  qtikit fmt item.xml
  qtikit fmt item.xml -o item.xml
  qtikit fmt --version 2.2 item.xml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)

			data, err := readInput(args[0])
			if err != nil {
				return err
			}
			runner, err := c.newRunner(ctx, false)
			if err != nil {
				return err
			}
			defer runner.Close()

			result, err := runner.Execute(ctx, data, pipeline.Options{
				Source:    args[0],
				Version:   version,
				Formatted: !compactXML,
				Formats:   []string{pipeline.FormatXML},
				Logger:    logger,
			})
			if err != nil {
				printProblems(err)
				return err
			}
			if err := writeOutput(output, result.Artifacts[pipeline.FormatXML]); err != nil {
				return err
			}
			if output != "" && output != "-" {
				printSuccess("Formatted %s", args[0])
				printFile(output)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (stdout if empty)")
	cmd.Flags().BoolVar(&compactXML, "compact-xml", false, "write XML without indentation")
	cmd.Flags().StringVar(&version, "version", "", "QTI version to write (default: keep the input version)")

	return cmd
}
