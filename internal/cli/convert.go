package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/qtikit/pkg/pipeline"
)

// convertOpts holds the command-line flags for the convert command.
type convertOpts struct {
	output    string
	to        string
	formatted bool
	version   string
}

// convertCommand creates the convert command. Input may be XML or a
// compact stream; the kind is detected from the content.
func (c *CLI) convertCommand() *cobra.Command {
	var opts convertOpts

	cmd := &cobra.Command{
		Use:   "convert <file>",
		Short: "Convert between QTI XML and the compact stream",
		Long: `Convert a document between QTI XML and the compact stream.

The input kind is detected from its content: compact streams start with a
variable assignment ($v0 = ...). Streams carry no QTI version, so converting
one to XML writes --version, the configured version, or 2.1.

Examples:
  qtikit convert item.xml -o item.qtc
  qtikit convert item.qtc -o item.xml --to xml
  qtikit convert item.xml --to compact --formatted`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)

			format, err := convertTarget(opts.to)
			if err != nil {
				return err
			}
			data, err := readInput(args[0])
			if err != nil {
				return err
			}
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if opts.version == "" {
				opts.version = cfg.Document.Version
			}
			if format == pipeline.FormatXML && !cmd.Flags().Changed("formatted") {
				opts.formatted = cfg.Document.Formatted
			}

			runner, err := c.newRunner(ctx, false)
			if err != nil {
				return err
			}
			defer runner.Close()

			popts := pipeline.Options{
				Source:    args[0],
				Version:   opts.version,
				Formatted: opts.formatted,
				Formats:   []string{format},
				Logger:    logger,
			}
			prog := newProgress(logger)
			doc, _, err := c.loadAny(ctx, runner, data, popts)
			if err != nil {
				printProblems(err)
				return err
			}
			artifacts, _, err := runner.Render(ctx, doc, popts)
			if err != nil {
				return err
			}
			if err := writeOutput(opts.output, artifacts[format]); err != nil {
				return err
			}
			prog.done("Converted "+args[0], "to", format)
			if opts.output != "" && opts.output != "-" {
				printFile(opts.output)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (stdout if empty)")
	cmd.Flags().StringVar(&opts.to, "to", pipeline.FormatCompact, "target: xml or compact")
	cmd.Flags().BoolVar(&opts.formatted, "formatted", false, "indent XML or write one instruction per line")
	cmd.Flags().StringVar(&opts.version, "version", "", "QTI version for XML output")

	return cmd
}

func convertTarget(to string) (string, error) {
	switch to {
	case pipeline.FormatXML, pipeline.FormatCompact:
		return to, nil
	}
	return "", fmt.Errorf("invalid target: %q (must be one of: xml, compact)", to)
}
