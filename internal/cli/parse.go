package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/qtikit/pkg/pipeline"
)

// parseOpts holds the command-line flags for the parse command.
type parseOpts struct {
	noCache bool // skip the stream cache entirely
	refresh bool // ignore cached streams but write new ones
	kinds   int  // number of kinds to list
}

// parseCommand creates the parse command. It loads a document and prints
// what the component graph contains.
func (c *CLI) parseCommand() *cobra.Command {
	opts := parseOpts{kinds: 10}

	cmd := &cobra.Command{
		Use:   "parse <file>",
		Short: "Load a QTI document and print statistics",
		Long: `Load a QTI document and print statistics about its component graph.

The compact stream of every loaded document is cached under the hash of its
XML, so parsing the same file again skips XML unmarshalling.

Examples:
  qtikit parse item.xml
  qtikit parse --refresh item.xml
  cat item.xml | qtikit parse -`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)

			data, err := readInput(args[0])
			if err != nil {
				return err
			}

			runner, err := c.newRunner(ctx, opts.noCache)
			if err != nil {
				return err
			}
			defer runner.Close()

			spinner := newSpinnerWithContext(ctx, "Loading "+args[0]+"...")
			spinner.Start()
			prog := newProgress(logger)
			result, err := runner.Execute(ctx, data, pipeline.Options{
				Source:  args[0],
				Refresh: opts.refresh,
				Formats: []string{pipeline.FormatCompact},
				Logger:  logger,
			})
			if err != nil {
				spinner.StopWithError("Failed to load " + args[0])
				printProblems(err)
				return err
			}
			spinner.Stop()
			prog.done("Loaded "+result.Document.Root.ClassName(), "version", result.Document.Version)

			printSuccess("%s %s", StyleTitle.Render(result.Document.Root.ClassName()), StyleDim.Render("QTI "+result.Document.Version.String()))
			printKeyValue("Content hash", result.ContentHash[:12])
			printStats(result.Stats.Components, len(result.Stats.Kinds), len(result.Artifacts[pipeline.FormatCompact]), result.CacheInfo.LoadHit)
			printNewline()
			fmt.Println(kindTable(result.Stats.Kinds, opts.kinds))
			printNewline()
			printNextStep("Browse the graph", "qtikit inspect "+args[0])
			return nil
		},
	}

	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the stream cache")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "ignore cached streams")
	cmd.Flags().IntVar(&opts.kinds, "kinds", opts.kinds, "number of kinds to list (0 for all)")

	return cmd
}
