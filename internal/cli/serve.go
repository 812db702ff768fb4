package cli

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/matzehuels/qtikit/internal/server"
	"github.com/matzehuels/qtikit/pkg/cache"
	"github.com/matzehuels/qtikit/pkg/observability"
	"github.com/matzehuels/qtikit/pkg/observability/prom"
)

// serveCommand creates the serve command, which runs the HTTP API until
// interrupted.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr      string
		noMetrics bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Run the HTTP API for uploading documents and fetching their renderings.

Uploaded documents are kept in the configured cache. The "none" backend is
replaced by an in-memory cache so uploads can be fetched again.

Endpoints:
  POST   /v1/documents               upload QTI XML
  GET    /v1/documents/{id}          XML (?compact=true for one line)
  GET    /v1/documents/{id}/stream   compact stream
  GET    /v1/documents/{id}/graph.json
  GET    /v1/documents/{id}/tree.svg (?detailed=true)
  DELETE /v1/documents/{id}
  GET    /healthz
  GET    /metrics`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)

			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if cfg.Cache.Backend == cache.BackendNone {
				logger.Warn("cache backend none cannot hold uploads, using memory")
				cfg.Cache.Backend = cache.BackendMemory
			}

			opts := server.Options{
				Addr:         cfg.Server.Addr,
				ReadTimeout:  cfg.Server.ReadTimeout.Duration,
				WriteTimeout: cfg.Server.WriteTimeout.Duration,
				MaxBodySize:  cfg.Server.MaxBodySize,
				Formatted:    cfg.Document.Formatted,
			}
			if addr != "" {
				opts.Addr = addr
			}
			if !noMetrics {
				reg := prometheus.NewRegistry()
				reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
				hooks := prom.NewHooks(reg)
				observability.SetPipelineHooks(hooks)
				observability.SetCacheHooks(hooks)
				observability.SetHTTPHooks(hooks)
				defer observability.Reset()
				opts.Gatherer = reg
			}

			runner, err := c.newRunner(ctx, false)
			if err != nil {
				return err
			}
			defer runner.Close()

			logger.Info("serving", "addr", opts.Addr, "cache", cfg.Cache.Backend, "metrics", !noMetrics)
			return server.New(runner, logger, opts).Run(ctx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8080)")
	cmd.Flags().BoolVar(&noMetrics, "no-metrics", false, "disable the /metrics endpoint")

	return cmd
}
