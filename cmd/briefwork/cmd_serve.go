package main

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/c360studio/briefwork/server"
)

// pinger is implemented by stores with a cheap liveness probe.
type pinger interface {
	Ping(ctx context.Context) error
}

func (c *cli) serveCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the extraction backend for browser clients",
		Long: `Run the HTTP backend that keeps provider credentials on the server.

Endpoints:
  POST /api/generate   extract a project context from {"prompt": "..."}
  GET  /healthz        liveness, including the session store
  GET  /metrics        Prometheus metrics`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(cmd.Context(), func(ctx context.Context, a *App) error {
				if addr == "" {
					addr = a.cfg.Server.Addr
				}

				reg := prometheus.NewRegistry()
				reg.MustRegister(
					collectors.NewGoCollector(),
					collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
				)
				client, err := a.llmClient(reg)
				if err != nil {
					return err
				}
				m, err := server.NewMetrics(reg)
				if err != nil {
					return err
				}

				srv := server.New(client,
					server.WithLogger(a.logger),
					server.WithGatherer(reg),
					server.WithMetrics(m),
					server.WithRequestTimeout(a.cfg.LLM.Timeout),
					server.WithHealthCheck(a.storeHealth),
				)
				c.printer().Success("Serving on %s (provider %s)", addr, client.Provider())
				return srv.ListenAndServe(ctx, addr)
			})
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from config, :8080)")
	return cmd
}

// storeHealth probes the session store.
func (a *App) storeHealth(ctx context.Context) error {
	if p, ok := a.store.(pinger); ok {
		return p.Ping(ctx)
	}
	_, err := a.store.List(ctx)
	return err
}
