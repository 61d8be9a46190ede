package commands

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/jobpulse/jobpulse-go/internal/cache"
	"github.com/jobpulse/jobpulse-go/internal/config"
	"github.com/jobpulse/jobpulse-go/internal/logging"
	"github.com/jobpulse/jobpulse-go/internal/match"
	"github.com/jobpulse/jobpulse-go/internal/profile"
	"github.com/jobpulse/jobpulse-go/internal/server"
)

// NewServeCmd constructs the `jobpulse serve` command, which starts the
// HTTP query API over the stored postings.
func NewServeCmd() *cobra.Command {
	var host string
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the jobpulse HTTP query API",
		Long: `Start the HTTP API serving recent postings, per-user saved lists,
profile management, and hybrid keyword + semantic matches.

Examples:
  jobpulse serve
  jobpulse serve --port 9090`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			cfg := config.FromEnv()
			log := logging.New(cfg.Logging.Level, cfg.Logging.Format)
			ctx = logging.WithLogger(ctx, log)

			store, err := openStore(ctx, cfg)
			if err != nil {
				return fmt.Errorf("serve: %w", err)
			}
			defer store.Close()

			embedCache, closeCache, err := openCache(ctx, cfg, log)
			if err != nil {
				return fmt.Errorf("serve: %w", err)
			}
			defer closeCache()

			aiSvc, err := newAIService(cfg, embedCache)
			if err != nil {
				return fmt.Errorf("serve: %w", err)
			}

			matcher, err := match.New(store)
			if err != nil {
				return fmt.Errorf("serve: %w", err)
			}
			profiles, err := profile.New(store, aiSvc, matcher)
			if err != nil {
				return fmt.Errorf("serve: %w", err)
			}

			reg := prometheus.NewRegistry()
			reg.MustRegister(
				collectors.NewGoCollector(),
				collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			)

			pingers := []server.Pinger{
				server.PingerFunc{Label: "postgres", Fn: store.Ping},
			}
			if rc, ok := embedCache.(*cache.Redis); ok {
				pingers = append(pingers, server.PingerFunc{Label: "redis", Fn: rc.Ping})
			}

			if host == "" {
				host = cfg.Server.Host
			}
			if port == 0 {
				port = cfg.Server.Port
			}

			srv, err := server.New(store, profiles, reg, &server.Config{
				Host:     host,
				Port:     port,
				PageSize: cfg.Server.PageSize,
				Logger:   log,
				Pingers:  pingers,
			})
			if err != nil {
				return fmt.Errorf("serve: failed to create server: %w", err)
			}

			return srv.Start(ctx)
		},
	}

	cmd.Flags().StringVar(&host, "host", "", "Host address to bind to (default from config)")
	cmd.Flags().IntVarP(&port, "port", "p", 0, "TCP port to listen on (default from config)")

	return cmd
}
