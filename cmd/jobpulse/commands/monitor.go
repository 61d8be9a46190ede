package commands

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/jobpulse/jobpulse-go/internal/config"
	"github.com/jobpulse/jobpulse-go/internal/ingest"
	"github.com/jobpulse/jobpulse-go/internal/logging"
	"github.com/jobpulse/jobpulse-go/internal/monitor"
)

// NewMonitorCmd constructs the `jobpulse monitor` command, which runs the
// channel ingestion agent: a paced backfill of every visible channel's
// recent history, then live message processing.
func NewMonitorCmd() *cobra.Command {
	var replayPath string
	var backfillOnly bool

	cmd := &cobra.Command{
		Use:   "monitor",
		Short: "Run the channel ingestion agent",
		Long: `Run the ingestion agent: backfill the recent history of every
visible channel through the spam/extract/dedup pipeline, then process
live messages as they arrive.

Re-running monitor is safe — already-processed messages are skipped and
postings are never double-counted.

Examples:
  jobpulse monitor --replay dump.ndjson
  jobpulse monitor --replay dump.ndjson --backfill-only`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			cfg := config.FromEnv()
			log := logging.New(cfg.Logging.Level, cfg.Logging.Format)
			ctx = logging.WithLogger(ctx, log)

			if replayPath == "" {
				return fmt.Errorf("monitor: --replay is required; the live platform client is configured separately")
			}

			f, err := os.Open(replayPath)
			if err != nil {
				return fmt.Errorf("monitor: open replay dump: %w", err)
			}
			defer f.Close()

			src, err := monitor.NewReplaySource(f)
			if err != nil {
				return err
			}
			log.Info("replay source loaded", slog.String("path", replayPath))

			store, err := openStore(ctx, cfg)
			if err != nil {
				return fmt.Errorf("monitor: %w", err)
			}
			defer store.Close()

			embedCache, closeCache, err := openCache(ctx, cfg, log)
			if err != nil {
				return fmt.Errorf("monitor: %w", err)
			}
			defer closeCache()

			aiSvc, err := newAIService(cfg, embedCache)
			if err != nil {
				return fmt.Errorf("monitor: %w", err)
			}

			coord, err := ingest.New(aiSvc, store, &ingest.Config{
				DuplicateThreshold: cfg.Ingest.DuplicateThreshold,
			}, ingest.NewMetrics(prometheus.NewRegistry()))
			if err != nil {
				return fmt.Errorf("monitor: %w", err)
			}

			agent, err := monitor.New(src, coord, store, &monitor.Config{
				BackfillWindow:  cfg.Ingest.BackfillWindow,
				MessageInterval: cfg.Ingest.MessageInterval(),
				ChannelInterval: cfg.Ingest.ChannelInterval(),
			})
			if err != nil {
				return fmt.Errorf("monitor: %w", err)
			}

			if backfillOnly {
				return agent.Backfill(ctx)
			}
			return agent.Run(ctx)
		},
	}

	cmd.Flags().StringVar(&replayPath, "replay", "", "Path to an NDJSON message dump to ingest")
	cmd.Flags().BoolVar(&backfillOnly, "backfill-only", false, "Exit after the backfill phase instead of waiting on the live feed")

	return cmd
}
