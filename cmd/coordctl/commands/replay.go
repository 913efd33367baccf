package commands

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"coordinator/pkg/guard"
	"coordinator/pkg/metrics"
	"coordinator/pkg/pipeline"
	"coordinator/pkg/sequencer"
	"coordinator/pkg/session"
	"coordinator/pkg/telemetry"
)

var tracePath string

var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Replay a recorded event trace through the coordination components",
	Long: `Replay reads a JSONL event trace recorded by the host runtime,
validates it, and drives the guard and sequencer with it. The summary shows
which sessions would have escalated and which documents would have been
injected, without touching a live pipeline.`,
	RunE: runReplay,
}

func init() {
	replayCmd.Flags().StringVar(&tracePath, "trace", "", "Path to the events.jsonl trace file")
	_ = replayCmd.MarkFlagRequired("trace")
}

func runReplay(cmd *cobra.Command, _ []string) error {
	logger := rootLogger()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if err := validateTraceFile(tracePath); err != nil {
		return err
	}

	var sink telemetry.Sink
	if cfg.Telemetry.DBPath != "" {
		store, err := telemetry.Open(cfg.Telemetry.DBPath)
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()
		sink = store
	}

	recorder := metrics.NewRecorder(prometheus.NewRegistry())

	g, err := guard.New(guard.Config{
		MaxConsecutiveCalls: cfg.Guard.MaxConsecutiveCalls,
		MonitoredTool:       cfg.Guard.MonitoredTool,
		MonitoredCaller:     cfg.Guard.MonitoredCaller,
		ExpectedResetAgent:  cfg.Guard.ExpectedResetAgent,
		Registry:            session.NewRegistry(),
		Logger:              logger,
		Metrics:             recorder,
		Telemetry:           sink,
	})
	if err != nil {
		return err
	}

	seq, err := sequencer.New(sequencer.Config{
		Resolver:  sequencer.DirResolver(cfg.Sequencer.DocsRoot),
		Logger:    logger,
		Metrics:   recorder,
		Telemetry: sink,
	})
	if err != nil {
		return err
	}

	coord := pipeline.New(g, seq, logger)

	events, err := pipeline.LoadTrace(tracePath)
	if err != nil {
		return err
	}

	summary := coord.Replay(events)

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "events replayed:  %d\n", summary.Events)
	fmt.Fprintf(out, "escalations:      %d\n", summary.Escalations)
	fmt.Fprintf(out, "docs injected:    %d\n", summary.Injections)
	for _, id := range summary.SessionIDs() {
		fmt.Fprintf(out, "session %s: final count %d\n", id, summary.FinalCounts[id])
	}
	return nil
}
